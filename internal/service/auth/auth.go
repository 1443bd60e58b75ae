// Package auth owns email/password accounts: sign-in, registration,
// password reset and bearer token issuing.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/agrovida/hidrofresa/internal/domain/models"
	"github.com/agrovida/hidrofresa/internal/repository/mongodb"
)

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailInUse indicates a registration with an already-taken email.
	ErrEmailInUse = errors.New("email already in use")
	// ErrWeakPassword indicates a password below the minimum length.
	ErrWeakPassword = errors.New("password too short")
	// ErrUserNotFound indicates a password reset for an unknown email.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccountArchived indicates a sign-in on a deactivated account.
	ErrAccountArchived = errors.New("account is archived")
	// ErrInvalidToken indicates an unparsable or expired session token.
	ErrInvalidToken = errors.New("invalid session token")
)

const minPasswordLength = 8

// Service implements the authentication operations.
type Service struct {
	docs     mongodb.Store
	secret   []byte
	tokenTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires an auth service. tokenTTL bounds issued session tokens.
func NewService(docs mongodb.Store, secret string, tokenTTL time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{
		docs:     docs,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

// Authenticate verifies the credentials and returns a signed session token
// together with the user profile.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, models.User, error) {
	email = NormalizeEmail(email)

	var user models.User
	err := s.docs.QueryOne(ctx, models.CollectionUsers, bson.M{"email": email}, &user)
	if errors.Is(err, mongodb.ErrNotFound) {
		return "", models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", models.User{}, fmt.Errorf("lookup account: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", models.User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", models.User{}, ErrAccountArchived
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return "", models.User{}, err
	}

	s.logger.Info("user authenticated", zap.String("user", user.ID))
	return token, user, nil
}

// CreateAccount registers a new user with the default basic role and
// returns the new principal id.
func (s *Service) CreateAccount(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("%w: malformed email", ErrInvalidCredentials)
	}
	if len(strings.TrimSpace(password)) < minPasswordLength {
		return "", ErrWeakPassword
	}

	var existing models.User
	err := s.docs.QueryOne(ctx, models.CollectionUsers, bson.M{"email": email}, &existing)
	if err == nil {
		return "", ErrEmailInUse
	}
	if !errors.Is(err, mongodb.ErrNotFound) {
		return "", fmt.Errorf("check existing account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(password)), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleBasic,
		IsActive:     true,
		CreatedAt:    s.now(),
	}
	id, err := s.docs.Insert(ctx, models.CollectionUsers, user)
	if err != nil {
		return "", fmt.Errorf("create account: %w", err)
	}

	s.logger.Info("account created", zap.String("user", id))
	return id, nil
}

// SendPasswordReset generates a one-hour reset token for the account and
// stores only its hash. The caller delivers the returned token out of band.
func (s *Service) SendPasswordReset(ctx context.Context, email string) (string, error) {
	email = NormalizeEmail(email)

	var user models.User
	err := s.docs.QueryOne(ctx, models.CollectionUsers, bson.M{"email": email}, &user)
	if errors.Is(err, mongodb.ErrNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup account: %w", err)
	}

	token := uuid.NewString()
	digest := sha256.Sum256([]byte(token))
	fields := bson.M{
		"resetTokenHash":   hex.EncodeToString(digest[:]),
		"resetTokenExpiry": s.now().Add(time.Hour),
	}
	if err := s.docs.Update(ctx, models.CollectionUsers, user.ID, fields); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	return token, nil
}

// ResetPassword consumes a reset token and replaces the account password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(strings.TrimSpace(newPassword)) < minPasswordLength {
		return ErrWeakPassword
	}

	digest := sha256.Sum256([]byte(token))
	var user models.User
	err := s.docs.QueryOne(ctx, models.CollectionUsers, bson.M{"resetTokenHash": hex.EncodeToString(digest[:])}, &user)
	if errors.Is(err, mongodb.ErrNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("lookup reset token: %w", err)
	}
	if user.ResetTokenExpiry.Before(s.now()) {
		return ErrInvalidToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(newPassword)), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	fields := bson.M{
		"passwordHash":     string(hash),
		"resetTokenHash":   "",
		"resetTokenExpiry": time.Time{},
	}
	if err := s.docs.Update(ctx, models.CollectionUsers, user.ID, fields); err != nil {
		return fmt.Errorf("store new password: %w", err)
	}

	s.logger.Info("password reset completed", zap.String("user", user.ID))
	return nil
}

// ParseToken validates a bearer token and returns the subject user id.
func (s *Service) ParseToken(tokenString string) (string, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

func (s *Service) issueToken(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
