// Package session tracks the authenticated principal and resolves its role
// from the profile collection. It also carries the admin-only user
// management operations, since both act on the same documents.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/agrovida/hidrofresa/internal/domain/models"
	"github.com/agrovida/hidrofresa/internal/notify"
	"github.com/agrovida/hidrofresa/internal/repository/mongodb"
)

// ErrInvalidRole indicates a role change to an unknown role value.
var ErrInvalidRole = errors.New("invalid role")

// Session is the resolved principal.
type Session struct {
	UserID string
	Email  string
	Role   models.Role
}

// Store resolves and caches each signed-in principal's identity and role,
// keyed by user id. Nothing role-gated may proceed before Ready reports
// true.
type Store struct {
	docs   mongodb.Store
	notify *notify.Center
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
	ready    bool
}

// NewStore wires a session store over the document store.
func NewStore(docs mongodb.Store, center *notify.Center, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		docs:     docs,
		notify:   center,
		logger:   logger,
		now:      time.Now,
		sessions: map[string]*Session{},
	}
}

// ResolveRole looks up the profile for userID, creating it with the default
// basic role on first sign-in. The returned role is always usable: lookup
// failures fall back to basic alongside the error.
func (s *Store) ResolveRole(ctx context.Context, userID, email string) (models.Role, error) {
	var user models.User
	err := s.docs.Get(ctx, models.CollectionUsers, userID, &user)
	switch {
	case err == nil:
		// Best-effort login stamp; a failure here must not block sign-in.
		if uerr := s.docs.Update(ctx, models.CollectionUsers, userID, bson.M{"lastLoginAt": s.now()}); uerr != nil {
			s.logger.Debug("failed stamping lastLoginAt", zap.String("user", userID), zap.Error(uerr))
		}
		if !user.Role.Valid() {
			return models.RoleBasic, nil
		}
		return user.Role, nil

	case errors.Is(err, mongodb.ErrNotFound):
		if email == "" {
			email = syntheticEmail(userID)
		}
		profile := models.User{
			Email:       email,
			Role:        models.RoleBasic,
			IsActive:    true,
			CreatedAt:   s.now(),
			LastLoginAt: s.now(),
		}
		if serr := s.docs.Set(ctx, models.CollectionUsers, userID, profile); serr != nil {
			return models.RoleBasic, fmt.Errorf("create profile: %w", serr)
		}
		return models.RoleBasic, nil

	default:
		return models.RoleBasic, fmt.Errorf("load profile: %w", err)
	}
}

// HandleSignIn resolves the role and marks the store ready. A resolution
// failure degrades to the basic role with a warning toast, never blocking
// application boot.
func (s *Store) HandleSignIn(ctx context.Context, userID, email string) models.Role {
	role, err := s.ResolveRole(ctx, userID, email)
	if err != nil {
		s.logger.Warn("role resolution failed, falling back to basic", zap.String("user", userID), zap.Error(err))
		if s.notify != nil {
			s.notify.Warning(userID, "Could not load your user role. Continuing as basic operator.")
		}
	}

	s.mu.Lock()
	s.sessions[userID] = &Session{UserID: userID, Email: email, Role: role}
	s.ready = true
	s.mu.Unlock()

	return role
}

// HandleSignOut clears the user's identity and role in one step. Other
// users' sessions are untouched.
func (s *Store) HandleSignOut(userID string) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}

// Ready reports whether a sign-in resolution (success or fallback) has
// completed at least once.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Current returns the user's active session, if any.
func (s *Store) Current(userID string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

/* ---- admin user management ---- */

// ListUsers returns every profile, archived ones included.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.docs.Query(ctx, models.CollectionUsers, bson.M{}, &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ChangeRole updates a user's role.
func (s *Store) ChangeRole(ctx context.Context, actorID, userID string, role models.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	fields := bson.M{"role": role, "updatedAt": s.now(), "updatedBy": actorID}
	if err := s.docs.Update(ctx, models.CollectionUsers, userID, fields); err != nil {
		return fmt.Errorf("change role: %w", err)
	}
	s.logger.Info("user role changed", zap.String("user", userID), zap.String("role", string(role)), zap.String("by", actorID))
	return nil
}

// SetActive archives (false) or reactivates (true) a user. Profiles are
// never hard-deleted.
func (s *Store) SetActive(ctx context.Context, actorID, userID string, active bool) error {
	fields := bson.M{"isActive": active, "updatedBy": actorID}
	if active {
		fields["archivedAt"] = nil
	} else {
		fields["archivedAt"] = s.now()
	}
	if err := s.docs.Update(ctx, models.CollectionUsers, userID, fields); err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	return nil
}

func syntheticEmail(userID string) string {
	uid := userID
	if len(uid) > 8 {
		uid = uid[:8]
	}
	return fmt.Sprintf("user_%s@example.com", uid)
}
