// Package records implements the transactional field logs: production,
// input applications, labor and disease reports. Records are append-only;
// display names of referenced catalog entries are copied at write time so
// history survives later catalog edits.
package records

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/agrovida/hidrofresa/internal/domain/models"
	"github.com/agrovida/hidrofresa/internal/repository/mongodb"
	"github.com/agrovida/hidrofresa/pkg/clients/gemini"
)

var (
	// ErrValidation indicates a rejected draft; nothing was written.
	ErrValidation = errors.New("validation failed")
	// ErrStaleReference indicates a referenced catalog entry no longer
	// resolves.
	ErrStaleReference = errors.New("referenced entry not found")
)

// Service carries the record controllers.
type Service struct {
	docs   mongodb.Store
	ai     gemini.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires the records service. The AI client may be nil, which
// disables diagnosis suggestions.
func NewService(docs mongodb.Store, ai gemini.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{docs: docs, ai: ai, logger: logger, now: time.Now}
}

/* ---- production ---- */

// ProductionDraft carries a harvest entry before validation.
type ProductionDraft struct {
	Date       time.Time
	ProductID  string
	QuantityKg float64
	LocationID string
	Quality    models.Quality
}

// SubmitProduction validates and stores a harvest record.
func (s *Service) SubmitProduction(ctx context.Context, actorID string, draft ProductionDraft) (string, error) {
	switch {
	case draft.Date.IsZero():
		return "", fmt.Errorf("%w: date is required", ErrValidation)
	case draft.ProductID == "":
		return "", fmt.Errorf("%w: product is required", ErrValidation)
	case draft.LocationID == "":
		return "", fmt.Errorf("%w: location is required", ErrValidation)
	case draft.QuantityKg <= 0:
		return "", fmt.Errorf("%w: quantity must be a positive number", ErrValidation)
	case !draft.Quality.Valid():
		return "", fmt.Errorf("%w: unknown quality %q", ErrValidation, draft.Quality)
	}

	product, err := s.resolveProduct(ctx, draft.ProductID)
	if err != nil {
		return "", err
	}
	location, err := s.resolveLocation(ctx, draft.LocationID)
	if err != nil {
		return "", err
	}

	record := models.ProductionRecord{
		Date:         draft.Date,
		ProductID:    product.ID,
		ProductName:  product.Name,
		QuantityKg:   draft.QuantityKg,
		LocationID:   location.ID,
		LocationName: location.Name,
		Quality:      draft.Quality,
		CreatedAt:    s.now(),
		CreatedBy:    actorID,
	}
	id, err := s.docs.Insert(ctx, models.CollectionProductionRecords, record)
	if err != nil {
		return "", fmt.Errorf("save production record: %w", err)
	}
	s.logger.Info("production recorded",
		zap.String("id", id),
		zap.String("location", location.Name),
		zap.Float64("quantityKg", draft.QuantityKg))
	return id, nil
}

/* ---- input applications ---- */

// ApplicationLine is one requested input of an application draft. Only the
// quantity is trusted from the caller; name, unit and price come from the
// catalog and the subtotal is recomputed here.
type ApplicationLine struct {
	InputID  string
	Quantity float64
}

// ApplicationDraft carries an input application before validation.
type ApplicationDraft struct {
	Date       time.Time
	LocationID string
	Objective  string
	Lines      []ApplicationLine
}

// SubmitInputApplication validates and stores an input application together
// with its companion cost entry. Both documents are written in a single
// transaction; a failure on either side leaves nothing behind.
func (s *Service) SubmitInputApplication(ctx context.Context, actorID string, draft ApplicationDraft) (string, error) {
	draft.Objective = strings.TrimSpace(draft.Objective)
	switch {
	case draft.Date.IsZero():
		return "", fmt.Errorf("%w: date is required", ErrValidation)
	case draft.LocationID == "":
		return "", fmt.Errorf("%w: location is required", ErrValidation)
	case draft.Objective == "":
		return "", fmt.Errorf("%w: objective is required", ErrValidation)
	case len(draft.Lines) == 0:
		return "", fmt.Errorf("%w: at least one input is required", ErrValidation)
	}

	location, err := s.resolveLocation(ctx, draft.LocationID)
	if err != nil {
		return "", err
	}

	applied := make([]models.AppliedInput, 0, len(draft.Lines))
	total := 0.0
	for i, line := range draft.Lines {
		if line.Quantity <= 0 {
			return "", fmt.Errorf("%w: input %d quantity must be a positive number", ErrValidation, i+1)
		}
		input, err := s.resolveInput(ctx, line.InputID)
		if err != nil {
			return "", err
		}
		subtotal := round2(line.Quantity * input.Price)
		applied = append(applied, models.AppliedInput{
			InputID:   input.ID,
			InputName: input.Name,
			Quantity:  line.Quantity,
			Unit:      input.UnitAbbreviation,
			Price:     input.Price,
			Subtotal:  subtotal,
		})
		total += subtotal
	}
	total = round2(total)

	application := models.InputApplication{
		Date:          draft.Date,
		LocationID:    location.ID,
		LocationName:  location.Name,
		Objective:     draft.Objective,
		AppliedInputs: applied,
		TotalCost:     total,
		CreatedAt:     s.now(),
		CreatedBy:     actorID,
	}
	cost := models.Cost{
		Date:        draft.Date,
		Type:        models.CostTypeInputApplication,
		Description: fmt.Sprintf("Aplicación de insumos en %s para %s", location.Name, draft.Objective),
		Amount:      total,
		CreatedAt:   s.now(),
		CreatedBy:   actorID,
	}

	var applicationID string
	err = s.docs.WithTransaction(ctx, func(ctx context.Context) error {
		id, err := s.docs.Insert(ctx, models.CollectionInputApplications, application)
		if err != nil {
			return fmt.Errorf("save application: %w", err)
		}
		if _, err := s.docs.Insert(ctx, models.CollectionCosts, cost); err != nil {
			return fmt.Errorf("save cost entry: %w", err)
		}
		applicationID = id
		return nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("input application recorded",
		zap.String("id", applicationID),
		zap.String("location", location.Name),
		zap.Float64("totalCost", total))
	return applicationID, nil
}

/* ---- labor ---- */

// LaborDraft carries a field work entry before validation.
type LaborDraft struct {
	Date         time.Time
	LocationID   string
	LaborTypeID  string
	Observations string
}

// SubmitLabor validates and stores a field work record.
func (s *Service) SubmitLabor(ctx context.Context, actorID string, draft LaborDraft) (string, error) {
	switch {
	case draft.Date.IsZero():
		return "", fmt.Errorf("%w: date is required", ErrValidation)
	case draft.LocationID == "":
		return "", fmt.Errorf("%w: location is required", ErrValidation)
	case draft.LaborTypeID == "":
		return "", fmt.Errorf("%w: labor type is required", ErrValidation)
	}

	location, err := s.resolveLocation(ctx, draft.LocationID)
	if err != nil {
		return "", err
	}
	laborType, err := s.resolveLaborType(ctx, draft.LaborTypeID)
	if err != nil {
		return "", err
	}

	record := models.LaborRecord{
		Date:          draft.Date,
		LocationID:    location.ID,
		LocationName:  location.Name,
		LaborTypeID:   laborType.ID,
		LaborTypeName: laborType.Name,
		Observations:  strings.TrimSpace(draft.Observations),
		CreatedAt:     s.now(),
		CreatedBy:     actorID,
	}
	id, err := s.docs.Insert(ctx, models.CollectionLaborRecords, record)
	if err != nil {
		return "", fmt.Errorf("save labor record: %w", err)
	}
	return id, nil
}

/* ---- disease reports ---- */

// DiseaseReportDraft carries a disease incident before validation.
type DiseaseReportDraft struct {
	Date       time.Time
	LocationID string
	DiseaseID  string
	Severity   models.Severity
	Comments   string
	PhotoURL   string
}

// SubmitDiseaseReport validates and stores a disease incident.
func (s *Service) SubmitDiseaseReport(ctx context.Context, actorID string, draft DiseaseReportDraft) (string, error) {
	switch {
	case draft.Date.IsZero():
		return "", fmt.Errorf("%w: date is required", ErrValidation)
	case draft.LocationID == "":
		return "", fmt.Errorf("%w: location is required", ErrValidation)
	case draft.DiseaseID == "":
		return "", fmt.Errorf("%w: disease is required", ErrValidation)
	case !draft.Severity.Valid():
		return "", fmt.Errorf("%w: unknown severity %q", ErrValidation, draft.Severity)
	}

	location, err := s.resolveLocation(ctx, draft.LocationID)
	if err != nil {
		return "", err
	}
	disease, err := s.resolveDisease(ctx, draft.DiseaseID)
	if err != nil {
		return "", err
	}

	report := models.DiseaseReport{
		Date:         draft.Date,
		LocationID:   location.ID,
		LocationName: location.Name,
		DiseaseID:    disease.ID,
		DiseaseName:  disease.Name,
		Severity:     draft.Severity,
		Comments:     strings.TrimSpace(draft.Comments),
		PhotoURL:     draft.PhotoURL,
		CreatedAt:    s.now(),
		CreatedBy:    actorID,
	}
	id, err := s.docs.Insert(ctx, models.CollectionDiseaseReports, report)
	if err != nil {
		return "", fmt.Errorf("save disease report: %w", err)
	}
	return id, nil
}

// SuggestDiagnosis asks the AI for a likely diagnosis and treatment
// suggestion from observed symptoms. The suggestion is advisory text and is
// stored on the report only if the caller attaches it.
func (s *Service) SuggestDiagnosis(ctx context.Context, symptoms string) (string, error) {
	symptoms = strings.TrimSpace(symptoms)
	if symptoms == "" {
		return "", fmt.Errorf("%w: symptoms description is required", ErrValidation)
	}
	if s.ai == nil {
		return "", errors.New("ai suggestions are not configured")
	}

	prompt := fmt.Sprintf(
		"Eres un agrónomo experto en cultivos hidropónicos de fresa. "+
			"Con base en los siguientes síntomas observados, sugiere un diagnóstico "+
			"probable y un tratamiento breve. Responde en español, máximo 120 palabras.\n\n"+
			"Síntomas: %s", symptoms)

	suggestion, err := s.ai.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("diagnosis suggestion: %w", err)
	}
	return strings.TrimSpace(suggestion), nil
}

// AttachDiagnosis stores an accepted AI suggestion on an existing report.
func (s *Service) AttachDiagnosis(ctx context.Context, reportID, suggestion string) error {
	err := s.docs.Update(ctx, models.CollectionDiseaseReports, reportID, bson.M{
		"aiDiagnosisSuggestion": suggestion,
	})
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return ErrStaleReference
		}
		return fmt.Errorf("attach diagnosis: %w", err)
	}
	return nil
}

/* ---- catalog resolution ---- */

func (s *Service) resolveLocation(ctx context.Context, id string) (models.Location, error) {
	var loc models.Location
	if err := s.resolve(ctx, models.CollectionLocations, id, &loc); err != nil {
		return models.Location{}, err
	}
	return loc, nil
}

func (s *Service) resolveProduct(ctx context.Context, id string) (models.Product, error) {
	var p models.Product
	if err := s.resolve(ctx, models.CollectionProducts, id, &p); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

func (s *Service) resolveInput(ctx context.Context, id string) (models.Input, error) {
	var in models.Input
	if err := s.resolve(ctx, models.CollectionInputs, id, &in); err != nil {
		return models.Input{}, err
	}
	return in, nil
}

func (s *Service) resolveLaborType(ctx context.Context, id string) (models.LaborType, error) {
	var lt models.LaborType
	if err := s.resolve(ctx, models.CollectionLaborTypes, id, &lt); err != nil {
		return models.LaborType{}, err
	}
	return lt, nil
}

func (s *Service) resolveDisease(ctx context.Context, id string) (models.Disease, error) {
	var d models.Disease
	if err := s.resolve(ctx, models.CollectionDiseases, id, &d); err != nil {
		return models.Disease{}, err
	}
	return d, nil
}

func (s *Service) resolve(ctx context.Context, collection, id string, out any) error {
	if err := s.docs.Get(ctx, collection, id, out); err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return fmt.Errorf("%w: %s %s", ErrStaleReference, collection, id)
		}
		return fmt.Errorf("resolve %s: %w", collection, err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
