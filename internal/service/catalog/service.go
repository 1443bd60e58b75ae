// Package catalog implements the admin-managed reference lists: locations,
// units, input types, inputs, products, labor types, diseases and nutrient
// recipes. Every write validates first; references are denormalized by
// copying the referenced entity's display fields at write time.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/agrovida/hidrofresa/internal/domain/models"
	"github.com/agrovida/hidrofresa/internal/repository/mongodb"
)

var (
	// ErrValidation indicates a client-local validation failure; nothing
	// was written.
	ErrValidation = errors.New("validation failed")
	// ErrStaleReference indicates a referenced catalog entry no longer
	// resolves (archived or removed since the form loaded).
	ErrStaleReference = errors.New("referenced entry not found")
)

// Service carries the catalog controllers.
type Service struct {
	docs   mongodb.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires the catalog service.
func NewService(docs mongodb.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{docs: docs, logger: logger, now: time.Now}
}

/* ---- locations ---- */

// CreateLocation adds a growing area.
func (s *Service) CreateLocation(ctx context.Context, actorID, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: location name is required", ErrValidation)
	}
	loc := models.Location{
		Name:     name,
		IsActive: true,
		Audit:    s.createdStamp(actorID),
	}
	return s.insert(ctx, models.CollectionLocations, loc)
}

// UpdateLocation renames a growing area.
func (s *Service) UpdateLocation(ctx context.Context, actorID, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: location name is required", ErrValidation)
	}
	return s.update(ctx, models.CollectionLocations, id, actorID, bson.M{"name": name})
}

/* ---- units ---- */

// CreateUnit adds a measurement unit.
func (s *Service) CreateUnit(ctx context.Context, actorID, name, abbreviation string) (string, error) {
	name = strings.TrimSpace(name)
	abbreviation = strings.TrimSpace(abbreviation)
	if name == "" || abbreviation == "" {
		return "", fmt.Errorf("%w: unit name and abbreviation are required", ErrValidation)
	}
	unit := models.Unit{
		Name:         name,
		Abbreviation: abbreviation,
		IsActive:     true,
		Audit:        s.createdStamp(actorID),
	}
	return s.insert(ctx, models.CollectionUnits, unit)
}

// UpdateUnit edits a measurement unit. Existing inputs and products keep
// the names they copied when they were written.
func (s *Service) UpdateUnit(ctx context.Context, actorID, id, name, abbreviation string) error {
	name = strings.TrimSpace(name)
	abbreviation = strings.TrimSpace(abbreviation)
	if name == "" || abbreviation == "" {
		return fmt.Errorf("%w: unit name and abbreviation are required", ErrValidation)
	}
	return s.update(ctx, models.CollectionUnits, id, actorID, bson.M{"name": name, "abbreviation": abbreviation})
}

/* ---- input types ---- */

// CreateInputType adds an input category.
func (s *Service) CreateInputType(ctx context.Context, actorID, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: input type name is required", ErrValidation)
	}
	it := models.InputType{
		Name:     name,
		IsActive: true,
		Audit:    s.createdStamp(actorID),
	}
	return s.insert(ctx, models.CollectionInputTypes, it)
}

// UpdateInputType renames an input category.
func (s *Service) UpdateInputType(ctx context.Context, actorID, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: input type name is required", ErrValidation)
	}
	return s.update(ctx, models.CollectionInputTypes, id, actorID, bson.M{"name": name})
}

/* ---- inputs ---- */

// InputDraft carries the fields of a catalog input create/update.
type InputDraft struct {
	Name             string
	UnitID           string
	Price            float64
	InputTypeID      string
	ActiveComponents []models.ActiveComponent
}

func (d *InputDraft) validate() error {
	d.Name = strings.TrimSpace(d.Name)
	switch {
	case d.Name == "":
		return fmt.Errorf("%w: input name is required", ErrValidation)
	case d.UnitID == "":
		return fmt.Errorf("%w: unit is required", ErrValidation)
	case d.InputTypeID == "":
		return fmt.Errorf("%w: input type is required", ErrValidation)
	case d.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	case len(d.ActiveComponents) == 0:
		return fmt.Errorf("%w: at least one active component is required", ErrValidation)
	}
	for i := range d.ActiveComponents {
		d.ActiveComponents[i].Name = strings.TrimSpace(d.ActiveComponents[i].Name)
		if d.ActiveComponents[i].Name == "" {
			return fmt.Errorf("%w: component %d name is required", ErrValidation, i+1)
		}
		// Percentages are free-form: non-negative, no sum constraint.
		if d.ActiveComponents[i].Percentage < 0 {
			return fmt.Errorf("%w: component %d percentage must not be negative", ErrValidation, i+1)
		}
	}
	return nil
}

// CreateInput adds a catalog input, copying the unit and type display
// names into the new document.
func (s *Service) CreateInput(ctx context.Context, actorID string, draft InputDraft) (string, error) {
	if err := draft.validate(); err != nil {
		return "", err
	}

	unit, err := s.resolveUnit(ctx, draft.UnitID)
	if err != nil {
		return "", err
	}
	inputType, err := s.resolveInputType(ctx, draft.InputTypeID)
	if err != nil {
		return "", err
	}

	input := models.Input{
		Name:             draft.Name,
		UnitID:           unit.ID,
		UnitName:         unit.Name,
		UnitAbbreviation: unit.Abbreviation,
		Price:            draft.Price,
		InputTypeID:      inputType.ID,
		InputTypeName:    inputType.Name,
		ActiveComponents: draft.ActiveComponents,
		IsActive:         true,
		Audit:            s.createdStamp(actorID),
	}
	return s.insert(ctx, models.CollectionInputs, input)
}

// UpdateInput edits a catalog input, re-resolving the unit and type so the
// patch carries their current display names.
func (s *Service) UpdateInput(ctx context.Context, actorID, id string, draft InputDraft) error {
	if err := draft.validate(); err != nil {
		return err
	}

	unit, err := s.resolveUnit(ctx, draft.UnitID)
	if err != nil {
		return err
	}
	inputType, err := s.resolveInputType(ctx, draft.InputTypeID)
	if err != nil {
		return err
	}

	fields := bson.M{
		"name":             draft.Name,
		"unitId":           unit.ID,
		"unitName":         unit.Name,
		"unitAbbreviation": unit.Abbreviation,
		"price":            draft.Price,
		"inputTypeId":      inputType.ID,
		"inputTypeName":    inputType.Name,
		"activeComponents": draft.ActiveComponents,
	}
	return s.update(ctx, models.CollectionInputs, id, actorID, fields)
}

/* ---- products ---- */

// ProductDraft carries the fields of a product create/update.
type ProductDraft struct {
	Name   string
	UnitID string
	Price  float64
}

func (d *ProductDraft) validate() error {
	d.Name = strings.TrimSpace(d.Name)
	switch {
	case d.Name == "":
		return fmt.Errorf("%w: product name is required", ErrValidation)
	case d.UnitID == "":
		return fmt.Errorf("%w: unit is required", ErrValidation)
	case d.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return nil
}

// CreateProduct adds a sellable product.
func (s *Service) CreateProduct(ctx context.Context, actorID string, draft ProductDraft) (string, error) {
	if err := draft.validate(); err != nil {
		return "", err
	}

	unit, err := s.resolveUnit(ctx, draft.UnitID)
	if err != nil {
		return "", err
	}

	product := models.Product{
		Name:             draft.Name,
		UnitID:           unit.ID,
		UnitName:         unit.Name,
		UnitAbbreviation: unit.Abbreviation,
		Price:            draft.Price,
		IsActive:         true,
		Audit:            s.createdStamp(actorID),
	}
	return s.insert(ctx, models.CollectionProducts, product)
}

// UpdateProduct edits a product.
func (s *Service) UpdateProduct(ctx context.Context, actorID, id string, draft ProductDraft) error {
	if err := draft.validate(); err != nil {
		return err
	}

	unit, err := s.resolveUnit(ctx, draft.UnitID)
	if err != nil {
		return err
	}

	fields := bson.M{
		"name":             draft.Name,
		"unitId":           unit.ID,
		"unitName":         unit.Name,
		"unitAbbreviation": unit.Abbreviation,
		"price":            draft.Price,
	}
	return s.update(ctx, models.CollectionProducts, id, actorID, fields)
}

/* ---- labor types ---- */

// CreateLaborType adds a kind of field work.
func (s *Service) CreateLaborType(ctx context.Context, actorID, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: labor type name is required", ErrValidation)
	}
	lt := models.LaborType{
		Name:     name,
		IsActive: true,
		Audit:    s.createdStamp(actorID),
	}
	return s.insert(ctx, models.CollectionLaborTypes, lt)
}

// UpdateLaborType renames a kind of field work.
func (s *Service) UpdateLaborType(ctx context.Context, actorID, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: labor type name is required", ErrValidation)
	}
	return s.update(ctx, models.CollectionLaborTypes, id, actorID, bson.M{"name": name})
}

/* ---- diseases ---- */

// DiseaseDraft carries the fields of a disease create/update.
type DiseaseDraft struct {
	Name        string
	Symptoms    string
	Indications string
	PhotoURLs   []string
}

func (d *DiseaseDraft) validate() error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return fmt.Errorf("%w: disease name is required", ErrValidation)
	}
	return nil
}

// CreateDisease adds a disease reference entry.
func (s *Service) CreateDisease(ctx context.Context, actorID string, draft DiseaseDraft) (string, error) {
	if err := draft.validate(); err != nil {
		return "", err
	}
	disease := models.Disease{
		Name:        draft.Name,
		Symptoms:    draft.Symptoms,
		Indications: draft.Indications,
		PhotoURLs:   draft.PhotoURLs,
		IsActive:    true,
		Audit:       s.createdStamp(actorID),
	}
	return s.insert(ctx, models.CollectionDiseases, disease)
}

// UpdateDisease edits a disease reference entry.
func (s *Service) UpdateDisease(ctx context.Context, actorID, id string, draft DiseaseDraft) error {
	if err := draft.validate(); err != nil {
		return err
	}
	fields := bson.M{
		"name":        draft.Name,
		"symptoms":    draft.Symptoms,
		"indications": draft.Indications,
		"photoUrls":   draft.PhotoURLs,
	}
	return s.update(ctx, models.CollectionDiseases, id, actorID, fields)
}

/* ---- nutrient recipes ---- */

// RecipeDraft carries the fields of a nutrient recipe create/update.
type RecipeDraft struct {
	Name      string
	Nutrients []models.RecipeNutrient
}

func (d *RecipeDraft) validate() error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return fmt.Errorf("%w: recipe name is required", ErrValidation)
	}
	if len(d.Nutrients) == 0 {
		return fmt.Errorf("%w: at least one nutrient is required", ErrValidation)
	}
	for i := range d.Nutrients {
		d.Nutrients[i].Name = strings.TrimSpace(d.Nutrients[i].Name)
		if d.Nutrients[i].Name == "" {
			return fmt.Errorf("%w: nutrient %d name is required", ErrValidation, i+1)
		}
		if d.Nutrients[i].Proportion <= 0 {
			return fmt.Errorf("%w: nutrient %d proportion must be positive", ErrValidation, i+1)
		}
	}
	return nil
}

// CreateRecipe adds a nutrient recipe.
func (s *Service) CreateRecipe(ctx context.Context, actorID string, draft RecipeDraft) (string, error) {
	if err := draft.validate(); err != nil {
		return "", err
	}
	recipe := models.NutrientRecipe{
		Name:      draft.Name,
		Nutrients: draft.Nutrients,
		IsActive:  true,
		Audit:     s.createdStamp(actorID),
	}
	return s.insert(ctx, models.CollectionNutrientRecipes, recipe)
}

// UpdateRecipe edits a nutrient recipe.
func (s *Service) UpdateRecipe(ctx context.Context, actorID, id string, draft RecipeDraft) error {
	if err := draft.validate(); err != nil {
		return err
	}
	return s.update(ctx, models.CollectionNutrientRecipes, id, actorID, bson.M{
		"name":      draft.Name,
		"nutrients": draft.Nutrients,
	})
}

/* ---- shared operations ---- */

// Archive soft-deletes a catalog entry: it disappears from active listings
// but remains retrievable by id for historical records.
func (s *Service) Archive(ctx context.Context, actorID, collection, id string) error {
	fields := bson.M{
		"isActive":   false,
		"archivedAt": s.now(),
		"archivedBy": actorID,
	}
	if err := s.docs.Update(ctx, collection, id, fields); err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return ErrStaleReference
		}
		return fmt.Errorf("archive %s/%s: %w", collection, id, err)
	}
	s.logger.Info("catalog entry archived", zap.String("collection", collection), zap.String("id", id), zap.String("by", actorID))
	return nil
}

// ListActive returns the non-archived documents of a collection into out.
func (s *Service) ListActive(ctx context.Context, collection string, out any) error {
	if err := s.docs.Query(ctx, collection, bson.M{"isActive": true}, out); err != nil {
		return fmt.Errorf("list %s: %w", collection, err)
	}
	return nil
}

func (s *Service) insert(ctx context.Context, collection string, doc any) (string, error) {
	id, err := s.docs.Insert(ctx, collection, doc)
	if err != nil {
		return "", fmt.Errorf("create %s entry: %w", collection, err)
	}
	return id, nil
}

func (s *Service) update(ctx context.Context, collection, id, actorID string, fields bson.M) error {
	fields["updatedAt"] = s.now()
	fields["updatedBy"] = actorID
	if err := s.docs.Update(ctx, collection, id, fields); err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return ErrStaleReference
		}
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Service) createdStamp(actorID string) models.Audit {
	return models.Audit{CreatedAt: s.now(), CreatedBy: actorID}
}

func (s *Service) resolveUnit(ctx context.Context, id string) (models.Unit, error) {
	var unit models.Unit
	if err := s.docs.Get(ctx, models.CollectionUnits, id, &unit); err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return models.Unit{}, fmt.Errorf("%w: unit %s", ErrStaleReference, id)
		}
		return models.Unit{}, fmt.Errorf("resolve unit: %w", err)
	}
	return unit, nil
}

func (s *Service) resolveInputType(ctx context.Context, id string) (models.InputType, error) {
	var it models.InputType
	if err := s.docs.Get(ctx, models.CollectionInputTypes, id, &it); err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return models.InputType{}, fmt.Errorf("%w: input type %s", ErrStaleReference, id)
		}
		return models.InputType{}, fmt.Errorf("resolve input type: %w", err)
	}
	return it, nil
}
