package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrovida/hidrofresa/internal/domain/models"
	"github.com/agrovida/hidrofresa/internal/repository/mongodb"
	"github.com/agrovida/hidrofresa/internal/service/catalog"
	"github.com/agrovida/hidrofresa/internal/service/nutrients"
)

// catalogSlugs maps URL segments to stored collection names. Only listed
// catalogs are reachable over HTTP.
var catalogSlugs = map[string]string{
	"locations":   models.CollectionLocations,
	"units":       models.CollectionUnits,
	"input-types": models.CollectionInputTypes,
	"inputs":      models.CollectionInputs,
	"products":    models.CollectionProducts,
	"labor-types": models.CollectionLaborTypes,
	"diseases":    models.CollectionDiseases,
	"recipes":     models.CollectionNutrientRecipes,
}

// CatalogHandler exposes the admin-managed reference lists.
type CatalogHandler struct {
	svc    *catalog.Service
	docs   mongodb.Store
	logger *zap.Logger
}

// NewCatalogHandler constructs the HTTP adapter for catalog management.
func NewCatalogHandler(svc *catalog.Service, docs mongodb.Store, logger *zap.Logger) *CatalogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{svc: svc, docs: docs, logger: logger}
}

// List returns the active entries of one catalog. Readable by any
// authenticated user; forms need the lists to render.
func (h *CatalogHandler) List(c *gin.Context) {
	collection, ok := catalogSlugs[c.Param("catalog")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown catalog"})
		return
	}

	// Decoded per catalog so json tags shape the payload correctly.
	var out any
	var err error
	switch collection {
	case models.CollectionLocations:
		var v []models.Location
		err = h.svc.ListActive(c.Request.Context(), collection, &v)
		out = v
	case models.CollectionUnits:
		var v []models.Unit
		err = h.svc.ListActive(c.Request.Context(), collection, &v)
		out = v
	case models.CollectionInputTypes:
		var v []models.InputType
		err = h.svc.ListActive(c.Request.Context(), collection, &v)
		out = v
	case models.CollectionInputs:
		var v []models.Input
		err = h.svc.ListActive(c.Request.Context(), collection, &v)
		out = v
	case models.CollectionProducts:
		var v []models.Product
		err = h.svc.ListActive(c.Request.Context(), collection, &v)
		out = v
	case models.CollectionLaborTypes:
		var v []models.LaborType
		err = h.svc.ListActive(c.Request.Context(), collection, &v)
		out = v
	case models.CollectionDiseases:
		var v []models.Disease
		err = h.svc.ListActive(c.Request.Context(), collection, &v)
		out = v
	case models.CollectionNutrientRecipes:
		var v []models.NutrientRecipe
		err = h.svc.ListActive(c.Request.Context(), collection, &v)
		out = v
	}
	if err != nil {
		h.logger.Error("catalog listing failed", zap.String("catalog", collection), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to list catalog"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": out})
}

// Archive soft-deletes one catalog entry.
func (h *CatalogHandler) Archive(c *gin.Context) {
	collection, ok := catalogSlugs[c.Param("catalog")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown catalog"})
		return
	}

	err := h.svc.Archive(c.Request.Context(), CurrentUser(c).ID, collection, c.Param("id"))
	if err != nil {
		writeCatalogError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type namedRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateLocation adds a growing area.
func (h *CatalogHandler) CreateLocation(c *gin.Context) {
	var req namedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	id, err := h.svc.CreateLocation(c.Request.Context(), CurrentUser(c).ID, req.Name)
	if err != nil {
		writeCatalogError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UpdateLocation renames a growing area.
func (h *CatalogHandler) UpdateLocation(c *gin.Context) {
	var req namedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if err := h.svc.UpdateLocation(c.Request.Context(), CurrentUser(c).ID, c.Param("id"), req.Name); err != nil {
		writeCatalogError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type unitRequest struct {
	Name         string `json:"name" binding:"required"`
	Abbreviation string `json:"abbreviation" binding:"required"`
}

// CreateUnit adds a measurement unit.
func (h *CatalogHandler) CreateUnit(c *gin.Context) {
	var req unitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and abbreviation are required"})
		return
	}
	id, err := h.svc.CreateUnit(c.Request.Context(), CurrentUser(c).ID, req.Name, req.Abbreviation)
	if err != nil {
		writeCatalogError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UpdateUnit edits a measurement unit.
func (h *CatalogHandler) UpdateUnit(c *gin.Context) {
	var req unitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and abbreviation are required"})
		return
	}
	if err := h.svc.UpdateUnit(c.Request.Context(), CurrentUser(c).ID, c.Param("id"), req.Name, req.Abbreviation); err != nil {
		writeCatalogError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateInputType adds an input category.
func (h *CatalogHandler) CreateInputType(c *gin.Context) {
	var req namedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	id, err := h.svc.CreateInputType(c.Request.Context(), CurrentUser(c).ID, req.Name)
	if err != nil {
		writeCatalogError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UpdateInputType renames an input category.
func (h *CatalogHandler) UpdateInputType(c *gin.Context) {
	var req namedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if err := h.svc.UpdateInputType(c.Request.Context(), CurrentUser(c).ID, c.Param("id"), req.Name); err != nil {
		writeCatalogError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type inputRequest struct {
	Name             string                   `json:"name" binding:"required"`
	UnitID           string                   `json:"unitId" binding:"required"`
	Price            float64                  `json:"price"`
	InputTypeID      string                   `json:"inputTypeId" binding:"required"`
	ActiveComponents []models.ActiveComponent `json:"activeComponents"`
}

func (r inputRequest) draft() catalog.InputDraft {
	return catalog.InputDraft{
		Name:             r.Name,
		UnitID:           r.UnitID,
		Price:            r.Price,
		InputTypeID:      r.InputTypeID,
		ActiveComponents: r.ActiveComponents,
	}
}

// CreateInput adds a catalog input.
func (h *CatalogHandler) CreateInput(c *gin.Context) {
	var req inputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input payload"})
		return
	}
	id, err := h.svc.CreateInput(c.Request.Context(), CurrentUser(c).ID, req.draft())
	if err != nil {
		writeCatalogError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UpdateInput edits a catalog input.
func (h *CatalogHandler) UpdateInput(c *gin.Context) {
	var req inputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input payload"})
		return
	}
	if err := h.svc.UpdateInput(c.Request.Context(), CurrentUser(c).ID, c.Param("id"), req.draft()); err != nil {
		writeCatalogError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type productRequest struct {
	Name   string  `json:"name" binding:"required"`
	UnitID string  `json:"unitId" binding:"required"`
	Price  float64 `json:"price"`
}

// CreateProduct adds a sellable product.
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product payload"})
		return
	}
	id, err := h.svc.CreateProduct(c.Request.Context(), CurrentUser(c).ID, catalog.ProductDraft{
		Name: req.Name, UnitID: req.UnitID, Price: req.Price,
	})
	if err != nil {
		writeCatalogError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UpdateProduct edits a sellable product.
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product payload"})
		return
	}
	err := h.svc.UpdateProduct(c.Request.Context(), CurrentUser(c).ID, c.Param("id"), catalog.ProductDraft{
		Name: req.Name, UnitID: req.UnitID, Price: req.Price,
	})
	if err != nil {
		writeCatalogError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateLaborType adds a kind of field work.
func (h *CatalogHandler) CreateLaborType(c *gin.Context) {
	var req namedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	id, err := h.svc.CreateLaborType(c.Request.Context(), CurrentUser(c).ID, req.Name)
	if err != nil {
		writeCatalogError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UpdateLaborType renames a kind of field work.
func (h *CatalogHandler) UpdateLaborType(c *gin.Context) {
	var req namedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if err := h.svc.UpdateLaborType(c.Request.Context(), CurrentUser(c).ID, c.Param("id"), req.Name); err != nil {
		writeCatalogError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type diseaseRequest struct {
	Name        string   `json:"name" binding:"required"`
	Symptoms    string   `json:"symptoms"`
	Indications string   `json:"indications"`
	PhotoURLs   []string `json:"photoUrls"`
}

func (r diseaseRequest) draft() catalog.DiseaseDraft {
	return catalog.DiseaseDraft{
		Name: r.Name, Symptoms: r.Symptoms, Indications: r.Indications, PhotoURLs: r.PhotoURLs,
	}
}

// CreateDisease adds a disease reference entry.
func (h *CatalogHandler) CreateDisease(c *gin.Context) {
	var req diseaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid disease payload"})
		return
	}
	id, err := h.svc.CreateDisease(c.Request.Context(), CurrentUser(c).ID, req.draft())
	if err != nil {
		writeCatalogError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UpdateDisease edits a disease reference entry.
func (h *CatalogHandler) UpdateDisease(c *gin.Context) {
	var req diseaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid disease payload"})
		return
	}
	if err := h.svc.UpdateDisease(c.Request.Context(), CurrentUser(c).ID, c.Param("id"), req.draft()); err != nil {
		writeCatalogError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type recipeRequest struct {
	Name      string                  `json:"name" binding:"required"`
	Nutrients []models.RecipeNutrient `json:"nutrients" binding:"required"`
}

// CreateRecipe adds a nutrient recipe.
func (h *CatalogHandler) CreateRecipe(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe payload"})
		return
	}
	id, err := h.svc.CreateRecipe(c.Request.Context(), CurrentUser(c).ID, catalog.RecipeDraft{
		Name: req.Name, Nutrients: req.Nutrients,
	})
	if err != nil {
		writeCatalogError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UpdateRecipe edits a nutrient recipe.
func (h *CatalogHandler) UpdateRecipe(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe payload"})
		return
	}
	err := h.svc.UpdateRecipe(c.Request.Context(), CurrentUser(c).ID, c.Param("id"), catalog.RecipeDraft{
		Name: req.Name, Nutrients: req.Nutrients,
	})
	if err != nil {
		writeCatalogError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CalculateMix computes the nutrient grams for a recipe and water volume.
// Available to every authenticated user; nothing is stored.
func (h *CatalogHandler) CalculateMix(c *gin.Context) {
	var req struct {
		RecipeID string  `json:"recipeId" binding:"required"`
		Liters   float64 `json:"liters"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipeId and liters are required"})
		return
	}

	var recipe models.NutrientRecipe
	if err := h.docs.Get(c.Request.Context(), models.CollectionNutrientRecipes, req.RecipeID, &recipe); err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
			return
		}
		h.logger.Error("recipe lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load recipe"})
		return
	}

	mix, err := nutrients.Calculate(recipe, req.Liters)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": recipe.Name, "liters": req.Liters, "mix": mix})
}

func writeCatalogError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, catalog.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrStaleReference):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("catalog operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "catalog operation failed"})
	}
}
