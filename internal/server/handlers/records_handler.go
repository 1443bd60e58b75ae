package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrovida/hidrofresa/internal/domain/models"
	"github.com/agrovida/hidrofresa/internal/notify"
	"github.com/agrovida/hidrofresa/internal/service/records"
)

// RecordsHandler exposes the transactional record forms.
type RecordsHandler struct {
	svc    *records.Service
	notify *notify.Center
	logger *zap.Logger
}

// NewRecordsHandler constructs the HTTP adapter for record submission.
func NewRecordsHandler(svc *records.Service, center *notify.Center, logger *zap.Logger) *RecordsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordsHandler{svc: svc, notify: center, logger: logger}
}

type productionRequest struct {
	Date       time.Time      `json:"date" binding:"required"`
	ProductID  string         `json:"productId" binding:"required"`
	QuantityKg float64        `json:"quantityKg"`
	LocationID string         `json:"locationId" binding:"required"`
	Quality    models.Quality `json:"quality" binding:"required"`
}

// SubmitProduction stores a harvest record.
func (h *RecordsHandler) SubmitProduction(c *gin.Context) {
	var req productionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid production payload"})
		return
	}

	user := CurrentUser(c)
	id, err := h.svc.SubmitProduction(c.Request.Context(), user.ID, records.ProductionDraft{
		Date:       req.Date,
		ProductID:  req.ProductID,
		QuantityKg: req.QuantityKg,
		LocationID: req.LocationID,
		Quality:    req.Quality,
	})
	if err != nil {
		h.writeError(c, user.ID, err, "No se pudo guardar el registro de producción.")
		return
	}

	h.notify.Success(user.ID, "Registro de producción guardado.")
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

type applicationRequest struct {
	Date       time.Time `json:"date" binding:"required"`
	LocationID string    `json:"locationId" binding:"required"`
	Objective  string    `json:"objective" binding:"required"`
	Inputs     []struct {
		InputID  string  `json:"inputId" binding:"required"`
		Quantity float64 `json:"quantity"`
	} `json:"inputs" binding:"required"`
}

// SubmitInputApplication stores an input application and its cost entry.
func (h *RecordsHandler) SubmitInputApplication(c *gin.Context) {
	var req applicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application payload"})
		return
	}

	draft := records.ApplicationDraft{
		Date:       req.Date,
		LocationID: req.LocationID,
		Objective:  req.Objective,
	}
	for _, line := range req.Inputs {
		draft.Lines = append(draft.Lines, records.ApplicationLine{InputID: line.InputID, Quantity: line.Quantity})
	}

	user := CurrentUser(c)
	id, err := h.svc.SubmitInputApplication(c.Request.Context(), user.ID, draft)
	if err != nil {
		h.writeError(c, user.ID, err, "No se pudo guardar la aplicación de insumos.")
		return
	}

	h.notify.Success(user.ID, "Aplicación de insumos y costo registrados.")
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

type laborRequest struct {
	Date         time.Time `json:"date" binding:"required"`
	LocationID   string    `json:"locationId" binding:"required"`
	LaborTypeID  string    `json:"laborTypeId" binding:"required"`
	Observations string    `json:"observations"`
}

// SubmitLabor stores a field work record.
func (h *RecordsHandler) SubmitLabor(c *gin.Context) {
	var req laborRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid labor payload"})
		return
	}

	user := CurrentUser(c)
	id, err := h.svc.SubmitLabor(c.Request.Context(), user.ID, records.LaborDraft{
		Date:         req.Date,
		LocationID:   req.LocationID,
		LaborTypeID:  req.LaborTypeID,
		Observations: req.Observations,
	})
	if err != nil {
		h.writeError(c, user.ID, err, "No se pudo guardar el registro de labor.")
		return
	}

	h.notify.Success(user.ID, "Registro de labor guardado.")
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

type diseaseReportRequest struct {
	Date       time.Time       `json:"date" binding:"required"`
	LocationID string          `json:"locationId" binding:"required"`
	DiseaseID  string          `json:"diseaseId" binding:"required"`
	Severity   models.Severity `json:"severity" binding:"required"`
	Comments   string          `json:"comments"`
	PhotoURL   string          `json:"photoUrl"`
}

// SubmitDiseaseReport stores a disease incident.
func (h *RecordsHandler) SubmitDiseaseReport(c *gin.Context) {
	var req diseaseReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid disease report payload"})
		return
	}

	user := CurrentUser(c)
	id, err := h.svc.SubmitDiseaseReport(c.Request.Context(), user.ID, records.DiseaseReportDraft{
		Date:       req.Date,
		LocationID: req.LocationID,
		DiseaseID:  req.DiseaseID,
		Severity:   req.Severity,
		Comments:   req.Comments,
		PhotoURL:   req.PhotoURL,
	})
	if err != nil {
		h.writeError(c, user.ID, err, "No se pudo guardar el reporte de enfermedad.")
		return
	}

	h.notify.Success(user.ID, "Reporte de enfermedad guardado.")
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// SuggestDiagnosis returns an AI-generated diagnosis suggestion for a
// symptoms description.
func (h *RecordsHandler) SuggestDiagnosis(c *gin.Context) {
	var req struct {
		Symptoms string `json:"symptoms" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symptoms description is required"})
		return
	}

	suggestion, err := h.svc.SuggestDiagnosis(c.Request.Context(), req.Symptoms)
	if err != nil {
		if errors.Is(err, records.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("diagnosis suggestion failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "suggestion service unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestion": suggestion})
}

// AttachDiagnosis stores an accepted suggestion on a disease report.
func (h *RecordsHandler) AttachDiagnosis(c *gin.Context) {
	var req struct {
		Suggestion string `json:"suggestion" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "suggestion is required"})
		return
	}

	if err := h.svc.AttachDiagnosis(c.Request.Context(), c.Param("id"), req.Suggestion); err != nil {
		if errors.Is(err, records.ErrStaleReference) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		h.logger.Error("attach diagnosis failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to attach diagnosis"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecordsHandler) writeError(c *gin.Context, userID string, err error, toast string) {
	switch {
	case errors.Is(err, records.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, records.ErrStaleReference):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("record submission failed", zap.Error(err))
		h.notify.Error(userID, toast)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "record submission failed"})
	}
}
