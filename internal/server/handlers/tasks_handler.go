package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrovida/hidrofresa/internal/notify"
	"github.com/agrovida/hidrofresa/internal/service/tasks"
)

// TasksHandler exposes the assignment workflow.
type TasksHandler struct {
	svc    *tasks.Service
	notify *notify.Center
	logger *zap.Logger
}

// NewTasksHandler constructs the HTTP adapter for the task workflow.
func NewTasksHandler(svc *tasks.Service, center *notify.Center, logger *zap.Logger) *TasksHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TasksHandler{svc: svc, notify: center, logger: logger}
}

type assignRequest struct {
	Name             string    `json:"name" binding:"required"`
	Description      string    `json:"description"`
	Date             time.Time `json:"date" binding:"required"`
	LocationID       string    `json:"locationId" binding:"required"`
	LaborTypeID      string    `json:"laborTypeId" binding:"required"`
	AssignedToUserID string    `json:"assignedToUserId" binding:"required"`
	PlannedInputs    []struct {
		InputID  string  `json:"inputId" binding:"required"`
		Quantity float64 `json:"quantity"`
	} `json:"plannedInputs"`
}

// Assign creates a pending task for an operator. Admin only.
func (h *TasksHandler) Assign(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task payload"})
		return
	}

	draft := tasks.AssignmentDraft{
		Name:             req.Name,
		Description:      req.Description,
		Date:             req.Date,
		LocationID:       req.LocationID,
		LaborTypeID:      req.LaborTypeID,
		AssignedToUserID: req.AssignedToUserID,
	}
	for _, line := range req.PlannedInputs {
		draft.PlannedLines = append(draft.PlannedLines, tasks.PlannedLine{InputID: line.InputID, Quantity: line.Quantity})
	}

	user := CurrentUser(c)
	id, err := h.svc.Assign(c.Request.Context(), user.ID, draft)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.notify.Info(req.AssignedToUserID, "Tienes una nueva tarea asignada: "+req.Name)
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// ListMine returns the principal's own tasks, pending first.
func (h *TasksHandler) ListMine(c *gin.Context) {
	list, err := h.svc.ListForUser(c.Request.Context(), CurrentUser(c).ID)
	if err != nil {
		h.logger.Error("task listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to list tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": list})
}

// ListAll returns every task for the admin overview.
func (h *TasksHandler) ListAll(c *gin.Context) {
	list, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		h.logger.Error("task listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to list tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": list})
}

// Complete marks the principal's task done.
func (h *TasksHandler) Complete(c *gin.Context) {
	user := CurrentUser(c)
	if err := h.svc.Complete(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	h.notify.Success(user.ID, "Tarea completada.")
	c.Status(http.StatusNoContent)
}

// SuggestDescription returns an AI-generated task description. Admin only.
func (h *TasksHandler) SuggestDescription(c *gin.Context) {
	var req struct {
		Name          string `json:"name" binding:"required"`
		LaborTypeName string `json:"laborTypeName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task name is required"})
		return
	}

	suggestion, err := h.svc.SuggestDescription(c.Request.Context(), req.Name, req.LaborTypeName)
	if err != nil {
		if errors.Is(err, tasks.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("description suggestion failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "suggestion service unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestion": suggestion})
}

func (h *TasksHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tasks.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, tasks.ErrStaleReference):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, tasks.ErrNotAssignee):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, tasks.ErrAlreadyCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("task operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "task operation failed"})
	}
}
