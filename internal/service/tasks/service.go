// Package tasks implements the assignment workflow: admins assign work to
// operators, operators see their own queue and mark tasks done. Completion
// is one-way and restricted to the assignee.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
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
	// ErrStaleReference indicates a referenced entry no longer resolves.
	ErrStaleReference = errors.New("referenced entry not found")
	// ErrNotAssignee indicates someone other than the assigned operator
	// tried to complete the task.
	ErrNotAssignee = errors.New("task can only be completed by its assignee")
	// ErrAlreadyCompleted indicates the task is no longer pending.
	ErrAlreadyCompleted = errors.New("task is already completed")
)

// Service carries the task workflow.
type Service struct {
	docs   mongodb.Store
	ai     gemini.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires the task service. The AI client may be nil, which
// disables description suggestions.
func NewService(docs mongodb.Store, ai gemini.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{docs: docs, ai: ai, logger: logger, now: time.Now}
}

// PlannedLine is one requested planned input of an assignment draft.
type PlannedLine struct {
	InputID  string
	Quantity float64
}

// AssignmentDraft carries a task assignment before validation.
type AssignmentDraft struct {
	Name             string
	Description      string
	Date             time.Time
	LocationID       string
	LaborTypeID      string
	AssignedToUserID string
	PlannedLines     []PlannedLine
}

// Assign validates the draft, snapshots the display names of every
// reference, and stores the task as pending.
func (s *Service) Assign(ctx context.Context, actorID string, draft AssignmentDraft) (string, error) {
	draft.Name = strings.TrimSpace(draft.Name)
	switch {
	case draft.Name == "":
		return "", fmt.Errorf("%w: task name is required", ErrValidation)
	case draft.Date.IsZero():
		return "", fmt.Errorf("%w: date is required", ErrValidation)
	case draft.LocationID == "":
		return "", fmt.Errorf("%w: location is required", ErrValidation)
	case draft.LaborTypeID == "":
		return "", fmt.Errorf("%w: labor type is required", ErrValidation)
	case draft.AssignedToUserID == "":
		return "", fmt.Errorf("%w: assignee is required", ErrValidation)
	}

	var location models.Location
	if err := s.resolve(ctx, models.CollectionLocations, draft.LocationID, &location); err != nil {
		return "", err
	}
	var laborType models.LaborType
	if err := s.resolve(ctx, models.CollectionLaborTypes, draft.LaborTypeID, &laborType); err != nil {
		return "", err
	}
	var assignee models.User
	if err := s.resolve(ctx, models.CollectionUsers, draft.AssignedToUserID, &assignee); err != nil {
		return "", err
	}
	if !assignee.IsActive {
		return "", fmt.Errorf("%w: assignee account is deactivated", ErrValidation)
	}

	planned := make([]models.PlannedInput, 0, len(draft.PlannedLines))
	for i, line := range draft.PlannedLines {
		if line.Quantity <= 0 {
			return "", fmt.Errorf("%w: planned input %d quantity must be a positive number", ErrValidation, i+1)
		}
		var input models.Input
		if err := s.resolve(ctx, models.CollectionInputs, line.InputID, &input); err != nil {
			return "", err
		}
		planned = append(planned, models.PlannedInput{
			InputID:   input.ID,
			InputName: input.Name,
			Quantity:  line.Quantity,
			Unit:      input.UnitAbbreviation,
		})
	}

	task := models.Task{
		Name:               draft.Name,
		Description:        strings.TrimSpace(draft.Description),
		Date:               draft.Date,
		LocationID:         location.ID,
		LocationName:       location.Name,
		LaborTypeID:        laborType.ID,
		LaborTypeName:      laborType.Name,
		AssignedToUserID:   assignee.ID,
		AssignedToUserName: assignee.Email,
		AssignedByUserID:   actorID,
		Status:             models.TaskPending,
		PlannedInputs:      planned,
		CreatedAt:          s.now(),
	}
	id, err := s.docs.Insert(ctx, models.CollectionTasks, task)
	if err != nil {
		return "", fmt.Errorf("save task: %w", err)
	}
	s.logger.Info("task assigned",
		zap.String("id", id),
		zap.String("assignee", assignee.ID),
		zap.String("laborType", laborType.Name))
	return id, nil
}

// Complete marks a pending task done. Only the assigned operator may
// complete it, and a completed task stays completed.
func (s *Service) Complete(ctx context.Context, actorID, taskID string) error {
	var task models.Task
	if err := s.resolve(ctx, models.CollectionTasks, taskID, &task); err != nil {
		return err
	}
	if task.AssignedToUserID != actorID {
		return ErrNotAssignee
	}
	if task.Status != models.TaskPending {
		return ErrAlreadyCompleted
	}

	err := s.docs.Update(ctx, models.CollectionTasks, taskID, bson.M{
		"status":      models.TaskCompleted,
		"completedAt": s.now(),
		"completedBy": actorID,
	})
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return ErrStaleReference
		}
		return fmt.Errorf("complete task %s: %w", taskID, err)
	}
	s.logger.Info("task completed", zap.String("id", taskID), zap.String("by", actorID))
	return nil
}

// ListForUser returns the tasks assigned to a user, pending first and by
// scheduled date ascending within each group.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]models.Task, error) {
	var tasks []models.Task
	if err := s.docs.Query(ctx, models.CollectionTasks, bson.M{"assignedToUserId": userID}, &tasks); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	sortTasks(tasks)
	return tasks, nil
}

// ListAll returns every task for the admin overview, in the same order as
// the per-user listing.
func (s *Service) ListAll(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := s.docs.Query(ctx, models.CollectionTasks, bson.M{}, &tasks); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	sortTasks(tasks)
	return tasks, nil
}

func sortTasks(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Status != tasks[j].Status {
			return tasks[i].Status == models.TaskPending
		}
		return tasks[i].Date.Before(tasks[j].Date)
	})
}

// SuggestDescription asks the AI for a short task description from the
// task name and labor type.
func (s *Service) SuggestDescription(ctx context.Context, name, laborTypeName string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: task name is required", ErrValidation)
	}
	if s.ai == nil {
		return "", errors.New("ai suggestions are not configured")
	}

	prompt := fmt.Sprintf(
		"Eres el administrador de un cultivo hidropónico de fresas. Escribe una "+
			"descripción breve y accionable (máximo 60 palabras, en español) para una "+
			"tarea de campo llamada %q del tipo de labor %q.", name, laborTypeName)

	suggestion, err := s.ai.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("description suggestion: %w", err)
	}
	return strings.TrimSpace(suggestion), nil
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
