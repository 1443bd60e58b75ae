package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovida/hidrofresa/internal/domain/models"
	"github.com/agrovida/hidrofresa/internal/livefeed"
	"github.com/agrovida/hidrofresa/internal/repository/memstore"
)

type fixture struct {
	docs       *memstore.Store
	svc        *Service
	locationID string
	laborID    string
	operatorID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	docs := memstore.New()

	locationID, err := docs.Insert(ctx, models.CollectionLocations, models.Location{Name: "Tunel 2", IsActive: true})
	require.NoError(t, err)
	laborID, err := docs.Insert(ctx, models.CollectionLaborTypes, models.LaborType{Name: "Riego", IsActive: true})
	require.NoError(t, err)
	operatorID, err := docs.Insert(ctx, models.CollectionUsers, models.User{
		Email: "operario@example.com", Role: models.RoleBasic, IsActive: true,
	})
	require.NoError(t, err)

	return &fixture{
		docs:       docs,
		svc:        NewService(docs, nil, nil),
		locationID: locationID,
		laborID:    laborID,
		operatorID: operatorID,
	}
}

func (f *fixture) assign(t *testing.T, name string, day int) string {
	t.Helper()
	id, err := f.svc.Assign(context.Background(), "admin-1", AssignmentDraft{
		Name:             name,
		Date:             time.Date(2026, time.April, day, 0, 0, 0, 0, time.UTC),
		LocationID:       f.locationID,
		LaborTypeID:      f.laborID,
		AssignedToUserID: f.operatorID,
	})
	require.NoError(t, err)
	return id
}

func TestAssignSnapshotsReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inputID, err := f.docs.Insert(ctx, models.CollectionInputs, models.Input{
		Name: "Fungicida X", UnitAbbreviation: "mL", Price: 0.2, IsActive: true,
	})
	require.NoError(t, err)

	id, err := f.svc.Assign(ctx, "admin-1", AssignmentDraft{
		Name:             "Aplicar fungicida",
		Date:             time.Date(2026, time.April, 3, 0, 0, 0, 0, time.UTC),
		LocationID:       f.locationID,
		LaborTypeID:      f.laborID,
		AssignedToUserID: f.operatorID,
		PlannedLines:     []PlannedLine{{InputID: inputID, Quantity: 250}},
	})
	require.NoError(t, err)

	var task models.Task
	require.NoError(t, f.docs.Get(ctx, models.CollectionTasks, id, &task))
	assert.Equal(t, models.TaskPending, task.Status)
	assert.Equal(t, "Tunel 2", task.LocationName)
	assert.Equal(t, "Riego", task.LaborTypeName)
	assert.Equal(t, "operario@example.com", task.AssignedToUserName)
	assert.Equal(t, "admin-1", task.AssignedByUserID)
	require.Len(t, task.PlannedInputs, 1)
	assert.Equal(t, models.PlannedInput{
		InputID: inputID, InputName: "Fungicida X", Quantity: 250, Unit: "mL",
	}, task.PlannedInputs[0])
	assert.Nil(t, task.CompletedAt)
}

func TestAssignRejectsDeactivatedAssignee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inactiveID, err := f.docs.Insert(ctx, models.CollectionUsers, models.User{
		Email: "baja@example.com", Role: models.RoleBasic, IsActive: false,
	})
	require.NoError(t, err)

	_, err = f.svc.Assign(ctx, "admin-1", AssignmentDraft{
		Name:             "Revisar goteros",
		Date:             time.Date(2026, time.April, 3, 0, 0, 0, 0, time.UTC),
		LocationID:       f.locationID,
		LaborTypeID:      f.laborID,
		AssignedToUserID: inactiveID,
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, f.docs.Count(models.CollectionTasks))
}

func TestAssignStaleLaborType(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Assign(context.Background(), "admin-1", AssignmentDraft{
		Name:             "Revisar goteros",
		Date:             time.Date(2026, time.April, 3, 0, 0, 0, 0, time.UTC),
		LocationID:       f.locationID,
		LaborTypeID:      "gone",
		AssignedToUserID: f.operatorID,
	})
	assert.ErrorIs(t, err, ErrStaleReference)
}

func TestCompleteStampsAndIsOneWay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.assign(t, "Riego matutino", 5)

	require.NoError(t, f.svc.Complete(ctx, f.operatorID, id))

	var task models.Task
	require.NoError(t, f.docs.Get(ctx, models.CollectionTasks, id, &task))
	assert.Equal(t, models.TaskCompleted, task.Status)
	assert.Equal(t, f.operatorID, task.CompletedBy)
	require.NotNil(t, task.CompletedAt)

	// Second completion is rejected and the original stamp survives.
	first := *task.CompletedAt
	assert.ErrorIs(t, f.svc.Complete(ctx, f.operatorID, id), ErrAlreadyCompleted)

	require.NoError(t, f.docs.Get(ctx, models.CollectionTasks, id, &task))
	assert.True(t, task.CompletedAt.Equal(first))
}

func TestCompleteOnlyByAssignee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.assign(t, "Riego matutino", 5)

	assert.ErrorIs(t, f.svc.Complete(ctx, "someone-else", id), ErrNotAssignee)

	var task models.Task
	require.NoError(t, f.docs.Get(ctx, models.CollectionTasks, id, &task))
	assert.Equal(t, models.TaskPending, task.Status)
}

func TestCompleteUnknownTask(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.svc.Complete(context.Background(), f.operatorID, "missing"), ErrStaleReference)
}

func TestListForUserOrdersPendingFirstThenByDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Inserted out of order on purpose.
	late := f.assign(t, "Tarea tardia", 20)
	doneID := f.assign(t, "Tarea hecha", 1)
	early := f.assign(t, "Tarea temprana", 2)
	require.NoError(t, f.svc.Complete(ctx, f.operatorID, doneID))

	tasks, err := f.svc.ListForUser(ctx, f.operatorID)
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	assert.Equal(t, early, tasks[0].ID)
	assert.Equal(t, late, tasks[1].ID)
	assert.Equal(t, doneID, tasks[2].ID)
	assert.Equal(t, models.TaskCompleted, tasks[2].Status)
}

func TestListForUserExcludesOtherUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	otherID, err := f.docs.Insert(ctx, models.CollectionUsers, models.User{
		Email: "otro@example.com", Role: models.RoleBasic, IsActive: true,
	})
	require.NoError(t, err)

	f.assign(t, "Mia", 3)
	_, err = f.svc.Assign(ctx, "admin-1", AssignmentDraft{
		Name:             "De otro",
		Date:             time.Date(2026, time.April, 4, 0, 0, 0, 0, time.UTC),
		LocationID:       f.locationID,
		LaborTypeID:      f.laborID,
		AssignedToUserID: otherID,
	})
	require.NoError(t, err)

	tasks, err := f.svc.ListForUser(ctx, f.operatorID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Mia", tasks[0].Name)
}

func TestAssignIsObservedOnTheLiveFeed(t *testing.T) {
	f := newFixture(t)
	hub := livefeed.NewHub(nil)
	f.docs.SetEventSink(hub)

	events, cancel := hub.Subscribe([]string{livefeed.TopicCollection(models.CollectionTasks)}, 4)
	defer cancel()

	id := f.assign(t, "Riego matutino", 5)

	select {
	case ev := <-events:
		assert.Equal(t, "add", ev.Type)
		assert.Equal(t, models.CollectionTasks, ev.Collection)
		assert.Equal(t, id, ev.ID)
	default:
		t.Fatal("expected a task event on the collection topic")
	}
}

type fakeAI struct {
	prompt string
	reply  string
}

func (f *fakeAI) GenerateText(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, nil
}

func TestSuggestDescription(t *testing.T) {
	ai := &fakeAI{reply: " Regar por goteo 20 minutos al amanecer. "}
	svc := NewService(memstore.New(), ai, nil)

	got, err := svc.SuggestDescription(context.Background(), "Riego matutino", "Riego")
	require.NoError(t, err)
	assert.Equal(t, "Regar por goteo 20 minutos al amanecer.", got)
	assert.Contains(t, ai.prompt, "Riego matutino")
}
