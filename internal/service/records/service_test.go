package records

import (
	"context"
	"errors"
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
	productID  string
	inputIDs   map[string]string
	laborID    string
	diseaseID  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	docs := memstore.New()

	locationID, err := docs.Insert(ctx, models.CollectionLocations, models.Location{Name: "Invernadero 1", IsActive: true})
	require.NoError(t, err)
	productID, err := docs.Insert(ctx, models.CollectionProducts, models.Product{Name: "Fresa Premium", UnitAbbreviation: "Kg", Price: 5, IsActive: true})
	require.NoError(t, err)
	laborID, err := docs.Insert(ctx, models.CollectionLaborTypes, models.LaborType{Name: "Poda", IsActive: true})
	require.NoError(t, err)
	diseaseID, err := docs.Insert(ctx, models.CollectionDiseases, models.Disease{Name: "Oidio", IsActive: true})
	require.NoError(t, err)

	inputIDs := map[string]string{}
	for _, in := range []models.Input{
		{Name: "Nitrato de Calcio", UnitAbbreviation: "Kg", Price: 12.5, IsActive: true},
		{Name: "Sulfato de Magnesio", UnitAbbreviation: "g", Price: 0.04, IsActive: true},
	} {
		id, err := docs.Insert(ctx, models.CollectionInputs, in)
		require.NoError(t, err)
		inputIDs[in.Name] = id
	}

	return &fixture{
		docs:       docs,
		svc:        NewService(docs, nil, nil),
		locationID: locationID,
		productID:  productID,
		inputIDs:   inputIDs,
		laborID:    laborID,
		diseaseID:  diseaseID,
	}
}

func date(day int) time.Time {
	return time.Date(2026, time.March, day, 0, 0, 0, 0, time.UTC)
}

func TestSubmitProductionSnapshotsNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.SubmitProduction(ctx, "user-1", ProductionDraft{
		Date:       date(10),
		ProductID:  f.productID,
		QuantityKg: 42.5,
		LocationID: f.locationID,
		Quality:    models.QualityAlta,
	})
	require.NoError(t, err)

	var record models.ProductionRecord
	require.NoError(t, f.docs.Get(ctx, models.CollectionProductionRecords, id, &record))
	assert.Equal(t, "Fresa Premium", record.ProductName)
	assert.Equal(t, "Invernadero 1", record.LocationName)
	assert.Equal(t, "user-1", record.CreatedBy)
	assert.False(t, record.CreatedAt.IsZero())
}

func TestSubmitProductionValidation(t *testing.T) {
	f := newFixture(t)
	valid := ProductionDraft{
		Date: date(10), ProductID: f.productID, QuantityKg: 10,
		LocationID: f.locationID, Quality: models.QualityMedia,
	}

	tests := []struct {
		name   string
		mutate func(d *ProductionDraft)
	}{
		{name: "zero quantity", mutate: func(d *ProductionDraft) { d.QuantityKg = 0 }},
		{name: "negative quantity", mutate: func(d *ProductionDraft) { d.QuantityKg = -3 }},
		{name: "missing date", mutate: func(d *ProductionDraft) { d.Date = time.Time{} }},
		{name: "missing product", mutate: func(d *ProductionDraft) { d.ProductID = "" }},
		{name: "missing location", mutate: func(d *ProductionDraft) { d.LocationID = "" }},
		{name: "unknown quality", mutate: func(d *ProductionDraft) { d.Quality = "Regular" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := valid
			tt.mutate(&draft)
			_, err := f.svc.SubmitProduction(context.Background(), "user-1", draft)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Zero(t, f.docs.Count(models.CollectionProductionRecords))
}

func TestSubmitProductionStaleProduct(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SubmitProduction(context.Background(), "user-1", ProductionDraft{
		Date: date(10), ProductID: "gone", QuantityKg: 10,
		LocationID: f.locationID, Quality: models.QualityBaja,
	})
	assert.ErrorIs(t, err, ErrStaleReference)
}

func TestSubmitInputApplicationRecomputesTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.SubmitInputApplication(ctx, "user-1", ApplicationDraft{
		Date:       date(12),
		LocationID: f.locationID,
		Objective:  "fertilización semanal",
		Lines: []ApplicationLine{
			{InputID: f.inputIDs["Nitrato de Calcio"], Quantity: 2},
			{InputID: f.inputIDs["Sulfato de Magnesio"], Quantity: 500},
		},
	})
	require.NoError(t, err)

	var app models.InputApplication
	require.NoError(t, f.docs.Get(ctx, models.CollectionInputApplications, id, &app))
	require.Len(t, app.AppliedInputs, 2)

	// Subtotals come from catalog prices, never from the caller.
	assert.Equal(t, 25.0, app.AppliedInputs[0].Subtotal)
	assert.Equal(t, 20.0, app.AppliedInputs[1].Subtotal)
	assert.Equal(t, 45.0, app.TotalCost)
	assert.Equal(t, "Kg", app.AppliedInputs[0].Unit)

	var costs []models.Cost
	require.NoError(t, f.docs.Query(ctx, models.CollectionCosts, nil, &costs))
	require.Len(t, costs, 1)
	assert.Equal(t, models.CostTypeInputApplication, costs[0].Type)
	assert.Equal(t, 45.0, costs[0].Amount)
	assert.Equal(t, "Aplicación de insumos en Invernadero 1 para fertilización semanal", costs[0].Description)
}

func TestSubmitInputApplicationRollsBackOnCostFailure(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("write failed")
	f.docs.FailWith(models.CollectionCosts, "add", boom)

	_, err := f.svc.SubmitInputApplication(context.Background(), "user-1", ApplicationDraft{
		Date:       date(12),
		LocationID: f.locationID,
		Objective:  "fertilización semanal",
		Lines:      []ApplicationLine{{InputID: f.inputIDs["Nitrato de Calcio"], Quantity: 1}},
	})
	require.ErrorIs(t, err, boom)

	// The application write must not survive the failed cost write.
	assert.Zero(t, f.docs.Count(models.CollectionInputApplications))
	assert.Zero(t, f.docs.Count(models.CollectionCosts))
}

func TestRolledBackApplicationPublishesNoEvents(t *testing.T) {
	f := newFixture(t)
	hub := livefeed.NewHub(nil)
	f.docs.SetEventSink(hub)
	f.docs.FailWith(models.CollectionCosts, "add", errors.New("write failed"))

	events, cancel := hub.Subscribe([]string{
		livefeed.TopicCollection(models.CollectionInputApplications),
		livefeed.TopicCollection(models.CollectionCosts),
	}, 4)
	defer cancel()

	_, err := f.svc.SubmitInputApplication(context.Background(), "user-1", ApplicationDraft{
		Date:       date(12),
		LocationID: f.locationID,
		Objective:  "fertilización semanal",
		Lines:      []ApplicationLine{{InputID: f.inputIDs["Nitrato de Calcio"], Quantity: 1}},
	})
	require.Error(t, err)

	select {
	case ev := <-events:
		t.Fatalf("aborted transaction leaked event %+v", ev)
	default:
	}
}

func TestCommittedApplicationPublishesBothWrites(t *testing.T) {
	f := newFixture(t)
	hub := livefeed.NewHub(nil)
	f.docs.SetEventSink(hub)

	events, cancel := hub.Subscribe([]string{
		livefeed.TopicCollection(models.CollectionInputApplications),
		livefeed.TopicCollection(models.CollectionCosts),
	}, 4)
	defer cancel()

	id, err := f.svc.SubmitInputApplication(context.Background(), "user-1", ApplicationDraft{
		Date:       date(12),
		LocationID: f.locationID,
		Objective:  "fertilización semanal",
		Lines:      []ApplicationLine{{InputID: f.inputIDs["Nitrato de Calcio"], Quantity: 1}},
	})
	require.NoError(t, err)

	first := <-events
	assert.Equal(t, models.CollectionInputApplications, first.Collection)
	assert.Equal(t, id, first.ID)

	second := <-events
	assert.Equal(t, models.CollectionCosts, second.Collection)
	assert.Equal(t, "add", second.Type)
}

func TestSubmitInputApplicationRejectsNonPositiveQuantity(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SubmitInputApplication(context.Background(), "user-1", ApplicationDraft{
		Date:       date(12),
		LocationID: f.locationID,
		Objective:  "control de plagas",
		Lines:      []ApplicationLine{{InputID: f.inputIDs["Nitrato de Calcio"], Quantity: 0}},
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, f.docs.Count(models.CollectionInputApplications))
	assert.Zero(t, f.docs.Count(models.CollectionCosts))
}

func TestSubmitLaborSnapshotsNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.SubmitLabor(ctx, "user-2", LaborDraft{
		Date:         date(15),
		LocationID:   f.locationID,
		LaborTypeID:  f.laborID,
		Observations: "  hojas secas retiradas  ",
	})
	require.NoError(t, err)

	var record models.LaborRecord
	require.NoError(t, f.docs.Get(ctx, models.CollectionLaborRecords, id, &record))
	assert.Equal(t, "Poda", record.LaborTypeName)
	assert.Equal(t, "Invernadero 1", record.LocationName)
	assert.Equal(t, "hojas secas retiradas", record.Observations)
}

func TestSubmitDiseaseReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.SubmitDiseaseReport(ctx, "user-2", DiseaseReportDraft{
		Date:       date(16),
		LocationID: f.locationID,
		DiseaseID:  f.diseaseID,
		Severity:   models.SeverityMedia,
		PhotoURL:   "/files/abc123",
	})
	require.NoError(t, err)

	var report models.DiseaseReport
	require.NoError(t, f.docs.Get(ctx, models.CollectionDiseaseReports, id, &report))
	assert.Equal(t, "Oidio", report.DiseaseName)
	assert.Equal(t, models.SeverityMedia, report.Severity)
	assert.Equal(t, "/files/abc123", report.PhotoURL)
	assert.Empty(t, report.AIDiagnosisSuggestion)
}

func TestSubmitDiseaseReportRejectsUnknownSeverity(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SubmitDiseaseReport(context.Background(), "user-2", DiseaseReportDraft{
		Date: date(16), LocationID: f.locationID, DiseaseID: f.diseaseID, Severity: "Critica",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAttachDiagnosis(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.SubmitDiseaseReport(ctx, "user-2", DiseaseReportDraft{
		Date: date(16), LocationID: f.locationID, DiseaseID: f.diseaseID, Severity: models.SeverityAlta,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.AttachDiagnosis(ctx, id, "Probable oídio; aplicar azufre mojable."))

	var report models.DiseaseReport
	require.NoError(t, f.docs.Get(ctx, models.CollectionDiseaseReports, id, &report))
	assert.Equal(t, "Probable oídio; aplicar azufre mojable.", report.AIDiagnosisSuggestion)

	assert.ErrorIs(t, f.svc.AttachDiagnosis(ctx, "missing", "x"), ErrStaleReference)
}

type fakeAI struct {
	prompt string
	reply  string
	err    error
}

func (f *fakeAI) GenerateText(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func TestSuggestDiagnosisUsesSymptoms(t *testing.T) {
	ai := &fakeAI{reply: "  Posible botrytis. Retirar fruta afectada.  "}
	svc := NewService(memstore.New(), ai, nil)

	got, err := svc.SuggestDiagnosis(context.Background(), "moho gris en frutos")
	require.NoError(t, err)
	assert.Equal(t, "Posible botrytis. Retirar fruta afectada.", got)
	assert.Contains(t, ai.prompt, "moho gris en frutos")
}

func TestSuggestDiagnosisRequiresSymptoms(t *testing.T) {
	svc := NewService(memstore.New(), &fakeAI{}, nil)
	_, err := svc.SuggestDiagnosis(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrValidation)
}
