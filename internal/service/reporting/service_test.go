package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovida/hidrofresa/internal/domain/models"
	"github.com/agrovida/hidrofresa/internal/repository/memstore"
)

func day(d int) time.Time {
	return time.Date(2026, time.May, d, 0, 0, 0, 0, time.UTC)
}

func seedProduction(t *testing.T, docs *memstore.Store, date time.Time, locationID string, kg float64, quality models.Quality) {
	t.Helper()
	_, err := docs.Insert(context.Background(), models.CollectionProductionRecords, models.ProductionRecord{
		Date: date, LocationID: locationID, LocationName: "Loc " + locationID,
		QuantityKg: kg, Quality: quality,
	})
	require.NoError(t, err)
}

func TestSummarizeProductionFiltersByDateAndLocation(t *testing.T) {
	docs := memstore.New()
	svc := NewService(docs, nil, nil)

	seedProduction(t, docs, day(1), "loc-a", 10, models.QualityAlta)
	seedProduction(t, docs, day(2), "loc-a", 5.5, models.QualityMedia)
	seedProduction(t, docs, day(2), "loc-b", 7, models.QualityAlta)
	seedProduction(t, docs, day(9), "loc-a", 99, models.QualityBaja) // outside window

	summary, err := svc.SummarizeProduction(context.Background(), Filter{
		From: day(1), To: day(3), LocationID: "loc-a",
	})
	require.NoError(t, err)

	assert.Equal(t, 15.5, summary.TotalKg)
	assert.Equal(t, 2, summary.Records)
	assert.Equal(t, 10.0, summary.ByQuality["Alta"])
	assert.Equal(t, 5.5, summary.ByQuality["Media"])
}

func TestSummarizeProductionOpenBounds(t *testing.T) {
	docs := memstore.New()
	svc := NewService(docs, nil, nil)

	seedProduction(t, docs, day(1), "loc-a", 3, models.QualityAlta)
	seedProduction(t, docs, day(20), "loc-a", 4, models.QualityAlta)

	summary, err := svc.SummarizeProduction(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, 7.0, summary.TotalKg)
}

func TestSummarizeCostsByType(t *testing.T) {
	docs := memstore.New()
	svc := NewService(docs, nil, nil)
	ctx := context.Background()

	for _, c := range []models.Cost{
		{Date: day(2), Type: models.CostTypeInputApplication, Amount: 45},
		{Date: day(2), Type: models.CostTypeInputApplication, Amount: 12.5},
		{Date: day(3), Type: "Mano de Obra", Amount: 30},
	} {
		_, err := docs.Insert(ctx, models.CollectionCosts, c)
		require.NoError(t, err)
	}

	summary, err := svc.SummarizeCosts(ctx, Filter{From: day(1), To: day(5)})
	require.NoError(t, err)
	assert.Equal(t, 87.5, summary.Total)
	assert.Equal(t, 3, summary.Entries)
	assert.Equal(t, 57.5, summary.ByType[models.CostTypeInputApplication])
	assert.Equal(t, 30.0, summary.ByType["Mano de Obra"])
}

func TestGenerateDailyReportSnapshotsOneDay(t *testing.T) {
	docs := memstore.New()
	svc := NewService(docs, nil, nil)
	ctx := context.Background()

	seedProduction(t, docs, day(10).Add(8*time.Hour), "loc-a", 12, models.QualityAlta)
	seedProduction(t, docs, day(11), "loc-a", 50, models.QualityAlta) // next day

	_, err := docs.Insert(ctx, models.CollectionCosts, models.Cost{
		Date: day(10).Add(9 * time.Hour), Type: models.CostTypeInputApplication, Amount: 45,
	})
	require.NoError(t, err)
	_, err = docs.Insert(ctx, models.CollectionInputApplications, models.InputApplication{
		Date: day(10).Add(9 * time.Hour), LocationID: "loc-a", TotalCost: 45,
	})
	require.NoError(t, err)

	completed := day(10).Add(17 * time.Hour)
	_, err = docs.Insert(ctx, models.CollectionTasks, models.Task{
		Status: models.TaskCompleted, Date: day(10), CompletedAt: &completed,
	})
	require.NoError(t, err)
	_, err = docs.Insert(ctx, models.CollectionTasks, models.Task{
		Status: models.TaskPending, Date: day(10),
	})
	require.NoError(t, err)

	report, err := svc.GenerateDailyReport(ctx, day(10).Add(23*time.Hour))
	require.NoError(t, err)

	assert.True(t, report.Date.Equal(day(10)))
	assert.Equal(t, 12.0, report.ProductionKg)
	assert.Equal(t, 45.0, report.InputCost)
	assert.Equal(t, 1, report.Applications)
	assert.Equal(t, 1, report.TasksCompleted)
	assert.Equal(t, 0, report.LaborEntries)

	// The snapshot is persisted for later consultation.
	assert.Equal(t, 1, docs.Count(models.CollectionDailyReports))
}

type fakeExporter struct {
	got []models.DailyReport
	err error
}

func (f *fakeExporter) AppendDailyReport(_ context.Context, report models.DailyReport) error {
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, report)
	return nil
}

func TestExport(t *testing.T) {
	exporter := &fakeExporter{}
	svc := NewService(memstore.New(), exporter, nil)

	report := models.DailyReport{Date: day(10), ProductionKg: 12}
	require.NoError(t, svc.Export(context.Background(), report))
	require.Len(t, exporter.got, 1)
	assert.Equal(t, 12.0, exporter.got[0].ProductionKg)

	// Without an exporter configured the call is a no-op.
	assert.NoError(t, NewService(memstore.New(), nil, nil).Export(context.Background(), report))
}
