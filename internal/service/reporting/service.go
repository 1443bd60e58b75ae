// Package reporting aggregates the transactional collections into the
// figures shown on the reports page and snapshotted by the nightly job.
// Queries are one-shot reads; the live feed is not involved here.
package reporting

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/agrovida/hidrofresa/internal/domain/models"
	"github.com/agrovida/hidrofresa/internal/repository/mongodb"
	"github.com/agrovida/hidrofresa/internal/repository/sheets"
)

// Filter restricts report queries to a date window and optionally one
// location. Zero times leave that bound open.
type Filter struct {
	From       time.Time
	To         time.Time
	LocationID string
}

func (f Filter) query(withLocation bool) bson.M {
	q := bson.M{}
	dateBounds := bson.M{}
	if !f.From.IsZero() {
		dateBounds["$gte"] = f.From
	}
	if !f.To.IsZero() {
		dateBounds["$lte"] = f.To
	}
	if len(dateBounds) > 0 {
		q["date"] = dateBounds
	}
	if withLocation && f.LocationID != "" {
		q["locationId"] = f.LocationID
	}
	return q
}

// ProductionSummary is the aggregated harvest view for a filter window.
type ProductionSummary struct {
	TotalKg   float64            `json:"totalKg"`
	Records   int                `json:"records"`
	ByQuality map[string]float64 `json:"byQuality"`
}

// CostSummary is the aggregated spend view for a filter window.
type CostSummary struct {
	Total   float64            `json:"total"`
	Entries int                `json:"entries"`
	ByType  map[string]float64 `json:"byType"`
}

// Service carries the reporting queries.
type Service struct {
	docs     mongodb.Store
	exporter sheets.Exporter
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires the reporting service. The exporter may be nil, which
// disables the spreadsheet export.
func NewService(docs mongodb.Store, exporter sheets.Exporter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{docs: docs, exporter: exporter, logger: logger, now: time.Now}
}

// ListProduction returns the harvest records matching the filter.
func (s *Service) ListProduction(ctx context.Context, f Filter) ([]models.ProductionRecord, error) {
	var records []models.ProductionRecord
	if err := s.docs.Query(ctx, models.CollectionProductionRecords, f.query(true), &records); err != nil {
		return nil, fmt.Errorf("load production records: %w", err)
	}
	return records, nil
}

// ListApplications returns the input applications matching the filter.
func (s *Service) ListApplications(ctx context.Context, f Filter) ([]models.InputApplication, error) {
	var apps []models.InputApplication
	if err := s.docs.Query(ctx, models.CollectionInputApplications, f.query(true), &apps); err != nil {
		return nil, fmt.Errorf("load input applications: %w", err)
	}
	return apps, nil
}

// ListCosts returns the cost entries matching the filter. Costs carry no
// location, so only the date window applies.
func (s *Service) ListCosts(ctx context.Context, f Filter) ([]models.Cost, error) {
	var costs []models.Cost
	if err := s.docs.Query(ctx, models.CollectionCosts, f.query(false), &costs); err != nil {
		return nil, fmt.Errorf("load costs: %w", err)
	}
	return costs, nil
}

// ListLabor returns the labor records matching the filter.
func (s *Service) ListLabor(ctx context.Context, f Filter) ([]models.LaborRecord, error) {
	var records []models.LaborRecord
	if err := s.docs.Query(ctx, models.CollectionLaborRecords, f.query(true), &records); err != nil {
		return nil, fmt.Errorf("load labor records: %w", err)
	}
	return records, nil
}

// ListDiseaseReports returns the disease reports matching the filter.
func (s *Service) ListDiseaseReports(ctx context.Context, f Filter) ([]models.DiseaseReport, error) {
	var reports []models.DiseaseReport
	if err := s.docs.Query(ctx, models.CollectionDiseaseReports, f.query(true), &reports); err != nil {
		return nil, fmt.Errorf("load disease reports: %w", err)
	}
	return reports, nil
}

// SummarizeProduction aggregates harvest quantities for the filter window,
// broken down by quality grade.
func (s *Service) SummarizeProduction(ctx context.Context, f Filter) (ProductionSummary, error) {
	records, err := s.ListProduction(ctx, f)
	if err != nil {
		return ProductionSummary{}, err
	}

	summary := ProductionSummary{ByQuality: map[string]float64{}}
	for _, r := range records {
		summary.TotalKg += r.QuantityKg
		summary.ByQuality[string(r.Quality)] += r.QuantityKg
		summary.Records++
	}
	summary.TotalKg = round2(summary.TotalKg)
	for q, kg := range summary.ByQuality {
		summary.ByQuality[q] = round2(kg)
	}
	return summary, nil
}

// SummarizeCosts aggregates spend for the filter window, broken down by
// cost type.
func (s *Service) SummarizeCosts(ctx context.Context, f Filter) (CostSummary, error) {
	costs, err := s.ListCosts(ctx, f)
	if err != nil {
		return CostSummary{}, err
	}

	summary := CostSummary{ByType: map[string]float64{}}
	for _, c := range costs {
		summary.Total += c.Amount
		summary.ByType[c.Type] += c.Amount
		summary.Entries++
	}
	summary.Total = round2(summary.Total)
	for t, amount := range summary.ByType {
		summary.ByType[t] = round2(amount)
	}
	return summary, nil
}

// GenerateDailyReport aggregates one calendar day across all collections,
// stores the snapshot and returns it. Day boundaries follow the given time's
// location.
func (s *Service) GenerateDailyReport(ctx context.Context, day time.Time) (models.DailyReport, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	f := Filter{From: start, To: start.Add(24*time.Hour - time.Nanosecond)}

	production, err := s.SummarizeProduction(ctx, f)
	if err != nil {
		return models.DailyReport{}, err
	}
	costs, err := s.SummarizeCosts(ctx, f)
	if err != nil {
		return models.DailyReport{}, err
	}
	apps, err := s.ListApplications(ctx, f)
	if err != nil {
		return models.DailyReport{}, err
	}
	labor, err := s.ListLabor(ctx, f)
	if err != nil {
		return models.DailyReport{}, err
	}
	diseases, err := s.ListDiseaseReports(ctx, f)
	if err != nil {
		return models.DailyReport{}, err
	}
	tasksCompleted, err := s.countTasksCompleted(ctx, f)
	if err != nil {
		return models.DailyReport{}, err
	}

	report := models.DailyReport{
		Date:           start,
		ProductionKg:   production.TotalKg,
		InputCost:      costs.ByType[models.CostTypeInputApplication],
		Applications:   len(apps),
		LaborEntries:   len(labor),
		DiseaseReports: len(diseases),
		TasksCompleted: tasksCompleted,
		CreatedAt:      s.now(),
	}

	if _, err := s.docs.Insert(ctx, models.CollectionDailyReports, report); err != nil {
		return models.DailyReport{}, fmt.Errorf("save daily report: %w", err)
	}
	s.logger.Info("daily report generated",
		zap.Time("date", start),
		zap.Float64("productionKg", report.ProductionKg),
		zap.Float64("inputCost", report.InputCost))
	return report, nil
}

// Export pushes a daily report to the configured spreadsheet. A nil
// exporter makes this a no-op.
func (s *Service) Export(ctx context.Context, report models.DailyReport) error {
	if s.exporter == nil {
		return nil
	}
	if err := s.exporter.AppendDailyReport(ctx, report); err != nil {
		return fmt.Errorf("export daily report: %w", err)
	}
	return nil
}

func (s *Service) countTasksCompleted(ctx context.Context, f Filter) (int, error) {
	q := bson.M{"status": models.TaskCompleted}
	bounds := bson.M{}
	if !f.From.IsZero() {
		bounds["$gte"] = f.From
	}
	if !f.To.IsZero() {
		bounds["$lte"] = f.To
	}
	if len(bounds) > 0 {
		q["completedAt"] = bounds
	}

	var tasks []models.Task
	if err := s.docs.Query(ctx, models.CollectionTasks, q, &tasks); err != nil {
		return 0, fmt.Errorf("load completed tasks: %w", err)
	}
	return len(tasks), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
