package models

import "time"

// DailyReport represents the aggregated daily farm data snapshotted by the
// nightly job into MongoDB.
type DailyReport struct {
	Date           time.Time `bson:"date" json:"date"`
	ProductionKg   float64   `bson:"production_kg" json:"production_kg"`
	InputCost      float64   `bson:"input_cost" json:"input_cost"`
	Applications   int       `bson:"applications" json:"applications"`
	LaborEntries   int       `bson:"labor_entries" json:"labor_entries"`
	DiseaseReports int       `bson:"disease_reports" json:"disease_reports"`
	TasksCompleted int       `bson:"tasks_completed" json:"tasks_completed"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}
