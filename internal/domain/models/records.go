package models

import "time"

// Quality grades a production batch.
type Quality string

const (
	QualityAlta  Quality = "Alta"
	QualityMedia Quality = "Media"
	QualityBaja  Quality = "Baja"
)

// Valid reports whether the quality is a known grade.
func (q Quality) Valid() bool {
	return q == QualityAlta || q == QualityMedia || q == QualityBaja
}

// Severity grades a disease report.
type Severity string

const (
	SeverityBaja  Severity = "Baja"
	SeverityMedia Severity = "Media"
	SeverityAlta  Severity = "Alta"
)

// Valid reports whether the severity is a known grade.
func (s Severity) Valid() bool {
	return s == SeverityBaja || s == SeverityMedia || s == SeverityAlta
}

// ProductionRecord logs a harvest. Immutable after creation; ProductName
// and LocationName are snapshot projections taken at write time.
type ProductionRecord struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Date         time.Time `bson:"date" json:"date"`
	ProductID    string    `bson:"productId" json:"productId"`
	ProductName  string    `bson:"productName" json:"productName"`
	QuantityKg   float64   `bson:"quantityKg" json:"quantityKg"`
	LocationID   string    `bson:"locationId" json:"locationId"`
	LocationName string    `bson:"locationName" json:"locationName"`
	Quality      Quality   `bson:"quality" json:"quality"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	CreatedBy    string    `bson:"createdBy" json:"createdBy"`
}

// AppliedInput is one line of an input application. Subtotal is always
// recomputed server-side as Quantity * Price.
type AppliedInput struct {
	InputID   string  `bson:"inputId" json:"inputId"`
	InputName string  `bson:"inputName" json:"inputName"`
	Quantity  float64 `bson:"quantity" json:"quantity"`
	Unit      string  `bson:"unit" json:"unit"`
	Price     float64 `bson:"price" json:"price"`
	Subtotal  float64 `bson:"subtotal" json:"subtotal"`
}

// InputApplication logs inputs applied to a location. TotalCost equals the
// sum of line subtotals; the write also produces a companion Cost entry.
type InputApplication struct {
	ID            string         `bson:"_id,omitempty" json:"id"`
	Date          time.Time      `bson:"date" json:"date"`
	LocationID    string         `bson:"locationId" json:"locationId"`
	LocationName  string         `bson:"locationName" json:"locationName"`
	Objective     string         `bson:"objective" json:"objective"`
	AppliedInputs []AppliedInput `bson:"appliedInputs" json:"appliedInputs"`
	TotalCost     float64        `bson:"totalCost" json:"totalCost"`
	CreatedAt     time.Time      `bson:"createdAt" json:"createdAt"`
	CreatedBy     string         `bson:"createdBy" json:"createdBy"`
}

// CostTypeInputApplication is the ledger type stamped on costs generated
// by input applications. The Spanish value is a stored data constant kept
// for compatibility with existing documents.
const CostTypeInputApplication = "Aplicación de Insumos"

// Cost is a ledger entry in the cost collection.
type Cost struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	Date        time.Time `bson:"date" json:"date"`
	Type        string    `bson:"type" json:"type"`
	Description string    `bson:"description" json:"description"`
	Amount      float64   `bson:"amount" json:"amount"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	CreatedBy   string    `bson:"createdBy" json:"createdBy"`
}

// LaborRecord logs field work performed at a location.
type LaborRecord struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	Date          time.Time `bson:"date" json:"date"`
	LocationID    string    `bson:"locationId" json:"locationId"`
	LocationName  string    `bson:"locationName" json:"locationName"`
	LaborTypeID   string    `bson:"laborTypeId" json:"laborTypeId"`
	LaborTypeName string    `bson:"laborTypeName" json:"laborTypeName"`
	Observations  string    `bson:"observations" json:"observations"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	CreatedBy     string    `bson:"createdBy" json:"createdBy"`
}

// DiseaseReport logs an observed disease incident, optionally with a photo
// and an AI-generated diagnosis suggestion.
type DiseaseReport struct {
	ID                    string    `bson:"_id,omitempty" json:"id"`
	Date                  time.Time `bson:"date" json:"date"`
	LocationID            string    `bson:"locationId" json:"locationId"`
	LocationName          string    `bson:"locationName" json:"locationName"`
	DiseaseID             string    `bson:"diseaseId" json:"diseaseId"`
	DiseaseName           string    `bson:"diseaseName" json:"diseaseName"`
	Severity              Severity  `bson:"severity" json:"severity"`
	Comments              string    `bson:"comments,omitempty" json:"comments,omitempty"`
	PhotoURL              string    `bson:"photoUrl,omitempty" json:"photoUrl,omitempty"`
	AIDiagnosisSuggestion string    `bson:"aiDiagnosisSuggestion,omitempty" json:"aiDiagnosisSuggestion,omitempty"`
	CreatedAt             time.Time `bson:"createdAt" json:"createdAt"`
	CreatedBy             string    `bson:"createdBy" json:"createdBy"`
}
