package models

import "time"

// Audit carries the write-time stamps shared by every catalog document.
type Audit struct {
	CreatedAt  time.Time  `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	CreatedBy  string     `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	UpdatedAt  *time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
	UpdatedBy  string     `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	ArchivedAt *time.Time `bson:"archivedAt,omitempty" json:"archivedAt,omitempty"`
	ArchivedBy string     `bson:"archivedBy,omitempty" json:"archivedBy,omitempty"`
}

// Location is a growing area (greenhouse, tunnel, bench row).
type Location struct {
	ID       string `bson:"_id,omitempty" json:"id"`
	Name     string `bson:"name" json:"name"`
	IsActive bool   `bson:"isActive" json:"isActive"`
	Audit    `bson:",inline"`
}

// Unit is a measurement unit referenced by inputs and products. Referencing
// documents copy Name and Abbreviation at write time, they are not joined.
type Unit struct {
	ID           string `bson:"_id,omitempty" json:"id"`
	Name         string `bson:"name" json:"name"`
	Abbreviation string `bson:"abbreviation" json:"abbreviation"`
	IsActive     bool   `bson:"isActive" json:"isActive"`
	Audit        `bson:",inline"`
}

// InputType categorizes catalog inputs (fertilizer, pesticide, substrate...).
type InputType struct {
	ID       string `bson:"_id,omitempty" json:"id"`
	Name     string `bson:"name" json:"name"`
	IsActive bool   `bson:"isActive" json:"isActive"`
	Audit    `bson:",inline"`
}

// ActiveComponent is one ingredient of a catalog input. Percentages are
// free-form: nothing requires them to sum to 100.
type ActiveComponent struct {
	Name       string  `bson:"name" json:"name"`
	Percentage float64 `bson:"percentage" json:"percentage"`
}

// Input is a consumable catalog entry (fertilizers, treatments, ...).
// UnitName, UnitAbbreviation and InputTypeName are snapshot projections
// of the referenced documents captured when the input was written.
type Input struct {
	ID               string            `bson:"_id,omitempty" json:"id"`
	Name             string            `bson:"name" json:"name"`
	UnitID           string            `bson:"unitId" json:"unitId"`
	UnitName         string            `bson:"unitName" json:"unitName"`
	UnitAbbreviation string            `bson:"unitAbbreviation" json:"unitAbbreviation"`
	Price            float64           `bson:"price" json:"price"`
	InputTypeID      string            `bson:"inputTypeId" json:"inputTypeId"`
	InputTypeName    string            `bson:"inputTypeName" json:"inputTypeName"`
	ActiveComponents []ActiveComponent `bson:"activeComponents" json:"activeComponents"`
	IsActive         bool              `bson:"isActive" json:"isActive"`
	Audit            `bson:",inline"`
}

// Product is a sellable good (strawberry grades, mostly).
type Product struct {
	ID               string  `bson:"_id,omitempty" json:"id"`
	Name             string  `bson:"name" json:"name"`
	UnitID           string  `bson:"unitId" json:"unitId"`
	UnitName         string  `bson:"unitName" json:"unitName"`
	UnitAbbreviation string  `bson:"unitAbbreviation" json:"unitAbbreviation"`
	Price            float64 `bson:"price" json:"price"`
	IsActive         bool    `bson:"isActive" json:"isActive"`
	Audit            `bson:",inline"`
}

// LaborType is a kind of field work (pruning, harvest, maintenance...).
type LaborType struct {
	ID       string `bson:"_id,omitempty" json:"id"`
	Name     string `bson:"name" json:"name"`
	IsActive bool   `bson:"isActive" json:"isActive"`
	Audit    `bson:",inline"`
}

// Disease documents a known crop disease with reference material.
type Disease struct {
	ID          string   `bson:"_id,omitempty" json:"id"`
	Name        string   `bson:"name" json:"name"`
	Symptoms    string   `bson:"symptoms" json:"symptoms"`
	Indications string   `bson:"indications" json:"indications"`
	PhotoURLs   []string `bson:"photoUrls,omitempty" json:"photoUrls,omitempty"`
	IsActive    bool     `bson:"isActive" json:"isActive"`
	Audit       `bson:",inline"`
}

// RecipeNutrient is one component of a nutrient recipe. Proportion is
// grams per liter and must be strictly positive.
type RecipeNutrient struct {
	Name       string  `bson:"name" json:"name"`
	Proportion float64 `bson:"proportion" json:"proportion"`
}

// NutrientRecipe is a named nutrient mix definition.
type NutrientRecipe struct {
	ID        string           `bson:"_id,omitempty" json:"id"`
	Name      string           `bson:"name" json:"name"`
	Nutrients []RecipeNutrient `bson:"nutrients" json:"nutrients"`
	IsActive  bool             `bson:"isActive" json:"isActive"`
	Audit     `bson:",inline"`
}
