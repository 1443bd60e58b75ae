package models

// Collection names as stored in MongoDB. The document store prefixes each
// one with the deployment AppID, so several environments can share a
// database without colliding.
const (
	CollectionUsers             = "users"
	CollectionLocations         = "locations"
	CollectionUnits             = "unit_catalog"
	CollectionInputTypes        = "input_type_catalog"
	CollectionInputs            = "input_catalog"
	CollectionProducts          = "product_catalog"
	CollectionLaborTypes        = "labor_type_catalog"
	CollectionDiseases          = "disease_catalog"
	CollectionNutrientRecipes   = "nutrient_recipes"
	CollectionProductionRecords = "production_records"
	CollectionInputApplications = "input_applications"
	CollectionCosts             = "costs"
	CollectionLaborRecords      = "labor_records"
	CollectionDiseaseReports    = "disease_reports"
	CollectionTasks             = "tasks"
	CollectionDailyReports      = "daily_reports"
)
