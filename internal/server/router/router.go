package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrovida/hidrofresa/internal/repository/mongodb"
	"github.com/agrovida/hidrofresa/internal/server/handlers"
)

// Handlers bundles every HTTP adapter the router mounts.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Catalog *handlers.CatalogHandler
	Records *handlers.RecordsHandler
	Tasks   *handlers.TasksHandler
	Reports *handlers.ReportsHandler
	Users   *handlers.UsersHandler
	Stream  *handlers.StreamHandler
	Files   *handlers.FilesHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, parser handlers.TokenParser, docs mongodb.Store, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.POST("/auth/login", h.Auth.Login)
	r.POST("/auth/register", h.Auth.Register)
	r.POST("/auth/reset-password", h.Auth.RequestPasswordReset)
	r.POST("/auth/reset-password/confirm", h.Auth.ConfirmPasswordReset)

	authed := r.Group("/", handlers.AuthRequired(parser, docs, logger))
	{
		authed.POST("/auth/logout", h.Auth.Logout)

		authed.GET("/navigation", h.Stream.Navigation)
		authed.GET("/stream", h.Stream.Stream)
		authed.DELETE("/notifications/:id", h.Stream.Dismiss)

		authed.GET("/catalogs/:catalog", h.Catalog.List)
		authed.POST("/nutrients/calculate", h.Catalog.CalculateMix)

		authed.POST("/records/production", h.Records.SubmitProduction)
		authed.POST("/records/applications", h.Records.SubmitInputApplication)
		authed.POST("/records/labor", h.Records.SubmitLabor)
		authed.POST("/records/diseases", h.Records.SubmitDiseaseReport)
		authed.POST("/records/diseases/:id/diagnosis", h.Records.AttachDiagnosis)
		authed.POST("/ai/diagnosis", h.Records.SuggestDiagnosis)

		authed.GET("/tasks", h.Tasks.ListMine)
		authed.POST("/tasks/:id/complete", h.Tasks.Complete)

		authed.POST("/files", h.Files.Upload)
		authed.GET("/files/:id", h.Files.Download)
	}

	admin := authed.Group("/", handlers.RequireAdmin())
	{
		admin.POST("/catalogs/locations", h.Catalog.CreateLocation)
		admin.PUT("/catalogs/locations/:id", h.Catalog.UpdateLocation)
		admin.POST("/catalogs/units", h.Catalog.CreateUnit)
		admin.PUT("/catalogs/units/:id", h.Catalog.UpdateUnit)
		admin.POST("/catalogs/input-types", h.Catalog.CreateInputType)
		admin.PUT("/catalogs/input-types/:id", h.Catalog.UpdateInputType)
		admin.POST("/catalogs/inputs", h.Catalog.CreateInput)
		admin.PUT("/catalogs/inputs/:id", h.Catalog.UpdateInput)
		admin.POST("/catalogs/products", h.Catalog.CreateProduct)
		admin.PUT("/catalogs/products/:id", h.Catalog.UpdateProduct)
		admin.POST("/catalogs/labor-types", h.Catalog.CreateLaborType)
		admin.PUT("/catalogs/labor-types/:id", h.Catalog.UpdateLaborType)
		admin.POST("/catalogs/diseases", h.Catalog.CreateDisease)
		admin.PUT("/catalogs/diseases/:id", h.Catalog.UpdateDisease)
		admin.POST("/catalogs/recipes", h.Catalog.CreateRecipe)
		admin.PUT("/catalogs/recipes/:id", h.Catalog.UpdateRecipe)
		admin.DELETE("/catalogs/:catalog/:id", h.Catalog.Archive)

		admin.GET("/tasks/all", h.Tasks.ListAll)
		admin.POST("/tasks", h.Tasks.Assign)
		admin.POST("/ai/task-description", h.Tasks.SuggestDescription)

		admin.GET("/reports/summary", h.Reports.Summary)
		admin.GET("/reports/production", h.Reports.Production)
		admin.GET("/reports/applications", h.Reports.Applications)
		admin.GET("/reports/costs", h.Reports.Costs)
		admin.GET("/reports/labor", h.Reports.Labor)
		admin.GET("/reports/diseases", h.Reports.Diseases)
		admin.POST("/reports/daily", h.Reports.GenerateDaily)

		admin.GET("/users", h.Users.List)
		admin.PUT("/users/:id/role", h.Users.ChangeRole)
		admin.PUT("/users/:id/active", h.Users.SetActive)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
