package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrovida/hidrofresa/internal/service/reporting"
)

const dateLayout = "2006-01-02"

// ReportsHandler exposes the aggregated reporting queries. Admin only.
type ReportsHandler struct {
	svc    *reporting.Service
	logger *zap.Logger
}

// NewReportsHandler constructs the HTTP adapter for reporting.
func NewReportsHandler(svc *reporting.Service, logger *zap.Logger) *ReportsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportsHandler{svc: svc, logger: logger}
}

func parseFilter(c *gin.Context) (reporting.Filter, bool) {
	var f reporting.Filter
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(dateLayout, from)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
			return f, false
		}
		f.From = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(dateLayout, to)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
			return f, false
		}
		// Inclusive upper bound: the whole named day.
		f.To = t.Add(24*time.Hour - time.Nanosecond)
	}
	f.LocationID = c.Query("locationId")
	return f, true
}

// Summary returns production and cost aggregates for the filter window.
func (h *ReportsHandler) Summary(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}

	production, err := h.svc.SummarizeProduction(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("production summary failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to build summary"})
		return
	}
	costs, err := h.svc.SummarizeCosts(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("cost summary failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to build summary"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"production": production, "costs": costs})
}

// Production lists the harvest records for the filter window.
func (h *ReportsHandler) Production(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}
	list, err := h.svc.ListProduction(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("production listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to list records"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": list})
}

// Applications lists the input applications for the filter window.
func (h *ReportsHandler) Applications(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}
	list, err := h.svc.ListApplications(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("application listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to list records"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": list})
}

// Costs lists the cost entries for the filter window.
func (h *ReportsHandler) Costs(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}
	list, err := h.svc.ListCosts(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("cost listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to list records"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": list})
}

// Labor lists the field work records for the filter window.
func (h *ReportsHandler) Labor(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}
	list, err := h.svc.ListLabor(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("labor listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to list records"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": list})
}

// Diseases lists the disease reports for the filter window.
func (h *ReportsHandler) Diseases(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}
	list, err := h.svc.ListDiseaseReports(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("disease listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to list records"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": list})
}

// GenerateDaily runs the daily aggregation on demand for the given date
// (default: today) and exports it when an exporter is configured.
func (h *ReportsHandler) GenerateDaily(c *gin.Context) {
	day := time.Now()
	if d := c.Query("date"); d != "" {
		t, err := time.Parse(dateLayout, d)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = t
	}

	report, err := h.svc.GenerateDailyReport(c.Request.Context(), day)
	if err != nil {
		h.logger.Error("daily report generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to generate report"})
		return
	}
	if err := h.svc.Export(c.Request.Context(), report); err != nil {
		h.logger.Error("daily report export failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}
