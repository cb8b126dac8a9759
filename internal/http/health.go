package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lendingroom/lendingroom/internal/database"
)

// HealthResponse is the JSON body served at /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// HealthController reports liveness. The app's only external dependency is
// its SQLite database, so the check is a single ping.
type HealthController struct {
	db      *database.Database
	version string
}

func NewHealthController(db *database.Database, version string) *HealthController {
	return &HealthController{
		db:      db,
		version: version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	health := HealthResponse{
		Status:  "healthy",
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  map[string]string{"database": "ok"},
	}

	if err := h.pingDatabase(); err != nil {
		health.Status = "unhealthy"
		health.Checks["database"] = "error: " + err.Error()
		c.IndentedJSON(http.StatusServiceUnavailable, health)
		return
	}

	c.IndentedJSON(http.StatusOK, health)
}

func (h *HealthController) pingDatabase() error {
	sqlDB, err := h.db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
