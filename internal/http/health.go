package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bibliotech/internal/database"
	"bibliotech/internal/tasks"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// HealthController reports liveness of the two stores the service depends
// on: the main database and the task queue database.
type HealthController struct {
	db         *database.Database
	taskClient *tasks.Client
	version    string
}

func NewHealthController(db *database.Database, taskClient *tasks.Client, version string) *HealthController {
	return &HealthController{
		db:         db,
		taskClient: taskClient,
		version:    version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.db != nil {
		if err := h.pingDatabase(); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
	}

	// The task queue is optional; a missing queue degrades the manual and
	// scheduled synchronization triggers but not the read API.
	if h.taskClient != nil {
		if err := h.taskClient.Ping(); err != nil {
			checks["task_queue"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["task_queue"] = "ok"
		}
	} else {
		checks["task_queue"] = "disabled"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}

func (h *HealthController) pingDatabase() error {
	sqlDB, err := h.db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
