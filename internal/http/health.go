package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/database"
)

// pinger is implemented by catalog backends that hold a server connection.
type pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	store   catalog.Store
	db      *database.Database
	version string
}

func NewHealthController(store catalog.Store, db *database.Database, version string) *HealthController {
	return &HealthController{
		store:   store,
		db:      db,
		version: version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	// The catalog must be reachable and readable
	if h.store != nil {
		if err := h.checkCatalog(c.Request.Context()); err != nil {
			checks["catalog"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["catalog"] = "ok"
		}
	} else {
		checks["catalog"] = "not configured"
	}

	// Check database connectivity
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
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

func (h *HealthController) checkCatalog(ctx context.Context) error {
	if p, ok := h.store.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return err
		}
	}
	_, err := h.store.List(ctx)
	return err
}
