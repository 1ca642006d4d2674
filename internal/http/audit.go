package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/audit"
)

// AuditController lists recorded changes to the library.
type AuditController struct {
	audit *audit.Service
}

func NewAuditController(auditService *audit.Service) *AuditController {
	return &AuditController{audit: auditService}
}

// ListEvents handles GET /api/audit?collection=&limit=&offset=
func (ac *AuditController) ListEvents(c *gin.Context) {
	collection := c.Query("collection")
	switch collection {
	case "", audit.CollectionCatalog, audit.CollectionShelf:
	default:
		respondBadRequest(c, "collection must be catalog or shelf")
		return
	}

	limit, offset := parsePagination(c, 50, 500)
	events, total, err := ac.audit.GetEvents(collection, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list audit events")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    events,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(events)) < total,
	})
}

// EntityHistory handles GET /api/audit/:collection/:id, the changes made to
// one catalog book id or one shelf title.
func (ac *AuditController) EntityHistory(c *gin.Context) {
	collection := c.Param("collection")
	if collection != audit.CollectionCatalog && collection != audit.CollectionShelf {
		respondNotFound(c, "collection")
		return
	}

	events, err := ac.audit.GetEventsForEntity(collection, c.Param("id"))
	if err != nil {
		respondInternalError(c, err, "entity history")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}
