// Package v1 implements the v1 HTTP API of the bonus ledger.
package v1

import (
	"context"

	"github.com/bonus-distribution/backend/internal/ledger"
	"github.com/bonus-distribution/backend/internal/models"
	"github.com/bonus-distribution/backend/internal/templates"
	"github.com/bonus-distribution/backend/internal/verifier"
	"github.com/gin-gonic/gin"
)

// EventLog gives read access to the persisted ledger events.
type EventLog interface {
	Events(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
}

// Controller holds the collaborators of the v1 handlers.
type Controller struct {
	Ledger    *ledger.Ledger
	Events    EventLog
	Verifier  verifier.Verifier
	Templates *templates.Catalog
}

// RegisterRoutes registers all v1 routes with the RouterGroup that is passed.
func (co Controller) RegisterRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", OptionsV1)
	r.GET("", GetV1)

	co.RegisterAdminRoutes(r.Group("/admin"))
	co.RegisterManagerRoutes(r.Group("/managers"))
	co.RegisterDistributionRoutes(r.Group("/distributions"))
	co.RegisterEventRoutes(r.Group("/events"))
	co.RegisterTemplateRoutes(r.Group("/templates"))
}
