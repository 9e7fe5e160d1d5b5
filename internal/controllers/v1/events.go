package v1

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bonus-distribution/backend/internal/httputil"
	"github.com/bonus-distribution/backend/internal/ledger"
	"github.com/bonus-distribution/backend/internal/models"
	"github.com/gin-gonic/gin"
)

type Event struct {
	Sequence       uint64          `json:"sequence" example:"17"`
	Type           string          `json:"type" example:"BonusAllocated"`
	DistributionID int64           `json:"distributionId,omitempty" example:"1"`
	Principal      string          `json:"principal,omitempty" example:"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"`
	Payload        json.RawMessage `json:"payload" swaggertype:"object"`
	CreatedAt      time.Time       `json:"createdAt" example:"2024-01-01T10:00:00Z"`
}

type EventListResponse struct {
	Data       []Event     `json:"data"`
	Error      *string     `json:"error,omitempty" example:"the query string contains invalid values"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type EventQueryFilter struct {
	Type           string `form:"type"`             // Glob pattern for the event type, e.g. Bonus*
	DistributionID int64  `form:"distribution"`     // Only events of this distribution
	Principal      string `form:"principal"`        // Only events concerning this principal
	Offset         uint   `form:"offset"`           // The offset of the first event returned
	Limit          int    `form:"limit,default=50"` // Maximum number of events to return, -1 for all
}

// RegisterEventRoutes registers the routes for the event log with
// the RouterGroup that is passed.
func (co Controller) RegisterEventRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", OptionsEventList)
	r.GET("", co.GetEvents)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Events
// @Success		204
// @Router			/v1/events [options]
func OptionsEventList(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		List events
// @Description	Returns the ledger events in the order they happened
// @Tags			Events
// @Produce		json
// @Success		200				{object}	EventListResponse
// @Failure		400				{object}	EventListResponse
// @Failure		500				{object}	EventListResponse
// @Param			type			query		string	false	"Glob pattern for the event type, e.g. Bonus*"
// @Param			distribution	query		int		false	"Filter by distribution ID"
// @Param			principal		query		string	false	"Filter by principal address"
// @Param			offset			query		uint	false	"The offset of the first event returned. Defaults to 0."
// @Param			limit			query		int		false	"Maximum number of events to return. Defaults to 50, -1 returns all."
// @Router			/v1/events [get]
func (co Controller) GetEvents(c *gin.Context) {
	var query EventQueryFilter
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, EventListResponse{
			Error: errorMessage(c, errInvalidQuery),
		})
		return
	}

	filter := models.EventFilter{
		Type:           query.Type,
		DistributionID: query.DistributionID,
		Offset:         int(query.Offset),
		Limit:          query.Limit,
	}

	if query.Principal != "" {
		p, err := ledger.ParsePrincipal(query.Principal)
		if err != nil {
			c.JSON(status(err), EventListResponse{
				Error: errorMessage(c, err),
			})
			return
		}
		filter.Principal = p
	}

	events, total, err := co.Events.Events(c.Request.Context(), filter)
	if err != nil {
		c.JSON(status(err), EventListResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	data := make([]Event, 0, len(events))
	for _, e := range events {
		data = append(data, Event{
			Sequence:       e.Sequence,
			Type:           e.Type,
			DistributionID: e.DistributionID,
			Principal:      e.Principal,
			Payload:        json.RawMessage(e.Payload),
			CreatedAt:      e.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, EventListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  total,
			Offset: query.Offset,
			Limit:  query.Limit,
		},
	})
}
