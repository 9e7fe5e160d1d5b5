package healthz

import (
	"net/http"

	"github.com/bonus-distribution/backend/internal/httputil"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Controller reports the health of the database connection.
type Controller struct {
	DB *gorm.DB
}

// RegisterRoutes registers the routes for the healthz endpoint.
func (co Controller) RegisterRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", Options)
	r.GET("", co.Get)
}

type HealthResponse struct {
	Error string `json:"error" example:"The database cannot be accessed"`
}

// Options returns the allowed HTTP verbs
//
//	@Summary		Allowed HTTP verbs
//	@Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
//	@Tags			General
//	@Success		204
//	@Router			/healthz [options]
func Options(c *gin.Context) {
	httputil.OptionsGet(c)
}

// Get returns data about the application health
//
//	@Summary		Get health
//	@Description	Returns the application health and, if not healthy, an error
//	@Tags			General
//	@Produce		json
//	@Success		204
//	@Failure		500	{object}	HealthResponse
//	@Router			/healthz [get]
func (co Controller) Get(c *gin.Context) {
	sqlDB, err := co.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}

	if err != nil {
		log.Error().Str("request-id", requestid.Get(c)).Err(err).Msg("Healthz")
		c.JSON(http.StatusInternalServerError, HealthResponse{
			Error: "the database cannot be accessed",
		})
		return
	}

	c.Status(http.StatusNoContent)
}
