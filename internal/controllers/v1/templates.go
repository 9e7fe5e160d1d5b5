package v1

import (
	"net/http"

	"github.com/bonus-distribution/backend/internal/httputil"
	"github.com/bonus-distribution/backend/internal/templates"
	"github.com/gin-gonic/gin"
)

type TemplateResponse struct {
	Data *templates.Catalog `json:"data"`
}

// RegisterTemplateRoutes registers the routes for templates with
// the RouterGroup that is passed.
func (co Controller) RegisterTemplateRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", OptionsTemplates)
	r.GET("", co.GetTemplates)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Templates
// @Success		204
// @Router			/v1/templates [options]
func OptionsTemplates(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Get templates
// @Description	Returns the distribution templates and bonus presets
// @Tags			Templates
// @Produce		json
// @Success		200	{object}	TemplateResponse
// @Router			/v1/templates [get]
func (co Controller) GetTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, TemplateResponse{
		Data: co.Templates,
	})
}
