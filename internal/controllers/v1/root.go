package v1

import (
	"net/http"

	"github.com/bonus-distribution/backend/internal/httputil"
	"github.com/gin-gonic/gin"
)

type Response struct {
	Links Links `json:"links"` // Links for the v1 API
}

type Links struct {
	Admin         string `json:"admin" example:"https://example.com/api/v1/admin"`                   // URL of the admin endpoint
	Managers      string `json:"managers" example:"https://example.com/api/v1/managers"`             // URL of the manager list endpoint
	Distributions string `json:"distributions" example:"https://example.com/api/v1/distributions"`   // URL of the distribution list endpoint
	Current       string `json:"current" example:"https://example.com/api/v1/distributions/current"` // URL of the latest distribution ID endpoint
	Events        string `json:"events" example:"https://example.com/api/v1/events"`                 // URL of the event log endpoint
	Templates     string `json:"templates" example:"https://example.com/api/v1/templates"`           // URL of the template endpoint
}

// GetV1 returns the link list for v1
//
//	@Summary		v1 API
//	@Description	Returns general information about the v1 API
//	@Tags			v1
//	@Success		200	{object}	Response
//	@Router			/v1 [get]
func GetV1(c *gin.Context) {
	url := httputil.BaseURL(c) + "/v1"

	c.JSON(http.StatusOK, Response{
		Links: Links{
			Admin:         url + "/admin",
			Managers:      url + "/managers",
			Distributions: url + "/distributions",
			Current:       url + "/distributions/current",
			Events:        url + "/events",
			Templates:     url + "/templates",
		},
	})
}

// OptionsV1 returns the allowed HTTP methods
//
//	@Summary		Allowed HTTP verbs
//	@Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
//	@Tags			v1
//	@Success		204
//	@Router			/v1 [options]
func OptionsV1(c *gin.Context) {
	httputil.OptionsGet(c)
}
