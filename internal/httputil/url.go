package httputil

import "github.com/gin-gonic/gin"

// ContextURL is the context key for the external base URL of the API.
const ContextURL = "baseURL"

// BaseURL returns the external base URL of the API, without trailing slash.
func BaseURL(c *gin.Context) string {
	return c.GetString(ContextURL)
}
