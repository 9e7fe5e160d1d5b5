package v1

import (
	"net/http"
	"strings"

	"github.com/bonus-distribution/backend/internal/auth"
	"github.com/bonus-distribution/backend/internal/httputil"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

type DistributionEditable struct {
	Title        string          `json:"title" example:"Q4 Performance Bonus"`                  // Title of the distribution
	TotalBudget  decimal.Decimal `json:"totalBudget" swaggertype:"string" example:"10.5"`       // Total budget, must be greater than 0
	DurationDays int             `json:"durationDays" example:"30" minimum:"1" maximum:"36500"` // Days until the deadline
}

type DistributionResponse struct {
	Data  *Distribution `json:"data"`
	Error *string       `json:"error,omitempty" example:"there is no distribution with this ID"`
}

type DistributionListResponse struct {
	Data       []Distribution `json:"data"`
	Error      *string        `json:"error,omitempty" example:"An error occurred"`
	Pagination *Pagination    `json:"pagination,omitempty"`
}

type DistributionQueryFilter struct {
	Offset uint `form:"offset"`           // The offset of the first distribution returned
	Limit  int  `form:"limit,default=50"` // Maximum number of distributions to return, -1 for all
}

type CurrentDistribution struct {
	ID int64 `json:"id" example:"4"` // ID of the latest distribution, 0 if there is none yet
}

type CurrentDistributionResponse struct {
	Data *CurrentDistribution `json:"data"`
}

type RecipientListResponse struct {
	Data  []string `json:"data" example:"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"`
	Error *string  `json:"error,omitempty" example:"there is no distribution with this ID"`
}

// RegisterDistributionRoutes registers the routes for distributions with
// the RouterGroup that is passed.
func (co Controller) RegisterDistributionRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsDistributionList)
		r.GET("", co.GetDistributions)
		r.POST("", auth.Required(), co.CreateDistribution)
	}

	{
		r.OPTIONS("/current", OptionsDistributionCurrent)
		r.GET("/current", co.GetCurrentDistribution)
	}

	// Distribution with ID
	{
		r.OPTIONS("/:id", OptionsDistributionDetail)
		r.GET("/:id", co.GetDistribution)

		r.OPTIONS("/:id/finalize", OptionsDistributionFinalize)
		r.POST("/:id/finalize", auth.Required(), co.FinalizeDistribution)

		r.OPTIONS("/:id/recipients", OptionsDistributionRecipients)
		r.GET("/:id/recipients", co.GetDistributionRecipients)
	}

	co.registerAllocationRoutes(r)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Distributions
// @Success		204
// @Router			/v1/distributions [options]
func OptionsDistributionList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Distributions
// @Success		204
// @Router			/v1/distributions/current [options]
func OptionsDistributionCurrent(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Distributions
// @Success		204
// @Param			id	path	int	true	"ID of the distribution"
// @Router			/v1/distributions/{id} [options]
func OptionsDistributionDetail(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Distributions
// @Success		204
// @Param			id	path	int	true	"ID of the distribution"
// @Router			/v1/distributions/{id}/finalize [options]
func OptionsDistributionFinalize(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Distributions
// @Success		204
// @Param			id	path	int	true	"ID of the distribution"
// @Router			/v1/distributions/{id}/recipients [options]
func OptionsDistributionRecipients(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		List distributions
// @Description	Returns a page of distributions ordered by ID
// @Tags			Distributions
// @Produce		json
// @Success		200		{object}	DistributionListResponse
// @Failure		400		{object}	DistributionListResponse
// @Param			offset	query		uint	false	"The offset of the first distribution returned. Defaults to 0."
// @Param			limit	query		int		false	"Maximum number of distributions to return. Defaults to 50, -1 returns all."
// @Router			/v1/distributions [get]
func (co Controller) GetDistributions(c *gin.Context) {
	var filter DistributionQueryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, DistributionListResponse{
			Error: errorMessage(c, errInvalidQuery),
		})
		return
	}

	infos, total := co.Ledger.Distributions(int(filter.Offset), filter.Limit)

	distributions := make([]Distribution, 0, len(infos))
	for _, info := range infos {
		distributions = append(distributions, newDistribution(c, info))
	}

	c.JSON(http.StatusOK, DistributionListResponse{
		Data: distributions,
		Pagination: &Pagination{
			Count:  len(distributions),
			Total:  total,
			Offset: filter.Offset,
			Limit:  filter.Limit,
		},
	})
}

// @Summary		Create distribution
// @Description	Creates a new distribution. Only authorized managers can do this.
// @Tags			Distributions
// @Accept			json
// @Produce		json
// @Success		201				{object}	DistributionResponse
// @Failure		400				{object}	DistributionResponse
// @Failure		401				{object}	httpError
// @Failure		403				{object}	DistributionResponse
// @Failure		500				{object}	DistributionResponse
// @Param			distribution	body		DistributionEditable	true	"Distribution"
// @Router			/v1/distributions [post]
func (co Controller) CreateDistribution(c *gin.Context) {
	var editable DistributionEditable
	if err := httputil.BindData(c, &editable); err != nil {
		c.JSON(status(err), DistributionResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	title := norm.NFC.String(strings.TrimSpace(editable.Title))
	if title == "" {
		c.JSON(http.StatusBadRequest, DistributionResponse{
			Error: errorMessage(c, errTitleRequired),
		})
		return
	}

	caller, _ := auth.Principal(c)
	id, err := co.Ledger.CreateDistribution(c.Request.Context(), caller, title, editable.TotalBudget, editable.DurationDays)
	if err != nil {
		c.JSON(status(err), DistributionResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	co.respondDistribution(c, http.StatusCreated, id)
}

// @Summary		Get current distribution ID
// @Description	Returns the ID of the latest distribution, 0 if none has been created yet
// @Tags			Distributions
// @Produce		json
// @Success		200	{object}	CurrentDistributionResponse
// @Router			/v1/distributions/current [get]
func (co Controller) GetCurrentDistribution(c *gin.Context) {
	c.JSON(http.StatusOK, CurrentDistributionResponse{
		Data: &CurrentDistribution{ID: co.Ledger.CurrentDistributionID()},
	})
}

// @Summary		Get distribution
// @Description	Returns a specific distribution
// @Tags			Distributions
// @Produce		json
// @Success		200	{object}	DistributionResponse
// @Failure		400	{object}	DistributionResponse
// @Failure		404	{object}	DistributionResponse
// @Param			id	path		int	true	"ID of the distribution"
// @Router			/v1/distributions/{id} [get]
func (co Controller) GetDistribution(c *gin.Context) {
	id, err := distributionID(c)
	if err != nil {
		c.JSON(status(err), DistributionResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	co.respondDistribution(c, http.StatusOK, id)
}

// @Summary		Finalize distribution
// @Description	Closes the distribution for new allocations. Only the admin can do this. Recipients can still claim their bonus.
// @Tags			Distributions
// @Produce		json
// @Success		200	{object}	DistributionResponse
// @Failure		400	{object}	DistributionResponse
// @Failure		401	{object}	httpError
// @Failure		403	{object}	DistributionResponse
// @Failure		404	{object}	DistributionResponse
// @Failure		409	{object}	DistributionResponse
// @Failure		500	{object}	DistributionResponse
// @Param			id	path		int	true	"ID of the distribution"
// @Router			/v1/distributions/{id}/finalize [post]
func (co Controller) FinalizeDistribution(c *gin.Context) {
	id, err := distributionID(c)
	if err != nil {
		c.JSON(status(err), DistributionResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	caller, _ := auth.Principal(c)
	err = co.Ledger.FinalizeDistribution(c.Request.Context(), caller, id)
	if err != nil {
		c.JSON(status(err), DistributionResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	co.respondDistribution(c, http.StatusOK, id)
}

// @Summary		List recipients
// @Description	Returns the recipients of a distribution in allocation order
// @Tags			Distributions
// @Produce		json
// @Success		200	{object}	RecipientListResponse
// @Failure		400	{object}	RecipientListResponse
// @Failure		404	{object}	RecipientListResponse
// @Param			id	path		int	true	"ID of the distribution"
// @Router			/v1/distributions/{id}/recipients [get]
func (co Controller) GetDistributionRecipients(c *gin.Context) {
	id, err := distributionID(c)
	if err != nil {
		c.JSON(status(err), RecipientListResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	recipients, err := co.Ledger.DistributionRecipients(id)
	if err != nil {
		c.JSON(status(err), RecipientListResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	data := make([]string, 0, len(recipients))
	for _, r := range recipients {
		data = append(data, r.Hex())
	}

	c.JSON(http.StatusOK, RecipientListResponse{Data: data})
}

// respondDistribution sends the current state of the distribution.
func (co Controller) respondDistribution(c *gin.Context, code int, id int64) {
	info, err := co.Ledger.DistributionInfo(id)
	if err != nil {
		c.JSON(status(err), DistributionResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	data := newDistribution(c, info)
	c.JSON(code, DistributionResponse{Data: &data})
}
