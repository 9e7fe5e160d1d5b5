package v1

import (
	"net/http"

	"github.com/bonus-distribution/backend/internal/auth"
	"github.com/bonus-distribution/backend/internal/httputil"
	"github.com/bonus-distribution/backend/internal/ledger"
	"github.com/gin-gonic/gin"
)

type Admin struct {
	Principal string `json:"principal" example:"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"`
}

type AdminResponse struct {
	Data  *Admin  `json:"data"`
	Error *string `json:"error,omitempty" example:"An error occurred"`
}

type ManagerLinks struct {
	Self string `json:"self" example:"https://example.com/api/v1/managers/0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"`
}

type Manager struct {
	Principal  string       `json:"principal" example:"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"`
	Authorized bool         `json:"authorized" example:"true"`
	Links      ManagerLinks `json:"links"`
}

func newManager(c *gin.Context, p ledger.Principal, authorized bool) Manager {
	return Manager{
		Principal:  p.Hex(),
		Authorized: authorized,
		Links: ManagerLinks{
			Self: httputil.BaseURL(c) + "/v1/managers/" + p.Hex(),
		},
	}
}

type ManagerResponse struct {
	Data  *Manager `json:"data"`
	Error *string  `json:"error,omitempty" example:"the caller is not allowed to perform this action"`
}

type ManagerListResponse struct {
	Data  []Manager `json:"data"`
	Error *string   `json:"error,omitempty" example:"An error occurred"`
}

type ManagerEditable struct {
	Authorized *bool `json:"authorized" example:"true"` // Grant or revoke manager status
}

// RegisterAdminRoutes registers the routes for the admin with
// the RouterGroup that is passed.
func (co Controller) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", OptionsAdmin)
	r.GET("", co.GetAdmin)
}

// RegisterManagerRoutes registers the routes for managers with
// the RouterGroup that is passed.
func (co Controller) RegisterManagerRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsManagerList)
		r.GET("", co.GetManagers)
	}

	// Manager with principal
	{
		r.OPTIONS("/:principal", OptionsManagerDetail)
		r.GET("/:principal", co.GetManager)
		r.PATCH("/:principal", auth.Required(), co.UpdateManager)
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Managers
// @Success		204
// @Router			/v1/admin [options]
func OptionsAdmin(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Get admin
// @Description	Returns the principal of the admin
// @Tags			Managers
// @Produce		json
// @Success		200	{object}	AdminResponse
// @Router			/v1/admin [get]
func (co Controller) GetAdmin(c *gin.Context) {
	c.JSON(http.StatusOK, AdminResponse{
		Data: &Admin{Principal: co.Ledger.Admin().Hex()},
	})
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Managers
// @Success		204
// @Router			/v1/managers [options]
func OptionsManagerList(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Managers
// @Success		204
// @Param			principal	path	string	true	"Address of the manager"
// @Router			/v1/managers/{principal} [options]
func OptionsManagerDetail(c *gin.Context) {
	httputil.OptionsGetPatch(c)
}

// @Summary		List managers
// @Description	Returns all currently authorized managers
// @Tags			Managers
// @Produce		json
// @Success		200	{object}	ManagerListResponse
// @Router			/v1/managers [get]
func (co Controller) GetManagers(c *gin.Context) {
	managers := make([]Manager, 0)
	for _, p := range co.Ledger.Managers() {
		managers = append(managers, newManager(c, p, true))
	}

	c.JSON(http.StatusOK, ManagerListResponse{
		Data: managers,
	})
}

// @Summary		Get manager
// @Description	Returns whether the principal is an authorized manager
// @Tags			Managers
// @Produce		json
// @Success		200			{object}	ManagerResponse
// @Failure		400			{object}	ManagerResponse
// @Param			principal	path		string	true	"Address of the manager"
// @Router			/v1/managers/{principal} [get]
func (co Controller) GetManager(c *gin.Context) {
	p, err := principalParam(c, "principal")
	if err != nil {
		c.JSON(status(err), ManagerResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	data := newManager(c, p, co.Ledger.IsAuthorizedManager(p))
	c.JSON(http.StatusOK, ManagerResponse{Data: &data})
}

// @Summary		Update manager
// @Description	Grants or revokes manager status. Only the admin can do this.
// @Tags			Managers
// @Accept			json
// @Produce		json
// @Success		200			{object}	ManagerResponse
// @Failure		400			{object}	ManagerResponse
// @Failure		401			{object}	httpError
// @Failure		403			{object}	ManagerResponse
// @Failure		500			{object}	ManagerResponse
// @Param			principal	path		string			true	"Address of the manager"
// @Param			manager		body		ManagerEditable	true	"Manager"
// @Router			/v1/managers/{principal} [patch]
func (co Controller) UpdateManager(c *gin.Context) {
	target, err := principalParam(c, "principal")
	if err != nil {
		c.JSON(status(err), ManagerResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	var editable ManagerEditable
	if err := httputil.BindData(c, &editable); err != nil {
		c.JSON(status(err), ManagerResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	if editable.Authorized == nil {
		c.JSON(http.StatusBadRequest, ManagerResponse{
			Error: errorMessage(c, errAuthorizedRequired),
		})
		return
	}

	caller, _ := auth.Principal(c)
	err = co.Ledger.SetManagerAuthorization(c.Request.Context(), caller, target, *editable.Authorized)
	if err != nil {
		c.JSON(status(err), ManagerResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	data := newManager(c, target, *editable.Authorized)
	c.JSON(http.StatusOK, ManagerResponse{Data: &data})
}
