package v1

import (
	"net/http"

	"github.com/bonus-distribution/backend/internal/auth"
	"github.com/bonus-distribution/backend/internal/httputil"
	"github.com/bonus-distribution/backend/internal/ledger"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
)

type AllocationEditable struct {
	Recipient       string        `json:"recipient" example:"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"` // Address of the recipient
	EncryptedAmount hexutil.Bytes `json:"encryptedAmount" swaggertype:"string" example:"0x8f2a"`          // Hex encoded ciphertext of the amount
	Proof           hexutil.Bytes `json:"proof" swaggertype:"string" example:"0x01"`                      // Hex encoded proof for the ciphertext
}

type BonusStatusResponse struct {
	Data  *BonusStatus `json:"data"`
	Error *string      `json:"error,omitempty" example:"there is no distribution with this ID"`
}

type EncryptedBonusResponse struct {
	Data  *EncryptedBonus `json:"data"`
	Error *string         `json:"error,omitempty" example:"no bonus is allocated to this recipient"`
}

// registerAllocationRoutes registers the allocation and claim routes below
// a distribution.
func (co Controller) registerAllocationRoutes(r *gin.RouterGroup) {
	r.OPTIONS("/:id/allocations", OptionsAllocationList)
	r.POST("/:id/allocations", auth.Required(), co.CreateAllocation)

	r.OPTIONS("/:id/allocations/:recipient", OptionsAllocationDetail)
	r.GET("/:id/allocations/:recipient", co.GetAllocation)

	r.OPTIONS("/:id/claim", OptionsClaim)
	r.POST("/:id/claim", auth.Required(), co.Claim)

	r.OPTIONS("/:id/my-bonus", OptionsMyBonus)
	r.GET("/:id/my-bonus", auth.Required(), co.GetMyBonus)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Allocations
// @Success		204
// @Param			id	path	int	true	"ID of the distribution"
// @Router			/v1/distributions/{id}/allocations [options]
func OptionsAllocationList(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Allocations
// @Success		204
// @Param			id			path	int		true	"ID of the distribution"
// @Param			recipient	path	string	true	"Address of the recipient"
// @Router			/v1/distributions/{id}/allocations/{recipient} [options]
func OptionsAllocationDetail(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Allocations
// @Success		204
// @Param			id	path	int	true	"ID of the distribution"
// @Router			/v1/distributions/{id}/claim [options]
func OptionsClaim(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Allocations
// @Success		204
// @Param			id	path	int	true	"ID of the distribution"
// @Router			/v1/distributions/{id}/my-bonus [options]
func OptionsMyBonus(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Allocate bonus
// @Description	Records the encrypted bonus of a recipient. Only authorized managers can do this while the distribution is active.
// @Tags			Allocations
// @Accept			json
// @Produce		json
// @Success		201			{object}	BonusStatusResponse
// @Failure		400			{object}	BonusStatusResponse
// @Failure		401			{object}	httpError
// @Failure		403			{object}	BonusStatusResponse
// @Failure		404			{object}	BonusStatusResponse
// @Failure		409			{object}	BonusStatusResponse
// @Failure		422			{object}	BonusStatusResponse
// @Failure		500			{object}	BonusStatusResponse
// @Param			id			path		int					true	"ID of the distribution"
// @Param			allocation	body		AllocationEditable	true	"Allocation"
// @Router			/v1/distributions/{id}/allocations [post]
func (co Controller) CreateAllocation(c *gin.Context) {
	id, err := distributionID(c)
	if err != nil {
		c.JSON(status(err), BonusStatusResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	var editable AllocationEditable
	if err := httputil.BindData(c, &editable); err != nil {
		c.JSON(status(err), BonusStatusResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	recipient, err := ledger.ParsePrincipal(editable.Recipient)
	if err != nil {
		c.JSON(status(err), BonusStatusResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	// Verification is expensive, a request the ledger rejects anyway fails first
	caller, _ := auth.Principal(c)
	if err := co.Ledger.CheckAllocation(caller, id, recipient); err != nil {
		c.JSON(status(err), BonusStatusResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	err = co.Verifier.Verify(c.Request.Context(), editable.EncryptedAmount, editable.Proof)
	if err != nil {
		c.JSON(status(err), BonusStatusResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	err = co.Ledger.AllocateBonus(c.Request.Context(), caller, id, recipient, editable.EncryptedAmount, editable.Proof)
	if err != nil {
		c.JSON(status(err), BonusStatusResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	co.respondBonusStatus(c, http.StatusCreated, id, recipient)
}

// @Summary		Get bonus status
// @Description	Returns whether the recipient has a bonus in the distribution and whether it was claimed. The amount is never returned.
// @Tags			Allocations
// @Produce		json
// @Success		200			{object}	BonusStatusResponse
// @Failure		400			{object}	BonusStatusResponse
// @Failure		404			{object}	BonusStatusResponse
// @Param			id			path		int		true	"ID of the distribution"
// @Param			recipient	path		string	true	"Address of the recipient"
// @Router			/v1/distributions/{id}/allocations/{recipient} [get]
func (co Controller) GetAllocation(c *gin.Context) {
	id, err := distributionID(c)
	if err != nil {
		c.JSON(status(err), BonusStatusResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	recipient, err := principalParam(c, "recipient")
	if err != nil {
		c.JSON(status(err), BonusStatusResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	co.respondBonusStatus(c, http.StatusOK, id, recipient)
}

// @Summary		Claim bonus
// @Description	Claims the bonus of the caller. Claiming is possible after the distribution has been finalized.
// @Tags			Allocations
// @Produce		json
// @Success		200	{object}	BonusStatusResponse
// @Failure		400	{object}	BonusStatusResponse
// @Failure		401	{object}	httpError
// @Failure		404	{object}	BonusStatusResponse
// @Failure		409	{object}	BonusStatusResponse
// @Failure		500	{object}	BonusStatusResponse
// @Param			id	path		int	true	"ID of the distribution"
// @Router			/v1/distributions/{id}/claim [post]
func (co Controller) Claim(c *gin.Context) {
	id, err := distributionID(c)
	if err != nil {
		c.JSON(status(err), BonusStatusResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	caller, _ := auth.Principal(c)
	err = co.Ledger.ClaimBonus(c.Request.Context(), caller, id)
	if err != nil {
		c.JSON(status(err), BonusStatusResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	co.respondBonusStatus(c, http.StatusOK, id, caller)
}

// @Summary		Get own encrypted bonus
// @Description	Returns the encrypted amount and proof of the caller's own bonus
// @Tags			Allocations
// @Produce		json
// @Success		200	{object}	EncryptedBonusResponse
// @Failure		400	{object}	EncryptedBonusResponse
// @Failure		401	{object}	httpError
// @Failure		404	{object}	EncryptedBonusResponse
// @Param			id	path		int	true	"ID of the distribution"
// @Router			/v1/distributions/{id}/my-bonus [get]
func (co Controller) GetMyBonus(c *gin.Context) {
	id, err := distributionID(c)
	if err != nil {
		c.JSON(status(err), EncryptedBonusResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	caller, _ := auth.Principal(c)
	bonus, err := co.Ledger.EncryptedBonus(caller, id)
	if err != nil {
		c.JSON(status(err), EncryptedBonusResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	c.JSON(http.StatusOK, EncryptedBonusResponse{
		Data: &EncryptedBonus{
			DistributionID:  id,
			EncryptedAmount: bonus.EncryptedAmount,
			Proof:           bonus.Proof,
		},
	})
}

// respondBonusStatus sends the claim state of the recipient.
func (co Controller) respondBonusStatus(c *gin.Context, code int, id int64, recipient ledger.Principal) {
	s, err := co.Ledger.BonusStatus(id, recipient)
	if err != nil {
		c.JSON(status(err), BonusStatusResponse{
			Error: errorMessage(c, err),
		})
		return
	}

	data := newBonusStatus(id, recipient, s)
	c.JSON(code, BonusStatusResponse{Data: &data})
}
