package v1

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bonus-distribution/backend/internal/httputil"
	"github.com/bonus-distribution/backend/internal/ledger"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type Pagination struct {
	Count  int  `json:"count" example:"25"`  // The amount of records returned in this response
	Offset uint `json:"offset" example:"50"` // The offset for the first record returned
	Limit  int  `json:"limit" example:"25"`  // The maximum amount of resources to return for this request
	Total  int  `json:"total" example:"827"` // The total number of resources matching the query
}

// URIDistribution is the distribution ID in the request path.
type URIDistribution struct {
	ID string `uri:"id" example:"1"`
}

// parse returns the distribution ID. IDs that are not positive integers are
// rejected, IDs that do not exist are left to the ledger.
func (u URIDistribution) parse() (int64, error) {
	id, err := strconv.ParseInt(u.ID, 10, 64)
	if err != nil {
		return 0, errInvalidID
	}

	return id, nil
}

// distributionID parses the :id path parameter.
func distributionID(c *gin.Context) (int64, error) {
	var uri URIDistribution
	if err := c.ShouldBindUri(&uri); err != nil {
		return 0, errInvalidID
	}

	return uri.parse()
}

// principalParam parses a principal from the path parameter with the given name.
func principalParam(c *gin.Context, name string) (ledger.Principal, error) {
	p, err := ledger.ParsePrincipal(c.Param(name))
	if err != nil {
		return ledger.Principal{}, fmt.Errorf("%w: %q", err, c.Param(name))
	}

	return p, nil
}

type DistributionLinks struct {
	Self        string `json:"self" example:"https://example.com/api/v1/distributions/1"`
	Recipients  string `json:"recipients" example:"https://example.com/api/v1/distributions/1/recipients"`
	Allocations string `json:"allocations" example:"https://example.com/api/v1/distributions/1/allocations"`
	Finalize    string `json:"finalize" example:"https://example.com/api/v1/distributions/1/finalize"`
	Claim       string `json:"claim" example:"https://example.com/api/v1/distributions/1/claim"`
	MyBonus     string `json:"myBonus" example:"https://example.com/api/v1/distributions/1/my-bonus"`
	Events      string `json:"events" example:"https://example.com/api/v1/events?distribution=1"`
}

// Distribution is the API representation of a distribution.
type Distribution struct {
	ID             int64             `json:"id" example:"1"`
	Title          string            `json:"title" example:"Q4 Performance Bonus"`
	TotalBudget    decimal.Decimal   `json:"totalBudget" swaggertype:"string" example:"10.5"`
	IsActive       bool              `json:"isActive" example:"true"`
	IsFinalized    bool              `json:"isFinalized" example:"false"`
	CreatedAt      time.Time         `json:"createdAt" example:"2024-01-01T10:00:00Z"`
	Deadline       time.Time         `json:"deadline" example:"2024-01-31T10:00:00Z"`
	RecipientCount int               `json:"recipientCount" example:"12"`
	Links          DistributionLinks `json:"links"`
}

func newDistribution(c *gin.Context, info ledger.DistributionInfo) Distribution {
	url := fmt.Sprintf("%s/v1/distributions/%d", httputil.BaseURL(c), info.ID)

	return Distribution{
		ID:             info.ID,
		Title:          info.Title,
		TotalBudget:    info.TotalBudget,
		IsActive:       info.IsActive,
		IsFinalized:    info.IsFinalized,
		CreatedAt:      info.CreatedAt,
		Deadline:       info.Deadline,
		RecipientCount: info.RecipientCount,
		Links: DistributionLinks{
			Self:        url,
			Recipients:  url + "/recipients",
			Allocations: url + "/allocations",
			Finalize:    url + "/finalize",
			Claim:       url + "/claim",
			MyBonus:     url + "/my-bonus",
			Events:      fmt.Sprintf("%s/v1/events?distribution=%d", httputil.BaseURL(c), info.ID),
		},
	}
}

// BonusStatus is the claim state of one recipient.
type BonusStatus struct {
	DistributionID int64      `json:"distributionId" example:"1"`
	Recipient      string     `json:"recipient" example:"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"`
	HasBonus       bool       `json:"hasBonus" example:"true"`
	HasClaimed     bool       `json:"hasClaimed" example:"false"`
	ClaimedAt      *time.Time `json:"claimedAt" example:"2024-01-15T08:30:00Z"` // Only set once the bonus is claimed
}

func newBonusStatus(id int64, recipient ledger.Principal, s ledger.BonusStatus) BonusStatus {
	status := BonusStatus{
		DistributionID: id,
		Recipient:      recipient.Hex(),
		HasBonus:       s.HasBonus,
		HasClaimed:     s.HasClaimed,
	}

	if s.HasClaimed {
		claimedAt := s.ClaimedAt
		status.ClaimedAt = &claimedAt
	}

	return status
}

// EncryptedBonus is the ciphertext of the caller's own bonus.
type EncryptedBonus struct {
	DistributionID  int64         `json:"distributionId" example:"1"`
	EncryptedAmount hexutil.Bytes `json:"encryptedAmount" swaggertype:"string" example:"0x8f2a"`
	Proof           hexutil.Bytes `json:"proof" swaggertype:"string" example:"0x01"`
}
