package v1_test

import (
	"net/http"

	"github.com/bonus-distribution/backend/internal/ledger"
	"github.com/bonus-distribution/backend/test"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestDatabaseError() {
	suite.createDistribution("Q4")
	suite.CloseDB()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		caller []ledger.Principal
	}{
		{"Create distribution", http.MethodPost, "/v1/distributions", `{ "title": "Q1", "totalBudget": "1", "durationDays": 7 }`, []ledger.Principal{manager}},
		{"Revoke manager", http.MethodPatch, "/v1/managers/" + manager.Hex(), `{ "authorized": false }`, []ledger.Principal{admin}},
		{"Finalize", http.MethodPost, "/v1/distributions/1/finalize", nil, []ledger.Principal{admin}},
		{"Events", http.MethodGet, "/v1/events", nil, nil},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			recorder := suite.request(tt.method, tt.path, tt.body, tt.caller...)
			test.AssertHTTPStatus(suite.T(), &recorder, http.StatusInternalServerError)

			var response errorResponse
			test.DecodeResponse(suite.T(), &recorder, &response)
			assert.Contains(suite.T(), response.Error, "The request id is")
			assert.Contains(suite.T(), response.Error, recorder.Header().Get("x-request-id"))
		})
	}

	// Failed writes leave the ledger unchanged
	assert.Equal(suite.T(), int64(1), suite.ledger.CurrentDistributionID())
	assert.True(suite.T(), suite.ledger.IsAuthorizedManager(manager))

	info, err := suite.ledger.DistributionInfo(1)
	suite.Require().Nil(err)
	assert.True(suite.T(), info.IsActive)
}
