package v1_test

import (
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/bonus-distribution/backend/internal/auth"
	v1 "github.com/bonus-distribution/backend/internal/controllers/v1"
	"github.com/bonus-distribution/backend/internal/ledger"
	"github.com/bonus-distribution/backend/internal/verifier"
	"github.com/bonus-distribution/backend/test"
	"github.com/stretchr/testify/assert"
)

// bearer sends a request with the token as bearer credentials.
func (suite *TestSuiteStandard) bearer(method, path string, body any, token string) httptest.ResponseRecorder {
	headers := map[string]string{}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	return test.Request(suite.T(), suite.router, method, "http://example.com"+path, body, headers)
}

func (suite *TestSuiteStandard) TestJWT() {
	jwt, err := auth.NewJWT([]byte("a very secret string"), "", suite.clock)
	suite.Require().Nil(err)
	suite.serve(verifier.AcceptAll{}, jwt)

	token, err := jwt.IssueToken(admin, time.Hour)
	suite.Require().Nil(err)

	recorder := suite.bearer(http.MethodPatch, "/v1/managers/"+manager.Hex(), `{ "authorized": true }`, token)
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)
	assert.True(suite.T(), suite.ledger.IsAuthorizedManager(manager))

	// The principal header is not trusted with bearer authentication
	recorder = suite.request(http.MethodPatch, "/v1/managers/"+employee1.Hex(), `{ "authorized": true }`, admin)
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusUnauthorized)

	recorder = suite.bearer(http.MethodPatch, "/v1/managers/"+employee1.Hex(), `{ "authorized": true }`, "not-a-token")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusUnauthorized)

	var response errorResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	assert.Contains(suite.T(), response.Error, auth.ErrInvalidToken.Error())

	// Expired tokens are rejected, even on public endpoints
	suite.clock.Advance(2 * time.Hour)
	recorder = suite.bearer(http.MethodGet, "/v1/managers", nil, token)
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusUnauthorized)

	assert.False(suite.T(), suite.ledger.IsAuthorizedManager(employee1))
}

func (suite *TestSuiteStandard) TestLifecycle() {
	jwt, err := auth.NewJWT([]byte("a very secret string"), "bonusd", suite.clock)
	suite.Require().Nil(err)
	suite.serve(verifier.AcceptAll{}, jwt)

	tokens := map[ledger.Principal]string{}
	for _, p := range []ledger.Principal{admin, manager, employee1, employee2} {
		token, err := jwt.IssueToken(p, 24*time.Hour)
		suite.Require().Nil(err)
		tokens[p] = token
	}

	// Admin authorizes the manager
	recorder := suite.bearer(http.MethodPatch, "/v1/managers/"+manager.Hex(), `{ "authorized": true }`, tokens[admin])
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	// Manager creates the distribution
	recorder = suite.bearer(http.MethodPost, "/v1/distributions", `{ "title": "Q4 Performance Bonus", "totalBudget": "10.5", "durationDays": 30 }`, tokens[manager])
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusCreated)

	var distribution v1.DistributionResponse
	test.DecodeResponse(suite.T(), &recorder, &distribution)
	assert.Equal(suite.T(), int64(1), distribution.Data.ID)
	assert.True(suite.T(), start.AddDate(0, 0, 30).Equal(distribution.Data.Deadline))

	// Manager allocates two bonuses
	for recipient, amount := range map[ledger.Principal]string{employee1: "0x8f2a", employee2: "0x7c11"} {
		recorder = suite.bearer(http.MethodPost, "/v1/distributions/1/allocations", `{ "recipient": "`+recipient.Hex()+`", "encryptedAmount": "`+amount+`", "proof": "0x01" }`, tokens[manager])
		test.AssertHTTPStatus(suite.T(), &recorder, http.StatusCreated)
	}

	recorder = suite.bearer(http.MethodGet, "/v1/distributions/1", nil, "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)
	test.DecodeResponse(suite.T(), &recorder, &distribution)
	assert.Equal(suite.T(), 2, distribution.Data.RecipientCount)

	// Each recipient only sees their own ciphertext
	recorder = suite.bearer(http.MethodGet, "/v1/distributions/1/my-bonus", nil, tokens[employee1])
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)
	assert.Contains(suite.T(), recorder.Body.String(), `"encryptedAmount":"0x8f2a"`)
	assert.NotContains(suite.T(), recorder.Body.String(), "0x7c11")

	// One recipient claims before finalization
	suite.clock.Advance(time.Hour)
	recorder = suite.bearer(http.MethodPost, "/v1/distributions/1/claim", nil, tokens[employee1])
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	// Admin finalizes, no more allocations
	recorder = suite.bearer(http.MethodPost, "/v1/distributions/1/finalize", nil, tokens[admin])
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	recorder = suite.bearer(http.MethodPost, "/v1/distributions/1/allocations", `{ "recipient": "`+admin.Hex()+`", "encryptedAmount": "0x01" }`, tokens[manager])
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusConflict)

	// The second recipient claims after finalization
	recorder = suite.bearer(http.MethodPost, "/v1/distributions/1/claim", nil, tokens[employee2])
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var status v1.BonusStatusResponse
	recorder = suite.bearer(http.MethodGet, "/v1/distributions/1/allocations/"+employee1.Hex(), nil, "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)
	test.DecodeResponse(suite.T(), &recorder, &status)
	assert.True(suite.T(), status.Data.HasClaimed)
	assert.True(suite.T(), start.Add(time.Hour).Equal(*status.Data.ClaimedAt))

	// The event log has the full history
	var events v1.EventListResponse
	recorder = suite.bearer(http.MethodGet, "/v1/events?distribution=1", nil, "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)
	test.DecodeResponse(suite.T(), &recorder, &events)

	types := make([]string, 0, len(events.Data))
	for _, e := range events.Data {
		types = append(types, e.Type)
	}
	assert.Equal(suite.T(), []string{"DistributionCreated", "BonusAllocated", "BonusAllocated", "BonusClaimed", "DistributionFinalized", "BonusClaimed"}, types)
}
