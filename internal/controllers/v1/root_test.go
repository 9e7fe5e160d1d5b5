package v1_test

import (
	"net/http"

	v1 "github.com/bonus-distribution/backend/internal/controllers/v1"
	"github.com/bonus-distribution/backend/test"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestOptions() {
	suite.createDistribution("Q4")

	tests := []struct {
		path     string
		expected string
	}{
		{"/v1", "OPTIONS, GET"},
		{"/v1/admin", "OPTIONS, GET"},
		{"/v1/managers", "OPTIONS, GET"},
		{"/v1/managers/" + manager.Hex(), "OPTIONS, GET, PATCH"},
		{"/v1/distributions", "OPTIONS, GET, POST"},
		{"/v1/distributions/current", "OPTIONS, GET"},
		{"/v1/distributions/1", "OPTIONS, GET"},
		{"/v1/distributions/1/finalize", "OPTIONS, POST"},
		{"/v1/distributions/1/recipients", "OPTIONS, GET"},
		{"/v1/distributions/1/allocations", "OPTIONS, POST"},
		{"/v1/distributions/1/allocations/" + employee1.Hex(), "OPTIONS, GET"},
		{"/v1/distributions/1/claim", "OPTIONS, POST"},
		{"/v1/distributions/1/my-bonus", "OPTIONS, GET"},
		{"/v1/events", "OPTIONS, GET"},
		{"/v1/templates", "OPTIONS, GET"},
	}

	for _, tt := range tests {
		suite.Run(tt.path, func() {
			recorder := suite.request(http.MethodOptions, tt.path, nil)
			test.AssertHTTPStatus(suite.T(), &recorder, http.StatusNoContent)
			assert.Equal(suite.T(), tt.expected, recorder.Header().Get("allow"))
		})
	}
}

func (suite *TestSuiteStandard) TestGetV1() {
	recorder := suite.request(http.MethodGet, "/v1", nil)
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.Response
	test.DecodeResponse(suite.T(), &recorder, &response)

	assert.Equal(suite.T(), v1.Links{
		Admin:         "http://example.com/v1/admin",
		Managers:      "http://example.com/v1/managers",
		Distributions: "http://example.com/v1/distributions",
		Current:       "http://example.com/v1/distributions/current",
		Events:        "http://example.com/v1/events",
		Templates:     "http://example.com/v1/templates",
	}, response.Links)
}

func (suite *TestSuiteStandard) TestGetAdmin() {
	recorder := suite.request(http.MethodGet, "/v1/admin", nil)
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.AdminResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	assert.Equal(suite.T(), admin.Hex(), response.Data.Principal)
}

func (suite *TestSuiteStandard) TestGetTemplates() {
	recorder := suite.request(http.MethodGet, "/v1/templates", nil)
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.TemplateResponse
	test.DecodeResponse(suite.T(), &recorder, &response)

	suite.Require().Len(response.Data.Distributions, 4)
	assert.Equal(suite.T(), "quarterly", response.Data.Distributions[0].Key)
	assert.Equal(suite.T(), 30, response.Data.Distributions[0].DurationDays)
	assert.True(suite.T(), response.Data.Distributions[0].Budget.Equal(decimal.NewFromInt(10)))

	suite.Require().Len(response.Data.Presets, 4)
	assert.Equal(suite.T(), "Senior Developer", response.Data.Presets[0].Title)
}
