package v1_test

import (
	"net/http"

	"github.com/bonus-distribution/backend/internal/auth"
	v1 "github.com/bonus-distribution/backend/internal/controllers/v1"
	"github.com/bonus-distribution/backend/internal/ledger"
	"github.com/bonus-distribution/backend/internal/verifier"
	"github.com/bonus-distribution/backend/test"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestCreateAllocation() {
	id := suite.createDistribution("Q4")

	recorder := suite.request(http.MethodPost, "/v1/distributions/1/allocations", v1.AllocationEditable{
		Recipient:       employee1.Hex(),
		EncryptedAmount: []byte{0x8f, 0x2a},
		Proof:           []byte{0x01},
	}, manager)
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusCreated)

	var response v1.BonusStatusResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	assert.Equal(suite.T(), v1.BonusStatus{
		DistributionID: id,
		Recipient:      employee1.Hex(),
		HasBonus:       true,
	}, *response.Data)

	// The amount is stored exactly as sent
	bonus, err := suite.ledger.EncryptedBonus(employee1, id)
	suite.Require().Nil(err)
	assert.Equal(suite.T(), []byte{0x8f, 0x2a}, bonus.EncryptedAmount)
	assert.Equal(suite.T(), []byte{0x01}, bonus.Proof)
}

func (suite *TestSuiteStandard) TestCreateAllocationFails() {
	id := suite.createDistribution("Q4")
	suite.allocate(id, employee2, []byte{0x02})

	finalized := suite.createDistribution("Finalized")
	suite.Require().Nil(suite.ledger.FinalizeDistribution(suite.ctx, admin, finalized))

	body := func(recipient string) string {
		return `{ "recipient": "` + recipient + `", "encryptedAmount": "0x8f2a", "proof": "0x01" }`
	}
	empty := func(recipient string) string {
		return `{ "recipient": "` + recipient + `", "encryptedAmount": "0x" }`
	}

	tests := []struct {
		name   string
		path   string
		body   any
		caller []ledger.Principal
		status int
		err    string
	}{
		{"No identity", "/v1/distributions/1/allocations", body(employee1.Hex()), nil, http.StatusUnauthorized, "requires authentication"},
		{"Not a manager", "/v1/distributions/1/allocations", body(employee1.Hex()), []ledger.Principal{employee1}, http.StatusForbidden, ledger.ErrUnauthorized.Error()},
		{"Admin is not a manager", "/v1/distributions/1/allocations", body(employee1.Hex()), []ledger.Principal{admin}, http.StatusForbidden, ledger.ErrUnauthorized.Error()},
		{"Unknown distribution", "/v1/distributions/5/allocations", body(employee1.Hex()), []ledger.Principal{manager}, http.StatusNotFound, ledger.ErrInvalidDistributionID.Error()},
		{"Invalid ID", "/v1/distributions/first/allocations", body(employee1.Hex()), []ledger.Principal{manager}, http.StatusBadRequest, "positive integer"},
		{"Finalized", "/v1/distributions/2/allocations", body(employee1.Hex()), []ledger.Principal{manager}, http.StatusConflict, ledger.ErrDistributionInactive.Error()},
		{"Duplicate", "/v1/distributions/1/allocations", body(employee2.Hex()), []ledger.Principal{manager}, http.StatusConflict, ledger.ErrDuplicateAllocation.Error()},
		{"Invalid recipient", "/v1/distributions/1/allocations", body("bob"), []ledger.Principal{manager}, http.StatusBadRequest, ledger.ErrInvalidPrincipal.Error()},
		{"Missing recipient", "/v1/distributions/1/allocations", `{ "encryptedAmount": "0x8f2a" }`, []ledger.Principal{manager}, http.StatusBadRequest, ledger.ErrInvalidPrincipal.Error()},
		{"Not hex", "/v1/distributions/1/allocations", `{ "recipient": "` + employee1.Hex() + `", "encryptedAmount": "8f2a" }`, []ledger.Principal{manager}, http.StatusBadRequest, ""},
		{"Empty ciphertext", "/v1/distributions/1/allocations", `{ "recipient": "` + employee1.Hex() + `", "encryptedAmount": "0x" }`, []ledger.Principal{manager}, http.StatusUnprocessableEntity, verifier.ErrEmptyCiphertext.Error()},
		{"Not a manager before verification", "/v1/distributions/1/allocations", empty(employee1.Hex()), []ledger.Principal{employee1}, http.StatusForbidden, ledger.ErrUnauthorized.Error()},
		{"Unknown distribution before verification", "/v1/distributions/5/allocations", empty(employee1.Hex()), []ledger.Principal{manager}, http.StatusNotFound, ledger.ErrInvalidDistributionID.Error()},
		{"Finalized before verification", "/v1/distributions/2/allocations", empty(employee1.Hex()), []ledger.Principal{manager}, http.StatusConflict, ledger.ErrDistributionInactive.Error()},
		{"Duplicate before verification", "/v1/distributions/1/allocations", empty(employee2.Hex()), []ledger.Principal{manager}, http.StatusConflict, ledger.ErrDuplicateAllocation.Error()},
		{"Empty body", "/v1/distributions/1/allocations", "", []ledger.Principal{manager}, http.StatusBadRequest, "must not be empty"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			recorder := suite.request(http.MethodPost, tt.path, tt.body, tt.caller...)
			test.AssertHTTPStatus(suite.T(), &recorder, tt.status)

			var response errorResponse
			test.DecodeResponse(suite.T(), &recorder, &response)
			assert.Contains(suite.T(), response.Error, tt.err)
		})
	}

	recipients, err := suite.ledger.DistributionRecipients(id)
	suite.Require().Nil(err)
	assert.Equal(suite.T(), []ledger.Principal{employee2}, recipients, "Only the initial allocation must exist")
}

func (suite *TestSuiteStandard) TestCreateAllocationAttestation() {
	key, err := ethcrypto.GenerateKey()
	suite.Require().Nil(err)

	suite.serve(verifier.Attestation{Attester: ethcrypto.PubkeyToAddress(key.PublicKey)}, auth.Header{})
	suite.createDistribution("Q4")

	ciphertext := []byte("encrypted 0.5")
	signature, err := ethcrypto.Sign(ethcrypto.Keccak256(ciphertext), key)
	suite.Require().Nil(err)

	// Signature over a different ciphertext
	otherSignature, err := ethcrypto.Sign(ethcrypto.Keccak256([]byte("encrypted 0.8")), key)
	suite.Require().Nil(err)

	recorder := suite.request(http.MethodPost, "/v1/distributions/1/allocations", map[string]any{
		"recipient":       employee1.Hex(),
		"encryptedAmount": hexutil.Encode(ciphertext),
		"proof":           hexutil.Encode(otherSignature),
	}, manager)
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusUnprocessableEntity)

	recorder = suite.request(http.MethodPost, "/v1/distributions/1/allocations", map[string]any{
		"recipient":       employee1.Hex(),
		"encryptedAmount": hexutil.Encode(ciphertext),
		"proof":           hexutil.Encode(signature),
	}, manager)
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusCreated)
}

func (suite *TestSuiteStandard) TestGetAllocation() {
	id := suite.createDistribution("Q4")
	suite.allocate(id, employee1, []byte{0x01})

	tests := []struct {
		name     string
		path     string
		status   int
		hasBonus bool
	}{
		{"Allocated", "/v1/distributions/1/allocations/" + employee1.Hex(), http.StatusOK, true},
		{"Not allocated", "/v1/distributions/1/allocations/" + employee2.Hex(), http.StatusOK, false},
		{"Unknown distribution", "/v1/distributions/3/allocations/" + employee1.Hex(), http.StatusNotFound, false},
		{"Invalid recipient", "/v1/distributions/1/allocations/employee", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			recorder := suite.request(http.MethodGet, tt.path, nil)
			test.AssertHTTPStatus(suite.T(), &recorder, tt.status)

			var response v1.BonusStatusResponse
			test.DecodeResponse(suite.T(), &recorder, &response)

			if tt.status == http.StatusOK {
				assert.Equal(suite.T(), tt.hasBonus, response.Data.HasBonus)
				assert.False(suite.T(), response.Data.HasClaimed)
				assert.Nil(suite.T(), response.Data.ClaimedAt)
			}
		})
	}
}

func (suite *TestSuiteStandard) TestClaim() {
	id := suite.createDistribution("Q4")
	suite.allocate(id, employee1, []byte{0x01})

	tests := []struct {
		name   string
		path   string
		caller []ledger.Principal
		status int
	}{
		{"No identity", "/v1/distributions/1/claim", nil, http.StatusUnauthorized},
		{"No bonus", "/v1/distributions/1/claim", []ledger.Principal{employee2}, http.StatusNotFound},
		{"Manager has no bonus", "/v1/distributions/1/claim", []ledger.Principal{manager}, http.StatusNotFound},
		{"Unknown distribution", "/v1/distributions/9/claim", []ledger.Principal{employee1}, http.StatusNotFound},
		{"Recipient", "/v1/distributions/1/claim", []ledger.Principal{employee1}, http.StatusOK},
		{"Twice", "/v1/distributions/1/claim", []ledger.Principal{employee1}, http.StatusConflict},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			recorder := suite.request(http.MethodPost, tt.path, nil, tt.caller...)
			test.AssertHTTPStatus(suite.T(), &recorder, tt.status)

			if tt.status == http.StatusOK {
				var response v1.BonusStatusResponse
				test.DecodeResponse(suite.T(), &recorder, &response)
				assert.True(suite.T(), response.Data.HasClaimed)
				suite.Require().NotNil(response.Data.ClaimedAt)
				assert.True(suite.T(), start.Equal(*response.Data.ClaimedAt), "ClaimedAt is %s", response.Data.ClaimedAt)
			}
		})
	}
}

func (suite *TestSuiteStandard) TestClaimAfterFinalize() {
	id := suite.createDistribution("Q4")
	suite.allocate(id, employee1, []byte{0x01})
	suite.Require().Nil(suite.ledger.FinalizeDistribution(suite.ctx, admin, id))

	recorder := suite.request(http.MethodPost, "/v1/distributions/1/claim", nil, employee1)
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)
}

func (suite *TestSuiteStandard) TestGetMyBonus() {
	id := suite.createDistribution("Q4")
	suite.allocate(id, employee1, []byte{0x8f, 0x2a})

	recorder := suite.request(http.MethodGet, "/v1/distributions/1/my-bonus", nil, employee1)
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.EncryptedBonusResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	assert.Equal(suite.T(), hexutil.Bytes{0x8f, 0x2a}, response.Data.EncryptedAmount)
	assert.Equal(suite.T(), hexutil.Bytes{0x01}, response.Data.Proof)
	assert.Contains(suite.T(), recorder.Body.String(), `"encryptedAmount":"0x8f2a"`)

	// Nobody else can read the ciphertext
	for _, caller := range []ledger.Principal{employee2, manager, admin} {
		recorder = suite.request(http.MethodGet, "/v1/distributions/1/my-bonus", nil, caller)
		test.AssertHTTPStatus(suite.T(), &recorder, http.StatusNotFound)
	}

	recorder = suite.request(http.MethodGet, "/v1/distributions/1/my-bonus", nil)
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusUnauthorized)

	recorder = suite.request(http.MethodGet, "/v1/distributions/4/my-bonus", nil, employee1)
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusNotFound)
}
