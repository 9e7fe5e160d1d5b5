package test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Request is a helper method to simplify making a HTTP request for tests.
//
// The body can be a string, something that can be marshalled to JSON or
// nil for requests without body.
func Request(t *testing.T, h http.Handler, method, reqURL string, body any, headers ...map[string]string) httptest.ResponseRecorder {
	var reader io.Reader

	switch b := body.(type) {
	case nil:
		reader = http.NoBody
	case string:
		reader = bytes.NewBufferString(b)
	case *bytes.Buffer:
		reader = b
	default:
		byteStr, err := json.Marshal(body)
		if err != nil {
			assert.FailNow(t, "Request body could not be marshalled from struct input", err)
		}
		reader = bytes.NewBuffer(byteStr)
	}

	recorder := httptest.NewRecorder()
	req, err := http.NewRequest(method, reqURL, reader)
	require.Nil(t, err, "Request could not be created")

	for _, headerMap := range headers {
		for header, value := range headerMap {
			req.Header.Set(header, value)
		}
	}

	h.ServeHTTP(recorder, req)

	return *recorder
}

// DecodeResponse decodes an HTTP response into a target struct.
func DecodeResponse(t *testing.T, r *httptest.ResponseRecorder, target any) {
	err := json.Unmarshal(r.Body.Bytes(), &target)
	if err != nil {
		assert.FailNow(t, "Parsing error", "Unable to parse response from server %q into %v, '%v', Request ID: %s", r.Body, reflect.TypeOf(target), err, r.Result().Header.Get("x-request-id"))
	}
}

// AssertHTTPStatus verifies that the HTTP response status is correct
func AssertHTTPStatus(t *testing.T, r *httptest.ResponseRecorder, expectedStatus ...int) {
	require.Contains(t, expectedStatus, r.Code, "HTTP status is wrong. Request ID: '%s' Response body: %s", r.Result().Header.Get("x-request-id"), r.Body.String())
}
