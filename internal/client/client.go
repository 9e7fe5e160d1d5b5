// Package client is a small client for the bonusd HTTP API.
//
// Administrative commands use it instead of opening the database, so every
// change is made by the ledger of the serving process.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bonus-distribution/backend/internal/auth"
	v1 "github.com/bonus-distribution/backend/internal/controllers/v1"
	"github.com/bonus-distribution/backend/internal/ledger"
)

var ErrAPI = errors.New("the API returned an error")

var errEmptyResponse = fmt.Errorf("%w: the response has no data", ErrAPI)

// Credentials adds the caller's identity to a request.
type Credentials func(r *http.Request)

// Bearer authenticates requests with a bearer token.
func Bearer(token string) Credentials {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

// Principal sends the principal in the header trusted in header mode.
func Principal(p ledger.Principal) Credentials {
	return func(r *http.Request) {
		r.Header.Set(auth.HeaderPrincipal, p.Hex())
	}
}

type Client struct {
	baseURL     string
	http        *http.Client
	credentials Credentials
}

// New creates a client for the API at baseURL. credentials may be nil for
// anonymous requests.
func New(baseURL string, credentials Credentials) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		http:        &http.Client{Timeout: 30 * time.Second},
		credentials: credentials,
	}
}

type errorResponse struct {
	Error *string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("could not encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.credentials != nil {
		c.credentials(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: could not read response: %w", method, path, err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != nil {
			return fmt.Errorf("%w: %s %s: %d %s", ErrAPI, method, path, resp.StatusCode, *e.Error)
		}
		return fmt.Errorf("%w: %s %s: %d", ErrAPI, method, path, resp.StatusCode)
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%s %s: could not decode response: %w", method, path, err)
	}

	return nil
}

// Admin returns the admin principal of the ledger.
func (c *Client) Admin(ctx context.Context) (ledger.Principal, error) {
	var response v1.AdminResponse
	if err := c.do(ctx, http.MethodGet, "/v1/admin", nil, &response); err != nil {
		return ledger.Principal{}, err
	}

	if response.Data == nil {
		return ledger.Principal{}, errEmptyResponse
	}

	return ledger.ParsePrincipal(response.Data.Principal)
}

// Managers returns the authorized managers.
func (c *Client) Managers(ctx context.Context) ([]ledger.Principal, error) {
	var response v1.ManagerListResponse
	if err := c.do(ctx, http.MethodGet, "/v1/managers", nil, &response); err != nil {
		return nil, err
	}

	managers := make([]ledger.Principal, 0, len(response.Data))
	for _, m := range response.Data {
		p, err := ledger.ParsePrincipal(m.Principal)
		if err != nil {
			return nil, err
		}
		managers = append(managers, p)
	}

	return managers, nil
}

// IsAuthorizedManager reports whether p is a manager.
func (c *Client) IsAuthorizedManager(ctx context.Context, p ledger.Principal) (bool, error) {
	var response v1.ManagerResponse
	if err := c.do(ctx, http.MethodGet, "/v1/managers/"+p.Hex(), nil, &response); err != nil {
		return false, err
	}

	if response.Data == nil {
		return false, errEmptyResponse
	}

	return response.Data.Authorized, nil
}

// SetManagerAuthorization grants or revokes manager status. The credentials
// must identify the admin.
func (c *Client) SetManagerAuthorization(ctx context.Context, p ledger.Principal, authorized bool) error {
	return c.do(ctx, http.MethodPatch, "/v1/managers/"+p.Hex(), v1.ManagerEditable{Authorized: &authorized}, nil)
}

// CurrentDistributionID returns the ID of the latest distribution.
func (c *Client) CurrentDistributionID(ctx context.Context) (int64, error) {
	var response v1.CurrentDistributionResponse
	if err := c.do(ctx, http.MethodGet, "/v1/distributions/current", nil, &response); err != nil {
		return 0, err
	}

	if response.Data == nil {
		return 0, errEmptyResponse
	}

	return response.Data.ID, nil
}
