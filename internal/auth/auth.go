// Package auth resolves the calling principal of HTTP requests.
package auth

import (
	"errors"
	"net/http"

	"github.com/bonus-distribution/backend/internal/ledger"
	"github.com/gin-gonic/gin"
)

const (
	ModeJWT    = "jwt"
	ModeHeader = "header"

	// HeaderPrincipal is the header trusted in header mode.
	HeaderPrincipal = "X-Principal"

	contextKeyPrincipal = "bonus-principal"
)

var (
	ErrMissingCredentials = errors.New("this endpoint requires authentication")
	ErrInvalidToken       = errors.New("the bearer token is invalid")
	ErrInvalidSubject     = errors.New("the token subject is not a valid address")
	ErrMissingSecret      = errors.New("a signing secret is required")
)

// Resolver resolves the principal of a request.
//
// ok is false when the request carries no credentials at all. An error is
// returned for credentials that are present but invalid.
type Resolver interface {
	Resolve(r *http.Request) (p ledger.Principal, ok bool, err error)
}

type httpError struct {
	Error string `json:"error"`
}

// Middleware stores the resolved principal in the context. Requests without
// credentials pass through, requests with invalid credentials are rejected.
func Middleware(resolver Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok, err := resolver.Resolve(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpError{Error: err.Error()})
			return
		}

		if ok {
			c.Set(contextKeyPrincipal, p)
		}

		c.Next()
	}
}

// Required rejects requests without a resolved principal.
func Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := Principal(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpError{Error: ErrMissingCredentials.Error()})
			return
		}

		c.Next()
	}
}

// Principal returns the principal resolved for the request.
func Principal(c *gin.Context) (ledger.Principal, bool) {
	v, ok := c.Get(contextKeyPrincipal)
	if !ok {
		return ledger.Principal{}, false
	}

	p, ok := v.(ledger.Principal)
	return p, ok
}

// Header trusts the principal sent in the X-Principal header. Only use it
// behind a proxy that sets the header.
type Header struct{}

func (Header) Resolve(r *http.Request) (ledger.Principal, bool, error) {
	value := r.Header.Get(HeaderPrincipal)
	if value == "" {
		return ledger.Principal{}, false, nil
	}

	p, err := ledger.ParsePrincipal(value)
	if err != nil {
		return ledger.Principal{}, false, err
	}

	return p, true, nil
}
