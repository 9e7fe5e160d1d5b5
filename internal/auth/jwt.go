package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bonus-distribution/backend/internal/ledger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

// Leeway is the clock skew tolerated when validating tokens.
const Leeway = 60 * time.Second

// JWT resolves principals from HS256 signed bearer tokens. The subject
// claim holds the principal address.
type JWT struct {
	secret []byte
	issuer string
	clock  clockwork.Clock
}

// NewJWT creates a JWT resolver. If issuer is not empty, tokens must
// carry it. clock may be nil.
func NewJWT(secret []byte, issuer string, clock clockwork.Clock) (*JWT, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}

	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &JWT{
		secret: secret,
		issuer: strings.TrimSpace(issuer),
		clock:  clock,
	}, nil
}

func (j *JWT) Resolve(r *http.Request) (ledger.Principal, bool, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ledger.Principal{}, false, nil
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return ledger.Principal{}, false, ErrInvalidToken
	}

	p, err := j.Verify(strings.TrimSpace(token))
	if err != nil {
		return ledger.Principal{}, false, err
	}

	return p, true, nil
}

// Verify validates the token and returns its principal.
func (j *JWT) Verify(token string) (ledger.Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(Leeway),
		jwt.WithTimeFunc(j.clock.Now),
		jwt.WithExpirationRequired(),
	}

	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		return ledger.Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	p, err := ledger.ParsePrincipal(claims.Subject)
	if err != nil {
		return ledger.Principal{}, ErrInvalidSubject
	}

	return p, nil
}

// IssueToken mints a token for the principal that is valid for ttl.
func (j *JWT) IssueToken(p ledger.Principal, ttl time.Duration) (string, error) {
	now := j.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   p.Hex(),
		Issuer:    j.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("could not sign token: %w", err)
	}

	return signed, nil
}
