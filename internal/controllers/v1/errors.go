package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/bonus-distribution/backend/internal/httputil"
	"github.com/bonus-distribution/backend/internal/ledger"
	"github.com/bonus-distribution/backend/internal/models"
	"github.com/bonus-distribution/backend/internal/verifier"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type httpError struct {
	Error string `json:"error" example:"the caller is not allowed to perform this action"`
}

var (
	errInvalidID          = errors.New("the distribution ID must be a positive integer")
	errTitleRequired      = errors.New("the title must not be empty")
	errAuthorizedRequired = errors.New("the authorized field must be set")
	errInvalidQuery       = errors.New("the query string contains invalid values")
)

// status returns the appropriate HTTP status for an error.
func status(err error) int {
	var jsonTypeError *json.UnmarshalTypeError

	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		return http.StatusForbidden

	case errors.Is(err, ledger.ErrInvalidDistributionID),
		errors.Is(err, ledger.ErrNoBonusAllocated),
		errors.Is(err, models.ErrResourceNotFound):
		return http.StatusNotFound

	case errors.Is(err, ledger.ErrDistributionInactive),
		errors.Is(err, ledger.ErrDuplicateAllocation),
		errors.Is(err, ledger.ErrAlreadyClaimed),
		errors.Is(err, ledger.ErrAlreadyFinalized),
		errors.Is(err, models.ErrAllocationNotUnique),
		errors.Is(err, models.ErrDistributionNotUnique):
		return http.StatusConflict

	case errors.Is(err, verifier.ErrRejected):
		return http.StatusUnprocessableEntity

	case errors.Is(err, ledger.ErrInvalidBudget),
		errors.Is(err, ledger.ErrInvalidDuration),
		errors.Is(err, ledger.ErrInvalidPrincipal),
		errors.Is(err, httputil.ErrInvalidBody),
		errors.Is(err, httputil.ErrRequestBodyEmpty),
		errors.Is(err, errInvalidID),
		errors.Is(err, errTitleRequired),
		errors.Is(err, errAuthorizedRequired),
		errors.Is(err, errInvalidQuery),
		errors.As(err, &jsonTypeError):
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

// errorMessage returns the message sent to the client for err. Server
// errors are logged and replaced with a message containing the request ID.
func errorMessage(c *gin.Context, err error) *string {
	msg := err.Error()

	if status(err) == http.StatusInternalServerError {
		log.Error().Str("request-id", requestid.Get(c)).Msgf("%T: %v", err, err.Error())
		msg = fmt.Sprintf("%s. The request id is '%s', send this to your server administrator to help them finding the problem", models.ErrGeneral, requestid.Get(c))
	}

	return &msg
}
