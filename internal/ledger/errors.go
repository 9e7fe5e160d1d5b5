package ledger

import "errors"

var (
	ErrUnauthorized          = errors.New("the caller is not allowed to perform this action")
	ErrInvalidDistributionID = errors.New("there is no distribution with this ID")
	ErrInvalidBudget         = errors.New("the total budget must be greater than 0, less than 10^12 and have at most 8 decimal places")
	ErrInvalidDuration       = errors.New("the duration must be greater than 0 days and at most 36500 days")
	ErrDistributionInactive  = errors.New("the distribution is not active")
	ErrDuplicateAllocation   = errors.New("the recipient already has an allocation in this distribution")
	ErrNoBonusAllocated      = errors.New("no bonus is allocated to this recipient")
	ErrAlreadyClaimed        = errors.New("the bonus has already been claimed")
	ErrAlreadyFinalized      = errors.New("the distribution is already finalized")
)

var (
	ErrInvalidPrincipal = errors.New("the principal is not a valid address")
	ErrMissingAdmin     = errors.New("an admin principal is required")
	ErrCorruptState     = errors.New("the stored ledger state is inconsistent")
)
