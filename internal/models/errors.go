package models

import (
	"errors"
)

var (
	ErrGeneral               = errors.New("an error occurred on the server during your request")
	ErrResourceNotFound      = errors.New("there is no")
	ErrAllocationNotUnique   = errors.New("the recipient already has a stored allocation for this distribution")
	ErrDistributionNotUnique = errors.New("a distribution with this ID is already stored")
	ErrUnsupportedDriver     = errors.New("unsupported database driver")
)
