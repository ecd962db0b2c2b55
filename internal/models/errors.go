package models

import (
	"errors"
)

var (
	ErrNoRecord        = errors.New("models: no matching record found")
	ErrDuplicateEmail  = errors.New("models: duplicate email")
	ErrDuplicatePhone  = errors.New("models: duplicate phone number")
	ErrUserNotFound    = errors.New("models: user not found")
	ErrListingNotFound = errors.New("listing not found")
	ErrReviewNotFound  = errors.New("review not found")
	ErrAlreadyReviewed = errors.New("user already reviewed this listing")
	ErrForbidden       = errors.New("forbidden")
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrUnavailable     = errors.New("service unavailable")
)
