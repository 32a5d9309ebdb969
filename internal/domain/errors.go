package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation              = errors.New("invalid listing input")
	ErrAuthenticationRequired  = errors.New("authentication required")
	ErrSelfRentalForbidden     = errors.New("owner may not rent own room")
	ErrSoldOut                 = errors.New("room sold out")
	ErrInvalidDuration         = errors.New("rental duration must be at least one day")
	ErrPaymentFailed           = errors.New("payment failed")
	ErrSettlementIndeterminate = errors.New("settlement outcome unknown")
	ErrDuplicateSettlement     = errors.New("settlement already recorded")
	ErrIdempotencyMismatch     = errors.New("settlement reference reused with mismatched rental")
	ErrOversold                = errors.New("room oversold")
	ErrRoomNotFound            = errors.New("room not found")
	ErrInsufficientSupply      = errors.New("insufficient token supply")
	ErrNotConnected            = errors.New("settlement wallet not connected")
)

// ValidationError names the listing field that failed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
