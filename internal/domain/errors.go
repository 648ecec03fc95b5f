package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenDeactivated = errors.New("token deactivated")
)

// TooEarlyError means the stay window has not opened yet. ValidFrom is
// surfaced so the denial page can tell the guest when access begins.
type TooEarlyError struct {
	ValidFrom time.Time
}

func (e *TooEarlyError) Error() string {
	return fmt.Sprintf("access starts %s", e.ValidFrom.Format(time.RFC3339))
}

type ExpiredError struct {
	ValidUntil time.Time
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("access expired %s", e.ValidUntil.Format(time.RFC3339))
}

// DenyReason is the stable machine-readable code carried on denial
// redirects. Store errors are collapsed to ReasonInvalid so the guest never
// learns which case occurred.
type DenyReason string

const (
	ReasonInvalid       DenyReason = "invalid"
	ReasonExpired       DenyReason = "expired"
	ReasonInactive      DenyReason = "inactive"
	ReasonTooEarly      DenyReason = "too_early"
	ReasonTokenRequired DenyReason = "token_required"
)
