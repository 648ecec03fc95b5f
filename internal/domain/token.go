package domain

import (
	"time"

	"github.com/google/uuid"
)

// PreCheckinGrace is how far before the check-in day a token starts working.
// There is no post-checkout grace: the window ends with the checkout day.
const PreCheckinGrace = 48 * time.Hour

// AccessToken grants time-bounded, property-scoped guide access to a guest.
// PropertyID and TenantID are fixed at issuance and never rebound.
type AccessToken struct {
	ID             uuid.UUID  `json:"id"`
	PropertyID     uuid.UUID  `json:"property_id"`
	TenantID       uuid.UUID  `json:"tenant_id"`
	Token          string     `json:"token"`
	GuestName      string     `json:"guest_name"`
	GuestEmail     string     `json:"guest_email,omitempty"`
	BookingID      string     `json:"booking_id,omitempty"`
	CheckinDate    time.Time  `json:"checkin_date"`
	CheckoutDate   time.Time  `json:"checkout_date"`
	ValidFrom      time.Time  `json:"valid_from"`
	ValidUntil     time.Time  `json:"valid_until"`
	IsActive       bool       `json:"is_active"`
	DailyChatLimit int        `json:"daily_chat_limit"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ValidityWindow computes the admission window for a stay. The window opens
// at the start of the UTC day two days before check-in and closes at
// 23:59:59.999 UTC on the checkout day.
func ValidityWindow(checkin, checkout time.Time) (validFrom, validUntil time.Time) {
	ci := checkin.UTC()
	co := checkout.UTC()
	validFrom = time.Date(ci.Year(), ci.Month(), ci.Day(), 0, 0, 0, 0, time.UTC).Add(-PreCheckinGrace)
	validUntil = time.Date(co.Year(), co.Month(), co.Day(), 23, 59, 59, 999000000, time.UTC)
	return validFrom, validUntil
}

// CheckAt evaluates the token's own state against now. It does not check
// property binding; that is the caller's concern.
func (t *AccessToken) CheckAt(now time.Time) error {
	if !t.IsActive {
		return ErrTokenDeactivated
	}
	if t.ValidFrom.IsZero() || t.ValidUntil.IsZero() || !t.ValidFrom.Before(t.ValidUntil) {
		return ErrInvalidToken
	}
	now = now.UTC()
	if now.Before(t.ValidFrom) {
		return &TooEarlyError{ValidFrom: t.ValidFrom}
	}
	if now.After(t.ValidUntil) {
		return &ExpiredError{ValidUntil: t.ValidUntil}
	}
	return nil
}

type IssueTokenRequest struct {
	PropertyID   uuid.UUID `json:"property_id"`
	GuestName    string    `json:"guest_name"`
	GuestEmail   string    `json:"guest_email,omitempty"`
	BookingID    string    `json:"booking_id,omitempty"`
	CheckinDate  time.Time `json:"checkin_date"`
	CheckoutDate time.Time `json:"checkout_date"`
}

type IssueTokenResponse struct {
	Token    string `json:"token"`
	GuideURL string `json:"url"`
}
