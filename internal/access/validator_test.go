package access_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/staysuite/guestgate/internal/access"
	"github.com/staysuite/guestgate/internal/domain"
)

func validToken(propertyID, tenantID uuid.UUID) *domain.AccessToken {
	now := time.Now().UTC()
	return &domain.AccessToken{
		ID:         uuid.New(),
		PropertyID: propertyID,
		TenantID:   tenantID,
		Token:      "tok-valid-0001",
		GuestName:  "Ava Guest",
		IsActive:   true,
		ValidFrom:  now.Add(-24 * time.Hour),
		ValidUntil: now.Add(24 * time.Hour),
	}
}

func TestValidateForPropertyTenantIsolation(t *testing.T) {
	propertyA := uuid.New()
	propertyB := uuid.New()
	tok := validToken(propertyA, uuid.New())

	tokens := newMockTokenRepo()
	tokens.tokens[tok.Token] = tok
	activities := &mockActivityRepo{}
	v := access.NewValidator(tokens, access.NewAuditor(activities, nil), 0)

	// The same token succeeds against its own property...
	got, err := v.ValidateForProperty(context.Background(), tok.Token, propertyA, "203.0.113.7")
	if err != nil {
		t.Fatalf("ValidateForProperty(own property) = %v", err)
	}
	if got.PropertyID != propertyA {
		t.Error("returned token bound to the wrong property")
	}

	// ...and is rejected against any other, regardless of its own validity.
	_, err = v.ValidateForProperty(context.Background(), tok.Token, propertyB, "203.0.113.7")
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("ValidateForProperty(foreign property) = %v, want ErrInvalidToken", err)
	}

	if !activities.waitFor(domain.ActivityTokenMismatch) {
		t.Error("cross-property attempt was not audited as token_mismatch")
	}
}

func TestValidateForPropertyDeactivated(t *testing.T) {
	propertyID := uuid.New()
	tok := validToken(propertyID, uuid.New())
	tok.IsActive = false

	tokens := newMockTokenRepo()
	tokens.tokens[tok.Token] = tok
	activities := &mockActivityRepo{}
	v := access.NewValidator(tokens, access.NewAuditor(activities, nil), 0)

	_, err := v.ValidateForProperty(context.Background(), tok.Token, propertyID, "203.0.113.7")
	if !errors.Is(err, domain.ErrTokenDeactivated) {
		t.Fatalf("ValidateForProperty = %v, want ErrTokenDeactivated", err)
	}
	if !activities.waitFor(domain.ActivityTokenDeactivated) {
		t.Error("deactivated-token attempt was not audited")
	}
}

func TestValidateForPropertyUnknownToken(t *testing.T) {
	activities := &mockActivityRepo{}
	v := access.NewValidator(newMockTokenRepo(), access.NewAuditor(activities, nil), 0)

	_, err := v.ValidateForProperty(context.Background(), "no-such-token", uuid.New(), "203.0.113.7")
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("ValidateForProperty = %v, want ErrInvalidToken", err)
	}
	if !activities.waitFor(domain.ActivityInvalidToken) {
		t.Error("unknown-token attempt was not audited")
	}
}

func TestValidateForPropertyStoreErrorCollapses(t *testing.T) {
	tokens := newMockTokenRepo()
	tokens.getErr = errors.New("connection reset by peer")
	activities := &mockActivityRepo{}
	v := access.NewValidator(tokens, access.NewAuditor(activities, nil), 0)

	// A backing-store failure must never surface its own text to the guest.
	_, err := v.ValidateForProperty(context.Background(), "tok-any", uuid.New(), "203.0.113.7")
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("ValidateForProperty = %v, want ErrInvalidToken", err)
	}
	if !activities.waitFor(domain.ActivityInvalidToken) {
		t.Error("store error was not audited")
	}
}

func TestValidateForPropertyEmptyToken(t *testing.T) {
	v := access.NewValidator(newMockTokenRepo(), access.NewAuditor(&mockActivityRepo{}, nil), 0)

	_, err := v.ValidateForProperty(context.Background(), "", uuid.New(), "203.0.113.7")
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("ValidateForProperty = %v, want ErrInvalidToken", err)
	}
}
