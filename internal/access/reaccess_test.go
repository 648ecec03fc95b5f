package access_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/staysuite/guestgate/internal/access"
	"github.com/staysuite/guestgate/internal/domain"
	"github.com/staysuite/guestgate/pkg/kv"
)

func TestReaccessRoundTrip(t *testing.T) {
	tenantID := uuid.New()
	prop := testProperty(tenantID)
	tok := validToken(prop.ID, tenantID)
	tok.GuestEmail = "ava@example.com"

	tokens := newMockTokenRepo()
	tokens.tokens[tok.Token] = tok
	mail := &mockMailer{}
	svc := access.NewReaccess(tokens, newMockPropertyRepo(prop), kv.NewMemoryStore(), mail, baseURL)
	ctx := context.Background()

	if err := svc.Request(ctx, "ava@example.com", prop.Slug); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if mail.reaccessSent != 1 {
		t.Fatalf("re-access email not sent")
	}
	if len(mail.lastCode) != 6 {
		t.Errorf("code = %q, want 6 digits", mail.lastCode)
	}

	// Wrong code is rejected and does not burn the stored one.
	if _, err := svc.Verify(ctx, "ava@example.com", prop.Slug, "000000"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("Verify(wrong code) = %v, want ErrInvalidToken", err)
	}

	url, err := svc.Verify(ctx, "ava@example.com", prop.Slug, mail.lastCode)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	want := access.GuideURL(baseURL, prop.Slug, tok.Token)
	if url != want {
		t.Errorf("url = %q, want %q", url, want)
	}

	// Codes are single-use.
	if _, err := svc.Verify(ctx, "ava@example.com", prop.Slug, mail.lastCode); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("second Verify = %v, want ErrInvalidToken", err)
	}
}

func TestReaccessSilentOnUnknownEmail(t *testing.T) {
	tenantID := uuid.New()
	prop := testProperty(tenantID)
	mail := &mockMailer{}
	svc := access.NewReaccess(newMockTokenRepo(), newMockPropertyRepo(prop), kv.NewMemoryStore(), mail, baseURL)

	// No matching booking: succeed quietly, send nothing.
	if err := svc.Request(context.Background(), "nobody@example.com", prop.Slug); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if mail.reaccessSent != 0 {
		t.Error("no email should be sent for an unknown guest")
	}
}

func TestReaccessIgnoresExpiredTokens(t *testing.T) {
	tenantID := uuid.New()
	prop := testProperty(tenantID)
	tok := validToken(prop.ID, tenantID)
	tok.GuestEmail = "ava@example.com"
	tok.ValidUntil = time.Now().Add(-time.Hour)

	tokens := newMockTokenRepo()
	tokens.tokens[tok.Token] = tok
	mail := &mockMailer{}
	svc := access.NewReaccess(tokens, newMockPropertyRepo(prop), kv.NewMemoryStore(), mail, baseURL)

	if err := svc.Request(context.Background(), "ava@example.com", prop.Slug); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if mail.reaccessSent != 0 {
		t.Error("expired stays must not receive re-access codes")
	}
}
