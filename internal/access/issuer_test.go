package access_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/staysuite/guestgate/internal/access"
	"github.com/staysuite/guestgate/internal/domain"
)

const baseURL = "https://guides.example.com"

func testProperty(tenantID uuid.UUID) *domain.Property {
	return &domain.Property{
		ID:       uuid.New(),
		TenantID: tenantID,
		Slug:     "seaside-villa",
		Name:     "Seaside Villa",
	}
}

func issueReq(propertyID uuid.UUID) domain.IssueTokenRequest {
	return domain.IssueTokenRequest{
		PropertyID:   propertyID,
		GuestName:    "Ava Guest",
		GuestEmail:   "ava@example.com",
		CheckinDate:  time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		CheckoutDate: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestIssueCreatesScopedToken(t *testing.T) {
	tenantID := uuid.New()
	prop := testProperty(tenantID)
	tokens := newMockTokenRepo()
	mail := &mockMailer{}
	issuer := access.NewIssuer(tokens, newMockPropertyRepo(prop), mail, baseURL)
	owner := &domain.Owner{ID: uuid.New(), TenantID: tenantID}

	out, err := issuer.Issue(context.Background(), owner, issueReq(prop.ID))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if len(out.Token) != 20 {
		t.Errorf("token length = %d, want 20", len(out.Token))
	}
	for _, r := range out.Token {
		if !strings.ContainsRune("abcdefghijklmnopqrstuvwxyz0123456789", r) {
			t.Errorf("token contains %q outside the alphabet", r)
		}
	}
	wantURL := baseURL + "/seaside-villa?token=" + out.Token
	if out.GuideURL != wantURL {
		t.Errorf("guide URL = %q, want %q", out.GuideURL, wantURL)
	}

	stored, _ := tokens.GetByToken(context.Background(), out.Token)
	if stored == nil {
		t.Fatal("token was not persisted")
	}
	if stored.PropertyID != prop.ID || stored.TenantID != tenantID {
		t.Error("token not bound to the issuing property and tenant")
	}
	if !stored.IsActive {
		t.Error("new token should be active")
	}

	wantFrom, wantUntil := domain.ValidityWindow(
		time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))
	if !stored.ValidFrom.Equal(wantFrom) || !stored.ValidUntil.Equal(wantUntil) {
		t.Errorf("window = [%v, %v], want [%v, %v]",
			stored.ValidFrom, stored.ValidUntil, wantFrom, wantUntil)
	}

	if mail.guideLinks != 1 || mail.lastTo != "ava@example.com" {
		t.Errorf("guide link email not sent: sent=%d to=%q", mail.guideLinks, mail.lastTo)
	}
}

func TestIssueUniqueTokensPerCall(t *testing.T) {
	tenantID := uuid.New()
	prop := testProperty(tenantID)
	issuer := access.NewIssuer(newMockTokenRepo(), newMockPropertyRepo(prop), &mockMailer{}, baseURL)
	owner := &domain.Owner{ID: uuid.New(), TenantID: tenantID}

	a, err := issuer.Issue(context.Background(), owner, issueReq(prop.ID))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	b, err := issuer.Issue(context.Background(), owner, issueReq(prop.ID))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if a.Token == b.Token {
		t.Error("issuance is not idempotent; each call must mint a fresh token")
	}
}

func TestIssueRejectsForeignTenant(t *testing.T) {
	prop := testProperty(uuid.New())
	tokens := newMockTokenRepo()
	issuer := access.NewIssuer(tokens, newMockPropertyRepo(prop), &mockMailer{}, baseURL)
	stranger := &domain.Owner{ID: uuid.New(), TenantID: uuid.New()}

	_, err := issuer.Issue(context.Background(), stranger, issueReq(prop.ID))
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("Issue = %v, want ErrUnauthorized", err)
	}
	if len(tokens.tokens) != 0 {
		t.Error("no token should be persisted on an unauthorized issuance")
	}
}

func TestIssueUnknownProperty(t *testing.T) {
	issuer := access.NewIssuer(newMockTokenRepo(), newMockPropertyRepo(), &mockMailer{}, baseURL)
	owner := &domain.Owner{ID: uuid.New(), TenantID: uuid.New()}

	_, err := issuer.Issue(context.Background(), owner, issueReq(uuid.New()))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Issue = %v, want ErrNotFound", err)
	}
}

func TestRevoke(t *testing.T) {
	tenantID := uuid.New()
	prop := testProperty(tenantID)
	tokens := newMockTokenRepo()
	issuer := access.NewIssuer(tokens, newMockPropertyRepo(prop), &mockMailer{}, baseURL)
	owner := &domain.Owner{ID: uuid.New(), TenantID: tenantID}

	out, err := issuer.Issue(context.Background(), owner, issueReq(prop.ID))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	stored, _ := tokens.GetByToken(context.Background(), out.Token)

	if err := issuer.Revoke(context.Background(), owner, stored.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	after, _ := tokens.GetByToken(context.Background(), out.Token)
	if after.IsActive {
		t.Error("token still active after revoke")
	}
}

func TestRevokeRejectsForeignTenant(t *testing.T) {
	tenantID := uuid.New()
	prop := testProperty(tenantID)
	tokens := newMockTokenRepo()
	issuer := access.NewIssuer(tokens, newMockPropertyRepo(prop), &mockMailer{}, baseURL)
	owner := &domain.Owner{ID: uuid.New(), TenantID: tenantID}

	out, _ := issuer.Issue(context.Background(), owner, issueReq(prop.ID))
	stored, _ := tokens.GetByToken(context.Background(), out.Token)

	stranger := &domain.Owner{ID: uuid.New(), TenantID: uuid.New()}
	if err := issuer.Revoke(context.Background(), stranger, stored.ID); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("Revoke = %v, want ErrUnauthorized", err)
	}

	after, _ := tokens.GetByToken(context.Background(), out.Token)
	if !after.IsActive {
		t.Error("foreign revoke must not deactivate the token")
	}
}

func TestRevokeUnknownToken(t *testing.T) {
	issuer := access.NewIssuer(newMockTokenRepo(), newMockPropertyRepo(), &mockMailer{}, baseURL)
	owner := &domain.Owner{ID: uuid.New(), TenantID: uuid.New()}

	if err := issuer.Revoke(context.Background(), owner, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Revoke = %v, want ErrNotFound", err)
	}
}
