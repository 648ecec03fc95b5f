package access

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/staysuite/guestgate/internal/domain"
	"github.com/staysuite/guestgate/internal/mailer"
	"github.com/staysuite/guestgate/internal/repo/postgres"
	"github.com/staysuite/guestgate/pkg/logger"
)

const (
	tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	tokenLength   = 20

	defaultDailyChatLimit = 50
)

// Issuer creates and revokes guest access tokens. Both operations are
// tenant-checked: the requesting owner must belong to the tenant that owns
// the property.
type Issuer struct {
	tokens     postgres.TokenRepo
	properties postgres.PropertyRepo
	mail       mailer.Service
	baseURL    string
}

func NewIssuer(tokens postgres.TokenRepo, properties postgres.PropertyRepo, mail mailer.Service, baseURL string) *Issuer {
	return &Issuer{tokens: tokens, properties: properties, mail: mail, baseURL: baseURL}
}

func (s *Issuer) Issue(ctx context.Context, owner *domain.Owner, req domain.IssueTokenRequest) (*domain.IssueTokenResponse, error) {
	prop, err := s.properties.GetByID(ctx, req.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("load property: %w", err)
	}
	if prop == nil {
		return nil, domain.ErrNotFound
	}
	if prop.TenantID != owner.TenantID {
		return nil, domain.ErrUnauthorized
	}
	if !req.CheckinDate.Before(req.CheckoutDate) {
		return nil, fmt.Errorf("checkout must be after checkin: %w", domain.ErrInvalidToken)
	}

	tok, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	validFrom, validUntil := domain.ValidityWindow(req.CheckinDate, req.CheckoutDate)

	created, err := s.tokens.Create(ctx, &domain.AccessToken{
		ID:             uuid.New(),
		PropertyID:     prop.ID,
		TenantID:       prop.TenantID,
		Token:          tok,
		GuestName:      req.GuestName,
		GuestEmail:     req.GuestEmail,
		BookingID:      req.BookingID,
		CheckinDate:    req.CheckinDate,
		CheckoutDate:   req.CheckoutDate,
		ValidFrom:      validFrom,
		ValidUntil:     validUntil,
		IsActive:       true,
		DailyChatLimit: defaultDailyChatLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("persist token: %w", err)
	}

	guideURL := GuideURL(s.baseURL, prop.Slug, created.Token)

	if created.GuestEmail != "" {
		if err := s.mail.SendGuideLink(created.GuestEmail, created.GuestName, prop.Name, guideURL); err != nil {
			logger.ErrorContext(ctx, "failed to send guide link email",
				"error", err, "property_id", prop.ID)
			// Token was created; the owner can still share the link manually.
		}
	}

	return &domain.IssueTokenResponse{Token: created.Token, GuideURL: guideURL}, nil
}

// Revoke deactivates a token. Takes effect on the next gateway evaluation;
// nothing in the request path caches token state.
func (s *Issuer) Revoke(ctx context.Context, owner *domain.Owner, tokenID uuid.UUID) error {
	tok, err := s.tokens.GetByID(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	if tok == nil {
		return domain.ErrNotFound
	}
	if tok.TenantID != owner.TenantID {
		return domain.ErrUnauthorized
	}

	if _, err := s.tokens.Deactivate(ctx, tokenID); err != nil {
		return fmt.Errorf("deactivate token: %w", err)
	}
	return nil
}

func GuideURL(baseURL, propertySlug, token string) string {
	return fmt.Sprintf("%s/%s?token=%s", baseURL, propertySlug, url.QueryEscape(token))
}

func generateToken() (string, error) {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf), nil
}
