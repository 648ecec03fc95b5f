package access

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/staysuite/guestgate/internal/domain"
	"github.com/staysuite/guestgate/internal/repo/postgres"
	"github.com/staysuite/guestgate/pkg/logger"
)

// Validator resolves and checks guest access tokens. Every call re-reads
// current store state; revocation is visible on the very next evaluation.
type Validator struct {
	tokens  postgres.TokenRepo
	auditor *Auditor
	timeout time.Duration
}

func NewValidator(tokens postgres.TokenRepo, auditor *Auditor, timeout time.Duration) *Validator {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Validator{tokens: tokens, auditor: auditor, timeout: timeout}
}

// Resolve fetches the token record by exact string match. Returns
// (nil, nil) when no such token exists; a non-nil error means the store
// itself failed and the caller must apply its failure policy.
func (v *Validator) Resolve(ctx context.Context, token string) (*domain.AccessToken, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	return v.tokens.GetByToken(ctx, token)
}

// ValidateForProperty is the binding-checked validation used by endpoints
// that accept both a token and an explicit property id (chat, translation).
// A token issued for property A must be unusable against property B even
// while otherwise valid, so the stored binding is compared before anything
// is served. All failures collapse to ErrInvalidToken externally except the
// temporal and active states, which carry their own reasons.
func (v *Validator) ValidateForProperty(ctx context.Context, token string, propertyID uuid.UUID, ip string) (*domain.AccessToken, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	tok, err := v.Resolve(ctx, token)
	if err != nil {
		logger.ErrorContext(ctx, "token lookup failed", "error", err)
		v.auditor.Record(&propertyID, token, domain.ActivityInvalidToken,
			map[string]string{"store_error": err.Error()}, domain.SeverityHigh, ip)
		return nil, domain.ErrInvalidToken
	}
	if tok == nil {
		v.auditor.Record(&propertyID, token, domain.ActivityInvalidToken,
			map[string]string{"cause": "not_found"}, domain.SeverityMedium, ip)
		return nil, domain.ErrInvalidToken
	}

	if tok.PropertyID != propertyID {
		v.auditor.Record(&propertyID, token, domain.ActivityTokenMismatch,
			map[string]string{
				"bound_property":     tok.PropertyID.String(),
				"requested_property": propertyID.String(),
			}, domain.SeverityHigh, ip)
		return nil, domain.ErrInvalidToken
	}

	if err := tok.CheckAt(time.Now()); err != nil {
		if errors.Is(err, domain.ErrTokenDeactivated) {
			v.auditor.Record(&tok.PropertyID, token, domain.ActivityTokenDeactivated,
				nil, domain.SeverityMedium, ip)
		}
		return nil, err
	}

	return tok, nil
}
