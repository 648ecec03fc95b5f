package access

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/staysuite/guestgate/internal/domain"
	"github.com/staysuite/guestgate/internal/mailer"
	"github.com/staysuite/guestgate/internal/repo/postgres"
	"github.com/staysuite/guestgate/pkg/kv"
	"github.com/staysuite/guestgate/pkg/logger"
)

const reaccessCodeTTL = 15 * time.Minute

// Reaccess lets a guest who lost their link recover it by email. Codes live
// in the shared TTL store, never in process memory, so any instance can
// complete a flow another instance started.
type Reaccess struct {
	tokens     postgres.TokenRepo
	properties postgres.PropertyRepo
	store      kv.Store
	mail       mailer.Service
	baseURL    string
}

func NewReaccess(tokens postgres.TokenRepo, properties postgres.PropertyRepo, store kv.Store, mail mailer.Service, baseURL string) *Reaccess {
	return &Reaccess{tokens: tokens, properties: properties, store: store, mail: mail, baseURL: baseURL}
}

// Request emails a recovery code when an active token exists for the
// email + property pair. It intentionally reports success either way so the
// endpoint cannot be used to probe which emails have bookings.
func (s *Reaccess) Request(ctx context.Context, email, propertySlug string) error {
	prop, err := s.properties.GetBySlug(ctx, propertySlug)
	if err != nil {
		return fmt.Errorf("load property: %w", err)
	}
	if prop == nil {
		return nil
	}

	tok, err := s.tokens.FindActiveByGuestEmail(ctx, email, prop.ID, time.Now())
	if err != nil {
		return fmt.Errorf("find token: %w", err)
	}
	if tok == nil {
		return nil
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}
	if err := s.store.Set(ctx, codeKey(email, propertySlug), string(hash), reaccessCodeTTL); err != nil {
		return fmt.Errorf("store code: %w", err)
	}

	link := GuideURL(s.baseURL, prop.Slug, tok.Token)
	if err := s.mail.SendReaccessCode(email, code, link); err != nil {
		logger.ErrorContext(ctx, "failed to send re-access email", "error", err)
		// Code is stored; the guest can retry the email or type the code.
	}
	return nil
}

// Verify checks the code and returns the guide URL. Codes are single-use.
func (s *Reaccess) Verify(ctx context.Context, email, propertySlug, code string) (string, error) {
	hash, err := s.store.Get(ctx, codeKey(email, propertySlug))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return "", domain.ErrInvalidToken
		}
		return "", fmt.Errorf("load code: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
		return "", domain.ErrInvalidToken
	}
	_ = s.store.Delete(ctx, codeKey(email, propertySlug))

	prop, err := s.properties.GetBySlug(ctx, propertySlug)
	if err != nil || prop == nil {
		return "", domain.ErrInvalidToken
	}
	tok, err := s.tokens.FindActiveByGuestEmail(ctx, email, prop.ID, time.Now())
	if err != nil || tok == nil {
		return "", domain.ErrInvalidToken
	}
	return GuideURL(s.baseURL, prop.Slug, tok.Token), nil
}

func codeKey(email, propertySlug string) string {
	return "reaccess:" + propertySlug + ":" + email
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
