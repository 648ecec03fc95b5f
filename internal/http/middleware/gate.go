package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/staysuite/guestgate/internal/access"
	"github.com/staysuite/guestgate/internal/domain"
	"github.com/staysuite/guestgate/internal/platform/auth"
	"github.com/staysuite/guestgate/pkg/logger"
)

// DeniedPath is where gate denials land, carrying a machine-readable reason.
const DeniedPath = "/access-denied"

// Paths the gate never evaluates: internal surfaces, static assets, the API
// (which does its own token + binding validation) and the denial page.
var reservedPrefixes = []string{
	"/healthz",
	"/metrics",
	"/static/",
	"/assets/",
	"/favicon.ico",
	"/auth/",
	"/api/",
	"/dashboard",
	DeniedPath,
}

// Gate guards every guest-facing guide path. Evaluation is request-local and
// stateless; token state is re-read from the store on every request so a
// revocation is honored on the very next hit.
type Gate struct {
	validator *access.Validator
	auditor   *access.Auditor
	jwtSecret string
	failOpen  bool
}

func NewGate(validator *access.Validator, auditor *access.Auditor, jwtSecret string, failOpen bool) *Gate {
	return &Gate{validator: validator, auditor: auditor, jwtSecret: jwtSecret, failOpen: failOpen}
}

func (g *Gate) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isReservedPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			// Owners always see their own guides without a guest token.
			if g.isOwnerSession(r) {
				next.ServeHTTP(w, r)
				return
			}

			ip := ClientIP(r)

			token := r.URL.Query().Get("token")
			if token == "" {
				deny(w, r, domain.ReasonTokenRequired, nil)
				return
			}

			tok, err := g.validator.Resolve(r.Context(), token)
			if err != nil {
				// Store failure. Fail closed unless configured otherwise;
				// the real error goes to the audit log, never to the guest.
				logger.ErrorContext(r.Context(), "gate: token lookup failed", "error", err)
				g.auditor.Record(nil, token, domain.ActivityInvalidToken,
					map[string]string{"store_error": err.Error()}, domain.SeverityHigh, ip)
				if g.failOpen {
					next.ServeHTTP(w, r)
					return
				}
				deny(w, r, domain.ReasonInvalid, nil)
				return
			}
			if tok == nil {
				g.auditor.Record(nil, token, domain.ActivityInvalidToken,
					map[string]string{"cause": "not_found"}, domain.SeverityMedium, ip)
				deny(w, r, domain.ReasonInvalid, nil)
				return
			}

			if err := tok.CheckAt(time.Now()); err != nil {
				g.denyForState(w, r, tok, token, err, ip)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (g *Gate) denyForState(w http.ResponseWriter, r *http.Request, tok *domain.AccessToken, token string, err error, ip string) {
	var tooEarly *domain.TooEarlyError
	var expired *domain.ExpiredError

	switch {
	case errors.Is(err, domain.ErrTokenDeactivated):
		g.auditor.Record(&tok.PropertyID, token, domain.ActivityTokenDeactivated,
			nil, domain.SeverityMedium, ip)
		deny(w, r, domain.ReasonInactive, nil)
	case errors.As(err, &tooEarly):
		g.auditor.Record(&tok.PropertyID, token, domain.ActivityInvalidToken,
			map[string]string{"cause": "too_early"}, domain.SeverityLow, ip)
		deny(w, r, domain.ReasonTooEarly, &tooEarly.ValidFrom)
	case errors.As(err, &expired):
		g.auditor.Record(&tok.PropertyID, token, domain.ActivityInvalidToken,
			map[string]string{"cause": "expired"}, domain.SeverityLow, ip)
		deny(w, r, domain.ReasonExpired, nil)
	default:
		g.auditor.Record(&tok.PropertyID, token, domain.ActivityInvalidToken,
			map[string]string{"cause": "malformed_window"}, domain.SeverityMedium, ip)
		deny(w, r, domain.ReasonInvalid, nil)
	}
}

func (g *Gate) isOwnerSession(r *http.Request) bool {
	tok := ""
	if c, err := r.Cookie("owner_session"); err == nil {
		tok = c.Value
	}
	if tok == "" {
		if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
			tok = strings.TrimPrefix(authz, "Bearer ")
		}
	}
	if tok == "" {
		return false
	}
	claims, err := auth.Parse(tok, g.jwtSecret)
	return err == nil && claims.Role == "owner"
}

func deny(w http.ResponseWriter, r *http.Request, reason domain.DenyReason, date *time.Time) {
	q := url.Values{}
	q.Set("reason", string(reason))
	if date != nil {
		q.Set("date", date.UTC().Format(time.RFC3339))
	}
	http.Redirect(w, r, DeniedPath+"?"+q.Encode(), http.StatusFound)
}

func isReservedPath(path string) bool {
	for _, p := range reservedPrefixes {
		if strings.HasSuffix(p, "/") {
			if strings.HasPrefix(path, p) {
				return true
			}
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
