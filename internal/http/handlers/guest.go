package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/staysuite/guestgate/internal/access"
	"github.com/staysuite/guestgate/internal/ai"
	"github.com/staysuite/guestgate/internal/domain"
	mw "github.com/staysuite/guestgate/internal/http/middleware"
	"github.com/staysuite/guestgate/internal/http/response"
	"github.com/staysuite/guestgate/internal/ratelimit"
	"github.com/staysuite/guestgate/internal/repo/postgres"
	"github.com/staysuite/guestgate/pkg/logger"
)

const maxMessageLength = 2000

// GuestHandler serves the rate-limited guest actions. Every action
// re-validates the token including its property binding before the limiter
// or the AI collaborator is touched.
type GuestHandler struct {
	validator  *access.Validator
	limiter    *ratelimit.Limiter
	auditor    *access.Auditor
	provider   ai.Provider
	properties postgres.PropertyRepo
	reaccess   *access.Reaccess
}

func NewGuestHandler(
	validator *access.Validator,
	limiter *ratelimit.Limiter,
	auditor *access.Auditor,
	provider ai.Provider,
	properties postgres.PropertyRepo,
	reaccess *access.Reaccess,
) *GuestHandler {
	return &GuestHandler{
		validator:  validator,
		limiter:    limiter,
		auditor:    auditor,
		provider:   provider,
		properties: properties,
		reaccess:   reaccess,
	}
}

func (h *GuestHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/chat", h.chat)           // {token, property_id, message}
	r.Post("/translate", h.translate) // {token, property_id, text, target_lang}
	r.Route("/access", func(r chi.Router) {
		r.Post("/request", h.accessRequest) // {email, property_slug}
		r.Post("/verify", h.accessVerify)   // {email, property_slug, code}
	})
	return r
}

type chatIn struct {
	Token      string `json:"token"`
	PropertyID string `json:"property_id"`
	Message    string `json:"message"`
}

func (h *GuestHandler) chat(w http.ResponseWriter, r *http.Request) {
	var in chatIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	in.Message = strings.TrimSpace(in.Message)
	if in.Message == "" {
		response.BadRequest(w, "message is required")
		return
	}
	if len(in.Message) > maxMessageLength {
		response.BadRequest(w, "message is too long")
		return
	}

	tok, prop, res, ok := h.admit(w, r, in.Token, in.PropertyID)
	if !ok {
		return
	}

	answer, err := h.provider.Chat(r.Context(), ai.ChatRequest{
		PropertyName: prop.Name,
		GuideContext: string(prop.Guide),
		Message:      in.Message,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "chat provider failed", "error", err, "property_id", tok.PropertyID)
		response.InternalError(w, "The assistant is unavailable right now. Please try again.")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"answer":    answer,
		"remaining": res.Remaining,
	})
}

type translateIn struct {
	Token      string `json:"token"`
	PropertyID string `json:"property_id"`
	Text       string `json:"text"`
	TargetLang string `json:"target_lang"`
}

func (h *GuestHandler) translate(w http.ResponseWriter, r *http.Request) {
	var in translateIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	in.Text = strings.TrimSpace(in.Text)
	in.TargetLang = strings.TrimSpace(in.TargetLang)
	if in.Text == "" || in.TargetLang == "" {
		response.BadRequest(w, "text and target_lang are required")
		return
	}
	if len(in.Text) > maxMessageLength {
		response.BadRequest(w, "text is too long")
		return
	}

	tok, _, res, ok := h.admit(w, r, in.Token, in.PropertyID)
	if !ok {
		return
	}

	translated, err := h.provider.Translate(r.Context(), ai.TranslateRequest{
		Text:       in.Text,
		TargetLang: in.TargetLang,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "translate provider failed", "error", err, "property_id", tok.PropertyID)
		response.InternalError(w, "Translation is unavailable right now. Please try again.")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"text":      translated,
		"remaining": res.Remaining,
	})
}

// admit runs the shared token + binding + rate-limit sequence. On failure it
// has already written the response.
func (h *GuestHandler) admit(w http.ResponseWriter, r *http.Request, token, propertyID string) (*domain.AccessToken, *domain.Property, ratelimit.Result, bool) {
	pid, err := uuid.Parse(propertyID)
	if err != nil {
		response.BadRequest(w, "property_id must be a valid id")
		return nil, nil, ratelimit.Result{}, false
	}

	ip := mw.ClientIP(r)
	tok, err := h.validator.ValidateForProperty(r.Context(), token, pid, ip)
	if err != nil {
		writeTokenError(w, err)
		return nil, nil, ratelimit.Result{}, false
	}

	res := h.limiter.Check(r.Context(), ip, tok.Token, mw.DeviceFingerprint(r))
	if !res.Allowed {
		h.auditor.Record(&tok.PropertyID, tok.Token, activityForLimit(res.Reason),
			map[string]any{"reason": res.Reason, "reset_at": res.ResetAt}, domain.SeverityMedium, ip)
		if !res.ResetAt.IsZero() {
			if secs := int(time.Until(res.ResetAt).Seconds()); secs > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(secs))
			}
		}
		response.RateLimit(w, res.Message)
		return nil, nil, ratelimit.Result{}, false
	}

	prop, err := h.properties.GetByID(r.Context(), pid)
	if err != nil || prop == nil {
		logger.ErrorContext(r.Context(), "property load failed", "error", err, "property_id", pid)
		response.InternalError(w, "Failed to load guide")
		return nil, nil, ratelimit.Result{}, false
	}

	return tok, prop, res, true
}

type accessRequestIn struct {
	Email        string `json:"email"`
	PropertySlug string `json:"property_slug"`
}

func (h *GuestHandler) accessRequest(w http.ResponseWriter, r *http.Request) {
	var in accessRequestIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	in.Email = normalizeEmail(in.Email)
	in.PropertySlug = strings.TrimSpace(in.PropertySlug)
	if !isValidEmail(in.Email) || in.PropertySlug == "" {
		response.BadRequest(w, "A valid email and property_slug are required")
		return
	}

	if res := h.limiter.CheckIP(r.Context(), mw.ClientIP(r)); !res.Allowed {
		response.RateLimit(w, res.Message)
		return
	}

	if err := h.reaccess.Request(r.Context(), in.Email, in.PropertySlug); err != nil {
		logger.ErrorContext(r.Context(), "re-access request failed", "error", err)
		response.InternalError(w, "Failed to process request")
		return
	}

	// Same response whether or not a guide matched; no enumeration.
	response.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "If an active guide exists for this email, an access code has been sent.",
	})
}

type accessVerifyIn struct {
	Email        string `json:"email"`
	PropertySlug string `json:"property_slug"`
	Code         string `json:"code"`
}

func (h *GuestHandler) accessVerify(w http.ResponseWriter, r *http.Request) {
	var in accessVerifyIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	in.Email = normalizeEmail(in.Email)
	in.PropertySlug = strings.TrimSpace(in.PropertySlug)
	in.Code = strings.TrimSpace(in.Code)
	if in.Email == "" || in.PropertySlug == "" || in.Code == "" {
		response.BadRequest(w, "email, property_slug and code are required")
		return
	}

	if res := h.limiter.CheckIP(r.Context(), mw.ClientIP(r)); !res.Allowed {
		response.RateLimit(w, res.Message)
		return
	}

	url, err := h.reaccess.Verify(r.Context(), in.Email, in.PropertySlug, in.Code)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			response.WriteError(w, http.StatusForbidden, "Invalid or expired code", response.CodeInvalidToken)
			return
		}
		logger.ErrorContext(r.Context(), "re-access verify failed", "error", err)
		response.InternalError(w, "Failed to verify code")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}

func writeTokenError(w http.ResponseWriter, err error) {
	var tooEarly *domain.TooEarlyError
	var expired *domain.ExpiredError

	switch {
	case errors.Is(err, domain.ErrTokenDeactivated):
		response.WriteError(w, http.StatusForbidden, "This access link has been deactivated by the host", response.CodeTokenDeactivated)
	case errors.As(err, &tooEarly):
		msg := fmt.Sprintf("Your guide opens on %s", tooEarly.ValidFrom.Format("Jan 2, 2006"))
		response.WriteError(w, http.StatusForbidden, msg, response.CodeTooEarly)
	case errors.As(err, &expired):
		response.WriteError(w, http.StatusForbidden, "This access link has expired", response.CodeExpired)
	default:
		response.WriteError(w, http.StatusForbidden, "Invalid access token", response.CodeInvalidToken)
	}
}

func activityForLimit(reason string) domain.ActivityType {
	switch reason {
	case ratelimit.ReasonIPLimit:
		return domain.ActivityRateLimitIP
	case ratelimit.ReasonTokenMinuteLimit:
		return domain.ActivityRateLimitMinute
	case ratelimit.ReasonTokenDailyLimit:
		return domain.ActivityRateLimitDaily
	default:
		return domain.ActivityRateLimitDevice
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && len(parts[1]) > 2 && strings.Contains(parts[1], ".")
}
