package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/staysuite/guestgate/internal/domain"
	"github.com/staysuite/guestgate/internal/http/response"
	"github.com/staysuite/guestgate/internal/repo/postgres"
	"github.com/staysuite/guestgate/pkg/logger"
)

// GuideHandler serves the gated guide document. By the time this runs the
// gate has already admitted the request.
type GuideHandler struct {
	properties postgres.PropertyRepo
}

func NewGuideHandler(properties postgres.PropertyRepo) *GuideHandler {
	return &GuideHandler{properties: properties}
}

func (h *GuideHandler) Serve(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	prop, err := h.properties.GetBySlug(r.Context(), slug)
	if err != nil {
		logger.ErrorContext(r.Context(), "guide load failed", "error", err, "slug", slug)
		response.InternalError(w, "Failed to load guide")
		return
	}
	if prop == nil {
		response.NotFound(w, "Guide not found")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"id":    prop.ID,
		"slug":  prop.Slug,
		"name":  prop.Name,
		"guide": prop.Guide,
	})
}

var denialMessages = map[domain.DenyReason]string{
	domain.ReasonInvalid:       "This access link is not valid. Please use the link from your booking confirmation.",
	domain.ReasonExpired:       "This access link has expired. Guide access ends on your checkout day.",
	domain.ReasonInactive:      "This access link has been deactivated by the host.",
	domain.ReasonTooEarly:      "Your guide is not open yet. Access starts two days before check-in.",
	domain.ReasonTokenRequired: "An access link is required to view this guide.",
}

// Denied returns the machine payload behind the themed denial page.
func Denied(w http.ResponseWriter, r *http.Request) {
	reason := domain.DenyReason(r.URL.Query().Get("reason"))
	msg, ok := denialMessages[reason]
	if !ok {
		reason = domain.ReasonInvalid
		msg = denialMessages[domain.ReasonInvalid]
	}

	payload := map[string]any{
		"reason":  reason,
		"message": msg,
	}
	if raw := r.URL.Query().Get("date"); raw != "" {
		if d, err := time.Parse(time.RFC3339, raw); err == nil {
			payload["date"] = d.UTC().Format(time.RFC3339)
		}
	}

	response.WriteJSON(w, http.StatusOK, payload)
}
