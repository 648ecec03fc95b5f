package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/staysuite/guestgate/internal/access"
	"github.com/staysuite/guestgate/internal/domain"
	"github.com/staysuite/guestgate/internal/http/response"
	"github.com/staysuite/guestgate/pkg/logger"
)

const dateLayout = "2006-01-02"

type TokenHandler struct {
	issuer *access.Issuer
}

func NewTokenHandler(issuer *access.Issuer) *TokenHandler {
	return &TokenHandler{issuer: issuer}
}

func (h *TokenHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.issue)        // {property_id, guest_name, checkin_date, checkout_date, ...}
	r.Post("/revoke", h.revoke) // {token_id}
	return r
}

type issueIn struct {
	PropertyID   string `json:"property_id"`
	GuestName    string `json:"guest_name"`
	GuestEmail   string `json:"guest_email"`
	BookingID    string `json:"booking_id"`
	CheckinDate  string `json:"checkin_date"`
	CheckoutDate string `json:"checkout_date"`
}

func (h *TokenHandler) issue(w http.ResponseWriter, r *http.Request) {
	var in issueIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	propertyID, err := uuid.Parse(in.PropertyID)
	if err != nil {
		response.BadRequest(w, "property_id must be a valid id")
		return
	}
	in.GuestName = strings.TrimSpace(in.GuestName)
	if in.GuestName == "" {
		response.BadRequest(w, "guest_name is required")
		return
	}
	checkin, err := time.ParseInLocation(dateLayout, in.CheckinDate, time.UTC)
	if err != nil {
		response.BadRequest(w, "checkin_date must be YYYY-MM-DD")
		return
	}
	checkout, err := time.ParseInLocation(dateLayout, in.CheckoutDate, time.UTC)
	if err != nil {
		response.BadRequest(w, "checkout_date must be YYYY-MM-DD")
		return
	}
	if !checkin.Before(checkout) {
		response.BadRequest(w, "checkout_date must be after checkin_date")
		return
	}

	owner := OwnerFrom(r)
	out, err := h.issuer.Issue(r.Context(), owner, domain.IssueTokenRequest{
		PropertyID:   propertyID,
		GuestName:    in.GuestName,
		GuestEmail:   strings.TrimSpace(strings.ToLower(in.GuestEmail)),
		BookingID:    strings.TrimSpace(in.BookingID),
		CheckinDate:  checkin,
		CheckoutDate: checkout,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			response.NotFound(w, "Property not found")
		case errors.Is(err, domain.ErrUnauthorized):
			response.Forbidden(w, "You do not own this property")
		default:
			logger.ErrorContext(r.Context(), "token issuance failed", "error", err)
			response.InternalError(w, "Failed to create access token")
		}
		return
	}

	response.WriteJSON(w, http.StatusCreated, out)
}

type revokeIn struct {
	TokenID string `json:"token_id"`
}

func (h *TokenHandler) revoke(w http.ResponseWriter, r *http.Request) {
	var in revokeIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	tokenID, err := uuid.Parse(in.TokenID)
	if err != nil {
		response.BadRequest(w, "token_id must be a valid id")
		return
	}

	owner := OwnerFrom(r)
	if err := h.issuer.Revoke(r.Context(), owner, tokenID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			response.NotFound(w, "Token not found")
		case errors.Is(err, domain.ErrUnauthorized):
			response.Forbidden(w, "You do not own this token")
		default:
			logger.ErrorContext(r.Context(), "token revocation failed", "error", err)
			response.InternalError(w, "Failed to revoke access token")
		}
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}
