package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/flipearn/flipearn-backend/api/middleware"
	"github.com/flipearn/flipearn-backend/api/responses"
	"github.com/flipearn/flipearn-backend/api/validators"
	"github.com/flipearn/flipearn-backend/internal/listings"
	dbtypes "github.com/flipearn/flipearn-backend/pkg/db/types"
	"github.com/flipearn/flipearn-backend/pkg/enums"
	pkgerrors "github.com/flipearn/flipearn-backend/pkg/errors"
	"github.com/flipearn/flipearn-backend/pkg/logger"
)

const maxTitleLen = 200

type createListingRequest struct {
	Platform    string  `json:"platform" validate:"required"`
	Username    string  `json:"username" validate:"required"`
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description,omitempty"`
	PriceCents  int64   `json:"price_cents" validate:"required,gt=0"`
}

type credentialFieldRequest struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value" validate:"required"`
}

type submitCredentialRequest struct {
	Fields []credentialFieldRequest `json:"fields" validate:"required,min=1,dive"`
}

// CreateListing opens a new active listing for the caller.
func CreateListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createListingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.Create(r.Context(), listings.CreateParams{
			Actor:       actor,
			Platform:    validators.SanitizeString(payload.Platform, maxTitleLen),
			Username:    validators.SanitizeString(payload.Username, maxTitleLen),
			Title:       validators.SanitizeString(payload.Title, maxTitleLen),
			Description: payload.Description,
			PriceCents:  payload.PriceCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, listing)
	}
}

// MyListings returns the caller's own listings, deleted ones included.
func MyListings(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.MyListings(r.Context(), actor.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// SubmitCredential places the account credential into escrow.
func SubmitCredential(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listingID, err := parseListingID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload submitCredentialRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SubmitCredential(r.Context(), listings.SubmitCredentialParams{
			Actor:     actor,
			ListingID: listingID,
			Fields:    credentialFieldsFromRequest(payload.Fields),
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

// DeleteListing soft-deletes the caller's listing.
func DeleteListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listingID, err := parseListingID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SoftDelete(r.Context(), actor, listingID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

func actorFromRequest(r *http.Request) (listings.Actor, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return listings.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	role, err := enums.ParseRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		role = enums.RoleUser
	}
	return listings.Actor{UserID: userID, Role: role}, nil
}

func parseListingID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "listingId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing id")
	}
	return id, nil
}

func credentialFieldsFromRequest(fields []credentialFieldRequest) dbtypes.CredentialFields {
	out := make(dbtypes.CredentialFields, 0, len(fields))
	for _, field := range fields {
		out = append(out, dbtypes.CredentialField{
			Name:  strings.TrimSpace(field.Name),
			Value: field.Value,
		})
	}
	return out
}
