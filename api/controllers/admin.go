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
	"github.com/flipearn/flipearn-backend/internal/transactions"
	"github.com/flipearn/flipearn-backend/internal/withdrawals"
	"github.com/flipearn/flipearn-backend/pkg/enums"
	pkgerrors "github.com/flipearn/flipearn-backend/pkg/errors"
	"github.com/flipearn/flipearn-backend/pkg/logger"
	"github.com/flipearn/flipearn-backend/pkg/pagination"
)

// IsAdmin confirms the caller reached the admin router.
func IsAdmin(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := middleware.PrincipalFromContext(r.Context())
		responses.WriteSuccess(w, map[string]any{
			"is_admin": principal.IsAdmin(),
			"email":    principal.Email,
		})
	}
}

// Dashboard returns the marketplace aggregates for the admin home screen.
func Dashboard(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transactions service unavailable"))
			return
		}
		stats, err := svc.Dashboard(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// AllListings pages through every listing regardless of status.
func AllListings(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return listingPageHandler(svc, logg, func(r *http.Request, svc listings.Service, params pagination.Params) (*listings.ListingPage, error) {
		return svc.ListAll(r.Context(), params)
	})
}

// UnverifiedListings pages the credential review queue.
func UnverifiedListings(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return listingPageHandler(svc, logg, func(r *http.Request, svc listings.Service, params pagination.Params) (*listings.ListingPage, error) {
		return svc.UnverifiedListings(r.Context(), params)
	})
}

// UnchangedListings pages the rotation queue of verified but unrotated credentials.
func UnchangedListings(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return listingPageHandler(svc, logg, func(r *http.Request, svc listings.Service, params pagination.Params) (*listings.ListingPage, error) {
		return svc.UnchangedListings(r.Context(), params)
	})
}

func listingPageHandler(svc listings.Service, logg *logger.Logger, load func(*http.Request, listings.Service, pagination.Params) (*listings.ListingPage, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		page, err := load(r, svc, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

type changeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ChangeListingStatus moves a listing between lifecycle states.
func ChangeListingStatus(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload changeStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseListingStatus(strings.ToLower(strings.TrimSpace(payload.Status)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		if err := svc.ChangeStatus(r.Context(), actor, listingID, status); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

// GetCredential returns both escrowed field sets for review.
func GetCredential(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		listingID, err := parseListingID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		credential, err := svc.GetCredential(r.Context(), listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, credential)
	}
}

// VerifyCredential marks a submitted credential as checked by an admin.
func VerifyCredential(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
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

		if err := svc.Verify(r.Context(), actor, listingID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

type changeCredentialRequest struct {
	CredentialID string                   `json:"credential_id" validate:"required,uuid4"`
	Fields       []credentialFieldRequest `json:"fields" validate:"required,min=1,dive"`
}

// ChangeCredential records the rotated credential after an admin takes over
// the account.
func ChangeCredential(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload changeCredentialRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		credentialID, err := uuid.Parse(strings.TrimSpace(payload.CredentialID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid credential id"))
			return
		}

		if err := svc.RotateCredential(r.Context(), listings.RotateCredentialParams{
			Actor:        actor,
			ListingID:    listingID,
			CredentialID: credentialID,
			Fields:       credentialFieldsFromRequest(payload.Fields),
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

// AdminTransactions pages paid transactions with buyer identity joined in.
func AdminTransactions(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transactions service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.AdminList(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// WithdrawRequests lists the payout queue oldest-first.
func WithdrawRequests(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service unavailable"))
			return
		}
		items, err := svc.AdminList(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// MarkWithdrawalPaid completes a payout request exactly once.
func MarkWithdrawalPaid(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "id"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal id is required"))
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid withdrawal id"))
			return
		}

		if err := svc.MarkPaid(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}
