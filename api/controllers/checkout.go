package controllers

import (
	"net/http"

	"github.com/flipearn/flipearn-backend/api/middleware"
	"github.com/flipearn/flipearn-backend/api/responses"
	"github.com/flipearn/flipearn-backend/internal/transactions"
	pkgerrors "github.com/flipearn/flipearn-backend/pkg/errors"
	"github.com/flipearn/flipearn-backend/pkg/logger"
)

// CreateCheckout opens a payment session for the listing and returns its URL.
func CreateCheckout(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transactions service unavailable"))
			return
		}

		buyerID := middleware.UserIDFromContext(r.Context())
		if buyerID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		listingID, err := parseListingID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateCheckout(r.Context(), buyerID, listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
