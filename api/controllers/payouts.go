package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/prajjwolcodes/Kin-Bech-sub000/api/responses"
	"github.com/prajjwolcodes/Kin-Bech-sub000/internal/payouts"
	pkgerrors "github.com/prajjwolcodes/Kin-Bech-sub000/pkg/errors"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/logger"
)

// PayoutSummary lists each seller's unpaid settlement balance.
func PayoutSummary(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}

		summaries, err := svc.Summary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"sellers": summaries})
	}
}

// PaySeller settles every eligible sub-order balance for one seller.
func PaySeller(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "sellerId"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required"))
			return
		}
		sellerID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller id"))
			return
		}

		result, err := svc.PaySeller(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
