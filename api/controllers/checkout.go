package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/prajjwolcodes/Kin-Bech-sub000/api/responses"
	"github.com/prajjwolcodes/Kin-Bech-sub000/api/validators"
	checkoutsvc "github.com/prajjwolcodes/Kin-Bech-sub000/internal/checkout"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/enums"
	pkgerrors "github.com/prajjwolcodes/Kin-Bech-sub000/pkg/errors"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/logger"
)

// CreateOrder places a new multi-seller order from the requested lines.
func CreateOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		buyerID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if role != enums.RoleBuyer {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "only buyers can place orders"))
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]checkoutsvc.LineInput, 0, len(payload.Items))
		for _, item := range payload.Items {
			lines = append(lines, checkoutsvc.LineInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}

		order, err := svc.CreateOrder(r.Context(), buyerID, lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

type createOrderRequest struct {
	Items []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type orderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}
