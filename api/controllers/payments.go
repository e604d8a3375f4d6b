package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/prajjwolcodes/Kin-Bech-sub000/api/responses"
	"github.com/prajjwolcodes/Kin-Bech-sub000/api/validators"
	"github.com/prajjwolcodes/Kin-Bech-sub000/internal/payments"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/enums"
	pkgerrors "github.com/prajjwolcodes/Kin-Bech-sub000/pkg/errors"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/logger"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/types"
)

const maxCallbackBody = 64 << 10

// CheckoutOrder locks in shipping details and the payment method for a
// pending order, returning a gateway redirect when one applies.
func CheckoutOrder(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		buyerID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if role != enums.RoleBuyer {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer can check out an order"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		result, err := svc.Checkout(r.Context(), payments.CheckoutInput{
			OrderID:    orderID,
			BuyerID:    buyerID,
			Method:     method,
			Shipping:   payload.Shipping,
			SuccessURL: payload.SuccessURL,
			FailureURL: payload.FailureURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// VerifyPayment confirms a gateway callback payload against the gateway and
// settles the order's payment rows on success.
func VerifyPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		actorID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Gateway callback bodies vary by provider, so the raw payload is
		// handed to the matching gateway untouched.
		body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read callback payload"))
			return
		}
		if len(body) == 0 || !json.Valid(body) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "callback payload must be valid JSON"))
			return
		}

		order, err := svc.VerifyPayment(r.Context(), payments.VerifyInput{
			OrderID: orderID,
			ActorID: actorID,
			Role:    role,
			Payload: json.RawMessage(body),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// UpdatePaymentStatus flips COD payment rows between paid and unpaid.
func UpdatePaymentStatus(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		actorID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParsePaymentStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status"))
			return
		}

		order, err := svc.UpdatePaymentStatus(r.Context(), payments.StatusInput{
			OrderID:    orderID,
			SubOrderID: payload.SubOrderID,
			ActorID:    actorID,
			Role:       role,
			Target:     target,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

type checkoutOrderRequest struct {
	PaymentMethod string             `json:"payment_method" validate:"required"`
	Shipping      types.ShippingInfo `json:"shipping" validate:"required"`
	SuccessURL    string             `json:"success_url,omitempty" validate:"omitempty,url"`
	FailureURL    string             `json:"failure_url,omitempty" validate:"omitempty,url"`
}

type paymentStatusRequest struct {
	Status     string     `json:"status" validate:"required"`
	SubOrderID *uuid.UUID `json:"sub_order_id,omitempty"`
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return orderID, nil
}
