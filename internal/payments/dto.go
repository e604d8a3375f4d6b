package payments

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/db/models"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/enums"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/types"
)

// CheckoutInput captures the buyer's checkout submission for an order.
type CheckoutInput struct {
	OrderID    uuid.UUID
	BuyerID    uuid.UUID
	Method     enums.PaymentMethod
	Shipping   types.ShippingInfo
	SuccessURL string
	FailureURL string
}

// CheckoutResult is what checkout hands back: the refreshed order and, for
// gateway methods, the URL the buyer must be redirected to.
type CheckoutResult struct {
	Order       *models.Order `json:"order"`
	RedirectURL string        `json:"redirect_url,omitempty"`
}

// VerifyInput carries a gateway callback payload for verification.
type VerifyInput struct {
	OrderID uuid.UUID
	ActorID uuid.UUID
	Role    enums.Role
	Payload json.RawMessage
}

// StatusInput is a manual payment status change. Sellers target their own
// sub-order payment; admins target the whole order.
type StatusInput struct {
	OrderID    uuid.UUID
	SubOrderID *uuid.UUID
	ActorID    uuid.UUID
	Role       enums.Role
	Target     enums.PaymentStatus
}
