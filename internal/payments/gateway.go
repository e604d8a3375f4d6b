package payments

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Gateway abstracts an external payment rail. Begin produces the redirect
// the buyer is sent to; Confirm resolves a callback payload into a verified
// transaction outcome.
type Gateway interface {
	Begin(ctx context.Context, req GatewayBeginRequest) (*GatewayRedirect, error)
	Confirm(ctx context.Context, payload json.RawMessage) (*GatewayConfirmation, error)
}

// GatewayBeginRequest carries everything a rail needs to start a payment.
type GatewayBeginRequest struct {
	OrderID         uuid.UUID
	TransactionUUID string
	Amount          decimal.Decimal
	SuccessURL      string
	FailureURL      string
}

// GatewayRedirect is where the buyer goes next. TransactionRef overrides the
// locally generated transaction uuid when the rail issues its own reference.
type GatewayRedirect struct {
	RedirectURL    string
	TransactionRef string
}

// GatewayConfirmation is the decoded, rail-verified outcome of a callback.
type GatewayConfirmation struct {
	TransactionUUID string
	Amount          decimal.Decimal
	Completed       bool
}
