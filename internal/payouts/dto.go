package payouts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SellerPayoutSummary is one seller's outstanding settlement position:
// completed sub-orders that have not been paid out yet.
type SellerPayoutSummary struct {
	SellerID      uuid.UUID       `json:"seller_id"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	Commission    decimal.Decimal `json:"commission"`
	PayableAmount decimal.Decimal `json:"payable_amount"`
	SubOrderCount int             `json:"sub_order_count"`
}

// SettlementResult reports the outcome of settling one seller's balance.
type SettlementResult struct {
	SellerID        uuid.UUID       `json:"seller_id"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
	SettledCount    int             `json:"settled_count"`
	NoUnpaidBalance bool            `json:"no_unpaid_balance,omitempty"`
	PayoutDate      *time.Time      `json:"payout_date,omitempty"`
}
