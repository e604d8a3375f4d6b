package types

import "strings"

// ShippingInfo is the delivery destination snapshot stored on an order.
// Optional at creation, required before an order can be checked out.
type ShippingInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	Phone   string `json:"phone"`
}

// IsComplete reports whether every field required for dispatch is present.
func (s ShippingInfo) IsComplete() bool {
	return strings.TrimSpace(s.Name) != "" &&
		strings.TrimSpace(s.Address) != "" &&
		strings.TrimSpace(s.City) != "" &&
		strings.TrimSpace(s.Phone) != ""
}
