package enums

import "fmt"

// SubOrderStatus tracks the seller-controlled lifecycle of a sub-order.
type SubOrderStatus string

const (
	SubOrderStatusPending   SubOrderStatus = "PENDING"
	SubOrderStatusConfirmed SubOrderStatus = "CONFIRMED"
	SubOrderStatusShipped   SubOrderStatus = "SHIPPED"
	SubOrderStatusDelivered SubOrderStatus = "DELIVERED"
	SubOrderStatusCancelled SubOrderStatus = "CANCELLED"
	SubOrderStatusCompleted SubOrderStatus = "COMPLETED"
)

var validSubOrderStatuses = []SubOrderStatus{
	SubOrderStatusPending,
	SubOrderStatusConfirmed,
	SubOrderStatusShipped,
	SubOrderStatusDelivered,
	SubOrderStatusCancelled,
	SubOrderStatusCompleted,
}

// String implements fmt.Stringer.
func (s SubOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SubOrderStatus.
func (s SubOrderStatus) IsValid() bool {
	for _, candidate := range validSubOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed out of the status.
func (s SubOrderStatus) IsTerminal() bool {
	return s == SubOrderStatusCancelled || s == SubOrderStatusCompleted
}

// ParseSubOrderStatus converts raw input into a SubOrderStatus.
func ParseSubOrderStatus(value string) (SubOrderStatus, error) {
	for _, candidate := range validSubOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sub-order status %q", value)
}
