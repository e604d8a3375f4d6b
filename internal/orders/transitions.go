package orders

import (
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/enums"
	pkgerrors "github.com/prajjwolcodes/Kin-Bech-sub000/pkg/errors"
)

// Lifecycle rules: statuses advance one step at a time, cancellation is
// reachable from any non-terminal state, and terminal states never move.

var orderTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed: {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
	enums.OrderStatusDelivered: {enums.OrderStatusCompleted},
	enums.OrderStatusCancelled: {},
	enums.OrderStatusCompleted: {},
}

var subOrderTransitions = map[enums.SubOrderStatus][]enums.SubOrderStatus{
	enums.SubOrderStatusPending:   {enums.SubOrderStatusConfirmed, enums.SubOrderStatusCancelled},
	enums.SubOrderStatusConfirmed: {enums.SubOrderStatusShipped, enums.SubOrderStatusCancelled},
	enums.SubOrderStatusShipped:   {enums.SubOrderStatusDelivered, enums.SubOrderStatusCancelled},
	enums.SubOrderStatusDelivered: {enums.SubOrderStatusCompleted, enums.SubOrderStatusCancelled},
	enums.SubOrderStatusCancelled: {},
	enums.SubOrderStatusCompleted: {},
}

func validateOrderTransition(current, target enums.OrderStatus) error {
	if current == target {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order already in requested status")
	}
	for _, allowed := range orderTransitions[current] {
		if allowed == target {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition not allowed").
		WithDetails(map[string]any{"from": current.String(), "to": target.String()})
}

func validateSubOrderTransition(current, target enums.SubOrderStatus) error {
	if current == target {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "sub-order already in requested status")
	}
	for _, allowed := range subOrderTransitions[current] {
		if allowed == target {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "sub-order status transition not allowed").
		WithDetails(map[string]any{"from": current.String(), "to": target.String()})
}
