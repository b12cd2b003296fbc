package orders

import "errors"

var (
	// ErrOrderNotFound indicates the order does not exist.
	ErrOrderNotFound = errors.New("orders: order not found")
	// ErrOutletNotFound indicates the referenced outlet does not exist.
	ErrOutletNotFound = errors.New("orders: outlet not found")
	// ErrNoItems rejects orders created without any line.
	ErrNoItems = errors.New("orders: at least one item is required")
	// ErrAlreadyDelivered rejects delivering an order that is already fully
	// delivered.
	ErrAlreadyDelivered = errors.New("orders: order already delivered")
	// ErrOrderClosed rejects mutations of an order in a terminal state.
	ErrOrderClosed = errors.New("orders: order is closed")
	// ErrCannotDeleteDelivered rejects deleting orders with delivery progress.
	ErrCannotDeleteDelivered = errors.New("orders: cannot delete a delivered order")
	// ErrLocationRequired is returned when a delivery has no source location.
	ErrLocationRequired = errors.New("orders: location is required to deliver")
	// ErrOverDelivery rejects a delivery exceeding an item's remaining quantity.
	ErrOverDelivery = errors.New("orders: delivered quantity exceeds remaining quantity")
	// ErrInvalidQuantity rejects negative delivered quantities, which would
	// roll back an item's cumulative total.
	ErrInvalidQuantity = errors.New("orders: delivered quantity cannot be negative")
	// ErrItemsLocked rejects replacing items once a delivery has been recorded,
	// since cumulative delivered quantities would be lost.
	ErrItemsLocked = errors.New("orders: items cannot be replaced after a delivery")
	// ErrInvalidStatus rejects unknown statuses and direct edits to
	// partially_delivered, which only the delivery flow may set.
	ErrInvalidStatus = errors.New("orders: invalid status")
)
