package orders

import "time"

// Status is the order lifecycle state.
type Status string

const (
	StatusPending            Status = "pending"
	StatusProcessing         Status = "processing"
	StatusPacked             Status = "packed"
	StatusShipped            Status = "shipped"
	StatusPartiallyDelivered Status = "partially_delivered"
	StatusDelivered          Status = "delivered"
	StatusCancelled          Status = "cancelled"
)

// IsTerminal reports whether the status can never be exited.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusPacked, StatusShipped,
		StatusPartiallyDelivered, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Order is the fulfillment header. Items are loaded separately.
type Order struct {
	ID                   int64      `json:"id"`
	OrderNumber          string     `json:"order_number"`
	OutletID             int64      `json:"outlet_id"`
	ClientID             int64      `json:"client_id"`
	Status               Status     `json:"status"`
	OrderDate            time.Time  `json:"order_date"`
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date,omitempty"`
	ActualDeliveryDate   *time.Time `json:"actual_delivery_date,omitempty"`
	TotalAmount          *float64   `json:"total_amount,omitempty"`
	Notes                string     `json:"notes,omitempty"`
	CreatedBy            int64      `json:"created_by"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// OrderItem is one requested line. DeliveredQuantity accumulates across
// deliveries and never exceeds Quantity.
type OrderItem struct {
	ID                int64    `json:"id"`
	OrderID           int64    `json:"order_id"`
	ProductID         int64    `json:"product_id"`
	Quantity          int64    `json:"quantity"`
	DeliveredQuantity int64    `json:"delivered_quantity"`
	UnitType          string   `json:"unit_type,omitempty"`
	UnitPrice         *float64 `json:"unit_price,omitempty"`
	LineTotal         *float64 `json:"line_total,omitempty"`
}

// Remaining is the undelivered balance for the line.
func (i OrderItem) Remaining() int64 {
	return i.Quantity - i.DeliveredQuantity
}

// Delivery is one fulfillment event, numbered sequentially per order.
type Delivery struct {
	ID             int64          `json:"id"`
	OrderID        int64          `json:"order_id"`
	DeliveryNumber int            `json:"delivery_number"`
	LocationID     int64          `json:"location_id"`
	DeliveryDate   time.Time      `json:"delivery_date"`
	Notes          string         `json:"notes,omitempty"`
	DeliveredBy    int64          `json:"delivered_by"`
	Items          []DeliveryItem `json:"items,omitempty"`
}

// DeliveryItem is one (order item, quantity) line inside a delivery.
type DeliveryItem struct {
	ID                int64 `json:"id"`
	DeliveryID        int64 `json:"delivery_id"`
	OrderItemID       int64 `json:"order_item_id"`
	ProductID         int64 `json:"product_id"`
	QuantityDelivered int64 `json:"quantity_delivered"`
}

// OrderDetails bundles the full aggregate for read endpoints.
type OrderDetails struct {
	Order      Order       `json:"order"`
	OutletName string      `json:"outlet_name,omitempty"`
	ClientName string      `json:"client_name,omitempty"`
	Items      []OrderItem `json:"items"`
	Deliveries []Delivery  `json:"deliveries"`
}

// ListFilter narrows order listings.
type ListFilter struct {
	Status   Status
	OutletID int64
	Limit    int
}
