package orders

import "time"

type ItemInput struct {
	ProductID int64    `json:"product_id" validate:"required,gt=0"`
	Quantity  int64    `json:"quantity" validate:"required,gt=0"`
	UnitType  string   `json:"unit_type,omitempty"`
	UnitPrice *float64 `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
}

type CreateOrderInput struct {
	OutletID             int64       `json:"outlet_id" validate:"required,gt=0"`
	Items                []ItemInput `json:"items" validate:"required,min=1,dive"`
	ExpectedDeliveryDate *time.Time  `json:"expected_delivery_date,omitempty"`
	Notes                string      `json:"notes,omitempty"`
	ActorID              int64       `json:"-"`
}

// UpdateItemsInput replaces the order's item set wholesale. Only provided
// header fields are mutated.
type UpdateItemsInput struct {
	Items                []ItemInput `json:"items" validate:"required,min=1,dive"`
	ExpectedDeliveryDate *time.Time  `json:"expected_delivery_date,omitempty"`
	Notes                *string     `json:"notes,omitempty"`
	ActorID              int64       `json:"-"`
}

type UpdateStatusInput struct {
	Status     Status `json:"status" validate:"required"`
	LocationID int64  `json:"location_id,omitempty"`
	ActorID    int64  `json:"-"`
}

type DeliveredItemInput struct {
	OrderItemID       int64 `json:"order_item_id" validate:"required,gt=0"`
	DeliveredQuantity int64 `json:"delivered_quantity" validate:"gte=0"`
}

type MarkDeliveredInput struct {
	LocationID int64                `json:"location_id" validate:"required,gt=0"`
	Items      []DeliveredItemInput `json:"items" validate:"required,min=1,dive"`
	Notes      string               `json:"notes,omitempty"`
	ActorID    int64                `json:"-"`
}
