package products

type ProductForm struct {
	SKU          string  `json:"sku" validate:"required,min=2,max=64"`
	Name         string  `json:"name" validate:"required,min=2,max=160"`
	Category     string  `json:"category,omitempty"`
	UnitType     string  `json:"unit_type,omitempty"`
	UnitPrice    float64 `json:"unit_price" validate:"gte=0"`
	ReorderLevel int64   `json:"reorder_level" validate:"gte=0"`
	IsActive     *bool   `json:"is_active,omitempty"`
}
