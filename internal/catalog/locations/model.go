package locations

import "time"

// Location types. The head office is singular in practice but not enforced.
const (
	TypeHQ        = "hq"
	TypeWarehouse = "warehouse"
)

// Location is a stock-holding site, either the head office or a warehouse.
type Location struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"location_type"`
	Address   string    `json:"address,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LocationForm struct {
	Name     string `json:"name" validate:"required,min=2,max=160"`
	Type     string `json:"location_type" validate:"required,oneof=hq warehouse"`
	Address  string `json:"address,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`
}
