package outlets

import (
	"strings"
	"time"
	"unicode"
)

// Outlet is a delivery point belonging to a client. Its code, or a prefix
// derived from its name, stamps the order numbers raised against it.
type Outlet struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"client_id"`
	Name      string    `json:"name"`
	Code      string    `json:"code,omitempty"`
	Address   string    `json:"address,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OutletForm struct {
	ClientID int64  `json:"client_id" validate:"required,gt=0"`
	Name     string `json:"name" validate:"required,min=2,max=160"`
	Code     string `json:"code,omitempty" validate:"omitempty,min=2,max=10"`
	Address  string `json:"address,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`
}

// NumberPrefix returns the outlet's code uppercased, or the first three
// letters of its name when no code is set.
func (o Outlet) NumberPrefix() string {
	if o.Code != "" {
		return strings.ToUpper(o.Code)
	}
	var letters []rune
	for _, r := range o.Name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			letters = append(letters, unicode.ToUpper(r))
			if len(letters) == 3 {
				break
			}
		}
	}
	if len(letters) == 0 {
		return "ORD"
	}
	return string(letters)
}
