package products

import (
	"errors"
	"strings"
)

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.SKU) == "" {
		return errors.New("product SKU is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("product name is required")
	}
	if p.UnitPrice < 0 {
		return errors.New("unit price cannot be negative")
	}
	if p.ReorderLevel < 0 {
		return errors.New("reorder level cannot be negative")
	}
	return nil
}
