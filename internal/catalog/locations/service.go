package locations

import (
	"context"
	"errors"
	"strings"

	"github.com/meridian-dist/meridian/internal/catalog/shared"
)

// ErrInvalidType indicates a location type outside hq|warehouse.
var ErrInvalidType = errors.New("invalid location type")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Location, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Location, error) {
	if id <= 0 {
		return Location{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, location Location) (Location, error) {
	if err := validate(location); err != nil {
		return Location{}, err
	}
	return s.repo.Create(ctx, location)
}

func (s *Service) Update(ctx context.Context, id int64, location Location) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if err := validate(location); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, location)
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Deactivate(ctx, id)
}

func validate(location Location) error {
	if strings.TrimSpace(location.Name) == "" {
		return errors.New("location name is required")
	}
	if location.Type != TypeHQ && location.Type != TypeWarehouse {
		return ErrInvalidType
	}
	return nil
}
