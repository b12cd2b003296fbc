package outlets

import (
	"context"
	"errors"
	"strings"

	"github.com/meridian-dist/meridian/internal/catalog/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Outlet, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Outlet, error) {
	if id <= 0 {
		return Outlet{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, outlet Outlet) (Outlet, error) {
	if err := s.validate(outlet); err != nil {
		return Outlet{}, err
	}
	return s.repo.Create(ctx, outlet)
}

func (s *Service) Update(ctx context.Context, id int64, outlet Outlet) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if err := s.validate(outlet); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, outlet)
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) validate(o Outlet) error {
	if o.ClientID <= 0 {
		return errors.New("outlet client is required")
	}
	if strings.TrimSpace(o.Name) == "" {
		return errors.New("outlet name is required")
	}
	return nil
}
