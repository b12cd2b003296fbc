package locations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-dist/meridian/internal/catalog/shared"
)

type fakeRepo struct {
	locations map[int64]Location
	nextID    int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{locations: make(map[int64]Location), nextID: 1}
}

func (f *fakeRepo) List(_ context.Context, filters shared.ListFilters) ([]Location, int, error) {
	var out []Location
	for _, l := range f.locations {
		if filters.LocationType != "" && l.Type != filters.LocationType {
			continue
		}
		out = append(out, l)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (Location, error) {
	l, ok := f.locations[id]
	if !ok {
		return Location{}, shared.ErrNotFound
	}
	return l, nil
}

func (f *fakeRepo) Create(_ context.Context, location Location) (Location, error) {
	location.ID = f.nextID
	f.nextID++
	f.locations[location.ID] = location
	return location, nil
}

func (f *fakeRepo) Update(_ context.Context, id int64, location Location) error {
	if _, ok := f.locations[id]; !ok {
		return shared.ErrNotFound
	}
	location.ID = id
	f.locations[id] = location
	return nil
}

func (f *fakeRepo) Deactivate(_ context.Context, id int64) error {
	l, ok := f.locations[id]
	if !ok {
		return shared.ErrNotFound
	}
	l.IsActive = false
	f.locations[id] = l
	return nil
}

func TestCreateRequiresKnownType(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Create(context.Background(), Location{Name: "Central", Type: "depot"})
	require.ErrorIs(t, err, ErrInvalidType)

	_, err = svc.Create(context.Background(), Location{Name: "Central", Type: ""})
	require.ErrorIs(t, err, ErrInvalidType)

	hq, err := svc.Create(context.Background(), Location{Name: "Head Office", Type: TypeHQ, IsActive: true})
	require.NoError(t, err)
	require.Equal(t, TypeHQ, hq.Type)

	wh, err := svc.Create(context.Background(), Location{Name: "Central", Type: TypeWarehouse, IsActive: true})
	require.NoError(t, err)
	require.Equal(t, TypeWarehouse, wh.Type)
}

func TestUpdateRequiresKnownType(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), Location{Name: "Central", Type: TypeWarehouse, IsActive: true})
	require.NoError(t, err)

	err = svc.Update(context.Background(), created.ID, Location{Name: "Central", Type: "storefront"})
	require.ErrorIs(t, err, ErrInvalidType)

	err = svc.Update(context.Background(), created.ID, Location{Name: "Central", Type: TypeHQ, IsActive: true})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, TypeHQ, got.Type)
}

func TestListFiltersByType(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), Location{Name: "Head Office", Type: TypeHQ, IsActive: true})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), Location{Name: "Central", Type: TypeWarehouse, IsActive: true})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), Location{Name: "North", Type: TypeWarehouse, IsActive: true})
	require.NoError(t, err)

	warehouses, total, err := svc.List(context.Background(), shared.ListFilters{LocationType: TypeWarehouse})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	for _, l := range warehouses {
		require.Equal(t, TypeWarehouse, l.Type)
	}
}
