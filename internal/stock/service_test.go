package stock

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

type levelKey struct {
	productID  int64
	locationID int64
}

// fakeRepo keeps everything in memory and satisfies both RepositoryPort and
// TxRepository, so WithTx can hand the fake back to the callback.
type fakeRepo struct {
	levels      map[levelKey]Level
	movements   map[int64]Movement
	corrections []Correction
	nextID      int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		levels:    make(map[levelKey]Level),
		movements: make(map[int64]Movement),
		nextID:    1,
	}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, f)
}

func (f *fakeRepo) GetLevel(_ context.Context, productID, locationID int64) (Level, error) {
	lvl, ok := f.levels[levelKey{productID, locationID}]
	if !ok {
		return Level{}, ErrLevelNotFound
	}
	return lvl, nil
}

func (f *fakeRepo) GetLevelForUpdate(ctx context.Context, productID, locationID int64) (Level, error) {
	return f.GetLevel(ctx, productID, locationID)
}

func (f *fakeRepo) UpsertLevel(_ context.Context, level Level) error {
	key := levelKey{level.ProductID, level.LocationID}
	if existing, ok := f.levels[key]; ok {
		level.ID = existing.ID
	} else {
		level.ID = f.nextID
		f.nextID++
	}
	f.levels[key] = level
	return nil
}

func (f *fakeRepo) InsertMovement(_ context.Context, m Movement) (int64, error) {
	m.ID = f.nextID
	f.nextID++
	f.movements[m.ID] = m
	return m.ID, nil
}

func (f *fakeRepo) GetMovement(_ context.Context, id int64) (Movement, error) {
	m, ok := f.movements[id]
	if !ok {
		return Movement{}, ErrMovementNotFound
	}
	return m, nil
}

func (f *fakeRepo) GetMovementForUpdate(ctx context.Context, id int64) (Movement, error) {
	return f.GetMovement(ctx, id)
}

func (f *fakeRepo) UpdateMovementQuantity(_ context.Context, id, quantity int64) error {
	m, ok := f.movements[id]
	if !ok {
		return ErrMovementNotFound
	}
	m.Quantity = quantity
	f.movements[id] = m
	return nil
}

func (f *fakeRepo) InsertCorrection(_ context.Context, c Correction) (int64, error) {
	c.ID = f.nextID
	f.nextID++
	f.corrections = append(f.corrections, c)
	return c.ID, nil
}

func (f *fakeRepo) ListLevels(_ context.Context, locationID int64) ([]LevelWithDetails, error) {
	var out []LevelWithDetails
	for _, lvl := range f.levels {
		if locationID != 0 && lvl.LocationID != locationID {
			continue
		}
		out = append(out, LevelWithDetails{Level: lvl})
	}
	return out, nil
}

func (f *fakeRepo) ListLowStock(context.Context) ([]LevelWithDetails, error) {
	return nil, nil
}

func (f *fakeRepo) ListMovements(_ context.Context, filter MovementFilter) ([]Movement, error) {
	var out []Movement
	for _, m := range f.movements {
		if filter.ProductID != 0 && m.ProductID != filter.ProductID {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeRepo) ListCorrections(_ context.Context, productID int64, _ int) ([]Correction, error) {
	var out []Correction
	for _, c := range f.corrections {
		if productID != 0 && c.ProductID != productID {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeRepo) quantity(productID, locationID int64) int64 {
	return f.levels[levelKey{productID, locationID}].Quantity
}

func TestRecordInboundCreatesLevel(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	m, err := svc.RecordInbound(context.Background(), InboundInput{
		ProductID: 1, LocationID: 10, Quantity: 50, ActorID: 7,
	})
	require.NoError(t, err)
	require.NotZero(t, m.ID)
	require.Equal(t, MovementInbound, m.Type)
	require.EqualValues(t, 50, repo.quantity(1, 10))
}

func TestRecordOutboundClampsAtZero(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	_, err := svc.RecordInbound(context.Background(), InboundInput{
		ProductID: 1, LocationID: 10, Quantity: 5, ActorID: 7,
	})
	require.NoError(t, err)

	m, err := svc.RecordOutbound(context.Background(), OutboundInput{
		ProductID: 1, LocationID: 10, Quantity: 10, ActorID: 7,
	})
	require.NoError(t, err)
	require.EqualValues(t, 0, repo.quantity(1, 10))
	// The movement keeps the requested quantity even though the level clamped.
	require.EqualValues(t, 10, m.Quantity)
}

func TestRecordOutboundUntrackedStock(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	_, err := svc.RecordOutbound(context.Background(), OutboundInput{
		ProductID: 99, LocationID: 10, Quantity: 3, ActorID: 7,
	})
	require.ErrorIs(t, err, ErrNoSuchStock)
	_, err = repo.GetLevel(context.Background(), 99, 10)
	require.ErrorIs(t, err, ErrLevelNotFound)
}

func TestRecordInboundRejectsNonPositive(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	_, err := svc.RecordInbound(context.Background(), InboundInput{
		ProductID: 1, LocationID: 10, Quantity: 0, ActorID: 7,
	})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.RecordInbound(context.Background(), InboundInput{
		ProductID: 1, LocationID: 10, Quantity: -5, ActorID: 7,
	})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestTransferMovesStock(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.RecordInbound(ctx, InboundInput{ProductID: 1, LocationID: 10, Quantity: 40, ActorID: 7})
	require.NoError(t, err)

	m, err := svc.RecordTransfer(ctx, TransferInput{
		ProductID: 1, FromLocationID: 10, ToLocationID: 20, Quantity: 15, ActorID: 7,
	})
	require.NoError(t, err)
	require.Equal(t, MovementTransfer, m.Type)
	require.EqualValues(t, 25, repo.quantity(1, 10))
	require.EqualValues(t, 15, repo.quantity(1, 20))
}

func TestTransferInsufficientSourceClamps(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.RecordInbound(ctx, InboundInput{ProductID: 1, LocationID: 10, Quantity: 15, ActorID: 7})
	require.NoError(t, err)

	_, err = svc.RecordTransfer(ctx, TransferInput{
		ProductID: 1, FromLocationID: 10, ToLocationID: 20, Quantity: 20, ActorID: 7,
	})
	require.NoError(t, err)
	require.EqualValues(t, 0, repo.quantity(1, 10))
	require.EqualValues(t, 20, repo.quantity(1, 20))
}

func TestTransferSameLocationRejected(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	_, err := svc.RecordTransfer(context.Background(), TransferInput{
		ProductID: 1, FromLocationID: 10, ToLocationID: 10, Quantity: 5, ActorID: 7,
	})
	require.ErrorIs(t, err, ErrSameLocation)
}

func TestAdjustQuantityRecordsOldAndNew(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.RecordInbound(ctx, InboundInput{ProductID: 1, LocationID: 10, Quantity: 30, ActorID: 7})
	require.NoError(t, err)

	c, err := svc.AdjustQuantity(ctx, CorrectionInput{
		ProductID: 1, LocationID: 10, Delta: -12, Reason: "cycle count", ActorID: 7,
	})
	require.NoError(t, err)
	require.EqualValues(t, 30, c.OldQuantity)
	require.EqualValues(t, 18, c.NewQuantity)
	require.Equal(t, AdjustmentSubtract, c.Type)
	require.EqualValues(t, 18, repo.quantity(1, 10))

	c, err = svc.AdjustQuantity(ctx, CorrectionInput{
		ProductID: 1, LocationID: 10, Delta: 4, Reason: "found pallet", ActorID: 7,
	})
	require.NoError(t, err)
	require.EqualValues(t, 18, c.OldQuantity)
	require.EqualValues(t, 22, c.NewQuantity)
	require.Equal(t, AdjustmentAdd, c.Type)
}

func TestAdjustQuantityRequiresReason(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	_, err := svc.AdjustQuantity(context.Background(), CorrectionInput{
		ProductID: 1, LocationID: 10, Delta: 5, ActorID: 7,
	})
	require.ErrorIs(t, err, ErrReasonRequired)
}

func TestAdjustQuantityNegativeOnMissingLevel(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	_, err := svc.AdjustQuantity(context.Background(), CorrectionInput{
		ProductID: 1, LocationID: 10, Delta: -5, Reason: "damaged", ActorID: 7,
	})
	require.ErrorIs(t, err, ErrNoSuchStock)
}

func TestAdjustQuantityFloorsAtZero(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.RecordInbound(ctx, InboundInput{ProductID: 1, LocationID: 10, Quantity: 5, ActorID: 7})
	require.NoError(t, err)

	c, err := svc.AdjustQuantity(ctx, CorrectionInput{
		ProductID: 1, LocationID: 10, Delta: -10, Reason: "shrinkage", ActorID: 7,
	})
	require.NoError(t, err)
	require.EqualValues(t, 5, c.OldQuantity)
	require.EqualValues(t, 0, c.NewQuantity)
	require.EqualValues(t, 0, repo.quantity(1, 10))
}

func TestUpdateMovementAdjustsLedgerByDirection(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	in, err := svc.RecordInbound(ctx, InboundInput{ProductID: 1, LocationID: 10, Quantity: 50, ActorID: 7})
	require.NoError(t, err)

	out, err := svc.RecordOutbound(ctx, OutboundInput{ProductID: 1, LocationID: 10, Quantity: 20, ActorID: 7})
	require.NoError(t, err)
	require.EqualValues(t, 30, repo.quantity(1, 10))

	// Outbound 20 -> 25 removes 5 more from the location.
	m, err := svc.UpdateMovement(ctx, out.ID, 25, 7)
	require.NoError(t, err)
	require.EqualValues(t, 25, m.Quantity)
	require.EqualValues(t, 25, repo.quantity(1, 10))

	// Inbound 50 -> 40 takes back the 10 that was over-received.
	m, err = svc.UpdateMovement(ctx, in.ID, 40, 7)
	require.NoError(t, err)
	require.EqualValues(t, 40, m.Quantity)
	require.EqualValues(t, 15, repo.quantity(1, 10))
}

func TestUpdateMovementTransfer(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.RecordInbound(ctx, InboundInput{ProductID: 1, LocationID: 10, Quantity: 100, ActorID: 7})
	require.NoError(t, err)
	tr, err := svc.RecordTransfer(ctx, TransferInput{
		ProductID: 1, FromLocationID: 10, ToLocationID: 20, Quantity: 30, ActorID: 7,
	})
	require.NoError(t, err)

	_, err = svc.UpdateMovement(ctx, tr.ID, 40, 7)
	require.NoError(t, err)
	require.EqualValues(t, 60, repo.quantity(1, 10))
	require.EqualValues(t, 40, repo.quantity(1, 20))
}

func TestUpdateMovementNotFound(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	_, err := svc.UpdateMovement(context.Background(), 404, 10, 7)
	require.ErrorIs(t, err, ErrMovementNotFound)
}

func TestSetQuantityRejectsNegative(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)

	err := svc.SetQuantity(context.Background(), 1, 10, -1)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

// Quantities must track the movement history exactly, with every step
// clamped at zero independently.
func TestLedgerTracksRandomHistory(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	var expected int64
	_, err := svc.RecordInbound(ctx, InboundInput{ProductID: 1, LocationID: 10, Quantity: 100, ActorID: 7})
	require.NoError(t, err)
	expected = 100

	for i := 0; i < 200; i++ {
		qty := rng.Int63n(40) + 1
		if rng.Intn(2) == 0 {
			_, err = svc.RecordInbound(ctx, InboundInput{ProductID: 1, LocationID: 10, Quantity: qty, ActorID: 7})
			require.NoError(t, err)
			expected += qty
		} else {
			_, err = svc.RecordOutbound(ctx, OutboundInput{ProductID: 1, LocationID: 10, Quantity: qty, ActorID: 7})
			require.NoError(t, err)
			expected -= qty
			if expected < 0 {
				expected = 0
			}
		}
		require.EqualValues(t, expected, repo.quantity(1, 10), "step %d", i)
	}
}
