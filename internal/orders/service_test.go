package orders

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-dist/meridian/internal/catalog/outlets"
	"github.com/meridian-dist/meridian/internal/stock"
)

type levelKey struct {
	productID  int64
	locationID int64
}

// fakeRepo keeps state in memory and snapshots it around WithTx, so a failed
// callback leaves no partial mutation, matching transactional semantics.
type fakeRepo struct {
	orders     map[int64]Order
	items      map[int64]OrderItem
	deliveries []Delivery
	counters   map[string]int64
	levels     map[levelKey]stock.Level
	movements  []stock.Movement
	nextID     int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:   make(map[int64]Order),
		items:    make(map[int64]OrderItem),
		counters: make(map[string]int64),
		levels:   make(map[levelKey]stock.Level),
		nextID:   1,
	}
}

func (f *fakeRepo) snapshot() *fakeRepo {
	clone := &fakeRepo{
		orders:     make(map[int64]Order, len(f.orders)),
		items:      make(map[int64]OrderItem, len(f.items)),
		deliveries: append([]Delivery(nil), f.deliveries...),
		counters:   make(map[string]int64, len(f.counters)),
		levels:     make(map[levelKey]stock.Level, len(f.levels)),
		movements:  append([]stock.Movement(nil), f.movements...),
		nextID:     f.nextID,
	}
	for k, v := range f.orders {
		clone.orders[k] = v
	}
	for k, v := range f.items {
		clone.items[k] = v
	}
	for k, v := range f.counters {
		clone.counters[k] = v
	}
	for k, v := range f.levels {
		clone.levels[k] = v
	}
	return clone
}

func (f *fakeRepo) restore(s *fakeRepo) {
	f.orders = s.orders
	f.items = s.items
	f.deliveries = s.deliveries
	f.counters = s.counters
	f.levels = s.levels
	f.movements = s.movements
	f.nextID = s.nextID
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	before := f.snapshot()
	if err := fn(ctx, f); err != nil {
		f.restore(before)
		return err
	}
	return nil
}

func (f *fakeRepo) id() int64 {
	id := f.nextID
	f.nextID++
	return id
}

func (f *fakeRepo) NextSequence(_ context.Context, name string, start int64) (int64, error) {
	if _, ok := f.counters[name]; !ok {
		f.counters[name] = start
		return start, nil
	}
	f.counters[name]++
	return f.counters[name], nil
}

func (f *fakeRepo) InsertOrder(_ context.Context, o Order) (int64, error) {
	o.ID = f.id()
	f.orders[o.ID] = o
	return o.ID, nil
}

func (f *fakeRepo) InsertItems(_ context.Context, orderID int64, items []OrderItem) error {
	for _, item := range items {
		item.ID = f.id()
		item.OrderID = orderID
		f.items[item.ID] = item
	}
	return nil
}

func (f *fakeRepo) GetOrder(_ context.Context, id int64) (Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeRepo) GetOrderForUpdate(ctx context.Context, id int64) (Order, error) {
	return f.GetOrder(ctx, id)
}

func (f *fakeRepo) GetItems(_ context.Context, orderID int64) ([]OrderItem, error) {
	var out []OrderItem
	for id := int64(1); id < f.nextID; id++ {
		if item, ok := f.items[id]; ok && item.OrderID == orderID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetItemsForUpdate(ctx context.Context, orderID int64) ([]OrderItem, error) {
	return f.GetItems(ctx, orderID)
}

func (f *fakeRepo) UpdateItemDelivered(_ context.Context, itemID, delivered int64) error {
	item, ok := f.items[itemID]
	if !ok {
		return fmt.Errorf("item %d not found", itemID)
	}
	item.DeliveredQuantity = delivered
	f.items[itemID] = item
	return nil
}

func (f *fakeRepo) UpdateOrderStatus(_ context.Context, id int64, status Status, actual *time.Time) error {
	o, ok := f.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	if actual != nil {
		o.ActualDeliveryDate = actual
	}
	f.orders[id] = o
	return nil
}

func (f *fakeRepo) UpdateOrderHeader(_ context.Context, id int64, expected *time.Time, notes *string, total *float64) error {
	o, ok := f.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	if expected != nil {
		o.ExpectedDeliveryDate = expected
	}
	if notes != nil {
		o.Notes = *notes
	}
	o.TotalAmount = total
	f.orders[id] = o
	return nil
}

func (f *fakeRepo) CountDeliveries(_ context.Context, orderID int64) (int, error) {
	n := 0
	for _, d := range f.deliveries {
		if d.OrderID == orderID {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) InsertDelivery(_ context.Context, d Delivery) (int64, error) {
	d.ID = f.id()
	f.deliveries = append(f.deliveries, d)
	return d.ID, nil
}

func (f *fakeRepo) DeleteItems(_ context.Context, orderID int64) error {
	for id, item := range f.items {
		if item.OrderID == orderID {
			delete(f.items, id)
		}
	}
	return nil
}

func (f *fakeRepo) DeleteDeliveries(_ context.Context, orderID int64) error {
	var kept []Delivery
	for _, d := range f.deliveries {
		if d.OrderID != orderID {
			kept = append(kept, d)
		}
	}
	f.deliveries = kept
	return nil
}

func (f *fakeRepo) DeleteOrder(_ context.Context, id int64) error {
	if _, ok := f.orders[id]; !ok {
		return ErrOrderNotFound
	}
	delete(f.orders, id)
	return nil
}

func (f *fakeRepo) GetDetails(ctx context.Context, id int64) (OrderDetails, error) {
	o, err := f.GetOrder(ctx, id)
	if err != nil {
		return OrderDetails{}, err
	}
	items, _ := f.GetItems(ctx, id)
	deliveries, _ := f.GetDeliveries(ctx, id)
	return OrderDetails{Order: o, Items: items, Deliveries: deliveries}, nil
}

func (f *fakeRepo) GetDeliveries(_ context.Context, orderID int64) ([]Delivery, error) {
	var out []Delivery
	for _, d := range f.deliveries {
		if d.OrderID == orderID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeRepo) List(_ context.Context, filter ListFilter) ([]Order, error) {
	var out []Order
	for _, o := range f.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.OutletID != 0 && o.OutletID != filter.OutletID {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeRepo) Stock() stock.TxRepository {
	return &fakeStockTx{repo: f}
}

type fakeStockTx struct {
	repo *fakeRepo
}

func (f *fakeStockTx) GetLevelForUpdate(_ context.Context, productID, locationID int64) (stock.Level, error) {
	lvl, ok := f.repo.levels[levelKey{productID, locationID}]
	if !ok {
		return stock.Level{}, stock.ErrLevelNotFound
	}
	return lvl, nil
}

func (f *fakeStockTx) UpsertLevel(_ context.Context, level stock.Level) error {
	f.repo.levels[levelKey{level.ProductID, level.LocationID}] = level
	return nil
}

func (f *fakeStockTx) InsertMovement(_ context.Context, m stock.Movement) (int64, error) {
	m.ID = f.repo.id()
	f.repo.movements = append(f.repo.movements, m)
	return m.ID, nil
}

func (f *fakeStockTx) GetMovementForUpdate(_ context.Context, id int64) (stock.Movement, error) {
	for _, m := range f.repo.movements {
		if m.ID == id {
			return m, nil
		}
	}
	return stock.Movement{}, stock.ErrMovementNotFound
}

func (f *fakeStockTx) UpdateMovementQuantity(_ context.Context, id, quantity int64) error {
	for i := range f.repo.movements {
		if f.repo.movements[i].ID == id {
			f.repo.movements[i].Quantity = quantity
			return nil
		}
	}
	return stock.ErrMovementNotFound
}

func (f *fakeStockTx) InsertCorrection(_ context.Context, c stock.Correction) (int64, error) {
	return f.repo.id(), nil
}

type fakeOutlets struct {
	outlets map[int64]outlets.Outlet
}

func (f *fakeOutlets) Get(_ context.Context, id int64) (outlets.Outlet, error) {
	o, ok := f.outlets[id]
	if !ok {
		return outlets.Outlet{}, fmt.Errorf("outlet %d not found", id)
	}
	return o, nil
}

func newTestService(repo *fakeRepo) *Service {
	outletPort := &fakeOutlets{outlets: map[int64]outlets.Outlet{
		1: {ID: 1, ClientID: 5, Name: "Kopitiam Corner", Code: "KOP"},
		2: {ID: 2, ClientID: 5, Name: "Main Street Store"},
	}}
	svc := NewService(repo, outletPort, nil, 84)
	svc.now = func() time.Time {
		return time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	}
	return svc
}

func seedStock(repo *fakeRepo, productID, locationID, qty int64) {
	repo.levels[levelKey{productID, locationID}] = stock.Level{
		ProductID: productID, LocationID: locationID, Quantity: qty,
	}
}

func price(v float64) *float64 { return &v }

func TestCreateOrderNumbering(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateOrderInput{
		OutletID: 1,
		Items:    []ItemInput{{ProductID: 1, Quantity: 10}},
		ActorID:  7,
	})
	require.NoError(t, err)
	require.Equal(t, "KOP-150124-84", first.OrderNumber)
	require.Equal(t, StatusPending, first.Status)

	second, err := svc.Create(ctx, CreateOrderInput{
		OutletID: 2,
		Items:    []ItemInput{{ProductID: 2, Quantity: 3}},
		ActorID:  7,
	})
	require.NoError(t, err)
	require.Equal(t, "MAI-150124-85", second.OrderNumber)
	require.NotEqual(t, first.OrderNumber, second.OrderNumber)
}

func TestCreateOrderSequenceDistinct(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 25; i++ {
		o, err := svc.Create(ctx, CreateOrderInput{
			OutletID: 1,
			Items:    []ItemInput{{ProductID: 1, Quantity: 1}},
			ActorID:  7,
		})
		require.NoError(t, err)
		require.False(t, seen[o.OrderNumber], "duplicate order number %s", o.OrderNumber)
		seen[o.OrderNumber] = true
	}
}

func TestCreateOrderComputesTotal(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	o, err := svc.Create(context.Background(), CreateOrderInput{
		OutletID: 1,
		Items: []ItemInput{
			{ProductID: 1, Quantity: 10, UnitPrice: price(2.5)},
			{ProductID: 2, Quantity: 4},
			{ProductID: 3, Quantity: 2, UnitPrice: price(10)},
		},
		ActorID: 7,
	})
	require.NoError(t, err)
	require.NotNil(t, o.TotalAmount)
	require.InDelta(t, 45.0, *o.TotalAmount, 1e-9)
}

func TestCreateOrderUnknownOutlet(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.Create(context.Background(), CreateOrderInput{
		OutletID: 42,
		Items:    []ItemInput{{ProductID: 1, Quantity: 1}},
		ActorID:  7,
	})
	require.ErrorIs(t, err, ErrOutletNotFound)
}

func TestMarkDeliveredPartialThenComplete(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	seedStock(repo, 1, 10, 100)

	o, err := svc.Create(ctx, CreateOrderInput{
		OutletID: 1,
		Items:    []ItemInput{{ProductID: 1, Quantity: 10}},
		ActorID:  7,
	})
	require.NoError(t, err)
	items, err := repo.GetItems(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	itemID := items[0].ID

	err = svc.MarkDelivered(ctx, o.ID, MarkDeliveredInput{
		LocationID: 10,
		Items:      []DeliveredItemInput{{OrderItemID: itemID, DeliveredQuantity: 6}},
		ActorID:    7,
	})
	require.NoError(t, err)

	got, _ := repo.GetOrder(ctx, o.ID)
	require.Equal(t, StatusPartiallyDelivered, got.Status)
	require.Nil(t, got.ActualDeliveryDate)
	items, _ = repo.GetItems(ctx, o.ID)
	require.EqualValues(t, 6, items[0].DeliveredQuantity)
	require.EqualValues(t, 94, repo.levels[levelKey{1, 10}].Quantity)

	err = svc.MarkDelivered(ctx, o.ID, MarkDeliveredInput{
		LocationID: 10,
		Items:      []DeliveredItemInput{{OrderItemID: itemID, DeliveredQuantity: 4}},
		ActorID:    7,
	})
	require.NoError(t, err)

	got, _ = repo.GetOrder(ctx, o.ID)
	require.Equal(t, StatusDelivered, got.Status)
	require.NotNil(t, got.ActualDeliveryDate)
	items, _ = repo.GetItems(ctx, o.ID)
	require.EqualValues(t, 10, items[0].DeliveredQuantity)
	require.EqualValues(t, 90, repo.levels[levelKey{1, 10}].Quantity)

	deliveries, _ := repo.GetDeliveries(ctx, o.ID)
	require.Len(t, deliveries, 2)
	require.Equal(t, 1, deliveries[0].DeliveryNumber)
	require.Equal(t, 2, deliveries[1].DeliveryNumber)
}

func TestMarkDeliveredMovementNote(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	seedStock(repo, 1, 10, 100)

	o, err := svc.Create(ctx, CreateOrderInput{
		OutletID: 1,
		Items:    []ItemInput{{ProductID: 1, Quantity: 10}},
		ActorID:  7,
	})
	require.NoError(t, err)
	items, _ := repo.GetItems(ctx, o.ID)

	err = svc.MarkDelivered(ctx, o.ID, MarkDeliveredInput{
		LocationID: 10,
		Items:      []DeliveredItemInput{{OrderItemID: items[0].ID, DeliveredQuantity: 6}},
		ActorID:    7,
	})
	require.NoError(t, err)

	require.Len(t, repo.movements, 1)
	m := repo.movements[0]
	require.Equal(t, stock.MovementOutbound, m.Type)
	require.Equal(t, o.ID, m.OrderID)
	require.Equal(t,
		fmt.Sprintf("Order %s - Delivery #1 (6 of 10 ordered, 6 total delivered)", o.OrderNumber),
		m.Notes)
}

func TestMarkDeliveredOverDeliveryRollsBack(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	seedStock(repo, 1, 10, 100)
	seedStock(repo, 2, 10, 100)

	o, err := svc.Create(ctx, CreateOrderInput{
		OutletID: 1,
		Items: []ItemInput{
			{ProductID: 1, Quantity: 10},
			{ProductID: 2, Quantity: 4},
		},
		ActorID: 7,
	})
	require.NoError(t, err)
	items, _ := repo.GetItems(ctx, o.ID)
	require.Len(t, items, 2)

	err = svc.MarkDelivered(ctx, o.ID, MarkDeliveredInput{
		LocationID: 10,
		Items: []DeliveredItemInput{
			{OrderItemID: items[0].ID, DeliveredQuantity: 6},
			{OrderItemID: items[1].ID, DeliveredQuantity: 5}, // remaining is 4
		},
		ActorID: 7,
	})
	require.ErrorIs(t, err, ErrOverDelivery)

	// Item 1's patch and its ledger decrement must have been rolled back.
	items, _ = repo.GetItems(ctx, o.ID)
	require.EqualValues(t, 0, items[0].DeliveredQuantity)
	require.EqualValues(t, 0, items[1].DeliveredQuantity)
	require.EqualValues(t, 100, repo.levels[levelKey{1, 10}].Quantity)
	require.Empty(t, repo.movements)
	deliveries, _ := repo.GetDeliveries(ctx, o.ID)
	require.Empty(t, deliveries)
	got, _ := repo.GetOrder(ctx, o.ID)
	require.Equal(t, StatusPending, got.Status)
}

func TestMarkDeliveredRejectsNegativeQuantity(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	seedStock(repo, 1, 10, 100)

	o, err := svc.Create(ctx, CreateOrderInput{
		OutletID: 1,
		Items:    []ItemInput{{ProductID: 1, Quantity: 10}},
		ActorID:  7,
	})
	require.NoError(t, err)
	items, _ := repo.GetItems(ctx, o.ID)

	err = svc.MarkDelivered(ctx, o.ID, MarkDeliveredInput{
		LocationID: 10,
		Items: []DeliveredItemInput{
			{OrderItemID: items[0].ID, DeliveredQuantity: 4},
		},
		ActorID: 7,
	})
	require.NoError(t, err)

	// A negative entry must not shrink the cumulative total.
	err = svc.MarkDelivered(ctx, o.ID, MarkDeliveredInput{
		LocationID: 10,
		Items: []DeliveredItemInput{
			{OrderItemID: items[0].ID, DeliveredQuantity: -3},
		},
		ActorID: 7,
	})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	items, _ = repo.GetItems(ctx, o.ID)
	require.EqualValues(t, 4, items[0].DeliveredQuantity)
	require.EqualValues(t, 96, repo.levels[levelKey{1, 10}].Quantity)
	deliveries, _ := repo.GetDeliveries(ctx, o.ID)
	require.Len(t, deliveries, 1)
}

func TestMarkDeliveredSkipsUnknownItemIDs(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	seedStock(repo, 1, 10, 100)

	o, err := svc.Create(ctx, CreateOrderInput{
		OutletID: 1,
		Items:    []ItemInput{{ProductID: 1, Quantity: 10}},
		ActorID:  7,
	})
	require.NoError(t, err)
	items, _ := repo.GetItems(ctx, o.ID)

	err = svc.MarkDelivered(ctx, o.ID, MarkDeliveredInput{
		LocationID: 10,
		Items: []DeliveredItemInput{
			{OrderItemID: 9999, DeliveredQuantity: 50},
			{OrderItemID: items[0].ID, DeliveredQuantity: 10},
		},
		ActorID: 7,
	})
	require.NoError(t, err)

	got, _ := repo.GetOrder(ctx, o.ID)
	require.Equal(t, StatusDelivered, got.Status)
	require.Len(t, repo.movements, 1)
	require.EqualValues(t, 90, repo.levels[levelKey{1, 10}].Quantity)
}

func TestMarkDeliveredAlreadyDelivered(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	seedStock(repo, 1, 10, 100)

	o, err := svc.Create(ctx, CreateOrderInput{
		OutletID: 1,
		Items:    []ItemInput{{ProductID: 1, Quantity: 5}},
		ActorID:  7,
	})
	require.NoError(t, err)
	items, _ := repo.GetItems(ctx, o.ID)

	err = svc.MarkDelivered(ctx, o.ID, MarkDeliveredInput{
		LocationID: 10,
		Items:      []DeliveredItemInput{{OrderItemID: items[0].ID, DeliveredQuantity: 5}},
		ActorID:    7,
	})
	require.NoError(t, err)

	err = svc.MarkDelivered(ctx, o.ID, MarkDeliveredInput{
		LocationID: 10,
		Items:      []DeliveredItemInput{{OrderItemID: items[0].ID, DeliveredQuantity: 1}},
		ActorID:    7,
	})
	require.ErrorIs(t, err, ErrAlreadyDelivered)
}

func TestMarkDeliveredRequiresLocation(t *testing.T) {
	svc := newTestService(newFakeRepo())

	err := svc.MarkDelivered(context.Background(), 1, MarkDeliveredInput{
		Items:   []DeliveredItemInput{{OrderItemID: 1, DeliveredQuantity: 1}},
		ActorID: 7,
	})
	require.ErrorIs(t, err, ErrLocationRequired)
}

func TestUpdateStatusDirectDelivered(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	seedStock(repo, 1, 10, 50)
	seedStock(repo, 2, 10, 50)

	o, err := svc.Create(ctx, CreateOrderInput{
		OutletID: 1,
		Items: []ItemInput{
			{ProductID: 1, Quantity: 10},
			{ProductID: 2, Quantity: 5},
		},
		ActorID: 7,
	})
	require.NoError(t, err)

	err = svc.UpdateStatus(ctx, o.ID, UpdateStatusInput{Status: StatusDelivered, ActorID: 7})
	require.ErrorIs(t, err, ErrLocationRequired)

	err = svc.UpdateStatus(ctx, o.ID, UpdateStatusInput{Status: StatusDelivered, LocationID: 10, ActorID: 7})
	require.NoError(t, err)

	got, _ := repo.GetOrder(ctx, o.ID)
	require.Equal(t, StatusDelivered, got.Status)
	require.NotNil(t, got.ActualDeliveryDate)
	// A full-quantity outbound movement per item, ledger decremented.
	require.Len(t, repo.movements, 2)
	require.EqualValues(t, 40, repo.levels[levelKey{1, 10}].Quantity)
	require.EqualValues(t, 45, repo.levels[levelKey{2, 10}].Quantity)
}

func TestUpdateStatusTerminalGuard(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	o, err := svc.Create(ctx, CreateOrderInput{
		OutletID: 1,
		Items:    []ItemInput{{ProductID: 1, Quantity: 1}},
		ActorID:  7,
	})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(ctx, o.ID, UpdateStatusInput{Status: StatusCancelled, ActorID: 7}))

	err = svc.UpdateStatus(ctx, o.ID, UpdateStatusInput{Status: StatusProcessing, ActorID: 7})
	require.ErrorIs(t, err, ErrOrderClosed)
	got, _ := repo.GetOrder(ctx, o.ID)
	require.Equal(t, StatusCancelled, got.Status)
}

func TestUpdateStatusDeliveredTwice(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	seedStock(repo, 1, 10, 50)

	o, err := svc.Create(ctx, CreateOrderInput{
		OutletID: 1,
		Items:    []ItemInput{{ProductID: 1, Quantity: 5}},
		ActorID:  7,
	})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(ctx, o.ID, UpdateStatusInput{Status: StatusDelivered, LocationID: 10, ActorID: 7}))

	err = svc.UpdateStatus(ctx, o.ID, UpdateStatusInput{Status: StatusDelivered, LocationID: 10, ActorID: 7})
	require.ErrorIs(t, err, ErrAlreadyDelivered)
}

func TestUpdateStatusRejectsPartiallyDelivered(t *testing.T) {
	svc := newTestService(newFakeRepo())

	err := svc.UpdateStatus(context.Background(), 1, UpdateStatusInput{
		Status: StatusPartiallyDelivered, ActorID: 7,
	})
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateItemsReplacesAndRecomputes(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	o, err := svc.Create(ctx, CreateOrderInput{
		OutletID: 1,
		Items:    []ItemInput{{ProductID: 1, Quantity: 10, UnitPrice: price(2)}},
		ActorID:  7,
	})
	require.NoError(t, err)

	err = svc.UpdateItems(ctx, o.ID, UpdateItemsInput{
		Items: []ItemInput{
			{ProductID: 2, Quantity: 3, UnitPrice: price(5)},
			{ProductID: 3, Quantity: 7},
		},
		ActorID: 7,
	})
	require.NoError(t, err)

	items, _ := repo.GetItems(ctx, o.ID)
	require.Len(t, items, 2)
	require.EqualValues(t, 2, items[0].ProductID)
	got, _ := repo.GetOrder(ctx, o.ID)
	require.NotNil(t, got.TotalAmount)
	require.InDelta(t, 15.0, *got.TotalAmount, 1e-9)
}

func TestUpdateItemsLockedAfterDelivery(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	seedStock(repo, 1, 10, 100)

	o, err := svc.Create(ctx, CreateOrderInput{
		OutletID: 1,
		Items:    []ItemInput{{ProductID: 1, Quantity: 10}},
		ActorID:  7,
	})
	require.NoError(t, err)
	items, _ := repo.GetItems(ctx, o.ID)

	err = svc.MarkDelivered(ctx, o.ID, MarkDeliveredInput{
		LocationID: 10,
		Items:      []DeliveredItemInput{{OrderItemID: items[0].ID, DeliveredQuantity: 3}},
		ActorID:    7,
	})
	require.NoError(t, err)

	err = svc.UpdateItems(ctx, o.ID, UpdateItemsInput{
		Items:   []ItemInput{{ProductID: 2, Quantity: 1}},
		ActorID: 7,
	})
	require.ErrorIs(t, err, ErrItemsLocked)
	items, _ = repo.GetItems(ctx, o.ID)
	require.EqualValues(t, 3, items[0].DeliveredQuantity)
}

func TestDeleteOrderRules(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	seedStock(repo, 1, 10, 100)

	processing, err := svc.Create(ctx, CreateOrderInput{
		OutletID: 1,
		Items:    []ItemInput{{ProductID: 1, Quantity: 5}},
		ActorID:  7,
	})
	require.NoError(t, err)
	require.NoError(t, svc.UpdateStatus(ctx, processing.ID, UpdateStatusInput{Status: StatusProcessing, ActorID: 7}))

	require.NoError(t, svc.Delete(ctx, processing.ID, 7))
	_, err = repo.GetOrder(ctx, processing.ID)
	require.ErrorIs(t, err, ErrOrderNotFound)
	items, _ := repo.GetItems(ctx, processing.ID)
	require.Empty(t, items)

	partial, err := svc.Create(ctx, CreateOrderInput{
		OutletID: 1,
		Items:    []ItemInput{{ProductID: 1, Quantity: 10}},
		ActorID:  7,
	})
	require.NoError(t, err)
	partialItems, _ := repo.GetItems(ctx, partial.ID)
	err = svc.MarkDelivered(ctx, partial.ID, MarkDeliveredInput{
		LocationID: 10,
		Items:      []DeliveredItemInput{{OrderItemID: partialItems[0].ID, DeliveredQuantity: 4}},
		ActorID:    7,
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, partial.ID, 7)
	require.ErrorIs(t, err, ErrCannotDeleteDelivered)
	_, err = repo.GetOrder(ctx, partial.ID)
	require.NoError(t, err)
}

func TestFormatOrderNumber(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "KOP-150124-85", FormatOrderNumber("KOP", date, 85))
	require.True(t, strings.HasPrefix(FormatOrderNumber("ABC", date, 1), "ABC-150124-"))
}
