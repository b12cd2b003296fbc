package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-dist/meridian/internal/catalog/outlets"
	"github.com/meridian-dist/meridian/internal/shared"
	"github.com/meridian-dist/meridian/internal/stock"
)

// RepositoryPort abstracts order persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, id int64) (Order, error)
	GetDetails(ctx context.Context, id int64) (OrderDetails, error)
	GetItems(ctx context.Context, orderID int64) ([]OrderItem, error)
	GetDeliveries(ctx context.Context, orderID int64) ([]Delivery, error)
	List(ctx context.Context, filter ListFilter) ([]Order, error)
}

// OutletPort looks up outlets for number generation.
type OutletPort interface {
	Get(ctx context.Context, id int64) (outlets.Outlet, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns the order lifecycle: creation with durable numbering, item
// replacement, status transitions, partial deliveries and deletion.
type Service struct {
	repo     RepositoryPort
	outlets  OutletPort
	audit    AuditPort
	seqStart int64
	now      func() time.Time
}

// NewService builds Service. seqStart seeds the order number counter the
// first time it is used.
func NewService(repo RepositoryPort, outletPort OutletPort, audit AuditPort, seqStart int64) *Service {
	return &Service{
		repo:     repo,
		outlets:  outletPort,
		audit:    audit,
		seqStart: seqStart,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create raises a new pending order. The order number is derived from the
// outlet prefix, the creation date and a counter bumped inside the same
// transaction, so concurrent creations never share a sequence number.
func (s *Service) Create(ctx context.Context, input CreateOrderInput) (Order, error) {
	if len(input.Items) == 0 {
		return Order{}, ErrNoItems
	}
	for _, item := range input.Items {
		if item.ProductID <= 0 || item.Quantity <= 0 {
			return Order{}, fmt.Errorf("orders: item product and quantity must be positive")
		}
	}

	outlet, err := s.outlets.Get(ctx, input.OutletID)
	if err != nil {
		return Order{}, ErrOutletNotFound
	}

	now := s.now()
	items := buildItems(input.Items)
	order := Order{
		OutletID:             outlet.ID,
		ClientID:             outlet.ClientID,
		Status:               StatusPending,
		OrderDate:            now,
		ExpectedDeliveryDate: input.ExpectedDeliveryDate,
		TotalAmount:          computeTotal(items),
		Notes:                input.Notes,
		CreatedBy:            input.ActorID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		seq, err := tx.NextSequence(ctx, orderSequenceName, s.seqStart)
		if err != nil {
			return err
		}
		order.OrderNumber = FormatOrderNumber(outlet.NumberPrefix(), now, seq)
		id, err := tx.InsertOrder(ctx, order)
		if err != nil {
			return err
		}
		order.ID = id
		return tx.InsertItems(ctx, id, items)
	})
	if err != nil {
		return Order{}, err
	}
	s.recordAudit(ctx, input.ActorID, "orders:create", order.ID, map[string]any{
		"order_number": order.OrderNumber,
		"outlet_id":    order.OutletID,
	})
	return order, nil
}

// UpdateItems replaces the order's item set wholesale and recomputes the
// total. Replacement is refused once a delivery exists, because the old
// items' cumulative delivered quantities cannot survive the swap.
func (s *Service) UpdateItems(ctx context.Context, orderID int64, input UpdateItemsInput) error {
	if len(input.Items) == 0 {
		return ErrNoItems
	}
	items := buildItems(input.Items)
	total := computeTotal(items)

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return ErrOrderClosed
		}
		count, err := tx.CountDeliveries(ctx, orderID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrItemsLocked
		}
		if err := tx.DeleteItems(ctx, orderID); err != nil {
			return err
		}
		if err := tx.InsertItems(ctx, orderID, items); err != nil {
			return err
		}
		return tx.UpdateOrderHeader(ctx, orderID, input.ExpectedDeliveryDate, input.Notes, total)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, input.ActorID, "orders:update-items", orderID, map[string]any{
		"item_count": len(items),
	})
	return nil
}

// UpdateStatus applies a direct status edit. Terminal orders never change
// again. Setting delivered requires a source location and posts a
// full-quantity outbound movement with a ledger decrement for every item, all
// in the same transaction. partially_delivered is reserved for the delivery
// flow.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, input UpdateStatusInput) error {
	if !input.Status.Valid() || input.Status == StatusPartiallyDelivered {
		return ErrInvalidStatus
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status == StatusDelivered && input.Status == StatusDelivered {
			return ErrAlreadyDelivered
		}
		if order.Status.IsTerminal() {
			return ErrOrderClosed
		}
		if input.Status != StatusDelivered {
			return tx.UpdateOrderStatus(ctx, orderID, input.Status, nil)
		}

		if input.LocationID <= 0 {
			return ErrLocationRequired
		}
		items, err := tx.GetItemsForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		now := s.now()
		ledger := tx.Stock()
		for _, item := range items {
			movement := stock.Movement{
				ProductID:    item.ProductID,
				LocationID:   input.LocationID,
				Type:         stock.MovementOutbound,
				Quantity:     item.Quantity,
				UnitType:     item.UnitType,
				OrderID:      orderID,
				Notes:        fmt.Sprintf("Order %s marked delivered", order.OrderNumber),
				PerformedBy:  input.ActorID,
				MovementDate: now,
			}
			if _, err := ledger.InsertMovement(ctx, movement); err != nil {
				return err
			}
			if _, _, err := stock.ApplyAdjustment(ctx, ledger, item.ProductID, input.LocationID, -item.Quantity, now); err != nil {
				return err
			}
		}
		actual := now
		return tx.UpdateOrderStatus(ctx, orderID, StatusDelivered, &actual)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, input.ActorID, "orders:update-status", orderID, map[string]any{
		"status": string(input.Status),
	})
	return nil
}

// MarkDelivered records one fulfillment event. Entries whose order item id
// does not belong to the order are skipped without error; a quantity above an
// item's remaining balance fails the whole call with ErrOverDelivery and
// nothing is persisted. For every positive entry it patches the item's
// cumulative delivered quantity, posts an annotated outbound movement and
// decrements the ledger, then stores a single Delivery record. The order
// moves to delivered when every item is complete, otherwise to
// partially_delivered; the actual delivery date is set only on completion.
func (s *Service) MarkDelivered(ctx context.Context, orderID int64, input MarkDeliveredInput) error {
	if input.LocationID <= 0 {
		return ErrLocationRequired
	}
	if len(input.Items) == 0 {
		return ErrNoItems
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status == StatusDelivered {
			return ErrAlreadyDelivered
		}
		if order.Status == StatusCancelled {
			return ErrOrderClosed
		}

		count, err := tx.CountDeliveries(ctx, orderID)
		if err != nil {
			return err
		}
		deliveryNumber := count + 1

		items, err := tx.GetItemsForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		byID := make(map[int64]*OrderItem, len(items))
		for i := range items {
			byID[items[i].ID] = &items[i]
		}

		now := s.now()
		ledger := tx.Stock()
		var lines []DeliveryItem
		for _, entry := range input.Items {
			item, ok := byID[entry.OrderItemID]
			if !ok {
				// Stale or foreign item ids are skipped.
				continue
			}
			if entry.DeliveredQuantity < 0 {
				return ErrInvalidQuantity
			}
			if entry.DeliveredQuantity > item.Remaining() {
				return ErrOverDelivery
			}
			item.DeliveredQuantity += entry.DeliveredQuantity
			if err := tx.UpdateItemDelivered(ctx, item.ID, item.DeliveredQuantity); err != nil {
				return err
			}
			if entry.DeliveredQuantity <= 0 {
				continue
			}

			lines = append(lines, DeliveryItem{
				OrderItemID:       item.ID,
				ProductID:         item.ProductID,
				QuantityDelivered: entry.DeliveredQuantity,
			})
			movement := stock.Movement{
				ProductID:   item.ProductID,
				LocationID:  input.LocationID,
				Type:        stock.MovementOutbound,
				Quantity:    entry.DeliveredQuantity,
				UnitType:    item.UnitType,
				OrderID:     orderID,
				Notes: fmt.Sprintf("Order %s - Delivery #%d (%d of %d ordered, %d total delivered)",
					order.OrderNumber, deliveryNumber, entry.DeliveredQuantity,
					item.Quantity, item.DeliveredQuantity),
				PerformedBy:  input.ActorID,
				MovementDate: now,
			}
			if _, err := ledger.InsertMovement(ctx, movement); err != nil {
				return err
			}
			if _, _, err := stock.ApplyAdjustment(ctx, ledger, item.ProductID, input.LocationID, -entry.DeliveredQuantity, now); err != nil {
				return err
			}
		}

		if _, err := tx.InsertDelivery(ctx, Delivery{
			OrderID:        orderID,
			DeliveryNumber: deliveryNumber,
			LocationID:     input.LocationID,
			DeliveryDate:   now,
			Notes:          input.Notes,
			DeliveredBy:    input.ActorID,
			Items:          lines,
		}); err != nil {
			return err
		}

		complete := true
		for _, item := range items {
			if item.DeliveredQuantity < item.Quantity {
				complete = false
				break
			}
		}
		if complete {
			actual := now
			return tx.UpdateOrderStatus(ctx, orderID, StatusDelivered, &actual)
		}
		return tx.UpdateOrderStatus(ctx, orderID, StatusPartiallyDelivered, nil)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, input.ActorID, "orders:deliver", orderID, map[string]any{
		"location_id": input.LocationID,
	})
	return nil
}

// Delete removes an order and cascades to its items and deliveries. Orders
// with delivery progress are refused.
func (s *Service) Delete(ctx context.Context, orderID, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status == StatusDelivered || order.Status == StatusPartiallyDelivered {
			return ErrCannotDeleteDelivered
		}
		if err := tx.DeleteDeliveries(ctx, orderID); err != nil {
			return err
		}
		if err := tx.DeleteItems(ctx, orderID); err != nil {
			return err
		}
		return tx.DeleteOrder(ctx, orderID)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "orders:delete", orderID, nil)
	return nil
}

// Get loads the full aggregate.
func (s *Service) Get(ctx context.Context, orderID int64) (OrderDetails, error) {
	return s.repo.GetDetails(ctx, orderID)
}

// List returns order headers matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	return s.repo.List(ctx, filter)
}

func buildItems(inputs []ItemInput) []OrderItem {
	items := make([]OrderItem, 0, len(inputs))
	for _, in := range inputs {
		item := OrderItem{
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			UnitType:  in.UnitType,
			UnitPrice: in.UnitPrice,
		}
		if in.UnitPrice != nil {
			total := *in.UnitPrice * float64(in.Quantity)
			item.LineTotal = &total
		}
		items = append(items, item)
	}
	return items
}

func computeTotal(items []OrderItem) *float64 {
	var total float64
	priced := false
	for _, item := range items {
		if item.LineTotal != nil {
			total += *item.LineTotal
			priced = true
		}
	}
	if !priced {
		return nil
	}
	return &total
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, orderID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "order",
		EntityID: fmt.Sprintf("%d", orderID),
		Meta:     meta,
	})
}
