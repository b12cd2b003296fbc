package stock

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/meridian-dist/meridian/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetLevel(ctx context.Context, productID, locationID int64) (Level, error)
	ListLevels(ctx context.Context, locationID int64) ([]LevelWithDetails, error)
	ListLowStock(ctx context.Context) ([]LevelWithDetails, error)
	GetMovement(ctx context.Context, id int64) (Movement, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error)
	ListCorrections(ctx context.Context, productID int64, limit int) ([]Correction, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates ledger, movement log and correction log operations.
type Service struct {
	repo     RepositoryPort
	audit    AuditPort
	lowStock singleflight.Group
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// RecordInbound appends an inbound movement and credits the ledger, both in
// one transaction.
func (s *Service) RecordInbound(ctx context.Context, input InboundInput) (Movement, error) {
	if input.ProductID == 0 || input.LocationID == 0 {
		return Movement{}, fmt.Errorf("stock: product and location required")
	}
	if input.Quantity <= 0 {
		return Movement{}, ErrInvalidQuantity
	}
	m := Movement{
		ProductID:       input.ProductID,
		LocationID:      input.LocationID,
		Type:            MovementInbound,
		Quantity:        input.Quantity,
		UnitType:        input.UnitType,
		ReferenceNumber: input.ReferenceNumber,
		Notes:           input.Notes,
		PerformedBy:     input.ActorID,
		MovementDate:    time.Now().UTC(),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertMovement(ctx, m)
		if err != nil {
			return err
		}
		m.ID = id
		_, _, err = ApplyAdjustment(ctx, tx, m.ProductID, m.LocationID, m.Quantity, m.MovementDate)
		return err
	})
	if err != nil {
		return Movement{}, err
	}
	s.recordAudit(ctx, input.ActorID, "stock:inbound", m)
	return m, nil
}

// RecordOutbound appends an outbound movement and debits the ledger.
func (s *Service) RecordOutbound(ctx context.Context, input OutboundInput) (Movement, error) {
	if input.ProductID == 0 || input.LocationID == 0 {
		return Movement{}, fmt.Errorf("stock: product and location required")
	}
	if input.Quantity <= 0 {
		return Movement{}, ErrInvalidQuantity
	}
	m := Movement{
		ProductID:    input.ProductID,
		LocationID:   input.LocationID,
		Type:         MovementOutbound,
		Quantity:     input.Quantity,
		UnitType:     input.UnitType,
		OrderID:      input.OrderID,
		Notes:        input.Notes,
		PerformedBy:  input.ActorID,
		MovementDate: time.Now().UTC(),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertMovement(ctx, m)
		if err != nil {
			return err
		}
		m.ID = id
		_, _, err = ApplyAdjustment(ctx, tx, m.ProductID, m.LocationID, -m.Quantity, m.MovementDate)
		return err
	})
	if err != nil {
		return Movement{}, err
	}
	s.recordAudit(ctx, input.ActorID, "stock:outbound", m)
	return m, nil
}

// RecordTransfer posts a single transfer movement and applies both ledger
// changes in the same transaction, so a crash can never surface a partial
// transfer. If the source holds less than the requested quantity, the source
// clamps at zero while the destination still receives the full quantity; the
// movement record preserves the requested amount for reconciliation.
func (s *Service) RecordTransfer(ctx context.Context, input TransferInput) (Movement, error) {
	if input.ProductID == 0 || input.FromLocationID == 0 || input.ToLocationID == 0 {
		return Movement{}, fmt.Errorf("stock: product and locations required")
	}
	if input.FromLocationID == input.ToLocationID {
		return Movement{}, ErrSameLocation
	}
	if input.Quantity <= 0 {
		return Movement{}, ErrInvalidQuantity
	}
	m := Movement{
		ProductID:      input.ProductID,
		LocationID:     input.FromLocationID,
		Type:           MovementTransfer,
		Quantity:       input.Quantity,
		UnitType:       input.UnitType,
		FromLocationID: input.FromLocationID,
		ToLocationID:   input.ToLocationID,
		Notes:          input.Notes,
		PerformedBy:    input.ActorID,
		MovementDate:   time.Now().UTC(),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertMovement(ctx, m)
		if err != nil {
			return err
		}
		m.ID = id
		if _, _, err := ApplyAdjustment(ctx, tx, m.ProductID, m.FromLocationID, -m.Quantity, m.MovementDate); err != nil {
			return err
		}
		_, _, err = ApplyAdjustment(ctx, tx, m.ProductID, m.ToLocationID, m.Quantity, m.MovementDate)
		return err
	})
	if err != nil {
		return Movement{}, err
	}
	s.recordAudit(ctx, input.ActorID, "stock:transfer", m)
	return m, nil
}

// AdjustQuantity applies a manual correction and logs it with old/new
// quantities and the operator's reason.
func (s *Service) AdjustQuantity(ctx context.Context, input CorrectionInput) (Correction, error) {
	if input.ProductID == 0 || input.LocationID == 0 {
		return Correction{}, fmt.Errorf("stock: product and location required")
	}
	if input.Delta == 0 {
		return Correction{}, ErrInvalidAdjustment
	}
	if input.Reason == "" {
		return Correction{}, ErrReasonRequired
	}
	now := time.Now().UTC()
	adjType := AdjustmentAdd
	if input.Delta < 0 {
		adjType = AdjustmentSubtract
	}
	var correction Correction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		old, updated, err := ApplyAdjustment(ctx, tx, input.ProductID, input.LocationID, input.Delta, now)
		if err != nil {
			return err
		}
		correction = Correction{
			ProductID:      input.ProductID,
			LocationID:     input.LocationID,
			OldQuantity:    old,
			NewQuantity:    updated,
			Adjustment:     input.Delta,
			Type:           adjType,
			Reason:         input.Reason,
			PerformedBy:    input.ActorID,
			CorrectionDate: now,
		}
		id, err := tx.InsertCorrection(ctx, correction)
		if err != nil {
			return err
		}
		correction.ID = id
		return nil
	})
	if err != nil {
		return Correction{}, err
	}
	s.recordAudit(ctx, input.ActorID, "stock:correction", Movement{
		ProductID: input.ProductID, LocationID: input.LocationID, Quantity: input.Delta,
	})
	return correction, nil
}

// SetQuantity upserts an absolute stock level. Values below zero are rejected;
// otherwise the caller is trusted, matching the original screen behaviour.
func (s *Service) SetQuantity(ctx context.Context, productID, locationID, quantity int64) error {
	if productID == 0 || locationID == 0 {
		return fmt.Errorf("stock: product and location required")
	}
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpsertLevel(ctx, Level{
			ProductID:   productID,
			LocationID:  locationID,
			Quantity:    quantity,
			LastUpdated: time.Now().UTC(),
		})
	})
}

// UpdateMovement rewrites a historical movement's quantity. The ledger is
// adjusted by the direction-corrected difference before the record is
// overwritten, keeping level rows consistent with the edited log.
func (s *Service) UpdateMovement(ctx context.Context, id, newQuantity, actorID int64) (Movement, error) {
	if newQuantity <= 0 {
		return Movement{}, ErrInvalidQuantity
	}
	var updated Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		m, err := tx.GetMovementForUpdate(ctx, id)
		if err != nil {
			return err
		}
		delta := newQuantity - m.Quantity
		if delta != 0 {
			now := time.Now().UTC()
			switch m.Type {
			case MovementOutbound:
				_, _, err = ApplyAdjustment(ctx, tx, m.ProductID, m.LocationID, -delta, now)
			case MovementTransfer:
				if _, _, err = ApplyAdjustment(ctx, tx, m.ProductID, m.FromLocationID, -delta, now); err != nil {
					return err
				}
				_, _, err = ApplyAdjustment(ctx, tx, m.ProductID, m.ToLocationID, delta, now)
			default:
				_, _, err = ApplyAdjustment(ctx, tx, m.ProductID, m.LocationID, delta, now)
			}
			if err != nil {
				return err
			}
		}
		if err := tx.UpdateMovementQuantity(ctx, id, newQuantity); err != nil {
			return err
		}
		m.Quantity = newQuantity
		updated = m
		return nil
	})
	if err != nil {
		return Movement{}, err
	}
	s.recordAudit(ctx, actorID, "stock:movement-edit", updated)
	return updated, nil
}

// GetLevel returns the current quantity for (product, location).
func (s *Service) GetLevel(ctx context.Context, productID, locationID int64) (Level, error) {
	return s.repo.GetLevel(ctx, productID, locationID)
}

// ListLevels lists stock levels, optionally scoped to one location.
func (s *Service) ListLevels(ctx context.Context, locationID int64) ([]LevelWithDetails, error) {
	return s.repo.ListLevels(ctx, locationID)
}

// ListLowStock reports levels at or below their reorder threshold. Concurrent
// dashboard refreshes collapse into a single query.
func (s *Service) ListLowStock(ctx context.Context) ([]LevelWithDetails, error) {
	result, err, _ := s.lowStock.Do("low_stock", func() (interface{}, error) {
		return s.repo.ListLowStock(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]LevelWithDetails), nil
}

// ListMovements lists movement records.
func (s *Service) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	return s.repo.ListMovements(ctx, filter)
}

// ListCorrections lists correction records.
func (s *Service) ListCorrections(ctx context.Context, productID int64, limit int) ([]Correction, error) {
	return s.repo.ListCorrections(ctx, productID, limit)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, m Movement) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "stock_movement",
		EntityID: fmt.Sprintf("%d:%d", m.ProductID, m.LocationID),
		Meta: map[string]any{
			"movement_id": m.ID,
			"product_id":  m.ProductID,
			"location_id": m.LocationID,
			"quantity":    m.Quantity,
		},
	})
}
