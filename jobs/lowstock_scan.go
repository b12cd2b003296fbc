package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LowStockScanner sweeps the ledger for products at or below their reorder
// level, raising alerts and resolving ones that have recovered.
type LowStockScanner struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewLowStockScanner constructs the scanner.
func NewLowStockScanner(pool *pgxpool.Pool, logger *slog.Logger) *LowStockScanner {
	return &LowStockScanner{pool: pool, logger: logger}
}

// Handle processes TaskLowStockScan tasks.
func (s *LowStockScanner) Handle(ctx context.Context, t *asynq.Task) error {
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	raised, err := s.raiseAlerts(ctx)
	if err != nil {
		return err
	}
	resolved, err := s.resolveRecovered(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("low stock scan complete",
		slog.Int64("raised", raised), slog.Int64("resolved", resolved))
	return nil
}

// raiseAlerts upserts one open alert per (product, location) at or below the
// reorder level. An existing open alert is refreshed, not duplicated.
func (s *LowStockScanner) raiseAlerts(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO stock_alerts (product_id, location_id, alert_type, quantity, reorder_level, raised_at)
		SELECT sl.product_id, sl.location_id,
		       CASE WHEN sl.quantity = 0 THEN 'out_of_stock' ELSE 'low_stock' END,
		       sl.quantity, p.reorder_level, NOW()
		FROM stock_levels sl
		JOIN products p ON p.id = sl.product_id AND p.is_active
		WHERE sl.quantity <= p.reorder_level
		ON CONFLICT (product_id, location_id) WHERE resolved_at IS NULL
		DO UPDATE SET
			alert_type = EXCLUDED.alert_type,
			quantity = EXCLUDED.quantity,
			reorder_level = EXCLUDED.reorder_level`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// resolveRecovered closes open alerts whose stock is back above the threshold.
func (s *LowStockScanner) resolveRecovered(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE stock_alerts a
		SET resolved_at = NOW()
		FROM stock_levels sl
		JOIN products p ON p.id = sl.product_id
		WHERE a.resolved_at IS NULL
		  AND a.product_id = sl.product_id
		  AND a.location_id = sl.location_id
		  AND sl.quantity > p.reorder_level`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
