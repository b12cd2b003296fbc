package stock

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-dist/meridian/internal/platform/db"
)

// DBTX is the subset of pgx operations repositories run against, satisfied by
// both *pgxpool.Pool and pgx.Tx so other modules can share a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// TxRepository exposes the transactional operations used by services.
type TxRepository interface {
	GetLevelForUpdate(ctx context.Context, productID, locationID int64) (Level, error)
	UpsertLevel(ctx context.Context, level Level) error
	InsertMovement(ctx context.Context, m Movement) (int64, error)
	GetMovementForUpdate(ctx context.Context, id int64) (Movement, error)
	UpdateMovementQuantity(ctx context.Context, id, quantity int64) error
	InsertCorrection(ctx context.Context, c Correction) (int64, error)
}

// Repository persists stock data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// NewTxRepository wraps an existing transaction (or pool) so callers in other
// modules can include ledger writes in their own unit of work.
func NewTxRepository(q DBTX) TxRepository {
	return &txRepo{q: q}
}

type txRepo struct {
	q DBTX
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{q: tx})
	})
}

// GetLevel returns the current level or ErrLevelNotFound.
func (r *Repository) GetLevel(ctx context.Context, productID, locationID int64) (Level, error) {
	return scanLevel(r.pool.QueryRow(ctx,
		`SELECT id, product_id, location_id, quantity, last_updated
		 FROM stock_levels WHERE product_id = $1 AND location_id = $2`,
		productID, locationID))
}

// ListLevels returns all levels joined with product and location attributes.
func (r *Repository) ListLevels(ctx context.Context, locationID int64) ([]LevelWithDetails, error) {
	query := `
		SELECT sl.id, sl.product_id, sl.location_id, sl.quantity, sl.last_updated,
		       p.sku, p.name, l.name, p.reorder_level
		FROM stock_levels sl
		JOIN products p ON p.id = sl.product_id
		JOIN locations l ON l.id = sl.location_id`
	args := []interface{}{}
	if locationID != 0 {
		query += ` WHERE sl.location_id = $1`
		args = append(args, locationID)
	}
	query += ` ORDER BY l.name, p.name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLevelDetails(rows)
}

// ListLowStock returns levels at or below the product reorder threshold.
func (r *Repository) ListLowStock(ctx context.Context) ([]LevelWithDetails, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT sl.id, sl.product_id, sl.location_id, sl.quantity, sl.last_updated,
		       p.sku, p.name, l.name, p.reorder_level
		FROM stock_levels sl
		JOIN products p ON p.id = sl.product_id AND p.is_active
		JOIN locations l ON l.id = sl.location_id
		WHERE sl.quantity <= p.reorder_level
		ORDER BY sl.quantity ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLevelDetails(rows)
}

// GetMovement fetches one movement record.
func (r *Repository) GetMovement(ctx context.Context, id int64) (Movement, error) {
	return scanMovement(r.pool.QueryRow(ctx, movementSelect+` WHERE id = $1`, id))
}

// ListMovements returns movements, newest first.
func (r *Repository) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	query := movementSelect
	var conditions []string
	var args []interface{}
	argPos := 1

	if filter.ProductID != 0 {
		conditions = append(conditions, "product_id = $"+strconv.Itoa(argPos))
		args = append(args, filter.ProductID)
		argPos++
	}
	if filter.LocationID != 0 {
		conditions = append(conditions, "location_id = $"+strconv.Itoa(argPos))
		args = append(args, filter.LocationID)
		argPos++
	}
	if filter.Type != "" {
		conditions = append(conditions, "movement_type = $"+strconv.Itoa(argPos))
		args = append(args, string(filter.Type))
		argPos++
	}
	if len(conditions) > 0 {
		query += " WHERE " + conditions[0]
		for _, c := range conditions[1:] {
			query += " AND " + c
		}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(" ORDER BY movement_date DESC, id DESC LIMIT $%d", argPos)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// ListCorrections returns correction records, newest first.
func (r *Repository) ListCorrections(ctx context.Context, productID int64, limit int) ([]Correction, error) {
	query := `SELECT id, product_id, location_id, old_quantity, new_quantity, adjustment,
	                 adjustment_type, reason, performed_by, correction_date
	          FROM inventory_corrections`
	var args []interface{}
	argPos := 1
	if productID != 0 {
		query += ` WHERE product_id = $1`
		args = append(args, productID)
		argPos++
	}
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(" ORDER BY correction_date DESC, id DESC LIMIT $%d", argPos)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var corrections []Correction
	for rows.Next() {
		var c Correction
		if err := rows.Scan(&c.ID, &c.ProductID, &c.LocationID, &c.OldQuantity, &c.NewQuantity,
			&c.Adjustment, &c.Type, &c.Reason, &c.PerformedBy, &c.CorrectionDate); err != nil {
			return nil, err
		}
		corrections = append(corrections, c)
	}
	return corrections, rows.Err()
}

const movementSelect = `SELECT id, product_id, location_id, movement_type, quantity,
	COALESCE(unit_type, ''), COALESCE(from_location_id, 0), COALESCE(to_location_id, 0),
	COALESCE(order_id, 0), COALESCE(reference_number, ''), COALESCE(notes, ''),
	performed_by, movement_date
	FROM stock_movements`

func (r *txRepo) GetLevelForUpdate(ctx context.Context, productID, locationID int64) (Level, error) {
	return scanLevel(r.q.QueryRow(ctx,
		`SELECT id, product_id, location_id, quantity, last_updated
		 FROM stock_levels WHERE product_id = $1 AND location_id = $2 FOR UPDATE`,
		productID, locationID))
}

func (r *txRepo) UpsertLevel(ctx context.Context, level Level) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_levels (product_id, location_id, quantity, last_updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id, location_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, last_updated = EXCLUDED.last_updated`,
		level.ProductID, level.LocationID, level.Quantity, level.LastUpdated)
	return err
}

func (r *txRepo) InsertMovement(ctx context.Context, m Movement) (int64, error) {
	var id int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO stock_movements
			(product_id, location_id, movement_type, quantity, unit_type,
			 from_location_id, to_location_id, order_id, reference_number, notes,
			 performed_by, movement_date)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, 0), NULLIF($7, 0),
		        NULLIF($8, 0), NULLIF($9, ''), NULLIF($10, ''), $11, $12)
		RETURNING id`,
		m.ProductID, m.LocationID, string(m.Type), m.Quantity, m.UnitType,
		m.FromLocationID, m.ToLocationID, m.OrderID, m.ReferenceNumber, m.Notes,
		m.PerformedBy, m.MovementDate).Scan(&id)
	return id, err
}

func (r *txRepo) GetMovementForUpdate(ctx context.Context, id int64) (Movement, error) {
	return scanMovement(r.q.QueryRow(ctx, movementSelect+` WHERE id = $1 FOR UPDATE`, id))
}

func (r *txRepo) UpdateMovementQuantity(ctx context.Context, id, quantity int64) error {
	tag, err := r.q.Exec(ctx, `UPDATE stock_movements SET quantity = $1 WHERE id = $2`, quantity, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMovementNotFound
	}
	return nil
}

func (r *txRepo) InsertCorrection(ctx context.Context, c Correction) (int64, error) {
	var id int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO inventory_corrections
			(product_id, location_id, old_quantity, new_quantity, adjustment,
			 adjustment_type, reason, performed_by, correction_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		c.ProductID, c.LocationID, c.OldQuantity, c.NewQuantity, c.Adjustment,
		string(c.Type), c.Reason, c.PerformedBy, c.CorrectionDate).Scan(&id)
	return id, err
}

func scanLevel(row pgx.Row) (Level, error) {
	var lvl Level
	err := row.Scan(&lvl.ID, &lvl.ProductID, &lvl.LocationID, &lvl.Quantity, &lvl.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Level{}, ErrLevelNotFound
		}
		return Level{}, err
	}
	return lvl, nil
}

func scanMovement(row pgx.Row) (Movement, error) {
	var m Movement
	var mtype string
	err := row.Scan(&m.ID, &m.ProductID, &m.LocationID, &mtype, &m.Quantity,
		&m.UnitType, &m.FromLocationID, &m.ToLocationID, &m.OrderID,
		&m.ReferenceNumber, &m.Notes, &m.PerformedBy, &m.MovementDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Movement{}, ErrMovementNotFound
		}
		return Movement{}, err
	}
	m.Type = MovementType(mtype)
	return m, nil
}

func scanLevelDetails(rows pgx.Rows) ([]LevelWithDetails, error) {
	var levels []LevelWithDetails
	for rows.Next() {
		var lvl LevelWithDetails
		if err := rows.Scan(&lvl.ID, &lvl.ProductID, &lvl.LocationID, &lvl.Quantity, &lvl.LastUpdated,
			&lvl.ProductSKU, &lvl.ProductName, &lvl.LocationName, &lvl.ReorderLevel); err != nil {
			return nil, err
		}
		levels = append(levels, lvl)
	}
	return levels, rows.Err()
}
