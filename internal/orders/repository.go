package orders

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-dist/meridian/internal/platform/db"
	"github.com/meridian-dist/meridian/internal/stock"
)

// TxRepository exposes the transactional order operations. Stock returns a
// ledger repository bound to the same transaction, so delivery postings and
// quantity decrements commit or roll back together.
type TxRepository interface {
	NextSequence(ctx context.Context, name string, start int64) (int64, error)
	InsertOrder(ctx context.Context, o Order) (int64, error)
	InsertItems(ctx context.Context, orderID int64, items []OrderItem) error
	GetOrderForUpdate(ctx context.Context, id int64) (Order, error)
	GetItemsForUpdate(ctx context.Context, orderID int64) ([]OrderItem, error)
	UpdateItemDelivered(ctx context.Context, itemID, delivered int64) error
	UpdateOrderStatus(ctx context.Context, id int64, status Status, actualDeliveryDate *time.Time) error
	UpdateOrderHeader(ctx context.Context, id int64, expected *time.Time, notes *string, total *float64) error
	CountDeliveries(ctx context.Context, orderID int64) (int, error)
	InsertDelivery(ctx context.Context, d Delivery) (int64, error)
	DeleteItems(ctx context.Context, orderID int64) error
	DeleteDeliveries(ctx context.Context, orderID int64) error
	DeleteOrder(ctx context.Context, id int64) error
	Stock() stock.TxRepository
}

// Repository persists orders in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{q: tx})
	})
}

const orderColumns = `id, order_number, outlet_id, client_id, status, order_date,
	expected_delivery_date, actual_delivery_date, total_amount, COALESCE(notes, ''),
	created_by, created_at, updated_at`

// GetOrder returns the order header or ErrOrderNotFound.
func (r *Repository) GetOrder(ctx context.Context, id int64) (Order, error) {
	return scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

// GetDetails loads the aggregate with outlet and client names.
func (r *Repository) GetDetails(ctx context.Context, id int64) (OrderDetails, error) {
	var d OrderDetails
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return OrderDetails{}, err
	}
	d.Order = o

	err = r.pool.QueryRow(ctx, `
		SELECT o.name, c.name FROM outlets o
		JOIN clients c ON c.id = o.client_id
		WHERE o.id = $1`, o.OutletID).Scan(&d.OutletName, &d.ClientName)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return OrderDetails{}, err
	}

	d.Items, err = r.GetItems(ctx, id)
	if err != nil {
		return OrderDetails{}, err
	}
	d.Deliveries, err = r.GetDeliveries(ctx, id)
	if err != nil {
		return OrderDetails{}, err
	}
	return d, nil
}

// GetItems returns the order's line items.
func (r *Repository) GetItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := r.pool.Query(ctx, itemSelect+` WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// GetDeliveries returns all deliveries with their lines, oldest first.
func (r *Repository) GetDeliveries(ctx context.Context, orderID int64) ([]Delivery, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, delivery_number, location_id, delivery_date,
		       COALESCE(notes, ''), delivered_by
		FROM deliveries WHERE order_id = $1 ORDER BY delivery_number`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []Delivery
	for rows.Next() {
		var d Delivery
		if err := rows.Scan(&d.ID, &d.OrderID, &d.DeliveryNumber, &d.LocationID,
			&d.DeliveryDate, &d.Notes, &d.DeliveredBy); err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range deliveries {
		itemRows, err := r.pool.Query(ctx, `
			SELECT id, delivery_id, order_item_id, product_id, quantity_delivered
			FROM delivery_items WHERE delivery_id = $1 ORDER BY id`, deliveries[i].ID)
		if err != nil {
			return nil, err
		}
		for itemRows.Next() {
			var di DeliveryItem
			if err := itemRows.Scan(&di.ID, &di.DeliveryID, &di.OrderItemID,
				&di.ProductID, &di.QuantityDelivered); err != nil {
				itemRows.Close()
				return nil, err
			}
			deliveries[i].Items = append(deliveries[i].Items, di)
		}
		itemRows.Close()
		if err := itemRows.Err(); err != nil {
			return nil, err
		}
	}
	return deliveries, nil
}

// List returns order headers, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	var conditions []string
	var args []interface{}
	argPos := 1

	if filter.Status != "" {
		conditions = append(conditions, "status = $"+strconv.Itoa(argPos))
		args = append(args, string(filter.Status))
		argPos++
	}
	if filter.OutletID != 0 {
		conditions = append(conditions, "outlet_id = $"+strconv.Itoa(argPos))
		args = append(args, filter.OutletID)
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
	query += " ORDER BY order_date DESC, id DESC LIMIT $" + strconv.Itoa(argPos)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type txRepo struct {
	q stock.DBTX
}

func (r *txRepo) Stock() stock.TxRepository {
	return stock.NewTxRepository(r.q)
}

// NextSequence bumps the named counter and returns the new value. The first
// call seeds the row and returns start itself; the increment is atomic under
// concurrent creations.
func (r *txRepo) NextSequence(ctx context.Context, name string, start int64) (int64, error) {
	var value int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO order_counters (name, current_value)
		VALUES ($1, $2)
		ON CONFLICT (name)
		DO UPDATE SET current_value = order_counters.current_value + 1
		RETURNING current_value`, name, start).Scan(&value)
	return value, err
}

func (r *txRepo) InsertOrder(ctx context.Context, o Order) (int64, error) {
	var id int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO orders
			(order_number, outlet_id, client_id, status, order_date,
			 expected_delivery_date, actual_delivery_date, total_amount, notes,
			 created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11, $11)
		RETURNING id`,
		o.OrderNumber, o.OutletID, o.ClientID, string(o.Status), o.OrderDate,
		o.ExpectedDeliveryDate, o.ActualDeliveryDate, o.TotalAmount, o.Notes,
		o.CreatedBy, o.CreatedAt).Scan(&id)
	return id, err
}

func (r *txRepo) InsertItems(ctx context.Context, orderID int64, items []OrderItem) error {
	for _, item := range items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO order_items
				(order_id, product_id, quantity, delivered_quantity, unit_type,
				 unit_price, line_total)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)`,
			orderID, item.ProductID, item.Quantity, item.DeliveredQuantity,
			item.UnitType, item.UnitPrice, item.LineTotal)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepo) GetOrderForUpdate(ctx context.Context, id int64) (Order, error) {
	return scanOrder(r.q.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
}

func (r *txRepo) GetItemsForUpdate(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := r.q.Query(ctx, itemSelect+` WHERE order_id = $1 ORDER BY id FOR UPDATE`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func (r *txRepo) UpdateItemDelivered(ctx context.Context, itemID, delivered int64) error {
	_, err := r.q.Exec(ctx,
		`UPDATE order_items SET delivered_quantity = $1 WHERE id = $2`, delivered, itemID)
	return err
}

func (r *txRepo) UpdateOrderStatus(ctx context.Context, id int64, status Status, actualDeliveryDate *time.Time) error {
	_, err := r.q.Exec(ctx, `
		UPDATE orders
		SET status = $1,
		    actual_delivery_date = COALESCE($2, actual_delivery_date),
		    updated_at = NOW()
		WHERE id = $3`, string(status), actualDeliveryDate, id)
	return err
}

func (r *txRepo) UpdateOrderHeader(ctx context.Context, id int64, expected *time.Time, notes *string, total *float64) error {
	_, err := r.q.Exec(ctx, `
		UPDATE orders
		SET expected_delivery_date = COALESCE($1, expected_delivery_date),
		    notes = COALESCE($2, notes),
		    total_amount = $3,
		    updated_at = NOW()
		WHERE id = $4`, expected, notes, total, id)
	return err
}

func (r *txRepo) CountDeliveries(ctx context.Context, orderID int64) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM deliveries WHERE order_id = $1`, orderID).Scan(&n)
	return n, err
}

func (r *txRepo) InsertDelivery(ctx context.Context, d Delivery) (int64, error) {
	var id int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO deliveries
			(order_id, delivery_number, location_id, delivery_date, notes, delivered_by)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		RETURNING id`,
		d.OrderID, d.DeliveryNumber, d.LocationID, d.DeliveryDate, d.Notes,
		d.DeliveredBy).Scan(&id)
	if err != nil {
		return 0, err
	}
	for _, item := range d.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO delivery_items
				(delivery_id, order_item_id, product_id, quantity_delivered)
			VALUES ($1, $2, $3, $4)`,
			id, item.OrderItemID, item.ProductID, item.QuantityDelivered)
		if err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (r *txRepo) DeleteItems(ctx context.Context, orderID int64) error {
	_, err := r.q.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID)
	return err
}

func (r *txRepo) DeleteDeliveries(ctx context.Context, orderID int64) error {
	if _, err := r.q.Exec(ctx, `
		DELETE FROM delivery_items
		WHERE delivery_id IN (SELECT id FROM deliveries WHERE order_id = $1)`, orderID); err != nil {
		return err
	}
	_, err := r.q.Exec(ctx, `DELETE FROM deliveries WHERE order_id = $1`, orderID)
	return err
}

func (r *txRepo) DeleteOrder(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

const itemSelect = `SELECT id, order_id, product_id, quantity, delivered_quantity,
	COALESCE(unit_type, ''), unit_price, line_total
	FROM order_items`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var status string
	err := row.Scan(&o.ID, &o.OrderNumber, &o.OutletID, &o.ClientID, &status,
		&o.OrderDate, &o.ExpectedDeliveryDate, &o.ActualDeliveryDate,
		&o.TotalAmount, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, err
	}
	o.Status = Status(status)
	return o, nil
}

func scanItems(rows pgx.Rows) ([]OrderItem, error) {
	var items []OrderItem
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity,
			&item.DeliveredQuantity, &item.UnitType, &item.UnitPrice, &item.LineTotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
