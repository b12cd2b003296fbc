package outlets

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-dist/meridian/internal/catalog/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Outlet, int, error)
	Get(ctx context.Context, id int64) (Outlet, error)
	Create(ctx context.Context, outlet Outlet) (Outlet, error)
	Update(ctx context.Context, id int64, outlet Outlet) error
	Deactivate(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const outletColumns = `id, client_id, name, COALESCE(code, ''), COALESCE(address, ''),
	is_active, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Outlet, int, error) {
	query := `SELECT ` + outletColumns + ` FROM outlets WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM outlets WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.ClientID != nil {
		argCount++
		clause := ` AND client_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, *filters.ClientID)
	}
	if filters.Search != "" {
		argCount++
		clause := ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR code ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.IsActive != nil {
		argCount++
		clause := ` AND is_active = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, *filters.IsActive)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name ASC`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var outlets []Outlet
	for rows.Next() {
		o, err := scanOutlet(rows)
		if err != nil {
			return nil, 0, err
		}
		outlets = append(outlets, o)
	}
	return outlets, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Outlet, error) {
	o, err := scanOutlet(r.db.QueryRow(ctx, `SELECT `+outletColumns+` FROM outlets WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Outlet{}, shared.ErrNotFound
	}
	return o, err
}

func (r *repository) Create(ctx context.Context, outlet Outlet) (Outlet, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `
		INSERT INTO outlets (client_id, name, code, address, is_active, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $6)
		RETURNING id`,
		outlet.ClientID, outlet.Name, outlet.Code, outlet.Address, outlet.IsActive, now).
		Scan(&outlet.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return Outlet{}, shared.ErrDuplicate
			case "23503":
				return Outlet{}, shared.ErrNotFound
			}
		}
		return Outlet{}, err
	}
	outlet.CreatedAt = now
	outlet.UpdatedAt = now
	return outlet, nil
}

func (r *repository) Update(ctx context.Context, id int64, outlet Outlet) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE outlets
		SET client_id = $1, name = $2, code = NULLIF($3, ''), address = NULLIF($4, ''),
		    is_active = $5, updated_at = $6
		WHERE id = $7`,
		outlet.ClientID, outlet.Name, outlet.Code, outlet.Address,
		outlet.IsActive, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE outlets SET is_active = FALSE, updated_at = $1 WHERE id = $2`, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanOutlet(row pgx.Row) (Outlet, error) {
	var o Outlet
	err := row.Scan(&o.ID, &o.ClientID, &o.Name, &o.Code, &o.Address,
		&o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}
