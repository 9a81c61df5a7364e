package pharmacy

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mediflow/clinic/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type pgRepo struct{ pool *pgxpool.Pool }

func NewPGRepo(pool *pgxpool.Pool) Repository { return &pgRepo{pool: pool} }

func (r *pgRepo) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const medicineCols = `id, name, brand, sku, unit_price, stock, min_stock_threshold, created_at, updated_at`

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.Name, &m.Brand, &m.SKU, &m.UnitPrice, &m.Stock,
		&m.MinStockThreshold, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *pgRepo) Create(ctx context.Context, m *Medicine) error {
	m.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medicine (id, name, brand, sku, unit_price, stock, min_stock_threshold)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		m.ID, m.Name, m.Brand, m.SKU, m.UnitPrice, m.Stock, m.MinStockThreshold).
		Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (r *pgRepo) GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return scanMedicine(r.conn(ctx).QueryRow(ctx,
		`SELECT `+medicineCols+` FROM medicine WHERE id = $1`, id))
}

func (r *pgRepo) Update(ctx context.Context, m *Medicine) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE medicine SET name=$2, brand=$3, sku=$4, unit_price=$5,
			min_stock_threshold=$6, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.Name, m.Brand, m.SKU, m.UnitPrice, m.MinStockThreshold)
	return err
}

func (r *pgRepo) List(ctx context.Context, lowOnly bool, limit, offset int) ([]*Medicine, int, error) {
	where := ``
	if lowOnly {
		where = ` WHERE stock <= min_stock_threshold`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medicine`+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+medicineCols+` FROM medicine`+where+` ORDER BY name LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

// ApplyDelta locks the medicine row for the duration of the check-and-move
// so concurrent adjustments cannot interleave past the zero floor. When not
// already inside a caller transaction it opens its own.
func (r *pgRepo) ApplyDelta(ctx context.Context, mv *StockMovement) (int, error) {
	if tx := db.TxFromContext(ctx); tx != nil {
		return r.applyDelta(ctx, tx, mv)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	newStock, err := r.applyDelta(ctx, tx, mv)
	if err != nil {
		return 0, err
	}
	return newStock, tx.Commit(ctx)
}

func (r *pgRepo) applyDelta(ctx context.Context, tx pgx.Tx, mv *StockMovement) (int, error) {
	var stock int
	if err := tx.QueryRow(ctx,
		`SELECT stock FROM medicine WHERE id = $1 FOR UPDATE`, mv.MedicineID).Scan(&stock); err != nil {
		return 0, err
	}
	next := stock + mv.Delta
	if next < 0 {
		return 0, ErrStockExhausted
	}

	if _, err := tx.Exec(ctx,
		`UPDATE medicine SET stock = $2, updated_at = NOW() WHERE id = $1`,
		mv.MedicineID, next); err != nil {
		return 0, err
	}

	mv.ID = uuid.New()
	if err := tx.QueryRow(ctx, `
		INSERT INTO stock_movement (id, medicine_id, delta, reason, bill_id)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING at`,
		mv.ID, mv.MedicineID, mv.Delta, mv.Reason, mv.BillID).Scan(&mv.At); err != nil {
		return 0, err
	}
	return next, nil
}

func (r *pgRepo) Movements(ctx context.Context, medicineID uuid.UUID, limit, offset int) ([]*StockMovement, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM stock_movement WHERE medicine_id = $1`, medicineID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, medicine_id, delta, reason, bill_id, at
		FROM stock_movement WHERE medicine_id = $1
		ORDER BY at DESC LIMIT $2 OFFSET $3`,
		medicineID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*StockMovement
	for rows.Next() {
		var mv StockMovement
		if err := rows.Scan(&mv.ID, &mv.MedicineID, &mv.Delta, &mv.Reason, &mv.BillID, &mv.At); err != nil {
			return nil, 0, err
		}
		items = append(items, &mv)
	}
	return items, total, rows.Err()
}
