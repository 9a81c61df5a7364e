package billing

import (
	"context"
	"fmt"

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

func (r *pgRepo) Create(ctx context.Context, b *Bill) error {
	b.ID = uuid.New()
	if err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO bill (id, patient_id, total, paid, status)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		b.ID, b.PatientID, b.Total, b.Paid, b.Status).Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		return err
	}

	for i := range b.Items {
		it := &b.Items[i]
		it.ID = uuid.New()
		it.BillID = b.ID
		if _, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO bill_item (id, bill_id, description, medicine_id, quantity, unit_price)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			it.ID, it.BillID, it.Description, it.MedicineID, it.Quantity, it.UnitPrice); err != nil {
			return err
		}
	}
	return nil
}

func (r *pgRepo) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	var b Bill
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, patient_id, total, paid, status, created_at, updated_at
		FROM bill WHERE id = $1`, id).
		Scan(&b.ID, &b.PatientID, &b.Total, &b.Paid, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, []uuid.UUID{b.ID})
	if err != nil {
		return nil, err
	}
	b.Items = items[b.ID]
	return &b, nil
}

func (r *pgRepo) loadItems(ctx context.Context, billIDs []uuid.UUID) (map[uuid.UUID][]Item, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, bill_id, description, medicine_id, quantity, unit_price
		FROM bill_item WHERE bill_id = ANY($1)
		ORDER BY id`, billIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]Item)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.BillID, &it.Description, &it.MedicineID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		out[it.BillID] = append(out[it.BillID], it)
	}
	return out, rows.Err()
}

func (r *pgRepo) UpdateDerived(ctx context.Context, b *Bill) error {
	return r.conn(ctx).QueryRow(ctx, `
		UPDATE bill SET total=$2, paid=$3, status=$4, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		b.ID, b.Total, b.Paid, b.Status).Scan(&b.UpdatedAt)
}

func (r *pgRepo) Delete(ctx context.Context, id uuid.UUID) error {
	// bill_item rows go with the bill via ON DELETE CASCADE.
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM bill WHERE id = $1`, id)
	return err
}

func (r *pgRepo) List(ctx context.Context, patientID uuid.UUID, status Status, limit, offset int) ([]*Bill, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	if patientID != uuid.Nil {
		args = append(args, patientID)
		where += fmt.Sprintf(` AND patient_id = $%d`, len(args))
	}
	if status != "" {
		args = append(args, status)
		where += fmt.Sprintf(` AND status = $%d`, len(args))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM bill`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT id, patient_id, total, paid, status, created_at, updated_at
			FROM bill%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
			where, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bills []*Bill
	var ids []uuid.UUID
	for rows.Next() {
		var b Bill
		if err := rows.Scan(&b.ID, &b.PatientID, &b.Total, &b.Paid, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, err
		}
		bills = append(bills, &b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(ids) > 0 {
		items, err := r.loadItems(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for _, b := range bills {
			b.Items = items[b.ID]
		}
	}
	return bills, total, nil
}

func (r *pgRepo) CountByStatus(ctx context.Context, status Status) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM bill WHERE status = $1`, status).Scan(&n)
	return n, err
}
