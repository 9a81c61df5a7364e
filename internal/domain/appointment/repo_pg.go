package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

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

const apptCols = `id, patient_id, doctor_id, start_at, duration_minutes,
	reason, notes, status, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.StartAt, &a.DurationMinutes,
		&a.Reason, &a.Notes, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *pgRepo) Create(ctx context.Context, a *Appointment) error {
	if tx := db.TxFromContext(ctx); tx != nil {
		return r.create(ctx, tx, a)
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := r.create(ctx, tx, a); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// create takes a per-doctor advisory lock for the rest of the transaction, so
// the overlap check and the insert cannot interleave with a concurrent
// booking for the same doctor.
func (r *pgRepo) create(ctx context.Context, tx pgx.Tx, a *Appointment) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1::text))`, a.DoctorID); err != nil {
		return err
	}

	var start time.Time
	var duration int
	err := tx.QueryRow(ctx, `
		SELECT start_at, duration_minutes FROM appointment
		WHERE doctor_id = $1 AND status IN ('pending','confirmed')
		  AND start_at < $2::timestamptz + ($3 * interval '1 minute')
		  AND $2::timestamptz < start_at + (duration_minutes * interval '1 minute')
		ORDER BY start_at LIMIT 1`,
		a.DoctorID, a.StartAt, a.DurationMinutes).Scan(&start, &duration)
	switch {
	case err == nil:
		return &SlotConflictError{Start: start, End: start.Add(time.Duration(duration) * time.Minute)}
	case !errors.Is(err, pgx.ErrNoRows):
		return err
	}

	a.ID = uuid.New()
	return tx.QueryRow(ctx, `
		INSERT INTO appointment (id, patient_id, doctor_id, start_at, duration_minutes, reason, notes, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.StartAt, a.DurationMinutes,
		a.Reason, a.Notes, a.Status).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *pgRepo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
}

func (r *pgRepo) Update(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET status=$2, notes=$3, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Status, a.Notes)
	return err
}

func (r *pgRepo) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	if f.DoctorID != uuid.Nil {
		args = append(args, f.DoctorID)
		where += fmt.Sprintf(` AND doctor_id = $%d`, len(args))
	}
	if f.PatientID != uuid.Nil {
		args = append(args, f.PatientID)
		where += fmt.Sprintf(` AND patient_id = $%d`, len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if !f.Day.IsZero() {
		args = append(args, f.Day.UTC())
		where += fmt.Sprintf(` AND start_at >= date_trunc('day', $%d::timestamptz) AND start_at < date_trunc('day', $%d::timestamptz) + interval '1 day'`, len(args), len(args))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT %s FROM appointment%s ORDER BY start_at LIMIT $%d OFFSET $%d`,
			apptCols, where, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *pgRepo) CountActiveByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment
		 WHERE doctor_id = $1 AND status IN ('pending','confirmed')`, doctorID).Scan(&n)
	return n, err
}
