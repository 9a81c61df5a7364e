package ward

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

func (r *pgRepo) CreateRoom(ctx context.Context, room *Room) error {
	room.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO room (id, room_number, type, floor, price_per_day)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		room.ID, room.RoomNumber, room.Type, room.Floor, room.PricePerDay).
		Scan(&room.CreatedAt, &room.UpdatedAt)
}

func (r *pgRepo) GetRoom(ctx context.Context, id uuid.UUID) (*Room, error) {
	var room Room
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, room_number, type, floor, price_per_day, created_at, updated_at
		FROM room WHERE id = $1`, id).
		Scan(&room.ID, &room.RoomNumber, &room.Type, &room.Floor, &room.PricePerDay,
			&room.CreatedAt, &room.UpdatedAt); err != nil {
		return nil, err
	}

	beds, err := r.loadBeds(ctx, []uuid.UUID{room.ID})
	if err != nil {
		return nil, err
	}
	room.Beds = beds[room.ID]
	return &room, nil
}

func (r *pgRepo) loadBeds(ctx context.Context, roomIDs []uuid.UUID) (map[uuid.UUID][]Bed, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, room_id, label, occupied, patient_id, occupied_at, created_at, updated_at
		FROM bed WHERE room_id = ANY($1)
		ORDER BY label`, roomIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]Bed)
	for rows.Next() {
		var b Bed
		if err := rows.Scan(&b.ID, &b.RoomID, &b.Label, &b.Occupied, &b.PatientID,
			&b.OccupiedAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out[b.RoomID] = append(out[b.RoomID], b)
	}
	return out, rows.Err()
}

func (r *pgRepo) ListRooms(ctx context.Context, roomType string, limit, offset int) ([]*Room, int, error) {
	where := ``
	args := []interface{}{}
	if roomType != "" {
		args = append(args, roomType)
		where = ` WHERE type = $1`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM room`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT id, room_number, type, floor, price_per_day, created_at, updated_at
			FROM room%s ORDER BY room_number LIMIT $%d OFFSET $%d`,
			where, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var rooms []*Room
	var ids []uuid.UUID
	for rows.Next() {
		var room Room
		if err := rows.Scan(&room.ID, &room.RoomNumber, &room.Type, &room.Floor,
			&room.PricePerDay, &room.CreatedAt, &room.UpdatedAt); err != nil {
			return nil, 0, err
		}
		rooms = append(rooms, &room)
		ids = append(ids, room.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(ids) > 0 {
		beds, err := r.loadBeds(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for _, room := range rooms {
			room.Beds = beds[room.ID]
		}
	}
	return rooms, total, nil
}

func (r *pgRepo) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM bed WHERE room_id = $1`, id); err != nil {
		return err
	}
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM room WHERE id = $1`, id)
	return err
}

func (r *pgRepo) OccupiedBeds(ctx context.Context, roomID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM bed WHERE room_id = $1 AND occupied`, roomID).Scan(&n)
	return n, err
}

func (r *pgRepo) CreateBed(ctx context.Context, b *Bed) error {
	b.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO bed (id, room_id, label, occupied)
		VALUES ($1,$2,$3,false)
		RETURNING created_at, updated_at`,
		b.ID, b.RoomID, b.Label).Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (r *pgRepo) GetBed(ctx context.Context, id uuid.UUID) (*Bed, error) {
	var b Bed
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, room_id, label, occupied, patient_id, occupied_at, created_at, updated_at
		FROM bed WHERE id = $1`, id).
		Scan(&b.ID, &b.RoomID, &b.Label, &b.Occupied, &b.PatientID,
			&b.OccupiedAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Occupy flips the bed under its row lock so two admissions can never both
// win the same bed.
func (r *pgRepo) Occupy(ctx context.Context, bedID, patientID uuid.UUID) (*Bed, error) {
	return r.flip(ctx, bedID, func(ctx context.Context, tx pgx.Tx, b *Bed) error {
		if b.Occupied {
			return ErrBedTaken
		}
		return tx.QueryRow(ctx, `
			UPDATE bed SET occupied = true, patient_id = $2, occupied_at = NOW(), updated_at = NOW()
			WHERE id = $1
			RETURNING occupied, patient_id, occupied_at, updated_at`,
			bedID, patientID).Scan(&b.Occupied, &b.PatientID, &b.OccupiedAt, &b.UpdatedAt)
	})
}

func (r *pgRepo) Release(ctx context.Context, bedID uuid.UUID) (*Bed, error) {
	return r.flip(ctx, bedID, func(ctx context.Context, tx pgx.Tx, b *Bed) error {
		if !b.Occupied {
			return ErrBedFree
		}
		return tx.QueryRow(ctx, `
			UPDATE bed SET occupied = false, patient_id = NULL, occupied_at = NULL, updated_at = NOW()
			WHERE id = $1
			RETURNING occupied, patient_id, occupied_at, updated_at`,
			bedID).Scan(&b.Occupied, &b.PatientID, &b.OccupiedAt, &b.UpdatedAt)
	})
}

func (r *pgRepo) flip(ctx context.Context, bedID uuid.UUID, mutate func(context.Context, pgx.Tx, *Bed) error) (*Bed, error) {
	run := func(ctx context.Context, tx pgx.Tx) (*Bed, error) {
		var b Bed
		if err := tx.QueryRow(ctx, `
			SELECT id, room_id, label, occupied, patient_id, occupied_at, created_at, updated_at
			FROM bed WHERE id = $1 FOR UPDATE`, bedID).
			Scan(&b.ID, &b.RoomID, &b.Label, &b.Occupied, &b.PatientID,
				&b.OccupiedAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		if err := mutate(ctx, tx, &b); err != nil {
			return nil, err
		}
		return &b, nil
	}

	if tx := db.TxFromContext(ctx); tx != nil {
		return run(ctx, tx)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	b, err := run(ctx, tx)
	if err != nil {
		return nil, err
	}
	return b, tx.Commit(ctx)
}
