package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/motel-occupancy/internal/model"
)

// RoomRepo provides access to the rooms table.  Rooms form a fixed
// inventory: rows are inserted at provisioning time and afterwards only the
// status column changes, always inside a transaction opened by the caller.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomColumns = `id, number, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (model.Room, error) {
	var rm model.Room
	var status string
	if err := row.Scan(&rm.ID, &rm.Number, &status, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
		return model.Room{}, err
	}
	rm.Status = model.RoomStatus(status)
	return rm, nil
}

// ListAll returns every room ordered by room number.  An empty inventory
// yields an empty slice, not an error.
func (r *RoomRepo) ListAll(ctx context.Context) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY number`)
	if err != nil {
		return nil, storageFailure("list rooms", err)
	}
	defer rows.Close()
	rooms := make([]model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, storageFailure("scan room", err)
		}
		rooms = append(rooms, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, storageFailure("list rooms", err)
	}
	return rooms, nil
}

// GetByID returns the room with the given id or ErrNotFound.
func (r *RoomRepo) GetByID(ctx context.Context, id string) (model.Room, error) {
	rm, err := scanRoom(r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id))
	return rm, classifyRow("get room", err)
}

// GetByNumber returns the room with the given door number or ErrNotFound.
func (r *RoomRepo) GetByNumber(ctx context.Context, number int) (model.Room, error) {
	rm, err := scanRoom(r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE number = ?`, number))
	return rm, classifyRow("get room by number", err)
}

// GetForUpdateTx reads a room and locks its row until tx ends.  Concurrent
// registrations for the same room queue behind this lock, so only the first
// one can observe the room as free.
func (r *RoomRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (model.Room, error) {
	rm, err := scanRoom(tx.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ? FOR UPDATE`, id))
	return rm, classifyRow("lock room", err)
}

// UpdateStatusTx sets the status of a room within tx.  It returns
// ErrNotFound when no row matches.  The DSN enables clientFoundRows, so an
// unchanged status still counts as a match.
func (r *RoomRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id string, status model.RoomStatus) error {
	const q = `UPDATE rooms SET status = ?, updated_at = UTC_TIMESTAMP(6) WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, string(status), id)
	if err != nil {
		return storageFailure("update room status", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storageFailure("update room status", err)
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertMissing inserts the given rooms in one statement, skipping any whose
// number already exists.  It returns the number of rows inserted.  Passing
// an empty slice has no effect.
func (r *RoomRepo) InsertMissing(ctx context.Context, rooms []model.Room) (int, error) {
	if len(rooms) == 0 {
		return 0, nil
	}
	query := `INSERT IGNORE INTO rooms (id, number, status) VALUES `
	args := make([]interface{}, 0, len(rooms)*3)
	for i, rm := range rooms {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, rm.ID, rm.Number, string(rm.Status))
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, storageFailure("provision rooms", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageFailure("provision rooms", err)
	}
	return int(n), nil
}

// classifyRow maps the error of a single-row query onto the repository
// error kinds.
func classifyRow(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	default:
		return storageFailure(op, err)
	}
}
