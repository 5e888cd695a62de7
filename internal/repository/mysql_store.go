package repository

import (
	"context"
	"database/sql"
	"iter"

	"github.com/iliyamo/motel-occupancy/internal/model"
)

// MySQLStore implements Store on top of RoomRepo and BookingRepo.  Units of
// work run in a single *sql.Tx and rely on row locks (SELECT ... FOR UPDATE)
// for serialization.
type MySQLStore struct {
	db       *sql.DB
	rooms    *RoomRepo
	bookings *BookingRepo
}

// NewMySQLStore returns a Store backed by db.
func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db, rooms: NewRoomRepo(db), bookings: NewBookingRepo(db)}
}

// DB exposes the underlying handle for health checks.
func (s *MySQLStore) DB() *sql.DB { return s.db }

func (s *MySQLStore) ListRooms(ctx context.Context) ([]model.Room, error) {
	return s.rooms.ListAll(ctx)
}

func (s *MySQLStore) GetRoom(ctx context.Context, id string) (model.Room, error) {
	return s.rooms.GetByID(ctx, id)
}

func (s *MySQLStore) GetRoomByNumber(ctx context.Context, number int) (model.Room, error) {
	return s.rooms.GetByNumber(ctx, number)
}

func (s *MySQLStore) GetBooking(ctx context.Context, id string) (model.BookingDetail, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *MySQLStore) Bookings(ctx context.Context, f BookingFilter) iter.Seq2[model.BookingDetail, error] {
	return s.bookings.Scan(ctx, f)
}

func (s *MySQLStore) ProvisionRooms(ctx context.Context, rooms []model.Room) (int, error) {
	return s.rooms.InsertMissing(ctx, rooms)
}

// WithinTx begins a transaction, hands it to fn and commits only when fn
// succeeds.  Any error from fn or from the commit leaves the database as it
// was before the call.
func (s *MySQLStore) WithinTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageFailure("begin transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&mysqlTx{tx: tx, rooms: s.rooms, bookings: s.bookings}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageFailure("commit transaction", err)
	}
	committed = true
	return nil
}

type mysqlTx struct {
	tx       *sql.Tx
	rooms    *RoomRepo
	bookings *BookingRepo
}

func (t *mysqlTx) LockRoom(ctx context.Context, id string) (model.Room, error) {
	return t.rooms.GetForUpdateTx(ctx, t.tx, id)
}

func (t *mysqlTx) SetRoomStatus(ctx context.Context, id string, status model.RoomStatus) error {
	return t.rooms.UpdateStatusTx(ctx, t.tx, id, status)
}

func (t *mysqlTx) LockBooking(ctx context.Context, id string) (model.Booking, error) {
	return t.bookings.GetForUpdateTx(ctx, t.tx, id)
}

func (t *mysqlTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	return t.bookings.CreateTx(ctx, t.tx, b)
}

func (t *mysqlTx) SetBookingStatus(ctx context.Context, id string, status model.BookingStatus) error {
	return t.bookings.UpdateStatusTx(ctx, t.tx, id, status)
}
