package repository

import (
	"context"
	"iter"
	"time"

	"github.com/iliyamo/motel-occupancy/internal/model"
)

// BookingFilter narrows a booking scan.  The zero value matches every
// booking.
type BookingFilter struct {
	Status      model.BookingStatus // empty matches any status
	CheckInFrom time.Time           // zero disables the lower bound; inclusive otherwise
}

func (f BookingFilter) matches(b model.Booking) bool {
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if !f.CheckInFrom.IsZero() && b.CheckIn.Before(f.CheckInFrom) {
		return false
	}
	return true
}

// Store is the persistence boundary shared by the MySQL and in-memory
// backends.  Plain reads see committed state.  Every status change goes
// through WithinTx so that a room and its booking move together or not at
// all.
type Store interface {
	ListRooms(ctx context.Context) ([]model.Room, error)
	GetRoom(ctx context.Context, id string) (model.Room, error)
	GetRoomByNumber(ctx context.Context, number int) (model.Room, error)
	GetBooking(ctx context.Context, id string) (model.BookingDetail, error)
	// Bookings returns a lazy scan ordered by creation time.  Each range
	// over the sequence queries current state again.
	Bookings(ctx context.Context, filter BookingFilter) iter.Seq2[model.BookingDetail, error]
	// ProvisionRooms inserts the rooms whose numbers are not yet present and
	// returns how many were added.  Existing rooms keep their id and status.
	ProvisionRooms(ctx context.Context, rooms []model.Room) (int, error)
	// WithinTx runs fn as one unit of work.  If fn returns an error nothing
	// it wrote is kept.
	WithinTx(ctx context.Context, fn func(Tx) error) error
}

// Tx is an open unit of work.  Lock* reads take the row for the remainder
// of the transaction so concurrent transitions on the same room or booking
// serialize.  A Tx must not be used after WithinTx returns.
type Tx interface {
	LockRoom(ctx context.Context, id string) (model.Room, error)
	SetRoomStatus(ctx context.Context, id string, status model.RoomStatus) error
	LockBooking(ctx context.Context, id string) (model.Booking, error)
	InsertBooking(ctx context.Context, b *model.Booking) error
	SetBookingStatus(ctx context.Context, id string, status model.BookingStatus) error
}
