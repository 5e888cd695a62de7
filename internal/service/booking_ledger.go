package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/motel-occupancy/internal/model"
	"github.com/iliyamo/motel-occupancy/internal/repository"
)

// Registration is the input for registering a guest against a room.  Either
// RoomID or RoomNumber identifies the room; RoomID wins when both are set.
// Dates are YYYY-MM-DD or RFC3339.
type Registration struct {
	RoomID               string `json:"roomId"`
	RoomNumber           int    `json:"roomNumber"`
	FullName             string `json:"fullName"`
	TelephoneNo          string `json:"telephoneNo"`
	Email                string `json:"email"`
	IDOrPassportNo       string `json:"idOrPassportNo"`
	PaymentMethod        string `json:"paymentMethod"`
	PaymentAmount        *int64 `json:"paymentAmount"`
	ModeOfPayment        string `json:"modeOfPayment"`
	TransactionOrReceipt string `json:"transactionOrReceipt"`
	CheckIn              string `json:"checkIn"`
	CheckOut             string `json:"checkOut"`
}

// draft validates r and returns the booking it describes, without id,
// status or timestamps.
func (r Registration) draft() (model.Booking, error) {
	fields := []struct {
		name  string
		value string
	}{
		{"roomId", r.RoomID},
		{"fullName", r.FullName},
		{"telephoneNo", r.TelephoneNo},
		{"email", r.Email},
		{"idOrPassportNo", r.IDOrPassportNo},
		{"paymentMethod", r.PaymentMethod},
		{"modeOfPayment", r.ModeOfPayment},
		{"transactionOrReceipt", r.TransactionOrReceipt},
		{"checkIn", r.CheckIn},
		{"checkOut", r.CheckOut},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if r.PaymentAmount == nil {
		missing = append(missing, "paymentAmount")
	}
	if len(missing) > 0 {
		return model.Booking{}, repository.Invalidf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if *r.PaymentAmount < 0 {
		return model.Booking{}, repository.Invalidf("paymentAmount must not be negative")
	}

	checkIn, err := model.ParseDate(r.CheckIn)
	if err != nil {
		return model.Booking{}, repository.Invalidf("checkIn %q is not a date", r.CheckIn)
	}
	checkOut, err := model.ParseDate(r.CheckOut)
	if err != nil {
		return model.Booking{}, repository.Invalidf("checkOut %q is not a date", r.CheckOut)
	}
	if checkOut.Before(checkIn) {
		return model.Booking{}, repository.Invalidf("checkOut %s is before checkIn %s",
			checkOut.Format(model.DateLayout), checkIn.Format(model.DateLayout))
	}

	return model.Booking{
		RoomID: strings.TrimSpace(r.RoomID),
		Guest: model.Guest{
			FullName:             strings.TrimSpace(r.FullName),
			TelephoneNo:          strings.TrimSpace(r.TelephoneNo),
			Email:                strings.TrimSpace(r.Email),
			IDOrPassportNo:       strings.TrimSpace(r.IDOrPassportNo),
			PaymentMethod:        strings.TrimSpace(r.PaymentMethod),
			PaymentAmount:        *r.PaymentAmount,
			ModeOfPayment:        strings.TrimSpace(r.ModeOfPayment),
			TransactionOrReceipt: strings.TrimSpace(r.TransactionOrReceipt),
		},
		CheckIn:  checkIn,
		CheckOut: checkOut,
	}, nil
}

// BookingLedger owns guest bookings.  Bookings are created and moved only
// inside a transaction opened by the coordinator; reads go straight to the
// store.
type BookingLedger struct {
	store repository.Store
	rooms *RoomRegistry
	now   func() time.Time
}

func NewBookingLedger(store repository.Store, rooms *RoomRegistry) *BookingLedger {
	return &BookingLedger{
		store: store,
		rooms: rooms,
		now:   func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// createBooking validates reg, takes the room lock, requires the room to be
// free and writes a booked booking together with the room's booked status.
// The caller owns tx.
func (l *BookingLedger) createBooking(ctx context.Context, tx repository.Tx, reg Registration) (model.BookingDetail, error) {
	b, err := reg.draft()
	if err != nil {
		return model.BookingDetail{}, err
	}

	rm, err := l.rooms.lock(ctx, tx, b.RoomID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.BookingDetail{}, fmt.Errorf("%w: room %s does not exist", repository.ErrRoomUnavailable, b.RoomID)
	}
	if err != nil {
		return model.BookingDetail{}, err
	}
	if rm.Status != model.RoomFree {
		return model.BookingDetail{}, fmt.Errorf("%w: room %d is %s", repository.ErrRoomUnavailable, rm.Number, rm.Status)
	}

	now := l.now()
	b.ID = uuid.NewString()
	b.Status = model.BookingBooked
	b.CreatedAt, b.UpdatedAt = now, now
	if err := tx.InsertBooking(ctx, &b); err != nil {
		return model.BookingDetail{}, err
	}
	if err := l.rooms.setStatus(ctx, tx, rm.ID, model.RoomBooked); err != nil {
		return model.BookingDetail{}, err
	}
	return model.BookingDetail{Booking: b, RoomNumber: rm.Number}, nil
}

// GetBooking returns a booking with its room number.  An empty id matches
// no booking.
func (l *BookingLedger) GetBooking(ctx context.Context, id string) (model.BookingDetail, error) {
	if strings.TrimSpace(id) == "" {
		return model.BookingDetail{}, fmt.Errorf("%w: booking id is empty", repository.ErrNotFound)
	}
	return l.store.GetBooking(ctx, id)
}

// ListBookings returns a lazy scan over bookings matching filter, oldest
// first.  Ranging over the result again re-reads current state.
func (l *BookingLedger) ListBookings(ctx context.Context, filter repository.BookingFilter) iter.Seq2[model.BookingDetail, error] {
	return l.store.Bookings(ctx, filter)
}

func (l *BookingLedger) lock(ctx context.Context, tx repository.Tx, id string) (model.Booking, error) {
	return tx.LockBooking(ctx, id)
}

func (l *BookingLedger) updateStatus(ctx context.Context, tx repository.Tx, id string, status model.BookingStatus) error {
	if !status.Valid() {
		return repository.Invalidf("unknown booking status %q", status)
	}
	return tx.SetBookingStatus(ctx, id, status)
}
