package repository

import (
	"context"
	"database/sql"
	"errors"
	"iter"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/motel-occupancy/internal/model"
)

// BookingRepo provides access to the bookings table.  Bookings are never
// deleted; their status is only changed through UpdateStatusTx inside a
// transaction that also updates the booking's room.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `b.id, b.room_id, b.full_name, b.telephone_no, b.email, b.id_or_passport_no,
       b.payment_method, b.payment_amount, b.mode_of_payment, b.transaction_or_receipt,
       b.check_in, b.check_out, b.status, b.created_at, b.updated_at`

// MySQL error raised when the unique index on active_room_id rejects a
// second live booking for the same room.
const mysqlDuplicateEntry = 1062

func scanBooking(row rowScanner, extra ...any) (model.Booking, error) {
	var b model.Booking
	var status string
	dest := []any{
		&b.ID, &b.RoomID, &b.FullName, &b.TelephoneNo, &b.Email, &b.IDOrPassportNo,
		&b.PaymentMethod, &b.PaymentAmount, &b.ModeOfPayment, &b.TransactionOrReceipt,
		&b.CheckIn, &b.CheckOut, &status, &b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return model.Booking{}, err
	}
	b.Status = model.BookingStatus(status)
	b.CheckIn = b.CheckIn.UTC()
	b.CheckOut = b.CheckOut.UTC()
	return b, nil
}

func scanBookingDetail(row rowScanner) (model.BookingDetail, error) {
	var d model.BookingDetail
	b, err := scanBooking(row, &d.RoomNumber)
	if err != nil {
		return model.BookingDetail{}, err
	}
	d.Booking = b
	return d, nil
}

// CreateTx inserts a new booking within the scope of an existing
// transaction.  The caller must already hold the room lock and must commit
// or roll back tx.  A duplicate live booking for the room is reported as
// ErrRoomUnavailable.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (id, room_id, full_name, telephone_no, email, id_or_passport_no,
                                  payment_method, payment_amount, mode_of_payment, transaction_or_receipt,
                                  check_in, check_out, status, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q,
		b.ID, b.RoomID, b.FullName, b.TelephoneNo, b.Email, b.IDOrPassportNo,
		b.PaymentMethod, b.PaymentAmount, b.ModeOfPayment, b.TransactionOrReceipt,
		b.CheckIn.Format(model.DateLayout), b.CheckOut.Format(model.DateLayout), string(b.Status),
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return ErrRoomUnavailable
		}
		return storageFailure("insert booking", err)
	}
	return nil
}

// GetByID returns a booking joined with its room number.  When no booking
// with the given id exists, ErrNotFound is returned.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (model.BookingDetail, error) {
	q := `SELECT ` + bookingColumns + `, r.number
          FROM bookings b
          JOIN rooms r ON r.id = b.room_id
          WHERE b.id = ?`
	d, err := scanBookingDetail(r.db.QueryRowContext(ctx, q, id))
	return d, classifyRow("get booking", err)
}

// GetForUpdateTx reads a booking and locks its row until tx ends, so that
// concurrent check-in and check-out calls on it serialize.  The join is
// left out on purpose; the room row is locked separately by the caller.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = ? FOR UPDATE`
	b, err := scanBooking(tx.QueryRowContext(ctx, q, id))
	return b, classifyRow("lock booking", err)
}

// UpdateStatusTx sets the status of a booking within tx.  It returns
// ErrNotFound when no row matches.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id string, status model.BookingStatus) error {
	const q = `UPDATE bookings SET status = ?, updated_at = UTC_TIMESTAMP(6) WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, string(status), id)
	if err != nil {
		return storageFailure("update booking status", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storageFailure("update booking status", err)
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Scan returns a lazy sequence of bookings matching f, joined with their
// room numbers and ordered by creation time.  The query runs when the
// sequence is ranged over and runs again on every new range, so callers
// always see current state.  A storage error is yielded once and ends the
// sequence.
func (r *BookingRepo) Scan(ctx context.Context, f BookingFilter) iter.Seq2[model.BookingDetail, error] {
	return func(yield func(model.BookingDetail, error) bool) {
		q, args := bookingScanQuery(f)
		rows, err := r.db.QueryContext(ctx, q, args...)
		if err != nil {
			yield(model.BookingDetail{}, storageFailure("list bookings", err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			d, err := scanBookingDetail(rows)
			if err != nil {
				yield(model.BookingDetail{}, storageFailure("scan booking", err))
				return
			}
			if !yield(d, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(model.BookingDetail{}, storageFailure("list bookings", err))
		}
	}
}

func bookingScanQuery(f BookingFilter) (string, []interface{}) {
	var where []string
	var args []interface{}
	if f.Status != "" {
		where = append(where, "b.status = ?")
		args = append(args, string(f.Status))
	}
	if !f.CheckInFrom.IsZero() {
		// DATE compares against DATETIME as midnight, matching the
		// in-memory instant comparison.
		where = append(where, "b.check_in >= ?")
		args = append(args, f.CheckInFrom.UTC())
	}
	q := `SELECT ` + bookingColumns + `, r.number
          FROM bookings b
          JOIN rooms r ON r.id = b.room_id`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY b.created_at, b.id`
	return q, args
}
