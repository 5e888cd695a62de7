package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/motel-occupancy/internal/model"
)

var bookingDetailCols = []string{
	"id", "room_id", "full_name", "telephone_no", "email", "id_or_passport_no",
	"payment_method", "payment_amount", "mode_of_payment", "transaction_or_receipt",
	"check_in", "check_out", "status", "created_at", "updated_at", "number",
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestBookingRepo_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepo(db)
	created := time.Date(2024, 1, 9, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(bookingDetailCols).AddRow(
		"b-1", "room-5", "Ada Lovelace", "555-0100", "ada@example.com", "P123",
		"card", int64(10000), "online", "TX-1",
		day(2024, 1, 10), day(2024, 1, 12), "checked-in", created, created, 5,
	)
	mock.ExpectQuery(`FROM bookings b\s+JOIN rooms r ON r.id = b.room_id\s+WHERE b.id = \?`).
		WithArgs("b-1").
		WillReturnRows(rows)

	d, err := repo.GetByID(context.Background(), "b-1")

	require.NoError(t, err)
	assert.Equal(t, "b-1", d.ID)
	assert.Equal(t, "Ada Lovelace", d.FullName)
	assert.Equal(t, int64(10000), d.PaymentAmount)
	assert.Equal(t, model.BookingCheckedIn, d.Status)
	assert.Equal(t, 5, d.RoomNumber)
	assert.Equal(t, day(2024, 1, 12), d.CheckOut)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepo(db)

	mock.ExpectQuery(`WHERE b.id = \?`).WithArgs("nope").WillReturnRows(sqlmock.NewRows(bookingDetailCols))

	_, err := repo.GetByID(context.Background(), "nope")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookingRepo_CreateTx_DuplicateLiveBooking(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'room-5' for key 'uq_bookings_active_room'"})

	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.CreateTx(context.Background(), tx, &model.Booking{
		ID: "b-2", RoomID: "room-5", Status: model.BookingBooked,
		CheckIn: day(2024, 1, 10), CheckOut: day(2024, 1, 12),
	})

	assert.ErrorIs(t, err, ErrRoomUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_CreateTx_DriverError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO bookings`).WillReturnError(errors.New("bad connection"))

	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.CreateTx(context.Background(), tx, &model.Booking{ID: "b-3", RoomID: "room-1", Status: model.BookingBooked})

	assert.ErrorIs(t, err, ErrStorageFailure)
	assert.NotErrorIs(t, err, ErrRoomUnavailable)
}

func TestBookingRepo_Scan_FiltersAndIsRestartable(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepo(db)
	created := time.Date(2024, 1, 9, 12, 0, 0, 0, time.UTC)
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	row := func() *sqlmock.Rows {
		return sqlmock.NewRows(bookingDetailCols).AddRow(
			"b-1", "room-5", "Ada", "1", "a@x", "P", "card", int64(100), "cash", "R",
			day(2024, 1, 5), day(2024, 1, 6), "booked", created, created, 5,
		)
	}
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(`WHERE b.status = \? AND b.check_in >= \? ORDER BY b.created_at, b.id`).
			WithArgs("booked", since).
			WillReturnRows(row())
	}

	seq := repo.Scan(context.Background(), BookingFilter{Status: model.BookingBooked, CheckInFrom: since})
	for pass := 0; pass < 2; pass++ {
		var got []model.BookingDetail
		for d, err := range seq {
			require.NoError(t, err)
			got = append(got, d)
		}
		require.Len(t, got, 1)
		assert.Equal(t, 5, got[0].RoomNumber)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_Scan_YieldsStorageFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepo(db)

	mock.ExpectQuery(`FROM bookings b`).WillReturnError(errors.New("timeout"))

	var errs []error
	for _, err := range repo.Scan(context.Background(), BookingFilter{}) {
		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrStorageFailure)
}

func TestMySQLStore_WithinTx_RollsBackOnError(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewMySQLStore(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM rooms WHERE id = \? FOR UPDATE`).
		WithArgs("room-5").
		WillReturnRows(sqlmock.NewRows(roomCols).AddRow("room-5", 5, "free", now, now))
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(tx Tx) error {
		if _, err := tx.LockRoom(context.Background(), "room-5"); err != nil {
			return err
		}
		return tx.InsertBooking(context.Background(), &model.Booking{ID: "b", RoomID: "room-5", Status: model.BookingBooked})
	})

	assert.ErrorIs(t, err, ErrRoomUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_WithinTx_Commits(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewMySQLStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE bookings SET status = \?`).
		WithArgs("checked-out", "b-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE rooms SET status = \?`).
		WithArgs("free", "room-5").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(tx Tx) error {
		if err := tx.SetBookingStatus(context.Background(), "b-1", model.BookingCheckedOut); err != nil {
			return err
		}
		return tx.SetRoomStatus(context.Background(), "room-5", model.RoomFree)
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_WithinTx_CommitFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewMySQLStore(db)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("lost connection"))

	err := store.WithinTx(context.Background(), func(Tx) error { return nil })

	assert.ErrorIs(t, err, ErrStorageFailure)
}
