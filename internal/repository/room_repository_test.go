package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/motel-occupancy/internal/model"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var roomCols = []string{"id", "number", "status", "created_at", "updated_at"}

func TestRoomRepo_ListAll(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRoomRepo(db)
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(roomCols).
		AddRow("room-1", 1, "free", now, now).
		AddRow("room-2", 2, "occupied", now, now)
	mock.ExpectQuery(`SELECT id, number, status, created_at, updated_at FROM rooms ORDER BY number`).
		WillReturnRows(rows)

	rooms, err := repo.ListAll(context.Background())

	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "room-1", rooms[0].ID)
	assert.Equal(t, model.RoomFree, rooms[0].Status)
	assert.Equal(t, 2, rooms[1].Number)
	assert.Equal(t, model.RoomOccupied, rooms[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepo_ListAll_Empty(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRoomRepo(db)

	mock.ExpectQuery(`FROM rooms ORDER BY number`).WillReturnRows(sqlmock.NewRows(roomCols))

	rooms, err := repo.ListAll(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, rooms)
	assert.Len(t, rooms, 0)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepo_ListAll_StorageFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRoomRepo(db)

	mock.ExpectQuery(`FROM rooms`).WillReturnError(errors.New("connection refused"))

	_, err := repo.ListAll(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageFailure)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRoomRepo_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRoomRepo(db)

	mock.ExpectQuery(`FROM rooms WHERE id = \?`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(roomCols))

	_, err := repo.GetByID(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepo_GetByNumber(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRoomRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM rooms WHERE number = \?`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(roomCols).AddRow("room-5", 5, "booked", now, now))

	rm, err := repo.GetByNumber(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, "room-5", rm.ID)
	assert.Equal(t, model.RoomBooked, rm.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepo_UpdateStatusTx_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRoomRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE rooms SET status = ?, updated_at = UTC_TIMESTAMP(6) WHERE id = ?`)).
		WithArgs("occupied", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.UpdateStatusTx(context.Background(), tx, "missing", model.RoomOccupied)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepo_InsertMissing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRoomRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT IGNORE INTO rooms (id, number, status) VALUES (?, ?, ?),(?, ?, ?)`)).
		WithArgs("a", 1, "free", "b", 2, "free").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.InsertMissing(context.Background(), []model.Room{
		{ID: "a", Number: 1, Status: model.RoomFree},
		{ID: "b", Number: 2, Status: model.RoomFree},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepo_InsertMissing_Empty(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRoomRepo(db)

	n, err := repo.InsertMissing(context.Background(), nil)

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
