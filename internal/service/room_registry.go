// Package service holds the occupancy core: the room registry, the booking
// ledger, the lifecycle coordinator that moves both together, and the
// read-only reporting aggregator.
package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/karlseguin/ccache/v3"

	"github.com/iliyamo/motel-occupancy/internal/model"
	"github.com/iliyamo/motel-occupancy/internal/repository"
)

const roomNumberTTL = time.Hour

// RoomRegistry reads the fixed room inventory.  Room status is changed only
// through setStatus inside a transaction opened by the coordinator.
type RoomRegistry struct {
	store repository.Store
	// number -> room id; both are immutable once provisioned
	numbers *ccache.Cache[string]
}

func NewRoomRegistry(store repository.Store) *RoomRegistry {
	return &RoomRegistry{
		store:   store,
		numbers: ccache.New(ccache.Configure[string]().MaxSize(1024)),
	}
}

// ListRooms returns every room ordered by number.  An empty inventory is an
// empty slice, not an error.
func (r *RoomRegistry) ListRooms(ctx context.Context) ([]model.Room, error) {
	rooms, err := r.store.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	for _, rm := range rooms {
		r.numbers.Set(strconv.Itoa(rm.Number), rm.ID, roomNumberTTL)
	}
	return rooms, nil
}

func (r *RoomRegistry) GetRoom(ctx context.Context, id string) (model.Room, error) {
	return r.store.GetRoom(ctx, id)
}

// GetRoomByNumber resolves a room by its door number.  The id lookup is
// cached; the status is always read fresh.
func (r *RoomRegistry) GetRoomByNumber(ctx context.Context, number int) (model.Room, error) {
	key := strconv.Itoa(number)
	if item := r.numbers.Get(key); item != nil && !item.Expired() {
		rm, err := r.store.GetRoom(ctx, item.Value())
		if !errors.Is(err, repository.ErrNotFound) {
			return rm, err
		}
		r.numbers.Delete(key)
	}
	rm, err := r.store.GetRoomByNumber(ctx, number)
	if err != nil {
		return model.Room{}, err
	}
	r.numbers.Set(key, rm.ID, roomNumberTTL)
	return rm, nil
}

func (r *RoomRegistry) lock(ctx context.Context, tx repository.Tx, id string) (model.Room, error) {
	return tx.LockRoom(ctx, id)
}

func (r *RoomRegistry) setStatus(ctx context.Context, tx repository.Tx, id string, status model.RoomStatus) error {
	if !status.Valid() {
		return repository.Invalidf("unknown room status %q", status)
	}
	return tx.SetRoomStatus(ctx, id, status)
}

// Close stops the cache's background worker.
func (r *RoomRegistry) Close() {
	r.numbers.Stop()
}
