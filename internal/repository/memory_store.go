package repository

import (
	"context"
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/motel-occupancy/internal/model"
)

// MemoryStore is an in-process Store used when no database is configured
// and by the service tests.
//   - one mutex guards everything; WithinTx holds it for the whole unit of work
//   - writes inside a transaction are staged and applied only on success
//   - bookings keep insertion order
type MemoryStore struct {
	mu sync.RWMutex

	rooms    map[string]model.Room // roomID -> room
	byNumber map[int]string        // number -> roomID
	bookings map[string]model.Booking
	order    []string // booking ids in insertion order

	now func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:    map[string]model.Room{},
		byNumber: map[int]string{},
		bookings: map[string]model.Booking{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) ListRooms(_ context.Context) ([]model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Room, 0, len(s.rooms))
	for _, rm := range s.rooms {
		out = append(out, rm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *MemoryStore) GetRoom(_ context.Context, id string) (model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rm, ok := s.rooms[id]
	if !ok {
		return model.Room{}, ErrNotFound
	}
	return rm, nil
}

func (s *MemoryStore) GetRoomByNumber(_ context.Context, number int) (model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byNumber[number]
	if !ok {
		return model.Room{}, ErrNotFound
	}
	return s.rooms[id], nil
}

func (s *MemoryStore) GetBooking(_ context.Context, id string) (model.BookingDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return model.BookingDetail{}, ErrNotFound
	}
	return model.BookingDetail{Booking: b, RoomNumber: s.rooms[b.RoomID].Number}, nil
}

// Bookings copies the id order when ranging starts and then reads each
// booking's current value as it is yielded.  The lock is never held while
// the caller's loop body runs.
func (s *MemoryStore) Bookings(_ context.Context, f BookingFilter) iter.Seq2[model.BookingDetail, error] {
	return func(yield func(model.BookingDetail, error) bool) {
		s.mu.RLock()
		ids := make([]string, len(s.order))
		copy(ids, s.order)
		s.mu.RUnlock()

		for _, id := range ids {
			s.mu.RLock()
			b := s.bookings[id]
			number := s.rooms[b.RoomID].Number
			s.mu.RUnlock()
			if !f.matches(b) {
				continue
			}
			if !yield(model.BookingDetail{Booking: b, RoomNumber: number}, nil) {
				return
			}
		}
	}
}

func (s *MemoryStore) ProvisionRooms(_ context.Context, rooms []model.Room) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for _, rm := range rooms {
		if _, exists := s.byNumber[rm.Number]; exists {
			continue
		}
		now := s.now()
		rm.CreatedAt, rm.UpdatedAt = now, now
		s.rooms[rm.ID] = rm
		s.byNumber[rm.Number] = rm.ID
		added++
	}
	return added, nil
}

func (s *MemoryStore) WithinTx(_ context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memoryTx{
		store:    s,
		rooms:    map[string]model.Room{},
		bookings: map[string]model.Booking{},
	}
	if err := fn(tx); err != nil {
		return err
	}
	for id, rm := range tx.rooms {
		s.rooms[id] = rm
	}
	for id, b := range tx.bookings {
		s.bookings[id] = b
	}
	s.order = append(s.order, tx.inserted...)
	return nil
}

// memoryTx stages writes on top of the store.  The store mutex is held by
// WithinTx for the lifetime of the transaction.
type memoryTx struct {
	store    *MemoryStore
	rooms    map[string]model.Room
	bookings map[string]model.Booking
	inserted []string
}

func (t *memoryTx) room(id string) (model.Room, bool) {
	if rm, ok := t.rooms[id]; ok {
		return rm, true
	}
	rm, ok := t.store.rooms[id]
	return rm, ok
}

func (t *memoryTx) booking(id string) (model.Booking, bool) {
	if b, ok := t.bookings[id]; ok {
		return b, true
	}
	b, ok := t.store.bookings[id]
	return b, ok
}

func (t *memoryTx) LockRoom(_ context.Context, id string) (model.Room, error) {
	rm, ok := t.room(id)
	if !ok {
		return model.Room{}, ErrNotFound
	}
	return rm, nil
}

func (t *memoryTx) SetRoomStatus(_ context.Context, id string, status model.RoomStatus) error {
	rm, ok := t.room(id)
	if !ok {
		return ErrNotFound
	}
	rm.Status = status
	rm.UpdatedAt = t.store.now()
	t.rooms[id] = rm
	return nil
}

func (t *memoryTx) LockBooking(_ context.Context, id string) (model.Booking, error) {
	b, ok := t.booking(id)
	if !ok {
		return model.Booking{}, ErrNotFound
	}
	return b, nil
}

// InsertBooking enforces the same guard as the MySQL unique index: a room
// may have at most one live booking.
func (t *memoryTx) InsertBooking(_ context.Context, b *model.Booking) error {
	if _, ok := t.room(b.RoomID); !ok {
		return ErrNotFound
	}
	if b.Status.Live() {
		for _, id := range t.store.order {
			if other, _ := t.booking(id); other.RoomID == b.RoomID && other.Status.Live() {
				return ErrRoomUnavailable
			}
		}
		for _, id := range t.inserted {
			if other := t.bookings[id]; other.RoomID == b.RoomID && other.Status.Live() {
				return ErrRoomUnavailable
			}
		}
	}
	t.bookings[b.ID] = *b
	t.inserted = append(t.inserted, b.ID)
	return nil
}

func (t *memoryTx) SetBookingStatus(_ context.Context, id string, status model.BookingStatus) error {
	b, ok := t.booking(id)
	if !ok {
		return ErrNotFound
	}
	b.Status = status
	b.UpdatedAt = t.store.now()
	t.bookings[id] = b
	return nil
}
