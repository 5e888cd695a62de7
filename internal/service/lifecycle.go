package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/iliyamo/motel-occupancy/internal/model"
	"github.com/iliyamo/motel-occupancy/internal/queue"
	"github.com/iliyamo/motel-occupancy/internal/repository"
)

var tracer = otel.Tracer("github.com/iliyamo/motel-occupancy/internal/service")

// emitTimeout bounds how long a committed operation waits on its sinks.
const emitTimeout = 5 * time.Second

// LifecycleCoordinator is the only writer of room and booking status.  Each
// operation runs as a single store transaction:
//
//	(none)     -> booked       room free     -> booked
//	booked     -> checked-in   room booked   -> occupied
//	checked-in -> checked-out  room occupied -> free
//
// After commit an event is handed to the sink.
type LifecycleCoordinator struct {
	store  repository.Store
	rooms  *RoomRegistry
	ledger *BookingLedger
	sink   EventSink
	log    *zap.Logger
	now    func() time.Time
}

func NewLifecycleCoordinator(store repository.Store, rooms *RoomRegistry, ledger *BookingLedger, sink EventSink, log *zap.Logger) *LifecycleCoordinator {
	if sink == nil {
		sink = NopSink{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LifecycleCoordinator{
		store:  store,
		rooms:  rooms,
		ledger: ledger,
		sink:   sink,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RegisterGuest books a free room for a guest.  A room given by number is
// resolved first; an unknown room is reported as unavailable.
func (c *LifecycleCoordinator) RegisterGuest(ctx context.Context, reg Registration) (model.BookingDetail, error) {
	ctx, span := tracer.Start(ctx, "lifecycle.RegisterGuest")
	defer span.End()

	if reg.RoomID == "" && reg.RoomNumber > 0 {
		rm, err := c.rooms.GetRoomByNumber(ctx, reg.RoomNumber)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			err = fmt.Errorf("%w: room %d does not exist", repository.ErrRoomUnavailable, reg.RoomNumber)
			return model.BookingDetail{}, fail(span, err)
		case err != nil:
			return model.BookingDetail{}, fail(span, err)
		}
		reg.RoomID = rm.ID
	}

	var out model.BookingDetail
	err := c.store.WithinTx(ctx, func(tx repository.Tx) error {
		d, err := c.ledger.createBooking(ctx, tx, reg)
		if err != nil {
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		return model.BookingDetail{}, fail(span, err)
	}

	span.SetAttributes(attribute.String("booking.id", out.ID), attribute.Int("room.number", out.RoomNumber))
	c.log.Info("guest registered",
		zap.String("booking_id", out.ID), zap.Int("room", out.RoomNumber), zap.String("guest", out.FullName))
	c.emit(ctx, queue.EventGuestRegistered, out)
	return out, nil
}

// CheckIn moves a booked booking to checked-in and its room to occupied.
func (c *LifecycleCoordinator) CheckIn(ctx context.Context, bookingID string) (model.BookingDetail, error) {
	return c.transition(ctx, "lifecycle.CheckIn", bookingID, model.BookingBooked, model.BookingCheckedIn, queue.EventGuestCheckedIn)
}

// CheckOut moves a checked-in booking to checked-out and frees its room.
func (c *LifecycleCoordinator) CheckOut(ctx context.Context, bookingID string) (model.BookingDetail, error) {
	return c.transition(ctx, "lifecycle.CheckOut", bookingID, model.BookingCheckedIn, model.BookingCheckedOut, queue.EventGuestCheckedOut)
}

// transition locks the booking and then its room, checks the booking is in
// from and writes both new statuses.
func (c *LifecycleCoordinator) transition(ctx context.Context, op, bookingID string, from, to model.BookingStatus, event string) (model.BookingDetail, error) {
	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(attribute.String("booking.id", bookingID)))
	defer span.End()

	if bookingID == "" {
		return model.BookingDetail{}, fail(span, fmt.Errorf("%w: booking id is empty", repository.ErrNotFound))
	}

	var out model.BookingDetail
	err := c.store.WithinTx(ctx, func(tx repository.Tx) error {
		b, err := c.ledger.lock(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != from {
			return fmt.Errorf("%w: booking %s is %s, expected %s", repository.ErrInvalidTransition, b.ID, b.Status, from)
		}
		rm, err := c.rooms.lock(ctx, tx, b.RoomID)
		if err != nil {
			return err
		}
		if err := c.ledger.updateStatus(ctx, tx, b.ID, to); err != nil {
			return err
		}
		if err := c.rooms.setStatus(ctx, tx, rm.ID, to.RoomStatus()); err != nil {
			return err
		}
		b.Status = to
		b.UpdatedAt = c.now()
		out = model.BookingDetail{Booking: b, RoomNumber: rm.Number}
		return nil
	})
	if err != nil {
		return model.BookingDetail{}, fail(span, err)
	}

	c.log.Info("booking transitioned",
		zap.String("booking_id", out.ID), zap.Int("room", out.RoomNumber),
		zap.String("from", string(from)), zap.String("to", string(to)))
	c.emit(ctx, event, out)
	return out, nil
}

func (c *LifecycleCoordinator) emit(ctx context.Context, kind string, d model.BookingDetail) {
	ev := newLifecycleEvent(kind, d, c.now())
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emitTimeout)
	defer cancel()
	if err := c.sink.Publish(ctx, ev); err != nil {
		c.log.Warn("lifecycle event not delivered",
			zap.String("event", kind), zap.String("booking_id", d.ID), zap.Error(err))
	}
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	if errors.Is(err, repository.ErrStorageFailure) {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
