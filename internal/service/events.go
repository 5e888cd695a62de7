package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/motel-occupancy/internal/model"
	"github.com/iliyamo/motel-occupancy/internal/queue"
)

// EventSink receives lifecycle events after the transition that produced
// them has committed.  Errors are logged by the coordinator and otherwise
// ignored.
type EventSink interface {
	Publish(ctx context.Context, ev queue.LifecycleEvent) error
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(ctx context.Context, ev queue.LifecycleEvent) error

func (f SinkFunc) Publish(ctx context.Context, ev queue.LifecycleEvent) error { return f(ctx, ev) }

// NopSink drops every event.
type NopSink struct{}

func (NopSink) Publish(context.Context, queue.LifecycleEvent) error { return nil }

// MultiSink fans an event out to every sink, even when earlier ones fail.
type MultiSink []EventSink

func (m MultiSink) Publish(ctx context.Context, ev queue.LifecycleEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newLifecycleEvent(kind string, d model.BookingDetail, at time.Time) queue.LifecycleEvent {
	return queue.LifecycleEvent{
		Type:          kind,
		BookingID:     d.ID,
		RoomID:        d.RoomID,
		RoomNumber:    d.RoomNumber,
		GuestName:     d.FullName,
		BookingStatus: string(d.Status),
		RoomStatus:    string(d.Status.RoomStatus()),
		PaymentAmount: d.PaymentAmount,
		CheckIn:       d.CheckIn.Format(model.DateLayout),
		CheckOut:      d.CheckOut.Format(model.DateLayout),
		OccurredAt:    at,
	}
}
