package service

import (
	"context"
	"time"

	"github.com/iliyamo/motel-occupancy/internal/model"
	"github.com/iliyamo/motel-occupancy/internal/repository"
)

// OccupancySnapshot counts rooms per status at one point in time.
type OccupancySnapshot struct {
	Free     int `json:"free"`
	Booked   int `json:"booked"`
	Occupied int `json:"occupied"`
	Total    int `json:"total"`
}

// SalesSummary aggregates the bookings whose check-in is at or after
// PeriodStart.
type SalesSummary struct {
	PeriodStart time.Time
	Sales       int64 // sum of PaymentAmount, minor units
	GuestCount  int
	Bookings    []model.BookingDetail
}

// Summary is a sales summary together with the current room counts.
type Summary struct {
	SalesSummary
	Occupancy OccupancySnapshot
}

// ReportingAggregator derives reports from the registry and ledger.  It
// never writes.
type ReportingAggregator struct {
	rooms  *RoomRegistry
	ledger *BookingLedger
}

func NewReportingAggregator(rooms *RoomRegistry, ledger *BookingLedger) *ReportingAggregator {
	return &ReportingAggregator{rooms: rooms, ledger: ledger}
}

func (a *ReportingAggregator) OccupancySnapshot(ctx context.Context) (OccupancySnapshot, error) {
	ctx, span := tracer.Start(ctx, "reporting.OccupancySnapshot")
	defer span.End()

	rooms, err := a.rooms.ListRooms(ctx)
	if err != nil {
		return OccupancySnapshot{}, fail(span, err)
	}
	var snap OccupancySnapshot
	for _, rm := range rooms {
		switch rm.Status {
		case model.RoomFree:
			snap.Free++
		case model.RoomBooked:
			snap.Booked++
		case model.RoomOccupied:
			snap.Occupied++
		}
	}
	snap.Total = len(rooms)
	return snap, nil
}

func (a *ReportingAggregator) SalesSummary(ctx context.Context, periodStart time.Time) (SalesSummary, error) {
	ctx, span := tracer.Start(ctx, "reporting.SalesSummary")
	defer span.End()

	out := SalesSummary{PeriodStart: periodStart, Bookings: []model.BookingDetail{}}
	for d, err := range a.ledger.ListBookings(ctx, repository.BookingFilter{CheckInFrom: periodStart}) {
		if err != nil {
			return SalesSummary{}, fail(span, err)
		}
		out.Sales += d.PaymentAmount
		out.GuestCount++
		out.Bookings = append(out.Bookings, d)
	}
	return out, nil
}

// Summary combines SalesSummary with OccupancySnapshot.  The two reads are
// not taken from one transaction.
func (a *ReportingAggregator) Summary(ctx context.Context, periodStart time.Time) (Summary, error) {
	sales, err := a.SalesSummary(ctx, periodStart)
	if err != nil {
		return Summary{}, err
	}
	snap, err := a.OccupancySnapshot(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summary{SalesSummary: sales, Occupancy: snap}, nil
}
