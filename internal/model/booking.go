package model

import (
    "strings"
    "time"
)

// BookingStatus is the lifecycle state of a guest stay.  The only legal
// path is booked -> checked-in -> checked-out; checked-out is terminal.
type BookingStatus string

const (
    BookingBooked     BookingStatus = "booked"
    BookingCheckedIn  BookingStatus = "checked-in"
    BookingCheckedOut BookingStatus = "checked-out"
)

// Valid reports whether s is one of the known booking statuses.
func (s BookingStatus) Valid() bool {
    switch s {
    case BookingBooked, BookingCheckedIn, BookingCheckedOut:
        return true
    }
    return false
}

// Live reports whether a booking in this status still holds its room.
func (s BookingStatus) Live() bool {
    return s == BookingBooked || s == BookingCheckedIn
}

// RoomStatus returns the status the booking's room must have while the
// booking is in state s.
func (s BookingStatus) RoomStatus() RoomStatus {
    switch s {
    case BookingBooked:
        return RoomBooked
    case BookingCheckedIn:
        return RoomOccupied
    }
    return RoomFree
}

// ParseBookingStatus converts user input into a BookingStatus.  Matching is
// case-insensitive and accepts underscores in place of hyphens.
func ParseBookingStatus(raw string) (BookingStatus, bool) {
    s := BookingStatus(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "_", "-"))
    return s, s.Valid()
}

// Guest holds the guest and payment attributes captured at registration.
// They are opaque to the lifecycle and only validated for presence.
// PaymentAmount is in minor currency units.
type Guest struct {
    FullName             string `json:"fullName"`
    TelephoneNo          string `json:"telephoneNo"`
    Email                string `json:"email"`
    IDOrPassportNo       string `json:"idOrPassportNo"`
    PaymentMethod        string `json:"paymentMethod"`
    PaymentAmount        int64  `json:"paymentAmount"`
    ModeOfPayment        string `json:"modeOfPayment"`
    TransactionOrReceipt string `json:"transactionOrReceipt"`
}

// Booking records one guest stay against exactly one room.  Bookings are
// retained after checkout for reporting.
type Booking struct {
    ID     string `json:"id"`     // bookings.id
    RoomID string `json:"roomId"` // bookings.room_id
    Guest
    CheckIn   time.Time     `json:"checkIn"`   // bookings.check_in (date, UTC midnight)
    CheckOut  time.Time     `json:"checkOut"`  // bookings.check_out (date, UTC midnight)
    Status    BookingStatus `json:"status"`    // bookings.status
    CreatedAt time.Time     `json:"createdAt"` // bookings.created_at
    UpdatedAt time.Time     `json:"updatedAt"` // bookings.updated_at
}

// BookingDetail is a booking joined with the number of its room, the shape
// used by guest lists and reports.
type BookingDetail struct {
    Booking
    RoomNumber int `json:"roomNumber"`
}

// DateLayout is the wire format for check-in and check-out dates.
const DateLayout = "2006-01-02"

// ParseDate accepts a calendar date (YYYY-MM-DD) or an RFC3339 timestamp and
// returns the date at UTC midnight.
func ParseDate(raw string) (time.Time, error) {
    raw = strings.TrimSpace(raw)
    if t, err := time.Parse(DateLayout, raw); err == nil {
        return t, nil
    }
    t, err := time.Parse(time.RFC3339, raw)
    if err != nil {
        return time.Time{}, err
    }
    return TruncateDate(t), nil
}

// TruncateDate drops the time of day, keeping the UTC calendar date.
func TruncateDate(t time.Time) time.Time {
    u := t.UTC()
    return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
