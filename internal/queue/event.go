// Package queue defines lifecycle event payloads and the RabbitMQ plumbing
// that carries them.
package queue

import "time"

// Routing keys for lifecycle events on the topic exchange.
const (
    EventGuestRegistered = "guest.registered"
    EventGuestCheckedIn  = "guest.checked_in"
    EventGuestCheckedOut = "guest.checked_out"
)

// LifecycleEvent is published after a registration, check-in or check-out
// has been committed.  It carries enough for downstream consumers to keep
// an audit trail without querying the primary database.
type LifecycleEvent struct {
    Type          string    `json:"type"`
    BookingID     string    `json:"booking_id"`
    RoomID        string    `json:"room_id"`
    RoomNumber    int       `json:"room_number"`
    GuestName     string    `json:"guest_name"`
    BookingStatus string    `json:"booking_status"`
    RoomStatus    string    `json:"room_status"`
    PaymentAmount int64     `json:"payment_amount"`
    CheckIn       string    `json:"check_in"`
    CheckOut      string    `json:"check_out"`
    OccurredAt    time.Time `json:"occurred_at"`
}
