package model

import "time"

// RoomStatus is the occupancy state of a room.  It mirrors the status of
// the room's live booking: FREE when there is none, BOOKED while a guest is
// registered but not yet arrived, OCCUPIED once the guest has checked in.
type RoomStatus string

const (
    RoomFree     RoomStatus = "free"
    RoomBooked   RoomStatus = "booked"
    RoomOccupied RoomStatus = "occupied"
)

// RoomStatuses lists every room status in board order.
var RoomStatuses = []RoomStatus{RoomFree, RoomBooked, RoomOccupied}

// Valid reports whether s is one of the known room statuses.
func (s RoomStatus) Valid() bool {
    switch s {
    case RoomFree, RoomBooked, RoomOccupied:
        return true
    }
    return false
}

// Room describes a physical unit of inventory.  Rooms are provisioned once
// from the inventory and are never deleted.  Only Status changes after
// provisioning.
//
// Fields:
//  ID        – opaque identifier (rooms.id).
//  Number    – door number shown to staff, unique and positive.
//  Status    – current occupancy state.
//  CreatedAt – provisioning timestamp.
//  UpdatedAt – last status change.
type Room struct {
    ID        string     `json:"id"`         // rooms.id
    Number    int        `json:"number"`     // rooms.number
    Status    RoomStatus `json:"status"`     // rooms.status
    CreatedAt time.Time  `json:"-"`          // rooms.created_at
    UpdatedAt time.Time  `json:"updated_at"` // rooms.updated_at
}
