// Package inventory describes the fixed set of rooms the motel operates and
// loads it from a TOML file.
//
//	# rooms.toml
//	numbers = [1, 2, 3, 4, 5, 6, 7]
//
//	[[room]]
//	number = 8
//	status = "free"
package inventory

import (
	"fmt"
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/iliyamo/motel-occupancy/internal/model"
)

// DefaultNumbers is the inventory used when no file is configured.
var DefaultNumbers = []int{1, 2, 3, 4, 5, 6, 7}

// Entry is one room to provision.  A room without bookings is free, so
// Status may only be omitted or "free".
type Entry struct {
	Number int              `toml:"number"`
	Status model.RoomStatus `toml:"status"`
}

// Inventory is the parsed list of rooms, unique by number.
type Inventory struct {
	Entries []Entry
}

type fileInventory struct {
	Numbers []int   `toml:"numbers"`
	Room    []Entry `toml:"room"`
}

// Default returns rooms 1 to 7, all free.
func Default() Inventory {
	inv := Inventory{}
	for _, n := range DefaultNumbers {
		inv.Entries = append(inv.Entries, Entry{Number: n, Status: model.RoomFree})
	}
	return inv
}

// Load reads an inventory file.  An empty path yields Default.
func Load(path string) (Inventory, error) {
	if path == "" {
		return Default(), nil
	}
	var raw fileInventory
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Inventory{}, fmt.Errorf("load inventory: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Inventory{}, fmt.Errorf("load inventory: unknown key %q", undecoded[0].String())
	}

	var entries []Entry
	if meta.IsDefined("numbers") {
		for _, n := range raw.Numbers {
			entries = append(entries, Entry{Number: n, Status: model.RoomFree})
		}
	}
	for _, e := range raw.Room {
		if e.Status == "" {
			e.Status = model.RoomFree
		}
		entries = append(entries, e)
	}
	inv := Inventory{Entries: entries}
	if err := inv.Validate(); err != nil {
		return Inventory{}, err
	}
	return inv, nil
}

// Validate rejects empty inventories, non-positive or duplicate numbers and
// any status other than free.
func (inv Inventory) Validate() error {
	if len(inv.Entries) == 0 {
		return fmt.Errorf("inventory: no rooms defined")
	}
	seen := make(map[int]bool, len(inv.Entries))
	for _, e := range inv.Entries {
		if e.Number <= 0 {
			return fmt.Errorf("inventory: room number %d must be positive", e.Number)
		}
		if seen[e.Number] {
			return fmt.Errorf("inventory: duplicate room number %d", e.Number)
		}
		if e.Status != model.RoomFree {
			return fmt.Errorf("inventory: room %d must be provisioned free, got %q", e.Number, e.Status)
		}
		seen[e.Number] = true
	}
	return nil
}

// Rooms turns the inventory into rooms with fresh ids, sorted by number.
// Stores keep existing rows, so new ids only matter for rooms not yet
// provisioned.
func (inv Inventory) Rooms() []model.Room {
	rooms := make([]model.Room, 0, len(inv.Entries))
	for _, e := range inv.Entries {
		rooms = append(rooms, model.Room{ID: uuid.NewString(), Number: e.Number, Status: model.RoomFree})
	}
	slices.SortFunc(rooms, func(a, b model.Room) int { return a.Number - b.Number })
	return rooms
}
