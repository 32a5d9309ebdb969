// Package inventory tracks the usage-right tokens of each room.
package inventory

import (
	"fmt"
	"sync"

	"github.com/punchamoorthee/roomledger/internal/domain"
)

type counter struct {
	supply    int
	available int
}

// Inventory holds 0 <= available <= supply for every room it knows.
type Inventory struct {
	mu    sync.Mutex
	rooms map[string]*counter
}

func New() *Inventory {
	return &Inventory{rooms: make(map[string]*counter)}
}

// Initialize registers a freshly minted room with its whole supply available.
func (i *Inventory) Initialize(roomID string, supply int) error {
	return i.Restore(roomID, supply, supply)
}

// Restore registers a room with a previously recorded availability.
func (i *Inventory) Restore(roomID string, supply, available int) error {
	if supply <= 0 {
		return fmt.Errorf("room %s: token supply must be positive, got %d", roomID, supply)
	}
	if available < 0 || available > supply {
		return fmt.Errorf("room %s: available %d outside [0, %d]", roomID, available, supply)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.rooms[roomID] = &counter{supply: supply, available: available}
	return nil
}

func (i *Inventory) Available(roomID string) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	c, ok := i.rooms[roomID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrRoomNotFound, roomID)
	}
	return c.available, nil
}

// Reserve consumes units tokens, failing with ErrInsufficientSupply (and no
// change) when fewer remain.
func (i *Inventory) Reserve(roomID string, units int) error {
	if units < 1 {
		return fmt.Errorf("reserve %s: units must be positive, got %d", roomID, units)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	c, ok := i.rooms[roomID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrRoomNotFound, roomID)
	}
	if c.available < units {
		return fmt.Errorf("%w: room %s has %d, wanted %d", domain.ErrInsufficientSupply, roomID, c.available, units)
	}
	c.available -= units
	return nil
}

// Release undoes a reservation that could not be made durable. It never
// raises availability above supply.
func (i *Inventory) Release(roomID string, units int) {
	i.mu.Lock()
	defer i.mu.Unlock()

	c, ok := i.rooms[roomID]
	if !ok {
		return
	}
	c.available = min(c.available+units, c.supply)
}

// Snapshot returns a copy of the availability counters keyed by room.
func (i *Inventory) Snapshot() map[string]int {
	i.mu.Lock()
	defer i.mu.Unlock()

	out := make(map[string]int, len(i.rooms))
	for id, c := range i.rooms {
		out[id] = c.available
	}
	return out
}
