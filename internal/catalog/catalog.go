// Package catalog holds the known rooms: a fixed seed set followed by
// user-created rooms in creation order.
package catalog

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/punchamoorthee/roomledger/internal/domain"
	"github.com/punchamoorthee/roomledger/internal/kv"
	"go.uber.org/zap"
)

const roomsKey = "rooms"

type Catalog struct {
	mu    sync.RWMutex
	store kv.Store
	log   *zap.Logger
	seed  []domain.Room
	user  []domain.Room
	byID  map[string]int // index into seed ++ user
}

func New(store kv.Store, seed []domain.Room, log *zap.Logger) *Catalog {
	c := &Catalog{
		store: store,
		log:   log,
		seed:  cloneRooms(seed),
		byID:  make(map[string]int),
	}
	for i, r := range c.seed {
		c.byID[r.ID] = i
	}
	return c
}

// Load merges persisted user rooms after the seed set. An empty store is a
// normal first run.
func (c *Catalog) Load(ctx context.Context) error {
	var persisted []domain.Room
	if _, err := kv.GetJSON(ctx, c.store, roomsKey, &persisted); err != nil {
		return fmt.Errorf("load rooms: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.user = nil
	c.byID = make(map[string]int, len(c.seed)+len(persisted))
	for i, r := range c.seed {
		c.byID[r.ID] = i
	}
	for _, r := range persisted {
		if _, dup := c.byID[r.ID]; dup {
			c.log.Warn("skipping persisted room with duplicate id", zap.String("room_id", r.ID))
			continue
		}
		c.byID[r.ID] = len(c.seed) + len(c.user)
		c.user = append(c.user, r)
	}
	c.log.Info("catalog loaded", zap.Int("seed_rooms", len(c.seed)), zap.Int("user_rooms", len(c.user)))
	return nil
}

// List returns every room, seed rooms first.
func (c *Catalog) List() []domain.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Room, 0, len(c.seed)+len(c.user))
	out = append(out, cloneRooms(c.seed)...)
	return append(out, cloneRooms(c.user)...)
}

// UserRooms returns only the rooms created through listings.
func (c *Catalog) UserRooms() []domain.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneRooms(c.user)
}

func (c *Catalog) Get(id string) (domain.Room, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byID[id]
	if !ok {
		return domain.Room{}, fmt.Errorf("%w: %s", domain.ErrRoomNotFound, id)
	}
	return cloneRoom(c.at(i)), nil
}

func (c *Catalog) FindOwned(identity string) []domain.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []domain.Room
	for i := range len(c.seed) + len(c.user) {
		if r := c.at(i); r.OwnerAddress == identity {
			out = append(out, cloneRoom(r))
		}
	}
	return out
}

// Add appends room and persists the user room list. The room is only visible
// once the write succeeded.
func (c *Catalog) Add(ctx context.Context, room domain.Room) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, dup := c.byID[room.ID]; dup {
		return fmt.Errorf("room %s already exists", room.ID)
	}

	next := append(cloneRooms(c.user), cloneRoom(room))
	if err := kv.SetJSON(ctx, c.store, roomsKey, next); err != nil {
		return fmt.Errorf("persist rooms: %w", err)
	}

	c.byID[room.ID] = len(c.seed) + len(c.user)
	c.user = next
	return nil
}

func (c *Catalog) at(i int) domain.Room {
	if i < len(c.seed) {
		return c.seed[i]
	}
	return c.user[i-len(c.seed)]
}

func cloneRoom(r domain.Room) domain.Room {
	r.Amenities = slices.Clone(r.Amenities)
	return r
}

func cloneRooms(in []domain.Room) []domain.Room {
	out := make([]domain.Room, len(in))
	for i, r := range in {
		out[i] = cloneRoom(r)
	}
	return out
}
