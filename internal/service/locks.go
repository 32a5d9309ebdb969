package service

import (
	"context"
	"sync"
)

// roomLocks admits one rental per room at a time. Waiters give up when
// their context ends. A room's slot is dropped once no caller holds or
// waits on it.
type roomLocks struct {
	mu    sync.Mutex
	slots map[string]*roomSlot
}

type roomSlot struct {
	ch   chan struct{}
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{slots: make(map[string]*roomSlot)}
}

func (l *roomLocks) acquire(ctx context.Context, roomID string) (release func(), err error) {
	l.mu.Lock()
	slot, ok := l.slots[roomID]
	if !ok {
		slot = &roomSlot{ch: make(chan struct{}, 1)}
		l.slots[roomID] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
		return func() {
			<-slot.ch
			l.done(roomID, slot)
		}, nil
	case <-ctx.Done():
		l.done(roomID, slot)
		return nil, ctx.Err()
	}
}

func (l *roomLocks) done(roomID string, slot *roomSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, roomID)
	}
}

func (l *roomLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
