// Package ledger is the append-only record of settled rentals.
//
// The rental log and the inventory counters are persisted together as one
// document under one key, so a commit never leaves one written without the
// other.
package ledger

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/punchamoorthee/roomledger/internal/domain"
	"github.com/punchamoorthee/roomledger/internal/kv"
	"go.uber.org/zap"
)

const ledgerKey = "ledger"

// Availability supplies the inventory counters written alongside each entry.
type Availability interface {
	Snapshot() map[string]int
}

type document struct {
	Rentals   []domain.Rental `json:"rentals"`
	Available map[string]int  `json:"available"`
}

type Ledger struct {
	mu        sync.RWMutex
	store     kv.Store
	inventory Availability
	log       *zap.Logger

	rentals []domain.Rental
	byRef   map[string]int
}

func New(store kv.Store, inventory Availability, log *zap.Logger) *Ledger {
	return &Ledger{
		store:     store,
		inventory: inventory,
		log:       log,
		byRef:     make(map[string]int),
	}
}

// Load reads the persisted ledger and returns the availability counters that
// were stored with it. Both are empty on first run.
func (l *Ledger) Load(ctx context.Context) (map[string]int, error) {
	var doc document
	if _, err := kv.GetJSON(ctx, l.store, ledgerKey, &doc); err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.rentals = nil
	l.byRef = make(map[string]int, len(doc.Rentals))
	for _, r := range doc.Rentals {
		if _, dup := l.byRef[r.SettlementReference]; dup {
			l.log.Warn("dropping duplicate settlement in stored ledger", zap.String("reference", r.SettlementReference))
			continue
		}
		l.byRef[r.SettlementReference] = len(l.rentals)
		l.rentals = append(l.rentals, r)
	}
	if doc.Available == nil {
		doc.Available = map[string]int{}
	}
	l.log.Info("ledger loaded", zap.Int("rentals", len(l.rentals)))
	return doc.Available, nil
}

// Append records rental, keyed by its settlement reference. A reference that
// is already recorded yields ErrDuplicateSettlement and stores nothing.
func (l *Ledger) Append(ctx context.Context, rental domain.Rental) error {
	if rental.SettlementReference == "" {
		return fmt.Errorf("rental %s has no settlement reference", rental.ID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dup := l.byRef[rental.SettlementReference]; dup {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateSettlement, rental.SettlementReference)
	}

	next := append(slices.Clone(l.rentals), rental)
	doc := document{Rentals: next, Available: l.inventory.Snapshot()}
	if err := kv.SetJSON(ctx, l.store, ledgerKey, doc); err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}

	l.byRef[rental.SettlementReference] = len(l.rentals)
	l.rentals = next
	return nil
}

// Get returns the rental recorded for a settlement reference.
func (l *Ledger) Get(reference string) (domain.Rental, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i, ok := l.byRef[reference]
	if !ok {
		return domain.Rental{}, false
	}
	return l.rentals[i], true
}

// ListFor returns the renter's rentals in settlement order.
func (l *Ledger) ListFor(identity string) []domain.Rental {
	return l.filter(func(r domain.Rental) bool { return r.RenterAddress == identity })
}

func (l *Ledger) ListForRoom(roomID string) []domain.Rental {
	return l.filter(func(r domain.Rental) bool { return r.RoomID == roomID })
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.rentals)
}

func (l *Ledger) filter(keep func(domain.Rental) bool) []domain.Rental {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := []domain.Rental{}
	for _, r := range l.rentals {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

