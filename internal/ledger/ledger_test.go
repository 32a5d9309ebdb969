package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/punchamoorthee/roomledger/internal/domain"
	"github.com/punchamoorthee/roomledger/internal/inventory"
	"github.com/punchamoorthee/roomledger/internal/kv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingStore struct{ kv.Store }

func (failingStore) Set(context.Context, string, []byte) error { return errors.New("disk full") }

func rental(ref, renter, roomID string) domain.Rental {
	return domain.Rental{
		ID:                  "r-" + ref,
		RoomID:              roomID,
		RenterAddress:       renter,
		Days:                3,
		TotalCost:           decimal.NewFromInt(350),
		StartDate:           time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		SettlementReference: ref,
		Status:              domain.RentalStatusActive,
	}
}

func setupLedger(t *testing.T, store kv.Store) (*Ledger, *inventory.Inventory) {
	inv := inventory.New()
	require.NoError(t, inv.Initialize("room-1", 10))
	l := New(store, inv, zap.NewNop())
	_, err := l.Load(context.Background())
	require.NoError(t, err)
	return l, inv
}

func TestAppend_DuplicateReferenceStoredOnce(t *testing.T) {
	ctx := context.Background()
	l, _ := setupLedger(t, kv.NewMemory())

	require.NoError(t, l.Append(ctx, rental("tx123", "GRENTER", "room-1")))
	err := l.Append(ctx, rental("tx123", "GRENTER", "room-1"))

	assert.ErrorIs(t, err, domain.ErrDuplicateSettlement)
	assert.Equal(t, 1, l.Len())
}

func TestAppend_RequiresReference(t *testing.T) {
	l, _ := setupLedger(t, kv.NewMemory())
	assert.Error(t, l.Append(context.Background(), rental("", "GRENTER", "room-1")))
	assert.Equal(t, 0, l.Len())
}

func TestAppend_PersistsRentalsWithAvailability(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	l, inv := setupLedger(t, store)

	require.NoError(t, inv.Reserve("room-1", 1))
	require.NoError(t, l.Append(ctx, rental("tx1", "GRENTER", "room-1")))

	reloaded := New(store, inventory.New(), zap.NewNop())
	available, err := reloaded.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"room-1": 9}, available)
	got, ok := reloaded.Get("tx1")
	require.True(t, ok)
	assert.True(t, got.TotalCost.Equal(decimal.NewFromInt(350)))
	assert.Equal(t, domain.RentalStatusActive, got.Status)
}

func TestAppend_PersistFailureStoresNothing(t *testing.T) {
	l, _ := setupLedger(t, failingStore{kv.NewMemory()})

	assert.Error(t, l.Append(context.Background(), rental("tx1", "GRENTER", "room-1")))
	assert.Equal(t, 0, l.Len())
	_, ok := l.Get("tx1")
	assert.False(t, ok)
}

func TestListFor_SettlementOrder(t *testing.T) {
	ctx := context.Background()
	l, _ := setupLedger(t, kv.NewMemory())

	require.NoError(t, l.Append(ctx, rental("a", "GALICE", "room-1")))
	require.NoError(t, l.Append(ctx, rental("b", "GBOB", "room-1")))
	require.NoError(t, l.Append(ctx, rental("c", "GALICE", "room-2")))

	alice := l.ListFor("GALICE")
	require.Len(t, alice, 2)
	assert.Equal(t, "a", alice[0].SettlementReference)
	assert.Equal(t, "c", alice[1].SettlementReference)

	assert.Len(t, l.ListForRoom("room-1"), 2)
	assert.Empty(t, l.ListFor("GNOBODY"))
}

func TestLoad_EmptyStore(t *testing.T) {
	l := New(kv.NewMemory(), inventory.New(), zap.NewNop())
	available, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, available)
	assert.Equal(t, 0, l.Len())
}
