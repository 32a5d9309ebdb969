package settlement

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/punchamoorthee/roomledger/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultAddr = "GAIH3ULLFQ4DGSECF2AR555KZ4KNDGEKN4AFI4SU2M7B43MGK3QJZNSR"

func TestValidAddress(t *testing.T) {
	cases := map[string]bool{
		defaultAddr:                  true,
		defaultAddr[:55]:             false,
		defaultAddr + "A":            false,
		"GXXXXXX" + defaultAddr[7:]:  false,
		"S" + defaultAddr[1:]:        false,
		strings.ToLower(defaultAddr): false,
		defaultAddr[:55] + "1":       false,
		"":                           false,
	}
	for addr, want := range cases {
		assert.Equal(t, want, ValidAddress(addr), addr)
	}
}

func TestNewResolver_RejectsInvalidDefault(t *testing.T) {
	_, err := NewResolver("GSHORT")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	r, err := NewResolver(defaultAddr)
	require.NoError(t, err)

	owner := "GBRPYHIL2CI3FNQ4BXLFMNDLFJUNPU2HY3ZMFSHONUCEOASW7QC7OX2H"
	addr, fallback := r.Resolve(owner)
	assert.Equal(t, owner, addr)
	assert.False(t, fallback)

	addr, fallback = r.Resolve("GOWNER")
	assert.Equal(t, defaultAddr, addr)
	assert.True(t, fallback)
}

func TestMemo(t *testing.T) {
	assert.Equal(t, "3d Suite", Memo("Suite", 3, 28))

	long := Memo("Luxury Sea View Suite With Balcony", 30, 28)
	assert.Equal(t, "30d Luxury Sea View Suite Wi", long)
	assert.Equal(t, long, Memo("Luxury Sea View Suite With Balcony", 30, 28))
}

func TestMemo_DoesNotSplitRunes(t *testing.T) {
	memo := Memo("Lüks Deniz Manzaralı Suit", 2, 12)
	assert.True(t, utf8.ValidString(memo))
	assert.LessOrEqual(t, len(memo), 12)
}

func TestSimulator_IdempotencyKeyReplaysReference(t *testing.T) {
	ctx := context.Background()
	sim := NewSimulator(defaultAddr)

	req := domain.PaymentRequest{From: "GA", To: defaultAddr, Amount: decimal.NewFromInt(5), IdempotencyKey: "k1"}
	first, err := sim.SubmitPayment(ctx, req)
	require.NoError(t, err)
	second, err := sim.SubmitPayment(ctx, req)
	require.NoError(t, err)

	assert.True(t, first.Success)
	assert.Equal(t, first.Reference, second.Reference)
	assert.Len(t, sim.Payments(), 1)
}

func TestSimulator_DisconnectedRejects(t *testing.T) {
	ctx := context.Background()
	sim := NewSimulator(defaultAddr)
	require.NoError(t, sim.Disconnect(ctx))

	_, err := sim.SubmitPayment(ctx, domain.PaymentRequest{Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrNotConnected)

	id, err := sim.Identity(ctx)
	require.NoError(t, err)
	assert.Equal(t, defaultAddr, id)
}

func TestSimulator_DeclinesZeroAmount(t *testing.T) {
	res, err := NewSimulator(defaultAddr).SubmitPayment(context.Background(), domain.PaymentRequest{Amount: decimal.Zero})
	require.NoError(t, err)
	assert.False(t, res.Success)
}
