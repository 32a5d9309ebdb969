package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/punchamoorthee/roomledger/internal/domain"
	"github.com/punchamoorthee/roomledger/internal/kv"
	"github.com/punchamoorthee/roomledger/internal/service"
	"github.com/punchamoorthee/roomledger/internal/settlement"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	defaultAddr = "GAIH3ULLFQ4DGSECF2AR555KZ4KNDGEKN4AFI4SU2M7B43MGK3QJZNSR"
	renterAddr  = "GDRENTERAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	ownerAddr   = "GBRPYHIL2CI3FNQ4BXLFMNDLFJUNPU2HY3ZMFSHONUCEOASW7QC7OX2H"
)

func setupRouter(t *testing.T) (http.Handler, *settlement.Simulator) {
	resolver, err := settlement.NewResolver(defaultAddr)
	require.NoError(t, err)
	sim := settlement.NewSimulator(renterAddr)

	svc, err := service.Open(context.Background(), kv.NewMemory(), sim, resolver, service.Options{MemoMaxBytes: 28}, zap.NewNop())
	require.NoError(t, err)
	return NewRouter(NewHandler(svc, zap.NewNop())), sim
}

func do(t *testing.T, h http.Handler, method, path, identity string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if identity != "" {
		req.Header.Set(IdentityHeader, identity)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createRoom(t *testing.T, h http.Handler) domain.Room {
	t.Helper()
	rec := do(t, h, "POST", "/api/v1/rooms", ownerAddr, domain.ListingInput{
		Title: "Suite", Location: "X", PricePerDay: "100", Deposit: "50", TokenSupply: "30",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var room domain.Room
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&room))
	return room
}

func TestHealth(t *testing.T) {
	h, _ := setupRouter(t)
	rec := do(t, h, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateListing(t *testing.T) {
	h, _ := setupRouter(t)
	room := createRoom(t, h)

	assert.Equal(t, 30, room.Available)
	assert.Equal(t, 30, room.TokenSupply)
	assert.Equal(t, ownerAddr, room.OwnerAddress)

	rec := do(t, h, "GET", "/api/v1/rooms", "", nil)
	var rooms []domain.Room
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rooms))
	assert.Len(t, rooms, 5)
}

func TestCreateListing_Errors(t *testing.T) {
	h, _ := setupRouter(t)

	rec := do(t, h, "POST", "/api/v1/rooms", "", domain.ListingInput{Title: "Suite", Location: "X", PricePerDay: "1", TokenSupply: "1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, "POST", "/api/v1/rooms", ownerAddr, domain.ListingInput{Title: "Suite"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestQuote(t *testing.T) {
	h, _ := setupRouter(t)
	room := createRoom(t, h)

	rec := do(t, h, "GET", "/api/v1/rooms/"+room.ID+"/quote?days=3", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		TotalCost decimal.Decimal `json:"total_cost"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.TotalCost.Equal(decimal.NewFromInt(350)))

	rec = do(t, h, "GET", "/api/v1/rooms/"+room.ID+"/quote?days=0", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = do(t, h, "GET", "/api/v1/rooms/ghost/quote?days=1", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExecuteRental_CreatedThenReplayed(t *testing.T) {
	h, sim := setupRouter(t)
	room := createRoom(t, h)
	body := map[string]any{"room_id": room.ID, "days": 3}

	rec := do(t, h, "POST", "/api/v1/rentals", renterAddr, body, "Idempotency-Key", "attempt-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var first rentalResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&first))
	assert.True(t, first.Rental.TotalCost.Equal(decimal.NewFromInt(350)))
	assert.Equal(t, domain.RentalStatusActive, first.Rental.Status)

	rec = do(t, h, "POST", "/api/v1/rentals", renterAddr, body, "Idempotency-Key", "attempt-1")
	require.Equal(t, http.StatusOK, rec.Code)
	var second rentalResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&second))
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Rental.ID, second.Rental.ID)
	assert.Len(t, sim.Payments(), 1)

	rec = do(t, h, "GET", "/api/v1/renters/"+renterAddr+"/rentals", "", nil)
	var rentals []domain.Rental
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rentals))
	assert.Len(t, rentals, 1)

	rec = do(t, h, "GET", "/api/v1/rooms/"+room.ID, "", nil)
	var got domain.Room
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, 29, got.Available)
}

func TestExecuteRental_ErrorStatuses(t *testing.T) {
	h, _ := setupRouter(t)
	room := createRoom(t, h)

	rec := do(t, h, "POST", "/api/v1/rentals", ownerAddr, map[string]any{"room_id": room.ID, "days": 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, "POST", "/api/v1/rentals", "", map[string]any{"room_id": room.ID, "days": 1})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, "POST", "/api/v1/rentals", renterAddr, map[string]any{"room_id": "ghost", "days": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, "POST", "/api/v1/rentals", renterAddr, map[string]any{"room_id": room.ID, "days": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestReconcile(t *testing.T) {
	h, _ := setupRouter(t)
	room := createRoom(t, h)

	rec := do(t, h, "POST", "/api/v1/rentals/reconcile", renterAddr, map[string]any{"room_id": room.ID, "days": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := map[string]any{"room_id": room.ID, "days": 1, "settlement_reference": "tx-oob"}
	rec = do(t, h, "POST", "/api/v1/rentals/reconcile", renterAddr, body)
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, h, "POST", "/api/v1/rentals/reconcile", renterAddr, body)
	assert.Equal(t, http.StatusOK, rec.Code)

	body["days"] = 4
	rec = do(t, h, "POST", "/api/v1/rentals/reconcile", renterAddr, body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestExecuteRental_KeyReusedForOtherRoom(t *testing.T) {
	h, _ := setupRouter(t)
	first := createRoom(t, h)
	second := createRoom(t, h)

	rec := do(t, h, "POST", "/api/v1/rentals", renterAddr, map[string]any{"room_id": first.ID, "days": 1}, "Idempotency-Key", "k")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, "POST", "/api/v1/rentals", renterAddr, map[string]any{"room_id": second.ID, "days": 7}, "Idempotency-Key", "k")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func TestOwnerEndpoints(t *testing.T) {
	h, _ := setupRouter(t)
	room := createRoom(t, h)
	rec := do(t, h, "POST", "/api/v1/rentals", renterAddr, map[string]any{"room_id": room.ID, "days": 2})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, "GET", "/api/v1/owners/"+ownerAddr+"/rooms", "", nil)
	var rooms []domain.Room
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rooms))
	require.Len(t, rooms, 1)

	rec = do(t, h, "GET", "/api/v1/owners/"+ownerAddr+"/summary", "", nil)
	var summary domain.OwnerSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
	assert.True(t, summary.TotalRevenue.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, 1, summary.Rooms[0].UnitsSold)
}

func TestSession(t *testing.T) {
	h, _ := setupRouter(t)

	rec := do(t, h, "POST", "/api/v1/session", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, renterAddr, body["address"])

	rec = do(t, h, "DELETE", "/api/v1/session", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	room := createRoom(t, h)
	rec = do(t, h, "POST", "/api/v1/rentals", renterAddr, map[string]any{"room_id": room.ID, "days": 1})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
