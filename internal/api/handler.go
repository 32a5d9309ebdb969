package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/punchamoorthee/roomledger/internal/domain"
	"github.com/punchamoorthee/roomledger/internal/service"
	"go.uber.org/zap"
)

// IdentityHeader carries the caller's settlement address.
const IdentityHeader = "X-Identity"

// Metrics
var (
	httpReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomledger_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roomledger_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
	}, []string{"method", "endpoint"})
)

type Handler struct {
	svc *service.RentalService
	log *zap.Logger
}

func NewHandler(svc *service.RentalService, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type rentalRequest struct {
	RoomID string `json:"room_id"`
	Days   int    `json:"days"`
}

type reconcileRequest struct {
	RoomID    string `json:"room_id"`
	Days      int    `json:"days"`
	Reference string `json:"settlement_reference"`
}

type rentalResponse struct {
	Rental   domain.Rental `json:"rental"`
	Replayed bool          `json:"replayed"`
	Fallback bool          `json:"settlement_fallback"`
	Warning  string        `json:"warning,omitempty"`
}

// NewRouter mounts every route on a fresh router.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/session", h.Connect).Methods("POST")
	v1.HandleFunc("/session", h.Disconnect).Methods("DELETE")
	v1.HandleFunc("/rooms", h.ListRooms).Methods("GET")
	v1.HandleFunc("/rooms", h.CreateListing).Methods("POST")
	v1.HandleFunc("/rooms/{id}", h.GetRoom).Methods("GET")
	v1.HandleFunc("/rooms/{id}/quote", h.QuoteRental).Methods("GET")
	v1.HandleFunc("/rentals", h.ExecuteRental).Methods("POST")
	v1.HandleFunc("/rentals/reconcile", h.Reconcile).Methods("POST")
	v1.HandleFunc("/owners/{address}/rooms", h.ListOwnedRooms).Methods("GET")
	v1.HandleFunc("/owners/{address}/summary", h.OwnerSummary).Methods("GET")
	v1.HandleFunc("/renters/{address}/rentals", h.ListRentals).Methods("GET")
	return r
}

func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/session"
	addr, err := h.svc.Connect(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "POST", endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"address": addr}, "POST", endpoint)
}

func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/session"
	if err := h.svc.Disconnect(r.Context()); err != nil {
		h.log.Warn("disconnect failed", zap.Error(err))
		h.respondError(w, http.StatusBadGateway, "Disconnect failed", "DELETE", endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "disconnected"}, "DELETE", endpoint)
}

func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.svc.ListRooms(), "GET", "/rooms")
}

func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/rooms/{id}"
	room, err := h.svc.GetRoom(mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, err, "GET", endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, room, "GET", endpoint)
}

func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/rooms"
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", endpoint))
	defer timer.ObserveDuration()

	var in domain.ListingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", endpoint)
		return
	}

	room, err := h.svc.CreateListing(r.Context(), in, r.Header.Get(IdentityHeader))
	if err != nil {
		h.respondServiceError(w, err, "POST", endpoint)
		return
	}
	w.Header().Set("Location", "/api/v1/rooms/"+room.ID)
	h.respondJSON(w, http.StatusCreated, room, "POST", endpoint)
}

func (h *Handler) QuoteRental(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/rooms/{id}/quote"
	roomID := mux.Vars(r)["id"]

	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, domain.ErrInvalidDuration.Error(), "GET", endpoint)
		return
	}

	total, err := h.svc.QuoteRental(roomID, days)
	if err != nil {
		h.respondServiceError(w, err, "GET", endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"room_id":    roomID,
		"days":       days,
		"total_cost": total,
	}, "GET", endpoint)
}

func (h *Handler) ExecuteRental(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/rentals"
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", endpoint))
	defer timer.ObserveDuration()

	var req rentalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", endpoint)
		return
	}

	out, err := h.svc.ExecuteRental(r.Context(), service.RentalRequest{
		RoomID:         req.RoomID,
		Renter:         r.Header.Get(IdentityHeader),
		Days:           req.Days,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.respondServiceError(w, err, "POST", endpoint)
		return
	}
	h.respondOutcome(w, out, "POST", endpoint)
}

func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/rentals/reconcile"

	var req reconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", endpoint)
		return
	}
	if req.Reference == "" {
		h.respondError(w, http.StatusBadRequest, "Missing settlement_reference", "POST", endpoint)
		return
	}

	out, err := h.svc.Reconcile(r.Context(), service.ReconcileRequest{
		RoomID:    req.RoomID,
		Renter:    r.Header.Get(IdentityHeader),
		Days:      req.Days,
		Reference: req.Reference,
	})
	if err != nil {
		h.respondServiceError(w, err, "POST", endpoint)
		return
	}
	h.respondOutcome(w, out, "POST", endpoint)
}

func (h *Handler) ListOwnedRooms(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/owners/{address}/rooms"
	rooms, err := h.svc.ListOwnedRooms(mux.Vars(r)["address"])
	if err != nil {
		h.respondServiceError(w, err, "GET", endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, rooms, "GET", endpoint)
}

func (h *Handler) OwnerSummary(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/owners/{address}/summary"
	summary, err := h.svc.OwnerSummary(mux.Vars(r)["address"])
	if err != nil {
		h.respondServiceError(w, err, "GET", endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, summary, "GET", endpoint)
}

func (h *Handler) ListRentals(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/renters/{address}/rentals"
	rentals, err := h.svc.ListRentals(mux.Vars(r)["address"])
	if err != nil {
		h.respondServiceError(w, err, "GET", endpoint)
		return
	}
	h.respondJSON(w, http.StatusOK, rentals, "GET", endpoint)
}

// Helpers
func (h *Handler) respondOutcome(w http.ResponseWriter, out *service.Outcome, method, endpoint string) {
	resp := rentalResponse{Rental: out.Rental, Replayed: out.Replayed, Fallback: out.Fallback}
	if out.Warning != nil {
		resp.Warning = "oversold"
	}

	code := http.StatusCreated
	if out.Replayed {
		code = http.StatusOK
	}
	h.respondJSON(w, code, resp, method, endpoint)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error, method, endpoint string) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("endpoint", endpoint), zap.Error(err))
		msg = "Internal Server Error"
	}
	h.respondError(w, code, msg, method, endpoint)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidDuration),
		errors.Is(err, domain.ErrIdempotencyMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrAuthenticationRequired):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrSelfRentalForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSoldOut):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPaymentFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrSettlementIndeterminate):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, code int, payload interface{}, method, endpoint string) {
	httpReqTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func (h *Handler) respondError(w http.ResponseWriter, code int, msg, method, endpoint string) {
	h.respondJSON(w, code, map[string]string{"error": msg}, method, endpoint)
}
