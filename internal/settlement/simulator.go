package settlement

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/punchamoorthee/roomledger/internal/domain"
)

// Simulator is an in-process Gateway for development. Every positive
// payment succeeds while connected; payments repeated under one idempotency key
// return the first reference.
type Simulator struct {
	mu        sync.Mutex
	address   string
	connected bool
	payments  []domain.PaymentRequest
	byKey     map[string]string
}

func NewSimulator(address string) *Simulator {
	return &Simulator{
		address:   address,
		connected: true,
		byKey:     make(map[string]string),
	}
}

func (s *Simulator) Identity(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connected = true
	return s.address, nil
}

func (s *Simulator) SubmitPayment(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.PaymentResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return domain.PaymentResult{}, domain.ErrNotConnected
	}
	if req.IdempotencyKey != "" {
		if ref, ok := s.byKey[req.IdempotencyKey]; ok {
			return domain.PaymentResult{Success: true, Reference: ref}, nil
		}
	}
	if !req.Amount.IsPositive() {
		return domain.PaymentResult{Success: false, Diagnostic: "amount must be positive"}, nil
	}

	ref := uuid.NewString()
	s.payments = append(s.payments, req)
	if req.IdempotencyKey != "" {
		s.byKey[req.IdempotencyKey] = ref
	}
	return domain.PaymentResult{Success: true, Reference: ref}, nil
}

func (s *Simulator) Disconnect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

// Payments returns the payments accepted so far.
func (s *Simulator) Payments() []domain.PaymentRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.PaymentRequest(nil), s.payments...)
}
