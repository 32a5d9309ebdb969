package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/punchamoorthee/roomledger/internal/domain"
	"github.com/punchamoorthee/roomledger/internal/settlement"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RentalRequest asks for days of use of a room, paid by Renter.
// IdempotencyKey is forwarded to the payment rail so a resubmitted request
// is not paid twice; it is generated when empty.
type RentalRequest struct {
	RoomID         string
	Renter         string
	Days           int
	IdempotencyKey string
}

// ReconcileRequest records a payment whose outcome was reported
// indeterminate and later confirmed with the rail.
type ReconcileRequest struct {
	RoomID    string
	Renter    string
	Days      int
	Reference string
}

// Outcome is a settled rental.
type Outcome struct {
	Rental domain.Rental
	// Replayed is set when the settlement reference was already recorded;
	// Rental is then the earlier record.
	Replayed bool
	// Fallback is set when the payment went to the default settlement
	// address instead of the room owner.
	Fallback bool
	// Warning is domain.ErrOversold when the payment settled after the last
	// token was taken. The rental is still honored.
	Warning error
}

// Quote prices a stay: pricePerDay * days + deposit, in exact decimal.
func Quote(room domain.Room, days int) (decimal.Decimal, error) {
	if days < 1 {
		return decimal.Zero, fmt.Errorf("%w: got %d", domain.ErrInvalidDuration, days)
	}
	return room.PricePerDay.Mul(decimal.NewFromInt(int64(days))).Add(room.Deposit), nil
}

// ExecuteRental pays the room's settlement address through the gateway and,
// once the payment settles, reserves a token and records the rental as one
// unit of work. Rentals of the same room run one at a time.
func (s *RentalService) ExecuteRental(ctx context.Context, req RentalRequest) (*Outcome, error) {
	renter := strings.TrimSpace(req.Renter)
	if renter == "" {
		rentalsTotal.WithLabelValues(outcomeUnauthenticated).Inc()
		return nil, domain.ErrAuthenticationRequired
	}

	release, err := s.locks.acquire(ctx, req.RoomID)
	if err != nil {
		return nil, fmt.Errorf("waiting for room %s: %w", req.RoomID, err)
	}
	defer release()

	// 1. Preconditions against the current state
	s.state.RLock()
	room, err := s.rooms.Get(req.RoomID)
	var available int
	if err == nil {
		available, err = s.inventory.Available(req.RoomID)
	}
	s.state.RUnlock()
	if err != nil {
		return nil, err
	}

	if renter == room.OwnerAddress {
		rentalsTotal.WithLabelValues(outcomeSelfRental).Inc()
		return nil, domain.ErrSelfRentalForbidden
	}
	if available <= 0 {
		rentalsTotal.WithLabelValues(outcomeSoldOut).Inc()
		return nil, fmt.Errorf("%w: %s", domain.ErrSoldOut, room.ID)
	}

	// 2. Destination and price
	to, fallback := s.settlementAddress(room)
	total, err := Quote(room, req.Days)
	if err != nil {
		rentalsTotal.WithLabelValues(outcomeInvalidDuration).Inc()
		return nil, err
	}

	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	payment := domain.PaymentRequest{
		From:           renter,
		To:             to,
		Amount:         total,
		Memo:           settlement.Memo(room.Title, req.Days, s.memoMaxBytes),
		IdempotencyKey: key,
	}

	// 3. Settle. An abandoned caller does not retract a submitted payment, so
	// the call and the commit run detached from ctx cancellation.
	settleCtx, cancel := s.settlementContext(ctx)
	defer cancel()

	s.log.Info("submitting payment",
		zap.String("room_id", room.ID),
		zap.String("from", renter),
		zap.String("to", to),
		zap.String("amount", total.String()),
		zap.String("idempotency_key", key),
	)
	result, err := s.gateway.SubmitPayment(settleCtx, payment)
	if err != nil {
		if errors.Is(err, domain.ErrNotConnected) {
			rentalsTotal.WithLabelValues(outcomeUnauthenticated).Inc()
			return nil, fmt.Errorf("%w: %v", domain.ErrAuthenticationRequired, err)
		}
		rentalsTotal.WithLabelValues(outcomeIndeterminate).Inc()
		s.log.Warn("settlement outcome unknown",
			zap.String("room_id", room.ID),
			zap.String("idempotency_key", key),
			zap.Error(err),
		)
		if errors.Is(err, domain.ErrSettlementIndeterminate) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSettlementIndeterminate, err)
	}
	if !result.Success {
		rentalsTotal.WithLabelValues(outcomePaymentFailed).Inc()
		s.log.Info("payment declined", zap.String("room_id", room.ID), zap.String("diagnostic", result.Diagnostic))
		return nil, fmt.Errorf("%w: %s", domain.ErrPaymentFailed, result.Diagnostic)
	}

	// 4. Record
	out, err := s.commit(settleCtx, room, renter, req.Days, total, to, result.Reference)
	if err != nil {
		return nil, err
	}
	out.Fallback = fallback
	return out, nil
}

// Reconcile records a settlement confirmed out of band. The payment has
// already moved, so availability is not a precondition.
func (s *RentalService) Reconcile(ctx context.Context, req ReconcileRequest) (*Outcome, error) {
	renter := strings.TrimSpace(req.Renter)
	if renter == "" {
		return nil, domain.ErrAuthenticationRequired
	}
	if req.Reference == "" {
		return nil, errors.New("settlement reference is required")
	}

	release, err := s.locks.acquire(ctx, req.RoomID)
	if err != nil {
		return nil, fmt.Errorf("waiting for room %s: %w", req.RoomID, err)
	}
	defer release()

	s.state.RLock()
	room, err := s.rooms.Get(req.RoomID)
	s.state.RUnlock()
	if err != nil {
		return nil, err
	}
	if renter == room.OwnerAddress {
		return nil, domain.ErrSelfRentalForbidden
	}
	total, err := Quote(room, req.Days)
	if err != nil {
		return nil, err
	}

	to, fallback := s.settlementAddress(room)
	out, err := s.commit(ctx, room, renter, req.Days, total, to, req.Reference)
	if err != nil {
		return nil, err
	}
	out.Fallback = fallback
	return out, nil
}

// commit reserves one token and appends the rental. Observers see both
// changes or neither.
func (s *RentalService) commit(ctx context.Context, room domain.Room, renter string, days int, total decimal.Decimal, to, reference string) (*Outcome, error) {
	s.state.Lock()
	defer s.state.Unlock()

	if existing, ok := s.ledger.Get(reference); ok {
		return replay(existing, room.ID, renter, days)
	}

	out := &Outcome{}
	reserved := true
	if err := s.inventory.Reserve(room.ID, 1); err != nil {
		if !errors.Is(err, domain.ErrInsufficientSupply) {
			return nil, fmt.Errorf("reserve token for settlement %s: %w", reference, err)
		}
		reserved = false
		out.Warning = fmt.Errorf("%w: room %s, settlement %s", domain.ErrOversold, room.ID, reference)
	}

	rental := domain.Rental{
		ID:                  s.newID(),
		RoomID:              room.ID,
		RoomTitle:           room.Title,
		RenterAddress:       renter,
		Days:                days,
		TotalCost:           total,
		StartDate:           s.now().UTC(),
		SettlementReference: reference,
		SettlementAddress:   to,
		Status:              domain.RentalStatusActive,
	}

	if err := s.ledger.Append(ctx, rental); err != nil {
		if reserved {
			s.inventory.Release(room.ID, 1)
		}
		if errors.Is(err, domain.ErrDuplicateSettlement) {
			if existing, ok := s.ledger.Get(reference); ok {
				return replay(existing, room.ID, renter, days)
			}
		}
		s.log.Error("settled payment not recorded",
			zap.String("room_id", room.ID),
			zap.String("reference", reference),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: settlement %s not recorded: %v", domain.ErrSettlementIndeterminate, reference, err)
	}

	out.Rental = rental
	if out.Warning != nil {
		oversoldTotal.Inc()
		rentalsTotal.WithLabelValues(outcomeOversold).Inc()
		s.log.Error("room oversold, manual reconciliation needed",
			zap.String("room_id", room.ID),
			zap.String("reference", reference),
			zap.String("renter", renter),
		)
	} else {
		rentalsTotal.WithLabelValues(outcomeActive).Inc()
		s.log.Info("rental recorded",
			zap.String("rental_id", rental.ID),
			zap.String("room_id", room.ID),
			zap.String("reference", reference),
			zap.String("total_cost", total.String()),
		)
	}
	return out, nil
}

// replay returns the recorded rental for a reused settlement reference. A
// reference recorded for another room, renter or duration is refused.
func replay(existing domain.Rental, roomID, renter string, days int) (*Outcome, error) {
	if existing.RoomID != roomID || existing.RenterAddress != renter || existing.Days != days {
		rentalsTotal.WithLabelValues(outcomeMismatch).Inc()
		return nil, fmt.Errorf("%w: settlement %s belongs to rental %s",
			domain.ErrIdempotencyMismatch, existing.SettlementReference, existing.ID)
	}
	rentalsTotal.WithLabelValues(outcomeReplayed).Inc()
	return &Outcome{Rental: existing, Replayed: true}, nil
}

func (s *RentalService) settlementAddress(room domain.Room) (string, bool) {
	to, fallback := s.resolver.Resolve(room.OwnerAddress)
	if fallback {
		settlementFallbackTotal.Inc()
		s.log.Warn("settlement address fallback",
			zap.String("room_id", room.ID),
			zap.String("owner_address", room.OwnerAddress),
			zap.String("settlement_address", to),
		)
	}
	return to, fallback
}

func (s *RentalService) settlementContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if s.settlementTimeout <= 0 {
		return context.WithCancel(detached)
	}
	return context.WithTimeout(detached, s.settlementTimeout)
}
