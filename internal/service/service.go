// Package service composes the catalog, inventory, ledger and payment rail
// into the operations offered to clients.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/punchamoorthee/roomledger/internal/catalog"
	"github.com/punchamoorthee/roomledger/internal/domain"
	"github.com/punchamoorthee/roomledger/internal/inventory"
	"github.com/punchamoorthee/roomledger/internal/kv"
	"github.com/punchamoorthee/roomledger/internal/ledger"
	"github.com/punchamoorthee/roomledger/internal/listing"
	"github.com/punchamoorthee/roomledger/internal/settlement"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Options struct {
	MemoMaxBytes      int
	SettlementTimeout time.Duration
}

type RentalService struct {
	// state orders reads against the listing and rental commits.
	state     sync.RWMutex
	rooms     *catalog.Catalog
	inventory *inventory.Inventory
	ledger    *ledger.Ledger
	listings  *listing.Service

	gateway  settlement.Gateway
	resolver *settlement.Resolver
	locks    *roomLocks
	log      *zap.Logger

	memoMaxBytes      int
	settlementTimeout time.Duration
	newID             func() string
	now               func() time.Time
}

// Open loads persisted rooms and rentals from store, merges them with the
// seed rooms and restores each room's availability.
func Open(ctx context.Context, store kv.Store, gateway settlement.Gateway, resolver *settlement.Resolver, opts Options, log *zap.Logger) (*RentalService, error) {
	if opts.MemoMaxBytes <= 0 {
		opts.MemoMaxBytes = 28
	}

	inv := inventory.New()
	rooms := catalog.New(store, catalog.SeedRooms(resolver.Default), log.Named("catalog"))
	if err := rooms.Load(ctx); err != nil {
		return nil, err
	}
	book := ledger.New(store, inv, log.Named("ledger"))
	available, err := book.Load(ctx)
	if err != nil {
		return nil, err
	}

	for _, r := range rooms.List() {
		n, ok := available[r.ID]
		if !ok {
			n = r.Available
		}
		if n < 0 || n > r.TokenSupply {
			log.Warn("stored availability out of range, clamping",
				zap.String("room_id", r.ID), zap.Int("available", n), zap.Int("token_supply", r.TokenSupply))
			n = max(0, min(n, r.TokenSupply))
		}
		if err := inv.Restore(r.ID, r.TokenSupply, n); err != nil {
			return nil, fmt.Errorf("restore inventory: %w", err)
		}
	}

	return &RentalService{
		rooms:             rooms,
		inventory:         inv,
		ledger:            book,
		listings:          listing.NewService(rooms, inv, log.Named("listing")),
		gateway:           gateway,
		resolver:          resolver,
		locks:             newRoomLocks(),
		log:               log,
		memoMaxBytes:      opts.MemoMaxBytes,
		settlementTimeout: opts.SettlementTimeout,
		newID:             uuid.NewString,
		now:               time.Now,
	}, nil
}

// Connect asks the payment rail for the caller's identity.
func (s *RentalService) Connect(ctx context.Context) (string, error) {
	addr, err := s.gateway.Identity(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAuthenticationRequired, err)
	}
	return addr, nil
}

func (s *RentalService) Disconnect(ctx context.Context) error {
	return s.gateway.Disconnect(ctx)
}

// ListRooms returns seed rooms then user rooms, with current availability.
func (s *RentalService) ListRooms() []domain.Room {
	s.state.RLock()
	defer s.state.RUnlock()
	return s.withAvailability(s.rooms.List())
}

func (s *RentalService) GetRoom(id string) (domain.Room, error) {
	s.state.RLock()
	defer s.state.RUnlock()

	room, err := s.rooms.Get(id)
	if err != nil {
		return domain.Room{}, err
	}
	return s.withAvailability([]domain.Room{room})[0], nil
}

func (s *RentalService) ListOwnedRooms(identity string) ([]domain.Room, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, domain.ErrAuthenticationRequired
	}

	s.state.RLock()
	defer s.state.RUnlock()
	return s.withAvailability(s.rooms.FindOwned(identity)), nil
}

func (s *RentalService) ListRentals(identity string) ([]domain.Rental, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, domain.ErrAuthenticationRequired
	}

	s.state.RLock()
	defer s.state.RUnlock()
	return s.ledger.ListFor(identity), nil
}

func (s *RentalService) CreateListing(ctx context.Context, in domain.ListingInput, identity string) (domain.Room, error) {
	s.state.Lock()
	defer s.state.Unlock()
	return s.listings.Create(ctx, in, identity)
}

// QuoteRental prices days in the room identified by roomID.
func (s *RentalService) QuoteRental(roomID string, days int) (decimal.Decimal, error) {
	room, err := s.GetRoom(roomID)
	if err != nil {
		return decimal.Zero, err
	}
	return Quote(room, days)
}

// OwnerSummary reports tokens sold and recorded revenue per owned room.
func (s *RentalService) OwnerSummary(identity string) (domain.OwnerSummary, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return domain.OwnerSummary{}, domain.ErrAuthenticationRequired
	}

	s.state.RLock()
	defer s.state.RUnlock()

	summary := domain.OwnerSummary{
		Owner:        identity,
		Rooms:        []domain.RoomEarnings{},
		TotalRevenue: decimal.Zero,
	}
	for _, room := range s.withAvailability(s.rooms.FindOwned(identity)) {
		line := domain.RoomEarnings{
			Room:      room,
			UnitsSold: room.TokenSupply - room.Available,
			Revenue:   decimal.Zero,
		}
		for _, r := range s.ledger.ListForRoom(room.ID) {
			line.Rentals++
			line.Revenue = line.Revenue.Add(r.TotalCost)
		}
		summary.TotalRevenue = summary.TotalRevenue.Add(line.Revenue)
		summary.Rooms = append(summary.Rooms, line)
	}
	return summary, nil
}

func (s *RentalService) withAvailability(rooms []domain.Room) []domain.Room {
	for i := range rooms {
		if n, err := s.inventory.Available(rooms[i].ID); err == nil {
			rooms[i].Available = n
		}
	}
	return rooms
}
