// Package listing mints new rooms from owner input.
package listing

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/punchamoorthee/roomledger/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var images = []string{"house", "beach", "city", "garden", "office", "home"}

type RoomAdder interface {
	Add(ctx context.Context, room domain.Room) error
}

type SupplyInitializer interface {
	Initialize(roomID string, supply int) error
}

type Service struct {
	rooms     RoomAdder
	inventory SupplyInitializer
	log       *zap.Logger

	newID func() string
	now   func() time.Time
}

func NewService(rooms RoomAdder, inventory SupplyInitializer, log *zap.Logger) *Service {
	return &Service{
		rooms:     rooms,
		inventory: inventory,
		log:       log,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Create validates input and mints a room owned by creator with its whole
// token supply available. Nothing is stored when validation fails.
func (s *Service) Create(ctx context.Context, in domain.ListingInput, creator string) (domain.Room, error) {
	creator = strings.TrimSpace(creator)
	if creator == "" {
		return domain.Room{}, domain.ErrAuthenticationRequired
	}

	room, err := s.parse(in)
	if err != nil {
		return domain.Room{}, err
	}
	room.ID = s.newID()
	room.OwnerAddress = creator
	room.CreatedAt = s.now().UTC()
	room.Image = images[rand.IntN(len(images))]
	room.Rating = "5.0"

	if err := s.rooms.Add(ctx, room); err != nil {
		return domain.Room{}, fmt.Errorf("add room: %w", err)
	}
	if err := s.inventory.Initialize(room.ID, room.TokenSupply); err != nil {
		return domain.Room{}, fmt.Errorf("initialize inventory: %w", err)
	}

	s.log.Info("room listed",
		zap.String("room_id", room.ID),
		zap.String("owner", room.OwnerAddress),
		zap.Int("token_supply", room.TokenSupply),
		zap.String("price_per_day", room.PricePerDay.String()),
	)
	return room, nil
}

func (s *Service) parse(in domain.ListingInput) (domain.Room, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Room{}, &domain.ValidationError{Field: "title", Reason: "is required"}
	}
	location := strings.TrimSpace(in.Location)
	if location == "" {
		return domain.Room{}, &domain.ValidationError{Field: "location", Reason: "is required"}
	}

	rawPrice := strings.TrimSpace(in.PricePerDay)
	if rawPrice == "" {
		return domain.Room{}, &domain.ValidationError{Field: "price_per_day", Reason: "is required"}
	}
	price, err := decimal.NewFromString(rawPrice)
	if err != nil {
		return domain.Room{}, &domain.ValidationError{Field: "price_per_day", Reason: "is not a number"}
	}
	if price.IsNegative() {
		return domain.Room{}, &domain.ValidationError{Field: "price_per_day", Reason: "must not be negative"}
	}

	supply, err := strconv.Atoi(strings.TrimSpace(in.TokenSupply))
	if err != nil {
		return domain.Room{}, &domain.ValidationError{Field: "token_supply", Reason: "is not an integer"}
	}
	if supply < 1 {
		return domain.Room{}, &domain.ValidationError{Field: "token_supply", Reason: "must be positive"}
	}

	// Deposit is optional; anything unparseable counts as no deposit.
	deposit := decimal.Zero
	if d, err := decimal.NewFromString(strings.TrimSpace(in.Deposit)); err == nil {
		if d.IsNegative() {
			return domain.Room{}, &domain.ValidationError{Field: "deposit_amount", Reason: "must not be negative"}
		}
		deposit = d
	}

	return domain.Room{
		Title:       title,
		Location:    location,
		Description: strings.TrimSpace(in.Description),
		PricePerDay: price,
		Deposit:     deposit,
		TokenSupply: supply,
		Available:   supply,
		Amenities:   amenitySet(in.Amenities),
	}, nil
}

func amenitySet(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}
