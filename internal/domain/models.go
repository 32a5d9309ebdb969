package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Room is a rentable room whose usage rights are issued as a fixed supply of
// tokens. Only Available changes after creation.
type Room struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Location     string          `json:"location"`
	Description  string          `json:"description"`
	PricePerDay  decimal.Decimal `json:"price_per_day"`
	Deposit      decimal.Decimal `json:"deposit_amount"`
	TokenSupply  int             `json:"token_supply"`
	Available    int             `json:"available"`
	OwnerAddress string          `json:"owner_address"`
	Amenities    []string        `json:"amenities"`
	Image        string          `json:"image,omitempty"`
	Rating       string          `json:"rating,omitempty"`
	Reviews      int             `json:"reviews"`
	CreatedAt    time.Time       `json:"created_at"`
}

type RentalStatus string

const (
	RentalStatusActive RentalStatus = "active"
	RentalStatusFailed RentalStatus = "failed"
)

// Rental is the immutable record of a settled rental. SettlementReference is
// the ledger's idempotency key.
type Rental struct {
	ID                  string          `json:"id"`
	RoomID              string          `json:"room_id"`
	RoomTitle           string          `json:"room_title"`
	RenterAddress       string          `json:"renter_address"`
	Days                int             `json:"days"`
	TotalCost           decimal.Decimal `json:"total_cost"`
	StartDate           time.Time       `json:"start_date"`
	SettlementReference string          `json:"settlement_reference"`
	SettlementAddress   string          `json:"settlement_address"`
	Status              RentalStatus    `json:"status"`
}

// ListingInput is the raw owner input for a new listing. Numeric fields stay
// strings so parsing failures are reported as validation errors.
type ListingInput struct {
	Title       string   `json:"title"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	PricePerDay string   `json:"price_per_day"`
	Deposit     string   `json:"deposit_amount"`
	TokenSupply string   `json:"token_supply"`
	Amenities   []string `json:"amenities"`
}

// PaymentRequest is what the settlement rail is asked to move.
type PaymentRequest struct {
	From           string          `json:"from"`
	To             string          `json:"to"`
	Amount         decimal.Decimal `json:"amount"`
	Memo           string          `json:"memo"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// PaymentResult is the rail's resolution of a submitted payment.
type PaymentResult struct {
	Success    bool   `json:"success"`
	Reference  string `json:"reference,omitempty"`
	Diagnostic string `json:"error,omitempty"`
}

// RoomEarnings is one line of an owner's dashboard.
type RoomEarnings struct {
	Room      Room            `json:"room"`
	UnitsSold int             `json:"units_sold"`
	Rentals   int             `json:"rentals"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type OwnerSummary struct {
	Owner        string          `json:"owner"`
	Rooms        []RoomEarnings  `json:"rooms"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}
