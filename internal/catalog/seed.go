package catalog

import (
	"github.com/punchamoorthee/roomledger/internal/domain"
	"github.com/shopspring/decimal"
)

// SeedRooms are listed ahead of user rooms on every start, independent of
// persisted state. They settle to owner.
func SeedRooms(owner string) []domain.Room {
	return []domain.Room{
		{
			ID:           "seed-1",
			Title:        "Luxury Sea View Suite",
			Location:     "Istanbul, Besiktas",
			Description:  "Sea view luxury suite with balcony, jacuzzi and modern furniture.",
			PricePerDay:  decimal.NewFromInt(150),
			Deposit:      decimal.NewFromInt(50),
			TokenSupply:  30,
			Available:    22,
			OwnerAddress: owner,
			Amenities:    []string{"WiFi", "Air conditioning", "Jacuzzi", "Balcony", "Sea view"},
			Image:        "beach",
			Rating:       "4.9",
			Reviews:      127,
		},
		{
			ID:           "seed-2",
			Title:        "Modern City Center Studio",
			Location:     "Ankara, Cankaya",
			Description:  "Modern studio in the city center, close to the metro.",
			PricePerDay:  decimal.NewFromInt(1),
			Deposit:      decimal.Zero,
			TokenSupply:  25,
			Available:    18,
			OwnerAddress: owner,
			Amenities:    []string{"WiFi", "Air conditioning", "Kitchen", "Near metro"},
			Image:        "city",
			Rating:       "4.7",
			Reviews:      89,
		},
		{
			ID:           "seed-3",
			Title:        "Quiet Garden Villa Room",
			Location:     "Izmir, Cesme",
			Description:  "Peaceful room in a garden villa with pool and barbecue area.",
			PricePerDay:  decimal.NewFromInt(120),
			Deposit:      decimal.NewFromInt(40),
			TokenSupply:  20,
			Available:    5,
			OwnerAddress: owner,
			Amenities:    []string{"WiFi", "Pool", "Garden", "Barbecue", "Parking"},
			Image:        "garden",
			Rating:       "4.8",
			Reviews:      156,
		},
		{
			ID:           "seed-4",
			Title:        "Central Single Room",
			Location:     "Antalya, Muratpasa",
			Description:  "Affordable single room in a central location.",
			PricePerDay:  decimal.NewFromInt(65),
			Deposit:      decimal.NewFromInt(25),
			TokenSupply:  40,
			Available:    35,
			OwnerAddress: owner,
			Amenities:    []string{"WiFi", "Air conditioning", "Shared kitchen"},
			Image:        "office",
			Rating:       "4.6",
			Reviews:      73,
		},
	}
}
