// Package seed loads starter products into an empty or partly filled
// inventory. Names already present are left alone, so seeding is safe to
// repeat.
package seed

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/fairyhunter13/inventory-service/internal/inventory"
	"github.com/fairyhunter13/inventory-service/internal/obs"
)

// Item is a product to create if missing.
type Item struct {
	Name     string
	Quantity int
}

// Starter is the small catalogue created on startup when seeding is enabled.
func Starter() []Item {
	return []Item{
		{Name: "Laptop Dell", Quantity: 10},
		{Name: "Wireless Mouse", Quantity: 50},
		{Name: "Mechanical Keyboard", Quantity: 25},
		{Name: "27inch Monitor", Quantity: 15},
		{Name: "USB-C Hub", Quantity: 30},
	}
}

var catalogue = []string{
	"Laptop Dell", "HP Laptop", "MacBook Pro", "Wireless Mouse",
	"Gaming Keyboard", "USB Flash 64GB", "External HDD 2TB",
	"Samsung Monitor", "LG Monitor", "Office Chair", "Standing Desk",
	"Webcam HD", "Bluetooth Speaker", "Router TP-Link",
	"Network Switch", "Printer Canon", "Scanner Epson",
	"Graphics Tablet", "Microphone USB", "Headphones Sony",
	"Power Bank", "Smart Watch", "Tablet Samsung", "iPad Air",
	"Phone Stand", "Laptop Bag", "Cooling Pad", "LED Desk Lamp",
	"Projector", "HDMI Cable", "Ethernet Cable", "SSD 512GB",
	"RAM 16GB", "GPU RTX 3060", "CPU Ryzen 7", "Motherboard ASUS",
	"PC Case", "Gaming Chair", "Mechanical Mouse", "Wireless Charger",
	"Security Camera", "Smart Bulb", "Smart Plug",
	"Fingerprint Scanner", "Barcode Scanner", "POS Machine",
	"Receipt Printer", "NAS Storage", "Mini PC", "Docking Station",
}

// Quantity bounds for Catalogue, inclusive.
const (
	MinQuantity = 5
	MaxQuantity = 50
)

// Catalogue returns the extended product list with quantities drawn from r
// in [MinQuantity, MaxQuantity]. A nil r uses the global source.
func Catalogue(r *rand.Rand) []Item {
	intn := rand.IntN
	if r != nil {
		intn = r.IntN
	}
	out := make([]Item, len(catalogue))
	for i, name := range catalogue {
		out[i] = Item{Name: name, Quantity: MinQuantity + intn(MaxQuantity-MinQuantity+1)}
	}
	return out
}

// Seed creates every item whose name is not already stored and returns how
// many were added. Each creation records its own Added activity.
func Seed(ctx context.Context, svc *inventory.Service, items []Item) (int, error) {
	existing, err := svc.ListProducts(ctx)
	if err != nil {
		return 0, err
	}
	have := make(map[string]bool, len(existing))
	for _, p := range existing {
		have[p.Name] = true
	}
	added := 0
	for _, it := range items {
		if have[it.Name] {
			continue
		}
		_, err := svc.CreateProduct(ctx, it.Name, it.Quantity)
		if errors.Is(err, inventory.ErrConflict) {
			continue
		}
		if err != nil {
			return added, err
		}
		have[it.Name] = true
		added++
	}
	obs.Logger.Info("seed_complete", "added", added, "skipped", len(items)-added)
	return added, nil
}
