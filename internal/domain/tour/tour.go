package tour

import (
	"context"
	"errors"
	"time"
)

var ErrTourNotFound = errors.New("tour: not found")

type TourID string

// MainPackage selects the tour's own pricing instead of a variant.
const MainPackage = -1

// SharingPrices is the per-person price table keyed by room sharing type.
type SharingPrices struct {
	Double            float64
	Triple            float64
	ChildWithBerth    float64
	ChildWithoutBerth float64
}

// AdvanceAmounts holds the booking advance per traveller category.
type AdvanceAmounts struct {
	Adult float64
	Child float64
}

type Addon struct {
	Name  string
	Price float64
}

// Pricing is the immutable price configuration of a package. The main tour
// and every variant package each carry their own copy.
type Pricing struct {
	Sharing          SharingPrices
	Advance          AdvanceAmounts
	Addons           []Addon
	BoardingPoints   []string
	DeboardingPoints []string
	LastBookingDate  time.Time
}

// AddonPrice looks up a named add-on; unknown names cost nothing.
func (p Pricing) AddonPrice(name string) float64 {
	if name == "" {
		return 0
	}
	for _, a := range p.Addons {
		if a.Name == name {
			return a.Price
		}
	}
	return 0
}

// Variant is an alternate itinerary of the same tour with independent
// pricing and its own booking deadline.
type Variant struct {
	Name    string
	Pricing Pricing
}

type Tour struct {
	ID       TourID
	Name     string
	Pricing  Pricing
	Variants []Variant
}

type Repository interface {
	ByID(ctx context.Context, id TourID) (*Tour, error)
}

// PricingFor resolves the effective pricing for a package selection.
// MainPackage selects the tour's own pricing; an out-of-range variant index
// reports ok=false so callers can degrade to zero amounts.
func (t *Tour) PricingFor(variantIndex int) (Pricing, bool) {
	if variantIndex == MainPackage {
		return t.Pricing, true
	}
	if variantIndex < 0 || variantIndex >= len(t.Variants) {
		return Pricing{}, false
	}
	return t.Variants[variantIndex].Pricing, true
}

// DeadlineFor resolves the cancellation deadline anchor for a package
// selection: the variant's last booking date when one is selected and
// configured, otherwise the main tour's.
func (t *Tour) DeadlineFor(variantIndex int) (time.Time, bool) {
	if p, ok := t.PricingFor(variantIndex); ok && !p.LastBookingDate.IsZero() {
		return p.LastBookingDate, true
	}
	if t.Pricing.LastBookingDate.IsZero() {
		return time.Time{}, false
	}
	return t.Pricing.LastBookingDate, true
}
