package cancellation

import (
	"tourbook/internal/domain/booking"
	"tourbook/internal/domain/shared/money"
	"tourbook/internal/domain/tour"
)

// Per-traveller derived amounts. A traveller whose selected variant has no
// pricing data yields zero for every quantity rather than an error.

// AdvanceAmount selects the child or adult advance from the traveller's
// effective pricing.
func AdvanceAmount(t booking.Traveller, tr *tour.Tour) float64 {
	p, ok := tr.PricingFor(t.VariantIndex)
	if !ok {
		return 0
	}
	if t.IsChild() {
		return p.Advance.Child
	}
	return p.Advance.Adult
}

// BaseSharingPrice maps the traveller's sharing type onto the effective price
// table. Unrecognized sharing types cost nothing.
func BaseSharingPrice(t booking.Traveller, tr *tour.Tour) float64 {
	p, ok := tr.PricingFor(t.VariantIndex)
	if !ok {
		return 0
	}
	switch t.Sharing {
	case booking.SharingDouble:
		return p.Sharing.Double
	case booking.SharingTriple:
		return p.Sharing.Triple
	case booking.SharingChildWithBerth:
		return p.Sharing.ChildWithBerth
	case booking.SharingChildWithoutBerth:
		return p.Sharing.ChildWithoutBerth
	default:
		return 0
	}
}

// FullPackageCost is the base sharing price plus the selected add-on plus all
// custom add-ons, rounded at the summation.
func FullPackageCost(t booking.Traveller, tr *tour.Tour) float64 {
	p, ok := tr.PricingFor(t.VariantIndex)
	if !ok {
		return 0
	}
	total := BaseSharingPrice(t, tr) + p.AddonPrice(t.Addon)
	for _, a := range t.CustomAddons {
		total += a.Price
	}
	return money.Round2(total)
}
