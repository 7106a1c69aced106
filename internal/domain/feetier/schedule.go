package feetier

import (
	"context"
	"time"
)

// Cancelling more than this many days before the deadline is free regardless
// of the configured tables.
const FreeCancellationDays = 60

// ScheduleID is the fixed identifier of the singleton configuration record.
const ScheduleID = "fee-tier-schedule"

// Tier maps an inclusive day range to the percentage of the base amount that
// is forfeited on cancellation. A nil ToDays leaves the range open-ended.
type Tier struct {
	FromDays int
	ToDays   *int
	Percent  float64
}

func (t Tier) valid() bool {
	if t.FromDays < 0 {
		return false
	}
	if t.ToDays != nil && *t.ToDays < t.FromDays {
		return false
	}
	return t.Percent >= 0 && t.Percent <= 100
}

func (t Tier) contains(days int) bool {
	if days < t.FromDays {
		return false
	}
	return t.ToDays == nil || days <= *t.ToDays
}

// Schedule is the singleton fee-tier configuration: one table for bookings
// where only the advance was paid, one for fully paid bookings.
type Schedule struct {
	ID          string
	AdvancePaid []Tier
	FullyPaid   []Tier
	UpdatedAt   time.Time
	Version     int64
}

// Repository stores the singleton schedule. Get returns a NotFound error
// when no schedule was ever configured; nothing is auto-created.
type Repository interface {
	Get(ctx context.Context) (*Schedule, error)
	Upsert(ctx context.Context, s *Schedule) error
}

// Resolve returns the deduction percentage for a day count. Tables are
// scanned in order and the first matching tier wins; malformed tiers are
// skipped. A day count beyond the free-cancellation window yields 0, an
// unmatched day count yields 100 (full deduction).
func Resolve(days int, table []Tier) float64 {
	if days > FreeCancellationDays {
		return 0
	}
	for _, tier := range table {
		if !tier.valid() {
			continue
		}
		if tier.contains(days) {
			return tier.Percent
		}
	}
	return 100
}
