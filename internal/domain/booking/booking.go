package booking

import (
	"context"
	"errors"
	"time"

	"tourbook/internal/domain/errs"
	"tourbook/internal/domain/shared/events"
	"tourbook/internal/domain/tour"
)

var (
	ErrBookingNotFound = errors.New("booking: not found")
	ErrNoTravellers    = errors.New("booking: at least one traveller required")
)

type BookingID string

type SharingType string

const (
	SharingDouble            SharingType = "double"
	SharingTriple            SharingType = "triple"
	SharingChildWithBerth    SharingType = "childWithBerth"
	SharingChildWithoutBerth SharingType = "childWithoutBerth"
)

// CancellationState tracks the two-phase cancellation flags of a traveller.
// A traveller may be requested without being confirmed (pending) or both
// (finalized); confirmed-alone is reserved for the admin release path.
type CancellationState struct {
	RequestedByTraveller bool
	ConfirmedByAdmin     bool
	RequestedAt          time.Time
	ConfirmedAt          time.Time
}

type CustomAddon struct {
	Name  string
	Price float64
}

// Traveller is embedded in its booking and keeps a stable identity there.
type Traveller struct {
	ID           string
	Name         string
	Age          int
	Sharing      SharingType
	VariantIndex int // tour.MainPackage selects the main pricing
	Addon        string
	CustomAddons []CustomAddon
	Cancellation CancellationState
}

// IsChild reports whether the traveller pays the child advance.
func (t Traveller) IsChild() bool { return t.Age < 12 }

// FullyCancelled reports a cancellation both requested and admin-confirmed.
func (t Traveller) FullyCancelled() bool {
	return t.Cancellation.RequestedByTraveller && t.Cancellation.ConfirmedByAdmin
}

// PaymentLeg is one half of the advance/balance payment block.
type PaymentLeg struct {
	Amount   float64
	Paid     bool
	Verified bool
}

type Payment struct {
	Advance PaymentLeg
	Balance PaymentLeg
}

// AdminRemark is an append-only ledger entry; negative amounts record money
// received outside the regular legs, positive amounts record extra charges.
type AdminRemark struct {
	Amount float64
	Text   string
	At     time.Time
}

// Booking is the purchase aggregate. It is never deleted; every payment,
// cancellation and approval mutates it in place under optimistic versioning.
type Booking struct {
	ID                BookingID
	TourID            tour.TourID
	Travellers        []Traveller
	Payment           Payment
	AdminRemarks      []AdminRemark
	PackageFeePool    float64
	TransportFeePool  float64
	CancellationRequested bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Version           int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
}

// TravellerByID returns a pointer into the aggregate's traveller slice.
func (b *Booking) TravellerByID(id string) (*Traveller, bool) {
	for i := range b.Travellers {
		if b.Travellers[i].ID == id {
			return &b.Travellers[i], true
		}
	}
	return nil, false
}

// NegativeRemarksSum is the absolute sum of negative admin remark amounts,
// i.e. money already collected outside the payment legs.
func (b *Booking) NegativeRemarksSum() float64 {
	var sum float64
	for _, r := range b.AdminRemarks {
		if r.Amount < 0 {
			sum += -r.Amount
		}
	}
	return sum
}

// PositiveRemarksSum is the sum of positive admin remark amounts.
func (b *Booking) PositiveRemarksSum() float64 {
	var sum float64
	for _, r := range b.AdminRemarks {
		if r.Amount > 0 {
			sum += r.Amount
		}
	}
	return sum
}

// HasApprovedCancellation reports whether any traveller already carries a
// finalized cancellation from a prior approval.
func (b *Booking) HasApprovedCancellation() bool {
	for _, t := range b.Travellers {
		if t.FullyCancelled() {
			return true
		}
	}
	return false
}

// HasOpenCancellationFlag reports whether some traveller has exactly one of
// the two cancellation flags set.
func (b *Booking) HasOpenCancellationFlag() bool {
	for _, t := range b.Travellers {
		if t.Cancellation.RequestedByTraveller != t.Cancellation.ConfirmedByAdmin {
			return true
		}
	}
	return false
}

// AddRemark appends to the admin remark ledger.
func (b *Booking) AddRemark(amount float64, text string, now time.Time) {
	b.AdminRemarks = append(b.AdminRemarks, AdminRemark{Amount: amount, Text: text, At: now.UTC()})
	b.UpdatedAt = now.UTC()
}

// RequestCancellation marks the selected travellers as requested-by-traveller
// and flags the booking as having a pending cancellation request. Travellers
// already finalized cannot be selected again.
func (b *Booking) RequestCancellation(travellerIDs []string, now time.Time) error {
	for _, id := range travellerIDs {
		t, ok := b.TravellerByID(id)
		if !ok {
			return errs.Validation("traveller %s does not exist on booking %s", id, b.ID)
		}
		if t.FullyCancelled() {
			return errs.Precondition("traveller %s is already cancelled", id)
		}
	}
	ts := now.UTC()
	for _, id := range travellerIDs {
		t, _ := b.TravellerByID(id)
		t.Cancellation.RequestedByTraveller = true
		t.Cancellation.RequestedAt = ts
	}
	b.CancellationRequested = true
	b.UpdatedAt = ts
	return nil
}

// ConfirmCancellation finalizes the cancellation flags for the given
// travellers. Every traveller must currently be requested and unconfirmed.
func (b *Booking) ConfirmCancellation(travellerIDs []string, now time.Time) error {
	for _, id := range travellerIDs {
		t, ok := b.TravellerByID(id)
		if !ok {
			return errs.Validation("traveller %s does not exist on booking %s", id, b.ID)
		}
		if !t.Cancellation.RequestedByTraveller || t.Cancellation.ConfirmedByAdmin {
			return errs.Precondition("traveller %s has no pending cancellation request", id)
		}
	}
	ts := now.UTC()
	for _, id := range travellerIDs {
		t, _ := b.TravellerByID(id)
		t.Cancellation.ConfirmedByAdmin = true
		t.Cancellation.ConfirmedAt = ts
	}
	b.UpdatedAt = ts
	return nil
}
