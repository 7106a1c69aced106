package cancellation

import (
	"time"

	"tourbook/internal/domain/booking"
	"tourbook/internal/domain/errs"
	"tourbook/internal/domain/feetier"
	"tourbook/internal/domain/shared/money"
	"tourbook/internal/domain/tour"
)

// TransportCharges carries externally supplied third-party cancellation
// amounts. The engine never derives these itself.
type TransportCharges struct {
	Transport float64
	Train     float64
	Flight    float64
}

func (c TransportCharges) Total() float64 {
	return c.Transport + c.Train + c.Flight
}

// Inputs bundles everything a cancellation computation needs. The fee-tier
// schedule is passed explicitly; a missing one is the caller's NotFound
// condition, never defaulted here.
type Inputs struct {
	RecordID     string
	Booking      *booking.Booking
	Tour         *tour.Tour
	Schedule     *feetier.Schedule
	TravellerIDs []string
	CancelledAt  time.Time
	ExtraRemark  float64
	Transport    TransportCharges
	Remark       string
	Now          time.Time
}

// paymentCase is the closed set of payment-state combinations the engine
// handles. Classification happens once; each case owns its formulas.
type paymentCase int

const (
	caseInvalid paymentCase = iota
	caseSettled            // balance zero and already marked paid
	caseBalanceDueMulti    // balance outstanding, several travellers
	caseBalanceDueSolo     // balance outstanding, sole traveller
	caseBalancePaidSolo    // balance fully paid, sole traveller
	caseBalancePaidMulti   // balance fully paid, several travellers
)

func classifyPayment(p booking.Payment, travellerCount int) paymentCase {
	if !p.Advance.Paid {
		return caseInvalid
	}
	due := p.Balance.Amount > 0
	switch {
	case !due && p.Balance.Paid:
		return caseSettled
	case due && !p.Balance.Paid && travellerCount > 1:
		return caseBalanceDueMulti
	case due && !p.Balance.Paid:
		return caseBalanceDueSolo
	case due && p.Balance.Paid && travellerCount == 1:
		return caseBalancePaidSolo
	case due && p.Balance.Paid:
		return caseBalancePaidMulti
	default:
		// balance zero but never marked paid
		return caseInvalid
	}
}

// Compute classifies the booking's payment state and produces a pending
// cancellation record. It performs no persistence and mutates nothing.
func Compute(in Inputs) (*Record, error) {
	b := in.Booking
	if b == nil {
		return nil, errs.Validation("booking is required")
	}
	if in.Tour == nil {
		return nil, errs.Validation("tour pricing is required")
	}
	if in.Schedule == nil {
		return nil, errs.NotFound("fee-tier schedule")
	}
	if !b.Payment.Advance.Paid {
		return nil, errs.Precondition("advance payment is not paid on booking %s", b.ID)
	}

	cancelled, err := resolveCancelSet(b, in.TravellerIDs)
	if err != nil {
		return nil, err
	}

	deadline, ok := in.Tour.DeadlineFor(cancelled[0].VariantIndex)
	if !ok {
		return nil, errs.Validation("tour %s has no last booking date configured", in.Tour.ID)
	}

	c := newCalc(in, cancelled, deadline)
	r := &Record{
		ID:           in.RecordID,
		BookingID:    b.ID,
		TravellerIDs: travellerIDs(cancelled),
		Remark:       in.Remark,
		Raised:       true,
		RaisedAt:     in.Now.UTC(),
	}

	switch classifyPayment(b.Payment, len(b.Travellers)) {
	case caseSettled:
		c.settled(r)
	case caseBalanceDueMulti:
		c.balanceDue(r, true)
	case caseBalanceDueSolo:
		c.balanceDue(r, false)
	case caseBalancePaidSolo:
		c.balancePaid(r, false)
	case caseBalancePaidMulti:
		c.balancePaid(r, true)
	default:
		return nil, errs.Precondition("booking %s is in an invalid payment state for cancellation", b.ID)
	}

	r.Record(CancellationRaised{
		RecordID:       r.ID,
		BookingID:      r.BookingID,
		TravellerIDs:   r.TravellerIDs,
		TotalDeduction: r.TotalDeduction,
		UpdatedBalance: r.UpdatedBalance,
		RefundAmount:   r.RefundAmount,
		At:             r.RaisedAt,
	})
	return r, nil
}

func resolveCancelSet(b *booking.Booking, ids []string) ([]booking.Traveller, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]booking.Traveller, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		t, ok := b.TravellerByID(id)
		if !ok {
			return nil, errs.Validation("traveller %s does not exist on booking %s", id, b.ID)
		}
		out = append(out, *t)
	}
	if len(out) == 0 {
		return nil, errs.Validation("at least one traveller must be selected")
	}
	return out, nil
}

func travellerIDs(ts []booking.Traveller) []string {
	ids := make([]string, len(ts))
	for i, t := range ts {
		ids[i] = t.ID
	}
	return ids
}

// calc holds the quantities every branch shares, computed once.
type calc struct {
	in        Inputs
	cancelled []booking.Traveller

	days       int
	pctAdvance float64
	pctFull    float64

	negSum         float64
	posSum         float64
	transportTotal float64
	remarks        float64

	advancePaid float64
	balanceAmt  float64
}

func newCalc(in Inputs, cancelled []booking.Traveller, deadline time.Time) *calc {
	days := daysBefore(in.CancelledAt, deadline)
	return &calc{
		in:             in,
		cancelled:      cancelled,
		days:           days,
		pctAdvance:     feetier.Resolve(days, in.Schedule.AdvancePaid),
		pctFull:        feetier.Resolve(days, in.Schedule.FullyPaid),
		negSum:         in.Booking.NegativeRemarksSum(),
		posSum:         in.Booking.PositiveRemarksSum(),
		transportTotal: in.Transport.Total(),
		remarks:        in.ExtraRemark,
		advancePaid:    in.Booking.Payment.Advance.Amount,
		balanceAmt:     in.Booking.Payment.Balance.Amount,
	}
}

// advanceTierSum weighs each cancelled traveller's advance by the
// advance-paid tier percentage.
func (c *calc) advanceTierSum() float64 {
	var sum float64
	for _, t := range c.cancelled {
		sum += AdvanceAmount(t, c.in.Tour) * c.pctAdvance / 100
	}
	return sum
}

// sharingTierSum weighs each cancelled traveller's base sharing price by the
// fully-paid tier percentage.
func (c *calc) sharingTierSum() float64 {
	var sum float64
	for _, t := range c.cancelled {
		sum += BaseSharingPrice(t, c.in.Tour) * c.pctFull / 100
	}
	return sum
}

func (c *calc) cancelledFullCost() float64 {
	var sum float64
	for _, t := range c.cancelled {
		sum += FullPackageCost(t, c.in.Tour)
	}
	return sum
}

// activeCost sums the full package cost of travellers that stay on the
// booking: neither previously finalized nor part of the current cancel set.
func (c *calc) activeCost() float64 {
	inSet := make(map[string]struct{}, len(c.cancelled))
	for _, t := range c.cancelled {
		inSet[t.ID] = struct{}{}
	}
	var sum float64
	for _, t := range c.in.Booking.Travellers {
		if t.FullyCancelled() {
			continue
		}
		if _, ok := inSet[t.ID]; ok {
			continue
		}
		sum += FullPackageCost(t, c.in.Tour)
	}
	return sum
}

// settled: the balance is already squared away at zero, so the cancelled
// travellers' package cost minus the deductions comes straight back.
func (c *calc) settled(r *Record) {
	r.PackageFeeDeduction = money.Round2(c.advanceTierSum())
	r.TransportFeeDeduction = money.Round2(c.transportTotal)
	r.RemarksDeduction = money.Round2(c.remarks)
	r.TotalDeduction = money.Round2(r.PackageFeeDeduction + r.TransportFeeDeduction + r.RemarksDeduction)
	r.PreBalanceAmount = money.Round2(c.cancelledFullCost())
	r.NetAmountPaid = money.Round2(c.advancePaid + c.negSum)
	r.UpdatedBalance = 0
	r.RefundAmount = money.Round2(money.ClampNonNegative(r.PreBalanceAmount - r.TotalDeduction))
}

// balanceDue: only the advance is in, so the deductions fold the running
// pools in and the pre-balance is rebuilt from what the booking still owes.
func (c *calc) balanceDue(r *Record, withActiveCost bool) {
	b := c.in.Booking
	r.NetAmountPaid = money.Round2(c.advancePaid + c.negSum)
	r.PackageFeeDeduction = money.Round2(c.advanceTierSum() + b.PackageFeePool)
	r.TransportFeeDeduction = money.Round2(c.transportTotal + b.TransportFeePool)
	r.RemarksDeduction = money.Round2(c.remarks)
	r.TotalDeduction = money.Round2(r.PackageFeeDeduction + r.TransportFeeDeduction + r.RemarksDeduction)

	pre := r.PackageFeeDeduction + r.TransportFeeDeduction + r.RemarksDeduction + c.posSum
	if withActiveCost {
		pre += c.activeCost()
	}
	r.PreBalanceAmount = money.Round2(pre)

	diff := r.PreBalanceAmount - r.NetAmountPaid
	r.UpdatedBalance = money.Round2(money.ClampNonNegative(diff))
	r.RefundAmount = money.Round2(money.ClampNonNegative(-diff))
}

// balancePaid: everything is paid, so the fully-paid table applies to the
// base sharing price and the residue of the cancelled travellers' package
// cost is settled against the deductions.
func (c *calc) balancePaid(r *Record, multi bool) {
	b := c.in.Booking
	r.PreBalanceAmount = money.Round2(c.cancelledFullCost())
	r.PackageFeeDeduction = money.Round2(c.sharingTierSum())
	r.TransportFeeDeduction = money.Round2(c.transportTotal)
	r.RemarksDeduction = money.Round2(c.remarks)
	r.NetAmountPaid = money.Round2(c.advancePaid + c.balanceAmt + c.negSum)

	deduction := c.posSum + r.PackageFeeDeduction + r.TransportFeeDeduction + r.RemarksDeduction
	if multi && b.HasApprovedCancellation() {
		deduction -= c.posSum
	}
	r.TotalDeduction = money.Round2(deduction)

	raw := money.Round2(r.PreBalanceAmount - r.TotalDeduction)
	if multi {
		// Kept as computed even when negative; the refund still clamps.
		r.UpdatedBalance = raw
		r.RefundAmount = money.ClampNonNegative(raw)
		return
	}
	if raw < 0 {
		r.UpdatedBalance = money.Abs(raw)
		r.RefundAmount = 0
		return
	}
	r.UpdatedBalance = 0
	r.RefundAmount = raw
}

// daysBefore is the calendar-day distance from the cancellation date to the
// deadline, clamped at zero once the deadline has passed.
func daysBefore(cancelledAt, deadline time.Time) int {
	c := dateOnly(cancelledAt)
	d := dateOnly(deadline)
	days := int(d.Sub(c).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func dateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
