package cancellation

import (
	"context"
	"time"

	"tourbook/internal/domain/booking"
	"tourbook/internal/domain/errs"
	"tourbook/internal/domain/shared/events"
	"tourbook/internal/domain/shared/money"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Record is created once per cancellation event and captures every monetary
// component the classifier derived. Once approved or rejected it is immutable.
type Record struct {
	ID           string
	BookingID    booking.BookingID
	TravellerIDs []string

	PackageFeeDeduction   float64
	TransportFeeDeduction float64
	RemarksDeduction      float64
	PreBalanceAmount      float64
	NetAmountPaid         float64
	TotalDeduction        float64
	UpdatedBalance        float64
	RefundAmount          float64

	// Pool totals snapshotted from the booking at approval time.
	PackageFeePool   float64
	TransportFeePool float64

	Remark     string
	Raised     bool
	Approved   bool
	RaisedAt   time.Time
	ResolvedAt time.Time
	Version    int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id string) (*Record, error)
	ByBooking(ctx context.Context, id booking.BookingID) ([]*Record, error)
	ListPending(ctx context.Context) ([]*Record, error)
	Save(ctx context.Context, r *Record) error
}

// Status derives the state-machine position from the two flags:
// raised+unapproved is pending, both cleared is rejected.
func (r *Record) Status() Status {
	switch {
	case r.Raised && !r.Approved:
		return StatusPending
	case !r.Raised && r.Approved:
		return StatusApproved
	default:
		return StatusRejected
	}
}

// MatchesExactly reports whether the stored traveller-id set equals ids.
func (r *Record) MatchesExactly(ids []string) bool {
	if len(ids) != len(r.TravellerIDs) {
		return false
	}
	return r.Covers(ids)
}

// Covers reports whether every given id belongs to the stored set.
func (r *Record) Covers(ids []string) bool {
	stored := make(map[string]struct{}, len(r.TravellerIDs))
	for _, id := range r.TravellerIDs {
		stored[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := stored[id]; !ok {
			return false
		}
	}
	return true
}

// ApproveInto commits the record's deductions onto the booking: traveller
// flags are finalized, the balance due becomes the record's updated balance
// and both pools grow by the record's own deductions. Pools only ever
// increase here, never at raise time.
func (r *Record) ApproveInto(b *booking.Booking, now time.Time) error {
	if r.Status() != StatusPending {
		return errs.Conflict("cancellation %s is not pending", r.ID)
	}
	if err := b.ConfirmCancellation(r.TravellerIDs, now); err != nil {
		return err
	}
	ts := now.UTC()
	b.Payment.Balance.Amount = r.UpdatedBalance
	b.PackageFeePool = money.Round2(b.PackageFeePool + r.PackageFeeDeduction + r.RemarksDeduction)
	b.TransportFeePool = money.Round2(b.TransportFeePool + r.TransportFeeDeduction)
	b.CancellationRequested = false
	b.UpdatedAt = ts

	r.PackageFeePool = b.PackageFeePool
	r.TransportFeePool = b.TransportFeePool
	r.Raised = false
	r.Approved = true
	r.ResolvedAt = ts
	r.Record(CancellationApproved{
		RecordID:         r.ID,
		BookingID:        r.BookingID,
		TravellerIDs:     r.TravellerIDs,
		UpdatedBalance:   r.UpdatedBalance,
		RefundAmount:     r.RefundAmount,
		PackageFeePool:   r.PackageFeePool,
		TransportFeePool: r.TransportFeePool,
		At:               ts,
	})
	return nil
}

// Reject retires the request without touching traveller flags or the
// booking's balance.
func (r *Record) Reject(now time.Time) error {
	if r.Status() != StatusPending {
		return errs.Conflict("cancellation %s is not pending", r.ID)
	}
	ts := now.UTC()
	r.Raised = false
	r.Approved = false
	r.ResolvedAt = ts
	r.Record(CancellationRejected{RecordID: r.ID, BookingID: r.BookingID, At: ts})
	return nil
}
