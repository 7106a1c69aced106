package cancellation

import (
	"context"
	"time"

	"tourbook/internal/app/outbox"
	"tourbook/internal/app/uow"
	domainbooking "tourbook/internal/domain/booking"
	domaincancel "tourbook/internal/domain/cancellation"
	"tourbook/internal/domain/errs"
)

const approveCancellationKey = "cancellation.approve"

// ApproveCancellationCommand finalizes a pending cancellation: traveller
// flags, booking balance, deduction pools and the record transition move
// together in one transaction.
type ApproveCancellationCommand struct {
	BookingID    string
	TravellerIDs []string
}

func (c ApproveCancellationCommand) Key() string { return approveCancellationKey }

type ApproveCancellationResult struct {
	UpdatedBalance   float64 `json:"updated_balance"`
	PackageFeePool   float64 `json:"package_fee_pool"`
	TransportFeePool float64 `json:"transport_fee_pool"`
}

type ApproveCancellationHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func (h *ApproveCancellationHandler) Handle(ctx context.Context, cmd ApproveCancellationCommand) (*ApproveCancellationResult, error) {
	unit, ctx, finish, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer finish.rollbackUnlessCommitted(ctx)

	if len(cmd.TravellerIDs) == 0 {
		return nil, errs.Validation("at least one traveller must be selected")
	}

	bk, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	for _, id := range cmd.TravellerIDs {
		t, ok := bk.TravellerByID(id)
		if !ok {
			return nil, errs.Validation("traveller %s does not exist on booking %s", id, bk.ID)
		}
		if !t.Cancellation.RequestedByTraveller || t.Cancellation.ConfirmedByAdmin {
			return nil, errs.Precondition("traveller %s has no pending cancellation request", id)
		}
	}

	record, err := findExactPending(ctx, unit.Cancellations(), bk.ID, cmd.TravellerIDs)
	if err != nil {
		return nil, err
	}

	if err := record.ApproveInto(bk, h.now()); err != nil {
		return nil, err
	}

	if err := unit.Cancellations().Save(ctx, record); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, bk); err != nil {
		return nil, err
	}

	evs := record.PendingEvents()
	record.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, evs); err != nil {
		return nil, err
	}

	if err := finish.commit(ctx); err != nil {
		return nil, err
	}
	return &ApproveCancellationResult{
		UpdatedBalance:   bk.Payment.Balance.Amount,
		PackageFeePool:   bk.PackageFeePool,
		TransportFeePool: bk.TransportFeePool,
	}, nil
}

func (h *ApproveCancellationHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now().UTC()
}

// findExactPending locates the pending record whose traveller-id set equals
// the requested set. A matching record that already left PENDING is a
// conflict, a missing one is not found.
func findExactPending(ctx context.Context, repo domaincancel.Repository, bookingID domainbooking.BookingID, ids []string) (*domaincancel.Record, error) {
	records, err := repo.ByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	var resolved *domaincancel.Record
	for _, r := range records {
		if !r.MatchesExactly(ids) {
			continue
		}
		if r.Status() == domaincancel.StatusPending {
			return r, nil
		}
		resolved = r
	}
	if resolved != nil {
		return nil, errs.Conflict("cancellation %s is not pending", resolved.ID)
	}
	return nil, errs.NotFound("cancellation record")
}
