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

const rejectCancellationKey = "cancellation.reject"

// RejectCancellationCommand retires a pending cancellation without touching
// traveller flags or the booking balance.
type RejectCancellationCommand struct {
	BookingID    string
	RecordID     string
	TravellerIDs []string
}

func (c RejectCancellationCommand) Key() string { return rejectCancellationKey }

type RejectCancellationResult struct {
	RejectedAt time.Time `json:"rejected_at"`
}

type RejectCancellationHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func (h *RejectCancellationHandler) Handle(ctx context.Context, cmd RejectCancellationCommand) (*RejectCancellationResult, error) {
	unit, ctx, finish, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer finish.rollbackUnlessCommitted(ctx)

	record, err := unit.Cancellations().ByID(ctx, cmd.RecordID)
	if err != nil {
		return nil, err
	}
	if record.BookingID != domainbooking.BookingID(cmd.BookingID) {
		return nil, errs.Precondition("cancellation %s does not belong to booking %s", record.ID, cmd.BookingID)
	}
	if record.Status() != domaincancel.StatusPending {
		return nil, errs.Conflict("cancellation %s is not pending", record.ID)
	}
	if !record.Covers(cmd.TravellerIDs) {
		return nil, errs.Precondition("travellers do not belong to this cancellation")
	}
	if err := record.Reject(h.now()); err != nil {
		return nil, err
	}

	if err := unit.Cancellations().Save(ctx, record); err != nil {
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
	return &RejectCancellationResult{RejectedAt: record.ResolvedAt}, nil
}

func (h *RejectCancellationHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now().UTC()
}
