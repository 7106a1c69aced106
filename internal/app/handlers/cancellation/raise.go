package cancellation

import (
	"context"
	"errors"
	"time"

	"tourbook/internal/app/dto"
	"tourbook/internal/app/outbox"
	"tourbook/internal/app/uow"
	domainbooking "tourbook/internal/domain/booking"
	domaincancel "tourbook/internal/domain/cancellation"
	"tourbook/internal/domain/errs"
)

const raiseCancellationKey = "cancellation.raise"

// RaiseCancellationCommand computes the refund math for a set of travellers
// and files a pending cancellation record for admin review.
type RaiseCancellationCommand struct {
	CommandID         string
	BookingID         string
	TravellerIDs      []string
	CancelledAt       time.Time
	ExtraRemarkAmount float64
	TransportAmount   float64
	TrainAmount       float64
	FlightAmount      float64
	Remark            string
}

func (c RaiseCancellationCommand) Key() string { return raiseCancellationKey }

type RaiseCancellationResult struct {
	Record dto.CancellationRecord `json:"record"`
}

type RaiseCancellationHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

var ErrUnitOfWorkRequired = errors.New("cancellation: unit of work required")

func (h *RaiseCancellationHandler) Handle(ctx context.Context, cmd RaiseCancellationCommand) (*RaiseCancellationResult, error) {
	unit, ctx, finish, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer finish.rollbackUnlessCommitted(ctx)

	if cmd.CancelledAt.IsZero() {
		return nil, errs.Validation("cancellation date is required")
	}

	bk, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	tr, err := unit.Tours().ByID(ctx, bk.TourID)
	if err != nil {
		return nil, err
	}
	sched, err := unit.FeeTiers().Get(ctx)
	if err != nil {
		return nil, err
	}

	now := h.now()
	record, err := domaincancel.Compute(domaincancel.Inputs{
		RecordID:     cmd.CommandID,
		Booking:      bk,
		Tour:         tr,
		Schedule:     sched,
		TravellerIDs: cmd.TravellerIDs,
		CancelledAt:  cmd.CancelledAt,
		ExtraRemark:  cmd.ExtraRemarkAmount,
		Transport: domaincancel.TransportCharges{
			Transport: cmd.TransportAmount,
			Train:     cmd.TrainAmount,
			Flight:    cmd.FlightAmount,
		},
		Remark: cmd.Remark,
		Now:    now,
	})
	if err != nil {
		return nil, err
	}

	if err := bk.RequestCancellation(record.TravellerIDs, now); err != nil {
		return nil, err
	}

	// Record first, pending flag second: the flag write must not be skipped
	// once the record exists.
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
	rec := dto.NewCancellationRecord(record)
	return &RaiseCancellationResult{Record: rec}, nil
}

func (h *RaiseCancellationHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now().UTC()
}
