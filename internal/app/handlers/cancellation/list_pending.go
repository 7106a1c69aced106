package cancellation

import (
	"context"

	"tourbook/internal/app/dto"
	"tourbook/internal/app/uow"
)

const listPendingKey = "cancellation.list_pending"

// ListPendingQuery returns raised-and-unapproved records whose booking still
// has a traveller with a half-open cancellation flag pair.
type ListPendingQuery struct{}

func (q ListPendingQuery) Key() string { return listPendingKey }

type ListPendingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListPendingHandler) Handle(ctx context.Context, _ ListPendingQuery) (*dto.CancellationRecordCollection, error) {
	unit, ctx, finish, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer finish.rollbackUnlessCommitted(ctx)

	records, err := unit.Cancellations().ListPending(ctx)
	if err != nil {
		return nil, err
	}

	out := &dto.CancellationRecordCollection{Items: make([]dto.CancellationRecord, 0, len(records))}
	for _, r := range records {
		bk, err := unit.Bookings().ByID(ctx, r.BookingID)
		if err != nil {
			continue
		}
		if !bk.HasOpenCancellationFlag() {
			continue
		}
		out.Items = append(out.Items, dto.NewCancellationRecord(r))
	}
	if err := finish.commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}
