package feetier

import (
	"context"
	"errors"
	"time"

	"tourbook/internal/app/dto"
	"tourbook/internal/app/uow"
	domainfeetier "tourbook/internal/domain/feetier"
)

const (
	upsertScheduleKey = "feetier.upsert"
	getScheduleKey    = "feetier.get"
)

var ErrUnitOfWorkRequired = errors.New("feetier: unit of work required")

// TierInput mirrors a fee tier as supplied by the admin surface. Malformed
// entries are stored as-is; the resolver skips them.
type TierInput struct {
	FromDays int
	ToDays   *int
	Percent  float64
}

// UpsertScheduleCommand replaces the singleton fee-tier schedule.
type UpsertScheduleCommand struct {
	AdvancePaid []TierInput
	FullyPaid   []TierInput
}

func (c UpsertScheduleCommand) Key() string { return upsertScheduleKey }

type UpsertScheduleHandler struct {
	UoWFactory uow.UoWFactory
	Clock      func() time.Time
}

func (h *UpsertScheduleHandler) Handle(ctx context.Context, cmd UpsertScheduleCommand) (*dto.FeeTierSchedule, error) {
	unit, ctx, finish, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer finish.rollbackUnlessCommitted(ctx)

	now := time.Now().UTC()
	if h.Clock != nil {
		now = h.Clock()
	}
	sched := &domainfeetier.Schedule{
		ID:          domainfeetier.ScheduleID,
		AdvancePaid: toTiers(cmd.AdvancePaid),
		FullyPaid:   toTiers(cmd.FullyPaid),
		UpdatedAt:   now,
	}
	if err := unit.FeeTiers().Upsert(ctx, sched); err != nil {
		return nil, err
	}
	if err := finish.commit(ctx); err != nil {
		return nil, err
	}
	out := dto.NewFeeTierSchedule(sched)
	return &out, nil
}

// GetScheduleQuery reads the singleton schedule.
type GetScheduleQuery struct{}

func (q GetScheduleQuery) Key() string { return getScheduleKey }

type GetScheduleHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetScheduleHandler) Handle(ctx context.Context, _ GetScheduleQuery) (*dto.FeeTierSchedule, error) {
	unit, ctx, finish, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer finish.rollbackUnlessCommitted(ctx)

	sched, err := unit.FeeTiers().Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := finish.commit(ctx); err != nil {
		return nil, err
	}
	out := dto.NewFeeTierSchedule(sched)
	return &out, nil
}

func toTiers(in []TierInput) []domainfeetier.Tier {
	out := make([]domainfeetier.Tier, len(in))
	for i, t := range in {
		out[i] = domainfeetier.Tier{FromDays: t.FromDays, ToDays: t.ToDays, Percent: t.Percent}
	}
	return out
}
