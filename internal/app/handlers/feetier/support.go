package feetier

import (
	"context"

	"tourbook/internal/app/uow"
)

type unitFinisher struct {
	unit      uow.UnitOfWork
	managed   bool
	committed bool
}

func beginUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, *unitFinisher, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, &unitFinisher{unit: unit}, nil
	}
	if factory == nil {
		return nil, ctx, nil, ErrUnitOfWorkRequired
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, ctx, nil, err
	}
	ctx = uow.ContextWithUnitOfWork(ctx, unit)
	return unit, ctx, &unitFinisher{unit: unit, managed: true}, nil
}

func (f *unitFinisher) commit(ctx context.Context) error {
	if !f.managed {
		return nil
	}
	if err := f.unit.Commit(ctx); err != nil {
		return err
	}
	f.committed = true
	return nil
}

func (f *unitFinisher) rollbackUnlessCommitted(ctx context.Context) {
	if f.managed && !f.committed {
		_ = f.unit.Rollback(ctx)
	}
}
