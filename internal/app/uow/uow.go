package uow

import (
	"context"

	domainbooking "tourbook/internal/domain/booking"
	domaincancel "tourbook/internal/domain/cancellation"
	domainfeetier "tourbook/internal/domain/feetier"
	domaintour "tourbook/internal/domain/tour"
)

// UnitOfWork coordinates repositories inside a transaction boundary. An
// approval or rejection touches a booking and a cancellation record together
// and must commit or roll back as one.
type UnitOfWork interface {
	Bookings() domainbooking.Repository
	Tours() domaintour.Repository
	FeeTiers() domainfeetier.Repository
	Cancellations() domaincancel.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
