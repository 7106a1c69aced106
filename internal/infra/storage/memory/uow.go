package memory

import (
	"context"
	"errors"

	"tourbook/internal/app/uow"
	domainbooking "tourbook/internal/domain/booking"
	domaincancel "tourbook/internal/domain/cancellation"
	domainfeetier "tourbook/internal/domain/feetier"
	domaintour "tourbook/internal/domain/tour"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	BookingRepo      domainbooking.Repository
	TourRepo         domaintour.Repository
	FeeTierRepo      domainfeetier.Repository
	CancellationRepo domaincancel.Repository
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided
// but the abstraction matches the application ports; the version guard on
// saves keeps concurrent mutations from double-applying.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.BookingRepo == nil || f.TourRepo == nil || f.FeeTierRepo == nil || f.CancellationRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		bookings:      f.BookingRepo,
		tours:         f.TourRepo,
		feeTiers:      f.FeeTierRepo,
		cancellations: f.CancellationRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	bookings      domainbooking.Repository
	tours         domaintour.Repository
	feeTiers      domainfeetier.Repository
	cancellations domaincancel.Repository
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Tours() domaintour.Repository {
	return u.tours
}

func (u *Unit) FeeTiers() domainfeetier.Repository {
	return u.feeTiers
}

func (u *Unit) Cancellations() domaincancel.Repository {
	return u.cancellations
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}
