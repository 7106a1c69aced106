package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tourbook/internal/app/uow"
	domainbooking "tourbook/internal/domain/booking"
	domaincancel "tourbook/internal/domain/cancellation"
	domainfeetier "tourbook/internal/domain/feetier"
	domaintour "tourbook/internal/domain/tour"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
// Approvals and rejections ride a session so their booking and record writes
// commit or abort together.
type Factory struct {
	DB *mongo.Database

	BookingRepo      domainbooking.Repository
	TourRepo         domaintour.Repository
	FeeTierRepo      domainfeetier.Repository
	CancellationRepo domaincancel.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:            f.DB,
		session:       session,
		bookings:      f.BookingRepo,
		tours:         f.TourRepo,
		feeTiers:      f.FeeTierRepo,
		cancellations: f.CancellationRepo,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

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
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures the Mongo session is available in context for
// downstream repositories.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
