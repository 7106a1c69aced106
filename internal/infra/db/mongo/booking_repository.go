package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "tourbook/internal/domain/booking"
	"tourbook/internal/domain/errs"
	domaintour "tourbook/internal/domain/tour"
)

var ErrConcurrentUpdate error = errs.Conflict("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("agg_booking")}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NotFound("booking")
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	opts := options.Replace().SetUpsert(true)
	res, err := r.col.ReplaceOne(ctx, filter, doc, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

type bookingDocument struct {
	ID                    string              `bson:"_id"`
	TourID                string              `bson:"tour_id"`
	Travellers            []travellerDocument `bson:"travellers"`
	Payment               paymentDocument     `bson:"payment"`
	AdminRemarks          []remarkDocument    `bson:"admin_remarks"`
	PackageFeePool        float64             `bson:"package_fee_pool"`
	TransportFeePool      float64             `bson:"transport_fee_pool"`
	CancellationRequested bool                `bson:"cancellation_requested"`
	CreatedAt             int64               `bson:"created_at"`
	UpdatedAt             int64               `bson:"updated_at"`
	Version               int64               `bson:"version"`
}

type travellerDocument struct {
	ID           string               `bson:"_id"`
	Name         string               `bson:"name"`
	Age          int                  `bson:"age"`
	Sharing      string               `bson:"sharing"`
	VariantIndex int                  `bson:"variant_index"`
	Addon        string               `bson:"addon"`
	CustomAddons []customAddonDoc     `bson:"custom_addons"`
	Cancellation cancellationStateDoc `bson:"cancellation"`
}

type customAddonDoc struct {
	Name  string  `bson:"name"`
	Price float64 `bson:"price"`
}

type cancellationStateDoc struct {
	RequestedByTraveller bool  `bson:"requested_by_traveller"`
	ConfirmedByAdmin     bool  `bson:"confirmed_by_admin"`
	RequestedAt          int64 `bson:"requested_at"`
	ConfirmedAt          int64 `bson:"confirmed_at"`
}

type paymentDocument struct {
	Advance paymentLegDoc `bson:"advance"`
	Balance paymentLegDoc `bson:"balance"`
}

type paymentLegDoc struct {
	Amount   float64 `bson:"amount"`
	Paid     bool    `bson:"paid"`
	Verified bool    `bson:"verified"`
}

type remarkDocument struct {
	Amount float64 `bson:"amount"`
	Text   string  `bson:"text"`
	At     int64   `bson:"at"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	travellers := make([]travellerDocument, len(b.Travellers))
	for i, t := range b.Travellers {
		addons := make([]customAddonDoc, len(t.CustomAddons))
		for j, a := range t.CustomAddons {
			addons[j] = customAddonDoc{Name: a.Name, Price: a.Price}
		}
		travellers[i] = travellerDocument{
			ID:           t.ID,
			Name:         t.Name,
			Age:          t.Age,
			Sharing:      string(t.Sharing),
			VariantIndex: t.VariantIndex,
			Addon:        t.Addon,
			CustomAddons: addons,
			Cancellation: cancellationStateDoc{
				RequestedByTraveller: t.Cancellation.RequestedByTraveller,
				ConfirmedByAdmin:     t.Cancellation.ConfirmedByAdmin,
				RequestedAt:          timeToTimestamp(t.Cancellation.RequestedAt),
				ConfirmedAt:          timeToTimestamp(t.Cancellation.ConfirmedAt),
			},
		}
	}
	remarks := make([]remarkDocument, len(b.AdminRemarks))
	for i, rm := range b.AdminRemarks {
		remarks[i] = remarkDocument{Amount: rm.Amount, Text: rm.Text, At: timeToTimestamp(rm.At)}
	}
	return bookingDocument{
		ID:     string(b.ID),
		TourID: string(b.TourID),
		Payment: paymentDocument{
			Advance: paymentLegDoc(b.Payment.Advance),
			Balance: paymentLegDoc(b.Payment.Balance),
		},
		Travellers:            travellers,
		AdminRemarks:          remarks,
		PackageFeePool:        b.PackageFeePool,
		TransportFeePool:      b.TransportFeePool,
		CancellationRequested: b.CancellationRequested,
		CreatedAt:             timeToTimestamp(b.CreatedAt),
		UpdatedAt:             timeToTimestamp(b.UpdatedAt),
		Version:               b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	travellers := make([]domainbooking.Traveller, len(d.Travellers))
	for i, t := range d.Travellers {
		addons := make([]domainbooking.CustomAddon, len(t.CustomAddons))
		for j, a := range t.CustomAddons {
			addons[j] = domainbooking.CustomAddon{Name: a.Name, Price: a.Price}
		}
		travellers[i] = domainbooking.Traveller{
			ID:           t.ID,
			Name:         t.Name,
			Age:          t.Age,
			Sharing:      domainbooking.SharingType(t.Sharing),
			VariantIndex: t.VariantIndex,
			Addon:        t.Addon,
			CustomAddons: addons,
			Cancellation: domainbooking.CancellationState{
				RequestedByTraveller: t.Cancellation.RequestedByTraveller,
				ConfirmedByAdmin:     t.Cancellation.ConfirmedByAdmin,
				RequestedAt:          timestampToTime(t.Cancellation.RequestedAt),
				ConfirmedAt:          timestampToTime(t.Cancellation.ConfirmedAt),
			},
		}
	}
	remarks := make([]domainbooking.AdminRemark, len(d.AdminRemarks))
	for i, rm := range d.AdminRemarks {
		remarks[i] = domainbooking.AdminRemark{Amount: rm.Amount, Text: rm.Text, At: timestampToTime(rm.At)}
	}
	return &domainbooking.Booking{
		ID:         domainbooking.BookingID(d.ID),
		TourID:     domaintour.TourID(d.TourID),
		Travellers: travellers,
		Payment: domainbooking.Payment{
			Advance: domainbooking.PaymentLeg(d.Payment.Advance),
			Balance: domainbooking.PaymentLeg(d.Payment.Balance),
		},
		AdminRemarks:          remarks,
		PackageFeePool:        d.PackageFeePool,
		TransportFeePool:      d.TransportFeePool,
		CancellationRequested: d.CancellationRequested,
		CreatedAt:             timestampToTime(d.CreatedAt),
		UpdatedAt:             timestampToTime(d.UpdatedAt),
		Version:               d.Version,
	}
}
