package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "tourbook/internal/domain/booking"
	domaincancel "tourbook/internal/domain/cancellation"
	"tourbook/internal/domain/errs"
)

type CancellationRepository struct {
	col *mongo.Collection
}

func NewCancellationRepository(db *mongo.Database) *CancellationRepository {
	col := db.Collection("agg_cancellation")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "booking_id", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &CancellationRepository{col: col}
}

func (r *CancellationRepository) ByID(ctx context.Context, id string) (*domaincancel.Record, error) {
	var doc cancellationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NotFound("cancellation record")
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *CancellationRepository) ByBooking(ctx context.Context, id domainbooking.BookingID) ([]*domaincancel.Record, error) {
	return r.find(ctx, bson.M{"booking_id": string(id)})
}

func (r *CancellationRepository) ListPending(ctx context.Context) ([]*domaincancel.Record, error) {
	return r.find(ctx, bson.M{"raised": true, "approved": false})
}

func (r *CancellationRepository) find(ctx context.Context, filter bson.M) ([]*domaincancel.Record, error) {
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domaincancel.Record
	for cur.Next(ctx) {
		var doc cancellationDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

func (r *CancellationRepository) Save(ctx context.Context, rec *domaincancel.Record) error {
	doc := newCancellationDocument(rec)
	filter := bson.M{"_id": doc.ID, "version": rec.Version}
	doc.Version = rec.Version + 1
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
	rec.Version = doc.Version
	return nil
}

type cancellationDocument struct {
	ID           string   `bson:"_id"`
	BookingID    string   `bson:"booking_id"`
	TravellerIDs []string `bson:"traveller_ids"`

	PackageFeeDeduction   float64 `bson:"package_fee_deduction"`
	TransportFeeDeduction float64 `bson:"transport_fee_deduction"`
	RemarksDeduction      float64 `bson:"remarks_deduction"`
	PreBalanceAmount      float64 `bson:"pre_balance_amount"`
	NetAmountPaid         float64 `bson:"net_amount_paid"`
	TotalDeduction        float64 `bson:"total_deduction"`
	UpdatedBalance        float64 `bson:"updated_balance"`
	RefundAmount          float64 `bson:"refund_amount"`
	PackageFeePool        float64 `bson:"package_fee_pool"`
	TransportFeePool      float64 `bson:"transport_fee_pool"`

	Remark     string `bson:"remark"`
	Raised     bool   `bson:"raised"`
	Approved   bool   `bson:"approved"`
	RaisedAt   int64  `bson:"raised_at"`
	ResolvedAt int64  `bson:"resolved_at"`
	Version    int64  `bson:"version"`
}

func newCancellationDocument(rec *domaincancel.Record) cancellationDocument {
	return cancellationDocument{
		ID:                    rec.ID,
		BookingID:             string(rec.BookingID),
		TravellerIDs:          rec.TravellerIDs,
		PackageFeeDeduction:   rec.PackageFeeDeduction,
		TransportFeeDeduction: rec.TransportFeeDeduction,
		RemarksDeduction:      rec.RemarksDeduction,
		PreBalanceAmount:      rec.PreBalanceAmount,
		NetAmountPaid:         rec.NetAmountPaid,
		TotalDeduction:        rec.TotalDeduction,
		UpdatedBalance:        rec.UpdatedBalance,
		RefundAmount:          rec.RefundAmount,
		PackageFeePool:        rec.PackageFeePool,
		TransportFeePool:      rec.TransportFeePool,
		Remark:                rec.Remark,
		Raised:                rec.Raised,
		Approved:              rec.Approved,
		RaisedAt:              timeToTimestamp(rec.RaisedAt),
		ResolvedAt:            timeToTimestamp(rec.ResolvedAt),
		Version:               rec.Version,
	}
}

func (d cancellationDocument) toAggregate() *domaincancel.Record {
	return &domaincancel.Record{
		ID:                    d.ID,
		BookingID:             domainbooking.BookingID(d.BookingID),
		TravellerIDs:          d.TravellerIDs,
		PackageFeeDeduction:   d.PackageFeeDeduction,
		TransportFeeDeduction: d.TransportFeeDeduction,
		RemarksDeduction:      d.RemarksDeduction,
		PreBalanceAmount:      d.PreBalanceAmount,
		NetAmountPaid:         d.NetAmountPaid,
		TotalDeduction:        d.TotalDeduction,
		UpdatedBalance:        d.UpdatedBalance,
		RefundAmount:          d.RefundAmount,
		PackageFeePool:        d.PackageFeePool,
		TransportFeePool:      d.TransportFeePool,
		Remark:                d.Remark,
		Raised:                d.Raised,
		Approved:              d.Approved,
		RaisedAt:              timestampToTime(d.RaisedAt),
		ResolvedAt:            timestampToTime(d.ResolvedAt),
		Version:               d.Version,
	}
}
