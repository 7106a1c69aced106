package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tourbook/internal/domain/errs"
	domaintour "tourbook/internal/domain/tour"
)

type TourRepository struct {
	col *mongo.Collection
}

func NewTourRepository(db *mongo.Database) *TourRepository {
	return &TourRepository{col: db.Collection("agg_tour")}
}

func (r *TourRepository) ByID(ctx context.Context, id domaintour.TourID) (*domaintour.Tour, error) {
	var doc tourDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NotFound("tour")
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *TourRepository) Save(ctx context.Context, t *domaintour.Tour) error {
	doc := newTourDocument(t)
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

type tourDocument struct {
	ID       string            `bson:"_id"`
	Name     string            `bson:"name"`
	Pricing  pricingDocument   `bson:"pricing"`
	Variants []variantDocument `bson:"variants"`
}

type variantDocument struct {
	Name    string          `bson:"name"`
	Pricing pricingDocument `bson:"pricing"`
}

type pricingDocument struct {
	Sharing          sharingPricesDoc  `bson:"sharing"`
	Advance          advanceAmountsDoc `bson:"advance"`
	Addons           []addonDocument   `bson:"addons"`
	BoardingPoints   []string          `bson:"boarding_points"`
	DeboardingPoints []string          `bson:"deboarding_points"`
	LastBookingDate  int64             `bson:"last_booking_date"`
}

type sharingPricesDoc struct {
	Double            float64 `bson:"double"`
	Triple            float64 `bson:"triple"`
	ChildWithBerth    float64 `bson:"child_with_berth"`
	ChildWithoutBerth float64 `bson:"child_without_berth"`
}

type advanceAmountsDoc struct {
	Adult float64 `bson:"adult"`
	Child float64 `bson:"child"`
}

type addonDocument struct {
	Name  string  `bson:"name"`
	Price float64 `bson:"price"`
}

func newTourDocument(t *domaintour.Tour) tourDocument {
	variants := make([]variantDocument, len(t.Variants))
	for i, v := range t.Variants {
		variants[i] = variantDocument{Name: v.Name, Pricing: newPricingDocument(v.Pricing)}
	}
	return tourDocument{
		ID:       string(t.ID),
		Name:     t.Name,
		Pricing:  newPricingDocument(t.Pricing),
		Variants: variants,
	}
}

func newPricingDocument(p domaintour.Pricing) pricingDocument {
	addons := make([]addonDocument, len(p.Addons))
	for i, a := range p.Addons {
		addons[i] = addonDocument{Name: a.Name, Price: a.Price}
	}
	return pricingDocument{
		Sharing:          sharingPricesDoc(p.Sharing),
		Advance:          advanceAmountsDoc(p.Advance),
		Addons:           addons,
		BoardingPoints:   p.BoardingPoints,
		DeboardingPoints: p.DeboardingPoints,
		LastBookingDate:  timeToTimestamp(p.LastBookingDate),
	}
}

func (d tourDocument) toAggregate() *domaintour.Tour {
	variants := make([]domaintour.Variant, len(d.Variants))
	for i, v := range d.Variants {
		variants[i] = domaintour.Variant{Name: v.Name, Pricing: v.Pricing.toDomain()}
	}
	return &domaintour.Tour{
		ID:       domaintour.TourID(d.ID),
		Name:     d.Name,
		Pricing:  d.Pricing.toDomain(),
		Variants: variants,
	}
}

func (d pricingDocument) toDomain() domaintour.Pricing {
	addons := make([]domaintour.Addon, len(d.Addons))
	for i, a := range d.Addons {
		addons[i] = domaintour.Addon{Name: a.Name, Price: a.Price}
	}
	return domaintour.Pricing{
		Sharing:          domaintour.SharingPrices(d.Sharing),
		Advance:          domaintour.AdvanceAmounts(d.Advance),
		Addons:           addons,
		BoardingPoints:   d.BoardingPoints,
		DeboardingPoints: d.DeboardingPoints,
		LastBookingDate:  timestampToTime(d.LastBookingDate),
	}
}
