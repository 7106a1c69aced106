package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tourbook/internal/domain/errs"
	domainfeetier "tourbook/internal/domain/feetier"
)

// FeeTierRepository persists the singleton schedule document.
type FeeTierRepository struct {
	col *mongo.Collection
}

func NewFeeTierRepository(db *mongo.Database) *FeeTierRepository {
	return &FeeTierRepository{col: db.Collection("cfg_fee_tiers")}
}

func (r *FeeTierRepository) Get(ctx context.Context) (*domainfeetier.Schedule, error) {
	var doc scheduleDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": domainfeetier.ScheduleID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.NotFound("fee-tier schedule")
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *FeeTierRepository) Upsert(ctx context.Context, s *domainfeetier.Schedule) error {
	doc := newScheduleDocument(s)
	doc.Version = s.Version + 1
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	if err != nil {
		return err
	}
	s.Version = doc.Version
	return nil
}

type scheduleDocument struct {
	ID          string        `bson:"_id"`
	AdvancePaid []tierDocument `bson:"advance_paid"`
	FullyPaid   []tierDocument `bson:"fully_paid"`
	UpdatedAt   int64         `bson:"updated_at"`
	Version     int64         `bson:"version"`
}

type tierDocument struct {
	FromDays int     `bson:"from_days"`
	ToDays   *int    `bson:"to_days,omitempty"`
	Percent  float64 `bson:"percent"`
}

func newScheduleDocument(s *domainfeetier.Schedule) scheduleDocument {
	return scheduleDocument{
		ID:          domainfeetier.ScheduleID,
		AdvancePaid: newTierDocuments(s.AdvancePaid),
		FullyPaid:   newTierDocuments(s.FullyPaid),
		UpdatedAt:   timeToTimestamp(s.UpdatedAt),
		Version:     s.Version,
	}
}

func newTierDocuments(tiers []domainfeetier.Tier) []tierDocument {
	out := make([]tierDocument, len(tiers))
	for i, t := range tiers {
		out[i] = tierDocument{FromDays: t.FromDays, ToDays: t.ToDays, Percent: t.Percent}
	}
	return out
}

func (d scheduleDocument) toAggregate() *domainfeetier.Schedule {
	return &domainfeetier.Schedule{
		ID:          d.ID,
		AdvancePaid: toDomainTiers(d.AdvancePaid),
		FullyPaid:   toDomainTiers(d.FullyPaid),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
		Version:     d.Version,
	}
}

func toDomainTiers(tiers []tierDocument) []domainfeetier.Tier {
	out := make([]domainfeetier.Tier, len(tiers))
	for i, t := range tiers {
		out[i] = domainfeetier.Tier{FromDays: t.FromDays, ToDays: t.ToDays, Percent: t.Percent}
	}
	return out
}
