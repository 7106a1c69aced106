package memory

import (
	"context"
	"sync"

	domainbooking "tourbook/internal/domain/booking"
	domaincancel "tourbook/internal/domain/cancellation"
	"tourbook/internal/domain/errs"
	domainfeetier "tourbook/internal/domain/feetier"
	domaintour "tourbook/internal/domain/tour"
)

// ErrConcurrentUpdate is returned when a save observes a stale version.
var ErrConcurrentUpdate error = errs.Conflict("memory: concurrent update detected")

// BookingRepository keeps bookings in a mutex-guarded map. Reads hand out
// deep copies so an aborted operation never leaks partial mutation back
// into the store; Save enforces the same optimistic version guard as the
// Mongo repository.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, errs.NotFound("booking")
	}
	return copyBooking(b), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.items[b.ID]; ok && cur.Version != b.Version {
		return ErrConcurrentUpdate
	}
	b.Version++
	r.items[b.ID] = copyBooking(b)
	return nil
}

func copyBooking(b *domainbooking.Booking) *domainbooking.Booking {
	out := *b
	out.Travellers = make([]domainbooking.Traveller, len(b.Travellers))
	copy(out.Travellers, b.Travellers)
	for i := range out.Travellers {
		addons := make([]domainbooking.CustomAddon, len(out.Travellers[i].CustomAddons))
		copy(addons, out.Travellers[i].CustomAddons)
		out.Travellers[i].CustomAddons = addons
	}
	out.AdminRemarks = make([]domainbooking.AdminRemark, len(b.AdminRemarks))
	copy(out.AdminRemarks, b.AdminRemarks)
	out.ClearEvents()
	return &out
}

// TourRepository stores immutable tour reference data.
type TourRepository struct {
	mu    sync.RWMutex
	items map[domaintour.TourID]*domaintour.Tour
}

func NewTourRepository() *TourRepository {
	return &TourRepository{items: make(map[domaintour.TourID]*domaintour.Tour)}
}

func (r *TourRepository) ByID(ctx context.Context, id domaintour.TourID) (*domaintour.Tour, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.items[id]
	if !ok {
		return nil, errs.NotFound("tour")
	}
	return t, nil
}

func (r *TourRepository) Save(ctx context.Context, t *domaintour.Tour) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[t.ID] = t
	return nil
}

// FeeTierRepository holds the singleton schedule.
type FeeTierRepository struct {
	mu       sync.RWMutex
	schedule *domainfeetier.Schedule
}

func NewFeeTierRepository() *FeeTierRepository {
	return &FeeTierRepository{}
}

func (r *FeeTierRepository) Get(ctx context.Context) (*domainfeetier.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.schedule == nil {
		return nil, errs.NotFound("fee-tier schedule")
	}
	return copySchedule(r.schedule), nil
}

func (r *FeeTierRepository) Upsert(ctx context.Context, s *domainfeetier.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := copySchedule(s)
	if r.schedule != nil {
		next.Version = r.schedule.Version + 1
	}
	r.schedule = next
	return nil
}

func copySchedule(s *domainfeetier.Schedule) *domainfeetier.Schedule {
	out := *s
	out.AdvancePaid = copyTiers(s.AdvancePaid)
	out.FullyPaid = copyTiers(s.FullyPaid)
	return &out
}

func copyTiers(tiers []domainfeetier.Tier) []domainfeetier.Tier {
	out := make([]domainfeetier.Tier, len(tiers))
	for i, t := range tiers {
		out[i] = t
		if t.ToDays != nil {
			v := *t.ToDays
			out[i].ToDays = &v
		}
	}
	return out
}

// CancellationRepository stores cancellation records with the same version
// guard as bookings.
type CancellationRepository struct {
	mu    sync.RWMutex
	items map[string]*domaincancel.Record
}

func NewCancellationRepository() *CancellationRepository {
	return &CancellationRepository{items: make(map[string]*domaincancel.Record)}
}

func (r *CancellationRepository) ByID(ctx context.Context, id string) (*domaincancel.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.items[id]
	if !ok {
		return nil, errs.NotFound("cancellation record")
	}
	return copyRecord(rec), nil
}

func (r *CancellationRepository) ByBooking(ctx context.Context, id domainbooking.BookingID) ([]*domaincancel.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domaincancel.Record
	for _, rec := range r.items {
		if rec.BookingID == id {
			out = append(out, copyRecord(rec))
		}
	}
	return out, nil
}

func (r *CancellationRepository) ListPending(ctx context.Context) ([]*domaincancel.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domaincancel.Record
	for _, rec := range r.items {
		if rec.Status() == domaincancel.StatusPending {
			out = append(out, copyRecord(rec))
		}
	}
	return out, nil
}

func (r *CancellationRepository) Save(ctx context.Context, rec *domaincancel.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.items[rec.ID]; ok && cur.Version != rec.Version {
		return ErrConcurrentUpdate
	}
	rec.Version++
	r.items[rec.ID] = copyRecord(rec)
	return nil
}

func copyRecord(rec *domaincancel.Record) *domaincancel.Record {
	out := *rec
	out.TravellerIDs = make([]string, len(rec.TravellerIDs))
	copy(out.TravellerIDs, rec.TravellerIDs)
	out.ClearEvents()
	return &out
}
