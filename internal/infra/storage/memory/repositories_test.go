package memory

import (
	"context"
	"errors"
	"testing"

	domainbooking "tourbook/internal/domain/booking"
	domaincancel "tourbook/internal/domain/cancellation"
	"tourbook/internal/domain/errs"
)

func seedBooking(t *testing.T, repo *BookingRepository) *domainbooking.Booking {
	t.Helper()
	b := &domainbooking.Booking{
		ID: "bk-1",
		Travellers: []domainbooking.Traveller{
			{ID: "t1", Name: "Asha", Age: 34, Sharing: domainbooking.SharingDouble},
		},
	}
	if err := repo.Save(context.Background(), b); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return b
}

func TestBookingRepositoryVersionGuard(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	seedBooking(t, repo)

	first, err := repo.ByID(ctx, "bk-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	second, err := repo.ByID(ctx, "bk-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}

	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := repo.Save(ctx, second); !errors.Is(err, ErrConcurrentUpdate) {
		t.Fatalf("stale save = %v, want ErrConcurrentUpdate", err)
	}
	if !errs.IsConflict(ErrConcurrentUpdate) {
		t.Fatal("ErrConcurrentUpdate should be a conflict error")
	}
}

func TestBookingRepositoryReadsAreIsolated(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	seedBooking(t, repo)

	loaded, err := repo.ByID(ctx, "bk-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	loaded.Travellers[0].Cancellation.RequestedByTraveller = true
	loaded.PackageFeePool = 999

	fresh, err := repo.ByID(ctx, "bk-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if fresh.Travellers[0].Cancellation.RequestedByTraveller {
		t.Fatal("mutating a loaded aggregate must not leak into the store")
	}
	if fresh.PackageFeePool != 0 {
		t.Fatalf("PackageFeePool = %v, want 0", fresh.PackageFeePool)
	}
}

func TestBookingRepositoryNotFound(t *testing.T) {
	repo := NewBookingRepository()
	if _, err := repo.ByID(context.Background(), "missing"); !errs.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestCancellationRepositoryListPending(t *testing.T) {
	repo := NewCancellationRepository()
	ctx := context.Background()

	pending := &domaincancel.Record{ID: "rec-1", BookingID: "bk-1", Raised: true}
	approved := &domaincancel.Record{ID: "rec-2", BookingID: "bk-1", Approved: true}
	rejected := &domaincancel.Record{ID: "rec-3", BookingID: "bk-2"}
	for _, r := range []*domaincancel.Record{pending, approved, rejected} {
		if err := repo.Save(ctx, r); err != nil {
			t.Fatalf("save %s: %v", r.ID, err)
		}
	}

	got, err := repo.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(got) != 1 || got[0].ID != "rec-1" {
		t.Fatalf("pending = %+v, want only rec-1", got)
	}

	byBooking, err := repo.ByBooking(ctx, "bk-1")
	if err != nil {
		t.Fatalf("ByBooking: %v", err)
	}
	if len(byBooking) != 2 {
		t.Fatalf("ByBooking = %d records, want 2", len(byBooking))
	}
}

func TestCancellationRepositoryVersionGuard(t *testing.T) {
	repo := NewCancellationRepository()
	ctx := context.Background()

	if err := repo.Save(ctx, &domaincancel.Record{ID: "rec-1", Raised: true}); err != nil {
		t.Fatalf("save: %v", err)
	}
	stale, err := repo.ByID(ctx, "rec-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	current, err := repo.ByID(ctx, "rec-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if err := repo.Save(ctx, current); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, stale); !errors.Is(err, ErrConcurrentUpdate) {
		t.Fatalf("stale save = %v, want ErrConcurrentUpdate", err)
	}
}
