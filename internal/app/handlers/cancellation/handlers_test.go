package cancellation

import (
	"context"
	"testing"
	"time"

	appoutbox "tourbook/internal/app/outbox"
	domainbooking "tourbook/internal/domain/booking"
	domaincancel "tourbook/internal/domain/cancellation"
	"tourbook/internal/domain/errs"
	domainfeetier "tourbook/internal/domain/feetier"
	domaintour "tourbook/internal/domain/tour"
	"tourbook/internal/infra/storage/memory"
)

var (
	fixedNow    = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	cancelledAt = time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)
)

type testEnv struct {
	factory  memory.Factory
	bookings *memory.BookingRepository
	records  *memory.CancellationRepository
	outbox   *memory.Outbox
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		bookings: memory.NewBookingRepository(),
		records:  memory.NewCancellationRepository(),
		outbox:   memory.NewOutbox(),
	}
	tours := memory.NewTourRepository()
	feeTiers := memory.NewFeeTierRepository()
	env.factory = memory.Factory{
		BookingRepo:      env.bookings,
		TourRepo:         tours,
		FeeTierRepo:      feeTiers,
		CancellationRepo: env.records,
	}

	ctx := context.Background()
	if err := tours.Save(ctx, fixtureTour()); err != nil {
		t.Fatalf("seed tour: %v", err)
	}
	days := func(v int) *int { return &v }
	table := []domainfeetier.Tier{
		{FromDays: 46, ToDays: days(60), Percent: 25},
		{FromDays: 31, ToDays: days(45), Percent: 50},
		{FromDays: 16, ToDays: days(30), Percent: 75},
		{FromDays: 0, ToDays: days(15), Percent: 100},
	}
	err := feeTiers.Upsert(ctx, &domainfeetier.Schedule{
		ID:          domainfeetier.ScheduleID,
		AdvancePaid: table,
		FullyPaid:   table,
		UpdatedAt:   fixedNow,
	})
	if err != nil {
		t.Fatalf("seed schedule: %v", err)
	}
	return env
}

func fixtureTour() *domaintour.Tour {
	return &domaintour.Tour{
		ID:   "tour-1",
		Name: "Himalayan Circuit",
		Pricing: domaintour.Pricing{
			Sharing: domaintour.SharingPrices{
				Double:            5000,
				Triple:            4500,
				ChildWithBerth:    3000,
				ChildWithoutBerth: 2500,
			},
			Advance:         domaintour.AdvanceAmounts{Adult: 1000, Child: 500},
			LastBookingDate: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

// fixtureBooking has an adult and a child, the advance paid and the balance
// outstanding.
func (e *testEnv) fixtureBooking(t *testing.T) *domainbooking.Booking {
	t.Helper()
	b := &domainbooking.Booking{
		ID:     "bk-1",
		TourID: "tour-1",
		Travellers: []domainbooking.Traveller{
			{ID: "t1", Name: "Asha", Age: 34, Sharing: domainbooking.SharingDouble, VariantIndex: domaintour.MainPackage},
			{ID: "t2", Name: "Kiran", Age: 8, Sharing: domainbooking.SharingChildWithBerth, VariantIndex: domaintour.MainPackage},
		},
		Payment: domainbooking.Payment{
			Advance: domainbooking.PaymentLeg{Amount: 1500, Paid: true, Verified: true},
			Balance: domainbooking.PaymentLeg{Amount: 8000},
		},
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
	}
	if err := e.bookings.Save(context.Background(), b); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return b
}

func (e *testEnv) raiseHandler() *RaiseCancellationHandler {
	return &RaiseCancellationHandler{
		UoWFactory: e.factory,
		Outbox:     e.outbox,
		Encoder:    appoutbox.JSONEventEncoder{},
		Clock:      func() time.Time { return fixedNow },
	}
}

func (e *testEnv) approveHandler() *ApproveCancellationHandler {
	return &ApproveCancellationHandler{
		UoWFactory: e.factory,
		Outbox:     e.outbox,
		Encoder:    appoutbox.JSONEventEncoder{},
		Clock:      func() time.Time { return fixedNow },
	}
}

func (e *testEnv) rejectHandler() *RejectCancellationHandler {
	return &RejectCancellationHandler{
		UoWFactory: e.factory,
		Outbox:     e.outbox,
		Encoder:    appoutbox.JSONEventEncoder{},
		Clock:      func() time.Time { return fixedNow },
	}
}

func (e *testEnv) raise(t *testing.T, recordID string, travellerIDs ...string) *RaiseCancellationResult {
	t.Helper()
	res, err := e.raiseHandler().Handle(context.Background(), RaiseCancellationCommand{
		CommandID:    recordID,
		BookingID:    "bk-1",
		TravellerIDs: travellerIDs,
		CancelledAt:  cancelledAt,
	})
	if err != nil {
		t.Fatalf("raise: %v", err)
	}
	return res
}

func TestRaiseCancellation(t *testing.T) {
	env := newTestEnv(t)
	env.fixtureBooking(t)

	res := env.raise(t, "rec-1", "t2")

	// child advance 500 at the 50 percent tier, remaining adult's package
	// cost rebuilt into the balance
	if res.Record.PackageFeeDeduction != 250 {
		t.Fatalf("PackageFeeDeduction = %v, want 250", res.Record.PackageFeeDeduction)
	}
	if res.Record.UpdatedBalance != 3750 {
		t.Fatalf("UpdatedBalance = %v, want 3750", res.Record.UpdatedBalance)
	}
	if res.Record.Status != string(domaincancel.StatusPending) {
		t.Fatalf("Status = %s, want PENDING", res.Record.Status)
	}

	ctx := context.Background()
	stored, err := env.records.ByID(ctx, "rec-1")
	if err != nil {
		t.Fatalf("record not persisted: %v", err)
	}
	if stored.Status() != domaincancel.StatusPending {
		t.Fatalf("stored status = %v, want pending", stored.Status())
	}

	b, err := env.bookings.ByID(ctx, "bk-1")
	if err != nil {
		t.Fatalf("booking: %v", err)
	}
	if !b.CancellationRequested {
		t.Fatal("booking should carry the pending-cancellation flag")
	}
	trav, _ := b.TravellerByID("t2")
	if !trav.Cancellation.RequestedByTraveller || trav.Cancellation.ConfirmedByAdmin {
		t.Fatalf("traveller flags = %+v, want requested and unconfirmed", trav.Cancellation)
	}
	// raising must not move money or pools
	if b.Payment.Balance.Amount != 8000 {
		t.Fatalf("balance = %v, want 8000", b.Payment.Balance.Amount)
	}
	if b.PackageFeePool != 0 || b.TransportFeePool != 0 {
		t.Fatalf("pools = %v/%v, want 0/0", b.PackageFeePool, b.TransportFeePool)
	}

	events := env.outbox.Records()
	if len(events) != 1 || events[0].Name != "cancellation.raised" {
		t.Fatalf("outbox = %+v, want one cancellation.raised", events)
	}
}

func TestRaiseUnknownTravellerLeavesBookingUntouched(t *testing.T) {
	env := newTestEnv(t)
	env.fixtureBooking(t)

	_, err := env.raiseHandler().Handle(context.Background(), RaiseCancellationCommand{
		CommandID:    "rec-1",
		BookingID:    "bk-1",
		TravellerIDs: []string{"ghost"},
		CancelledAt:  cancelledAt,
	})
	if !errs.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	ctx := context.Background()
	b, _ := env.bookings.ByID(ctx, "bk-1")
	if b.CancellationRequested {
		t.Fatal("failed raise must not flag the booking")
	}
	records, _ := env.records.ByBooking(ctx, "bk-1")
	if len(records) != 0 {
		t.Fatalf("records = %d, want none", len(records))
	}
	if len(env.outbox.Records()) != 0 {
		t.Fatal("failed raise must not emit events")
	}
}

func TestRaiseWithoutScheduleFails(t *testing.T) {
	env := newTestEnv(t)
	env.fixtureBooking(t)
	env.factory.FeeTierRepo = memory.NewFeeTierRepository()

	_, err := env.raiseHandler().Handle(context.Background(), RaiseCancellationCommand{
		CommandID:    "rec-1",
		BookingID:    "bk-1",
		TravellerIDs: []string{"t2"},
		CancelledAt:  cancelledAt,
	})
	if !errs.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestApproveCancellation(t *testing.T) {
	env := newTestEnv(t)
	env.fixtureBooking(t)
	env.raise(t, "rec-1", "t2")

	res, err := env.approveHandler().Handle(context.Background(), ApproveCancellationCommand{
		BookingID:    "bk-1",
		TravellerIDs: []string{"t2"},
	})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if res.UpdatedBalance != 3750 {
		t.Fatalf("UpdatedBalance = %v, want 3750", res.UpdatedBalance)
	}
	if res.PackageFeePool != 250 || res.TransportFeePool != 0 {
		t.Fatalf("pools = %v/%v, want 250/0", res.PackageFeePool, res.TransportFeePool)
	}

	ctx := context.Background()
	b, _ := env.bookings.ByID(ctx, "bk-1")
	if b.Payment.Balance.Amount != 3750 {
		t.Fatalf("balance = %v, want 3750", b.Payment.Balance.Amount)
	}
	if b.PackageFeePool != 250 {
		t.Fatalf("PackageFeePool = %v, want 250", b.PackageFeePool)
	}
	if b.CancellationRequested {
		t.Fatal("approval should clear the pending-cancellation flag")
	}
	trav, _ := b.TravellerByID("t2")
	if !trav.FullyCancelled() {
		t.Fatal("traveller should be fully cancelled")
	}

	record, _ := env.records.ByID(ctx, "rec-1")
	if record.Status() != domaincancel.StatusApproved {
		t.Fatalf("record status = %v, want approved", record.Status())
	}
	if record.PackageFeePool != 250 {
		t.Fatalf("record pool snapshot = %v, want 250", record.PackageFeePool)
	}

	events := env.outbox.Records()
	if len(events) != 2 || events[1].Name != "cancellation.approved" {
		t.Fatalf("outbox = %+v, want raised then approved", events)
	}
}

// A follow-up cancellation on the same booking folds the accumulated pools
// into its own deductions.
func TestApproveThenRaiseFoldsPoolsIn(t *testing.T) {
	env := newTestEnv(t)
	env.fixtureBooking(t)
	env.raise(t, "rec-1", "t2")
	if _, err := env.approveHandler().Handle(context.Background(), ApproveCancellationCommand{
		BookingID:    "bk-1",
		TravellerIDs: []string{"t2"},
	}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	res := env.raise(t, "rec-2", "t1")

	// adult advance 1000 at 50 percent plus the 250 package pool
	if res.Record.PackageFeeDeduction != 750 {
		t.Fatalf("PackageFeeDeduction = %v, want 750", res.Record.PackageFeeDeduction)
	}
	if res.Record.UpdatedBalance != 0 {
		t.Fatalf("UpdatedBalance = %v, want 0", res.Record.UpdatedBalance)
	}
	if res.Record.RefundAmount != 750 {
		t.Fatalf("RefundAmount = %v, want 750", res.Record.RefundAmount)
	}
}

func TestApproveWithoutRequest(t *testing.T) {
	env := newTestEnv(t)
	env.fixtureBooking(t)

	_, err := env.approveHandler().Handle(context.Background(), ApproveCancellationCommand{
		BookingID:    "bk-1",
		TravellerIDs: []string{"t2"},
	})
	if !errs.IsPrecondition(err) {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestApproveSubsetOfRaisedSet(t *testing.T) {
	env := newTestEnv(t)
	env.fixtureBooking(t)
	env.raise(t, "rec-1", "t1", "t2")

	// the record covers both travellers; approving only one matches nothing
	_, err := env.approveHandler().Handle(context.Background(), ApproveCancellationCommand{
		BookingID:    "bk-1",
		TravellerIDs: []string{"t1"},
	})
	if !errs.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestApproveAfterRejectConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.fixtureBooking(t)
	env.raise(t, "rec-1", "t2")
	if _, err := env.rejectHandler().Handle(context.Background(), RejectCancellationCommand{
		BookingID:    "bk-1",
		RecordID:     "rec-1",
		TravellerIDs: []string{"t2"},
	}); err != nil {
		t.Fatalf("reject: %v", err)
	}

	_, err := env.approveHandler().Handle(context.Background(), ApproveCancellationCommand{
		BookingID:    "bk-1",
		TravellerIDs: []string{"t2"},
	})
	if !errs.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRejectCancellation(t *testing.T) {
	env := newTestEnv(t)
	env.fixtureBooking(t)
	env.raise(t, "rec-1", "t2")

	res, err := env.rejectHandler().Handle(context.Background(), RejectCancellationCommand{
		BookingID:    "bk-1",
		RecordID:     "rec-1",
		TravellerIDs: []string{"t2"},
	})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if !res.RejectedAt.Equal(fixedNow) {
		t.Fatalf("RejectedAt = %v, want %v", res.RejectedAt, fixedNow)
	}

	ctx := context.Background()
	record, _ := env.records.ByID(ctx, "rec-1")
	if record.Status() != domaincancel.StatusRejected {
		t.Fatalf("record status = %v, want rejected", record.Status())
	}

	// rejection leaves the booking exactly as the raise left it
	b, _ := env.bookings.ByID(ctx, "bk-1")
	if b.Payment.Balance.Amount != 8000 {
		t.Fatalf("balance = %v, want 8000", b.Payment.Balance.Amount)
	}
	if b.PackageFeePool != 0 {
		t.Fatalf("PackageFeePool = %v, want 0", b.PackageFeePool)
	}

	_, err = env.rejectHandler().Handle(context.Background(), RejectCancellationCommand{
		BookingID:    "bk-1",
		RecordID:     "rec-1",
		TravellerIDs: []string{"t2"},
	})
	if !errs.IsConflict(err) {
		t.Fatalf("second rejection should conflict, got %v", err)
	}
}

func TestRejectValidation(t *testing.T) {
	env := newTestEnv(t)
	env.fixtureBooking(t)
	env.raise(t, "rec-1", "t2")

	cases := []struct {
		name  string
		cmd   RejectCancellationCommand
		check func(error) bool
	}{
		{
			name:  "unknown record",
			cmd:   RejectCancellationCommand{BookingID: "bk-1", RecordID: "nope", TravellerIDs: []string{"t2"}},
			check: errs.IsNotFound,
		},
		{
			name:  "wrong booking",
			cmd:   RejectCancellationCommand{BookingID: "bk-2", RecordID: "rec-1", TravellerIDs: []string{"t2"}},
			check: errs.IsPrecondition,
		},
		{
			name:  "foreign traveller",
			cmd:   RejectCancellationCommand{BookingID: "bk-1", RecordID: "rec-1", TravellerIDs: []string{"t1"}},
			check: errs.IsPrecondition,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.rejectHandler().Handle(context.Background(), tc.cmd)
			if err == nil || !tc.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestListPending(t *testing.T) {
	env := newTestEnv(t)
	env.fixtureBooking(t)
	env.raise(t, "rec-1", "t2")

	handler := &ListPendingHandler{UoWFactory: env.factory}

	res, err := handler.Handle(context.Background(), ListPendingQuery{})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].ID != "rec-1" {
		t.Fatalf("items = %+v, want rec-1", res.Items)
	}

	if _, err := env.approveHandler().Handle(context.Background(), ApproveCancellationCommand{
		BookingID:    "bk-1",
		TravellerIDs: []string{"t2"},
	}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	res, err = handler.Handle(context.Background(), ListPendingQuery{})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(res.Items) != 0 {
		t.Fatalf("items = %+v, want none after approval", res.Items)
	}
}
