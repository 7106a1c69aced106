package cancellation

import (
	"time"

	"tourbook/internal/domain/booking"
)

type CancellationRaised struct {
	RecordID       string
	BookingID      booking.BookingID
	TravellerIDs   []string
	TotalDeduction float64
	UpdatedBalance float64
	RefundAmount   float64
	At             time.Time
}

func (e CancellationRaised) EventName() string     { return "cancellation.raised" }
func (e CancellationRaised) AggregateID() string   { return e.RecordID }
func (e CancellationRaised) OccurredAt() time.Time { return e.At }

type CancellationApproved struct {
	RecordID         string
	BookingID        booking.BookingID
	TravellerIDs     []string
	UpdatedBalance   float64
	RefundAmount     float64
	PackageFeePool   float64
	TransportFeePool float64
	At               time.Time
}

func (e CancellationApproved) EventName() string     { return "cancellation.approved" }
func (e CancellationApproved) AggregateID() string   { return e.RecordID }
func (e CancellationApproved) OccurredAt() time.Time { return e.At }

type CancellationRejected struct {
	RecordID  string
	BookingID booking.BookingID
	At        time.Time
}

func (e CancellationRejected) EventName() string     { return "cancellation.rejected" }
func (e CancellationRejected) AggregateID() string   { return e.RecordID }
func (e CancellationRejected) OccurredAt() time.Time { return e.At }
