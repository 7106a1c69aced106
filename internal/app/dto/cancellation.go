package dto

import (
	"time"

	domaincancel "tourbook/internal/domain/cancellation"
	domainfeetier "tourbook/internal/domain/feetier"
)

type CancellationRecord struct {
	ID                    string    `json:"id"`
	BookingID             string    `json:"booking_id"`
	TravellerIDs          []string  `json:"traveller_ids"`
	PackageFeeDeduction   float64   `json:"package_fee_deduction"`
	TransportFeeDeduction float64   `json:"transport_fee_deduction"`
	RemarksDeduction      float64   `json:"remarks_deduction"`
	PreBalanceAmount      float64   `json:"pre_balance_amount"`
	NetAmountPaid         float64   `json:"net_amount_paid"`
	TotalDeduction        float64   `json:"total_deduction"`
	UpdatedBalance        float64   `json:"updated_balance"`
	RefundAmount          float64   `json:"refund_amount"`
	PackageFeePool        float64   `json:"package_fee_pool"`
	TransportFeePool      float64   `json:"transport_fee_pool"`
	Remark                string    `json:"remark,omitempty"`
	Status                string    `json:"status"`
	RaisedAt              time.Time `json:"raised_at"`
	ResolvedAt            time.Time `json:"resolved_at,omitempty"`
}

func NewCancellationRecord(r *domaincancel.Record) CancellationRecord {
	return CancellationRecord{
		ID:                    r.ID,
		BookingID:             string(r.BookingID),
		TravellerIDs:          r.TravellerIDs,
		PackageFeeDeduction:   r.PackageFeeDeduction,
		TransportFeeDeduction: r.TransportFeeDeduction,
		RemarksDeduction:      r.RemarksDeduction,
		PreBalanceAmount:      r.PreBalanceAmount,
		NetAmountPaid:         r.NetAmountPaid,
		TotalDeduction:        r.TotalDeduction,
		UpdatedBalance:        r.UpdatedBalance,
		RefundAmount:          r.RefundAmount,
		PackageFeePool:        r.PackageFeePool,
		TransportFeePool:      r.TransportFeePool,
		Remark:                r.Remark,
		Status:                string(r.Status()),
		RaisedAt:              r.RaisedAt,
		ResolvedAt:            r.ResolvedAt,
	}
}

type CancellationRecordCollection struct {
	Items []CancellationRecord `json:"items"`
}

type FeeTier struct {
	FromDays int     `json:"from_days"`
	ToDays   *int    `json:"to_days,omitempty"`
	Percent  float64 `json:"percent"`
}

type FeeTierSchedule struct {
	AdvancePaid []FeeTier `json:"advance_paid"`
	FullyPaid   []FeeTier `json:"fully_paid"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewFeeTierSchedule(s *domainfeetier.Schedule) FeeTierSchedule {
	return FeeTierSchedule{
		AdvancePaid: newFeeTiers(s.AdvancePaid),
		FullyPaid:   newFeeTiers(s.FullyPaid),
		UpdatedAt:   s.UpdatedAt,
	}
}

func newFeeTiers(tiers []domainfeetier.Tier) []FeeTier {
	out := make([]FeeTier, len(tiers))
	for i, t := range tiers {
		out[i] = FeeTier{FromDays: t.FromDays, ToDays: t.ToDays, Percent: t.Percent}
	}
	return out
}
