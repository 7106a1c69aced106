package cancellation

import (
	"testing"
	"time"

	"tourbook/internal/domain/booking"
	"tourbook/internal/domain/tour"
)

func testTour() *tour.Tour {
	return &tour.Tour{
		ID:   "tour-1",
		Name: "Himalayan Circuit",
		Pricing: tour.Pricing{
			Sharing: tour.SharingPrices{
				Double:            5000,
				Triple:            4500,
				ChildWithBerth:    3000,
				ChildWithoutBerth: 2500,
			},
			Advance: tour.AdvanceAmounts{Adult: 1000, Child: 500},
			Addons: []tour.Addon{
				{Name: "upper-deck", Price: 200},
			},
			LastBookingDate: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		},
		Variants: []tour.Variant{
			{
				Name: "short-leg",
				Pricing: tour.Pricing{
					Sharing:         tour.SharingPrices{Double: 3500, Triple: 3200},
					Advance:         tour.AdvanceAmounts{Adult: 800, Child: 400},
					LastBookingDate: time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
				},
			},
		},
	}
}

func TestAdvanceAmount(t *testing.T) {
	tr := testTour()
	cases := []struct {
		name      string
		traveller booking.Traveller
		want      float64
	}{
		{name: "adult main package", traveller: booking.Traveller{Age: 30, VariantIndex: tour.MainPackage}, want: 1000},
		{name: "child main package", traveller: booking.Traveller{Age: 8, VariantIndex: tour.MainPackage}, want: 500},
		{name: "age eleven is a child", traveller: booking.Traveller{Age: 11, VariantIndex: tour.MainPackage}, want: 500},
		{name: "age twelve is an adult", traveller: booking.Traveller{Age: 12, VariantIndex: tour.MainPackage}, want: 1000},
		{name: "adult on variant", traveller: booking.Traveller{Age: 30, VariantIndex: 0}, want: 800},
		{name: "missing variant yields zero", traveller: booking.Traveller{Age: 30, VariantIndex: 5}, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AdvanceAmount(tc.traveller, tr); got != tc.want {
				t.Fatalf("AdvanceAmount = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBaseSharingPrice(t *testing.T) {
	tr := testTour()
	cases := []struct {
		name      string
		traveller booking.Traveller
		want      float64
	}{
		{name: "double", traveller: booking.Traveller{Sharing: booking.SharingDouble, VariantIndex: tour.MainPackage}, want: 5000},
		{name: "triple", traveller: booking.Traveller{Sharing: booking.SharingTriple, VariantIndex: tour.MainPackage}, want: 4500},
		{name: "child with berth", traveller: booking.Traveller{Sharing: booking.SharingChildWithBerth, VariantIndex: tour.MainPackage}, want: 3000},
		{name: "child without berth", traveller: booking.Traveller{Sharing: booking.SharingChildWithoutBerth, VariantIndex: tour.MainPackage}, want: 2500},
		{name: "unknown sharing type", traveller: booking.Traveller{Sharing: "quad", VariantIndex: tour.MainPackage}, want: 0},
		{name: "variant pricing", traveller: booking.Traveller{Sharing: booking.SharingDouble, VariantIndex: 0}, want: 3500},
		{name: "missing variant yields zero", traveller: booking.Traveller{Sharing: booking.SharingDouble, VariantIndex: 3}, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BaseSharingPrice(tc.traveller, tr); got != tc.want {
				t.Fatalf("BaseSharingPrice = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFullPackageCost(t *testing.T) {
	tr := testTour()
	cases := []struct {
		name      string
		traveller booking.Traveller
		want      float64
	}{
		{
			name:      "base price only",
			traveller: booking.Traveller{Sharing: booking.SharingDouble, VariantIndex: tour.MainPackage},
			want:      5000,
		},
		{
			name:      "named addon included",
			traveller: booking.Traveller{Sharing: booking.SharingDouble, VariantIndex: tour.MainPackage, Addon: "upper-deck"},
			want:      5200,
		},
		{
			name:      "unknown addon costs nothing",
			traveller: booking.Traveller{Sharing: booking.SharingDouble, VariantIndex: tour.MainPackage, Addon: "spa"},
			want:      5000,
		},
		{
			name: "custom addons accumulate",
			traveller: booking.Traveller{
				Sharing:      booking.SharingDouble,
				VariantIndex: tour.MainPackage,
				Addon:        "upper-deck",
				CustomAddons: []booking.CustomAddon{{Name: "camera", Price: 300}, {Name: "guide", Price: 150.5}},
			},
			want: 5650.5,
		},
		{
			name:      "missing variant yields zero",
			traveller: booking.Traveller{Sharing: booking.SharingDouble, VariantIndex: 9, Addon: "upper-deck"},
			want:      0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FullPackageCost(tc.traveller, tr); got != tc.want {
				t.Fatalf("FullPackageCost = %v, want %v", got, tc.want)
			}
		})
	}
}
