package feetier

import "testing"

func days(v int) *int { return &v }

func TestResolve(t *testing.T) {
	table := []Tier{
		{FromDays: 46, ToDays: days(60), Percent: 25},
		{FromDays: 31, ToDays: days(45), Percent: 50},
		{FromDays: 16, ToDays: days(30), Percent: 75},
		{FromDays: 0, ToDays: days(15), Percent: 100},
	}

	cases := []struct {
		name  string
		days  int
		table []Tier
		want  float64
	}{
		{name: "beyond free window", days: 61, table: table, want: 0},
		{name: "far beyond free window", days: 365, table: table, want: 0},
		{name: "upper bound of a tier", days: 60, table: table, want: 25},
		{name: "inside middle tier", days: 42, table: table, want: 50},
		{name: "lower bound of a tier", days: 16, table: table, want: 75},
		{name: "deadline day", days: 0, table: table, want: 100},
		{name: "empty table defaults to full deduction", days: 10, table: nil, want: 100},
		{
			name: "gap in table defaults to full deduction",
			days: 20,
			table: []Tier{
				{FromDays: 30, ToDays: days(60), Percent: 25},
			},
			want: 100,
		},
		{
			name: "open ended tier matches",
			days: 55,
			table: []Tier{
				{FromDays: 0, ToDays: days(15), Percent: 100},
				{FromDays: 16, Percent: 40},
			},
			want: 40,
		},
		{
			name: "first matching tier wins on overlap",
			days: 20,
			table: []Tier{
				{FromDays: 10, ToDays: days(30), Percent: 30},
				{FromDays: 15, ToDays: days(25), Percent: 80},
			},
			want: 30,
		},
		{
			name: "malformed tiers are skipped",
			days: 20,
			table: []Tier{
				{FromDays: -1, ToDays: days(30), Percent: 30},
				{FromDays: 25, ToDays: days(10), Percent: 40},
				{FromDays: 0, ToDays: days(60), Percent: 150},
				{FromDays: 0, ToDays: days(60), Percent: 55},
			},
			want: 55,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Resolve(tc.days, tc.table); got != tc.want {
				t.Fatalf("Resolve(%d) = %v, want %v", tc.days, got, tc.want)
			}
		})
	}
}

func TestTierValid(t *testing.T) {
	cases := []struct {
		name string
		tier Tier
		want bool
	}{
		{name: "closed range", tier: Tier{FromDays: 0, ToDays: days(15), Percent: 100}, want: true},
		{name: "open range", tier: Tier{FromDays: 16, Percent: 50}, want: true},
		{name: "negative from", tier: Tier{FromDays: -5, Percent: 50}, want: false},
		{name: "inverted range", tier: Tier{FromDays: 20, ToDays: days(10), Percent: 50}, want: false},
		{name: "percent above 100", tier: Tier{FromDays: 0, Percent: 101}, want: false},
		{name: "negative percent", tier: Tier{FromDays: 0, Percent: -1}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.tier.valid(); got != tc.want {
				t.Fatalf("valid() = %v, want %v", got, tc.want)
			}
		})
	}
}
