package money

import "testing"

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{in: 0, want: 0},
		{in: 10.004, want: 10},
		{in: 10.006, want: 10.01},
		{in: -10.006, want: -10.01},
		{in: 1234.5678, want: 1234.57},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.want {
			t.Errorf("Round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestClampNonNegative(t *testing.T) {
	if got := ClampNonNegative(-0.01); got != 0 {
		t.Errorf("ClampNonNegative(-0.01) = %v, want 0", got)
	}
	if got := ClampNonNegative(3.5); got != 3.5 {
		t.Errorf("ClampNonNegative(3.5) = %v, want 3.5", got)
	}
}

func TestAbs(t *testing.T) {
	if got := Abs(-2.25); got != 2.25 {
		t.Errorf("Abs(-2.25) = %v, want 2.25", got)
	}
	if got := Abs(2.25); got != 2.25 {
		t.Errorf("Abs(2.25) = %v, want 2.25", got)
	}
}
