package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"24.99", 2499},
		{"5.99", 599},
		{"0", 0},
		{"10.005", 1001},
		{"10.004", 1000},
		{"0.015", 2},
		{"-10.005", -1001},
		{"1234.5", 123450},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := ToMinorUnits(decimal.RequireFromString(tc.in)); got != tc.want {
				t.Fatalf("ToMinorUnits(%s) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestFromMinorUnits(t *testing.T) {
	if got := FromMinorUnits(4998); !got.Equal(decimal.RequireFromString("49.98")) {
		t.Fatalf("expected 49.98, got %s", got)
	}
}
