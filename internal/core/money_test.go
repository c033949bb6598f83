package core

import (
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.004", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"   ", 0, false},
		{"1e20", 0, false},
		{"1000000000", 100000000000, true},
		{"1000000000.01", 0, false},
		{"1000000000000000", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %d", tc.in, got.Cents)
		}
	}
}

func TestMoneyFormatting(t *testing.T) {
	cases := []struct {
		m     Money
		str   string
		whole string
	}{
		{Money{Cents: 1234}, "$12.34", "$12"},
		{Money{Cents: -500}, "-$5.00", "$5"},
		{Money{Cents: 0}, "$0.00", "$0"},
		{Money{Cents: 7}, "$0.07", "$0"},
		{Money{Cents: -1350}, "-$13.50", "$14"},
	}
	for _, tc := range cases {
		if got := tc.m.String(); got != tc.str {
			t.Fatalf("String(%d) = %q, want %q", tc.m.Cents, got, tc.str)
		}
		if got := tc.m.Whole(); got != tc.whole {
			t.Fatalf("Whole(%d) = %q, want %q", tc.m.Cents, got, tc.whole)
		}
	}
}

func TestMoneyFloatRoundTrip(t *testing.T) {
	for _, cents := range []int64{1, -1, 1234, -99999, 10} {
		m := Money{Cents: cents}
		if back := MoneyFromFloat(m.Float()); back != m {
			t.Fatalf("round trip of %d gave %d", cents, back.Cents)
		}
	}
}

func TestMoneyAddSaturates(t *testing.T) {
	big := Money{Cents: math.MaxInt64 - 10}
	if got := big.Add(Money{Cents: 100}); got.Cents != math.MaxInt64 {
		t.Fatalf("positive overflow = %d", got.Cents)
	}
	small := Money{Cents: math.MinInt64 + 10}
	if got := small.Add(Money{Cents: -100}); got.Cents != math.MinInt64 {
		t.Fatalf("negative overflow = %d", got.Cents)
	}
	if got := (Money{Cents: math.MinInt64}).String(); got[0] != '-' {
		t.Fatalf("minimum renders as %q", got)
	}
}

func TestTotalOfLargestEntriesStaysPositive(t *testing.T) {
	top, err := ParseAmount("1000000000")
	if err != nil {
		t.Fatal(err)
	}
	txs := make([]Transaction, 100)
	for i := range txs {
		txs[i] = Transaction{ID: int64(i + 1), Amount: top, Kind: Win}
	}
	if got := Total(txs).Cents; got != 100*top.Cents {
		t.Fatalf("total = %d, want %d", got, 100*top.Cents)
	}
	huge := append(txs, Transaction{ID: 101, Amount: MoneyFromFloat(1e30), Kind: Win})
	if got := Total(huge).Cents; got != math.MaxInt64 {
		t.Fatalf("total with stored huge amount = %d, want saturation", got)
	}
}
