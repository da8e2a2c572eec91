package core

import (
	"errors"
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
		{"1000.0", 100000, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0", 0, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"R$ 150,00", 15000, true},
		{"1.234,56", 123456, true},
		{"1,234.56", 123456, true},
		{"-1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseAmountNegative(t *testing.T) {
	if _, err := ParseAmount("-10"); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestMoneyFormatting(t *testing.T) {
	cases := []struct {
		m    Money
		want string
		brl  string
	}{
		{Money{Cents: 0}, "0.00", "R$ 0.00"},
		{Money{Cents: 85000}, "850.00", "R$ 850.00"},
		{Money{Cents: 5}, "0.05", "R$ 0.05"},
		{Money{Cents: -1250}, "-12.50", "R$ -12.50"},
	}
	for _, tc := range cases {
		if got := tc.m.String(); got != tc.want {
			t.Fatalf("String(%d) = %q, want %q", tc.m.Cents, got, tc.want)
		}
		if got := tc.m.BRL(); got != tc.brl {
			t.Fatalf("BRL(%d) = %q, want %q", tc.m.Cents, got, tc.brl)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 100000}
	b := Money{Cents: 15000}
	if got := a.Sub(b); got.Cents != 85000 {
		t.Fatalf("sub: got %d", got.Cents)
	}
	if got := a.Add(b); got.Cents != 115000 {
		t.Fatalf("add: got %d", got.Cents)
	}
	if a.Float() != 1000 {
		t.Fatalf("float: got %v", a.Float())
	}
}
