package core

import "testing"

func TestRound2(t *testing.T) {
	cases := []struct {
		in  float64
		out float64
	}{
		{1.005, 1.01},
		{0.1 + 0.2, 0.3},
		{12.5, 12.5},
		{0, 0},
		{19.999, 20},
		{3.004, 3},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.out {
			t.Fatalf("Round2(%v) expected %v, got %v", tc.in, tc.out, got)
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"3.00", 3, true},
		{"£12.50", 12.5, true},
		{" 7,50 ", 7.5, true},
		{"1,234.56", 1234.56, true},
		{"-2", -2, true},
		{"N/A", 0, false},
		{"", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseAmount(tc.in)
		if ok != tc.ok {
			t.Fatalf("%q expected ok=%v, got %v", tc.in, tc.ok, ok)
		}
		if tc.ok && got != tc.out {
			t.Fatalf("%q expected %v, got %v", tc.in, tc.out, got)
		}
	}
}
