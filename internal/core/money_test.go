package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{" 2.50 ", "2.5", true},
		{"1.234,56", "1234.56", true},
		{"1,234.56", "1234.56", true},
		{"R$ 12,50", "12.5", true},
		{"-1", "-1", true},
		{"abc", "0", false},
		{"1.2.3", "0", false},
		{"", "0", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestAmountOrZero(t *testing.T) {
	if got := AmountOrZero("abc"); !got.IsZero() {
		t.Fatalf("expected zero for malformed amount, got %s", got)
	}
	if got := (Entry{Amount: "10,5"}).Value(); got.String() != "10.5" {
		t.Fatalf("expected 10.5, got %s", got)
	}
	for _, in := range []string{"-10", "-1.234,56", "R$ -5"} {
		if got := (Entry{Amount: in}).Value(); !got.IsZero() {
			t.Errorf("Value(%q) = %s, want 0 for a negative stored amount", in, got)
		}
	}
}
