package naming

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Date Modified", "date_modified"},
		{"Record ID#", "record_id_nbr"},
		{"PO #", "po_nbr"},
		{"Parts & Labor", "parts_and_labor"},
		{"Rate ($/hr)", "rate_dollar_hr"},
		{"Approved?", "approved_q"},
		{"Ship @ Dock", "ship_at_dock"},
		{"5 Star Rating", "n5_star_rating"},
		{"  Cost   Centers  ", "cost_centers"},
		{"already_normal", "already_normal"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeCapsLength(t *testing.T) {
	long := strings.Repeat("a", 300)
	if got := Normalize(long); len(got) != 255 {
		t.Fatalf("expected 255 chars, got %d", len(got))
	}
}
