package state

import (
	"encoding/json"
	"testing"
)

func TestAdvanceMovesForwardOnly(t *testing.T) {
	s := New()

	if !s.Advance("work_orders", "2024-01-05") {
		t.Fatal("first advance should apply")
	}
	if b, _ := s.Get("work_orders"); b != "2024-01-05" {
		t.Fatalf("bookmark = %q, want 2024-01-05", b)
	}

	if s.Advance("work_orders", "2024-01-03") {
		t.Error("advance backwards should be rejected")
	}
	if b, _ := s.Get("work_orders"); b != "2024-01-05" {
		t.Errorf("bookmark moved backwards to %q", b)
	}

	if !s.Advance("work_orders", "2024-01-07") {
		t.Error("advance forwards should apply")
	}
	if b, _ := s.Get("work_orders"); b != "2024-01-07" {
		t.Errorf("bookmark = %q, want 2024-01-07", b)
	}
}

func TestAdvanceTruncatesToDay(t *testing.T) {
	s := New()
	s.Advance("approvals", "2024-01-06T15:04:05Z")

	if b, _ := s.Get("approvals"); b != "2024-01-06" {
		t.Fatalf("bookmark = %q, want day-granularity 2024-01-06", b)
	}
}

func TestAdvanceRejectsMalformedDates(t *testing.T) {
	s := New()
	for _, bad := range []string{"", "yesterday", "2024-13-40", "2024"} {
		if s.Advance("approvals", bad) {
			t.Errorf("Advance(%q) should be rejected", bad)
		}
	}
	if _, ok := s.Get("approvals"); ok {
		t.Error("no bookmark should exist after rejected advances")
	}
}

func TestAdvanceSameDayIsNoop(t *testing.T) {
	s := New()
	s.Advance("approvals", "2024-01-05")
	if s.Advance("approvals", "2024-01-05") {
		t.Error("advancing to the same day should report no change")
	}
}

func TestParseRoundTrip(t *testing.T) {
	s := New()
	s.Advance("a", "2024-01-05")
	s.Advance("b", "2024-02-01")

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if b, _ := parsed.Get("a"); b != "2024-01-05" {
		t.Errorf("bookmark a = %q", b)
	}
	if b, _ := parsed.Get("b"); b != "2024-02-01" {
		t.Errorf("bookmark b = %q", b)
	}
}

func TestParseEmpty(t *testing.T) {
	s, err := Parse(nil)
	if err != nil {
		t.Fatalf("parse empty: %v", err)
	}
	if s.Bookmarks == nil {
		t.Fatal("bookmarks map should be initialized")
	}

	s, err = Parse([]byte(`{}`))
	if err != nil {
		t.Fatalf("parse {}: %v", err)
	}
	if !s.Advance("x", "2024-01-01") {
		t.Fatal("state parsed from {} should accept bookmarks")
	}
}

func TestDateOnly(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2024-01-06", "2024-01-06"},
		{"2024-01-06T15:04:05Z", "2024-01-06"},
		{"2024-01-06 15:04:05", "2024-01-06"},
		{"garbage-in", ""},
		{"", ""},
		{"2024-1-6", ""},
	}
	for _, tc := range cases {
		if got := DateOnly(tc.in); got != tc.want {
			t.Errorf("DateOnly(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
