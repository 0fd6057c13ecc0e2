// Package state tracks per-stream sync bookmarks. The host pipeline persists
// the final STATE message and feeds it back on the next run; this package
// never touches a file or store itself.
package state

import (
	"encoding/json"
	"time"
)

const dateLayout = "2006-01-02"

// State holds the high-watermark bookmark per stream. Bookmarks are
// day-granularity dates because the Quickbase query language cannot filter
// below one day.
type State struct {
	Bookmarks map[string]string `json:"bookmarks"`
}

func New() *State {
	return &State{Bookmarks: make(map[string]string)}
}

// Parse reads a persisted STATE value. Empty input yields a fresh state so
// a first run needs no state file.
func Parse(data []byte) (*State, error) {
	s := New()
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	if s.Bookmarks == nil {
		s.Bookmarks = make(map[string]string)
	}
	return s, nil
}

func (s *State) Get(stream string) (string, bool) {
	v, ok := s.Bookmarks[stream]
	return v, ok
}

// Advance moves a stream's bookmark forward to date, truncated to day
// granularity. The bookmark only ever moves forward: a smaller or malformed
// date leaves it untouched. Reports whether the bookmark changed.
func (s *State) Advance(stream, date string) bool {
	day := DateOnly(date)
	if day == "" {
		return false
	}

	// ISO dates order lexicographically, so a plain string compare is the
	// monotonicity check.
	if current, ok := s.Bookmarks[stream]; ok && current >= day {
		return false
	}
	s.Bookmarks[stream] = day
	return true
}

// DateOnly reduces a date or RFC 3339 timestamp to its calendar-day prefix.
// Returns "" when the value does not carry a valid date.
func DateOnly(value string) string {
	if len(value) < len(dateLayout) {
		return ""
	}
	day := value[:len(dateLayout)]
	if _, err := time.Parse(dateLayout, day); err != nil {
		return ""
	}
	return day
}
