package filter

import (
	"strconv"
	"strings"

	"github.com/de-tools/wasteops/pkg/models/domain"
)

// TimeMode selects how a record's time of day is compared to the filter value.
type TimeMode string

const (
	TimeExact  TimeMode = "exact"
	TimeBefore TimeMode = "before"
	TimeAfter  TimeMode = "after"
)

// ParseTimeMode defaults to exact for empty or unknown values.
func ParseTimeMode(s string) TimeMode {
	switch TimeMode(strings.ToLower(strings.TrimSpace(s))) {
	case TimeBefore:
		return TimeBefore
	case TimeAfter:
		return TimeAfter
	default:
		return TimeExact
	}
}

// Minutes converts "HH:MM" (optionally "HH:MM:SS") to minutes since midnight.
func Minutes(s string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	h, ok := clockPart(parts[0], 23)
	if !ok {
		return 0, false
	}
	m, ok := clockPart(parts[1], 59)
	if !ok {
		return 0, false
	}
	if len(parts) == 3 {
		if _, ok := clockPart(parts[2], 59); !ok {
			return 0, false
		}
	}
	return h*60 + m, true
}

// clockPart parses one or two digits no greater than limit. Signs and spaces are rejected.
func clockPart(s string, limit int) (int, bool) {
	if len(s) == 0 || len(s) > 2 {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n > limit {
		return 0, false
	}
	return n, true
}

type timeCompare struct {
	field  string
	mode   TimeMode
	target int
	valid  bool
}

func (p timeCompare) Match(r domain.Record) bool {
	if !p.valid {
		return false
	}
	raw, ok := r.String(p.field)
	if !ok {
		return false
	}
	got, ok := Minutes(raw)
	if !ok {
		return false
	}

	switch p.mode {
	case TimeBefore:
		return got < p.target
	case TimeAfter:
		return got > p.target
	default:
		return got == p.target
	}
}
