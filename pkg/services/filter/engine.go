package filter

import (
	"strings"

	"github.com/de-tools/wasteops/pkg/models/domain"
)

// Criteria is the set of active predicates of a view. Its zero value matches
// every record.
type Criteria struct {
	predicates []Predicate
}

// Len returns the number of active predicates.
func (c *Criteria) Len() int {
	return len(c.predicates)
}

// Add appends p when it is non-nil.
func (c *Criteria) Add(p Predicate) *Criteria {
	if p != nil {
		c.predicates = append(c.predicates, p)
	}
	return c
}

// DateEquals keeps records whose field equals date exactly. Inactive when date is empty.
func (c *Criteria) DateEquals(field, date string) *Criteria {
	if date = strings.TrimSpace(date); date == "" {
		return c
	}
	return c.Add(dateEquals{field: field, value: date})
}

// Contains keeps records whose field contains needle, ignoring case. Inactive when needle is empty.
func (c *Criteria) Contains(field, needle string) *Criteria {
	if needle = strings.TrimSpace(needle); needle == "" {
		return c
	}
	return c.Add(contains{field: field, needle: strings.ToLower(needle)})
}

// Equals keeps records whose field equals value, ignoring case. Inactive when value is empty.
func (c *Criteria) Equals(field, value string) *Criteria {
	if value = strings.TrimSpace(value); value == "" {
		return c
	}
	return c.Add(equalFold{field: field, value: value})
}

// Time keeps records whose time of day compares to value according to mode.
// Inactive when value is empty; an unparseable value excludes every record.
func (c *Criteria) Time(field string, mode TimeMode, value string) *Criteria {
	if value = strings.TrimSpace(value); value == "" {
		return c
	}
	target, ok := Minutes(value)
	return c.Add(timeCompare{field: field, mode: mode, target: target, valid: ok})
}

// FlagIs keeps records whose boolean field equals want. Inactive unless enabled.
func (c *Criteria) FlagIs(enabled bool, field string, want bool) *Criteria {
	if !enabled {
		return c
	}
	return c.Add(flagIs{field: field, want: want})
}

// AnyFalse keeps records where at least one of fields is false. Inactive unless enabled.
func (c *Criteria) AnyFalse(enabled bool, fields ...string) *Criteria {
	if !enabled || len(fields) == 0 {
		return c
	}
	return c.Add(anyFalse{fields: append([]string(nil), fields...)})
}

// AllFalse keeps records where every one of fields is false. Inactive unless enabled.
func (c *Criteria) AllFalse(enabled bool, fields ...string) *Criteria {
	if !enabled || len(fields) == 0 {
		return c
	}
	return c.Add(allFalse{fields: append([]string(nil), fields...)})
}

// Match reports whether r satisfies every active predicate.
func (c *Criteria) Match(r domain.Record) bool {
	for _, p := range c.predicates {
		if !p.Match(r) {
			return false
		}
	}
	return true
}

// Apply returns the records matching every active predicate, in input order.
// The input slice is never modified.
func Apply(records []domain.Record, c *Criteria) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if c == nil || c.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
