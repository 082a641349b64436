package filter

import (
	"strings"

	"github.com/de-tools/wasteops/pkg/models/domain"
)

// Predicate decides whether a record belongs to the displayed set. A
// predicate whose required field is missing or malformed returns false.
type Predicate interface {
	Match(r domain.Record) bool
}

type dateEquals struct {
	field, value string
}

func (p dateEquals) Match(r domain.Record) bool {
	v, ok := r.String(p.field)
	return ok && v == p.value
}

type contains struct {
	field, needle string
}

func (p contains) Match(r domain.Record) bool {
	v, ok := r.String(p.field)
	return ok && strings.Contains(strings.ToLower(v), p.needle)
}

type equalFold struct {
	field, value string
}

func (p equalFold) Match(r domain.Record) bool {
	v, ok := r.String(p.field)
	return ok && strings.EqualFold(strings.TrimSpace(v), p.value)
}

type flagIs struct {
	field string
	want  bool
}

// flagValue reads a tracked flag. Missing, null and non-boolean values are false.
func flagValue(r domain.Record, field string) bool {
	v, _ := r.Bool(field)
	return v
}

func (p flagIs) Match(r domain.Record) bool {
	return flagValue(r, p.field) == p.want
}

// anyFalse matches when at least one tracked flag is not true.
type anyFalse struct {
	fields []string
}

func (p anyFalse) Match(r domain.Record) bool {
	for _, f := range p.fields {
		if !flagValue(r, f) {
			return true
		}
	}
	return false
}

// allFalse matches when no tracked flag is true.
type allFalse struct {
	fields []string
}

func (p allFalse) Match(r domain.Record) bool {
	for _, f := range p.fields {
		if flagValue(r, f) {
			return false
		}
	}
	return len(p.fields) > 0
}
