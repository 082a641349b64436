package domain

import "strings"

// Record is one row of report data as returned by the report API. Fields are
// untyped; each report declares which keys it knows about. Field names may
// use dots to reach into nested objects, e.g. "driver_details.mobile".
type Record map[string]any

// Lookup resolves a possibly dotted field name.
func (r Record) Lookup(field string) (any, bool) {
	var cur any = map[string]any(r)
	for _, part := range strings.Split(field, ".") {
		var m map[string]any
		switch v := cur.(type) {
		case map[string]any:
			m = v
		case Record:
			m = v
		default:
			return nil, false
		}
		next, ok := m[part]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, cur != nil
}

// String returns the field as a string and whether it was present as one.
func (r Record) String(field string) (string, bool) {
	v, ok := r.Lookup(field)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Bool returns the field as a boolean and whether it held a boolean value.
func (r Record) Bool(field string) (bool, bool) {
	v, ok := r.Lookup(field)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}
