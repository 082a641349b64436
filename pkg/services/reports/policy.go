package reports

import (
	"time"

	"github.com/de-tools/wasteops/pkg/models/domain"
	"github.com/de-tools/wasteops/pkg/services/filter"
)

// DefaultDate is the per-report choice of date used when nothing else provides one.
type DefaultDate int

const (
	NoDefaultDate DefaultDate = iota
	Today
	Yesterday
)

func (d DefaultDate) Value(now time.Time) string {
	switch d {
	case Today:
		return now.Format(domain.DateLayout)
	case Yesterday:
		return now.AddDate(0, 0, -1).Format(domain.DateLayout)
	default:
		return ""
	}
}

func (d DefaultDate) String() string {
	switch d {
	case Today:
		return "today"
	case Yesterday:
		return "yesterday"
	default:
		return "none"
	}
}

// DutyFlags are the uniform and vehicle checks of a duty on/off record.
var DutyFlags = []string{"hooter", "logo", "proper_uniform", "nagar_nigam"}

const (
	ComplianceAll          = "all"
	ComplianceNonCompliant = "non-compliant"
)

// CompliancePolicy decides which duty records count as non-compliant.
type CompliancePolicy string

const (
	// AllFlags flags a record when any duty flag is false.
	AllFlags CompliancePolicy = "all-flags"
	// PerFlag flags a record only when every selected flag is false.
	PerFlag CompliancePolicy = "per-flag"
)

// SelectPolicy picks PerFlag when the user ticked individual flags.
func SelectPolicy(selected []string) CompliancePolicy {
	if len(knownFlags(selected)) > 0 {
		return PerFlag
	}
	return AllFlags
}

// Apply adds the policy's predicate to c. In "all" view mode nothing is
// narrowed, whichever flags are selected.
func (p CompliancePolicy) Apply(c *filter.Criteria, view string, selected []string) *filter.Criteria {
	nonCompliant := view == ComplianceNonCompliant
	if p == PerFlag {
		if flags := knownFlags(selected); len(flags) > 0 {
			return c.AllFalse(nonCompliant, flags...)
		}
	}
	return c.AnyFalse(nonCompliant, DutyFlags...)
}

func knownFlags(selected []string) []string {
	var out []string
	for _, s := range selected {
		for _, f := range DutyFlags {
			if s == f {
				out = append(out, f)
				break
			}
		}
	}
	return out
}
