package filter

import (
	"math"

	"github.com/de-tools/wasteops/pkg/models/domain"
)

// Summarize counts records and, for each tracked flag, how many records pass
// it. A record is failing when any tracked flag is false or missing.
func Summarize(records []domain.Record, flags ...string) domain.Summary {
	summary := domain.Summary{Total: len(records)}
	passed := make([]int, len(flags))
	failing := anyFalse{fields: flags}

	for _, r := range records {
		if len(flags) > 0 && failing.Match(r) {
			summary.Failing++
		}
		for i, f := range flags {
			if flagValue(r, f) {
				passed[i]++
			}
		}
	}

	for i, f := range flags {
		fs := domain.FlagSummary{Flag: f, Passed: passed[i]}
		if len(records) > 0 {
			fs.Rate = math.Round(float64(passed[i])/float64(len(records))*1000) / 10
		}
		summary.Flags = append(summary.Flags, fs)
	}
	return summary
}
