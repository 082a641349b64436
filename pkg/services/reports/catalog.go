package reports

import (
	"strings"

	"github.com/de-tools/wasteops/pkg/models/domain"
	"github.com/de-tools/wasteops/pkg/services/filter"
	"github.com/de-tools/wasteops/pkg/services/navctx"
	"github.com/de-tools/wasteops/pkg/store/client"
)

const (
	TripValidation     = "trip-validation"
	FuelValidation     = "fuel-validation"
	SkiplineValidation = "skipline-validation"
	DutyOnOff          = "duty-on-off"
	EmployeeSOP        = "employee-sop"
	DustbinValidation  = "dustbin-validation"
	DriverTripSummary  = "driver-trip-summary"
)

var imageFlags = []string{"image01_correct", "image02_correct", "image03_correct", "image04_correct"}

// Catalog returns the descriptors of every report the dashboard serves.
func Catalog() []Source {
	return []Source{
		{
			Name:        TripValidation,
			Title:       "Trip Validation Report",
			Route:       "/trip-validation-report",
			Endpoint:    "/mobile-api/trip-validation-reports/",
			Envelope:    client.EnvelopeReports,
			LocalKeys:   []string{"driver", "only_incorrect"},
			DefaultDate: Yesterday,
			Flags:       imageFlags,
			PhoneFields: []string{"driver_number"},
			Criteria: func(p Params) *filter.Criteria {
				return new(filter.Criteria).
					DateEquals("date", p.Get(navctx.ParamDate)).
					Contains("driver_name", p.Get("driver")).
					Contains("site_name", p.Get(navctx.ParamCity)).
					AnyFalse(p.Bool("only_incorrect"), imageFlags...)
			},
		},
		{
			Name:        FuelValidation,
			Title:       "Fuel Validation Report",
			Route:       "/fuel-validation-report",
			Endpoint:    "/mobile-api/fuel-validation-reports/",
			Envelope:    client.EnvelopeReports,
			LocalKeys:   []string{"site", "driver", "only_incorrect"},
			Upstream:    same(navctx.ParamDate, navctx.ParamCity, "site", "only_incorrect"),
			DefaultDate: NoDefaultDate,
			Flags:       []string{"amount_match", "volume_match"},
			PhoneFields: []string{"driver_number"},
			Criteria: func(p Params) *filter.Criteria {
				return new(filter.Criteria).
					Contains("site_name", p.Get("site")).
					Contains("driver_name", p.Get("driver")).
					AnyFalse(p.Bool("only_incorrect"), "amount_match", "volume_match")
			},
		},
		{
			Name:        SkiplineValidation,
			Title:       "Skip Lines Report",
			Route:       "/skipline-validation-report",
			Endpoint:    "/mobile-api/skipline-validation-reports/",
			Envelope:    client.EnvelopeReports,
			LocalKeys:   []string{"ward", "status", "driver", "only_skipped", "only_repeated"},
			Upstream:    same(navctx.ParamDate, navctx.ParamCity, "ward", "status", "driver", "only_skipped", "only_repeated"),
			DefaultDate: NoDefaultDate,
			PhoneFields: []string{"driver_details.mobile", "helper_details.mobile"},
			Criteria: func(p Params) *filter.Criteria {
				c := new(filter.Criteria).Equals("status", p.Get("status"))
				if p.Bool("only_skipped") {
					c.Equals("status", "skipped")
				}
				return c.FlagIs(p.Bool("only_repeated"), "repeated", true)
			},
		},
		{
			Name:        DutyOnOff,
			Title:       "Duty On/Off Report",
			Route:       "/duty-on-off-report",
			Endpoint:    "/mobile-api/duty-on-off-reports/",
			Envelope:    client.EnvelopeReports,
			LocalKeys:   []string{"zone", "driver", "vehicle", "compliance", "compliance_view", "flags"},
			Upstream:    same(navctx.ParamDate, navctx.ParamCity, "zone", "driver", "vehicle", "compliance"),
			DefaultDate: NoDefaultDate,
			Flags:       DutyFlags,
			PhoneFields: []string{"driver_mobile", "helper_mobile"},
			Criteria: func(p Params) *filter.Criteria {
				flags := p.List("flags")
				return SelectPolicy(flags).Apply(new(filter.Criteria), p.Get("compliance_view"), flags)
			},
		},
		{
			Name:        EmployeeSOP,
			Title:       "Employee SOP Report",
			Route:       "/transport-executive-login-validation",
			Endpoint:    "/mobile-api/employee-sop-reports/",
			Envelope:    client.EnvelopeReports,
			LocalKeys:   []string{"employee", "arrival", "departure", "time_mode", "only_violations"},
			Upstream:    same(navctx.ParamDate),
			DefaultDate: Yesterday,
			Flags:       []string{"is_sop_followed"},
			PhoneFields: []string{"mobile_number"},
			Criteria: func(p Params) *filter.Criteria {
				mode := filter.ParseTimeMode(p.Get("time_mode"))
				return new(filter.Criteria).
					DateEquals("date", p.Get(navctx.ParamDate)).
					Contains("employee_name", p.Get("employee")).
					Time("arrival_time", mode, p.Get("arrival")).
					Time("departure_time", mode, p.Get("departure")).
					FlagIs(p.Bool("only_violations"), "is_sop_followed", false)
			},
		},
		{
			Name:        DustbinValidation,
			Title:       "Dustbin Validation Report",
			Route:       "/dustbin-validation-report",
			Endpoint:    "/mobile-api/dustbin_validation_reports/",
			Envelope:    client.EnvelopeSuccess,
			LocalKeys:   []string{"plan", "driver", "only_incorrect"},
			Upstream:    same(navctx.ParamCity, navctx.ParamDate),
			DefaultDate: Yesterday,
			Requires:    []string{navctx.ParamCity},
			Flags:       imageFlags,
			PhoneFields: []string{"driver_mobile", "helper_mobile", "second_helper_mobile"},
			Criteria: func(p Params) *filter.Criteria {
				return new(filter.Criteria).
					Equals("city", p.Get(navctx.ParamCity)).
					Contains("plan_name", p.Get("plan")).
					Contains("driver_name", p.Get("driver")).
					AnyFalse(p.Bool("only_incorrect"), imageFlags...)
			},
			Groups: planStats,
		},
		{
			Name:      DriverTripSummary,
			Title:     "Driver Trip Summary",
			Route:     "/driver-trip-summary",
			Endpoint:  "/mobile-api/driver-trip-summary/",
			Envelope:  client.EnvelopeBare,
			LocalKeys: []string{"driver"},
			Upstream: []Mapping{
				{Param: navctx.ParamStartDate, Key: "start_date"},
				{Param: navctx.ParamEndDate, Key: "end_date"},
				{Param: navctx.ParamCity, Key: "city_name"},
			},
			Range:       true,
			DefaultDate: Today,
			Requires:    []string{navctx.ParamStartDate},
			PhoneFields: []string{"driver_number"},
			Criteria: func(p Params) *filter.Criteria {
				return new(filter.Criteria).Contains("driver_name", p.Get("driver"))
			},
		},
	}
}

// planStats keeps the zone_stats rows of the selected city, one per collection plan.
func planStats(meta map[string]any, p Params) []domain.GroupStat {
	rows, _ := meta["zone_stats"].([]any)
	city := p.Get(navctx.ParamCity)

	out := []domain.GroupStat{}
	for _, row := range rows {
		fields, ok := row.(map[string]any)
		if !ok {
			continue
		}
		r := domain.Record(fields)
		if c, ok := r.String("city"); !ok || !strings.EqualFold(strings.TrimSpace(c), city) {
			continue
		}
		name, _ := r.String("plan_name")
		out = append(out, domain.GroupStat{
			Name:      name,
			Incorrect: intField(r, "incorrect_count"),
			Total:     intField(r, "total_count"),
		})
	}
	return out
}

func intField(r domain.Record, field string) int {
	v, _ := r.Lookup(field)
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
