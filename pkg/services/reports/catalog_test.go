package reports

import (
	"net/url"
	"testing"
	"time"

	"github.com/de-tools/wasteops/pkg/models/domain"
	"github.com/de-tools/wasteops/pkg/services/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_DefaultDates(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)

	tests := []struct {
		report   string
		expected map[string]string
	}{
		{TripValidation, map[string]string{"date": "2024-02-29"}},
		{EmployeeSOP, map[string]string{"date": "2024-02-29"}},
		{DustbinValidation, map[string]string{"date": "2024-02-29"}},
		{FuelValidation, map[string]string{}},
		{SkiplineValidation, map[string]string{}},
		{DutyOnOff, map[string]string{}},
		{DriverTripSummary, map[string]string{"startDate": "2024-03-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.report, func(t *testing.T) {
			assert.Equal(t, tt.expected, mustSource(t, tt.report).Defaults(now))
		})
	}
}

func TestSource_UpstreamQuery(t *testing.T) {
	src := mustSource(t, DriverTripSummary)
	p := Params{"startDate": "2024-03-01", "endDate": "2024-03-07", "city": "Pune", "driver": "john"}

	assert.Equal(t, url.Values{
		"start_date": {"2024-03-01"},
		"end_date":   {"2024-03-07"},
		"city_name":  {"Pune"},
	}, src.UpstreamQuery(p))
	assert.True(t, src.Ready(p))
	assert.False(t, src.Ready(Params{"endDate": "2024-03-07"}))

	assert.Empty(t, mustSource(t, TripValidation).UpstreamQuery(p))
}

func TestSource_CallLinks(t *testing.T) {
	src := mustSource(t, SkiplineValidation)
	r := domain.Record{
		"driver_details": map[string]any{"name": "Ravi", "mobile": "+91 98765-43210"},
		"helper_details": map[string]any{"name": "Sunil", "mobile": "n/a"},
	}

	assert.Equal(t, map[string]string{"driver_details.mobile": "tel:+919876543210"}, src.CallLinks(r))
}

func TestCatalog_TripValidationCriteria(t *testing.T) {
	src := mustSource(t, TripValidation)
	records := []domain.Record{
		{"date": "2024-03-01", "driver_name": "John", "site_name": "Pune North", "image01_correct": true, "image02_correct": true, "image03_correct": true, "image04_correct": true},
		{"date": "2024-03-01", "driver_name": "Johnny", "site_name": "Pune South", "image01_correct": true, "image02_correct": false, "image03_correct": true, "image04_correct": true},
		{"date": "2024-03-02", "driver_name": "John", "site_name": "Pune North", "image01_correct": false},
		{"date": "2024-03-01", "driver_name": "John", "site_name": "Nagpur", "image01_correct": false},
	}

	got := src.Filter(records, Params{"date": "2024-03-01", "city": "pune", "driver": "JOHN", "only_incorrect": "true"})

	require.Len(t, got, 1)
	assert.Equal(t, "Johnny", got[0]["driver_name"])
}

func TestCatalog_EmployeeSOPCriteria(t *testing.T) {
	src := mustSource(t, EmployeeSOP)
	records := []domain.Record{
		{"date": "2024-03-01", "employee_name": "Asha", "arrival_time": "08:45", "is_sop_followed": true},
		{"date": "2024-03-01", "employee_name": "Meera", "arrival_time": "09:15", "is_sop_followed": false},
		{"date": "2024-03-01", "employee_name": "Kiran", "arrival_time": "", "is_sop_followed": false},
	}

	got := src.Filter(records, Params{"date": "2024-03-01", "arrival": "09:00", "time_mode": "after"})
	require.Len(t, got, 1)
	assert.Equal(t, "Meera", got[0]["employee_name"])

	got = src.Filter(records, Params{"date": "2024-03-01", "only_violations": "true"})
	assert.Len(t, got, 2)
}

func TestCompliancePolicies(t *testing.T) {
	records := []domain.Record{
		{"id": 0, "hooter": true, "logo": true, "proper_uniform": true, "nagar_nigam": true},
		{"id": 1, "hooter": false, "logo": true, "proper_uniform": true, "nagar_nigam": true},
		{"id": 2, "hooter": false, "logo": false, "proper_uniform": true, "nagar_nigam": true},
		{"id": 3, "hooter": true, "logo": false, "proper_uniform": false, "nagar_nigam": false},
	}
	ids := func(rs []domain.Record) []int {
		out := []int{}
		for _, r := range rs {
			out = append(out, r["id"].(int))
		}
		return out
	}
	src := mustSource(t, DutyOnOff)

	tests := []struct {
		name     string
		params   Params
		expected []int
	}{
		{"all mode", Params{"compliance_view": "all"}, []int{0, 1, 2, 3}},
		{"all mode ignores flags", Params{"compliance_view": "all", "flags": "hooter"}, []int{0, 1, 2, 3}},
		{"non-compliant any flag", Params{"compliance_view": "non-compliant"}, []int{1, 2, 3}},
		{"non-compliant hooter", Params{"compliance_view": "non-compliant", "flags": "hooter"}, []int{1, 2}},
		{"non-compliant every selected flag", Params{"compliance_view": "non-compliant", "flags": "hooter,logo"}, []int{2}},
		{"unknown flags fall back", Params{"compliance_view": "non-compliant", "flags": "siren"}, []int{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ids(src.Filter(records, tt.params)))
		})
	}

	assert.Equal(t, PerFlag, SelectPolicy([]string{"logo"}))
	assert.Equal(t, AllFlags, SelectPolicy(nil))
	assert.Equal(t, 1, AllFlags.Apply(new(filter.Criteria), ComplianceNonCompliant, nil).Len())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Source{Name: "a", Route: "/a", Endpoint: "/api/a/"}))

	assert.Error(t, r.Register(Source{Name: "", Endpoint: "/x/"}))
	assert.Error(t, r.Register(Source{Name: "b"}))
	assert.Error(t, r.Register(Source{Name: "a", Endpoint: "/api/a/"}))
	assert.Error(t, r.Register(Source{Name: "c", Route: "/a", Endpoint: "/api/c/"}))

	src, ok := r.ByRoute("/a")
	require.True(t, ok)
	assert.Equal(t, "a", src.Name)
	_, ok = r.ByRoute("/missing")
	assert.False(t, ok)

	def, err := NewDefaultRegistry()
	require.NoError(t, err)
	list := def.List()
	require.Len(t, list, 7)
	assert.Equal(t, DriverTripSummary, list[0].Name)
}

func TestRouteForType(t *testing.T) {
	assert.Equal(t, "/skipline-validation-report", RouteForType("Skip Lines Report"))
	assert.Equal(t, "/transport-executive-login-validation", RouteForType(" employee SOP report "))
	assert.Equal(t, "", RouteForType("Vehicle Tracking"))

	typed := WithRoutes([]domain.ReportType{{ID: 1.0, Name: "Fuel Validation Report"}, {ID: 2.0, Name: "Other"}})
	assert.Equal(t, "/fuel-validation-report", typed[0].Route)
	assert.Empty(t, typed[1].Route)
}

func TestCatalog_DustbinPlanStats(t *testing.T) {
	src := mustSource(t, DustbinValidation)
	meta := map[string]any{
		"zone_stats": []any{
			map[string]any{"city": "Pune", "plan_name": "Ward 4 Morning", "incorrect_count": 2.0, "total_count": 10.0},
			map[string]any{"city": "Nagpur", "plan_name": "Ward 1", "incorrect_count": 5.0, "total_count": 7.0},
			map[string]any{"city": "PUNE ", "plan_name": "Ward 9 Evening", "incorrect_count": 0.0, "total_count": 4.0},
			map[string]any{"plan_name": "No city", "incorrect_count": 1.0, "total_count": 1.0},
			"garbage",
		},
	}

	got := src.Breakdown(meta, Params{"city": "pune"})

	assert.Equal(t, []domain.GroupStat{
		{Name: "Ward 4 Morning", Incorrect: 2, Total: 10},
		{Name: "Ward 9 Evening", Incorrect: 0, Total: 4},
	}, got)

	assert.Empty(t, src.Breakdown(map[string]any{}, Params{"city": "pune"}))
	assert.Nil(t, mustSource(t, FuelValidation).Breakdown(meta, Params{"city": "pune"}))
}
