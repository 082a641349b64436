package adapters

import (
	"errors"

	"github.com/de-tools/wasteops/pkg/models/api"
	"github.com/de-tools/wasteops/pkg/models/domain"
	"github.com/de-tools/wasteops/pkg/services/reports"
	"github.com/de-tools/wasteops/pkg/store/client"
)

func MapSourceToApi(src reports.Source) api.Report {
	return api.Report{
		Name:        src.Name,
		Title:       src.Title,
		Route:       src.Route,
		DefaultDate: src.DefaultDate.String(),
		LocalParams: append([]string{}, src.LocalKeys...),
	}
}

func MapReportTypesDomainToApi(types []domain.ReportType) []api.ReportType {
	res := make([]api.ReportType, 0, len(types))
	for _, t := range types {
		res = append(res, api.ReportType{ID: t.ID, Name: t.Name, Route: t.Route})
	}
	return res
}

func MapSummaryDomainToApi(s domain.Summary) api.Summary {
	res := api.Summary{
		Total:   s.Total,
		Failing: s.Failing,
		Flags:   make([]api.FlagSummary, 0, len(s.Flags)),
	}
	for _, f := range s.Flags {
		res.Flags = append(res.Flags, api.FlagSummary{Flag: f.Flag, Passed: f.Passed, Rate: f.Rate})
	}
	return res
}

// MapErrorDomainToApi describes a fetch error; network and format failures can be retried.
func MapErrorDomainToApi(err error) *api.Error {
	if err == nil {
		return nil
	}
	return &api.Error{
		Message:   err.Error(),
		Retryable: errors.Is(err, client.ErrNetwork) || errors.Is(err, client.ErrResponseFormat),
	}
}

func MapReportViewDomainToApi(v domain.ReportView) api.ReportView {
	res := api.ReportView{
		Report:   v.Report,
		Title:    v.Title,
		Context:  MapSnapshotDomainToApi(v.Context),
		Params:   v.Params,
		Total:    v.Total,
		Count:    len(v.Records),
		Records:  make([]api.Record, 0, len(v.Records)),
		Stats:    map[string]any{},
		Summary:  MapSummaryDomainToApi(v.Summary),
		Location: v.Location,
		ShareURL: v.ShareURL,
		Error:    MapErrorDomainToApi(v.Err),
	}
	for i, r := range v.Records {
		rec := api.Record{Data: r}
		if i < len(v.CallLinks) && len(v.CallLinks[i]) > 0 {
			rec.CallLinks = v.CallLinks[i]
		}
		res.Records = append(res.Records, rec)
	}
	for k, val := range v.Stats {
		res.Stats[k] = val
	}
	for _, g := range v.Groups {
		res.Groups = append(res.Groups, api.GroupStat{Name: g.Name, Incorrect: g.Incorrect, Total: g.Total})
	}
	return res
}
