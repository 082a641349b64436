package adapters

import (
	"github.com/de-tools/wasteops/pkg/models/api"
	"github.com/de-tools/wasteops/pkg/models/domain"
)

func MapCityDomainToApi(c *domain.City) *api.City {
	if c.IsZero() {
		return nil
	}
	return &api.City{City: c.City, Name: c.Name}
}

func MapSnapshotDomainToApi(s domain.Snapshot) api.Context {
	return api.Context{
		City: MapCityDomainToApi(s.City),
		Date: s.Date,
		DateRange: api.DateRange{
			Start: s.DateRange.Start,
			End:   s.DateRange.End,
		},
	}
}

func MapCitiesDomainToApi(cities []domain.City) []api.City {
	res := make([]api.City, 0, len(cities))
	for _, c := range cities {
		res = append(res, api.City{City: c.City, Name: c.Name})
	}
	return res
}
