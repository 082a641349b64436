package navctx

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/de-tools/wasteops/pkg/models/domain"
	"github.com/de-tools/wasteops/pkg/store/kv"
	"github.com/rs/zerolog"
)

// Storage keys of the persisted context fields.
const (
	KeyCity      = "selectedCity"
	KeyDate      = "selectedDate"
	KeyDateRange = "dateRange"
)

// URL query parameters carrying the shared context.
const (
	ParamCity      = "city"
	ParamDate      = "date"
	ParamStartDate = "startDate"
	ParamEndDate   = "endDate"
)

// GlobalParams lists the query keys owned by the shared context.
var GlobalParams = []string{ParamCity, ParamDate, ParamStartDate, ParamEndDate}

// Context is the shared navigation context of one session: selected city,
// selected date and date range. Every setter writes through to storage.
type Context struct {
	city      *field[*domain.City]
	date      *field[string]
	dateRange *field[domain.DateRange]
}

func New(storage kv.Storage) *Context {
	return &Context{
		city:      newField(KeyCity, storage, func(c *domain.City) bool { return c.IsZero() }),
		date:      newField(KeyDate, storage, func(d string) bool { return d == "" }),
		dateRange: newField(KeyDateRange, storage, func(r domain.DateRange) bool { return r.IsZero() }),
	}
}

// Initialize seeds every field: a non-empty URL parameter wins and is written
// through to storage, otherwise the stored value is used, otherwise the field
// stays empty.
func (c *Context) Initialize(ctx context.Context, query url.Values) {
	logger := zerolog.Ctx(ctx)

	city := strings.TrimSpace(query.Get(ParamCity))
	c.city.initialize(ctx, &domain.City{City: city, Name: city}, city != "")

	date := strings.TrimSpace(query.Get(ParamDate))
	validDate := date != "" && domain.IsDate(date)
	if date != "" && !validDate {
		logger.Warn().Str("date", date).Msg("ignoring malformed date parameter")
	}
	c.date.initialize(ctx, date, validDate)

	// a one-sided URL range keeps the other side of the stored range
	start := strings.TrimSpace(query.Get(ParamStartDate))
	end := strings.TrimSpace(query.Get(ParamEndDate))
	fromURL := start != "" || end != ""
	var r domain.DateRange
	if fromURL {
		r, _ = c.dateRange.load(ctx)
		if start != "" {
			r.Start = start
		}
		if end != "" {
			r.End = end
		}
	}
	validRange := fromURL && r.Validate() == nil
	if fromURL && !validRange {
		logger.Warn().Str("start", r.Start).Str("end", r.End).Msg("ignoring invalid date range parameters")
	}
	c.dateRange.initialize(ctx, r, validRange)
}

// City returns a copy of the selected city, or nil.
func (c *Context) City() *domain.City {
	v := c.city.get()
	if v.IsZero() {
		return nil
	}
	cp := *v
	return &cp
}

func (c *Context) SetCity(ctx context.Context, city *domain.City) {
	if city.IsZero() {
		c.city.set(ctx, nil)
		return
	}
	cp := *city
	if cp.Name == "" {
		cp.Name = cp.City
	}
	c.city.set(ctx, &cp)
}

func (c *Context) Date() string {
	return c.date.get()
}

// SetDate sets the selected date; an empty string clears it.
func (c *Context) SetDate(ctx context.Context, date string) error {
	if date != "" && !domain.IsDate(date) {
		return fmt.Errorf("invalid date %q: expected format YYYY-MM-DD", date)
	}
	c.date.set(ctx, date)
	return nil
}

func (c *Context) DateRange() domain.DateRange {
	return c.dateRange.get()
}

// SetDateRange sets the range; a zero range clears it. Inverted ranges are rejected.
func (c *Context) SetDateRange(ctx context.Context, r domain.DateRange) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid date range: %w", err)
	}
	c.dateRange.set(ctx, r)
	return nil
}

// Clear empties every field and removes all of them from storage.
func (c *Context) Clear(ctx context.Context) {
	c.city.set(ctx, nil)
	c.date.set(ctx, "")
	c.dateRange.set(ctx, domain.DateRange{})
}

func (c *Context) Snapshot() domain.Snapshot {
	return domain.Snapshot{
		City:      c.City(),
		Date:      c.Date(),
		DateRange: c.DateRange(),
	}
}

// Params returns the non-empty context values keyed by their URL parameter.
func (c *Context) Params() url.Values {
	return SnapshotParams(c.Snapshot())
}

// SnapshotParams encodes a snapshot as URL query parameters, omitting empty values.
func SnapshotParams(s domain.Snapshot) url.Values {
	params := url.Values{}
	if name := s.CityName(); name != "" {
		params.Set(ParamCity, name)
	}
	if s.Date != "" {
		params.Set(ParamDate, s.Date)
	}
	if s.DateRange.Start != "" {
		params.Set(ParamStartDate, s.DateRange.Start)
	}
	if s.DateRange.End != "" {
		params.Set(ParamEndDate, s.DateRange.End)
	}
	return params
}
