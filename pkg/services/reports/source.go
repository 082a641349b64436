package reports

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/de-tools/wasteops/pkg/models/domain"
	"github.com/de-tools/wasteops/pkg/services/filter"
	"github.com/de-tools/wasteops/pkg/services/navctx"
	"github.com/de-tools/wasteops/pkg/services/navigation"
	"github.com/de-tools/wasteops/pkg/store/client"
)

// Params are the resolved parameters of one view load: the global context
// keys plus the report's own local keys.
type Params map[string]string

func (p Params) Get(key string) string {
	return strings.TrimSpace(p[key])
}

// Bool reads a checkbox style parameter. Anything unparseable is false.
func (p Params) Bool(key string) bool {
	b, err := strconv.ParseBool(p.Get(key))
	return err == nil && b
}

// List reads a comma separated parameter, dropping empty items.
func (p Params) List(key string) []string {
	var out []string
	for _, item := range strings.Split(p.Get(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Clone returns a copy that can be mutated independently.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Mapping forwards one view parameter to the upstream query under Key.
type Mapping struct {
	Param string
	Key   string
}

// Source describes one report: where its records come from, which
// parameters it understands and how its records are filtered locally.
type Source struct {
	Name     string
	Title    string
	Route    string
	Endpoint string
	Envelope client.Envelope
	// LocalKeys are the view-specific URL parameters on top of the global ones.
	LocalKeys []string
	Upstream  []Mapping
	// Range marks reports driven by the date range instead of the single date.
	Range       bool
	DefaultDate DefaultDate
	// Requires lists parameters without which nothing is fetched.
	Requires    []string
	Flags       []string
	PhoneFields []string
	Criteria    func(Params) *filter.Criteria
	// Groups derives a breakdown from the extra top level keys of a response.
	Groups func(meta map[string]any, p Params) []domain.GroupStat
}

// Breakdown returns the source's breakdown of a loaded response, or nil.
func (s Source) Breakdown(meta map[string]any, p Params) []domain.GroupStat {
	if s.Groups == nil {
		return nil
	}
	return s.Groups(meta, p)
}

// DateParam is the parameter that receives the default date.
func (s Source) DateParam() string {
	if s.Range {
		return navctx.ParamStartDate
	}
	return navctx.ParamDate
}

// Defaults returns the built-in parameter values used when neither the URL
// nor the shared context provide one.
func (s Source) Defaults(now time.Time) map[string]string {
	defaults := map[string]string{}
	if d := s.DefaultDate.Value(now); d != "" {
		defaults[s.DateParam()] = d
	}
	return defaults
}

// Ready reports whether every required parameter is present.
func (s Source) Ready(p Params) bool {
	for _, key := range s.Requires {
		if p.Get(key) == "" {
			return false
		}
	}
	return true
}

// UpstreamQuery builds the report API query for p. Empty values are omitted.
func (s Source) UpstreamQuery(p Params) url.Values {
	q := url.Values{}
	for _, m := range s.Upstream {
		if v := p.Get(m.Param); v != "" {
			q.Set(m.Key, v)
		}
	}
	return q
}

// Filter applies the report's local criteria for p.
func (s Source) Filter(records []domain.Record, p Params) []domain.Record {
	if s.Criteria == nil {
		return filter.Apply(records, nil)
	}
	return filter.Apply(records, s.Criteria(p))
}

// CallLinks returns the tel: links for the phone numbers present in r, keyed by field.
func (s Source) CallLinks(r domain.Record) map[string]string {
	links := map[string]string{}
	for _, field := range s.PhoneFields {
		phone, ok := r.String(field)
		if !ok {
			continue
		}
		if link := navigation.CallLink(phone); link != "" {
			links[field] = link
		}
	}
	return links
}

func same(keys ...string) []Mapping {
	out := make([]Mapping, 0, len(keys))
	for _, k := range keys {
		out = append(out, Mapping{Param: k, Key: k})
	}
	return out
}
