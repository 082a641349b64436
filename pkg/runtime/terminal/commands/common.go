package commands

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/de-tools/wasteops/pkg/models/domain"
	"github.com/de-tools/wasteops/pkg/runtime/terminal/export"
)

// Globals holds the values of the root persistent flags.
type Globals struct {
	Session string
	Output  string
}

func (g *Globals) reporter(base *export.Reporter) (*export.Reporter, error) {
	return base.WithFormat(export.Format(g.Output))
}

// Catalog lists the upstream lookups.
type Catalog interface {
	ListCities(ctx context.Context) ([]domain.City, error)
	ListReportTypes(ctx context.Context) ([]domain.ReportType, error)
}

// parseParams turns repeated key=value flags into a page query.
func parseParams(pairs []string) (url.Values, error) {
	q := url.Values{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", pair)
		}
		q.Set(key, strings.TrimSpace(value))
	}
	return q, nil
}

func flatten(q url.Values) map[string]string {
	out := make(map[string]string, len(q))
	for k := range q {
		out[k] = q.Get(k)
	}
	return out
}
