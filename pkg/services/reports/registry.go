package reports

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/de-tools/wasteops/pkg/models/domain"
)

// Registry holds the report descriptors served by the dashboard.
type Registry interface {
	// Register adds a report; names and routes must be unique
	Register(src Source) error
	// Get looks a report up by name
	Get(name string) (Source, bool)
	// ByRoute looks a report up by its page route
	ByRoute(route string) (Source, bool)
	// List returns every registered report sorted by name
	List() []Source
}

type registry struct {
	mu      sync.RWMutex
	sources map[string]Source
	routes  map[string]string
}

// NewRegistry creates an empty registry
func NewRegistry() Registry {
	return &registry{
		sources: make(map[string]Source),
		routes:  make(map[string]string),
	}
}

// NewDefaultRegistry creates a registry holding the whole Catalog.
func NewDefaultRegistry() (Registry, error) {
	r := NewRegistry()
	for _, src := range Catalog() {
		if err := r.Register(src); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *registry) Register(src Source) error {
	if src.Name == "" {
		return fmt.Errorf("report name cannot be empty")
	}
	if src.Endpoint == "" {
		return fmt.Errorf("report %q has no endpoint", src.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[src.Name]; exists {
		return fmt.Errorf("report %q is already registered", src.Name)
	}
	if owner, exists := r.routes[src.Route]; exists && src.Route != "" {
		return fmt.Errorf("route %q is already used by report %q", src.Route, owner)
	}

	r.sources[src.Name] = src
	if src.Route != "" {
		r.routes[src.Route] = src.Name
	}
	return nil
}

func (r *registry) Get(name string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src, ok := r.sources[name]
	return src, ok
}

func (r *registry) ByRoute(route string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.routes[route]
	if !ok {
		return Source{}, false
	}
	return r.sources[name], true
}

func (r *registry) List() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Source, 0, len(r.sources))
	for _, src := range r.sources {
		list = append(list, src)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// typeRoutes maps upstream report type names, lower cased, to page routes.
var typeRoutes = map[string]string{
	"trip validation report":    "/trip-validation-report",
	"fuel validation report":    "/fuel-validation-report",
	"employee sop report":       "/transport-executive-login-validation",
	"duty on off report":        "/duty-on-off-report",
	"skip lines report":         "/skipline-validation-report",
	"dustbin validation report": "/dustbin-validation-report",
}

// RouteForType returns the page route of an upstream report type, or "" when unknown.
func RouteForType(name string) string {
	return typeRoutes[strings.ToLower(strings.TrimSpace(name))]
}

// WithRoutes fills Route on each report type.
func WithRoutes(types []domain.ReportType) []domain.ReportType {
	out := make([]domain.ReportType, len(types))
	for i, t := range types {
		t.Route = RouteForType(t.Name)
		out[i] = t
	}
	return out
}
