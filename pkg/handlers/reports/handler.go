package reports

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/de-tools/wasteops/pkg/adapters"
	"github.com/de-tools/wasteops/pkg/models/api"
	"github.com/de-tools/wasteops/pkg/models/domain"
	"github.com/de-tools/wasteops/pkg/services/navigation"
	"github.com/de-tools/wasteops/pkg/services/reports"
	"github.com/de-tools/wasteops/pkg/services/session"
	"github.com/de-tools/wasteops/pkg/store/client"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Catalog lists the upstream lookups shown in the report header.
type Catalog interface {
	ListCities(ctx context.Context) ([]domain.City, error)
	ListReportTypes(ctx context.Context) ([]domain.ReportType, error)
}

type Handler struct {
	manager *session.Manager
	catalog Catalog
}

func NewHandler(manager *session.Manager, catalog Catalog) *Handler {
	return &Handler{
		manager: manager,
		catalog: catalog,
	}
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	sources := h.manager.Registry().List()
	response := make([]api.Report, 0, len(sources))
	for _, src := range sources {
		response = append(response, adapters.MapSourceToApi(src))
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Msg("failed to encode reports")
	}
}

func (h *Handler) ListReportTypes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	types, err := h.catalog.ListReportTypes(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list report types")
		writeError(w, http.StatusBadGateway, err)
		return
	}

	if err := json.NewEncoder(w).Encode(adapters.MapReportTypesDomainToApi(reports.WithRoutes(types))); err != nil {
		logger.Error().Err(err).Msg("failed to encode report types")
	}
}

func (h *Handler) ListCities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	cities, err := h.catalog.ListCities(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list cities")
		writeError(w, http.StatusBadGateway, err)
		return
	}

	if err := json.NewEncoder(w).Encode(adapters.MapCitiesDomainToApi(cities)); err != nil {
		logger.Error().Err(err).Msg("failed to encode cities")
	}
}

// GetReport renders a report for the calling session. The request query is
// the page query: context keys, the report's own filters and anything else,
// which is kept on the returned location. reload=true bypasses the cache.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "report")
	logger := zerolog.Ctx(ctx).With().Str("report", name).Logger()

	s := session.FromContext(ctx)
	if s == nil {
		writeError(w, http.StatusInternalServerError, errors.New("no session"))
		return
	}

	query := r.URL.Query()
	reload := query.Get("reload") == "true"
	query.Del("reload")

	view, err := h.manager.Report(ctx, s, name, query, reload)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrUnknownReport):
		writeError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, reports.ErrSuperseded), errors.Is(err, reports.ErrClosed):
		writeError(w, http.StatusConflict, err)
		return
	case errors.Is(err, client.ErrNetwork), errors.Is(err, client.ErrResponseFormat):
		logger.Warn().Err(err).Msg("report fetch failed")
		w.WriteHeader(http.StatusBadGateway)
	default:
		logger.Error().Err(err).Msg("failed to render report")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if err := json.NewEncoder(w).Encode(adapters.MapReportViewDomainToApi(view)); err != nil {
		logger.Error().Err(err).Msg("failed to encode report view")
	}
}

// CloseReport unmounts the session's view of a report.
func (h *Handler) CloseReport(w http.ResponseWriter, r *http.Request) {
	if s := session.FromContext(r.Context()); s != nil {
		s.CloseView(chi.URLParam(r, "report"))
	}
	w.WriteHeader(http.StatusNoContent)
}

// Navigate redirects to path carrying the session context and the remaining query parameters.
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	path, local, ok := navigationTarget(w, r)
	if !ok {
		return
	}

	nav, err := h.manager.Navigator(session.FromContext(ctx), redirectRouter{w: w, r: r})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := nav.NavigateWithContext(ctx, path, local); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("failed to navigate")
		writeError(w, http.StatusInternalServerError, err)
	}
}

// Share returns the absolute link reproducing path with the session context.
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	path, local, ok := navigationTarget(w, r)
	if !ok {
		return
	}

	nav, err := h.manager.Navigator(session.FromContext(r.Context()), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if err := json.NewEncoder(w).Encode(api.Link{URL: nav.GenerateShareableURL(path, local)}); err != nil {
		logger.Error().Err(err).Msg("failed to encode share link")
	}
}

func navigationTarget(w http.ResponseWriter, r *http.Request) (string, map[string]string, bool) {
	if session.FromContext(r.Context()) == nil {
		writeError(w, http.StatusInternalServerError, errors.New("no session"))
		return "", nil, false
	}

	query := r.URL.Query()
	path := query.Get("path")
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		writeError(w, http.StatusBadRequest, errors.New("path must be an absolute page path"))
		return "", nil, false
	}
	query.Del("path")
	return path, flatten(query), true
}

func flatten(q url.Values) map[string]string {
	out := make(map[string]string, len(q))
	for k := range q {
		out[k] = q.Get(k)
	}
	return out
}

type redirectRouter struct {
	w http.ResponseWriter
	r *http.Request
}

func (rr redirectRouter) Navigate(_ context.Context, target string) error {
	http.Redirect(rr.w, rr.r, target, http.StatusFound)
	return nil
}

var _ navigation.Router = redirectRouter{}

func writeError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(adapters.MapErrorDomainToApi(err))
}
