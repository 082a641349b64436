package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/de-tools/wasteops/pkg/models/domain"
	"github.com/de-tools/wasteops/pkg/services/navctx"
	"github.com/de-tools/wasteops/pkg/services/navigation"
	"github.com/de-tools/wasteops/pkg/services/reports"
	"github.com/de-tools/wasteops/pkg/services/urlsync"
	"github.com/de-tools/wasteops/pkg/store/kv"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrUnknownReport = errors.New("unknown report")

// Backend persists the context values of each session.
type Backend interface {
	Storage(id string) (kv.Storage, error)
	Touch(ctx context.Context, id string) error
	Clear(ctx context.Context, id string) error
}

// Session is one browser tab: its shared context and the report views it has open.
type Session struct {
	ID      string
	Context *navctx.Context

	// initMu guards Context creation and URL syncing.
	initMu sync.Mutex

	mu       sync.Mutex
	views    map[string]*reports.View
	opts     []reports.Option
	fetch    reports.Fetcher
	lastSeen time.Time
}

// View returns the session's view of src, creating it on first use.
func (s *Session) View(src reports.Source) *reports.View {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.views[src.Name]; ok {
		return v
	}
	v := reports.NewView(src, s.fetch, s.opts...)
	s.views[src.Name] = v
	return v
}

// CloseView unmounts the view of a report; in-flight results are dropped.
func (s *Session) CloseView(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.views[name]; ok {
		v.Close()
		delete(s.views, name)
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, v := range s.views {
		v.Close()
		delete(s.views, name)
	}
}

type Option func(*Manager)

// WithClock replaces time.Now for default date computation.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithViewOptions is applied to every report view the manager creates.
func WithViewOptions(opts ...reports.Option) Option {
	return func(m *Manager) {
		m.viewOpts = append(m.viewOpts, opts...)
	}
}

// Manager owns the live sessions and renders report views for them.
type Manager struct {
	backend  Backend
	registry reports.Registry
	fetcher  reports.Fetcher
	origin   string
	now      func() time.Time
	viewOpts []reports.Option

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(backend Backend, registry reports.Registry, fetcher reports.Fetcher, origin string, opts ...Option) (*Manager, error) {
	if backend == nil {
		return nil, fmt.Errorf("session backend is nil")
	}
	if registry == nil {
		return nil, fmt.Errorf("report registry is nil")
	}
	if _, err := navigation.NewNavigator(nil, nil, origin); err != nil {
		return nil, err
	}
	m := &Manager{
		backend:  backend,
		registry: registry,
		fetcher:  fetcher,
		origin:   origin,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Manager) Registry() reports.Registry {
	return m.registry
}

func (m *Manager) Origin() string {
	return m.origin
}

// Open returns the session with the given id. An empty or malformed id gets
// a fresh one. A session seen for the first time initializes its context
// from query and storage; a known one syncs its context from query. The
// returned flag is true for newly opened sessions.
func (m *Manager) Open(ctx context.Context, id string, query url.Values) (*Session, bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	logger := zerolog.Ctx(ctx).With().Str("session", id).Logger()
	ctx = logger.WithContext(ctx)

	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		s = &Session{
			ID:       id,
			views:    make(map[string]*reports.View),
			opts:     m.viewOpts,
			fetch:    m.fetcher,
			lastSeen: m.now(),
		}
		m.sessions[id] = s
	}
	m.mu.Unlock()

	// storage work runs under the session's own lock so other sessions are not held up
	s.initMu.Lock()
	defer s.initMu.Unlock()

	s.mu.Lock()
	s.lastSeen = m.now()
	s.mu.Unlock()

	if s.Context != nil {
		loc := &queryLocation{query: query}
		urlsync.New(s.Context, loc).SyncFromURL(ctx)
		if err := m.backend.Touch(ctx, id); err != nil {
			logger.Warn().Err(err).Msg("failed to touch session")
		}
		return s, false, nil
	}

	storage, err := m.backend.Storage(id)
	if err != nil {
		return nil, false, fmt.Errorf("open session storage: %w", err)
	}
	if err := m.backend.Touch(ctx, id); err != nil {
		logger.Warn().Err(err).Msg("failed to touch session")
	}

	c := navctx.New(storage)
	c.Initialize(ctx, query)
	s.Context = c

	logger.Debug().Msg("session opened")
	return s, true, nil
}

// End closes every view of the session and deletes its persisted context.
func (m *Manager) End(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.close()
	}
	if err := m.backend.Clear(ctx, id); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// EvictIdle drops live sessions not opened since before and closes their
// views. Persisted contexts are kept, so an evicted tab that comes back is
// restored from storage. It returns the evicted ids.
func (m *Manager) EvictIdle(before time.Time) []string {
	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		s.mu.Lock()
		seen := s.lastSeen
		s.mu.Unlock()
		if seen.Before(before) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	ids := make([]string, 0, len(idle))
	for _, s := range idle {
		s.close()
		ids = append(ids, s.ID)
	}
	sort.Strings(ids)
	return ids
}

// Live is the number of sessions held in memory.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Navigator binds a navigator for s to router.
func (m *Manager) Navigator(s *Session, router navigation.Router) (*navigation.Navigator, error) {
	return navigation.NewNavigator(s.Context, router, m.origin)
}

// Report resolves the parameters of a report for the session, loads the view
// and renders it. When the fetch fails the returned view still carries the
// previously loaded records and the error is returned alongside it.
func (m *Manager) Report(ctx context.Context, s *Session, name string, query url.Values, reload bool) (domain.ReportView, error) {
	src, ok := m.registry.Get(name)
	if !ok {
		return domain.ReportView{}, fmt.Errorf("%w: %s", ErrUnknownReport, name)
	}

	loc := &urlsync.PageLocation{}
	if l, perr := urlsync.NewPageLocation(src.Route + "?" + query.Encode()); perr == nil {
		loc = l
	}
	syncer := urlsync.New(s.Context, loc, src.LocalKeys...)
	syncer.SyncFromURL(ctx)

	params := reports.Params(urlsync.Resolve(query, s.Context.Snapshot(), src.Defaults(m.now()), src.LocalKeys...))

	view := s.View(src)
	load := view.Load
	if reload {
		load = view.Reload
	}
	st, err := load(ctx, params)
	if errors.Is(err, reports.ErrSuperseded) || errors.Is(err, reports.ErrClosed) {
		return domain.ReportView{}, err
	}

	local := map[string]string{}
	for _, key := range src.LocalKeys {
		local[key] = params.Get(key)
	}
	syncer.UpdateURL(local)

	nav, nerr := m.Navigator(s, nil)
	if nerr != nil {
		return domain.ReportView{}, nerr
	}

	links := make([]map[string]string, len(st.Records))
	for i, r := range st.Records {
		links[i] = src.CallLinks(r)
	}

	return domain.ReportView{
		Report:    src.Name,
		Title:     src.Title,
		Context:   s.Context.Snapshot(),
		Params:    params,
		Total:     len(st.Raw),
		Records:   st.Records,
		CallLinks: links,
		Stats:     st.Stats,
		Summary:   st.Summary,
		Groups:    src.Breakdown(st.Meta, params),
		Location:  loc.String(),
		ShareURL:  nav.GenerateShareableURL(src.Route, local),
		Err:       st.Err,
	}, err
}

// queryLocation adapts a request query to urlsync.Location for syncing only.
type queryLocation struct {
	query url.Values
}

func (l *queryLocation) Path() string { return "" }

func (l *queryLocation) Query() url.Values { return l.query }

func (l *queryLocation) Replace(query url.Values) { l.query = query }
