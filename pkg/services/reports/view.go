package reports

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/de-tools/wasteops/pkg/models/domain"
	"github.com/de-tools/wasteops/pkg/services/filter"
	"github.com/de-tools/wasteops/pkg/store/client"
	"github.com/rs/zerolog"
)

var (
	// ErrSuperseded is returned by a load whose result was discarded because a newer load started.
	ErrSuperseded = errors.New("report load superseded by a newer request")
	// ErrClosed is returned once the view has been closed.
	ErrClosed = errors.New("report view closed")
)

// Fetcher retrieves raw report payloads. *client.Client implements it.
type Fetcher interface {
	FetchReports(ctx context.Context, endpoint string, query url.Values, env client.Envelope) (*client.Payload, error)
}

// State is what a view currently shows.
type State struct {
	Params Params
	// Raw holds the records as fetched, Records the ones passing the local criteria.
	Raw     []domain.Record
	Records []domain.Record
	Stats   domain.Stats
	Meta    map[string]any
	Summary domain.Summary
	// Err is the last fetch error. Records from the previous successful fetch are kept.
	Err    error
	Loaded bool
	// Generation identifies the load that produced the records.
	Generation uint64
}

// Retryable reports whether the view is showing a fetch error the user can retry.
func (s State) Retryable() bool {
	return errors.Is(s.Err, client.ErrNetwork) || errors.Is(s.Err, client.ErrResponseFormat)
}

type Option func(*View)

// WithTimeout bounds every fetch of the view.
func WithTimeout(d time.Duration) Option {
	return func(v *View) {
		v.timeout = d
	}
}

// View is the generic filtered report view. Only the most recent load may
// update its state: starting a load cancels the one in flight, and a result
// arriving for an older load is dropped.
type View struct {
	source  Source
	fetcher Fetcher
	timeout time.Duration

	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	closed   bool
	fetched  string
	hasFetch bool
	state    State
}

func NewView(src Source, fetcher Fetcher, opts ...Option) *View {
	v := &View{source: src, fetcher: fetcher}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *View) Source() Source {
	return v.source
}

// Load shows the report for p. The upstream is only queried when the
// upstream query differs from the last successful fetch; otherwise the
// cached records are filtered again.
func (v *View) Load(ctx context.Context, p Params) (State, error) {
	return v.load(ctx, p, false)
}

// Reload always queries the upstream.
func (v *View) Reload(ctx context.Context, p Params) (State, error) {
	return v.load(ctx, p, true)
}

func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Close cancels the load in flight and makes every later result a no-op.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.closed = true
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

func (v *View) load(ctx context.Context, p Params, force bool) (State, error) {
	query := v.source.UpstreamQuery(p)
	key := query.Encode()

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return State{}, ErrClosed
	}
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.gen++
	gen := v.gen

	if !v.source.Ready(p) {
		v.state = State{Params: p.Clone(), Generation: gen}
		v.hasFetch = false
		v.mu.Unlock()
		return v.state, nil
	}
	if !force && v.hasFetch && v.fetched == key && v.state.Err == nil {
		v.state = v.filtered(v.state, p)
		st := v.state
		v.mu.Unlock()
		return st, nil
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	if v.timeout > 0 {
		var cancelTimeout context.CancelFunc
		fetchCtx, cancelTimeout = context.WithTimeout(fetchCtx, v.timeout)
		parent := cancel
		cancel = func() {
			cancelTimeout()
			parent()
		}
	}
	v.cancel = cancel
	v.mu.Unlock()
	defer cancel()

	payload, err := v.fetcher.FetchReports(fetchCtx, v.source.Endpoint, query, v.source.Envelope)

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return State{}, ErrClosed
	}
	if gen != v.gen {
		zerolog.Ctx(ctx).Debug().
			Str("report", v.source.Name).
			Uint64("generation", gen).
			Uint64("current", v.gen).
			Msg("discarding stale report response")
		return v.state, ErrSuperseded
	}
	v.cancel = nil

	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("report", v.source.Name).Msg("report fetch failed")
		st := v.filtered(v.state, p)
		st.Err = err
		v.state = st
		return st, err
	}

	v.fetched = key
	v.hasFetch = true
	v.state = v.filtered(State{
		Raw:        payload.Records,
		Stats:      payload.Stats,
		Meta:       payload.Meta,
		Loaded:     true,
		Generation: gen,
	}, p)
	return v.state, nil
}

func (v *View) filtered(st State, p Params) State {
	st.Params = p.Clone()
	st.Records = v.source.Filter(st.Raw, p)
	st.Summary = filter.Summarize(st.Records, v.source.Flags...)
	return st
}
