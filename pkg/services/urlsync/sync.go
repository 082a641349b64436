package urlsync

import (
	"context"
	"strings"

	"github.com/de-tools/wasteops/pkg/models/domain"
	"github.com/de-tools/wasteops/pkg/services/navctx"
	"github.com/rs/zerolog"
)

// Synchronizer reconciles a page's query string with the shared context.
// Reading happens once per navigation (SyncFromURL); after that the context is
// written to the URL in one direction only (UpdateURL).
type Synchronizer struct {
	context   *navctx.Context
	location  Location
	localKeys []string
}

// New binds a synchronizer to a context and a page. localKeys lists the
// view specific parameters the page recognises, such as zone or ward.
func New(c *navctx.Context, loc Location, localKeys ...string) *Synchronizer {
	return &Synchronizer{
		context:   c,
		location:  loc,
		localKeys: localKeys,
	}
}

// SyncResult lists which context fields were overwritten from the URL and the
// view local parameters found on it.
type SyncResult struct {
	Changed []string
	Local   map[string]string
}

// SyncFromURL overwrites every context field whose URL parameter is present
// and differs from the current value. A second call without a URL change
// performs no writes.
func (s *Synchronizer) SyncFromURL(ctx context.Context) SyncResult {
	logger := zerolog.Ctx(ctx)
	query := s.location.Query()
	result := SyncResult{Local: map[string]string{}}

	if city := strings.TrimSpace(query.Get(navctx.ParamCity)); city != "" {
		if current := s.context.City(); current.IsZero() || current.City != city {
			s.context.SetCity(ctx, &domain.City{City: city, Name: city})
			result.Changed = append(result.Changed, navctx.ParamCity)
		}
	}

	if date := strings.TrimSpace(query.Get(navctx.ParamDate)); date != "" && date != s.context.Date() {
		if err := s.context.SetDate(ctx, date); err != nil {
			logger.Warn().Err(err).Msg("ignoring date parameter")
		} else {
			result.Changed = append(result.Changed, navctx.ParamDate)
		}
	}

	start := strings.TrimSpace(query.Get(navctx.ParamStartDate))
	end := strings.TrimSpace(query.Get(navctx.ParamEndDate))
	if start != "" || end != "" {
		current := s.context.DateRange()
		merged := current
		if start != "" {
			merged.Start = start
		}
		if end != "" {
			merged.End = end
		}
		if merged != current {
			if err := s.context.SetDateRange(ctx, merged); err != nil {
				logger.Warn().Err(err).Msg("ignoring date range parameters")
			} else {
				result.Changed = append(result.Changed, "dateRange")
			}
		}
	}

	for _, key := range s.localKeys {
		if v := strings.TrimSpace(query.Get(key)); v != "" {
			result.Local[key] = v
		}
	}
	return result
}

// UpdateURL rewrites the query string from the context, then applies
// localUpdates on top; an empty update removes its key. Unrecognised keys are
// kept. The location is replaced only when the query actually changes.
func (s *Synchronizer) UpdateURL(localUpdates map[string]string) bool {
	current := s.location.Query()
	next := cloneValues(current)

	params := s.context.Params()
	for _, key := range navctx.GlobalParams {
		if v := params.Get(key); v != "" {
			next.Set(key, v)
		} else {
			next.Del(key)
		}
	}

	for key, value := range localUpdates {
		if strings.TrimSpace(value) != "" {
			next.Set(key, value)
		} else {
			next.Del(key)
		}
	}

	if next.Encode() == current.Encode() {
		return false
	}
	s.location.Replace(next)
	return true
}
