package navctx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/de-tools/wasteops/pkg/adapters"
	"github.com/de-tools/wasteops/pkg/models/api"
	"github.com/de-tools/wasteops/pkg/models/domain"
	"github.com/de-tools/wasteops/pkg/services/navctx"
	"github.com/de-tools/wasteops/pkg/services/session"
	"github.com/rs/zerolog"
)

var errNoSession = errors.New("no session")

// Handler exposes the shared context of the calling session.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) GetContext(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	if s == nil {
		writeError(w, http.StatusInternalServerError, errNoSession)
		return
	}
	h.respond(w, r, s.Context)
}

// UpdateContext applies the fields present in the body. Each field is
// written through to storage; a rejected date or range leaves every field
// untouched.
func (h *Handler) UpdateContext(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	s := session.FromContext(ctx)
	if s == nil {
		writeError(w, http.StatusInternalServerError, errNoSession)
		return
	}

	var update api.ContextUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	c := s.Context
	if update.Date != nil && *update.Date != "" && !domain.IsDate(*update.Date) {
		writeError(w, http.StatusBadRequest, errors.New("date must be formatted as YYYY-MM-DD"))
		return
	}

	rangeSet := update.StartDate != nil || update.EndDate != nil
	dr := c.DateRange()
	if update.StartDate != nil {
		dr.Start = *update.StartDate
	}
	if update.EndDate != nil {
		dr.End = *update.EndDate
	}
	if rangeSet {
		if err := dr.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	if update.City != nil {
		c.SetCity(ctx, &domain.City{City: *update.City})
	}
	if update.Date != nil {
		if err := c.SetDate(ctx, *update.Date); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if rangeSet {
		if err := c.SetDateRange(ctx, dr); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	logger.Debug().Interface("update", update).Msg("context updated")
	h.respond(w, r, c)
}

func (h *Handler) ClearContext(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	if s == nil {
		writeError(w, http.StatusInternalServerError, errNoSession)
		return
	}
	s.Context.Clear(r.Context())
	h.respond(w, r, s.Context)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, c *navctx.Context) {
	if err := json.NewEncoder(w).Encode(adapters.MapSnapshotDomainToApi(c.Snapshot())); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode context")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(adapters.MapErrorDomainToApi(err))
}
