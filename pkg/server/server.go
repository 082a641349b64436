package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	navctxhandler "github.com/de-tools/wasteops/pkg/handlers/navctx"
	reportshandler "github.com/de-tools/wasteops/pkg/handlers/reports"
	wasteopsmiddleware "github.com/de-tools/wasteops/pkg/server/middleware"
	"github.com/de-tools/wasteops/pkg/services/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const defaultShutdownTimeout = 10 * time.Second

type WebAPI struct {
	router          chi.Router
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

type Dependencies struct {
	Sessions *session.Manager
	Catalog  reportshandler.Catalog
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

// ConfigureRouter builds the HTTP routes of the dashboard API.
func ConfigureRouter(logger zerolog.Logger, deps Dependencies) chi.Router {
	reportHandler := reportshandler.NewHandler(deps.Sessions, deps.Catalog)
	contextHandler := navctxhandler.NewHandler()

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(wasteopsmiddleware.Logger(&logger))
	router.Use(middleware.Recoverer)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))

		// report pages carry the page URL, which wins over the stored context
		r.With(wasteopsmiddleware.SessionFromURL(deps.Sessions)).
			Get("/reports/{report}", reportHandler.GetReport)

		r.Group(func(r chi.Router) {
			r.Use(wasteopsmiddleware.Session(deps.Sessions))

			r.Get("/context", contextHandler.GetContext)
			r.Put("/context", contextHandler.UpdateContext)
			r.Delete("/context", contextHandler.ClearContext)

			r.Get("/reports", reportHandler.ListReports)
			r.Delete("/reports/{report}", reportHandler.CloseReport)
			r.Get("/report-types", reportHandler.ListReportTypes)
			r.Get("/cities", reportHandler.ListCities)

			r.Get("/navigate", reportHandler.Navigate)
			r.Get("/share", reportHandler.Share)
		})
	})

	return router
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	router := ConfigureRouter(logger, config.Dependencies)

	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: timeout,
	}
}

// Start serves until ctx is cancelled or the process receives SIGINT/SIGTERM,
// then drains outstanding requests.
func (w *WebAPI) Start(ctx context.Context) error {
	serverErrors := make(chan error, 1)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(shutdownCtx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}
