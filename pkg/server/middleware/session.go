package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/de-tools/wasteops/pkg/services/session"
	"github.com/rs/zerolog"
)

// SessionCookie names the cookie carrying the session id of a browser tab.
const SessionCookie = "wasteops_session"

type SessionOpener interface {
	Open(ctx context.Context, id string, query url.Values) (*session.Session, bool, error)
}

// Session resolves the caller's session from its cookie and stores it in the
// request context. The request query is left out of the shared context, so
// local parameters of navigation and share links never leak into it.
func Session(opener SessionOpener) func(http.Handler) http.Handler {
	return openSession(opener, false)
}

// SessionFromURL is Session for page loads: the shared context is synced
// from the request query before the handler runs.
func SessionFromURL(opener SessionOpener) func(http.Handler) http.Handler {
	return openSession(opener, true)
}

func openSession(opener SessionOpener, syncQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			var id string
			if cookie, err := req.Cookie(SessionCookie); err == nil {
				id = cookie.Value
			}

			var query url.Values
			if syncQuery {
				query = req.URL.Query()
			}
			s, _, err := opener.Open(req.Context(), id, query)
			if err != nil {
				zerolog.Ctx(req.Context()).Error().Err(err).Msg("failed to open session")
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}

			if s.ID != id {
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    s.ID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			logger := zerolog.Ctx(req.Context()).With().Str("session", s.ID).Logger()
			ctx := session.WithContext(logger.WithContext(req.Context()), s)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}
