package logging

import (
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/Lelo88/inventory-api-golang/internal/httpx"
)

// New construye el logger del proceso.
// format "console" usa ConsoleWriter (desarrollo); cualquier otro valor, JSON.
func New(out io.Writer, level, format string) zerolog.Logger {
	parsedLevel, err := zerolog.ParseLevel(level)
	if err != nil || parsedLevel == zerolog.NoLevel {
		parsedLevel = zerolog.InfoLevel
	}

	writer := out
	if format == "console" {
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: true}
	}

	return zerolog.New(writer).Level(parsedLevel).With().Timestamp().Logger()
}

// Middleware adjunta el logger a cada request y loguea el acceso al terminar.
// Debe montarse después de httpx.RequestID para que el id ya esté en el contexto.
func Middleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	withRequestID := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requestID := httpx.RequestIDFrom(r); requestID != "" {
				log := zerolog.Ctx(r.Context())
				log.UpdateContext(func(c zerolog.Context) zerolog.Context {
					return c.Str("request_id", requestID)
				})
			}
			next.ServeHTTP(w, r)
		})
	}

	access := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})

	return func(next http.Handler) http.Handler {
		return hlog.NewHandler(logger)(
			hlog.RemoteAddrHandler("remote_addr")(
				withRequestID(access(next)),
			),
		)
	}
}

// FromRequest devuelve el logger de la request (o uno deshabilitado si no hay).
func FromRequest(r *http.Request) *zerolog.Logger {
	return hlog.FromRequest(r)
}
