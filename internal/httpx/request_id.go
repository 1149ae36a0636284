package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// HeaderRequestID es el header por el que viaja el id de la request.
const HeaderRequestID = "X-Request-Id"

// newRequestID es variable para tener ids deterministas en tests.
var newRequestID = func() string {
	return uuid.NewString()
}

// RequestID reutiliza el X-Request-Id entrante o genera un UUID nuevo.
// Lo guarda bajo la misma key que chi para que middleware.GetReqID siga funcionando,
// y lo devuelve en la respuesta.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if requestID == "" {
			requestID = newRequestID()
		}

		w.Header().Set(HeaderRequestID, requestID)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFrom lee el id de la request: primero del contexto, después del header.
func RequestIDFrom(request *http.Request) string {
	if request == nil {
		return ""
	}
	if requestID := middleware.GetReqID(request.Context()); requestID != "" {
		return requestID
	}
	return request.Header.Get(HeaderRequestID)
}
