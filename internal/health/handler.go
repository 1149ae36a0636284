package health

import (
	"context"
	"net/http"
	"time"

	"github.com/Lelo88/inventory-api-golang/internal/httpx"
)

// Pinger es cualquier storage que sepa verificar su conectividad.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler encapsula endpoints de health.
type Handler struct {
	database Pinger
}

// New crea un handler de health.
func New(database Pinger) *Handler {
	return &Handler{database: database}
}

// Health indica si el proceso está vivo.
// NO chequea base de datos. Eso va en /ready.
func (handler *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready verifica que el storage responda dentro de un timeout corto.
func (handler *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if handler.database == nil {
		httpx.Detail(w, http.StatusServiceUnavailable, "database not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := handler.database.Ping(ctx); err != nil {
		httpx.Detail(w, http.StatusServiceUnavailable, "database is not reachable")
		return
	}

	httpx.OK(w, http.StatusOK, map[string]any{"status": "ready"})
}
