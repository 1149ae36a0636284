package products

import "github.com/go-chi/chi/v5"

// RegisterRoutes registra rutas de productos en el router.
// La colección responde con y sin barra final.
func RegisterRoutes(route chi.Router, handler *Handler) {
	route.Route("/products", func(route chi.Router) {
		route.Post("/", handler.Create)
		route.Get("/", handler.List)
		route.Get("/{id}", handler.GetByID)
		route.Put("/{id}", handler.Update)
		route.Delete("/{id}", handler.Delete)
	})
}
