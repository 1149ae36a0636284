package products

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Lelo88/inventory-api-golang/internal/httpx"
	"github.com/Lelo88/inventory-api-golang/internal/logging"
)

// Mensajes fijos del contrato HTTP.
const (
	MessageProductNotFound = "Product not found"
	MessageProductDeleted  = "Product deleted successfully"
)

// ServiceAPI define lo que el handler necesita.
// Permite testear handlers con stubs sin tocar DB.
type ServiceAPI interface {
	Create(ctx context.Context, input ProductInput) (Product, error)
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	Update(ctx context.Context, id int64, input ProductInput) (Product, error)
	Delete(ctx context.Context, id int64) error
}

// Handler HTTP para productos.
// Solo traduce HTTP <-> dominio (service).
type Handler struct {
	service ServiceAPI
	binder  *FormBinder
}

// NewHandler crea un handler de productos.
func NewHandler(service ServiceAPI) *Handler {
	return &Handler{service: service, binder: NewFormBinder()}
}

// Create maneja POST /products/.
func (handler *Handler) Create(writer http.ResponseWriter, request *http.Request) {
	input, invalid := handler.binder.Bind(request)
	if invalid != nil {
		httpx.Unprocessable(writer, invalid)
		return
	}

	product, err := handler.service.Create(request.Context(), input)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	httpx.OK(writer, http.StatusOK, product)
}

// List maneja GET /products/.
func (handler *Handler) List(writer http.ResponseWriter, request *http.Request) {
	products, err := handler.service.List(request.Context())
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	httpx.OK(writer, http.StatusOK, products)
}

// GetByID maneja GET /products/{id}.
func (handler *Handler) GetByID(writer http.ResponseWriter, request *http.Request) {
	id, invalid := parseProductID(chi.URLParam(request, "id"))
	if invalid != nil {
		httpx.Unprocessable(writer, invalid)
		return
	}

	product, err := handler.service.Get(request.Context(), id)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	httpx.OK(writer, http.StatusOK, product)
}

// Update maneja PUT /products/{id}.
// El id se valida antes que el body, igual que el resto de los endpoints con path.
func (handler *Handler) Update(writer http.ResponseWriter, request *http.Request) {
	id, invalid := parseProductID(chi.URLParam(request, "id"))
	if invalid != nil {
		httpx.Unprocessable(writer, invalid)
		return
	}

	input, invalid := handler.binder.Bind(request)
	if invalid != nil {
		httpx.Unprocessable(writer, invalid)
		return
	}

	product, err := handler.service.Update(request.Context(), id, input)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	httpx.OK(writer, http.StatusOK, product)
}

// Delete maneja DELETE /products/{id}.
func (handler *Handler) Delete(writer http.ResponseWriter, request *http.Request) {
	id, invalid := parseProductID(chi.URLParam(request, "id"))
	if invalid != nil {
		httpx.Unprocessable(writer, invalid)
		return
	}

	if err := handler.service.Delete(request.Context(), id); err != nil {
		handler.fail(writer, request, err)
		return
	}

	httpx.Message(writer, http.StatusOK, MessageProductDeleted)
}

// fail traduce errores de dominio a status codes.
// Los errores de storage se loguean y no se filtran al cliente.
func (handler *Handler) fail(writer http.ResponseWriter, request *http.Request, err error) {
	switch {
	case errors.Is(err, ErrorNotFound):
		httpx.Detail(writer, http.StatusNotFound, MessageProductNotFound)
	case errors.Is(err, ErrorInvalidInput):
		httpx.Unprocessable(writer, []httpx.FieldError{typeError("price")})
	default:
		logging.FromRequest(request).Error().Err(err).Msg("product storage failure")
		httpx.InternalError(writer)
	}
}
