package products

import (
	"context"
	"errors"
	"math"
)

// Errores de dominio (no HTTP). El handler los traduce a status codes.
var (
	ErrorInvalidInput = errors.New("invalid input")
	ErrorNotFound     = errors.New("product not found")
)

// RepositoryAPI define el acceso a la tabla products.
// Hay dos implementaciones: SQLite (gorm) y PostgreSQL (pgx).
// Cada método abre y libera su propia sesión; no se comparte estado entre llamadas.
type RepositoryAPI interface {
	Insert(ctx context.Context, input ProductInput) (Product, error)
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (Product, error)
	Update(ctx context.Context, id int64, input ProductInput) (Product, error)
	Delete(ctx context.Context, id int64) error
}

// Service contiene las reglas de negocio de productos.
type Service struct {
	repository RepositoryAPI
}

// NewService crea un service de productos.
func NewService(repository RepositoryAPI) *Service {
	return &Service{repository: repository}
}

// Create valida el input y persiste el producto.
func (service *Service) Create(ctx context.Context, input ProductInput) (Product, error) {
	if err := validateInput(input); err != nil {
		return Product{}, err
	}
	return service.repository.Insert(ctx, input)
}

// List devuelve todos los productos. Nunca devuelve nil para que el JSON sea [] y no null.
func (service *Service) List(ctx context.Context) ([]Product, error) {
	products, err := service.repository.List(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

// Get obtiene un producto por ID.
func (service *Service) Get(ctx context.Context, id int64) (Product, error) {
	return service.repository.GetByID(ctx, id)
}

// Update pisa los cuatro campos escribibles de un producto existente.
// Si el id no existe devuelve ErrorNotFound y no crea nada.
func (service *Service) Update(ctx context.Context, id int64, input ProductInput) (Product, error) {
	if err := validateInput(input); err != nil {
		return Product{}, err
	}
	return service.repository.Update(ctx, id, input)
}

// Delete elimina un producto por ID.
func (service *Service) Delete(ctx context.Context, id int64) error {
	return service.repository.Delete(ctx, id)
}

func validateInput(input ProductInput) error {
	if math.IsNaN(input.Price) || math.IsInf(input.Price, 0) {
		return ErrorInvalidInput
	}
	return nil
}
