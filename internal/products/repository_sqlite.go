package products

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// productRow es el mapeo gorm de la tabla products.
type productRow struct {
	ID          int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string  `gorm:"column:name;not null"`
	Description string  `gorm:"column:description;not null"`
	Price       float64 `gorm:"column:price;not null"`
	Quantity    int     `gorm:"column:quantity;not null"`
}

func (productRow) TableName() string {
	return "products"
}

func (row productRow) toProduct() Product {
	return Product{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Price:       row.Price,
		Quantity:    row.Quantity,
	}
}

// SQLiteRepository accede a la tabla products en el archivo SQLite vía gorm.
type SQLiteRepository struct {
	database *gorm.DB
}

// NewSQLiteRepository crea un repositorio sobre un *gorm.DB ya abierto.
func NewSQLiteRepository(database *gorm.DB) *SQLiteRepository {
	return &SQLiteRepository{database: database}
}

// EnsureSchema crea la tabla si no existe.
func (repository *SQLiteRepository) EnsureSchema(ctx context.Context) error {
	if err := repository.database.WithContext(ctx).AutoMigrate(&productRow{}); err != nil {
		return fmt.Errorf("migrate products: %w", err)
	}
	return nil
}

// Ping verifica que el archivo siga accesible (lo usa /ready).
func (repository *SQLiteRepository) Ping(ctx context.Context) error {
	sqlDB, err := repository.database.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// session fija una conexión del pool durante toda la operación y la libera al terminar,
// haya error o no.
func (repository *SQLiteRepository) session(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return repository.database.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		// Session() hace que cada cadena de métodos arranque con un statement limpio.
		return fn(tx.Session(&gorm.Session{}))
	})
}

// Insert crea un producto y devuelve el registro con el id asignado.
func (repository *SQLiteRepository) Insert(ctx context.Context, input ProductInput) (Product, error) {
	row := productRow{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Quantity:    input.Quantity,
	}

	err := repository.session(ctx, func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}

	return row.toProduct(), nil
}

// List devuelve todas las filas en el orden natural del storage.
func (repository *SQLiteRepository) List(ctx context.Context) ([]Product, error) {
	var rows []productRow
	err := repository.session(ctx, func(tx *gorm.DB) error {
		return tx.Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toProduct())
	}
	return products, nil
}

// GetByID busca por primary key. Si no existe devuelve ErrorNotFound.
func (repository *SQLiteRepository) GetByID(ctx context.Context, id int64) (Product, error) {
	var row productRow
	err := repository.session(ctx, func(tx *gorm.DB) error {
		return tx.Take(&row, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Product{}, ErrorNotFound
		}
		return Product{}, fmt.Errorf("get product: %w", err)
	}

	return row.toProduct(), nil
}

// Update pisa los cuatro campos en un único UPDATE.
// No usamos Save porque gorm inserta cuando el UPDATE no afecta filas.
func (repository *SQLiteRepository) Update(ctx context.Context, id int64, input ProductInput) (Product, error) {
	var row productRow
	err := repository.session(ctx, func(tx *gorm.DB) error {
		// Con map gorm incluye los zero values (quantity=0).
		result := tx.Model(&productRow{}).Where("id = ?", id).Updates(map[string]any{
			"name":        input.Name,
			"description": input.Description,
			"price":       input.Price,
			"quantity":    input.Quantity,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrorNotFound
		}
		return tx.Take(&row, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, ErrorNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
			return Product{}, ErrorNotFound
		}
		return Product{}, fmt.Errorf("update product: %w", err)
	}

	return row.toProduct(), nil
}

// Delete elimina por primary key. Si no había fila devuelve ErrorNotFound.
func (repository *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	err := repository.session(ctx, func(tx *gorm.DB) error {
		result := tx.Delete(&productRow{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrorNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrorNotFound) {
			return ErrorNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}

	return nil
}
