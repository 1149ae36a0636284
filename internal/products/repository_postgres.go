package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxSession es lo que el repositorio necesita de una conexión.
// *pgxpool.Conn lo cumple; en tests se usa un fake.
type pgxSession interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// acquireFunc toma una conexión del pool y devuelve cómo liberarla.
type acquireFunc func(ctx context.Context) (pgxSession, func(), error)

// PostgresRepository accede a la tabla products en PostgreSQL.
// Contiene SQL y mapeo DB → modelo.
type PostgresRepository struct {
	acquire acquireFunc
	ping    func(ctx context.Context) error
}

// NewPostgresRepository crea un repositorio sobre un pool pgx.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return newPostgresRepository(func(ctx context.Context) (pgxSession, func(), error) {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return nil, nil, err
		}
		return conn, conn.Release, nil
	}, pool.Ping)
}

func newPostgresRepository(acquire acquireFunc, ping func(ctx context.Context) error) *PostgresRepository {
	return &PostgresRepository{acquire: acquire, ping: ping}
}

// withSession adquiere una conexión, ejecuta fn y la libera siempre.
func (repository *PostgresRepository) withSession(ctx context.Context, fn func(session pgxSession) error) error {
	session, release, err := repository.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	return fn(session)
}

// Ping verifica conectividad (lo usa /ready).
func (repository *PostgresRepository) Ping(ctx context.Context) error {
	return repository.ping(ctx)
}

// EnsureSchema crea la tabla si no existe.
func (repository *PostgresRepository) EnsureSchema(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS products (
			id          BIGSERIAL PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL,
			price       DOUBLE PRECISION NOT NULL,
			quantity    INTEGER NOT NULL
		);
	`

	err := repository.withSession(ctx, func(session pgxSession) error {
		_, err := session.Exec(ctx, query)
		return err
	})
	if err != nil {
		return fmt.Errorf("migrate products: %w", err)
	}
	return nil
}

// Insert crea un producto y devuelve el registro persistido.
// Usamos RETURNING para obtener el id generado por DB.
func (repository *PostgresRepository) Insert(ctx context.Context, input ProductInput) (Product, error) {
	const query = `
		INSERT INTO products (name, description, price, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, description, price, quantity;
	`

	var product Product
	err := repository.withSession(ctx, func(session pgxSession) error {
		return scanProduct(session.QueryRow(ctx, query, input.Name, input.Description, input.Price, input.Quantity), &product)
	})
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}

	return product, nil
}

// List devuelve todas las filas, sin orden garantizado.
func (repository *PostgresRepository) List(ctx context.Context) ([]Product, error) {
	const query = `
		SELECT id, name, description, price, quantity
		FROM products;
	`

	var products []Product
	err := repository.withSession(ctx, func(session pgxSession) error {
		rows, err := session.Query(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		products = make([]Product, 0)
		for rows.Next() {
			var product Product
			if err := scanProduct(rows, &product); err != nil {
				return err
			}
			products = append(products, product)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return products, nil
}

// GetByID busca por id. Si no existe devuelve ErrorNotFound.
func (repository *PostgresRepository) GetByID(ctx context.Context, id int64) (Product, error) {
	const query = `
		SELECT id, name, description, price, quantity
		FROM products
		WHERE id = $1;
	`

	var product Product
	err := repository.withSession(ctx, func(session pgxSession) error {
		return scanProduct(session.QueryRow(ctx, query, id), &product)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrorNotFound
		}
		return Product{}, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

// Update pisa los cuatro campos en un único statement.
// Si el id no existe RETURNING no devuelve filas y respondemos ErrorNotFound.
func (repository *PostgresRepository) Update(ctx context.Context, id int64, input ProductInput) (Product, error) {
	const query = `
		UPDATE products
		SET name = $2, description = $3, price = $4, quantity = $5
		WHERE id = $1
		RETURNING id, name, description, price, quantity;
	`

	var product Product
	err := repository.withSession(ctx, func(session pgxSession) error {
		return scanProduct(session.QueryRow(ctx, query, id, input.Name, input.Description, input.Price, input.Quantity), &product)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrorNotFound
		}
		return Product{}, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

// Delete elimina por id. Si no había fila devuelve ErrorNotFound.
func (repository *PostgresRepository) Delete(ctx context.Context, id int64) error {
	const query = `
		DELETE FROM products
		WHERE id = $1
		RETURNING id;
	`

	err := repository.withSession(ctx, func(session pgxSession) error {
		var deletedID int64
		return session.QueryRow(ctx, query, id).Scan(&deletedID)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrorNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}

	return nil
}

func scanProduct(row pgx.Row, product *Product) error {
	return row.Scan(&product.ID, &product.Name, &product.Description, &product.Price, &product.Quantity)
}
