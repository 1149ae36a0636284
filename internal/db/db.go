package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Ambos backends tienen el mismo plazo para abrir y responder el primer ping.
const startupTimeout = 5 * time.Second

// Límites del pool de PostgreSQL; cada request toma una conexión y la devuelve al terminar.
const (
	maxPoolConns    = 10
	maxConnIdleTime = 5 * time.Minute
)

type poolPinger interface {
	Ping(ctx context.Context) error
	Close()
}

var (
	newPool  = pgxpool.NewWithConfig
	pingPool = func(ctx context.Context, pool poolPinger) error {
		return pool.Ping(ctx)
	}
	closePool = func(pool poolPinger) {
		pool.Close()
	}
	openGorm = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{
			// Los errores de storage se loguean en la capa HTTP con zerolog.
			Logger: logger.Default.LogMode(logger.Silent),
		})
	}
)

// NewPool crea el pool de PostgreSQL y verifica que la base responda.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolConfig.MaxConns = maxPoolConns
	poolConfig.MaxConnIdleTime = maxConnIdleTime

	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	pool, err := newPool(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	ping := func(ctx context.Context) error { return pingPool(ctx, pool) }
	if err := verify(ctx, ping, func() { closePool(pool) }); err != nil {
		return nil, err
	}

	return pool, nil
}

// SQLiteDSN agrega los pragmas que usamos al path del archivo.
// busy_timeout evita "database is locked" cuando dos requests escriben a la vez.
func SQLiteDSN(path string) string {
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return path + separator + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// OpenSQLite abre (o crea) el archivo SQLite y verifica la conexión.
func OpenSQLite(ctx context.Context, path string) (*gorm.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	database, err := openGorm(SQLiteDSN(path))
	if err != nil {
		return nil, err
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}

	if err := verify(ctx, sqlDB.PingContext, func() { _ = sqlDB.Close() }); err != nil {
		return nil, err
	}

	return database, nil
}

// CloseSQLite libera el pool subyacente de gorm.
func CloseSQLite(database *gorm.DB) error {
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// verify hace el ping de arranque y libera el recurso si falla,
// así la app no arranca con una base a medias.
func verify(ctx context.Context, ping func(context.Context) error, release func()) error {
	if err := ping(ctx); err != nil {
		release()
		return err
	}
	return nil
}
