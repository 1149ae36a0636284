package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config agrupa la configuración necesaria para correr la aplicación.
type Config struct {
	Host           string
	Port           string
	DatabasePath   string
	DatabaseURL    string
	AllowedOrigins []string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration
}

// Addr devuelve host:port listo para net/http.
func (cfg Config) Addr() string {
	return cfg.Host + ":" + cfg.Port
}

// UsePostgres indica si hay que usar PostgreSQL en lugar del archivo SQLite.
func (cfg Config) UsePostgres() bool {
	return cfg.DatabaseURL != ""
}

// loadDotEnv es variable para poder desactivarla en tests.
var loadDotEnv = func() {
	_ = godotenv.Load()
}

// Load lee variables de entorno (y .env si existe) y valida lo mínimo indispensable.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("DATABASE_PATH", "inventory.db")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost,http://localhost:8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("REQUEST_TIMEOUT", "10s")

	// PORT no tiene default: sin puerto el proceso no arranca.
	port := strings.TrimSpace(v.GetString("PORT"))
	// Normalizamos por si alguien manda ":8080"
	port = strings.TrimPrefix(port, ":")
	if port == "" {
		return Config{}, fmt.Errorf("missing required env var: PORT")
	}

	timeout, err := time.ParseDuration(strings.TrimSpace(v.GetString("REQUEST_TIMEOUT")))
	if err != nil || timeout <= 0 {
		return Config{}, fmt.Errorf("invalid REQUEST_TIMEOUT: %q", v.GetString("REQUEST_TIMEOUT"))
	}

	databasePath := strings.TrimSpace(v.GetString("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "inventory.db"
	}

	return Config{
		Host:           strings.TrimSpace(v.GetString("HOST")),
		Port:           port,
		DatabasePath:   databasePath,
		DatabaseURL:    strings.TrimSpace(v.GetString("DATABASE_URL")),
		AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		LogLevel:       strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		LogFormat:      strings.ToLower(strings.TrimSpace(v.GetString("LOG_FORMAT"))),
		RequestTimeout: timeout,
	}, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if value := strings.TrimSpace(part); value != "" {
			out = append(out, value)
		}
	}
	return out
}
