package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Lelo88/inventory-api-golang/internal/config"
	"github.com/Lelo88/inventory-api-golang/internal/httpx"
	"github.com/Lelo88/inventory-api-golang/internal/logging"
	"github.com/Lelo88/inventory-api-golang/internal/products"
)

type fakeStorage struct {
	products.RepositoryAPI

	pingErr   error
	schemaErr error

	pingCalled   bool
	schemaCalled bool
}

func (store *fakeStorage) Ping(ctx context.Context) error {
	store.pingCalled = true
	return store.pingErr
}

func (store *fakeStorage) EnsureSchema(ctx context.Context) error {
	store.schemaCalled = true
	return store.schemaErr
}

func testConfig() config.Config {
	return config.Config{
		Host:           "127.0.0.1",
		Port:           "7070",
		DatabasePath:   "inventory.db",
		AllowedOrigins: []string{"http://localhost", "http://localhost:8080"},
		LogLevel:       "info",
		LogFormat:      "json",
		RequestTimeout: 5 * time.Second,
	}
}

func fakeDeps(store *fakeStorage, closed *bool) appDeps {
	return appDeps{
		loadConfig: func() (config.Config, error) {
			return testConfig(), nil
		},
		openStorage: func(ctx context.Context, cfg config.Config) (appStorage, func(), error) {
			return store, func() { *closed = true }, nil
		},
		serve: func(ctx context.Context, server *http.Server) error {
			return nil
		},
		logOutput: io.Discard,
	}
}

func TestMain_FatalOnError(t *testing.T) {
	originalDeps := depsFn
	originalFatal := fatalf
	defer func() {
		depsFn = originalDeps
		fatalf = originalFatal
	}()

	expectedErr := errors.New("config failed")
	depsFn = func() appDeps {
		return appDeps{
			loadConfig: func() (config.Config, error) {
				return config.Config{}, expectedErr
			},
			openStorage: func(ctx context.Context, cfg config.Config) (appStorage, func(), error) {
				return nil, nil, errors.New("should not be called")
			},
			serve: func(ctx context.Context, server *http.Server) error {
				return nil
			},
			logOutput: io.Discard,
		}
	}

	fatalCalled := false
	var fatalArg any
	fatalf = func(args ...any) {
		fatalCalled = true
		if len(args) > 0 {
			fatalArg = args[0]
		}
	}

	main()

	require.True(t, fatalCalled)
	require.Equal(t, expectedErr, fatalArg)
}

func TestRun_ConfigError(t *testing.T) {
	closed := false
	deps := fakeDeps(&fakeStorage{}, &closed)
	deps.loadConfig = func() (config.Config, error) {
		return config.Config{}, errors.New("missing required env var: PORT")
	}

	err := run(context.Background(), deps)

	require.Error(t, err)
	require.False(t, closed)
}

func TestRun_OpenStorageError(t *testing.T) {
	closed := false
	deps := fakeDeps(&fakeStorage{}, &closed)
	openErr := errors.New("open failed")
	deps.openStorage = func(ctx context.Context, cfg config.Config) (appStorage, func(), error) {
		return nil, nil, openErr
	}

	err := run(context.Background(), deps)

	require.ErrorIs(t, err, openErr)
}

func TestRun_SchemaError(t *testing.T) {
	closed := false
	schemaErr := errors.New("migrate failed")
	store := &fakeStorage{schemaErr: schemaErr}

	err := run(context.Background(), fakeDeps(store, &closed))

	require.ErrorIs(t, err, schemaErr)
	require.True(t, closed)
}

func TestRun_ServeError(t *testing.T) {
	closed := false
	store := &fakeStorage{}
	deps := fakeDeps(store, &closed)
	var logs bytes.Buffer
	deps.logOutput = &logs
	deps.serve = func(ctx context.Context, server *http.Server) error {
		return errors.New("listen failed")
	}

	err := run(context.Background(), deps)

	require.Error(t, err)
	require.True(t, closed)
	require.True(t, store.schemaCalled)
	require.Contains(t, logs.String(), `"message":"listening"`)
}

func TestRun_Success(t *testing.T) {
	closed := false
	store := &fakeStorage{}
	deps := fakeDeps(store, &closed)
	var capturedAddr string
	deps.serve = func(ctx context.Context, server *http.Server) error {
		capturedAddr = server.Addr
		return nil
	}

	err := run(context.Background(), deps)

	require.NoError(t, err)
	require.True(t, closed)
	require.Equal(t, "127.0.0.1:7070", capturedAddr)
}

func TestOpenStorage_SQLite(t *testing.T) {
	cfg := testConfig()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "inventory.db")

	store, closeStore, err := openStorage(context.Background(), cfg)
	require.NoError(t, err)
	defer closeStore()

	require.IsType(t, &products.SQLiteRepository{}, store)
	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, store.Ping(context.Background()))
	require.Equal(t, "sqlite:"+cfg.DatabasePath, storageName(cfg))
}

func TestOpenStorage_PostgresError(t *testing.T) {
	cfg := testConfig()
	cfg.DatabaseURL = "not a url ::"

	_, _, err := openStorage(context.Background(), cfg)

	require.Error(t, err)
	require.Equal(t, "postgres", storageName(cfg))
}

func TestServe_ShutdownOnCancel(t *testing.T) {
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, server)
	}()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func newTestRouter(t *testing.T) (http.Handler, *products.SQLiteRepository) {
	t.Helper()

	cfg := testConfig()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "inventory.db")

	store, closeStore, err := openStorage(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(closeStore)
	require.NoError(t, store.EnsureSchema(context.Background()))

	return buildRouter(cfg, logging.New(io.Discard, "info", "json"), store), store.(*products.SQLiteRepository)
}

func TestBuildRouter_HealthReady(t *testing.T) {
	store := &fakeStorage{}
	router := buildRouter(testConfig(), logging.New(io.Discard, "info", "json"), store)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decodeMap(t, rec)["status"])
	require.NotEmpty(t, rec.Header().Get(httpx.HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ready", decodeMap(t, rec)["status"])
	require.True(t, store.pingCalled)
}

func TestBuildRouter_NotFound(t *testing.T) {
	router := buildRouter(testConfig(), logging.New(io.Discard, "info", "json"), &fakeStorage{})

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Not Found", decodeMap(t, rec)["detail"])
}

func TestBuildRouter_MethodNotAllowed(t *testing.T) {
	router := buildRouter(testConfig(), logging.New(io.Discard, "info", "json"), &fakeStorage{})

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, "Method Not Allowed", decodeMap(t, rec)["detail"])
}

func TestBuildRouter_ProductLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)

	form := url.Values{
		"name":        {"Widget"},
		"description": {"A widget"},
		"price":       {"9.99"},
		"quantity":    {"5"},
	}
	req := httptest.NewRequest(http.MethodPost, "/products/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", "http://localhost:8080")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "http://localhost:8080", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	created := decodeMap(t, rec)
	id := created["id"]
	require.NotNil(t, id)

	path := fmt.Sprintf("/products/%v", id)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, path, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Product not found", decodeMap(t, rec)["detail"])
}

func TestBuildRouter_StorageFailureIs500(t *testing.T) {
	cfg := testConfig()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "inventory.db")

	store, closeStore, err := openStorage(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, store.EnsureSchema(context.Background()))
	closeStore()

	var logs bytes.Buffer
	router := buildRouter(cfg, logging.New(&logs, "info", "json"), store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Internal Server Error", decodeMap(t, rec)["detail"])
	require.Contains(t, logs.String(), "product storage failure")
}

func TestBuildRouter_Metrics(t *testing.T) {
	router, _ := newTestRouter(t)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `inventory_http_requests_total{method="GET",route="/products",status="200"} 1`)
}

func decodeMap(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}
