package main

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/Simplici0/o.prints/internal/catalog"
	"github.com/Simplici0/o.prints/internal/db"
	"github.com/Simplici0/o.prints/internal/migrations"
	"github.com/Simplici0/o.prints/internal/seed"
)

func newTestServer(t *testing.T) (*server, *sql.DB) {
	t.Helper()

	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "server-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if _, err := migrations.Up(ctx, database, "../../migrations"); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if _, err := seed.Run(ctx, database); err != nil {
		t.Fatalf("run seed: %v", err)
	}

	return &server{db: database, catalog: catalog.NewStore(database), metrics: newMetrics()}, database
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
