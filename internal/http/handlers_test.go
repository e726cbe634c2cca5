package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fairyhunter13/inventory-service/internal/auth"
	"github.com/fairyhunter13/inventory-service/internal/blob"
	"github.com/fairyhunter13/inventory-service/internal/config"
	"github.com/fairyhunter13/inventory-service/internal/inventory"
	"github.com/fairyhunter13/inventory-service/internal/model"
	"github.com/fairyhunter13/inventory-service/internal/storage"
	"github.com/fairyhunter13/inventory-service/internal/storage/docstore"
	"github.com/fairyhunter13/inventory-service/internal/storage/sqlstore"
)

type errResp struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func setupApp(t *testing.T, b storage.Backend) http.Handler {
	t.Helper()
	cfg := config.Defaults()
	dir := auth.NewDirectory()
	if err := dir.Add(cfg.AdminUsername, cfg.AdminPassword, auth.RoleAdmin); err != nil {
		t.Fatalf("add admin: %v", err)
	}
	return NewRouter(NewApp(cfg, inventory.NewService(b), dir))
}

func documentBackend(t *testing.T) storage.Backend {
	t.Helper()
	return docstore.New(blob.NewMemory(), 0)
}

func sqliteBackend(t *testing.T) storage.Backend {
	t.Helper()
	s, err := sqlstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "inventory.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestOpenAPIServed(t *testing.T) {
	mux := setupApp(t, documentBackend(t))
	for _, p := range []string{"/openapi.yaml", "/api/openapi.yaml"} {
		rr := do(t, mux, http.MethodGet, p, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", p, rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct == "" {
			t.Fatalf("expected content-type set")
		}
		if !bytes.Contains(rr.Body.Bytes(), []byte("openapi:")) {
			t.Fatalf("expected openapi content")
		}
	}
}

func TestDocsServed(t *testing.T) {
	mux := setupApp(t, documentBackend(t))
	rr := do(t, mux, http.MethodGet, "/docs", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "swagger-ui") {
		t.Fatalf("expected swagger-ui in docs body")
	}
}

func TestHealthOK(t *testing.T) {
	mux := setupApp(t, documentBackend(t))
	rr := do(t, mux, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	h := decode[map[string]any](t, rr)
	if h["status"] != "ok" || h["storage"] != "document-memory" || h["identity"] != "name" {
		t.Fatalf("unexpected health: %v", h)
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestRequestIDEchoed(t *testing.T) {
	mux := setupApp(t, documentBackend(t))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "test-req-1")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-Id"); got != "test-req-1" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
}

func TestLogin(t *testing.T) {
	mux := setupApp(t, documentBackend(t))

	rr := do(t, mux, http.MethodPost, "/login", `{"username":"admin","password":"admin123"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	lr := decode[map[string]string](t, rr)
	if lr["message"] != "Login successful" || lr["username"] != "admin" || lr["role"] != "admin" || lr["token"] == "" {
		t.Fatalf("unexpected login response: %v", lr)
	}

	rr = do(t, mux, http.MethodPost, "/login", `{"username":"admin","password":"nope"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if e := decode[errResp](t, rr); e.Error != "invalid_credentials" {
		t.Fatalf("unexpected error: %+v", e)
	}

	rr = do(t, mux, http.MethodPost, "/login", `{"username":`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", rr.Code)
	}

	rr = do(t, mux, http.MethodGet, "/login", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

// Mouse scenario: create, list, rejected update, single Added activity.
func TestMouseScenario(t *testing.T) {
	mux := setupApp(t, documentBackend(t))

	rr := do(t, mux, http.MethodPost, "/products", `{"name":"Mouse","quantity":5}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if p := decode[model.Product](t, rr); p.Name != "Mouse" || p.Quantity != 5 {
		t.Fatalf("unexpected echo: %+v", p)
	}

	rr = do(t, mux, http.MethodGet, "/products", "")
	ps := decode[[]model.Product](t, rr)
	n := 0
	for _, p := range ps {
		if p.Name == "Mouse" {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("expected Mouse once, got %d in %+v", n, ps)
	}

	rr = do(t, mux, http.MethodPut, "/products/Mouse", `{"name":"Mouse","quantity":-1}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("update: expected 400, got %d", rr.Code)
	}
	if e := decode[errResp](t, rr); e.Error != "validation_error" {
		t.Fatalf("unexpected error: %+v", e)
	}

	rr = do(t, mux, http.MethodGet, "/activities", "")
	as := decode[[]model.Activity](t, rr)
	if len(as) != 1 || as[0].Action != model.ActionAdded {
		t.Fatalf("expected one Added activity, got %+v", as)
	}
}

func TestProductLifecycle(t *testing.T) {
	for name, open := range map[string]func(*testing.T) storage.Backend{
		"sqlite":   sqliteBackend,
		"document": documentBackend,
	} {
		t.Run(name, func(t *testing.T) {
			b := open(t)
			mux := setupApp(t, b)

			rr := do(t, mux, http.MethodPost, "/api/products", `{"name":"Widget","quantity":10}`)
			if rr.Code != http.StatusOK {
				t.Fatalf("create: %d %s", rr.Code, rr.Body.String())
			}
			created := decode[model.Product](t, rr)
			key := url.PathEscape(created.Name)
			if b.Identity() == storage.ByID {
				if created.ID == 0 {
					t.Fatalf("expected id on relational storage")
				}
				key = fmt.Sprint(created.ID)
			}

			rr = do(t, mux, http.MethodPost, "/products", `{"name":"Widget","quantity":1}`)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("duplicate: expected 400, got %d", rr.Code)
			}
			if e := decode[errResp](t, rr); e.Error != "conflict" {
				t.Fatalf("duplicate: unexpected error %+v", e)
			}

			rr = do(t, mux, http.MethodPut, "/products/"+key, `{"name":"Widget","quantity":7}`)
			if rr.Code != http.StatusOK {
				t.Fatalf("update: %d %s", rr.Code, rr.Body.String())
			}
			if p := decode[model.Product](t, rr); p.Quantity != 7 {
				t.Fatalf("update echo: %+v", p)
			}

			rr = do(t, mux, http.MethodGet, "/products/"+key, "")
			if p := decode[model.Product](t, rr); rr.Code != http.StatusOK || p.Quantity != 7 {
				t.Fatalf("get after update: %d %+v", rr.Code, p)
			}

			rr = do(t, mux, http.MethodDelete, "/products/"+key, "")
			if rr.Code != http.StatusOK {
				t.Fatalf("delete: %d %s", rr.Code, rr.Body.String())
			}
			if p := decode[model.Product](t, rr); p.Name != "Widget" || p.Quantity != 7 {
				t.Fatalf("delete echo: %+v", p)
			}

			rr = do(t, mux, http.MethodDelete, "/products/"+key, "")
			if rr.Code != http.StatusNotFound {
				t.Fatalf("second delete: expected 404, got %d", rr.Code)
			}

			rr = do(t, mux, http.MethodGet, "/products", "")
			if ps := decode[[]model.Product](t, rr); len(ps) != 0 {
				t.Fatalf("expected empty list, got %+v", ps)
			}

			rr = do(t, mux, http.MethodPost, "/products", `{"name":"Widget","quantity":3}`)
			if rr.Code != http.StatusOK {
				t.Fatalf("recreate: %d", rr.Code)
			}

			rr = do(t, mux, http.MethodGet, "/api/activities", "")
			as := decode[[]model.Activity](t, rr)
			want := []model.Action{model.ActionAdded, model.ActionDeleted, model.ActionUpdated, model.ActionAdded}
			if len(as) != len(want) {
				t.Fatalf("expected %d activities, got %+v", len(want), as)
			}
			for i, a := range want {
				if as[i].Action != a {
					t.Fatalf("activity %d: expected %s, got %s", i, a, as[i].Action)
				}
			}
		})
	}
}

func TestEmptyListsAreArrays(t *testing.T) {
	mux := setupApp(t, documentBackend(t))
	for _, p := range []string{"/products", "/activities"} {
		rr := do(t, mux, http.MethodGet, p, "")
		if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
			t.Fatalf("%s: expected [], got %q", p, got)
		}
	}
}

func TestCreateValidation(t *testing.T) {
	mux := setupApp(t, documentBackend(t))
	cases := map[string]struct {
		body string
		code int
		err  string
	}{
		"negative quantity": {`{"name":"A","quantity":-1}`, http.StatusBadRequest, "validation_error"},
		"empty name":        {`{"name":"  ","quantity":1}`, http.StatusBadRequest, "validation_error"},
		"missing quantity":  {`{"name":"A"}`, http.StatusBadRequest, "validation_error"},
		"unknown field":     {`{"name":"A","quantity":1,"price":2}`, http.StatusBadRequest, "invalid_json"},
		"malformed":         {`{"name":`, http.StatusBadRequest, "invalid_json"},
	}
	for name, tc := range cases {
		rr := do(t, mux, http.MethodPost, "/products", tc.body)
		if rr.Code != tc.code {
			t.Fatalf("%s: expected %d, got %d", name, tc.code, rr.Code)
		}
		if e := decode[errResp](t, rr); e.Error != tc.err {
			t.Fatalf("%s: expected %s, got %+v", name, tc.err, e)
		}
	}
	rr := do(t, mux, http.MethodGet, "/activities", "")
	if as := decode[[]model.Activity](t, rr); len(as) != 0 {
		t.Fatalf("rejected creates must not log activity: %+v", as)
	}
}

func TestUnsupportedMediaType(t *testing.T) {
	mux := setupApp(t, documentBackend(t))
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewBufferString(`{"name":"A","quantity":1}`))
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rr.Code)
	}
}

func TestUpdateMissing(t *testing.T) {
	mux := setupApp(t, sqliteBackend(t))
	rr := do(t, mux, http.MethodPut, "/products/99", `{"name":"X","quantity":1}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	rr = do(t, mux, http.MethodPut, "/products/abc", `{"name":"X","quantity":1}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", rr.Code)
	}
}

func TestRenameConflictOnDocument(t *testing.T) {
	b := documentBackend(t)
	cfg := config.Defaults()
	svc := inventory.NewService(b, inventory.WithNamePolicy(inventory.NameApply))
	mux := NewRouter(NewApp(cfg, svc, auth.NewDirectory()))

	for _, body := range []string{`{"name":"A","quantity":1}`, `{"name":"B","quantity":2}`} {
		if rr := do(t, mux, http.MethodPost, "/products", body); rr.Code != http.StatusOK {
			t.Fatalf("seed: %d", rr.Code)
		}
	}
	rr := do(t, mux, http.MethodPut, "/products/A", `{"name":"B","quantity":5}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux := setupApp(t, documentBackend(t))
	for _, tc := range []struct{ method, path string }{
		{http.MethodDelete, "/products"},
		{http.MethodPost, "/activities"},
		{http.MethodPost, "/products/Mouse"},
	} {
		if rr := do(t, mux, tc.method, tc.path, ""); rr.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s: expected 405, got %d", tc.method, tc.path, rr.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	mux := setupApp(t, documentBackend(t))
	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected allow-origin *, got %q", got)
	}
}

func TestMetricsExposed(t *testing.T) {
	mux := setupApp(t, documentBackend(t))
	do(t, mux, http.MethodPost, "/products", `{"name":"Metered","quantity":1}`)
	rr := do(t, mux, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, name := range []string{"inventory_mutations_total", "inventory_http_requests_total"} {
		if !strings.Contains(body, name) {
			t.Fatalf("expected %s in metrics output", name)
		}
	}
}

func TestDebugVars(t *testing.T) {
	mux := setupApp(t, documentBackend(t))
	rr := do(t, mux, http.MethodGet, "/debug/vars", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "memstats") {
		t.Fatalf("expected expvar output, got %d", rr.Code)
	}
}
