package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/inventory-service/internal/auth"
	"github.com/fairyhunter13/inventory-service/internal/blob"
	"github.com/fairyhunter13/inventory-service/internal/config"
	httpapi "github.com/fairyhunter13/inventory-service/internal/http"
	"github.com/fairyhunter13/inventory-service/internal/inventory"
	"github.com/fairyhunter13/inventory-service/internal/model"
	"github.com/fairyhunter13/inventory-service/internal/storage"
	"github.com/fairyhunter13/inventory-service/internal/storage/docstore"
	"github.com/fairyhunter13/inventory-service/internal/storage/sqlstore"
)

type client struct {
	t    *testing.T
	base string
	id   storage.Identity
}

func start(t *testing.T, b storage.Backend) *client {
	t.Helper()
	dir := auth.NewDirectory()
	require.NoError(t, dir.Add("admin", "admin123", auth.RoleAdmin))
	srv := httptest.NewServer(httpapi.NewRouter(httpapi.NewApp(config.Defaults(), inventory.NewService(b), dir)))
	t.Cleanup(srv.Close)
	return &client{t: t, base: srv.URL + httpapi.APIPrefix, id: b.Identity()}
}

func (c *client) do(method, path string, body any, out any) int {
	c.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer func() { _ = resp.Body.Close() }()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (c *client) key(p model.Product) string {
	if c.id == storage.ByID {
		return fmt.Sprint(p.ID)
	}
	return url.PathEscape(p.Name)
}

func (c *client) create(name string, qty int) model.Product {
	c.t.Helper()
	var p model.Product
	code := c.do(http.MethodPost, "/products", map[string]any{"name": name, "quantity": qty}, &p)
	require.Equal(c.t, http.StatusOK, code, "create %s", name)
	return p
}

func (c *client) activities() []model.Activity {
	c.t.Helper()
	var as []model.Activity
	require.Equal(c.t, http.StatusOK, c.do(http.MethodGet, "/activities", nil, &as))
	return as
}

func (c *client) products() []model.Product {
	c.t.Helper()
	var ps []model.Product
	require.Equal(c.t, http.StatusOK, c.do(http.MethodGet, "/products", nil, &ps))
	return ps
}

func backends(t *testing.T) map[string]storage.Backend {
	t.Helper()
	sq, err := sqlstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "inventory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })
	fs, err := blob.NewFS(t.TempDir())
	require.NoError(t, err)
	return map[string]storage.Backend{
		"sqlite":      sq,
		"document-fs": docstore.New(fs, 0),
	}
}

func TestIntegration_RoundTrip(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c := start(t, b)
			w := c.create("Widget", 10)

			var got model.Product
			require.Equal(t, http.StatusOK, c.do(http.MethodPut, "/products/"+c.key(w), map[string]any{"name": "Widget", "quantity": 7}, &got))
			assert.Equal(t, 7, got.Quantity)

			ps := c.products()
			require.Len(t, ps, 1)
			assert.Equal(t, 7, ps[0].Quantity)

			require.Equal(t, http.StatusOK, c.do(http.MethodDelete, "/products/"+c.key(w), nil, nil))
			assert.Empty(t, c.products())

			c.create("Widget", 3)

			as := c.activities()
			require.Len(t, as, 4)
			assert.Equal(t, "Added product 'Widget' (quantity 3)", as[0].Details)
			assert.Equal(t, "Deleted product 'Widget' (quantity 7)", as[1].Details)
			assert.Equal(t, "Updated product 'Widget': quantity 10 -> 7", as[2].Details)
			assert.Equal(t, "Added product 'Widget' (quantity 10)", as[3].Details)
		})
	}
}

func TestIntegration_FailuresLeaveNoTrace(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c := start(t, b)
			m := c.create("Mouse", 5)

			assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/products", map[string]any{"name": "Mouse", "quantity": 1}, nil))
			assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/products", map[string]any{"name": "Pad", "quantity": -2}, nil))
			assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPut, "/products/"+c.key(m), map[string]any{"name": "Mouse", "quantity": -1}, nil))

			missing := model.Product{ID: 9999, Name: "Ghost"}
			assert.Equal(t, http.StatusNotFound, c.do(http.MethodPut, "/products/"+c.key(missing), map[string]any{"name": "Ghost", "quantity": 1}, nil))
			assert.Equal(t, http.StatusNotFound, c.do(http.MethodDelete, "/products/"+c.key(missing), nil, nil))

			ps := c.products()
			require.Len(t, ps, 1)
			assert.Equal(t, 5, ps[0].Quantity)
			as := c.activities()
			require.Len(t, as, 1)
			assert.Equal(t, model.ActionAdded, as[0].Action)
		})
	}
}

func TestIntegration_DocumentRetention(t *testing.T) {
	fs, err := blob.NewFS(t.TempDir())
	require.NoError(t, err)
	c := start(t, docstore.New(fs, 0))

	p := c.create("Counter", 0)
	for i := 1; i <= 50; i++ {
		require.Equal(t, http.StatusOK, c.do(http.MethodPut, "/products/"+c.key(p), map[string]any{"name": "Counter", "quantity": i}, nil))
	}

	as := c.activities()
	require.Len(t, as, 50)
	assert.Equal(t, "Updated product 'Counter': quantity 49 -> 50", as[0].Details)
	assert.Equal(t, "Updated product 'Counter': quantity 0 -> 1", as[49].Details, "the Added entry is evicted first")
	for i := 1; i < len(as); i++ {
		assert.False(t, as[i].Timestamp.After(as[i-1].Timestamp), "newest first")
	}
}

func TestIntegration_RelationalKeepsFullHistory(t *testing.T) {
	sq, err := sqlstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "inventory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })
	c := start(t, sq)

	p := c.create("Counter", 0)
	for i := 1; i <= 50; i++ {
		require.Equal(t, http.StatusOK, c.do(http.MethodPut, "/products/"+c.key(p), map[string]any{"name": "Counter", "quantity": i}, nil))
	}
	assert.Len(t, c.activities(), 51)
}

func TestIntegration_DocumentsSurviveRestart(t *testing.T) {
	root := t.TempDir()
	fs, err := blob.NewFS(root)
	require.NoError(t, err)
	c := start(t, docstore.New(fs, 0))
	c.create("Keyboard", 25)

	for _, key := range []string{docstore.ProductsKey, docstore.ActivitiesKey} {
		_, err := os.Stat(filepath.Join(root, key))
		require.NoError(t, err, key)
	}

	fs2, err := blob.NewFS(root)
	require.NoError(t, err)
	c2 := start(t, docstore.New(fs2, 0))
	ps := c2.products()
	require.Len(t, ps, 1)
	assert.Equal(t, "Keyboard", ps[0].Name)
	assert.Zero(t, ps[0].ID, "document products carry no id")
	assert.Len(t, c2.activities(), 1)
}

func TestIntegration_LoginThroughAPIPrefix(t *testing.T) {
	c := start(t, docstore.New(blob.NewMemory(), 0))
	var out map[string]string
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/login", map[string]string{"username": "admin", "password": "admin123"}, &out))
	assert.Equal(t, "Login successful", out["message"])
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/login", map[string]string{"username": "admin", "password": "x"}, nil))
}
