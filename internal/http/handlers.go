package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fairyhunter13/inventory-service/internal/auth"
	"github.com/fairyhunter13/inventory-service/internal/config"
	httpopenapi "github.com/fairyhunter13/inventory-service/internal/http/openapi"
	"github.com/fairyhunter13/inventory-service/internal/inventory"
	"github.com/fairyhunter13/inventory-service/internal/model"
	"github.com/fairyhunter13/inventory-service/internal/obs"
)

const maxBodyBytes = 1 << 20

type App struct {
	Cfg     config.Config
	Service *inventory.Service
	Auth    *auth.Directory
	started time.Time
}

type productRequest struct {
	Name     string `json:"name"`
	Quantity *int   `json:"quantity"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string `json:"message"`
	auth.Session
}

func NewApp(cfg config.Config, svc *inventory.Service, dir *auth.Directory) *App {
	return &App{Cfg: cfg, Service: svc, Auth: dir, started: time.Now()}
}

// decodeJSON reads a single JSON object into v, rejecting unknown fields.
// It writes the error response itself and reports whether decoding worked.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		WriteJSONError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "expected application/json")
		return false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

func decodeProduct(w http.ResponseWriter, r *http.Request) (productRequest, bool) {
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return req, false
	}
	if req.Quantity == nil {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "quantity is required")
		return req, false
	}
	return req, true
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	b := a.Service.Backend()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"storage":    b.Name(),
		"identity":   b.Identity().String(),
		"uptime_sec": time.Since(a.started).Seconds(),
	})
}

func (a *App) loginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := a.Auth.Login(req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		obs.Logger.Warn("login_rejected",
			"username", req.Username,
			"request_id", RequestIDFromContext(r.Context()),
		)
		WriteJSONError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
		return
	}
	if err != nil {
		WriteJSONError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	obs.Logger.Info("login_succeeded", "username", s.Username, "request_id", RequestIDFromContext(r.Context()))
	writeJSON(w, http.StatusOK, loginResponse{Message: "Login successful", Session: s})
}

func (a *App) productsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ps, err := a.Service.ListProducts(r.Context())
		if err != nil {
			writeServiceError(w, r, err, http.StatusInternalServerError)
			return
		}
		if ps == nil {
			ps = []model.Product{}
		}
		writeJSON(w, http.StatusOK, ps)
	case http.MethodPost:
		req, ok := decodeProduct(w, r)
		if !ok {
			return
		}
		p, err := a.Service.CreateProduct(r.Context(), req.Name, *req.Quantity)
		if err != nil {
			writeServiceError(w, r, err, http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, p)
	default:
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	}
}

func (a *App) productHandler(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/products/")
	if raw == "" {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
		return
	}
	switch r.Method {
	case http.MethodGet, http.MethodPut, http.MethodDelete:
	default:
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	key, err := a.Service.ParseKey(raw)
	if err != nil {
		writeServiceError(w, r, err, http.StatusConflict)
		return
	}
	var p model.Product
	switch r.Method {
	case http.MethodGet:
		p, err = a.Service.GetProduct(r.Context(), key)
	case http.MethodPut:
		req, ok := decodeProduct(w, r)
		if !ok {
			return
		}
		p, err = a.Service.UpdateProduct(r.Context(), key, req.Name, *req.Quantity)
	case http.MethodDelete:
		p, err = a.Service.DeleteProduct(r.Context(), key)
	}
	if err != nil {
		writeServiceError(w, r, err, http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *App) activitiesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	as, err := a.Service.ListActivities(r.Context())
	if err != nil {
		writeServiceError(w, r, err, http.StatusInternalServerError)
		return
	}
	if as == nil {
		as = []model.Activity{}
	}
	writeJSON(w, http.StatusOK, as)
}

func (a *App) openapiHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(httpopenapi.YAML)
}

func (a *App) docsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	html := `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Inventory API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: 'openapi.yaml',
        dom_id: '#swagger-ui'
      });
    </script>
  </body>
</html>`
	_, _ = w.Write([]byte(html))
}
