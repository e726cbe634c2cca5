package httpapi

import (
	"expvar"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fairyhunter13/inventory-service/internal/obs"
)

// APIPrefix is the alternate root every route is also served under.
const APIPrefix = "/api"

// NewRouter registers HTTP routes and returns the handler with middleware.
func NewRouter(app *App) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", app.healthHandler)
	mux.HandleFunc("/login", app.loginHandler)
	mux.HandleFunc("/products", app.productsHandler)
	mux.HandleFunc("/products/", app.productHandler)
	mux.HandleFunc("/activities", app.activitiesHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{}))
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/openapi.yaml", app.openapiHandler)
	mux.HandleFunc("/docs", app.docsHandler)

	root := http.NewServeMux()
	root.Handle(APIPrefix+"/", http.StripPrefix(APIPrefix, mux))
	root.Handle("/", mux)
	return WithRequestID(WithLogging(WithCORS(app.Cfg.CORSAllowOrigin, root)))
}
