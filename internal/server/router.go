package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"barkeep/internal/handlers"
	applog "barkeep/internal/log"
)

type apiRoute struct {
	path    string
	handler http.HandlerFunc
	subtree bool
}

var apiRoutes = []apiRoute{
	{path: "/app/api/ingredients", handler: handlers.IngredientResource, subtree: true},
	{path: "/app/api/cocktails", handler: handlers.CocktailResource, subtree: true},
	{path: "/app/api/tags/ingredients", handler: handlers.IngredientTags},
	{path: "/app/api/tags/cocktails", handler: handlers.CocktailTags},
	{path: "/app/api/glassware", handler: handlers.Glassware},
	{path: "/app/api/units", handler: handlers.MeasureUnits},
	{path: "/app/api/notifications", handler: handlers.Notifications},
}

// newRouter registers every route. With a registry the API routes are
// instrumented and /metrics serves the registry.
func newRouter(registry *prometheus.Registry) (http.Handler, error) {
	ctx := context.Background()
	mux := http.NewServeMux()
	applog.Debug(ctx, "registering http routes")
	mux.HandleFunc("/healthz", handlers.Health)
	applog.Debug(ctx, "route registered", "path", "/healthz")
	mux.HandleFunc("/login", handlers.Login)
	applog.Debug(ctx, "route registered", "path", "/login")
	mux.HandleFunc("/logout", handlers.Logout)
	applog.Debug(ctx, "route registered", "path", "/logout")

	instrument := func(_ string, h http.Handler) http.Handler { return h }
	if registry != nil {
		requests := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barkeep",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "API requests by route, method and status code.",
		}, []string{"route", "method", "code"})
		if err := registry.Register(requests); err != nil {
			return nil, err
		}
		instrument = func(route string, h http.Handler) http.Handler {
			return promhttp.InstrumentHandlerCounter(requests.MustCurryWith(prometheus.Labels{"route": route}), h)
		}
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		applog.Debug(ctx, "route registered", "path", "/metrics")
	}

	for _, route := range apiRoutes {
		handler := handlers.RequireAuthentication(instrument(route.path, route.handler))
		mux.Handle(route.path, handler)
		if route.subtree {
			mux.Handle(route.path+"/", handler)
		}
		applog.Debug(ctx, "route registered", "path", route.path, "protected", true)
	}
	return mux, nil
}
