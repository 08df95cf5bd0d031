package app

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Nenad034/olympichub-search/internal/config"
	"github.com/Nenad034/olympichub-search/internal/crm"
	handlers "github.com/Nenad034/olympichub-search/internal/http"
	"github.com/Nenad034/olympichub-search/internal/obs"
	"github.com/Nenad034/olympichub-search/internal/providers"
	"github.com/Nenad034/olympichub-search/internal/routes"
	"github.com/Nenad034/olympichub-search/internal/search"
)

type App struct {
	Router  http.Handler
	Metrics *obs.Metrics
	Logger  *slog.Logger
}

func SetAppConfig(cfg *config.Config) *App {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	registry := providers.NewRegistry()
	for _, pc := range cfg.Providers {
		timeout := time.Duration(pc.TimeoutMs) * time.Millisecond
		if timeout <= 0 {
			timeout = cfg.ProviderTimeout()
		}
		registry.Add(providers.NewHTTPProvider(pc.Name, pc.BaseURL, timeout))
	}
	if len(registry.All()) == 0 {
		// no upstreams configured, run against simulated inventory
		registry.Add(providers.NewMockProvider("mock1", 0.2, 0.10, 0))
		registry.Add(providers.NewMockProvider("mock2", 0.25, 0.12, 1))
	}

	customRegistry := prometheus.NewRegistry()
	metrics := obs.NewMetrics(customRegistry)
	agg := search.NewAggregator(registry, cfg.ProviderTimeout(), metrics, logger)

	var sales search.SalesCounter
	if cfg.CRM.BaseURL != "" {
		sales = crm.NewClient(cfg.CRM.BaseURL, cfg.CRMTimeout())
	}
	svc := search.NewService(agg, sales, logger)

	newEngine := func() *search.Engine {
		return search.NewEngine(svc, cfg.Debounce(), metrics, logger)
	}
	rl := search.NewIPRateLimiter(cfg.Search.RateLimitCap, time.Duration(cfg.Search.RateLimitRefillS)*time.Second)
	h := handlers.NewHandler(svc, newEngine, rl, metrics)

	router := routes.GetRoutes(h, metrics, logger)

	return &App{
		Router:  router,
		Metrics: metrics,
		Logger:  logger,
	}
}
