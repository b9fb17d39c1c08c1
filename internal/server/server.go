package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/askweb/config"
	"github.com/mohammad-safakhou/askweb/internal/chat"
	"github.com/mohammad-safakhou/askweb/internal/store"
	"github.com/mohammad-safakhou/askweb/internal/telemetry"
	"github.com/mohammad-safakhou/askweb/provider"
	"github.com/mohammad-safakhou/askweb/tools/webfetch"
	"github.com/mohammad-safakhou/askweb/tools/webscrape"
	"github.com/mohammad-safakhou/askweb/tools/websearch"
)

func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry setup: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	dsn, err := cfg.Databases.Postgres.DSN()
	if err != nil {
		return err
	}
	if err := Migrate("file://migrations", dsn, "up", 0); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return err
	}

	secret := cfg.General.JWTSecret
	if secret == "" {
		return fmt.Errorf("jwt secret not configured (general.jwt_secret)")
	}

	driver, err := buildChatDriver(ctx, cfg, baseLogger)
	if err != nil {
		return err
	}

	api := e.Group("/api")
	auth := &AuthHandler{Store: st, Secret: []byte(secret)}
	auth.Register(api.Group("/auth"))

	ch := &ChatHandler{Store: st, Driver: driver, Logger: log.New(log.Writer(), "[CHAT] ", log.LstdFlags)}
	ch.Register(api.Group("/chat"), auth.Secret)

	cv := &ConversationsHandler{Store: st}
	cv.Register(api.Group("/conversations"), auth.Secret)

	addr := cfg.General.Listen
	if addr == "" {
		addr = ":8080"
	}
	if addr[0] != ':' {
		addr = ":" + addr
	}
	return e.Start(addr)
}

// buildChatDriver wires the search and scrape tools into a driver.
func buildChatDriver(ctx context.Context, cfg *config.Config, logger *log.Logger) (*chat.Driver, error) {
	metrics := telemetry.NewMetrics()

	apiKey := cfg.Search.SerperAPIKey
	if websearch.Provider(cfg.Search.Provider) == websearch.BraveProvider {
		apiKey = cfg.Search.BraveAPIKey
	}
	searcher, err := websearch.NewSearcher(websearch.Provider(cfg.Search.Provider), apiKey)
	if err != nil {
		return nil, fmt.Errorf("search provider %q: %w", cfg.Search.Provider, err)
	}
	if addr := cfg.Databases.Redis.Addr(); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Databases.Redis.Password,
			DB:       cfg.Databases.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis connection failed (%s): %w", addr, err)
		}
		searcher = websearch.NewCached(searcher, rdb, cfg.Search.CacheTTL)
	}

	fetcher, err := webfetch.New(webfetch.Kind(cfg.Scrape.Fetcher), webfetch.Options{
		Timeout:   cfg.Scrape.Timeout,
		MaxChars:  cfg.Scrape.MaxChars,
		UserAgent: cfg.Scrape.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("fetcher %q: %w", cfg.Scrape.Fetcher, err)
	}
	engine := webscrape.NewEngine(fetcher, cfg.Scrape.Concurrency)
	engine.Logger = logger
	engine.Metrics = metrics

	registry := chat.NewRegistry()
	registry.Logger = logger
	registry.Metrics = metrics
	if err := registry.Register(&chat.SearchWebTool{Searcher: searcher, MaxResults: cfg.Search.MaxResults}); err != nil {
		return nil, err
	}
	if err := registry.Register(&chat.ScrapePagesTool{Engine: engine}); err != nil {
		return nil, err
	}

	llm, err := provider.NewProvider(provider.OpenAI, cfg.Providers)
	if err != nil {
		return nil, err
	}

	return &chat.Driver{
		Provider:     llm,
		Registry:     registry,
		MaxSteps:     cfg.Chat.MaxSteps,
		SystemPrompt: cfg.Chat.SystemPrompt,
		Logger:       logger,
		Metrics:      metrics,
	}, nil
}
