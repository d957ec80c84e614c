package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/errgroup"

	"github.com/contentpulse/streamgate/config"
	"github.com/contentpulse/streamgate/src/auth"
	"github.com/contentpulse/streamgate/src/bridge"
	"github.com/contentpulse/streamgate/src/gateway"
	"github.com/contentpulse/streamgate/src/generate"
	"github.com/contentpulse/streamgate/src/hub"
	"github.com/contentpulse/streamgate/src/metrics"
	"github.com/contentpulse/streamgate/src/service"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "streamgate: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging)

	m := metrics.New(prometheus.DefaultRegisterer)

	// Generation adapters are registered here at startup. An empty
	// registry means every stream type is served by the fallback
	// generator, which keeps the protocol fully functional.
	adapters := generate.NewRegistry()
	fallback := generate.NewFallback(generate.DefaultDelays(), time.Second)

	h := hub.New(adapters, fallback, m, logger, hub.Options{
		SendQueueSize:     cfg.Socket.SendQueueSize,
		HeartbeatInterval: cfg.Heartbeat.Interval(),
		HeartbeatTimeout:  cfg.Heartbeat.Timeout(),
	})
	go h.Run()
	go h.RunSupervisor()

	svc := service.New(h, logger)
	gw := gateway.New(h, svc, newVerifier(cfg.Auth, logger), cfg.Socket, logger)

	var rb *bridge.RedisBridge
	if cfg.Redis.Enabled {
		rb = bridge.NewRedisBridge(&bridge.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		}, h, logger)
		if err := rb.Start(); err != nil {
			logger.Warn().Err(err).Msg("redis bridge unavailable, running standalone")
			rb = nil
		} else {
			h.SetBridge(rb)
			logger.Info().Str("redis_addr", cfg.Redis.Addr).Msg("redis bridge connected")
		}
	}

	app := fiber.New()
	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	gw.RegisterRoutes(app)

	// The WebSocket upgrade needs the raw *fasthttp.RequestCtx, which
	// Fiber v3 does not expose, so route it ahead of the fiber handler.
	wsHandler := gw.FastHTTPHandler()
	appHandler := app.Handler()
	server := &fasthttp.Server{
		Name: "streamgate",
		Handler: func(ctx *fasthttp.RequestCtx) {
			if string(ctx.Path()) == "/ws" {
				wsHandler(ctx)
				return
			}
			appHandler(ctx)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("listening")
		return server.ListenAndServe(cfg.Server.Addr)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		h.Stop()
		if rb != nil {
			if err := rb.Stop(); err != nil {
				logger.Error().Err(err).Msg("bridge stop error")
			}
		}
		return server.Shutdown()
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var out = os.Stderr
	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	if cfg.Pretty {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out})
	}
	return logger
}

// newVerifier selects JWT verification when a secret is configured,
// otherwise falls back to the static token map.
func newVerifier(cfg config.AuthConfig, logger zerolog.Logger) auth.Verifier {
	if cfg.JWTSecret != "" {
		return auth.NewJWTVerifier([]byte(cfg.JWTSecret))
	}
	if len(cfg.StaticTokens) == 0 {
		logger.Warn().Msg("no jwt secret or static tokens configured; all connections will be rejected")
	}
	tokens := make(map[string]auth.Identity, len(cfg.StaticTokens))
	for token, userID := range cfg.StaticTokens {
		tokens[token] = auth.Identity{UserID: userID}
	}
	return auth.NewStaticVerifier(tokens)
}
