// Command matchcore runs the multi-symbol matching engine: the core
// order books, position accounting, market-data fan-out, and the HTTP/
// WebSocket surfaces in front of them, wired together with
// go.uber.org/fx dependency injection following the teacher's
// cmd/gateway/main.go bootstrap shape.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	apihttp "github.com/nortvale/matchcore/internal/api/http"
	"github.com/nortvale/matchcore/internal/audit"
	"github.com/nortvale/matchcore/internal/auth"
	"github.com/nortvale/matchcore/internal/config"
	"github.com/nortvale/matchcore/internal/db"
	"github.com/nortvale/matchcore/internal/db/repositories"
	"github.com/nortvale/matchcore/internal/eventbus"
	"github.com/nortvale/matchcore/internal/metrics"
	"github.com/nortvale/matchcore/internal/positions"
	"github.com/nortvale/matchcore/internal/registry"
	ws "github.com/nortvale/matchcore/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "directory holding config.yaml")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := config.InitLogger(cfg)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	app := fx.New(
		fx.Supply(cfg, logger),
		fx.Provide(
			newRegistry,
			newBus,
			newPositions,
			newMetrics,
			newAuthService,
			newPersistence,
			newAuditPublisher,
			newWebSocketHub,
			newHandlers,
			newRouter,
		),
		fx.Invoke(runBootstrapAndServe),
	)

	app.Run()
}

func newRegistry(cfg *config.Config, logger *zap.Logger) *registry.Registry {
	return registry.New(cfg.Trading.Symbols, cfg.Trading.TradeRingCapacity, logger)
}

func newBus(cfg *config.Config) *eventbus.Bus {
	return eventbus.New(cfg.Trading.EventBusCapacity)
}

func newPositions(logger *zap.Logger) *positions.Store {
	return positions.New(logger)
}

func newMetrics() *metrics.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

func newAuthService(logger *zap.Logger, cfg *config.Config) *auth.Service {
	return auth.NewService(auth.ServiceParams{Logger: logger, Config: cfg})
}

// newPersistence connects to the configured database and builds the
// repository/circuit-breaker bundle the HTTP layer writes through. A
// connection failure degrades the process to in-memory-only operation
// rather than refusing to start: matching never depends on storage.
func newPersistence(cfg *config.Config, logger *zap.Logger) *apihttp.Persistence {
	gormDB, err := db.Connect(cfg, logger)
	if err != nil {
		logger.Warn("database unavailable, running without persistence", zap.Error(err))
		return nil
	}
	if err := repositories.Migrate(gormDB); err != nil {
		logger.Warn("schema migration failed, running without persistence", zap.Error(err))
		return nil
	}
	return &apihttp.Persistence{
		Writer:    db.NewWriter(logger),
		Orders:    repositories.NewOrderRepository(gormDB, logger),
		Trades:    repositories.NewTradeRepository(gormDB, logger),
		Positions: repositories.NewPositionRepository(gormDB, logger),
	}
}

// newAuditPublisher connects the trade-audit sink. Like persistence,
// failure to connect degrades to no audit publishing rather than
// blocking startup.
func newAuditPublisher(cfg *config.Config, logger *zap.Logger) *audit.Publisher {
	watermillLogger := watermill.NewStdLogger(false, false)
	pub, err := audit.New(cfg.Audit.NATSURL, cfg.Audit.Subject, 8, watermillLogger, logger)
	if err != nil {
		logger.Warn("audit sink unavailable, trades will not be published to NATS", zap.Error(err))
		return nil
	}
	return pub
}

func newWebSocketHub(logger *zap.Logger) *ws.Hub {
	return ws.NewHub(logger)
}

func newHandlers(reg *registry.Registry, posStore *positions.Store, bus *eventbus.Bus, m *metrics.Metrics, auditPub *audit.Publisher, persistence *apihttp.Persistence, logger *zap.Logger) *apihttp.Handlers {
	return apihttp.NewHandlers(reg, posStore, bus, m, auditPub, persistence, logger)
}

func newRouter(h *apihttp.Handlers, authService *auth.Service, logger *zap.Logger) *gin.Engine {
	return apihttp.NewRouter(h, authService, 120, logger)
}

// runBootstrapAndServe mounts the WebSocket upgrade endpoint onto the
// REST router, hydrates the core from storage, starts the combined HTTP
// server, and registers graceful shutdown — following the teacher's
// ServerParams.Lifecycle.Append pattern in internal/gateway/server.go.
func runBootstrapAndServe(
	lc fx.Lifecycle,
	reg *registry.Registry,
	posStore *positions.Store,
	bus *eventbus.Bus,
	hub *ws.Hub,
	persistence *apihttp.Persistence,
	auditPub *audit.Publisher,
	router *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
) {
	wsHandler := ws.NewHandler(hub, bus, func(symbol string) bool {
		_, err := reg.Lookup(symbol)
		return err == nil
	}, cfg.WebSocket.Path, cfg.WebSocket.RateLimitPerS, logger)
	wsHandler.RegisterRoutes(router)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{Addr: addr, Handler: router}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			hydrate(ctx, reg, posStore, persistence, logger)

			go func() {
				logger.Info("starting HTTP server", zap.String("address", addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server stopped unexpectedly", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down")
			hub.Shutdown()
			if auditPub != nil {
				if err := auditPub.Close(); err != nil {
					logger.Warn("error closing audit publisher", zap.Error(err))
				}
			}
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

// hydrate replays every symbol's open orders and every user's positions
// from storage into the in-memory core, per §6.3. A nil Persistence
// bundle is a no-op: the process simply starts with empty books.
func hydrate(ctx context.Context, reg *registry.Registry, posStore *positions.Store, persistence *apihttp.Persistence, logger *zap.Logger) {
	if persistence == nil {
		return
	}

	for _, symbol := range reg.Symbols() {
		engine, err := reg.Lookup(symbol)
		if err != nil {
			continue
		}
		orders, err := persistence.Orders.ListOpenOrdersBySymbol(ctx, symbol)
		if err != nil {
			logger.Error("failed to hydrate open orders", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		for _, o := range orders {
			engine.Restore(o)
		}
		logger.Info("hydrated open orders", zap.String("symbol", symbol), zap.Int("count", len(orders)))
	}

	allPositions, err := persistence.Positions.ListAll(ctx)
	if err != nil {
		logger.Error("failed to hydrate positions", zap.Error(err))
		return
	}
	for _, p := range allPositions {
		posStore.Restore(p)
	}
	logger.Info("hydrated positions", zap.Int("count", len(allPositions)))
}
