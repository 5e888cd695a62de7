package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/motel-occupancy/internal/config"
	"github.com/iliyamo/motel-occupancy/internal/database"
	"github.com/iliyamo/motel-occupancy/internal/handler"
	"github.com/iliyamo/motel-occupancy/internal/inventory"
	"github.com/iliyamo/motel-occupancy/internal/logger"
	"github.com/iliyamo/motel-occupancy/internal/middleware"
	"github.com/iliyamo/motel-occupancy/internal/obs"
	"github.com/iliyamo/motel-occupancy/internal/queue"
	"github.com/iliyamo/motel-occupancy/internal/repository"
	"github.com/iliyamo/motel-occupancy/internal/router"
	"github.com/iliyamo/motel-occupancy/internal/service"
)

const serviceName = "motel-occupancy"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, serviceName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, log)
	stop()
	os.Exit(exitCode(log, err))
}

// exitCode logs a fatal run error and flushes the logger before the process
// exits, since os.Exit skips deferred calls.
func exitCode(log *zap.Logger, err error) int {
	code := 0
	if err != nil {
		log.Error("server stopped", zap.Error(err))
		code = 1
	}
	_ = log.Sync()
	return code
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	shutdownTracer, err := obs.InitTracer(ctx, serviceName, cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	inv, err := inventory.Load(cfg.InventoryFile)
	if err != nil {
		return fmt.Errorf("inventory: %w", err)
	}
	added, err := store.ProvisionRooms(ctx, inv.Rooms())
	if err != nil {
		return fmt.Errorf("provision rooms: %w", err)
	}
	log.Info("rooms provisioned", zap.Int("added", added), zap.Int("inventory", len(inv.Entries)))

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	} else if cfg.Redis.Enabled {
		log.Warn("redis unreachable, rate limiting and report cache disabled", zap.String("addr", cfg.Redis.Address()))
	}
	reportCache := middleware.NewResponseCache(cfg.Cache, rdb, log)

	sinks := service.MultiSink{reportCache}
	if cfg.EventsEnabled {
		pub := queue.NewPublisher(cfg.RabbitURL, cfg.EventsExchange, log)
		defer pub.Close()
		sinks = append(sinks, pub)

		go func() {
			err := queue.StartAuditConsumer(ctx, queue.AuditConfig{
				URL:      cfg.RabbitURL,
				Exchange: cfg.EventsExchange,
				Queue:    cfg.AuditQueue,
				Dir:      cfg.AuditLogDir,
			}, log)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit consumer exited", zap.Error(err))
			}
		}()
	}

	rooms := service.NewRoomRegistry(store)
	defer rooms.Close()
	ledger := service.NewBookingLedger(store, rooms)
	coord := service.NewLifecycleCoordinator(store, rooms, ledger, sinks, log)
	reports := service.NewReportingAggregator(rooms, ledger)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	opt := router.Options{
		JWTSecret:   cfg.JWTSecret,
		RateLimit:   middleware.NewTokenBucket(cfg.RateLimit, rdb, log),
		ReportCache: reportCache.Middleware(),
	}
	router.RegisterRoutes(e)
	router.RegisterStaff(e, router.Handlers{
		Rooms:  handler.NewRoomHandler(rooms, log),
		Guests: handler.NewGuestHandler(coord, ledger, log),
	}, opt)
	router.RegisterReports(e, handler.NewReportHandler(reports, log), opt)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(sctx)
}

// openStore picks the storage backend named by STORE_DRIVER.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (repository.Store, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn("using in-memory store, data is lost on restart")
		return repository.NewMemoryStore(), func() {}, nil
	}

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	if cfg.DB.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}
	log.Info("connected to mysql", zap.String("host", cfg.DB.Host), zap.String("db", cfg.DB.Name))
	return repository.NewMySQLStore(db), func() { db.Close() }, nil
}
