package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/supportdesk/ticket-service/internal/api/http"
	"github.com/supportdesk/ticket-service/internal/api/http/handlers"
	"github.com/supportdesk/ticket-service/internal/auth"
	"github.com/supportdesk/ticket-service/internal/config"
	"github.com/supportdesk/ticket-service/internal/events"
	"github.com/supportdesk/ticket-service/internal/notification"
	"github.com/supportdesk/ticket-service/internal/observability"
	"github.com/supportdesk/ticket-service/internal/persistence"
	"github.com/supportdesk/ticket-service/internal/repository"
	"github.com/supportdesk/ticket-service/internal/service"
	"github.com/supportdesk/ticket-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// stores holds the selected repositories and the handles that must be closed on exit.
type stores struct {
	tickets repository.TicketRepository
	users   repository.UserRepository
	checks  []handlers.Dependency
	closers []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func main() {
	envFile := pflag.String("env-file", "", "path to a .env file to load before reading the environment")
	migrateOnly := pflag.Bool("migrate-only", false, "apply postgres migrations and exit")
	pflag.Parse()

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics("tickets")

	st, err := openStores(ctx, cfg, metrics, logger, *migrateOnly)
	if err != nil {
		logger.Fatal("failed to open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer st.close()
	if *migrateOnly {
		logger.Info("migrations applied")
		return
	}

	notifier, err := openNotifier(ctx, cfg, logger, st)
	if err != nil {
		logger.Fatal("failed to init notifier", zap.String("driver", cfg.Notification.Driver), zap.Error(err))
	}

	notifyWorker := worker.NewNotificationWorker(notifier, logger, metrics, cfg.Notification.QueueSize)
	notifyWorker.Start(cfg.Notification.Workers)

	dispatcher := events.NewInMemoryDispatcher()
	service.NewNotificationService(dispatcher, notifyWorker, logger).RegisterHandlers()

	deps := service.TicketDependencies{
		TicketRepo: st.tickets,
		Dispatcher: dispatcher,
		Logger:     logger,
	}
	ticketService := service.NewTicketService(deps)
	commentService := service.NewCommentService(deps)
	moderatorService := service.NewModeratorService(st.users, nil)
	authService := service.NewAuthService(*cfg, st.users)

	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		admin, err := authService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
		if err != nil {
			logger.Fatal("failed to seed admin", zap.Error(err))
		}
		logger.Info("admin account ready", zap.String("user_id", admin.ID))
	}

	app := httptransport.NewApp(cfg.App.Name)
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:        cfg.App.RequestTimeout(),
		RateLimitRPS:   cfg.App.RateLimitRPS,
		RateLimitBurst: cfg.App.RateLimitBurst,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, logger, st.checks...),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Comments:       handlers.NewCommentsHandler(commentService),
		Moderators:     handlers.NewModeratorsHandler(moderatorService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), st.users),
		Metrics:        metrics,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("store", cfg.Store.Driver))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	if err := notifyWorker.Stop(stopCtx); err != nil {
		logger.Error("notification worker shutdown", zap.Error(err))
	}
}

func openStores(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger, migrateOnly bool) (*stores, error) {
	st := &stores{}
	switch cfg.Store.Driver {
	case config.StorePostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, pg.Close)
		if cfg.Postgres.RunMigrations || migrateOnly {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				st.close()
				return nil, err
			}
		}
		st.tickets = repository.NewTicketRepository(pg.PoolHandle(), metrics)
		st.users = repository.NewUserRepository(pg.PoolHandle(), metrics)
		st.checks = append(st.checks, handlers.Dependency{Name: "postgres", Ping: pg.Ping})

	case config.StoreMongo:
		if migrateOnly {
			return nil, fmt.Errorf("--migrate-only requires STORE_DRIVER=%s", config.StorePostgres)
		}
		mg, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			mg.Close(closeCtx)
		})
		if err := repository.EnsureMongoIndexes(ctx, mg.DB); err != nil {
			st.close()
			return nil, err
		}
		st.tickets = repository.NewMongoTicketRepository(mg.DB, metrics)
		st.users = repository.NewMongoUserRepository(mg.DB, metrics)
		st.checks = append(st.checks, handlers.Dependency{Name: "mongo", Ping: mg.Ping})

	default:
		if migrateOnly {
			return nil, fmt.Errorf("--migrate-only requires STORE_DRIVER=%s", config.StorePostgres)
		}
		logger.Warn("using in-memory store; data is lost on restart")
		st.tickets = repository.NewMemoryTicketRepository(metrics)
		st.users = repository.NewMemoryUserRepository(metrics)
	}
	return st, nil
}

// openNotifier registers the redis connection with st so it is probed and closed with the stores.
func openNotifier(ctx context.Context, cfg *config.Config, logger *zap.Logger, st *stores) (notification.Notifier, error) {
	if cfg.Notification.Driver != config.NotifyRedis {
		return notification.NewLogNotifier(logger), nil
	}
	rdb, err := persistence.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		return nil, err
	}
	st.closers = append(st.closers, rdb.Close)
	st.checks = append(st.checks, handlers.Dependency{Name: "redis", Ping: rdb.Ping})
	return notification.NewRedisNotifier(rdb.Client, cfg.Notification.Channel, cfg.Notification.ListLimit), nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
