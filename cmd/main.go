package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/YelzhanWeb/refugio-pos/internal/adapter/backend"
	"github.com/YelzhanWeb/refugio-pos/internal/adapter/logger"
	"github.com/YelzhanWeb/refugio-pos/internal/adapter/memory"
	"github.com/YelzhanWeb/refugio-pos/internal/adapter/postgres"
	"github.com/YelzhanWeb/refugio-pos/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/refugio-pos/internal/app/catalog"
	"github.com/YelzhanWeb/refugio-pos/internal/app/menugen"
	"github.com/YelzhanWeb/refugio-pos/internal/app/notify"
	"github.com/YelzhanWeb/refugio-pos/internal/app/order"
	"github.com/YelzhanWeb/refugio-pos/internal/app/session"
	"github.com/YelzhanWeb/refugio-pos/internal/app/tablesync"
	"github.com/YelzhanWeb/refugio-pos/internal/app/views"
	"github.com/YelzhanWeb/refugio-pos/internal/config"
	"github.com/YelzhanWeb/refugio-pos/internal/domain"
	"github.com/YelzhanWeb/refugio-pos/internal/interfaces"

	amqpAdapter "github.com/YelzhanWeb/refugio-pos/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/refugio-pos/internal/adapter/http"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse command-line flags
	mode := flag.String("mode", "terminal", "Service mode: terminal, notification-subscriber")
	configPath := flag.String("config", "config.yaml", "Path to the YAML config file")
	port := flag.Int("port", 0, "HTTP port (overrides the config file)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.HTTP.Port = *port
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid --port: %v", err)
		}
	}

	// Initialize logger
	lgr := logger.New(*mode, logger.Options{Level: cfg.Logging.Level, File: cfg.Logging.File})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Route to appropriate service
	switch *mode {
	case "terminal":
		err = runTerminal(ctx, cfg, lgr)
	case "notification-subscriber":
		err = runNotificationSubscriber(ctx, cfg, lgr)
	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}

	if err != nil {
		lgr.Error("service_failed", "Service stopped with error", "runtime", nil, err)
		os.Exit(1)
	}
}

func runTerminal(ctx context.Context, cfg *config.Config, lgr logger.Logger) error {
	origin := "terminal-" + uuid.NewString()

	// Backend
	var gateway interfaces.Backend
	if cfg.Backend.BaseURL == "" {
		gateway = memory.NewDemoBackend()
		lgr.Warn("demo_backend", "No backend url configured, using the in-memory demo backend", "startup", nil)
	} else {
		gateway = backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)
		lgr.Info("backend_configured", "Using REST backend", "startup", map[string]interface{}{
			"base_url": cfg.Backend.BaseURL,
		})
	}

	// Journal and session registry
	journal, sessions, closeStorage, err := openStorage(ctx, cfg, lgr)
	if err != nil {
		return err
	}
	defer closeStorage()

	// Notifications
	center := notify.NewCenter(cfg.Notifications.Capacity)
	sinks := notify.Multi{center, notify.NewLogNotifier(lgr)}

	var mqConn rabbitmq.Connection
	if cfg.RabbitMQ.Enabled() {
		mqConn, err = rabbitmq.Connect(cfg.RabbitMQ)
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		defer mqConn.Close()

		lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
			"host":     cfg.RabbitMQ.Host,
			"exchange": cfg.RabbitMQ.Exchange,
		})
		sinks = append(sinks, notify.NewBroadcaster(rabbitmq.NewPublisher(mqConn, cfg.RabbitMQ.Exchange), origin, lgr))
	}

	// Initialize services
	catalogSvc := catalog.NewService(gateway, sinks, lgr)
	store := tablesync.NewStore(domain.NewLayout(cfg.Tables.Count))
	syncSvc := tablesync.NewService(gateway, store, catalogSvc.Lookup, lgr)
	manager := session.NewManager(catalogSvc, syncSvc, sessions, sinks, lgr, cfg.Polling.Interval)
	orderSvc := order.NewService(gateway, syncSvc, store, journal, sessions, manager, sinks, lgr)
	menus := menugen.NewService(gateway, sinks, lgr)
	viewSvc := views.NewService(syncSvc, catalogSvc, menus, journal, sessions, 3*cfg.Polling.Interval)

	// Initialize HTTP handlers
	router := httpAdapter.NewRouter(httpAdapter.Handlers{
		Orders:   httpAdapter.NewOrderHandler(orderSvc, catalogSvc, syncSvc, lgr),
		Catalog:  httpAdapter.NewCatalogHandler(catalogSvc, menus, lgr),
		Sessions: httpAdapter.NewSessionHandler(manager, viewSvc, center, syncSvc, lgr),
	}, lgr)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lgr.Info("service_started", fmt.Sprintf("Terminal started on port %d", cfg.HTTP.Port), "startup", map[string]interface{}{
			"port":     cfg.HTTP.Port,
			"tables":   cfg.Tables.Count,
			"interval": cfg.Polling.Interval.String(),
			"origin":   origin,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if mqConn != nil {
		consumer := rabbitmq.NewConsumer(mqConn, cfg.RabbitMQ.Exchange, lgr)
		handler := amqpAdapter.NewNotificationHandler(center, origin, lgr)
		g.Go(func() error {
			return ignoreCanceled(consumer.ConsumeNotifications(gctx, handler.HandleNotification))
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		lgr.Info("shutdown_initiated", "Shutting down terminal", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		manager.Close(shutdownCtx)
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down http server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// openStorage falls back to in-memory repositories when no database is configured
func openStorage(ctx context.Context, cfg *config.Config, lgr logger.Logger) (interfaces.StatusJournal, interfaces.SessionRepository, func(), error) {
	if !cfg.Database.Enabled() {
		lgr.Info("storage_memory", "No database configured, journal kept in memory", "startup", nil)
		return memory.NewStatusJournal(), memory.NewSessionRepository(), func() {}, nil
	}

	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})
	return postgres.NewStatusJournal(db), postgres.NewSessionRepository(db), db.Close, nil
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, lgr logger.Logger) error {
	if !cfg.RabbitMQ.Enabled() {
		return errors.New("rabbitmq.host is required for notification-subscriber mode")
	}

	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer mqConn.Close()

	consumer := rabbitmq.NewConsumer(mqConn, cfg.RabbitMQ.Exchange, lgr)
	handler := amqpAdapter.NewNotificationHandler(notify.NewConsole(os.Stdout), "", lgr)

	lgr.Info("service_started", "Notification Subscriber started", "startup", map[string]interface{}{
		"exchange": cfg.RabbitMQ.Exchange,
	})

	err = ignoreCanceled(consumer.ConsumeNotifications(ctx, handler.HandleNotification))
	lgr.Info("shutdown_initiated", "Shutting down Notification Subscriber", "shutdown", nil)
	return err
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
