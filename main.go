// Package main provides the main entry point for the freight desk service
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/amirphl/freightdesk/app/handlers"
	"github.com/amirphl/freightdesk/app/router"
	businessflow "github.com/amirphl/freightdesk/business_flow"
	"github.com/amirphl/freightdesk/config"
	"github.com/amirphl/freightdesk/models"
	"github.com/amirphl/freightdesk/repository"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting freight desk application...")

	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logWriter := initializeLogging(cfg.Logging)

	app, err := initializeApplication(cfg, logWriter)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	for _, fn := range app.stopFuncs {
		fn()
	}

	log.Println("Server stopped")
}

// initializeLogging points the standard logger at stdout, a rotating file, or both
func initializeLogging(cfg config.LoggingConfig) io.Writer {
	var out io.Writer = os.Stdout
	if cfg.Output == "file" || cfg.Output == "both" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		if cfg.Output == "file" {
			out = rotating
		} else {
			out = io.MultiWriter(os.Stdout, rotating)
		}
	}
	log.SetOutput(out)
	log.SetFlags(log.LstdFlags | log.LUTC | log.Lmicroseconds)
	return out
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.Info
	case "warn":
		return logger.Warn
	case "error":
		return logger.Error
	default:
		return logger.Warn
	}
}

// initializeDatabase opens postgres or sqlite and configures connection pooling
func initializeDatabase(cfg config.DatabaseConfig, logCfg config.LoggingConfig, out io.Writer) (*gorm.DB, error) {
	slow := time.Duration(0)
	if cfg.SlowQueryLog {
		slow = cfg.SlowQueryTime
	}
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger: logger.New(log.New(out, "\r\n", log.LstdFlags|log.LUTC), logger.Config{
			SlowThreshold:             slow,
			LogLevel:                  gormLogLevel(logCfg.Level),
			IgnoreRecordNotFoundError: true,
		}),
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Name + "?_foreign_keys=on&_busy_timeout=5000")
	default:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// one writer at a time keeps row locks meaningful
		sqlDB.SetMaxOpenConns(1)
		if err := db.AutoMigrate(
			&models.Carrier{},
			&models.Shipment{},
			&models.ShipmentMeasurement{},
			&models.Quote{},
			&models.AuditLog{},
		); err != nil {
			return nil, fmt.Errorf("failed to migrate sqlite database: %w", err)
		}
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established (driver=%s, max open connections=%d)", cfg.Driver, cfg.MaxOpenConns)
	return db, nil
}

// initializeCache initializes the Redis client and verifies connectivity; nil when disabled
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established (db=%d)", cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor periodically pings Redis. The returned function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

func initializeApplication(cfg *config.ProductionConfig, logWriter io.Writer) (*Application, error) {
	db, err := initializeDatabase(cfg.Database, cfg.Logging, logWriter)
	if err != nil {
		return nil, err
	}

	var stopFuncs []func()
	if sqlDB, err := db.DB(); err == nil {
		stopFuncs = append(stopFuncs, func() { _ = sqlDB.Close() })
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		stopMonitor := startCacheHealthMonitor(context.Background(), rc, cfg.Cache.HealthInterval)
		stopFuncs = append(stopFuncs, stopMonitor, func() { _ = rc.Close() })
	}

	// Repositories
	shipmentRepo := repository.NewShipmentRepository(db)
	carrierRepo := repository.NewCarrierRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Business flows
	shipmentFlow := businessflow.NewShipmentFlow(shipmentRepo, auditRepo, db)
	carrierFlow := businessflow.NewCarrierFlow(carrierRepo, auditRepo, db)
	quoteFlow := businessflow.NewQuoteFlow(quoteRepo, shipmentRepo, carrierRepo, auditRepo, db, rc, &cfg.Cache, &cfg.Pricing)
	reconciliationFlow := businessflow.NewReconciliationFlow(quoteRepo, auditRepo, &cfg.Pricing)
	dashboardFlow := businessflow.NewDashboardFlow(shipmentRepo, quoteRepo, carrierRepo, rc, &cfg.Cache)

	// Handlers
	timeout := cfg.Server.RequestTimeout
	appRouter := router.NewFiberRouter(router.Handlers{
		Shipment:       handlers.NewShipmentHandler(shipmentFlow, timeout),
		Carrier:        handlers.NewCarrierHandler(carrierFlow, timeout),
		Quote:          handlers.NewQuoteHandler(quoteFlow, timeout),
		Reconciliation: handlers.NewReconciliationHandler(reconciliationFlow, timeout),
		Dashboard:      handlers.NewDashboardHandler(dashboardFlow, timeout),
	}, cfg)

	return &Application{
		router:    appRouter,
		config:    cfg,
		server:    appRouter.GetApp(),
		stopFuncs: stopFuncs,
	}, nil
}
