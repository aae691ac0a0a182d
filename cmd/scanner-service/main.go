package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"evoke-ticketing/internal/codec"
	"evoke-ticketing/internal/config"
	"evoke-ticketing/internal/database/migrations"
	"evoke-ticketing/internal/guard"
	"evoke-ticketing/internal/kafka"
	"evoke-ticketing/internal/logger"
	"evoke-ticketing/internal/scan"
	"evoke-ticketing/internal/scan/scan_api"
)

func openDatabase(cfg *config.Config, log *logger.Logger) *bun.DB {
	var sqldb *sql.DB
	var err error
	var bunDB *bun.DB

	switch cfg.Database.Driver {
	case "postgres":
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.Fatal("DATABASE", "Failed to open postgres: "+err.Error())
		}
		bunDB = bun.NewDB(sqldb, pgdialect.New())
	default:
		sqldb, err = sql.Open(sqliteshim.ShimName, cfg.Database.DSN)
		if err != nil {
			log.Fatal("DATABASE", "Failed to open sqlite: "+err.Error())
		}
		bunDB = bun.NewDB(sqldb, sqlitedialect.New())
	}

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", "Failed to connect: "+err.Error())
	}
	return bunDB
}

// prepareSchema makes sure the redemptions table exists: versioned
// migrations on postgres, bun bootstrap on sqlite. A scanner deployed on a
// fresh database must not depend on the ticket service having run first.
func prepareSchema(ctx context.Context, cfg *config.Config, bunDB *bun.DB, log *logger.Logger) {
	if cfg.Database.Driver == "postgres" {
		runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
		if err := runner.RunMigrations(); err != nil {
			log.Fatal("DATABASE", "Migrations failed: "+err.Error())
		}
		return
	}
	if err := migrations.Bootstrap(ctx, bunDB); err != nil {
		log.Fatal("DATABASE", "Schema bootstrap failed: "+err.Error())
	}
}

// buildStore picks the consumed-set backend. Memory is fine for one gate;
// redis and db share the set between scanners.
func buildStore(ctx context.Context, cfg *config.Config, log *logger.Logger) guard.ConsumedStore {
	switch cfg.Scanner.Store {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatal("REDIS", "Failed to connect: "+err.Error())
		}
		log.Info("GUARD", "Using redis consumed store at "+cfg.Redis.Addr)
		return guard.NewRedisStore(client)
	case "db":
		bunDB := openDatabase(cfg, log)
		prepareSchema(ctx, cfg, bunDB, log)
		log.Info("GUARD", "Using database consumed store")
		return guard.NewBunStore(bunDB)
	default:
		log.Warn("GUARD", "Using in-memory consumed store; redemptions reset on restart")
		return guard.NewMemoryStore()
	}
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.NewLogger()
	defer log.Close()

	ctx := context.Background()

	service := scan.NewService(codec.New(), guard.New(buildStore(ctx, cfg, log)))
	service.Logger = log

	if cfg.Scanner.EventEnd != "" {
		eventEnd, err := time.Parse(time.RFC3339, cfg.Scanner.EventEnd)
		if err != nil {
			log.Fatal("CONFIG", "Invalid EVENT_END_TIME: "+err.Error())
		}
		service.EventEnd = eventEnd
		log.Info("SCAN", "Expiry check enabled, event ends "+eventEnd.Format(time.RFC3339))
	}

	if cfg.Kafka.Enabled && !cfg.Kafka.MockMode {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.Topics.TicketRedeemed}); err != nil {
			log.Warn("KAFKA", "Topic bootstrap failed: "+err.Error())
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.TicketIssued, cfg.Kafka.Topics.TicketRedeemed)
		defer producer.Close()
		service.Publisher = producer
	}

	handler := scan_api.NewHandler(service, log, cfg.Scanner.RequireAuth)
	r := chi.NewRouter()
	handler.Routes(r)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", "Scanner service on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", "HTTP error: "+err.Error())
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctxShutdown)
	log.Info("SERVER", "Scanner service shutdown complete")
}
