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
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"evoke-ticketing/internal/codec"
	"evoke-ticketing/internal/config"
	"evoke-ticketing/internal/database/migrations"
	"evoke-ticketing/internal/kafka"
	"evoke-ticketing/internal/logger"
	ticket_db "evoke-ticketing/internal/tickets/db"
	tickets "evoke-ticketing/internal/tickets/service"
	"evoke-ticketing/internal/tickets/ticket_api"
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

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", "Failed to connect: "+err.Error())
	}
	log.Info("DATABASE", "Connected using driver "+cfg.Database.Driver)
	return bunDB
}

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

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.NewLogger()
	defer log.Close()

	ctx := context.Background()
	bunDB := openDatabase(cfg, log)
	defer bunDB.Close()
	prepareSchema(ctx, cfg, bunDB, log)

	level, err := codec.ParseRecoveryLevel(cfg.QR.RecoveryLevel)
	if err != nil {
		log.Fatal("CONFIG", err.Error())
	}
	opts := codec.DefaultRenderOptions()
	opts.Size = cfg.QR.Size
	opts.Level = level

	service := tickets.NewTicketService(&ticket_db.DB{Bun: bunDB}, codec.New(), opts)
	service.Logger = log

	if cfg.Kafka.Enabled && !cfg.Kafka.MockMode {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.Topics.TicketIssued, cfg.Kafka.Topics.TicketRedeemed}); err != nil {
			log.Warn("KAFKA", "Topic bootstrap failed: "+err.Error())
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.TicketIssued, cfg.Kafka.Topics.TicketRedeemed)
		defer producer.Close()
		service.Publisher = producer
	}

	handler := ticket_api.NewHandler(service, log)
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
		log.Info("SERVER", "Ticket service on "+cfg.Server.Port)
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
	log.Info("SERVER", "Ticket service shutdown complete")
}
