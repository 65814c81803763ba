package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/ruralpay/ledger/docs"
	"github.com/ruralpay/ledger/internal/config"
	"github.com/ruralpay/ledger/internal/database"
	"github.com/ruralpay/ledger/internal/handlers"
	mW "github.com/ruralpay/ledger/internal/middleware"
	"github.com/ruralpay/ledger/internal/services"
	"github.com/ruralpay/ledger/internal/store"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Ledger API
// @version 1.0
// @description Account ledger with deposits, withdrawals, transfers and interest
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("storage.driver", "STORAGE_DRIVER")
	viper.BindEnv("lock.backend", "LOCK_BACKEND")
	viper.BindEnv("admin.jwt_secret", "ADMIN_JWT_SECRET")
	viper.BindEnv("port", "PORT")

	viper.SetDefault("storage.driver", "postgres")
	viper.SetDefault("lock.backend", "memory")
	viper.SetDefault("port", "8080")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	ledgerCfg := config.LoadLedgerConfig(viper.GetViper())

	// Amounts go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	docs.SwaggerInfo.Host = "localhost:" + viper.GetString("port")

	var accounts store.AccountStore
	var txLog store.TransactionLog

	switch driver := viper.GetString("storage.driver"); driver {
	case "memory":
		log.Println("Using in-memory storage")
		accounts = store.NewMemoryAccountStore()
		txLog = store.NewMemoryTransactionLog()
	case "postgres":
		db, err := database.OpenPostgres(context.Background(), database.PostgresConfigFrom(viper.GetViper()))
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		mustMigrate(db)
		accounts = store.NewPostgresAccountStore(db)
		txLog = store.NewPostgresTransactionLog(db)
	default:
		log.Fatalf("Unknown storage driver %q", driver)
	}

	redisClient, err := database.OpenRedis(context.Background(), database.RedisOptionsFrom(viper.GetViper()))
	if err != nil {
		log.Printf("Redis unavailable, continuing without it: %v", err)
	} else {
		defer redisClient.Close()
	}

	locks := newLocker(viper.GetString("lock.backend"), redisClient, ledgerCfg)

	var events services.EventPublisher = services.NoopEventPublisher{}
	if redisClient != nil {
		events = services.NewRedisEventPublisher(redisClient, ledgerCfg.EventsKey)
	}

	accountHandler := handlers.NewAccountHandler(
		services.NewAccountService(accounts, locks, nil),
		services.NewLedgerService(accounts, txLog, locks, events),
		services.NewStatementService(accounts, txLog),
		services.NewInterestService(accounts, txLog, locks, events),
		decimal.NewFromFloat(ledgerCfg.DefaultInterestRate),
	)

	adminSecret := viper.GetString("admin.jwt_secret")
	if adminSecret == "" {
		log.Println("ADMIN_JWT_SECRET not set, administrative account updates are disabled")
	}

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		accountHandler.Routes(r, mW.AdminOnly(adminSecret))
	})

	port := viper.GetString("port")

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}

func mustMigrate(db *sql.DB) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
}

func newLocker(backend string, client *redis.Client, cfg *config.LedgerConfig) services.Locker {
	if backend == "redis" {
		if client != nil {
			log.Println("Using Redis account locks")
			return services.NewRedisLocker(client, cfg.LockKeyPrefix, cfg.LockTTL, cfg.LockTimeout, cfg.LockRetryInterval)
		}
		log.Println("Redis unavailable, falling back to in-process account locks")
	}
	return services.NewMemoryLocker(cfg.LockTimeout)
}
