// Command order-service runs the ticketing order HTTP service.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-ordering/internal/auth"
	"ms-ordering/internal/config"
	"ms-ordering/internal/database/migrations"
	"ms-ordering/internal/events"
	eventsapi "ms-ordering/internal/events/api"
	eventsdb "ms-ordering/internal/events/db"
	"ms-ordering/internal/kafka"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/order"
	orderdb "ms-ordering/internal/order/db"
	"ms-ordering/internal/order/order_api"
	"ms-ordering/internal/tickets"
	ticketsdb "ms-ordering/internal/tickets/db"
	"ms-ordering/internal/tickets/qr"
	"ms-ordering/internal/utils"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database.
	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer sqldb.Close()
	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatal("DATABASE", "ping: "+err.Error())
	}
	bdb := bun.NewDB(sqldb, pgdialect.New())
	log.Info("DATABASE", "connected")

	migrateOpts := migrations.DefaultOptions()
	if migrateOpts.AutoMigrate {
		runner := migrations.NewRunner(bdb, migrateOpts, log)
		if err := runner.Up(); err != nil {
			log.Fatal("MIGRATE", err.Error())
		}
		runner.Close()
	}

	// Redis backs the auth token verification cache. The service still
	// works without it, every request just verifies the token itself.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	var tokenCache *auth.TokenCache
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("REDIS", "unavailable, token cache disabled: "+err.Error())
	} else {
		tokenCache = auth.NewTokenCache(redisClient)
		log.Info("REDIS", "connected")
	}
	defer redisClient.Close()

	// Kafka.
	topics := []string{
		cfg.Kafka.OrderReceivedTopic,
		cfg.Kafka.OrderPaidTopic,
		cfg.Kafka.AccountInviteTopic,
	}
	if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics, log); err != nil {
		log.Warn("KAFKA", "ensure topics: "+err.Error())
	}
	producer := kafka.NewProducer(cfg.Kafka.Brokers, kafka.Topics{
		OrderReceived: cfg.Kafka.OrderReceivedTopic,
		OrderPaid:     cfg.Kafka.OrderPaidTopic,
		AccountInvite: cfg.Kafka.AccountInviteTopic,
	}, log)
	defer producer.Close()

	// Stripe.
	stripeClient := &client.API{}
	stripeClient.Init(cfg.Stripe.SecretKey, nil)

	qrGen, err := qr.NewGenerator(cfg.Tickets.QRSecret)
	if err != nil {
		log.Fatal("CONFIG", err.Error())
	}

	// Stores and services.
	orderStore := orderdb.NewStore(bdb)
	ticketStore := ticketsdb.NewStore(bdb)
	eventStore := eventsdb.NewStore(bdb)

	checkout := order.NewCheckoutService(stripeClient, cfg.Stripe.Currency, cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL, log)
	orderSvc := order.NewService(orderStore, checkout, producer, log, cfg.Promo.ActivationPolicy, cfg.Checkout.FeePercent, cfg.Checkout.FeeFixedCents)
	reconciler := order.NewReconcileService(orderStore, checkout, producer, log, cfg.Stripe.WebhookSecret)
	ticketSvc := tickets.NewService(ticketStore, qrGen, log)
	eventSvc := events.NewService(eventStore, log, cfg.Promo.ActivationPolicy)

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)
	requireAuth := auth.Middleware(verifier, tokenCache)

	// Router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := sqldb.PingContext(req.Context()); err != nil {
			utils.WriteError(w, http.StatusServiceUnavailable, "unhealthy", "database unreachable")
			return
		}
		utils.WriteSuccess(w, http.StatusOK, "ok", nil)
	})

	order_api.NewHandler(orderSvc, reconciler, ticketSvc, verifier, log).Routes(r, requireAuth)
	eventsapi.NewHandler(eventSvc, log).Routes(r)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Info("SERVER", "listening on :"+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", err.Error())
		}
	}()

	<-ctx.Done()
	log.Info("SERVER", "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("SERVER", "shutdown: "+err.Error())
	}
	log.Info("SERVER", "stopped")
}
