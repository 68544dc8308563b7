package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"github.com/crownshift/logistics-api/internal/api"
	"github.com/crownshift/logistics-api/internal/api/handler"
	"github.com/crownshift/logistics-api/internal/api/middleware"
	"github.com/crownshift/logistics-api/internal/core/ports"
	"github.com/crownshift/logistics-api/internal/core/service"
	"github.com/crownshift/logistics-api/internal/infrastructure/db/mongo"
	"github.com/crownshift/logistics-api/internal/infrastructure/db/redis"
	"github.com/crownshift/logistics-api/internal/infrastructure/events"
	"github.com/crownshift/logistics-api/internal/infrastructure/payment/mpesa"
	"github.com/crownshift/logistics-api/internal/infrastructure/payment/stripe"
	"github.com/crownshift/logistics-api/internal/infrastructure/pdf"
	"github.com/crownshift/logistics-api/internal/infrastructure/storage"
	"github.com/crownshift/logistics-api/internal/pkg/config"
	"github.com/crownshift/logistics-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

type publisher interface {
	ports.Publisher
	io.Closer
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, log, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		AppName:     serviceName,
		Timeout:     cfg.Mongo.Timeout,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		return err
	}
	defer disconnect(mongoClient, log)

	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	redisClient, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return err
	}
	defer redisClient.Close()

	pub := newPublisher(cfg.Kafka, log)
	defer func() {
		if err := pub.Close(); err != nil {
			log.Warn().Err(err).Msg("close event publisher")
		}
	}()

	deps, err := buildDependencies(cfg, log, mongoClient, db, redisClient, pub)
	if err != nil {
		return err
	}
	e := api.NewRouter(*deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func buildDependencies(
	cfg *config.Config,
	log zerolog.Logger,
	mongoClient *mongodriver.Client,
	db *mongodriver.Database,
	redisClient *goredis.Client,
	pub ports.Publisher,
) (*api.Dependencies, error) {
	tx := mongo.NewTxManager(mongoClient)
	shipments := mongo.NewShipmentRepository(db)
	catalog := mongo.NewCatalogRepository(db)

	store, err := storage.NewGridFSStore(db, cfg.Invoice.Bucket)
	if err != nil {
		return nil, err
	}

	mpesaBase := mpesa.SandboxURL
	if cfg.Mpesa.Env == "production" {
		mpesaBase = mpesa.ProductionURL
	}
	mobile := mpesa.NewClient(mpesa.Config{
		BaseURL:        mpesaBase,
		ConsumerKey:    cfg.Mpesa.ConsumerKey,
		ConsumerSecret: cfg.Mpesa.ConsumerSecret,
		ShortCode:      cfg.Mpesa.ShortCode,
		Passkey:        cfg.Mpesa.Passkey,
		CallbackURL:    cfg.Invoice.PublicBaseURL + "/api/payments/mpesa/callback",
		CallbackSecret: cfg.Mpesa.CallbackSecret,
	}, logger.Component("mpesa"))
	card := stripe.NewGateway(stripe.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
	})

	eta := service.NewETAService(shipments, logger.Component("eta"))
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	return &api.Dependencies{
		Log:      log,
		Resolver: service.NewTenantResolver(cfg.JWTSecret),
		Auth: service.NewAuthService(
			mongo.NewUserRepository(db), mongo.NewCompanyRepository(db), tx, tokens, logger.Component("auth")),
		Shipments: service.NewShipmentService(shipments, eta, logger.Component("shipments")),
		ETA:       eta,
		Inventory: service.NewInventoryService(
			mongo.NewInventoryRepository(db), mongo.NewMovementRepository(db), tx, pub, logger.Component("inventory")),
		Fleet: service.NewFleetService(mongo.NewFleetRepository(db), shipments, tx, pub, logger.Component("fleet")),
		Payments: service.NewPaymentService(
			shipments, mongo.NewWebhookEventRepository(db), tx, card, mobile,
			redis.NewDedupChecker(redisClient), pub, logger.Component("payments")),
		Invoices: service.NewInvoiceService(
			shipments,
			mongo.NewInvoiceRepository(db),
			catalog,
			store,
			storage.NewJWTSigner(cfg.JWTSecret, cfg.Invoice.PublicBaseURL),
			pdf.NewInvoiceRenderer(""),
			service.InvoiceConfig{VATRate: cfg.Invoice.VATRate, LinkTTL: cfg.Invoice.LinkTTL},
			logger.Component("invoices"),
		),
		Catalog: service.NewCatalogService(catalog, mongo.NewAdminOpsRepository(db), logger.Component("catalog")),

		SeedAdmin: middleware.SeedAdminConfig{Token: cfg.Seed.AdminToken, UID: cfg.Seed.AdminUID},
		HealthChecks: map[string]handler.Check{
			"mongo": mongo.Ping(mongoClient),
			"redis": redis.Ping(redisClient),
		},
		TokenTTL:         cfg.TokenTTL,
		SecureCookie:     cfg.IsProduction(),
		MetricsSubsystem: serviceName,
	}, nil
}

func newPublisher(cfg config.KafkaConfig, log zerolog.Logger) publisher {
	if len(cfg.Brokers) == 0 {
		return events.NopPublisher{Log: log}
	}
	log.Info().Strs("brokers", cfg.Brokers).Msg("publishing domain events to kafka")
	return events.NewKafkaPublisher(events.Config{Brokers: cfg.Brokers, TopicPrefix: cfg.TopicPrefix}, logger.Component("events"))
}

func disconnect(client *mongodriver.Client, log zerolog.Logger) {
	if err := mongo.Disconnect(client, 5*time.Second); err != nil {
		log.Warn().Err(err).Msg("mongo disconnect")
	}
}
