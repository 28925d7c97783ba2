package app

import (
	"context"
	"fmt"

	"github.com/collabthon/backend/config"
	"github.com/collabthon/backend/internal/api/rest"
	"github.com/collabthon/backend/internal/api/rest/handlers"
	"github.com/collabthon/backend/internal/billing"
	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/internal/kafka"
	"github.com/collabthon/backend/internal/metrics"
	"github.com/collabthon/backend/internal/middleware"
	"github.com/collabthon/backend/internal/repository"
	"github.com/collabthon/backend/internal/repository/postgres"
	"github.com/collabthon/backend/internal/service"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// App holds every wired component and owns their lifecycle.
type App struct {
	Config *config.Config
	Server *rest.Server
	Logger *logger.Logger

	pool     *pgxpool.Pool
	producer kafka.Producer
}

// New wires the whole application from configuration.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	pool, err := postgres.NewConnection(ctx, cfg.Database.DSN, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	var subscriptionRepo repository.SubscriptionRepository = repository.NewPostgresSubscriptionRepository(pool, log)
	if cfg.Redis.Addr != "" {
		redisClient, err := repository.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			log.Warnw("Redis unavailable, subscription caching disabled", "error", err)
		} else {
			subscriptionRepo = repository.NewCachedSubscriptionRepository(subscriptionRepo, redisClient, log)
		}
	}

	userRepo := repository.NewPostgresUserRepository(pool, log)
	projectRepo := repository.NewPostgresProjectRepository(pool, log)
	collaborationRepo := repository.NewPostgresCollaborationRepository(pool, log)
	notificationRepo := repository.NewPostgresNotificationRepository(pool, log)

	var producer kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafka.NewKafkaProducer(cfg.Kafka.Brokers, log)
		if err != nil {
			log.Warnw("Kafka unavailable, subscription events disabled", "error", err)
			producer = kafka.NopProducer{}
		}
	} else {
		producer = kafka.NopProducer{}
	}

	registry := prometheus.NewRegistry()
	billingMetrics := metrics.NewBillingMetrics(registry)

	var processor billing.Processor
	var verifier billing.EventVerifier
	if cfg.Stripe.SecretKey != "" {
		processor = billing.NewStripeProcessor(cfg.Stripe.SecretKey, map[domain.Plan]string{
			domain.PlanProfessional: cfg.Stripe.ProfessionalPriceID,
			domain.PlanEnterprise:   cfg.Stripe.EnterprisePriceID,
		}, log)
		verifier = billing.NewStripeVerifier(cfg.Stripe.WebhookSecret)
	} else {
		log.Warnw("Stripe secret key not configured, payment endpoints will return 503")
		verifier = billing.NewStripeVerifier(cfg.Stripe.WebhookSecret)
	}

	subscriptionService := service.NewSubscriptionService(subscriptionRepo, processor, producer, billingMetrics, log)
	paymentService := service.NewPaymentService(subscriptionRepo, processor, verifier, producer, billingMetrics, log)
	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log)
	profileService := service.NewProfileService(userRepo, log)
	projectService := service.NewProjectService(projectRepo, subscriptionService, log)
	notificationService := service.NewNotificationService(notificationRepo, log)
	collaborationService := service.NewCollaborationService(collaborationRepo, notificationService, log)

	authMW := middleware.NewJWTMiddleware(&middleware.DefaultTokenValidator{Secret: []byte(cfg.Auth.JWTSecret)}, log)

	router := rest.NewRouter(rest.Handlers{
		Auth:          handlers.NewAuthHandler(authService, log),
		Subscription:  handlers.NewSubscriptionHandler(subscriptionService, log),
		Payment:       handlers.NewPaymentHandler(paymentService, authService, log),
		Webhook:       handlers.NewWebhookHandler(paymentService, log),
		Profile:       handlers.NewProfileHandler(profileService, log),
		Project:       handlers.NewProjectHandler(projectService, log),
		Collaboration: handlers.NewCollaborationHandler(collaborationService, log),
		Notification:  handlers.NewNotificationHandler(notificationService, log),
	}, authMW, registry, log)

	return &App{
		Config:   cfg,
		Server:   rest.NewServer(cfg, router, log),
		Logger:   log,
		pool:     pool,
		producer: producer,
	}, nil
}

// Close releases connections after the server has drained.
func (a *App) Close() {
	if err := a.producer.Close(); err != nil {
		a.Logger.Warnw("Failed to close Kafka producer", "error", err)
	}
	a.pool.Close()
}
