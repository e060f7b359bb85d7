package http

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	studyUsecases "github.com/abengolea/heartlink-sub000/internal/application/study/usecases"
	"github.com/abengolea/heartlink-sub000/internal/application/subscription/usecases"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/auth"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/cache"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/catalog"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/config"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/email"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/metrics"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/payment/mercadopago"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/permission"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/pubsub"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/ratelimit"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/repository"
	"github.com/abengolea/heartlink-sub000/internal/interfaces/http/handlers"
	"github.com/abengolea/heartlink-sub000/internal/interfaces/http/middleware"
	shareddb "github.com/abengolea/heartlink-sub000/internal/shared/db"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
	"github.com/abengolea/heartlink-sub000/internal/shared/services/markdown"
)

// webhookSignatureTolerance bounds the clock skew accepted on x-signature timestamps.
const webhookSignatureTolerance = 5 * time.Minute

// Container holds every wired dependency of the HTTP surface.
type Container struct {
	Metrics   *metrics.BillingMetrics
	EventBus  *pubsub.RedisSubscriptionEventBus
	Enforcer  *permission.Enforcer
	JWT       *auth.JWTService
	Sweep     *usecases.SweepExpiredSubscriptionsUseCase
	Reconcile *usecases.ReconcilePaymentUseCase

	webhookLimiter ratelimit.RateLimiter
	healthChecks   map[string]handlers.HealthChecker

	paymentWebhookHandler    *handlers.PaymentWebhookHandler
	cronHandler              *handlers.CronHandler
	subscriptionHandler      *handlers.SubscriptionHandler
	adminSubscriptionHandler *handlers.AdminSubscriptionHandler
	studyHandler             *handlers.StudyHandler
	healthHandler            *handlers.HealthHandler

	authMiddleware       *middleware.AuthMiddleware
	gateMiddleware       *middleware.SubscriptionGateMiddleware
	permissionMiddleware *middleware.PermissionMiddleware
}

// NewContainer builds repositories, adapters, use cases and handlers from the
// configuration. redisClient may be nil; the in-process lock, limiter and log
// publisher are used instead.
func NewContainer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log logger.Interface) (*Container, error) {
	c := &Container{}

	subscriptionRepo := repository.NewSubscriptionRepository(db, log)
	userRepo := repository.NewUserRepository(db, log)
	studyRepo := repository.NewStudyRepository(db, log)
	webhookRepo := repository.NewWebhookEventRepository(db)

	plans, err := catalog.Load(cfg.Subscription.CatalogPath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan catalog: %w", err)
	}

	gateway := mercadopago.NewClient(mercadopago.Config{
		BaseURL:         cfg.Payment.BaseURL,
		AccessToken:     cfg.Payment.AccessToken,
		Timeout:         cfg.Payment.Timeout,
		BreakerFailures: cfg.Payment.BreakerFailures,
		BreakerTimeout:  cfg.Payment.BreakerTimeout,
	}, log)

	var lock usecases.PaymentLock
	var publisher usecases.SubscriptionEventPublisher
	if redisClient != nil {
		lock = cache.NewRedisPaymentLock(redisClient)
		c.EventBus = pubsub.NewRedisSubscriptionEventBus(redisClient, log)
		publisher = c.EventBus
		c.webhookLimiter = ratelimit.NewRedisRateLimiter(redisClient, int(cfg.RateLimit.WebhookRPS*60), time.Minute)
	} else {
		lock = cache.NewMemoryPaymentLock()
		publisher = pubsub.NewLogPublisher(log)
		c.webhookLimiter = ratelimit.NewLocalRateLimiter(cfg.RateLimit.WebhookRPS, cfg.RateLimit.WebhookBurst)
	}

	var notifier usecases.BillingNotifier = email.NoopBillingNotifier{}
	if cfg.Email.SMTPHost != "" {
		notifier = email.NewSMTPBillingNotifier(email.SMTPConfig{
			Host:        cfg.Email.SMTPHost,
			Port:        cfg.Email.SMTPPort,
			Username:    cfg.Email.SMTPUser,
			Password:    cfg.Email.SMTPPassword,
			FromAddress: cfg.Email.FromAddress,
			FromName:    cfg.Email.FromName,
			BaseURL:     cfg.Server.BaseURL,
		})
	}

	c.Metrics = metrics.NewBillingMetrics()
	grace := cfg.Subscription.GracePeriod()
	renderer := markdown.NewMarkdownService()

	c.Reconcile = usecases.NewReconcilePaymentUseCase(subscriptionRepo, userRepo, gateway, lock, grace, log)
	c.Reconcile.SetWebhookRepository(webhookRepo)
	c.Reconcile.SetEventPublisher(publisher)
	c.Reconcile.SetNotifier(notifier)
	c.Reconcile.SetMetrics(c.Metrics)

	c.Sweep = usecases.NewSweepExpiredSubscriptionsUseCase(subscriptionRepo, userRepo, grace, log)
	c.Sweep.SetEventPublisher(publisher)
	c.Sweep.SetNotifier(notifier)
	c.Sweep.SetMetrics(c.Metrics)

	checkAccess := usecases.NewCheckAccessUseCase(subscriptionRepo, cfg.Subscription.RedirectTo, grace, log)
	checkAccess.SetMetrics(c.Metrics)

	status := usecases.NewGetSubscriptionStatusUseCase(subscriptionRepo, grace, log)

	create := usecases.NewCreateSubscriptionUseCase(subscriptionRepo, userRepo, plans, gateway, usecases.CheckoutURLs{
		Notification: cfg.Payment.NotificationURL,
		Success:      cfg.Payment.SuccessURL,
		Failure:      cfg.Payment.FailureURL,
		Pending:      cfg.Payment.PendingURL,
	}, grace, log)
	create.SetEventPublisher(publisher)
	create.SetTransactionRunner(shareddb.NewTransactor(db))

	cancel := usecases.NewCancelSubscriptionUseCase(subscriptionRepo, userRepo, renderer, log)
	cancel.SetEventPublisher(publisher)

	reactivate := usecases.NewReactivateSubscriptionUseCase(subscriptionRepo, userRepo, grace, log)
	reactivate.SetEventPublisher(publisher)

	createStudy := studyUsecases.NewCreateStudyUseCase(studyRepo, renderer, log)
	listStudies := studyUsecases.NewListStudiesUseCase(studyRepo, renderer, log)

	c.JWT = auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.Issuer)

	c.Enforcer, err = permission.NewEnforcer(db, cfg.Auth.PolicyModelPath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create permission enforcer: %w", err)
	}
	if err := permission.InitBillingPermissions(c.Enforcer, log); err != nil {
		return nil, fmt.Errorf("failed to seed billing permissions: %w", err)
	}

	verifier := mercadopago.NewSignatureVerifier(cfg.Payment.WebhookSecret, webhookSignatureTolerance)

	c.healthChecks = map[string]handlers.HealthChecker{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		c.healthChecks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	c.paymentWebhookHandler = handlers.NewPaymentWebhookHandler(c.Reconcile, verifier, log)
	c.cronHandler = handlers.NewCronHandler(c.Sweep, log)
	c.subscriptionHandler = handlers.NewSubscriptionHandler(status, create, cancel, log)
	c.adminSubscriptionHandler = handlers.NewAdminSubscriptionHandler(cancel, reactivate, log)
	c.studyHandler = handlers.NewStudyHandler(createStudy, listStudies, log)
	c.healthHandler = handlers.NewHealthHandler(c.healthChecks, log)

	c.authMiddleware = middleware.NewAuthMiddleware(c.JWT, log)
	c.gateMiddleware = middleware.NewSubscriptionGateMiddleware(checkAccess, log)
	c.permissionMiddleware = middleware.NewPermissionMiddleware(c.Enforcer, log)

	return c, nil
}
