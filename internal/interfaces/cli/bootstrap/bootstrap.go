// Package bootstrap loads configuration and opens the shared connections
// used by every command.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/abengolea/heartlink-sub000/internal/domain/subscription"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/config"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/database"
	"github.com/abengolea/heartlink-sub000/internal/infrastructure/metrics"
	"github.com/abengolea/heartlink-sub000/internal/shared/biztime"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

// Runtime is the process-wide state shared by the commands.
type Runtime struct {
	Env    string
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Logger logger.Interface
}

// ResolveEnv lets the ENV variable override the --env flag.
func ResolveEnv(flagValue string) string {
	if envVar := os.Getenv("ENV"); envVar != "" {
		return envVar
	}
	return flagValue
}

// Setup loads configuration, initializes the logger and opens the database.
// Redis is connected only when redis.host is set.
func Setup(env string) (*Runtime, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.Server.Mode = MapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := biztime.Init(cfg.Subscription.Timezone); err != nil {
		return nil, fmt.Errorf("invalid subscription.timezone: %w", err)
	}

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {}

	db, err := database.Open(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	rt := &Runtime{
		Env:    env,
		Config: cfg,
		DB:     db,
		Logger: log,
	}

	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			_ = client.Close()
			_ = database.Close(db)
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Infow("redis connection established", "address", cfg.Redis.GetAddr())
		rt.Redis = client
	}

	return rt, nil
}

// Close releases the connections opened by Setup.
func (r *Runtime) Close() {
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			r.Logger.Warnw("failed to close redis client", "error", err)
		}
	}
	if err := database.Close(r.DB); err != nil {
		r.Logger.Warnw("failed to close database", "error", err)
	}
	_ = logger.Sync()
}

// ChangeEventRecorder returns the handler the subscribers attach to the
// change bus: it counts each event and logs it.
func ChangeEventRecorder(m *metrics.BillingMetrics, log logger.Interface) func(ctx context.Context, event subscription.SubscriptionChangedEvent) {
	return func(ctx context.Context, event subscription.SubscriptionChangedEvent) {
		m.ObserveChange(string(event.Reason))
		log.Infow("subscription change received",
			"subscription_id", event.SubscriptionID,
			"user_id", event.UserID,
			"reason", event.Reason,
			"status", event.Status,
			"access_blocked", event.IsAccessBlocked,
		)
	}
}

// MapEnvToGinMode maps deployment environment names onto gin modes.
func MapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return gin.ReleaseMode
	case "test", "testing":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
