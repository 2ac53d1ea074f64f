package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/legacyvault/billing/handler"
	"github.com/legacyvault/billing/modules/billing"
	"github.com/legacyvault/billing/pkg/config"
	"github.com/legacyvault/billing/pkg/environment"
	"github.com/legacyvault/billing/pkg/httpserver"
	"github.com/legacyvault/billing/pkg/jwt"
	"github.com/legacyvault/billing/pkg/logger"
	"github.com/legacyvault/billing/pkg/mongo"
	"github.com/legacyvault/billing/pkg/redis"
	"github.com/legacyvault/billing/pkg/requestid"
	"github.com/legacyvault/billing/pkg/subscription"
)

func main() {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		slog.Error("failed to load configuration", logger.Error(err))
		os.Exit(1)
	}

	env := environment.Parse(cfg.AppEnv)
	log := newLogger(cfg, env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, env, log); err != nil {
		log.Error("service stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func newLogger(cfg Config, env environment.Environment) *slog.Logger {
	opts := []logger.Option{
		logger.WithEnvironment(env, cfg.AppName),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevelName(cfg.LogLevel))
	}
	return logger.New(opts...)
}

func run(ctx context.Context, cfg Config, env environment.Environment, log *slog.Logger) error {
	db, err := mongo.NewWithDatabase(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Client().Disconnect(disconnectCtx); err != nil {
			log.Warn("mongo disconnect failed", logger.Error(err))
		}
	}()

	store := subscription.NewMongoStore(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}

	checks := []httpserver.Check{{Name: "mongo", Fn: mongo.Healthcheck(db.Client())}}

	gateway, err := subscription.NewStripeGateway(cfg.Stripe, subscription.WithStripeLogger(log))
	if err != nil {
		return err
	}

	svcOpts := []subscription.ServiceOption{
		subscription.WithPrices(cfg.Stripe.Prices()),
		subscription.WithBaseURL(cfg.ClientURL),
		subscription.WithLogger(log),
	}

	if cfg.Redis.Enabled {
		rdb, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()

		svcOpts = append(svcOpts, subscription.WithEventLog(subscription.NewRedisEventLog(rdb, cfg.WebhookEventTTL)))
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(rdb)})
	} else {
		log.Warn("redis disabled, webhook deduplication relies on idempotent writes only")
	}

	svc := subscription.NewService(gateway, store, subscription.NewMongoUserDirectory(db), svcOpts...)

	tokens, err := jwt.New(cfg.JWTSecret)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		middleware.RealIP,
		middleware.Recoverer,
		environment.Middleware(env),
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders:   []string{"Content-Type", "Authorization", jwt.AuthTokenHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, cfg.ReadinessTimeout, checks...))

	r.Mount("/api/subscriptions", billing.Router(billing.RouterOptions{
		Service: svc,
		Authenticate: jwt.Middleware(jwt.MiddlewareConfig{
			Service:      tokens,
			ErrorHandler: unauthorized,
		}),
		UserID: jwt.UserIDFromContext,
		Logger: log,
	}))

	err = httpserver.New(cfg.HTTP, httpserver.WithLogger(log)).Run(ctx, r)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	_ = handler.JSONError(handler.NewHTTPError(http.StatusUnauthorized, "unauthorized", "Authentication required", err)).
		Render(w, r)
}
