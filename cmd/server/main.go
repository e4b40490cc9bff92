package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/replykit/modules/api"
	"github.com/dmitrymomot/replykit/pkg/clientip"
	"github.com/dmitrymomot/replykit/pkg/config"
	"github.com/dmitrymomot/replykit/pkg/email"
	"github.com/dmitrymomot/replykit/pkg/environment"
	"github.com/dmitrymomot/replykit/pkg/eventlog"
	"github.com/dmitrymomot/replykit/pkg/httpserver"
	"github.com/dmitrymomot/replykit/pkg/logger"
	"github.com/dmitrymomot/replykit/pkg/pg"
	"github.com/dmitrymomot/replykit/pkg/ratelimiter"
	"github.com/dmitrymomot/replykit/pkg/redis"
	"github.com/dmitrymomot/replykit/pkg/requestid"
	"github.com/dmitrymomot/replykit/pkg/session"
	"github.com/dmitrymomot/replykit/pkg/subscription"
	"github.com/dmitrymomot/replykit/svc/account"
	"github.com/dmitrymomot/replykit/svc/gate"
	"github.com/dmitrymomot/replykit/svc/generation"
	"github.com/dmitrymomot/replykit/svc/storage/postgres"
)

type appConfig struct {
	Env               string        `env:"APP_ENV" envDefault:"development"`
	Name              string        `env:"APP_NAME" envDefault:"replykit"`
	BaseURL           string        `env:"BASE_URL" envDefault:"http://localhost:8080"`
	SessionSecret     string        `env:"SESSION_SECRET,required"`
	EventLogPath      string        `env:"EVENT_LOG_PATH" envDefault:"./data/events.ndjson"`
	RedisEnabled      bool          `env:"REDIS_ENABLED" envDefault:"false"`
	GenerationTimeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"30s"`

	HTTP       httpserver.Config
	Postgres   pg.Config
	Redis      redis.Config
	Session    session.Config
	Email      email.Config
	Stripe     subscription.StripeConfig
	OpenAI     generation.OpenAIConfig
	RateLimits ratelimiter.Settings
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	env := environment.Parse(cfg.Env)
	log := logger.New(
		logger.WithEnvironment(env, cfg.Name),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, env, log); err != nil {
		log.Error("server stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, env environment.Environment, log *slog.Logger) error {
	var (
		pool  *pgxpool.Pool
		cache *goredis.Client
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pool, err = pg.Connect(gctx, cfg.Postgres)
		return err
	})
	if cfg.RedisEnabled {
		g.Go(func() error {
			var err error
			cache, err = redis.Connect(gctx, cfg.Redis)
			return err
		})
	}
	err := g.Wait()
	if pool != nil {
		defer pool.Close()
	}
	if cache != nil {
		defer cache.Close()
	}
	if err != nil {
		return err
	}

	if err := pg.Migrate(ctx, pool, cfg.Postgres, postgres.Migrations(), log); err != nil {
		return err
	}
	store := postgres.New(pool)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	billingMetrics := subscription.NewPrometheusMetrics(registry, cfg.Name)

	sender, err := emailSender(cfg.Email, log)
	if err != nil {
		return err
	}
	mailer := account.NewEmailMailer(sender, cfg.BaseURL)

	provider, err := subscription.NewStripeProvider(cfg.Stripe, billingMetrics)
	if err != nil {
		return err
	}
	billing := subscription.NewService(provider, store, store, store,
		subscription.WithNotifier(mailer),
		subscription.WithMetrics(billingMetrics),
		subscription.WithLogger(log),
	)

	capability, err := generation.NewOpenAIClient(cfg.OpenAI)
	if err != nil {
		return err
	}
	generator := generation.NewFacade(capability,
		generation.WithTimeout(cfg.GenerationTimeout),
		generation.WithMetrics(generation.NewPrometheusMetrics(registry, cfg.Name)),
		generation.WithLogger(log),
	)

	cfg.Session.SecureCookies = cfg.Session.SecureCookies || env.IsProduction()
	sessionOpts := []session.Option{
		session.WithConfig(cfg.Session),
		session.WithSecret(cfg.SessionSecret),
	}
	var (
		limiterStore ratelimiter.Store
		closers      []func(context.Context) error
	)
	if cache != nil {
		sessionOpts = append(sessionOpts, session.WithStore(session.NewRedisStore(cache, "session:")))
		limiterStore = ratelimiter.NewRedisStore(cache, "ratelimit:")
	} else {
		mem := ratelimiter.NewMemoryStore()
		closers = append(closers, func(context.Context) error { return mem.Close() })
		limiterStore = mem
	}
	sessions := session.New(sessionOpts...)
	closers = append(closers, func(context.Context) error { return sessions.Close() })

	anonLimiter, err := ratelimiter.NewBucket(limiterStore, cfg.RateLimits.Anonymous())
	if err != nil {
		return err
	}
	authLimiter, err := ratelimiter.NewBucket(limiterStore, cfg.RateLimits.Auth())
	if err != nil {
		return err
	}

	eventStorage, err := eventlog.NewFileStorage(cfg.EventLogPath)
	if err != nil {
		return err
	}
	closers = append(closers, func(context.Context) error { return eventStorage.Close() })
	events := eventlog.New(eventStorage,
		eventlog.WithUserIDExtractor(session.UserIDFromContext),
		eventlog.WithSessionIDExtractor(session.IDFromContext),
		eventlog.WithRequestIDExtractor(requestid.FromContext),
		eventlog.WithIPExtractor(clientip.FromContext),
	)

	endpoints := api.New(api.Options{
		Accounts:      account.NewService(store, mailer, account.WithLogger(log)),
		Sessions:      sessions,
		Subscriptions: billing,
		Gate:          gate.New(store, gate.WithLogger(log)),
		Generator:     generator,
		Events:        events,
		AnonLimiter:   anonLimiter,
		AuthLimiter:   authLimiter,
		ClientIP:      clientip.NewResolver(),
		BaseURL:       cfg.BaseURL,
		Logger:        log,
	})

	checks := []httpserver.Check{{Name: "postgres", Fn: pg.Healthcheck(pool)}}
	if cache != nil {
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(cache)})
	}

	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		middleware.RealIP,
		middleware.Recoverer,
		environment.Middleware(env),
	)
	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, 5*time.Second, checks...))
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	r.Mount("/api", endpoints.Handle())

	srv := httpserver.New(cfg.HTTP, log)
	for _, closer := range closers {
		srv.OnStop(closer)
	}

	log.InfoContext(ctx, "starting server",
		slog.String("addr", cfg.HTTP.Addr),
		slog.Bool("redis", cache != nil),
	)
	return srv.Run(ctx, r)
}

// emailSender uses Postmark when a server token is configured and writes
// messages to disk otherwise.
func emailSender(cfg email.Config, log *slog.Logger) (email.EmailSender, error) {
	if cfg.UsePostmark() {
		return email.NewPostmarkClient(cfg)
	}
	log.Warn("postmark is not configured, emails are written to disk",
		slog.String("dir", cfg.DevOutputDir),
	)
	return email.NewDevSender(cfg.DevOutputDir), nil
}
