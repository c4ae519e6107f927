package main

import (
	"context"
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"go_ads_bot/ads"
	"go_ads_bot/config"
	"go_ads_bot/database"
	"go_ads_bot/handlers"
	"go_ads_bot/lockfile"
	"go_ads_bot/logger"
	"go_ads_bot/messages"
	"go_ads_bot/metrics"
	"go_ads_bot/scheduler"
	"go_ads_bot/sessions"
	"go_ads_bot/storage"
	"go_ads_bot/tglog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	// .env необязателен: в контейнере переменные приходят из окружения.
	_ = godotenv.Load()

	fx.New(
		fx.Provide(
			config.Load,
			newLogger,
			newLocation,
			newRegistry,
			newScheduler,
			newMetrics,
			newStore,
			newSessions,
			newBot,
			newChannel,
			newManager,
			handlers.New,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Invoke(acquireLock, runOpsServer, runBot),
	).Run()
}

func newLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = log.Sync()
			return nil
		},
	})
	return log, nil
}

func newLocation(cfg *config.Config) (*time.Location, error) {
	return cfg.Location()
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newScheduler(lc fx.Lifecycle, log *zap.Logger, loc *time.Location) *scheduler.Scheduler {
	s := scheduler.New(log, loc)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.Start()
			return nil
		},
		OnStop: s.Stop,
	})
	return s
}

func newMetrics(reg *prometheus.Registry, s *scheduler.Scheduler) *metrics.Metrics {
	return metrics.New(reg, s.Pending)
}

// newStore выбирает Postgres, если задан DATABASE_URL, иначе память процесса.
func newStore(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (ads.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL не задан, записи хранятся в памяти")
		return storage.New(), nil
	}
	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			db.Close()
			return nil
		},
	})
	log.Info("connected to postgres")
	return db, nil
}

func newSessions(lc fx.Lifecycle, cfg *config.Config, s *scheduler.Scheduler, log *zap.Logger) (sessions.Store, error) {
	if cfg.Redis.Addr != "" {
		st := sessions.NewRedisStore(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		lc.Append(fx.Hook{
			OnStart: st.Ping,
			OnStop: func(context.Context) error {
				return st.Close()
			},
		})
		return st, nil
	}

	st := sessions.NewMemoryStore()
	_, err := s.Every("@every 1m", func(ctx context.Context) {
		if n := st.Sweep(ctx); n > 0 {
			log.Debug("expired sessions removed", zap.Int("count", n))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule session sweep: %w", err)
	}
	return st, nil
}

func newBot(cfg *config.Config) (*bot.Bot, error) {
	return bot.New(cfg.BotToken,
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {}),
	)
}

func newChannel(b *bot.Bot, cfg *config.Config, log *zap.Logger) *tglog.Channel {
	return tglog.New(b, cfg.LogChannelID, log)
}

func newManager(
	cfg *config.Config,
	loc *time.Location,
	store ads.Store,
	s *scheduler.Scheduler,
	m *metrics.Metrics,
	channel *tglog.Channel,
	log *zap.Logger,
) *ads.Manager {
	manager := ads.NewManager(store, s, log,
		ads.WithMaturityDelay(cfg.MaturityDelay),
		ads.WithLocation(loc),
		ads.WithRecorder(m),
		ads.WithMaturedHook(func(ctx context.Context, r *ads.Record) error {
			return channel.SendSync(ctx, messages.FormatMatured(r))
		}),
	)
	s.Handle(manager.OnMatured)
	return manager
}

func acquireLock(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) error {
	lock, err := lockfile.Acquire(cfg.LockFile)
	if err != nil {
		if errors.Is(err, lockfile.ErrLocked) {
			log.Error("бот уже запущен", zap.String("lock_file", cfg.LockFile))
		}
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return lock.Release()
		},
	})
	return nil
}

func runOpsServer(lc fx.Lifecycle, cfg *config.Config, reg *prometheus.Registry, log *zap.Logger) {
	if cfg.MetricsAddr == "" {
		return
	}
	srv := metrics.NewServer(cfg.MetricsAddr, reg, log)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			srv.Start()
			return nil
		},
		OnStop: srv.Stop,
	})
}

func runBot(lc fx.Lifecycle, b *bot.Bot, h *handlers.Handler, manager *ads.Manager, log *zap.Logger) {
	h.Register(b)

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			me, err := b.GetMe(startCtx)
			if err != nil {
				return fmt.Errorf("get me: %w", err)
			}
			h.SetBotUsername(me.Username)

			if _, err := manager.Rearm(startCtx); err != nil {
				log.Error("rearm maturity timers", zap.Error(err))
			}

			go b.Start(ctx)
			log.Info("бот запущен", zap.String("username", me.Username))
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
