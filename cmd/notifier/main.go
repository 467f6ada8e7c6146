package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"order-notifier-go/bot"
	"order-notifier-go/checker"
	"order-notifier-go/config"
	"order-notifier-go/exchange"
	"order-notifier-go/infrastructure/logger"
	"order-notifier-go/metrics"
	"order-notifier-go/notify"
	"order-notifier-go/registry"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if cfg.Logger.Level == "" {
		cfg.Logger = logger.DefaultConfig()
	}
	lg, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer lg.Close()

	if cfg.Metrics.Addr != "" {
		metrics.StartMetricsServer(cfg.Metrics.Addr)
	}

	store, err := registry.OpenMySQL(cfg.Database.DSN)
	if err != nil {
		lg.Fatal("open registry", zap.Error(err))
	}

	var pairs exchange.PairCache
	if cfg.Redis.Addr != "" {
		pairs = exchange.NewRedisPairCache(cfg.Redis.Addr)
	} else {
		pairs = exchange.NewMemoryPairCache()
	}

	restRate, restBurst := cfg.Checker.RestRate, cfg.Checker.RestBurst
	if restRate <= 0 {
		restRate = 5
	}
	if restBurst <= 0 {
		restBurst = 10
	}
	client := exchange.NewClient(
		&http.Client{Timeout: 30 * time.Second},
		cfg.Checker.AttemptsLimit,
		exchange.NewTokenBucketLimiter(restRate, restBurst),
		lg.Named("client").Logger,
	)
	deps := exchange.Deps{Client: client, Pairs: pairs}

	tg, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		lg.Fatal("telegram login", zap.Error(err))
	}
	lg.Info("bot authorized", zap.String("username", tg.Self.UserName))

	notifier := notify.NewNotifier(lg.Named("notify").Logger,
		notify.NewTelegramChannel(tg),
		notify.NewLogChannel(lg.Named("notify").Logger),
	)
	if cfg.Nats.URL != "" {
		natsCh, err := notify.NewNatsChannel(cfg.Nats.URL, cfg.Nats.Subject)
		if err != nil {
			lg.Fatal("nats connect", zap.Error(err))
		}
		defer natsCh.Close()
		notifier.AddChannel(natsCh)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	chk := checker.New(store, notifier, deps, lg.Named("checker").Logger)
	sched := checker.NewScheduler(chk,
		time.Duration(cfg.Checker.IntervalSeconds)*time.Second,
		lg.Named("scheduler").Logger)

	// Hot reload: interval and retry ceiling only, everything else needs
	// a restart.
	go func() {
		w := config.Watcher{Path: *cfgPath}
		_ = w.Start(ctx, func(next config.AppConfig) {
			sched.SetInterval(time.Duration(next.Checker.IntervalSeconds) * time.Second)
			client.SetAttempts(next.Checker.AttemptsLimit)
			lg.Info("config reloaded",
				zap.Int("intervalSeconds", next.Checker.IntervalSeconds),
				zap.Int("attemptsLimit", next.Checker.AttemptsLimit))
		})
	}()

	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			lg.Error("scheduler exited", zap.Error(err))
			stop()
		}
	}()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	lg.Info("bot started")

	tgBot := bot.New(tg, store, deps, lg.Named("bot").Logger)
	if err := tgBot.Run(ctx); err != nil && ctx.Err() == nil {
		lg.Error("bot exited", zap.Error(err))
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	lg.Info("bot stopped")
}
