package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telegram-marketplace/internal/config"
	pg "telegram-marketplace/internal/infra/db/postgres"
	"telegram-marketplace/internal/infra/logging"
	"telegram-marketplace/internal/infra/metrics"
	red "telegram-marketplace/internal/infra/redis"
	"telegram-marketplace/internal/infra/sched"
	tele "telegram-marketplace/internal/infra/telegram"
	"telegram-marketplace/internal/infra/web"
	"telegram-marketplace/internal/infra/worker"
	"telegram-marketplace/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, debug level)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	states := red.NewStateStore(redisClient, logger)
	limiter := red.NewRateLimiter(redisClient)
	notifier := red.NewNotifier(redisClient, logger)

	// ---- Repositories ----
	userRepo := pg.NewPostgresUserRepo(pool)
	productRepo := pg.NewPostgresProductRepo(pool)
	orderRepo := pg.NewPostgresOrderRepo(pool)
	categoryRepo := pg.NewPostgresCategoryRepo(pool)
	messageRepo := pg.NewPostgresMessageRepo(pool)
	conversationRepo := pg.NewPostgresConversationRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo, tm, notifier, logger)
	productUC := usecase.NewProductUseCase(productRepo, userRepo, tm, notifier, logger)
	cartUC := usecase.NewCartUseCase(userRepo, productRepo, tm, logger)
	orderUC := usecase.NewOrderUseCase(orderRepo, userRepo, productRepo, tm, notifier, logger)
	categoryUC := usecase.NewCategoryUseCase(categoryRepo, userRepo, productRepo, states, notifier, logger)
	chatUC := usecase.NewChatUseCase(messageRepo, conversationRepo, userRepo, notifier, logger)

	// ---- Telegram ----
	bot, err := tele.NewBot(&cfg.Bot, tele.Deps{
		Users:      userUC,
		Products:   productUC,
		Cart:       cartUC,
		Orders:     orderUC,
		Categories: categoryUC,
		Chat:       chatUC,
		States:     states,
		Limiter:    limiter,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}
	go func() {
		if err := bot.StartPolling(ctx); err != nil {
			logger.Warn().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Notification relay ----
	pool2 := worker.NewPool(cfg.Bot.Workers, logger)
	pool2.Start(ctx)
	defer pool2.Stop()
	relay := tele.NewRelay(notifier, pool2, bot.Transport(), logger)
	go relay.Run(ctx)

	// ---- Category request sweeper ----
	sweeper := sched.NewSweepWorker(cfg.Sweep.Interval, cfg.Sweep.RequestTTL, categoryUC, logger)
	go func() { _ = sweeper.Run(ctx) }()

	// ---- REST API ----
	metrics.MustRegister()
	auth := web.NewAuthManager(cfg.Web.JWTSecret, cfg.Web.JWTTTL)
	srv := web.NewServer(web.Deps{
		Users:      userUC,
		Products:   productUC,
		Cart:       cartUC,
		Orders:     orderUC,
		Categories: categoryUC,
		Chat:       chatUC,
	}, auth, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
	bot.StopPolling()
	cancel()
}
