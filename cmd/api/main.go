package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mrosiy/tarot-miniapp/internal/api"
	"github.com/mrosiy/tarot-miniapp/internal/config"
	"github.com/mrosiy/tarot-miniapp/internal/database"
	"github.com/mrosiy/tarot-miniapp/internal/notify"
	"github.com/mrosiy/tarot-miniapp/internal/ohmygpt"
	"github.com/mrosiy/tarot-miniapp/internal/policy"
	"github.com/mrosiy/tarot-miniapp/internal/repository"
	"github.com/mrosiy/tarot-miniapp/internal/service"
	"github.com/mrosiy/tarot-miniapp/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	// The bot only delivers notifications here; the API must come up even
	// when Telegram is unreachable.
	var botAPI *tgbotapi.BotAPI
	if cfg.GrantNotifications {
		botAPI, err = tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			logr.Warn("telegram bot unavailable, notifications disabled", "err", err)
			botAPI = nil
		}
	}
	notifier := notify.New(botAPI, logr)

	oracle := ohmygpt.NewClient(cfg, logr)

	userRepo := repository.NewUserRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	rateRepo := repository.NewRateRepository(db)
	achievementRepo := repository.NewAchievementRepository(db)

	ledger := service.NewLedger(userRepo)
	historyService := service.NewHistoryService(logr, historyRepo, paymentRepo)
	progressService := service.NewProgressionService(logr, userRepo, historyRepo, paymentRepo, achievementRepo)
	userService := service.NewUserService(cfg, logr, userRepo, historyService, progressService)
	readingService := service.NewReadingService(logr, userRepo, ledger, historyService, progressService, policy.New(cfg.ForbiddenTopics), oracle)
	paymentService := service.NewPaymentService(cfg, logr, paymentRepo, rateRepo)
	adminService := service.NewAdminService(logr, userRepo, historyRepo, paymentRepo, ledger, notifier)

	server := api.NewServer(cfg, logr, userService, readingService, historyService, paymentService, progressService, adminService)
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Error("api stopped", "err", err)
	}
}
