package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/jhrabal/linewatch/internal/archive"
	"github.com/jhrabal/linewatch/internal/config"
	"github.com/jhrabal/linewatch/internal/dispatcher"
	"github.com/jhrabal/linewatch/internal/feed"
	"github.com/jhrabal/linewatch/internal/model"
	"github.com/jhrabal/linewatch/internal/reporter"
	"github.com/jhrabal/linewatch/internal/runner"
	"github.com/jhrabal/linewatch/internal/sender"
	"github.com/jhrabal/linewatch/internal/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()
	cfg := config.Get()

	db, err := sqlx.Connect("postgres", cfg.DatabaseDSN)
	if err != nil {
		log.Printf("[ERROR] failed to connect to db: %v", err)
		return 1
	}
	defer db.Close()

	senders, botAPI, err := buildSenders(cfg)
	if err != nil {
		log.Printf("[ERROR] failed to build channel senders: %v", err)
		return 1
	}
	if len(senders) == 0 {
		log.Printf("[ERROR] no channel configured, nothing to dispatch to")
		return 1
	}

	adminReporter := reporter.New(botAPI, cfg.TelegramAdminChatID)

	pipeline := runner.New(
		feed.NewClient(cfg.FeedURL, cfg.FeedTimeout),
		storage.NewDisruptionStorage(db, cfg.DisruptionsTable),
		storage.NewSubscriberStorage(db, cfg.SubscribersTable),
		dispatcher.New(senders, dispatcher.Options{
			Attempts: cfg.SendAttempts,
			Backoff:  cfg.SendBackoff,
			Timeout:  cfg.SendTimeout,
			Workers:  cfg.DispatchWorkers,
		}),
		archive.New(cfg.ArchiveDir),
		cfg.FetchInterval,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := pipeline.Start(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Printf("[INFO] runner stopped")
			return 0
		}
		log.Printf("[ERROR] run failed: %v", err)
		adminReporter.Notify("linewatch run failed: " + err.Error())
		return 1
	}
	return 0
}

// buildSenders resolves the closed channel set from configuration. A channel
// without credentials is disabled, not an error; its subscribers are simply
// excluded from dispatch. The telegram bot is shared with the admin reporter.
func buildSenders(cfg config.Config) (map[model.ChannelType]sender.Sender, *tgbotapi.BotAPI, error) {
	senders := make(map[model.ChannelType]sender.Sender)

	if cfg.SMTPHost != "" && cfg.EmailFrom != "" {
		senders[model.ChannelEmail] = sender.NewEmailSender(
			cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.EmailFrom,
		)
		log.Printf("[INFO] email sender registered (from: %s)", cfg.EmailFrom)
	}

	if cfg.WhatsAppCredPath != "" {
		cred, err := sender.LoadWhatsAppCredential(cfg.WhatsAppCredPath)
		if err != nil {
			return nil, nil, err
		}
		senders[model.ChannelWhatsApp] = sender.NewWhatsAppSender(cred, cfg.WhatsAppTemplate, cfg.SendTimeout)
		log.Printf("[INFO] whatsapp sender registered (template: %s)", cfg.WhatsAppTemplate)
	}

	var botAPI *tgbotapi.BotAPI
	if cfg.TelegramCredPath != "" {
		cred, err := sender.LoadTelegramCredential(cfg.TelegramCredPath)
		if err != nil {
			return nil, nil, err
		}
		botAPI, err = tgbotapi.NewBotAPI(cred.Token)
		if err != nil {
			return nil, nil, err
		}
		senders[model.ChannelTelegram] = sender.NewTelegramSender(botAPI)
		log.Printf("[INFO] telegram sender registered (bot: %s)", cred.Name)
	}

	return senders, botAPI, nil
}
