package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/example/studybot/internal/ai"
	"github.com/example/studybot/internal/bot"
	"github.com/example/studybot/internal/config"
	"github.com/example/studybot/internal/database"
	"github.com/example/studybot/internal/schedule"
	"github.com/example/studybot/internal/scheduler"
)

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		log.Fatalf("Failed to apply environment: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if cfg.Telegram.Token == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	// Create a cancellable context for the whole process
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ids := schedule.UUIDGenerator{}
	var (
		store    schedule.Store
		profiles schedule.ProfileStore
	)
	switch cfg.Database.Driver {
	case config.DriverMemory:
		log.Println("Using in-memory session store; sessions are lost on restart")
		store = schedule.NewMemoryStore(ids)
		profiles = schedule.NewMemoryProfiles()
	default:
		db, err := database.Connect(cfg.Database.Driver, cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		store = database.NewSessionRepository(db, ids)
		profiles = database.NewProfileRepository(db)
		log.Printf("Using %s session store", cfg.Database.Driver)
	}

	var generator ai.Generator
	if cfg.OpenAI.APIKey != "" {
		gpt, err := ai.New(ai.Options{APIKey: cfg.OpenAI.APIKey, Model: cfg.OpenAI.Model})
		if err != nil {
			log.Fatalf("Failed to create content generator: %v", err)
		}
		generator = gpt
	} else {
		log.Println("OPENAI_API_KEY is not set, using built-in sample content")
		generator = ai.WithDelay(ai.MockGenerator{}, cfg.OpenAI.GenerateDelay)
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	api.Debug = cfg.Telegram.Debug
	log.Printf("Authorized on account %s", api.Self.UserName)

	b := bot.New(api, store, profiles, ids, generator, bot.OptionsFromConfig(cfg))

	var reminders *scheduler.Scheduler
	if cfg.Reminders.Enabled {
		reminders = scheduler.New(store, b, scheduler.Config{
			Cron:        cfg.Reminders.Cron,
			LeadMinutes: cfg.Reminders.LeadMinutes,
			Location:    cfg.Location(),
		})
		if err := reminders.Start(); err != nil {
			log.Fatalf("Failed to start reminder scheduler: %v", err)
		}
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := api.GetUpdatesChan(updateConfig)

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Println("Bot started. Press Ctrl+C to stop.")
		if err := b.Run(ctx, updates); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Bot error: %v", err)
		}
	}()

	sig := <-sigChan
	log.Printf("Received signal: %v", sig)
	cancel()
	api.StopReceivingUpdates()
	if reminders != nil {
		reminders.Stop()
	}

	// Run returns once in-flight handlers are done
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Println("Timed out waiting for the bot to stop")
	}
	log.Println("Bot stopped successfully")
}
