package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/studybot/internal/ai"
	"github.com/example/studybot/internal/schedule"
	"github.com/example/studybot/internal/study"
	"github.com/example/studybot/pkg/models"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates an inline keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Sender is the part of the Telegram API the bot talks to.
// *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// userSession is the per-user state: the calendar controller, the content
// library, the study run and the setup in progress
type userSession struct {
	mu       sync.Mutex
	calendar *schedule.Controller
	// library holds imported and generated sets, oldest first
	library    []models.Content
	run        study.Run
	runEvent   string
	onboarding *onboarding

	profile       *models.Profile
	profileLoaded bool
}

// Bot represents a Telegram bot instance
type Bot struct {
	api       Sender
	store     schedule.Store
	profiles  schedule.ProfileStore
	ids       schedule.IdGenerator
	generator ai.Generator
	opts      Options
	client    *http.Client
	now       func() time.Time

	// newRand returns the source quiz runs shuffle with; nil keeps the
	// authored order
	newRand func() *rand.Rand

	mu       sync.Mutex
	sessions map[int64]*userSession
}

// New creates a bot over an API client, a session store and a profile
// store. A nil profile store keeps profiles in memory.
func New(api Sender, store schedule.Store, profiles schedule.ProfileStore, ids schedule.IdGenerator, generator ai.Generator, opts Options) *Bot {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.DefaultDuration <= 0 {
		opts.DefaultDuration = schedule.DefaultSessionMinutes
	}
	if profiles == nil {
		profiles = schedule.NewMemoryProfiles()
	}
	if ids == nil {
		ids = schedule.UUIDGenerator{}
	}
	if generator == nil {
		generator = ai.MockGenerator{}
	}
	return &Bot{
		api:       api,
		store:     store,
		profiles:  profiles,
		ids:       ids,
		generator: generator,
		opts:      opts,
		client:    &http.Client{Timeout: 30 * time.Second},
		now:       time.Now,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		sessions: make(map[int64]*userSession),
	}
}

// Run handles updates until the channel closes or ctx is cancelled. It
// returns once every handler it started has finished.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.HandleUpdate(ctx, update)
			}()
		}
	}
}

// HandleUpdate dispatches one update to the command, document or callback handlers
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.CallbackQuery != nil:
		err = b.HandleCallback(ctx, update.CallbackQuery)
	case update.Message == nil || update.Message.From == nil:
		return
	case update.Message.IsCommand():
		err = b.HandleCommand(ctx, update.Message)
	case update.Message.Document != nil:
		err = b.handleDocument(ctx, update.Message)
	default:
		err = b.handleText(update.Message)
	}
	if err != nil {
		log.Printf("Error handling update %d: %v", update.UpdateID, err)
	}
}

// today is the current date in the configured zone
func (b *Bot) today() models.Date {
	return models.DateOf(b.now().In(b.opts.Location))
}

// session returns the state of a user, creating it on first contact
func (b *Bot) session(userID int64) *userSession {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[userID]
	if !ok {
		s = &userSession{
			calendar: schedule.NewController(b.store, userID, b.today(), schedule.ControllerOptions{
				WeekStart:     b.opts.WeekStart,
				DefaultTime:   b.opts.DefaultTime,
				DefaultLength: b.opts.DefaultDuration,
			}),
		}
		b.sessions[userID] = s
	}
	return s
}

// loadProfile reads the user's profile on first use and applies it to the
// calendar defaults. s.mu must be held.
func (b *Bot) loadProfile(ctx context.Context, s *userSession, userID int64) (*models.Profile, error) {
	if s.profileLoaded {
		return s.profile, nil
	}
	p, err := b.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	b.applyProfile(s, p)
	return p, nil
}

// applyProfile makes new drafts start with the profile's length and method
func (b *Bot) applyProfile(s *userSession, p *models.Profile) {
	s.profile, s.profileLoaded = p, true
	opts := s.calendar.Options()
	opts.DefaultLength = b.opts.DefaultDuration
	opts.DefaultMethod = ""
	if p != nil {
		opts.DefaultLength = p.SessionMinutes()
		opts.DefaultMethod = p.Method()
	}
	s.calendar.SetOptions(opts)
}

func (b *Bot) activeUsers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

func (b *Bot) isAdmin(userID int64) bool {
	for _, id := range b.opts.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// SendSessionReminder tells a user that a session is about to start.
// Users talk to the bot in private chats, so the user id is the chat id.
func (b *Bot) SendSessionReminder(ctx context.Context, ev models.ScheduleEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(ev.UserID, renderReminder(ev))
	msg.ReplyMarkup = reminderKeyboard(ev)
	return b.sendMessage(msg)
}

func (b *Bot) sendMessage(msg tgbotapi.Chattable) error {
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	return b.sendMessage(msg)
}

// sendError turns a handler error into a message the user can act on.
// Unexpected errors are logged and answered with a generic message.
func (b *Bot) sendError(chatID int64, err error) error {
	var verr *schedule.ValidationError
	switch {
	case errors.As(err, &verr):
		return b.sendText(chatID, fmt.Sprintf("⚠️ The %s %s.", verr.Field, verr.Reason))
	case errors.Is(err, schedule.ErrNotFound):
		return b.sendText(chatID, "⚠️ Session not found.")
	case errors.Is(err, schedule.ErrConflict):
		return b.sendText(chatID, "⚠️ The session was changed meanwhile. Please try again.")
	case errors.Is(err, models.ErrContentShapeMismatch):
		return b.sendText(chatID, "⚠️ This session's content does not fit its learning method.")
	}
	log.Printf("Error: %v", err)
	return b.sendText(chatID, "❌ Something went wrong. Please try again later.")
}
