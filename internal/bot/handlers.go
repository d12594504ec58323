package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/studybot/internal/ai"
	"github.com/example/studybot/internal/excel"
	"github.com/example/studybot/internal/ics"
	"github.com/example/studybot/internal/schedule"
	"github.com/example/studybot/internal/study"
	"github.com/example/studybot/pkg/models"
)

// maxImportSize caps uploaded spreadsheets
const maxImportSize = 5 << 20

const (
	usageAdd = "Usage: /add YYYY-MM-DD HH:MM [minutes method] title\n" +
		"Example: /add 2025-01-15 18:30 30 flashcards Spanish verbs\n" +
		"Without minutes and method the session gets the length and method of your profile."
	usagePlan = "Usage: /plan [from:YYYY-MM-DD] method daily|weekly|custom:mon,wed,fri HH:MM minutes title\n" +
		"Example: /plan quizzes custom:mon,thu 19:00 45 Go basics\n" +
		"A bare /plan [from:YYYY-MM-DD] plans from your /onboard profile."
	usageGenerate = "Usage: /generate [method] [topic]\nExample: /generate quizzes HTML and CSS\n" +
		"Method and topic default to your /onboard profile."
)

// HandleCommand processes bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	switch message.Command() {
	case "start":
		return b.handleStart(ctx, message)
	case "help":
		return b.handleHelp(message)
	case "month":
		return b.handleMonth(ctx, message)
	case "day":
		return b.handleDay(ctx, message)
	case "week":
		return b.handleWeek(ctx, message)
	case "add":
		return b.handleAdd(ctx, message)
	case "plan":
		return b.handlePlan(ctx, message)
	case "generate":
		return b.handleGenerate(ctx, message)
	case "done":
		return b.handleDone(ctx, message)
	case "delete":
		return b.handleDelete(ctx, message)
	case "learn":
		return b.handleLearn(ctx, message)
	case "progress":
		return b.handleProgress(ctx, message.Chat.ID, message.From.ID)
	case "export":
		return b.handleExport(ctx, message)
	case "cancel":
		return b.handleCancel(message)
	case "stats":
		return b.handleStats(ctx, message)
	case "onboard":
		return b.handleOnboard(message)
	case "profile":
		return b.handleProfile(ctx, message)
	case "library":
		return b.handleLibrary(message)
	default:
		return b.handleUnknownCommand(message)
	}
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	s := b.session(message.From.ID)
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := b.loadProfile(ctx, s, message.From.ID)
	if err != nil {
		return b.sendError(message.Chat.ID, err)
	}
	text := fmt.Sprintf("👋 Hi, %s!\n\n", message.From.FirstName) +
		"I keep your study sessions on a calendar, remind you before they start " +
		"and run flashcards and quizzes with you.\n\n"
	buttons := mainMenuButtons()
	if p == nil {
		text += "Answer a few questions with /onboard and I will suggest a plan, " +
			"or start right away with /plan or /add. /help lists every command."
		buttons = append([][]MenuButton{{{Text: "🧭 Set up my study plan", CallbackData: callbackOnboard + "start"}}}, buttons...)
	} else {
		text += "Plan the next two weeks on " + p.Topic + " with a bare /plan, or use /help to see every command."
	}
	return b.sendWithKeyboard(message.Chat.ID, text, createKeyboard(buttons))
}

func (b *Bot) handleHelp(message *tgbotapi.Message) error {
	return b.sendText(message.Chat.ID, helpText)
}

func (b *Bot) handleUnknownCommand(message *tgbotapi.Message) error {
	return b.sendWithKeyboard(message.Chat.ID, "Unknown command. Use /help to see what I can do.", createKeyboard(mainMenuButtons()))
}

// handleMonth shows the month grid, optionally jumping to YYYY-MM first
func (b *Bot) handleMonth(ctx context.Context, message *tgbotapi.Message) error {
	s := b.session(message.From.ID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if arg := strings.TrimSpace(message.CommandArguments()); arg != "" {
		t, err := time.Parse("2006-01", arg)
		if err != nil {
			return b.sendText(message.Chat.ID, "Usage: /month [YYYY-MM]")
		}
		s.calendar.GoToMonth(t.Year(), t.Month())
	}
	text, keyboard, err := b.monthView(ctx, s)
	if err != nil {
		return b.sendError(message.Chat.ID, err)
	}
	return b.sendWithKeyboard(message.Chat.ID, text, keyboard)
}

func (b *Bot) monthView(ctx context.Context, s *userSession) (string, tgbotapi.InlineKeyboardMarkup, error) {
	s.calendar.SetView(schedule.ViewMonth)
	cells, err := s.calendar.Month(ctx)
	if err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, err
	}
	month := s.calendar.CurrentMonth()
	return renderMonth(month, cells), monthKeyboard(month, cells, b.opts.WeekStart), nil
}

func (b *Bot) handleDay(ctx context.Context, message *tgbotapi.Message) error {
	s := b.session(message.From.ID)
	s.mu.Lock()
	defer s.mu.Unlock()

	date := b.today()
	if arg := strings.TrimSpace(message.CommandArguments()); arg != "" {
		d, err := models.ParseDate(arg)
		if err != nil {
			return b.sendText(message.Chat.ID, "Usage: /day [YYYY-MM-DD]")
		}
		date = d
	}
	return b.showDay(ctx, message.Chat.ID, s, date)
}

func (b *Bot) showDay(ctx context.Context, chatID int64, s *userSession, date models.Date) error {
	s.calendar.SelectDate(date)
	s.calendar.SetView(schedule.ViewDay)
	events, err := s.calendar.DayEvents(ctx)
	if err != nil {
		return b.sendError(chatID, err)
	}
	return b.sendWithKeyboard(chatID, renderDay(date, events), dayKeyboard(date, events))
}

func (b *Bot) handleWeek(ctx context.Context, message *tgbotapi.Message) error {
	s := b.session(message.From.ID)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calendar.SetView(schedule.ViewWeek)
	events, err := s.calendar.WeekEvents(ctx)
	if err != nil {
		return b.sendError(message.Chat.ID, err)
	}
	days := schedule.WeekOf(s.calendar.SelectedDate(), b.opts.WeekStart)
	return b.sendText(message.Chat.ID, renderWeek(days, events))
}

// handleAdd creates one session through the calendar editor:
// /add 2025-01-15 18:30 30 flashcards Spanish verbs
// or, with the length and method of the profile, /add 2025-01-15 18:30 Spanish verbs
func (b *Bot) handleAdd(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	args := strings.Fields(message.CommandArguments())
	if len(args) < 3 {
		return b.sendText(chatID, usageAdd)
	}
	date, err := models.ParseDate(args[0])
	if err != nil {
		return b.sendText(chatID, "⚠️ Invalid date. "+usageAdd)
	}
	start, err := models.ParseClock(args[1])
	if err != nil {
		return b.sendText(chatID, "⚠️ Invalid time. "+usageAdd)
	}
	var (
		minutes int
		method  models.LearningMethod
		title   = args[2:]
	)
	if n, err := strconv.Atoi(args[2]); err == nil {
		if len(args) < 5 {
			return b.sendText(chatID, usageAdd)
		}
		if method, err = models.ParseLearningMethod(args[3]); err != nil {
			return b.sendText(chatID, "⚠️ Unknown method. Use flashcards, quizzes, game or chat.")
		}
		minutes, title = n, args[4:]
	}

	s := b.session(message.From.ID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if method == "" {
		if _, err := b.loadProfile(ctx, s, message.From.ID); err != nil {
			return b.sendError(chatID, err)
		}
	}
	saved, used, err := b.addSession(ctx, s, date, start, minutes, method, strings.Join(title, " "))
	if err != nil {
		return b.sendError(chatID, err)
	}
	if used >= 0 {
		s.removeFromLibrary(used)
	}
	return b.sendText(chatID, renderSaved(saved))
}

// addSession fills a new draft and saves it. Zero minutes or an empty
// method keep the draft defaults. The newest library set of the method is
// attached and its index returned, or -1 when there was none. The editor
// is closed on every path so a failed /add does not leave a draft behind.
func (b *Bot) addSession(ctx context.Context, s *userSession, date models.Date, start models.Clock, minutes int,
	method models.LearningMethod, title string) (models.ScheduleEvent, int, error) {
	c := s.calendar
	c.SelectDate(date)
	draft := c.OpenNew()
	defer c.Cancel()

	if err := c.Edit(func(ev *models.ScheduleEvent) {
		ev.Title = title
		ev.StartTime = start
	}); err != nil {
		return models.ScheduleEvent{}, -1, err
	}
	if minutes != 0 {
		if err := c.SetDuration(minutes); err != nil {
			return models.ScheduleEvent{}, -1, err
		}
	}
	if method == "" {
		method = draft.LearningMethod
	} else if err := c.SetLearningMethod(method); err != nil {
		return models.ScheduleEvent{}, -1, err
	}
	used := s.libraryIndex(method)
	if used >= 0 {
		if err := c.SetContent(s.library[used]); err != nil {
			return models.ScheduleEvent{}, -1, err
		}
	}
	saved, err := c.Save(ctx)
	if err != nil {
		return models.ScheduleEvent{}, -1, err
	}
	return saved, used, nil
}

// parsePlan reads "method frequency HH:MM minutes title..." into a policy
func parsePlan(args []string) (schedule.RecurrencePolicy, error) {
	var p schedule.RecurrencePolicy
	if len(args) < 5 {
		return p, errors.New("missing arguments")
	}
	method, err := models.ParseLearningMethod(args[0])
	if err != nil {
		return p, err
	}
	freq, days, _ := strings.Cut(args[1], ":")
	frequency, err := schedule.ParseFrequency(freq)
	if err != nil {
		return p, err
	}
	if frequency == schedule.FrequencyCustom {
		if p.SelectedDays, err = schedule.ParseWeekdays(days); err != nil {
			return p, err
		}
	}
	if p.PreferredTime, err = models.ParseClock(args[2]); err != nil {
		return p, err
	}
	if p.SessionDurationMinutes, err = strconv.Atoi(args[3]); err != nil {
		return p, fmt.Errorf("invalid duration: %w", err)
	}
	p.Frequency = frequency
	p.ContentType = method
	p.ContentTitle = strings.Join(args[4:], " ")
	return p, nil
}

// splitFrom removes a from:YYYY-MM-DD argument and returns its date
func splitFrom(args []string) ([]string, models.Date, error) {
	var (
		rest []string
		from models.Date
	)
	for _, a := range args {
		v, ok := strings.CutPrefix(a, "from:")
		if !ok {
			rest = append(rest, a)
			continue
		}
		d, err := models.ParseDate(v)
		if err != nil {
			return nil, models.Date{}, err
		}
		from = d
	}
	return rest, from, nil
}

// handlePlan expands a recurrence over two weeks, starting today unless a
// from: date is given. Without other arguments the profile supplies the plan.
func (b *Bot) handlePlan(ctx context.Context, message *tgbotapi.Message) error {
	chatID, userID := message.Chat.ID, message.From.ID
	args, from, err := splitFrom(strings.Fields(message.CommandArguments()))
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("⚠️ %v\n%s", err, usagePlan))
	}
	start := b.today()
	if !from.IsZero() {
		if from.Before(start) {
			return b.sendText(chatID, "⚠️ The start date must not be in the past.")
		}
		start = from
	}

	s := b.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(args) == 0 {
		return b.planFromProfile(ctx, chatID, userID, s, start)
	}
	policy, err := parsePlan(args)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("⚠️ %v\n%s", err, usagePlan))
	}
	policy.UserID = userID
	policy.StartDate = start
	return b.plan(ctx, chatID, s, policy)
}

// planFromProfile plans with the defaults of the user's profile. s.mu must be held.
func (b *Bot) planFromProfile(ctx context.Context, chatID, userID int64, s *userSession, start models.Date) error {
	p, err := b.loadProfile(ctx, s, userID)
	if err != nil {
		return b.sendError(chatID, err)
	}
	if p == nil {
		return b.sendWithKeyboard(chatID, "Tell me how you like to study first, or name the plan yourself.\n"+usagePlan,
			createKeyboard([][]MenuButton{{{Text: "🧭 Set up my study plan", CallbackData: callbackOnboard + "start"}}}))
	}
	return b.plan(ctx, chatID, s, schedule.PolicyFromProfile(*p, start, b.opts.DefaultTime))
}

// plan stores the sessions of a policy, attaching the newest library set of
// its method. s.mu must be held.
func (b *Bot) plan(ctx context.Context, chatID int64, s *userSession, policy schedule.RecurrencePolicy) error {
	used := s.libraryIndex(policy.ContentType)
	if used >= 0 {
		policy.Content = s.library[used]
	}
	events, err := schedule.Plan(ctx, b.store, policy, b.ids)
	if err != nil {
		if len(events) > 0 {
			log.Printf("Plan for user %d stopped after %d sessions: %v", policy.UserID, len(events), err)
		}
		return b.sendError(chatID, err)
	}
	if len(events) == 0 {
		return b.sendText(chatID, "No sessions planned: none of the selected weekdays fall in the next two weeks.")
	}
	if used >= 0 {
		s.removeFromLibrary(used)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🗓 Planned %d %s sessions \"%s\" at %s:\n", len(events), policy.ContentType, policy.ContentTitle, policy.PreferredTime)
	for _, ev := range events {
		fmt.Fprintf(&sb, "\n• %s", dayTitle(ev.Date))
	}
	return b.sendWithKeyboard(chatID, sb.String(), createKeyboard([][]MenuButton{{
		{Text: "📅 Open calendar", CallbackData: callbackMonth + "today"},
	}}))
}

// handleGenerate asks the content generator for a payload and adds it to
// the library. The profile fills in a missing method or topic.
func (b *Bot) handleGenerate(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	args := strings.TrimSpace(message.CommandArguments())
	first, rest, _ := strings.Cut(args, " ")
	m, err := models.ParseLearningMethod(first)
	topic := strings.TrimSpace(rest)
	if err != nil {
		m, topic = "", args
	}

	s := b.session(message.From.ID)
	if m == "" || topic == "" {
		s.mu.Lock()
		p, err := b.loadProfile(ctx, s, message.From.ID)
		s.mu.Unlock()
		if err != nil {
			return b.sendError(chatID, err)
		}
		if p == nil {
			return b.sendText(chatID, usageGenerate)
		}
		if m == "" {
			m = p.Method()
		}
		if topic == "" {
			topic = p.Topic
		}
	}
	if err := b.sendText(chatID, "⏳ Generating content..."); err != nil {
		return err
	}

	content, err := b.generator.Generate(ctx, ai.Request{Topic: topic, Method: m, Count: b.opts.GenerateCount})
	if err != nil {
		log.Printf("Error generating %s content for user %d: %v", m, message.From.ID, err)
		return b.sendText(chatID, "❌ Could not generate content. Please try again later.")
	}

	s.mu.Lock()
	s.addToLibrary(content)
	s.mu.Unlock()

	return b.sendText(chatID, renderContent(content)+
		fmt.Sprintf("\n\nSaved to your /library. The next /add or /plan with method %s will use it.", m))
}

func (b *Bot) handleDone(ctx context.Context, message *tgbotapi.Message) error {
	id := strings.TrimSpace(message.CommandArguments())
	if id == "" {
		return b.sendText(message.Chat.ID, "Usage: /done id")
	}
	return b.toggle(ctx, message.Chat.ID, message.From.ID, id)
}

func (b *Bot) toggle(ctx context.Context, chatID, userID int64, id string) error {
	s := b.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := s.calendar.ToggleCompletion(ctx, id)
	if err != nil {
		return b.sendError(chatID, err)
	}
	return b.sendText(chatID, renderEvent(ev))
}

func (b *Bot) handleDelete(ctx context.Context, message *tgbotapi.Message) error {
	id := strings.TrimSpace(message.CommandArguments())
	if id == "" {
		return b.sendText(message.Chat.ID, "Usage: /delete id")
	}
	return b.deleteSession(ctx, message.Chat.ID, message.From.ID, id)
}

func (b *Bot) deleteSession(ctx context.Context, chatID, userID int64, id string) error {
	s := b.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := s.calendar.OpenExisting(ctx, id)
	if err != nil {
		return b.sendError(chatID, err)
	}
	if err := s.calendar.Delete(ctx); err != nil {
		s.calendar.Cancel()
		return b.sendError(chatID, err)
	}
	return b.sendText(chatID, fmt.Sprintf("🗑 Deleted \"%s\" on %s.", ev.Title, dayTitle(ev.Date)))
}

func (b *Bot) handleLearn(ctx context.Context, message *tgbotapi.Message) error {
	id := strings.TrimSpace(message.CommandArguments())
	if id == "" {
		return b.sendText(message.Chat.ID, "Usage: /learn id")
	}
	return b.startLearning(ctx, message.Chat.ID, message.From.ID, id)
}

// startLearning opens the session, hands its content to a study run and
// shows the first step. A run already in progress is replaced.
func (b *Bot) startLearning(ctx context.Context, chatID, userID int64, id string) error {
	s := b.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.calendar.OpenExisting(ctx, id); err != nil {
		return b.sendError(chatID, err)
	}
	handoff, err := s.calendar.StartLearning()
	if err != nil {
		s.calendar.Cancel()
		return b.sendError(chatID, err)
	}
	run, err := study.Start(handoff, b.newRand())
	if err != nil {
		return b.sendError(chatID, err)
	}
	s.run = run
	s.runEvent = handoff.EventID
	return b.showRun(chatID, s)
}

// showRun sends the current step of the user's study run, or its summary
// once it is done
func (b *Bot) showRun(chatID int64, s *userSession) error {
	switch r := s.run.(type) {
	case *study.QuizRun:
		if q, pos, ok := r.Current(); ok {
			return b.sendWithKeyboard(chatID, renderQuestion(r.Title(), q, pos, r.Len()), quizKeyboard(q))
		}
	case *study.CardRun:
		if card, revealed, ok := r.Current(); ok {
			return b.sendWithKeyboard(chatID, renderCard(r.Title(), card, revealed, r.Remaining()), cardKeyboard(revealed))
		}
	case *study.Briefing:
		if err := b.sendText(chatID, r.Describe()); err != nil {
			return err
		}
	case nil:
		return b.sendText(chatID, "No study run in progress. Use /learn id to start one.")
	}
	return b.finishRun(chatID, s)
}

func (b *Bot) finishRun(chatID int64, s *userSession) error {
	run, id := s.run, s.runEvent
	s.run, s.runEvent = nil, ""
	return b.sendWithKeyboard(chatID, renderRunEnd(run), createKeyboard([][]MenuButton{{
		{Text: "✅ Mark session done", CallbackData: callbackToggle + id},
	}}))
}

func (b *Bot) handleCancel(message *tgbotapi.Message) error {
	s := b.session(message.From.ID)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calendar.Cancel()
	switch {
	case s.onboarding != nil:
		s.onboarding = nil
		return b.sendText(message.Chat.ID, "Setup cancelled. Your saved profile did not change.")
	case s.run != nil:
		s.run, s.runEvent = nil, ""
		return b.sendText(message.Chat.ID, "Study run stopped.")
	}
	return b.sendText(message.Chat.ID, "Nothing to cancel.")
}

func (b *Bot) handleProgress(ctx context.Context, chatID, userID int64) error {
	events, err := b.store.List(ctx, userID)
	if err != nil {
		return b.sendError(chatID, err)
	}
	return b.sendText(chatID, renderProgress(schedule.Progress(events, b.today())))
}

// handleExport sends every session of the user as an iCalendar file
func (b *Bot) handleExport(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	events, err := b.store.List(ctx, message.From.ID)
	if err != nil {
		return b.sendError(chatID, err)
	}
	if len(events) == 0 {
		return b.sendText(chatID, "Nothing to export yet. Plan some sessions with /plan.")
	}
	data := ics.Export(events, b.opts.Location, "Study sessions", b.now())
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: "study-sessions.ics", Bytes: []byte(data)})
	doc.Caption = fmt.Sprintf("📤 %d sessions. Import the file into your calendar app.", len(events))
	return b.sendMessage(doc)
}

// handleStats is admin-only: users seen since start and sessions still due today
func (b *Bot) handleStats(ctx context.Context, message *tgbotapi.Message) error {
	if !b.isAdmin(message.From.ID) {
		return b.sendText(message.Chat.ID, "This command is only available for administrators.")
	}
	pending, err := b.store.PendingOn(ctx, b.today())
	if err != nil {
		return b.sendError(message.Chat.ID, err)
	}
	users := make(map[int64]bool)
	for _, ev := range pending {
		users[ev.UserID] = true
	}
	text := fmt.Sprintf("📈 Active users since start: %d\nSessions pending today: %d (%d users)",
		b.activeUsers(), len(pending), len(users))
	return b.sendText(message.Chat.ID, text)
}

// handleDocument imports cards or questions from an uploaded spreadsheet.
// The caption names the method and, optionally, the title.
func (b *Bot) handleDocument(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	doc := message.Document
	method, title, _ := strings.Cut(strings.TrimSpace(message.Caption), " ")
	m, err := models.ParseLearningMethod(method)
	if err != nil || (m != models.MethodFlashcards && m != models.MethodQuizzes) {
		return b.sendText(chatID, "To import, send an .xlsx or .csv file with the caption \"flashcards\" or \"quizzes\", optionally followed by a title.")
	}
	if doc.FileSize > maxImportSize {
		return b.sendText(chatID, "⚠️ The file is too large. The limit is 5 MB.")
	}

	body, err := b.download(ctx, doc.FileID)
	if err != nil {
		return b.sendError(chatID, err)
	}
	defer body.Close()

	cfg := excel.DefaultImportConfig(m)
	cfg.FilePath = doc.FileName
	cfg.Reader = body
	cfg.Title = strings.TrimSpace(title)
	content, result, err := excel.ImportContent(cfg)
	if err != nil {
		log.Printf("Import of %q for user %d failed: %v", doc.FileName, message.From.ID, err)
		return b.sendText(chatID, "❌ Nothing could be imported from this file. "+
			"Flashcards need front and back in columns A and B; quizzes need the question in A, options in B-E and the answer in F "+
			"as an option number or letter, or else the option text.")
	}

	s := b.session(message.From.ID)
	s.mu.Lock()
	s.addToLibrary(content)
	s.mu.Unlock()

	text := fmt.Sprintf("📥 Imported %d of %d rows as %s \"%s\".", result.Imported, result.TotalProcessed, m, models.ContentTitle(content))
	if result.Skipped > 0 {
		text += fmt.Sprintf("\nSkipped %d rows:", result.Skipped)
		for i, e := range result.Errors {
			if i == 5 {
				text += fmt.Sprintf("\n… and %d more", len(result.Errors)-i)
				break
			}
			text += "\n• " + e
		}
	}
	text += fmt.Sprintf("\n\nSaved to your /library. The next /add or /plan with method %s will use it.", m)
	return b.sendText(chatID, text)
}

// download fetches an uploaded file from the Telegram file API
func (b *Bot) download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// HandleCallback processes inline keyboard presses
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback == nil || callback.Message == nil || callback.From == nil {
		return fmt.Errorf("invalid callback data: required fields are missing")
	}

	// Always answer the callback query to remove the loading state
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		log.Printf("Warning: Failed to answer callback: %v", err)
	}

	chatID, userID := callback.Message.Chat.ID, callback.From.ID
	data := callback.Data
	switch {
	case data == callbackNoop:
		return nil
	case data == callbackHelp:
		return b.sendText(chatID, helpText)
	case data == callbackProgress:
		return b.handleProgress(ctx, chatID, userID)
	case data == callbackPlan:
		s := b.session(userID)
		s.mu.Lock()
		defer s.mu.Unlock()
		return b.planFromProfile(ctx, chatID, userID, s, b.today())
	case strings.HasPrefix(data, callbackOnboard):
		return b.handleOnboardCallback(ctx, chatID, userID, strings.TrimPrefix(data, callbackOnboard))
	case strings.HasPrefix(data, callbackMonth):
		return b.handleMonthCallback(ctx, callback, strings.TrimPrefix(data, callbackMonth))
	case strings.HasPrefix(data, callbackDay):
		d, err := models.ParseDate(strings.TrimPrefix(data, callbackDay))
		if err != nil {
			return fmt.Errorf("invalid date in callback data: %w", err)
		}
		s := b.session(userID)
		s.mu.Lock()
		defer s.mu.Unlock()
		return b.showDay(ctx, chatID, s, d)
	case strings.HasPrefix(data, callbackToggle):
		return b.toggle(ctx, chatID, userID, strings.TrimPrefix(data, callbackToggle))
	case strings.HasPrefix(data, callbackLearn):
		return b.startLearning(ctx, chatID, userID, strings.TrimPrefix(data, callbackLearn))
	case strings.HasPrefix(data, callbackDelete):
		return b.deleteSession(ctx, chatID, userID, strings.TrimPrefix(data, callbackDelete))
	case strings.HasPrefix(data, callbackQuiz):
		i, err := strconv.Atoi(strings.TrimPrefix(data, callbackQuiz))
		if err != nil {
			return fmt.Errorf("invalid option in callback data: %w", err)
		}
		return b.handleQuizAnswer(chatID, userID, i)
	case strings.HasPrefix(data, callbackCard):
		return b.handleCardAction(chatID, userID, strings.TrimPrefix(data, callbackCard))
	}
	return b.sendText(chatID, "⚠️ Unknown action")
}

// handleMonthCallback moves the grid and edits the calendar message in place
func (b *Bot) handleMonthCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, action string) error {
	s := b.session(callback.From.ID)
	s.mu.Lock()
	defer s.mu.Unlock()

	edit := true
	switch action {
	case "prev":
		s.calendar.PrevMonth()
	case "next":
		s.calendar.NextMonth()
	case "today":
		today := b.today()
		s.calendar.GoToMonth(today.Year, today.Month)
		s.calendar.SelectDate(today)
		edit = callback.Message.ReplyMarkup != nil && isMonthKeyboard(callback.Message.ReplyMarkup)
	case "show":
		edit = false
	default:
		return fmt.Errorf("unknown month action %q", action)
	}

	text, keyboard, err := b.monthView(ctx, s)
	if err != nil {
		return b.sendError(callback.Message.Chat.ID, err)
	}
	if !edit {
		return b.sendWithKeyboard(callback.Message.Chat.ID, text, keyboard)
	}
	msg := tgbotapi.NewEditMessageTextAndMarkup(callback.Message.Chat.ID, callback.Message.MessageID, text, keyboard)
	return b.sendMessage(msg)
}

// isMonthKeyboard reports whether a message carries the month grid, which
// starts with the « / » navigation row
func isMonthKeyboard(markup *tgbotapi.InlineKeyboardMarkup) bool {
	if len(markup.InlineKeyboard) == 0 || len(markup.InlineKeyboard[0]) != 3 {
		return false
	}
	prev := markup.InlineKeyboard[0][0].CallbackData
	return prev != nil && *prev == callbackMonth+"prev"
}

func (b *Bot) handleQuizAnswer(chatID, userID int64, option int) error {
	s := b.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.run.(*study.QuizRun)
	if !ok {
		return b.sendText(chatID, "No quiz in progress. Use /learn id to start one.")
	}
	q, _, _ := run.Current()
	res, err := run.Answer(option)
	switch {
	case errors.Is(err, study.ErrBadOption):
		return b.sendText(chatID, "⚠️ That option is not part of this question.")
	case err != nil:
		return b.showRun(chatID, s)
	}
	if err := b.sendText(chatID, renderAnswer(q, res)); err != nil {
		return err
	}
	return b.showRun(chatID, s)
}

func (b *Bot) handleCardAction(chatID, userID int64, action string) error {
	s := b.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.run.(*study.CardRun)
	if !ok {
		return b.sendText(chatID, "No flashcards in progress. Use /learn id to start.")
	}
	if action == cardReveal {
		if _, err := run.Reveal(); err != nil && !errors.Is(err, study.ErrFinished) {
			return err
		}
		return b.showRun(chatID, s)
	}

	rating, err := study.ParseRating(action)
	if err != nil {
		return fmt.Errorf("invalid rating in callback data: %w", err)
	}
	if err := run.Rate(rating); err != nil {
		if errors.Is(err, study.ErrNotRevealed) {
			return b.sendText(chatID, "Show the answer first.")
		}
		if !errors.Is(err, study.ErrFinished) {
			return err
		}
	}
	return b.showRun(chatID, s)
}
