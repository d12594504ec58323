package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/studybot/pkg/models"
)

type onboardingStep int

const (
	stepTopic onboardingStep = iota
	stepTime
	stepStyle
	stepPreference
	stepGoal
	stepSummary
)

const onboardingSteps = int(stepSummary) + 1

// onboarding is the profile being filled in by /onboard
type onboarding struct {
	step    onboardingStep
	profile models.Profile
}

type choice struct {
	value string
	label string
}

var availabilityChoices = []choice{
	{models.AvailabilityUnder15, "Less than 15 minutes per day"},
	{models.Availability15To30, "15-30 minutes per day"},
	{models.Availability30To60, "30-60 minutes per day"},
	{models.AvailabilityOver60, "More than 60 minutes per day"},
	{models.AvailabilityWeekends, "Mostly weekends"},
	{models.AvailabilityIrregular, "Irregular schedule"},
}

var styleChoices = []choice{
	{"visual", "Visual"},
	{"auditory", "Auditory"},
	{"reading", "Reading/Writing"},
	{"kinesthetic", "Kinesthetic"},
	{"tactile", "Tactile"},
	{"verbal", "Verbal"},
	{"logical", "Logical"},
	{"social", "Social"},
	{"solitary", "Solitary"},
}

var preferenceChoices = []choice{
	{models.PreferShortSessions, "Short, frequent sessions"},
	{models.PreferLongSessions, "Longer, deeper sessions"},
	{"structured", "Structured learning"},
	{"exploratory", "Exploratory learning"},
	{"practical", "Practical applications"},
	{"theoretical", "Theoretical understanding"},
}

var goalChoices = []string{
	"Build professional skills for my career",
	"Learn a new subject from scratch",
	"Deepen knowledge in my field of expertise",
	"Prepare for an exam or certification",
	"Personal enrichment and curiosity",
}

func labelOf(choices []choice, value string) string {
	for _, c := range choices {
		if c.value == value {
			return c.label
		}
	}
	return value
}

func choiceButtons(prefix string, choices []choice, perRow int) [][]MenuButton {
	var rows [][]MenuButton
	for i, c := range choices {
		if i%perRow == 0 {
			rows = append(rows, nil)
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], MenuButton{Text: c.label, CallbackData: prefix + c.value})
	}
	return rows
}

func onboardingPrompt(o *onboarding) (string, [][]MenuButton) {
	header := fmt.Sprintf("🧭 Step %d of %d\n\n", int(o.step)+1, onboardingSteps)
	back := []MenuButton{{Text: "↩️ Back", CallbackData: callbackOnboard + "back"}}
	switch o.step {
	case stepTopic:
		return header + "What do you want to learn? Send the topic as a message, for example \"Spanish verbs\".\n\n/cancel stops the setup.", nil
	case stepTime:
		rows := choiceButtons(callbackOnboard+"time:", availabilityChoices, 1)
		return header + "How much time can you spend learning?", append(rows, back)
	case stepStyle:
		rows := choiceButtons(callbackOnboard+"style:", styleChoices, 3)
		return header + "How do you learn best?", append(rows, back)
	case stepPreference:
		rows := choiceButtons(callbackOnboard+"pref:", preferenceChoices, 2)
		rows = append(rows, []MenuButton{{Text: "Skip", CallbackData: callbackOnboard + "pref:"}})
		return header + "What kind of sessions do you prefer?", append(rows, back)
	case stepGoal:
		var rows [][]MenuButton
		for i, g := range goalChoices {
			rows = append(rows, []MenuButton{{Text: g, CallbackData: callbackOnboard + "goal:" + strconv.Itoa(i)}})
		}
		rows = append(rows, []MenuButton{{Text: "Skip", CallbackData: callbackOnboard + "goal:"}})
		return header + "What is your learning goal? Pick one or send your own as a message.", append(rows, back)
	}
	return header + renderProfile(o.profile) + "\n\nSave this profile?", [][]MenuButton{
		{{Text: "✅ Save", CallbackData: callbackOnboard + "save"}, back[0]},
		{{Text: "🔄 Start over", CallbackData: callbackOnboard + "start"}},
	}
}

func frequencyText(p models.Profile) string {
	switch p.TimeAvailability {
	case models.AvailabilityWeekends:
		return "on Saturdays and Sundays"
	case models.AvailabilityIrregular:
		return "once a week"
	}
	return "every day"
}

func renderProfile(p models.Profile) string {
	optional := func(s string) string {
		if s == "" {
			return "not set"
		}
		return s
	}
	return fmt.Sprintf("Topic: %s\nTime: %s\nStyle: %s\nPreference: %s\nGoal: %s\n\n"+
		"Plans get %d-minute %s sessions %s.",
		p.Topic,
		labelOf(availabilityChoices, p.TimeAvailability),
		labelOf(styleChoices, p.LearningStyle),
		optional(labelOf(preferenceChoices, p.Preference)),
		optional(p.Goal),
		p.SessionMinutes(), p.Method(), frequencyText(p))
}

func (b *Bot) showOnboarding(chatID int64, o *onboarding) error {
	text, buttons := onboardingPrompt(o)
	if buttons == nil {
		return b.sendText(chatID, text)
	}
	return b.sendWithKeyboard(chatID, text, createKeyboard(buttons))
}

// startOnboarding opens the setup for a user. s.mu must be held.
func (b *Bot) startOnboarding(chatID, userID int64, s *userSession) error {
	s.onboarding = &onboarding{step: stepTopic, profile: models.Profile{UserID: userID}}
	return b.showOnboarding(chatID, s.onboarding)
}

func (b *Bot) handleOnboard(message *tgbotapi.Message) error {
	s := b.session(message.From.ID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return b.startOnboarding(message.Chat.ID, message.From.ID, s)
}

// handleText takes free-text answers of the setup: the topic and a custom goal
func (b *Bot) handleText(message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	s := b.session(message.From.ID)
	s.mu.Lock()
	defer s.mu.Unlock()

	o := s.onboarding
	text := strings.TrimSpace(message.Text)
	if o == nil || text == "" || (o.step != stepTopic && o.step != stepGoal) {
		return b.sendText(chatID, "I don't understand. Use /help to see what I can do.")
	}
	if o.step == stepTopic {
		o.profile.Topic = shorten(text, 100)
	} else {
		o.profile.Goal = shorten(text, 200)
	}
	o.step++
	return b.showOnboarding(chatID, o)
}

// handleOnboardCallback records a button answer of the setup
func (b *Bot) handleOnboardCallback(ctx context.Context, chatID, userID int64, action string) error {
	s := b.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if action == "start" {
		return b.startOnboarding(chatID, userID, s)
	}
	o := s.onboarding
	if o == nil {
		return b.sendText(chatID, "The setup is not running. Use /onboard to start it.")
	}

	kind, value, _ := strings.Cut(action, ":")
	switch {
	case kind == "back":
		if o.step > stepTopic {
			o.step--
		}
	case kind == "time" && o.step == stepTime:
		if !models.KnownAvailability(value) {
			return fmt.Errorf("unknown availability %q", value)
		}
		o.profile.TimeAvailability = value
		o.step++
	case kind == "style" && o.step == stepStyle:
		if !models.KnownLearningStyle(value) {
			return fmt.Errorf("unknown learning style %q", value)
		}
		o.profile.LearningStyle = value
		o.step++
	case kind == "pref" && o.step == stepPreference:
		o.profile.Preference = value
		o.step++
	case kind == "goal" && o.step == stepGoal:
		o.profile.Goal = ""
		if value != "" {
			i, err := strconv.Atoi(value)
			if err != nil || i < 0 || i >= len(goalChoices) {
				return fmt.Errorf("unknown goal %q", value)
			}
			o.profile.Goal = goalChoices[i]
		}
		o.step++
	case kind == "save" && o.step == stepSummary:
		return b.saveOnboarding(ctx, chatID, s, o.profile)
	default:
		// a button of an earlier step was pressed again
		return b.showOnboarding(chatID, o)
	}
	return b.showOnboarding(chatID, o)
}

func (b *Bot) saveOnboarding(ctx context.Context, chatID int64, s *userSession, p models.Profile) error {
	saved, err := b.profiles.SaveProfile(ctx, p)
	if err != nil {
		return b.sendError(chatID, err)
	}
	s.onboarding = nil
	b.applyProfile(s, &saved)
	text := "💾 Profile saved.\n\n" + renderProfile(saved) +
		"\n\nPlan two weeks now, or later with a bare /plan. /generate without arguments prepares material on your topic."
	return b.sendWithKeyboard(chatID, text, createKeyboard([][]MenuButton{{
		{Text: "🗓 Plan two weeks", CallbackData: callbackPlan},
		{Text: "📅 Calendar", CallbackData: callbackMonth + "today"},
	}}))
}

func (b *Bot) handleProfile(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	s := b.session(message.From.ID)
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := b.loadProfile(ctx, s, message.From.ID)
	if err != nil {
		return b.sendError(chatID, err)
	}
	if p == nil {
		return b.sendWithKeyboard(chatID, "You have no study profile yet.", createKeyboard([][]MenuButton{{
			{Text: "🧭 Set up my study plan", CallbackData: callbackOnboard + "start"},
		}}))
	}
	return b.sendWithKeyboard(chatID, "🧭 Your study profile\n\n"+renderProfile(*p), createKeyboard([][]MenuButton{{
		{Text: "🔄 Change", CallbackData: callbackOnboard + "start"},
		{Text: "🗓 Plan two weeks", CallbackData: callbackPlan},
	}}))
}
