package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/studybot/internal/schedule"
	"github.com/example/studybot/internal/study"
	"github.com/example/studybot/pkg/models"
)

// Callback data prefixes. Telegram limits callback data to 64 bytes, so
// event ids are the only variable part.
const (
	callbackNoop     = "noop"
	callbackMonth    = "month:"
	callbackDay      = "day:"
	callbackToggle   = "toggle:"
	callbackLearn    = "learn:"
	callbackDelete   = "delete:"
	callbackQuiz     = "quiz:"
	callbackCard     = "card:"
	callbackProgress = "progress"
	callbackHelp     = "help"
	callbackPlan     = "plan"
	callbackOnboard  = "onboard:"

	cardReveal = "reveal"
)

const helpText = "📚 Study planner\n\n" +
	"/onboard - answer a few questions to set your defaults\n" +
	"/profile - show your study profile\n" +
	"/month [YYYY-MM] - calendar of a month\n" +
	"/day [YYYY-MM-DD] - sessions of a day\n" +
	"/week - sessions of the selected week\n" +
	"/add YYYY-MM-DD HH:MM [minutes method] title - add one session\n" +
	"/plan [from:YYYY-MM-DD] method daily|weekly|custom:mon,wed,fri HH:MM minutes title - plan two weeks of sessions\n" +
	"/plan [from:YYYY-MM-DD] - plan two weeks from your profile\n" +
	"/generate [method] [topic] - prepare content for the next /add or /plan\n" +
	"/library [use N | remove N] - your imported and generated sets\n" +
	"/done id - mark a session done (or not done)\n" +
	"/delete id - delete a session\n" +
	"/learn id - start studying a session\n" +
	"/progress - your statistics\n" +
	"/export - download your sessions as a calendar file\n" +
	"/cancel - stop the current study run or setup\n\n" +
	"Methods: flashcards, quizzes, game, chat.\n" +
	"Send an .xlsx or .csv file with the caption \"flashcards\" or \"quizzes\" to import cards or questions."

func statusIcon(s models.Status) string {
	switch s {
	case models.StatusCompleted:
		return "✅"
	case models.StatusCancelled:
		return "✖️"
	}
	return "⏳"
}

func monthTitle(d models.Date) string {
	return fmt.Sprintf("%s %d", d.Month, d.Year)
}

func dayTitle(d models.Date) string {
	return d.Time(time.UTC).Format("Monday, 2 January 2006")
}

// renderEvent formats one session on two lines: the summary and its id
func renderEvent(ev models.ScheduleEvent) string {
	return fmt.Sprintf("%s %s–%s %s · %s (%d min)\n    id: %s",
		statusIcon(ev.Status), ev.StartTime, ev.EndTime(), ev.Title, ev.LearningMethod, ev.DurationMinutes, ev.ID)
}

func renderSaved(ev models.ScheduleEvent) string {
	return fmt.Sprintf("💾 Saved for %s:\n%s", dayTitle(ev.Date), renderEvent(ev))
}

func renderMonth(month models.Date, cells []schedule.Cell) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 %s\n\n", monthTitle(month))

	total, done := 0, 0
	var lines []string
	for _, c := range cells {
		if !c.IsCurrentMonth || len(c.Events) == 0 {
			continue
		}
		dayDone := 0
		for _, ev := range c.Events {
			if ev.Completed() {
				dayDone++
			}
		}
		total += len(c.Events)
		done += dayDone
		lines = append(lines, fmt.Sprintf("%s %d: %d sessions, %d done", c.Date.Month.String()[:3], c.Date.Day, len(c.Events), dayDone))
	}

	if total == 0 {
		sb.WriteString("No sessions this month.\n")
	} else {
		fmt.Fprintf(&sb, "%d sessions, %d done.\n\n", total, done)
		sb.WriteString(strings.Join(lines, "\n"))
		sb.WriteString("\n")
	}
	sb.WriteString("\nTap a day to see its sessions.")
	return sb.String()
}

// dayLabel marks days with sessions: • when something is left, ✓ when all are done
func dayLabel(c schedule.Cell) string {
	if !c.IsCurrentMonth {
		return "·"
	}
	label := strconv.Itoa(c.Date.Day)
	if len(c.Events) == 0 {
		return label
	}
	for _, ev := range c.Events {
		if !ev.Completed() {
			return label + "•"
		}
	}
	return label + "✓"
}

func monthKeyboard(month models.Date, cells []schedule.Cell, weekStart time.Weekday) tgbotapi.InlineKeyboardMarkup {
	rows := [][]MenuButton{{
		{Text: "«", CallbackData: callbackMonth + "prev"},
		{Text: monthTitle(month), CallbackData: callbackMonth + "today"},
		{Text: "»", CallbackData: callbackMonth + "next"},
	}}

	header := make([]MenuButton, 7)
	for i := range header {
		header[i] = MenuButton{Text: time.Weekday((int(weekStart) + i) % 7).String()[:2], CallbackData: callbackNoop}
	}
	rows = append(rows, header)

	for week := 0; week*7 < len(cells); week++ {
		row := make([]MenuButton, 0, 7)
		for _, c := range cells[week*7 : week*7+7] {
			data := callbackNoop
			if c.IsCurrentMonth {
				data = callbackDay + c.Date.String()
			}
			row = append(row, MenuButton{Text: dayLabel(c), CallbackData: data})
		}
		rows = append(rows, row)
	}
	return createKeyboard(rows)
}

func renderDay(d models.Date, events []models.ScheduleEvent) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📆 %s\n\n", dayTitle(d))
	if len(events) == 0 {
		sb.WriteString("No sessions. Add one with /add.")
		return sb.String()
	}
	for i, ev := range events {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(renderEvent(ev))
	}
	return sb.String()
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// dayKeyboard has one row of actions per session and a navigation row
func dayKeyboard(d models.Date, events []models.ScheduleEvent) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]MenuButton, 0, len(events)+1)
	for _, ev := range events {
		toggle := "✅ " + shorten(ev.Title, 20)
		if ev.Completed() {
			toggle = "↩️ " + shorten(ev.Title, 20)
		}
		rows = append(rows, []MenuButton{
			{Text: toggle, CallbackData: callbackToggle + ev.ID},
			{Text: "▶️", CallbackData: callbackLearn + ev.ID},
			{Text: "🗑", CallbackData: callbackDelete + ev.ID},
		})
	}
	rows = append(rows, []MenuButton{
		{Text: "«", CallbackData: callbackDay + d.AddDays(-1).String()},
		{Text: "📅 Month", CallbackData: callbackMonth + "show"},
		{Text: "»", CallbackData: callbackDay + d.AddDays(1).String()},
	})
	return createKeyboard(rows)
}

func renderWeek(days []models.Date, events []models.ScheduleEvent) string {
	var sb strings.Builder
	if len(days) > 0 {
		fmt.Fprintf(&sb, "🗓 Week of %s\n", dayTitle(days[0]))
	}
	byDate := make(map[models.Date][]models.ScheduleEvent)
	for _, ev := range events {
		byDate[ev.Date] = append(byDate[ev.Date], ev)
	}
	for _, d := range days {
		fmt.Fprintf(&sb, "\n%s %d %s\n", d.Weekday().String()[:3], d.Day, d.Month.String()[:3])
		if len(byDate[d]) == 0 {
			sb.WriteString("    -\n")
			continue
		}
		for _, ev := range byDate[d] {
			fmt.Fprintf(&sb, "  %s %s %s\n", statusIcon(ev.Status), ev.StartTime, ev.Title)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderProgress(r schedule.Report) string {
	if r.Total == 0 {
		return "📊 No sessions yet. Plan some with /plan."
	}
	var sb strings.Builder
	sb.WriteString("📊 Your progress\n\n")
	fmt.Fprintf(&sb, "Sessions: %d\n", r.Total)
	fmt.Fprintf(&sb, "Completed: %d (%.0f%%)\n", r.Completed, r.CompletionRate*100)
	fmt.Fprintf(&sb, "Upcoming: %d\n", r.Upcoming)
	if r.Overdue > 0 {
		fmt.Fprintf(&sb, "Overdue: %d\n", r.Overdue)
	}
	if r.Cancelled > 0 {
		fmt.Fprintf(&sb, "Cancelled: %d\n", r.Cancelled)
	}
	fmt.Fprintf(&sb, "Study time: %dh %02dm\n", r.StudyMinutes/60, r.StudyMinutes%60)
	fmt.Fprintf(&sb, "Streak: %d days\n", r.StreakDays)

	sb.WriteString("\nBy method:\n")
	for _, m := range models.LearningMethods {
		if n := r.ByMethod[m]; n > 0 {
			fmt.Fprintf(&sb, "• %s: %d\n", m, n)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderReminder(ev models.ScheduleEvent) string {
	return fmt.Sprintf("⏰ Your %s session \"%s\" starts at %s (%d min).",
		ev.LearningMethod, ev.Title, ev.StartTime, ev.DurationMinutes)
}

func reminderKeyboard(ev models.ScheduleEvent) tgbotapi.InlineKeyboardMarkup {
	return createKeyboard([][]MenuButton{{
		{Text: "▶️ Start", CallbackData: callbackLearn + ev.ID},
		{Text: "✅ Done", CallbackData: callbackToggle + ev.ID},
	}})
}

func renderQuestion(title string, q models.Question, pos, total int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "❓ %s: question %d of %d\n\n%s\n", title, pos+1, total, q.Question)
	for i, opt := range q.Options {
		fmt.Fprintf(&sb, "\n%c) %s", 'A'+i, opt)
	}
	return sb.String()
}

func quizKeyboard(q models.Question) tgbotapi.InlineKeyboardMarkup {
	row := make([]MenuButton, len(q.Options))
	for i := range q.Options {
		row[i] = MenuButton{Text: string(rune('A' + i)), CallbackData: callbackQuiz + strconv.Itoa(i)}
	}
	return createKeyboard([][]MenuButton{row})
}

func renderAnswer(q models.Question, res study.AnswerResult) string {
	if res.Correct {
		return "✅ Correct!"
	}
	return fmt.Sprintf("❌ Not quite. The answer is %c) %s", 'A'+res.CorrectIndex, q.Options[res.CorrectIndex])
}

func renderCard(title string, card models.Card, revealed bool, remaining int) string {
	text := fmt.Sprintf("🃏 %s (%d left)\n\n%s", title, remaining, card.Front)
	if revealed {
		text += "\n\n" + card.Back
	}
	return text
}

func cardKeyboard(revealed bool) tgbotapi.InlineKeyboardMarkup {
	if !revealed {
		return createKeyboard([][]MenuButton{{{Text: "👀 Show answer", CallbackData: callbackCard + cardReveal}}})
	}
	row := make([]MenuButton, 0, 4)
	for _, r := range []study.Rating{study.Again, study.Hard, study.Good, study.Easy} {
		row = append(row, MenuButton{Text: r.String(), CallbackData: callbackCard + strings.ToLower(r.String())})
	}
	return createKeyboard([][]MenuButton{row})
}

// renderRunEnd summarizes a finished quiz or card run
func renderRunEnd(run study.Run) string {
	switch r := run.(type) {
	case *study.QuizRun:
		correct, total := r.Score()
		return fmt.Sprintf("🏁 %s finished: %d of %d correct.", r.Title(), correct, total)
	case *study.CardRun:
		s := r.Summary()
		return fmt.Sprintf("🏁 %s finished: %d cards, %d reviews, %d forgotten once or more.",
			r.Title(), s.Cards, s.Reviews, s.Lapses)
	}
	return fmt.Sprintf("🏁 %s finished.", run.Title())
}

func renderContent(c models.Content) string {
	var sb strings.Builder
	sb.WriteString(study.Describe(c))
	switch v := c.(type) {
	case *models.CardSet:
		for _, card := range v.Cards {
			fmt.Fprintf(&sb, "\n• %s → %s", card.Front, card.Back)
		}
	case *models.QuestionSet:
		for i, q := range v.Questions {
			fmt.Fprintf(&sb, "\n%d. %s", i+1, q.Question)
		}
	}
	return sb.String()
}

func mainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "📅 Calendar", CallbackData: callbackMonth + "today"},
			{Text: "📊 Progress", CallbackData: callbackProgress},
		},
		{
			{Text: "❓ Help", CallbackData: callbackHelp},
		},
	}
}
