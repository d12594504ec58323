package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/studybot/pkg/models"
)

// maxLibrary is the number of imported or generated sets kept per user
const maxLibrary = 10

const usageLibrary = "Usage: /library [use N | remove N]"

// addToLibrary stores content as the newest set, dropping the oldest one
// when the library is full
func (s *userSession) addToLibrary(c models.Content) {
	s.library = append(s.library, c)
	if len(s.library) > maxLibrary {
		s.library = s.library[len(s.library)-maxLibrary:]
	}
}

// libraryIndex returns the position of the newest set for method m, or -1
func (s *userSession) libraryIndex(m models.LearningMethod) int {
	for i := len(s.library) - 1; i >= 0; i-- {
		if s.library[i].Method() == m {
			return i
		}
	}
	return -1
}

func (s *userSession) removeFromLibrary(i int) models.Content {
	c := s.library[i]
	s.library = append(s.library[:i], s.library[i+1:]...)
	return c
}

// libraryPosition turns the number shown by /library (1 is the newest set)
// into a slice index
func (s *userSession) libraryPosition(arg string) (int, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(s.library) {
		return 0, false
	}
	return len(s.library) - n, true
}

func renderLibrary(library []models.Content) string {
	if len(library) == 0 {
		return "📚 Your library is empty.\n\nUse /generate or send an .xlsx or .csv file to add study material."
	}
	var sb strings.Builder
	sb.WriteString("📚 Your library, newest first:\n")
	for n := 1; n <= len(library); n++ {
		c := library[len(library)-n]
		fmt.Fprintf(&sb, "\n%d. %s \"%s\" (%s)", n, c.Method(), models.ContentTitle(c), contentSize(c))
	}
	sb.WriteString("\n\nThe next /add or /plan uses the newest set of its method. " +
		"/library use N makes set N the newest, /library remove N deletes it.")
	return sb.String()
}

func contentSize(c models.Content) string {
	switch v := c.(type) {
	case *models.CardSet:
		return fmt.Sprintf("%d cards", len(v.Cards))
	case *models.QuestionSet:
		return fmt.Sprintf("%d questions", len(v.Questions))
	case *models.ChallengeSet:
		return fmt.Sprintf("%d challenges", len(v.Challenges))
	case *models.TopicSet:
		return fmt.Sprintf("%d topics", len(v.Topics))
	}
	return "empty"
}

// handleLibrary lists the user's sets or reorders and removes them
func (b *Bot) handleLibrary(message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	s := b.session(message.From.ID)
	s.mu.Lock()
	defer s.mu.Unlock()

	args := strings.Fields(message.CommandArguments())
	if len(args) == 0 {
		return b.sendText(chatID, renderLibrary(s.library))
	}
	if len(args) != 2 {
		return b.sendText(chatID, usageLibrary)
	}
	i, ok := s.libraryPosition(args[1])
	if !ok {
		return b.sendText(chatID, fmt.Sprintf("⚠️ There is no set number %s. %s", args[1], usageLibrary))
	}
	switch args[0] {
	case "use":
		c := s.removeFromLibrary(i)
		s.library = append(s.library, c)
		return b.sendText(chatID, fmt.Sprintf("The next /add or /plan with method %s will use \"%s\".", c.Method(), models.ContentTitle(c)))
	case "remove":
		c := s.removeFromLibrary(i)
		return b.sendText(chatID, fmt.Sprintf("🗑 Removed \"%s\" from your library.", models.ContentTitle(c)))
	}
	return b.sendText(chatID, usageLibrary)
}
