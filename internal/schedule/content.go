package schedule

import (
	"strings"

	"github.com/example/studybot/pkg/models"
)

// DefaultContent returns the starter payload for a learning method. An empty
// title falls back to a per-method placeholder.
func DefaultContent(m models.LearningMethod, title string) models.Content {
	title = strings.TrimSpace(title)
	pick := func(fallback string) string {
		if title != "" {
			return title
		}
		return fallback
	}

	switch m {
	case models.MethodQuizzes:
		return &models.QuestionSet{
			Title: pick("New Quiz"),
			Questions: []models.Question{{
				Question: "Sample question",
				Options:  []string{"Option 1", "Option 2", "Option 3", "Option 4"},
				Answer:   0,
			}},
		}
	case models.MethodGame:
		return &models.ChallengeSet{
			Title:       pick("New Game"),
			Description: "Learn through gamification",
			Levels:      []models.Level{{Name: "Beginner", Points: 0, Challenges: 1}},
			Challenges:  []models.Challenge{{Name: "Challenge 1", Description: "Complete this challenge"}},
		}
	case models.MethodChat:
		return &models.TopicSet{
			Title:           pick("New Chat Session"),
			Description:     "Learn through conversation",
			Topics:          []string{"Sample topic"},
			SampleQuestions: []string{"What is this topic about?"},
		}
	default:
		return &models.CardSet{
			Title: pick("New Flashcard Set"),
			Cards: []models.Card{{Front: "Sample question", Back: "Sample answer"}},
		}
	}
}
