package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/studybot/pkg/models"
)

// Request describes the study content to produce
type Request struct {
	Topic  string
	Method models.LearningMethod
	// Count caps the number of cards or questions; 0 lets the generator pick
	Count int
}

// Generator produces study content for a topic
type Generator interface {
	Generate(ctx context.Context, req Request) (models.Content, error)
}

func (r Request) validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return fmt.Errorf("topic is required")
	}
	if !r.Method.Valid() {
		return fmt.Errorf("unknown learning method %q", r.Method)
	}
	return nil
}

// MockGenerator returns canned web-development content instantly. It is
// used when no API key is configured.
type MockGenerator struct{}

func (MockGenerator) Generate(ctx context.Context, req Request) (models.Content, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Topic)

	switch req.Method {
	case models.MethodQuizzes:
		questions := []models.Question{
			{Question: "Which language is used for styling web pages?", Options: []string{"HTML", "CSS", "JavaScript", "Python"}, Answer: 1},
			{Question: "Which of the following is NOT a JavaScript framework?", Options: []string{"React", "Angular", "Vue", "Django"}, Answer: 3},
			{Question: "What does API stand for?", Options: []string{
				"Application Programming Interface",
				"Automated Program Integration",
				"Advanced Programming Implementation",
				"Application Process Integration",
			}, Answer: 0},
		}
		return &models.QuestionSet{Title: title, Questions: limit(questions, req.Count)}, nil
	case models.MethodGame:
		return &models.ChallengeSet{
			Title:       title,
			Description: "Learn " + title + " through challenges",
			Levels: []models.Level{
				{Name: "Beginner", Points: 100, Challenges: 3},
				{Name: "Intermediate", Points: 200, Challenges: 5},
				{Name: "Advanced", Points: 300, Challenges: 7},
			},
			Challenges: []models.Challenge{
				{Name: "HTML Basics", Description: "Complete the HTML structure"},
				{Name: "CSS Styling", Description: "Style the webpage"},
				{Name: "JavaScript Logic", Description: "Add interactivity"},
			},
		}, nil
	case models.MethodChat:
		return &models.TopicSet{
			Title:       title,
			Description: "Talk through " + title,
			Topics: []string{
				"Introduction to Web Development",
				"HTML Structure and Elements",
				"CSS Styling and Layouts",
				"JavaScript Basics",
				"Building Interactive Websites",
			},
			SampleQuestions: []string{
				"What is the difference between HTML and CSS?",
				"How do I create a responsive layout?",
				"What are JavaScript event listeners?",
				"How do I debug my code?",
			},
		}, nil
	default:
		cards := []models.Card{
			{Front: "What is HTML?", Back: "HyperText Markup Language"},
			{Front: "What is CSS?", Back: "Cascading Style Sheets"},
			{Front: "What is JavaScript?", Back: "A programming language for the web"},
			{Front: "What is React?", Back: "A JavaScript library for building user interfaces"},
			{Front: "What is a component?", Back: "A reusable piece of code that returns UI elements"},
		}
		return &models.CardSet{Title: title, Cards: limit(cards, req.Count)}, nil
	}
}

func limit[T any](items []T, n int) []T {
	if n > 0 && n < len(items) {
		return items[:n]
	}
	return items
}

type delayed struct {
	next  Generator
	delay time.Duration
}

// WithDelay wraps g so every call waits d first. The wait ends early with
// ctx.Err() when ctx is cancelled.
func WithDelay(g Generator, d time.Duration) Generator {
	if d <= 0 {
		return g
	}
	return &delayed{next: g, delay: d}
}

func (g *delayed) Generate(ctx context.Context, req Request) (models.Content, error) {
	timer := time.NewTimer(g.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}
	return g.next.Generate(ctx, req)
}
