// Package study runs the learning modes a scheduled session hands its
// content to.
package study

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/example/studybot/internal/schedule"
	"github.com/example/studybot/pkg/models"
)

var (
	ErrFinished    = errors.New("study: run is finished")
	ErrNotRevealed = errors.New("study: reveal the card before rating it")
	ErrBadOption   = errors.New("study: option out of range")
)

// Run is a study session in progress
type Run interface {
	Title() string
	Method() models.LearningMethod
	Done() bool
}

// Start opens the run matching the hand-off's learning method. rnd shuffles
// quiz questions and options; nil keeps the authored order.
func Start(h schedule.Handoff, rnd *rand.Rand) (Run, error) {
	if err := models.CheckContent(h.Method, h.Content); err != nil {
		return nil, err
	}
	title := h.Title
	if title == "" {
		title = models.ContentTitle(h.Content)
	}

	switch c := h.Content.(type) {
	case *models.QuestionSet:
		return NewQuizRun(title, c, rnd), nil
	case *models.CardSet:
		return NewCardRun(title, c, NewSM2()), nil
	case *models.ChallengeSet, *models.TopicSet:
		return &Briefing{title: title, content: c}, nil
	}
	return nil, fmt.Errorf("%w: %T", models.ErrContentShapeMismatch, h.Content)
}

// Briefing presents game and chat content, which have no interactive flow
type Briefing struct {
	title   string
	content models.Content
}

func (b *Briefing) Title() string                 { return b.title }
func (b *Briefing) Method() models.LearningMethod { return b.content.Method() }
func (b *Briefing) Done() bool                    { return true }

// Describe renders the briefing as plain text
func (b *Briefing) Describe() string {
	return Describe(b.content)
}

// Describe renders game levels and challenges, or chat topics and sample
// questions, as plain text. Other content gets a one-line summary.
func Describe(c models.Content) string {
	var sb strings.Builder
	switch v := c.(type) {
	case *models.ChallengeSet:
		fmt.Fprintf(&sb, "🎮 %s\n", v.Title)
		if v.Description != "" {
			fmt.Fprintf(&sb, "%s\n", v.Description)
		}
		sb.WriteString("\nLevels:\n")
		for _, l := range v.Levels {
			fmt.Fprintf(&sb, "• %s: %d points, %d challenges\n", l.Name, l.Points, l.Challenges)
		}
		sb.WriteString("\nChallenges:\n")
		for i, ch := range v.Challenges {
			fmt.Fprintf(&sb, "%d. %s", i+1, ch.Name)
			if ch.Description != "" {
				fmt.Fprintf(&sb, " - %s", ch.Description)
			}
			sb.WriteString("\n")
		}
	case *models.TopicSet:
		fmt.Fprintf(&sb, "💬 %s\n", v.Title)
		if v.Description != "" {
			fmt.Fprintf(&sb, "%s\n", v.Description)
		}
		sb.WriteString("\nTopics:\n")
		for _, t := range v.Topics {
			fmt.Fprintf(&sb, "• %s\n", t)
		}
		if len(v.SampleQuestions) > 0 {
			sb.WriteString("\nTry asking:\n")
			for _, q := range v.SampleQuestions {
				fmt.Fprintf(&sb, "• %s\n", q)
			}
		}
	case *models.CardSet:
		fmt.Fprintf(&sb, "🃏 %s: %d cards\n", v.Title, len(v.Cards))
	case *models.QuestionSet:
		fmt.Fprintf(&sb, "❓ %s: %d questions\n", v.Title, len(v.Questions))
	}
	return strings.TrimRight(sb.String(), "\n")
}
