package study

import (
	"fmt"
	"strings"

	"github.com/example/studybot/pkg/models"
)

// Rating is the learner's answer to a revealed card
type Rating int

const (
	Again Rating = iota + 1
	Hard
	Good
	Easy
)

var ratingNames = [...]string{Again: "Again", Hard: "Hard", Good: "Good", Easy: "Easy"}

func (r Rating) String() string {
	if r >= Again && r <= Easy {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// ParseRating matches rating names case-insensitively
func ParseRating(s string) (Rating, error) {
	for r := Again; r <= Easy; r++ {
		if strings.EqualFold(ratingNames[r], strings.TrimSpace(s)) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("invalid rating: %q", s)
}

// Quality maps a rating onto the SM-2 scale
func (r Rating) Quality() Quality {
	switch r {
	case Hard:
		return QualityCorrectDifficult
	case Good:
		return QualityCorrectHesitation
	case Easy:
		return QualityPerfect
	}
	return QualityIncorrect
}

// CardSummary describes a finished or running card review
type CardSummary struct {
	Cards    int
	Reviews  int
	Lapses   int
	Mastered int
	// NextReviewDays is the SM-2 interval of each card, in deck order
	NextReviewDays []int
}

// CardRun walks through a deck: show the front, reveal the back, rate.
// Cards rated Again go to the end of the queue.
type CardRun struct {
	title    string
	cards    []models.Card
	states   []CardState
	queue    []int
	revealed bool
	reviews  int
	sm       *SM2
}

func NewCardRun(title string, set *models.CardSet, sm *SM2) *CardRun {
	if sm == nil {
		sm = NewSM2()
	}
	r := &CardRun{
		title:  title,
		cards:  append([]models.Card(nil), set.Cards...),
		states: make([]CardState, len(set.Cards)),
		queue:  make([]int, len(set.Cards)),
		sm:     sm,
	}
	for i := range r.cards {
		r.states[i] = NewCardState()
		r.queue[i] = i
	}
	return r
}

func (r *CardRun) Title() string                 { return r.title }
func (r *CardRun) Method() models.LearningMethod { return models.MethodFlashcards }
func (r *CardRun) Done() bool                    { return len(r.queue) == 0 }

// Remaining is the number of cards still queued, re-queued ones included
func (r *CardRun) Remaining() int { return len(r.queue) }

// Current returns the card on top of the queue and whether its back is shown
func (r *CardRun) Current() (card models.Card, revealed bool, ok bool) {
	if r.Done() {
		return models.Card{}, false, false
	}
	return r.cards[r.queue[0]], r.revealed, true
}

// Reveal shows the back of the current card
func (r *CardRun) Reveal() (string, error) {
	if r.Done() {
		return "", ErrFinished
	}
	r.revealed = true
	return r.cards[r.queue[0]].Back, nil
}

// Rate records the answer for the revealed card and advances the queue
func (r *CardRun) Rate(rating Rating) error {
	if r.Done() {
		return ErrFinished
	}
	if !r.revealed {
		return ErrNotRevealed
	}
	if rating < Again || rating > Easy {
		return fmt.Errorf("invalid rating: %d", int(rating))
	}

	idx := r.queue[0]
	r.states[idx] = r.sm.Review(r.states[idx], rating.Quality())
	r.reviews++
	r.revealed = false

	r.queue = r.queue[1:]
	if rating == Again {
		r.queue = append(r.queue, idx)
	}
	return nil
}

func (r *CardRun) Summary() CardSummary {
	s := CardSummary{Cards: len(r.cards), Reviews: r.reviews, NextReviewDays: make([]int, len(r.cards))}
	for i, st := range r.states {
		s.Lapses += st.Lapses
		if r.sm.Mastered(st) {
			s.Mastered++
		}
		s.NextReviewDays[i] = st.Interval
	}
	return s
}
