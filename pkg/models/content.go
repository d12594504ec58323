package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrContentShapeMismatch is returned when a payload does not match its learning method
var ErrContentShapeMismatch = errors.New("content shape mismatch")

// Content is the study material attached to a session. Each learning
// method has its own payload type.
type Content interface {
	Method() LearningMethod
	Validate() error
}

// Card is a single flashcard
type Card struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// CardSet is the flashcards payload
type CardSet struct {
	Title string `json:"title"`
	Cards []Card `json:"cards"`
}

func (c *CardSet) Method() LearningMethod { return MethodFlashcards }

func (c *CardSet) Validate() error {
	if c == nil {
		return shapeError(MethodFlashcards, "content is missing")
	}
	if len(c.Cards) == 0 {
		return shapeError(MethodFlashcards, "cards are empty")
	}
	for i, card := range c.Cards {
		if strings.TrimSpace(card.Front) == "" || strings.TrimSpace(card.Back) == "" {
			return shapeError(MethodFlashcards, fmt.Sprintf("card %d has an empty side", i+1))
		}
	}
	return nil
}

// Question is a multiple choice question; Answer indexes Options
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   int      `json:"answer"`
}

// QuestionSet is the quizzes payload
type QuestionSet struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

func (q *QuestionSet) Method() LearningMethod { return MethodQuizzes }

func (q *QuestionSet) Validate() error {
	if q == nil {
		return shapeError(MethodQuizzes, "content is missing")
	}
	if len(q.Questions) == 0 {
		return shapeError(MethodQuizzes, "questions are empty")
	}
	for i, question := range q.Questions {
		if strings.TrimSpace(question.Question) == "" {
			return shapeError(MethodQuizzes, fmt.Sprintf("question %d has no text", i+1))
		}
		if len(question.Options) < 2 {
			return shapeError(MethodQuizzes, fmt.Sprintf("question %d needs at least two options", i+1))
		}
		if question.Answer < 0 || question.Answer >= len(question.Options) {
			return shapeError(MethodQuizzes, fmt.Sprintf("question %d answer %d is out of range", i+1, question.Answer))
		}
	}
	return nil
}

// Level is a game progression step
type Level struct {
	Name       string `json:"name"`
	Points     int    `json:"points"`
	Challenges int    `json:"challenges"`
}

// Challenge is a single game task
type Challenge struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ChallengeSet is the game payload
type ChallengeSet struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Levels      []Level     `json:"levels"`
	Challenges  []Challenge `json:"challenges"`
}

func (g *ChallengeSet) Method() LearningMethod { return MethodGame }

func (g *ChallengeSet) Validate() error {
	if g == nil {
		return shapeError(MethodGame, "content is missing")
	}
	if len(g.Levels) == 0 {
		return shapeError(MethodGame, "levels are empty")
	}
	if len(g.Challenges) == 0 {
		return shapeError(MethodGame, "challenges are empty")
	}
	return nil
}

// TopicSet is the chat payload
type TopicSet struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Topics          []string `json:"topics"`
	SampleQuestions []string `json:"sampleQuestions"`
}

func (t *TopicSet) Method() LearningMethod { return MethodChat }

func (t *TopicSet) Validate() error {
	if t == nil {
		return shapeError(MethodChat, "content is missing")
	}
	if len(t.Topics) == 0 {
		return shapeError(MethodChat, "topics are empty")
	}
	return nil
}

func shapeError(m LearningMethod, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrContentShapeMismatch, m, reason)
}

// CheckContent verifies that c is present, belongs to method m and is well formed
func CheckContent(m LearningMethod, c Content) error {
	if c == nil {
		return fmt.Errorf("%w: %s: content is missing", ErrContentShapeMismatch, m)
	}
	if c.Method() != m {
		return fmt.Errorf("%w: %s payload attached to %s session", ErrContentShapeMismatch, c.Method(), m)
	}
	return c.Validate()
}

// ContentTitle returns the title carried by a payload
func ContentTitle(c Content) string {
	switch v := c.(type) {
	case *CardSet:
		if v != nil {
			return v.Title
		}
	case *QuestionSet:
		if v != nil {
			return v.Title
		}
	case *ChallengeSet:
		if v != nil {
			return v.Title
		}
	case *TopicSet:
		if v != nil {
			return v.Title
		}
	}
	return ""
}

// EncodeContent serializes a payload to JSON. A nil payload encodes to nil.
func EncodeContent(c Content) ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	return json.Marshal(c)
}

// DecodeContent parses a JSON payload for the given method
func DecodeContent(m LearningMethod, data []byte) (Content, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var c Content
	switch m {
	case MethodFlashcards:
		c = &CardSet{}
	case MethodQuizzes:
		c = &QuestionSet{}
	case MethodGame:
		c = &ChallengeSet{}
	case MethodChat:
		c = &TopicSet{}
	default:
		return nil, fmt.Errorf("unknown learning method: %q", m)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to decode %s content: %w", m, err)
	}
	return c, nil
}

// CloneContent returns a deep copy so drafts never alias stored payloads
func CloneContent(c Content) Content {
	if c == nil {
		return nil
	}
	data, err := EncodeContent(c)
	if err != nil {
		return c
	}
	out, err := DecodeContent(c.Method(), data)
	if err != nil {
		return c
	}
	return out
}
