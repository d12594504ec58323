package models

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a scheduled session
type Status int

const (
	StatusPending Status = iota + 1
	StatusCompleted
	StatusCancelled
)

var statusNames = [...]string{StatusPending: "Pending", StatusCompleted: "Completed", StatusCancelled: "Cancelled"}

func (s Status) valid() bool {
	return s >= StatusPending && s <= StatusCancelled
}

func (s Status) String() string {
	if s.valid() {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus matches status names case-insensitively
func ParseStatus(s string) (Status, error) {
	for st := StatusPending; st <= StatusCancelled; st++ {
		if strings.EqualFold(statusNames[st], strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return 0, fmt.Errorf("invalid status: %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (s Status) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("invalid status: %d", int(s))
	}
	return []byte(statusNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Status) UnmarshalText(text []byte) error {
	v, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// LearningMethod selects the study mode that receives a session's content
type LearningMethod string

const (
	MethodFlashcards LearningMethod = "flashcards"
	MethodQuizzes    LearningMethod = "quizzes"
	MethodGame       LearningMethod = "game"
	MethodChat       LearningMethod = "chat"
)

// LearningMethods lists every supported method in display order
var LearningMethods = []LearningMethod{MethodFlashcards, MethodQuizzes, MethodGame, MethodChat}

var methodAliases = map[string]LearningMethod{
	"flashcards":   MethodFlashcards,
	"flashcard":    MethodFlashcards,
	"cards":        MethodFlashcards,
	"quizzes":      MethodQuizzes,
	"quiz":         MethodQuizzes,
	"game":         MethodGame,
	"gamification": MethodGame,
	"chat":         MethodChat,
	"chatting":     MethodChat,
}

// ParseLearningMethod accepts method names and the content-type aliases
// used by the content creation flow ("gamification", "chatting")
func ParseLearningMethod(s string) (LearningMethod, error) {
	m, ok := methodAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown learning method: %q", s)
	}
	return m, nil
}

func (m LearningMethod) Valid() bool {
	switch m {
	case MethodFlashcards, MethodQuizzes, MethodGame, MethodChat:
		return true
	}
	return false
}

func (m LearningMethod) String() string {
	return string(m)
}
