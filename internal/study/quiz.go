package study

import (
	"math/rand"

	"github.com/example/studybot/pkg/models"
)

// AnswerResult is the grading of one quiz answer
type AnswerResult struct {
	Correct      bool
	CorrectIndex int
	Chosen       int
}

// QuizRun asks the questions of a quiz one at a time
type QuizRun struct {
	title     string
	questions []models.Question
	pos       int
	results   []AnswerResult
}

// NewQuizRun copies the quiz so the run never changes the stored content.
// With rnd set, question order and option order are shuffled.
func NewQuizRun(title string, set *models.QuestionSet, rnd *rand.Rand) *QuizRun {
	questions := make([]models.Question, len(set.Questions))
	for i, q := range set.Questions {
		q.Options = append([]string(nil), q.Options...)
		questions[i] = q
	}

	if rnd != nil {
		rnd.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
		for i := range questions {
			shuffleOptions(rnd, &questions[i])
		}
	}
	return &QuizRun{title: title, questions: questions}
}

// shuffleOptions shuffles the options and keeps Answer pointing at the
// correct one
func shuffleOptions(rnd *rand.Rand, q *models.Question) {
	correct := q.Answer
	rnd.Shuffle(len(q.Options), func(i, j int) {
		if i == correct {
			correct = j
		} else if j == correct {
			correct = i
		}
		q.Options[i], q.Options[j] = q.Options[j], q.Options[i]
	})
	q.Answer = correct
}

func (r *QuizRun) Title() string                 { return r.title }
func (r *QuizRun) Method() models.LearningMethod { return models.MethodQuizzes }
func (r *QuizRun) Done() bool                    { return r.pos >= len(r.questions) }

// Current returns the question to answer and its 0-based position
func (r *QuizRun) Current() (models.Question, int, bool) {
	if r.Done() {
		return models.Question{}, r.pos, false
	}
	return r.questions[r.pos], r.pos, true
}

// Answer grades option i of the current question and moves on
func (r *QuizRun) Answer(i int) (AnswerResult, error) {
	if r.Done() {
		return AnswerResult{}, ErrFinished
	}
	q := r.questions[r.pos]
	if i < 0 || i >= len(q.Options) {
		return AnswerResult{}, ErrBadOption
	}
	res := AnswerResult{Correct: i == q.Answer, CorrectIndex: q.Answer, Chosen: i}
	r.results = append(r.results, res)
	r.pos++
	return res, nil
}

// Score returns correct answers so far and the number of questions
func (r *QuizRun) Score() (correct, total int) {
	for _, res := range r.results {
		if res.Correct {
			correct++
		}
	}
	return correct, len(r.questions)
}

func (r *QuizRun) Len() int { return len(r.questions) }
