package study

// Quality represents the quality of response in SM-2
type Quality int

const (
	// Complete blackout, unable to recall
	QualityBlackout Quality = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect Quality = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar Quality = 2
	// Correct response but required significant effort
	QualityCorrectDifficult Quality = 3
	// Correct response after some hesitation
	QualityCorrectHesitation Quality = 4
	// Perfect response with no hesitation
	QualityPerfect Quality = 5
)

// CardState is the SM-2 memory state of one card
type CardState struct {
	EasinessFactor float64
	Interval       int // days until the next review
	Repetitions    int // consecutive successful reviews
	LastQuality    Quality
	Lapses         int
}

// NewCardState returns the state of a card that was never reviewed
func NewCardState() CardState {
	return CardState{EasinessFactor: 2.5}
}

// SM2 implements the SuperMemo-2 algorithm for spaced repetition
type SM2 struct {
	// Answers at or above this quality count as recalled
	PassThreshold Quality
	// Upper bound for the review interval in days
	MaxInterval int
	// Fixed intervals in days for the first successful reviews
	InitialIntervals []int
}

// NewSM2 returns an SM2 with default settings
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold:    QualityCorrectDifficult,
		MaxInterval:      365,
		InitialIntervals: []int{0, 1, 2, 3, 7, 10, 15, 20, 30},
	}
}

// Review returns the state after answering with quality q
func (sm *SM2) Review(s CardState, q Quality) CardState {
	if q < QualityBlackout {
		q = QualityBlackout
	}
	if q > QualityPerfect {
		q = QualityPerfect
	}
	if s.EasinessFactor == 0 {
		s.EasinessFactor = 2.5
	}

	miss := 5.0 - float64(q)
	ef := s.EasinessFactor + (0.1 - miss*(0.08+miss*0.02))
	if ef < 1.3 {
		ef = 1.3
	}
	s.EasinessFactor = ef
	s.LastQuality = q

	if q < sm.PassThreshold {
		// Failed recall starts the card over tomorrow
		s.Repetitions = 0
		s.Interval = 1
		s.Lapses++
		return s
	}

	s.Repetitions++
	if s.Repetitions < len(sm.InitialIntervals) {
		s.Interval = sm.InitialIntervals[s.Repetitions]
	} else {
		s.Interval = int(float64(s.Interval) * ef)
	}
	if s.Interval > sm.MaxInterval {
		s.Interval = sm.MaxInterval
	}
	return s
}

// Mastered reports whether a card is considered learned: reviewed at least
// 5 times in a row, last answered well, and due no sooner than a month out
func (sm *SM2) Mastered(s CardState) bool {
	return s.Repetitions >= 5 &&
		s.LastQuality >= QualityCorrectHesitation &&
		s.Interval >= 30
}
