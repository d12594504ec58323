package excel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/studybot/pkg/models"
)

// ErrUnsupportedMethod is returned for learning methods that have no tabular layout
var ErrUnsupportedMethod = errors.New("excel: only flashcards and quizzes can be imported")

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath string    // Path to the Excel or CSV file, also used to detect the format
	Reader   io.Reader // Optional file contents; FilePath is opened when nil
	Method   models.LearningMethod
	Title    string // Content title; defaults to the file name

	SheetName string // Excel sheet; defaults to the first sheet
	StartRow  int    // The row to start importing from (1-based index)

	FrontColumn string // Flashcards: column with the prompt
	BackColumn  string // Flashcards: column with the answer

	QuestionColumn string   // Quizzes: column with the question
	OptionColumns  []string // Quizzes: columns with the answer options
	AnswerColumn   string   // Quizzes: 1-based option number or option letter first, then option text
}

// DefaultImportConfig returns the default layout for a learning method:
// flashcards in A/B, quizzes as question in A, options in B-E, answer in F
func DefaultImportConfig(method models.LearningMethod) ImportConfig {
	return ImportConfig{
		Method:         method,
		StartRow:       2, // By default, start from the second row (skip header)
		FrontColumn:    "A",
		BackColumn:     "B",
		QuestionColumn: "A",
		OptionColumns:  []string{"B", "C", "D", "E"},
		AnswerColumn:   "F",
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Imported       int
	Skipped        int
	Errors         []string
}

// ImportContent reads a sheet of cards or questions into a content payload.
// Invalid rows are skipped and listed in the result.
func ImportContent(config ImportConfig) (models.Content, *ImportResult, error) {
	if config.Method != models.MethodFlashcards && config.Method != models.MethodQuizzes {
		return nil, nil, fmt.Errorf("%w: got %q", ErrUnsupportedMethod, config.Method)
	}
	if config.StartRow < 1 {
		config.StartRow = 1
	}
	if config.Title == "" {
		base := filepath.Base(config.FilePath)
		config.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	var (
		rows [][]string
		err  error
	)
	if strings.EqualFold(filepath.Ext(config.FilePath), ".csv") {
		rows, err = readCSV(config)
	} else {
		rows, err = readExcel(config)
	}
	if err != nil {
		return nil, nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	var content models.Content
	if config.Method == models.MethodQuizzes {
		content = buildQuestions(rows, config, result)
	} else {
		content = buildCards(rows, config, result)
	}
	if err := models.CheckContent(config.Method, content); err != nil {
		return nil, result, fmt.Errorf("no usable rows: %w", err)
	}
	return content, result, nil
}

func openSource(config ImportConfig) (io.ReadCloser, error) {
	if config.Reader != nil {
		return io.NopCloser(config.Reader), nil
	}
	return os.Open(config.FilePath)
}

// readExcel returns the rows of the configured sheet
func readExcel(config ImportConfig) ([][]string, error) {
	src, err := openSource(config)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer src.Close()

	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := config.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(config ImportConfig) ([][]string, error) {
	src, err := openSource(config)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer src.Close()

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return rows, nil
}

func buildCards(rows [][]string, config ImportConfig, result *ImportResult) *models.CardSet {
	set := &models.CardSet{Title: config.Title}
	forEachRow(rows, config, result, func(row []string) error {
		card := models.Card{
			Front: cell(row, config.FrontColumn),
			Back:  cell(row, config.BackColumn),
		}
		if card.Front == "" || card.Back == "" {
			return fmt.Errorf("front and back are required")
		}
		set.Cards = append(set.Cards, card)
		return nil
	})
	return set
}

func buildQuestions(rows [][]string, config ImportConfig, result *ImportResult) *models.QuestionSet {
	set := &models.QuestionSet{Title: config.Title}
	forEachRow(rows, config, result, func(row []string) error {
		q, err := parseQuestion(row, config)
		if err != nil {
			return err
		}
		set.Questions = append(set.Questions, q)
		return nil
	})
	return set
}

// forEachRow runs fn over the data rows, skipping blank lines and
// recording failures as "Row N: ..." entries
func forEachRow(rows [][]string, config ImportConfig, result *ImportResult, fn func(row []string) error) {
	for i, row := range rows {
		if i < config.StartRow-1 || blank(row) {
			continue
		}
		result.TotalProcessed++
		if err := fn(row); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}
		result.Imported++
	}
}

func parseQuestion(row []string, config ImportConfig) (models.Question, error) {
	q := models.Question{Question: cell(row, config.QuestionColumn)}
	if q.Question == "" {
		return q, fmt.Errorf("question cannot be empty")
	}

	// empty option cells are dropped; remember where each kept option came from
	position := make(map[int]int)
	for i, col := range config.OptionColumns {
		if opt := cell(row, col); opt != "" {
			position[i] = len(q.Options)
			q.Options = append(q.Options, opt)
		}
	}
	if len(q.Options) < 2 {
		return q, fmt.Errorf("at least two options are required")
	}

	// a bare number or letter names an option column even when some option
	// text reads the same; anything else is matched against the option texts
	answer := cell(row, config.AnswerColumn)
	col, byColumn := optionColumnIndex(answer, len(config.OptionColumns))
	if idx, ok := position[col]; byColumn && ok {
		q.Answer = idx
		return q, nil
	}
	idx, ok := answerIndex(answer, q.Options)
	switch {
	case ok:
		q.Answer = idx
		return q, nil
	case byColumn:
		return q, fmt.Errorf("answer %q points at an empty option", answer)
	}
	return q, fmt.Errorf("answer %q does not match any option", answer)
}

// answerIndex matches the answer against the option texts
func answerIndex(answer string, options []string) (int, bool) {
	for i, opt := range options {
		if strings.EqualFold(opt, answer) {
			return i, true
		}
	}
	return 0, false
}

// optionColumnIndex reads "2" or "B" style answers as a 0-based option column
func optionColumnIndex(answer string, count int) (int, bool) {
	if n, err := strconv.Atoi(answer); err == nil {
		return n - 1, n >= 1 && n <= count
	}
	if len(answer) == 1 {
		letter := strings.ToUpper(answer)[0]
		if letter >= 'A' && int(letter-'A') < count {
			return int(letter - 'A'), true
		}
	}
	return 0, false
}

func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
