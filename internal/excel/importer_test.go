package excel

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/example/studybot/pkg/models"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		r := row
		if err := f.SetSheetRow("Sheet1", axis, &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "spanish.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestImportFlashcardsFromExcel(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Front", "Back"},
		{"hola", "hello"},
		{"adiós", ""},
		{},
		{"gracias", "thank you"},
	})
	cfg := DefaultImportConfig(models.MethodFlashcards)
	cfg.FilePath = path

	content, result, err := ImportContent(cfg)
	if err != nil {
		t.Fatalf("ImportContent: %v", err)
	}
	cards, ok := content.(*models.CardSet)
	if !ok {
		t.Fatalf("content = %T", content)
	}
	if cards.Title != "spanish" || len(cards.Cards) != 2 || cards.Cards[1].Back != "thank you" {
		t.Errorf("cards = %+v", cards)
	}
	if result.Imported != 2 || result.Skipped != 1 || len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "Row 3") {
		t.Errorf("result = %+v", result)
	}
}

func TestImportQuizzesFromCSV(t *testing.T) {
	data := `question,a,b,c,d,answer
Capital of France?,Paris,Rome,Berlin,Madrid,1
2 + 2?,3,4,,,B
Largest planet?,Mars,Jupiter,,,jupiter
Broken?,only one,,,,1
Points at blank?,x,y,,,D
`
	cfg := DefaultImportConfig(models.MethodQuizzes)
	cfg.FilePath = "upload.csv"
	cfg.Reader = strings.NewReader(data)
	cfg.Title = "General knowledge"

	content, result, err := ImportContent(cfg)
	if err != nil {
		t.Fatalf("ImportContent: %v", err)
	}
	quiz := content.(*models.QuestionSet)
	if quiz.Title != "General knowledge" || len(quiz.Questions) != 3 {
		t.Fatalf("quiz = %+v", quiz)
	}
	wantAnswers := []int{0, 1, 1}
	for i, want := range wantAnswers {
		if got := quiz.Questions[i].Answer; got != want {
			t.Errorf("question %d answer = %d, want %d", i, got, want)
		}
	}
	if len(quiz.Questions[1].Options) != 2 {
		t.Errorf("empty options kept: %v", quiz.Questions[1].Options)
	}
	if result.Skipped != 2 || result.TotalProcessed != 5 {
		t.Errorf("result = %+v", result)
	}
}

func TestImportQuizAnswerPrefersOptionPosition(t *testing.T) {
	data := `question,a,b,c,d,answer
Smallest?,2,1,3,,1
Which letter?,C,A,B,,a
Text answer?,2,1,3,,3 apples
Matches text only?,red,green,blue,,Blue
`
	cfg := DefaultImportConfig(models.MethodQuizzes)
	cfg.FilePath = "numbers.csv"
	cfg.Reader = strings.NewReader(data)

	content, result, err := ImportContent(cfg)
	if err != nil {
		t.Fatalf("ImportContent: %v", err)
	}
	quiz := content.(*models.QuestionSet)
	if len(quiz.Questions) != 3 || result.Skipped != 1 {
		t.Fatalf("quiz = %+v, result = %+v", quiz, result)
	}
	// "1" is the first option, not the option reading "1"
	for i, want := range []int{0, 0, 2} {
		if got := quiz.Questions[i].Answer; got != want {
			t.Errorf("question %d answer = %d, want %d", i, got, want)
		}
	}
}

func TestImportContentErrors(t *testing.T) {
	cfg := DefaultImportConfig(models.MethodGame)
	cfg.FilePath = "x.csv"
	cfg.Reader = strings.NewReader("a,b\n")
	if _, _, err := ImportContent(cfg); !errors.Is(err, ErrUnsupportedMethod) {
		t.Errorf("game import: err = %v", err)
	}

	cfg = DefaultImportConfig(models.MethodFlashcards)
	cfg.FilePath = "empty.csv"
	cfg.Reader = strings.NewReader("front,back\n")
	if _, _, err := ImportContent(cfg); !errors.Is(err, models.ErrContentShapeMismatch) {
		t.Errorf("header only: err = %v", err)
	}

	cfg = DefaultImportConfig(models.MethodFlashcards)
	cfg.FilePath = filepath.Join(t.TempDir(), "missing.xlsx")
	if _, _, err := ImportContent(cfg); err == nil {
		t.Error("missing file should fail")
	}
}

func TestColumnToIndex(t *testing.T) {
	tests := map[string]int{"A": 0, "b": 1, "Z": 25, "AA": 26, "AB": 27}
	for col, want := range tests {
		if got := columnToIndex(col); got != want {
			t.Errorf("columnToIndex(%q) = %d, want %d", col, got, want)
		}
	}
}
