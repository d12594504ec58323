package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/studybot/pkg/models"
)

func TestMockGeneratorProducesValidContent(t *testing.T) {
	for _, m := range models.LearningMethods {
		content, err := MockGenerator{}.Generate(context.Background(), Request{Topic: "Web basics", Method: m})
		if err != nil {
			t.Fatalf("%s: %v", m, err)
		}
		if err := models.CheckContent(m, content); err != nil {
			t.Errorf("%s: %v", m, err)
		}
		if models.ContentTitle(content) != "Web basics" {
			t.Errorf("%s: title = %q", m, models.ContentTitle(content))
		}
	}
}

func TestMockGeneratorCount(t *testing.T) {
	content, _ := MockGenerator{}.Generate(context.Background(), Request{Topic: "x", Method: models.MethodFlashcards, Count: 2})
	if n := len(content.(*models.CardSet).Cards); n != 2 {
		t.Errorf("cards = %d, want 2", n)
	}
	if _, err := (MockGenerator{}).Generate(context.Background(), Request{Method: models.MethodQuizzes}); err == nil {
		t.Error("empty topic should fail")
	}
}

func TestWithDelayRespectsCancellation(t *testing.T) {
	g := WithDelay(MockGenerator{}, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Generate(ctx, Request{Topic: "x", Method: models.MethodChat}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}

	g = WithDelay(MockGenerator{}, time.Millisecond)
	if _, err := g.Generate(context.Background(), Request{Topic: "x", Method: models.MethodChat}); err != nil {
		t.Errorf("short delay: %v", err)
	}
	if _, ok := WithDelay(MockGenerator{}, 0).(MockGenerator); !ok {
		t.Error("zero delay should return the generator unchanged")
	}
}

func chatServer(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"message": "bad key"}})
			return
		}
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) != 2 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": answer}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChatGPTGenerate(t *testing.T) {
	answer := "```json\n{\"questions\":[{\"question\":\"2+2?\",\"options\":[\"3\",\"4\"],\"answer\":1}]}\n```"
	srv := chatServer(t, answer)
	c, err := New(Options{APIKey: "test-key", APIURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	content, err := c.Generate(context.Background(), Request{Topic: "Arithmetic", Method: models.MethodQuizzes})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	quiz := content.(*models.QuestionSet)
	if quiz.Title != "Arithmetic" || quiz.Questions[0].Answer != 1 {
		t.Errorf("quiz = %+v", quiz)
	}
}

func TestChatGPTGenerateErrors(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("missing key should fail")
	}

	bad := chatServer(t, `{"questions":[{"question":"?","options":["a","b"],"answer":7}]}`)
	c, _ := New(Options{APIKey: "test-key", APIURL: bad.URL})
	if _, err := c.Generate(context.Background(), Request{Topic: "x", Method: models.MethodQuizzes}); !errors.Is(err, models.ErrContentShapeMismatch) {
		t.Errorf("out of range answer: err = %v", err)
	}

	c, _ = New(Options{APIKey: "wrong", APIURL: bad.URL})
	if _, err := c.Generate(context.Background(), Request{Topic: "x", Method: models.MethodQuizzes}); err == nil {
		t.Error("API error should surface")
	}
}

func TestStripFences(t *testing.T) {
	tests := map[string]string{
		`{"a":1}`:                 `{"a":1}`,
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}```":       `{"a":1}`,
	}
	for in, want := range tests {
		if got := stripFences(in); got != want {
			t.Errorf("stripFences(%q) = %q, want %q", in, got, want)
		}
	}
}
