package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/studybot/pkg/models"
)

const defaultAPIURL = "https://api.openai.com/v1/chat/completions"

// ChatGPT represents a client for the OpenAI ChatGPT API
type ChatGPT struct {
	apiKey      string
	apiURL      string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

// Options configure a ChatGPT client; zero fields take defaults
type Options struct {
	APIKey     string
	Model      string
	APIURL     string
	HTTPClient *http.Client
}

// New creates a new ChatGPT client
func New(opts Options) (*ChatGPT, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is not set")
	}
	c := &ChatGPT{
		apiKey:      opts.APIKey,
		apiURL:      opts.APIURL,
		model:       opts.Model,
		maxTokens:   1200,
		temperature: 0.7,
		client:      opts.HTTPClient,
	}
	if c.apiURL == "" {
		c.apiURL = defaultAPIURL
	}
	if c.model == "" {
		c.model = "gpt-3.5-turbo"
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: 60 * time.Second}
	}
	return c, nil
}

// Message represents a message in the ChatGPT conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to the ChatGPT API
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// ChatResponse represents a response from the ChatGPT API
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// shapes tells the model which JSON document to answer with
var shapes = map[models.LearningMethod]string{
	models.MethodFlashcards: `{"title": string, "cards": [{"front": string, "back": string}]}`,
	models.MethodQuizzes:    `{"title": string, "questions": [{"question": string, "options": [string], "answer": <0-based index of the correct option>}]}`,
	models.MethodGame:       `{"title": string, "description": string, "levels": [{"name": string, "points": int, "challenges": int}], "challenges": [{"name": string, "description": string}]}`,
	models.MethodChat:       `{"title": string, "description": string, "topics": [string], "sampleQuestions": [string]}`,
}

// Generate asks the model for content in the JSON shape of the method and
// decodes the answer into the matching content type
func (c *ChatGPT) Generate(ctx context.Context, req Request) (models.Content, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	count := req.Count
	if count <= 0 {
		count = 5
	}

	prompt := fmt.Sprintf(
		"Create %s study material about %q with about %d items. "+
			"Answer with a single JSON document of this shape and nothing else:\n%s",
		req.Method, req.Topic, count, shapes[req.Method],
	)
	messages := []Message{
		{Role: "system", Content: "You are a tutor that writes concise, accurate study material."},
		{Role: "user", Content: prompt},
	}

	answer, err := c.complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	content, err := models.DecodeContent(req.Method, []byte(stripFences(answer)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode generated content: %w", err)
	}
	if content == nil {
		return nil, fmt.Errorf("model returned no content")
	}
	if models.ContentTitle(content) == "" {
		setTitle(content, req.Topic)
	}
	if err := models.CheckContent(req.Method, content); err != nil {
		return nil, err
	}
	return content, nil
}

func (c *ChatGPT) complete(ctx context.Context, messages []Message) (string, error) {
	request := ChatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	requestData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(requestData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	if response.Error != nil {
		return "", fmt.Errorf("API error: %s", response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// stripFences removes a ```json ... ``` wrapper the model sometimes adds
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func setTitle(content models.Content, title string) {
	switch v := content.(type) {
	case *models.CardSet:
		v.Title = title
	case *models.QuestionSet:
		v.Title = title
	case *models.ChallengeSet:
		v.Title = title
	case *models.TopicSet:
		v.Title = title
	}
}
