package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// AIService drafts tasks from free text with an OpenAI chat model.
type AIService struct {
	client *openai.Client
	model  string
	now    Clock
}

// GeneratedTask is a task draft returned to the client for review.
type GeneratedTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ToDate      *time.Time `json:"to_date"`
}

// AIConfig configures the OpenAI client. BaseURL is optional and mainly
// used to point at a compatible endpoint.
type AIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

func NewAIService(cfg AIConfig, clock Clock) *AIService {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}
	if clock == nil {
		clock = SystemClock
	}
	return &AIService{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		now:    clock,
	}
}

// GenerateTasksFromText analyzes text and extracts task drafts
func (s *AIService) GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error) {
	if s.client == nil {
		return nil, errors.New("OpenAI client not initialized")
	}

	currentTime := s.now().Format(time.RFC3339)
	prompt := fmt.Sprintf(`You extract actionable work items from text for a company task tracker.

Current time: %s

Text:
%s

Return a JSON array of tasks in this shape:
[
  {
    "title": "short task title",
    "description": "task details",
    "to_date": "due date in RFC3339, e.g. 2025-10-28T23:59:59Z, or null when no deadline is stated"
  }
]

Rules:
- Return [] when the text contains no task
- Convert relative deadlines such as "tomorrow" or "next week" to concrete timestamps
- to_date must be an RFC3339 string or null
- Return JSON only, without any explanation`, currentTime, text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)

	var tasks []GeneratedTask
	if err := json.Unmarshal([]byte(content), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return tasks, nil
}

// stripCodeFence removes a surrounding ```json fence that chat models often add.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
