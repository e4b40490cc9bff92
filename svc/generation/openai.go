package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIConfig configures the chat completions client.
type OpenAIConfig struct {
	APIKey      string  `env:"OPENAI_API_KEY"`
	Model       string  `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	BaseURL     string  `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Temperature float64 `env:"OPENAI_TEMPERATURE" envDefault:"0.9"`
}

// OpenAIClient implements Capability on the /chat/completions endpoint.
type OpenAIClient struct {
	cfg        OpenAIConfig
	httpClient *http.Client
}

type OpenAIOption func(*OpenAIClient)

// WithHTTPClient replaces the default client. Deadlines come from the
// request context, so the client needs no timeout of its own.
func WithHTTPClient(c *http.Client) OpenAIOption {
	return func(o *OpenAIClient) {
		if c != nil {
			o.httpClient = c
		}
	}
}

func NewOpenAIClient(cfg OpenAIConfig, opts ...OpenAIOption) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &OpenAIClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat map[string]any `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (c *OpenAIClient) Generate(ctx context.Context, p Prompt) ([]string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(p)},
			{Role: "user", Content: p.Text},
		},
		Temperature:    c.cfg.Temperature,
		ResponseFormat: map[string]any{"type": "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read openai response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var ae apiError
		_ = json.Unmarshal(raw, &ae)
		if resp.StatusCode == http.StatusTooManyRequests || strings.Contains(strings.ToLower(ae.Error.Message), "rate limit") {
			return nil, ErrRateLimited
		}
		return nil, fmt.Errorf("openai api returned status %d: %s", resp.StatusCode, ae.Error.Type)
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil || len(cr.Choices) == 0 {
		return nil, ErrMalformedOutput
	}
	return parseReplies(cr.Choices[0].Message.Content)
}

// parseReplies reads {"replies": [...]} from the model output. Code fences
// around the JSON are tolerated.
func parseReplies(content string) ([]string, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var out struct {
		Replies []string `json:"replies"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &out); err != nil {
		return nil, errors.Join(ErrMalformedOutput, err)
	}
	if len(out.Replies) == 0 {
		return nil, ErrMalformedOutput
	}
	return out.Replies, nil
}

const outputContract = ` Respond only with a JSON object of the form {"replies": ["...", "...", "..."]} containing exactly 3 options.`

func systemPrompt(p Prompt) string {
	var sb strings.Builder
	switch p.Mode {
	case ModeSayItBetter:
		sb.WriteString("You help people on dating apps. Rewrite the user's draft message so it reads natural and confident while keeping its meaning.")
	case ModeStarters:
		sb.WriteString("You help people on dating apps. Read the match's profile and suggest engaging, specific conversation openers.")
	case ModeCoach:
		sb.WriteString("You are a dating message coach. Suggest improved versions of the user's draft, each fixing a different weakness.")
	case ModeDecoder:
		sb.WriteString("You help people on dating apps understand messages they receive. Give short, plausible interpretations of the message.")
	default:
		sb.WriteString("You help people on dating apps. Write replies to the message the user received.")
	}
	if p.Tone != "" {
		sb.WriteString(" Use a " + p.Tone + " tone.")
	}
	if p.Intent != "" {
		sb.WriteString(" The user's goal: " + p.Intent + ".")
	}
	sb.WriteString(outputContract)
	return sb.String()
}
