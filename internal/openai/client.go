package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/illusion-note/backend-go/internal/config"
)

const defaultBaseURL = "https://api.openai.com/v1"

// ErrNoAPIKey is returned when analysis is requested without a configured key.
var ErrNoAPIKey = errors.New("openai api key not configured")

// AnalysisResult is the structured reply the model is prompted to produce.
type AnalysisResult struct {
	Emotion     string `json:"emotion"`
	AnalyzeText string `json:"analyze_text"`
	Response    string `json:"response"`
}

// Client is a thin chat-completions client used for emotion analysis and
// reply generation.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an OpenAI client from config.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("⚠️ [OpenAI] No API key configured, emotion analysis will fail")
	}

	return &Client{
		apiKey:  cfg.OpenAIAPIKey,
		model:   cfg.OpenAIModel,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.OpenAITimeout) * time.Second,
		},
		logger: logger,
	}
}

// NewClientForTesting creates a client pointed at a stub server.
func NewClientForTesting(apiKey, model, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
}

// Response-type phrasings the prompt asks the model to adopt.
var responseStyles = map[string]string{
	"comfort": "empathetic and comforting",
	"fact":    "factual and objective",
	"advice":  "practical, advice-oriented",
}

// AnalyzeEmotion asks the model to detect the emotion in the user's text and
// produce a structured reply. If mood is non-empty the model is told which
// emotion the user already picked.
func (c *Client) AnalyzeEmotion(ctx context.Context, text, mood, responseType string) (*AnalysisResult, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	style, ok := responseStyles[responseType]
	if !ok {
		style = responseStyles["comfort"]
	}

	var sb strings.Builder
	sb.WriteString("User input: ")
	sb.WriteString(text)
	sb.WriteString("\n\n")
	if mood != "" {
		fmt.Fprintf(&sb, "The user reports feeling %q. ", mood)
	} else {
		sb.WriteString("Detect the emotion expressed in the text. ")
	}
	fmt.Fprintf(&sb, "Write a %s reply. ", style)
	sb.WriteString(`Answer strictly as JSON: {"emotion": "<detected emotion>", "analyze_text": "<detailed analysis and reply>", "response": "<1-2 sentence summary of the reply>"}`)

	content, err := c.complete(ctx, sb.String())
	if err != nil {
		return nil, err
	}

	result := parseAnalysis(content)
	if mood != "" && result.Emotion == "" {
		result.Emotion = mood
	}
	return result, nil
}

// GenerateTitle produces a short title for a diary entry.
func (c *Client) GenerateTitle(ctx context.Context, text string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	prompt := fmt.Sprintf("Write a title of at most 8 words for this diary entry. Reply with the title only.\n\n%s", text)
	title, err := c.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(title), `"`), nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("openai returned status %d: %s", resp.StatusCode, string(data))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode openai response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

// parseAnalysis extracts the structured JSON block from the model output.
// Models occasionally wrap the JSON in prose, so the first balanced object
// is tried; if nothing parses, the whole text becomes the reply.
func parseAnalysis(content string) *AnalysisResult {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		var result AnalysisResult
		if err := json.Unmarshal([]byte(content[start:end+1]), &result); err == nil && result.Response != "" {
			return &result
		}
	}

	return &AnalysisResult{
		Emotion:  "",
		Response: strings.TrimSpace(content),
	}
}
