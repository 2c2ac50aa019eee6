package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"

	"github.com/taskflow/taskflow-api/internal/models"
)

const (
	// DefaultModel is the default model to use
	DefaultModel = "gpt-4o-mini"
	// DefaultBaseURL is the default OpenAI API base URL
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second
)

// Suggester produces a category suggestion for a task description.
type Suggester interface {
	Suggest(ctx context.Context, description string) (*models.CategorySuggestion, error)
}

// OpenAIProvider implements Suggester using OpenAI's chat completions API.
type OpenAIProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

var _ Suggester = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a new OpenAI suggestion provider.
func NewOpenAIProvider(apiKey, baseURL, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// Suggest asks the model to classify a task description into one of the
// known categories. A response naming a category outside the known set is
// an error, never coerced to a fallback. No retries are attempted.
func (p *OpenAIProvider) Suggest(ctx context.Context, description string) (*models.CategorySuggestion, error) {
	prompt := buildSuggestionPrompt(description)

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("You are a helpful assistant that categorizes todo items. Respond with valid JSON only."),
		openai.UserMessage(prompt),
	}

	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "suggest_category"),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", "suggest_category"),
				zap.String("model", p.model),
				zap.Error(err),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrUnavailable)
	}

	content := resp.Choices[0].Message.Content

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "suggest_category"),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	suggestion, err := parseAndValidateSuggestion(content)
	if err != nil {
		return nil, err
	}
	return suggestion, nil
}

// parseAndValidateSuggestion decodes the model output and checks the
// category against the known set.
func parseAndValidateSuggestion(content string) (*models.CategorySuggestion, error) {
	var parsed struct {
		SuggestedCategory string `json:"suggestedCategory"`
		Reasoning         string `json:"reasoning"`
	}
	raw := content
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		if len(raw) > 0 && raw[0] != '{' {
			start := bytes.Index([]byte(raw), []byte("{"))
			end := bytes.LastIndex([]byte(raw), []byte("}"))
			if start != -1 && end != -1 && end > start {
				raw = raw[start : end+1]
			}
		}
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return nil, fmt.Errorf("%w: failed to parse suggestion response: %v", ErrUnavailable, err)
		}
	}

	category, ok := models.ParseCategory(parsed.SuggestedCategory)
	if !ok {
		return nil, fmt.Errorf("%w: model returned unknown category %q", ErrUnavailable, parsed.SuggestedCategory)
	}

	return &models.CategorySuggestion{
		Category:  category,
		Reasoning: strings.TrimSpace(parsed.Reasoning),
	}, nil
}

// buildSuggestionPrompt builds the classification prompt. The category
// list is enumerated verbatim so the model picks from the closed set.
func buildSuggestionPrompt(description string) string {
	names := make([]string, 0, len(models.Categories()))
	for _, c := range models.Categories() {
		names = append(names, string(c))
	}

	return fmt.Sprintf(`Suggest the single most appropriate category for the following todo item.

Todo item: %q

The category must be exactly one of: %s.

Respond with a JSON object in this format:
{
  "suggestedCategory": "<one of the categories above>",
  "reasoning": "<one short sentence explaining the choice>"
}

Return only valid JSON.`, description, strings.Join(names, ", "))
}
