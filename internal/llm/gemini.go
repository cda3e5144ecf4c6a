package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// ErrTimeout is returned when the model does not answer before the context deadline.
var ErrTimeout = errors.New("llm: request timed out")

// ErrMissingAPIKey is returned by NewGeminiClient when no key is configured.
var ErrMissingAPIKey = errors.New("llm: gemini api key is not set")

// StatusError is a non-2xx answer from the model API.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm: unexpected status %d: %s", e.StatusCode, e.Message)
}

// GeminiConfig configures a GeminiClient. BaseURL and HTTPClient are optional.
type GeminiConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiClient calls Gemini through the GenAI SDK for a fixed model.
type GeminiClient struct {
	models *genai.Models
	model  string
}

// NewGeminiClient creates a client for the Gemini API backend.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GeminiClient{models: client.Models, model: cfg.Model}, nil
}

// GenerateContent sends contents to the configured model. Deadlines surface
// as ErrTimeout and API failures as *StatusError.
func (c *GeminiClient) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	resp, err := c.models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, classify(ctx, err)
	}
	return resp, nil
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &StatusError{StatusCode: apiErrPtr.Code, Message: apiErrPtr.Message}
	}
	return fmt.Errorf("generating content: %w", err)
}
