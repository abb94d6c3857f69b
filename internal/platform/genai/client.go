package genai

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

	"github.com/qfd-delivery/api/internal/domain"
	"github.com/qfd-delivery/api/internal/platform/config"
	"go.uber.org/zap"
)

const helpDeskPromptTemplate = "User asks about food delivery: %s. Provide a helpful, short answer specifically for a food delivery app named QFD. Mention that delivery times are 7am-10am and 4pm-7pm. If the question is about how to order, tracking, or payment, provide a dummy youtube link for a tutorial."

// Client calls the Gemini generateContent REST API for help-desk replies.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientOption customises Client instances.
type ClientOption func(*Client)

// WithHTTPClient injects a custom HTTP client (primarily for tests).
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithClientLogger sets the logger used for diagnostic output.
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient constructs a Client from GenAI configuration.
func NewClient(cfg config.GenAIConfig, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("genai: api key is required")
	}
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("genai: endpoint is required")
	}
	model := strings.TrimSpace(cfg.TextModel)
	if model == "" {
		return nil, errors.New("genai: text model is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	client := &Client{
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text,omitempty"`
}

type generationConfig struct {
	ResponseMimeType string      `json:"responseMimeType,omitempty"`
	ResponseSchema   *schemaNode `json:"responseSchema,omitempty"`
}

type schemaNode struct {
	Type       string                 `json:"type"`
	Properties map[string]*schemaNode `json:"properties,omitempty"`
	Required   []string               `json:"required,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type helpReplyPayload struct {
	Answer   string `json:"answer"`
	Category string `json:"category"`
	VideoURL string `json:"videoUrl"`
}

var helpReplySchema = &schemaNode{
	Type: "OBJECT",
	Properties: map[string]*schemaNode{
		"answer":   {Type: "STRING"},
		"category": {Type: "STRING"},
		"videoUrl": {Type: "STRING"},
	},
	Required: []string{"answer", "category"},
}

// GenerateHelpReply asks the model for a structured help-desk answer.
func (c *Client) GenerateHelpReply(ctx context.Context, question string) (domain.AssistantReply, error) {
	if c == nil {
		return domain.AssistantReply{}, errors.New("genai: client not initialised")
	}

	payload, err := json.Marshal(generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: fmt.Sprintf(helpDeskPromptTemplate, question)}},
		}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   helpReplySchema,
		},
	})
	if err != nil {
		return domain.AssistantReply{}, fmt.Errorf("genai: encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return domain.AssistantReply{}, fmt.Errorf("genai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.AssistantReply{}, fmt.Errorf("genai: generate content: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.AssistantReply{}, fmt.Errorf("genai: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("genai: generate content failed",
			zap.Int("status", resp.StatusCode),
		)
		return domain.AssistantReply{}, fmt.Errorf("genai: generate content status %d", resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return domain.AssistantReply{}, fmt.Errorf("genai: decode response: %w", err)
	}

	text := firstCandidateText(decoded)
	if text == "" {
		return domain.AssistantReply{}, errors.New("genai: empty candidate")
	}

	var reply helpReplyPayload
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return domain.AssistantReply{}, fmt.Errorf("genai: decode structured reply: %w", err)
	}

	return domain.AssistantReply{
		Answer:   reply.Answer,
		Category: reply.Category,
		VideoURL: reply.VideoURL,
	}, nil
}

func firstCandidateText(resp generateResponse) string {
	for _, candidate := range resp.Candidates {
		for _, p := range candidate.Content.Parts {
			if trimmed := strings.TrimSpace(p.Text); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
