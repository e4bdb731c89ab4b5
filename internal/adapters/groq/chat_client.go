package groq

import (
	"context"
	"fmt"

	"github.com/janzheng/mailcheck/internal/core"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// GroqClient is an implementation of the ChatClient interface against Groq's
// OpenAI-compatible API. The API key travels per request so callers can
// supply their own key without rebuilding the client.
type GroqClient struct {
	baseURL       string
	defaultAPIKey string
	logger        *zap.Logger
}

// NewGroqClient creates a new Groq chat client
func NewGroqClient(baseURL, defaultAPIKey string, logger *zap.Logger) *GroqClient {
	return &GroqClient{
		baseURL:       baseURL,
		defaultAPIKey: defaultAPIKey,
		logger:        logger,
	}
}

func (c *GroqClient) clientFor(apiKey string) *openai.Client {
	if apiKey == "" {
		apiKey = c.defaultAPIKey
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = c.baseURL
	return openai.NewClientWithConfig(cfg)
}

// Complete issues a single chat completion call
func (c *GroqClient) Complete(ctx context.Context, apiKey string, req core.ChatRequest) (*core.ChatResponse, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	apiReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	if req.JSONObject {
		apiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	if req.NoTools {
		apiReq.ToolChoice = "none"
	}
	if req.WebSearch {
		apiReq.Tools = []openai.Tool{{Type: openai.ToolType("browser_search")}}
	}

	resp, err := c.clientFor(apiKey).CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion with Groq: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from Groq")
	}

	msg := resp.Choices[0].Message
	c.logger.Debug("Chat completion finished",
		zap.String("model", req.Model),
		zap.String("id", resp.ID),
		zap.Int("content_length", len(msg.Content)))

	return &core.ChatResponse{Content: msg.Content}, nil
}
