// Package llm wraps the OpenAI-compatible chat completions API used by the
// agent. DeepSeek exposes the same wire format, so a single client serves
// both providers.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/klubi/furrow/internal/config"
	"github.com/klubi/furrow/internal/tools"
)

// TransportError reports a failed exchange with the model provider: network
// failure, timeout, or a malformed response. The conversation survives it;
// the caller reports the error and keeps accepting input.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("model request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client talks to one chat completion endpoint with fixed sampling settings.
type Client struct {
	api         *openai.Client
	model       string
	maxTokens   int64
	temperature float64
	timeout     time.Duration
	logger      *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.API.Key)}
	if cfg.API.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.API.BaseURL))
	}
	return &Client{
		api:         openai.NewClient(opts...),
		model:       cfg.API.Model,
		maxTokens:   int64(cfg.API.MaxTokens),
		temperature: cfg.API.Temperature,
		timeout:     cfg.Timeout(),
		logger:      logger,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Chat sends the conversation to the model and returns its next message.
// Tool definitions are attached when toolParams is non-empty. Every failure
// comes back as a TransportError.
func (c *Client) Chat(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, toolParams []openai.ChatCompletionToolParam) (*openai.ChatCompletion, error) {
	params := openai.ChatCompletionNewParams{
		Messages:    openai.F(messages),
		Model:       openai.F(c.model),
		MaxTokens:   openai.F(c.maxTokens),
		Temperature: openai.F(c.temperature),
	}
	if len(toolParams) > 0 {
		params.Tools = openai.F(toolParams)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	completion, err := c.api.Chat.Completions.New(reqCtx, params)
	if err != nil {
		c.logger.Warn("model request failed",
			zap.String("model", c.model),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err))
		return nil, &TransportError{Err: err}
	}
	if len(completion.Choices) == 0 {
		return nil, &TransportError{Err: fmt.Errorf("provider returned no choices")}
	}

	c.logger.Debug("model response received",
		zap.String("model", c.model),
		zap.Duration("elapsed", time.Since(started)),
		zap.Int64("promptTokens", completion.Usage.PromptTokens),
		zap.Int64("completionTokens", completion.Usage.CompletionTokens),
		zap.Int("toolCalls", len(completion.Choices[0].Message.ToolCalls)))
	return completion, nil
}

// ToolParams converts registry specs into the function declarations the
// completions API expects.
func ToolParams(specs []tools.Spec) []openai.ChatCompletionToolParam {
	params := make([]openai.ChatCompletionToolParam, 0, len(specs))
	for _, spec := range specs {
		params = append(params, openai.ChatCompletionToolParam{
			Type: openai.F(openai.ChatCompletionToolTypeFunction),
			Function: openai.F(openai.FunctionDefinitionParam{
				Name:        openai.F(spec.Name),
				Description: openai.F(spec.Description),
				Parameters:  openai.F(openai.FunctionParameters(spec.Schema)),
			}),
		})
	}
	return params
}

// ToolResultMessage wraps a tool result for the next model request, bound to
// the call that produced it.
func ToolResultMessage(toolCallID, content string) openai.ChatCompletionMessageParamUnion {
	return openai.ChatCompletionToolMessageParam{
		Role:       openai.F(openai.ChatCompletionToolMessageParamRoleTool),
		Content:    openai.F([]openai.ChatCompletionContentPartTextParam{{Type: openai.F(openai.ChatCompletionContentPartTextTypeText), Text: openai.F(content)}}),
		ToolCallID: openai.F(toolCallID),
	}
}
