// Package agent drives the conversation loop: a user prompt goes in, the
// model is consulted, requested tools run, and the model's final text
// comes back out.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/openai/openai-go"
	"go.uber.org/zap"

	"github.com/klubi/furrow/internal/config"
	"github.com/klubi/furrow/internal/history"
	"github.com/klubi/furrow/internal/llm"
	"github.com/klubi/furrow/internal/tools"
)

// State tracks where the loop currently is within an exchange.
type State string

const (
	// StateAwaitingInput means the loop is idle, ready for the next prompt.
	StateAwaitingInput State = "AwaitingInput"
	// StateAwaitingModel means a completion request is in flight.
	StateAwaitingModel State = "AwaitingModel"
	// StateDispatchingTool means requested tools are running.
	StateDispatchingTool State = "DispatchingTool"
	// StateTerminal means the loop has shut down and rejects further input.
	StateTerminal State = "Terminal"
)

// ErrLoopLimitExceeded reports that one exchange used every permitted
// tool iteration without reaching a text answer.
var ErrLoopLimitExceeded = fmt.Errorf("tool iteration limit exceeded")

// ErrTerminated is returned by Run after Close.
var ErrTerminated = fmt.Errorf("agent loop is terminated")

// ChatClient is the slice of the LLM client the loop depends on.
// A successful Chat carries at least one choice.
type ChatClient interface {
	Chat(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, toolParams []openai.ChatCompletionToolParam) (*openai.ChatCompletion, error)
}

// Agent owns one conversation. It is not safe for concurrent use; the CLI
// drives it from a single goroutine.
type Agent struct {
	client        ChatClient
	registry      *tools.Registry
	store         history.Store
	logger        *zap.Logger
	instructions  string
	maxIterations int

	state      State
	transcript []openai.ChatCompletionMessageParamUnion
	toolParams []openai.ChatCompletionToolParam
}

// New builds an Agent and restores the replayable part of the stored
// conversation into its transcript.
func New(client ChatClient, registry *tools.Registry, store history.Store, cfg config.AgentConfig, logger *zap.Logger) (*Agent, error) {
	instructions := cfg.Instructions
	if instructions == "" {
		instructions = config.DefaultInstructions
	}
	a := &Agent{
		client:        client,
		registry:      registry,
		store:         store,
		logger:        logger,
		instructions:  instructions,
		maxIterations: cfg.MaxToolIterations,
		state:         StateAwaitingInput,
		toolParams:    llm.ToolParams(registry.Specs()),
	}
	if err := a.restore(); err != nil {
		return nil, err
	}
	return a, nil
}

// restore seeds the transcript with the system prompt and the stored user
// and assistant turns. Tool turns stay out: their pairing assistant
// messages are not persisted, and the API rejects orphaned tool results.
func (a *Agent) restore() error {
	a.transcript = []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(a.instructions)}

	replayed := 0
	err := a.store.ForEach(func(t history.Turn) error {
		switch t.Role {
		case history.RoleUser:
			a.transcript = append(a.transcript, openai.UserMessage(t.Content))
		case history.RoleAssistant:
			a.transcript = append(a.transcript, openai.AssistantMessage(t.Content))
		default:
			return nil
		}
		replayed++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to restore conversation: %w", err)
	}
	if replayed > 0 {
		a.logger.Debug("restored conversation", zap.Int("turns", replayed))
	}
	return nil
}

// State reports the loop's current state.
func (a *Agent) State() State { return a.state }

// Close moves the loop to its terminal state. The history store is closed
// by its owner.
func (a *Agent) Close() {
	a.state = StateTerminal
}

// Run processes one exchange. The prompt is persisted before the first
// model call; tools run as the model requests them, each result going back
// into the transcript and the log; the model's final text ends the
// exchange. A transport failure aborts only the current exchange.
func (a *Agent) Run(ctx context.Context, prompt string) (string, error) {
	if a.state == StateTerminal {
		return "", ErrTerminated
	}

	userTurn := history.NewTurn(history.RoleUser, prompt)
	if err := a.store.Append(userTurn); err != nil {
		return "", fmt.Errorf("failed to persist user turn: %w", err)
	}
	a.transcript = append(a.transcript, openai.UserMessage(prompt))

	exchangeID, err := gonanoid.New()
	if err != nil {
		exchangeID = userTurn.ID
	}
	log := a.logger.With(zap.String("exchange", exchangeID))
	log.Info("exchange started", zap.Int("promptLen", len(prompt)))

	for iteration := 1; iteration <= a.maxIterations; iteration++ {
		a.state = StateAwaitingModel
		log.Debug("requesting completion",
			zap.Int("iteration", iteration),
			zap.Int("transcriptLen", len(a.transcript)),
		)

		completion, err := a.client.Chat(ctx, a.transcript, a.toolParams)
		if err != nil {
			a.abortExchange(log, err)
			return "", err
		}

		message := completion.Choices[0].Message
		a.transcript = append(a.transcript, message)

		if len(message.ToolCalls) == 0 {
			answer := message.Content
			if err := a.store.Append(history.NewTurn(history.RoleAssistant, answer)); err != nil {
				return "", fmt.Errorf("failed to persist assistant turn: %w", err)
			}
			log.Info("exchange completed",
				zap.Int("iterations", iteration),
				zap.Int("answerLen", len(answer)),
			)
			a.state = StateAwaitingInput
			return answer, nil
		}

		a.state = StateDispatchingTool
		for _, call := range message.ToolCalls {
			result := a.dispatch(ctx, log, call)
			a.transcript = append(a.transcript, llm.ToolResultMessage(call.ID, result))
			if err := a.store.Append(history.NewToolTurn(call.Function.Name, call.ID, result)); err != nil {
				return "", fmt.Errorf("failed to persist tool turn: %w", err)
			}
		}
	}

	log.Warn("exchange hit the iteration limit", zap.Int("maxIterations", a.maxIterations))
	a.state = StateAwaitingInput
	return "", fmt.Errorf("%w after %d iterations", ErrLoopLimitExceeded, a.maxIterations)
}

// dispatch runs one requested tool. Dispatch failures never abort the
// exchange: they come back as structured error results the model can read
// and correct course on.
func (a *Agent) dispatch(ctx context.Context, log *zap.Logger, call openai.ChatCompletionMessageToolCall) string {
	name := call.Function.Name

	args := map[string]any{}
	if raw := call.Function.Arguments; raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			log.Warn("model sent malformed tool arguments",
				zap.String("tool", name),
				zap.Error(err),
			)
			return toolFailureJSON(name, fmt.Sprintf("arguments are not valid JSON: %v", err))
		}
	}

	result, err := a.registry.Dispatch(ctx, name, args)
	if err != nil {
		return toolFailureJSON(name, err.Error())
	}
	return result
}

// abortExchange records a transport failure in the log so later sessions
// see the gap, then returns the loop to its idle state.
func (a *Agent) abortExchange(log *zap.Logger, cause error) {
	marker := fmt.Sprintf("[transport error] %v", cause)
	if err := a.store.Append(history.NewTurn(history.RoleAssistant, marker)); err != nil {
		log.Warn("failed to persist transport marker", zap.Error(err))
	}
	a.transcript = append(a.transcript, openai.AssistantMessage(marker))
	a.state = StateAwaitingInput
}

// toolFailureJSON formats a dispatch failure as a result the model can
// parse. The shape matches what the tools themselves return on domain
// errors.
func toolFailureJSON(tool, message string) string {
	data, err := json.MarshalIndent(map[string]any{
		"status":  "error",
		"tool":    tool,
		"message": message,
	}, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"status": "error", "message": %q}`, message)
	}
	return string(data)
}
