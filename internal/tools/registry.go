// Package tools holds the fixed set of local functions the model may call:
// file manipulation, command execution, host inspection, and yield
// prediction. A Registry maps tool names to handlers, serves the schema
// manifest sent to the chat API, and validates arguments before dispatch.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/invopop/jsonschema"
	"go.uber.org/zap"
)

// Handler executes one tool invocation and returns the result fed back to
// the model, usually a JSON document. A non-nil error marks an internal
// handler failure; domain-level failures (missing file, non-zero exit) are
// reported inside the result string instead.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Spec describes one registered tool for the chat API manifest.
type Spec struct {
	Name        string
	Description string
	Schema      map[string]any // JSON Schema for the arguments object
}

type registeredTool struct {
	spec    Spec
	handler Handler
}

// Registry is the tool dispatch table. Registration happens at startup;
// after that the registry is read-only, so no locking is needed for the
// single-threaded agent loop.
type Registry struct {
	logger *zap.Logger
	tools  map[string]*registeredTool
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		logger: logger,
		tools:  make(map[string]*registeredTool),
	}
}

// Register adds a tool under its spec name. Names are unique; registering
// a taken name returns a DuplicateToolError.
func (r *Registry) Register(spec Spec, handler Handler) error {
	if spec.Name == "" {
		return fmt.Errorf("tool name must not be empty")
	}
	if handler == nil {
		return fmt.Errorf("tool %q has no handler", spec.Name)
	}
	if _, exists := r.tools[spec.Name]; exists {
		return &DuplicateToolError{Name: spec.Name}
	}
	r.tools[spec.Name] = &registeredTool{spec: spec, handler: handler}
	r.order = append(r.order, spec.Name)
	return nil
}

// Specs returns all tool specs in registration order, for building the
// chat API tool manifest.
func (r *Registry) Specs() []Spec {
	specs := make([]Spec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.tools[name].spec)
	}
	return specs
}

// Dispatch validates args against the named tool's schema and runs its
// handler. Unknown names return an UnknownToolError without invoking
// anything; schema violations return an InvalidArgumentError; handler
// failures are wrapped in a ToolExecutionError.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (string, error) {
	tool, ok := r.tools[name]
	if !ok {
		return "", &UnknownToolError{Name: name}
	}
	if err := validateArgs(tool.spec, args); err != nil {
		return "", err
	}

	r.logger.Debug("dispatching tool",
		zap.String("tool", name),
		zap.Int("args", len(args)),
	)

	started := time.Now()
	result, err := tool.handler(ctx, args)
	if err != nil {
		r.logger.Warn("tool failed",
			zap.String("tool", name),
			zap.Error(err),
		)
		return "", &ToolExecutionError{Tool: name, Err: err}
	}

	r.logger.Debug("tool completed",
		zap.String("tool", name),
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("resultBytes", len(result)),
	)
	return result, nil
}

// registration pairs a tool's manifest entry with its handler, so the
// per-concern Register* functions can declare their tools as tables.
type registration struct {
	name        string
	description string
	schema      func() (map[string]any, error)
	handler     Handler
}

func register(r *Registry, regs []registration) error {
	for _, reg := range regs {
		schema, err := reg.schema()
		if err != nil {
			return fmt.Errorf("reflecting schema for %s: %w", reg.name, err)
		}
		spec := Spec{
			Name:        reg.name,
			Description: reg.description,
			Schema:      schema,
		}
		if err := r.Register(spec, reg.handler); err != nil {
			return err
		}
	}
	return nil
}

// ReflectSchema builds the JSON Schema for a tool's argument struct. The
// schema forbids additional properties and inlines all definitions so it
// can be embedded directly in the chat tool manifest.
func ReflectSchema[T any]() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding schema: %w", err)
	}
	return m, nil
}

// validateArgs checks required fields, declared types, and unexpected
// arguments against the tool's schema. All violations are collected so the
// model sees the full list at once.
func validateArgs(spec Spec, args map[string]any) error {
	var reasons []string

	if required, ok := spec.Schema["required"].([]any); ok {
		for _, entry := range required {
			name, ok := entry.(string)
			if !ok {
				continue
			}
			if _, present := args[name]; !present {
				reasons = append(reasons, fmt.Sprintf("missing required argument %q", name))
			}
		}
	}

	props, _ := spec.Schema["properties"].(map[string]any)
	allowAdditional := true
	if v, ok := spec.Schema["additionalProperties"].(bool); ok {
		allowAdditional = v
	}
	for name, value := range args {
		prop, known := props[name].(map[string]any)
		if !known {
			if !allowAdditional {
				reasons = append(reasons, fmt.Sprintf("unexpected argument %q", name))
			}
			continue
		}
		want, _ := prop["type"].(string)
		if want != "" && !matchesType(want, value) {
			reasons = append(reasons, fmt.Sprintf("argument %q must be of type %s", name, want))
		}
	}

	if len(reasons) > 0 {
		sort.Strings(reasons)
		return &InvalidArgumentError{Tool: spec.Name, Reasons: reasons}
	}
	return nil
}

func matchesType(schemaType string, value any) bool {
	switch schemaType {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "integer":
		switch n := value.(type) {
		case float64:
			return n == math.Trunc(n)
		case int, int64:
			return true
		default:
			return false
		}
	case "number":
		switch value.(type) {
		case float64, int, int64:
			return true
		default:
			return false
		}
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "null":
		return value == nil
	default:
		return true
	}
}
