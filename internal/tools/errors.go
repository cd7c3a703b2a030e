package tools

import (
	"fmt"
	"strings"
)

// DuplicateToolError is returned by Register when a tool name is already
// taken. Names are immutable after registration.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

// UnknownToolError is returned by Dispatch for a name no tool was
// registered under. The handler table is never touched in that case.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// InvalidArgumentError is returned by Dispatch when the supplied arguments
// do not satisfy the tool's schema. Reasons lists every violation found.
type InvalidArgumentError struct {
	Tool    string
	Reasons []string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %q: %s", e.Tool, strings.Join(e.Reasons, "; "))
}

// ToolExecutionError wraps a failure inside a tool handler.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}
