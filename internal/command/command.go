// Package command defines the normalized command record that both the AI
// interpreter and the keyword matcher produce, and the uniform result every
// handler returns.
package command

import (
	"fmt"
	"strings"
)

// ActionError is the action carried by a Command the interpreter could not
// produce. Executing it always fails with the command's description.
const ActionError = "error"

// Params holds handler-specific parameters. Values are whatever the
// interpreter decoded from JSON (string, float64, bool, []any, map[string]any).
type Params map[string]any

// String returns the named parameter as a string, or "" when absent.
func (p Params) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Step is one action of a multi-step command.
type Step struct {
	Action     string `json:"action" mapstructure:"action"`
	Parameters Params `json:"parameters" mapstructure:"parameters"`
}

// Command is the normalized form of a user request.
type Command struct {
	// Action is the handler key, e.g. "open_app".
	Action string `json:"action"`

	// Parameters are passed to the handler untouched.
	Parameters Params `json:"parameters"`

	// Description is a human-readable summary, or the failure reason for
	// an error command.
	Description string `json:"description"`

	// Steps is non-empty for multi-step requests; Action is then informational.
	Steps []Step `json:"steps,omitempty"`
}

// IsError reports whether the command represents an interpretation failure.
func (c *Command) IsError() bool {
	return Canonical(c.Action) == ActionError
}

// Errorf builds an error command. The cause, if any, is kept in
// parameters["error"].
func Errorf(cause error, format string, args ...any) *Command {
	params := Params{}
	if cause != nil {
		params["error"] = cause.Error()
	}
	return &Command{
		Action:      ActionError,
		Parameters:  params,
		Description: fmt.Sprintf(format, args...),
	}
}

// Result is what every handler returns.
type Result struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// OK builds a successful result.
func OK(format string, args ...any) *Result {
	return &Result{Success: true, Message: fmt.Sprintf(format, args...)}
}

// Fail builds a failed result.
func Fail(format string, args ...any) *Result {
	return &Result{Success: false, Message: fmt.Sprintf(format, args...)}
}

// With attaches an extra field to the result and returns it.
func (r *Result) With(key string, value any) *Result {
	if r.Data == nil {
		r.Data = make(map[string]any)
	}
	r.Data[key] = value
	return r
}

// Canonical lowercases an action name and resolves historical aliases to
// the single name the registry knows.
func Canonical(action string) string {
	a := strings.ToLower(strings.TrimSpace(action))
	a = strings.ReplaceAll(a, " ", "_")
	if c, ok := aliases[a]; ok {
		return c
	}
	return a
}
