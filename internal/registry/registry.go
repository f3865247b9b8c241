// Package registry maps canonical action names to handlers.
//
// A Registry is assembled once through a Builder and is read-only after
// Build, so it can be shared by every transport without locking.
// Dispatch returns typed errors; Execute is the outer boundary that turns
// any failure, including a handler panic, into an unsuccessful Result.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/nadzzz/deskpilot/internal/command"
)

// HandlerFunc implements one action.
type HandlerFunc func(ctx context.Context, params command.Params) (*command.Result, error)

// Validator is implemented by parameter structs that have required fields.
type Validator interface {
	Validate() error
}

// Typed adapts a handler taking a parameter struct P. The parameter map is
// decoded with weak typing, so "5" fills an int field and a single string
// fills a []string field.
func Typed[P any](fn func(ctx context.Context, p P) (*command.Result, error)) HandlerFunc {
	return func(ctx context.Context, params command.Params) (*command.Result, error) {
		var p P
		if err := Decode(params, &p); err != nil {
			return nil, err
		}
		if v, ok := any(&p).(Validator); ok {
			if err := v.Validate(); err != nil {
				if errors.Is(err, ErrInvalidParams) {
					return nil, err
				}
				return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
			}
		}
		return fn(ctx, p)
	}
}

// Decode fills out from a parameter map.
func Decode(params command.Params, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(params)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

// Builder collects handlers before the registry is frozen.
type Builder struct {
	handlers map[string]HandlerFunc
	dupes    []string
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{handlers: make(map[string]HandlerFunc)}
}

// Handle registers h under the canonical form of action.
func (b *Builder) Handle(action string, h HandlerFunc) *Builder {
	key := command.Canonical(action)
	if _, exists := b.handlers[key]; exists {
		b.dupes = append(b.dupes, key)
		return b
	}
	b.handlers[key] = h
	return b
}

// Build freezes the registry. Registering an action twice is an error.
func (b *Builder) Build() (*Registry, error) {
	if len(b.dupes) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateAction, strings.Join(b.dupes, ", "))
	}
	handlers := make(map[string]HandlerFunc, len(b.handlers))
	for k, v := range b.handlers {
		handlers[k] = v
	}
	return &Registry{handlers: handlers}, nil
}

// Registry is an immutable action table.
type Registry struct {
	handlers map[string]HandlerFunc
}

// Actions returns the registered action names, sorted.
func (r *Registry) Actions() []string {
	out := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Has reports whether an action (or one of its aliases) has a handler.
func (r *Registry) Has(action string) bool {
	_, ok := r.handlers[command.Canonical(action)]
	return ok
}

// Dispatch calls the handler for action. Handler failures come back as
// ErrInvalidParams or *HandlerError.
func (r *Registry) Dispatch(ctx context.Context, action string, params command.Params) (*command.Result, error) {
	key := command.Canonical(action)
	h, ok := r.handlers[key]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrUnknownAction, key)
	}
	if params == nil {
		params = command.Params{}
	}

	res, err := h(withRunner(ctx, r), params)
	if err != nil {
		var he *HandlerError
		if errors.Is(err, ErrInvalidParams) || errors.As(err, &he) {
			return nil, err
		}
		return nil, &HandlerError{Action: key, Err: err}
	}
	if res == nil {
		res = command.OK("%s done", key)
	}
	return res, nil
}

// Execute runs a command and always returns a Result.
func (r *Registry) Execute(ctx context.Context, cmd *command.Command) *command.Result {
	if cmd == nil {
		return command.Fail("empty command")
	}
	if cmd.IsError() {
		if cmd.Description == "" {
			return command.Fail("command could not be interpreted")
		}
		return command.Fail("%s", cmd.Description)
	}
	if len(cmd.Steps) > 0 {
		return r.runSteps(ctx, cmd.Steps)
	}
	return r.executeOne(ctx, cmd.Action, cmd.Parameters)
}

func (r *Registry) runSteps(ctx context.Context, steps []command.Step) *command.Result {
	results := make([]*command.Result, 0, len(steps))
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return command.Fail("workflow failed at step %d: %v", i+1, err).With("results", results)
		}
		res := r.executeOne(ctx, step.Action, step.Parameters)
		results = append(results, res)
		if !res.Success {
			return command.Fail("workflow failed at step %d: %s", i+1, res.Message).With("results", results)
		}
	}
	return command.OK("workflow completed: %d steps", len(steps)).With("results", results)
}

func (r *Registry) executeOne(ctx context.Context, action string, params command.Params) (res *command.Result) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("handler panicked", "action", action, "panic", p)
			res = command.Fail("handler %s panicked: %v", command.Canonical(action), p)
		}
	}()

	out, err := r.Dispatch(ctx, action, params)
	if err != nil {
		slog.Debug("handler failed", "action", action, "error", err)
		return command.Fail("%v", err)
	}
	return out
}

type runnerKey struct{}

// Runner executes nested commands from inside a handler.
type Runner interface {
	Execute(ctx context.Context, cmd *command.Command) *command.Result
}

func withRunner(ctx context.Context, r Runner) context.Context {
	return context.WithValue(ctx, runnerKey{}, r)
}

// RunnerFrom returns the registry that invoked the current handler.
func RunnerFrom(ctx context.Context) (Runner, bool) {
	r, ok := ctx.Value(runnerKey{}).(Runner)
	return r, ok
}
