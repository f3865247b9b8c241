package interpreter

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nadzzz/deskpilot/internal/command"
	"github.com/nadzzz/deskpilot/internal/metrics"
)

// Cached remembers successful interpretations keyed on normalized text.
// Error commands are never stored, so a failed request is retried next time.
type Cached struct {
	next  Interpreter
	cache *lru.Cache[string, *command.Command]
}

// NewCached wraps next with an LRU of the given size.
func NewCached(next Interpreter, size int) (*Cached, error) {
	c, err := lru.New[string, *command.Command](size)
	if err != nil {
		return nil, err
	}
	return &Cached{next: next, cache: c}, nil
}

// Name returns the wrapped backend's name.
func (c *Cached) Name() string { return c.next.Name() }

// Unwrap returns the wrapped interpreter.
func (c *Cached) Unwrap() Interpreter { return c.next }

// Interpret serves repeated text from the cache.
func (c *Cached) Interpret(ctx context.Context, text string) *command.Command {
	key := cacheKey(text)
	if cmd, ok := c.cache.Get(key); ok {
		metrics.InterpretCache.WithLabelValues("hit").Inc()
		return clone(cmd)
	}
	metrics.InterpretCache.WithLabelValues("miss").Inc()

	cmd := c.next.Interpret(ctx, text)
	if cmd != nil && !cmd.IsError() {
		c.cache.Add(key, clone(cmd))
	}
	return cmd
}

// Suggest is never cached.
func (c *Cached) Suggest(ctx context.Context, text string) string {
	return c.next.Suggest(ctx, text)
}

// Len returns the number of cached commands.
func (c *Cached) Len() int { return c.cache.Len() }

// Close purges the cache and closes the wrapped interpreter.
func (c *Cached) Close() error {
	c.cache.Purge()
	return c.next.Close()
}

func cacheKey(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// clone copies the command so callers cannot mutate a cached entry.
func clone(cmd *command.Command) *command.Command {
	cp := *cmd
	cp.Parameters = cloneParams(cmd.Parameters)
	if cmd.Steps != nil {
		cp.Steps = make([]command.Step, len(cmd.Steps))
		for i, s := range cmd.Steps {
			cp.Steps[i] = command.Step{Action: s.Action, Parameters: cloneParams(s.Parameters)}
		}
	}
	return &cp
}

func cloneParams(p command.Params) command.Params {
	if p == nil {
		return nil
	}
	out := make(command.Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
