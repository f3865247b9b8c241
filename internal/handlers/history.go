package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/nadzzz/deskpilot/internal/command"
	"github.com/nadzzz/deskpilot/internal/registry"
)

func (h *handlers) registerHistory(b *registry.Builder) {
	b.Handle(command.ShowHistory, registry.Typed(h.showHistory)).
		Handle(command.ShowStatistics, h.showStatistics)
}

func (h *handlers) historyAvailable() error {
	if h.History == nil {
		return fmt.Errorf("history: %w", ErrUnavailable)
	}
	return nil
}

func (h *handlers) showHistory(ctx context.Context, p limitParams) (*command.Result, error) {
	if err := h.historyAvailable(); err != nil {
		return nil, err
	}
	entries, err := h.History.Recent(ctx, p.or(10, 100))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return command.OK("No commands recorded yet").With("history", entries), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Last %d commands:", len(entries))
	for _, e := range entries {
		mark := "ok"
		if !e.Success {
			mark = "failed"
		}
		fmt.Fprintf(&sb, "\n  %s  %-16s %-6s %s", e.Time.Format("Jan 02 15:04"), e.Action, mark, e.Text)
	}
	return command.OK("%s", sb.String()).With("history", entries), nil
}

func (h *handlers) showStatistics(ctx context.Context, _ command.Params) (*command.Result, error) {
	if err := h.historyAvailable(); err != nil {
		return nil, err
	}
	s, err := h.History.Stats(ctx, 5)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Total commands: %d\nSuccessful: %d\nFailed: %d\nSuccess rate: %.1f%%",
		s.Total, s.Successful, s.Failed, s.SuccessRate)
	if len(s.TopActions) > 0 {
		sb.WriteString("\nTop actions:")
		for _, a := range s.TopActions {
			fmt.Fprintf(&sb, "\n  %s: %d", a.Action, a.Count)
		}
	}
	return command.OK("%s", sb.String()).With("statistics", s), nil
}
