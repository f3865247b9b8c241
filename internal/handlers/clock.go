package handlers

import (
	"context"

	"github.com/nadzzz/deskpilot/internal/command"
	"github.com/nadzzz/deskpilot/internal/registry"
)

func (h *handlers) registerClock(b *registry.Builder) {
	b.Handle(command.GetTime, func(context.Context, command.Params) (*command.Result, error) {
		now := h.now()
		return command.OK("It's %s", now.Format("3:04 PM")).With("time", now.Format("15:04")), nil
	}).Handle(command.GetDate, func(context.Context, command.Params) (*command.Result, error) {
		now := h.now()
		return command.OK("Today is %s", now.Format("Monday, January 2, 2006")).With("date", now.Format("2006-01-02")), nil
	})
}
