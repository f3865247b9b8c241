package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/nadzzz/deskpilot/internal/command"
	"github.com/nadzzz/deskpilot/internal/registry"
)

type scheduleAppParams struct {
	Time string   `mapstructure:"time"`
	Apps []string `mapstructure:"apps"`
	// AppName lets a single-app request skip the list.
	AppName string `mapstructure:"app_name"`
}

func (p *scheduleAppParams) Validate() error {
	if err := registry.Require("time", p.Time); err != nil {
		return err
	}
	if len(p.Apps) == 0 && p.AppName == "" {
		return registry.Require("apps", "")
	}
	return nil
}

type idParams struct {
	ID string `mapstructure:"id"`
}

func (p *idParams) Validate() error { return registry.Require("id", p.ID) }

func (h *handlers) registerSchedules(b *registry.Builder) {
	b.Handle(command.ScheduleApp, registry.Typed(h.scheduleApp)).
		Handle(command.ListSchedules, h.listSchedules).
		Handle(command.CancelSchedule, registry.Typed(h.cancelSchedule))
}

func (h *handlers) schedulesAvailable() error {
	if h.Schedules == nil {
		return fmt.Errorf("scheduler: %w", ErrUnavailable)
	}
	return nil
}

func (h *handlers) scheduleApp(_ context.Context, p scheduleAppParams) (*command.Result, error) {
	if err := h.schedulesAvailable(); err != nil {
		return nil, err
	}
	apps := p.Apps
	if p.AppName != "" {
		apps = append(apps, p.AppName)
	}
	e, err := h.Schedules.Add(p.Time, apps)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", registry.ErrInvalidParams, err)
	}
	return command.OK("Scheduled %s daily at %s (id %s)", strings.Join(e.Apps, ", "), e.Time, e.ID).With("schedule", e), nil
}

func (h *handlers) listSchedules(_ context.Context, _ command.Params) (*command.Result, error) {
	if err := h.schedulesAvailable(); err != nil {
		return nil, err
	}
	list := h.Schedules.List()
	if len(list) == 0 {
		return command.OK("No scheduled launches").With("schedules", list), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d scheduled launches:", len(list))
	for _, e := range list {
		fmt.Fprintf(&sb, "\n  [%s] %s: %s", e.ID, e.Time, strings.Join(e.Apps, ", "))
	}
	return command.OK("%s", sb.String()).With("schedules", list), nil
}

func (h *handlers) cancelSchedule(_ context.Context, p idParams) (*command.Result, error) {
	if err := h.schedulesAvailable(); err != nil {
		return nil, err
	}
	if err := h.Schedules.Cancel(p.ID); err != nil {
		return nil, err
	}
	return command.OK("Schedule %s cancelled", p.ID), nil
}
