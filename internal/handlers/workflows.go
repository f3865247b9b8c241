package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nadzzz/deskpilot/internal/command"
	"github.com/nadzzz/deskpilot/internal/registry"
)

// maxWorkflowDepth bounds workflows that load other workflows.
const maxWorkflowDepth = 4

type saveWorkflowParams struct {
	Name        string         `mapstructure:"name"`
	Description string         `mapstructure:"description"`
	Steps       []command.Step `mapstructure:"steps"`
}

func (p *saveWorkflowParams) Validate() error {
	if err := registry.Require("name", p.Name); err != nil {
		return err
	}
	if len(p.Steps) == 0 {
		return registry.Require("steps", "")
	}
	return nil
}

type depthKey struct{}

func (h *handlers) registerWorkflows(b *registry.Builder) {
	b.Handle(command.SaveWorkflow, registry.Typed(h.saveWorkflow)).
		Handle(command.LoadWorkflow, registry.Typed(h.loadWorkflow)).
		Handle(command.ListWorkflows, h.listWorkflows).
		Handle(command.DeleteWorkflow, registry.Typed(h.deleteWorkflow))
}

func (h *handlers) workflowsAvailable() error {
	if h.Workflows == nil {
		return fmt.Errorf("workflows: %w", ErrUnavailable)
	}
	return nil
}

func (h *handlers) saveWorkflow(_ context.Context, p saveWorkflowParams) (*command.Result, error) {
	if err := h.workflowsAvailable(); err != nil {
		return nil, err
	}
	for i := range p.Steps {
		p.Steps[i].Action = command.Canonical(p.Steps[i].Action)
	}
	t, err := h.Workflows.Save(p.Name, p.Description, p.Steps)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", registry.ErrInvalidParams, err)
	}
	return command.OK("Workflow %s saved with %d steps", t.Name, len(t.Steps)).With("workflow", t), nil
}

// loadWorkflow runs a saved template through the registry that invoked it.
func (h *handlers) loadWorkflow(ctx context.Context, p nameParams) (*command.Result, error) {
	if err := h.workflowsAvailable(); err != nil {
		return nil, err
	}
	depth, _ := ctx.Value(depthKey{}).(int)
	if depth >= maxWorkflowDepth {
		return nil, errors.New("workflows nested too deeply")
	}
	runner, ok := registry.RunnerFrom(ctx)
	if !ok {
		return nil, errors.New("no runner in context")
	}
	t, err := h.Workflows.Load(p.Name)
	if err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, depthKey{}, depth+1)
	res := runner.Execute(ctx, &command.Command{Action: command.LoadWorkflow, Steps: t.Steps})
	res.Message = fmt.Sprintf("Workflow %s: %s", t.Name, res.Message)
	return res.With("usage_count", t.UsageCount), nil
}

func (h *handlers) listWorkflows(_ context.Context, _ command.Params) (*command.Result, error) {
	if err := h.workflowsAvailable(); err != nil {
		return nil, err
	}
	list := h.Workflows.List()
	if len(list) == 0 {
		return command.OK("No workflows saved").With("workflows", list), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d workflows:", len(list))
	for _, w := range list {
		fmt.Fprintf(&sb, "\n  %s: %d steps, used %d times", w.Name, w.StepsCount, w.UsageCount)
		if w.Description != "" {
			fmt.Fprintf(&sb, " (%s)", w.Description)
		}
	}
	return command.OK("%s", sb.String()).With("workflows", list), nil
}

func (h *handlers) deleteWorkflow(_ context.Context, p nameParams) (*command.Result, error) {
	if err := h.workflowsAvailable(); err != nil {
		return nil, err
	}
	if err := h.Workflows.Delete(p.Name); err != nil {
		return nil, err
	}
	return command.OK("Workflow %s deleted", p.Name), nil
}
