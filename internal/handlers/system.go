package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/nadzzz/deskpilot/internal/command"
	"github.com/nadzzz/deskpilot/internal/registry"
	"github.com/nadzzz/deskpilot/internal/sysmon"
)

type diskParams struct {
	Path string `mapstructure:"path"`
}

type limitParams struct {
	Limit int `mapstructure:"limit"`
}

func (p limitParams) or(def, max int) int {
	if p.Limit <= 0 {
		return def
	}
	if p.Limit > max {
		return max
	}
	return p.Limit
}

func (h *handlers) registerSystem(b *registry.Builder) {
	b.Handle(command.SystemReport, h.systemReport).
		Handle(command.CheckCPU, h.checkCPU).
		Handle(command.CheckMemory, h.checkMemory).
		Handle(command.CheckDisk, registry.Typed(h.checkDisk)).
		Handle(command.HeavyApps, registry.Typed(h.heavyApps))
}

func (h *handlers) monitor() (Monitor, error) {
	if h.Monitor == nil {
		return nil, fmt.Errorf("system monitor: %w", ErrUnavailable)
	}
	return h.Monitor, nil
}

func (h *handlers) systemReport(ctx context.Context, _ command.Params) (*command.Result, error) {
	m, err := h.monitor()
	if err != nil {
		return nil, err
	}
	snap, err := m.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return command.OK("%s", snap.Report()).With("report", snap), nil
}

func (h *handlers) checkCPU(ctx context.Context, _ command.Params) (*command.Result, error) {
	m, err := h.monitor()
	if err != nil {
		return nil, err
	}
	c, err := m.CPU(ctx)
	if err != nil {
		return nil, err
	}
	return command.OK("CPU usage: %.1f%% (%s)", c.Percent, c.Status).With("cpu", c), nil
}

func (h *handlers) checkMemory(ctx context.Context, _ command.Params) (*command.Result, error) {
	m, err := h.monitor()
	if err != nil {
		return nil, err
	}
	mem, err := m.Memory(ctx)
	if err != nil {
		return nil, err
	}
	return command.OK("Memory usage: %.1f%%, %s of %s (%s)",
		mem.Percent, sysmon.GB(mem.Used), sysmon.GB(mem.Total), mem.Status).With("memory", mem), nil
}

func (h *handlers) checkDisk(ctx context.Context, p diskParams) (*command.Result, error) {
	m, err := h.monitor()
	if err != nil {
		return nil, err
	}
	d, err := m.Disk(ctx, p.Path)
	if err != nil {
		return nil, err
	}
	return command.OK("Disk %s: %s free of %s, %.1f%% used (%s)",
		d.Path, sysmon.GB(d.Free), sysmon.GB(d.Total), d.Percent, d.Status).With("disk", d), nil
}

func (h *handlers) heavyApps(ctx context.Context, p limitParams) (*command.Result, error) {
	m, err := h.monitor()
	if err != nil {
		return nil, err
	}
	procs, err := m.TopProcesses(ctx, p.or(5, 50))
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Top %d processes by memory:", len(procs))
	for i, pr := range procs {
		fmt.Fprintf(&sb, "\n%d. %s (pid %d): %.1f MB, %.1f%% CPU", i+1, pr.Name, pr.PID, pr.MemoryMB, pr.CPUPercent)
	}
	return command.OK("%s", sb.String()).With("processes", procs), nil
}
