// Package sysmon samples host resource usage through gopsutil.
package sysmon

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

const gib = 1 << 30

// CPU is processor usage over the sampling interval.
type CPU struct {
	Percent float64 `json:"percent"`
	Cores   int     `json:"cores"`
	Status  string  `json:"status"`
}

// Memory is virtual memory usage.
type Memory struct {
	Total     uint64  `json:"total"`
	Used      uint64  `json:"used"`
	Available uint64  `json:"available"`
	Percent   float64 `json:"percent"`
	Status    string  `json:"status"`
}

// Disk is usage of the filesystem holding Path.
type Disk struct {
	Path    string  `json:"path"`
	Total   uint64  `json:"total"`
	Used    uint64  `json:"used"`
	Free    uint64  `json:"free"`
	Percent float64 `json:"percent"`
	Status  string  `json:"status"`
}

// Process is one entry of the heavy-apps list.
type Process struct {
	PID        int32   `json:"pid"`
	Name       string  `json:"name"`
	MemoryMB   float64 `json:"memory_mb"`
	CPUPercent float64 `json:"cpu_percent"`
}

// Snapshot is a full system report.
type Snapshot struct {
	Time      time.Time     `json:"time"`
	Hostname  string        `json:"hostname"`
	Platform  string        `json:"platform"`
	Uptime    time.Duration `json:"uptime"`
	CPU       CPU           `json:"cpu"`
	Memory    Memory        `json:"memory"`
	Disk      Disk          `json:"disk"`
	NetSentMB float64       `json:"net_sent_mb"`
	NetRecvMB float64       `json:"net_recv_mb"`
}

// Monitor reads system statistics.
type Monitor struct {
	// Interval is the CPU sampling window.
	Interval time.Duration
	// DiskPath is the default filesystem for disk checks.
	DiskPath string
}

// New returns a monitor with a one second CPU window on the root filesystem.
func New() *Monitor {
	root := "/"
	if runtime.GOOS == "windows" {
		root = `C:\`
	}
	return &Monitor{Interval: time.Second, DiskPath: root}
}

// CPU samples processor usage.
func (m *Monitor) CPU(ctx context.Context) (CPU, error) {
	pct, err := cpu.PercentWithContext(ctx, m.Interval, false)
	if err != nil {
		return CPU{}, fmt.Errorf("cpu percent: %w", err)
	}
	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return CPU{}, fmt.Errorf("cpu count: %w", err)
	}
	var p float64
	if len(pct) > 0 {
		p = pct[0]
	}
	return CPU{Percent: p, Cores: cores, Status: cpuStatus(p)}, nil
}

// Memory reads virtual memory usage.
func (m *Monitor) Memory(ctx context.Context) (Memory, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Memory{}, fmt.Errorf("virtual memory: %w", err)
	}
	return Memory{
		Total:     vm.Total,
		Used:      vm.Used,
		Available: vm.Available,
		Percent:   vm.UsedPercent,
		Status:    usageStatus(vm.UsedPercent),
	}, nil
}

// Disk reads usage for path, or the default path when empty.
func (m *Monitor) Disk(ctx context.Context, path string) (Disk, error) {
	if path == "" {
		path = m.DiskPath
	}
	u, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return Disk{}, fmt.Errorf("disk usage %s: %w", path, err)
	}
	return Disk{
		Path:    u.Path,
		Total:   u.Total,
		Used:    u.Used,
		Free:    u.Free,
		Percent: u.UsedPercent,
		Status:  usageStatus(u.UsedPercent),
	}, nil
}

// Snapshot collects a full report.
func (m *Monitor) Snapshot(ctx context.Context) (*Snapshot, error) {
	c, err := m.CPU(ctx)
	if err != nil {
		return nil, err
	}
	vm, err := m.Memory(ctx)
	if err != nil {
		return nil, err
	}
	d, err := m.Disk(ctx, "")
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Time: time.Now(), CPU: c, Memory: vm, Disk: d}

	if info, err := host.InfoWithContext(ctx); err == nil {
		snap.Hostname = info.Hostname
		snap.Platform = strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
		snap.Uptime = time.Duration(info.Uptime) * time.Second
	}
	if io, err := net.IOCountersWithContext(ctx, false); err == nil && len(io) > 0 {
		snap.NetSentMB = float64(io[0].BytesSent) / (1 << 20)
		snap.NetRecvMB = float64(io[0].BytesRecv) / (1 << 20)
	}
	return snap, nil
}

// TopProcesses returns the limit processes using the most memory.
// Processes that vanish or deny access while being read are skipped.
func (m *Monitor) TopProcesses(ctx context.Context, limit int) ([]Process, error) {
	if limit <= 0 {
		limit = 5
	}
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}
	out := make([]Process, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		mi, err := p.MemoryInfoWithContext(ctx)
		if err != nil || mi == nil {
			continue
		}
		cpuPct, _ := p.CPUPercentWithContext(ctx)
		out = append(out, Process{
			PID:        p.Pid,
			Name:       name,
			MemoryMB:   float64(mi.RSS) / (1 << 20),
			CPUPercent: cpuPct,
		})
	}
	return topByMemory(out, limit), nil
}

func topByMemory(ps []Process, limit int) []Process {
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].MemoryMB > ps[j].MemoryMB })
	if len(ps) > limit {
		ps = ps[:limit]
	}
	return ps
}

func cpuStatus(p float64) string {
	switch {
	case p > 80:
		return "High"
	case p > 50:
		return "Normal"
	default:
		return "Low"
	}
}

func usageStatus(p float64) string {
	switch {
	case p > 90:
		return "Critical"
	case p > 70:
		return "High"
	default:
		return "Normal"
	}
}

// GB formats a byte count in gibibytes.
func GB(b uint64) string {
	return fmt.Sprintf("%.2f GB", float64(b)/gib)
}

// Report renders a snapshot as a human-readable block.
func (s *Snapshot) Report() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "System report for %s (%s)\n", s.Hostname, s.Platform)
	fmt.Fprintf(&sb, "CPU:     %.1f%% of %d cores (%s)\n", s.CPU.Percent, s.CPU.Cores, s.CPU.Status)
	fmt.Fprintf(&sb, "Memory:  %s / %s (%.1f%%, %s)\n", GB(s.Memory.Used), GB(s.Memory.Total), s.Memory.Percent, s.Memory.Status)
	fmt.Fprintf(&sb, "Disk:    %s free of %s on %s (%.1f%% used, %s)\n", GB(s.Disk.Free), GB(s.Disk.Total), s.Disk.Path, s.Disk.Percent, s.Disk.Status)
	fmt.Fprintf(&sb, "Network: %.1f MB sent, %.1f MB received\n", s.NetSentMB, s.NetRecvMB)
	fmt.Fprintf(&sb, "Uptime:  %s", FormatUptime(s.Uptime))
	return sb.String()
}

// FormatUptime renders a duration as "2d 3h 4m".
func FormatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60
	return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
}
