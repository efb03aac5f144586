package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/aretw0/toolserve/pkg/domain"
	"github.com/aretw0/toolserve/pkg/schema"
)

// DefaultSampleInterval is how long CPU usage is sampled for.
const DefaultSampleInterval = time.Second

const gib = 1 << 30

// SystemSnapshot is one reading of host resources.
type SystemSnapshot struct {
	OS           string
	Release      string
	LogicalCores int
	CPUPercent   float64
	TotalRAM     uint64
	AvailableRAM uint64
	RAMPercent   float64
	DiskTotal    uint64
	DiskUsed     uint64
	DiskFree     uint64
}

// SystemProbe takes a snapshot of the host.
type SystemProbe func(ctx context.Context) (SystemSnapshot, error)

// HostProbe reads the host through gopsutil. The call blocks for the CPU
// sampling interval.
func HostProbe(interval time.Duration) SystemProbe {
	return func(ctx context.Context) (SystemSnapshot, error) {
		var s SystemSnapshot

		vm, err := mem.VirtualMemoryWithContext(ctx)
		if err != nil {
			return s, fmt.Errorf("memory: %w", err)
		}
		s.TotalRAM, s.AvailableRAM, s.RAMPercent = vm.Total, vm.Available, vm.UsedPercent

		if s.LogicalCores, err = cpu.CountsWithContext(ctx, true); err != nil {
			return s, fmt.Errorf("cpu count: %w", err)
		}
		pct, err := cpu.PercentWithContext(ctx, interval, false)
		if err != nil {
			return s, fmt.Errorf("cpu usage: %w", err)
		}
		if len(pct) > 0 {
			s.CPUPercent = pct[0]
		}

		du, err := disk.UsageWithContext(ctx, "/")
		if err != nil {
			return s, fmt.Errorf("disk: %w", err)
		}
		s.DiskTotal, s.DiskUsed, s.DiskFree = du.Total, du.Used, du.Free

		hi, err := host.InfoWithContext(ctx)
		if err != nil {
			return s, fmt.Errorf("host: %w", err)
		}
		s.OS, s.Release = osName(hi.OS), hi.KernelVersion
		return s, nil
	}
}

// Format renders the snapshot as the report get_system_info returns.
func (s SystemSnapshot) Format() string {
	var b strings.Builder
	b.WriteString("--- System Information ---\n")
	fmt.Fprintf(&b, "Operating System: %s (Release: %s)\n", s.OS, s.Release)
	fmt.Fprintf(&b, "CPU: %d logical cores\n", s.LogicalCores)
	fmt.Fprintf(&b, "CPU Usage: %.1f%%\n", s.CPUPercent)
	fmt.Fprintf(&b, "Total RAM: %.2f GB\n", toGB(s.TotalRAM))
	fmt.Fprintf(&b, "Available RAM: %.2f GB (%.1f%% used)\n", toGB(s.AvailableRAM), s.RAMPercent)
	fmt.Fprintf(&b, "Total Disk Space: %.2f GB\n", toGB(s.DiskTotal))
	fmt.Fprintf(&b, "Used Disk Space: %.2f GB\n", toGB(s.DiskUsed))
	fmt.Fprintf(&b, "Free Disk Space: %.2f GB", toGB(s.DiskFree))
	return b.String()
}

// SystemInfoDescriptor describes get_system_info().
func SystemInfoDescriptor() domain.Descriptor {
	return domain.NewDescriptor("get_system_info",
		"Retrieves basic hardware and operating system information: total and available RAM, CPU core count, CPU usage, disk usage and OS name.",
		domain.TypeText)
}

// SystemInfo builds the get_system_info handler around probe.
func SystemInfo(probe SystemProbe) func(context.Context, schema.Args) domain.Result {
	return func(ctx context.Context, _ schema.Args) domain.Result {
		snap, err := probe(ctx)
		if err != nil {
			return domain.Failuref("Error retrieving system info: %v", err)
		}
		return domain.Success(snap.Format())
	}
}

func toGB(b uint64) float64 { return float64(b) / gib }

func osName(goos string) string {
	switch goos {
	case "linux":
		return "Linux"
	case "darwin":
		return "Darwin"
	case "windows":
		return "Windows"
	case "freebsd":
		return "FreeBSD"
	default:
		return goos
	}
}
