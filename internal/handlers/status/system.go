package status

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStats describes the host the coordinator runs on
type SystemStats struct {
	NumGoroutine    int     `json:"num_goroutine"`
	Alloc           uint64  `json:"alloc_bytes"`
	TotalRAM        uint64  `json:"total_ram"`
	AvailableRAM    uint64  `json:"available_ram"`
	UsedRAMPercent  float64 `json:"used_ram_percent"`
	TotalCPUCores   int     `json:"total_cpu_cores"`
	CPUUsagePercent float64 `json:"cpu_usage_percent"`
}

// ReadSystemStats samples process and host figures. Host figures that cannot
// be read are left zero.
func ReadSystemStats(ctx context.Context) SystemStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := SystemStats{
		NumGoroutine:  runtime.NumGoroutine(),
		Alloc:         memStats.Alloc,
		TotalCPUCores: runtime.NumCPU(),
	}

	if vMem, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.TotalRAM = vMem.Total
		stats.AvailableRAM = vMem.Available
		stats.UsedRAMPercent = vMem.UsedPercent
	}
	// overall usage since the previous call
	if cpuPercent, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(cpuPercent) > 0 {
		stats.CPUUsagePercent = cpuPercent[0]
	}
	return stats
}
