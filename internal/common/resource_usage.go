package common

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceUsage represents current process and system resource usage
type ResourceUsage struct {
	AllocMB          int64   // Currently allocated memory by application
	SysMB            int64   // System memory used by Go runtime
	Goroutines       int     // Number of goroutines
	GCCount          int64   // Number of GC cycles
	SystemMemUsedMB  int64   // System memory used (MB)
	SystemMemTotalMB int64   // Total system memory (MB)
	SystemMemPercent float64 // System memory used percentage
}

// GetResourceUsage captures a snapshot of runtime and system memory usage.
// System-level figures are best effort; a probe failure leaves them zero.
func GetResourceUsage() ResourceUsage {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	usage := ResourceUsage{
		AllocMB:    int64(memStats.Alloc / 1024 / 1024),
		SysMB:      int64(memStats.Sys / 1024 / 1024),
		Goroutines: runtime.NumGoroutine(),
		GCCount:    int64(memStats.NumGC),
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		usage.SystemMemUsedMB = int64(vmStat.Used / 1024 / 1024)
		usage.SystemMemTotalMB = int64(vmStat.Total / 1024 / 1024)
		usage.SystemMemPercent = vmStat.UsedPercent
	}

	return usage
}
