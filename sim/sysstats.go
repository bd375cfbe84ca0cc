package sim

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/process"
)

// SysStats gathers process and Go runtime counters for the monitoring
// endpoint.
type SysStats struct{}

// Collect returns a snapshot of process and runtime counters.
func (s *SysStats) Collect() (map[string]int64, error) {
	stats := make(map[string]int64)
	m := &runtime.MemStats{}
	runtime.ReadMemStats(m)

	// Process metrics
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	if val, err := proc.Percent(0); err == nil {
		stats["process.cpu_permil"] = int64(val * 1000)
	}
	if val, err := proc.MemoryInfo(); err == nil {
		stats["process.rss"] = int64(val.RSS)
		stats["process.vms"] = int64(val.VMS)
	}
	if val, err := proc.NumFDs(); err == nil {
		stats["process.num_fds"] = int64(val)
	}
	if val, err := proc.NumThreads(); err == nil {
		stats["process.num_threads"] = int64(val)
	}

	// Go Runtime metrics
	stats["runtime.cpu.goroutines"] = int64(runtime.NumGoroutine())
	stats["runtime.mem.heap.alloc"] = int64(m.HeapAlloc)
	stats["runtime.mem.heap.sys"] = int64(m.HeapSys)
	stats["runtime.mem.heap.objects"] = int64(m.HeapObjects)
	stats["runtime.mem.gc.count"] = int64(m.NumGC)
	stats["runtime.mem.gc.pause_total"] = int64(m.PauseTotalNs)

	return stats, nil
}
