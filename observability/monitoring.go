package observability

import (
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Counts is the pairing core occupancy at one instant.
type Counts struct {
	OnlineUsers    int `json:"online_users"`
	QueueLength    int `json:"queue_length"`
	ActivePairings int `json:"active_pairings"`
}

// MonitoringStats is what /healthz reports.
type MonitoringStats struct {
	Counts
	Pid        int32     `json:"pid"`
	PidStatus  string    `json:"pid_status"`
	CPUPercent float64   `json:"cpu_percent"`
	RSSBytes   uint64    `json:"rss_bytes"`
	AllocMemMb uint64    `json:"alloc_mem_mb"`
	NumGC      uint32    `json:"num_gc"`
	Goroutines int       `json:"goroutines"`
	StartedAt  time.Time `json:"started_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MonitoringManager keeps the latest process and occupancy snapshot.
type MonitoringManager struct {
	log       *slog.Logger
	mu        sync.RWMutex
	latest    MonitoringStats
	process   *process.Process
	metrics   *Metrics
	startedAt time.Time
}

// NewMonitoringManager inspects the current process. metrics may be nil.
func NewMonitoringManager(log *slog.Logger, metrics *Metrics) (*MonitoringManager, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &MonitoringManager{
		log:       log,
		process:   p,
		metrics:   metrics,
		startedAt: now,
		latest:    MonitoringStats{Pid: p.Pid, StartedAt: now, UpdatedAt: now},
	}, nil
}

// Refresh samples the process and records counts.
func (mm *MonitoringManager) Refresh(counts Counts) MonitoringStats {
	stats := MonitoringStats{
		Counts:    counts,
		Pid:       mm.process.Pid,
		StartedAt: mm.startedAt,
		UpdatedAt: time.Now().UTC(),
	}

	rss, cpu, status, err := selfStats(mm.process)
	if err != nil {
		mm.log.Warn("Failed to collect self stats", "error", err)
	} else {
		stats.RSSBytes, stats.CPUPercent, stats.PidStatus = rss, cpu, status
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	stats.AllocMemMb = m.Alloc / 1024 / 1024
	stats.NumGC = m.NumGC
	stats.Goroutines = runtime.NumGoroutine()

	if mm.metrics != nil {
		mm.metrics.OnlineUsers.Set(float64(counts.OnlineUsers))
		mm.metrics.QueueLength.Set(float64(counts.QueueLength))
		mm.metrics.ActivePairings.Set(float64(counts.ActivePairings))
		mm.metrics.ProcessRSSBytes.Set(float64(stats.RSSBytes))
		mm.metrics.ProcessCPUPercent.Set(stats.CPUPercent)
	}

	mm.mu.Lock()
	mm.latest = stats
	mm.mu.Unlock()
	return stats
}

func (mm *MonitoringManager) GetLatest() MonitoringStats {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.latest
}

// selfStats retrieves memory, CPU and OS status of the given process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}
	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
