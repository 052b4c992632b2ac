package observability

import (
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// RelaySnapshot aggregates relay metrics for the debug endpoint.
type RelaySnapshot struct {
	ActiveConnections  int64   `json:"active_connections"`
	TotalConnections   uint64  `json:"total_connections"`
	HandshakesRejected uint64  `json:"handshakes_rejected"`
	MessagesForwarded  uint64  `json:"messages_forwarded"`
	MessagesDropped    uint64  `json:"messages_dropped"`
	EchoesSent         uint64  `json:"echoes_sent"`
	InvalidFrames      uint64  `json:"invalid_frames"`
	UptimeSeconds      float64 `json:"uptime_seconds"`

	// --- SYSTEM METRICS ---
	RSSBytes   uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
	PidStatus  string  `json:"pid_status"`
}

// RelayStats collects telemetry for the relay in real time. Counters
// are atomic so every connection goroutine can bump them without
// coordination.
type RelayStats struct {
	log       *slog.Logger
	startedAt time.Time

	activeConnections  int64
	totalConnections   uint64
	handshakesRejected uint64
	messagesForwarded  uint64
	messagesDropped    uint64
	echoesSent         uint64
	invalidFrames      uint64
}

func NewRelayStats(log *slog.Logger) *RelayStats {
	return &RelayStats{
		log:       log,
		startedAt: time.Now(),
	}
}

func (rs *RelayStats) ConnectionOpened() {
	atomic.AddInt64(&rs.activeConnections, 1)
	atomic.AddUint64(&rs.totalConnections, 1)
}

func (rs *RelayStats) ConnectionClosed() {
	atomic.AddInt64(&rs.activeConnections, -1)
}

func (rs *RelayStats) IncrRejections() {
	atomic.AddUint64(&rs.handshakesRejected, 1)
}

func (rs *RelayStats) IncrForwarded() {
	atomic.AddUint64(&rs.messagesForwarded, 1)
}

func (rs *RelayStats) IncrDropped() {
	atomic.AddUint64(&rs.messagesDropped, 1)
}

func (rs *RelayStats) IncrEchoes() {
	atomic.AddUint64(&rs.echoesSent, 1)
}

func (rs *RelayStats) IncrInvalidFrames() {
	atomic.AddUint64(&rs.invalidFrames, 1)
}

// Snapshot returns the current counters together with self process
// metrics (Memory, CPU, and OS status). Process metrics are best
// effort: a collection failure is logged and leaves those fields zero.
func (rs *RelayStats) Snapshot() RelaySnapshot {
	snap := RelaySnapshot{
		ActiveConnections:  atomic.LoadInt64(&rs.activeConnections),
		TotalConnections:   atomic.LoadUint64(&rs.totalConnections),
		HandshakesRejected: atomic.LoadUint64(&rs.handshakesRejected),
		MessagesForwarded:  atomic.LoadUint64(&rs.messagesForwarded),
		MessagesDropped:    atomic.LoadUint64(&rs.messagesDropped),
		EchoesSent:         atomic.LoadUint64(&rs.echoesSent),
		InvalidFrames:      atomic.LoadUint64(&rs.invalidFrames),
		UptimeSeconds:      time.Since(rs.startedAt).Seconds(),
	}

	rss, cpu, status, err := selfStats()
	if err != nil {
		rs.log.Warn("Failed to collect self stats", "err", err)
		return snap
	}
	snap.RSSBytes = rss
	snap.CPUPercent = cpu
	snap.PidStatus = status
	return snap
}

// selfStats retrieves technical metrics for the running process.
func selfStats() (uint64, float64, string, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, 0, "", err
	}

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
