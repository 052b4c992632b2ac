package observability

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRelayStats_Snapshot_Reflects_Counters(t *testing.T) {
	req := require.New(t)
	stats := NewRelayStats(slog.New(slog.NewTextHandler(io.Discard, nil)))

	stats.ConnectionOpened()
	stats.ConnectionOpened()
	stats.ConnectionClosed()
	stats.IncrForwarded()
	stats.IncrDropped()
	stats.IncrEchoes()
	stats.IncrEchoes()
	stats.IncrInvalidFrames()
	stats.IncrRejections()

	snap := stats.Snapshot()

	req.Equal(int64(1), snap.ActiveConnections)
	req.Equal(uint64(2), snap.TotalConnections)
	req.Equal(uint64(1), snap.MessagesForwarded)
	req.Equal(uint64(1), snap.MessagesDropped)
	req.Equal(uint64(2), snap.EchoesSent)
	req.Equal(uint64(1), snap.InvalidFrames)
	req.Equal(uint64(1), snap.HandshakesRejected)
	req.GreaterOrEqual(snap.UptimeSeconds, 0.0)
}
