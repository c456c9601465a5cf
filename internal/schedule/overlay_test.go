package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSchedule_RepeatCountCapsAdditionalOccurrences(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	windowEnd := start.Add(1000 * time.Second)

	pts := Schedule(start, 300*time.Second, 2, windowEnd)
	require.Equal(t, []time.Time{
		start,
		start.Add(300 * time.Second),
		start.Add(600 * time.Second),
	}, pts)
}

func TestSchedule_UnboundedFillsWindow(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	windowEnd := start.Add(1000 * time.Second)

	pts := Schedule(start, 300*time.Second, 0, windowEnd)
	// 12:00, +300, +600, +900; +1200 is past the window.
	require.Len(t, pts, 4)
	require.Equal(t, start.Add(900*time.Second), pts[3])
}

func TestSchedule_NextExactlyAtWindowEndIsExcluded(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	windowEnd := start.Add(600 * time.Second)

	pts := Schedule(start, 300*time.Second, 0, windowEnd)
	require.Equal(t, []time.Time{start, start.Add(300 * time.Second)}, pts)
}

func TestSchedule_ZeroIntervalYieldsSinglePTS(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	pts := Schedule(start, 0, 5, start.Add(time.Hour))
	require.Equal(t, []time.Time{start}, pts)

	pts = Schedule(start, -time.Second, 0, start.Add(time.Hour))
	require.Equal(t, []time.Time{start}, pts)
}

func TestSchedule_StartAfterWindowEndStillEmitsStart(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	pts := Schedule(start, 300*time.Second, 0, start.Add(-time.Minute))
	require.Equal(t, []time.Time{start}, pts)
}
