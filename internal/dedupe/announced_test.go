package dedupe_test

import (
	"testing"
	"time"

	"github.com/DeafMist/amendment-radar/internal/dedupe"
	"github.com/stretchr/testify/require"
)

func TestAnnouncedMarksBills(t *testing.T) {
	set := dedupe.NewAnnounced(10, time.Hour)
	require.False(t, set.Has("HJRES 1"))

	set.Mark("HJRES 1")
	require.True(t, set.Has("HJRES 1"))
	require.Equal(t, 1, set.Len())
}

func TestAnnouncedTTLExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	set := dedupe.NewAnnounced(10, time.Hour)
	set.SetClock(func() time.Time { return now })

	set.Mark("HJRES 1")
	now = now.Add(2 * time.Hour)
	require.False(t, set.Has("HJRES 1"))

	set.Mark("HJRES 2")
	require.Equal(t, 1, set.Len())
}

func TestAnnouncedCapacityEvictsOldest(t *testing.T) {
	set := dedupe.NewAnnounced(1, time.Hour)
	set.Mark("HJRES 1")
	set.Mark("HJRES 2")

	require.False(t, set.Has("HJRES 1"))
	require.True(t, set.Has("HJRES 2"))
}

func TestAnnouncedRemarkKeepsNewest(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	set := dedupe.NewAnnounced(2, time.Hour)
	set.SetClock(func() time.Time { return now })

	set.Mark("HJRES 1")
	now = now.Add(time.Minute)
	set.Mark("HJRES 1")
	now = now.Add(time.Minute)
	set.Mark("HJRES 2")

	require.True(t, set.Has("HJRES 1"))
	require.True(t, set.Has("HJRES 2"))
}

func TestAnnouncedRemarkExtendsTTL(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	set := dedupe.NewAnnounced(10, time.Hour)
	set.SetClock(func() time.Time { return now })

	set.Mark("HJRES 1")
	for i := 0; i < 5; i++ {
		now = now.Add(45 * time.Minute)
		require.True(t, set.Has("HJRES 1"))
		set.Mark("HJRES 1")
	}
	require.Equal(t, 1, set.Len())
	require.Equal(t, 1, set.Queued())
}
