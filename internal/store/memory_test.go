package store

import (
	"context"
	"testing"
	"time"

	"github.com/molla202/broadcast-service/internal/errs"
	"github.com/molla202/broadcast-service/internal/model"
	"github.com/stretchr/testify/require"
)

func TestMemorySlotStore_CurrentWindowBounds(t *testing.T) {
	s := NewMemorySlotStore()
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	slot := &model.Slot{ChannelID: "ch-1", Name: "s", StartAt: start, EndAt: start.Add(time.Hour)}
	require.NoError(t, s.Create(ctx, slot))

	got, err := s.Current(ctx, "ch-1", start)
	require.NoError(t, err)
	require.NotNil(t, got)

	// end_at is exclusive.
	got, err = s.Current(ctx, "ch-1", start.Add(time.Hour))
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = s.Current(ctx, "ch-1", start.Add(-time.Second))
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestMemorySlotStore_OverlappingWindowsViolateInvariant(t *testing.T) {
	s := NewMemorySlotStore()
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Create(ctx, &model.Slot{ChannelID: "ch-1", Name: "a", StartAt: start, EndAt: start.Add(time.Hour)}))
	require.NoError(t, s.Create(ctx, &model.Slot{ChannelID: "ch-1", Name: "b", StartAt: start.Add(30 * time.Minute), EndAt: start.Add(2 * time.Hour)}))

	_, err := s.Current(ctx, "ch-1", start.Add(45*time.Minute))
	require.ErrorIs(t, err, errs.ErrSlotInvariant)
}

func TestMemorySlotStore_MarkPushedAndSavePrograms(t *testing.T) {
	s := NewMemorySlotStore()
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	slot := &model.Slot{ChannelID: "ch-1", Name: "s", StartAt: start, EndAt: start.Add(time.Hour)}
	require.NoError(t, s.Create(ctx, slot))

	require.NoError(t, s.SavePrograms(ctx, []model.Program{
		{ChannelID: "ch-1", SlotID: slot.ID, StartAt: start, EndAt: start.Add(time.Minute), Source: "filler", AssetID: "f1", Generated: true},
	}))
	require.NoError(t, s.MarkPushed(ctx, slot.ID, start.Add(time.Second)))

	got, err := s.Current(ctx, "ch-1", start)
	require.NoError(t, err)
	require.NotNil(t, got.PushedAt)
	require.Len(t, got.Programs, 1)

	require.ErrorIs(t, s.MarkPushed(ctx, "nope", start), errs.ErrSlotNotFound)
}

func TestMemoryChannelStore_ReplaceDestinationsIsAtomicCopy(t *testing.T) {
	s := NewMemoryChannelStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, &model.Channel{ID: "ch-1", Name: "c", MediaSpaceID: "sp"}))

	dests := []model.Destination{{Kind: model.DestinationKindGeneric, Name: "yt", URL: "rtmp://a", Key: "k", Enabled: true}}
	require.NoError(t, s.ReplaceDestinations(ctx, "ch-1", dests))

	got, err := s.Get(ctx, "ch-1")
	require.NoError(t, err)
	require.Len(t, got.Destinations, 1)
	require.NotEmpty(t, got.Destinations[0].ID)
	require.Equal(t, "ch-1", got.Destinations[0].ChannelID)

	// Mutating the returned copy does not leak into the store.
	got.Destinations[0].Key = "changed"
	again, _ := s.Get(ctx, "ch-1")
	require.Equal(t, "k", again.Destinations[0].Key)

	require.ErrorIs(t, s.ReplaceDestinations(ctx, "nope", nil), errs.ErrChannelNotFound)
}
