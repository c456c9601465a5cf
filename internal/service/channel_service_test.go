package service

import (
	"context"
	"strings"
	"testing"

	"github.com/molla202/broadcast-service/internal/errs"
	"github.com/molla202/broadcast-service/internal/model"
	"github.com/molla202/broadcast-service/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newChannelService(t *testing.T) (*ChannelService, *store.MemoryChannelStore) {
	t.Helper()
	channels := store.NewMemoryChannelStore()
	return NewChannelService(channels, "rtmp://ingest.local:1935", 3600, zap.NewNop()), channels
}

func TestChannelCreate_GeneratesKeysAndURLs(t *testing.T) {
	svc, _ := newChannelService(t)

	ch, err := svc.Create(context.Background(), model.CreateChannelRequest{
		Name:         "demo",
		MediaSpaceID: "sp-1",
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ch.BroadcastStreamKey, "bk_"))
	require.True(t, strings.HasPrefix(ch.LiveFeedStreamKey, "lk_"))
	require.NotEqual(t, ch.BroadcastStreamKey, ch.LiveFeedStreamKey)
	require.Equal(t, "rtmp://ingest.local:1935/sp-1/broadcast", ch.BroadcastURL)
	require.Equal(t, "rtmp://ingest.local:1935/sp-1/live_feed", ch.LiveFeedURL)
	require.Equal(t, string(model.ModeEnded), ch.Mode)
	require.Equal(t, 3600, ch.SlotLength)
}

func TestChannelCreate_ExplicitSlotLengthWins(t *testing.T) {
	svc, _ := newChannelService(t)

	ch, err := svc.Create(context.Background(), model.CreateChannelRequest{
		Name:         "demo",
		MediaSpaceID: "sp-1",
		SlotLength:   1800,
	})
	require.NoError(t, err)
	require.Equal(t, 1800, ch.SlotLength)
}

func TestAddConnectedChannel_DuplicateRejected(t *testing.T) {
	svc, _ := newChannelService(t)
	ctx := context.Background()
	ch, err := svc.Create(ctx, model.CreateChannelRequest{Name: "demo", MediaSpaceID: "sp-1"})
	require.NoError(t, err)

	req := model.AddConnectedChannelRequest{
		PlatformChannelID: "pc-1",
		Platform:          "omniflix",
		AccessToken:       "at",
	}
	_, err = svc.AddConnectedChannel(ctx, ch.ID, req)
	require.NoError(t, err)

	_, err = svc.AddConnectedChannel(ctx, ch.ID, req)
	require.ErrorIs(t, err, errs.ErrConnectedChannelExists)
}

func TestSetLiveText_Persisted(t *testing.T) {
	svc, channels := newChannelService(t)
	ctx := context.Background()
	ch, err := svc.Create(ctx, model.CreateChannelRequest{Name: "demo", MediaSpaceID: "sp-1"})
	require.NoError(t, err)

	require.NoError(t, svc.SetLiveText(ctx, ch.ID, "breaking news"))

	got, err := channels.Get(ctx, ch.ID)
	require.NoError(t, err)
	require.Equal(t, "breaking news", got.LiveText)

	require.ErrorIs(t, svc.SetLiveText(ctx, "missing", "x"), errs.ErrChannelNotFound)
}
