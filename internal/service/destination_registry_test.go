package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/molla202/broadcast-service/internal/errs"
	"github.com/molla202/broadcast-service/internal/model"
	"github.com/molla202/broadcast-service/internal/partner"
	"github.com/molla202/broadcast-service/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedUpdate struct {
	Platform string
	StreamID string
	Update   partner.StatusUpdate
}

type fakePartner struct {
	mu        sync.Mutex
	updates   []recordedUpdate
	updateErr error
	statuses  map[string]partner.Status // streamID -> remote status
	statusErr map[string]error          // streamID -> query error
	created   []partner.CreateRequest
	createErr error
	creates   int
	pushed    [][]partner.RelayDestination
	pushErr   error
}

func (f *fakePartner) CreateLiveStream(_ context.Context, req partner.CreateRequest) (partner.CreateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return partner.CreateResult{}, f.createErr
	}
	f.creates++
	f.created = append(f.created, req)
	return partner.CreateResult{
		StreamID:  "remote-" + req.ChannelID,
		StreamKey: "key-" + req.ChannelID,
	}, nil
}

func (f *fakePartner) UpdateStatus(_ context.Context, platform, streamID string, upd partner.StatusUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, recordedUpdate{Platform: platform, StreamID: streamID, Update: upd})
	return f.updateErr
}

func (f *fakePartner) GetStatus(_ context.Context, _, streamID, _ string) (partner.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.statusErr[streamID]; err != nil {
		return "", err
	}
	if st, ok := f.statuses[streamID]; ok {
		return st, nil
	}
	return partner.StatusLive, nil
}

func (f *fakePartner) PushDestinations(_ context.Context, _, _ string, dests []partner.RelayDestination) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, dests)
	return f.pushErr
}

func (f *fakePartner) updatesFor(streamID string) []partner.StatusUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []partner.StatusUpdate
	for _, u := range f.updates {
		if u.StreamID == streamID {
			out = append(out, u.Update)
		}
	}
	return out
}

func newRegistryFixture(t *testing.T, ch *model.Channel) (*DestinationRegistry, *store.MemoryChannelStore, *fakePartner) {
	t.Helper()
	channels := store.NewMemoryChannelStore()
	require.NoError(t, channels.Create(context.Background(), ch))
	fp := &fakePartner{}
	return NewDestinationRegistry(channels, fp, zap.NewNop()), channels, fp
}

func testChannel() *model.Channel {
	return &model.Channel{
		ID:                 "ch-1",
		Name:               "demo",
		MediaSpaceID:       "space-1",
		Mode:               string(model.ModeEnded),
		BroadcastState:     model.BroadcastStateStopped,
		SlotLength:         3600,
		BroadcastStreamKey: "bkey",
		LiveFeedStreamKey:  "lkey",
	}
}

func TestAddDestination_DuplicateRejected(t *testing.T) {
	reg, channels, _ := newRegistryFixture(t, testChannel())
	ctx := context.Background()
	req := model.AddDestinationRequest{
		Kind: model.DestinationKindGeneric,
		Name: "yt",
		URL:  "rtmp://a.example.com/live",
		Key:  "k1",
	}

	_, err := reg.Add(ctx, "ch-1", req)
	require.NoError(t, err)

	_, err = reg.Add(ctx, "ch-1", req)
	require.ErrorIs(t, err, errs.ErrDestinationExists)

	ch, err := channels.Get(ctx, "ch-1")
	require.NoError(t, err)
	require.Len(t, ch.Destinations, 1)
}

func TestAddDestination_DisabledEntryDoesNotBlock(t *testing.T) {
	ch := testChannel()
	ch.Destinations = []model.Destination{{
		ID:      "d1",
		Kind:    model.DestinationKindGeneric,
		Name:    "yt",
		URL:     "rtmp://a.example.com/live",
		Key:     "k1",
		Enabled: false,
	}}
	reg, channels, _ := newRegistryFixture(t, ch)

	_, err := reg.Add(context.Background(), "ch-1", model.AddDestinationRequest{
		Kind: model.DestinationKindGeneric,
		Name: "yt",
		URL:  "rtmp://a.example.com/live",
		Key:  "k1",
	})
	require.NoError(t, err)

	got, _ := channels.Get(context.Background(), "ch-1")
	require.Len(t, got.Destinations, 2)
}

func TestAddDestination_DefaultsToBroadcastType(t *testing.T) {
	reg, _, _ := newRegistryFixture(t, testChannel())

	dest, err := reg.Add(context.Background(), "ch-1", model.AddDestinationRequest{
		Kind: model.DestinationKindGeneric,
		Name: "yt",
		URL:  "rtmp://a.example.com/live",
		Key:  "k1",
	})
	require.NoError(t, err)
	require.Equal(t, model.DestinationTypeBroadcast, dest.Type)
	require.True(t, dest.Enabled)
}

func TestUpdate_PatchIntoDuplicateRejected(t *testing.T) {
	ch := testChannel()
	ch.Destinations = []model.Destination{
		{ID: "d1", Kind: model.DestinationKindGeneric, Name: "a", URL: "rtmp://x", Key: "k1", Enabled: true},
		{ID: "d2", Kind: model.DestinationKindGeneric, Name: "a", URL: "rtmp://x", Key: "k2", Enabled: true},
	}
	reg, _, _ := newRegistryFixture(t, ch)

	key := "k1"
	_, err := reg.Update(context.Background(), "ch-1", "d2", model.DestinationPatch{Key: &key})
	require.ErrorIs(t, err, errs.ErrDestinationExists)
}

func TestUpdate_UnknownDestination(t *testing.T) {
	reg, _, _ := newRegistryFixture(t, testChannel())
	enabled := false
	_, err := reg.Update(context.Background(), "ch-1", "nope", model.DestinationPatch{Enabled: &enabled})
	require.ErrorIs(t, err, errs.ErrDestinationNotFound)
}

func TestRemove_PartnerStoppedBestEffort(t *testing.T) {
	ch := testChannel()
	ch.Destinations = []model.Destination{{
		ID:       "d1",
		Kind:     model.DestinationKindPartner,
		Name:     "partner",
		Type:     model.DestinationTypeBroadcast,
		StreamID: "rs-1",
		Key:      "tok",
		Platform: "omniflix",
		Enabled:  true,
	}}
	reg, channels, fp := newRegistryFixture(t, ch)
	fp.updateErr = errors.New("remote down")

	// Removal succeeds even though the remote stop failed.
	require.NoError(t, reg.Remove(context.Background(), "ch-1", "d1"))

	upds := fp.updatesFor("rs-1")
	require.Len(t, upds, 1)
	require.Equal(t, partner.StatusPaused, upds[0].Status)

	got, _ := channels.Get(context.Background(), "ch-1")
	require.Empty(t, got.Destinations)
}

func syncChannel() *model.Channel {
	ch := testChannel()
	ch.PlaybackPath = "/pb/bkey1.m3u8"
	ch.Destinations = []model.Destination{
		{ID: "d1", Kind: model.DestinationKindPartner, Type: model.DestinationTypeLiveFeed,
			StreamID: "lf-1", Key: "t1", Platform: "omniflix", Enabled: true},
		{ID: "d2", Kind: model.DestinationKindPartner, Type: model.DestinationTypeBroadcast,
			StreamID: "bc-1", Key: "t2", Platform: "omniflix", Enabled: true},
		{ID: "d3", Kind: model.DestinationKindGeneric, Name: "yt",
			URL: "rtmp://a.example.com/live", Key: "gk", Enabled: true},
	}
	return ch
}

func TestSyncRemoteState_LiveFeedMode(t *testing.T) {
	ch := syncChannel()
	reg, _, fp := newRegistryFixture(t, ch)

	_, err := reg.SyncRemoteState(context.Background(), ch, true, 4500)
	require.NoError(t, err)

	lf := fp.updatesFor("lf-1")
	require.Len(t, lf, 1)
	require.Equal(t, partner.StatusLive, lf[0].Status)
	require.Equal(t, "space-1/bkey1", lf[0].ViewKey)
	require.Equal(t, 4500, lf[0].BitRate)

	bc := fp.updatesFor("bc-1")
	require.Len(t, bc, 1)
	require.Equal(t, partner.StatusPaused, bc[0].Status)
}

func TestSyncRemoteState_BroadcastModeRunning(t *testing.T) {
	ch := syncChannel()
	ch.BroadcastState = model.BroadcastStateRunning
	reg, _, fp := newRegistryFixture(t, ch)

	_, err := reg.SyncRemoteState(context.Background(), ch, false, 0)
	require.NoError(t, err)

	lf := fp.updatesFor("lf-1")
	require.Len(t, lf, 1)
	require.Equal(t, partner.StatusEnded, lf[0].Status)
	require.Equal(t, "/pb/bkey1.m3u8", lf[0].PlaybackPath)

	bc := fp.updatesFor("bc-1")
	require.Len(t, bc, 1)
	require.Equal(t, partner.StatusLive, bc[0].Status)
	require.Equal(t, "space-1/broadcast/bkey", bc[0].ViewKey)
}

func TestSyncRemoteState_BroadcastDestinationSkippedWhenNotRunning(t *testing.T) {
	ch := syncChannel()
	ch.BroadcastState = model.BroadcastStateStopped
	reg, _, fp := newRegistryFixture(t, ch)

	_, err := reg.SyncRemoteState(context.Background(), ch, false, 0)
	require.NoError(t, err)
	require.Empty(t, fp.updatesFor("bc-1"))
	require.Len(t, fp.updatesFor("lf-1"), 1)
}

func TestSyncRemoteState_MirroredDestinationCarriesRelayList(t *testing.T) {
	ch := syncChannel()
	ch.LiveText = "now live"
	ch.Destinations[0].PlatformChannelID = "pc-1"
	ch.ConnectedChannels = []model.ConnectedChannel{{
		ID: "cc-1", PlatformChannelID: "pc-1", Platform: "omniflix",
		AccessToken: "at", Enabled: true,
	}}
	reg, _, fp := newRegistryFixture(t, ch)

	_, err := reg.SyncRemoteState(context.Background(), ch, true, 100)
	require.NoError(t, err)

	lf := fp.updatesFor("lf-1")
	require.Len(t, lf, 1)
	require.Len(t, lf[0].Destinations, 1)
	require.Equal(t, "rtmp://a.example.com/live", lf[0].Destinations[0].URL)
	require.Equal(t, "now live", lf[0].Text)
}

func TestSyncRemoteState_PrunesOnlyRemoteEnded(t *testing.T) {
	ch := syncChannel()
	reg, channels, fp := newRegistryFixture(t, ch)
	fp.statuses = map[string]partner.Status{"lf-1": partner.StatusEnded}
	fp.statusErr = map[string]error{"bc-1": errors.New("timeout")}

	pruned, err := reg.SyncRemoteState(context.Background(), ch, true, 0)
	require.NoError(t, err)
	require.Len(t, pruned, 1)
	require.Equal(t, "lf-1", pruned[0].StreamID)

	got, _ := channels.Get(context.Background(), "ch-1")
	// Status query failure keeps the destination; generic ones are never pruned.
	require.Len(t, got.Destinations, 2)
}

func TestSyncRemoteState_DisabledDestinationsKept(t *testing.T) {
	ch := syncChannel()
	ch.Destinations[0].Enabled = false
	reg, channels, fp := newRegistryFixture(t, ch)
	fp.statuses = map[string]partner.Status{"lf-1": partner.StatusEnded}

	pruned, err := reg.SyncRemoteState(context.Background(), ch, true, 0)
	require.NoError(t, err)
	require.Empty(t, pruned)
	require.Empty(t, fp.updatesFor("lf-1"))

	got, _ := channels.Get(context.Background(), "ch-1")
	require.Len(t, got.Destinations, 3)
}

func TestEnsureProvisioned_Idempotent(t *testing.T) {
	ch := testChannel()
	ch.ConnectedChannels = []model.ConnectedChannel{{
		ID: "cc-1", PlatformChannelID: "pc-1", Platform: "omniflix",
		AccessToken: "at", Enabled: true,
	}}
	reg, channels, fp := newRegistryFixture(t, ch)
	ctx := context.Background()

	require.NoError(t, reg.EnsureProvisioned(ctx, ch, true))
	require.Equal(t, 1, fp.creates)
	require.Equal(t, "space-1/bkey1", fp.created[0].ViewKey)
	require.Equal(t, model.DestinationTypeLiveFeed, fp.created[0].StreamType)

	// Second pass sees the provisioned destination and creates nothing.
	ch2, err := channels.Get(ctx, "ch-1")
	require.NoError(t, err)
	require.NoError(t, reg.EnsureProvisioned(ctx, ch2, true))
	require.Equal(t, 1, fp.creates)
}

func TestEnsureProvisioned_CreateFailureIsFatal(t *testing.T) {
	ch := testChannel()
	ch.ConnectedChannels = []model.ConnectedChannel{{
		ID: "cc-1", PlatformChannelID: "pc-1", Platform: "omniflix",
		AccessToken: "at", Enabled: true,
	}}
	reg, _, fp := newRegistryFixture(t, ch)
	fp.createErr = errors.New("unauthorized")

	err := reg.EnsureProvisioned(context.Background(), ch, false)
	require.ErrorIs(t, err, errs.ErrPartnerCreate)
}

func TestPushDestinationList_MirrorsGenericOnly(t *testing.T) {
	ch := syncChannel()
	ch.ConnectedChannels = []model.ConnectedChannel{
		{ID: "cc-1", PlatformChannelID: "pc-1", Platform: "omniflix", AccessToken: "at", Enabled: true},
		{ID: "cc-2", PlatformChannelID: "pc-2", Platform: "omniflix", AccessToken: "at2", Enabled: false},
	}
	reg, _, fp := newRegistryFixture(t, ch)

	reg.PushDestinationList(context.Background(), ch)

	require.Len(t, fp.pushed, 1)
	require.Len(t, fp.pushed[0], 1)
	require.Equal(t, "yt", fp.pushed[0][0].Name)
}
