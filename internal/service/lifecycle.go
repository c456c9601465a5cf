package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/molla202/broadcast-service/internal/catalogue"
	"github.com/molla202/broadcast-service/internal/errs"
	"github.com/molla202/broadcast-service/internal/model"
	"github.com/molla202/broadcast-service/internal/playout"
	"github.com/molla202/broadcast-service/internal/schedule"
	"github.com/molla202/broadcast-service/internal/store"
	"go.uber.org/zap"
)

// LifecycleController drives channel mode transitions: it composes and hands
// off slot timelines when entering broadcast mode and keeps destination remote
// state consistent with the active mode.
//
// All state-mutating operations are serialized per channel; different channels
// proceed in parallel. Read-only status queries take no lock.
type LifecycleController struct {
	channels        store.ChannelStore
	slots           store.SlotStore
	assets          catalogue.Store
	pool            *catalogue.Pool
	composer        *schedule.Composer
	playout         PlayoutClient
	registry        *DestinationRegistry
	hub             *EventHub
	defaultOverlays []schedule.OverlaySpec
	log             *zap.Logger
	now             func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLifecycleController creates the lifecycle controller.
func NewLifecycleController(
	channels store.ChannelStore,
	slots store.SlotStore,
	assets catalogue.Store,
	pool *catalogue.Pool,
	composer *schedule.Composer,
	pc PlayoutClient,
	registry *DestinationRegistry,
	hub *EventHub,
	log *zap.Logger,
) *LifecycleController {
	return &LifecycleController{
		channels: channels,
		slots:    slots,
		assets:   assets,
		pool:     pool,
		composer: composer,
		playout:  pc,
		registry: registry,
		hub:      hub,
		log:      log,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

// SetDefaultOverlays sets the overlays used for slots that define none.
func (c *LifecycleController) SetDefaultOverlays(specs []schedule.OverlaySpec) {
	c.defaultOverlays = specs
}

// SetClock overrides the time source (tests).
func (c *LifecycleController) SetClock(now func() time.Time) { c.now = now }

// lockChannel acquires the per-channel mutex and returns the unlock func.
func (c *LifecycleController) lockChannel(id string) func() {
	c.mu.Lock()
	l, ok := c.locks[id]
	if !ok {
		l = &sync.Mutex{}
		c.locks[id] = l
	}
	c.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Start brings the channel into broadcast mode: finds or creates the current
// slot, composes and hands off its timeline if not yet pushed, starts the
// playout stream and syncs destinations. Re-entrant calls for the same window
// reuse the existing slot.
func (c *LifecycleController) Start(ctx context.Context, channelID string) error {
	unlock := c.lockChannel(channelID)
	defer unlock()

	ch, err := c.channels.Get(ctx, channelID)
	if err != nil {
		return err
	}
	id := c.identity(ch)

	if active, err := c.playout.LiveFeedActive(ctx, ch.MediaSpaceID); err != nil {
		c.log.Warn("live feed detection failed", zap.String("channel_id", ch.ID), zap.Error(err))
	} else if active {
		return errs.ErrAlreadyRunning
	}
	if st, err := c.playout.Status(ctx, id); err != nil {
		c.log.Warn("playout status query failed", zap.String("channel_id", ch.ID), zap.Error(err))
	} else if st.Running {
		return errs.ErrAlreadyRunning
	}

	now := c.now()
	slot, err := c.slots.Current(ctx, ch.ID, now)
	if err != nil {
		return err
	}
	if slot == nil {
		slot = &model.Slot{
			ChannelID: ch.ID,
			Name:      fmt.Sprintf("Slot %d:%d", now.UTC().Hour(), now.UTC().Minute()),
			StartAt:   now,
			EndAt:     now.Add(time.Duration(ch.SlotLength) * time.Second),
		}
		if err := c.slots.Create(ctx, slot); err != nil {
			return err
		}
	}
	if slot.PushedAt == nil {
		if err := c.composeAndPush(ctx, ch, slot); err != nil {
			return err
		}
	}

	if err := c.playout.StartStream(ctx, id, c.startConfig(ch)); err != nil {
		c.log.Error("playout start failed", zap.String("channel_id", ch.ID), zap.Error(err))
		return errs.ErrPlayoutRequest
	}
	if err := c.channels.SetBroadcastState(ctx, ch.ID, model.BroadcastStateRunning); err != nil {
		return err
	}
	if err := c.channels.SetMode(ctx, ch.ID, model.ModeBroadcast); err != nil {
		return err
	}
	ch.BroadcastState = model.BroadcastStateRunning
	ch.Mode = string(model.ModeBroadcast)

	if _, err := c.registry.SyncRemoteState(ctx, ch, false, 0); err != nil {
		return err
	}
	c.hub.Publish(ChannelEvent{ChannelID: ch.ID, Event: "started", Mode: ch.Mode, At: now})
	return nil
}

// SwitchToLive moves the channel into live-feed mode after an external ingest
// begins. A missing live-feed partner destination is provisioned first; that
// provisioning is idempotent per (channel, platform channel) pair.
func (c *LifecycleController) SwitchToLive(ctx context.Context, channelID string) error {
	unlock := c.lockChannel(channelID)
	defer unlock()

	ch, err := c.channels.Get(ctx, channelID)
	if err != nil {
		return err
	}
	bitRate, err := c.playout.IngestBitRate(ctx, ch.MediaSpaceID)
	if err != nil {
		c.log.Warn("ingest bit rate query failed", zap.String("channel_id", ch.ID), zap.Error(err))
		bitRate = 0
	}
	if ch.Mode == string(model.ModeEnded) || !hasEnabledLiveFeedPartner(ch.Destinations) {
		if err := c.registry.EnsureProvisioned(ctx, ch, true); err != nil {
			return err
		}
	}
	if err := c.channels.SetMode(ctx, ch.ID, model.ModeLiveFeed); err != nil {
		return err
	}
	ch.Mode = string(model.ModeLiveFeed)

	if _, err := c.registry.SyncRemoteState(ctx, ch, true, bitRate); err != nil {
		return err
	}
	c.registry.PushDestinationList(ctx, ch)
	c.hub.Publish(ChannelEvent{ChannelID: ch.ID, Event: "switched_live", Mode: ch.Mode, At: c.now()})
	return nil
}

// SwitchToBroadcast moves the channel back to broadcast mode when the external
// ingest ends. playbackID, when present, records where the ended live feed can
// be replayed. A channel whose playout is stopped lands in ENDED instead.
func (c *LifecycleController) SwitchToBroadcast(ctx context.Context, channelID, playbackID string) error {
	unlock := c.lockChannel(channelID)
	defer unlock()

	ch, err := c.channels.Get(ctx, channelID)
	if err != nil {
		return err
	}
	if playbackID != "" {
		path := "/" + playbackID + "/" + ch.BroadcastStreamKey + "1.m3u8"
		if err := c.channels.SetPlaybackPath(ctx, ch.ID, path); err != nil {
			return err
		}
		ch.PlaybackPath = path
	}
	mode := model.ModeBroadcast
	if ch.BroadcastState == model.BroadcastStateStopped {
		mode = model.ModeEnded
	}
	if err := c.channels.SetMode(ctx, ch.ID, mode); err != nil {
		return err
	}
	ch.Mode = string(mode)

	if _, err := c.registry.SyncRemoteState(ctx, ch, false, 0); err != nil {
		return err
	}
	c.hub.Publish(ChannelEvent{ChannelID: ch.ID, Event: "switched_broadcast", Mode: ch.Mode, At: c.now()})
	return nil
}

// Stop ends the channel: stops the playout stream, marks the channel ENDED and
// runs the pause/end pass over its destinations. A playout failure aborts the
// transition and leaves the mode unchanged.
func (c *LifecycleController) Stop(ctx context.Context, channelID string) error {
	unlock := c.lockChannel(channelID)
	defer unlock()

	ch, err := c.channels.Get(ctx, channelID)
	if err != nil {
		return err
	}
	if err := c.playout.StopStream(ctx, c.identity(ch)); err != nil {
		c.log.Error("playout stop failed", zap.String("channel_id", ch.ID), zap.Error(err))
		return errs.ErrPlayoutRequest
	}
	if err := c.channels.SetBroadcastState(ctx, ch.ID, model.BroadcastStateStopped); err != nil {
		return err
	}
	if err := c.channels.SetMode(ctx, ch.ID, model.ModeEnded); err != nil {
		return err
	}
	ch.BroadcastState = model.BroadcastStateStopped
	ch.Mode = string(model.ModeEnded)

	if _, err := c.registry.SyncStopped(ctx, ch); err != nil {
		return err
	}
	c.hub.Publish(ChannelEvent{ChannelID: ch.ID, Event: "stopped", Mode: ch.Mode, At: c.now()})
	return nil
}

// Status reports the channel's stored mode combined with the playout backend's
// view. Runs without the channel lock.
func (c *LifecycleController) Status(ctx context.Context, channelID string) (model.ChannelStatusResponse, error) {
	ch, err := c.channels.Get(ctx, channelID)
	if err != nil {
		return model.ChannelStatusResponse{}, err
	}
	out := model.ChannelStatusResponse{
		ChannelID:      ch.ID,
		Mode:           ch.Mode,
		BroadcastState: ch.BroadcastState,
	}
	if st, err := c.playout.Status(ctx, c.identity(ch)); err == nil {
		out.PlayoutRunning = st.Running
		out.BitRate = st.BitRate
	}
	return out, nil
}

// composeAndPush runs the composer for the slot, persists generated fillers,
// hands the timeline to the playout backend and marks the slot pushed.
func (c *LifecycleController) composeAndPush(ctx context.Context, ch *model.Channel, slot *model.Slot) error {
	if slot.PushedAt != nil {
		return errs.ErrSlotInvariant
	}
	plan := make([]schedule.PlanEntry, 0, len(slot.Programs))
	for _, p := range slot.Programs {
		asset, err := c.assets.Lookup(ctx, p.AssetID)
		if err != nil {
			return err
		}
		plan = append(plan, schedule.PlanEntry{
			Source:     p.Source,
			Asset:      asset,
			AssetStart: p.AssetStart,
			AssetEnd:   p.AssetEnd,
		})
	}
	fillers, err := c.pool.Fillers(ctx, catalogue.FillerRule{
		Categories: ch.FillerCategories,
		Tags:       ch.FillerTags,
	})
	if err != nil {
		return err
	}
	window := schedule.Window{Name: slot.Name, StartAt: slot.StartAt, EndAt: slot.EndAt}
	res := c.composer.Compose(window, plan, fillers, overlaySpecs(slot.Overlays), c.defaultOverlays)

	if len(res.GeneratedFillers) > 0 {
		programs := make([]model.Program, 0, len(res.GeneratedFillers))
		for _, f := range res.GeneratedFillers {
			programs = append(programs, model.Program{
				ChannelID:  ch.ID,
				SlotID:     slot.ID,
				StartAt:    f.StartAt,
				EndAt:      f.EndAt,
				Source:     f.Source,
				AssetID:    f.Asset.ID,
				AssetStart: f.Asset.AssetStart,
				AssetEnd:   f.Asset.AssetEnd,
				Generated:  true,
			})
		}
		if err := c.slots.SavePrograms(ctx, programs); err != nil {
			return err
		}
	}

	playoutSlot := model.SlotPlayout{
		Name:     slot.Name,
		StartAt:  slot.StartAt,
		EndAt:    slot.EndAt,
		Programs: res.Timeline,
		Overlays: res.Overlays,
	}
	if err := c.playout.GeneratePlaylist(ctx, c.identity(ch), slot.StartAt, playoutSlot); err != nil {
		c.log.Error("playlist handoff failed", zap.String("channel_id", ch.ID), zap.String("slot_id", slot.ID), zap.Error(err))
		return errs.ErrPlayoutRequest
	}
	pushedAt := c.now()
	if err := c.slots.MarkPushed(ctx, slot.ID, pushedAt); err != nil {
		return err
	}
	slot.PushedAt = &pushedAt
	return nil
}

func (c *LifecycleController) identity(ch *model.Channel) playout.Identity {
	return playout.Identity{ChannelID: ch.ID, MediaSpaceID: ch.MediaSpaceID}
}

func (c *LifecycleController) startConfig(ch *model.Channel) playout.StartConfig {
	cfg := playout.StartConfig{
		BroadcastURL:       ch.BroadcastURL,
		BroadcastStreamKey: ch.BroadcastStreamKey,
		LiveFeedURL:        ch.LiveFeedURL,
		LiveFeedStreamKey:  ch.LiveFeedStreamKey,
	}
	for _, d := range ch.Destinations {
		if d.Kind == model.DestinationKindGeneric && d.Enabled {
			cfg.Destinations = append(cfg.Destinations, d.URL+"/"+d.Key)
		}
	}
	return cfg
}

func overlaySpecs(overlays []model.Overlay) []schedule.OverlaySpec {
	specs := make([]schedule.OverlaySpec, 0, len(overlays))
	for _, o := range overlays {
		if o.MediaPath == "" {
			continue
		}
		specs = append(specs, schedule.OverlaySpec{
			MediaPath:      o.MediaPath,
			StartAt:        o.StartAt,
			RepeatInterval: time.Duration(o.RepeatInterval) * time.Second,
			RepeatCount:    o.RepeatCount,
		})
	}
	return specs
}

func hasEnabledLiveFeedPartner(dests []model.Destination) bool {
	for _, d := range dests {
		if d.Kind == model.DestinationKindPartner && d.Type == model.DestinationTypeLiveFeed && d.Enabled {
			return true
		}
	}
	return false
}
