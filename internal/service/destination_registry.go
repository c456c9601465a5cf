package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/molla202/broadcast-service/internal/errs"
	"github.com/molla202/broadcast-service/internal/model"
	"github.com/molla202/broadcast-service/internal/partner"
	"github.com/molla202/broadcast-service/internal/store"
	"go.uber.org/zap"
)

// DestinationRegistry owns the per-channel destination set and its remote
// lifecycle. Individual remote failures are logged and swallowed so one broken
// destination never blocks the others; only local channel reads/writes are
// fatal.
type DestinationRegistry struct {
	channels store.ChannelStore
	partner  PartnerClient
	log      *zap.Logger
}

// NewDestinationRegistry creates a destination registry.
func NewDestinationRegistry(channels store.ChannelStore, pc PartnerClient, log *zap.Logger) *DestinationRegistry {
	return &DestinationRegistry{channels: channels, partner: pc, log: log}
}

// Add adds a destination to the channel. Partner entries compare on
// (stream_id, key), generic ones on (url, key, name); only active entries
// count. An active duplicate yields errs.ErrDestinationExists.
func (r *DestinationRegistry) Add(ctx context.Context, channelID string, req model.AddDestinationRequest) (*model.Destination, error) {
	ch, err := r.channels.Get(ctx, channelID)
	if err != nil {
		return nil, err
	}
	dest := model.Destination{
		ID:        uuid.New().String(),
		ChannelID: channelID,
		Kind:      req.Kind,
		Name:      req.Name,
		Type:      req.Type,
		URL:       req.URL,
		StreamID:  req.StreamID,
		Platform:  req.Platform,
		Key:       req.Key,
		Enabled:   true,
	}
	if dest.Type == "" {
		dest.Type = model.DestinationTypeBroadcast
	}
	if duplicateExists(ch.Destinations, dest, "") {
		return nil, errs.ErrDestinationExists
	}
	dests := append(ch.Destinations, dest)
	if err := r.channels.ReplaceDestinations(ctx, channelID, dests); err != nil {
		return nil, err
	}
	return &dest, nil
}

// Update applies a field-level patch to a destination, enforcing the same
// duplicate check against the other entries.
func (r *DestinationRegistry) Update(ctx context.Context, channelID, destinationID string, patch model.DestinationPatch) (*model.Destination, error) {
	ch, err := r.channels.Get(ctx, channelID)
	if err != nil {
		return nil, err
	}
	idx := indexByID(ch.Destinations, destinationID)
	if idx < 0 {
		return nil, errs.ErrDestinationNotFound
	}
	dest := ch.Destinations[idx]
	if patch.URL != nil {
		dest.URL = *patch.URL
	}
	if patch.StreamID != nil {
		dest.StreamID = *patch.StreamID
	}
	if patch.Platform != nil {
		dest.Platform = *patch.Platform
	}
	if patch.Key != nil {
		dest.Key = *patch.Key
	}
	if patch.Enabled != nil {
		dest.Enabled = *patch.Enabled
	}
	if patch.Username != nil {
		dest.Username = *patch.Username
	}
	if duplicateExists(ch.Destinations, dest, dest.ID) {
		return nil, errs.ErrDestinationExists
	}
	ch.Destinations[idx] = dest
	if err := r.channels.ReplaceDestinations(ctx, channelID, ch.Destinations); err != nil {
		return nil, err
	}
	return &dest, nil
}

// Remove deletes a destination. An enabled partner destination is first driven
// to PAUSED/ENDED remotely, best-effort: removal proceeds even if that fails.
func (r *DestinationRegistry) Remove(ctx context.Context, channelID, destinationID string) error {
	ch, err := r.channels.Get(ctx, channelID)
	if err != nil {
		return err
	}
	idx := indexByID(ch.Destinations, destinationID)
	if idx < 0 {
		return errs.ErrDestinationNotFound
	}
	dest := ch.Destinations[idx]
	if dest.Kind == model.DestinationKindPartner && dest.Enabled {
		upd := partner.StatusUpdate{Status: partner.StatusPaused, Token: dest.Key}
		if dest.Type == model.DestinationTypeLiveFeed {
			upd.Status = partner.StatusEnded
			upd.PlaybackPath = ch.PlaybackPath
		}
		if err := r.partner.UpdateStatus(ctx, dest.Platform, dest.StreamID, upd); err != nil {
			r.log.Warn("failed to stop remote destination before removal",
				zap.String("channel_id", channelID),
				zap.String("destination_id", destinationID),
				zap.Error(err))
		}
	}
	dests := append(ch.Destinations[:idx:idx], ch.Destinations[idx+1:]...)
	return r.channels.ReplaceDestinations(ctx, channelID, dests)
}

// SyncRemoteState pushes a target status to every enabled partner destination
// for the channel's current mode, then prunes destinations whose remote object
// reports ENDED. The surviving set is written back atomically; the pruned
// destinations are returned.
func (r *DestinationRegistry) SyncRemoteState(ctx context.Context, ch *model.Channel, isLiveFeed bool, bitRate int) ([]model.Destination, error) {
	relay := genericRelays(ch)
	ccEnabled := enabledConnectedChannelIDs(ch)

	for _, d := range ch.Destinations {
		if d.Kind != model.DestinationKindPartner || !d.Enabled {
			continue
		}
		upd, ok := targetUpdate(ch, d, isLiveFeed, bitRate, relay, ccEnabled)
		if !ok {
			continue
		}
		if err := r.partner.UpdateStatus(ctx, d.Platform, d.StreamID, upd); err != nil {
			r.log.Warn("destination status update failed",
				zap.String("channel_id", ch.ID),
				zap.String("stream_id", d.StreamID),
				zap.String("target_status", string(upd.Status)),
				zap.Error(err))
		}
	}
	return r.pruneEnded(ctx, ch)
}

// SyncStopped is the pause/end pass run when the channel stops entirely:
// broadcast-type partner destinations go PAUSED, live-feed-type ENDED.
func (r *DestinationRegistry) SyncStopped(ctx context.Context, ch *model.Channel) ([]model.Destination, error) {
	for _, d := range ch.Destinations {
		if d.Kind != model.DestinationKindPartner || !d.Enabled {
			continue
		}
		upd := partner.StatusUpdate{Status: partner.StatusPaused, Token: d.Key}
		if d.Type == model.DestinationTypeLiveFeed {
			upd.Status = partner.StatusEnded
			upd.PlaybackPath = ch.PlaybackPath
		}
		if err := r.partner.UpdateStatus(ctx, d.Platform, d.StreamID, upd); err != nil {
			r.log.Warn("destination stop update failed",
				zap.String("channel_id", ch.ID),
				zap.String("stream_id", d.StreamID),
				zap.Error(err))
		}
	}
	return r.pruneEnded(ctx, ch)
}

// EnsureProvisioned creates a partner live-stream object for every enabled
// connected channel that does not yet own a destination of the wanted type.
// The check keys on (platform channel, type): re-entrant calls never create
// duplicates. Create failures are fatal here, unlike during sync.
func (r *DestinationRegistry) EnsureProvisioned(ctx context.Context, ch *model.Channel, isLiveFeed bool) error {
	wantType := model.DestinationTypeBroadcast
	viewKey := broadcastViewKey(ch)
	if isLiveFeed {
		wantType = model.DestinationTypeLiveFeed
		viewKey = liveFeedViewKey(ch)
	}
	changed := false
	for _, cc := range ch.ConnectedChannels {
		if !cc.Enabled {
			continue
		}
		if hasPartnerDestination(ch.Destinations, cc.PlatformChannelID, wantType) {
			continue
		}
		res, err := r.partner.CreateLiveStream(ctx, partner.CreateRequest{
			Platform:       cc.Platform,
			ChannelID:      cc.PlatformChannelID,
			AccessToken:    cc.AccessToken,
			ViewKey:        viewKey,
			AccountAddress: cc.AccountAddress,
			Name:           ch.Name,
			StreamType:     wantType,
		})
		if err != nil {
			return errs.ErrPartnerCreate
		}
		if idx := indexByStreamID(ch.Destinations, res.StreamID); idx >= 0 {
			ch.Destinations[idx].Key = res.StreamKey
		} else {
			ch.Destinations = append(ch.Destinations, model.Destination{
				ID:                uuid.New().String(),
				ChannelID:         ch.ID,
				Kind:              model.DestinationKindPartner,
				Name:              cc.Platform,
				Type:              wantType,
				StreamID:          res.StreamID,
				Key:               res.StreamKey,
				Platform:          cc.Platform,
				PlatformChannelID: cc.PlatformChannelID,
				Username:          cc.Username,
				Enabled:           true,
			})
		}
		changed = true
	}
	if !changed {
		return nil
	}
	return r.channels.ReplaceDestinations(ctx, ch.ID, ch.Destinations)
}

// PushDestinationList mirrors the enabled generic destinations to every
// enabled connected channel. Best-effort per channel.
func (r *DestinationRegistry) PushDestinationList(ctx context.Context, ch *model.Channel) {
	relay := genericRelays(ch)
	if len(relay) == 0 {
		return
	}
	for _, cc := range ch.ConnectedChannels {
		if !cc.Enabled {
			continue
		}
		if err := r.partner.PushDestinations(ctx, cc.Platform, cc.AccessToken, relay); err != nil {
			r.log.Warn("destination list push failed",
				zap.String("channel_id", ch.ID),
				zap.String("platform_channel_id", cc.PlatformChannelID),
				zap.Error(err))
		}
	}
}

func (r *DestinationRegistry) pruneEnded(ctx context.Context, ch *model.Channel) ([]model.Destination, error) {
	kept := make([]model.Destination, 0, len(ch.Destinations))
	var pruned []model.Destination
	for _, d := range ch.Destinations {
		if d.Kind == model.DestinationKindPartner && d.Enabled {
			st, err := r.partner.GetStatus(ctx, d.Platform, d.StreamID, d.Key)
			if err != nil {
				// Unknown remote state keeps the destination.
				r.log.Warn("destination status query failed",
					zap.String("channel_id", ch.ID),
					zap.String("stream_id", d.StreamID),
					zap.Error(err))
				kept = append(kept, d)
				continue
			}
			if st == partner.StatusEnded {
				pruned = append(pruned, d)
				continue
			}
		}
		kept = append(kept, d)
	}
	if err := r.channels.ReplaceDestinations(ctx, ch.ID, kept); err != nil {
		return nil, err
	}
	ch.Destinations = kept
	return pruned, nil
}

// targetUpdate computes the remote status a destination should move to for the
// channel's mode. ok is false when no update applies (a broadcast destination
// while broadcast is not running).
func targetUpdate(ch *model.Channel, d model.Destination, isLiveFeed bool, bitRate int, relay []partner.RelayDestination, ccEnabled map[string]bool) (partner.StatusUpdate, bool) {
	mirrored := ccEnabled[d.PlatformChannelID]
	switch d.Type {
	case model.DestinationTypeLiveFeed:
		if isLiveFeed {
			upd := partner.StatusUpdate{
				Status:     partner.StatusLive,
				Token:      d.Key,
				ViewKey:    liveFeedViewKey(ch),
				BitRate:    bitRate,
				StreamType: model.DestinationTypeLiveFeed,
			}
			if mirrored {
				upd.Destinations = relay
				upd.Text = ch.LiveText
			}
			return upd, true
		}
		return partner.StatusUpdate{
			Status:       partner.StatusEnded,
			Token:        d.Key,
			PlaybackPath: ch.PlaybackPath,
		}, true
	default: // broadcast
		if isLiveFeed {
			return partner.StatusUpdate{Status: partner.StatusPaused, Token: d.Key}, true
		}
		if ch.BroadcastState != model.BroadcastStateRunning {
			return partner.StatusUpdate{}, false
		}
		upd := partner.StatusUpdate{
			Status:  partner.StatusLive,
			Token:   d.Key,
			ViewKey: broadcastViewKey(ch),
		}
		if mirrored {
			upd.Destinations = relay
			upd.Text = ch.LiveText
		}
		return upd, true
	}
}

func liveFeedViewKey(ch *model.Channel) string {
	return ch.MediaSpaceID + "/" + ch.BroadcastStreamKey + "1"
}

func broadcastViewKey(ch *model.Channel) string {
	return ch.MediaSpaceID + "/broadcast/" + ch.BroadcastStreamKey
}

func genericRelays(ch *model.Channel) []partner.RelayDestination {
	var out []partner.RelayDestination
	for _, d := range ch.Destinations {
		if d.Kind == model.DestinationKindGeneric && d.Enabled {
			out = append(out, partner.RelayDestination{
				Name:     d.Name,
				URL:      d.URL,
				Key:      d.Key,
				Username: d.Username,
			})
		}
	}
	return out
}

func enabledConnectedChannelIDs(ch *model.Channel) map[string]bool {
	out := make(map[string]bool, len(ch.ConnectedChannels))
	for _, cc := range ch.ConnectedChannels {
		if cc.Enabled {
			out[cc.PlatformChannelID] = true
		}
	}
	return out
}

func indexByID(dests []model.Destination, id string) int {
	for i, d := range dests {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func indexByStreamID(dests []model.Destination, streamID string) int {
	for i, d := range dests {
		if d.Kind == model.DestinationKindPartner && d.StreamID == streamID {
			return i
		}
	}
	return -1
}

func hasPartnerDestination(dests []model.Destination, platformChannelID, destType string) bool {
	for _, d := range dests {
		if d.Kind == model.DestinationKindPartner && d.PlatformChannelID == platformChannelID && d.Type == destType {
			return true
		}
	}
	return false
}

// duplicateExists reports whether another active destination carries the same
// identity as cand. Partner entries compare on (stream_id, key); generic ones
// on (url, key, name). excludeID skips the entry being updated.
func duplicateExists(dests []model.Destination, cand model.Destination, excludeID string) bool {
	for _, d := range dests {
		if d.ID == excludeID || !d.Enabled {
			continue
		}
		if cand.Kind == model.DestinationKindPartner {
			if d.Kind == model.DestinationKindPartner && d.StreamID == cand.StreamID && d.Key == cand.Key {
				return true
			}
			continue
		}
		if d.Kind == model.DestinationKindGeneric && d.URL == cand.URL && d.Key == cand.Key && d.Name == cand.Name {
			return true
		}
	}
	return false
}
