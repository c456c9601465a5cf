package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/molla202/broadcast-service/internal/errs"
	"github.com/molla202/broadcast-service/internal/model"
	"github.com/molla202/broadcast-service/internal/store"
	"go.uber.org/zap"
)

// ChannelService manages channel records and their connected platform channels.
type ChannelService struct {
	channels    store.ChannelStore
	rtmpBaseURL string
	slotLength  int
	log         *zap.Logger
}

// NewChannelService creates a channel service. rtmpBaseURL is the ingest
// endpoint prefix handed to new channels; slotLength is the default slot
// window in seconds.
func NewChannelService(channels store.ChannelStore, rtmpBaseURL string, slotLength int, log *zap.Logger) *ChannelService {
	return &ChannelService{channels: channels, rtmpBaseURL: rtmpBaseURL, slotLength: slotLength, log: log}
}

// Create creates a channel with freshly generated stream keys and ingest URLs.
func (s *ChannelService) Create(ctx context.Context, req model.CreateChannelRequest) (*model.Channel, error) {
	slotLength := req.SlotLength
	if slotLength <= 0 {
		slotLength = s.slotLength
	}
	ch := &model.Channel{
		ID:                 uuid.New().String(),
		Name:               req.Name,
		MediaSpaceID:       req.MediaSpaceID,
		Mode:               string(model.ModeEnded),
		BroadcastState:     model.BroadcastStateStopped,
		SlotLength:         slotLength,
		BroadcastStreamKey: "bk_" + uuid.New().String()[:16],
		LiveFeedStreamKey:  "lk_" + uuid.New().String()[:16],
		BroadcastURL:       s.rtmpBaseURL + "/" + req.MediaSpaceID + "/broadcast",
		LiveFeedURL:        s.rtmpBaseURL + "/" + req.MediaSpaceID + "/live_feed",
		FillerCategories:   req.FillerCategories,
		FillerTags:         req.FillerTags,
	}
	if err := s.channels.Create(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// Get returns a channel by ID.
func (s *ChannelService) Get(ctx context.Context, id string) (*model.Channel, error) {
	return s.channels.Get(ctx, id)
}

// List returns all channels.
func (s *ChannelService) List(ctx context.Context) ([]model.Channel, error) {
	return s.channels.List(ctx)
}

// AddConnectedChannel authorizes a partner-platform channel to receive this
// channel's output. Duplicate (platform, platform channel) pairs are rejected.
func (s *ChannelService) AddConnectedChannel(ctx context.Context, channelID string, req model.AddConnectedChannelRequest) (*model.ConnectedChannel, error) {
	ch, err := s.channels.Get(ctx, channelID)
	if err != nil {
		return nil, err
	}
	for _, cc := range ch.ConnectedChannels {
		if cc.Platform == req.Platform && cc.PlatformChannelID == req.PlatformChannelID {
			return nil, errs.ErrConnectedChannelExists
		}
	}
	cc := model.ConnectedChannel{
		ID:                uuid.New().String(),
		ChannelID:         channelID,
		PlatformChannelID: req.PlatformChannelID,
		Platform:          req.Platform,
		AccessToken:       req.AccessToken,
		AccountAddress:    req.AccountAddress,
		Username:          req.Username,
		Enabled:           true,
	}
	if err := s.channels.AddConnectedChannel(ctx, channelID, cc); err != nil {
		return nil, err
	}
	return &cc, nil
}

// SetLiveText stores the caption text forwarded to live-feed destinations on
// the next state sync.
func (s *ChannelService) SetLiveText(ctx context.Context, channelID, text string) error {
	return s.channels.SetLiveText(ctx, channelID, text)
}

// ToResponse converts a channel entity to its API view.
func ToResponse(ch *model.Channel) model.ChannelResponse {
	return model.ChannelResponse{
		ID:                 ch.ID,
		Name:               ch.Name,
		Mode:               ch.Mode,
		BroadcastState:     ch.BroadcastState,
		SlotLength:         ch.SlotLength,
		BroadcastURL:       ch.BroadcastURL,
		BroadcastStreamKey: ch.BroadcastStreamKey,
		LiveFeedURL:        ch.LiveFeedURL,
		LiveFeedStreamKey:  ch.LiveFeedStreamKey,
		Destinations:       len(ch.Destinations),
		CreatedAt:          ch.CreatedAt,
	}
}
