package service

import (
	"context"
	"time"

	"github.com/molla202/broadcast-service/internal/model"
	"github.com/molla202/broadcast-service/internal/partner"
	"github.com/molla202/broadcast-service/internal/playout"
)

// PartnerClient drives channel-bound live-stream objects on the partner
// platform. Implemented by partner.Client; faked in tests.
type PartnerClient interface {
	CreateLiveStream(ctx context.Context, req partner.CreateRequest) (partner.CreateResult, error)
	UpdateStatus(ctx context.Context, platform, streamID string, upd partner.StatusUpdate) error
	GetStatus(ctx context.Context, platform, streamID, token string) (partner.Status, error)
	PushDestinations(ctx context.Context, platform, token string, dests []partner.RelayDestination) error
}

// PlayoutClient renders and streams composed timelines. Implemented by
// playout.Client; faked in tests.
type PlayoutClient interface {
	StartStream(ctx context.Context, id playout.Identity, cfg playout.StartConfig) error
	StopStream(ctx context.Context, id playout.Identity) error
	Status(ctx context.Context, id playout.Identity) (playout.StreamStatus, error)
	GeneratePlaylist(ctx context.Context, id playout.Identity, date time.Time, slot model.SlotPlayout) error
	IngestBitRate(ctx context.Context, mediaSpaceID string) (int, error)
	LiveFeedActive(ctx context.Context, mediaSpaceID string) (bool, error)
}
