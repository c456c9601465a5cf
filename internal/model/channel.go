package model

import "time"

// ChannelMode is the single active "now playing" mode of a channel.
type ChannelMode string

const (
	ModeLiveFeed  ChannelMode = "live_feed"
	ModeBroadcast ChannelMode = "broadcast"
	ModeEnded     ChannelMode = "ended"
)

// Destination kinds and types.
const (
	DestinationKindGeneric = "generic"
	DestinationKindPartner = "partner_platform"

	DestinationTypeBroadcast = "broadcast"
	DestinationTypeLiveFeed  = "live_feed"
)

// Broadcast state of the playout pipeline behind a channel.
const (
	BroadcastStateRunning = "running"
	BroadcastStateStopped = "stopped"
)

// TimelineEntry is one resolved program in the playout timeline handed to the
// playout backend. Times are absolute; AssetStart/AssetEnd trim within the asset.
type TimelineEntry struct {
	StartAt time.Time     `json:"start_at"`
	EndAt   time.Time     `json:"end_at"`
	Source  string        `json:"source"`
	Asset   TimelineAsset `json:"asset"`
}

// TimelineAsset is the asset view embedded in a timeline entry.
type TimelineAsset struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Category   string  `json:"category,omitempty"`
	Path       string  `json:"path"`
	Duration   float64 `json:"duration"`
	AssetStart float64 `json:"start_at"`
	AssetEnd   float64 `json:"end_at"`
	IsAd       bool    `json:"is_ad"`
	Thumbnail  string  `json:"thumbnail,omitempty"`
}

// Position is the on-screen overlay anchor.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// OverlayInstance is a scheduled overlay with its resolved PTS list.
type OverlayInstance struct {
	MediaPath string      `json:"file"`
	PTS       []time.Time `json:"pts"`
	Position  Position    `json:"position"`
}

// SlotPlayout is the composed slot handed to the playout backend.
type SlotPlayout struct {
	Name     string            `json:"name"`
	StartAt  time.Time         `json:"start_at"`
	EndAt    time.Time         `json:"end_at"`
	Programs []TimelineEntry   `json:"programs"`
	Overlays []OverlayInstance `json:"overlays"`
}

// CreateChannelRequest is the request body for POST /channels.
type CreateChannelRequest struct {
	Name             string   `json:"name" binding:"required"`
	MediaSpaceID     string   `json:"media_space_id" binding:"required"`
	SlotLength       int      `json:"slot_length"`
	FillerCategories []string `json:"filler_categories"`
	FillerTags       []string `json:"filler_tags"`
}

// ChannelResponse is the API view of a channel.
type ChannelResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Mode               string    `json:"mode"`
	BroadcastState     string    `json:"broadcast_state"`
	SlotLength         int       `json:"slot_length"`
	BroadcastURL       string    `json:"broadcast_url"`
	BroadcastStreamKey string    `json:"broadcast_stream_key"`
	LiveFeedURL        string    `json:"live_feed_url"`
	LiveFeedStreamKey  string    `json:"live_feed_stream_key"`
	Destinations       int       `json:"destinations"`
	CreatedAt          time.Time `json:"created_at"`
}

// AddDestinationRequest is the request body for POST /channels/:id/destinations.
// URL is set for generic destinations, StreamID/Platform for partner ones.
type AddDestinationRequest struct {
	Kind     string `json:"kind" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Type     string `json:"type"`
	URL      string `json:"url"`
	StreamID string `json:"stream_id"`
	Platform string `json:"platform"`
	Key      string `json:"key" binding:"required"`
}

// DestinationPatch is a field-level patch for PATCH .../destinations/:destination_id.
type DestinationPatch struct {
	URL      *string `json:"url"`
	StreamID *string `json:"stream_id"`
	Platform *string `json:"platform"`
	Key      *string `json:"key"`
	Enabled  *bool   `json:"enabled"`
	Username *string `json:"username"`
}

// AddConnectedChannelRequest is the request body for POST /channels/:id/connected-channels.
type AddConnectedChannelRequest struct {
	PlatformChannelID string `json:"platform_channel_id" binding:"required"`
	Platform          string `json:"platform" binding:"required"`
	AccessToken       string `json:"access_token" binding:"required"`
	AccountAddress    string `json:"account_address"`
	Username          string `json:"username"`
}

// SwitchToLiveRequest carries the ingest callback payload.
type SwitchToLiveRequest struct {
	BroadcastKey string `json:"broadcast_key"`
}

// SwitchToBroadcastRequest carries the optional playback handle of the ended ingest.
type SwitchToBroadcastRequest struct {
	PlaybackID   string `json:"playback_id"`
	BroadcastKey string `json:"broadcast_key"`
}

// ChannelStatusResponse is the response for GET /channels/:id/status.
type ChannelStatusResponse struct {
	ChannelID      string `json:"channel_id"`
	Mode           string `json:"mode"`
	BroadcastState string `json:"broadcast_state"`
	PlayoutRunning bool   `json:"playout_running"`
	BitRate        int    `json:"bit_rate,omitempty"`
}
