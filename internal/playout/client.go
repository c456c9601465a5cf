// Package playout is the HTTP client for the playout backend (the process
// that renders a composed timeline and pushes RTMP). The core never touches
// media bytes; it only hands off timelines and start/stop requests.
package playout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/molla202/broadcast-service/internal/model"
	"go.uber.org/zap"
)

// Identity names a stream towards the playout backend.
type Identity struct {
	ChannelID    string
	MediaSpaceID string
}

// StartConfig is the stream configuration sent with a start request.
type StartConfig struct {
	BroadcastURL       string   `json:"broadcast_url"`
	BroadcastStreamKey string   `json:"broadcast_stream_key"`
	LiveFeedURL        string   `json:"live_feed_url"`
	LiveFeedStreamKey  string   `json:"live_feed_stream_key"`
	Destinations       []string `json:"extra_destinations,omitempty"`
}

// StreamStatus is the backend's view of a stream.
type StreamStatus struct {
	Running bool
	BitRate int
}

// Client talks to the playout backend. Failures here are fatal for start/stop
// transitions; callers bound each call with a context deadline.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// NewClient creates a playout client for the given base URL (host:port).
func NewClient(baseURL string, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

type response struct {
	Success bool            `json:"success"`
	Status  string          `json:"status"`
	Result  json.RawMessage `json:"result"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// StartStream asks the backend to start the stream for the channel.
func (c *Client) StartStream(ctx context.Context, id Identity, cfg StartConfig) error {
	u := fmt.Sprintf("%s/live-streams/spaces/%s/streams/%s/start", c.baseURL, id.MediaSpaceID, id.ChannelID)
	_, err := c.do(ctx, http.MethodPost, u, cfg)
	return err
}

// StopStream asks the backend to stop the stream for the channel.
func (c *Client) StopStream(ctx context.Context, id Identity) error {
	u := fmt.Sprintf("%s/live-streams/spaces/%s/streams/%s/stop", c.baseURL, id.MediaSpaceID, id.ChannelID)
	_, err := c.do(ctx, http.MethodPost, u, map[string]string{"media_space": id.MediaSpaceID})
	return err
}

// Status reports whether the backend is currently running the stream.
func (c *Client) Status(ctx context.Context, id Identity) (StreamStatus, error) {
	u := fmt.Sprintf("%s/live-streams/spaces/%s/streams/%s/status", c.baseURL, id.MediaSpaceID, id.ChannelID)
	resp, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return StreamStatus{}, err
	}
	st := StreamStatus{Running: resp.Status == "running"}
	if len(resp.Result) > 0 {
		var bitRate int
		if err := json.Unmarshal(resp.Result, &bitRate); err == nil {
			st.BitRate = bitRate
		}
	}
	return st, nil
}

// GeneratePlaylist hands the composed slot timeline to the backend.
func (c *Client) GeneratePlaylist(ctx context.Context, id Identity, date time.Time, slot model.SlotPlayout) error {
	u := fmt.Sprintf("%s/live-streams/spaces/%s/streams/%s/generate-playlist", c.baseURL, id.MediaSpaceID, id.ChannelID)
	body := map[string]any{
		"date": date,
		"slot": slot,
	}
	_, err := c.do(ctx, http.MethodPost, u, body)
	return err
}

// IngestBitRate returns the bit rate of the live-feed ingest for the media
// space, or 0 when no ingest is connected.
func (c *Client) IngestBitRate(ctx context.Context, mediaSpaceID string) (int, error) {
	streamURL := "live_feed/" + mediaSpaceID
	u := fmt.Sprintf("%s/live-streams/details?stream_url=%s", c.baseURL, url.QueryEscape(streamURL))
	resp, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}
	var bitRate int
	if len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, &bitRate); err != nil {
			return 0, nil
		}
	}
	if bitRate < 0 {
		bitRate = 0
	}
	return bitRate, nil
}

// LiveFeedActive reports whether a live-feed ingest is currently connected.
func (c *Client) LiveFeedActive(ctx context.Context, mediaSpaceID string) (bool, error) {
	bitRate, err := c.IngestBitRate(ctx, mediaSpaceID)
	if err != nil {
		return false, err
	}
	return bitRate > 0, nil
}

func (c *Client) do(ctx context.Context, method, url string, body any) (*response, error) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("playout: decode response: %w", err)
	}
	if !out.Success {
		msg := "request failed"
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return nil, fmt.Errorf("playout: %s (%s %s)", msg, method, url)
	}
	return &out, nil
}
