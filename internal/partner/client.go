// Package partner is the HTTP client for the partner platform's channel-bound
// live-stream objects.
package partner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Status is a remote live-stream object status.
type Status string

const (
	StatusLive   Status = "LIVE"
	StatusPaused Status = "PAUSED"
	StatusEnded  Status = "ENDED"
)

// CreateRequest creates a live-stream object bound to a partner channel.
type CreateRequest struct {
	Platform       string
	ChannelID      string
	AccessToken    string
	ViewKey        string
	AccountAddress string
	Name           string
	Description    string
	ImageURL       string
	StreamType     string // live_feed or broadcast
}

// CreateResult is the remote handle of a created live-stream object.
type CreateResult struct {
	StreamID  string
	StreamKey string
}

// RelayDestination is the simplified generic destination view mirrored to the
// partner platform.
type RelayDestination struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Key      string `json:"key,omitempty"`
	Username string `json:"username,omitempty"`
}

// StatusUpdate drives a remote live-stream object's lifecycle.
type StatusUpdate struct {
	Status       Status
	Token        string
	ViewKey      string
	BitRate      int
	PlaybackPath string
	Destinations []RelayDestination
	Text         string
	StreamType   string
}

// Client talks to one or more partner platform deployments, keyed by platform
// name. Timeouts come from the caller's context; the embedded client timeout
// is a backstop only.
type Client struct {
	baseURLs    map[string]string
	mediaNodeID string
	http        *http.Client
	log         *zap.Logger
}

// NewClient creates a partner platform client. baseURLs maps a platform name
// (the Destination.Platform field) to that deployment's base URL.
func NewClient(baseURLs map[string]string, mediaNodeID string, log *zap.Logger) *Client {
	return &Client{
		baseURLs:    baseURLs,
		mediaNodeID: mediaNodeID,
		http:        &http.Client{Timeout: 30 * time.Second},
		log:         log,
	}
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   *apiError       `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
}

func (c *Client) baseURL(platform string) (string, error) {
	base, ok := c.baseURLs[platform]
	if !ok || base == "" {
		return "", fmt.Errorf("partner: no base url for platform %q", platform)
	}
	return base, nil
}

// CreateLiveStream creates a live-stream object on the partner channel.
func (c *Client) CreateLiveStream(ctx context.Context, req CreateRequest) (CreateResult, error) {
	base, err := c.baseURL(req.Platform)
	if err != nil {
		return CreateResult{}, err
	}
	body := map[string]any{
		"channelId":             req.ChannelID,
		"liveStreamAccessToken": req.AccessToken,
		"viewKey":               req.ViewKey,
		"mediaNodeId":           c.mediaNodeID,
		"bcAccountAddress":      req.AccountAddress,
		"name":                  req.Name,
		"type":                  req.StreamType,
	}
	if req.Description != "" {
		body["description"] = req.Description
	}
	if req.ImageURL != "" {
		body["imageURL"] = req.ImageURL
	}
	var result struct {
		ID        string `json:"_id"`
		StreamKey string `json:"stream_key"`
	}
	if err := c.do(ctx, http.MethodPost, base+"/media-node/live-streams", body, &result); err != nil {
		return CreateResult{}, err
	}
	return CreateResult{StreamID: result.ID, StreamKey: result.StreamKey}, nil
}

// UpdateStatus pushes a lifecycle update to a remote live-stream object.
func (c *Client) UpdateStatus(ctx context.Context, platform, streamID string, upd StatusUpdate) error {
	base, err := c.baseURL(platform)
	if err != nil {
		return err
	}
	body := map[string]any{
		"status": string(upd.Status),
		"token":  upd.Token,
	}
	if upd.ViewKey != "" {
		body["viewKey"] = upd.ViewKey
	}
	if upd.BitRate > 0 {
		body["bitRate"] = upd.BitRate
	}
	if upd.PlaybackPath != "" {
		body["playback_path"] = upd.PlaybackPath
	}
	if upd.Destinations != nil {
		body["destinations"] = upd.Destinations
	}
	if upd.Text != "" {
		body["text"] = upd.Text
	}
	if upd.StreamType != "" {
		body["typeOfStream"] = upd.StreamType
	}
	return c.do(ctx, http.MethodPut, base+"/media-node/live-streams/"+streamID, body, nil)
}

// GetStatus queries the remote status of a live-stream object.
func (c *Client) GetStatus(ctx context.Context, platform, streamID, token string) (Status, error) {
	base, err := c.baseURL(platform)
	if err != nil {
		return "", err
	}
	u := fmt.Sprintf("%s/live-streams/%s/status?token=%s", base, streamID, url.QueryEscape(token))
	var result struct {
		StreamStatus string `json:"stream_status"`
	}
	if err := c.do(ctx, http.MethodGet, u, nil, &result); err != nil {
		return "", err
	}
	return Status(result.StreamStatus), nil
}

// PushDestinations mirrors the list of generic relay destinations to the
// partner platform for a connected channel.
func (c *Client) PushDestinations(ctx context.Context, platform, token string, dests []RelayDestination) error {
	base, err := c.baseURL(platform)
	if err != nil {
		return err
	}
	body := map[string]any{
		"token":        token,
		"destinations": dests,
	}
	u := fmt.Sprintf("%s/media-nodes/%s/live-stream-destinations", base, c.mediaNodeID)
	return c.do(ctx, http.MethodPut, u, body, nil)
}

func (c *Client) do(ctx context.Context, method, url string, body any, result any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("partner: decode response: %w", err)
	}
	if !env.Success {
		msg := "request failed"
		if env.Error != nil && env.Error.Message != "" {
			msg = env.Error.Message
		}
		return fmt.Errorf("partner: %s (%s %s)", msg, method, url)
	}
	if result != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, result); err != nil {
			return fmt.Errorf("partner: decode result: %w", err)
		}
	}
	return nil
}
