package playout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/molla202/broadcast-service/internal/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStartStream_SendsConfig(t *testing.T) {
	var gotPath string
	var gotCfg StartConfig
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotCfg))
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	err := c.StartStream(context.Background(), Identity{ChannelID: "ch-1", MediaSpaceID: "sp-1"}, StartConfig{
		BroadcastURL:       "rtmp://in/broadcast",
		BroadcastStreamKey: "bk",
	})
	require.NoError(t, err)
	require.Equal(t, "/live-streams/spaces/sp-1/streams/ch-1/start", gotPath)
	require.Equal(t, "bk", gotCfg.BroadcastStreamKey)
}

func TestStartStream_FailureFlag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   map[string]string{"message": "stream busy"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	err := c.StartStream(context.Background(), Identity{ChannelID: "ch-1", MediaSpaceID: "sp-1"}, StartConfig{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "stream busy")
}

func TestStatus_ParsesRunningAndBitRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"status":  "running",
			"result":  3200,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	st, err := c.Status(context.Background(), Identity{ChannelID: "ch-1", MediaSpaceID: "sp-1"})
	require.NoError(t, err)
	require.True(t, st.Running)
	require.Equal(t, 3200, st.BitRate)
}

func TestGeneratePlaylist_SendsSlot(t *testing.T) {
	var body struct {
		Slot model.SlotPlayout `json:"slot"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/live-streams/spaces/sp-1/streams/ch-1/generate-playlist", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	slot := model.SlotPlayout{
		Name:    "Slot 12:0",
		StartAt: start,
		EndAt:   start.Add(time.Hour),
		Programs: []model.TimelineEntry{{
			StartAt: start, EndAt: start.Add(time.Minute), Source: "content",
			Asset: model.TimelineAsset{ID: "a1", Path: "/e/a1.mp4"},
		}},
	}
	c := NewClient(srv.URL, zap.NewNop())
	err := c.GeneratePlaylist(context.Background(), Identity{ChannelID: "ch-1", MediaSpaceID: "sp-1"}, start, slot)
	require.NoError(t, err)
	require.Equal(t, "Slot 12:0", body.Slot.Name)
	require.Len(t, body.Slot.Programs, 1)
}

func TestIngestBitRate_QueriesLiveFeedURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "live_feed/sp-1", r.URL.Query().Get("stream_url"))
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "result": 2800})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	bitRate, err := c.IngestBitRate(context.Background(), "sp-1")
	require.NoError(t, err)
	require.Equal(t, 2800, bitRate)

	active, err := c.LiveFeedActive(context.Background(), "sp-1")
	require.NoError(t, err)
	require.True(t, active)
}
