package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/molla202/broadcast-service/internal/errs"
	"github.com/molla202/broadcast-service/internal/model"
)

// MemoryChannelStore is an in-memory ChannelStore for tests and local runs.
type MemoryChannelStore struct {
	mu       sync.RWMutex
	channels map[string]*model.Channel
}

// NewMemoryChannelStore returns an empty in-memory channel store.
func NewMemoryChannelStore() *MemoryChannelStore {
	return &MemoryChannelStore{channels: make(map[string]*model.Channel)}
}

// Get implements ChannelStore.
func (s *MemoryChannelStore) Get(ctx context.Context, id string) (*model.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.channels[id]
	if !ok {
		return nil, errs.ErrChannelNotFound
	}
	cp := *ch
	cp.Destinations = append([]model.Destination(nil), ch.Destinations...)
	cp.ConnectedChannels = append([]model.ConnectedChannel(nil), ch.ConnectedChannels...)
	return &cp, nil
}

// List implements ChannelStore.
func (s *MemoryChannelStore) List(ctx context.Context) ([]model.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Channel, 0, len(s.channels))
	for _, ch := range s.channels {
		out = append(out, *ch)
	}
	return out, nil
}

// Create implements ChannelStore.
func (s *MemoryChannelStore) Create(ctx context.Context, ch *model.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch.ID == "" {
		ch.ID = uuid.New().String()
	}
	cp := *ch
	s.channels[ch.ID] = &cp
	return nil
}

// SetMode implements ChannelStore.
func (s *MemoryChannelStore) SetMode(ctx context.Context, id string, mode model.ChannelMode) error {
	return s.mutate(id, func(ch *model.Channel) { ch.Mode = string(mode) })
}

// SetBroadcastState implements ChannelStore.
func (s *MemoryChannelStore) SetBroadcastState(ctx context.Context, id, state string) error {
	return s.mutate(id, func(ch *model.Channel) { ch.BroadcastState = state })
}

// SetPlaybackPath implements ChannelStore.
func (s *MemoryChannelStore) SetPlaybackPath(ctx context.Context, id, path string) error {
	return s.mutate(id, func(ch *model.Channel) { ch.PlaybackPath = path })
}

// SetLiveText implements ChannelStore.
func (s *MemoryChannelStore) SetLiveText(ctx context.Context, id, text string) error {
	return s.mutate(id, func(ch *model.Channel) { ch.LiveText = text })
}

// ReplaceDestinations implements ChannelStore.
func (s *MemoryChannelStore) ReplaceDestinations(ctx context.Context, id string, dests []model.Destination) error {
	return s.mutate(id, func(ch *model.Channel) {
		for i := range dests {
			if dests[i].ID == "" {
				dests[i].ID = uuid.New().String()
			}
			dests[i].ChannelID = id
		}
		ch.Destinations = append([]model.Destination(nil), dests...)
	})
}

// AddConnectedChannel implements ChannelStore.
func (s *MemoryChannelStore) AddConnectedChannel(ctx context.Context, id string, cc model.ConnectedChannel) error {
	return s.mutate(id, func(ch *model.Channel) {
		if cc.ID == "" {
			cc.ID = uuid.New().String()
		}
		cc.ChannelID = id
		ch.ConnectedChannels = append(ch.ConnectedChannels, cc)
	})
}

func (s *MemoryChannelStore) mutate(id string, fn func(*model.Channel)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.channels[id]
	if !ok {
		return errs.ErrChannelNotFound
	}
	fn(ch)
	return nil
}

// MemorySlotStore is an in-memory SlotStore for tests and local runs.
type MemorySlotStore struct {
	mu    sync.RWMutex
	slots map[string]*model.Slot
}

// NewMemorySlotStore returns an empty in-memory slot store.
func NewMemorySlotStore() *MemorySlotStore {
	return &MemorySlotStore{slots: make(map[string]*model.Slot)}
}

// Current implements SlotStore.
func (s *MemorySlotStore) Current(ctx context.Context, channelID string, now time.Time) (*model.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *model.Slot
	for _, slot := range s.slots {
		if slot.ChannelID != channelID {
			continue
		}
		if slot.StartAt.After(now) || !slot.EndAt.After(now) {
			continue
		}
		if found != nil {
			return nil, errs.ErrSlotInvariant
		}
		found = slot
	}
	if found == nil {
		return nil, nil
	}
	cp := *found
	cp.Programs = append([]model.Program(nil), found.Programs...)
	cp.Overlays = append([]model.Overlay(nil), found.Overlays...)
	return &cp, nil
}

// Create implements SlotStore.
func (s *MemorySlotStore) Create(ctx context.Context, slot *model.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot.ID == "" {
		slot.ID = uuid.New().String()
	}
	cp := *slot
	s.slots[slot.ID] = &cp
	return nil
}

// MarkPushed implements SlotStore.
func (s *MemorySlotStore) MarkPushed(ctx context.Context, slotID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[slotID]
	if !ok {
		return errs.ErrSlotNotFound
	}
	t := at
	slot.PushedAt = &t
	return nil
}

// SavePrograms implements SlotStore.
func (s *MemorySlotStore) SavePrograms(ctx context.Context, programs []model.Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range programs {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		slot, ok := s.slots[p.SlotID]
		if !ok {
			return errs.ErrSlotNotFound
		}
		slot.Programs = append(slot.Programs, p)
	}
	return nil
}
