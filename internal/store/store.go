// Package store is the persistence abstraction for channels and slots.
// Implementations exist for Postgres (GORM) and in-memory.
package store

import (
	"context"
	"time"

	"github.com/molla202/broadcast-service/internal/model"
)

// ChannelStore owns the Channel aggregate: the channel row plus its embedded
// destination and connected-channel collections. Destinations are written back
// as a whole so a sync pass lands atomically.
type ChannelStore interface {
	Get(ctx context.Context, id string) (*model.Channel, error)
	List(ctx context.Context) ([]model.Channel, error)
	Create(ctx context.Context, ch *model.Channel) error
	SetMode(ctx context.Context, id string, mode model.ChannelMode) error
	SetBroadcastState(ctx context.Context, id, state string) error
	SetPlaybackPath(ctx context.Context, id, path string) error
	SetLiveText(ctx context.Context, id, text string) error
	ReplaceDestinations(ctx context.Context, id string, dests []model.Destination) error
	AddConnectedChannel(ctx context.Context, id string, cc model.ConnectedChannel) error
}

// SlotStore owns slots and their programs. Current returns the slot whose
// window contains now (nil when none) and fails with errs.ErrSlotInvariant
// when more than one window matches.
type SlotStore interface {
	Current(ctx context.Context, channelID string, now time.Time) (*model.Slot, error)
	Create(ctx context.Context, slot *model.Slot) error
	MarkPushed(ctx context.Context, slotID string, at time.Time) error
	SavePrograms(ctx context.Context, programs []model.Program) error
}
