package store

import (
	"context"
	"errors"
	"time"

	"github.com/molla202/broadcast-service/internal/errs"
	"github.com/molla202/broadcast-service/internal/model"
	"gorm.io/gorm"
)

// GormChannelStore persists channels in Postgres.
type GormChannelStore struct {
	db *gorm.DB
}

// NewGormChannelStore creates a channel store over the given DB handle.
func NewGormChannelStore(db *gorm.DB) *GormChannelStore {
	return &GormChannelStore{db: db}
}

// Get implements ChannelStore.
func (s *GormChannelStore) Get(ctx context.Context, id string) (*model.Channel, error) {
	var ch model.Channel
	err := s.db.WithContext(ctx).
		Preload("Destinations").
		Preload("ConnectedChannels").
		Where("id = ?", id).
		First(&ch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrChannelNotFound
		}
		return nil, err
	}
	return &ch, nil
}

// List implements ChannelStore.
func (s *GormChannelStore) List(ctx context.Context) ([]model.Channel, error) {
	var out []model.Channel
	err := s.db.WithContext(ctx).Preload("Destinations").Order("created_at").Find(&out).Error
	return out, err
}

// Create implements ChannelStore.
func (s *GormChannelStore) Create(ctx context.Context, ch *model.Channel) error {
	return s.db.WithContext(ctx).Create(ch).Error
}

// SetMode implements ChannelStore.
func (s *GormChannelStore) SetMode(ctx context.Context, id string, mode model.ChannelMode) error {
	return s.update(ctx, id, map[string]interface{}{"mode": string(mode)})
}

// SetBroadcastState implements ChannelStore.
func (s *GormChannelStore) SetBroadcastState(ctx context.Context, id, state string) error {
	return s.update(ctx, id, map[string]interface{}{"broadcast_state": state})
}

// SetPlaybackPath implements ChannelStore.
func (s *GormChannelStore) SetPlaybackPath(ctx context.Context, id, path string) error {
	return s.update(ctx, id, map[string]interface{}{"playback_path": path})
}

// SetLiveText implements ChannelStore.
func (s *GormChannelStore) SetLiveText(ctx context.Context, id, text string) error {
	return s.update(ctx, id, map[string]interface{}{"live_text": text})
}

func (s *GormChannelStore) update(ctx context.Context, id string, fields map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&model.Channel{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrChannelNotFound
	}
	return nil
}

// ReplaceDestinations implements ChannelStore: the full destination collection
// is swapped in one transaction.
func (s *GormChannelStore) ReplaceDestinations(ctx context.Context, id string, dests []model.Destination) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("channel_id = ?", id).Delete(&model.Destination{}).Error; err != nil {
			return err
		}
		for i := range dests {
			dests[i].ChannelID = id
		}
		if len(dests) == 0 {
			return nil
		}
		return tx.Create(&dests).Error
	})
}

// AddConnectedChannel implements ChannelStore.
func (s *GormChannelStore) AddConnectedChannel(ctx context.Context, id string, cc model.ConnectedChannel) error {
	cc.ChannelID = id
	return s.db.WithContext(ctx).Create(&cc).Error
}

// GormSlotStore persists slots and programs in Postgres.
type GormSlotStore struct {
	db *gorm.DB
}

// NewGormSlotStore creates a slot store over the given DB handle.
func NewGormSlotStore(db *gorm.DB) *GormSlotStore {
	return &GormSlotStore{db: db}
}

// Current implements SlotStore.
func (s *GormSlotStore) Current(ctx context.Context, channelID string, now time.Time) (*model.Slot, error) {
	var slots []model.Slot
	err := s.db.WithContext(ctx).
		Preload("Programs", func(db *gorm.DB) *gorm.DB { return db.Order("start_at") }).
		Preload("Overlays").
		Where("channel_id = ? AND start_at <= ? AND end_at > ?", channelID, now, now).
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	switch len(slots) {
	case 0:
		return nil, nil
	case 1:
		return &slots[0], nil
	default:
		return nil, errs.ErrSlotInvariant
	}
}

// Create implements SlotStore.
func (s *GormSlotStore) Create(ctx context.Context, slot *model.Slot) error {
	return s.db.WithContext(ctx).Create(slot).Error
}

// MarkPushed implements SlotStore.
func (s *GormSlotStore) MarkPushed(ctx context.Context, slotID string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&model.Slot{}).
		Where("id = ?", slotID).
		Update("pushed_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrSlotNotFound
	}
	return nil
}

// SavePrograms implements SlotStore.
func (s *GormSlotStore) SavePrograms(ctx context.Context, programs []model.Program) error {
	if len(programs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&programs).Error
}
