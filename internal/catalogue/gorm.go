package catalogue

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// assetRow is the GORM entity behind the catalogue view. Only assets with a
// completed encode are visible through the Store.
type assetRow struct {
	ID           string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string         `gorm:"size:256;not null"`
	Category     string         `gorm:"size:64;index"`
	Tags         pq.StringArray `gorm:"type:text[]"`
	Duration     float64        `gorm:"not null;default:0"`
	EncodeStatus string         `gorm:"size:20;not null;default:pending"`
	EncodedPath  string         `gorm:"size:512"`
	Thumbnail    string         `gorm:"size:512"`
	IsAd         bool           `gorm:"not null;default:false"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
}

func (assetRow) TableName() string { return "assets" }

// GormStore reads catalogue assets from Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a catalogue store over the given DB handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// FindFillerCandidates implements Store.
func (s *GormStore) FindFillerCandidates(ctx context.Context, categories, tags []string) ([]Asset, error) {
	if len(categories) == 0 && len(tags) == 0 {
		return nil, nil
	}
	q := s.db.WithContext(ctx).Where("encode_status = ?", "complete")
	switch {
	case len(categories) > 0 && len(tags) > 0:
		q = q.Where("category IN ? OR tags && ?", categories, pq.StringArray(tags))
	case len(categories) > 0:
		q = q.Where("category IN ?", categories)
	default:
		q = q.Where("tags && ?", pq.StringArray(tags))
	}
	var rows []assetRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Asset, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowToAsset(r))
	}
	return out, nil
}

// Lookup implements Store.
func (s *GormStore) Lookup(ctx context.Context, id string) (*Asset, error) {
	var row assetRow
	err := s.db.WithContext(ctx).
		Where("id = ? AND encode_status = ?", id, "complete").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	a := rowToAsset(row)
	return &a, nil
}

func rowToAsset(r assetRow) Asset {
	return Asset{
		ID:          r.ID,
		Name:        r.Name,
		Category:    r.Category,
		Tags:        r.Tags,
		Duration:    r.Duration,
		EncodedPath: r.EncodedPath,
		Thumbnail:   r.Thumbnail,
		IsAd:        r.IsAd,
	}
}
