package model

import (
	"time"

	"github.com/lib/pq"
)

// Channel is a broadcast pipeline with exactly one active mode at a time (GORM).
type Channel struct {
	ID                 string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name               string         `gorm:"size:128;not null"`
	MediaSpaceID       string         `gorm:"size:64;not null;index"`
	Mode               string         `gorm:"size:20;not null;default:ended"` // ended, live_feed, broadcast
	BroadcastState     string         `gorm:"size:20;not null;default:stopped"` // running, stopped
	SlotLength         int            `gorm:"not null;default:3600"` // seconds
	BroadcastStreamKey string         `gorm:"size:64;not null"`
	LiveFeedStreamKey  string         `gorm:"size:64;not null"`
	BroadcastURL       string         `gorm:"size:256"`
	LiveFeedURL        string         `gorm:"size:256"`
	PlaybackPath       string         `gorm:"size:256"`
	LiveText           string         `gorm:"size:512"`
	FillerCategories   pq.StringArray `gorm:"type:text[]"`
	FillerTags         pq.StringArray `gorm:"type:text[]"`
	CreatedAt          time.Time      `gorm:"autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime"`

	Destinations      []Destination      `gorm:"foreignKey:ChannelID"`
	ConnectedChannels []ConnectedChannel `gorm:"foreignKey:ChannelID"`
}

func (Channel) TableName() string { return "channels" }

// Destination is an external relay target owned by a channel (GORM).
type Destination struct {
	ID                string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChannelID         string    `gorm:"type:uuid;not null;index"`
	Kind              string    `gorm:"size:20;not null"` // generic, partner_platform
	Name              string    `gorm:"size:128;not null"`
	Type              string    `gorm:"size:20;not null;default:broadcast"` // broadcast, live_feed
	URL               string    `gorm:"size:512"` // generic only
	StreamID          string    `gorm:"size:64"`  // partner remote live-stream object id
	Key               string    `gorm:"size:256;not null"`
	Platform          string    `gorm:"size:32"` // which partner base URL to use
	PlatformChannelID string    `gorm:"size:64"` // owning connected channel, partner only
	Username          string    `gorm:"size:128"`
	Enabled           bool      `gorm:"not null;default:true"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

func (Destination) TableName() string { return "destinations" }

// ConnectedChannel is a partner-platform channel authorized to receive this
// channel's output (GORM).
type ConnectedChannel struct {
	ID                string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChannelID         string    `gorm:"type:uuid;not null;index"`
	PlatformChannelID string    `gorm:"size:64;not null"`
	Platform          string    `gorm:"size:32;not null"`
	AccessToken       string    `gorm:"size:256;not null"`
	AccountAddress    string    `gorm:"size:128"`
	Username          string    `gorm:"size:128"`
	Enabled           bool      `gorm:"not null;default:true"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
}

func (ConnectedChannel) TableName() string { return "connected_channels" }

// Slot is a fixed programming window belonging to a channel (GORM).
type Slot struct {
	ID        string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChannelID string     `gorm:"type:uuid;not null;index"`
	Name      string     `gorm:"size:128;not null"`
	StartAt   time.Time  `gorm:"not null;index"`
	EndAt     time.Time  `gorm:"not null;index"`
	PushedAt  *time.Time `gorm:"column:pushed_at"` // set once a timeline has been handed off

	Programs []Program `gorm:"foreignKey:SlotID"`
	Overlays []Overlay `gorm:"foreignKey:SlotID"`
}

func (Slot) TableName() string { return "slots" }

// Program is one scheduled entry in a slot's timeline (GORM).
type Program struct {
	ID         string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChannelID  string    `gorm:"type:uuid;not null;index"`
	SlotID     string    `gorm:"type:uuid;not null;index"`
	StartAt    time.Time `gorm:"not null;index"`
	EndAt      time.Time `gorm:"not null"`
	Source     string    `gorm:"size:20;not null;default:content"` // content, ad, filler
	AssetID    string    `gorm:"size:64;not null"`
	AssetStart float64   `gorm:"not null;default:0"` // trim window within the asset, seconds
	AssetEnd   float64   `gorm:"not null;default:0"`
	Generated  bool      `gorm:"not null;default:false"` // inserted by the composer
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (Program) TableName() string { return "programs" }

// Overlay is a repeating image overlay defined on a slot (GORM).
// The derived PTS list is not persisted; it lives only in the handed-off playout.
type Overlay struct {
	ID             string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SlotID         string    `gorm:"type:uuid;not null;index"`
	MediaPath      string    `gorm:"size:512;not null"`
	StartAt        time.Time `gorm:"not null"`
	RepeatInterval int       `gorm:"not null;default:0"` // seconds, 0 = no repeat
	RepeatCount    int       `gorm:"not null;default:0"` // additional occurrences, 0 = unbounded
}

func (Overlay) TableName() string { return "overlays" }
