// Package catalogue is the read-only view of the media catalogue: playable
// assets and the filler pool the timeline composer draws from.
package catalogue

import "context"

// Asset is a playable catalogue entry. Duration is the encoded length in seconds.
type Asset struct {
	ID          string
	Name        string
	Category    string
	Tags        []string
	Duration    float64
	EncodedPath string
	Thumbnail   string
	IsAd        bool
}

// Resolvable reports whether the asset can actually be played out.
func (a Asset) Resolvable() bool { return a.EncodedPath != "" }

// Store provides read access to encoded catalogue assets.
type Store interface {
	// FindFillerCandidates returns encoded assets matching any of the given
	// categories or any of the given tags. Nil/empty filters match nothing.
	FindFillerCandidates(ctx context.Context, categories, tags []string) ([]Asset, error)
	// Lookup returns the asset with the given id, or nil if it does not exist
	// or has no completed encode.
	Lookup(ctx context.Context, id string) (*Asset, error)
}
