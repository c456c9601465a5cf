package catalogue

import (
	"context"
	"math/rand"
)

// FillerRule is a channel's filler selection rule.
type FillerRule struct {
	Categories []string
	Tags       []string
}

// Fallback categories used when neither tags nor configured categories match.
var (
	musicCategories = []string{"music"}
	sceneCategories = []string{"scene", "scenes"}
)

// Pool selects filler-eligible assets from the catalogue with an ordered
// fallback chain: tag match, then category match, then the fixed "music"
// category, then "scene"/"scenes". The selected tier is shuffled so repeated
// slots do not play fillers in catalogue order.
type Pool struct {
	store Store
	rng   *rand.Rand
}

// NewPool creates a filler pool over the given catalogue store.
func NewPool(store Store, rng *rand.Rand) *Pool {
	return &Pool{store: store, rng: rng}
}

// Fillers returns the shuffled filler candidates for the rule. An empty result
// is not an error: the composer then produces a short timeline.
func (p *Pool) Fillers(ctx context.Context, rule FillerRule) ([]Asset, error) {
	tiers := [][2][]string{
		{nil, rule.Tags},
		{rule.Categories, nil},
		{musicCategories, nil},
		{sceneCategories, nil},
	}
	for _, tier := range tiers {
		categories, tags := tier[0], tier[1]
		if len(categories) == 0 && len(tags) == 0 {
			continue
		}
		assets, err := p.store.FindFillerCandidates(ctx, categories, tags)
		if err != nil {
			return nil, err
		}
		if len(assets) > 0 {
			p.shuffle(assets)
			return assets, nil
		}
	}
	return nil, nil
}

func (p *Pool) shuffle(assets []Asset) {
	p.rng.Shuffle(len(assets), func(i, j int) {
		assets[i], assets[j] = assets[j], assets[i]
	})
}
