package schedule

import (
	"math/rand"
	"time"

	"github.com/molla202/broadcast-service/internal/catalogue"
	"github.com/molla202/broadcast-service/internal/model"
	"go.uber.org/zap"
)

// PlanEntry is one already-scheduled content/ad program of a slot, resolved
// against the catalogue. Asset is nil when the referenced asset is missing or
// has no completed encode. AssetStart/AssetEnd trim within the asset, seconds.
type PlanEntry struct {
	Source     string
	Asset      *catalogue.Asset
	AssetStart float64
	AssetEnd   float64
}

// Window is the slot window being composed.
type Window struct {
	Name    string
	StartAt time.Time
	EndAt   time.Time
}

// Length returns the window length in whole seconds.
func (w Window) Length() float64 { return w.EndAt.Sub(w.StartAt).Seconds() }

// Result is the output of Compose. GeneratedFillers is the subset of Timeline
// that was drawn from the filler pool and still needs to be persisted.
type Result struct {
	Timeline         []model.TimelineEntry
	GeneratedFillers []model.TimelineEntry
	Overlays         []model.OverlayInstance
}

// Composer builds gap-free slot timelines from a content plan plus filler.
type Composer struct {
	rng *rand.Rand
	log *zap.Logger
}

// NewComposer creates a composer. rng drives filler draws; pass a seeded
// source in tests for determinism.
func NewComposer(rng *rand.Rand, log *zap.Logger) *Composer {
	return &Composer{rng: rng, log: log}
}

// Compose walks the content plan in order, then pads the remainder of the
// window with randomly drawn fillers, and resolves overlay PTS. A plan entry
// whose asset cannot be resolved contributes nothing and does not advance the
// cursor; the slice it would have covered is closed by the filler pass. With
// no content and no fillers the timeline comes out shorter than the window;
// that is expected behavior, not an error.
func (c *Composer) Compose(window Window, plan []PlanEntry, fillers []catalogue.Asset, slotOverlays, defaultOverlays []OverlaySpec) Result {
	var res Result
	slotLen := window.Length()
	elapsed := 0.0

	for _, entry := range plan {
		if elapsed >= slotLen {
			break
		}
		if entry.Asset == nil || !entry.Asset.Resolvable() {
			continue
		}
		dur := entry.AssetEnd - entry.AssetStart
		if dur <= 0 {
			continue
		}
		res.Timeline = append(res.Timeline, model.TimelineEntry{
			StartAt: window.StartAt.Add(secondsDur(elapsed)),
			EndAt:   window.StartAt.Add(secondsDur(elapsed + dur)),
			Source:  entry.Source,
			Asset: model.TimelineAsset{
				ID:         entry.Asset.ID,
				Name:       entry.Asset.Name,
				Category:   entry.Asset.Category,
				Path:       entry.Asset.EncodedPath,
				Duration:   dur,
				AssetStart: entry.AssetStart,
				AssetEnd:   entry.AssetEnd,
				IsAd:       entry.Source == "ad" || entry.Asset.IsAd,
				Thumbnail:  entry.Asset.Thumbnail,
			},
		})
		elapsed += dur
	}

	pool := usableFillers(fillers)
	for len(pool) > 0 && slotLen-elapsed >= 1 {
		filler := pool[c.rng.Intn(len(pool))]
		trim := filler.Duration
		if elapsed+trim > slotLen {
			trim = slotLen - elapsed
		}
		entry := model.TimelineEntry{
			StartAt: window.StartAt.Add(secondsDur(elapsed)),
			EndAt:   window.StartAt.Add(secondsDur(elapsed + trim)),
			Source:  "filler",
			Asset: model.TimelineAsset{
				ID:         filler.ID,
				Name:       filler.Name,
				Category:   filler.Category,
				Path:       filler.EncodedPath,
				Duration:   trim,
				AssetStart: 0,
				AssetEnd:   trim,
				Thumbnail:  filler.Thumbnail,
			},
		}
		res.Timeline = append(res.Timeline, entry)
		res.GeneratedFillers = append(res.GeneratedFillers, entry)
		elapsed += trim
	}

	if elapsed < slotLen {
		c.log.Info("composed timeline shorter than slot window",
			zap.String("slot", window.Name),
			zap.Float64("covered_seconds", elapsed),
			zap.Float64("slot_seconds", slotLen))
	}

	res.Overlays = c.resolveOverlays(window, slotOverlays, defaultOverlays)
	return res
}

func (c *Composer) resolveOverlays(window Window, slotOverlays, defaults []OverlaySpec) []model.OverlayInstance {
	specs := slotOverlays
	if len(specs) == 0 {
		// Default overlays have no anchor of their own: the k-th one starts
		// k+1 minutes into the slot.
		specs = make([]OverlaySpec, len(defaults))
		for k, d := range defaults {
			d.StartAt = window.StartAt.Add(time.Duration(k+1) * time.Minute)
			specs[k] = d
		}
	}
	out := make([]model.OverlayInstance, 0, len(specs))
	for _, spec := range specs {
		if spec.MediaPath == "" {
			continue
		}
		out = append(out, model.OverlayInstance{
			MediaPath: spec.MediaPath,
			PTS:       Schedule(spec.StartAt, spec.RepeatInterval, spec.RepeatCount, window.EndAt),
			Position:  model.Position{X: 0, Y: 0},
		})
	}
	return out
}

// usableFillers drops assets that cannot fill anything; a zero-duration filler
// would otherwise never close the gap.
func usableFillers(fillers []catalogue.Asset) []catalogue.Asset {
	out := make([]catalogue.Asset, 0, len(fillers))
	for _, f := range fillers {
		if f.Resolvable() && f.Duration > 0 {
			out = append(out, f)
		}
	}
	return out
}

func secondsDur(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
