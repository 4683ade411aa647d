package scorer

import (
	"math"
	"time"

	"github.com/elonfeng/hypefinder/pkg/source"
)

// Modifier names as reported in AppliedModifier.
const (
	ModifierRecency       = "recency"
	ModifierCrossPlatform = "cross_platform"
	ModifierEngagement    = "engagement"
	ModifierConfidence    = "confidence"
	ModifierVelocity      = "velocity"
	ModifierSpike         = "spike"
)

// AppliedModifier records one multiplier applied to a ticker's base score.
type AppliedModifier struct {
	Name   string  `json:"name"`
	Factor float64 `json:"factor"`
}

// modifierInput is everything a modifier may look at for one ticker.
type modifierInput struct {
	posts     []source.Post
	volume    VolumeMetrics
	sentiment SentimentResult
	now       time.Time
}

// modifier returns the factor to multiply the score by, or false when it
// does not apply to this ticker.
type modifier struct {
	name   string
	factor func(m ModifierConfig, in modifierInput) (float64, bool)
}

// modifierChain builds the ordered list of modifiers enabled by cfg. The
// confidence, velocity and spike modifiers are always on.
func modifierChain(cfg Config) []modifier {
	var chain []modifier
	if cfg.RecencyBoost {
		chain = append(chain, modifier{ModifierRecency, recencyFactor})
	}
	if cfg.CrossPlatformBonus {
		chain = append(chain, modifier{ModifierCrossPlatform, crossPlatformFactor})
	}
	if cfg.EngagementMultiplier {
		chain = append(chain, modifier{ModifierEngagement, engagementFactor})
	}
	return append(chain,
		modifier{ModifierConfidence, confidenceFactor},
		modifier{ModifierVelocity, velocityFactor},
		modifier{ModifierSpike, spikeFactor},
	)
}

// applyScoreModifiers folds the chain over base and returns the final score
// with the modifiers that fired, in order.
func applyScoreModifiers(chain []modifier, m ModifierConfig, base float64, in modifierInput) (float64, []AppliedModifier) {
	score := base
	var applied []AppliedModifier
	for _, mod := range chain {
		f, ok := mod.factor(m, in)
		if !ok {
			continue
		}
		score *= f
		applied = append(applied, AppliedModifier{Name: mod.name, Factor: f})
	}
	return score, applied
}

// recencyFactor ranges over [0.5, 1.5]: 0.5 plus the mean exponential
// freshness of the posts. Without any parsable timestamp it is 1.0.
func recencyFactor(m ModifierConfig, in modifierInput) (float64, bool) {
	var sum float64
	n := 0
	for _, p := range in.posts {
		ts, ok := p.Time()
		if !ok {
			continue
		}
		sum += math.Exp(-hoursSince(in.now, ts) / m.RecencyDecayHours)
		n++
	}
	if n == 0 {
		return 1.0, true
	}
	return 0.5 + sum/float64(n), true
}

func crossPlatformFactor(m ModifierConfig, in modifierInput) (float64, bool) {
	platforms := distinctSources(in.posts)
	if platforms <= 1 {
		return 1.0, false
	}
	return 1 + m.CrossPlatformStep*float64(platforms-1), true
}

func engagementFactor(m ModifierConfig, in modifierInput) (float64, bool) {
	if len(in.posts) == 0 {
		return 1.0, false
	}
	var total float64
	for _, p := range in.posts {
		total += p.EngagementScore
	}
	avg := total / float64(len(in.posts))
	return 1 + math.Min(avg/100, m.EngagementCap), true
}

func confidenceFactor(m ModifierConfig, in modifierInput) (float64, bool) {
	return m.ConfidenceBase + m.ConfidenceSpan*in.sentiment.Confidence, true
}

func velocityFactor(m ModifierConfig, in modifierInput) (float64, bool) {
	v := in.volume.VelocityPerHour
	if v <= m.VelocityThreshold {
		return 1.0, false
	}
	return 1 + math.Min(v/10, m.VelocityCap), true
}

func spikeFactor(m ModifierConfig, in modifierInput) (float64, bool) {
	s := in.volume.SpikeRatio
	if s <= m.SpikeThreshold {
		return 1.0, false
	}
	return 1 + math.Min((s-1)/5, m.SpikeCap), true
}

func distinctSources(posts []source.Post) int {
	seen := make(map[source.SourceType]struct{})
	for _, p := range posts {
		seen[p.Source] = struct{}{}
	}
	return len(seen)
}
