package scorer

import (
	"errors"
	"fmt"

	"github.com/elonfeng/hypefinder/pkg/source"
)

// ErrInvalidConfig is returned by New when the configuration breaks a
// contract the scorer relies on.
var ErrInvalidConfig = errors.New("invalid scorer config")

// Config holds every tunable the hype scorer reads. It is resolved once by the
// caller and never re-read during a scan.
type Config struct {
	VolumeWeight           float64 `yaml:"volume_weight" json:"volume_weight"`
	SentimentWeight        float64 `yaml:"sentiment_weight" json:"sentiment_weight"`
	MinMentions            int     `yaml:"min_mentions" json:"min_mentions"`
	TopN                   int     `yaml:"top_n" json:"top_n"`
	MinSentimentConfidence float64 `yaml:"min_sentiment_confidence" json:"min_sentiment_confidence"`
	RecencyBoost           bool    `yaml:"recency_boost" json:"recency_boost"`
	CrossPlatformBonus     bool    `yaml:"cross_platform_bonus" json:"cross_platform_bonus"`
	EngagementMultiplier   bool    `yaml:"engagement_multiplier" json:"engagement_multiplier"`

	Volume    VolumeConfig   `yaml:"volume" json:"volume"`
	Modifiers ModifierConfig `yaml:"modifiers" json:"modifiers"`
}

// VolumeConfig tunes the volume scorer.
type VolumeConfig struct {
	TimeDecayFactor     float64                       `yaml:"time_decay_factor" json:"time_decay_factor"`
	EngagementWeight    float64                       `yaml:"engagement_weight" json:"engagement_weight"`
	SourceWeights       map[source.SourceType]float64 `yaml:"source_weights" json:"source_weights"`
	VelocityWindowHours float64                       `yaml:"velocity_window_hours" json:"velocity_window_hours"`
}

// ModifierConfig holds the constants of the post-combination multipliers.
type ModifierConfig struct {
	RecencyDecayHours float64 `yaml:"recency_decay_hours" json:"recency_decay_hours"`
	CrossPlatformStep float64 `yaml:"cross_platform_step" json:"cross_platform_step"`
	EngagementCap     float64 `yaml:"engagement_cap" json:"engagement_cap"`
	ConfidenceBase    float64 `yaml:"confidence_base" json:"confidence_base"`
	ConfidenceSpan    float64 `yaml:"confidence_span" json:"confidence_span"`
	VelocityThreshold float64 `yaml:"velocity_threshold" json:"velocity_threshold"`
	VelocityCap       float64 `yaml:"velocity_cap" json:"velocity_cap"`
	SpikeThreshold    float64 `yaml:"spike_threshold" json:"spike_threshold"`
	SpikeCap          float64 `yaml:"spike_cap" json:"spike_cap"`
}

// DefaultSourceWeights returns the reference per-platform weights. Sources not
// listed weigh 1.0.
func DefaultSourceWeights() map[source.SourceType]float64 {
	return map[source.SourceType]float64{
		source.SourceTwitter:       1.0,
		source.SourceReddit:        1.2,
		source.SourceRedditComment: 0.8,
	}
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{
		VolumeWeight:           0.7,
		SentimentWeight:        0.3,
		MinMentions:            5,
		TopN:                   20,
		MinSentimentConfidence: 0.1,
		RecencyBoost:           true,
		CrossPlatformBonus:     true,
		EngagementMultiplier:   true,
		Volume: VolumeConfig{
			TimeDecayFactor:     0.9,
			EngagementWeight:    0.3,
			SourceWeights:       DefaultSourceWeights(),
			VelocityWindowHours: 4,
		},
		Modifiers: ModifierConfig{
			RecencyDecayHours: 12,
			CrossPlatformStep: 0.15,
			EngagementCap:     0.5,
			ConfidenceBase:    0.8,
			ConfidenceSpan:    0.4,
			VelocityThreshold: 2.0,
			VelocityCap:       0.3,
			SpikeThreshold:    1.5,
			SpikeCap:          0.25,
		},
	}
}

// Validate checks the configuration contract.
func (c Config) Validate() error {
	switch {
	case c.VolumeWeight < 0 || c.SentimentWeight < 0:
		return fmt.Errorf("%w: weights must be non-negative", ErrInvalidConfig)
	case c.VolumeWeight+c.SentimentWeight == 0:
		return fmt.Errorf("%w: volume and sentiment weights are both zero", ErrInvalidConfig)
	case c.MinMentions < 1:
		return fmt.Errorf("%w: min_mentions must be at least 1, got %d", ErrInvalidConfig, c.MinMentions)
	case c.TopN < 1:
		return fmt.Errorf("%w: top_n must be positive, got %d", ErrInvalidConfig, c.TopN)
	case c.MinSentimentConfidence < 0 || c.MinSentimentConfidence > 1:
		return fmt.Errorf("%w: min_sentiment_confidence must be within [0,1]", ErrInvalidConfig)
	}

	v := c.Volume
	switch {
	case v.TimeDecayFactor <= 0 || v.TimeDecayFactor > 1:
		return fmt.Errorf("%w: time_decay_factor must be within (0,1], got %g", ErrInvalidConfig, v.TimeDecayFactor)
	case v.EngagementWeight < 0:
		return fmt.Errorf("%w: engagement_weight must be non-negative", ErrInvalidConfig)
	case v.VelocityWindowHours <= 0:
		return fmt.Errorf("%w: velocity_window_hours must be positive", ErrInvalidConfig)
	}
	for src, w := range v.SourceWeights {
		if w < 0 {
			return fmt.Errorf("%w: source weight for %q is negative", ErrInvalidConfig, src)
		}
	}

	m := c.Modifiers
	switch {
	case m.RecencyDecayHours <= 0:
		return fmt.Errorf("%w: recency_decay_hours must be positive", ErrInvalidConfig)
	case m.CrossPlatformStep < 0 || m.EngagementCap < 0 || m.VelocityCap < 0 || m.SpikeCap < 0:
		return fmt.Errorf("%w: modifier caps and steps must be non-negative", ErrInvalidConfig)
	case m.ConfidenceBase < 0 || m.ConfidenceSpan < 0:
		return fmt.Errorf("%w: confidence modifier must be non-negative", ErrInvalidConfig)
	}
	return nil
}

func (v VolumeConfig) sourceWeight(s source.SourceType) float64 {
	if w, ok := v.SourceWeights[s]; ok {
		return w
	}
	return 1.0
}
