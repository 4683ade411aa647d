package scorer

import (
	"math"
	"time"

	"github.com/elonfeng/hypefinder/pkg/parser"
	"github.com/elonfeng/hypefinder/pkg/source"
)

// Composite weights of the normalized volume sub-metrics.
const (
	rawVolumeWeight      = 0.20
	weightedVolumeWeight = 0.25
	timeVolumeWeight     = 0.25
	velocityWeight       = 0.15
	spikeWeight          = 0.15

	crossPlatformVolumeStep = 0.2
)

// VolumeMetrics is the volume breakdown for one ticker.
type VolumeMetrics struct {
	RawMentions          int            `json:"raw_mentions"`
	WeightedVolume       float64        `json:"weighted_volume"`
	TimeWeightedVolume   float64        `json:"time_weighted_volume"`
	VelocityPerHour      float64        `json:"velocity_per_hour"`
	SpikeRatio           float64        `json:"spike_ratio"`
	CrossPlatformBoost   float64        `json:"cross_platform_boost"`
	TotalEngagement      float64        `json:"total_engagement"`
	UniqueAuthors        int            `json:"unique_authors"`
	PlatformDistribution map[string]int `json:"platform_distribution"`

	NormRaw          float64 `json:"norm_raw"`
	NormWeighted     float64 `json:"norm_weighted"`
	NormTimeWeighted float64 `json:"norm_time_weighted"`
	NormVelocity     float64 `json:"norm_velocity"`
	NormSpike        float64 `json:"norm_spike"`

	// Score is the composite volume score, already multiplied by
	// CrossPlatformBoost.
	Score float64 `json:"score"`
}

// VolumeScorer measures how loudly each ticker is being discussed.
type VolumeScorer struct {
	cfg VolumeConfig
}

// NewVolumeScorer creates a volume scorer.
func NewVolumeScorer(cfg VolumeConfig) *VolumeScorer {
	return &VolumeScorer{cfg: cfg}
}

// Score computes volume metrics for every ticker in the group. Sub-metrics are
// normalized across the whole group, so a ticker's score depends on its peers.
func (v *VolumeScorer) Score(group *parser.TickerPostGroup, now time.Time) map[string]VolumeMetrics {
	tickers := group.Tickers()
	if len(tickers) == 0 {
		return map[string]VolumeMetrics{}
	}

	metrics := make(map[string]VolumeMetrics, len(tickers))
	for _, t := range tickers {
		metrics[t] = v.measure(group.Posts(t), now)
	}

	normRaw := normalize(tickers, metrics, func(m VolumeMetrics) float64 { return float64(m.RawMentions) })
	normWeighted := normalize(tickers, metrics, func(m VolumeMetrics) float64 { return m.WeightedVolume })
	normTime := normalize(tickers, metrics, func(m VolumeMetrics) float64 { return m.TimeWeightedVolume })
	normVelocity := normalize(tickers, metrics, func(m VolumeMetrics) float64 { return m.VelocityPerHour })
	normSpike := normalize(tickers, metrics, func(m VolumeMetrics) float64 { return m.SpikeRatio })

	for _, t := range tickers {
		m := metrics[t]
		m.NormRaw = normRaw[t]
		m.NormWeighted = normWeighted[t]
		m.NormTimeWeighted = normTime[t]
		m.NormVelocity = normVelocity[t]
		m.NormSpike = normSpike[t]

		composite := m.NormRaw*rawVolumeWeight +
			m.NormWeighted*weightedVolumeWeight +
			m.NormTimeWeighted*timeVolumeWeight +
			m.NormVelocity*velocityWeight +
			m.NormSpike*spikeWeight
		m.Score = composite * m.CrossPlatformBoost
		metrics[t] = m
	}
	return metrics
}

// measure computes the raw, un-normalized metrics of one ticker's posts.
func (v *VolumeScorer) measure(posts []source.Post, now time.Time) VolumeMetrics {
	m := VolumeMetrics{
		RawMentions:          len(posts),
		PlatformDistribution: make(map[string]int),
	}

	authors := make(map[string]struct{})
	buckets := make(map[time.Time]int)
	recent := 0

	for _, p := range posts {
		w := v.postWeight(p)
		m.WeightedVolume += w

		decay := 1.0
		if ts, ok := p.Time(); ok {
			hours := hoursSince(now, ts)
			decay = math.Pow(v.cfg.TimeDecayFactor, hours)
			if hours <= v.cfg.VelocityWindowHours {
				recent++
			}
			buckets[ts.Truncate(time.Hour)]++
		}
		m.TimeWeightedVolume += w * decay

		m.TotalEngagement += p.EngagementScore
		m.PlatformDistribution[string(p.Source)]++
		authors[p.Author] = struct{}{}
	}

	m.VelocityPerHour = float64(recent) / v.cfg.VelocityWindowHours
	m.SpikeRatio = spikeRatio(buckets)
	m.CrossPlatformBoost = 1 + crossPlatformVolumeStep*float64(len(m.PlatformDistribution)-1)
	m.UniqueAuthors = len(authors)
	return m
}

// postWeight is the source weight scaled by the engagement multiplier.
func (v *VolumeScorer) postWeight(p source.Post) float64 {
	return v.cfg.sourceWeight(p.Source) * (1 + v.cfg.EngagementWeight*p.EngagementScore/100)
}

// spikeRatio compares the busiest hour with the mean of all non-empty hours.
// Fewer than two non-empty hours carry no spike information.
func spikeRatio(buckets map[time.Time]int) float64 {
	if len(buckets) < 2 {
		return 0
	}
	total, peak := 0, 0
	for _, n := range buckets {
		total += n
		peak = max(peak, n)
	}
	mean := float64(total) / float64(len(buckets))
	return float64(peak) / mean
}

// normalize min-max scales one sub-metric across tickers. When every ticker
// has the same value they all get 1.0.
func normalize(tickers []string, metrics map[string]VolumeMetrics, value func(VolumeMetrics) float64) map[string]float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, t := range tickers {
		x := value(metrics[t])
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}

	out := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		if hi == lo {
			out[t] = 1.0
			continue
		}
		out[t] = (value(metrics[t]) - lo) / (hi - lo)
	}
	return out
}

// hoursSince returns the age of ts in hours. Timestamps in the future count
// as brand new.
func hoursSince(now, ts time.Time) float64 {
	return math.Max(0, now.Sub(ts).Hours())
}
