package dashboard

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/eringen/montaze/analytics"
)

// Synthetic traffic bounds per bucket.
const (
	visitorsMin  = 60
	visitorsMax  = 140
	pageviewsMin = 150
	pageviewsMax = 380

	weekendFactor = 0.6
)

// Generator produces plausible placeholder traffic when real data is unavailable.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator whose output is fully determined by seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Walk returns one value per bucket following a random walk clamped to
// [min, max]. Weekend buckets are scaled down after clamping.
func (g *Generator) Walk(buckets []analytics.Bucket, min, max int) []int {
	span := float64(max - min)
	prev := float64(min+max) / 2
	out := make([]int, len(buckets))
	for i, b := range buckets {
		step := math.Floor(g.rng.Float64()*span*0.4) - span*0.2
		prev = math.Min(float64(max), math.Max(float64(min), prev+step))
		v := prev
		if b.Weekend {
			v *= weekendFactor
		}
		out[i] = int(math.Floor(v))
	}
	return out
}

// Series builds a synthetic traffic series for period p ending at now.
func (g *Generator) Series(p analytics.Period, now time.Time) TrafficSeries {
	buckets := p.Buckets(now)
	visitors := g.Walk(buckets, visitorsMin, visitorsMax)
	pageviews := g.Walk(buckets, pageviewsMin, pageviewsMax)
	out := make(TrafficSeries, len(buckets))
	for i, b := range buckets {
		out[i] = TrafficPoint{Label: b.Label, Visitors: visitors[i], Pageviews: pageviews[i]}
	}
	return out
}
