package dashboard

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eringen/montaze/analytics"
)

// topN caps the dimension lists shown on the dashboard.
const topN = 10

// AnalyticsSource fetches one metric group for a period.
// *analytics.Client satisfies it.
type AnalyticsSource interface {
	Fetch(ctx context.Context, p analytics.Period, g analytics.Group) (analytics.Payload, error)
}

// dashboardGroups are the groups the dashboard loads, one request each.
var dashboardGroups = []analytics.Group{
	analytics.GroupTimeseries,
	analytics.GroupPages,
	analytics.GroupReferrers,
	analytics.GroupDevices,
}

// AnalyticsResult is the outcome of one analytics load. A nil dimension
// slice means that group failed and the previous data should stay.
type AnalyticsResult struct {
	Period    analytics.Period
	Traffic   TrafficSeries
	Synthetic bool
	Pages     []DimensionStat
	Referrers []DimensionStat
	Devices   []DimensionStat
}

// AnalyticsLoader loads the analytics sections of the dashboard.
type AnalyticsLoader struct {
	source AnalyticsSource
	log    logrus.FieldLogger
	now    func() time.Time
	seed   *uint64
}

// LoaderOption configures an AnalyticsLoader.
type LoaderOption func(*AnalyticsLoader)

// WithSeed makes synthetic fallback data reproducible.
func WithSeed(seed uint64) LoaderOption {
	return func(l *AnalyticsLoader) {
		l.seed = &seed
	}
}

// WithClock overrides the loader's time source.
func WithClock(now func() time.Time) LoaderOption {
	return func(l *AnalyticsLoader) {
		l.now = now
	}
}

// NewAnalyticsLoader creates a loader. A nil source always yields synthetic data.
func NewAnalyticsLoader(source AnalyticsSource, log logrus.FieldLogger, opts ...LoaderOption) *AnalyticsLoader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	l := &AnalyticsLoader{source: source, log: log, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// generator returns the synthetic data generator for one load.
func (l *AnalyticsLoader) generator() *Generator {
	if l.seed != nil {
		return NewGenerator(*l.seed)
	}
	return NewGenerator(uint64(time.Now().UnixNano()))
}

// Synthetic returns placeholder traffic for p.
func (l *AnalyticsLoader) Synthetic(p analytics.Period) TrafficSeries {
	return l.generator().Series(p, l.now())
}

// Load fetches every dashboard group for p in parallel. Failures are logged
// and never returned: a failed timeseries becomes synthetic data and a failed
// dimension group is left nil.
func (l *AnalyticsLoader) Load(ctx context.Context, p analytics.Period) AnalyticsResult {
	if !p.Valid() {
		p = analytics.DefaultPeriod
	}
	now := l.now()
	res := AnalyticsResult{Period: p}

	payloads := make(map[analytics.Group]analytics.Payload, len(dashboardGroups))
	if l.source != nil {
		var (
			wg sync.WaitGroup
			mu sync.Mutex
		)
		for _, g := range dashboardGroups {
			wg.Add(1)
			go func(g analytics.Group) {
				defer wg.Done()
				payload, err := l.source.Fetch(ctx, p, g)
				if err != nil {
					l.log.WithError(err).WithFields(logrus.Fields{"group": g, "period": p}).Warn("analytics group failed")
					return
				}
				mu.Lock()
				payloads[g] = payload
				mu.Unlock()
			}(g)
		}
		wg.Wait()
	}

	if payload, ok := payloads[analytics.GroupTimeseries]; ok {
		res.Traffic = bucketSeries(p, now, analytics.Normalize(payload.Data))
	} else {
		res.Traffic = l.generator().Series(p, now)
		res.Synthetic = true
	}
	if payload, ok := payloads[analytics.GroupPages]; ok {
		res.Pages = dimensionStats(analytics.Normalize(payload.Data), nil, "")
	}
	if payload, ok := payloads[analytics.GroupReferrers]; ok {
		res.Referrers = dimensionStats(analytics.Normalize(payload.Data), nil, "Přímý přístup")
	}
	if payload, ok := payloads[analytics.GroupDevices]; ok {
		res.Devices = dimensionStats(analytics.Normalize(payload.Data), deviceNames, "")
	}
	return res
}

// bucketSeries sums points onto the period's buckets. Points whose key does
// not fall into any bucket are dropped.
func bucketSeries(p analytics.Period, now time.Time, points []analytics.Point) TrafficSeries {
	buckets := p.Buckets(now)
	index := make(map[string]int, len(buckets))
	out := make(TrafficSeries, len(buckets))
	for i, b := range buckets {
		index[b.Key] = i
		out[i].Label = b.Label
	}
	for _, pt := range points {
		key, ok := bucketKey(p, pt.Key, now.Location())
		if !ok {
			continue
		}
		i, ok := index[key]
		if !ok {
			continue
		}
		out[i].Visitors += pt.Visitors
		out[i].Pageviews += pt.Pageviews
	}
	return out
}

// bucketKey maps an upstream timeseries key (date, RFC 3339 timestamp,
// year-month or epoch milliseconds) to a bucket key of p.
func bucketKey(p analytics.Period, raw string, loc *time.Location) (string, bool) {
	if len(raw) >= 12 {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return p.BucketKey(time.UnixMilli(ms).In(loc)), true
		}
	}
	if len(raw) >= 10 {
		if t, err := time.Parse(time.DateOnly, raw[:10]); err == nil {
			return p.BucketKey(t), true
		}
	}
	if t, err := time.Parse("2006-01", raw); err == nil {
		return p.BucketKey(t), true
	}
	return "", false
}

var deviceNames = map[string]string{
	"mobile":  "Mobil",
	"desktop": "Desktop",
	"tablet":  "Tablet",
}

// dimensionStats converts points to named counts, largest first, capped at
// topN. Visitors are preferred, pageviews count when visitors are absent.
// An empty key takes emptyName or is skipped.
func dimensionStats(points []analytics.Point, rename map[string]string, emptyName string) []DimensionStat {
	out := make([]DimensionStat, 0, len(points))
	for _, pt := range points {
		name := pt.Key
		if name == "" {
			if emptyName == "" {
				continue
			}
			name = emptyName
		}
		if r, ok := rename[name]; ok {
			name = r
		}
		n := pt.Visitors
		if n == 0 {
			n = pt.Pageviews
		}
		out = append(out, DimensionStat{Name: name, Count: n})
	}
	slices.SortStableFunc(out, func(a, b DimensionStat) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}
