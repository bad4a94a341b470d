package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	assert.Equal(t, Period7d, ParsePeriod("7d"))
	assert.Equal(t, Period12m, ParsePeriod("12m"))
	assert.Equal(t, Period30d, ParsePeriod(""))
	assert.Equal(t, Period30d, ParsePeriod("1y"))
	assert.Equal(t, Period30d, ParsePeriod("24h"), "24h is not a dashboard period")
	assert.Equal(t, Period24h, parseProxyPeriod("24h"))
	assert.Equal(t, Period30d, parseProxyPeriod("bogus"))
}

func TestBucketCounts(t *testing.T) {
	now := time.Date(2026, 10, 16, 14, 30, 0, 0, time.UTC)
	want := map[Period]int{Period7d: 7, Period30d: 30, Period90d: 90, Period12m: 12}
	for _, p := range ReportingPeriods {
		t.Run(string(p), func(t *testing.T) {
			assert.Equal(t, want[p], p.BucketCount())
			assert.Len(t, p.Buckets(now), want[p])
		})
	}
}

func TestDailyBuckets(t *testing.T) {
	now := time.Date(2026, 10, 16, 14, 30, 0, 0, time.UTC) // Friday
	b := Period7d.Buckets(now)
	require.Len(t, b, 7)

	assert.Equal(t, "2026-10-10", b[0].Key)
	assert.Equal(t, "2026-10-16", b[6].Key)
	assert.Equal(t, "16. říj", b[6].Label)
	assert.True(t, b[0].Weekend, "10 Oct 2026 is a Saturday")
	assert.True(t, b[1].Weekend, "11 Oct 2026 is a Sunday")
	assert.False(t, b[2].Weekend)
}

func TestMonthlyBuckets(t *testing.T) {
	now := time.Date(2026, 3, 31, 10, 0, 0, 0, time.UTC)
	b := Period12m.Buckets(now)
	require.Len(t, b, 12)

	assert.Equal(t, "2025-04", b[0].Key)
	assert.Equal(t, "2026-02", b[10].Key, "month arithmetic must not overflow on the 31st")
	assert.Equal(t, "2026-03", b[11].Key)
	assert.Equal(t, "bře 26", b[11].Label)
	for _, bucket := range b {
		assert.False(t, bucket.Weekend)
	}
}

func TestRangeAndGranularity(t *testing.T) {
	now := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	from, to := Period7d.Range(now)
	assert.Equal(t, now, to)
	assert.Equal(t, 7*24*time.Hour, to.Sub(from))

	assert.Equal(t, "hour", Period24h.Granularity())
	assert.Equal(t, "hour", Period7d.Granularity())
	assert.Equal(t, "day", Period30d.Granularity())
	assert.Equal(t, "day", Period90d.Granularity())
	assert.Equal(t, "month", Period12m.Granularity())
	assert.Equal(t, 365, Period12m.Days())
}
