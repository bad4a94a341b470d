// Package analytics proxies the upstream web-analytics API and provides the
// reporting-period arithmetic shared by the proxy and the dashboard.
package analytics

import (
	"fmt"
	"time"
)

// Period is a reporting window.
type Period string

const (
	Period24h Period = "24h" // proxy only; not selectable on the dashboard
	Period7d  Period = "7d"
	Period30d Period = "30d"
	Period90d Period = "90d"
	Period12m Period = "12m"
)

// DefaultPeriod is used whenever a period value is missing or unknown.
const DefaultPeriod = Period30d

// ReportingPeriods lists the periods selectable on the dashboard.
var ReportingPeriods = []Period{Period7d, Period30d, Period90d, Period12m}

// Valid reports whether p is one of the dashboard reporting periods.
func (p Period) Valid() bool {
	switch p {
	case Period7d, Period30d, Period90d, Period12m:
		return true
	}
	return false
}

// ParsePeriod returns the reporting period named by s, or DefaultPeriod.
func ParsePeriod(s string) Period {
	if p := Period(s); p.Valid() {
		return p
	}
	return DefaultPeriod
}

// parseProxyPeriod is ParsePeriod plus the 24h window the proxy also serves.
func parseProxyPeriod(s string) Period {
	if Period(s) == Period24h {
		return Period24h
	}
	return ParsePeriod(s)
}

// Days returns the span of the period in days.
func (p Period) Days() int {
	switch p {
	case Period24h:
		return 1
	case Period7d:
		return 7
	case Period90d:
		return 90
	case Period12m:
		return 365
	default:
		return 30
	}
}

// Monthly reports whether the period is bucketed per month.
func (p Period) Monthly() bool {
	return p == Period12m
}

// BucketCount is the number of points a traffic series has for p.
func (p Period) BucketCount() int {
	if p.Monthly() {
		return 12
	}
	return p.Days()
}

// Granularity is the upstream timeseries resolution for p.
func (p Period) Granularity() string {
	days := p.Days()
	switch {
	case days <= 7:
		return "hour"
	case days <= 90:
		return "day"
	default:
		return "month"
	}
}

// Range returns the window [now - span, now].
func (p Period) Range(now time.Time) (from, to time.Time) {
	return now.Add(-time.Duration(p.Days()) * 24 * time.Hour), now
}

// Bucket is one point on a traffic chart's x axis.
type Bucket struct {
	Key     string // "2006-01-02" or "2006-01"
	Label   string // Czech short date
	Start   time.Time
	Weekend bool
}

var czechMonths = [...]string{"led", "úno", "bře", "dub", "kvě", "čvn", "čvc", "srp", "zář", "říj", "lis", "pro"}

// Buckets returns the period's x-axis buckets, oldest first, ending at now.
// len(Buckets) == BucketCount always.
func (p Period) Buckets(now time.Time) []Bucket {
	n := p.BucketCount()
	out := make([]Bucket, 0, n)
	if p.Monthly() {
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		for i := n - 1; i >= 0; i-- {
			m := first.AddDate(0, -i, 0)
			out = append(out, Bucket{
				Key:   p.BucketKey(m),
				Label: fmt.Sprintf("%s %02d", czechMonths[m.Month()-1], m.Year()%100),
				Start: m,
			})
		}
		return out
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for i := n - 1; i >= 0; i-- {
		d := day.AddDate(0, 0, -i)
		wd := d.Weekday()
		out = append(out, Bucket{
			Key:     p.BucketKey(d),
			Label:   fmt.Sprintf("%d. %s", d.Day(), czechMonths[d.Month()-1]),
			Start:   d,
			Weekend: wd == time.Saturday || wd == time.Sunday,
		})
	}
	return out
}

// BucketKey returns the key of the bucket containing t.
func (p Period) BucketKey(t time.Time) string {
	if p.Monthly() {
		return t.Format("2006-01")
	}
	return t.Format("2006-01-02")
}
