package dashboard

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/montaze/analytics"
	"github.com/eringen/montaze/inquiry"
)

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) // Friday

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeSource serves canned payloads. Groups in fail return a status error;
// periods in gate block until their channel is closed.
type fakeSource struct {
	fail map[analytics.Group]bool
	gate map[analytics.Period]chan struct{}
	rows []analytics.Row

	mu    sync.Mutex
	calls int
}

func (f *fakeSource) Fetch(ctx context.Context, p analytics.Period, g analytics.Group) (analytics.Payload, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if ch, ok := f.gate[p]; ok {
		select {
		case <-ch:
		case <-ctx.Done():
			return analytics.Payload{}, ctx.Err()
		}
	}
	if f.fail[g] {
		return analytics.Payload{}, &analytics.StatusError{Group: g, Code: 502}
	}
	switch g {
	case analytics.GroupTimeseries:
		return analytics.Payload{Data: f.rows}, nil
	case analytics.GroupPages:
		return analytics.Payload{Data: []analytics.Row{
			{"key": "/kontakt", "visitors": 4},
			{"key": "/", "visitors": 10},
		}}, nil
	case analytics.GroupReferrers:
		return analytics.Payload{Data: []analytics.Row{
			{"key": "google.com", "visitors": 7},
			{"key": "", "visitors": 3},
		}}, nil
	case analytics.GroupDevices:
		return analytics.Payload{Data: []analytics.Row{
			{"key": "desktop", "visitors": 2},
			{"key": "mobile", "visitors": 5},
		}}, nil
	}
	return analytics.Payload{}, nil
}

func newTestLoader(src AnalyticsSource) *AnalyticsLoader {
	return NewAnalyticsLoader(src, quietLogger(), WithSeed(42), WithClock(func() time.Time { return fixedNow }))
}

func newTestSync(src AnalyticsSource, store InquirySource) *Synchronizer {
	return NewSynchronizer(newTestLoader(src), NewInquiryLoader(store, quietLogger()), quietLogger())
}

func newTestStore(t *testing.T) *inquiry.Store {
	t.Helper()
	store, err := inquiry.NewStore(filepath.Join(t.TempDir(), "inquiries.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var admin = Session{Authenticated: true}

func TestLoadSeriesLengthPerPeriod(t *testing.T) {
	l := newTestLoader(&fakeSource{rows: []analytics.Row{{"key": "2026-10-16", "visitors": 1, "pageViews": 2}}})
	want := map[analytics.Period]int{
		analytics.Period7d:  7,
		analytics.Period30d: 30,
		analytics.Period90d: 90,
		analytics.Period12m: 12,
	}
	for _, p := range analytics.ReportingPeriods {
		t.Run(string(p), func(t *testing.T) {
			res := l.Load(context.Background(), p)
			assert.False(t, res.Synthetic)
			assert.Len(t, res.Traffic, want[p])
		})
	}
}

func TestLoadBucketsTimeseriesRows(t *testing.T) {
	l := newTestLoader(&fakeSource{rows: []analytics.Row{
		{"key": "2026-10-16", "visitors": 3, "pageViews": 5},
		{"key": "2026-10-15T00:00:00.000Z", "uniques": 2, "hits": 4},
		{"timestamp": "1760486400000", "visitors": 1, "pageViews": 1}, // 2025-10-15
		{"key": "2026-10-14T00:00:00Z", "visitors": 1},
		{"key": "1999-01-01", "visitors": 99},
		{"key": "garbage", "visitors": 99},
	}})

	res := l.Load(context.Background(), analytics.Period7d)
	require.Len(t, res.Traffic, 7)
	assert.Equal(t, TrafficPoint{Label: "16. říj", Visitors: 3, Pageviews: 5}, res.Traffic[6])
	assert.Equal(t, TrafficPoint{Label: "15. říj", Visitors: 2, Pageviews: 4}, res.Traffic[5])
	assert.Equal(t, TrafficPoint{Label: "14. říj", Visitors: 1, Pageviews: 0}, res.Traffic[4])
	v, pv := res.Traffic.Totals()
	assert.Equal(t, 6, v)
	assert.Equal(t, 9, pv)
}

func TestLoadSumsHourlyRowsIntoDays(t *testing.T) {
	l := newTestLoader(&fakeSource{rows: []analytics.Row{
		{"key": "2026-10-16T09:00:00.000Z", "visitors": 2, "pageViews": 3},
		{"key": "2026-10-16T13:00:00.000Z", "visitors": 1, "pageViews": 2},
		{"key": "2026-10-15T23:00:00Z", "visitors": 4, "pageViews": 4},
	}})

	res := l.Load(context.Background(), analytics.Period7d)
	require.Len(t, res.Traffic, 7)
	assert.Equal(t, TrafficPoint{Label: "16. říj", Visitors: 3, Pageviews: 5}, res.Traffic[6])
	assert.Equal(t, TrafficPoint{Label: "15. říj", Visitors: 4, Pageviews: 4}, res.Traffic[5])
}

func TestLoadMonthlyBuckets(t *testing.T) {
	l := newTestLoader(&fakeSource{rows: []analytics.Row{
		{"key": "2026-10-01", "visitors": 5, "pageViews": 8},
		{"key": "2026-10-16", "visitors": 1, "pageViews": 1},
		{"key": "2025-11", "visitors": 2, "pageViews": 3},
	}})

	res := l.Load(context.Background(), analytics.Period12m)
	require.Len(t, res.Traffic, 12)
	assert.Equal(t, TrafficPoint{Label: "říj 26", Visitors: 6, Pageviews: 9}, res.Traffic[11])
	assert.Equal(t, TrafficPoint{Label: "lis 25", Visitors: 2, Pageviews: 3}, res.Traffic[0])
}

func TestLoadDimensions(t *testing.T) {
	res := newTestLoader(&fakeSource{}).Load(context.Background(), analytics.Period30d)

	assert.Equal(t, []DimensionStat{{Name: "/", Count: 10}, {Name: "/kontakt", Count: 4}}, res.Pages)
	assert.Equal(t, []DimensionStat{{Name: "google.com", Count: 7}, {Name: "Přímý přístup", Count: 3}}, res.Referrers)
	assert.Equal(t, []DimensionStat{{Name: "Mobil", Count: 5}, {Name: "Desktop", Count: 2}}, res.Devices)
}

func TestLoadFallsBackToSyntheticData(t *testing.T) {
	src := &fakeSource{fail: map[analytics.Group]bool{
		analytics.GroupTimeseries: true,
		analytics.GroupPages:      true,
		analytics.GroupReferrers:  true,
		analytics.GroupDevices:    true,
	}}
	res := newTestLoader(src).Load(context.Background(), analytics.Period30d)

	assert.True(t, res.Synthetic)
	assert.Len(t, res.Traffic, 30)
	assert.Nil(t, res.Pages)
	assert.Nil(t, res.Referrers)
	assert.Nil(t, res.Devices)
	assert.Equal(t, 4, src.calls)
}

func TestLoadWithoutSourceIsSynthetic(t *testing.T) {
	res := newTestLoader(nil).Load(context.Background(), analytics.Period("1y"))
	assert.Equal(t, analytics.Period30d, res.Period)
	assert.True(t, res.Synthetic)
	assert.Len(t, res.Traffic, 30)
}

func TestSyntheticSeedIsReproducible(t *testing.T) {
	a := NewGenerator(7).Series(analytics.Period90d, fixedNow)
	b := NewGenerator(7).Series(analytics.Period90d, fixedNow)
	c := NewGenerator(8).Series(analytics.Period90d, fixedNow)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestSyntheticSeriesBounds(t *testing.T) {
	buckets := analytics.Period90d.Buckets(fixedNow)
	for seed := uint64(0); seed < 50; seed++ {
		s := NewGenerator(seed).Series(analytics.Period90d, fixedNow)
		require.Len(t, s, len(buckets))
		for i, p := range s {
			vMin, vMax, pvMin, pvMax := visitorsMin, visitorsMax, pageviewsMin, pageviewsMax
			if buckets[i].Weekend {
				vMin, vMax = int(visitorsMin*weekendFactor), int(visitorsMax*weekendFactor)
				pvMin, pvMax = int(pageviewsMin*weekendFactor), int(pageviewsMax*weekendFactor)
			}
			assert.GreaterOrEqual(t, p.Visitors, vMin)
			assert.LessOrEqual(t, p.Visitors, vMax)
			assert.GreaterOrEqual(t, p.Pageviews, pvMin)
			assert.LessOrEqual(t, p.Pageviews, pvMax)
		}
	}
}

func TestNewSynchronizerStartsWithDemoData(t *testing.T) {
	s := newTestSync(nil, nil)
	vm := s.Snapshot()

	assert.Equal(t, analytics.Period30d, s.Period())
	assert.Len(t, vm.Traffic, 30)
	assert.Equal(t, Demo{Traffic: true, Pages: true, Referrers: true, Devices: true, Inquiries: true}, vm.Demo)
	assert.Equal(t, demoReferrers, vm.Referrers)
	assert.Equal(t, demoDevices, vm.Devices)
	assert.Equal(t, 34, vm.KPIs.InquiryCount)
	assert.Positive(t, vm.KPIs.TotalVisitors)
	assert.Positive(t, vm.KPIs.PagesPerVisit)
}

func TestSetPeriodAppliesAnalytics(t *testing.T) {
	s := newTestSync(&fakeSource{
		fail: map[analytics.Group]bool{analytics.GroupReferrers: true},
		rows: []analytics.Row{{"key": "2026-10-16", "visitors": 4, "pageViews": 10}},
	}, nil)

	<-s.SetPeriod(context.Background(), admin, analytics.Period7d)
	vm := s.Snapshot()

	assert.Equal(t, analytics.Period7d, vm.Period)
	assert.Len(t, vm.Traffic, 7)
	assert.False(t, vm.Demo.Traffic)
	assert.Equal(t, KPIs{TotalVisitors: 4, TotalPageviews: 10, PagesPerVisit: 2.5, InquiryCount: 34}, vm.KPIs)

	assert.True(t, vm.Demo.Referrers, "failed group keeps demo data")
	assert.Equal(t, demoReferrers, vm.Referrers)
	assert.False(t, vm.Demo.Devices)
	assert.Equal(t, "Mobil", vm.Devices[0].Name)
}

func TestSetPeriodTimeseriesFailureKeepsKPIsNumeric(t *testing.T) {
	s := newTestSync(&fakeSource{fail: map[analytics.Group]bool{analytics.GroupTimeseries: true}}, nil)

	<-s.SetPeriod(context.Background(), admin, analytics.Period90d)
	vm := s.Snapshot()

	assert.True(t, vm.Demo.Traffic)
	assert.Len(t, vm.Traffic, 90)
	v, pv := vm.Traffic.Totals()
	assert.Equal(t, v, vm.KPIs.TotalVisitors)
	assert.Equal(t, pv, vm.KPIs.TotalPageviews)
	assert.Equal(t, pagesPerVisit(v, pv), vm.KPIs.PagesPerVisit)
}

func TestSetPeriodInvalidFallsBack(t *testing.T) {
	s := newTestSync(nil, nil)
	<-s.SetPeriod(context.Background(), admin, analytics.Period7d)
	<-s.SetPeriod(context.Background(), admin, analytics.Period("5y"))
	assert.Equal(t, analytics.Period30d, s.Period())
	assert.Len(t, s.Snapshot().Traffic, 30)
}

func TestStaleAnalyticsAreDiscarded(t *testing.T) {
	release := make(chan struct{})
	src := &fakeSource{gate: map[analytics.Period]chan struct{}{analytics.Period7d: release}}
	s := newTestSync(src, nil)

	slow := s.SetPeriod(context.Background(), admin, analytics.Period7d)
	<-s.SetPeriod(context.Background(), admin, analytics.Period90d)
	close(release)
	<-slow

	vm := s.Snapshot()
	assert.Equal(t, analytics.Period90d, s.Period())
	assert.Equal(t, analytics.Period90d, vm.Period)
	assert.Len(t, vm.Traffic, 90)
}

func TestRefreshReloadsSelectedPeriod(t *testing.T) {
	src := &fakeSource{}
	s := newTestSync(src, nil)
	<-s.SetPeriod(context.Background(), admin, analytics.Period12m)
	<-s.Refresh(context.Background(), admin)

	assert.Equal(t, 8, src.calls)
	assert.Len(t, s.Snapshot().Traffic, 12)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := newTestSync(nil, nil)
	vm := s.Snapshot()
	vm.Traffic[0].Visitors = -1
	vm.Services["CCTV"] = 0
	again := s.Snapshot()
	assert.NotEqual(t, -1, again.Traffic[0].Visitors)
	assert.Equal(t, 12, again.Services["CCTV"])
}

func seedInquiries(t *testing.T, store *inquiry.Store, n int) []inquiry.Inquiry {
	t.Helper()
	services := []string{"CCTV", "EPS", ""}
	out := make([]inquiry.Inquiry, 0, n)
	for i := 0; i < n; i++ {
		inq, err := store.Create(context.Background(), inquiry.Submission{
			Name:    "Jan Novák",
			Email:   "jan@example.cz",
			Phone:   "+420 777 123 456",
			Service: services[i%len(services)],
		})
		require.NoError(t, err)
		out = append(out, inq)
	}
	return out
}

func TestUnauthenticatedInquiryLoadIsNoop(t *testing.T) {
	store := newTestStore(t)
	seedInquiries(t, store, 2)
	s := newTestSync(nil, store)

	<-s.SetPeriod(context.Background(), Session{}, analytics.Period7d)
	vm := s.Snapshot()
	assert.True(t, vm.Demo.Inquiries)
	assert.Empty(t, vm.Inquiries)
	assert.Equal(t, 34, vm.KPIs.InquiryCount)

	assert.ErrorIs(t, s.MarkRead(context.Background(), Session{}, "x"), ErrUnauthenticated)
}

func TestInquiryLoadAndMarkRead(t *testing.T) {
	store := newTestStore(t)
	created := seedInquiries(t, store, 3)
	s := newTestSync(nil, store)

	<-s.SetPeriod(context.Background(), admin, analytics.Period30d)
	vm := s.Snapshot()
	require.Len(t, vm.Inquiries, 3)
	assert.False(t, vm.Demo.Inquiries)
	assert.Equal(t, 3, vm.KPIs.InquiryCount)
	assert.Equal(t, 3, vm.KPIs.NewInquiries)
	assert.Equal(t, inquiry.Histogram{"CCTV": 1, "EPS": 1, inquiry.OtherService: 1}, vm.Services)

	target := created[1].ID
	require.NoError(t, s.MarkRead(context.Background(), admin, target))

	vm = s.Snapshot()
	assert.Equal(t, 3, vm.KPIs.InquiryCount)
	assert.Equal(t, 2, vm.KPIs.NewInquiries)
	for _, it := range vm.Inquiries {
		if it.ID == target {
			assert.Equal(t, inquiry.StatusRead, it.Status)
			assert.NotNil(t, it.UpdatedAt)
		} else {
			assert.Equal(t, inquiry.StatusNew, it.Status)
		}
	}
}

func TestMarkReadUnknownIDLeavesViewModel(t *testing.T) {
	store := newTestStore(t)
	seedInquiries(t, store, 1)
	s := newTestSync(nil, store)
	<-s.SetPeriod(context.Background(), admin, analytics.Period30d)

	err := s.MarkRead(context.Background(), admin, "missing")
	assert.ErrorIs(t, err, inquiry.ErrNotFound)
	assert.Equal(t, 1, s.Snapshot().KPIs.NewInquiries)
}

func TestInquiryLoaderCapsRecentList(t *testing.T) {
	store := newTestStore(t)
	seedInquiries(t, store, RecentInquiries+5)

	res, ok := NewInquiryLoader(store, quietLogger()).Load(context.Background(), admin)
	require.True(t, ok)
	assert.Len(t, res.Items, RecentInquiries)
	assert.Equal(t, RecentInquiries+5, res.Total)
	assert.Equal(t, RecentInquiries+5, res.New)
}
