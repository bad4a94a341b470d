package dashboard

import (
	"maps"
	"math"
	"slices"

	"github.com/eringen/montaze/analytics"
	"github.com/eringen/montaze/inquiry"
)

// TrafficPoint is one bucket of the traffic chart.
type TrafficPoint struct {
	Label     string
	Visitors  int
	Pageviews int
}

// TrafficSeries is ordered oldest first and always has one point per period bucket.
type TrafficSeries []TrafficPoint

// Totals sums visitors and pageviews across the series.
func (s TrafficSeries) Totals() (visitors, pageviews int) {
	for _, p := range s {
		visitors += p.Visitors
		pageviews += p.Pageviews
	}
	return visitors, pageviews
}

// DimensionStat is a named count such as a page path or a referrer.
type DimensionStat struct {
	Name  string
	Count int
}

// KPIs are the headline numbers above the charts.
type KPIs struct {
	TotalVisitors  int
	TotalPageviews int
	PagesPerVisit  float64
	InquiryCount   int
	NewInquiries   int
}

// Demo records which sections still show fallback data.
type Demo struct {
	Traffic   bool
	Pages     bool
	Referrers bool
	Devices   bool
	Inquiries bool
}

// ViewModel is everything the dashboard renders.
type ViewModel struct {
	Period    analytics.Period
	Traffic   TrafficSeries
	Pages     []DimensionStat
	Referrers []DimensionStat
	Devices   []DimensionStat
	Inquiries []inquiry.Inquiry
	Services  inquiry.Histogram
	KPIs      KPIs
	Demo      Demo
}

var (
	demoReferrers = []DimensionStat{
		{Name: "Přímý přístup", Count: 42},
		{Name: "Google", Count: 31},
		{Name: "Sociální sítě", Count: 18},
		{Name: "Ostatní", Count: 9},
	}
	demoDevices = []DimensionStat{
		{Name: "Mobil", Count: 58},
		{Name: "Desktop", Count: 34},
		{Name: "Tablet", Count: 8},
	}
	demoServices = inquiry.Histogram{
		"CCTV":        12,
		"EPS":         8,
		"PZTS":        5,
		"Loxone":      4,
		"Wi-Fi":       3,
		"Videozvonky": 2,
	}
)

// newDemoViewModel returns the fallback view model shown before any load completes.
func newDemoViewModel(p analytics.Period, traffic TrafficSeries) ViewModel {
	vm := ViewModel{
		Period:    p,
		Traffic:   traffic,
		Referrers: slices.Clone(demoReferrers),
		Devices:   slices.Clone(demoDevices),
		Services:  maps.Clone(demoServices),
		Demo:      Demo{Traffic: true, Pages: true, Referrers: true, Devices: true, Inquiries: true},
	}
	for _, n := range demoServices {
		vm.KPIs.InquiryCount += n
	}
	vm.recomputeTraffic()
	return vm
}

// recomputeTraffic refreshes the traffic KPIs from the series in place.
func (vm *ViewModel) recomputeTraffic() {
	v, pv := vm.Traffic.Totals()
	vm.KPIs.TotalVisitors = v
	vm.KPIs.TotalPageviews = pv
	vm.KPIs.PagesPerVisit = pagesPerVisit(v, pv)
}

func pagesPerVisit(visitors, pageviews int) float64 {
	if visitors <= 0 {
		return 0
	}
	return math.Round(float64(pageviews)/float64(visitors)*100) / 100
}

// clone returns a deep copy safe to hand to another goroutine.
func (vm ViewModel) clone() ViewModel {
	out := vm
	out.Traffic = slices.Clone(vm.Traffic)
	out.Pages = slices.Clone(vm.Pages)
	out.Referrers = slices.Clone(vm.Referrers)
	out.Devices = slices.Clone(vm.Devices)
	out.Inquiries = slices.Clone(vm.Inquiries)
	out.Services = maps.Clone(vm.Services)
	return out
}
