package dashboard

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Widget names, also used as chart element IDs.
const (
	WidgetTraffic  = "traffic"
	WidgetSources  = "sources"
	WidgetDevices  = "devices"
	WidgetServices = "services"
)

// WidgetNames lists every widget in display order.
var WidgetNames = []string{WidgetTraffic, WidgetSources, WidgetDevices, WidgetServices}

// ErrUnknownWidget is returned by Render for names not in WidgetNames.
var ErrUnknownWidget = errors.New("dashboard: unknown widget")

const defaultChartHeight = "320px"

// WidgetOptions configures chart construction.
type WidgetOptions struct {
	AssetsHost string // echarts script location; library default when empty
	Height     string
}

// Widgets holds the dashboard's charts for one view model.
type Widgets struct {
	Traffic  *charts.Line
	Sources  *charts.Pie
	Devices  *charts.Pie
	Services *charts.Bar
}

// NewWidgets builds every chart from vm. Chart IDs are fixed so rendering the
// same view model twice gives identical output.
func NewWidgets(vm ViewModel, o WidgetOptions) *Widgets {
	if o.Height == "" {
		o.Height = defaultChartHeight
	}
	return &Widgets{
		Traffic:  trafficChart(vm, o),
		Sources:  pieChart(WidgetSources, "Zdroje návštěv", vm.Referrers, o),
		Devices:  pieChart(WidgetDevices, "Zařízení", vm.Devices, o),
		Services: servicesChart(vm, o),
	}
}

// Render writes the named chart as a standalone HTML page.
func (w *Widgets) Render(name string, out io.Writer) error {
	var r interface{ Render(io.Writer) error }
	switch name {
	case WidgetTraffic:
		r = w.Traffic
	case WidgetSources:
		r = w.Sources
	case WidgetDevices:
		r = w.Devices
	case WidgetServices:
		r = w.Services
	default:
		return fmt.Errorf("%w: %q", ErrUnknownWidget, name)
	}
	return r.Render(out)
}

func globalOptions(id, title string, o WidgetOptions, tooltip opts.Tooltip) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		PageTitle: title,
		ChartID:   id,
		Width:     "100%",
		Height:    o.Height,
	}
	if o.AssetsHost != "" {
		initOpts.AssetsHost = o.AssetsHost
	}
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
		charts.WithTooltipOpts(tooltip),
	}
}

func trafficChart(vm ViewModel, o WidgetOptions) *charts.Line {
	labels := make([]string, len(vm.Traffic))
	visitors := make([]opts.LineData, len(vm.Traffic))
	pageviews := make([]opts.LineData, len(vm.Traffic))
	for i, p := range vm.Traffic {
		labels[i] = p.Label
		visitors[i] = opts.LineData{Value: p.Visitors}
		pageviews[i] = opts.LineData{Value: p.Pageviews}
	}
	line := charts.NewLine()
	line.SetGlobalOptions(globalOptions(WidgetTraffic, "Návštěvnost", o, opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"})...)
	line.SetXAxis(labels).
		AddSeries("Návštěvníci", visitors).
		AddSeries("Zobrazení", pageviews)
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return line
}

func pieChart(id, title string, stats []DimensionStat, o WidgetOptions) *charts.Pie {
	data := make([]opts.PieData, len(stats))
	for i, s := range stats {
		data[i] = opts.PieData{Name: chartLabel(s.Name), Value: s.Count}
	}
	pie := charts.NewPie()
	pie.SetGlobalOptions(globalOptions(id, title, o, opts.Tooltip{Show: opts.Bool(true), Trigger: "item"})...)
	pie.AddSeries(title, data, charts.WithPieChartOpts(opts.PieChart{Radius: []string{"45%", "70%"}}))
	return pie
}

func servicesChart(vm ViewModel, o WidgetOptions) *charts.Bar {
	entries := vm.Services.Sorted()
	names := make([]string, len(entries))
	data := make([]opts.BarData, len(entries))
	for i, e := range entries {
		names[i] = chartLabel(e.Service)
		data[i] = opts.BarData{Value: e.Count}
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOptions(WidgetServices, "Poptávky podle služby", o, opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"})...)
	bar.SetXAxis(names).AddSeries("Poptávky", data)
	return bar
}

// chart options are written unescaped into a <script> block, so labels that
// can come from visitors lose their angle brackets.
var chartLabelReplacer = strings.NewReplacer("<", "", ">", "")

func chartLabel(s string) string {
	return chartLabelReplacer.Replace(s)
}
