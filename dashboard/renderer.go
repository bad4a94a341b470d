package dashboard

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/eringen/montaze/analytics"
	"github.com/eringen/montaze/inquiry"
	"github.com/eringen/montaze/views"
)

var periodLabels = map[analytics.Period]string{
	analytics.Period7d:  "7 dní",
	analytics.Period30d: "30 dní",
	analytics.Period90d: "90 dní",
	analytics.Period12m: "12 měsíců",
}

// Renderer turns a ViewModel into HTML. It holds no state between calls.
type Renderer struct {
	ChartPath string         // prefix of the chart frame URLs, default "/admin/charts/"
	Location  *time.Location // inquiry timestamps, default UTC
}

// Dashboard renders the dashboard body for vm.
func (r Renderer) Dashboard(vm ViewModel, csrfToken string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		p := message.NewPrinter(language.Czech)
		buf.WriteString(`<div class="dashboard">`)
		r.writeToolbar(&buf, vm, csrfToken)
		r.writeKPIs(&buf, p, vm)
		r.writeCharts(&buf, vm)
		r.writePages(&buf, p, vm)
		r.writeInquiries(&buf, vm, csrfToken)
		buf.WriteString(`</div>`)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func (r Renderer) writeToolbar(buf *bytes.Buffer, vm ViewModel, csrfToken string) {
	buf.WriteString(`<div class="toolbar"><h1>Přehled</h1><form method="get" action="/admin/" class="period"><select name="period">`)
	for _, p := range analytics.ReportingPeriods {
		buf.WriteString(`<option value="`)
		buf.WriteString(string(p))
		buf.WriteString(`"`)
		if p == vm.Period {
			buf.WriteString(` selected`)
		}
		buf.WriteString(`>`)
		buf.WriteString(periodLabels[p])
		buf.WriteString(`</option>`)
	}
	buf.WriteString(`</select><button type="submit">Zobrazit</button></form>`)
	buf.WriteString(`<form method="post" action="/admin/refresh/">`)
	buf.WriteString(views.CSRFField(csrfToken))
	buf.WriteString(`<input type="hidden" name="period" value="`)
	buf.WriteString(templ.EscapeString(string(vm.Period)))
	buf.WriteString(`"/><button type="submit">Obnovit</button></form>`)
	buf.WriteString(`<form method="post" action="/admin/logout/">`)
	buf.WriteString(views.CSRFField(csrfToken))
	buf.WriteString(`<button type="submit">Odhlásit</button></form></div>`)
}

func (r Renderer) writeKPIs(buf *bytes.Buffer, p *message.Printer, vm ViewModel) {
	k := vm.KPIs
	buf.WriteString(`<section class="kpis">`)
	kpiTile(buf, "Návštěvníci", p.Sprintf("%d", k.TotalVisitors), vm.Demo.Traffic)
	kpiTile(buf, "Zobrazení stránek", p.Sprintf("%d", k.TotalPageviews), vm.Demo.Traffic)
	kpiTile(buf, "Stránek na návštěvu", p.Sprintf("%.2f", k.PagesPerVisit), vm.Demo.Traffic)
	kpiTile(buf, "Poptávky", p.Sprintf("%d", k.InquiryCount), vm.Demo.Inquiries)
	kpiTile(buf, "Nové poptávky", p.Sprintf("%d", k.NewInquiries), vm.Demo.Inquiries)
	buf.WriteString(`</section>`)
}

func kpiTile(buf *bytes.Buffer, label, value string, demo bool) {
	buf.WriteString(`<div class="kpi`)
	if demo {
		buf.WriteString(` demo`)
	}
	buf.WriteString(`"><span class="kpi-label">`)
	buf.WriteString(label)
	buf.WriteString(`</span><strong class="kpi-value">`)
	buf.WriteString(templ.EscapeString(value))
	buf.WriteString(`</strong></div>`)
}

func (r Renderer) writeCharts(buf *bytes.Buffer, vm ViewModel) {
	base := r.ChartPath
	if base == "" {
		base = "/admin/charts/"
	}
	demo := map[string]bool{
		WidgetTraffic:  vm.Demo.Traffic,
		WidgetSources:  vm.Demo.Referrers,
		WidgetDevices:  vm.Demo.Devices,
		WidgetServices: vm.Demo.Inquiries,
	}
	buf.WriteString(`<section class="charts">`)
	for _, name := range WidgetNames {
		buf.WriteString(`<figure class="chart`)
		if demo[name] {
			buf.WriteString(` demo`)
		}
		buf.WriteString(`"><iframe src="`)
		buf.WriteString(templ.EscapeString(base + name + "/?period=" + string(vm.Period)))
		buf.WriteString(`" title="`)
		buf.WriteString(name)
		buf.WriteString(`" loading="lazy"></iframe>`)
		if demo[name] {
			buf.WriteString(`<figcaption>Ukázková data</figcaption>`)
		}
		buf.WriteString(`</figure>`)
	}
	buf.WriteString(`</section>`)
}

func (r Renderer) writePages(buf *bytes.Buffer, p *message.Printer, vm ViewModel) {
	buf.WriteString(`<section class="pages"><h2>Nejnavštěvovanější stránky</h2>`)
	if len(vm.Pages) == 0 {
		buf.WriteString(`<p class="empty">Zatím žádná data.</p></section>`)
		return
	}
	buf.WriteString(`<table><thead><tr><th>Stránka</th><th>Návštěvy</th></tr></thead><tbody>`)
	for _, s := range vm.Pages {
		buf.WriteString(`<tr><td>`)
		buf.WriteString(templ.EscapeString(s.Name))
		buf.WriteString(`</td><td>`)
		buf.WriteString(templ.EscapeString(p.Sprintf("%d", s.Count)))
		buf.WriteString(`</td></tr>`)
	}
	buf.WriteString(`</tbody></table></section>`)
}

func (r Renderer) writeInquiries(buf *bytes.Buffer, vm ViewModel, csrfToken string) {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	buf.WriteString(`<section class="inquiries"><h2>Poslední poptávky</h2>`)
	if len(vm.Inquiries) == 0 {
		buf.WriteString(`<p class="empty">Žádné poptávky.</p></section>`)
		return
	}
	buf.WriteString(`<table><thead><tr><th>Datum</th><th>Jméno</th><th>Kontakt</th><th>Služba</th><th>Zpráva</th><th>Stav</th></tr></thead><tbody>`)
	for _, it := range vm.Inquiries {
		status := inquiry.NormalizeStatus(string(it.Status))
		buf.WriteString(`<tr class="status-`)
		buf.WriteString(string(status))
		buf.WriteString(`"><td>`)
		buf.WriteString(it.CreatedAt.In(loc).Format("2. 1. 2006 15:04"))
		buf.WriteString(`</td><td>`)
		buf.WriteString(templ.EscapeString(it.Name))
		buf.WriteString(`</td><td><a href="mailto:`)
		buf.WriteString(templ.EscapeString(it.Email))
		buf.WriteString(`">`)
		buf.WriteString(templ.EscapeString(it.Email))
		buf.WriteString(`</a><br/><a href="tel:`)
		buf.WriteString(templ.EscapeString(it.Phone))
		buf.WriteString(`">`)
		buf.WriteString(templ.EscapeString(it.Phone))
		buf.WriteString(`</a></td><td>`)
		buf.WriteString(templ.EscapeString(it.Service))
		buf.WriteString(`</td><td>`)
		buf.WriteString(templ.EscapeString(it.Message))
		buf.WriteString(`</td><td>`)
		if status == inquiry.StatusNew {
			buf.WriteString(`<form method="post" action="/admin/inquiries/`)
			buf.WriteString(templ.EscapeString(views.PathEscape(it.ID)))
			buf.WriteString(`/read/">`)
			buf.WriteString(views.CSRFField(csrfToken))
			buf.WriteString(`<button type="submit">Označit jako přečtené</button></form>`)
		} else {
			buf.WriteString(`Přečteno`)
		}
		buf.WriteString(`</td></tr>`)
	}
	buf.WriteString(`</tbody></table><p class="count">`)
	buf.WriteString(strconv.Itoa(len(vm.Inquiries)))
	buf.WriteString(` z `)
	buf.WriteString(strconv.Itoa(vm.KPIs.InquiryCount))
	buf.WriteString(`</p></section>`)
}
