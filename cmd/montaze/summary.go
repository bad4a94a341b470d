package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/eringen/montaze"
	"github.com/eringen/montaze/analytics"
	"github.com/eringen/montaze/dashboard"
)

var flagPeriod string

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the traffic summary the dashboard would show",
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().StringVarP(&flagPeriod, "period", "p", string(analytics.DefaultPeriod), "reporting period: 7d, 30d, 90d or 12m")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, closer, err := montaze.NewLogger(cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	client := analytics.NewClient(analytics.Config{
		Token:     cfg.VercelToken,
		ProjectID: cfg.VercelProjectID,
		TeamID:    cfg.VercelTeamID,
		BaseURL:   cfg.AnalyticsBaseURL,
	})
	var src dashboard.AnalyticsSource
	if client.Configured() {
		src = client
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), dashboard.DefaultLoadTimeout)
	defer cancel()
	res := dashboard.NewAnalyticsLoader(src, log).Load(ctx, analytics.ParsePeriod(flagPeriod))

	p := message.NewPrinter(language.Czech)
	visitors, pageviews := res.Traffic.Totals()
	title := fmt.Sprintf("Návštěvnost za %s", res.Period)
	if res.Synthetic {
		title += " (ukázková data)"
	}
	fmt.Println(title)
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	p.Fprintf(w, "Návštěvníci\t%d\n", visitors)
	p.Fprintf(w, "Zobrazení\t%d\n", pageviews)
	if visitors > 0 {
		p.Fprintf(w, "Stránek na návštěvu\t%.2f\n", float64(pageviews)/float64(visitors))
	}
	fmt.Fprintln(w)
	for _, pt := range res.Traffic {
		p.Fprintf(w, "%s\t%d\t%d\n", pt.Label, pt.Visitors, pt.Pageviews)
	}
	printStats(w, p, "Stránky", res.Pages)
	printStats(w, p, "Zdroje", res.Referrers)
	printStats(w, p, "Zařízení", res.Devices)
	return w.Flush()
}

func printStats(w *tabwriter.Writer, p *message.Printer, title string, stats []dashboard.DimensionStat) {
	if len(stats) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\t\n", title)
	for _, s := range stats {
		p.Fprintf(w, "  %s\t%d\n", s.Name, s.Count)
	}
}
