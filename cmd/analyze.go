package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/pipeline-analytics/internal/analytics"
	"github.com/sells-group/pipeline-analytics/internal/forecast"
	"github.com/sells-group/pipeline-analytics/internal/model"
	"github.com/sells-group/pipeline-analytics/internal/planner"
	"github.com/sells-group/pipeline-analytics/internal/risk"
)

// analysisFlags are shared by analyze, risks and plan.
type analysisFlags struct {
	source  string
	format  string
	period  string
	year    int
	stalled bool
	files   fileInputs
}

func addAnalysisFlags(cmd *cobra.Command, f *analysisFlags) {
	cmd.Flags().StringVar(&f.source, "source", sourceStore, "snapshot source: store, files or salesforce")
	cmd.Flags().StringVar(&f.format, "format", formatTable, "output format: table, json, yaml or csv")
	cmd.Flags().StringVar(&f.period, "period", "", "restrict the gap analysis to one month (YYYY-MM)")
	cmd.Flags().IntVar(&f.year, "year", 0, "matrix year (default from period, then the current year)")
	cmd.Flags().BoolVar(&f.stalled, "stalled", false, "apply the staleness rule (opportunities open over 30 days)")
	addFileFlags(cmd, &f.files)
}

// runAnalysis loads the snapshot and runs the engine with the flags applied
// over the configured defaults.
func runAnalysis(cmd *cobra.Command, f analysisFlags) (analytics.Report, error) {
	if err := validFormat(f.format); err != nil {
		return analytics.Report{}, err
	}
	if f.period != "" {
		if _, err := time.Parse("2006-01", f.period); err != nil {
			return analytics.Report{}, eris.Errorf("--period must be YYYY-MM (got %q)", f.period)
		}
	}
	if err := cfg.Validate("analyze"); err != nil {
		return analytics.Report{}, err
	}

	now := time.Now()
	snap, err := loadSnapshot(cmd.Context(), f.source, f.files, ingestLocale(now))
	if err != nil {
		return analytics.Report{}, err
	}

	year := f.year
	if year == 0 {
		year = cfg.Analysis.MatrixYear
	}
	return analytics.Analyze(snap, analytics.Options{
		Now:            now,
		Period:         f.period,
		Year:           year,
		IncludeStalled: f.stalled || cfg.Analysis.IncludeStalled,
	}), nil
}

var analyzeFlags analysisFlags

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Print the full forecast, gap, risk and planning report",
	Example: `  pipeline-analytics analyze --period 2026-03
  pipeline-analytics analyze --source files --opportunities opps.xlsx --sales ventas.xlsx --targets aop.xlsx
  pipeline-analytics analyze --source salesforce --format json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rep, err := runAnalysis(cmd, analyzeFlags)
		if err != nil {
			return err
		}
		return render(os.Stdout, analyzeFlags.format, reportView(rep))
	},
}

func init() {
	addAnalysisFlags(analyzeCmd, &analyzeFlags)
	rootCmd.AddCommand(analyzeCmd)
}

func reportView(rep analytics.Report) view {
	return view{
		data:  rep,
		table: func(w io.Writer) { formatReport(w, rep) },
		csv:   func() [][]string { return monthlyRows(rep.Monthly) },
	}
}

// formatReport writes the report summary, monthly comparison, at-risk list
// and weekly plan to w.
func formatReport(out io.Writer, rep analytics.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	scope := "all periods"
	if rep.Period != "" {
		scope = rep.Period
	}
	_, _ = fmt.Fprintf(w, "Scope:\t%s\n", scope)
	_, _ = fmt.Fprintf(w, "Active opportunities:\t%d\n", rep.Forecast.OpportunityCount)
	_, _ = fmt.Fprintf(w, "Total pipeline:\t%s\n", money(rep.Forecast.TotalPipeline))
	_, _ = fmt.Fprintf(w, "Weighted forecast:\t%s\n", money(rep.Forecast.WeightedForecast))
	_, _ = fmt.Fprintf(w, "Current sales:\t%s\n", money(rep.Gap.CurrentSales))
	_, _ = fmt.Fprintf(w, "AOP target:\t%s\n", money(rep.Gap.Target))
	_, _ = fmt.Fprintf(w, "Projected:\t%s\n", money(rep.Gap.Projected))
	_, _ = fmt.Fprintf(w, "Gap:\t%s (%.1f%%, %s)\n", money(rep.Gap.Gap), rep.Gap.GapPercentage, rep.Gap.Status)
	_, _ = fmt.Fprintf(w, "Coverage:\t%.2fx\n", rep.Coverage)
	_, _ = fmt.Fprintf(w, "At risk:\t%d opportunities, %s (%.1f%% of active)\n",
		rep.Stats.TotalAtRisk, money(rep.Stats.HighRiskAmount), rep.Stats.RiskPercentage)
	_ = w.Flush()

	if len(rep.Monthly) > 0 {
		_, _ = fmt.Fprintln(out)
		formatMonthly(out, rep.Monthly)
	}
	if len(rep.SalesByCountry) > 0 {
		_, _ = fmt.Fprintln(out)
		formatSalesByCountry(out, rep.SalesByCountry)
	}
	if len(rep.AtRisk) > 0 {
		_, _ = fmt.Fprintln(out)
		formatAtRisk(out, rep.AtRisk)
	}
	_, _ = fmt.Fprintln(out)
	formatPlan(out, rep.Plan)
}

func formatMonthly(out io.Writer, rows []forecast.MonthComparison) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PERIOD\tACTUAL\tTARGET\tFORECAST\tGAP")
	_, _ = fmt.Fprintln(w, "------\t------\t------\t--------\t---")
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.Period, money(r.Actual), money(r.Target), money(r.Forecast), money(r.Gap))
	}
	_ = w.Flush()
}

func formatSalesByCountry(out io.Writer, sales map[string]float64) {
	var total float64
	for _, v := range sales {
		total += v
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "COUNTRY\tSALES\tSHARE")
	_, _ = fmt.Fprintln(w, "-------\t-----\t-----")
	for _, row := range countryRows(sales) {
		var share float64
		if total > 0 {
			share = row.amount / total * 100
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.1f%%\n", row.country, money(row.amount), share)
	}
	_ = w.Flush()
}

type countryAmount struct {
	country string
	amount  float64
}

// countryRows orders countries by amount descending, then by name.
func countryRows(m map[string]float64) []countryAmount {
	rows := make([]countryAmount, 0, len(m))
	for c, v := range m {
		rows = append(rows, countryAmount{country: c, amount: v})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].amount != rows[j].amount {
			return rows[i].amount > rows[j].amount
		}
		return rows[i].country < rows[j].country
	})
	return rows
}

func formatAtRisk(out io.Writer, list []risk.Assessment) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCOUNTRY\tAMOUNT\tPROB\tCLOSE\tSCORE\tSEVERITY\tREASONS")
	_, _ = fmt.Fprintln(w, "--\t----\t-------\t------\t----\t-----\t-----\t--------\t-------")
	for _, a := range list {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f%%\t%s\t%.0f\t%s\t%s\n",
			truncateID(a.ID),
			truncate(a.Name, 30),
			a.Country,
			money(a.Amount),
			a.Probability,
			a.CloseDate,
			a.RiskScore,
			a.Severity,
			strings.Join(model.RiskTagStrings(a.Reasons), ","),
		)
	}
	_ = w.Flush()
}

func formatPlan(out io.Writer, p planner.WeeklyPlan) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DAY\tFOCUS\tDETAIL")
	_, _ = fmt.Fprintln(w, "---\t-----\t------")
	for _, row := range planRows(p) {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", row[0], row[1], row[2])
	}
	_ = w.Flush()
}

// planRows flattens the plan into day, focus, detail rows.
func planRows(p planner.WeeklyPlan) [][]string {
	var rows [][]string
	for _, d := range []struct {
		day  string
		slot *planner.CountrySlot
	}{{"Monday", p.Monday}, {"Tuesday", p.Tuesday}, {"Wednesday", p.Wednesday}} {
		if d.slot == nil {
			rows = append(rows, []string{d.day, "-", "no high-risk country"})
			continue
		}
		rows = append(rows, []string{d.day, d.slot.Focus,
			fmt.Sprintf("%s (%s at risk)", d.slot.Country, money(d.slot.RiskAmount))})
	}
	for _, d := range []struct {
		day  string
		slot planner.ListSlot
	}{{"Thursday", p.Thursday}, {"Friday", p.Friday}} {
		if len(d.slot.Items) == 0 {
			rows = append(rows, []string{d.day, d.slot.Focus, "-"})
			continue
		}
		for _, o := range d.slot.Items {
			rows = append(rows, []string{d.day, d.slot.Focus,
				fmt.Sprintf("%s %s (%.0f%%)", truncate(o.Name, 30), money(o.Amount), o.Probability)})
		}
	}
	return rows
}

func monthlyRows(rows []forecast.MonthComparison) [][]string {
	out := [][]string{{"period", "actual", "target", "forecast", "gap"}}
	for _, r := range rows {
		out = append(out, []string{r.Period, num(r.Actual), num(r.Target), num(r.Forecast), num(r.Gap)})
	}
	return out
}

// money formats an amount with thousands separators and no decimals.
func money(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.0f", v)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func num(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}

// truncateID returns the first 8 characters of an ID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
