package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/pipeline-analytics/internal/model"
	"github.com/sells-group/pipeline-analytics/internal/risk"
)

var (
	risksFlags analysisFlags
	risksGroup bool
)

var risksCmd = &cobra.Command{
	Use:   "risks",
	Short: "List at-risk opportunities, highest score first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rep, err := runAnalysis(cmd, risksFlags)
		if err != nil {
			return err
		}
		if risksGroup {
			return render(os.Stdout, risksFlags.format, groupsView(rep.Groups))
		}
		return render(os.Stdout, risksFlags.format, view{
			data: struct {
				AtRisk []risk.Assessment `json:"at_risk"`
				Stats  risk.Stats        `json:"stats"`
			}{rep.AtRisk, rep.Stats},
			table: func(w io.Writer) {
				if len(rep.AtRisk) == 0 {
					_, _ = fmt.Fprintln(w, "No at-risk opportunities.")
					return
				}
				formatAtRisk(w, rep.AtRisk)
			},
			csv: func() [][]string { return riskRows(rep.AtRisk, "") },
		})
	},
}

func init() {
	addAnalysisFlags(risksCmd, &risksFlags)
	risksCmd.Flags().BoolVar(&risksGroup, "group", false, "group opportunities by risk tag")
	rootCmd.AddCommand(risksCmd)
}

func groupsView(groups map[model.RiskTag][]risk.Assessment) view {
	return view{
		data: groups,
		table: func(w io.Writer) {
			for i, tag := range model.AllRiskTags() {
				if i > 0 {
					_, _ = fmt.Fprintln(w)
				}
				_, _ = fmt.Fprintf(w, "%s (%d)\n", tag, len(groups[tag]))
				if len(groups[tag]) > 0 {
					formatAtRisk(w, groups[tag])
				}
			}
		},
		csv: func() [][]string {
			rows := riskRows(nil, "tag")
			for _, tag := range model.AllRiskTags() {
				rows = append(rows, riskRows(groups[tag], string(tag))[1:]...)
			}
			return rows
		},
	}
}

// riskRows renders assessments as CSV rows with a header. A non-empty group
// adds a leading tag column.
func riskRows(list []risk.Assessment, group string) [][]string {
	header := []string{"id", "name", "country", "amount", "probability", "close_date", "risk_score", "severity", "reasons"}
	if group != "" {
		header = append([]string{"tag"}, header...)
	}
	rows := [][]string{header}
	for _, a := range list {
		row := []string{
			a.ID, a.Name, a.Country, num(a.Amount), num(a.Probability), a.CloseDate,
			num(a.RiskScore), string(a.Severity), strings.Join(model.RiskTagStrings(a.Reasons), ";"),
		}
		if group != "" {
			row = append([]string{group}, row...)
		}
		rows = append(rows, row)
	}
	return rows
}
