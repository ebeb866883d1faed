package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

var planFlags analysisFlags

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the Monday to Friday follow-up plan",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rep, err := runAnalysis(cmd, planFlags)
		if err != nil {
			return err
		}
		return render(os.Stdout, planFlags.format, view{
			data:  rep.Plan,
			table: func(w io.Writer) { formatPlan(w, rep.Plan) },
			csv: func() [][]string {
				return append([][]string{{"day", "focus", "detail"}}, planRows(rep.Plan)...)
			},
		})
	},
}

func init() {
	addAnalysisFlags(planCmd, &planFlags)
	rootCmd.AddCommand(planCmd)
}
