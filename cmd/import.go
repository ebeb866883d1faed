package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pipeline-analytics/internal/risk"
)

var (
	importFiles          fileInputs
	importFromSalesforce bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load pipeline exports into the store",
	Long: "Parses opportunity, sales and AOP target exports (or fetches opportunities from Salesforce), " +
		"precomputes risk tags, and replaces the matching store tables. Tables without an input are left untouched.",
	Example: `  pipeline-analytics import --opportunities opps.xlsx --sales ventas.csv --targets aop.xlsx
  pipeline-analytics import --salesforce --sales ventas.xlsx`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if importFiles.empty() && !importFromSalesforce {
			return eris.New("nothing to import: pass --opportunities, --sales, --targets or --salesforce")
		}
		if importFromSalesforce && importFiles.Opportunities != "" {
			return eris.New("--salesforce and --opportunities are mutually exclusive")
		}
		if err := cfg.Validate("import"); err != nil {
			return err
		}

		source := sourceFiles
		if importFromSalesforce {
			source = sourceSalesforce
		}
		snap, err := loadSnapshot(ctx, source, importFiles, ingestLocale(time.Now()))
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if importFiles.Opportunities != "" || importFromSalesforce {
			n, err := st.ReplaceOpportunities(ctx, risk.Precompute(snap.Opportunities))
			if err != nil {
				return eris.Wrap(err, "import opportunities")
			}
			zap.L().Info("imported opportunities", zap.Int64("rows", n))
		}
		if importFiles.Sales != "" {
			n, err := st.ReplaceSales(ctx, snap.Sales)
			if err != nil {
				return eris.Wrap(err, "import sales")
			}
			zap.L().Info("imported sales", zap.Int64("rows", n))
		}
		if importFiles.Targets != "" {
			n, err := st.ReplaceTargets(ctx, snap.Targets)
			if err != nil {
				return eris.Wrap(err, "import targets")
			}
			zap.L().Info("imported targets", zap.Int64("rows", n))
		}
		if len(snap.Accounts) > 0 {
			n, err := st.UpsertAccounts(ctx, snap.Accounts)
			if err != nil {
				return eris.Wrap(err, "import accounts")
			}
			zap.L().Info("upserted accounts", zap.Int64("rows", n))
		}

		zap.L().Info("import complete", zap.String("driver", cfg.Store.Driver))
		return nil
	},
}

func init() {
	addFileFlags(importCmd, &importFiles)
	importCmd.Flags().BoolVar(&importFromSalesforce, "salesforce", false, "fetch opportunities and accounts from Salesforce")
	rootCmd.AddCommand(importCmd)
}
