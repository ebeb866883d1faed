package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pipeline-analytics/internal/ingest"
	"github.com/sells-group/pipeline-analytics/internal/model"
	"github.com/sells-group/pipeline-analytics/internal/resilience"
	sfpkg "github.com/sells-group/pipeline-analytics/pkg/salesforce"
)

// Snapshot sources.
const (
	sourceStore      = "store"
	sourceFiles      = "files"
	sourceSalesforce = "salesforce"
)

// fileInputs names the spreadsheet or CSV exports of one import.
type fileInputs struct {
	Opportunities string
	Sales         string
	Targets       string
}

func (f fileInputs) empty() bool {
	return f.Opportunities == "" && f.Sales == "" && f.Targets == ""
}

func addFileFlags(cmd *cobra.Command, f *fileInputs) {
	cmd.Flags().StringVar(&f.Opportunities, "opportunities", "", "opportunities export (.xlsx or .csv)")
	cmd.Flags().StringVar(&f.Sales, "sales", "", "sales export (.xlsx or .csv)")
	cmd.Flags().StringVar(&f.Targets, "targets", "", "AOP targets export (.xlsx or .csv)")
}

// ingestLocale returns the configured locale with the target year taken
// from the clock when unset.
func ingestLocale(now time.Time) ingest.Locale {
	loc := cfg.Ingest.Locale()
	if loc.TargetYear == 0 {
		loc.TargetYear = now.Year()
	}
	return loc
}

// loadSnapshot reads one snapshot from the named source.
func loadSnapshot(ctx context.Context, source string, files fileInputs, loc ingest.Locale) (model.Snapshot, error) {
	switch source {
	case sourceStore:
		st, err := initStore(ctx)
		if err != nil {
			return model.Snapshot{}, err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return model.Snapshot{}, err
		}
		return st.LoadSnapshot(ctx)
	case sourceFiles:
		if files.empty() {
			return model.Snapshot{}, eris.New("--source files needs at least one of --opportunities, --sales, --targets")
		}
		return readFiles(ctx, files, loc)
	case sourceSalesforce:
		snap, err := readSalesforce(ctx, loc)
		if err != nil {
			return model.Snapshot{}, err
		}
		// Sales and targets live outside Salesforce.
		if files.Sales != "" || files.Targets != "" {
			extra, err := readFiles(ctx, fileInputs{Sales: files.Sales, Targets: files.Targets}, loc)
			if err != nil {
				return model.Snapshot{}, err
			}
			snap.Sales = extra.Sales
			snap.Targets = extra.Targets
			snap.Accounts = mergeAccounts(snap.Accounts, extra.Accounts)
		}
		return snap, nil
	default:
		return model.Snapshot{}, eris.Errorf("unknown source %q (want store, files or salesforce)", source)
	}
}

// readFiles parses whichever exports are given. Skipped rows are logged.
func readFiles(ctx context.Context, files fileInputs, loc ingest.Locale) (model.Snapshot, error) {
	var snap model.Snapshot

	if files.Opportunities != "" {
		t, err := ingest.ReadTable(ctx, files.Opportunities)
		if err != nil {
			return snap, err
		}
		opps, issues, err := ingest.Opportunities(t, loc)
		if err != nil {
			return snap, eris.Wrapf(err, "parse %s", files.Opportunities)
		}
		logIssues(files.Opportunities, issues)
		snap.Opportunities = opps
	}

	if files.Sales != "" {
		t, err := ingest.ReadTable(ctx, files.Sales)
		if err != nil {
			return snap, err
		}
		sales, accounts, issues, err := ingest.Sales(t, loc)
		if err != nil {
			return snap, eris.Wrapf(err, "parse %s", files.Sales)
		}
		logIssues(files.Sales, issues)
		snap.Sales = sales
		snap.Accounts = accounts
	}

	if files.Targets != "" {
		t, err := ingest.ReadTable(ctx, files.Targets)
		if err != nil {
			return snap, err
		}
		targets, issues, err := ingest.Targets(t, loc)
		if err != nil {
			return snap, eris.Wrapf(err, "parse %s", files.Targets)
		}
		logIssues(files.Targets, issues)
		snap.Targets = targets
	}

	return snap, nil
}

func readSalesforce(ctx context.Context, loc ingest.Locale) (model.Snapshot, error) {
	client, err := initSalesforce()
	if err != nil {
		return model.Snapshot{}, err
	}
	fields := salesforceFields()
	if err := sfpkg.ValidateFields(ctx, client, fields); err != nil {
		return model.Snapshot{}, err
	}

	policy := resilience.DefaultPolicy()
	policy.OnRetry = resilience.LogRetry("salesforce", "fetch opportunities")
	records, err := resilience.Retry(ctx, policy, func(ctx context.Context) ([]sfpkg.Record, error) {
		return sfpkg.FetchOpportunities(ctx, client, sfpkg.OpportunityQuery{Fields: fields, IncludeClosed: true})
	})
	if err != nil {
		return model.Snapshot{}, err
	}
	opps, issues := ingest.FromSalesforce(records, fields, loc)
	logIssues("salesforce opportunities", issues)

	policy.OnRetry = resilience.LogRetry("salesforce", "fetch accounts")
	accountRecords, err := resilience.Retry(ctx, policy, func(ctx context.Context) ([]sfpkg.Record, error) {
		return sfpkg.FetchAccounts(ctx, client, cfg.Salesforce.CountryField)
	})
	if err != nil {
		return model.Snapshot{}, err
	}
	accounts := ingest.AccountsFromSalesforce(accountRecords, cfg.Salesforce.CountryField, loc)

	zap.L().Info("fetched salesforce pipeline",
		zap.Int("opportunities", len(opps)),
		zap.Int("accounts", len(accounts)),
	)
	return model.Snapshot{Opportunities: opps, Accounts: accounts}, nil
}

// mergeAccounts keeps the first occurrence of each account ID.
func mergeAccounts(lists ...[]model.Account) []model.Account {
	seen := make(map[string]bool)
	var out []model.Account
	for _, list := range lists {
		for _, a := range list {
			if seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			out = append(out, a)
		}
	}
	return out
}

func logIssues(source string, issues []ingest.Issue) {
	for _, is := range issues {
		zap.L().Warn("skipped row",
			zap.String("source", source),
			zap.Int("row", is.Row),
			zap.String("reason", is.Reason),
		)
	}
	if len(issues) > 0 {
		zap.L().Info("rows skipped", zap.String("source", source), zap.Int("count", len(issues)))
	}
}
