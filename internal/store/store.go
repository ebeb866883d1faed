// Package store persists pipeline snapshots in Postgres or SQLite.
package store

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/pipeline-analytics/internal/model"
)

// OpportunityFilter narrows ListOpportunities. Zero values do not filter.
type OpportunityFilter struct {
	Status    model.OpportunityStatus `json:"status,omitempty"`
	Country   string                  `json:"country,omitempty"`
	CloseFrom string                  `json:"close_from,omitempty"` // YYYY-MM-DD, inclusive
	CloseTo   string                  `json:"close_to,omitempty"`   // YYYY-MM-DD, inclusive
	Limit     int                     `json:"limit,omitempty"`
}

// Store defines the persistence interface for pipeline records.
type Store interface {
	LoadSnapshot(ctx context.Context) (model.Snapshot, error)

	ListOpportunities(ctx context.Context, filter OpportunityFilter) ([]model.Opportunity, error)
	ListSales(ctx context.Context) ([]model.SalesRecord, error)
	ListTargets(ctx context.Context) ([]model.AOPTarget, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)

	// Replace* swap the whole table for the given records.
	ReplaceOpportunities(ctx context.Context, opps []model.Opportunity) (int64, error)
	ReplaceSales(ctx context.Context, sales []model.SalesRecord) (int64, error)
	ReplaceTargets(ctx context.Context, targets []model.AOPTarget) (int64, error)
	UpsertAccounts(ctx context.Context, accounts []model.Account) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

type lister interface {
	ListOpportunities(ctx context.Context, filter OpportunityFilter) ([]model.Opportunity, error)
	ListSales(ctx context.Context) ([]model.SalesRecord, error)
	ListTargets(ctx context.Context) ([]model.AOPTarget, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)
}

// loadSnapshot reads the four snapshot tables concurrently.
func loadSnapshot(ctx context.Context, l lister) (model.Snapshot, error) {
	var snap model.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Opportunities, err = l.ListOpportunities(gctx, OpportunityFilter{})
		return err
	})
	g.Go(func() (err error) {
		snap.Sales, err = l.ListSales(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Targets, err = l.ListTargets(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Accounts, err = l.ListAccounts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Snapshot{}, err
	}
	return snap, nil
}
