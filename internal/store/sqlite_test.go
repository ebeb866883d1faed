package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pipeline-analytics/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedOpportunities(t *testing.T, st *SQLiteStore) {
	t.Helper()
	_, err := st.ReplaceOpportunities(context.Background(), []model.Opportunity{
		{
			ID: "o1", Name: "Lima DC", AccountID: "a1", Amount: 150000, Probability: 20,
			RiskTags:  []model.RiskTag{model.RiskLargeLowProbability, model.RiskProjectConcentration},
			ProjectID: "PI-1", CloseDate: "2026-03-20", Stage: "Pipeline", Status: model.StatusActive,
			Country: "PERU", CreatedAt: time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		},
		{
			ID: "o2", Name: "Quito Core", AccountID: "a2", Amount: 40000, Probability: 80, WeightedAmount: 32000,
			PurchaseOrder: "PO-9", CloseDate: "2026-04-01", Stage: "Commit", Status: model.StatusClosedWon,
		},
		{
			ID: "o3", Name: "Bogota Edge", AccountID: "a3", Amount: 90000, Probability: 60,
			CloseDate: "2026-03-05", Stage: "Best Case", Status: model.StatusActive, Country: "COLOMBIA",
		},
	})
	require.NoError(t, err)
}

func TestSQLite_Opportunities_RoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	seedOpportunities(t, st)

	opps, err := st.ListOpportunities(context.Background(), OpportunityFilter{})
	require.NoError(t, err)
	require.Len(t, opps, 3)

	// ordered by close date
	assert.Equal(t, []string{"o3", "o1", "o2"}, []string{opps[0].ID, opps[1].ID, opps[2].ID})

	o1 := opps[1]
	assert.Equal(t, []model.RiskTag{model.RiskLargeLowProbability, model.RiskProjectConcentration}, o1.RiskTags)
	assert.Equal(t, "PI-1", o1.ProjectID)
	assert.Equal(t, time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC), o1.CreatedAt)

	o2 := opps[2]
	assert.Equal(t, model.StatusClosedWon, o2.Status)
	assert.Empty(t, o2.RiskTags)
	assert.True(t, o2.CreatedAt.IsZero())
	assert.InDelta(t, 32000, o2.WeightedAmount, 0.001)
}

func TestSQLite_Opportunities_Filter(t *testing.T) {
	st := newTestSQLiteStore(t)
	seedOpportunities(t, st)
	ctx := context.Background()

	active, err := st.ListOpportunities(ctx, OpportunityFilter{Status: model.StatusActive})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	peru, err := st.ListOpportunities(ctx, OpportunityFilter{Country: "peru"})
	require.NoError(t, err)
	require.Len(t, peru, 1)
	assert.Equal(t, "o1", peru[0].ID)

	march, err := st.ListOpportunities(ctx, OpportunityFilter{CloseFrom: "2026-03-01", CloseTo: "2026-03-31"})
	require.NoError(t, err)
	assert.Len(t, march, 2)

	limited, err := st.ListOpportunities(ctx, OpportunityFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "o3", limited[0].ID)
}

func TestSQLite_ReplaceOpportunities_Replaces(t *testing.T) {
	st := newTestSQLiteStore(t)
	seedOpportunities(t, st)
	ctx := context.Background()

	n, err := st.ReplaceOpportunities(ctx, []model.Opportunity{
		{ID: "o9", Name: "Cusco Fiber", Amount: 10, Probability: 10, CloseDate: "2026-05-01", Status: model.StatusActive},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	opps, err := st.ListOpportunities(ctx, OpportunityFilter{})
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, "o9", opps[0].ID)
}

func TestSQLite_SalesAndTargets(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.ReplaceSales(ctx, []model.SalesRecord{
		{ID: "s2", AccountID: "a1", Amount: 300, SaleDate: "2026-03-15"},
		{ID: "s1", AccountID: "a2", Amount: 1200.5, SaleDate: "2026-03-02"},
	})
	require.NoError(t, err)

	sales, err := st.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, "s1", sales[0].ID)

	_, err = st.ReplaceTargets(ctx, []model.AOPTarget{
		{ID: "t1", MonthPeriod: "2026-03", TargetAmount: 500000},
		{ID: "t2", MonthPeriod: "2026-03-01", TargetAmount: 200000, Country: "PERU"},
	})
	require.NoError(t, err)

	targets, err := st.ListTargets(ctx)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "2026-03-01", targets[0].MonthPeriod)
	assert.Equal(t, model.CountryGeneral, targets[0].Country)
	assert.Equal(t, "PERU", targets[1].Country)
}

func TestSQLite_UpsertAccounts(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.UpsertAccounts(ctx, []model.Account{
		{ID: "a1", Name: "Minera Andina", Country: "PERU"},
		{ID: "a2", Name: "Banco Quito", Country: "ECUADOR"},
	})
	require.NoError(t, err)

	_, err = st.UpsertAccounts(ctx, []model.Account{{ID: "a1", Name: "Minera Andina SAC", Country: "PERU"}})
	require.NoError(t, err)

	accounts, err := st.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "Minera Andina SAC", accounts[0].Name)

	n, err := st.UpsertAccounts(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLite_LoadSnapshot(t *testing.T) {
	st := newTestSQLiteStore(t)
	seedOpportunities(t, st)
	ctx := context.Background()

	_, err := st.UpsertAccounts(ctx, []model.Account{{ID: "a2", Name: "Banco Quito", Country: "ECUADOR"}})
	require.NoError(t, err)
	_, err = st.ReplaceSales(ctx, []model.SalesRecord{{ID: "s1", Amount: 100, SaleDate: "2026-03-02"}})
	require.NoError(t, err)

	snap, err := st.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Opportunities, 3)
	assert.Len(t, snap.Sales, 1)
	assert.Empty(t, snap.Targets)
	assert.Equal(t, "ECUADOR", snap.AccountCountry()["a2"])
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_ImplementsStore(t *testing.T) {
	var _ Store = (*SQLiteStore)(nil)
	var _ Store = (*PostgresStore)(nil)
}
