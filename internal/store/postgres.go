package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pipeline-analytics/internal/db"
	"github.com/sells-group/pipeline-analytics/internal/model"
)

const isoDate = "2006-01-02"

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS accounts (
	id      TEXT PRIMARY KEY,
	name    TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS opportunities (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	account_id      TEXT NOT NULL DEFAULT '',
	total_amount    DOUBLE PRECISION NOT NULL DEFAULT 0,
	probability     DOUBLE PRECISION NOT NULL DEFAULT 0,
	weighted_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
	risk_tags       TEXT[] NOT NULL DEFAULT '{}',
	pi_number       TEXT NOT NULL DEFAULT '',
	po_number       TEXT NOT NULL DEFAULT '',
	close_date      DATE NOT NULL,
	stage           TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'Active',
	country         TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_opportunities_close_date ON opportunities(close_date);
CREATE INDEX IF NOT EXISTS idx_opportunities_status ON opportunities(status);
CREATE INDEX IF NOT EXISTS idx_opportunities_pi_number ON opportunities(pi_number);

CREATE TABLE IF NOT EXISTS sales_records (
	id         TEXT PRIMARY KEY,
	account_id TEXT NOT NULL DEFAULT '',
	amount     DOUBLE PRECISION NOT NULL,
	sale_date  DATE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sales_records_sale_date ON sales_records(sale_date);

CREATE TABLE IF NOT EXISTS aop_targets (
	id            TEXT PRIMARY KEY,
	month_period  DATE NOT NULL,
	target_amount DOUBLE PRECISION NOT NULL,
	country       TEXT NOT NULL DEFAULT 'General'
);

CREATE INDEX IF NOT EXISTS idx_aop_targets_month ON aop_targets(month_period);
`

var (
	opportunityColumns = []string{
		"id", "name", "account_id", "total_amount", "probability", "weighted_amount", "risk_tags",
		"pi_number", "po_number", "close_date", "stage", "status", "country", "created_at",
	}
	salesColumns   = []string{"id", "account_id", "amount", "sale_date"}
	targetColumns  = []string{"id", "month_period", "target_amount", "country"}
	accountColumns = []string{"id", "name", "country"}
)

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) LoadSnapshot(ctx context.Context) (model.Snapshot, error) {
	return loadSnapshot(ctx, s)
}

func (s *PostgresStore) ListOpportunities(ctx context.Context, filter OpportunityFilter) ([]model.Opportunity, error) {
	query := `SELECT id, name, account_id, total_amount, probability, weighted_amount,
	array_to_string(risk_tags, ','), pi_number, po_number, to_char(close_date, 'YYYY-MM-DD'),
	stage, status, country, COALESCE(to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS"Z"'), '')
	FROM opportunities WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Country != "" {
		query += fmt.Sprintf(` AND upper(country) = upper($%d)`, argIdx)
		args = append(args, filter.Country)
		argIdx++
	}
	if filter.CloseFrom != "" {
		query += fmt.Sprintf(` AND close_date >= $%d::date`, argIdx)
		args = append(args, filter.CloseFrom)
		argIdx++
	}
	if filter.CloseTo != "" {
		query += fmt.Sprintf(` AND close_date <= $%d::date`, argIdx)
		args = append(args, filter.CloseTo)
		argIdx++
	}
	query += ` ORDER BY close_date, id`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list opportunities")
	}
	defer rows.Close()

	var out []model.Opportunity
	for rows.Next() {
		var (
			o                       model.Opportunity
			tags, status, createdAt string
		)
		if err := rows.Scan(&o.ID, &o.Name, &o.AccountID, &o.Amount, &o.Probability, &o.WeightedAmount,
			&tags, &o.ProjectID, &o.PurchaseOrder, &o.CloseDate, &o.Stage, &status, &o.Country, &createdAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan opportunity")
		}
		o.Status = model.ParseStatus(status)
		if tags != "" {
			o.RiskTags = model.ParseRiskTags(strings.Split(tags, ","))
		}
		if createdAt != "" {
			o.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		}
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list opportunities iterate")
}

func (s *PostgresStore) ListSales(ctx context.Context) ([]model.SalesRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, account_id, amount, to_char(sale_date, 'YYYY-MM-DD') FROM sales_records ORDER BY sale_date, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sales")
	}
	defer rows.Close()

	var out []model.SalesRecord
	for rows.Next() {
		var r model.SalesRecord
		if err := rows.Scan(&r.ID, &r.AccountID, &r.Amount, &r.SaleDate); err != nil {
			return nil, eris.Wrap(err, "postgres: scan sale")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list sales iterate")
}

func (s *PostgresStore) ListTargets(ctx context.Context) ([]model.AOPTarget, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, to_char(month_period, 'YYYY-MM-DD'), target_amount, country FROM aop_targets ORDER BY month_period, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list targets")
	}
	defer rows.Close()

	var out []model.AOPTarget
	for rows.Next() {
		var t model.AOPTarget
		if err := rows.Scan(&t.ID, &t.MonthPeriod, &t.TargetAmount, &t.Country); err != nil {
			return nil, eris.Wrap(err, "postgres: scan target")
		}
		out = append(out, t)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list targets iterate")
}

func (s *PostgresStore) ListAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, country FROM accounts ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list accounts")
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Country); err != nil {
			return nil, eris.Wrap(err, "postgres: scan account")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list accounts iterate")
}

func (s *PostgresStore) ReplaceOpportunities(ctx context.Context, opps []model.Opportunity) (int64, error) {
	rows := make([][]any, len(opps))
	for i, o := range opps {
		closeDate, err := time.Parse(isoDate, o.CloseDate)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: opportunity %s close date", o.ID)
		}
		var createdAt any
		if !o.CreatedAt.IsZero() {
			createdAt = o.CreatedAt.UTC()
		}
		rows[i] = []any{
			o.ID, o.Name, o.AccountID, o.Amount, o.Probability, o.WeightedAmount, model.RiskTagStrings(o.RiskTags),
			o.ProjectID, o.PurchaseOrder, closeDate, o.Stage, string(o.Status), o.Country, createdAt,
		}
	}
	return s.replace(ctx, "opportunities", opportunityColumns, rows)
}

func (s *PostgresStore) ReplaceSales(ctx context.Context, sales []model.SalesRecord) (int64, error) {
	rows := make([][]any, len(sales))
	for i, r := range sales {
		d, err := time.Parse(isoDate, r.SaleDate)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: sale %s date", r.ID)
		}
		rows[i] = []any{r.ID, r.AccountID, r.Amount, d}
	}
	return s.replace(ctx, "sales_records", salesColumns, rows)
}

func (s *PostgresStore) ReplaceTargets(ctx context.Context, targets []model.AOPTarget) (int64, error) {
	rows := make([][]any, len(targets))
	for i, t := range targets {
		d, err := time.Parse(isoDate, t.Month()+"-01")
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: target %s month", t.ID)
		}
		country := t.Country
		if country == "" {
			country = model.CountryGeneral
		}
		rows[i] = []any{t.ID, d, t.TargetAmount, country}
	}
	return s.replace(ctx, "aop_targets", targetColumns, rows)
}

func (s *PostgresStore) UpsertAccounts(ctx context.Context, accounts []model.Account) (int64, error) {
	rows := make([][]any, len(accounts))
	for i, a := range accounts {
		rows[i] = []any{a.ID, a.Name, a.Country}
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "accounts",
		Columns:      accountColumns,
		ConflictKeys: []string{"id"},
	}, rows)
	return n, eris.Wrap(err, "postgres: upsert accounts")
}

// replace deletes every row of table and COPYs rows in, in one transaction.
func (s *PostgresStore) replace(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: replace %s: begin tx", table)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
		return 0, eris.Wrapf(err, "postgres: replace %s: delete", table)
	}
	n, err := db.CopyFrom(ctx, tx, table, columns, rows)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: replace %s", table)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "postgres: replace %s: commit tx", table)
	}
	return n, nil
}
