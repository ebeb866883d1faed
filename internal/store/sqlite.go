package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/pipeline-analytics/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS accounts (
	id      TEXT PRIMARY KEY,
	name    TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS opportunities (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	account_id      TEXT NOT NULL DEFAULT '',
	total_amount    REAL NOT NULL DEFAULT 0,
	probability     REAL NOT NULL DEFAULT 0,
	weighted_amount REAL NOT NULL DEFAULT 0,
	risk_tags       TEXT NOT NULL DEFAULT '[]',
	pi_number       TEXT NOT NULL DEFAULT '',
	po_number       TEXT NOT NULL DEFAULT '',
	close_date      TEXT NOT NULL,
	stage           TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'Active',
	country         TEXT NOT NULL DEFAULT '',
	created_at      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_opportunities_close_date ON opportunities(close_date);
CREATE INDEX IF NOT EXISTS idx_opportunities_status ON opportunities(status);

CREATE TABLE IF NOT EXISTS sales_records (
	id         TEXT PRIMARY KEY,
	account_id TEXT NOT NULL DEFAULT '',
	amount     REAL NOT NULL,
	sale_date  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sales_records_sale_date ON sales_records(sale_date);

CREATE TABLE IF NOT EXISTS aop_targets (
	id            TEXT PRIMARY KEY,
	month_period  TEXT NOT NULL,
	target_amount REAL NOT NULL,
	country       TEXT NOT NULL DEFAULT 'General'
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadSnapshot(ctx context.Context) (model.Snapshot, error) {
	return loadSnapshot(ctx, s)
}

func (s *SQLiteStore) ListOpportunities(ctx context.Context, filter OpportunityFilter) ([]model.Opportunity, error) {
	query := `SELECT id, name, account_id, total_amount, probability, weighted_amount, risk_tags,
	pi_number, po_number, close_date, stage, status, country, created_at
	FROM opportunities WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Country != "" {
		query += ` AND upper(country) = upper(?)`
		args = append(args, filter.Country)
	}
	if filter.CloseFrom != "" {
		query += ` AND close_date >= ?`
		args = append(args, filter.CloseFrom)
	}
	if filter.CloseTo != "" {
		query += ` AND close_date <= ?`
		args = append(args, filter.CloseTo)
	}
	query += ` ORDER BY close_date, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list opportunities")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Opportunity
	for rows.Next() {
		var (
			o                       model.Opportunity
			tags, status, createdAt string
		)
		if err := rows.Scan(&o.ID, &o.Name, &o.AccountID, &o.Amount, &o.Probability, &o.WeightedAmount,
			&tags, &o.ProjectID, &o.PurchaseOrder, &o.CloseDate, &o.Stage, &status, &o.Country, &createdAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan opportunity")
		}
		var names []string
		if err := json.Unmarshal([]byte(tags), &names); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal risk tags of %s", o.ID)
		}
		o.RiskTags = model.ParseRiskTags(names)
		o.Status = model.ParseStatus(status)
		if createdAt != "" {
			o.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		}
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list opportunities iterate")
}

func (s *SQLiteStore) ListSales(ctx context.Context) ([]model.SalesRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, account_id, amount, sale_date FROM sales_records ORDER BY sale_date, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sales")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.SalesRecord
	for rows.Next() {
		var r model.SalesRecord
		if err := rows.Scan(&r.ID, &r.AccountID, &r.Amount, &r.SaleDate); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan sale")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list sales iterate")
}

func (s *SQLiteStore) ListTargets(ctx context.Context) ([]model.AOPTarget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, month_period, target_amount, country FROM aop_targets ORDER BY month_period, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list targets")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.AOPTarget
	for rows.Next() {
		var t model.AOPTarget
		if err := rows.Scan(&t.ID, &t.MonthPeriod, &t.TargetAmount, &t.Country); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan target")
		}
		out = append(out, t)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list targets iterate")
}

func (s *SQLiteStore) ListAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, country FROM accounts ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list accounts")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Country); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan account")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list accounts iterate")
}

func (s *SQLiteStore) ReplaceOpportunities(ctx context.Context, opps []model.Opportunity) (int64, error) {
	rows := make([][]any, len(opps))
	for i, o := range opps {
		tags, err := json.Marshal(model.RiskTagStrings(o.RiskTags))
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: marshal risk tags")
		}
		var createdAt string
		if !o.CreatedAt.IsZero() {
			createdAt = o.CreatedAt.UTC().Format(time.RFC3339)
		}
		rows[i] = []any{
			o.ID, o.Name, o.AccountID, o.Amount, o.Probability, o.WeightedAmount, string(tags),
			o.ProjectID, o.PurchaseOrder, o.CloseDate, o.Stage, string(o.Status), o.Country, createdAt,
		}
	}
	return s.replace(ctx, "opportunities", opportunityColumns, rows)
}

func (s *SQLiteStore) ReplaceSales(ctx context.Context, sales []model.SalesRecord) (int64, error) {
	rows := make([][]any, len(sales))
	for i, r := range sales {
		rows[i] = []any{r.ID, r.AccountID, r.Amount, r.SaleDate}
	}
	return s.replace(ctx, "sales_records", salesColumns, rows)
}

func (s *SQLiteStore) ReplaceTargets(ctx context.Context, targets []model.AOPTarget) (int64, error) {
	rows := make([][]any, len(targets))
	for i, t := range targets {
		country := t.Country
		if country == "" {
			country = model.CountryGeneral
		}
		rows[i] = []any{t.ID, t.Month() + "-01", t.TargetAmount, country}
	}
	return s.replace(ctx, "aop_targets", targetColumns, rows)
}

func (s *SQLiteStore) UpsertAccounts(ctx context.Context, accounts []model.Account) (int64, error) {
	if len(accounts) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert accounts: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO accounts (id, name, country) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, country = excluded.country`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert accounts: prepare")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, a := range accounts {
		res, err := stmt.ExecContext(ctx, a.ID, a.Name, a.Country)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert account %s", a.ID)
		}
		affected, _ := res.RowsAffected()
		n += affected
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert accounts: commit tx")
	}
	return n, nil
}

// replace deletes every row of table and inserts rows, in one transaction.
func (s *SQLiteStore) replace(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: replace %s: begin tx", table)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return 0, eris.Wrapf(err, "sqlite: replace %s: delete", table)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO "+table+" ("+strings.Join(columns, ", ")+") VALUES ("+placeholders+")")
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: replace %s: prepare", table)
	}
	defer stmt.Close() //nolint:errcheck

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: replace %s: insert", table)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrapf(err, "sqlite: replace %s: commit tx", table)
	}
	return int64(len(rows)), nil
}
