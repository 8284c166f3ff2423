package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"cashback-scraper/models"
	"cashback-scraper/utils"
)

type dialect struct {
	name        string
	driver      string
	schema      string
	placeholder func(n int) string
}

var postgresDialect = dialect{
	name:   "postgres",
	driver: "postgres",
	schema: `
		CREATE TABLE IF NOT EXISTS runs (
			seq           SERIAL PRIMARY KEY,
			run_id        TEXT        UNIQUE NOT NULL,
			finished_unix BIGINT      NOT NULL,
			merchants     INTEGER     NOT NULL DEFAULT 0,
			offers        INTEGER     NOT NULL DEFAULT 0,
			errors        INTEGER     NOT NULL DEFAULT 0,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS offers (
			id       SERIAL PRIMARY KEY,
			run_id   TEXT         NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			merchant TEXT         NOT NULL,
			platform VARCHAR(50)  NOT NULL,
			kind     VARCHAR(20)  NOT NULL,
			rate     NUMERIC(6,2) NOT NULL,
			url      TEXT         NOT NULL DEFAULT '',
			UNIQUE (run_id, merchant, platform, kind)
		);

		CREATE INDEX IF NOT EXISTS idx_offers_merchant ON offers(merchant);
		CREATE INDEX IF NOT EXISTS idx_offers_run      ON offers(run_id);
	`,
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
}

var sqliteDialect = dialect{
	name:   "sqlite",
	driver: "sqlite",
	schema: `
		CREATE TABLE IF NOT EXISTS runs (
			seq           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        TEXT    UNIQUE NOT NULL,
			finished_unix INTEGER NOT NULL,
			merchants     INTEGER NOT NULL DEFAULT 0,
			offers        INTEGER NOT NULL DEFAULT 0,
			errors        INTEGER NOT NULL DEFAULT 0,
			created_at    TEXT    NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS offers (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id   TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			merchant TEXT NOT NULL,
			platform TEXT NOT NULL,
			kind     TEXT NOT NULL,
			rate     REAL NOT NULL,
			url      TEXT NOT NULL DEFAULT '',
			UNIQUE (run_id, merchant, platform, kind)
		);

		CREATE INDEX IF NOT EXISTS idx_offers_merchant ON offers(merchant);
		CREATE INDEX IF NOT EXISTS idx_offers_run      ON offers(run_id);
	`,
	placeholder: func(int) string { return "?" },
}

// SQLHistory stores every run and its offers so rates can be compared over time.
type SQLHistory struct {
	db      *sql.DB
	dialect dialect
}

// NewPostgresHistory connects to PostgreSQL, retrying the initial ping, and
// runs schema migrations.
func NewPostgresHistory(dsn string, retry *utils.RetryConfig) (*SQLHistory, error) {
	return openHistory(postgresDialect, dsn, retry)
}

// NewSQLiteHistory opens (or creates) a SQLite database file. ":memory:" is
// accepted for tests.
func NewSQLiteHistory(path string, retry *utils.RetryConfig) (*SQLHistory, error) {
	return openHistory(sqliteDialect, path, retry)
}

func openHistory(d dialect, dsn string, retry *utils.RetryConfig) (*SQLHistory, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", d.name, err)
	}
	if d.driver == sqliteDialect.driver {
		// each connection to :memory: is its own database
		db.SetMaxOpenConns(1)
	}

	if err := retry.Do(d.name+"-ping", db.Ping); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", d.name, err)
	}

	h := &SQLHistory{db: db, dialect: d}
	if err := h.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: migrate: %w", d.name, err)
	}
	return h, nil
}

func (h *SQLHistory) migrate() error {
	_, err := h.db.Exec(h.dialect.schema)
	return err
}

// Write stores the run and all of its offers in one transaction.
func (h *SQLHistory) Write(ctx context.Context, report *models.RunReport) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", h.dialect.name, err)
	}
	defer tx.Rollback()

	p := h.dialect.placeholder
	_, err = tx.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO runs (run_id, finished_unix, merchants, offers, errors) VALUES (%s,%s,%s,%s,%s)`,
		p(1), p(2), p(3), p(4), p(5)),
		report.RunID, report.LastUpdated.Unix(), report.Stats.TotalMerchants,
		report.Stats.TotalOffers, report.Stats.Errors)
	if err != nil {
		return fmt.Errorf("%s: insert run: %w", h.dialect.name, err)
	}

	var offers []offerRow
	for _, m := range report.Merchants {
		for _, o := range m.Offers {
			offers = append(offers, offerRow{merchant: m.Name, offer: o})
		}
	}

	const batchSize = 50
	for i := 0; i < len(offers); i += batchSize {
		end := i + batchSize
		if end > len(offers) {
			end = len(offers)
		}
		if err := h.insertBatch(ctx, tx, report.RunID, offers[i:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", h.dialect.name, err)
	}
	return nil
}

type offerRow struct {
	merchant string
	offer    models.Offer
}

func (h *SQLHistory) insertBatch(ctx context.Context, tx *sql.Tx, runID string, batch []offerRow) error {
	const cols = 6
	p := h.dialect.placeholder
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, r := range batch {
		base := idx * cols
		valueStrings = append(valueStrings,
			fmt.Sprintf("(%s,%s,%s,%s,%s,%s)",
				p(base+1), p(base+2), p(base+3), p(base+4), p(base+5), p(base+6)))
		valueArgs = append(valueArgs,
			runID, r.merchant, r.offer.Platform, string(r.offer.Kind), r.offer.Rate, r.offer.URL)
	}

	query := fmt.Sprintf(`
		INSERT INTO offers (run_id, merchant, platform, kind, rate, url)
		VALUES %s
		ON CONFLICT (run_id, merchant, platform, kind) DO NOTHING
	`, strings.Join(valueStrings, ","))

	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("%s: insert offers: %w", h.dialect.name, err)
	}
	return nil
}

// PreviousBest returns the best rate of kind per merchant from the latest run.
func (h *SQLHistory) PreviousBest(ctx context.Context, kind models.OfferKind) (map[string]float64, error) {
	p := h.dialect.placeholder
	rows, err := h.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT merchant, MAX(rate)
		FROM offers
		WHERE kind = %s
		  AND run_id = (SELECT run_id FROM runs ORDER BY finished_unix DESC, seq DESC LIMIT 1)
		GROUP BY merchant
	`, p(1)), string(kind))
	if err != nil {
		return nil, fmt.Errorf("%s: previous best: %w", h.dialect.name, err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var merchant string
		var rate float64
		if err := rows.Scan(&merchant, &rate); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", h.dialect.name, err)
		}
		out[merchant] = rate
	}
	return out, rows.Err()
}

// RateHistory lists the best rate of kind for merchant across runs, oldest first.
func (h *SQLHistory) RateHistory(ctx context.Context, merchant string, kind models.OfferKind) ([]float64, error) {
	p := h.dialect.placeholder
	rows, err := h.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT MAX(o.rate)
		FROM offers o
		JOIN runs r ON r.run_id = o.run_id
		WHERE o.merchant = %s AND o.kind = %s
		GROUP BY r.seq
		ORDER BY r.seq
	`, p(1), p(2)), merchant, string(kind))
	if err != nil {
		return nil, fmt.Errorf("%s: rate history: %w", h.dialect.name, err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var rate float64
		if err := rows.Scan(&rate); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", h.dialect.name, err)
		}
		out = append(out, rate)
	}
	return out, rows.Err()
}

func (h *SQLHistory) Close() error {
	return h.db.Close()
}
