package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"

	"sym2arb/internal/models"
)

// SQLiteStore persists scan records in a single SQLite database file,
// an alternative to JSONStorage for deployments that want queryable
// history rather than a flat file.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and applies
// its one-shot schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite store: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite store: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS scan_records (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			date        TEXT NOT NULL,
			config_json TEXT NOT NULL,
			result_json TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_scan_records_date ON scan_records(date);
		CREATE INDEX IF NOT EXISTS idx_scan_records_run ON scan_records(run_id);

		CREATE TABLE IF NOT EXISTS scan_statistics (
			id              INTEGER PRIMARY KEY CHECK (id = 1),
			total_scans     INTEGER NOT NULL DEFAULT 0,
			total_results   INTEGER NOT NULL DEFAULT 0,
			best_credit     REAL NOT NULL DEFAULT 0,
			worst_credit    REAL NOT NULL DEFAULT 0,
			best_worst_pnl  REAL NOT NULL DEFAULT 0,
			worst_worst_pnl REAL NOT NULL DEFAULT 0
		);
		INSERT OR IGNORE INTO scan_statistics (id) VALUES (1);
	`)
	return err
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveScan inserts every result as a row and updates the running
// aggregate statistics, all inside one transaction. Saving the same
// runID twice is a no-op (mirrors JSONStorage's idempotent replay
// safety).
func (s *SQLiteStore) SaveScan(runID uuid.UUID, date string, cfg models.StrategyConfig, results []models.ScanResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM scan_records WHERE run_id = ?`, runID.String()).Scan(&exists); err != nil {
		return fmt.Errorf("check existing run: %w", err)
	}
	if exists > 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO scan_records (run_id, date, config_json, result_json, recorded_at) VALUES (?, ?, ?, ?, datetime('now'))`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		resultJSON, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		if _, err := stmt.Exec(runID.String(), date, string(cfgJSON), string(resultJSON)); err != nil {
			return fmt.Errorf("insert scan record: %w", err)
		}
	}

	if len(results) > 0 {
		bestCredit, worstCredit := results[0].CreditAtMax, results[0].CreditAtMax
		bestWorst, worstWorst := results[0].BestWorstPnL, results[0].BestWorstPnL
		for _, r := range results {
			if r.CreditAtMax > bestCredit {
				bestCredit = r.CreditAtMax
			}
			if r.CreditAtMax < worstCredit {
				worstCredit = r.CreditAtMax
			}
			if r.BestWorstPnL > bestWorst {
				bestWorst = r.BestWorstPnL
			}
			if r.BestWorstPnL < worstWorst {
				worstWorst = r.BestWorstPnL
			}
		}
		if _, err := tx.Exec(`
			UPDATE scan_statistics SET
				total_scans = total_scans + 1,
				total_results = total_results + ?,
				best_credit = MAX(best_credit, ?),
				worst_credit = MIN(CASE WHEN total_scans = 0 THEN ? ELSE worst_credit END, ?),
				best_worst_pnl = MAX(best_worst_pnl, ?),
				worst_worst_pnl = MIN(CASE WHEN total_scans = 0 THEN ? ELSE worst_worst_pnl END, ?)
			WHERE id = 1`,
			len(results), bestCredit, worstCredit, worstCredit, bestWorst, worstWorst, worstWorst); err != nil {
			return fmt.Errorf("update statistics: %w", err)
		}
	}

	return tx.Commit()
}

// GetScansByDate returns every ScanRecord persisted for date.
func (s *SQLiteStore) GetScansByDate(date string) []ScanRecord {
	rows, err := s.db.Query(`SELECT run_id, date, config_json, result_json, recorded_at FROM scan_records WHERE date = ? ORDER BY id ASC`, date)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []ScanRecord
	for rows.Next() {
		var runIDStr, rowDate, cfgJSON, resultJSON string
		var recordedAt string
		if err := rows.Scan(&runIDStr, &rowDate, &cfgJSON, &resultJSON, &recordedAt); err != nil {
			continue
		}
		var rec ScanRecord
		rec.RunID, _ = uuid.Parse(runIDStr)
		rec.Date = rowDate
		_ = json.Unmarshal([]byte(cfgJSON), &rec.Config)
		_ = json.Unmarshal([]byte(resultJSON), &rec.Result)
		out = append(out, rec)
	}
	return out
}

// GetStatistics returns the current aggregate statistics row.
func (s *SQLiteStore) GetStatistics() ScanStatistics {
	var st ScanStatistics
	_ = s.db.QueryRow(`SELECT total_scans, total_results, best_credit, worst_credit, best_worst_pnl, worst_worst_pnl FROM scan_statistics WHERE id = 1`).
		Scan(&st.TotalScans, &st.TotalResults, &st.BestCredit, &st.WorstCredit, &st.BestWorstPnL, &st.WorstWorstPnL)
	return st
}

// Save is a no-op: every SaveScan call already commits its transaction.
func (s *SQLiteStore) Save() error { return nil }

// Load is a no-op: SQLite has no separate in-memory state to refresh.
func (s *SQLiteStore) Load() error { return nil }
