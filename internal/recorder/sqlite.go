package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the audit trail to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets external readers query while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			symbol        TEXT NOT NULL,
			bias          TEXT,
			setup         TEXT,
			close         REAL,
			entry         REAL,
			stop_loss     REAL,
			take_profit_1 REAL,
			take_profit_2 REAL,
			invalidation  REAL,
			stop_distance REAL,
			risk_usd      REAL,
			position_size REAL,
			ema_fast      REAL,
			ema_slow      REAL,
			ema_trend     REAL,
			rsi           REAL,
			atr           REAL,
			delivered     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_ts ON alerts(timestamp)`,

		`CREATE TABLE IF NOT EXISTS evaluation_failures (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			symbol    TEXT NOT NULL,
			outcome   TEXT,
			error     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_ts ON evaluation_failures(timestamp)`,

		`CREATE TABLE IF NOT EXISTS fills (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			session_date   TEXT,
			symbol         TEXT NOT NULL,
			pnl            TEXT NOT NULL,
			note           TEXT,
			cumulative_pnl REAL,
			pnl_pct        REAL,
			trade_count    INTEGER,
			stop_trading   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fills_ts ON fills(timestamp)`,

		`CREATE TABLE IF NOT EXISTS session_events (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			session_date   TEXT,
			event_type     TEXT,
			cumulative_pnl REAL,
			pnl_pct        REAL,
			win_count      INTEGER,
			loss_count     INTEGER,
			limit_breached INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_session_ts ON session_events(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAlert(evt *AlertEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := evt.Signal
	ind := s.Indicators
	_, err := r.db.Exec(`INSERT INTO alerts
		(timestamp, symbol, bias, setup, close, entry, stop_loss, take_profit_1, take_profit_2,
		 invalidation, stop_distance, risk_usd, position_size,
		 ema_fast, ema_slow, ema_trend, rsi, atr, delivered)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.now().Unix(), s.Symbol, string(s.Bias), string(s.Setup), s.Close,
		s.Entry, s.StopLoss, s.TakeProfit1, s.TakeProfit2,
		s.Invalidation, s.StopDistance, s.RiskUSD, s.PositionSize,
		ind.EMAFast, ind.EMASlow, ind.EMATrend, ind.RSI, ind.ATR, evt.Delivered,
	)
	return err
}

func (r *SQLiteRecorder) RecordFailure(evt *FailureEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO evaluation_failures
		(timestamp, symbol, outcome, error)
		VALUES (?,?,?,?)`,
		r.now().Unix(), evt.Symbol, string(evt.Outcome), evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordFill(evt *FillEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := evt.State
	_, err := r.db.Exec(`INSERT INTO fills
		(timestamp, session_date, symbol, pnl, note, cumulative_pnl, pnl_pct, trade_count, stop_trading)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		r.now().Unix(), st.Date, evt.Symbol, evt.PnL, evt.Note,
		st.CumulativePnL, st.PnLPct, st.TradeCount, evt.StopTrading,
	)
	return err
}

func (r *SQLiteRecorder) RecordSession(evt *SessionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := evt.State
	_, err := r.db.Exec(`INSERT INTO session_events
		(timestamp, session_date, event_type, cumulative_pnl, pnl_pct, win_count, loss_count, limit_breached)
		VALUES (?,?,?,?,?,?,?,?)`,
		r.now().Unix(), st.Date, evt.EventType,
		st.CumulativePnL, st.PnLPct, st.WinCount, st.LossCount, st.LimitBreached,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
