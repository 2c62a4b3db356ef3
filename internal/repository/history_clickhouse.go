package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"quantdesk/internal/domain/models"
	pkgch "quantdesk/pkg/clickhouse"
	applogger "quantdesk/pkg/logger"
)

// CHHistoryStore persists signals, executions and sessions in ClickHouse.
type CHHistoryStore struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

func NewCHHistoryStore(ch *pkgch.Client, l *applogger.Logger) *CHHistoryStore {
	return &CHHistoryStore{ch: ch, db: ch.DB(), l: l}
}

var schemaStmts = []string{
	`CREATE TABLE IF NOT EXISTS signals_history (
        session_id String,
        symbol String,
        signal_type String,
        strength Float64,
        confidence Float64,
        price Float64,
        source String,
        models String,
        ts DateTime64(3)
    ) ENGINE = MergeTree
    ORDER BY (symbol, ts)`,
	`CREATE TABLE IF NOT EXISTS trade_executions (
        id String,
        broker String,
        symbol String,
        signal_type String,
        quantity Float64,
        price Float64,
        order_id String,
        success UInt8,
        error String,
        executed_at DateTime64(3)
    ) ENGINE = MergeTree
    ORDER BY (broker, executed_at)`,
	`CREATE TABLE IF NOT EXISTS trading_sessions (
        id String,
        symbols String,
        status String,
        iterations UInt32,
        signal_count UInt32,
        trade_count UInt32,
        error_count UInt32,
        started_at DateTime64(3),
        finished_at Nullable(DateTime64(3)),
        last_error String
    ) ENGINE = ReplacingMergeTree
    ORDER BY (id)`,
}

func (s *CHHistoryStore) Init(ctx context.Context) error {
	if err := s.ch.Health(ctx); err != nil {
		return fmt.Errorf("clickhouse health: %w", err)
	}
	if err := s.ch.InitSchema(ctx, schemaStmts); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *CHHistoryStore) StoreSignal(ctx context.Context, sessionID string, sig *models.Signal) error {
	votes, err := json.Marshal(sig.Models)
	if err != nil {
		votes = []byte("[]")
	}

	const q = `INSERT INTO signals_history
        (session_id, symbol, signal_type, strength, confidence, price, source, models, ts)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q,
		sessionID, sig.Symbol, string(sig.Type), sig.Strength, sig.Confidence,
		sig.Price, sig.Source, string(votes), sig.Timestamp); err != nil {
		s.l.Error("clickhouse store_signal error",
			applogger.String("symbol", sig.Symbol),
			applogger.Error(err))
		return fmt.Errorf("store signal: %w", err)
	}
	return nil
}

func (s *CHHistoryStore) StoreExecution(ctx context.Context, e *models.TradeExecution) error {
	success := uint8(0)
	if e.Success {
		success = 1
	}

	const q = `INSERT INTO trade_executions
        (id, broker, symbol, signal_type, quantity, price, order_id, success, error, executed_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q,
		e.ID, e.BrokerName, e.Symbol, string(e.SignalType), e.Quantity,
		e.Price, e.OrderID, success, e.Error, e.ExecutedAt); err != nil {
		s.l.Error("clickhouse store_execution error",
			applogger.String("broker", e.BrokerName),
			applogger.String("symbol", e.Symbol),
			applogger.Error(err))
		return fmt.Errorf("store execution: %w", err)
	}
	return nil
}

func (s *CHHistoryStore) StoreSession(ctx context.Context, sess *models.Session) error {
	const q = `INSERT INTO trading_sessions
        (id, symbols, status, iterations, signal_count, trade_count, error_count, started_at, finished_at, last_error)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q,
		sess.ID, strings.Join(sess.Symbols, ","), string(sess.Status),
		uint32(sess.Iterations), uint32(sess.SignalCount), uint32(sess.TradeCount),
		uint32(sess.ErrorCount), sess.StartedAt, sess.FinishedAt, sess.LastError); err != nil {
		s.l.Error("clickhouse store_session error",
			applogger.String("session", sess.ID),
			applogger.Error(err))
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *CHHistoryStore) QuerySignals(ctx context.Context, symbol string, limit int) ([]*models.Signal, error) {
	start := time.Now()
	if limit <= 0 {
		limit = 50
	}

	q := `SELECT symbol, signal_type, strength, confidence, price, source, models, ts
        FROM signals_history`
	args := make([]interface{}, 0, 2)
	if symbol != "" {
		q += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	q += ` ORDER BY ts DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse query_signals error",
			applogger.String("symbol", symbol),
			applogger.Error(err))
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Signal, 0, limit)
	for rows.Next() {
		var (
			sig      models.Signal
			sigType  string
			rawVotes string
		)
		if err := rows.Scan(&sig.Symbol, &sigType, &sig.Strength, &sig.Confidence,
			&sig.Price, &sig.Source, &rawVotes, &sig.Timestamp); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		sig.Type = models.SignalType(sigType)
		if rawVotes != "" {
			_ = json.Unmarshal([]byte(rawVotes), &sig.Models)
		}
		out = append(out, &sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	s.l.Debug("clickhouse query_signals ok",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)))
	return out, nil
}

func (s *CHHistoryStore) QueryExecutions(ctx context.Context, broker string, limit int) ([]*models.TradeExecution, error) {
	if limit <= 0 {
		limit = 50
	}

	q := `SELECT id, broker, symbol, signal_type, quantity, price, order_id, success, error, executed_at
        FROM trade_executions`
	args := make([]interface{}, 0, 2)
	if broker != "" {
		q += ` WHERE broker = ?`
		args = append(args, broker)
	}
	q += ` ORDER BY executed_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse query_executions error",
			applogger.String("broker", broker),
			applogger.Error(err))
		return nil, fmt.Errorf("query executions: %w", err)
	}
	defer rows.Close()

	out := make([]*models.TradeExecution, 0, limit)
	for rows.Next() {
		var (
			e       models.TradeExecution
			sigType string
			success uint8
		)
		if err := rows.Scan(&e.ID, &e.BrokerName, &e.Symbol, &sigType, &e.Quantity,
			&e.Price, &e.OrderID, &success, &e.Error, &e.ExecutedAt); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		e.SignalType = models.SignalType(sigType)
		e.Success = success == 1
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHHistoryStore) QuerySessions(ctx context.Context, limit int) ([]*models.Session, error) {
	if limit <= 0 {
		limit = 20
	}

	const q = `SELECT id, symbols, status, iterations, signal_count, trade_count, error_count, started_at, finished_at, last_error
        FROM trading_sessions FINAL
        ORDER BY started_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		s.l.Error("clickhouse query_sessions error", applogger.Error(err))
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Session, 0, limit)
	for rows.Next() {
		var (
			sess       models.Session
			symbols    string
			status     string
			iterations uint32
			sigCount   uint32
			tradeCount uint32
			errCount   uint32
			finished   sql.NullTime
		)
		if err := rows.Scan(&sess.ID, &symbols, &status, &iterations, &sigCount,
			&tradeCount, &errCount, &sess.StartedAt, &finished, &sess.LastError); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if symbols != "" {
			sess.Symbols = strings.Split(symbols, ",")
		}
		sess.Status = models.SessionStatus(status)
		sess.Iterations = int(iterations)
		sess.SignalCount = int(sigCount)
		sess.TradeCount = int(tradeCount)
		sess.ErrorCount = int(errCount)
		if finished.Valid {
			t := finished.Time
			sess.FinishedAt = &t
		}
		out = append(out, &sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// PriceWindow returns the latest n stored prices for a symbol, oldest
// first. An empty slice means the symbol has no real history yet.
func (s *CHHistoryStore) PriceWindow(ctx context.Context, symbol string, n int) ([]float64, error) {
	const q = `SELECT price FROM signals_history
        WHERE symbol = ?
        ORDER BY ts DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		return nil, fmt.Errorf("price window: %w", err)
	}
	defer rows.Close()

	tmp := make([]float64, 0, n)
	for rows.Next() {
		var p float64
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		tmp = append(tmp, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	return tmp, nil
}

func (s *CHHistoryStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *CHHistoryStore) Close() error {
	return s.ch.Close()
}
