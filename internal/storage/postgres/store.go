// Package postgres는 jackc/pgx 기반 storage.Store 구현입니다.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assist-by/replica/internal/domain"
	"github.com/assist-by/replica/internal/storage"
)

// Schema는 postgres 테이블 정의입니다
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	user_id        TEXT PRIMARY KEY,
	api_key        TEXT NOT NULL,
	api_secret     TEXT NOT NULL,
	active         BOOLEAN NOT NULL DEFAULT FALSE,
	multiplier     DOUBLE PRECISION NOT NULL DEFAULT 1,
	leverage       INTEGER NOT NULL DEFAULT 1,
	available_fund DOUBLE PRECISION NOT NULL DEFAULT 0,
	live_pnl       DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS orders (
	order_id        TEXT PRIMARY KEY,
	client_order_id TEXT NOT NULL DEFAULT '',
	user_id         TEXT NOT NULL,
	market          TEXT NOT NULL,
	symbol          TEXT NOT NULL,
	side            TEXT NOT NULL,
	order_type      TEXT NOT NULL,
	price           DOUBLE PRECISION NOT NULL DEFAULT 0,
	quantity        DOUBLE PRECISION NOT NULL DEFAULT 0,
	size_usdt       DOUBLE PRECISION NOT NULL DEFAULT 0,
	status          TEXT NOT NULL,
	time            TIMESTAMPTZ NOT NULL,
	active          BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE INDEX IF NOT EXISTS idx_orders_user_active ON orders(user_id, active);

CREATE TABLE IF NOT EXISTS closed_positions (
	id           BIGSERIAL PRIMARY KEY,
	user_id      TEXT NOT NULL,
	symbol       TEXT NOT NULL,
	quantity     DOUBLE PRECISION NOT NULL,
	size_usdt    DOUBLE PRECISION NOT NULL,
	entry_price  DOUBLE PRECISION NOT NULL,
	exit_price   DOUBLE PRECISION NOT NULL,
	realized_pnl DOUBLE PRECISION NOT NULL,
	close_time   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_closed_positions_user ON closed_positions(user_id);
`

const (
	upsertAccount = `
		INSERT INTO accounts
		(user_id, api_key, api_secret, active, multiplier, leverage, available_fund, live_pnl)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			api_key = EXCLUDED.api_key,
			api_secret = EXCLUDED.api_secret,
			active = EXCLUDED.active,
			multiplier = EXCLUDED.multiplier,
			leverage = EXCLUDED.leverage,
			available_fund = EXCLUDED.available_fund,
			live_pnl = EXCLUDED.live_pnl`

	upsertOrder = `
		INSERT INTO orders
		(order_id, client_order_id, user_id, market, symbol, side, order_type, price, quantity, size_usdt, status, time, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (order_id) DO UPDATE SET
			price = EXCLUDED.price,
			quantity = EXCLUDED.quantity,
			size_usdt = EXCLUDED.size_usdt,
			status = EXCLUDED.status,
			active = EXCLUDED.active`

	insertClosed = `
		INSERT INTO closed_positions
		(user_id, symbol, quantity, size_usdt, entry_price, exit_price, realized_pnl, close_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	orderColumns = `order_id, client_order_id, user_id, market, symbol, side, order_type, price, quantity, size_usdt, status, time, active`
)

// Store는 pgxpool을 사용하는 저장소입니다
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

// New는 dsn으로 연결 풀을 만들고 연결을 확인합니다
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres 연결 풀 생성 실패: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres 연결 실패: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool은 이미 만들어진 연결 풀을 사용합니다
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("스키마 생성 실패: %w", err)
	}
	return nil
}

func (s *Store) LoadAccounts(ctx context.Context) ([]domain.AccountConfig, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, api_key, api_secret, active, multiplier, leverage, available_fund, live_pnl
		FROM accounts ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("계정 조회 실패: %w", err)
	}
	defer rows.Close()

	var out []domain.AccountConfig
	for rows.Next() {
		var a domain.AccountConfig
		if err := rows.Scan(&a.UserID, &a.APIKey, &a.APISecret, &a.Active, &a.Multiplier, &a.Leverage, &a.AvailableFund, &a.LivePnL); err != nil {
			return nil, fmt.Errorf("계정 행 읽기 실패: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) LoadActiveOrders(ctx context.Context) ([]domain.PendingOrder, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE active ORDER BY time, order_id`)
	if err != nil {
		return nil, fmt.Errorf("활성 주문 조회 실패: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (s *Store) SaveAccount(ctx context.Context, a domain.AccountConfig) error {
	if _, err := s.pool.Exec(ctx, upsertAccount, accountArgs(a)...); err != nil {
		return fmt.Errorf("계정 저장 실패: %w", err)
	}
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, userID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM accounts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("계정 삭제 실패: %w", err)
	}
	return nil
}

func (s *Store) WriteBatch(ctx context.Context, accounts []domain.AccountConfig, orders []domain.PendingOrder, closed []domain.ClosedPosition) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, a := range accounts {
			batch.Queue(upsertAccount, accountArgs(a)...)
		}
		for _, o := range orders {
			batch.Queue(upsertOrder,
				o.OrderID, o.ClientOrderID, o.UserID, string(o.Market), o.Symbol, string(o.Side), string(o.OrderType),
				o.Price, o.Quantity, o.SizeUSDT, string(o.Status), o.Time, o.Active)
		}
		for _, c := range closed {
			batch.Queue(insertClosed,
				c.UserID, c.Symbol, c.Quantity, c.SizeUSDT, c.EntryPrice, c.ExitPrice, c.RealizedPnL, c.CloseTime)
		}
		if batch.Len() == 0 {
			return nil
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("배치 기록 실패: %w", err)
		}
		return nil
	})
}

func (s *Store) ListOrders(ctx context.Context, opts storage.ListOptions) ([]domain.PendingOrder, error) {
	var (
		where []string
		args  []any
	)
	if opts.UserID != "" {
		args = append(args, opts.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if opts.ActiveOnly {
		where = append(where, "active")
	}
	args = append(args, opts.EffectiveLimit())

	query := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY time DESC LIMIT $%d`, orderColumns, whereClause(where), len(args))
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("주문 목록 조회 실패: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (s *Store) ListClosedPositions(ctx context.Context, opts storage.ListOptions) ([]domain.ClosedPosition, error) {
	var (
		where []string
		args  []any
	)
	if opts.UserID != "" {
		args = append(args, opts.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	args = append(args, opts.EffectiveLimit())

	query := fmt.Sprintf(`
		SELECT id, user_id, symbol, quantity, size_usdt, entry_price, exit_price, realized_pnl, close_time
		FROM closed_positions%s ORDER BY close_time DESC, id DESC LIMIT $%d`, whereClause(where), len(args))
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("청산 목록 조회 실패: %w", err)
	}
	defer rows.Close()

	var out []domain.ClosedPosition
	for rows.Next() {
		var c domain.ClosedPosition
		if err := rows.Scan(&c.ID, &c.UserID, &c.Symbol, &c.Quantity, &c.SizeUSDT, &c.EntryPrice, &c.ExitPrice, &c.RealizedPnL, &c.CloseTime); err != nil {
			return nil, fmt.Errorf("청산 행 읽기 실패: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func accountArgs(a domain.AccountConfig) []any {
	return []any{a.UserID, a.APIKey, a.APISecret, a.Active, a.Multiplier, a.Leverage, a.AvailableFund, a.LivePnL}
}

func scanOrders(rows pgx.Rows) ([]domain.PendingOrder, error) {
	var out []domain.PendingOrder
	for rows.Next() {
		var (
			o                                   domain.PendingOrder
			market, side, orderType, statusText string
		)
		if err := rows.Scan(&o.OrderID, &o.ClientOrderID, &o.UserID, &market, &o.Symbol, &side, &orderType,
			&o.Price, &o.Quantity, &o.SizeUSDT, &statusText, &o.Time, &o.Active); err != nil {
			return nil, fmt.Errorf("주문 행 읽기 실패: %w", err)
		}
		o.Market = domain.Market(market)
		o.Side = domain.OrderSide(side)
		o.OrderType = domain.OrderType(orderType)
		o.Status = domain.OrderStatus(statusText)
		out = append(out, o)
	}
	return out, rows.Err()
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
