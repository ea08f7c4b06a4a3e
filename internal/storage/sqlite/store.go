// Package sqlite는 mattn/go-sqlite3 기반 storage.Store 구현입니다.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/assist-by/replica/internal/domain"
	"github.com/assist-by/replica/internal/storage"
)

const (
	upsertAccount = `
		INSERT INTO accounts
		(user_id, api_key, api_secret, active, multiplier, leverage, available_fund, live_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			api_key = excluded.api_key,
			api_secret = excluded.api_secret,
			active = excluded.active,
			multiplier = excluded.multiplier,
			leverage = excluded.leverage,
			available_fund = excluded.available_fund,
			live_pnl = excluded.live_pnl`

	upsertOrder = `
		INSERT INTO orders
		(order_id, client_order_id, user_id, market, symbol, side, order_type, price, quantity, size_usdt, status, time, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(order_id) DO UPDATE SET
			price = excluded.price,
			quantity = excluded.quantity,
			size_usdt = excluded.size_usdt,
			status = excluded.status,
			active = excluded.active`

	insertClosed = `
		INSERT INTO closed_positions
		(user_id, symbol, quantity, size_usdt, entry_price, exit_price, realized_pnl, close_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	orderColumns = `order_id, client_order_id, user_id, market, symbol, side, order_type, price, quantity, size_usdt, status, time, active`
)

// Store는 sqlite 파일 하나를 사용하는 저장소입니다
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// New는 path의 sqlite 데이터베이스를 엽니다
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite 열기 실패: %w", err)
	}
	// sqlite는 쓰기 잠금이 하나뿐이므로 연결도 하나만 사용합니다
	db.SetMaxOpenConns(1)

	return &Store{db: db}, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("스키마 생성 실패: %w", err)
	}
	return nil
}

func (s *Store) LoadAccounts(ctx context.Context) ([]domain.AccountConfig, error) {
	rows, err := s.db.QueryContext(ctx, `
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
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE active = 1 ORDER BY time, rowid`)
	if err != nil {
		return nil, fmt.Errorf("활성 주문 조회 실패: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (s *Store) SaveAccount(ctx context.Context, a domain.AccountConfig) error {
	if _, err := s.db.ExecContext(ctx, upsertAccount, accountArgs(a)...); err != nil {
		return fmt.Errorf("계정 저장 실패: %w", err)
	}
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("계정 삭제 실패: %w", err)
	}
	return nil
}

func (s *Store) WriteBatch(ctx context.Context, accounts []domain.AccountConfig, orders []domain.PendingOrder, closed []domain.ClosedPosition) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("트랜잭션 시작 실패: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, a := range accounts {
		if _, err = tx.ExecContext(ctx, upsertAccount, accountArgs(a)...); err != nil {
			return fmt.Errorf("계정 %s 기록 실패: %w", a.UserID, err)
		}
	}
	for _, o := range orders {
		if _, err = tx.ExecContext(ctx, upsertOrder,
			o.OrderID, o.ClientOrderID, o.UserID, string(o.Market), o.Symbol, string(o.Side), string(o.OrderType),
			o.Price, o.Quantity, o.SizeUSDT, string(o.Status), o.Time.UTC(), o.Active,
		); err != nil {
			return fmt.Errorf("주문 %s 기록 실패: %w", o.OrderID, err)
		}
	}
	for _, c := range closed {
		if _, err = tx.ExecContext(ctx, insertClosed,
			c.UserID, c.Symbol, c.Quantity, c.SizeUSDT, c.EntryPrice, c.ExitPrice, c.RealizedPnL, c.CloseTime.UTC(),
		); err != nil {
			return fmt.Errorf("청산 기록 실패: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("커밋 실패: %w", err)
	}
	return nil
}

func (s *Store) ListOrders(ctx context.Context, opts storage.ListOptions) ([]domain.PendingOrder, error) {
	var (
		where []string
		args  []any
	)
	if opts.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, opts.UserID)
	}
	if opts.ActiveOnly {
		where = append(where, "active = 1")
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + whereClause(where) + ` ORDER BY time DESC LIMIT ?`
	args = append(args, opts.EffectiveLimit())

	rows, err := s.db.QueryContext(ctx, query, args...)
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
		where = append(where, "user_id = ?")
		args = append(args, opts.UserID)
	}

	query := `
		SELECT id, user_id, symbol, quantity, size_usdt, entry_price, exit_price, realized_pnl, close_time
		FROM closed_positions` + whereClause(where) + ` ORDER BY close_time DESC, id DESC LIMIT ?`
	args = append(args, opts.EffectiveLimit())

	rows, err := s.db.QueryContext(ctx, query, args...)
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
	return s.db.Close()
}

func accountArgs(a domain.AccountConfig) []any {
	return []any{a.UserID, a.APIKey, a.APISecret, a.Active, a.Multiplier, a.Leverage, a.AvailableFund, a.LivePnL}
}

func scanOrders(rows *sql.Rows) ([]domain.PendingOrder, error) {
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
