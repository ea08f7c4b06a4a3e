package sqlite

// Schema는 sqlite 테이블 정의입니다
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	user_id        TEXT PRIMARY KEY,
	api_key        TEXT NOT NULL,
	api_secret     TEXT NOT NULL,
	active         BOOLEAN NOT NULL DEFAULT 0,
	multiplier     REAL NOT NULL DEFAULT 1,
	leverage       INTEGER NOT NULL DEFAULT 1,
	available_fund REAL NOT NULL DEFAULT 0,
	live_pnl       REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS orders (
	order_id        TEXT PRIMARY KEY,
	client_order_id TEXT NOT NULL DEFAULT '',
	user_id         TEXT NOT NULL,
	market          TEXT NOT NULL,
	symbol          TEXT NOT NULL,
	side            TEXT NOT NULL,
	order_type      TEXT NOT NULL,
	price           REAL NOT NULL DEFAULT 0,
	quantity        REAL NOT NULL DEFAULT 0,
	size_usdt       REAL NOT NULL DEFAULT 0,
	status          TEXT NOT NULL,
	time            TIMESTAMP NOT NULL,
	active          BOOLEAN NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_orders_user_active ON orders(user_id, active);

CREATE TABLE IF NOT EXISTS closed_positions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id      TEXT NOT NULL,
	symbol       TEXT NOT NULL,
	quantity     REAL NOT NULL,
	size_usdt    REAL NOT NULL,
	entry_price  REAL NOT NULL,
	exit_price   REAL NOT NULL,
	realized_pnl REAL NOT NULL,
	close_time   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_closed_positions_user ON closed_positions(user_id);
`
