package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	dataset TEXT NOT NULL,
	symbol TEXT NOT NULL,
	strategy TEXT NOT NULL,
	mode TEXT NOT NULL,
	params TEXT NOT NULL,
	fee_rate REAL NOT NULL,
	slippage_rate REAL NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	bars INTEGER NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	rejections INTEGER NOT NULL,
	start_balance REAL NOT NULL,
	end_balance REAL NOT NULL,
	net_pl REAL NOT NULL,
	return_pct REAL NOT NULL,
	win_rate REAL NOT NULL,
	profit_factor REAL NOT NULL,
	max_dd_pct REAL NOT NULL,
	avg_r REAL NOT NULL,
	sharpe REAL NOT NULL,
	org_path TEXT NOT NULL,
	notes TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	quantity REAL NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	entry_fee REAL NOT NULL,
	exit_fee REAL NOT NULL,
	realized_pl REAL NOT NULL,
	r REAL NOT NULL,
	mfe REAL NOT NULL,
	mae REAL NOT NULL,
	stop REAL NOT NULL,
	target REAL NOT NULL,
	bars_held INTEGER NOT NULL,
	reason TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, seq);
CREATE INDEX IF NOT EXISTS idx_trades_close ON trades(close_time);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	equity REAL NOT NULL,
	drawdown REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_equity_run_time ON equity(run_id, time);
`
