package journal

// Annualized return, Sharpe ratio, and profit factor have columns so the
// schema is stable, but are stored as 0 until a separate analyzer computes
// them.
const Schema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	strategy TEXT NOT NULL,
	granularity TEXT NOT NULL,
	start_date DATETIME NOT NULL,
	end_date DATETIME NOT NULL,
	initial_capital REAL NOT NULL,
	final_capital REAL NOT NULL,
	total_return REAL NOT NULL,
	annualized_return REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	sharpe_ratio REAL NOT NULL,
	total_trades INTEGER NOT NULL,
	win_rate REAL NOT NULL,
	profit_factor REAL NOT NULL,
	commission_rate REAL NOT NULL,
	slippage_rate REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS trade_log (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL REFERENCES backtest_runs(run_id),
	instrument TEXT NOT NULL,
	trade_time DATETIME NOT NULL,
	action TEXT NOT NULL,
	price REAL NOT NULL,
	quantity INTEGER NOT NULL,
	commission REAL NOT NULL,
	slippage REAL NOT NULL,
	pnl REAL NOT NULL,
	position_size INTEGER NOT NULL,
	portfolio_value REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS value_snapshots (
	run_id TEXT NOT NULL REFERENCES backtest_runs(run_id),
	time DATETIME NOT NULL,
	cash REAL NOT NULL,
	holdings_value REAL NOT NULL,
	total_value REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trade_log_run ON trade_log(run_id);
CREATE INDEX IF NOT EXISTS idx_snapshots_run ON value_snapshots(run_id, time);
`
