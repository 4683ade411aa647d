package store

const schema = `
CREATE TABLE IF NOT EXISTS posts (
    id               TEXT PRIMARY KEY,
    source           TEXT NOT NULL,
    text             TEXT NOT NULL DEFAULT '',
    timestamp        TEXT NOT NULL DEFAULT '',
    engagement_score REAL NOT NULL DEFAULT 0,
    author           TEXT NOT NULL DEFAULT '',
    url              TEXT NOT NULL DEFAULT '',
    collected_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_source ON posts(source);
CREATE INDEX IF NOT EXISTS idx_posts_collected_at ON posts(collected_at);

CREATE TABLE IF NOT EXISTS scans (
    id               TEXT PRIMARY KEY,
    started_at       DATETIME NOT NULL,
    finished_at      DATETIME NOT NULL,
    post_count       INTEGER NOT NULL DEFAULT 0,
    ticker_count     INTEGER NOT NULL DEFAULT 0,
    volume_weight    REAL NOT NULL DEFAULT 0,
    sentiment_weight REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_scans_finished ON scans(finished_at);

CREATE TABLE IF NOT EXISTS hype_results (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    scan_id         TEXT NOT NULL REFERENCES scans(id),
    ticker          TEXT NOT NULL,
    rank            INTEGER NOT NULL,
    hype_score      REAL NOT NULL,
    volume_score    REAL NOT NULL,
    sentiment_score REAL NOT NULL,
    mention_count   INTEGER NOT NULL,
    sentiment_trend TEXT NOT NULL DEFAULT '',
    detail          TEXT NOT NULL DEFAULT '{}',
    alerted         BOOLEAN NOT NULL DEFAULT 0,
    UNIQUE(scan_id, ticker)
);

CREATE INDEX IF NOT EXISTS idx_results_ticker ON hype_results(ticker);
`
