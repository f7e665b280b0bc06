package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS agent_usage (
    file_path   TEXT PRIMARY KEY,
    mtime_ns    INTEGER NOT NULL,
    size_bytes  INTEGER NOT NULL,
    tokens      INTEGER NOT NULL,
    cost        REAL NOT NULL,
    model       TEXT,
    cached_at   TEXT NOT NULL
);
`
