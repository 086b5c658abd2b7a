package cache

const schema = `
CREATE TABLE IF NOT EXISTS entries (
    key TEXT PRIMARY KEY,
    task_id TEXT NOT NULL,
    exit_code INTEGER NOT NULL DEFAULT 0,
    output TEXT,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    accessed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_entries_task_id ON entries(task_id);
CREATE INDEX IF NOT EXISTS idx_entries_accessed_at ON entries(accessed_at);
`
