package store

const Schema = `
CREATE TABLE IF NOT EXISTS shows (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	path TEXT NOT NULL,
	location TEXT,
	size_bytes INTEGER NOT NULL DEFAULT 0,
	season_count INTEGER NOT NULL DEFAULT 0,
	episode_count INTEGER NOT NULL DEFAULT 0,
	thumbnail_path TEXT,
	source TEXT NOT NULL DEFAULT 'fs_scan',
	last_scan DATETIME,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	show_id TEXT NOT NULL REFERENCES shows(id),
	source_path TEXT NOT NULL,
	destination_path TEXT NOT NULL,
	status TEXT NOT NULL,
	progress_bytes INTEGER NOT NULL DEFAULT 0,
	total_bytes INTEGER NOT NULL DEFAULT 0,
	speed_bytes_per_sec INTEGER NOT NULL DEFAULT 0,
	eta_seconds INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// Indexes are applied after duplicate show paths have been removed.
const Indexes = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_shows_path ON shows(path);
CREATE INDEX IF NOT EXISTS idx_shows_location ON shows(location);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_show_id ON jobs(show_id);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
`
