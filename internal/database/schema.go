package database

// Schema is the full database schema, auto-generated from the migration
// files. DO NOT EDIT MANUALLY. Run 'go generate ./internal/database' to
// regenerate. Tests apply it directly instead of running migrations.
const Schema = `CREATE TABLE index_operations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    operation TEXT NOT NULL,
    parameters TEXT NOT NULL DEFAULT '',
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP,
    status TEXT NOT NULL DEFAULT 'success'
);

CREATE TABLE media_files (
    id TEXT PRIMARY KEY,
    volume TEXT NOT NULL,
    fullpath TEXT NOT NULL,
    media_type TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    size INTEGER NOT NULL,
    modified_at TIMESTAMP NOT NULL,
    indexed_at TIMESTAMP NOT NULL,
    UNIQUE (fullpath, volume)
);

CREATE TABLE media_metadata (
    file_id TEXT PRIMARY KEY REFERENCES media_files (id) ON DELETE CASCADE,
    width INTEGER,
    height INTEGER,
    captured_at TIMESTAMP,
    camera_make TEXT,
    camera_model TEXT,
    latitude REAL,
    longitude REAL,
    place_name TEXT,
    keywords TEXT,
    caption TEXT
);

CREATE TABLE skipped_files (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    fullpath TEXT NOT NULL,
    reason TEXT NOT NULL,
    skipped_at TIMESTAMP NOT NULL
);

CREATE INDEX idx_media_files_content_hash ON media_files (content_hash);

CREATE INDEX idx_media_files_fullpath ON media_files (fullpath);
`
