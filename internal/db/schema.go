package db

const schema = `
-- Cameras table
CREATE TABLE IF NOT EXISTS cameras (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL DEFAULT 'guest',
    name TEXT NOT NULL DEFAULT '',
    make TEXT DEFAULT '',
    model TEXT DEFAULT '',
    serial TEXT DEFAULT '',
    notes TEXT DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    deleted_at INTEGER
);

-- Lenses table
CREATE TABLE IF NOT EXISTS lenses (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL DEFAULT 'guest',
    name TEXT NOT NULL DEFAULT '',
    make TEXT DEFAULT '',
    focal_length INTEGER DEFAULT 0,
    max_aperture REAL DEFAULT 0,
    notes TEXT DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    deleted_at INTEGER
);

-- Film stocks table
CREATE TABLE IF NOT EXISTS films (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL DEFAULT 'guest',
    name TEXT NOT NULL DEFAULT '',
    make TEXT DEFAULT '',
    iso INTEGER DEFAULT 0,
    format TEXT DEFAULT '',
    process TEXT DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    deleted_at INTEGER
);

-- Rolls table
CREATE TABLE IF NOT EXISTS rolls (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL DEFAULT 'guest',
    camera_id TEXT DEFAULT '',
    film_id TEXT DEFAULT '',
    name TEXT DEFAULT '',
    notes TEXT DEFAULT '',
    started_at INTEGER,
    finished_at INTEGER,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    deleted_at INTEGER
);

-- Frames table. thumbnail is a local cache blob and never leaves the
-- device; thumbnail_url points at the canonical remote copy.
CREATE TABLE IF NOT EXISTS frames (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL DEFAULT 'guest',
    roll_id TEXT NOT NULL DEFAULT '',
    lens_id TEXT DEFAULT '',
    frame_no INTEGER DEFAULT 0,
    shutter_speed TEXT DEFAULT '',
    aperture REAL DEFAULT 0,
    focal_length INTEGER DEFAULT 0,
    notes TEXT DEFAULT '',
    taken_at INTEGER,
    thumbnail BLOB,
    thumbnail_url TEXT DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Outbox: append-only log of pending remote writes. No uniqueness
-- constraint; duplicates per (tbl, entity_id) are collapsed at read time.
CREATE TABLE IF NOT EXISTS outbox (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    tbl TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    op TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    retry_count INTEGER NOT NULL DEFAULT 0,
    last_attempt INTEGER
);
CREATE INDEX IF NOT EXISTS idx_outbox_entity ON outbox(tbl, entity_id);
CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status);

-- Shared key/value space: watermarks plus unrelated app settings.
CREATE TABLE IF NOT EXISTS sync_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

-- Write-once audit trail of server-wins overwrites.
CREATE TABLE IF NOT EXISTS sync_conflicts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    tbl TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    local_data JSON,
    server_data JSON,
    resolved_by TEXT NOT NULL DEFAULT 'server_wins',
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rolls_owner ON rolls(owner_id);
CREATE INDEX IF NOT EXISTS idx_frames_roll ON frames(roll_id);
CREATE INDEX IF NOT EXISTS idx_frames_owner ON frames(owner_id);
`
