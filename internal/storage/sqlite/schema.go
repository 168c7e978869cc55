package sqlite

// Schema contains the SQL statements to create the database schema.
// All statements are idempotent (IF NOT EXISTS) so the schema can be
// applied on every open.
//
// Deleting a memory must always delete its vector in the same atomic
// operation; the vectors table enforces this with ON DELETE CASCADE
// (foreign_keys is switched on at connection setup).
const Schema = `
-- Bags table: named retrieval policies
CREATE TABLE IF NOT EXISTS bags (
    name TEXT PRIMARY KEY,
    description TEXT NOT NULL DEFAULT '',
    default_top_k INTEGER NOT NULL,
    recency_half_life_days REAL NOT NULL,
    importance_weight REAL NOT NULL,
    allowed_kinds TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

-- Memories table: one row per stored memory
CREATE TABLE IF NOT EXISTS memories (
    id TEXT PRIMARY KEY,
    bag TEXT NOT NULL,
    kind TEXT NOT NULL,
    content TEXT NOT NULL,
    tags TEXT,
    importance INTEGER NOT NULL DEFAULT 3,
    source TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    last_accessed_at TIMESTAMP,
    expires_at TIMESTAMP,
    FOREIGN KEY (bag) REFERENCES bags(name)
);

CREATE INDEX IF NOT EXISTS idx_memories_bag ON memories(bag);
CREATE INDEX IF NOT EXISTS idx_memories_created_at ON memories(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_memories_expires_at ON memories(expires_at);

-- Vectors table: one-to-one embedding per memory, cascade-deleted
CREATE TABLE IF NOT EXISTS vectors (
    memory_id TEXT PRIMARY KEY REFERENCES memories(id) ON DELETE CASCADE,
    vector BLOB NOT NULL,
    model TEXT NOT NULL,
    dimension INTEGER NOT NULL,
    norm REAL NOT NULL
);
`
