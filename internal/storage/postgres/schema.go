// Package postgres implements the storage interfaces on PostgreSQL.
package postgres

// Schema contains the SQL statements to create the database schema for
// PostgreSQL. All statements use IF NOT EXISTS so the schema can be applied
// idempotently on every open.
const Schema = `
-- Bags table: named retrieval policies
CREATE TABLE IF NOT EXISTS bags (
    name TEXT PRIMARY KEY,
    description TEXT NOT NULL DEFAULT '',
    default_top_k INTEGER NOT NULL,
    recency_half_life_days DOUBLE PRECISION NOT NULL,
    importance_weight DOUBLE PRECISION NOT NULL,
    allowed_kinds JSONB,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

-- Memories table: one row per stored memory
CREATE TABLE IF NOT EXISTS memories (
    id TEXT PRIMARY KEY,
    bag TEXT NOT NULL REFERENCES bags(name),
    kind TEXT NOT NULL,
    content TEXT NOT NULL,
    tags JSONB,
    importance INTEGER NOT NULL DEFAULT 3,
    source JSONB,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    last_accessed_at TIMESTAMPTZ,
    expires_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_memories_bag ON memories(bag);
CREATE INDEX IF NOT EXISTS idx_memories_created_at ON memories(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_memories_expires_at ON memories(expires_at);

-- Vectors table: one-to-one embedding per memory, cascade-deleted.
-- The binary column is the canonical representation; embedding_vec is an
-- optional pgvector copy added by MigrationPgvector.
CREATE TABLE IF NOT EXISTS vectors (
    memory_id TEXT PRIMARY KEY REFERENCES memories(id) ON DELETE CASCADE,
    vector BYTEA NOT NULL,
    model TEXT NOT NULL,
    dimension INTEGER NOT NULL,
    norm DOUBLE PRECISION NOT NULL
);
`

// MigrationPgvector adds a pgvector copy of each embedding. Applied only
// when the vector extension is installed. The column is declared without a
// fixed dimension so the embedding model stays freely configurable; a
// dimensioned column would reject every write from a model with a different
// vector size.
const MigrationPgvector = `
ALTER TABLE vectors ADD COLUMN IF NOT EXISTS embedding_vec vector;
`
