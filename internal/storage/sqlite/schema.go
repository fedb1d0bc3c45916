// ABOUTME: SQLite database schema for the knowledge base
// ABOUTME: One row per chunk with its typed metadata and embedding BLOB
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Chunks table (text, metadata, and embedding vector)
CREATE TABLE IF NOT EXISTS chunks (
    id TEXT PRIMARY KEY,
    source_file TEXT NOT NULL,
    page INTEGER NOT NULL DEFAULT 0,
    chunk_index INTEGER NOT NULL DEFAULT 0,
    content_type TEXT NOT NULL DEFAULT 'educational',
    word_count INTEGER NOT NULL DEFAULT 0,
    topic TEXT,
    text TEXT NOT NULL,
    vector BLOB NOT NULL,
    ingested_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Indexes for efficient querying
CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source_file);
CREATE INDEX IF NOT EXISTS idx_chunks_source_index ON chunks(source_file, chunk_index);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1
