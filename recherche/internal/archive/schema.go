package archive

// Schema creates the archive tables. Sessions keep their full JSON payload;
// sources are split out so that their text can be searched with FTS5.
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id              TEXT PRIMARY KEY,
    query           TEXT NOT NULL,
    depth           TEXT NOT NULL,
    created_at      INTEGER NOT NULL,
    result_count    INTEGER NOT NULL DEFAULT 0,
    source_count    INTEGER NOT NULL DEFAULT 0,
    usable_count    INTEGER NOT NULL DEFAULT 0,
    analysis_backend TEXT NOT NULL DEFAULT '',
    payload_json    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_time ON sessions(created_at DESC);

CREATE TABLE IF NOT EXISTS sources (
    id              TEXT PRIMARY KEY,
    session_id      TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    position        INTEGER NOT NULL,
    url             TEXT NOT NULL,
    title           TEXT NOT NULL DEFAULT '',
    text            TEXT NOT NULL DEFAULT '',
    fetch_status    TEXT NOT NULL,
    extractor_used  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sources_session ON sources(session_id, position);

CREATE VIRTUAL TABLE IF NOT EXISTS sources_fts USING fts5(
    title, text, content='sources', content_rowid='rowid',
    tokenize='unicode61 remove_diacritics 2'
);

CREATE TRIGGER IF NOT EXISTS sources_ai AFTER INSERT ON sources BEGIN
    INSERT INTO sources_fts(rowid, title, text) VALUES (new.rowid, new.title, new.text);
END;
CREATE TRIGGER IF NOT EXISTS sources_ad AFTER DELETE ON sources BEGIN
    INSERT INTO sources_fts(sources_fts, rowid, title, text) VALUES('delete', old.rowid, old.title, old.text);
END;
`
