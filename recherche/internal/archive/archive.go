// CLAUDE:SUMMARY SQLite history of research sessions: full JSON payload per session, sources indexed with FTS5.
// Package archive keeps every research session in SQLite.
//
// The archive is optional. Sessions are stored whole (JSON payload) and
// their sources are indexed with FTS5 so that past research can be
// searched by content.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hazyhaar/recherche/dbopen"
	"github.com/hazyhaar/recherche/idgen"
	"github.com/hazyhaar/recherche/recherche/internal/store"
)

// Archive wraps the history database.
type Archive struct {
	DB        *sql.DB
	sessionID idgen.Generator
	sourceID  idgen.Generator
}

// Entry summarizes an archived session.
type Entry struct {
	ID          string        `json:"id"`
	Query       string        `json:"query"`
	Depth       store.Depth   `json:"depth"`
	CreatedAt   time.Time     `json:"created_at"`
	ResultCount int           `json:"result_count"`
	SourceCount int           `json:"source_count"`
	UsableCount int           `json:"usable_count"`
	Analysis    store.Backend `json:"analysis,omitempty"`
}

// Hit is one full-text match.
type Hit struct {
	SessionID string  `json:"session_id"`
	Query     string  `json:"query"`
	URL       string  `json:"url"`
	Title     string  `json:"title"`
	Snippet   string  `json:"snippet"`
	Rank      float64 `json:"rank"`
}

// Open opens (creating if needed) the archive at path.
func Open(path string) (*Archive, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(Schema))
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	return New(db), nil
}

// New wraps an already-initialized database.
func New(db *sql.DB) *Archive {
	return &Archive{
		DB:        db,
		sessionID: idgen.Prefixed("ses_", idgen.Default),
		sourceID:  idgen.Prefixed("src_", idgen.Default),
	}
}

// Close closes the database.
func (a *Archive) Close() error { return a.DB.Close() }

// Put stores a session and its sources in one transaction and returns the
// session ID.
func (a *Archive) Put(ctx context.Context, s *store.ResearchSession) (string, error) {
	payload, err := json.Marshal(store.Normalized(s))
	if err != nil {
		return "", fmt.Errorf("archive: marshal: %w", err)
	}
	id := a.sessionID()
	var backend store.Backend
	if s.Analysis != nil {
		backend = s.Analysis.Backend
	}

	err = dbopen.RunTx(ctx, a.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (id, query, depth, created_at, result_count, source_count,
			usable_count, analysis_backend, payload_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, s.Query, string(s.Depth), s.Timestamp.UnixMilli(), len(s.SearchResults),
			len(s.Sources), len(s.UsableSources()), string(backend), string(payload),
		); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		for i, src := range s.Sources {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO sources (id, session_id, position, url, title, text, fetch_status, extractor_used)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				a.sourceID(), id, i, src.URL, src.Title, src.Text,
				string(src.FetchStatus), string(src.ExtractorUsed),
			); err != nil {
				return fmt.Errorf("insert source: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("archive: put: %w", err)
	}
	return id, nil
}

// Recent lists the latest sessions, newest first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.DB.QueryContext(ctx,
		`SELECT id, query, depth, created_at, result_count, source_count, usable_count, analysis_backend
		FROM sessions ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("archive: recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var depth, backend string
		var created int64
		if err := rows.Scan(&e.ID, &e.Query, &depth, &created, &e.ResultCount,
			&e.SourceCount, &e.UsableCount, &backend); err != nil {
			return nil, fmt.Errorf("archive: scan entry: %w", err)
		}
		e.Depth = store.Depth(depth)
		e.Analysis = store.Backend(backend)
		e.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns the archived session with id, or nil when absent.
func (a *Archive) Get(ctx context.Context, id string) (*store.ResearchSession, error) {
	var payload string
	err := a.DB.QueryRowContext(ctx, `SELECT payload_json FROM sessions WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("archive: get: %w", err)
	}
	sessions, err := store.Decode([]byte("[" + payload + "]"))
	if err != nil {
		return nil, fmt.Errorf("archive: get %s: %w", id, err)
	}
	return sessions[0], nil
}

// Search runs a full-text query over archived source titles and text.
// Each whitespace-separated term is matched literally; all terms must match.
func (a *Archive) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	match := matchQuery(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.DB.QueryContext(ctx,
		`SELECT s.session_id, ss.query, s.url, s.title,
			snippet(sources_fts, 1, '[', ']', '...', 12), rank
		FROM sources_fts f
		JOIN sources s ON s.rowid = f.rowid
		JOIN sessions ss ON ss.id = s.session_id
		WHERE sources_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("archive: search: %w", err)
	}
	defer rows.Close()

	var out []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.SessionID, &h.Query, &h.URL, &h.Title, &h.Snippet, &h.Rank); err != nil {
			return nil, fmt.Errorf("archive: scan hit: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// matchQuery quotes every term so that FTS5 operators in user input are
// taken literally.
func matchQuery(q string) string {
	fields := strings.Fields(q)
	for i, f := range fields {
		fields[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(fields, " ")
}
