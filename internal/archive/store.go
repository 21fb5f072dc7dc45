// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive keeps finished articles in a SQLite database so they can
// be listed, reopened and exported after the session that produced them ends.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/glossary-engine/internal/render"
	"github.com/pdiddy/glossary-engine/internal/session"
	"github.com/pdiddy/glossary-engine/pkg/types"
)

const (
	dbFile       = "articles.db"
	defaultLimit = 50
)

// ErrNotFound is returned when no article has the requested ID.
var ErrNotFound = errors.New("article not found")

// Entry is one archived article.
type Entry struct {
	ID        string          `json:"id" yaml:"id"`
	SessionID string          `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Keyword   string          `json:"keyword" yaml:"keyword"`
	Title     string          `json:"title" yaml:"title"`
	Outline   string          `json:"outline,omitempty" yaml:"outline,omitempty"`
	Markdown  string          `json:"markdown" yaml:"markdown"`
	Sections  []types.Section `json:"sections,omitempty" yaml:"sections,omitempty"`
	Keywords  []string        `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	CreatedAt time.Time       `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" yaml:"updated_at"`
}

// Filter narrows List and exports. Query matches keyword, title or body.
type Filter struct {
	Query   string
	Keyword string
	Limit   int
}

// Store manages the archive database.
type Store struct {
	db  *sql.DB
	dir string
	now func() time.Time
}

// NewStore opens or creates dir/articles.db and its schema.
func NewStore(cfg types.ArchiveConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("archive directory is not configured")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(cfg.Dir, dbFile)+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: cfg.Dir, now: func() time.Time { return time.Now().UTC() }}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dir returns the archive directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS articles (
			id TEXT PRIMARY KEY,
			session_id TEXT,
			keyword TEXT NOT NULL,
			title TEXT,
			outline TEXT,
			markdown TEXT NOT NULL,
			sections TEXT,
			keywords TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_keyword ON articles(keyword COLLATE NOCASE)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_updated ON articles(updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_session ON articles(session_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// FromSession builds an entry from a session's current article. It fails
// when nothing has been generated yet.
func FromSession(sess *session.Session) (Entry, error) {
	md := sess.Markdown()
	if md == "" {
		return Entry{}, types.Validation("nothing to archive: generate a section or article first")
	}
	return Entry{
		SessionID: sess.ID,
		Keyword:   sess.Keyword,
		Title:     titleOf(md, sess.Keyword),
		Outline:   sess.Outline.Text,
		Markdown:  md,
		Sections:  sess.Article.Generated(),
		Keywords:  sess.Keywords,
	}, nil
}

// SaveSession archives the session's current article. Saving the same
// session again for the same keyword updates its entry instead of adding one.
func (s *Store) SaveSession(ctx context.Context, sess *session.Session) (string, error) {
	e, err := FromSession(sess)
	if err != nil {
		return "", err
	}
	prev, err := s.findForSession(ctx, e.SessionID, e.Keyword)
	switch {
	case err == nil:
		e.ID, e.CreatedAt = prev.ID, prev.CreatedAt
	case !errors.Is(err, ErrNotFound):
		return "", err
	}
	return s.Save(ctx, &e)
}

// findForSession returns the latest entry saved from sessionID for keyword.
func (s *Store) findForSession(ctx context.Context, sessionID, keyword string) (*Entry, error) {
	if sessionID == "" {
		return nil, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM articles
		 WHERE session_id = ? AND keyword = ? COLLATE NOCASE
		 ORDER BY updated_at DESC LIMIT 1`,
		sessionID, keyword)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up session %s: %w", sessionID, err)
	}
	return e, nil
}

// titleOf returns the first level-1 heading, or the keyword.
func titleOf(md, keyword string) string {
	for _, h := range render.Headings(md) {
		if h.Level == 1 && strings.TrimSpace(h.Text) != "" {
			return strings.TrimSpace(h.Text)
		}
	}
	return keyword
}

// Save inserts e, or updates it when an entry with the same ID exists. An
// empty ID is assigned a new UUID. It returns the entry's ID.
func (s *Store) Save(ctx context.Context, e *Entry) (string, error) {
	if strings.TrimSpace(e.Keyword) == "" {
		return "", types.Validation("archived article needs a keyword")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := s.now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	if e.Title == "" {
		e.Title = titleOf(e.Markdown, e.Keyword)
	}

	sections, err := json.Marshal(e.Sections)
	if err != nil {
		return "", fmt.Errorf("marshaling sections: %w", err)
	}
	keywords, err := json.Marshal(e.Keywords)
	if err != nil {
		return "", fmt.Errorf("marshaling keywords: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO articles (id, session_id, keyword, title, outline, markdown, sections, keywords, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			session_id = excluded.session_id,
			keyword = excluded.keyword,
			title = excluded.title,
			outline = excluded.outline,
			markdown = excluded.markdown,
			sections = excluded.sections,
			keywords = excluded.keywords,
			updated_at = excluded.updated_at`,
		e.ID, e.SessionID, e.Keyword, e.Title, e.Outline, e.Markdown,
		string(sections), string(keywords),
		e.CreatedAt.Format(time.RFC3339Nano), e.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("saving article %s: %w", e.ID, err)
	}
	return e.ID, nil
}

const selectColumns = `id, session_id, keyword, title, outline, markdown, sections, keywords, created_at, updated_at`

// Get returns the entry with id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM articles WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading article %s: %w", id, err)
	}
	return e, nil
}

// List returns entries matching f, most recently updated first.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		qb   strings.Builder
		args []any
		cond []string
	)
	qb.WriteString(`SELECT ` + selectColumns + ` FROM articles`)
	if f.Keyword != "" {
		cond = append(cond, `keyword = ? COLLATE NOCASE`)
		args = append(args, f.Keyword)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + escapeLike(q) + "%"
		cond = append(cond, `(keyword LIKE ? ESCAPE '\' OR title LIKE ? ESCAPE '\' OR markdown LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}
	if len(cond) > 0 {
		qb.WriteString(" WHERE " + strings.Join(cond, " AND "))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	qb.WriteString(" ORDER BY updated_at DESC, id LIMIT ?")
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Delete removes the entry with id, or returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting article %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting article %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (*Entry, error) {
	var (
		e                         Entry
		sessionID, title, outline sql.NullString
		sections, keywords        sql.NullString
		createdAt, updatedAt      string
	)
	if err := sc.Scan(&e.ID, &sessionID, &e.Keyword, &title, &outline, &e.Markdown,
		&sections, &keywords, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	e.SessionID = sessionID.String
	e.Title = title.String
	e.Outline = outline.String
	if sections.Valid && sections.String != "" {
		if err := json.Unmarshal([]byte(sections.String), &e.Sections); err != nil {
			return nil, fmt.Errorf("parsing sections of %s: %w", e.ID, err)
		}
	}
	if keywords.Valid && keywords.String != "" {
		if err := json.Unmarshal([]byte(keywords.String), &e.Keywords); err != nil {
			return nil, fmt.Errorf("parsing keywords of %s: %w", e.ID, err)
		}
	}
	var err error
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at of %s: %w", e.ID, err)
	}
	if e.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at of %s: %w", e.ID, err)
	}
	return &e, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
