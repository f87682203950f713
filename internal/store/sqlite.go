package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jackzampolin/easel/internal/book"
)

// SQLiteStore implements Store on an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the session database and initializes the
// schema.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	// WAL mode allows readers to proceed alongside the single writer.
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports only one writer; a single connection keeps
	// transactions strictly serialized.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		theme       TEXT NOT NULL,
		kind        TEXT NOT NULL,
		page_count  INTEGER NOT NULL,
		billing     TEXT NOT NULL,
		account     TEXT NOT NULL DEFAULT '',
		print_spec  TEXT,
		version     INTEGER NOT NULL DEFAULT 1,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pages (
		session_id   TEXT NOT NULL,
		idx          INTEGER NOT NULL,
		prompt       TEXT NOT NULL,
		body_text    TEXT NOT NULL DEFAULT '',
		artifact_ref TEXT NOT NULL DEFAULT '',
		media_type   TEXT NOT NULL DEFAULT '',
		confirmed    INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (session_id, idx),
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS context_images (
		session_id TEXT NOT NULL,
		position   INTEGER NOT NULL,
		media_type TEXT NOT NULL,
		data       BLOB NOT NULL,
		PRIMARY KEY (session_id, position),
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	return nil
}

// Create persists a new session, its pages, and its context images.
func (s *SQLiteStore) Create(ctx context.Context, sess *book.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var printJSON sql.NullString
	if sess.Print != nil {
		data, err := json.Marshal(sess.Print)
		if err != nil {
			return fmt.Errorf("failed to marshal print spec: %w", err)
		}
		printJSON = sql.NullString{String: string(data), Valid: true}
	}

	now := time.Now().UTC()
	sess.CreatedAt = now
	sess.UpdatedAt = now
	sess.Version = 1

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, title, theme, kind, page_count, billing, account, print_spec, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Title, sess.Theme, string(sess.Kind), sess.PageCount,
		string(sess.Billing), sess.Account, printJSON, sess.Version,
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	for i := range sess.Pages {
		p := &sess.Pages[i]
		_, err = tx.ExecContext(ctx, `
			INSERT INTO pages (session_id, idx, prompt, body_text, artifact_ref, media_type, confirmed)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sess.ID, p.Index, p.Prompt, p.Text, p.ArtifactRef, p.MediaType, boolToInt(p.Confirmed),
		)
		if err != nil {
			return fmt.Errorf("failed to insert page %d: %w", p.Index, err)
		}
	}

	for i, img := range sess.ContextImages {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO context_images (session_id, position, media_type, data)
			VALUES (?, ?, ?, ?)`,
			sess.ID, i, img.MediaType, img.Data,
		)
		if err != nil {
			return fmt.Errorf("failed to insert context image %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Load returns the session by id.
func (s *SQLiteStore) Load(ctx context.Context, id string) (*book.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, theme, kind, page_count, billing, account, print_spec, version, created_at, updated_at
		FROM sessions WHERE id = ?`, id)

	sess := &book.Session{}
	var printJSON sql.NullString
	var kind, billing, createdAt, updatedAt string
	err := row.Scan(&sess.ID, &sess.Title, &sess.Theme, &kind, &sess.PageCount,
		&billing, &sess.Account, &printJSON, &sess.Version, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", book.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	sess.Kind = book.Kind(kind)
	sess.Billing = book.BillingMode(billing)
	if sess.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if sess.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if printJSON.Valid && printJSON.String != "" {
		spec := &book.PrintSpec{}
		if err := json.Unmarshal([]byte(printJSON.String), spec); err != nil {
			return nil, fmt.Errorf("failed to parse print spec: %w", err)
		}
		sess.Print = spec
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, prompt, body_text, artifact_ref, media_type, confirmed
		FROM pages WHERE session_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load pages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p book.Page
		var confirmed int
		if err := rows.Scan(&p.Index, &p.Prompt, &p.Text, &p.ArtifactRef, &p.MediaType, &confirmed); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		p.Confirmed = confirmed != 0
		sess.Pages = append(sess.Pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pages: %w", err)
	}

	imgRows, err := s.db.QueryContext(ctx, `
		SELECT media_type, data FROM context_images
		WHERE session_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load context images: %w", err)
	}
	defer imgRows.Close()

	for imgRows.Next() {
		var img book.ContextImage
		if err := imgRows.Scan(&img.MediaType, &img.Data); err != nil {
			return nil, fmt.Errorf("failed to scan context image: %w", err)
		}
		sess.ContextImages = append(sess.ContextImages, img)
	}
	if err := imgRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate context images: %w", err)
	}

	return sess, nil
}

// Page returns a single page with bounds checking.
func (s *SQLiteStore) Page(ctx context.Context, sessionID string, index int) (*book.Page, error) {
	if err := s.checkIndex(ctx, sessionID, index); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT idx, prompt, body_text, artifact_ref, media_type, confirmed
		FROM pages WHERE session_id = ? AND idx = ?`, sessionID, index)

	var p book.Page
	var confirmed int
	if err := row.Scan(&p.Index, &p.Prompt, &p.Text, &p.ArtifactRef, &p.MediaType, &confirmed); err != nil {
		return nil, fmt.Errorf("failed to load page %d: %w", index, err)
	}
	p.Confirmed = confirmed != 0
	return &p, nil
}

// SetPrompt overwrites a page's prompt text.
func (s *SQLiteStore) SetPrompt(ctx context.Context, sessionID string, index int, prompt string) error {
	return s.updatePage(ctx, sessionID, index, "prompt = ?", prompt)
}

// SetText overwrites a page's caption/body text.
func (s *SQLiteStore) SetText(ctx context.Context, sessionID string, index int, text string) error {
	return s.updatePage(ctx, sessionID, index, "body_text = ?", text)
}

// SetConfirmed sets a page's review flag.
func (s *SQLiteStore) SetConfirmed(ctx context.Context, sessionID string, index int, confirmed bool) error {
	return s.updatePage(ctx, sessionID, index, "confirmed = ?", boolToInt(confirmed))
}

// ReplaceArtifact writes an artifact reference unconditionally.
func (s *SQLiteStore) ReplaceArtifact(ctx context.Context, sessionID string, index int, ref, mediaType string) error {
	if err := s.checkIndex(ctx, sessionID, index); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE pages SET artifact_ref = ?, media_type = ? WHERE session_id = ? AND idx = ?`,
		ref, mediaType, sessionID, index)
	if err != nil {
		return fmt.Errorf("failed to replace artifact: %w", err)
	}
	if err := touchSession(ctx, tx, sessionID); err != nil {
		return err
	}
	return tx.Commit()
}

// CompareAndSwapArtifact writes the artifact only if the slot still holds
// expect. The predicate and the write share one transaction, and the store's
// single connection serializes transactions, so at most one racing writer can
// observe the predicate as true.
func (s *SQLiteStore) CompareAndSwapArtifact(ctx context.Context, sessionID string, index int, expect, ref, mediaType string) (bool, error) {
	if err := s.checkIndex(ctx, sessionID, index); err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	row := tx.QueryRowContext(ctx,
		`SELECT artifact_ref FROM pages WHERE session_id = ? AND idx = ?`, sessionID, index)
	if err := row.Scan(&current); err != nil {
		return false, fmt.Errorf("failed to read artifact slot: %w", err)
	}
	if current != expect {
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE pages SET artifact_ref = ?, media_type = ? WHERE session_id = ? AND idx = ?`,
		ref, mediaType, sessionID, index)
	if err != nil {
		return false, fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := touchSession(ctx, tx, sessionID); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit artifact write: %w", err)
	}
	return true, nil
}

// updatePage applies a single-column page update and bumps the session's
// version and modification timestamp.
func (s *SQLiteStore) updatePage(ctx context.Context, sessionID string, index int, set string, value any) error {
	if err := s.checkIndex(ctx, sessionID, index); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE pages SET `+set+` WHERE session_id = ? AND idx = ?`,
		value, sessionID, index)
	if err != nil {
		return fmt.Errorf("failed to update page %d: %w", index, err)
	}
	if err := touchSession(ctx, tx, sessionID); err != nil {
		return err
	}
	return tx.Commit()
}

// checkIndex verifies the session exists and the index is within
// 0..pageCount.
func (s *SQLiteStore) checkIndex(ctx context.Context, sessionID string, index int) error {
	var pageCount int
	row := s.db.QueryRowContext(ctx, `SELECT page_count FROM sessions WHERE id = ?`, sessionID)
	if err := row.Scan(&pageCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", book.ErrSessionNotFound, sessionID)
		}
		return fmt.Errorf("failed to look up session: %w", err)
	}
	if index < 0 || index > pageCount {
		return fmt.Errorf("%w: %d (session has pages 0..%d)", book.ErrInvalidIndex, index, pageCount)
	}
	return nil
}

func touchSession(ctx context.Context, tx *sql.Tx, sessionID string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE sessions SET version = version + 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), sessionID)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ Store = (*SQLiteStore)(nil)
