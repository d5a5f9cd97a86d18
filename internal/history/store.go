package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/pageloader/internal/model"
)

// FileName is the name of the database file inside the store directory.
const FileName = "pageloader.db"

// DefaultListLimit is the number of runs returned when a list is requested
// without a positive limit.
const DefaultListLimit = 20

// Store provides SQLite-based storage for run summaries.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// path is the path to the SQLite database file.
	path string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if they
	// do not exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the store in dir.
func Open(dir string, opts Options) (*Store, error) {
	path := filepath.Join(dir, FileName)

	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	} else if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, path)
		}
		return nil, fmt.Errorf("failed to check history path: %w", err)
	}

	// mode=rw keeps the driver from creating a missing file.
	dsn := path + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = path + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, path: path}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := s.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables(ctx context.Context) error {
	schema := `
	-- One row per download run
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		page_path TEXT,
		assets_dir TEXT,
		discovered INTEGER DEFAULT 0,
		bytes INTEGER DEFAULT 0,
		error_kind TEXT,
		error TEXT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_url ON runs(url);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Saved assets, in document order
	CREATE TABLE IF NOT EXISTS assets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		kind TEXT NOT NULL,
		local_path TEXT NOT NULL,
		is_binary INTEGER DEFAULT 0,
		size INTEGER DEFAULT 0,
		digest TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_assets_run ON assets(run_id);
	CREATE INDEX IF NOT EXISTS idx_assets_digest ON assets(digest);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Save stores a run summary and its assets in one transaction.
// Saving the same run ID again replaces the earlier record.
func (s *Store) Save(ctx context.Context, summary *model.Summary) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM assets WHERE run_id = ?`, summary.ID); err != nil {
		return fmt.Errorf("failed to replace assets: %w", err)
	}

	query := `
	INSERT INTO runs (id, url, page_path, assets_dir, discovered, bytes, error_kind, error, started_at, finished_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		url = excluded.url,
		page_path = excluded.page_path,
		assets_dir = excluded.assets_dir,
		discovered = excluded.discovered,
		bytes = excluded.bytes,
		error_kind = excluded.error_kind,
		error = excluded.error,
		started_at = excluded.started_at,
		finished_at = excluded.finished_at
	`
	_, err = tx.ExecContext(ctx, query,
		summary.ID,
		summary.URL,
		summary.PagePath,
		summary.AssetsDir,
		summary.Discovered,
		summary.Bytes,
		summary.ErrorKind,
		summary.Error,
		formatTimestamp(summary.StartedAt),
		formatTimestamp(summary.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	for i, a := range summary.Assets {
		_, err = tx.ExecContext(ctx, `
		INSERT INTO assets (run_id, position, url, kind, local_path, is_binary, size, digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, summary.ID, i, a.URL, a.Kind, a.LocalPath, boolToInt(a.Binary), a.Size, a.Digest)
		if err != nil {
			return fmt.Errorf("failed to save asset %s: %w", a.URL, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// Get returns the run with the given ID, assets included.
func (s *Store) Get(ctx context.Context, id string) (*model.Summary, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id)
	summary, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if err := s.loadAssets(ctx, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// List returns the most recent runs, newest first. A non-empty url limits
// the result to runs of that page URL. Assets are included.
func (s *Store) List(ctx context.Context, url string, limit int) ([]*model.Summary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := selectRuns
	args := []any{}
	if url != "" {
		query += ` WHERE url = ?`
		args = append(args, url)
	}
	query += ` ORDER BY started_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var summaries []*model.Summary
	for rows.Next() {
		summary, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Assets are loaded after the cursor is closed; the pool has one connection.
	_ = rows.Close()

	for _, summary := range summaries {
		if err := s.loadAssets(ctx, summary); err != nil {
			return nil, err
		}
	}
	return summaries, nil
}

// Delete removes a run and its assets.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM assets WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete assets: %w", err)
	}
	return nil
}

const selectRuns = `
	SELECT id, url, page_path, assets_dir, discovered, bytes, error_kind, error, started_at, finished_at
	FROM runs`

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.Summary, error) {
	var (
		summary             model.Summary
		pagePath, assetsDir sql.NullString
		errKind, errMsg     sql.NullString
		started, finished   string
	)
	err := row.Scan(
		&summary.ID,
		&summary.URL,
		&pagePath,
		&assetsDir,
		&summary.Discovered,
		&summary.Bytes,
		&errKind,
		&errMsg,
		&started,
		&finished,
	)
	if err != nil {
		return nil, err
	}
	summary.PagePath = pagePath.String
	summary.AssetsDir = assetsDir.String
	summary.ErrorKind = errKind.String
	summary.Error = errMsg.String
	summary.StartedAt = parseTimestamp(started)
	summary.FinishedAt = parseTimestamp(finished)
	summary.Assets = make([]model.AssetRecord, 0)
	return &summary, nil
}

func (s *Store) loadAssets(ctx context.Context, summary *model.Summary) error {
	rows, err := s.db.QueryContext(ctx, `
	SELECT url, kind, local_path, is_binary, size, digest
	FROM assets WHERE run_id = ? ORDER BY position
	`, summary.ID)
	if err != nil {
		return fmt.Errorf("failed to load assets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a      model.AssetRecord
			digest sql.NullString
		)
		if err := rows.Scan(&a.URL, &a.Kind, &a.LocalPath, &a.Binary, &a.Size, &digest); err != nil {
			return fmt.Errorf("failed to scan asset: %w", err)
		}
		a.Digest = digest.String
		summary.Assets = append(summary.Assets, a)
	}
	return rows.Err()
}

// timestampFormats lists the formats parseTimestamp accepts.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// storedLayout has a fixed width so that stored timestamps sort as text.
const storedLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(storedLayout)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// parseTimestamp parses a stored timestamp, returning the zero time for
// unrecognized input.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
