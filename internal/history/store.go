package history

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tiktoksage/tiktok-sage/internal/logging"
	"github.com/tiktoksage/tiktok-sage/internal/model"
)

// HistoryFileName is the database file created under the application-data
// directory
const HistoryFileName = "history.db"

// Store persists download history in SQLite. Records are append-only and
// listed most-recent-first. History is non-critical: if the database cannot
// be opened or migrated, the store degrades to an in-memory list for the
// session and logs a warning instead of failing the application.
type Store struct {
	db *sql.DB

	// in-memory fallback when db is nil
	mu  sync.Mutex
	mem []model.HistoryRecord
	seq int64
}

// Open creates a history store backed by a SQLite database under the given
// application-data directory. Pass an empty dir for in-memory-only operation.
func Open(dir string) *Store {
	logger := logging.GetLogger("history")

	if dir == "" {
		return &Store{}
	}

	path := filepath.Join(dir, HistoryFileName)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Failed to open history database, using in-memory history")
		return &Store{}
	}
	if err := migrate(db); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Failed to migrate history database, using in-memory history")
		db.Close()
		return &Store{}
	}

	logger.Debug().Str("path", path).Msg("History database opened")
	return &Store{db: db}
}

// OpenDB wraps an existing database handle, used by tests
func OpenDB(db *sql.DB) (*Store, error) {
	if err := migrate(db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// migrate creates the schema if it does not exist yet
func migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS downloads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			url TEXT NOT NULL,
			title TEXT,
			output_path TEXT NOT NULL,
			kind TEXT NOT NULL,
			downloaded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_downloads_downloaded_at ON downloads(downloaded_at)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}

// Append records a completed download. Duplicates are allowed since
// re-downloads are legitimate.
func (s *Store) Append(record model.HistoryRecord) error {
	if record.DownloadedAt.IsZero() {
		record.DownloadedAt = time.Now()
	}

	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.seq++
		record.ID = s.seq
		s.mem = append(s.mem, record)
		return nil
	}

	query := `
		INSERT INTO downloads (url, title, output_path, kind, downloaded_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		record.URL,
		record.Title,
		record.OutputPath,
		string(record.Kind),
		record.DownloadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	return nil
}

// ListAll returns every history record, most-recent-first
func (s *Store) ListAll() ([]model.HistoryRecord, error) {
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		out := make([]model.HistoryRecord, 0, len(s.mem))
		for i := len(s.mem) - 1; i >= 0; i-- {
			out = append(out, s.mem[i])
		}
		return out, nil
	}

	query := `
		SELECT id, url, title, output_path, kind, downloaded_at
		FROM downloads
		ORDER BY id DESC
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Search returns records whose title or URL contains the query,
// most-recent-first
func (s *Store) Search(query string) ([]model.HistoryRecord, error) {
	if s.db == nil {
		all, _ := s.ListAll()
		var out []model.HistoryRecord
		for _, r := range all {
			if containsFold(r.Title, query) || containsFold(r.URL, query) {
				out = append(out, r)
			}
		}
		return out, nil
	}

	stmt := `
		SELECT id, url, title, output_path, kind, downloaded_at
		FROM downloads
		WHERE title LIKE ? OR url LIKE ?
		ORDER BY id DESC
	`
	pattern := "%" + query + "%"
	rows, err := s.db.Query(stmt, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Remove deletes a single record by ID. Returns true if a record was removed.
func (s *Store) Remove(id int64) (bool, error) {
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, r := range s.mem {
			if r.ID == id {
				s.mem = append(s.mem[:i], s.mem[i+1:]...)
				return true, nil
			}
		}
		return false, nil
	}

	res, err := s.db.Exec(`DELETE FROM downloads WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to remove history record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Clear deletes all history records
func (s *Store) Clear() error {
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.mem = nil
		return nil
	}

	if _, err := s.db.Exec(`DELETE FROM downloads`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Close releases the underlying database handle
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func scanRecords(rows *sql.Rows) ([]model.HistoryRecord, error) {
	var records []model.HistoryRecord
	for rows.Next() {
		var r model.HistoryRecord
		var title sql.NullString
		var kind string
		if err := rows.Scan(&r.ID, &r.URL, &title, &r.OutputPath, &kind, &r.DownloadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		r.Title = title.String
		r.Kind = model.MediaKind(kind)
		records = append(records, r)
	}
	return records, rows.Err()
}
