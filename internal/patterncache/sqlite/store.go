// Package sqlite persists the pattern cache across restarts. It implements
// the same TTL and LRU contract as the in-memory cache; any storage error is
// logged and reported as a miss, never surfaced to the pipeline.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/insightgate/insightgate/internal/patterncache"
)

const schema = `
CREATE TABLE IF NOT EXISTS pattern_cache (
	pattern_key TEXT PRIMARY KEY,
	template_sql TEXT NOT NULL,
	slots INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	last_access INTEGER NOT NULL
)`

type Store struct {
	mu      sync.Mutex
	db      *sql.DB
	maxSize int
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

func Open(path string, maxSize int, ttl time.Duration, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("cache store path is required")
	}
	if maxSize <= 0 {
		maxSize = patterncache.DefaultMaxSize
	}
	if ttl <= 0 {
		ttl = patterncache.DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &Store{
		db:      db,
		maxSize: maxSize,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(question string) (patterncache.Template, bool) {
	key := patterncache.Key(question)

	s.mu.Lock()
	defer s.mu.Unlock()

	var template patterncache.Template
	var createdAt int64
	err := s.db.QueryRow(
		`SELECT template_sql, slots, created_at FROM pattern_cache WHERE pattern_key = ?`, key,
	).Scan(&template.SQL, &template.Slots, &createdAt)
	if err == sql.ErrNoRows {
		return patterncache.Template{}, false
	}
	if err != nil {
		s.logger.Warn("cache store read failed", slog.Any("error", err))
		return patterncache.Template{}, false
	}

	nowUnix := s.now().Unix()
	if time.Duration(nowUnix-createdAt)*time.Second >= s.ttl {
		if _, err := s.db.Exec(`DELETE FROM pattern_cache WHERE pattern_key = ?`, key); err != nil {
			s.logger.Warn("cache store expiry delete failed", slog.Any("error", err))
		}
		return patterncache.Template{}, false
	}

	if _, err := s.db.Exec(`UPDATE pattern_cache SET last_access = ? WHERE pattern_key = ?`, nowUnix, key); err != nil {
		s.logger.Warn("cache store touch failed", slog.Any("error", err))
	}
	return template, true
}

func (s *Store) Put(question, sqlText string) {
	key := patterncache.Key(question)
	template := patterncache.BuildTemplate(question, sqlText)
	nowUnix := s.now().Unix()

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
INSERT INTO pattern_cache (pattern_key, template_sql, slots, created_at, last_access)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(pattern_key) DO UPDATE SET
	template_sql = excluded.template_sql,
	slots = excluded.slots,
	created_at = excluded.created_at,
	last_access = excluded.last_access`,
		key, template.SQL, template.Slots, nowUnix, nowUnix)
	if err != nil {
		s.logger.Warn("cache store write failed", slog.Any("error", err))
		return
	}

	// LRU trim beyond capacity.
	var size int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM pattern_cache`).Scan(&size); err != nil {
		s.logger.Warn("cache store count failed", slog.Any("error", err))
		return
	}
	if size <= s.maxSize {
		return
	}
	_, err = s.db.Exec(`
DELETE FROM pattern_cache WHERE pattern_key IN (
	SELECT pattern_key FROM pattern_cache
	ORDER BY last_access ASC
	LIMIT ?
)`, size-s.maxSize)
	if err != nil {
		s.logger.Warn("cache store trim failed", slog.Any("error", err))
	}
}

func (s *Store) Stats() patterncache.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var size int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM pattern_cache`).Scan(&size); err != nil {
		s.logger.Warn("cache store count failed", slog.Any("error", err))
	}
	return patterncache.Stats{
		Size:    size,
		MaxSize: s.maxSize,
		TTLDays: s.ttl.Hours() / 24,
	}
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM pattern_cache`); err != nil {
		s.logger.Warn("cache store clear failed", slog.Any("error", err))
	}
}
