package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

const articlesTable = "processed_articles"

// SQLiteStore persists processed articles into an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ ports.ArticleStore = (*SQLiteStore)(nil)

// OpenSQLite opens (and migrates) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	store := NewSQLiteStore(db)
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore wires an already opened sql.DB.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS processed_articles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content_key TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			translated_title TEXT NOT NULL,
			source_url TEXT NOT NULL,
			processed_date TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_processed_articles_date ON processed_articles(processed_date);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// LoadExistingKeys returns every content key on record.
func (s *SQLiteStore) LoadExistingKeys(ctx context.Context) (domain.KeySet, error) {
	query, args, err := sq.Select("content_key").From(articlesTable).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build keys query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query keys: %w", err)
	}

	keys := domain.KeySet{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys.Add(key)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return keys, nil
}

// Append inserts one record; a duplicate content key is an error.
func (s *SQLiteStore) Append(ctx context.Context, article domain.Article) error {
	query, args, err := sq.Insert(articlesTable).
		Columns("content_key", "title", "translated_title", "source_url", "processed_date").
		Values(article.ContentKey, article.Title, article.TranslatedTitle, article.SourceURL, article.ProcessedDate).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s: %w", article.ContentKey, err)
	}
	return nil
}

// ListUndelivered returns records whose key is not excluded, in insertion order.
func (s *SQLiteStore) ListUndelivered(ctx context.Context, exclude domain.KeySet) ([]domain.Article, error) {
	query, args, err := sq.Select("content_key", "title", "translated_title", "source_url", "processed_date").
		From(articlesTable).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var out []domain.Article
	for rows.Next() {
		var a domain.Article
		if err := rows.Scan(&a.ContentKey, &a.Title, &a.TranslatedTitle, &a.SourceURL, &a.ProcessedDate); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		if exclude.Has(a.ContentKey) {
			continue
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// Prune deletes every record not processed on keepDate inside one transaction.
func (s *SQLiteStore) Prune(ctx context.Context, keepDate string) error {
	query, args, err := sq.Delete(articlesTable).Where(sq.NotEq{"processed_date": keepDate}).ToSql()
	if err != nil {
		return fmt.Errorf("build prune: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin prune: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prune: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit prune: %w", err)
	}
	return nil
}
