package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

var csvHeader = []string{"content_key", "title", "translated_title", "source_url", "processed_date"}

// CSVStore keeps processed articles in an append-only CSV table.
// Only Prune rewrites the file, through a temp file and rename.
type CSVStore struct {
	path string
}

var _ ports.ArticleStore = (*CSVStore)(nil)

// NewCSVStore creates the table with its header when it does not exist yet.
func NewCSVStore(path string) (*CSVStore, error) {
	s := &CSVStore{path: path}
	if err := s.ensureHeader(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CSVStore) ensureHeader() error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", s.path, err)
	}
	if info.Size() > 0 {
		return nil
	}
	return writeRows(f, nil, true)
}

// LoadExistingKeys returns every content key on record.
func (s *CSVStore) LoadExistingKeys(ctx context.Context) (domain.KeySet, error) {
	articles, err := s.readAll()
	if err != nil {
		return nil, err
	}
	keys := make(domain.KeySet, len(articles))
	for _, a := range articles {
		keys.Add(a.ContentKey)
	}
	return keys, nil
}

// Append adds one record and syncs it to disk.
func (s *CSVStore) Append(ctx context.Context, article domain.Article) error {
	if err := s.ensureHeader(); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s for append: %w", s.path, err)
	}
	if err := writeRows(f, []domain.Article{article}, false); err != nil {
		_ = f.Close()
		return fmt.Errorf("append %s: %w", article.ContentKey, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}
	return nil
}

// ListUndelivered returns records whose key is not excluded, in file order.
func (s *CSVStore) ListUndelivered(ctx context.Context, exclude domain.KeySet) ([]domain.Article, error) {
	articles, err := s.readAll()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if exclude.Has(a.ContentKey) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// Prune rewrites the table keeping only rows processed on keepDate.
func (s *CSVStore) Prune(ctx context.Context, keepDate string) error {
	articles, err := s.readAll()
	if err != nil {
		return err
	}
	kept := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if a.ProcessedDate == keepDate {
			kept = append(kept, a)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp table: %w", err)
	}
	tmpName := tmp.Name()
	if err := writeRows(tmp, kept, true); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp table: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func (s *CSVStore) readAll() ([]domain.Article, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", s.path, err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[h] = i
	}
	for _, col := range csvHeader {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", s.path, col)
		}
	}

	var articles []domain.Article
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", s.path, err)
		}
		if len(row) < len(header) {
			return nil, fmt.Errorf("%s: short row at line %d", s.path, len(articles)+2)
		}
		articles = append(articles, domain.Article{
			ContentKey:      row[index["content_key"]],
			Title:           row[index["title"]],
			TranslatedTitle: row[index["translated_title"]],
			SourceURL:       row[index["source_url"]],
			ProcessedDate:   row[index["processed_date"]],
		})
	}
	return articles, nil
}

func writeRows(f *os.File, articles []domain.Article, header bool) error {
	w := csv.NewWriter(f)
	if header {
		if err := w.Write(csvHeader); err != nil {
			return err
		}
	}
	for _, a := range articles {
		if err := w.Write([]string{a.ContentKey, a.Title, a.TranslatedTitle, a.SourceURL, a.ProcessedDate}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Sync()
}
