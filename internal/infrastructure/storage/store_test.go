package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

func article(url, date string) domain.Article {
	return domain.Article{
		ContentKey:      domain.GenerateKey(url),
		Title:           "Title, with \"quotes\"",
		TranslatedTitle: "Заголовок\nи текст",
		SourceURL:       url,
		ProcessedDate:   date,
	}
}

type storeFactory func(t *testing.T) ports.ArticleStore

func stores() map[string]storeFactory {
	return map[string]storeFactory{
		"csv": func(t *testing.T) ports.ArticleStore {
			s, err := NewCSVStore(filepath.Join(t.TempDir(), "news.csv"))
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) ports.ArticleStore {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "news.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestArticleStoreContract(t *testing.T) {
	t.Parallel()

	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s := factory(t)

			keys, err := s.LoadExistingKeys(ctx)
			require.NoError(t, err)
			assert.Empty(t, keys)

			a := article("https://site/a", "2026-10-13")
			b := article("https://site/b", "2026-10-14")
			c := article("https://site/c", "2026-10-14")
			for _, rec := range []domain.Article{a, b, c} {
				require.NoError(t, s.Append(ctx, rec))
			}

			keys, err = s.LoadExistingKeys(ctx)
			require.NoError(t, err)
			assert.Len(t, keys, 3)
			assert.True(t, keys.Has(b.ContentKey))

			all, err := s.ListUndelivered(ctx, domain.KeySet{})
			require.NoError(t, err)
			assert.Equal(t, []domain.Article{a, b, c}, all)

			rest, err := s.ListUndelivered(ctx, domain.KeySet{a.ContentKey: {}, c.ContentKey: {}})
			require.NoError(t, err)
			assert.Equal(t, []domain.Article{b}, rest)
		})
	}
}

func TestArticleStorePrune(t *testing.T) {
	t.Parallel()

	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s := factory(t)

			var today []domain.Article
			for i, url := range []string{"https://site/1", "https://site/2", "https://site/3", "https://site/4"} {
				date := "2026-10-14"
				if i%2 == 0 {
					date = "2026-10-12"
				}
				rec := article(url, date)
				require.NoError(t, s.Append(ctx, rec))
				if date == "2026-10-14" {
					today = append(today, rec)
				}
			}

			require.NoError(t, s.Prune(ctx, "2026-10-14"))

			remaining, err := s.ListUndelivered(ctx, domain.KeySet{})
			require.NoError(t, err)
			assert.Equal(t, today, remaining)
			for _, rec := range remaining {
				assert.Equal(t, "2026-10-14", rec.ProcessedDate)
			}

			// Appends keep working after a rewrite.
			extra := article("https://site/5", "2026-10-14")
			require.NoError(t, s.Append(ctx, extra))
			keys, err := s.LoadExistingKeys(ctx)
			require.NoError(t, err)
			assert.Len(t, keys, 3)
		})
	}
}

func TestCSVStoreReopenAndHeader(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "news.csv")

	s, err := NewCSVStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, article("https://site/a/", "2026-10-14")))

	reopened, err := NewCSVStore(path)
	require.NoError(t, err)
	keys, err := reopened.LoadExistingKeys(ctx)
	require.NoError(t, err)
	assert.True(t, keys.Has(domain.GenerateKey("https://site/a")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(raw), "content_key,title,translated_title,source_url,processed_date"))
}

func TestCSVStorePruneLeavesNoTempFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	s, err := NewCSVStore(filepath.Join(dir, "news.csv"))
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), article("https://site/a", "2026-10-01")))
	require.NoError(t, s.Prune(context.Background(), "2026-10-14"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "news.csv", entries[0].Name())
}

func TestCSVStoreRejectsForeignTable(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "news.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name\n1,x\n"), 0o644))

	s, err := NewCSVStore(path)
	require.NoError(t, err)
	_, err = s.LoadExistingKeys(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")
}

func TestSQLiteStoreRejectsDuplicateKey(t *testing.T) {
	t.Parallel()

	s, err := OpenSQLite(filepath.Join(t.TempDir(), "news.db"))
	require.NoError(t, err)
	defer s.Close()

	rec := article("https://site/a", "2026-10-14")
	require.NoError(t, s.Append(context.Background(), rec))
	assert.Error(t, s.Append(context.Background(), rec))
}
