package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"strings"
	"sync"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

// FileLedger is a newline-delimited, append-only list of delivered content keys.
type FileLedger struct {
	path string

	mu   sync.RWMutex
	keys domain.KeySet
}

var _ ports.SentLedger = (*FileLedger)(nil)

// OpenFileLedger loads every key recorded at path; a missing file is an empty ledger.
func OpenFileLedger(path string) (*FileLedger, error) {
	l := &FileLedger{path: path, keys: domain.KeySet{}}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if key := strings.TrimSpace(scanner.Text()); key != "" {
			l.keys.Add(key)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}
	return l, nil
}

// Contains reports whether key was already delivered.
func (l *FileLedger) Contains(key string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.keys.Has(key)
}

// Record appends key and fsyncs before the in-memory set learns about it.
func (l *FileLedger) Record(ctx context.Context, key string) error {
	if l.Contains(key) {
		return nil
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger %s: %w", l.path, err)
	}
	if _, err := f.WriteString(key + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("write ledger %s: %w", l.path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync ledger %s: %w", l.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close ledger %s: %w", l.path, err)
	}

	l.mu.Lock()
	l.keys.Add(key)
	l.mu.Unlock()
	return nil
}

// Keys returns a snapshot of the delivered set.
func (l *FileLedger) Keys() domain.KeySet {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return maps.Clone(l.keys)
}
