// Package store is the durable, append-only tabular backing for job
// results. Appends are batched behind a single flush and fsync, so a crash
// mid-batch can truncate that batch's tail but never corrupts prior rows.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CSVStore persists rows for one job as a CSV file with a fixed column set.
type CSVStore struct {
	path    string
	columns []string
}

// NewCSV creates a store handle for path. Nothing is created on disk until
// the first append.
func NewCSV(path string, columns []string) *CSVStore {
	return &CSVStore{path: path, columns: columns}
}

// Path returns the store's current location.
func (s *CSVStore) Path() string {
	return s.path
}

// Exists reports whether the store exists on disk.
func (s *CSVStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// AppendRows durably appends one batch. The header is written when the file
// is new or empty; the batch is flushed and synced as a unit.
func (s *CSVStore) AppendRows(rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	writeHeader := true
	if info, err := os.Stat(s.path); err == nil && info.Size() > 0 {
		writeHeader = false
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(s.columns); err != nil {
			f.Close()
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for _, row := range rows {
		if len(row) != len(s.columns) {
			f.Close()
			return fmt.Errorf("row has %d fields, store has %d columns", len(row), len(s.columns))
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush batch: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync store: %w", err)
	}

	return f.Close()
}

// Touch creates an empty store (header only) if nothing exists yet. A
// fully-walked window with zero results still needs a store to relocate.
func (s *CSVStore) Touch() error {
	if s.Exists() {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(s.columns); err != nil {
		f.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush header: %w", err)
	}
	return f.Close()
}

// Scan streams every persisted row through fn without loading the store
// into memory. Structurally damaged rows (a torn final batch) are skipped.
func (s *CSVStore) Scan(fn func(row []string) error) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	// Header row.
	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to read header: %w", err)
	}

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return fmt.Errorf("failed to read row: %w", err)
		}
		if len(record) != len(s.columns) {
			continue
		}
		if err := fn(record); err != nil {
			return err
		}
	}
}

// ReadAll returns every persisted row. Prefer Scan for large stores.
func (s *CSVStore) ReadAll() ([][]string, error) {
	var rows [][]string
	err := s.Scan(func(row []string) error {
		out := make([]string, len(row))
		copy(out, row)
		rows = append(rows, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Rename relocates the store. The engine uses this to mark completion:
// where the data lives is the completion state.
func (s *CSVStore) Rename(newPath string) error {
	if err := os.Rename(s.path, newPath); err != nil {
		return fmt.Errorf("failed to rename store: %w", err)
	}
	s.path = newPath
	return nil
}
