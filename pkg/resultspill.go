// Package pkg provides generic utilities for codemorph.
package pkg

import (
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// Spill buffers items of type T on disk so a batch run over a large corpus
// does not hold every transformed file in memory. Appends go through one
// shared encoder; reads reopen the file and decode from the start.
type Spill[T any] interface {
	Len() uint64
	Path() string
	Append(item T) error
	Range(fn func(index uint64, item T) error) error
	Close() error
}

type spillImpl[T any] struct {
	path    string
	file    *os.File
	encoder *gob.Encoder
	mu      sync.Mutex
	length  uint64
}

// NewTempSpill creates a Spill backed by a fresh temporary file. The caller
// owns the file and should remove it via Path after Close.
func NewTempSpill[T any](prefix string) (Spill[T], error) {
	file, err := os.CreateTemp("", prefix+"-*.gob")
	if err != nil {
		slog.Error("failed to create spill file", "prefix", prefix, "error", err)
		return nil, fmt.Errorf("failed to create spill file: %w", err)
	}

	slog.Debug("created spill", "path", file.Name())

	return &spillImpl[T]{
		path:    file.Name(),
		file:    file,
		encoder: gob.NewEncoder(file),
	}, nil
}

// Path implements Spill.
func (s *spillImpl[T]) Path() string {
	return s.path
}

// Len implements Spill.
func (s *spillImpl[T]) Len() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.length
}

// Append implements Spill.
func (s *spillImpl[T]) Append(item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.encoder.Encode(item); err != nil {
		slog.Error("failed to encode item", "path", s.path, "index", s.length, "error", err)
		return fmt.Errorf("failed to encode item: %w", err)
	}

	s.length++

	return nil
}

// Range implements Spill. Iteration decodes the whole file from the start;
// the spill stays locked for the duration.
func (s *spillImpl[T]) Range(fn func(index uint64, item T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		slog.Error("failed to open spill for range", "path", s.path, "error", err)
		return fmt.Errorf("failed to open spill: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close spill", "path", s.path, "error", err)
		}
	}()

	decoder := gob.NewDecoder(file)

	var item T

	for i := range s.length {
		if err := decoder.Decode(&item); err != nil {
			slog.Error("failed to decode item during range", "path", s.path, "index", i, "error", err)
			return fmt.Errorf("failed to decode item at index %d: %w", i, err)
		}

		if err := fn(i, item); err != nil {
			return err
		}
	}

	return nil
}

// Close implements Spill.
func (s *spillImpl[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		if err := s.file.Close(); err != nil {
			slog.Error("failed to close spill file", "path", s.path, "error", err)
			return err
		}

		slog.Debug("closed spill", "path", s.path, "length", s.length)
	}

	return nil
}
