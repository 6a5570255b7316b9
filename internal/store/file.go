package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/chat4office/internal/metrics"
)

var (
	// ErrStoreIO wraps a failed persist. The previously persisted file is
	// left intact; only the rejected operation is lost.
	ErrStoreIO = errors.New("store: write failed")

	// ErrClosed is returned by Apply after Close.
	ErrClosed = errors.New("store: closed")

	// ErrNoChange may be returned by a mutator to signal that it made no
	// modification. Apply skips the persist and reports success.
	ErrNoChange = errors.New("store: no change")
)

// Mutator reads and modifies the document inside the serialized apply
// section. Returning an error (other than ErrNoChange) aborts the
// operation; nothing is persisted and the in-memory document keeps its
// previous state.
type Mutator func(doc *Document) error

type applyReq struct {
	fn   Mutator
	errc chan error
}

// FileStore holds the in-memory document and mirrors it to a single JSON
// file. All mutations go through Apply, which runs them one at a time in
// submission order on a dedicated goroutine; the persist is atomic
// (write to a temp file, then rename over the target), so a partially
// written document can never become visible.
//
// The document is copy-on-write: each successful Apply swaps in a new
// document, so a View snapshot stays internally consistent for as long
// as the caller holds it. Because the mutator runs inside the serialized
// section, a single Apply call captures both the read and the write and
// two concurrent Apply callers cannot clobber each other. A caller that
// Views, decides, and then Applies may still act on stale data and must
// re-check inside the mutator.
type FileStore struct {
	path      string
	logger    zerolog.Logger
	doc       atomic.Pointer[Document]
	applyCh   chan applyReq
	quit      chan struct{}
	closeOnce sync.Once
	stopped   chan struct{}
}

// Open loads the document at path, normalizing it, or creates a fresh
// one if the file does not exist. The apply loop starts immediately.
func Open(path string, logger zerolog.Logger) (*FileStore, error) {
	s := &FileStore{
		path:    path,
		logger:  logger.With().Str("component", "store").Logger(),
		applyCh: make(chan applyReq),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		doc := &Document{}
		if err := json.Unmarshal(raw, doc); err != nil {
			return nil, fmt.Errorf("store: parse %s: %w", path, err)
		}
		doc.Normalize()
		s.doc.Store(doc)
	case os.IsNotExist(err):
		doc := NewDocument()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: create data dir: %w", err)
		}
		if err := s.persist(doc); err != nil {
			return nil, err
		}
		s.doc.Store(doc)
		s.logger.Info().Str("path", path).Msg("created empty document")
	default:
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}

	go s.loop()
	return s, nil
}

// Path returns the durable file location.
func (s *FileStore) Path() string {
	return s.path
}

// Apply queues the mutator and blocks until its turn in the single-writer
// queue completes. The mutator receives a private copy of the document;
// on success the copy is persisted and becomes the current in-memory
// document. On any failure the previous document stays current, so
// memory and disk never diverge.
func (s *FileStore) Apply(fn Mutator) error {
	req := applyReq{fn: fn, errc: make(chan error, 1)}
	select {
	case s.applyCh <- req:
		return <-req.errc
	case <-s.quit:
		return ErrClosed
	}
}

// View runs fn with a read snapshot of the current document. The
// snapshot is never mutated afterwards, but fn must not modify it.
// Views are not serialized against pending Apply calls.
func (s *FileStore) View(fn func(doc *Document)) {
	fn(s.doc.Load())
}

// Close stops the apply loop. Pending Apply callers receive ErrClosed.
// Safe to call from multiple goroutines.
func (s *FileStore) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.stopped
}

func (s *FileStore) loop() {
	defer close(s.stopped)
	for {
		select {
		case req := <-s.applyCh:
			req.errc <- s.applyOne(req.fn)
		case <-s.quit:
			return
		}
	}
}

func (s *FileStore) applyOne(fn Mutator) error {
	next, err := s.clone()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreIO, err)
	}
	if err := fn(next); err != nil {
		if errors.Is(err, ErrNoChange) {
			return nil
		}
		return err
	}
	next.Normalize()
	if err := s.persist(next); err != nil {
		metrics.StoreWriteFailures.Inc()
		s.logger.Error().Err(err).Msg("persist failed, keeping previous document")
		return err
	}
	s.doc.Store(next)
	metrics.StoreWrites.Inc()
	return nil
}

// clone deep-copies the document so a failed mutator cannot leave the
// current document half-modified.
func (s *FileStore) clone() (*Document, error) {
	raw, err := json.Marshal(s.doc.Load())
	if err != nil {
		return nil, err
	}
	doc := &Document{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *FileStore) persist(doc *Document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrStoreIO, err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreIO, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreIO, err)
	}
	return nil
}
