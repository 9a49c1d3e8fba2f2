package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrNoSaveFile is returned by a Backend when nothing has been saved yet.
var ErrNoSaveFile = errors.New("no save file")

// Backend reads and writes the serialized document.
type Backend interface {
	// Read returns the stored document, or ErrNoSaveFile on first run.
	Read(ctx context.Context) ([]byte, error)
	// Write replaces the stored document.
	Write(ctx context.Context, data []byte) error
	// Rescue keeps an unreadable document aside and returns where it went.
	Rescue(ctx context.Context, data []byte) (string, error)
	// Location describes where the document lives, for messages.
	Location() string
	Close() error
}

// Store owns the in-memory document and its durable copy.
//
// All writes go through a single mutex, so saves never overlap and the file
// on disk always holds the result of the latest completed mutation.
type Store struct {
	backend     Backend
	mu          sync.Mutex
	doc         *Document
	onCorrupted func(rescuePath string)
}

// NewStore creates a store holding a default document. Call Load to read the save file.
func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,
		doc:     NewDocument(),
		onCorrupted: func(rescuePath string) {
			log.Warn().Str("rescue_path", rescuePath).Msg("save file was corrupted and has been replaced")
		},
	}
}

// OnCorrupted registers the notice shown when a corrupted save file had to be set aside.
// The callback must not block.
func (s *Store) OnCorrupted(fn func(rescuePath string)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onCorrupted = fn
}

// Load reads the save file and merges it over the default document.
//
// Fields missing from an older save file keep their defaults. A save file
// that cannot be parsed is rescued next to the original and replaced by a
// fresh default document. Load always finishes by saving, which writes any
// newly introduced defaults.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.backend.Read(ctx)

	switch {
	case errors.Is(err, ErrNoSaveFile):
		log.Info().Str("location", s.backend.Location()).Msg("no save file found, starting with defaults")
	case err != nil:
		return fmt.Errorf("error reading save file: %w", err)
	default:
		doc, err := decodeDocument(data)
		if err != nil {
			log.Warn().Err(err).Msg("error parsing save file")

			rescuePath, err := s.backend.Rescue(ctx, data)
			if err != nil {
				return fmt.Errorf("error rescuing corrupted save file: %w", err)
			}

			s.doc = NewDocument()

			if s.onCorrupted != nil {
				s.onCorrupted(rescuePath)
			}
		} else {
			s.doc = doc
		}
	}

	return s.save(ctx)
}

func decodeDocument(data []byte) (*Document, error) {
	doc := NewDocument()

	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("error decoding document: %w", err)
	}

	if result, err := Validate(data); err != nil {
		log.Warn().Err(err).Msg("error validating save file")
	} else if !result.Valid {
		for _, e := range result.Errors {
			log.Warn().Err(e).Msg("save file does not match schema")
		}
	}

	doc.normalize()

	return doc, nil
}

// Save writes the whole document.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(ctx)
}

func (s *Store) save(ctx context.Context) error {
	data, err := json.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("error encoding document: %w", err)
	}

	if err := s.backend.Write(ctx, data); err != nil {
		return fmt.Errorf("error writing save file: %w", err)
	}

	return nil
}

// Update applies fn to the document and saves it. Nothing is saved when fn fails.
func (s *Store) Update(ctx context.Context, fn func(doc *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.doc); err != nil {
		return err
	}

	return s.save(ctx)
}

// Stage applies fn to the document without saving; the change is written by the next save.
func (s *Store) Stage(fn func(doc *Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.doc)
}

// View gives fn read access to the document. fn must not keep references to it.
func (s *Store) View(fn func(doc *Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.doc)
}

// Document returns a deep copy of the current document.
func (s *Store) Document() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.doc.Clone()
}

// Location describes where the save file lives.
func (s *Store) Location() string {
	return s.backend.Location()
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
