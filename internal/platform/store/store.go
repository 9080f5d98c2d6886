// Package store loads definition files on demand and caches their normalized
// descriptors.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ehr/fhirviewer/internal/platform/fhir"
)

// ErrNotFound is returned when no index entry or file matches a request.
var ErrNotFound = errors.New("definition not found")

// RawCache is an optional shared cache of raw definition bytes keyed by file.
type RawCache interface {
	Get(ctx context.Context, file string) ([]byte, bool, error)
	Set(ctx context.Context, file string, data []byte) error
	Clear(ctx context.Context) error
}

type cacheKey struct {
	namespace string
	name      string
}

// Store is the catalog of definitions. The index is loaded on first use and
// descriptors are normalized on first Get; both are dropped only by Reload.
type Store struct {
	source     Source
	normalizer *fhir.Normalizer
	raw        RawCache
	cache      *LRU[cacheKey, *fhir.ResourceDescriptor]
	logger     zerolog.Logger

	mu    sync.RWMutex
	index *Index
}

// Option configures a Store.
type Option func(*Store)

// WithCacheSize bounds the number of cached descriptors.
func WithCacheSize(n int) Option {
	return func(s *Store) { s.cache = NewLRU[cacheKey, *fhir.ResourceDescriptor](n) }
}

// WithRawCache puts a shared raw-bytes cache in front of the source.
func WithRawCache(rc RawCache) Option {
	return func(s *Store) { s.raw = rc }
}

// WithLogger sets the logger used for cache misses and loads.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a Store over source.
func New(source Source, normalizer *fhir.Normalizer, opts ...Option) *Store {
	s := &Store{
		source:     source,
		normalizer: normalizer,
		cache:      NewLRU[cacheKey, *fhir.ResourceDescriptor](0),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.normalizer == nil {
		s.normalizer = fhir.NewNormalizer()
	}
	return s
}

// Index returns the catalog index, loading it on first use.
func (s *Store) Index(ctx context.Context) (*Index, error) {
	s.mu.RLock()
	idx := s.index
	s.mu.RUnlock()
	if idx != nil {
		return idx, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != nil {
		return s.index, nil
	}
	idx, err := s.source.LoadIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	s.index = idx
	s.logger.Info().Int("definitions", len(idx.ByName)).Msg("definition index loaded")
	return idx, nil
}

// Get returns the normalized descriptor for name in namespace.
func (s *Store) Get(ctx context.Context, name, namespace string) (*fhir.ResourceDescriptor, error) {
	key := cacheKey{namespace: namespace, name: name}
	if d, ok := s.cache.Get(key); ok {
		return d, nil
	}

	idx, err := s.Index(ctx)
	if err != nil {
		return nil, err
	}
	entry, ok := idx.Lookup(namespace, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, namespace, name)
	}

	s.logger.Debug().Str("namespace", namespace).Str("name", name).Str("file", entry.File).Msg("descriptor cache miss")

	data, err := s.ReadRaw(ctx, entry)
	if err != nil {
		return nil, err
	}
	raw, err := fhir.DecodeRawDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", entry.File, err)
	}
	desc, err := s.normalizer.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", entry.File, err)
	}
	applyEntry(desc, entry)

	s.cache.Set(key, desc)
	return desc, nil
}

// applyEntry fills what only the index knows. It runs before the descriptor is
// published to the cache.
func applyEntry(d *fhir.ResourceDescriptor, e IndexEntry) {
	d.Namespace = e.Spec
	if d.Name == "" {
		d.Name = e.Name
	}
	if e.Type == EntryDatatype && !d.Structure.IsDataType() {
		d.Structure = fhir.StructureKind(e.Kind)
		if !d.Structure.IsDataType() {
			d.Structure = fhir.StructureComplexType
		}
	}
	if d.IsProfile() && d.BaseType == "" {
		d.BaseType = e.BaseDefinition
	}
}

// ReadRaw returns the raw bytes for an entry, consulting the raw cache first.
func (s *Store) ReadRaw(ctx context.Context, e IndexEntry) ([]byte, error) {
	if s.raw != nil {
		data, ok, err := s.raw.Get(ctx, e.File)
		if err != nil {
			s.logger.Warn().Err(err).Str("file", e.File).Msg("raw cache read failed")
		} else if ok {
			return data, nil
		}
	}

	data, err := s.source.ReadFile(ctx, e.File)
	if err != nil {
		return nil, err
	}

	if s.raw != nil {
		if err := s.raw.Set(ctx, e.File, data); err != nil {
			s.logger.Warn().Err(err).Str("file", e.File).Msg("raw cache write failed")
		}
	}
	return data, nil
}

// List returns the namespace's index entries, optionally filtered by type.
func (s *Store) List(ctx context.Context, namespace, entryType string) ([]IndexEntry, error) {
	idx, err := s.Index(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Entries(namespace, entryType), nil
}

// Namespaces lists the namespaces present in the index.
func (s *Store) Namespaces(ctx context.Context) ([]string, error) {
	idx, err := s.Index(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Namespaces(), nil
}

// Reload drops every cached descriptor and raw entry and reloads the index.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	s.index = nil
	s.mu.Unlock()
	s.cache.Clear()

	if s.raw != nil {
		if err := s.raw.Clear(ctx); err != nil {
			return fmt.Errorf("clear raw cache: %w", err)
		}
	}
	_, err := s.Index(ctx)
	return err
}

// Stats reports descriptor cache counters.
func (s *Store) Stats() CacheStats {
	return s.cache.Stats()
}
