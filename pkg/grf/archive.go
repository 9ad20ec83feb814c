// Package grf provides a random-access reader for Ragnarok Online GRF
// archives: the container header, the compressed central directory, the
// custom-DES payload cipher, filename-encoding detection, and a
// case-insensitive path resolver with an LRU extraction cache.
package grf

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Archive is an opened GRF archive. It is created unloaded by Open and
// becomes queryable once Load succeeds. The loaded indices are immutable
// after a successful Load and may be queried concurrently; the
// extraction cache is the only other mutable shared state and is
// serialized internally.
type Archive struct {
	src    Source
	opts   Options
	logger *zap.Logger

	mu     sync.RWMutex
	loaded bool
	header Header
	idx    *index
	stats  Stats
	cache  *extractionCache
}

// Open constructs an Archive over src without reading anything. Call
// Load to parse the header and central directory.
func Open(src Source, options ...Option) *Archive {
	opts := DefaultOptions()
	for _, o := range options {
		o(&opts)
	}
	return &Archive{
		src:    src,
		opts:   opts,
		logger: opts.logger(),
	}
}

// OpenFile is a convenience wrapper that opens path as a FileSource.
func OpenFile(path string, options ...Option) (*Archive, error) {
	src, err := OpenFileSource(path)
	if err != nil {
		return nil, err
	}
	return Open(src, options...), nil
}

// Close releases the underlying Source.
func (a *Archive) Close() error {
	return a.src.Close()
}

// Load parses the header and central directory. It is idempotent:
// subsequent calls after a successful Load return nil without
// re-parsing.
func (a *Archive) Load(ctx context.Context) error {
	a.mu.RLock()
	if a.loaded {
		a.mu.RUnlock()
		return nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loaded {
		return nil
	}

	header, err := parseHeader(ctx, a.src, a.opts.MaxEntries)
	if err != nil {
		a.logger.Error("grf: header parse failed", zap.Error(err))
		return err
	}

	idx, stats, err := loadCentralDirectory(ctx, a.src, header, a.opts)
	if err != nil {
		a.logger.Error("grf: central directory parse failed", zap.Error(err))
		return err
	}

	a.header = header
	a.idx = idx
	a.stats = stats
	a.cache = newExtractionCache(a.opts.CacheCapacity)
	a.loaded = true

	a.logger.Info("grf: archive loaded",
		zap.Int64("declared_files", stats.DeclaredFileCount),
		zap.Int("retained_files", stats.RetainedFileCount),
		zap.String("encoding", string(stats.DetectedEncoding)),
	)
	return nil
}

// GetFile resolves name and returns its decoded bytes, serving from the
// LRU cache when possible.
func (a *Archive) GetFile(ctx context.Context, name string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.loaded {
		return nil, newError(NotLoaded, "archive not loaded")
	}

	res := a.idx.resolve(name)
	if res.Ambiguous {
		return nil, AmbiguousPathError(name, res.Candidates)
	}
	if !res.Found {
		return nil, newError(FileNotFound, name).withContext("query", name)
	}

	if data, ok := a.cache.get(res.ExactName); ok {
		return data, nil
	}

	entry := a.idx.byExactName[res.ExactName]
	data, err := extractEntry(ctx, a.src, entry, a.opts.bytePool())
	if err != nil {
		a.logger.Warn("grf: extraction failed", zap.String("entry", res.ExactName), zap.Error(err))
		return nil, err
	}

	a.cache.put(res.ExactName, data)
	return data, nil
}

// HasFile reports whether name resolves to exactly one entry.
func (a *Archive) HasFile(name string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.loaded {
		return false
	}
	return a.idx.resolve(name).Found
}

// GetEntry returns the metadata for name, resolving case/slash variants.
func (a *Archive) GetEntry(name string) (*Entry, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.loaded {
		return nil, newError(NotLoaded, "archive not loaded")
	}

	res := a.idx.resolve(name)
	if res.Ambiguous {
		return nil, AmbiguousPathError(name, res.Candidates)
	}
	if !res.Found {
		return nil, newError(FileNotFound, name).withContext("query", name)
	}
	return a.idx.byExactName[res.ExactName], nil
}

// ResolvePath exposes the raw resolver outcome for name.
func (a *Archive) ResolvePath(name string) (Resolution, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.loaded {
		return Resolution{}, newError(NotLoaded, "archive not loaded")
	}
	return a.idx.resolve(name), nil
}

// Find returns exact names matching all of criteria's conjunctive
// filters, in central-directory order.
func (a *Archive) Find(criteria FindCriteria) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.loaded {
		return nil, newError(NotLoaded, "archive not loaded")
	}
	return a.idx.find(criteria), nil
}

// FindGlob is a convenience over Find for shell-style glob patterns.
func (a *Archive) FindGlob(pattern string, maxResults int) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.loaded {
		return nil, newError(NotLoaded, "archive not loaded")
	}
	return a.idx.findGlob(pattern, maxResults), nil
}

// GetFilesByExtension returns exact names with the given extension
// (without the leading dot, case-insensitive).
func (a *Archive) GetFilesByExtension(ext string) ([]string, error) {
	return a.Find(FindCriteria{Extension: ext})
}

// ListExtensions returns every indexed extension.
func (a *Archive) ListExtensions() ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.loaded {
		return nil, newError(NotLoaded, "archive not loaded")
	}
	exts := make([]string, 0, len(a.idx.byExtension))
	for ext := range a.idx.byExtension {
		exts = append(exts, ext)
	}
	return exts, nil
}

// ListFiles returns every retained exact name in central-directory order.
func (a *Archive) ListFiles() ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.loaded {
		return nil, newError(NotLoaded, "archive not loaded")
	}
	names := make([]string, len(a.idx.entries))
	for i, e := range a.idx.entries {
		names[i] = e.Name
	}
	return names, nil
}

// GetStats returns a snapshot of load-time statistics.
func (a *Archive) GetStats() (Stats, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.loaded {
		return Stats{}, newError(NotLoaded, "archive not loaded")
	}
	return a.stats, nil
}

// GetDetectedEncoding returns the filename encoding chosen at load time.
func (a *Archive) GetDetectedEncoding() (FilenameEncoding, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.loaded {
		return "", newError(NotLoaded, "archive not loaded")
	}
	return a.stats.DetectedEncoding, nil
}

// ClearCache empties the LRU extraction cache.
func (a *Archive) ClearCache() {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.cache != nil {
		a.cache.clear()
	}
}

// CacheHitRate returns the fraction of GetFile lookups served from cache
// since the archive was loaded or the cache was last cleared.
func (a *Archive) CacheHitRate() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.cache == nil {
		return 0
	}
	return a.cache.hitRate()
}

// ReloadWithEncoding returns the archive to its pre-load state and
// re-loads it, forcing the given filename encoding instead of
// auto-detecting. The reset and the reload each take the write lock, but
// the lock is released between them: a query that runs in that gap gets a
// NotLoaded error rather than blocking, and if the reload fails the
// archive stays unloaded.
func (a *Archive) ReloadWithEncoding(ctx context.Context, enc FilenameEncoding) error {
	a.mu.Lock()
	a.loaded = false
	a.idx = nil
	a.cache = nil
	a.opts.FilenameEncoding = enc
	a.mu.Unlock()

	return a.Load(ctx)
}
