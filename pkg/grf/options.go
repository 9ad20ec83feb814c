package grf

import "go.uber.org/zap"

// FilenameEncoding selects how raw central-directory filenames are decoded.
type FilenameEncoding string

const (
	// EncodingAuto samples filenames and picks UTF-8 or CP949 automatically.
	EncodingAuto FilenameEncoding = "auto"
	// EncodingUTF8 forces UTF-8 decoding.
	EncodingUTF8 FilenameEncoding = "utf-8"
	// EncodingCP949 forces CP949 decoding.
	EncodingCP949 FilenameEncoding = "cp949"
	// EncodingEUCKR forces EUC-KR decoding (browser-fallback alias of CP949).
	EncodingEUCKR FilenameEncoding = "euc-kr"
	// EncodingLatin1 forces Windows-1252/Latin-1 decoding.
	EncodingLatin1 FilenameEncoding = "latin-1"
)

// Options configures how an Archive is opened and loaded.
type Options struct {
	FilenameEncoding         FilenameEncoding
	AutoDetectThreshold      float64
	MaxFileUncompressedBytes int64
	MaxEntries               uint32
	UseBytePool              bool
	CacheCapacity            int
	BytePool                 *BytePool
	Logger                   *zap.Logger
}

// DefaultOptions returns an Options populated with the documented defaults.
func DefaultOptions() Options {
	return Options{
		FilenameEncoding:         EncodingAuto,
		AutoDetectThreshold:      0.01,
		MaxFileUncompressedBytes: 256 * 1024 * 1024,
		MaxEntries:               500_000,
		UseBytePool:              true,
		CacheCapacity:            50,
		Logger:                   zap.NewNop(),
	}
}

// Option mutates an Options in place; used with Open for inline overrides.
type Option func(*Options)

// WithFilenameEncoding overrides the filename encoding policy.
func WithFilenameEncoding(enc FilenameEncoding) Option {
	return func(o *Options) { o.FilenameEncoding = enc }
}

// WithAutoDetectThreshold overrides the UTF-8 bad-character ratio threshold.
func WithAutoDetectThreshold(t float64) Option {
	return func(o *Options) { o.AutoDetectThreshold = t }
}

// WithMaxFileUncompressedBytes overrides the per-entry uncompressed size ceiling.
func WithMaxFileUncompressedBytes(n int64) Option {
	return func(o *Options) { o.MaxFileUncompressedBytes = n }
}

// WithMaxEntries overrides the declared-entry-count cap.
func WithMaxEntries(n uint32) Option {
	return func(o *Options) { o.MaxEntries = n }
}

// WithCacheCapacity overrides the LRU extraction cache capacity.
func WithCacheCapacity(n int) Option {
	return func(o *Options) { o.CacheCapacity = n }
}

// WithBytePool injects a private BytePool instead of the process-wide default.
func WithBytePool(p *BytePool) Option {
	return func(o *Options) { o.BytePool = p }
}

// WithUseBytePool toggles pooled scratch buffers for entry extraction.
func WithUseBytePool(use bool) Option {
	return func(o *Options) { o.UseBytePool = use }
}

// WithLogger overrides the structured logger used for diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

func (o *Options) bytePool() *BytePool {
	if !o.UseBytePool {
		return nil
	}
	if o.BytePool != nil {
		return o.BytePool
	}
	return defaultBytePool
}

func (o *Options) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop()
}
