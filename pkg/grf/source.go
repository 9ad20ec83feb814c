package grf

import (
	"context"
	"io"
	"os"
)

// Source abstracts a length-exact, absolute-offset read capability. It is
// the sole coupling between the archive parser and any storage backend —
// a local file, an in-memory blob, or a range-fetchable remote object.
//
// A short read is always an error; implementations must never return a
// partially filled buf without an error. Two concurrent ReadAt calls on
// the same Source may be issued by the caller; the implementation must
// serialize internally or support genuinely parallel positional reads.
type Source interface {
	// ReadAt fills buf completely with the bytes at absolute offset off,
	// or returns an error wrapping io.ErrUnexpectedEOF on short read.
	ReadAt(ctx context.Context, buf []byte, off int64) error
	// Size returns the total byte length of the source.
	Size() (int64, error)
	// Close releases any resources held by the source.
	Close() error
}

// FileSource reads from an *os.File via ReadAt, avoiding the seek+read
// race a Seek-then-Read pair would have under concurrent access.
type FileSource struct {
	f *os.File
}

// OpenFileSource opens path for reading as a Source.
func OpenFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &FileSource{f: f}, nil
}

// NewFileSource wraps an already-open *os.File.
func NewFileSource(f *os.File) *FileSource {
	return &FileSource{f: f}
}

func (s *FileSource) ReadAt(ctx context.Context, buf []byte, off int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n, err := s.f.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

func (s *FileSource) Size() (int64, error) {
	info, err := s.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (s *FileSource) Close() error {
	return s.f.Close()
}

// MemorySource serves reads out of an in-memory byte slice; useful for
// tests and for archives embedded directly in a binary.
type MemorySource struct {
	data []byte
}

// NewMemorySource wraps data as a Source. data is not copied.
func NewMemorySource(data []byte) *MemorySource {
	return &MemorySource{data: data}
}

func (s *MemorySource) ReadAt(ctx context.Context, buf []byte, off int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if off < 0 || off > int64(len(s.data)) {
		return io.ErrUnexpectedEOF
	}
	n := copy(buf, s.data[off:])
	if n != len(buf) {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func (s *MemorySource) Size() (int64, error) {
	return int64(len(s.data)), nil
}

func (s *MemorySource) Close() error {
	return nil
}

// RangeSource adapts any io.ReaderAt (e.g. a range-GET HTTP client, a
// memory-mapped file) into a Source given a known total size.
type RangeSource struct {
	r      io.ReaderAt
	size   int64
	closer io.Closer
}

// NewRangeSource wraps r, reporting size as the total length. If r also
// implements io.Closer, Close will call it.
func NewRangeSource(r io.ReaderAt, size int64) *RangeSource {
	rs := &RangeSource{r: r, size: size}
	if c, ok := r.(io.Closer); ok {
		rs.closer = c
	}
	return rs
}

func (s *RangeSource) ReadAt(ctx context.Context, buf []byte, off int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n, err := s.r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

func (s *RangeSource) Size() (int64, error) {
	return s.size, nil
}

func (s *RangeSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
