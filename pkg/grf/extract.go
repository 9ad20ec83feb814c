package grf

import (
	"bytes"
	"compress/zlib"
	"context"
	"io"
)

// extractEntry runs the read → decipher → inflate pipeline for one entry.
func extractEntry(ctx context.Context, src Source, e *Entry, pool *BytePool) ([]byte, error) {
	if e.LengthAligned < 0 {
		return nil, newError(CorruptTable, "negative length_aligned").withContext("entry", e.Name)
	}
	if e.LengthAligned%8 != 0 && (e.IsMixedCipher() || e.IsHeaderOnlyCipher()) {
		return nil, newError(CorruptTable, "length_aligned is not block-aligned").withContext("entry", e.Name)
	}

	var payload []byte
	if pool != nil {
		payload = pool.Acquire(int(e.LengthAligned))
		defer pool.Release(payload)
	} else {
		payload = make([]byte, e.LengthAligned)
	}

	if len(payload) > 0 {
		if err := src.ReadAt(ctx, payload, int64(e.Offset)); err != nil {
			return nil, newError(InvalidOffset, "reading entry payload").withContext("entry", e.Name).wrap(err)
		}
	}

	decrypt(payload, e.Type, e.CompressedSize)

	if e.RealSize == e.CompressedSize {
		if int(e.CompressedSize) > len(payload) {
			return nil, newError(CorruptTable, "compressed_size exceeds payload").withContext("entry", e.Name)
		}
		out := make([]byte, e.CompressedSize)
		copy(out, payload[:e.CompressedSize])
		return out, nil
	}

	if int(e.CompressedSize) > len(payload) {
		return nil, newError(CorruptTable, "compressed_size exceeds payload").withContext("entry", e.Name)
	}

	zr, err := zlib.NewReader(bytes.NewReader(payload[:e.CompressedSize]))
	if err != nil {
		return nil, newError(DecompressFail, "inflate init failed").withContext("entry", e.Name).wrap(err)
	}
	defer zr.Close()

	out := make([]byte, e.RealSize)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, newError(DecompressFail, "inflate produced wrong length").withContext("entry", e.Name).wrap(err)
	}

	return out, nil
}
