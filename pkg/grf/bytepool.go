package grf

import "sync"

// bytePoolBuckets are the power-of-two bucket sizes, 1 KiB through 256 KiB.
var bytePoolBuckets = [...]int{
	1 << 10, 1 << 11, 1 << 12, 1 << 13,
	1 << 14, 1 << 15, 1 << 16, 1 << 17,
	1 << 18,
}

const bytePoolMaxIdle = 10

// BytePool is a reusable scratch-buffer pool, size-bucketed at
// powers-of-two from 1 KiB to 256 KiB. It exists purely as a
// throughput/GC optimization for entry extraction; correctness never
// depends on it. Requests larger than the top bucket bypass the pool.
type BytePool struct {
	mu      sync.Mutex
	buckets map[int][][]byte
}

// NewBytePool returns an empty BytePool.
func NewBytePool() *BytePool {
	return &BytePool{buckets: make(map[int][][]byte, len(bytePoolBuckets))}
}

// defaultBytePool is the process-wide singleton used when Options.BytePool
// is left nil. Implementations embedding grfpack may construct a private
// BytePool per archive instead; observable behavior is unchanged.
var defaultBytePool = NewBytePool()

func bucketFor(n int) int {
	for _, b := range bytePoolBuckets {
		if n <= b {
			return b
		}
	}
	return 0
}

// Acquire returns a []byte of length n. If n fits a bucket, the backing
// array may be reused from the pool.
func (p *BytePool) Acquire(n int) []byte {
	bucket := bucketFor(n)
	if bucket == 0 {
		return make([]byte, n)
	}

	p.mu.Lock()
	stack := p.buckets[bucket]
	var buf []byte
	if len(stack) > 0 {
		buf = stack[len(stack)-1]
		p.buckets[bucket] = stack[:len(stack)-1]
	}
	p.mu.Unlock()

	if buf == nil {
		buf = make([]byte, bucket)
	}
	return buf[:n]
}

// Release returns buf to the pool for reuse. buf's capacity (not its
// length) determines the bucket; a buffer whose capacity is not exactly a
// bucket size is dropped.
func (p *BytePool) Release(buf []byte) {
	bucket := bucketFor(cap(buf))
	if bucket == 0 || cap(buf) != bucket {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.buckets[bucket]) >= bytePoolMaxIdle {
		return
	}
	p.buckets[bucket] = append(p.buckets[bucket], buf[:cap(buf)])
}
