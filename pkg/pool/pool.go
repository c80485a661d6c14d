// Package pool provides object pooling for agego to reduce allocations.
//
// Object pooling reuses allocated objects instead of creating new ones,
// reducing GC pressure on the two hot paths of a Cypher call: rendering
// agtype parameters and scanning result rows.
//
// Pooled objects:
// - Byte buffers (agtype encoding)
// - Scan destination slices (one entry per result column)
// - Raw column slices (undecoded agtype payloads of one row)
//
// Usage:
//
//	buf := pool.GetByteBuffer()
//	defer pool.PutByteBuffer(buf)
//
//	buf = agtype.AppendValue(buf, v)
package pool

import (
	"sync"
)

// PoolConfig configures object pooling behavior.
type PoolConfig struct {
	// Enabled controls whether pooling is active
	Enabled bool

	// MaxSize limits the capacity of slices that are returned to a pool
	MaxSize int
}

var globalConfig = PoolConfig{
	Enabled: true,
	MaxSize: 1000,
}

// Configure sets global pool configuration.
// Should be called early during initialization.
func Configure(config PoolConfig) {
	globalConfig = config

	// Reinitialize pools to ensure New functions are set correctly
	initPools()
}

// initPools reinitializes all pools with their New functions.
func initPools() {
	byteBufferPool = sync.Pool{
		New: func() any {
			return make([]byte, 0, 1024)
		},
	}
	scanSlicePool = sync.Pool{
		New: func() any {
			return make([]any, 0, 16)
		},
	}
	rawColumnPool = sync.Pool{
		New: func() any {
			return make([][]byte, 0, 16)
		},
	}
}

// IsEnabled returns whether pooling is enabled.
func IsEnabled() bool {
	return globalConfig.Enabled
}

// =============================================================================
// Byte Buffer Pool
// =============================================================================

var byteBufferPool = sync.Pool{
	New: func() any {
		return make([]byte, 0, 1024)
	},
}

// GetByteBuffer returns a byte buffer from the pool.
func GetByteBuffer() []byte {
	if !IsEnabled() {
		return make([]byte, 0, 1024)
	}
	return byteBufferPool.Get().([]byte)[:0]
}

// PutByteBuffer returns a byte buffer to the pool.
func PutByteBuffer(buf []byte) {
	if !IsEnabled() {
		return
	}
	if cap(buf) > 1024*1024 { // Don't pool huge buffers (>1MB)
		return
	}
	byteBufferPool.Put(buf[:0])
}

// =============================================================================
// Scan Destination Pool (for result rows)
// =============================================================================

var scanSlicePool = sync.Pool{
	New: func() any {
		return make([]any, 0, 16)
	},
}

// GetScanSlice returns a slice of n scan destinations from the pool.
// Entries are nil; the caller fills them with pointers.
func GetScanSlice(n int) []any {
	var s []any
	if IsEnabled() {
		s = scanSlicePool.Get().([]any)[:0]
	}
	if cap(s) < n {
		s = make([]any, 0, n)
	}
	return s[:n]
}

// PutScanSlice returns a scan destination slice to the pool.
func PutScanSlice(s []any) {
	if !IsEnabled() || s == nil {
		return
	}
	if cap(s) > globalConfig.MaxSize {
		return
	}
	// Clear references
	for i := range s {
		s[i] = nil
	}
	scanSlicePool.Put(s[:0])
}

// =============================================================================
// Raw Column Pool
// =============================================================================

var rawColumnPool = sync.Pool{
	New: func() any {
		return make([][]byte, 0, 16)
	},
}

// GetRawColumns returns a slice of n raw column holders from the pool.
func GetRawColumns(n int) [][]byte {
	var s [][]byte
	if IsEnabled() {
		s = rawColumnPool.Get().([][]byte)[:0]
	}
	if cap(s) < n {
		s = make([][]byte, 0, n)
	}
	return s[:n]
}

// PutRawColumns returns a raw column slice to the pool.
func PutRawColumns(s [][]byte) {
	if !IsEnabled() || s == nil {
		return
	}
	if cap(s) > globalConfig.MaxSize {
		return
	}
	for i := range s {
		s[i] = nil
	}
	rawColumnPool.Put(s[:0])
}
