// Package index implements the in-memory semantic index used by deep search.
//
// The index is an append-only collection of (embedding vector, source text)
// pairs. It supports exact nearest-neighbor queries by squared Euclidean
// distance over a flat, exhaustive scan. There is no deletion, update, or
// eviction: the index grows for the lifetime of the process and is reset
// only on restart. At the scale of a single long-running session (hundreds
// to low thousands of documents) a brute-force scan is the right tradeoff.
//
// The index is an injected dependency, constructed once in internal/app and
// shared by every request that enables deep search.
package index

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

var (
	// ErrCountMismatch indicates Add was called with a different number of
	// vectors and texts. The index is left unmodified.
	ErrCountMismatch = errors.New("vector and text counts differ")

	// ErrDimension indicates a vector's width differs from the dimension
	// established by the first added vector.
	ErrDimension = errors.New("vector dimension mismatch")
)

// entry pairs one embedding vector with the text it was computed from.
// Entries are immutable once appended.
type entry struct {
	vector []float32
	text   string
}

// Index is a process-wide, append-only semantic index.
//
// Index is safe for concurrent use. Add is observed atomically: a reader
// never sees a vector without its paired text. Search runs on a consistent
// snapshot; entries added concurrently after a search began may be missed,
// which is acceptable.
type Index struct {
	mu      sync.RWMutex
	entries []entry
	dim     int // 0 until the first Add establishes the dimension
	logger  *slog.Logger
}

// New creates an empty Index. The vector dimension is adopted from the
// first Add call; the embedder configuration is the only thing that
// determines it.
func New(logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{logger: logger}
}

// Add appends one (vector, text) pair per element, in order.
//
// The whole batch is validated before any mutation: on ErrCountMismatch or
// ErrDimension nothing is appended. Duplicate texts are not deduplicated;
// re-adding the same text creates a second entry that ranks alongside the
// original in future queries.
func (ix *Index) Add(vectors [][]float32, texts []string) error {
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: %d vectors, %d texts", ErrCountMismatch, len(vectors), len(texts))
	}
	if len(vectors) == 0 {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	dim := ix.dim
	if dim == 0 {
		dim = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d dimensions, want %d", ErrDimension, i, len(v), dim)
		}
	}

	for i, v := range vectors {
		// Copy so callers cannot mutate stored vectors afterwards.
		stored := make([]float32, len(v))
		copy(stored, v)
		ix.entries = append(ix.entries, entry{vector: stored, text: texts[i]})
	}
	ix.dim = dim

	ix.logger.Debug("index grew", "added", len(vectors), "size", len(ix.entries))
	return nil
}

// Search returns up to k texts ranked by ascending squared Euclidean
// distance to query (nearest first). Equal distances keep insertion order.
//
// An empty index yields an empty result, not an error. k larger than the
// index returns every entry ranked; k <= 0 returns nothing.
func (ix *Index) Search(query []float32, k int) ([]string, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.entries) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", ErrDimension, len(query), ix.dim)
	}

	type scored struct {
		pos  int
		dist float64
	}
	ranked := make([]scored, len(ix.entries))
	for i, e := range ix.entries {
		ranked[i] = scored{pos: i, dist: squaredDistance(query, e.vector)}
	}

	// SliceStable keeps insertion order for tied distances.
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].dist < ranked[b].dist
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	texts := make([]string, k)
	for i := range k {
		texts[i] = ix.entries[ranked[i].pos].text
	}
	return texts, nil
}

// Len returns the number of stored entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// squaredDistance computes squared Euclidean distance between two vectors
// of equal length. The square root is omitted: it is monotonic and the
// ranking only needs relative order.
func squaredDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
