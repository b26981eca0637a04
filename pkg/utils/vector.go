// Package utils provides small shared helpers: vector math, top-K
// selection and bounded concurrent execution.
package utils

import (
	"container/heap"
	"math"
	"sort"
)

// CosineSimilarity calculates the cosine similarity between two float32
// vectors. Returns 0 if the vectors differ in length, are empty, or either
// has zero magnitude. The result is in [-1, 1].
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Normalize returns v scaled to unit length, or nil for empty or
// zero-magnitude input.
func Normalize(v []float32) []float32 {
	if len(v) == 0 {
		return nil
	}
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	mag := math.Sqrt(sum)
	if mag == 0 {
		return nil
	}
	result := make([]float32, len(v))
	for i, x := range v {
		result[i] = float32(float64(x) / mag)
	}
	return result
}

// ScoredItem pairs an item with a score for top-K selection.
type ScoredItem[T any] struct {
	Item  T
	Score float64
}

// minHeap keeps the worst of the current K best at the root so a new item
// can cheaply decide whether it displaces one of them.
type minHeap[T any] struct {
	items  []ScoredItem[T]
	prefer func(a, b ScoredItem[T]) bool
}

func (h *minHeap[T]) Len() int           { return len(h.items) }
func (h *minHeap[T]) Less(i, j int) bool { return h.prefer(h.items[j], h.items[i]) }
func (h *minHeap[T]) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *minHeap[T]) Push(x any) {
	h.items = append(h.items, x.(ScoredItem[T]))
}

func (h *minHeap[T]) Pop() any {
	old := h.items
	n := len(old)
	x := old[n-1]
	h.items = old[0 : n-1]
	return x
}

// TopKByScore returns the K highest-scoring items in descending score
// order. O(n log k), which beats a full sort when k << n. Equal scores
// fall back to the tie comparator when one is given, so truncation stays
// deterministic; a nil tie keeps input order among equals.
func TopKByScore[T any](items []ScoredItem[T], k int, tie func(a, b T) bool) []ScoredItem[T] {
	if k <= 0 || len(items) == 0 {
		return nil
	}
	prefer := func(a, b ScoredItem[T]) bool {
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return tie != nil && tie(a.Item, b.Item)
	}

	if k >= len(items) {
		result := make([]ScoredItem[T], len(items))
		copy(result, items)
		sort.SliceStable(result, func(i, j int) bool {
			return prefer(result[i], result[j])
		})
		return result
	}

	h := &minHeap[T]{items: make([]ScoredItem[T], 0, k), prefer: prefer}
	heap.Init(h)
	for _, item := range items {
		if h.Len() < k {
			heap.Push(h, item)
		} else if prefer(item, h.items[0]) {
			heap.Pop(h)
			heap.Push(h, item)
		}
	}

	result := make([]ScoredItem[T], h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(ScoredItem[T])
	}
	return result
}
