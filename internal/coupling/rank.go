package coupling

import (
	"container/heap"

	"relfiles/internal/paths"
)

type candidate struct {
	file   string
	weight float64
	order  int
}

// candidateHeap is a max-heap on weight; equal weights pop in first-seen order.
type candidateHeap []candidate

func (h candidateHeap) Len() int { return len(h) }

func (h candidateHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight > h[j].weight
	}
	return h[i].order < h[j].order
}

func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x any) { *h = append(*h, x.(candidate)) }

func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}

// Rank drains the accumulator in descending final weight and returns at most
// limit files. The query file (under any spelling that resolves to the same
// repo-relative path) and files for which exists returns false are dropped
// before the limit is applied. A nil exists keeps every candidate.
func Rank(acc *Accumulator, queryFile string, limit int, exists ExistsFunc, repoRoot string) []WeightedFile {
	if limit <= 0 || acc == nil || acc.Len() == 0 {
		return []WeightedFile{}
	}

	h := make(candidateHeap, 0, acc.Len())
	for _, f := range acc.Files() {
		w, _ := acc.Get(f)
		h = append(h, candidate{file: f, weight: w.Final(), order: w.order})
	}
	heap.Init(&h)

	results := make([]WeightedFile, 0, min(limit, h.Len()))
	for h.Len() > 0 && len(results) < limit {
		c := heap.Pop(&h).(candidate)
		if paths.SamePath(c.file, queryFile, repoRoot) {
			continue
		}
		if exists != nil && !exists(c.file) {
			continue
		}
		results = append(results, WeightedFile{File: c.file, Weight: c.weight})
	}
	return results
}
