// Package fuzzy implements the subsequence-alignment scoring engine: a
// per-line character-class heat map and character→position index, a
// query-time scorer that finds the best ascending position alignment of a
// query inside a line, and a bounded top-N ranking over a SearchBase.
package fuzzy

import "container/heap"

// SearchBase is the immutable, query-time-shared collection of LineInfo
// built once from history. Queries run concurrently against it.
type SearchBase struct {
	lines []*LineInfo
}

// NewSearchBase collects lines into an immutable SearchBase.
func NewSearchBase(lines []*LineInfo) *SearchBase {
	return &SearchBase{lines: lines}
}

// Len reports how many lines the base holds, mostly for tests and metrics.
func (b *SearchBase) Len() int {
	if b == nil {
		return 0
	}
	return len(b.lines)
}

// positionLists returns, for each rune of query in order, the ascending
// sub-list of charMap positions admissible for that rune: the full list
// for the first rune, and for every later rune only the positions strictly
// greater than the smallest position admitted for the previous rune. A nil
// return means query is not a subsequence of the line.
func (li *LineInfo) positionLists(query string) [][]int {
	lists := make([][]int, 0, len(query))
	after := -1
	first := true

	for _, c := range query {
		all := li.charMap[c]
		if len(all) == 0 {
			return nil
		}

		var sub []int
		if first {
			sub = all
		} else {
			lo, hi := 0, len(all)
			for lo < hi {
				mid := (lo + hi) / 2
				if all[mid] <= after {
					lo = mid + 1
				} else {
					hi = mid
				}
			}
			sub = all[lo:]
		}

		if len(sub) == 0 {
			return nil
		}

		lists = append(lists, sub)
		after = sub[0]
		first = false
	}

	return lists
}

// permutePositions enumerates every strictly ascending position tuple
// (p_1, ..., p_m) with p_k drawn from the k-th list and p_k > p_{k-1}.
func permutePositions(lists [][]int) [][]int {
	if len(lists) == 0 {
		return nil
	}

	combos := make([][]int, 0, len(lists[0]))
	for _, p := range lists[0] {
		combos = append(combos, []int{p})
	}

	for k := 1; k < len(lists); k++ {
		next := make([][]int, 0, len(combos))
		for _, combo := range combos {
			last := combo[len(combo)-1]
			for _, p := range lists[k] {
				if p > last {
					grown := make([]int, len(combo)+1)
					copy(grown, combo)
					grown[len(combo)] = p
					next = append(next, grown)
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		combos = next
	}

	return combos
}

func (li *LineInfo) scorePosition(tuple []int) int {
	m := len(tuple)

	var avgDist int
	if m >= 2 {
		sum := 0
		for k := 1; k < m; k++ {
			sum += tuple[k] - tuple[k-1]
		}
		avgDist = sum / m
	}

	heatSum := 0
	for _, p := range tuple {
		heatSum += li.heatMap[p]
	}

	return avgDist*distWeight + heatSum*heatWeight
}

// score returns the best-subsequence-alignment score of query against li,
// and whether query matches at all.
func (li *LineInfo) score(query string) (int, bool) {
	lists := li.positionLists(query)
	if lists == nil {
		return 0, false
	}

	combos := permutePositions(lists)
	if combos == nil {
		return 0, false
	}

	best := combos[0]
	bestScore := li.scorePosition(best)
	for _, tuple := range combos[1:] {
		if s := li.scorePosition(tuple); s > bestScore {
			bestScore = s
		}
	}

	return bestScore, true
}

// lineMatch is the bounded top-N element. The heap is kept as a min-heap
// over (score, factor) so that its root is always the weakest keeper,
// letting Query replace it in O(log n) the moment a stronger match shows
// up.
type lineMatch struct {
	score  int
	factor float64
	line   *LineInfo
}

type matchHeap []lineMatch

func (h matchHeap) Len() int { return len(h) }

func (h matchHeap) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score < h[j].score
	}
	return h[i].factor < h[j].factor
}

func (h matchHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *matchHeap) Push(x any) { *h = append(*h, x.(lineMatch)) }

func (h *matchHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Query returns up to n lines best matching query, ordered by decreasing
// score and, on ties, decreasing factor. An empty query always returns no
// matches.
func (b *SearchBase) Query(query string, n int) []*LineInfo {
	if query == "" || b == nil || n <= 0 {
		return nil
	}

	h := make(matchHeap, 0, n)

	for _, li := range b.lines {
		score, ok := li.score(query)
		if !ok {
			continue
		}

		candidate := lineMatch{score: score, factor: li.Factor, line: li}

		if len(h) < n {
			heap.Push(&h, candidate)
		} else if candidate.score > h[0].score ||
			(candidate.score == h[0].score && candidate.factor > h[0].factor) {
			h[0] = candidate
			heap.Fix(&h, 0)
		}
	}

	// heap.Pop repeatedly yields the weakest remaining item first (it's a
	// min-heap on score/factor), so filling result back-to-front gives
	// strongest-first order.
	result := make([]*LineInfo, len(h))
	for i := len(h) - 1; i >= 0; i-- {
		result[i] = heap.Pop(&h).(lineMatch).line
	}

	return result
}
