// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cluster

const labelPropMaxIters = 100

// labelPropagation detects communities on an undirected graph given as an
// adjacency list of node indices. Every node starts in its own community
// and repeatedly adopts the most frequent label among its neighbors until
// no label changes. Nodes are visited in index order and frequency ties
// adopt the smallest label, so the outcome is deterministic. Isolated
// nodes keep their own singleton community.
func labelPropagation(neighbors [][]int) []int {
	n := len(neighbors)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = i
	}

	for iter := 0; iter < labelPropMaxIters; iter++ {
		changed := false
		for i := 0; i < n; i++ {
			if len(neighbors[i]) == 0 {
				continue
			}

			freq := make(map[int]int)
			for _, j := range neighbors[i] {
				freq[labels[j]]++
			}

			best := labels[i]
			bestCount := 0
			for label, count := range freq {
				if count > bestCount || (count == bestCount && label < best) {
					best = label
					bestCount = count
				}
			}
			if best != labels[i] {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return labels
}
