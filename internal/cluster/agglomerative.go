// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cluster

import "math"

// averageLinkage runs agglomerative clustering with average linkage on a
// precomputed distance matrix until k clusters remain. At each step the
// pair of clusters with the smallest mean pairwise distance merges;
// distance ties merge the lexicographically smallest index pair, so the
// result is deterministic.
func averageLinkage(dist [][]float64, k int) []int {
	n := len(dist)
	labels := make([]int, n)
	members := make(map[int][]int, n)
	for i := 0; i < n; i++ {
		labels[i] = i
		members[i] = []int{i}
	}

	for len(members) > k {
		bestA, bestB := -1, -1
		bestDist := math.Inf(1)

		for a, ma := range members {
			for b, mb := range members {
				if a >= b {
					continue
				}
				d := meanDistance(dist, ma, mb)
				if d < bestDist || (d == bestDist && (a < bestA || (a == bestA && b < bestB))) {
					bestA, bestB = a, b
					bestDist = d
				}
			}
		}

		members[bestA] = append(members[bestA], members[bestB]...)
		for _, i := range members[bestB] {
			labels[i] = bestA
		}
		delete(members, bestB)
	}
	return labels
}

func meanDistance(dist [][]float64, a, b []int) float64 {
	var sum float64
	for _, i := range a {
		for _, j := range b {
			sum += dist[i][j]
		}
	}
	return sum / float64(len(a)*len(b))
}
