// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cluster

import (
	"math"
	"math/rand"
)

const (
	kMeansRuns     = 10
	kMeansMaxIters = 100
)

// kMeans partitions vectors into k groups. Runs Lloyd's algorithm
// kMeansRuns times with k-means++ seeding from a seeded PRNG and keeps
// the run with the lowest inertia, so results are reproducible for a
// fixed seed.
func kMeans(vecs [][]float64, k int, seed int64) []int {
	n := len(vecs)
	if k >= n {
		labels := make([]int, n)
		for i := range labels {
			labels[i] = i
		}
		return labels
	}

	rng := rand.New(rand.NewSource(seed))

	bestLabels := make([]int, n)
	bestInertia := math.Inf(1)
	for run := 0; run < kMeansRuns; run++ {
		labels, inertia := kMeansOnce(vecs, k, rng)
		if inertia < bestInertia {
			bestInertia = inertia
			copy(bestLabels, labels)
		}
	}
	return bestLabels
}

func kMeansOnce(vecs [][]float64, k int, rng *rand.Rand) ([]int, float64) {
	n := len(vecs)
	dim := len(vecs[0])

	centroids := seedCentroids(vecs, k, rng)
	labels := make([]int, n)

	for iter := 0; iter < kMeansMaxIters; iter++ {
		changed := false
		for i, v := range vecs {
			best := 0
			bestDist := sqDist(v, centroids[0])
			for c := 1; c < k; c++ {
				if d := sqDist(v, centroids[c]); d < bestDist {
					best = c
					bestDist = d
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		counts := make([]int, k)
		for c := range centroids {
			centroids[c] = make([]float64, dim)
		}
		for i, v := range vecs {
			c := labels[i]
			counts[c]++
			for d, x := range v {
				centroids[c][d] += x
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				// Reseat an empty centroid on a random point.
				copy(centroids[c], vecs[rng.Intn(n)])
				continue
			}
			for d := range centroids[c] {
				centroids[c][d] /= float64(counts[c])
			}
		}
	}

	var inertia float64
	for i, v := range vecs {
		inertia += sqDist(v, centroids[labels[i]])
	}
	return labels, inertia
}

// seedCentroids implements k-means++ initialization: each next centroid
// is drawn with probability proportional to its squared distance from
// the nearest already-chosen centroid.
func seedCentroids(vecs [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(vecs)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64(nil), vecs[rng.Intn(n)]...))

	dists := make([]float64, n)
	for len(centroids) < k {
		var total float64
		for i, v := range vecs {
			d := sqDist(v, centroids[0])
			for _, c := range centroids[1:] {
				if d2 := sqDist(v, c); d2 < d {
					d = d2
				}
			}
			dists[i] = d
			total += d
		}

		var next int
		if total == 0 {
			next = rng.Intn(n)
		} else {
			target := rng.Float64() * total
			for i, d := range dists {
				target -= d
				if target <= 0 {
					next = i
					break
				}
			}
		}
		centroids = append(centroids, append([]float64(nil), vecs[next]...))
	}
	return centroids
}

func sqDist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
