package clustering

import (
	"errors"
	"math"
)

// ErrNoObservations is returned when there is nothing to cluster.
var ErrNoObservations = errors.New("clustering: no observations")

// Merge is one agglomeration step. Clusters 0..n-1 are the observations,
// the cluster created by step i has id n+i. Left is always the smaller id.
type Merge struct {
	Left     int     `json:"left"`
	Right    int     `json:"right"`
	Distance float64 `json:"distance"`
	Size     int     `json:"size"`
}

// WardLinkage agglomerates the vectors bottom-up with Ward's minimum
// variance criterion on Euclidean distances and returns the n-1 merges in
// order. Distances between a new cluster and the rest follow the
// Lance-Williams update. Ties merge the pair with the smallest ids first.
func WardLinkage(vectors [][]float64) ([]Merge, error) {
	n := len(vectors)
	if n == 0 {
		return nil, ErrNoObservations
	}
	for _, v := range vectors[1:] {
		if len(v) != len(vectors[0]) {
			return nil, errors.New("clustering: vectors differ in length")
		}
	}

	// dist is indexed by slot; slot i holds cluster ids[i] of sizes[i].
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := 0; j < i; j++ {
			d := euclidean(vectors[i], vectors[j])
			dist[i][j], dist[j][i] = d, d
		}
	}
	ids := make([]int, n)
	sizes := make([]int, n)
	active := make([]bool, n)
	for i := range ids {
		ids[i], sizes[i], active[i] = i, 1, true
	}

	merges := make([]Merge, 0, n-1)
	for step := 0; step < n-1; step++ {
		a, b := -1, -1
		best := math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !active[j] {
					continue
				}
				d := dist[i][j]
				if a < 0 || d < best || (d == best && lessPair(ids[i], ids[j], ids[a], ids[b])) {
					a, b, best = i, j, d
				}
			}
		}

		left, right := ids[a], ids[b]
		if left > right {
			left, right = right, left
		}
		na, nb := float64(sizes[a]), float64(sizes[b])
		merges = append(merges, Merge{Left: left, Right: right, Distance: best, Size: sizes[a] + sizes[b]})

		// The merged cluster takes slot a.
		for k := 0; k < n; k++ {
			if !active[k] || k == a || k == b {
				continue
			}
			nk := float64(sizes[k])
			dak, dbk := dist[a][k], dist[b][k]
			d2 := ((na+nk)*dak*dak + (nb+nk)*dbk*dbk - nk*best*best) / (na + nb + nk)
			d := math.Sqrt(math.Max(d2, 0))
			dist[a][k], dist[k][a] = d, d
		}
		ids[a] = n + step
		sizes[a] += sizes[b]
		active[b] = false
	}
	return merges, nil
}

// lessPair orders candidate pairs by their sorted cluster ids.
func lessPair(i, j, bi, bj int) bool {
	if i > j {
		i, j = j, i
	}
	if bi > bj {
		bi, bj = bj, bi
	}
	if i != bi {
		return i < bi
	}
	return j < bj
}
