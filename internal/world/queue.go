package world

import (
	"math"
	"sort"
)

// genQueue holds chunks waiting for generation. Membership is tracked in a
// set so duplicate pushes are no-ops.
type genQueue struct {
	items   []ChunkCoord
	pending map[ChunkCoord]struct{}
}

func newGenQueue() *genQueue {
	return &genQueue{pending: make(map[ChunkCoord]struct{})}
}

// Push enqueues coord and reports whether it was added.
func (q *genQueue) Push(coord ChunkCoord) bool {
	if _, ok := q.pending[coord]; ok {
		return false
	}
	q.pending[coord] = struct{}{}
	q.items = append(q.items, coord)
	return true
}

// Remove drops coord and reports whether it was queued.
func (q *genQueue) Remove(coord ChunkCoord) bool {
	if _, ok := q.pending[coord]; !ok {
		return false
	}
	delete(q.pending, coord)
	for i, c := range q.items {
		if c == coord {
			q.items = append(q.items[:i], q.items[i+1:]...)
			break
		}
	}
	return true
}

func (q *genQueue) Has(coord ChunkCoord) bool {
	_, ok := q.pending[coord]
	return ok
}

func (q *genQueue) Len() int { return len(q.items) }

// PopNearest sorts the queue by Euclidean distance to center and removes up
// to n of the nearest entries. Equal distances are ordered by Z then X.
func (q *genQueue) PopNearest(center ChunkCoord, n int) []ChunkCoord {
	if n <= 0 || len(q.items) == 0 {
		return nil
	}
	sort.SliceStable(q.items, func(i, j int) bool {
		a, b := q.items[i], q.items[j]
		da, db := chunkDistance(a, center), chunkDistance(b, center)
		if da != db {
			return da < db
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return a.X < b.X
	})
	n = min(n, len(q.items))
	out := make([]ChunkCoord, n)
	copy(out, q.items[:n])
	q.items = append(q.items[:0], q.items[n:]...)
	for _, c := range out {
		delete(q.pending, c)
	}
	return out
}

func chunkDistance(a, b ChunkCoord) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Z-b.Z))
}
