package planner

import (
	"container/heap"

	"railcraft.ai/internal/sim/tracks"
)

type queueItem struct {
	node tracks.TileTrack
	cost float64
	seq  uint64
}

// queue is a min-heap on cost; equal costs pop in push order so searches are
// reproducible.
type queue []queueItem

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].seq < q[j].seq
}

func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *queue) Push(x any) { *q = append(*q, x.(queueItem)) }

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

// weightFunc returns the cost of occupying a node, or false when the node
// may not be used.
type weightFunc func(tracks.TileTrack) (float64, bool)

// successorFunc lists the nodes reachable from the exit of a node.
type successorFunc func(tracks.TileTrack) []tracks.TileTrack

// dijkstra runs from every start (each charged its own weight) until a
// target is popped. The returned path runs start to target inclusive.
func dijkstra(starts []tracks.TileTrack, targets map[tracks.TileTrack]struct{}, weight weightFunc, next successorFunc) ([]tracks.TileTrack, float64, bool) {
	best := map[tracks.TileTrack]float64{}
	parent := map[tracks.TileTrack]tracks.TileTrack{}
	done := map[tracks.TileTrack]bool{}

	q := &queue{}
	var seq uint64
	for _, s := range starts {
		w, ok := weight(s)
		if !ok {
			continue
		}
		if c, seen := best[s]; seen && c <= w {
			continue
		}
		best[s] = w
		heap.Push(q, queueItem{node: s, cost: w, seq: seq})
		seq++
	}

	for q.Len() > 0 {
		cur := heap.Pop(q).(queueItem)
		if done[cur.node] {
			continue
		}
		done[cur.node] = true
		if _, ok := targets[cur.node]; ok {
			return unwind(parent, cur.node), cur.cost, true
		}
		for _, n := range next(cur.node) {
			if done[n] {
				continue
			}
			w, ok := weight(n)
			if !ok {
				continue
			}
			c := cur.cost + w
			if b, seen := best[n]; seen && b <= c {
				continue
			}
			best[n] = c
			parent[n] = cur.node
			heap.Push(q, queueItem{node: n, cost: c, seq: seq})
			seq++
		}
	}
	return nil, 0, false
}

func unwind(parent map[tracks.TileTrack]tracks.TileTrack, end tracks.TileTrack) []tracks.TileTrack {
	path := []tracks.TileTrack{end}
	for {
		p, ok := parent[path[len(path)-1]]
		if !ok {
			break
		}
		path = append(path, p)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
