// Package cycle tracks which in-flight keys wait on which, and finds the
// loops that would otherwise deadlock a build.
package cycle

import (
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
)

// EdgeKind records why one key waits on another.
type EdgeKind uint8

const (
	// EdgeScan is a wait on a recorded dependency while checking staleness.
	EdgeScan EdgeKind = iota
	// EdgeInput is a wait on an input requested for execution.
	EdgeInput
)

func (k EdgeKind) String() string {
	if k == EdgeScan {
		return "scan"
	}
	return "input"
}

// Edge is a single wait: From is blocked until To has a value.
type Edge struct {
	From domain.BuildKey
	To   domain.BuildKey
	Kind EdgeKind
}

// Graph is a wait-for graph keyed by key identity.
// It is not safe for concurrent use; the scheduler guards it with its own lock.
type Graph struct {
	out map[domain.BuildKey]map[domain.BuildKey]EdgeKind
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{out: make(map[domain.BuildKey]map[domain.BuildKey]EdgeKind)}
}

// AddEdge records that from waits on to. Adding an existing edge replaces its kind.
func (g *Graph) AddEdge(from, to domain.BuildKey, kind EdgeKind) {
	succ, ok := g.out[from]
	if !ok {
		succ = make(map[domain.BuildKey]EdgeKind)
		g.out[from] = succ
	}
	succ[to] = kind
}

// RemoveEdge drops the wait of from on to.
func (g *Graph) RemoveEdge(from, to domain.BuildKey) {
	succ, ok := g.out[from]
	if !ok {
		return
	}
	delete(succ, to)
	if len(succ) == 0 {
		delete(g.out, from)
	}
}

// HasEdge reports whether from waits on to.
func (g *Graph) HasEdge(from, to domain.BuildKey) bool {
	_, ok := g.out[from][to]
	return ok
}

// Len returns the number of edges.
func (g *Graph) Len() int {
	n := 0
	for _, succ := range g.out {
		n += len(succ)
	}
	return n
}

// FindPath returns the edges of a path of at least one edge from one key to
// another, or nil if to is unreachable. FindPath(k, k) finds a loop through k.
// Successors are visited in key order, so the result is deterministic.
func (g *Graph) FindPath(from, to domain.BuildKey) []Edge {
	visited := make(map[domain.BuildKey]bool)
	var path []Edge

	var visit func(k domain.BuildKey) bool
	visit = func(k domain.BuildKey) bool {
		if visited[k] {
			return false
		}
		visited[k] = true

		succ := g.out[k]
		next := make([]domain.BuildKey, 0, len(succ))
		for s := range succ {
			next = append(next, s)
		}
		slices.SortFunc(next, domain.Compare)

		for _, s := range next {
			path = append(path, Edge{From: k, To: s, Kind: succ[s]})
			if s == to || visit(s) {
				return true
			}
			path = path[:len(path)-1]
		}
		return false
	}

	if !visit(from) {
		return nil
	}
	return path
}

// Keys returns the keys along a closed path, with the first key repeated at the end.
func Keys(path []Edge) []domain.BuildKey {
	if len(path) == 0 {
		return nil
	}
	keys := make([]domain.BuildKey, 0, len(path)+1)
	for _, e := range path {
		keys = append(keys, e.From)
	}
	return append(keys, path[len(path)-1].To)
}

// Candidates lists the ways each edge of a cycle could be broken, in path order.
// A scan edge can be dropped by force-building its requester. An input edge
// can be dropped by supplying the prior value of its target, which requires a
// recorded value for it.
func Candidates(path []Edge, hasPrior func(domain.BuildKey) bool) []domain.CycleCandidate {
	var out []domain.CycleCandidate
	for _, e := range path {
		var c domain.CycleCandidate
		switch e.Kind {
		case EdgeScan:
			c = domain.CycleCandidate{Key: e.From, Action: domain.CycleActionForceBuild}
		case EdgeInput:
			if !hasPrior(e.To) {
				continue
			}
			c = domain.CycleCandidate{Key: e.To, Action: domain.CycleActionSupplyPriorValue}
		default:
			continue
		}
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

// EdgeFor returns the edge of path that a candidate breaks.
func EdgeFor(path []Edge, c domain.CycleCandidate) (Edge, bool) {
	for _, e := range path {
		switch {
		case c.Action == domain.CycleActionForceBuild && e.Kind == EdgeScan && e.From == c.Key:
			return e, true
		case c.Action == domain.CycleActionSupplyPriorValue && e.Kind == EdgeInput && e.To == c.Key:
			return e, true
		}
	}
	return Edge{}, false
}
