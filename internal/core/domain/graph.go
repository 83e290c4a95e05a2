// Package domain contains the core build model: keys, values, records, the
// manifest and its static command graph.
package domain

import (
	"iter"
	"slices"

	"go.trai.ch/zerr"
)

// Graph is the static dependency graph of manifest commands.
// Edges only cover dependencies declared in the manifest; dependencies
// requested or discovered while a build runs are not part of it.
type Graph struct {
	commands       map[Name]*CommandDecl
	deps           map[Name][]Name
	executionOrder []Name
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		commands: make(map[Name]*CommandDecl),
		deps:     make(map[Name][]Name),
	}
}

// AddCommand adds a command and the commands it depends on.
// It returns an error if a command with the same name already exists.
func (g *Graph) AddCommand(cmd *CommandDecl, deps []Name) error {
	if _, exists := g.commands[cmd.Name]; exists {
		return zerr.With(ErrInvalidManifest, "command", cmd.Name.String())
	}
	g.commands[cmd.Name] = cmd
	g.deps[cmd.Name] = deps
	return nil
}

// Validate checks for cycles using a depth-first topological sort and
// populates the execution order. Commands are visited in name order so the
// order is deterministic.
func (g *Graph) Validate() error {
	g.executionOrder = make([]Name, 0, len(g.commands))
	visited := make(map[Name]int) // 0: unvisited, 1: visiting, 2: visited
	var path []Name

	var visit func(u Name) error
	visit = func(u Name) error {
		visited[u] = 1
		path = append(path, u)

		if _, exists := g.commands[u]; !exists {
			return zerr.With(ErrUnknownCommand, "command", u.String())
		}

		for _, dep := range g.deps[u] {
			if visited[dep] == 1 {
				return g.buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		g.executionOrder = append(g.executionOrder, u)
		return nil
	}

	for _, name := range g.sortedNames() {
		if visited[name] == 0 {
			if err := visit(name); err != nil {
				return err
			}
		}
	}

	return nil
}

// buildCycleError constructs an error with cycle path metadata.
func (g *Graph) buildCycleError(path []Name, dep Name) error {
	cyclePath := ""
	startIdx := slices.Index(path, dep)
	for i := startIdx; i < len(path); i++ {
		cyclePath += CommandKey(path[i].String()).String() + " -> "
	}
	cyclePath += CommandKey(dep.String()).String()
	return zerr.With(ErrCycleDetected, "cycle", cyclePath)
}

// Walk returns an iterator that yields commands in execution order.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Walk() iter.Seq[*CommandDecl] {
	return func(yield func(*CommandDecl) bool) {
		for _, name := range g.executionOrder {
			if !yield(g.commands[name]) {
				return
			}
		}
	}
}

// WalkFrom yields, in execution order, the commands reachable from roots.
func (g *Graph) WalkFrom(roots []Name) iter.Seq[*CommandDecl] {
	reachable := make(map[Name]bool)
	var mark func(Name)
	mark = func(u Name) {
		if reachable[u] {
			return
		}
		reachable[u] = true
		for _, dep := range g.deps[u] {
			mark(dep)
		}
	}
	for _, r := range roots {
		mark(r)
	}

	return func(yield func(*CommandDecl) bool) {
		for _, name := range g.executionOrder {
			if !reachable[name] {
				continue
			}
			if !yield(g.commands[name]) {
				return
			}
		}
	}
}

// Dependencies returns the names of the commands that name depends on.
func (g *Graph) Dependencies(name Name) []Name {
	return g.deps[name]
}

func (g *Graph) sortedNames() []Name {
	names := make([]Name, 0, len(g.commands))
	for name := range g.commands {
		names = append(names, name)
	}
	slices.SortFunc(names, Name.Compare)
	return names
}
