// SPDX-License-Identifier: MPL-2.0

// Package dag orders module requirement graphs. Nodes are module names; an
// edge from A to B means A is required by B, so A boots first.
package dag

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrCycle is the sentinel wrapped by CycleError.
var ErrCycle = errors.New("requirement cycle")

type (
	// CycleError reports modules whose requirements loop back on themselves.
	CycleError struct {
		// Cycle is one loop in boot direction: each module is required by
		// the next. It starts at the earliest added module of the loop and
		// repeats it at the end, so a self requirement reads "a -> a".
		Cycle []string
	}

	// Graph is a directed graph of module names.
	Graph struct {
		adjacency map[string][]string
		// nodes keeps insertion order for deterministic output.
		nodes   []string
		nodeSet map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("requirement cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// Unwrap returns ErrCycle.
func (e *CycleError) Unwrap() error {
	return ErrCycle
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		nodeSet:   make(map[string]bool),
	}
}

// AddNode adds a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge records that from is required by to. Both nodes are added if missing.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.adjacency[from] = append(g.adjacency[from], to)
}

// HasNode reports whether name was added.
func (g *Graph) HasNode(name string) bool {
	return g.nodeSet[name]
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []string {
	return slices.Clone(g.nodes)
}

// TopologicalSort returns the nodes requirements-first using Kahn's algorithm,
// or a CycleError. Nodes at the same depth keep their insertion order.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[string]int, len(g.nodes))
	for _, node := range g.nodes {
		inDegree[node] = 0
	}
	for _, neighbors := range g.adjacency {
		for _, neighbor := range neighbors {
			inDegree[neighbor]++
		}
	}

	queue := make([]string, 0, len(g.nodes))
	for _, node := range g.nodes {
		if inDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range g.adjacency[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	if len(result) != len(g.nodes) {
		return nil, &CycleError{Cycle: g.findCycle(inDegree)}
	}

	return result, nil
}

// findCycle extracts one loop from the nodes Kahn's algorithm left with a
// positive in-degree. Every such node has at least one unordered requirement,
// so walking requirements backwards from any of them must revisit a node.
// Modules merely downstream of the loop are not reported.
func (g *Graph) findCycle(inDegree map[string]int) []string {
	requiredBy := make(map[string][]string)
	var start string
	for _, from := range g.nodes {
		if inDegree[from] == 0 {
			continue
		}
		if start == "" {
			start = from
		}
		for _, to := range g.adjacency[from] {
			if inDegree[to] > 0 {
				requiredBy[to] = append(requiredBy[to], from)
			}
		}
	}

	seen := make(map[string]int)
	var walk []string
	node := start
	for {
		if i, ok := seen[node]; ok {
			walk = walk[i:]
			break
		}
		seen[node] = len(walk)
		walk = append(walk, node)
		node = requiredBy[node][0]
	}
	slices.Reverse(walk)

	first := 0
	for i, n := range walk {
		if g.position(n) < g.position(walk[first]) {
			first = i
		}
	}
	loop := append(slices.Clone(walk[first:]), walk[:first]...)
	return append(loop, loop[0])
}

func (g *Graph) position(name string) int {
	return slices.Index(g.nodes, name)
}
