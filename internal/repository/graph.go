// SPDX-License-Identifier: MPL-2.0

package repository

import (
	"context"

	"github.com/invowk/modcat/internal/dag"
)

type (
	// MissingRequirement is a requires alias no stored module answers to.
	MissingRequirement struct {
		Module string
		Alias  string
	}

	// RequirementGraph is the transitive closure of a module's requirements.
	RequirementGraph struct {
		// Root is the module the graph was resolved for.
		Root string
		// Order lists every reachable module, requirements first. Root is last
		// unless it has no requirements at all.
		Order []string
		// Missing lists unresolved aliases in discovery order.
		Missing []MissingRequirement
	}
)

// ResolveRequirementGraph follows requires aliases transitively from name and
// orders the reachable modules requirements-first. Unresolved aliases are
// reported in Missing rather than failing. A loop, including a module
// requiring its own alias, returns a *dag.CycleError.
func (r *Repository) ResolveRequirementGraph(ctx context.Context, name string) (*RequirementGraph, error) {
	root, err := r.FindOrFail(ctx, name)
	if err != nil {
		return nil, err
	}

	graph := &RequirementGraph{Root: root.Name()}
	g := dag.New()
	g.AddNode(root.Name())

	queue := []string{root.Name()}
	visited := map[string]bool{root.Name(): true}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		m, err := r.FindOrFail(ctx, current)
		if err != nil {
			return nil, err
		}
		aliases, err := m.Requires()
		if err != nil {
			return nil, err
		}

		for _, alias := range aliases {
			req, err := r.FindByAlias(ctx, alias)
			if err != nil {
				return nil, err
			}
			if req == nil {
				graph.Missing = append(graph.Missing, MissingRequirement{Module: current, Alias: alias})
				continue
			}
			g.AddEdge(req.Name(), current)
			if !visited[req.Name()] {
				visited[req.Name()] = true
				queue = append(queue, req.Name())
			}
		}
	}

	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	graph.Order = order
	return graph, nil
}
