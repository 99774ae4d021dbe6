// Package graph builds the per-interview question dependency DAG. Edges
// point from a dependent question to its prerequisite and come from two
// sources: "memory" requirements (a question's presentation includes prior
// answers) and skip relevance (a question's reachability depends on another
// question's answer). The merged graph must be acyclic; a cycle is a fatal
// survey configuration error detected before any task is scheduled.
package graph

import (
	"fmt"
	"sort"

	"github.com/surveysim/interview-core/pkg/models"
)

// Graph is the merged dependency DAG over question names.
type Graph struct {
	survey  *models.Survey
	prereqs map[string]map[string]bool // question -> set of prerequisites
	order   map[string]int             // question -> survey index
}

// Build merges the survey's memory edges and skip-relevance edges into one
// DAG. Skip-relevance edges may reference questions later in survey order;
// the merged graph must still be acyclic or the survey is rejected.
func Build(survey *models.Survey) (*Graph, error) {
	g := &Graph{
		survey:  survey,
		prereqs: make(map[string]map[string]bool, len(survey.Questions)),
		order:   make(map[string]int, len(survey.Questions)),
	}

	for i, q := range survey.Questions {
		g.order[q.Name] = i
		g.prereqs[q.Name] = make(map[string]bool)
	}

	// Memory edges: dependent -> remembered question.
	for _, q := range survey.Questions {
		for _, m := range q.Memory {
			if _, ok := g.order[m]; !ok {
				return nil, fmt.Errorf("question %q remembers unknown question %q", q.Name, m)
			}
			if m == q.Name {
				return nil, fmt.Errorf("question %q remembers itself", q.Name)
			}
			g.prereqs[q.Name][m] = true
		}
	}

	// Skip-relevance edges: skipped target -> question its rule inspects.
	for target, refs := range models.RuleDependencies(survey) {
		if _, ok := g.order[target]; !ok {
			return nil, fmt.Errorf("skip rule targets unknown question %q", target)
		}
		for _, ref := range refs {
			if _, ok := g.order[ref]; !ok {
				return nil, fmt.Errorf("skip rule for %q references unknown question %q", target, ref)
			}
			if ref == target {
				continue
			}
			g.prereqs[target][ref] = true
		}
	}

	if err := g.validateAcyclic(); err != nil {
		return nil, fmt.Errorf("dependency graph contains cycles: %w", err)
	}
	return g, nil
}

// Prerequisites returns the prerequisite names of a question, ordered by
// survey index for determinism.
func (g *Graph) Prerequisites(name string) []string {
	set := g.prereqs[name]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return g.order[out[i]] < g.order[out[j]] })
	return out
}

// HasEdge reports whether prerequisite is required by dependent.
func (g *Graph) HasEdge(dependent, prerequisite string) bool {
	return g.prereqs[dependent][prerequisite]
}

// Len returns the number of questions in the graph.
func (g *Graph) Len() int {
	return len(g.prereqs)
}

// validateAcyclic runs a DFS over every question looking for back edges.
func (g *Graph) validateAcyclic() error {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	// Iterate in survey order so cycle reports are deterministic.
	for _, q := range g.survey.Questions {
		if !visited[q.Name] {
			if err := g.dfs(q.Name, visited, recStack); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Graph) dfs(name string, visited, recStack map[string]bool) error {
	visited[name] = true
	recStack[name] = true

	for _, prereq := range g.Prerequisites(name) {
		if !visited[prereq] {
			if err := g.dfs(prereq, visited, recStack); err != nil {
				return err
			}
		} else if recStack[prereq] {
			return fmt.Errorf("cycle detected: %s -> %s", name, prereq)
		}
	}

	recStack[name] = false
	return nil
}
