// Package plan records the components a stack declares and what each one depends on.
package plan

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
)

type Component struct {
	Name string
	Kind string
}

type Plan struct {
	g graph.Graph[string, Component]
}

func componentName(c Component) string {
	return c.Name
}

func New() *Plan {
	return &Plan{
		g: graph.New(componentName, graph.Directed(), graph.Acyclic(), graph.PreventCycles()),
	}
}

// Add records a component declared after all of dependsOn. A failed Add leaves the plan
// unchanged.
func (p *Plan) Add(name, kind string, dependsOn ...string) error {
	if _, err := p.g.Vertex(name); err == nil {
		return fmt.Errorf("component %s declared twice", name)
	}
	for _, dep := range dependsOn {
		if dep == name {
			return fmt.Errorf("component %s depends on itself", name)
		}
		if _, err := p.g.Vertex(dep); errors.Is(err, graph.ErrVertexNotFound) {
			return fmt.Errorf("component %s depends on undeclared component %s", name, dep)
		}
	}

	err := p.g.AddVertex(Component{Name: name, Kind: kind},
		graph.VertexAttribute("label", fmt.Sprintf("%s\n(%s)", name, kind)),
		graph.VertexAttribute("shape", "box"))
	if err != nil {
		return fmt.Errorf("adding component %s: %w", name, err)
	}

	for _, dep := range dependsOn {
		err := p.g.AddEdge(dep, name)
		if err == nil || errors.Is(err, graph.ErrEdgeAlreadyExists) {
			continue
		}
		return fmt.Errorf("adding dependency %s -> %s: %w", dep, name, err)
	}

	return nil
}

func (p *Plan) Component(name string) (Component, bool) {
	c, err := p.g.Vertex(name)
	if err != nil {
		return Component{}, false
	}
	return c, true
}

// DependsOn returns the direct dependencies of name, sorted.
func (p *Plan) DependsOn(name string) ([]string, error) {
	predecessors, err := p.g.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("reading dependencies: %w", err)
	}
	edges, ok := predecessors[name]
	if !ok {
		return nil, fmt.Errorf("component %s not declared", name)
	}

	deps := make([]string, 0, len(edges))
	for dep := range edges {
		deps = append(deps, dep)
	}
	slices.Sort(deps)
	return deps, nil
}

// Order returns the components in dependency order, ties broken by name.
func (p *Plan) Order() ([]string, error) {
	order, err := graph.StableTopologicalSort(p.g, func(a, b string) bool {
		return strings.Compare(a, b) < 0
	})
	if err != nil {
		return nil, fmt.Errorf("sorting components: %w", err)
	}
	return order, nil
}

func (p *Plan) Len() int {
	n, err := p.g.Order()
	if err != nil {
		return 0
	}
	return n
}

// DOT writes the plan in Graphviz format.
func (p *Plan) DOT(w io.Writer) error {
	if err := draw.DOT(p.g, w); err != nil {
		return fmt.Errorf("rendering plan: %w", err)
	}
	return nil
}
