package board

import (
	"errors"
	"fmt"
)

// ErrInvalidGraph is returned when a graph definition cannot be played
var ErrInvalidGraph = errors.New("invalid graph")

// VertexID identifies a vertex for the whole game
type VertexID string

// Edge is an unordered pair of vertices, stored with S < T
type Edge struct {
	S VertexID `json:"s"`
	T VertexID `json:"t"`
}

// NewEdge normalizes the endpoint order so equal edges compare equal
func NewEdge(a, b VertexID) Edge {
	if b < a {
		a, b = b, a
	}
	return Edge{S: a, T: b}
}

// Adjacent reports whether two distinct edges share an endpoint
func (e Edge) Adjacent(o Edge) bool {
	return e.S == o.S || e.S == o.T || e.T == o.S || e.T == o.T
}

// Has reports whether v is an endpoint of e
func (e Edge) Has(v VertexID) bool {
	return e.S == v || e.T == v
}

// Other returns the endpoint of e that is not v
func (e Edge) Other(v VertexID) VertexID {
	if e.S == v {
		return e.T
	}
	return e.S
}

func (e Edge) String() string {
	return fmt.Sprintf("%s-%s", e.S, e.T)
}

// Graph is the immutable vertex/edge structure played in every round
type Graph struct {
	vertices []VertexID
	edges    []Edge
	incident map[VertexID][]Edge
}

// NewGraph validates the definition and builds the incidence lists
func NewGraph(vertices []VertexID, edges []Edge) (*Graph, error) {
	g := &Graph{
		vertices: make([]VertexID, 0, len(vertices)),
		edges:    make([]Edge, 0, len(edges)),
		incident: make(map[VertexID][]Edge, len(vertices)),
	}

	for _, v := range vertices {
		if v == "" {
			return nil, fmt.Errorf("%w: empty vertex id", ErrInvalidGraph)
		}
		if _, exists := g.incident[v]; exists {
			return nil, fmt.Errorf("%w: duplicate vertex %s", ErrInvalidGraph, v)
		}
		g.incident[v] = nil
		g.vertices = append(g.vertices, v)
	}

	seen := make(map[Edge]bool, len(edges))
	for _, raw := range edges {
		e := NewEdge(raw.S, raw.T)
		if e.S == e.T {
			return nil, fmt.Errorf("%w: self-loop at %s", ErrInvalidGraph, e.S)
		}
		_, okS := g.incident[e.S]
		_, okT := g.incident[e.T]
		if !okS || !okT {
			return nil, fmt.Errorf("%w: edge %s references unknown vertex", ErrInvalidGraph, e)
		}
		if seen[e] {
			return nil, fmt.Errorf("%w: duplicate edge %s", ErrInvalidGraph, e)
		}
		seen[e] = true
		g.edges = append(g.edges, e)
		g.incident[e.S] = append(g.incident[e.S], e)
		g.incident[e.T] = append(g.incident[e.T], e)
	}

	return g, nil
}

// Vertices returns the vertices in definition order
func (g *Graph) Vertices() []VertexID {
	return g.vertices
}

// Edges returns the edges in definition order
func (g *Graph) Edges() []Edge {
	return g.edges
}

// Incident returns the edges touching v
func (g *Graph) Incident(v VertexID) []Edge {
	return g.incident[v]
}

// HasVertex reports whether v belongs to the graph
func (g *Graph) HasVertex(v VertexID) bool {
	_, ok := g.incident[v]
	return ok
}

func (g *Graph) N() int { return len(g.vertices) }

func (g *Graph) M() int { return len(g.edges) }
