package board

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

// GraphFile is the on-disk JSON form of a graph definition
type GraphFile struct {
	Vertices []VertexID `json:"vertices"`
	Edges    []Edge     `json:"edges"`
}

// ToGraph validates the file contents
func (f GraphFile) ToGraph() (*Graph, error) {
	return NewGraph(f.Vertices, f.Edges)
}

// FileOf converts a graph back into its serializable form
func FileOf(g *Graph) GraphFile {
	return GraphFile{Vertices: g.Vertices(), Edges: g.Edges()}
}

// SaveGraph serializes and saves the graph to a JSON file
func SaveGraph(g *Graph, filename string) error {
	data, err := json.MarshalIndent(FileOf(g), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	log.Info().Str("file", filename).Int("bytes", len(data)).Msg("graph saved")
	return nil
}

// LoadGraph deserializes and validates a graph from a JSON file
func LoadGraph(filename string) (*Graph, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var f GraphFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}

	g, err := f.ToGraph()
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", filename).Int("vertices", g.N()).Int("edges", g.M()).Msg("graph loaded")
	return g, nil
}

// RandomGraph builds a graph with n vertices and up to m distinct random
// edges. A spanning path is laid first so the graph is connected.
func RandomGraph(rng Rand, n, m int) *Graph {
	vertices := make([]VertexID, n)
	for i := range vertices {
		vertices[i] = VertexID(fmt.Sprintf("v%d", i))
	}

	seen := make(map[Edge]bool, m)
	edges := make([]Edge, 0, m)
	add := func(a, b int) {
		if a == b {
			return
		}
		e := NewEdge(vertices[a], vertices[b])
		if seen[e] {
			return
		}
		seen[e] = true
		edges = append(edges, e)
	}

	for i := 1; i < n && len(edges) < m; i++ {
		add(i-1, i)
	}

	maxEdges := n * (n - 1) / 2
	if m > maxEdges {
		m = maxEdges
	}
	maxAttempts := m * 10
	for attempts := 0; len(edges) < m && attempts < maxAttempts; attempts++ {
		add(rng.Intn(n), rng.Intn(n))
	}

	g, err := NewGraph(vertices, edges)
	if err != nil {
		// generated ids and edges are valid by construction
		panic(err)
	}
	return g
}
