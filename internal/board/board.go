package board

import (
	"errors"
	"fmt"
	"sync"

	"graphxings/internal/geom"
)

// ErrIllegalMove is returned for moves that are not placeable. The side
// that requested it has forfeited.
var ErrIllegalMove = errors.New("illegal move")

// Coordinate is a grid position, 0 <= X < width, 0 <= Y < height
type Coordinate = geom.Point

// Move places one vertex; it marshals as {"vertex", "x", "y"}
type Move struct {
	Vertex VertexID `json:"vertex"`
	Coordinate
}

// Board tracks which vertices are placed and which coordinates are used.
// Reads are safe from many goroutines; Apply must be called by one owner.
type Board struct {
	mu       sync.RWMutex
	graph    *Graph
	width    int
	height   int
	occupant []VertexID // row-major, "" when free
	placed   map[VertexID]Coordinate
}

// New creates an empty board for one round
func New(graph *Graph, width, height int) (*Board, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("board dimensions must be positive, got %dx%d", width, height)
	}
	if graph.N() > width*height {
		return nil, fmt.Errorf("%d vertices do not fit on a %dx%d board", graph.N(), width, height)
	}
	return &Board{
		graph:    graph,
		width:    width,
		height:   height,
		occupant: make([]VertexID, width*height),
		placed:   make(map[VertexID]Coordinate, graph.N()),
	}, nil
}

func (b *Board) Graph() *Graph { return b.graph }
func (b *Board) Width() int    { return b.width }
func (b *Board) Height() int   { return b.height }

// InBounds checks the grid limits
func (b *Board) InBounds(c Coordinate) bool {
	return c.X >= 0 && c.X < b.width && c.Y >= 0 && c.Y < b.height
}

// IsFree reports whether c is on the board and unoccupied
func (b *Board) IsFree(c Coordinate) bool {
	if !b.InBounds(c) {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.occupant[c.Y*b.width+c.X] == ""
}

// Placeable reports whether v is unplaced and c is in bounds and unoccupied
func (b *Board) Placeable(v VertexID, c Coordinate) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.placeableLocked(v, c)
}

func (b *Board) placeableLocked(v VertexID, c Coordinate) bool {
	if !b.graph.HasVertex(v) || !b.InBounds(c) {
		return false
	}
	if _, done := b.placed[v]; done {
		return false
	}
	return b.occupant[c.Y*b.width+c.X] == ""
}

// Apply places the vertex of m. Non-placeable moves are rejected with
// ErrIllegalMove and leave the board untouched.
func (b *Board) Apply(m Move) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.placeableLocked(m.Vertex, m.Coordinate) {
		return fmt.Errorf("%w: %s at (%d, %d)", ErrIllegalMove, m.Vertex, m.X, m.Y)
	}
	b.occupant[m.Y*b.width+m.X] = m.Vertex
	b.placed[m.Vertex] = m.Coordinate
	return nil
}

// CoordinateOf returns the position of a placed vertex
func (b *Board) CoordinateOf(v VertexID) (Coordinate, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.placed[v]
	return c, ok
}

// VertexAt returns the vertex occupying c
func (b *Board) VertexAt(c Coordinate) (VertexID, bool) {
	if !b.InBounds(c) {
		return "", false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	v := b.occupant[c.Y*b.width+c.X]
	return v, v != ""
}

// IsPlaced reports whether v already has a coordinate
func (b *Board) IsPlaced(v VertexID) bool {
	_, ok := b.CoordinateOf(v)
	return ok
}

// PlacedCount returns the number of placed vertices
func (b *Board) PlacedCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.placed)
}

// FreeCount returns the number of unoccupied coordinates
func (b *Board) FreeCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.width*b.height - len(b.placed)
}

// Unplaced lists the unplaced vertices in graph order
func (b *Board) Unplaced() []VertexID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]VertexID, 0, b.graph.N()-len(b.placed))
	for _, v := range b.graph.Vertices() {
		if _, ok := b.placed[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}

// Complete reports whether every vertex is placed
func (b *Board) Complete() bool {
	return b.PlacedCount() == b.graph.N()
}

// Placements returns a copy of the vertex to coordinate mapping
func (b *Board) Placements() map[VertexID]Coordinate {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[VertexID]Coordinate, len(b.placed))
	for v, c := range b.placed {
		out[v] = c
	}
	return out
}

// SegmentOf returns the drawn segment of e when both endpoints are placed
func (b *Board) SegmentOf(e Edge) (geom.Segment, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, okS := b.placed[e.S]
	t, okT := b.placed[e.T]
	if !okS || !okT {
		return geom.Segment{}, false
	}
	return geom.Segment{P1: s, P2: t}, true
}
