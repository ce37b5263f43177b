package strategy

import "fmt"

var registry = map[string]func() Strategy{
	"random-sample":           func() Strategy { return RandomSample{} },
	"dense-region":            func() Strategy { return DenseRegion{} },
	"point-reflection":        func() Strategy { return PointReflection{} },
	"border-reflection":       func() Strategy { return BorderReflection{} },
	"diagonal-crossing-angle": func() Strategy { return DiagonalCrossingAngle{} },
	"vertex-on-edge":          func() Strategy { return VertexOnEdge{} },
	"sparse-region":           func() Strategy { return SparseRegion{} },
	"neighbour-nearby":        func() Strategy { return NeighbourNearby{} },
	"border":                  func() Strategy { return Border{} },
	"grid-angle":              func() Strategy { return GridAngle{} },
}

// Lookup builds the strategy registered under name
func Lookup(name string) (Strategy, error) {
	build, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
	return build(), nil
}

// Build resolves a configured list of names in order
func Build(names []string) ([]Strategy, error) {
	out := make([]Strategy, 0, len(names))
	for _, name := range names {
		s, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
