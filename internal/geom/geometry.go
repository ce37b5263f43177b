package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// Point is an integer grid coordinate
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Orb converts the grid point to a planar orb point
func (p Point) Orb() orb.Point {
	return orb.Point{float64(p.X), float64(p.Y)}
}

// Segment represents the straight-line drawing of one edge
type Segment struct {
	P1, P2 Point
}

// Bound returns the axis-aligned bounding box of the segment
func (s Segment) Bound() orb.Bound {
	return orb.Bound{Min: s.P1.Orb(), Max: s.P1.Orb()}.Extend(s.P2.Orb())
}

// SharesEndpoint reports whether both segments meet in an endpoint
func (s Segment) SharesEndpoint(o Segment) bool {
	return s.P1 == o.P1 || s.P1 == o.P2 || s.P2 == o.P1 || s.P2 == o.P2
}

// Degenerate reports whether the segment collapses to a single point
func (s Segment) Degenerate() bool {
	return s.P1 == s.P2
}

// ProperlyCross checks if the open interiors of two segments meet in exactly
// one point. Segments sharing an endpoint, touching segments and collinear
// overlaps never cross.
func ProperlyCross(seg1, seg2 Segment) bool {
	if seg1.Degenerate() || seg2.Degenerate() || seg1.SharesEndpoint(seg2) {
		return false
	}

	p1, p2 := seg1.P1, seg1.P2
	p3, p4 := seg2.P1, seg2.P2

	d1 := direction(p3, p4, p1)
	d2 := direction(p3, p4, p2)
	d3 := direction(p1, p2, p3)
	d4 := direction(p1, p2, p4)

	// A zero orientation means an endpoint lies on the other line: either a
	// touch or a collinear overlap, neither of which is a proper crossing.
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

// direction calculates the cross product to determine orientation.
// Integer arithmetic keeps the predicate exact.
func direction(p1, p2, p3 Point) int64 {
	return int64(p3.X-p1.X)*int64(p2.Y-p1.Y) - int64(p2.X-p1.X)*int64(p3.Y-p1.Y)
}

// IntersectsBound checks if a segment touches or passes through a box
func IntersectsBound(seg Segment, b orb.Bound) bool {
	if !seg.Bound().Intersects(b) {
		return false
	}
	if b.Contains(seg.P1.Orb()) || b.Contains(seg.P2.Orb()) {
		return true
	}

	// Both endpoints are outside: the segment meets the box iff the box
	// corners do not all lie strictly on one side of the segment's line.
	corners := [4]orb.Point{
		b.Min,
		{b.Max[0], b.Min[1]},
		b.Max,
		{b.Min[0], b.Max[1]},
	}
	ax, ay := float64(seg.P1.X), float64(seg.P1.Y)
	dx, dy := float64(seg.P2.X)-ax, float64(seg.P2.Y)-ay
	pos, neg := false, false
	for _, c := range corners {
		cross := dx*(c[1]-ay) - dy*(c[0]-ax)
		if cross >= 0 {
			pos = true
		}
		if cross <= 0 {
			neg = true
		}
	}
	return pos && neg
}

// SquaredCosine computes the exact squared cosine of the angle between the
// direction vectors of two segments
func SquaredCosine(seg1, seg2 Segment) float64 {
	dot, n1, n2 := angleTerms(seg1, seg2)
	if n1 == 0 || n2 == 0 {
		return 0
	}
	return math.Min(1, dot*dot/(n1*n2))
}

// FastSquaredCosine approximates SquaredCosine with a fast inverse square
// root. The relative error stays below 0.36%.
func FastSquaredCosine(seg1, seg2 Segment) float64 {
	dot, n1, n2 := angleTerms(seg1, seg2)
	if n1 == 0 || n2 == 0 {
		return 0
	}
	r := float64(QRsqrt(float32(n1 * n2)))
	return math.Min(1, dot*dot*r*r)
}

func angleTerms(seg1, seg2 Segment) (dot, n1, n2 float64) {
	ax := float64(seg1.P2.X - seg1.P1.X)
	ay := float64(seg1.P2.Y - seg1.P1.Y)
	bx := float64(seg2.P2.X - seg2.P1.X)
	by := float64(seg2.P2.Y - seg2.P1.Y)
	return ax*bx + ay*by, ax*ax + ay*ay, bx*bx + by*by
}

// QRsqrt is the bit-level inverse square root estimate refined by one
// Newton iteration
func QRsqrt(number float32) float32 {
	xhalf := 0.5 * number
	i := math.Float32bits(number)
	i = 0x5f3759df - (i >> 1)
	y := math.Float32frombits(i)
	return y * (1.5 - xhalf*y*y)
}
