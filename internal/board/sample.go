package board

// Rand is the subset of a random source the samplers need.
// *frand.RNG and *rand.Rand both satisfy it.
type Rand interface {
	Intn(n int) int
}

// SampleFree draws up to n distinct free coordinates inside the box centred
// on centre with half-extents rx and ry. Sampling gives up after 4n attempts
// so a crowded region cannot stall the caller.
func (b *Board) SampleFree(rng Rand, centre Coordinate, rx, ry, n int) []Coordinate {
	if n <= 0 {
		return nil
	}
	if rx < 1 {
		rx = 1
	}
	if ry < 1 {
		ry = 1
	}

	samples := make([]Coordinate, 0, n)
	seen := make(map[Coordinate]bool, n)
	maxAttempts := n * 4
	for attempts := 0; len(samples) < n && attempts < maxAttempts; attempts++ {
		c := Coordinate{
			X: centre.X - rx + rng.Intn(2*rx+1),
			Y: centre.Y - ry + rng.Intn(2*ry+1),
		}
		if seen[c] || !b.IsFree(c) {
			continue
		}
		seen[c] = true
		samples = append(samples, c)
	}
	return samples
}

// SampleFreeAnywhere draws up to n free coordinates from the whole board
func (b *Board) SampleFreeAnywhere(rng Rand, n int) []Coordinate {
	centre := Coordinate{X: b.width / 2, Y: b.height / 2}
	return b.SampleFree(rng, centre, (b.width+1)/2, (b.height+1)/2, n)
}

// RandomFree returns a uniformly chosen free coordinate. It tries rejection
// sampling first and falls back to picking among all free cells, so it
// always terminates when one exists.
func (b *Board) RandomFree(rng Rand) (Coordinate, bool) {
	for attempts := 0; attempts < 32; attempts++ {
		c := Coordinate{X: rng.Intn(b.width), Y: rng.Intn(b.height)}
		if b.IsFree(c) {
			return c, true
		}
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	free := b.width*b.height - len(b.placed)
	if free <= 0 {
		return Coordinate{}, false
	}
	skip := rng.Intn(free)
	for i, v := range b.occupant {
		if v != "" {
			continue
		}
		if skip == 0 {
			return Coordinate{X: i % b.width, Y: i / b.width}, true
		}
		skip--
	}
	return Coordinate{}, false
}

// RandomUnplaced returns a uniformly chosen unplaced vertex
func (b *Board) RandomUnplaced(rng Rand) (VertexID, bool) {
	unplaced := b.Unplaced()
	if len(unplaced) == 0 {
		return "", false
	}
	return unplaced[rng.Intn(len(unplaced))], true
}

// BorderFree lists up to n free coordinates on the outer ring of the board,
// starting at a random offset along the ring
func (b *Board) BorderFree(rng Rand, n int) []Coordinate {
	ring := b.borderRing()
	if len(ring) == 0 || n <= 0 {
		return nil
	}
	out := make([]Coordinate, 0, n)
	start := rng.Intn(len(ring))
	for i := 0; i < len(ring) && len(out) < n; i++ {
		c := ring[(start+i)%len(ring)]
		if b.IsFree(c) {
			out = append(out, c)
		}
	}
	return out
}

func (b *Board) borderRing() []Coordinate {
	w, h := b.width, b.height
	if w == 1 || h == 1 {
		ring := make([]Coordinate, 0, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				ring = append(ring, Coordinate{X: x, Y: y})
			}
		}
		return ring
	}
	ring := make([]Coordinate, 0, 2*(w+h)-4)
	for x := 0; x < w; x++ {
		ring = append(ring, Coordinate{X: x, Y: 0})
	}
	for y := 1; y < h; y++ {
		ring = append(ring, Coordinate{X: w - 1, Y: y})
	}
	for x := w - 2; x >= 0; x-- {
		ring = append(ring, Coordinate{X: x, Y: h - 1})
	}
	for y := h - 2; y >= 1; y-- {
		ring = append(ring, Coordinate{X: 0, Y: y})
	}
	return ring
}
