// Package repel places text labels near their anchor points without
// overlapping each other or the anchors.
//
// The layout is a small force simulation: overlapping labels push apart,
// labels covering an anchor are pushed off it, and every label is pulled
// back toward its own anchor. Starting positions are jittered with a seeded
// generator, so the same labels and seed always produce the same layout.
package repel

import (
	"math"
	"math/rand/v2"
)

// Point is a position in canvas units.
type Point struct {
	X, Y float64
}

// Label is a box of the given size that wants to sit next to Anchor.
type Label struct {
	Anchor        Point
	Width, Height float64
}

// Box is an axis-aligned rectangle.
type Box struct {
	MinX, MinY, MaxX, MaxY float64
}

// Options tunes the simulation.
type Options struct {
	// Seed selects the starting jitter. Default: 1.
	Seed uint64
	// Iterations caps the number of simulation steps. Default: 300.
	Iterations int
	// Padding is kept free around each label box. Default: 2.
	Padding float64
	// PointRadius is the size of the anchor marks labels avoid. Default: 3.
	PointRadius float64
	// Push scales overlap repulsion. Default: 0.5.
	Push float64
	// Pull scales the spring toward the anchor. Default: 0.05.
	Pull float64
	// Bounds keeps label boxes inside the area when non-zero.
	Bounds Box
}

var defaultOpts = Options{
	Seed:        1,
	Iterations:  300,
	Padding:     2,
	PointRadius: 3,
	Push:        0.5,
	Pull:        0.05,
}

func (o *Options) setDefaults() {
	if o.Seed == 0 {
		o.Seed = defaultOpts.Seed
	}
	if o.Iterations <= 0 {
		o.Iterations = defaultOpts.Iterations
	}
	if o.Padding <= 0 {
		o.Padding = defaultOpts.Padding
	}
	if o.PointRadius <= 0 {
		o.PointRadius = defaultOpts.PointRadius
	}
	if o.Push <= 0 {
		o.Push = defaultOpts.Push
	}
	if o.Pull <= 0 {
		o.Pull = defaultOpts.Pull
	}
}

// Layout returns the center of each label. Output order matches input.
func Layout(labels []Label, opts Options) []Point {
	opts.setDefaults()
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0xdeadbeef))

	pos := make([]Point, len(labels))
	for i, l := range labels {
		// Start above-right of the anchor, clear of the mark.
		pos[i] = Point{
			X: l.Anchor.X + l.Width/2 + opts.PointRadius + (rng.Float64()-0.5)*l.Height,
			Y: l.Anchor.Y + l.Height/2 + opts.PointRadius + (rng.Float64()-0.5)*l.Height,
		}
	}
	clampAll(pos, labels, opts.Bounds)

	delta := make([]Point, len(labels))
	for range opts.Iterations {
		if !step(pos, delta, labels, opts, opts.Push, true) {
			break
		}
	}
	// Settle: push only, at full strength, until nothing overlaps.
	for range opts.Iterations {
		if !step(pos, delta, labels, opts, 1, false) {
			break
		}
	}
	return pos
}

// step advances the simulation once and reports whether any padded label
// box overlapped another label or an anchor.
func step(pos, delta []Point, labels []Label, opts Options, push float64, pull bool) bool {
	const nudge = 0.01
	clear(delta)
	overlapped := make([]bool, len(labels))

	for i := range labels {
		bi := box(pos[i], labels[i], opts.Padding)
		for j := i + 1; j < len(labels); j++ {
			bj := box(pos[j], labels[j], opts.Padding)
			dx, dy, ok := overlap(bi, bj)
			if !ok {
				continue
			}
			overlapped[i], overlapped[j] = true, true
			// Separate along the axis of least overlap.
			if dx < dy {
				s := sign(pos[i].X-pos[j].X, i, j) * (dx*push/2 + nudge)
				delta[i].X += s
				delta[j].X -= s
			} else {
				s := sign(pos[i].Y-pos[j].Y, i, j) * (dy*push/2 + nudge)
				delta[i].Y += s
				delta[j].Y -= s
			}
		}
		for j := range labels {
			a := anchorBox(labels[j].Anchor, opts.PointRadius)
			dx, dy, ok := overlap(bi, a)
			if !ok {
				continue
			}
			overlapped[i] = true
			if dx < dy {
				delta[i].X += sign(pos[i].X-labels[j].Anchor.X, i, j) * (dx*push + nudge)
			} else {
				delta[i].Y += sign(pos[i].Y-labels[j].Anchor.Y, i, j) * (dy*push + nudge)
			}
		}
	}

	hit := false
	for i, l := range labels {
		hit = hit || overlapped[i]
		if pull && !overlapped[i] {
			// Free labels drift back toward their resting spot beside the anchor.
			rest := Point{X: l.Anchor.X + l.Width/2 + opts.PointRadius, Y: l.Anchor.Y + l.Height/2 + opts.PointRadius}
			delta[i].X += (rest.X - pos[i].X) * opts.Pull
			delta[i].Y += (rest.Y - pos[i].Y) * opts.Pull
		}
		pos[i].X += delta[i].X
		pos[i].Y += delta[i].Y
	}
	clampAll(pos, labels, opts.Bounds)
	return hit
}

// Overlaps counts intersecting label pairs, ignoring padding.
func Overlaps(labels []Label, centers []Point) int {
	n := 0
	for i := range labels {
		for j := i + 1; j < len(labels); j++ {
			if _, _, ok := overlap(box(centers[i], labels[i], 0), box(centers[j], labels[j], 0)); ok {
				n++
			}
		}
	}
	return n
}

func box(c Point, l Label, pad float64) Box {
	return Box{
		MinX: c.X - l.Width/2 - pad, MaxX: c.X + l.Width/2 + pad,
		MinY: c.Y - l.Height/2 - pad, MaxY: c.Y + l.Height/2 + pad,
	}
}

func anchorBox(p Point, r float64) Box {
	return Box{MinX: p.X - r, MaxX: p.X + r, MinY: p.Y - r, MaxY: p.Y + r}
}

// overlap returns the intersection extent of a and b on each axis.
func overlap(a, b Box) (dx, dy float64, ok bool) {
	dx = math.Min(a.MaxX, b.MaxX) - math.Max(a.MinX, b.MinX)
	dy = math.Min(a.MaxY, b.MaxY) - math.Max(a.MinY, b.MinY)
	return dx, dy, dx > 0 && dy > 0
}

// sign gives the push direction; coincident centers break ties by index.
func sign(d float64, i, j int) float64 {
	switch {
	case d > 0:
		return 1
	case d < 0:
		return -1
	case i < j:
		return 1
	default:
		return -1
	}
}

func clampAll(pos []Point, labels []Label, b Box) {
	if b.MaxX <= b.MinX || b.MaxY <= b.MinY {
		return
	}
	for i, l := range labels {
		hw, hh := l.Width/2, l.Height/2
		pos[i].X = math.Max(b.MinX+hw, math.Min(b.MaxX-hw, pos[i].X))
		pos[i].Y = math.Max(b.MinY+hh, math.Min(b.MaxY-hh, pos[i].Y))
	}
}
