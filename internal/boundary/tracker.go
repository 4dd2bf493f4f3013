// Package boundary keeps a walking viewer inside the flattened clearings and
// the path corridors that join them.
package boundary

import (
	"errors"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"witchwood/internal/terrain"
)

// edgeInset pulls clamped positions slightly inside the zone edge so the
// next Update sees them as inside.
const edgeInset = 0.999

// Tracker remembers whether the viewer has entered the walkable area and
// pushes it back to the nearest edge when it leaves. The zero value is not
// usable; one Tracker serves one viewer.
type Tracker struct {
	network *terrain.PathNetwork
	log     *slog.Logger

	entered   bool
	lastValid mgl32.Vec3
}

// NewTracker returns a tracker over the zones of network.
func NewTracker(network *terrain.PathNetwork, log *slog.Logger) (*Tracker, error) {
	if network == nil {
		return nil, errors.New("boundary: nil path network")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{network: network, log: log}, nil
}

// Entered reports whether the viewer has been inside a zone since the last
// Reset.
func (t *Tracker) Entered() bool { return t.entered }

// LastValid is the most recent position seen inside a zone.
func (t *Tracker) LastValid() mgl32.Vec3 { return t.lastValid }

// Reset forgets the viewer, as when a new session starts.
func (t *Tracker) Reset() {
	t.entered = false
	t.lastValid = mgl32.Vec3{}
}

// Update takes the viewer's proposed position and returns the position it
// should have. corrected is true when pos left every zone after having been
// inside one; the returned position then sits on the nearest zone edge at
// the viewer's height. Before the first entry positions pass through.
func (t *Tracker) Update(pos mgl32.Vec3) (out mgl32.Vec3, corrected bool) {
	p := mgl64.Vec2{float64(pos.X()), float64(pos.Z())}
	if t.network.IsWithin(p) {
		if !t.entered {
			t.log.Debug("viewer entered walkable area", "x", pos.X(), "z", pos.Z())
		}
		t.entered = true
		t.lastValid = pos
		return pos, false
	}
	if !t.entered {
		return pos, false
	}

	edge, ok := t.nearestEdge(p)
	if !ok {
		return t.lastValid, true
	}
	out = mgl32.Vec3{float32(edge.X()), pos.Y(), float32(edge.Y())}
	t.log.Debug("clamping viewer to boundary", "from", pos, "to", out)
	return out, true
}

// nearestEdge returns the point on the edge of any zone closest to p.
func (t *Tracker) nearestEdge(p mgl64.Vec2) (mgl64.Vec2, bool) {
	best := mgl64.Vec2{}
	bestDist := math.Inf(1)
	found := false
	consider := func(center mgl64.Vec2, radius float64) {
		if radius <= 0 {
			return
		}
		dir := p.Sub(center)
		l := dir.Len()
		if l == 0 {
			return
		}
		cand := center.Add(dir.Mul(radius * edgeInset / l))
		if d := p.Sub(cand).Len(); d < bestDist {
			best, bestDist, found = cand, d, true
		}
	}
	for _, q := range t.network.Points() {
		consider(q, t.network.Radius())
	}
	for _, s := range t.network.Segments() {
		consider(closestOnSegment(p, s.A, s.B), t.network.PathWidth())
	}
	return best, found
}

func closestOnSegment(p, a, b mgl64.Vec2) mgl64.Vec2 {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return a
	}
	t := p.Sub(a).Dot(ab) / lenSq
	t = math.Max(0, math.Min(1, t))
	return a.Add(ab.Mul(t))
}
