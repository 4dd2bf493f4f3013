package terrain

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"witchwood/internal/config"
)

func TestPathNetworkRespectsCountAndSpacing(t *testing.T) {
	s := config.Default().Terrain
	for seed := int64(0); seed < 20; seed++ {
		n := NewPathNetwork(seed, &s, 3, 0, 0)
		pts := n.Points()
		if len(pts) > s.FlattenPointCount {
			t.Fatalf("seed %d: got %d points, want at most %d", seed, len(pts), s.FlattenPointCount)
		}
		for i := range pts {
			for j := i + 1; j < len(pts); j++ {
				if d := pts[i].Sub(pts[j]).Len(); d < s.MinPointDistance {
					t.Fatalf("seed %d: points %d and %d only %f apart", seed, i, j, d)
				}
			}
		}
	}
}

func TestPathNetworkDeterministicPerSeed(t *testing.T) {
	s := config.Default().Terrain
	a := NewPathNetwork(11, &s, 3, 0, 0).Points()
	b := NewPathNetwork(11, &s, 3, 0, 0).Points()
	if len(a) != len(b) {
		t.Fatalf("point count differs: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("point %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestPathNetworkStaysInsideBounds(t *testing.T) {
	s := config.Default().Terrain
	n := NewPathNetwork(4, &s, 3, 2, -1)
	// centre chunk (2,-1) midpoint is (25,-5); sampling square half-side is 35-10
	for _, p := range n.Points() {
		if p.X() < 0 || p.X() > 50 || p.Y() < -30 || p.Y() > 20 {
			t.Fatalf("point %v outside sampling square", p)
		}
	}
}

func TestPathNetworkZeroViewDistanceCollapses(t *testing.T) {
	s := config.Default().Terrain
	s.MinPointDistance = 1
	n := NewPathNetwork(1, &s, 0, 0, 0)
	if len(n.Points()) != 1 {
		t.Fatalf("got %d points, want 1 (all candidates coincide)", len(n.Points()))
	}
	if n.Points()[0] != (mgl64.Vec2{5, 5}) {
		t.Fatalf("got %v, want chunk midpoint", n.Points()[0])
	}
}

func TestOrderGreedyStartsLeftmost(t *testing.T) {
	pts := []mgl64.Vec2{{10, 0}, {0, 0}, {30, 0}, {11, 1}}
	got := orderGreedy(pts)
	want := []mgl64.Vec2{{0, 0}, {10, 0}, {11, 1}, {30, 0}}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order[%d]: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDistanceQueries(t *testing.T) {
	s := config.Default().Terrain
	s.FlattenRadius = 2
	s.PathWidth = 1
	n := NewPathNetworkFromPoints([]mgl64.Vec2{{0, 0}, {10, 0}}, &s)

	if d := n.DistanceToNearestSegment(mgl64.Vec2{5, 3}); math.Abs(d-3) > 1e-12 {
		t.Errorf("distance above midpoint: got %f, want 3", d)
	}
	if d := n.DistanceToNearestSegment(mgl64.Vec2{13, 4}); math.Abs(d-5) > 1e-12 {
		t.Errorf("distance past end: got %f, want 5", d)
	}
	if w := n.InfluenceWeight(mgl64.Vec2{0, 0}, 2); w != 1 {
		t.Errorf("weight at point: got %f, want 1", w)
	}
	if w := n.InfluenceWeight(mgl64.Vec2{0, 1}, 2); w != 0.5 {
		t.Errorf("weight at half radius: got %f, want 0.5", w)
	}
	if w := n.InfluenceWeight(mgl64.Vec2{5, 5}, 2); w != 0 {
		t.Errorf("weight outside: got %f, want 0", w)
	}
	if !n.IsWithin(mgl64.Vec2{5, 0.5}) {
		t.Errorf("point on the corridor should be within")
	}
	if !n.IsWithin(mgl64.Vec2{-1.5, 0}) {
		t.Errorf("point in the flatten zone should be within")
	}
	if n.IsWithin(mgl64.Vec2{5, 1.5}) {
		t.Errorf("point beyond path width should not be within")
	}
}

func TestEmptyNetworkQueries(t *testing.T) {
	s := config.Default().Terrain
	n := NewPathNetworkFromPoints(nil, &s)
	if !math.IsInf(n.DistanceToNearestSegment(mgl64.Vec2{}), 1) {
		t.Fatalf("empty network distance should be +Inf")
	}
	if n.IsWithin(mgl64.Vec2{}) {
		t.Fatalf("empty network contains nothing")
	}
}
