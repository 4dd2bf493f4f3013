package vegetation

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"witchwood/internal/config"
)

type stripe struct{ minX, maxX float64 }

func (s stripe) IsWithin(p mgl64.Vec2) bool { return p.X() >= s.minX && p.X() < s.maxX }

type slope struct{}

func (slope) Height(x, z float64) float64 { return x * 0.5 }

func treeSettings() config.Terrain {
	s := config.Default().Terrain
	s.TreeDensity = 0.5
	s.MinTreeDistance = 1.5
	s.MaxTreeTilt = 10
	return s
}

func position(m mgl32.Mat4) mgl32.Vec3 { return m.Col(3).Vec3() }

func TestScatterDeterministicPerCoordinate(t *testing.T) {
	s := treeSettings()
	sc := NewScatterer(7, &s, nil, slope{})
	a := sc.Scatter(2, -3, mgl64.Vec2{20, -30}, 10, nil)
	b := sc.Scatter(2, -3, mgl64.Vec2{20, -30}, 10, make([]mgl32.Mat4, 0, 64))
	if len(a) == 0 {
		t.Fatalf("expected some trees")
	}
	if len(a) != len(b) {
		t.Fatalf("got %d and %d trees for the same chunk", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("transform %d differs", i)
		}
	}

	other := sc.Scatter(3, -3, mgl64.Vec2{20, -30}, 10, nil)
	same := len(other) == len(a)
	for i := 0; same && i < len(a); i++ {
		same = a[i] == other[i]
	}
	if same {
		t.Fatalf("different coordinates produced identical layouts")
	}
}

func TestScatterRespectsBoundsSpacingAndHeight(t *testing.T) {
	s := treeSettings()
	sc := NewScatterer(1, &s, nil, slope{})
	origin := mgl64.Vec2{-10, 40}
	trees := sc.Scatter(-1, 4, origin, 10, nil)
	for i, m := range trees {
		p := position(m)
		if float64(p.X()) < origin.X() || float64(p.X()) > origin.X()+10 || float64(p.Z()) < origin.Y() || float64(p.Z()) > origin.Y()+10 {
			t.Fatalf("tree %d at %v outside chunk", i, p)
		}
		if want := float32(float64(p.X()) * 0.5); math.Abs(float64(p.Y()-want)) > 1e-3 {
			t.Fatalf("tree %d planted at y=%v, want %v", i, p.Y(), want)
		}
		for j := i + 1; j < len(trees); j++ {
			if d := p.Sub(position(trees[j])); math.Hypot(float64(d.X()), float64(d.Z())) < s.MinTreeDistance-1e-4 {
				t.Fatalf("trees %d and %d closer than %v", i, j, s.MinTreeDistance)
			}
		}
	}
}

func TestScatterTiltAndScaleBands(t *testing.T) {
	s := treeSettings()
	sc := NewScatterer(3, &s, nil, nil)
	trees := sc.Scatter(0, 0, mgl64.Vec2{}, 20, nil)
	maxTilt := float64(mgl32.DegToRad(float32(s.MaxTreeTilt)))
	minUp := math.Cos(maxTilt) * math.Cos(maxTilt)
	for i, m := range trees {
		up := m.Col(1).Vec3()
		scale := float64(up.Len())
		if scale < minScale-1e-4 || scale > maxScale+1e-4 {
			t.Fatalf("tree %d scale %v outside [%v,%v]", i, scale, minScale, maxScale)
		}
		if y := float64(up.Normalize().Y()); y < minUp-1e-5 {
			t.Fatalf("tree %d tilted too far: up.y=%v, want >= %v", i, y, minUp)
		}
	}
}

func TestScatterExclusion(t *testing.T) {
	s := treeSettings()
	sc := NewScatterer(5, &s, stripe{minX: 4, maxX: 6}, nil)
	for _, m := range sc.Scatter(0, 0, mgl64.Vec2{}, 10, nil) {
		if x := position(m).X(); x >= 4 && x < 6 {
			t.Fatalf("tree at x=%v inside excluded stripe", x)
		}
	}

	all := NewScatterer(5, &s, stripe{minX: -100, maxX: 100}, nil)
	if n := len(all.Scatter(0, 0, mgl64.Vec2{}, 10, nil)); n != 0 {
		t.Fatalf("got %d trees in a fully excluded chunk", n)
	}
}

func TestScatterDegenerateInputs(t *testing.T) {
	s := treeSettings()
	s.TreeDensity = 0
	if n := len(NewScatterer(1, &s, nil, nil).Scatter(0, 0, mgl64.Vec2{}, 10, nil)); n != 0 {
		t.Fatalf("zero density: got %d trees", n)
	}
	s = treeSettings()
	sc := NewScatterer(1, &s, nil, nil)
	for _, size := range []float64{0, -4, math.NaN(), math.Inf(1)} {
		if n := len(sc.Scatter(0, 0, mgl64.Vec2{}, size, nil)); n != 0 {
			t.Fatalf("size %v: got %d trees", size, n)
		}
	}
}

func TestScatterCapsCellCount(t *testing.T) {
	s := treeSettings()
	s.TreeDensity = 1000
	s.MinTreeDistance = 0
	trees := NewScatterer(1, &s, nil, nil).Scatter(0, 0, mgl64.Vec2{}, 10, nil)
	if len(trees) > maxCellsPerAxis*maxCellsPerAxis {
		t.Fatalf("got %d trees, want at most %d", len(trees), maxCellsPerAxis*maxCellsPerAxis)
	}
}

func TestBatchesSplitAtInstancingLimit(t *testing.T) {
	transforms := make([]mgl32.Mat4, 2500)
	batches := Batches(transforms)
	if len(batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(batches))
	}
	for i, want := range []int{1023, 1023, 454} {
		if len(batches[i]) != want {
			t.Fatalf("batch %d: got %d, want %d", i, len(batches[i]), want)
		}
	}
	if Batches(nil) != nil {
		t.Fatalf("no transforms should give no batches")
	}
}
