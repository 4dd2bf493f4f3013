package meshing

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"witchwood/internal/config"
	"witchwood/internal/terrain"
)

type funcSource func(x, z float64) (float64, bool)

func (f funcSource) Sample(x, z float64) (float64, bool) { return f(x, z) }

func flat(h float64) funcSource {
	return func(x, z float64) (float64, bool) { return h, true }
}

func quietBuilder(src HeightSource) *Builder {
	return NewBuilder(src, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func assertFinite(t *testing.T, m *Mesh) {
	t.Helper()
	for i, v := range m.Vertices {
		for _, c := range v {
			if math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
				t.Fatalf("vertex %d not finite: %v", i, v)
			}
		}
	}
	for i, n := range m.Normals {
		for _, c := range n {
			if math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
				t.Fatalf("normal %d not finite: %v", i, n)
			}
		}
	}
}

func TestBuildBufferSizes(t *testing.T) {
	m := quietBuilder(flat(0)).Build(mgl64.Vec2{}, 10, 4)
	if len(m.Vertices) != 25 || len(m.Normals) != 25 {
		t.Fatalf("got %d vertices / %d normals, want 25", len(m.Vertices), len(m.Normals))
	}
	if len(m.Indices) != 4*4*6 {
		t.Fatalf("got %d indices, want %d", len(m.Indices), 4*4*6)
	}
	if m.TriangleCount() != 32 {
		t.Fatalf("got %d triangles, want 32", m.TriangleCount())
	}
	last := m.Vertices[len(m.Vertices)-1]
	if last.X() != 10 || last.Z() != 10 {
		t.Fatalf("far corner at %v, want (10, _, 10)", last)
	}
}

func TestBuildZeroResolutionClampsToOne(t *testing.T) {
	m := quietBuilder(flat(1)).Build(mgl64.Vec2{}, 10, 0)
	if m.Resolution != 1 || len(m.Vertices) != 4 || len(m.Indices) != 6 {
		t.Fatalf("got res=%d verts=%d idx=%d, want 1/4/6", m.Resolution, len(m.Vertices), len(m.Indices))
	}
	assertFinite(t, m)
}

func TestWindingFacesUp(t *testing.T) {
	m := quietBuilder(flat(3)).Build(mgl64.Vec2{5, -5}, 8, 3)
	for i := 0; i < len(m.Indices); i += 3 {
		a := m.Vertices[m.Indices[i]]
		b := m.Vertices[m.Indices[i+1]]
		c := m.Vertices[m.Indices[i+2]]
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Y() <= 0 {
			t.Fatalf("triangle %d faces %v, want +Y", i/3, n)
		}
	}
	for i, n := range m.Normals {
		if n != (mgl32.Vec3{0, 1, 0}) {
			t.Fatalf("flat normal %d: got %v", i, n)
		}
	}
}

func TestSlopeNormals(t *testing.T) {
	slope := funcSource(func(x, z float64) (float64, bool) { return x, true })
	m := quietBuilder(slope).Build(mgl64.Vec2{}, 4, 4)
	want := mgl32.Vec3{-1, 1, 0}.Normalize()
	for i, n := range m.Normals {
		if !n.ApproxEqualThreshold(want, 1e-5) {
			t.Fatalf("normal %d: got %v, want %v", i, n, want)
		}
	}
}

func TestAdversarialInputsStayFinite(t *testing.T) {
	nan := funcSource(func(x, z float64) (float64, bool) { return math.NaN(), true })
	huge := funcSource(func(x, z float64) (float64, bool) { return 1e300, true })
	panicky := funcSource(func(x, z float64) (float64, bool) { panic("boom") })

	cases := []struct {
		name   string
		src    HeightSource
		origin mgl64.Vec2
		size   float64
		res    int
	}{
		{"nan heights", nan, mgl64.Vec2{}, 10, 4},
		{"huge heights", huge, mgl64.Vec2{}, 10, 4},
		{"panicking source", panicky, mgl64.Vec2{}, 10, 2},
		{"nan size", flat(1), mgl64.Vec2{}, math.NaN(), 4},
		{"negative size", flat(1), mgl64.Vec2{}, -5, 4},
		{"zero size", flat(1), mgl64.Vec2{}, 0, 4},
		{"enormous size", flat(1), mgl64.Vec2{}, 1e300, 2},
		{"infinite origin", flat(1), mgl64.Vec2{math.Inf(1), 0}, 10, 3},
		{"negative resolution", flat(1), mgl64.Vec2{}, 10, -7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := quietBuilder(tc.src).Build(tc.origin, tc.size, tc.res)
			assertFinite(t, m)
			if len(m.Indices) != m.Resolution*m.Resolution*6 {
				t.Fatalf("index count %d does not match resolution %d", len(m.Indices), m.Resolution)
			}
		})
	}
}

func TestBadSampleUsesPreviousHeight(t *testing.T) {
	src := funcSource(func(x, z float64) (float64, bool) {
		if x > 4 && x < 6 {
			return 0, false
		}
		return 7, true
	})
	m := quietBuilder(src).Build(mgl64.Vec2{}, 10, 2)
	// middle column sits at x=5
	for z := 0; z < 3; z++ {
		v := m.Vertices[z*3+1]
		if v.Y() != 7 {
			t.Fatalf("substituted height: got %v, want 7", v.Y())
		}
		if m.Normals[z*3+1] != (mgl32.Vec3{0, 1, 0}) {
			t.Fatalf("substituted normal: got %v, want up", m.Normals[z*3+1])
		}
	}
}

func TestSharedEdgeHeightsMatch(t *testing.T) {
	s := config.Default().Terrain
	s.Amplitude = 25
	s.NoiseScale = 5
	h := terrain.NewHeightSampler(terrain.NewNoiseField(9, &s), terrain.NewPathNetwork(9, &s, 2, 0, 0), &s)
	b := quietBuilder(h)

	const size, res = 10.0, 8
	left := b.Build(mgl64.Vec2{0, 0}, size, res)
	right := b.Build(mgl64.Vec2{size, 0}, size, res)
	below := b.Build(mgl64.Vec2{0, size}, size, res)
	w := res + 1
	for i := 0; i < w; i++ {
		if a, c := left.Vertices[i*w+res].Y(), right.Vertices[i*w].Y(); a != c {
			t.Fatalf("x seam row %d: %v vs %v", i, a, c)
		}
		if a, c := left.Vertices[res*w+i].Y(), below.Vertices[i].Y(); a != c {
			t.Fatalf("z seam column %d: %v vs %v", i, a, c)
		}
	}
}

func TestBuildIntoReusesCapacity(t *testing.T) {
	b := quietBuilder(flat(2))
	m := b.Build(mgl64.Vec2{}, 10, 8)
	capBefore := cap(m.Vertices)
	b.BuildInto(m, mgl64.Vec2{}, 10, 4)
	if len(m.Vertices) != 25 || len(m.Indices) != 96 || m.Resolution != 4 {
		t.Fatalf("rebuild at lower resolution: verts=%d idx=%d res=%d", len(m.Vertices), len(m.Indices), m.Resolution)
	}
	if cap(m.Vertices) != capBefore {
		t.Fatalf("rebuild reallocated vertices: cap %d, want %d", cap(m.Vertices), capBefore)
	}

	fresh := b.Build(mgl64.Vec2{}, 10, 4)
	for i := range fresh.Vertices {
		if fresh.Vertices[i] != m.Vertices[i] || fresh.Normals[i] != m.Normals[i] {
			t.Fatalf("vertex %d differs from fresh build", i)
		}
	}
}

func BenchmarkBuild(b *testing.B) {
	s := config.Default().Terrain
	h := terrain.NewHeightSampler(terrain.NewNoiseField(1, &s), terrain.NewPathNetwork(1, &s, 3, 0, 0), &s)
	builder := quietBuilder(h)
	m := &Mesh{}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		builder.BuildInto(m, mgl64.Vec2{0, 0}, s.ChunkSize, s.Resolution)
	}
}
