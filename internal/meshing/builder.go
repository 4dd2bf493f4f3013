package meshing

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"witchwood/internal/config"
	"witchwood/internal/profiling"
	"witchwood/internal/terrain"
)

// MaxChunkSize bounds the chunk edge so local positions stay finite in float32.
const MaxChunkSize = 1e6

var up = mgl32.Vec3{0, 1, 0}

// HeightSource is the continuous height field a mesh samples.
// Sample reports false for a value that had to be substituted.
type HeightSource interface {
	Sample(x, z float64) (float64, bool)
}

// Mesh holds the buffers of one chunk. Positions are local to the chunk
// origin; Indices has Resolution*Resolution*6 entries.
type Mesh struct {
	Resolution int
	Vertices   []mgl32.Vec3
	Normals    []mgl32.Vec3
	Indices    []uint32
}

// TriangleCount returns the number of triangles in the index buffer.
func (m *Mesh) TriangleCount() int {
	if m == nil {
		return 0
	}
	return len(m.Indices) / 3
}

// Builder turns a height field into grid meshes. It holds no per-build state
// and may be shared between goroutines.
type Builder struct {
	heights HeightSource
	log     *slog.Logger
}

// NewBuilder returns a builder sampling heights. A nil logger uses slog.Default.
func NewBuilder(heights HeightSource, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{heights: heights, log: log}
}

// Build returns a new mesh for the chunk whose corner is at world origin.
func (b *Builder) Build(origin mgl64.Vec2, size float64, resolution int) *Mesh {
	m := &Mesh{}
	b.BuildInto(m, origin, size, resolution)
	return m
}

// BuildInto regenerates dst completely, reusing its buffer capacity. Callers
// that hand meshes to other consumers must build into a buffer nobody is
// reading and swap afterwards.
func (b *Builder) BuildInto(dst *Mesh, origin mgl64.Vec2, size float64, resolution int) {
	defer profiling.Track("meshing.Build")()

	res := max(resolution, 1)
	if res > config.MaxResolution {
		b.log.Warn("resolution clamped", "resolution", res, "max", config.MaxResolution)
		res = config.MaxResolution
	}
	if !finite(size) || size < 0 {
		b.log.Warn("chunk size is not usable, building a flat point mesh", "size", size)
		size = 0
	} else if size > MaxChunkSize {
		b.log.Warn("chunk size clamped", "size", size, "max", MaxChunkSize)
		size = MaxChunkSize
	}
	normalStep := size / float64(res)
	if normalStep <= 0 {
		normalStep = 1
	}

	// heights on a grid with a one-sample apron so normals at the chunk edge
	// use the same samples as the neighbouring chunk's edge
	w := res + 1
	gw := res + 3
	grid := make([]float64, gw*gw)
	valid := make([]bool, gw*gw)
	bad := 0
	last := 0.0
	local := func(g int) float64 {
		switch g {
		case 0:
			return -normalStep
		case gw - 1:
			return size + normalStep
		case gw - 2:
			return size
		}
		return size * float64(g-1) / float64(res)
	}
	for gz := 0; gz < gw; gz++ {
		for gx := 0; gx < gw; gx++ {
			i := gz*gw + gx
			h, ok := b.sample(origin.X()+local(gx), origin.Y()+local(gz))
			if ok {
				last = h
			} else {
				h = last
				bad++
			}
			grid[i] = h
			valid[i] = ok
		}
	}

	n := w * w
	dst.Resolution = res
	dst.Vertices = resize(dst.Vertices, n)
	dst.Normals = resize(dst.Normals, n)
	for z := 0; z < w; z++ {
		for x := 0; x < w; x++ {
			gi := (z+1)*gw + (x + 1)
			vi := z*w + x
			dst.Vertices[vi] = mgl32.Vec3{float32(local(x + 1)), float32(grid[gi]), float32(local(z + 1))}
			dst.Normals[vi] = normalAt(grid, valid, gi, gw, normalStep)
		}
	}

	dst.Indices = resize(dst.Indices, res*res*6)
	ti := 0
	for z := 0; z < res; z++ {
		for x := 0; x < res; x++ {
			v := uint32(z*w + x)
			uw := uint32(w)
			dst.Indices[ti+0] = v
			dst.Indices[ti+1] = v + uw
			dst.Indices[ti+2] = v + 1
			dst.Indices[ti+3] = v + 1
			dst.Indices[ti+4] = v + uw
			dst.Indices[ti+5] = v + uw + 1
			ti += 6
		}
	}

	if bad > 0 {
		profiling.Count("meshing.recoveredSamples", int64(bad))
		b.log.Warn("recovered invalid terrain samples", "count", bad, "originX", origin.X(), "originZ", origin.Y(), "resolution", res)
	}
}

// sample never panics; a failing height source counts as an invalid sample.
func (b *Builder) sample(x, z float64) (h float64, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			h, ok = 0, false
			b.log.Warn("height source panicked", "x", x, "z", z, "error", fmt.Sprint(r))
		}
	}()
	h, ok = b.heights.Sample(x, z)
	if ok && !finite(h) {
		return 0, false
	}
	return max(min(h, terrain.MaxHeight), -terrain.MaxHeight), ok
}

// normalAt uses central differences of the neighbouring samples.
func normalAt(grid []float64, valid []bool, i, stride int, step float64) mgl32.Vec3 {
	l, r := i-1, i+1
	d, u := i-stride, i+stride
	if !valid[i] || !valid[l] || !valid[r] || !valid[d] || !valid[u] {
		return up
	}
	nx := grid[l] - grid[r]
	ny := 2 * step
	nz := grid[d] - grid[u]
	length := math.Sqrt(nx*nx + ny*ny + nz*nz)
	if !finite(length) || length == 0 {
		return up
	}
	nv := mgl32.Vec3{float32(nx / length), float32(ny / length), float32(nz / length)}
	if !finite(float64(nv[0])) || !finite(float64(nv[1])) || !finite(float64(nv[2])) {
		return up
	}
	return nv
}

func resize[T any](s []T, n int) []T {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]T, n)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
