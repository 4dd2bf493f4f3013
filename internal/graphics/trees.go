package graphics

import (
	"math"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"witchwood/internal/profiling"
	"witchwood/internal/vegetation"
	"witchwood/internal/world"
)

const (
	treeSides       = 6
	treeTrunkHeight = 0.8
	treeTrunkRadius = 0.12
	treeCrownRadius = 0.7
	treeHeight      = 3.0
)

// TreeMesh is the single instanced tree model and its material.
const (
	TreeMesh     world.MeshHandle     = 1
	TreeMaterial world.MaterialHandle = 1
)

// TreeRenderer draws vegetation batches with one instanced call per batch.
// It implements world.InstanceRenderer.
type TreeRenderer struct {
	vao, vbo, ebo, instanceVBO uint32
	indexCount                 int32
	batches                    map[world.ChunkCoord][][]mgl32.Mat4
}

func NewTreeRenderer() *TreeRenderer {
	r := &TreeRenderer{batches: make(map[world.ChunkCoord][][]mgl32.Mat4)}
	verts, indices := treeGeometry()
	r.indexCount = int32(len(indices))

	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 6*4, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, 6*4, 3*4)

	gl.GenBuffers(1, &r.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	// Instance buffer: one mat4 per tree in attribute slots 2..5
	gl.GenBuffers(1, &r.instanceVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.instanceVBO)
	gl.BufferData(gl.ARRAY_BUFFER, vegetation.MaxInstancesPerBatch*16*4, nil, gl.STREAM_DRAW)
	for col := uint32(0); col < 4; col++ {
		loc := 2 + col
		gl.EnableVertexAttribArray(loc)
		gl.VertexAttribPointerWithOffset(loc, 4, gl.FLOAT, false, 16*4, uintptr(col*4*4))
		gl.VertexAttribDivisor(loc, 1)
	}
	gl.BindVertexArray(0)
	return r
}

// Submit replaces the batches drawn for coord. Only TreeMesh exists, so the
// handles are not consulted.
func (r *TreeRenderer) Submit(coord world.ChunkCoord, _ world.MeshHandle, _ world.MaterialHandle, batches [][]mgl32.Mat4) {
	if len(batches) == 0 {
		delete(r.batches, coord)
		return
	}
	r.batches[coord] = batches
}

func (r *TreeRenderer) Clear(coord world.ChunkCoord) {
	delete(r.batches, coord)
}

// Draw issues the instanced calls. The shader must be bound with proj and
// view set.
func (r *TreeRenderer) Draw() (instances int) {
	defer profiling.Track("renderer.Trees")()
	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.instanceVBO)
	for _, batches := range r.batches {
		for _, batch := range batches {
			n := min(len(batch), vegetation.MaxInstancesPerBatch)
			if n == 0 {
				continue
			}
			gl.BufferSubData(gl.ARRAY_BUFFER, 0, n*16*4, gl.Ptr(&batch[0][0]))
			gl.DrawElementsInstancedWithOffset(gl.TRIANGLES, r.indexCount, gl.UNSIGNED_INT, 0, int32(n))
			instances += n
		}
	}
	gl.BindVertexArray(0)
	return instances
}

func (r *TreeRenderer) Close() {
	gl.DeleteVertexArrays(1, &r.vao)
	gl.DeleteBuffers(1, &r.vbo)
	gl.DeleteBuffers(1, &r.ebo)
	gl.DeleteBuffers(1, &r.instanceVBO)
	clear(r.batches)
}

// treeGeometry builds a low poly tree standing on the origin: a hexagonal
// trunk prism under a cone crown. Vertices are interleaved position and
// normal; faces wind counter-clockwise seen from outside.
func treeGeometry() (verts []float32, indices []uint32) {
	add := func(p, n mgl32.Vec3) uint32 {
		verts = append(verts, p.X(), p.Y(), p.Z(), n.X(), n.Y(), n.Z())
		return uint32(len(verts)/6 - 1)
	}
	ring := func(i int, r, y float32) mgl32.Vec3 {
		a := 2 * math.Pi * float64(i) / treeSides
		return mgl32.Vec3{r * float32(math.Cos(a)), y, -r * float32(math.Sin(a))}
	}
	slopeY := float32(treeCrownRadius / (treeHeight - treeTrunkHeight))
	for i := 0; i < treeSides; i++ {
		j := (i + 1) % treeSides
		// trunk side
		n := ring(i, 1, 0).Add(ring(j, 1, 0)).Normalize()
		a := add(ring(i, treeTrunkRadius, 0), n)
		b := add(ring(j, treeTrunkRadius, 0), n)
		c := add(ring(j, treeTrunkRadius, treeTrunkHeight), n)
		d := add(ring(i, treeTrunkRadius, treeTrunkHeight), n)
		indices = append(indices, a, b, c, a, c, d)

		// crown side
		cn := n.Add(mgl32.Vec3{0, slopeY, 0}).Normalize()
		e := add(ring(i, treeCrownRadius, treeTrunkHeight), cn)
		f := add(ring(j, treeCrownRadius, treeTrunkHeight), cn)
		top := add(mgl32.Vec3{0, treeHeight, 0}, cn)
		indices = append(indices, e, f, top)

		// crown underside
		down := mgl32.Vec3{0, -1, 0}
		g := add(ring(i, treeCrownRadius, treeTrunkHeight), down)
		h := add(ring(j, treeCrownRadius, treeTrunkHeight), down)
		center := add(mgl32.Vec3{0, treeTrunkHeight, 0}, down)
		indices = append(indices, g, center, h)
	}
	return verts, indices
}
