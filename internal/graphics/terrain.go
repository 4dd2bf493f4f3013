package graphics

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"witchwood/internal/meshing"
	"witchwood/internal/profiling"
	"witchwood/internal/world"
)

type chunkMesh struct {
	vao, vbo, ebo uint32
	indexCount    int32
	enabled       bool
	model         mgl32.Mat4
	min, max      mgl32.Vec3
}

// TerrainRenderer keeps one GL mesh per resident chunk. It implements
// world.TerrainRenderer and must be driven from the GL thread.
type TerrainRenderer struct {
	chunkSize float32
	meshes    map[world.ChunkCoord]*chunkMesh
	scratch   []float32
}

func NewTerrainRenderer(chunkSize float64) *TerrainRenderer {
	return &TerrainRenderer{
		chunkSize: float32(chunkSize),
		meshes:    make(map[world.ChunkCoord]*chunkMesh),
	}
}

// Attach uploads mesh, replacing any previous upload for coord.
func (r *TerrainRenderer) Attach(coord world.ChunkCoord, mesh *meshing.Mesh) {
	defer profiling.Track("renderer.TerrainAttach")()
	cm := r.meshes[coord]
	if cm == nil {
		cm = &chunkMesh{}
		gl.GenVertexArrays(1, &cm.vao)
		gl.GenBuffers(1, &cm.vbo)
		gl.GenBuffers(1, &cm.ebo)
		gl.BindVertexArray(cm.vao)
		gl.BindBuffer(gl.ARRAY_BUFFER, cm.vbo)
		gl.EnableVertexAttribArray(0)
		gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 6*4, 0)
		gl.EnableVertexAttribArray(1)
		gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, 6*4, 3*4)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, cm.ebo)
		r.meshes[coord] = cm
	} else {
		gl.BindVertexArray(cm.vao)
		gl.BindBuffer(gl.ARRAY_BUFFER, cm.vbo)
	}

	r.scratch = interleave(r.scratch[:0], mesh)
	cm.indexCount = int32(len(mesh.Indices))
	if len(r.scratch) > 0 && cm.indexCount > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(r.scratch)*4, gl.Ptr(r.scratch), gl.DYNAMIC_DRAW)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, gl.Ptr(mesh.Indices), gl.DYNAMIC_DRAW)
	} else {
		cm.indexCount = 0
	}
	gl.BindVertexArray(0)

	ox := float32(coord.X) * r.chunkSize
	oz := float32(coord.Z) * r.chunkSize
	cm.model = mgl32.Translate3D(ox, 0, oz)
	lo, hi := heightRange(mesh)
	cm.min = mgl32.Vec3{ox, lo, oz}
	cm.max = mgl32.Vec3{ox + r.chunkSize, hi, oz + r.chunkSize}
	cm.enabled = true
}

func (r *TerrainRenderer) SetEnabled(coord world.ChunkCoord, enabled bool) {
	if cm := r.meshes[coord]; cm != nil {
		cm.enabled = enabled
	}
}

// Detach frees the GL objects for coord.
func (r *TerrainRenderer) Detach(coord world.ChunkCoord) {
	cm := r.meshes[coord]
	if cm == nil {
		return
	}
	gl.DeleteVertexArrays(1, &cm.vao)
	gl.DeleteBuffers(1, &cm.vbo)
	gl.DeleteBuffers(1, &cm.ebo)
	delete(r.meshes, coord)
}

// Draw renders every enabled chunk inside the frustum. The shader must be
// bound with proj and view set.
func (r *TerrainRenderer) Draw(shader *Shader, frustum *Frustum) (drawn int) {
	defer profiling.Track("renderer.Terrain")()
	for _, cm := range r.meshes {
		if !cm.enabled || cm.indexCount == 0 || !frustum.IntersectsAABB(cm.min, cm.max) {
			continue
		}
		shader.SetMatrix4("model", &cm.model[0])
		gl.BindVertexArray(cm.vao)
		gl.DrawElementsWithOffset(gl.TRIANGLES, cm.indexCount, gl.UNSIGNED_INT, 0)
		drawn++
	}
	gl.BindVertexArray(0)
	return drawn
}

// Close frees every uploaded mesh.
func (r *TerrainRenderer) Close() {
	for coord := range r.meshes {
		r.Detach(coord)
	}
}

// interleave packs position and normal per vertex.
func interleave(dst []float32, m *meshing.Mesh) []float32 {
	for i, v := range m.Vertices {
		n := m.Normals[i]
		dst = append(dst, v.X(), v.Y(), v.Z(), n.X(), n.Y(), n.Z())
	}
	return dst
}

func heightRange(m *meshing.Mesh) (lo, hi float32) {
	if len(m.Vertices) == 0 {
		return 0, 0
	}
	lo, hi = m.Vertices[0].Y(), m.Vertices[0].Y()
	for _, v := range m.Vertices[1:] {
		lo = min(lo, v.Y())
		hi = max(hi, v.Y())
	}
	return lo, hi
}
