package world

import (
	"github.com/go-gl/mathgl/mgl32"

	"witchwood/internal/meshing"
)

// ViewerProvider reports where the viewer is. ok is false while nobody is
// registered as the viewer.
type ViewerProvider interface {
	ViewerPosition() (pos mgl32.Vec3, ok bool)
}

// CollisionSurface consumes completed chunk meshes. A mesh handed to Attach
// stays unchanged until the next Attach or Detach for that coordinate.
type CollisionSurface interface {
	Attach(coord ChunkCoord, mesh *meshing.Mesh)
	SetEnabled(coord ChunkCoord, enabled bool)
	Detach(coord ChunkCoord)
}

// TerrainRenderer draws chunk meshes and follows the collision lifecycle:
// disabled while a chunk is hidden, detached when it is pooled.
type TerrainRenderer interface {
	CollisionSurface
}

// MeshHandle and MaterialHandle are opaque renderer-side ids.
type (
	MeshHandle     uint32
	MaterialHandle uint32
)

// InstanceRenderer receives vegetation batches. Every batch holds at most
// vegetation.MaxInstancesPerBatch transforms. Submit replaces whatever was
// previously submitted for coord; the batches stay valid until the next
// Submit or Clear for that coordinate.
type InstanceRenderer interface {
	Submit(coord ChunkCoord, mesh MeshHandle, material MaterialHandle, batches [][]mgl32.Mat4)
	Clear(coord ChunkCoord)
}

// Collaborators bundles the outside world the streamer talks to. Nil fields
// fall back to no-op implementations.
type Collaborators struct {
	Viewer       ViewerProvider
	Collision    CollisionSurface
	Terrain      TerrainRenderer
	Instances    InstanceRenderer
	TreeMesh     MeshHandle
	TreeMaterial MaterialHandle
}

func (c Collaborators) withDefaults() Collaborators {
	if c.Collision == nil {
		c.Collision = NopCollision{}
	}
	if c.Terrain == nil {
		c.Terrain = NopCollision{}
	}
	if c.Instances == nil {
		c.Instances = NopRenderer{}
	}
	return c
}

// StaticViewer is a ViewerProvider fixed at Position. Tests and tools move it
// by assigning Position between ticks.
type StaticViewer struct {
	Position mgl32.Vec3
}

func (v *StaticViewer) ViewerPosition() (mgl32.Vec3, bool) {
	return v.Position, true
}

// NopCollision ignores meshes. It also serves as a TerrainRenderer.
type NopCollision struct{}

func (NopCollision) Attach(ChunkCoord, *meshing.Mesh) {}
func (NopCollision) SetEnabled(ChunkCoord, bool)      {}
func (NopCollision) Detach(ChunkCoord)                {}

// NopRenderer ignores vegetation batches.
type NopRenderer struct{}

func (NopRenderer) Submit(ChunkCoord, MeshHandle, MaterialHandle, [][]mgl32.Mat4) {}
func (NopRenderer) Clear(ChunkCoord)                                               {}
