package graphics

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"witchwood/internal/world"
)

const (
	WinWidth  = 1280
	WinHeight = 720
)

var (
	skyColor   = mgl32.Vec3{0.62, 0.74, 0.80}
	lowColor   = mgl32.Vec3{0.16, 0.30, 0.14}
	highColor  = mgl32.Vec3{0.55, 0.60, 0.42}
	trunkColor = mgl32.Vec3{0.36, 0.25, 0.16}
	leafColor  = mgl32.Vec3{0.14, 0.36, 0.18}
)

// Renderer draws the streamed terrain and its trees. Terrain and Trees are
// the world collaborators to hand to the streamer.
type Renderer struct {
	Terrain *TerrainRenderer
	Trees   *TreeRenderer

	terrainShader *Shader
	treeShader    *Shader
	amplitude     float32
	light         mgl32.Vec3
	wireframe     bool
}

// NewRenderer initialises GL and compiles the shaders. It must run on the
// thread that owns the GL context.
func NewRenderer(chunkSize, amplitude float64) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, err
	}

	gl.Enable(gl.DEPTH_TEST)
	// terrain and tree meshes emit CCW front faces
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)

	terrainShader, err := LoadShader("terrain")
	if err != nil {
		return nil, err
	}
	treeShader, err := LoadShader("tree")
	if err != nil {
		terrainShader.Delete()
		return nil, err
	}
	return &Renderer{
		Terrain:       NewTerrainRenderer(chunkSize),
		Trees:         NewTreeRenderer(),
		terrainShader: terrainShader,
		treeShader:    treeShader,
		amplitude:     float32(amplitude),
		light:         mgl32.Vec3{0.4, 1.0, 0.3}.Normalize(),
	}, nil
}

// Collaborators returns the streamer hooks backed by this renderer.
func (r *Renderer) Collaborators(viewer world.ViewerProvider) world.Collaborators {
	return world.Collaborators{
		Viewer:       viewer,
		Terrain:      r.Terrain,
		Instances:    r.Trees,
		TreeMesh:     TreeMesh,
		TreeMaterial: TreeMaterial,
	}
}

func (r *Renderer) ToggleWireframe() { r.wireframe = !r.wireframe }

// Render clears the frame and draws terrain then trees.
func (r *Renderer) Render(cam *Camera) {
	gl.ClearColor(skyColor.X(), skyColor.Y(), skyColor.Z(), 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	view := cam.ViewMatrix()
	projection := cam.ProjectionMatrix()
	frustum := NewFrustum(projection.Mul4(view))

	if r.wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	}

	r.terrainShader.Use()
	r.terrainShader.SetMatrix4("proj", &projection[0])
	r.terrainShader.SetMatrix4("view", &view[0])
	r.terrainShader.SetVector3("lightDir", r.light.X(), r.light.Y(), r.light.Z())
	r.terrainShader.SetVector3("lowColor", lowColor.X(), lowColor.Y(), lowColor.Z())
	r.terrainShader.SetVector3("highColor", highColor.X(), highColor.Y(), highColor.Z())
	r.terrainShader.SetFloat("amplitude", r.amplitude)
	r.Terrain.Draw(r.terrainShader, &frustum)

	r.treeShader.Use()
	r.treeShader.SetMatrix4("proj", &projection[0])
	r.treeShader.SetMatrix4("view", &view[0])
	r.treeShader.SetVector3("lightDir", r.light.X(), r.light.Y(), r.light.Z())
	r.treeShader.SetVector3("trunkColor", trunkColor.X(), trunkColor.Y(), trunkColor.Z())
	r.treeShader.SetVector3("leafColor", leafColor.X(), leafColor.Y(), leafColor.Z())
	r.treeShader.SetFloat("trunkHeight", treeTrunkHeight)
	r.Trees.Draw()

	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
}

// Close frees GL objects.
func (r *Renderer) Close() {
	r.Terrain.Close()
	r.Trees.Close()
	r.terrainShader.Delete()
	r.treeShader.Delete()
}
