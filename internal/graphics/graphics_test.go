package graphics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"witchwood/internal/meshing"
)

func TestCameraLooksDownNegativeZByDefault(t *testing.T) {
	c := NewCamera(800, 600, mgl32.Vec3{})
	f := c.Front()
	if math.Abs(float64(f.Z()+1)) > 1e-5 || math.Abs(float64(f.X())) > 1e-5 {
		t.Fatalf("front = %v, want (0,0,-1)", f)
	}
	c.Move(1, 0, 0, 0.5)
	if want := float32(-6); math.Abs(float64(c.Position.Z()-want)) > 1e-4 {
		t.Errorf("moved to %v, want z=%v", c.Position, want)
	}
	if pos, ok := c.ViewerPosition(); !ok || pos != c.Position {
		t.Errorf("ViewerPosition = %v %v", pos, ok)
	}
}

func TestCameraPitchIsClamped(t *testing.T) {
	c := NewCamera(800, 600, mgl32.Vec3{})
	c.HandleMouseMovement(0, 0)
	c.HandleMouseMovement(0, -10000)
	if c.Pitch != 89 {
		t.Errorf("pitch = %v, want 89", c.Pitch)
	}
}

func TestFrustumCulling(t *testing.T) {
	c := NewCamera(800, 600, mgl32.Vec3{0, 0, 0})
	f := NewFrustum(c.ProjectionMatrix().Mul4(c.ViewMatrix()))
	if !f.IntersectsAABB(mgl32.Vec3{-1, -1, -11}, mgl32.Vec3{1, 1, -9}) {
		t.Error("box in front of the camera culled")
	}
	if f.IntersectsAABB(mgl32.Vec3{-1, -1, 9}, mgl32.Vec3{1, 1, 11}) {
		t.Error("box behind the camera kept")
	}
	if f.IntersectsAABB(mgl32.Vec3{-1, -1, -2000}, mgl32.Vec3{1, 1, -1500}) {
		t.Error("box past the far plane kept")
	}
}

func TestTreeGeometryFacesOutward(t *testing.T) {
	verts, indices := treeGeometry()
	if len(indices)%3 != 0 || len(indices) != treeSides*12 {
		t.Fatalf("got %d indices", len(indices))
	}
	pos := func(i uint32) mgl32.Vec3 { return mgl32.Vec3{verts[i*6], verts[i*6+1], verts[i*6+2]} }
	nrm := func(i uint32) mgl32.Vec3 { return mgl32.Vec3{verts[i*6+3], verts[i*6+4], verts[i*6+5]} }
	for k := 0; k < len(indices); k += 3 {
		a, b, c := indices[k], indices[k+1], indices[k+2]
		face := pos(b).Sub(pos(a)).Cross(pos(c).Sub(pos(a)))
		if face.Dot(nrm(a)) <= 0 {
			t.Errorf("triangle %d winds against its normal", k/3)
		}
	}
}

func TestInterleaveAndHeightRange(t *testing.T) {
	m := &meshing.Mesh{
		Vertices: []mgl32.Vec3{{0, -2, 0}, {1, 5, 0}},
		Normals:  []mgl32.Vec3{{0, 1, 0}, {0, 1, 0}},
	}
	got := interleave(nil, m)
	if len(got) != 12 || got[4] != 1 || got[7] != 5 {
		t.Errorf("interleave = %v", got)
	}
	if lo, hi := heightRange(m); lo != -2 || hi != 5 {
		t.Errorf("heightRange = %v, %v", lo, hi)
	}
}
