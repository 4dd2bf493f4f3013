package graphics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a free-flying first person camera. It also serves as the
// streaming viewer.
type Camera struct {
	Position mgl32.Vec3
	Yaw      float64 // degrees, 0 looks down +X
	Pitch    float64 // degrees, clamped to ±89
	Speed    float32 // units per second

	AspectRatio float32
	FOV         float32
	NearPlane   float32
	FarPlane    float32

	firstMouse   bool
	lastX, lastY float64
}

func NewCamera(width, height int, pos mgl32.Vec3) *Camera {
	return &Camera{
		Position:    pos,
		Yaw:         -90,
		Speed:       12,
		AspectRatio: float32(width) / float32(max(height, 1)),
		FOV:         60.0,
		NearPlane:   0.1,
		FarPlane:    1000.0,
		firstMouse:  true,
	}
}

// ViewerPosition makes the camera a world.ViewerProvider.
func (c *Camera) ViewerPosition() (mgl32.Vec3, bool) {
	return c.Position, true
}

// ResetMouse makes the next mouse event only record the cursor.
func (c *Camera) ResetMouse() { c.firstMouse = true }

// HandleMouseMovement turns the camera by the cursor delta.
func (c *Camera) HandleMouseMovement(xpos, ypos float64) {
	if c.firstMouse {
		c.lastX, c.lastY = xpos, ypos
		c.firstMouse = false
		return
	}
	xoffset := (xpos - c.lastX) * 0.1
	yoffset := (c.lastY - ypos) * 0.1
	c.lastX, c.lastY = xpos, ypos

	c.Yaw += xoffset
	c.Pitch = math.Max(-89, math.Min(89, c.Pitch+yoffset))
}

// Front is the unit view direction.
func (c *Camera) Front() mgl32.Vec3 {
	yaw := mgl32.DegToRad(float32(c.Yaw))
	pitch := mgl32.DegToRad(float32(c.Pitch))
	return mgl32.Vec3{
		float32(math.Cos(float64(yaw)) * math.Cos(float64(pitch))),
		float32(math.Sin(float64(pitch))),
		float32(math.Sin(float64(yaw)) * math.Cos(float64(pitch))),
	}.Normalize()
}

// Move flies along the view direction. Axes are in [-1, 1]; right strafes
// horizontally and up moves along world Y.
func (c *Camera) Move(forward, right, up float32, dt float64) {
	step := c.Speed * float32(dt)
	front := c.Front()
	side := front.Cross(mgl32.Vec3{0, 1, 0})
	if side.Len() > 0 {
		side = side.Normalize()
	}
	c.Position = c.Position.
		Add(front.Mul(forward * step)).
		Add(side.Mul(right * step)).
		Add(mgl32.Vec3{0, up * step, 0})
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front()), mgl32.Vec3{0, 1, 0})
}

func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.AspectRatio, c.NearPlane, c.FarPlane)
}
