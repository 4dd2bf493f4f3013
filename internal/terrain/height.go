package terrain

import (
	"github.com/go-gl/mathgl/mgl64"

	"witchwood/internal/config"
)

// MaxHeight bounds every sampled height before it reaches mesh or normal code.
const MaxHeight = 10000.0

// HeightSampler combines noise, path carving and flatten zones into the final
// terrain height. It is read-only after construction and safe to share
// between goroutines.
type HeightSampler struct {
	noise         *NoiseField
	network       *PathNetwork
	pathWidth     float64
	flattenRadius float64
	pointHeights  []float64

	falloff       bool
	falloffCenter mgl64.Vec2
	falloffDist   float64
}

// Option configures a HeightSampler.
type Option func(*HeightSampler)

// WithFalloff shapes the terrain into an island: heights are scaled by
// (1 - d/maxDistance)^2 where d is the distance from center. Only the single
// fixed-terrain mesh uses it; streamed worlds do not.
func WithFalloff(center mgl64.Vec2, maxDistance float64) Option {
	return func(h *HeightSampler) {
		h.falloff = true
		h.falloffCenter = center
		h.falloffDist = maxDistance
	}
}

// NewHeightSampler precomputes the noise height of every flatten point. A nil
// network means no path or flatten blending.
func NewHeightSampler(noise *NoiseField, network *PathNetwork, s *config.Terrain, opts ...Option) *HeightSampler {
	if network == nil {
		network = NewPathNetworkFromPoints(nil, s)
	}
	h := &HeightSampler{
		noise:         noise,
		network:       network,
		pathWidth:     s.PathWidth,
		flattenRadius: s.FlattenRadius,
	}
	for _, p := range network.Points() {
		h.pointHeights = append(h.pointHeights, noise.Height(p.X(), p.Y()))
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Noise returns the underlying noise field.
func (h *HeightSampler) Noise() *NoiseField { return h.noise }

// Network returns the path network used for carving.
func (h *HeightSampler) Network() *PathNetwork { return h.network }

// Height returns the terrain height at world (x, z). Non-finite results
// become 0.
func (h *HeightSampler) Height(x, z float64) float64 {
	v, _ := h.Sample(x, z)
	return v
}

// Sample is Height plus a flag that is false when the raw result was NaN or
// infinite, so callers with a valid neighbour can substitute it instead of 0.
func (h *HeightSampler) Sample(x, z float64) (float64, bool) {
	y := h.raw(x, z)
	if !finite(y) {
		return 0, false
	}
	return clamp(y, -MaxHeight, MaxHeight), true
}

func (h *HeightSampler) raw(x, z float64) float64 {
	base := h.noise.Height(x, z)
	if len(h.pointHeights) == 0 && !h.falloff {
		return base
	}
	p := mgl64.Vec2{x, z}
	y := h.applyPath(p, base)
	y = h.applyFlatten(p, y)
	if h.falloff {
		y *= h.falloffFactor(p)
	}
	return y
}

// applyPath blends toward each nearby segment in path order; later segments
// can partially override earlier ones.
func (h *HeightSampler) applyPath(p mgl64.Vec2, y float64) float64 {
	if h.pathWidth <= 0 {
		return y
	}
	for i, s := range h.network.Segments() {
		d, t := distanceToSegment(p, s.A, s.B)
		if d >= h.pathWidth {
			continue
		}
		target := lerp(h.pointHeights[i], h.pointHeights[i+1], t)
		y = lerp(y, target, smoothstep(1-d/h.pathWidth))
	}
	return y
}

func (h *HeightSampler) applyFlatten(p mgl64.Vec2, y float64) float64 {
	if h.flattenRadius <= 0 {
		return y
	}
	total := 0.0
	weighted := 0.0
	for i, q := range h.network.Points() {
		d := p.Sub(q).Len()
		if d >= h.flattenRadius {
			continue
		}
		w := smoothstep(1 - d/h.flattenRadius)
		weighted += h.pointHeights[i] * w
		total += w
	}
	if total <= 0 {
		return y
	}
	return lerp(y, weighted/total, clamp01(total))
}

func (h *HeightSampler) falloffFactor(p mgl64.Vec2) float64 {
	if h.falloffDist <= 0 {
		return 1
	}
	d := clamp01(p.Sub(h.falloffCenter).Len() / h.falloffDist)
	return clamp01((1 - d) * (1 - d))
}
