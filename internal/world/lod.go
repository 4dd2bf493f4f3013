package world

// LODResolution picks the mesh resolution for a chunk d chunks (Chebyshev)
// away from the viewer. visible is false past lodRange.
func LODResolution(maxRes, d, lodRange int) (res int, visible bool) {
	if d > lodRange {
		return 0, false
	}
	maxRes = max(maxRes, 1)
	switch {
	case d <= 1:
		return maxRes, true
	case d <= 2:
		return lodTier(maxRes, 2, 8), true
	case d <= 3:
		return lodTier(maxRes, 4, 4), true
	default:
		return lodTier(maxRes, 8, 2), true
	}
}

func lodTier(maxRes, div, floor int) int {
	return min(max(maxRes/div, floor), maxRes)
}
