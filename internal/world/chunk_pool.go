package world

// ChunkPool keeps released chunks for reuse. It is a LIFO stack so the most
// recently released buffers, which are likely still warm, go out first.
type ChunkPool struct {
	free []*Chunk
}

// Get pops a pooled chunk, or returns false when the pool is empty.
func (p *ChunkPool) Get() (*Chunk, bool) {
	n := len(p.free)
	if n == 0 {
		return nil, false
	}
	c := p.free[n-1]
	p.free[n-1] = nil
	p.free = p.free[:n-1]
	return c, true
}

// Put resets c and parks it.
func (p *ChunkPool) Put(c *Chunk) {
	c.reset()
	p.free = append(p.free, c)
}

// Len returns the number of pooled chunks.
func (p *ChunkPool) Len() int { return len(p.free) }
