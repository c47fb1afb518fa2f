package retriever

import "sync/atomic"

// atomicCounter is a tiny wrapper so the handle-construction count can be
// observed without racing.
type atomicCounter struct {
	n atomic.Int64
}

func (c *atomicCounter) inc() {
	c.n.Add(1)
}

func (c *atomicCounter) value() int64 {
	return c.n.Load()
}
