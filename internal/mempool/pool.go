package mempool

import (
	"sync"
	"sync/atomic"
)

// Pool hands out []T buffers grouped by size class. The zero value is ready to use.
type Pool[T any] struct {
	classes sync.Map // key: size class (int), value: *sync.Pool

	hits   atomic.Int64
	misses atomic.Int64
}

// sizeClass rounds n up to a multiple of 1024 with a floor of 1024.
func sizeClass(n int) int {
	const step = 1024
	if n <= step {
		return step
	}
	return (n + step - 1) / step * step
}

func (p *Pool[T]) class(cls int) *sync.Pool {
	if sp, ok := p.classes.Load(cls); ok {
		return sp.(*sync.Pool)
	}
	sp, _ := p.classes.LoadOrStore(cls, &sync.Pool{})
	return sp.(*sync.Pool)
}

// Get returns a buffer of length n. Contents are not cleared.
func (p *Pool[T]) Get(n int) []T {
	if n < 0 {
		n = 0
	}
	cls := sizeClass(n)
	if v := p.class(cls).Get(); v != nil {
		if buf, ok := v.(*[]T); ok && cap(*buf) >= cls {
			p.hits.Add(1)
			return (*buf)[:n]
		}
	}
	p.misses.Add(1)
	return make([]T, n, cls)
}

// Put returns buf to the pool. Nil and foreign-sized slices are ignored.
func (p *Pool[T]) Put(buf []T) {
	if buf == nil || cap(buf) < sizeClass(0) {
		return
	}
	// Buffers from Get have cap == class; round down so a larger foreign
	// buffer still lands in a class it can serve.
	cls := cap(buf) / 1024 * 1024
	full := buf[:cap(buf)]
	p.class(cls).Put(&full)
}

// Stats reports how many Get calls were served from the pool.
func (p *Pool[T]) Stats() (hits, misses int64) {
	return p.hits.Load(), p.misses.Load()
}
