package mempool

var float32s Pool[float32]

// GetFloat32 retrieves a []float32 buffer of length n from the shared pool.
// The caller must return it via PutFloat32 when done.
func GetFloat32(n int) []float32 {
	return float32s.Get(n)
}

// PutFloat32 returns a buffer to the shared pool. It is safe to pass a nil slice.
func PutFloat32(buf []float32) {
	float32s.Put(buf)
}

// Float32Stats reports hit/miss counts of the shared float32 pool.
func Float32Stats() (hits, misses int64) {
	return float32s.Stats()
}
