package memory

// compressionFloorBytes is the smallest footprint worth compressing.
const compressionFloorBytes = 1024

// compressResources shrinks the recorded footprint of every resident,
// uncompressed record above the size floor. Runs after each sweep and
// may run standalone. The ledger charge (ReservedBytes) is untouched:
// compression does not relieve admission pressure.
func (m *Manager) compressResources() float64 {
	var savedMB float64

	m.registry.ForEach(func(_ Handle, rec *ResourceRecord) {
		if rec.Compressed || rec.sizeBytes <= compressionFloorBytes {
			return
		}

		var sample []byte
		if m.pools != nil {
			if pool, ok := m.pools.Get(rec.Category); ok {
				sample, _ = pool.Chunk(rec.ID)
			}
		}

		compressed := int64(m.estimator.EstimateCompressed(int(rec.sizeBytes), sample))
		if compressed >= rec.sizeBytes {
			return
		}

		savedMB += float64(rec.sizeBytes-compressed) / bytesPerMB
		rec.sizeBytes = compressed
		rec.Compressed = true
	})

	m.stats.CompressionSavedMB += savedMB
	return savedMB
}
