package tensor

// Stats computes min, max and mean of data for debug output.
func Stats(data []float32) (float32, float32, float32) {
	if len(data) == 0 {
		return 0, 0, 0
	}
	minVal, maxVal := data[0], data[0]
	var sum float64
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
		sum += float64(v)
	}
	return minVal, maxVal, float32(sum / float64(len(data)))
}

// ObjectnessAbove counts cells whose objectness channel is strictly above threshold.
// Useful to sanity-check a dump before decoding.
func ObjectnessAbove(v View, threshold float32) int {
	l := v.Layout()
	count := 0
	for s, sc := range l.Scales {
		for a := range sc.Anchors {
			for row := 0; row < sc.GridH; row++ {
				for col := 0; col < sc.GridW; col++ {
					if v.At(s, a, row, col, ChanObj) > threshold {
						count++
					}
				}
			}
		}
	}
	return count
}
