package detector

import "github.com/chewxy/math32"

func sigmoid(x float32) float32 {
	return 1 / (1 + math32.Exp(-x))
}

// logit is the inverse of sigmoid. logit(0) = -Inf and logit(1) = +Inf.
func logit(p float32) float32 {
	return math32.Log(p / (1 - p))
}

// clamp01 maps NaN to 0 so decoded corners always satisfy the [0,1] bound.
func clamp01(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
