package vectormap

import "fmt"

// Diverging ramp stops. Cold extreme, neutral midpoint, warm extreme; the
// same delta always maps to the same color across cities and cycles.
var (
	rampCold    = [3]uint8{0x21, 0x66, 0xac}
	rampNeutral = [3]uint8{0xf7, 0xf7, 0xf7}
	rampWarm    = [3]uint8{0xb2, 0x18, 0x2b}
)

// rampColor interpolates the diverging ramp at position pos in [0,1], with
// the neutral stop at neutralPos. For two-sided metrics the neutral sits at
// 0.5; for one-sided snow it sits at 0, leaving only the warm half.
func rampColor(pos, neutralPos float64) string {
	pos = clamp01(pos)
	neutralPos = clamp01(neutralPos)

	switch {
	case pos <= neutralPos:
		t := 1.0
		if neutralPos > 0 {
			t = pos / neutralPos
		}
		return lerpHex(rampCold, rampNeutral, t)
	default:
		t := 1.0
		if neutralPos < 1 {
			t = (pos - neutralPos) / (1 - neutralPos)
		}
		return lerpHex(rampNeutral, rampWarm, t)
	}
}

func lerpHex(from, to [3]uint8, t float64) string {
	t = clamp01(t)
	var out [3]uint8
	for i := range out {
		out[i] = uint8(float64(from[i]) + (float64(to[i])-float64(from[i]))*t + 0.5)
	}
	return fmt.Sprintf("#%02x%02x%02x", out[0], out[1], out[2])
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
