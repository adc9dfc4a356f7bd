package needle

import (
	"math"

	"github.com/i474232898/tide-gauge/internal/common"
)

const (
	// CodeMin is full negative deflection.
	CodeMin uint8 = 0
	// CodeCenter is the needle at mean sea level.
	CodeCenter uint8 = 128
	// CodeMax is full positive deflection.
	CodeMax uint8 = 255
)

// MapToOutputCode converts a tide delta from mean sea level into an 8-bit
// output code. The delta is clamped to [-rangeFt, +rangeFt] and mapped
// linearly so that -range gives 0, zero gives 128 and +range gives 255.
// A non-positive range or a NaN delta yields the center code.
func MapToOutputCode(deltaFt, rangeFt float64) uint8 {
	if math.IsNaN(deltaFt) || math.IsNaN(rangeFt) || rangeFt <= 0 {
		return CodeCenter
	}
	n := common.Clamp(deltaFt, -rangeFt, rangeFt) / rangeFt
	code := math.Round(127.5 * (n + 1))
	return uint8(common.Clamp(code, float64(CodeMin), float64(CodeMax)))
}
