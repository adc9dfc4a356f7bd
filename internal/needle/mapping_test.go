package needle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapToOutputCode_Endpoints(t *testing.T) {
	const rangeFt = 8.0

	assert.Equal(t, CodeMin, MapToOutputCode(-rangeFt, rangeFt))
	assert.Equal(t, CodeCenter, MapToOutputCode(0, rangeFt))
	assert.Equal(t, CodeMax, MapToOutputCode(rangeFt, rangeFt))
}

func TestMapToOutputCode_ClampsBeyondRange(t *testing.T) {
	assert.Equal(t, CodeMax, MapToOutputCode(20, 8))
	assert.Equal(t, CodeMin, MapToOutputCode(-20, 8))
	assert.Equal(t, CodeMax, MapToOutputCode(math.Inf(1), 8))
	assert.Equal(t, CodeMin, MapToOutputCode(math.Inf(-1), 8))
}

func TestMapToOutputCode_DegenerateInputsCenter(t *testing.T) {
	assert.Equal(t, CodeCenter, MapToOutputCode(math.NaN(), 8))
	assert.Equal(t, CodeCenter, MapToOutputCode(3, 0))
	assert.Equal(t, CodeCenter, MapToOutputCode(3, -1))
}

func TestMapToOutputCode_Monotonic(t *testing.T) {
	const rangeFt = 8.0
	prev := MapToOutputCode(-rangeFt-1, rangeFt)
	for d := -rangeFt - 1; d <= rangeFt+1; d += 0.01 {
		code := MapToOutputCode(d, rangeFt)
		assert.GreaterOrEqual(t, code, prev, "delta %.2f", d)
		prev = code
	}
}

func TestMapToOutputCode_Symmetric(t *testing.T) {
	// Codes for +d and -d sit either side of 127.5.
	for _, d := range []float64{0.5, 1, 2.25, 4, 7.9} {
		hi := int(MapToOutputCode(d, 8))
		lo := int(MapToOutputCode(-d, 8))
		assert.Equal(t, 255, hi+lo, "delta %v", d)
	}
}

func TestMapToOutputCode_PortTownsendExample(t *testing.T) {
	// 10.02 ft against an MSL of 8.35 ft.
	assert.Equal(t, uint8(154), MapToOutputCode(10.02-8.35, 8))
}
