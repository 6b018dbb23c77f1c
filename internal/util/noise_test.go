package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeightField_Deterministic(t *testing.T) {
	a := NewHeightField(42, 0.1)
	b := NewHeightField(42, 0.1)

	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			assert.Equal(t, a.Sample(x, z), b.Sample(x, z))
		}
	}
}

func TestHeightField_Range(t *testing.T) {
	h := NewHeightField(7, 0.05)
	for x := -20; x < 20; x++ {
		for z := -20; z < 20; z++ {
			s := h.Sample(x, z)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)

			height := h.Height(x, z, 6)
			assert.GreaterOrEqual(t, height, 1)
			assert.LessOrEqual(t, height, 6)
		}
	}
	assert.Equal(t, 1, h.Height(3, 3, 1))
}

func TestHeightField_EmptyRange(t *testing.T) {
	h := NewHeightField(7, 0.05)
	assert.Zero(t, h.Height(3, 3, 0), "пустой диапазон не даёт столбца")
	assert.Zero(t, h.Height(3, 3, -4))
}
