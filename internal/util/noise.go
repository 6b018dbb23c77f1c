package util

import (
	"math"

	"github.com/aquilax/go-perlin"
)

// HeightField - карта высот на основе шума Перлина.
// Один экземпляр детерминирован для заданного сида.
type HeightField struct {
	noise *perlin.Perlin
	scale float64
}

// NewHeightField создаёт карту высот. scale - частота выборки шума на одну ячейку.
func NewHeightField(seed int64, scale float64) *HeightField {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	if scale <= 0 {
		scale = 0.1
	}
	return &HeightField{
		noise: perlin.NewPerlin(alpha, beta, n, seed),
		scale: scale,
	}
}

// Sample возвращает значение шума для ячейки (x, z) в диапазоне от 0 до 1
func (h *HeightField) Sample(x, z int) float64 {
	// Значение шума от -1 до 1
	v := h.noise.Noise2D(float64(x)*h.scale, float64(z)*h.scale)
	return math.Max(0, math.Min(1, (v+1.0)/2.0))
}

// Height возвращает высоту столбца (x, z) от 1 до max включительно.
// Для max <= 0 столбец пуст.
func (h *HeightField) Height(x, z, max int) int {
	switch {
	case max <= 0:
		return 0
	case max == 1:
		return 1
	}
	return 1 + int(math.Round(h.Sample(x, z)*float64(max-1)))
}
