package vec

import "fmt"

// Bounds описывает полуоткрытый параллелепипед [Min, Max) допустимых позиций мира.
type Bounds struct {
	Min Vec3 `json:"min" yaml:"min"`
	Max Vec3 `json:"max" yaml:"max"`
}

// NewBounds создаёт границы [min, max)
func NewBounds(min, max Vec3) Bounds {
	return Bounds{Min: min, Max: max}
}

// Cube создаёт границы [0, size)³
func Cube(size int) Bounds {
	return Bounds{Max: Vec3{X: size, Y: size, Z: size}}
}

// Contains проверяет, лежит ли позиция внутри границ
func (b Bounds) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X < b.Max.X &&
		p.Y >= b.Min.Y && p.Y < b.Max.Y &&
		p.Z >= b.Min.Z && p.Z < b.Max.Z
}

// Empty возвращает true, если в границах нет ни одной позиции
func (b Bounds) Empty() bool {
	return b.Max.X <= b.Min.X || b.Max.Y <= b.Min.Y || b.Max.Z <= b.Min.Z
}

// Volume возвращает количество позиций внутри границ
func (b Bounds) Volume() int {
	if b.Empty() {
		return 0
	}
	return (b.Max.X - b.Min.X) * (b.Max.Y - b.Min.Y) * (b.Max.Z - b.Min.Z)
}

// String возвращает границы в виде "[min, max)"
func (b Bounds) String() string {
	return fmt.Sprintf("[%s, %s)", b.Min, b.Max)
}
