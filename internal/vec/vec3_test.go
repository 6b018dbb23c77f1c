package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundsContains(t *testing.T) {
	b := Cube(10)

	assert.True(t, b.Contains(Vec3{X: 0, Y: 0, Z: 0}), "начало координат внутри")
	assert.True(t, b.Contains(Vec3{X: 9, Y: 9, Z: 9}), "последняя ячейка внутри")
	assert.False(t, b.Contains(Vec3{X: 10, Y: 0, Z: 0}), "верхняя граница не включается")
	assert.False(t, b.Contains(Vec3{X: 0, Y: -1, Z: 0}), "отрицательные координаты вне границ")
	assert.Equal(t, 1000, b.Volume())
	assert.False(t, b.Empty())
	assert.True(t, Bounds{}.Empty())
}

func TestFaceOffsetsAndOpposites(t *testing.T) {
	for _, f := range AllFaces {
		sum := f.Offset().Add(f.Opposite().Offset())
		assert.Equal(t, Vec3{}, sum, "смещения грани %s и противоположной должны гаситься", f)
		assert.Equal(t, f, f.Opposite().Opposite())
	}

	p := Vec3{X: 1, Y: 0, Z: 0}
	assert.Equal(t, Vec3{X: 2, Y: 0, Z: 0}, p.Neighbor(FaceRight))
	assert.Equal(t, Vec3{X: 1, Y: 0, Z: 1}, p.Neighbor(FaceFront))
	assert.Equal(t, Vec3{X: 1, Y: 1, Z: 0}, p.Neighbors()[FaceTop])
}

func TestFaceBitsAreDistinct(t *testing.T) {
	var mask uint8
	for _, f := range AllFaces {
		assert.Zero(t, mask&f.Bit(), "бит грани %s уже занят", f)
		mask |= f.Bit()
	}
	assert.Equal(t, uint8(0x3F), mask)
}

func TestParseFace(t *testing.T) {
	f, ok := ParseFace("right")
	assert.True(t, ok)
	assert.Equal(t, FaceRight, f)

	_, ok = ParseFace("north")
	assert.False(t, ok)
}

func TestVec3Less(t *testing.T) {
	a := Vec3{X: 5, Y: 0, Z: 0}
	b := Vec3{X: 0, Y: 1, Z: 0}
	assert.True(t, a.Less(b), "уровень Y сравнивается первым")
	assert.False(t, b.Less(a))
	assert.False(t, a.Less(a))
}

func TestFaceRotateY(t *testing.T) {
	assert.Equal(t, FaceRight, FaceFront.RotateY(1))
	assert.Equal(t, FaceBack, FaceFront.RotateY(2))
	assert.Equal(t, FaceLeft, FaceFront.RotateY(3))
	assert.Equal(t, FaceFront, FaceFront.RotateY(4), "четыре поворота возвращают исходную грань")
	assert.Equal(t, FaceLeft, FaceFront.RotateY(-1))
	assert.Equal(t, FaceTop, FaceTop.RotateY(1), "верх не поворачивается вокруг Y")
	assert.Equal(t, FaceBottom, FaceBottom.RotateY(3))
}

func TestNeighborMask(t *testing.T) {
	var m NeighborMask
	assert.False(t, m.Has(FaceRight))

	m = m.With(FaceRight).With(FaceTop)
	assert.True(t, m.Has(FaceRight))
	assert.True(t, m.Has(FaceTop))
	assert.Equal(t, []Face{FaceRight, FaceTop}, m.Faces())

	m = m.Without(FaceRight)
	assert.False(t, m.Has(FaceRight))
	assert.Equal(t, NeighborMask(0x3F), FullMask)
}
