package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/blockmodeler/internal/vec"
)

// Шаг сетки, к которому привязываются вершины после поворота
const snapGrid = 4096

// Box - выровненный по осям параллелепипед в координатах ячейки [0, 1]³
type Box struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// NewBox создаёт бокс по двум углам
func NewBox(x0, y0, z0, x1, y1, z1 float32) Box {
	return Box{
		Min: mgl32.Vec3{x0, y0, z0},
		Max: mgl32.Vec3{x1, y1, z1},
	}
}

// UnitBox - бокс, занимающий всю ячейку
var UnitBox = NewBox(0, 0, 0, 1, 1, 1)

var cellCenter = mgl32.Vec3{0.5, 0, 0.5}

// RotateY поворачивает бокс вокруг вертикальной оси, проходящей через центр ячейки.
// Поворот на четверть оборота переводит +Z в +X.
func (b Box) RotateY(quarters int) Box {
	q := ((quarters % 4) + 4) % 4
	if q == 0 {
		return b
	}

	p0 := rotatePoint(b.Min, q)
	p1 := rotatePoint(b.Max, q)

	return Box{
		Min: mgl32.Vec3{min32(p0[0], p1[0]), min32(p0[1], p1[1]), min32(p0[2], p1[2])},
		Max: mgl32.Vec3{max32(p0[0], p1[0]), max32(p0[1], p1[1]), max32(p0[2], p1[2])},
	}
}

// rotatePoint поворачивает точку ячейки на q четвертей вокруг вертикальной оси через центр
func rotatePoint(v mgl32.Vec3, q int) mgl32.Vec3 {
	m := mgl32.Rotate3DY(mgl32.DegToRad(float32(q) * 90))
	return snap(m.Mul3x1(v.Sub(cellCenter)).Add(cellCenter))
}

// Volume возвращает объём бокса
func (b Box) Volume() float32 {
	d := b.Max.Sub(b.Min)
	return d[0] * d[1] * d[2]
}

// faceRect возвращает плоскость грани и её прямоугольник в двух других осях
func (b Box) faceRect(f vec.Face) (plane float32, rect [4]float32) {
	switch f {
	case vec.FaceFront:
		return b.Max[2], [4]float32{b.Min[0], b.Max[0], b.Min[1], b.Max[1]}
	case vec.FaceBack:
		return b.Min[2], [4]float32{b.Min[0], b.Max[0], b.Min[1], b.Max[1]}
	case vec.FaceRight:
		return b.Max[0], [4]float32{b.Min[2], b.Max[2], b.Min[1], b.Max[1]}
	case vec.FaceLeft:
		return b.Min[0], [4]float32{b.Min[2], b.Max[2], b.Min[1], b.Max[1]}
	case vec.FaceTop:
		return b.Max[1], [4]float32{b.Min[0], b.Max[0], b.Min[2], b.Max[2]}
	default:
		return b.Min[1], [4]float32{b.Min[0], b.Max[0], b.Min[2], b.Max[2]}
	}
}

// quad возвращает вершины грани против часовой стрелки при взгляде снаружи,
// начиная с нижнего левого угла
func (b Box) quad(f vec.Face) [4]mgl32.Vec3 {
	x0, y0, z0 := b.Min[0], b.Min[1], b.Min[2]
	x1, y1, z1 := b.Max[0], b.Max[1], b.Max[2]

	switch f {
	case vec.FaceFront:
		return [4]mgl32.Vec3{{x0, y0, z1}, {x1, y0, z1}, {x1, y1, z1}, {x0, y1, z1}}
	case vec.FaceBack:
		return [4]mgl32.Vec3{{x1, y0, z0}, {x0, y0, z0}, {x0, y1, z0}, {x1, y1, z0}}
	case vec.FaceRight:
		return [4]mgl32.Vec3{{x1, y0, z1}, {x1, y0, z0}, {x1, y1, z0}, {x1, y1, z1}}
	case vec.FaceLeft:
		return [4]mgl32.Vec3{{x0, y0, z0}, {x0, y0, z1}, {x0, y1, z1}, {x0, y1, z0}}
	case vec.FaceTop:
		return [4]mgl32.Vec3{{x0, y1, z1}, {x1, y1, z1}, {x1, y1, z0}, {x0, y1, z0}}
	default:
		return [4]mgl32.Vec3{{x0, y0, z0}, {x1, y0, z0}, {x1, y0, z1}, {x0, y0, z1}}
	}
}

// Normal возвращает внешнюю нормаль грани
func Normal(f vec.Face) mgl32.Vec3 {
	o := f.Offset()
	return mgl32.Vec3{float32(o.X), float32(o.Y), float32(o.Z)}
}

func snap(v mgl32.Vec3) mgl32.Vec3 {
	for i := range v {
		v[i] = float32(math.Round(float64(v[i])*snapGrid) / snapGrid)
	}
	return v
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
