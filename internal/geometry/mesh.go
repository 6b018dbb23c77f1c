package geometry

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/blockmodeler/internal/vec"
)

// Polygon - ориентированный четырёхугольник, готовый для внешнего рендерера.
// Вершины заданы смещениями внутри ячейки и перечислены против часовой стрелки
// при взгляде со стороны нормали.
type Polygon struct {
	Face        vec.Face      `json:"face"`         // грань в мировых осях
	TextureFace vec.Face      `json:"texture_face"` // грань до поворота, по ней выбирается текстура
	Normal      mgl32.Vec3    `json:"normal"`
	Vertices    [4]mgl32.Vec3 `json:"vertices"`
}

// Mesh - набор полигонов одной позиции
type Mesh struct {
	Origin   vec.Vec3  `json:"origin"`
	Polygons []Polygon `json:"polygons"`
}

// Empty возвращает true, если у сетки нет полигонов
func (m Mesh) Empty() bool {
	return len(m.Polygons) == 0
}

// Count возвращает число полигонов, обращённых к грани face
func (m Mesh) Count(face vec.Face) int {
	n := 0
	for _, p := range m.Polygons {
		if p.Face == face {
			n++
		}
	}
	return n
}

// OnBoundary возвращает число полигонов, лежащих на граничной плоскости ячейки face
// и обращённых наружу. Именно эти полигоны скрываются перекрывающим соседом.
func (m Mesh) OnBoundary(face vec.Face) int {
	n := 0
	for _, p := range m.Polygons {
		if p.Face != face || !p.Normal.ApproxEqual(Normal(face)) {
			continue
		}
		plane, _ := UnitBox.faceRect(face)
		axis := axisOf(face)
		if p.Vertices[0][axis] == plane {
			n++
		}
	}
	return n
}

// World возвращает вершины полигонов в мировых координатах
func (m Mesh) World() [][4]mgl32.Vec3 {
	origin := mgl32.Vec3{float32(m.Origin.X), float32(m.Origin.Y), float32(m.Origin.Z)}
	out := make([][4]mgl32.Vec3, len(m.Polygons))
	for i, p := range m.Polygons {
		for j, v := range p.Vertices {
			out[i][j] = v.Add(origin)
		}
	}
	return out
}

func axisOf(f vec.Face) int {
	switch f {
	case vec.FaceRight, vec.FaceLeft:
		return 0
	case vec.FaceTop, vec.FaceBottom:
		return 1
	default:
		return 2
	}
}
