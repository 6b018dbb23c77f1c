package geometry

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/blockmodeler/internal/vec"
	"github.com/annel0/blockmodeler/internal/world/block"
)

// Synthesize строит полигоны блока семейства g в ориентации o.
// mask задаёт соседей, перекрывающих грани ячейки, в мировых осях.
// Полный куб не выводит грани, закрытые соседями; частичные формы выводят все
// внешние грани, но подавляют грани, общие для их собственных боксов.
func Synthesize(g block.Geometry, o block.Orientation, mask vec.NeighborMask) []Polygon {
	switch g {
	case block.GeometryCube:
		return cube(o, mask)
	case block.GeometrySlab:
		return composite(slabBoxes(o), 0)
	case block.GeometryStairs:
		return composite(stairsBoxes(o), int(o.Quarter()))
	case block.GeometryFence:
		return composite(fenceBoxes(mask), 0)
	case block.GeometryBed:
		return composite(bedBoxes(), int(o.Quarter()))
	case block.GeometryDoor:
		return composite(doorBoxes(), int(o.Quarter()))
	case block.GeometryLadder:
		return composite(ladderBoxes(), int(o.Quarter()))
	case block.GeometrySkybox:
		return skybox()
	case block.GeometrySnow:
		return composite([]Box{snowBox}, 0)
	case block.GeometryChest:
		return composite([]Box{chestBox}, int(o.Quarter()))
	case block.GeometryPressurePlate:
		return composite([]Box{plateBox}, 0)
	case block.GeometryLeaves:
		return cube(o, 0)
	case block.GeometryCactus:
		return cactus()
	case block.GeometryPane:
		return composite(paneBoxes(o, mask), 0)
	case block.GeometryTorch:
		return composite(torchBoxes(o), int(o.Quarter()))
	case block.GeometryTrack:
		return track(o)
	case block.GeometryFlow:
		// без каталога уровень неизвестен, поток занимает половину ячейки
		return composite(flowBoxes(0, 1), 0)
	}
	return nil
}

// Build строит сетку для блока в позиции pos
func Build(pos vec.Vec3, props *block.Properties, o block.Orientation, mask vec.NeighborMask) Mesh {
	mesh := Mesh{Origin: pos}
	if props == nil {
		return mesh
	}
	if props.Geometry == block.GeometryFlow {
		mesh.Polygons = composite(flowBoxes(props.Level(o)), 0)
		return mesh
	}
	mesh.Polygons = Synthesize(props.Geometry, o, mask)
	return mesh
}

func cube(o block.Orientation, mask vec.NeighborMask) []Polygon {
	q := int(o.Quarter())
	out := make([]Polygon, 0, vec.FaceCount)
	for _, f := range vec.AllFaces {
		if mask.Has(f) {
			continue
		}
		out = append(out, polygon(UnitBox, f, q))
	}
	return out
}

// composite поворачивает локальные боксы на q четвертей и собирает их внешние грани.
// Грань бокса пропускается, если она целиком лежит на противоположной грани другого бокса.
func composite(local []Box, q int) []Polygon {
	boxes := make([]Box, len(local))
	for i, b := range local {
		boxes[i] = b.RotateY(q)
	}

	out := make([]Polygon, 0, len(boxes)*vec.FaceCount)
	for i, b := range boxes {
		for _, f := range vec.AllFaces {
			if covered(boxes, i, f) {
				continue
			}
			out = append(out, polygon(b, f, q))
		}
	}
	return out
}

func covered(boxes []Box, i int, f vec.Face) bool {
	plane, r := boxes[i].faceRect(f)
	for j, other := range boxes {
		if j == i {
			continue
		}
		otherPlane, or := other.faceRect(f.Opposite())
		if otherPlane != plane {
			continue
		}
		if r[0] >= or[0] && r[1] <= or[1] && r[2] >= or[2] && r[3] <= or[3] {
			return true
		}
	}
	return false
}

func polygon(b Box, f vec.Face, q int) Polygon {
	return Polygon{
		Face:        f,
		TextureFace: f.RotateY(-q),
		Normal:      Normal(f),
		Vertices:    b.quad(f),
	}
}

func slabBoxes(o block.Orientation) []Box {
	if o.Facing == block.FacingTop {
		return []Box{NewBox(0, 0.5, 0, 1, 1, 1)}
	}
	return []Box{NewBox(0, 0, 0, 1, 0.5, 1)}
}

// stairsBoxes возвращает ступени в базовой ориентации: верхняя ступень со стороны +Z.
// Угловые ступени строятся для угла front-left: внешний угол оставляет наверху одну
// четверть, внутренний заполняет три.
func stairsBoxes(o block.Orientation) []Box {
	if o.Corner == block.CornerNone {
		return []Box{
			NewBox(0, 0, 0, 1, 0.5, 0.5),
			NewBox(0, 0, 0.5, 1, 0.5, 1),
			NewBox(0, 0.5, 0.5, 1, 1, 1),
		}
	}
	boxes := []Box{
		NewBox(0, 0, 0, 0.5, 0.5, 0.5),
		NewBox(0.5, 0, 0, 1, 0.5, 0.5),
		NewBox(0, 0, 0.5, 0.5, 0.5, 1),
		NewBox(0.5, 0, 0.5, 1, 0.5, 1),
		NewBox(0, 0.5, 0.5, 0.5, 1, 1),
	}
	if innerCorner(o) {
		boxes = append(boxes,
			NewBox(0.5, 0.5, 0.5, 1, 1, 1),
			NewBox(0, 0.5, 0, 0.5, 1, 0.5),
		)
	}
	return boxes
}

// innerCorner возвращает true, если ступени смотрят в боковую сторону угла.
// Для "front/front-left" угол внешний, для "left/front-left" внутренний.
func innerCorner(o block.Orientation) bool {
	return o.Facing != block.FacingFront.Rotate(o.Corner.Quarter())
}

// Боковые стороны в порядке поворота от +Z
var sides = [4]vec.Face{vec.FaceFront, vec.FaceRight, vec.FaceBack, vec.FaceLeft}

var (
	fencePost  = NewBox(0.375, 0, 0.375, 0.625, 1, 0.625)
	fenceRails = []Box{
		NewBox(0.4375, 0.375, 0.625, 0.5625, 0.5625, 1),
		NewBox(0.4375, 0.75, 0.625, 0.5625, 0.9375, 1),
	}
)

// fenceBoxes строит столб и перекладины к соседям из маски
func fenceBoxes(mask vec.NeighborMask) []Box {
	boxes := []Box{fencePost}
	for q, f := range sides {
		if !mask.Has(f) {
			continue
		}
		for _, rail := range fenceRails {
			boxes = append(boxes, rail.RotateY(q))
		}
	}
	return boxes
}

func bedBoxes() []Box {
	const leg = 0.1875
	return []Box{
		NewBox(0, leg, 0, 1, 0.5625, 1),
		NewBox(0, 0, 0, leg, leg, leg),
		NewBox(1-leg, 0, 0, 1, leg, leg),
		NewBox(0, 0, 1-leg, leg, leg, 1),
		NewBox(1-leg, 0, 1-leg, 1, leg, 1),
		// изголовье
		NewBox(0, 0.5625, 0, 1, 1, 0.125),
	}
}

func doorBoxes() []Box {
	const thickness = 0.1875
	return []Box{
		NewBox(0, 0, 0, 1, 0.5, thickness),
		NewBox(0, 0.5, 0, 1, 1, thickness),
	}
}

func ladderBoxes() []Box {
	boxes := []Box{
		NewBox(0.125, 0, 0, 0.25, 1, 0.125),
		NewBox(0.75, 0, 0, 0.875, 1, 0.125),
	}
	for _, y := range []float32{0.1875, 0.5, 0.8125} {
		boxes = append(boxes, NewBox(0.25, y, 0.03125, 0.75, y+0.0625, 0.09375))
	}
	return boxes
}

var (
	snowBox  = NewBox(0, 0, 0, 1, 0.125, 1)
	chestBox = NewBox(0.05, 0, 0.05, 0.95, 0.9, 0.95)
	plateBox = NewBox(0.1, 0, 0.1, 0.9, 0.05, 0.9)
)

const (
	paneMin = 0.4375
	paneMax = 0.5625
)

var (
	panePost = NewBox(paneMin, 0, paneMin, paneMax, 1, paneMax)
	paneHalf = NewBox(paneMin, 0, paneMax, paneMax, 1, 1)
)

// paneBoxes строит стекло панели. Без соседей панель занимает всю ширину ячейки
// поперёк направления; с соседями из маски к каждому тянется половина.
func paneBoxes(o block.Orientation, mask vec.NeighborMask) []Box {
	var boxes []Box
	for q, f := range sides {
		if mask.Has(f) {
			boxes = append(boxes, paneHalf.RotateY(q))
		}
	}
	if len(boxes) == 0 {
		return []Box{NewBox(0, 0, paneMin, 1, 1, paneMax).RotateY(int(o.Quarter()))}
	}
	return append(boxes, panePost)
}

// torchBoxes возвращает факел на полу или, для бокового направления, на стене со стороны +Z
func torchBoxes(o block.Orientation) []Box {
	if o.Facing.Horizontal() {
		return []Box{NewBox(0.4375, 0.1875, 0.875, 0.5625, 0.8125, 1)}
	}
	return []Box{NewBox(0.4375, 0, 0.4375, 0.5625, 0.625, 0.5625)}
}

// Высота рельса над полом ячейки
const trackLift = 1.0 / 256

// track строит двусторонний рельс. Боковое направление поднимает край рельса
// с этой стороны на высоту ячейки.
func track(o block.Orientation) []Polygon {
	low, high := float32(trackLift), float32(trackLift)
	q := 0
	if o.Facing.Horizontal() {
		high = 1 + trackLift
		q = int(o.Quarter())
	}

	top := [4]mgl32.Vec3{{0, high, 1}, {1, high, 1}, {1, low, 0}, {0, low, 0}}
	for i := range top {
		top[i] = rotatePoint(top[i], q)
	}
	n := surfaceNormal(top)
	return []Polygon{
		{Face: vec.FaceTop, TextureFace: vec.FaceTop, Normal: n, Vertices: top},
		{Face: vec.FaceBottom, TextureFace: vec.FaceBottom, Normal: n.Mul(-1), Vertices: [4]mgl32.Vec3{top[0], top[3], top[2], top[1]}},
	}
}

// flowBoxes возвращает жидкость уровня index из count: от почти полной ячейки до тонкого слоя
func flowBoxes(index, count int) []Box {
	if count < 1 {
		count = 1
	}
	h := 1 - float32(index+1)/float32(count+1)
	return []Box{NewBox(0, 0, 0, 1, h, 1)}
}

// Боковые грани кактуса утоплены в ячейку
const cactusInset = 1.0 / 16

func cactus() []Polygon {
	out := make([]Polygon, 0, vec.FaceCount)
	for _, f := range vec.AllFaces {
		p := polygon(UnitBox, f, 0)
		if f.Horizontal() {
			shift := p.Normal.Mul(-cactusInset)
			for i := range p.Vertices {
				p.Vertices[i] = p.Vertices[i].Add(shift)
			}
		}
		out = append(out, p)
	}
	return out
}

func surfaceNormal(v [4]mgl32.Vec3) mgl32.Vec3 {
	return v[1].Sub(v[0]).Cross(v[2].Sub(v[1])).Normalize()
}

// skybox выводит все грани ячейки нормалями внутрь; соседи на них не влияют
func skybox() []Polygon {
	out := make([]Polygon, 0, vec.FaceCount)
	for _, f := range vec.AllFaces {
		v := UnitBox.quad(f)
		out = append(out, Polygon{
			Face:        f,
			TextureFace: f,
			Normal:      Normal(f).Mul(-1),
			Vertices:    [4]mgl32.Vec3{v[0], v[3], v[2], v[1]},
		})
	}
	return out
}
