package geometry

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/blockmodeler/internal/vec"
	"github.com/annel0/blockmodeler/internal/world/block"
)

func TestCubeCullsMaskedFaces(t *testing.T) {
	polys := Synthesize(block.GeometryCube, block.NoOrientation, 0)
	assert.Len(t, polys, 6, "одиночный куб выводит все грани")

	mask := vec.NeighborMask(0).With(vec.FaceRight)
	polys = Synthesize(block.GeometryCube, block.NoOrientation, mask)
	assert.Len(t, polys, 5)

	mesh := Mesh{Polygons: polys}
	assert.Zero(t, mesh.Count(vec.FaceRight), "грань +x закрыта соседом")
	assert.Equal(t, 1, mesh.Count(vec.FaceLeft))

	assert.Empty(t, Synthesize(block.GeometryCube, block.NoOrientation, vec.FullMask), "полностью окружённый куб невидим")
}

func TestPartialGeometryIgnoresMask(t *testing.T) {
	cases := []struct {
		geometry block.Geometry
		o        block.Orientation
	}{
		{block.GeometrySlab, block.NoOrientation},
		{block.GeometryStairs, block.Facings(block.FacingFront)},
		{block.GeometryBed, block.Facings(block.FacingFront)},
		{block.GeometryDoor, block.Facings(block.FacingFront)},
		{block.GeometryLadder, block.Facings(block.FacingFront)},
		{block.GeometrySkybox, block.NoOrientation},
		{block.GeometrySnow, block.NoOrientation},
		{block.GeometryChest, block.Facings(block.FacingFront)},
		{block.GeometryPressurePlate, block.NoOrientation},
		{block.GeometryLeaves, block.NoOrientation},
		{block.GeometryCactus, block.NoOrientation},
		{block.GeometryTorch, block.Facings(block.FacingLeft)},
		{block.GeometryTrack, block.Facings(block.FacingBack)},
		{block.GeometryFlow, block.Facings(block.FacingTop)},
	}
	for _, tc := range cases {
		open := Synthesize(tc.geometry, tc.o, 0)
		closed := Synthesize(tc.geometry, tc.o, vec.FullMask)
		assert.Equal(t, len(open), len(closed), "%s не должна зависеть от соседей", tc.geometry)
	}
}

func TestCompositeSuppressesInternalFaces(t *testing.T) {
	cases := []struct {
		name     string
		geometry block.Geometry
		o        block.Orientation
		mask     vec.NeighborMask
		want     int
	}{
		{"плита", block.GeometrySlab, block.Facings(block.FacingBottom), 0, 6},
		{"ступени", block.GeometryStairs, block.Facings(block.FacingFront), 0, 14},
		{"угловые ступени", block.GeometryStairs, block.Orientation{Facing: block.FacingFront, Corner: block.CornerFrontLeft}, 0, 20},
		{"дверь", block.GeometryDoor, block.Facings(block.FacingLeft), 0, 10},
		{"кровать", block.GeometryBed, block.Facings(block.FacingBack), 0, 31},
		{"лестница", block.GeometryLadder, block.Facings(block.FacingRight), 0, 24},
		{"забор без соседей", block.GeometryFence, block.NoOrientation, 0, 6},
		{"забор с соседом", block.GeometryFence, block.NoOrientation, vec.NeighborMask(0).With(vec.FaceRight), 16},
		{"внутренний угол ступеней", block.GeometryStairs, block.Orientation{Facing: block.FacingLeft, Corner: block.CornerFrontLeft}, 0, 24},
		{"панель без соседей", block.GeometryPane, block.Facings(block.FacingFront), 0, 6},
		{"панель с соседом", block.GeometryPane, block.Facings(block.FacingFront), vec.NeighborMask(0).With(vec.FaceRight), 10},
		{"панель между соседями", block.GeometryPane, block.Facings(block.FacingFront), vec.NeighborMask(0).With(vec.FaceFront).With(vec.FaceBack), 14},
		{"сундук", block.GeometryChest, block.Facings(block.FacingRight), 0, 6},
		{"факел", block.GeometryTorch, block.Facings(block.FacingBottom), 0, 6},
		{"рельсы", block.GeometryTrack, block.Facings(block.FacingBottom), 0, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			polys := Synthesize(tc.geometry, tc.o, tc.mask)
			assert.Len(t, polys, tc.want)
		})
	}
}

func TestWindingMatchesNormal(t *testing.T) {
	orientations := []block.Orientation{
		block.NoOrientation,
		block.Facings(block.FacingFront),
		block.Facings(block.FacingRight),
		block.Facings(block.FacingBack),
		block.Facings(block.FacingLeft),
		{Facing: block.FacingRight, Corner: block.CornerBackRight},
	}
	geometries := []block.Geometry{
		block.GeometryCube, block.GeometrySlab, block.GeometryStairs, block.GeometryFence,
		block.GeometryBed, block.GeometryDoor, block.GeometryLadder, block.GeometrySkybox,
		block.GeometrySnow, block.GeometryChest, block.GeometryPressurePlate, block.GeometryLeaves,
		block.GeometryCactus, block.GeometryPane, block.GeometryTorch, block.GeometryTrack,
		block.GeometryFlow,
	}

	for _, g := range geometries {
		for _, o := range orientations {
			for _, p := range Synthesize(g, o, vec.NeighborMask(0).With(vec.FaceFront)) {
				e1 := p.Vertices[1].Sub(p.Vertices[0])
				e2 := p.Vertices[2].Sub(p.Vertices[1])
				n := e1.Cross(e2).Normalize()
				assert.True(t, n.ApproxEqualThreshold(p.Normal, 1e-4),
					"%s/%s: обход грани %s не совпадает с нормалью %v", g, o, p.Face, p.Normal)
			}
		}
	}
}

func TestStairsRotation(t *testing.T) {
	polys := Synthesize(block.GeometryStairs, block.Facings(block.FacingRight), 0)
	require.NotEmpty(t, polys)

	for _, p := range polys {
		if p.Face == vec.FaceTop && p.Vertices[0][1] == 1 {
			for _, v := range p.Vertices {
				assert.GreaterOrEqual(t, v[0], float32(0.5), "верхняя ступень должна быть со стороны +x")
			}
		}
		assert.Equal(t, p.Face.RotateY(-1), p.TextureFace)
	}

	mesh := Mesh{Polygons: polys}
	assert.Equal(t, 2, mesh.OnBoundary(vec.FaceRight), "высокая сторона ступеней закрывает грань +x двумя полигонами")
}

func TestStairsCornerDependsOnFacing(t *testing.T) {
	outer := Mesh{Polygons: Synthesize(block.GeometryStairs, block.Orientation{Facing: block.FacingFront, Corner: block.CornerFrontLeft}, 0)}
	inner := Mesh{Polygons: Synthesize(block.GeometryStairs, block.Orientation{Facing: block.FacingLeft, Corner: block.CornerFrontLeft}, 0)}

	assert.Equal(t, 1, topAt(outer, 1), "внешний угол оставляет наверху одну четверть")
	assert.Equal(t, 3, topAt(inner, 1), "внутренний угол заполняет три четверти")

	// Поворот сохраняет тип угла
	rotated := block.Orientation{Facing: block.FacingBack, Corner: block.CornerBackLeft}
	assert.Equal(t, 3, topAt(Mesh{Polygons: Synthesize(block.GeometryStairs, rotated, 0)}, 1))
}

func TestStairsOrientationsAreDistinct(t *testing.T) {
	stairs, ok := block.DefaultCatalog().Lookup("stone_stairs")
	require.True(t, ok)

	for i, a := range stairs.Orientations {
		for _, b := range stairs.Orientations[i+1:] {
			assert.NotEqual(t, Synthesize(block.GeometryStairs, a, 0), Synthesize(block.GeometryStairs, b, 0),
				"%s и %s дают одинаковую геометрию", a, b)
		}
	}
}

func TestSmallShapesExtent(t *testing.T) {
	cases := []struct {
		name     string
		geometry block.Geometry
		o        block.Orientation
		min, max mgl32.Vec3
	}{
		{"снег", block.GeometrySnow, block.NoOrientation, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0.125, 1}},
		{"сундук", block.GeometryChest, block.Facings(block.FacingFront), mgl32.Vec3{0.05, 0, 0.05}, mgl32.Vec3{0.95, 0.9, 0.95}},
		{"нажимная плита", block.GeometryPressurePlate, block.NoOrientation, mgl32.Vec3{0.1, 0, 0.1}, mgl32.Vec3{0.9, 0.05, 0.9}},
		{"факел на полу", block.GeometryTorch, block.Facings(block.FacingBottom), mgl32.Vec3{0.4375, 0, 0.4375}, mgl32.Vec3{0.5625, 0.625, 0.5625}},
		{"факел на стене справа", block.GeometryTorch, block.Facings(block.FacingRight), mgl32.Vec3{0.875, 0.1875, 0.4375}, mgl32.Vec3{1, 0.8125, 0.5625}},
		{"панель поперёк x", block.GeometryPane, block.Facings(block.FacingRight), mgl32.Vec3{0.4375, 0, 0}, mgl32.Vec3{0.5625, 1, 1}},
		{"ровные рельсы", block.GeometryTrack, block.Facings(block.FacingBottom), mgl32.Vec3{0, trackLift, 0}, mgl32.Vec3{1, trackLift, 1}},
		{"подъём рельсов", block.GeometryTrack, block.Facings(block.FacingFront), mgl32.Vec3{0, trackLift, 0}, mgl32.Vec3{1, 1 + trackLift, 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lo, hi := extent(Synthesize(tc.geometry, tc.o, 0))
			assert.True(t, lo.ApproxEqualThreshold(tc.min, 1e-5), "минимум %v", lo)
			assert.True(t, hi.ApproxEqualThreshold(tc.max, 1e-5), "максимум %v", hi)
		})
	}
}

func TestTrackRampRisesTowardFacing(t *testing.T) {
	polys := Synthesize(block.GeometryTrack, block.Facings(block.FacingRight), 0)
	require.Len(t, polys, 2)

	for _, v := range polys[0].Vertices {
		if v[0] == 1 {
			assert.InDelta(t, 1+trackLift, v[1], 1e-6, "край со стороны +x поднят")
		} else {
			assert.InDelta(t, trackLift, v[1], 1e-6)
		}
	}
	assert.Greater(t, polys[0].Normal[1], float32(0))
	assert.True(t, polys[1].Normal.ApproxEqual(polys[0].Normal.Mul(-1)), "рельс виден с обеих сторон")
}

func TestLeavesNeverCull(t *testing.T) {
	assert.Len(t, Synthesize(block.GeometryLeaves, block.NoOrientation, vec.FullMask), 6)
}

func TestCactusSidesInset(t *testing.T) {
	polys := Synthesize(block.GeometryCactus, block.NoOrientation, vec.FullMask)
	require.Len(t, polys, 6)

	for _, p := range polys {
		plane, _ := NewBox(0, 0, 0, 1, 1, 1).faceRect(p.Face)
		axis := 1
		switch p.Face {
		case vec.FaceFront, vec.FaceBack:
			axis = 2
		case vec.FaceRight, vec.FaceLeft:
			axis = 0
		}
		got := p.Vertices[0][axis]
		if p.Face.Horizontal() {
			assert.InDelta(t, plane-Normal(p.Face)[axis]*cactusInset, got, 1e-6, "грань %s утоплена", p.Face)
		} else {
			assert.InDelta(t, plane, got, 1e-6, "грань %s на месте", p.Face)
		}
	}
}

func TestFlowHeightFollowsLevel(t *testing.T) {
	water, ok := block.DefaultCatalog().Lookup("water")
	require.True(t, ok)
	n := len(water.Orientations)

	for i, o := range water.Orientations {
		mesh := Build(vec.Vec3{}, water, o, 0)
		_, hi := extent(mesh.Polygons)
		assert.InDelta(t, 1-float32(i+1)/float32(n+1), hi[1], 1e-5, "уровень %s", o)
	}
}

func topAt(m Mesh, y float32) int {
	n := 0
	for _, p := range m.Polygons {
		if p.Face == vec.FaceTop && p.Vertices[0][1] == y {
			n++
		}
	}
	return n
}

func extent(polys []Polygon) (lo, hi mgl32.Vec3) {
	lo = mgl32.Vec3{2, 2, 2}
	hi = mgl32.Vec3{-1, -1, -1}
	for _, p := range polys {
		for _, v := range p.Vertices {
			for i := range v {
				lo[i] = min32(lo[i], v[i])
				hi[i] = max32(hi[i], v[i])
			}
		}
	}
	return lo, hi
}

func TestBoxRotateY(t *testing.T) {
	b := NewBox(0, 0, 0.5, 0.5, 1, 1)
	r := b.RotateY(1)
	assert.Equal(t, NewBox(0.5, 0, 0.5, 1, 1, 1), r)
	assert.Equal(t, b, b.RotateY(4))
	assert.InDelta(t, b.Volume(), r.Volume(), 1e-6)
}

func TestSkyboxFacesInward(t *testing.T) {
	polys := Synthesize(block.GeometrySkybox, block.NoOrientation, vec.FullMask)
	require.Len(t, polys, 6)
	for _, p := range polys {
		assert.True(t, p.Normal.ApproxEqual(Normal(p.Face).Mul(-1)))
	}
}

func TestBuildSetsOrigin(t *testing.T) {
	props := &block.Properties{ID: 1, Name: "stone", Geometry: block.GeometryCube, Occludes: true}
	mesh := Build(vec.Vec3{X: 3, Y: 1, Z: 2}, props, block.NoOrientation, 0)
	assert.Equal(t, vec.Vec3{X: 3, Y: 1, Z: 2}, mesh.Origin)
	assert.Len(t, mesh.World(), 6)
	assert.True(t, Build(vec.Vec3{}, nil, block.NoOrientation, 0).Empty())
}
