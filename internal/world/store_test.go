package world

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annel0/blockmodeler/internal/vec"
	"github.com/annel0/blockmodeler/internal/world/block"
)

const (
	stoneID  block.BlockID = 1
	glassID  block.BlockID = 5
	logID    block.BlockID = 6
	slabID   block.BlockID = 10
	stairsID block.BlockID = 11
	fenceID  block.BlockID = 12
	doorID   block.BlockID = 14
	leavesID block.BlockID = 19
)

func TestStore_PutGetErase(t *testing.T) {
	s := NewStore(block.DefaultCatalog().Occludes)
	pos := vec.Vec3{X: 1, Y: 2, Z: 3}

	assert.True(t, s.Get(pos).Empty(), "новая позиция должна быть пустой")
	assert.False(t, s.Has(pos))

	prev := s.Put(NewBlock(pos, stoneID, block.NoOrientation))
	assert.True(t, prev.Empty(), "вытеснена пустая ячейка")
	assert.Equal(t, stoneID, s.Get(pos).ID)

	prev = s.Put(NewBlock(pos, glassID, block.NoOrientation))
	assert.Equal(t, stoneID, prev.ID, "Put возвращает вытесненный блок")
	assert.Equal(t, 1, s.Len(), "в позиции не больше одного блока")

	prev = s.Erase(pos)
	assert.Equal(t, glassID, prev.ID)
	assert.Zero(t, s.Len())
	assert.True(t, s.Erase(pos).Empty(), "повторное удаление возвращает пустую ячейку")
}

func TestStore_PutEmptyErases(t *testing.T) {
	s := NewStore(nil)
	pos := vec.Vec3{X: 4}
	s.Put(NewBlock(pos, stoneID, block.NoOrientation))
	s.Put(EmptyAt(pos))
	assert.False(t, s.Has(pos))
}

func TestStore_NeighborMask(t *testing.T) {
	s := NewStore(block.DefaultCatalog().Occludes)
	center := vec.Vec3{X: 5, Y: 5, Z: 5}

	s.Put(NewBlock(center.Neighbor(vec.FaceRight), stoneID, block.NoOrientation))
	s.Put(NewBlock(center.Neighbor(vec.FaceTop), stoneID, block.NoOrientation))
	s.Put(NewBlock(center.Neighbor(vec.FaceLeft), glassID, block.NoOrientation))
	s.Put(NewBlock(center.Neighbor(vec.FaceFront), stairsID, block.Facings(block.FacingFront)))

	mask := s.NeighborMask(center)
	assert.True(t, mask.Has(vec.FaceRight))
	assert.True(t, mask.Has(vec.FaceTop))
	assert.False(t, mask.Has(vec.FaceLeft), "стекло не перекрывает")
	assert.False(t, mask.Has(vec.FaceFront), "ступени не перекрывают")
	assert.False(t, mask.Has(vec.FaceBottom))
}

func TestStore_SameNeighbors(t *testing.T) {
	catalog := block.DefaultCatalog()
	s := NewStore(catalog.Occludes)
	center := vec.Vec3{X: 5, Y: 5, Z: 5}
	s.Put(NewBlock(center, glassID, block.NoOrientation))
	s.Put(NewBlock(center.Neighbor(vec.FaceRight), glassID, block.NoOrientation))
	s.Put(NewBlock(center.Neighbor(vec.FaceLeft), stoneID, block.NoOrientation))

	same := s.SameNeighbors(center, glassID)
	assert.True(t, same.Has(vec.FaceRight))
	assert.False(t, same.Has(vec.FaceLeft))

	glass, _ := catalog.Get(glassID)
	mask := s.cullMask(center, glassID, glass)
	assert.True(t, mask.Has(vec.FaceRight), "соседнее стекло того же типа скрывает грань")
	assert.True(t, mask.Has(vec.FaceLeft), "камень перекрывает грань")

	stairs, _ := catalog.Get(stairsID)
	s.Put(NewBlock(center.Neighbor(vec.FaceTop), stairsID, block.Facings(block.FacingFront)))
	assert.Zero(t, s.cullMask(center.Neighbor(vec.FaceTop).Neighbor(vec.FaceTop), stairsID, stairs),
		"ступени не учитывают соседей своего типа")
}

func TestStore_SortedOrder(t *testing.T) {
	s := NewStore(nil)
	s.Put(NewBlock(vec.Vec3{X: 2, Y: 1}, stoneID, block.NoOrientation))
	s.Put(NewBlock(vec.Vec3{X: 9, Y: 0, Z: 1}, stoneID, block.NoOrientation))
	s.Put(NewBlock(vec.Vec3{X: 3, Y: 0}, stoneID, block.NoOrientation))

	sorted := s.Sorted()
	assert.Equal(t, vec.Vec3{X: 3, Y: 0}, sorted[0].Pos)
	assert.Equal(t, vec.Vec3{X: 9, Y: 0, Z: 1}, sorted[1].Pos)
	assert.Equal(t, vec.Vec3{X: 2, Y: 1}, sorted[2].Pos)
}

func TestBlock_Same(t *testing.T) {
	a := NewBlock(vec.Vec3{X: 1}, stoneID, block.NoOrientation)
	b := NewBlock(vec.Vec3{X: 2}, stoneID, block.NoOrientation)
	assert.True(t, a.Same(b), "позиция не участвует в сравнении")
	assert.False(t, a.Same(EmptyAt(a.Pos)))
	assert.True(t, EmptyAt(a.Pos).Same(EmptyAt(b.Pos)))
}
