package world

import (
	"github.com/annel0/blockmodeler/internal/geometry"
	"github.com/annel0/blockmodeler/internal/vec"
	"github.com/annel0/blockmodeler/internal/world/block"
)

// Snapshot - неизменяемая копия диаграммы. Все чтения снимка видят одно и то же состояние,
// поэтому отчёты и сохранение, читающие несколько раз подряд, не смешивают разные фиксации.
type Snapshot struct {
	catalog *block.Catalog
	bounds  vec.Bounds
	store   *Store
}

func (s *Snapshot) Bounds() vec.Bounds {
	return s.bounds
}

func (s *Snapshot) Catalog() *block.Catalog {
	return s.catalog
}

func (s *Snapshot) BlockAt(pos vec.Vec3) Block {
	return s.store.Get(pos)
}

func (s *Snapshot) Exists(pos vec.Vec3) bool {
	return s.store.Has(pos)
}

func (s *Snapshot) NeighborMask(pos vec.Vec3) vec.NeighborMask {
	return s.store.NeighborMask(pos)
}

func (s *Snapshot) SynthesizeGeometry(pos vec.Vec3) geometry.Mesh {
	return s.store.mesh(s.catalog, pos)
}

func (s *Snapshot) Blocks() []Block {
	return s.store.Sorted()
}

func (s *Snapshot) BlockCount() int {
	return s.store.Len()
}

func (s *Snapshot) BlockCounts() map[block.BlockID]int {
	return s.store.Counts()
}

func (s *Snapshot) Level(y int) []Block {
	return s.store.Level(y)
}

// Snapshot возвращает сам снимок: он уже неизменяем
func (s *Snapshot) Snapshot() *Snapshot {
	return s
}
