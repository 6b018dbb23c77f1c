package world

import (
	"github.com/annel0/blockmodeler/internal/geometry"
	"github.com/annel0/blockmodeler/internal/vec"
	"github.com/annel0/blockmodeler/internal/world/block"
)

// Oracle - поверхность чтения диаграммы для рендерера, отчётов и сохранения.
// Потребители зависят от этого интерфейса, а не от Diagram.
type Oracle interface {
	Bounds() vec.Bounds
	Catalog() *block.Catalog
	BlockAt(pos vec.Vec3) Block
	Exists(pos vec.Vec3) bool
	NeighborMask(pos vec.Vec3) vec.NeighborMask
	SynthesizeGeometry(pos vec.Vec3) geometry.Mesh
	Blocks() []Block
	BlockCount() int
	BlockCounts() map[block.BlockID]int
	Level(y int) []Block
	// Snapshot возвращает согласованную копию для серии чтений
	Snapshot() *Snapshot
}

var (
	_ Oracle = (*Diagram)(nil)
	_ Oracle = (*Snapshot)(nil)
)
