package world

import (
	"github.com/annel0/blockmodeler/internal/vec"
	"github.com/annel0/blockmodeler/internal/world/block"
)

// Block представляет собой размещённый блок: позиция, тип и ориентация.
// Блок с AirBlockID обозначает пустую ячейку.
type Block struct {
	Pos         vec.Vec3          `json:"pos"`
	ID          block.BlockID     `json:"id"`
	Orientation block.Orientation `json:"orientation"`
}

// NewBlock создаёт блок с указанным ID и ориентацией
func NewBlock(pos vec.Vec3, id block.BlockID, o block.Orientation) Block {
	return Block{Pos: pos, ID: id, Orientation: o}
}

// EmptyAt возвращает пустую ячейку в позиции pos
func EmptyAt(pos vec.Vec3) Block {
	return Block{Pos: pos}
}

// Empty возвращает true для пустой ячейки
func (b Block) Empty() bool {
	return b.ID == block.AirBlockID
}

// Same сравнивает содержимое ячеек без учёта позиции
func (b Block) Same(other Block) bool {
	if b.Empty() && other.Empty() {
		return true
	}
	return b.ID == other.ID && b.Orientation == other.Orientation
}
