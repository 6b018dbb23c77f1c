package world

import (
	"sort"

	"github.com/annel0/blockmodeler/internal/geometry"
	"github.com/annel0/blockmodeler/internal/vec"
	"github.com/annel0/blockmodeler/internal/world/block"
)

// Store - разреженное отображение позиция -> блок.
// Не проверяет правки и не синхронизирован: этим занимается Diagram.
type Store struct {
	blocks   map[vec.Vec3]Block
	occludes func(block.BlockID) bool
}

// NewStore создаёт пустое хранилище. occludes решает, закрывает ли тип грань соседа.
func NewStore(occludes func(block.BlockID) bool) *Store {
	if occludes == nil {
		occludes = func(block.BlockID) bool { return false }
	}
	return &Store{
		blocks:   make(map[vec.Vec3]Block),
		occludes: occludes,
	}
}

// Get возвращает блок в позиции или пустую ячейку
func (s *Store) Get(pos vec.Vec3) Block {
	if b, ok := s.blocks[pos]; ok {
		return b
	}
	return EmptyAt(pos)
}

// Has проверяет, занята ли позиция
func (s *Store) Has(pos vec.Vec3) bool {
	_, ok := s.blocks[pos]
	return ok
}

// Put помещает блок в его позицию и возвращает вытесненное содержимое
func (s *Store) Put(b Block) Block {
	prev := s.Get(b.Pos)
	if b.Empty() {
		delete(s.blocks, b.Pos)
		return prev
	}
	s.blocks[b.Pos] = b
	return prev
}

// Erase очищает позицию и возвращает прежнее содержимое
func (s *Store) Erase(pos vec.Vec3) Block {
	prev := s.Get(pos)
	delete(s.blocks, pos)
	return prev
}

// NeighborMask возвращает маску граней, за которыми стоят перекрывающие блоки
func (s *Store) NeighborMask(pos vec.Vec3) vec.NeighborMask {
	var mask vec.NeighborMask
	for _, f := range vec.AllFaces {
		if b, ok := s.blocks[pos.Neighbor(f)]; ok && s.occludes(b.ID) {
			mask = mask.With(f)
		}
	}
	return mask
}

// SameNeighbors возвращает маску граней, за которыми стоят блоки типа id.
// Одинаковые прозрачные кубы скрывают общую грань, заборы и панели соединяются друг с другом.
func (s *Store) SameNeighbors(pos vec.Vec3, id block.BlockID) vec.NeighborMask {
	var mask vec.NeighborMask
	for _, f := range vec.AllFaces {
		if b, ok := s.blocks[pos.Neighbor(f)]; ok && b.ID == id {
			mask = mask.With(f)
		}
	}
	return mask
}

// cullMask собирает маску для синтеза: перекрывающие соседи и, для кубов и соединяемых
// форм, соседи того же типа
func (s *Store) cullMask(pos vec.Vec3, id block.BlockID, props *block.Properties) vec.NeighborMask {
	mask := s.NeighborMask(pos)
	if props != nil && (props.Geometry.Culls() || props.Geometry.Connects()) {
		mask |= s.SameNeighbors(pos, id)
	}
	return mask
}

// Len возвращает число занятых позиций
func (s *Store) Len() int {
	return len(s.blocks)
}

// Clear удаляет все блоки
func (s *Store) Clear() {
	s.blocks = make(map[vec.Vec3]Block)
}

// Counts возвращает число блоков каждого типа
func (s *Store) Counts() map[block.BlockID]int {
	counts := make(map[block.BlockID]int)
	for _, b := range s.blocks {
		counts[b.ID]++
	}
	return counts
}

// Level возвращает блоки уровня y в порядке (Z, X)
func (s *Store) Level(y int) []Block {
	var out []Block
	for pos, b := range s.blocks {
		if pos.Y == y {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pos.Less(out[j].Pos) })
	return out
}

// Clone возвращает независимую копию хранилища
func (s *Store) Clone() *Store {
	blocks := make(map[vec.Vec3]Block, len(s.blocks))
	for pos, b := range s.blocks {
		blocks[pos] = b
	}
	return &Store{blocks: blocks, occludes: s.occludes}
}

// mesh строит сетку позиции по содержимому хранилища
func (s *Store) mesh(catalog *block.Catalog, pos vec.Vec3) geometry.Mesh {
	b, ok := s.blocks[pos]
	if !ok {
		return geometry.Mesh{Origin: pos}
	}
	props, _ := catalog.Get(b.ID)
	return geometry.Build(pos, props, b.Orientation, s.cullMask(pos, b.ID, props))
}

// Sorted возвращает все блоки в детерминированном порядке (Y, Z, X)
func (s *Store) Sorted() []Block {
	out := make([]Block, 0, len(s.blocks))
	for _, b := range s.blocks {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pos.Less(out[j].Pos) })
	return out
}
