package vec

// NeighborMask - 6-битная сводка соседей ячейки: бит грани установлен,
// если соседняя через эту грань ячейка занята перекрывающим блоком.
type NeighborMask uint8

// FullMask - все шесть соседей перекрывают
const FullMask NeighborMask = 1<<FaceCount - 1

// Has проверяет бит грани
func (m NeighborMask) Has(f Face) bool {
	return m&NeighborMask(f.Bit()) != 0
}

// With возвращает маску с установленным битом грани
func (m NeighborMask) With(f Face) NeighborMask {
	return m | NeighborMask(f.Bit())
}

// Without возвращает маску со сброшенным битом грани
func (m NeighborMask) Without(f Face) NeighborMask {
	return m &^ NeighborMask(f.Bit())
}

// Faces возвращает установленные грани в каноническом порядке
func (m NeighborMask) Faces() []Face {
	var out []Face
	for _, f := range AllFaces {
		if m.Has(f) {
			out = append(out, f)
		}
	}
	return out
}
