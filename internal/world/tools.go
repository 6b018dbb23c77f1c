package world

import (
	"fmt"

	"github.com/annel0/blockmodeler/internal/vec"
	"github.com/annel0/blockmodeler/internal/world/block"
)

const (
	// FillRadius ограничивает заливку по горизонтали от стартовой позиции
	FillRadius = 64
	// FillLimit - максимальное число ячеек одной заливки
	FillLimit = 8192
)

var fillFaces = [4]vec.Face{vec.FaceFront, vec.FaceRight, vec.FaceBack, vec.FaceLeft}

// Fill заливает связную по горизонтали область того же содержимого, что и в start,
// блоком id одной транзакцией. id == AirBlockID стирает область.
// Возвращает число изменённых ячеек.
func (d *Diagram) Fill(start vec.Vec3, id block.BlockID, o block.Orientation) (int, error) {
	if err := d.checkBounds(start); err != nil {
		return 0, err
	}

	var region []vec.Vec3
	err := d.WithTransaction(func(tx *Transaction) error {
		target := d.BlockAt(start)
		if target.Same(NewBlock(start, id, o)) {
			return nil
		}

		region = d.fillRegion(start, target)
		for _, pos := range region {
			var err error
			if id == block.AirBlockID {
				err = tx.Erase(pos)
			} else {
				err = tx.Place(pos, id, o)
			}
			if err != nil {
				return fmt.Errorf("заливка %s: %w", pos, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(region), nil
}

// fillRegion обходит в ширину ячейки уровня start с тем же содержимым, что target
func (d *Diagram) fillRegion(start vec.Vec3, target Block) []vec.Vec3 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	visited := map[vec.Vec3]struct{}{start: {}}
	queue := []vec.Vec3{start}
	var region []vec.Vec3

	for len(queue) > 0 && len(region) < FillLimit {
		pos := queue[0]
		queue = queue[1:]
		region = append(region, pos)

		for _, f := range fillFaces {
			next := pos.Neighbor(f)
			if _, ok := visited[next]; ok {
				continue
			}
			if !d.bounds.Contains(next) || abs(next.X-start.X) > FillRadius || abs(next.Z-start.Z) > FillRadius {
				continue
			}
			visited[next] = struct{}{}
			if d.store.Get(next).Same(target) {
				queue = append(queue, next)
			}
		}
	}
	return region
}

// CopyLevel заменяет уровень dst копией уровня src одной транзакцией.
// Возвращает число изменённых ячеек.
func (d *Diagram) CopyLevel(src, dst int) (int, error) {
	for _, y := range []int{src, dst} {
		if y < d.bounds.Min.Y || y >= d.bounds.Max.Y {
			return 0, &OutOfBoundsError{Pos: vec.Vec3{X: d.bounds.Min.X, Y: y, Z: d.bounds.Min.Z}, Bounds: d.bounds}
		}
	}
	if src == dst {
		return 0, nil
	}

	changed := 0
	err := d.WithTransaction(func(tx *Transaction) error {
		source := d.Level(src)
		for _, b := range d.Level(dst) {
			if err := tx.Erase(b.Pos); err != nil {
				return err
			}
		}
		for _, b := range source {
			pos := vec.Vec3{X: b.Pos.X, Y: dst, Z: b.Pos.Z}
			if err := tx.Place(pos, b.ID, b.Orientation); err != nil {
				return err
			}
		}
		changed = len(tx.effective())
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// Line рисует отрезок между a и b на одном уровне одной транзакцией
func (d *Diagram) Line(a, b vec.Vec3, id block.BlockID, o block.Orientation) (int, error) {
	if a.Y != b.Y {
		return 0, fmt.Errorf("%w: %s и %s", ErrNotLevel, a, b)
	}
	return d.draw(lineCells(a, b), id, o)
}

// Rectangle рисует контур прямоугольника с углами a и b
func (d *Diagram) Rectangle(a, b vec.Vec3, id block.BlockID, o block.Orientation) (int, error) {
	if a.Y != b.Y {
		return 0, fmt.Errorf("%w: %s и %s", ErrNotLevel, a, b)
	}
	return d.draw(rectangleCells(a, b), id, o)
}

// Circle рисует эллипс, вписанный в прямоугольник с углами a и b
func (d *Diagram) Circle(a, b vec.Vec3, id block.BlockID, o block.Orientation) (int, error) {
	if a.Y != b.Y {
		return 0, fmt.Errorf("%w: %s и %s", ErrNotLevel, a, b)
	}
	return d.draw(ellipseCells(a, b), id, o)
}

// Sphere рисует пустой шар. Диаметр задаётся горизонтальным размахом a и b,
// шар строится вверх от уровня a.
func (d *Diagram) Sphere(a, b vec.Vec3, id block.BlockID, o block.Orientation) (int, error) {
	if a.Y != b.Y {
		return 0, fmt.Errorf("%w: %s и %s", ErrNotLevel, a, b)
	}
	return d.draw(sphereCells(a, b), id, o)
}

// Tree сажает дерево: ствол из trunk в ориентации o и крону из leaves
// в её ориентации по умолчанию
func (d *Diagram) Tree(base vec.Vec3, trunk, leaves block.BlockID, o block.Orientation) (int, error) {
	leafO := block.NoOrientation
	if props, ok := d.catalog.Get(leaves); ok {
		leafO = props.DefaultOrientation()
	}
	trunkCells, leafCells := treeCells(base)

	changed := 0
	err := d.WithTransaction(func(tx *Transaction) error {
		for _, pos := range trunkCells {
			if err := tx.Place(pos, trunk, o); err != nil {
				return fmt.Errorf("ствол %s: %w", pos, err)
			}
		}
		for _, pos := range leafCells {
			if err := tx.Place(pos, leaves, leafO); err != nil {
				return fmt.Errorf("крона %s: %w", pos, err)
			}
		}
		changed = len(tx.effective())
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// draw размещает блок во всех ячейках одной транзакцией.
// Повторы схлопываются транзакцией. Возвращает число изменённых ячеек.
func (d *Diagram) draw(cells []vec.Vec3, id block.BlockID, o block.Orientation) (int, error) {
	changed := 0
	err := d.WithTransaction(func(tx *Transaction) error {
		for _, pos := range cells {
			if err := tx.Place(pos, id, o); err != nil {
				return fmt.Errorf("рисование %s: %w", pos, err)
			}
		}
		changed = len(tx.effective())
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
