package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/annel0/blockmodeler/internal/vec"
)

// lineCells растеризует отрезок уровня a.Y алгоритмом Брезенхэма.
// Концы входят в результат.
func lineCells(a, b vec.Vec3) []vec.Vec3 {
	if a.X > b.X {
		a, b = b, a
	}
	dx, dz := b.X-a.X, abs(b.Z-a.Z)
	step := 1
	if b.Z < a.Z {
		step = -1
	}

	x, z := a.X, a.Z
	cells := []vec.Vec3{{X: x, Y: a.Y, Z: z}}
	if dx > dz {
		diff := 2*dz - dx
		for x < b.X {
			x++
			if diff < 0 {
				diff += 2 * dz
			} else {
				z += step
				diff += 2 * (dz - dx)
			}
			cells = append(cells, vec.Vec3{X: x, Y: a.Y, Z: z})
		}
		return cells
	}

	diff := 2*dx - dz
	for z != b.Z {
		z += step
		if diff < 0 {
			diff += 2 * dx
		} else {
			x++
			diff += 2 * (dx - dz)
		}
		cells = append(cells, vec.Vec3{X: x, Y: a.Y, Z: z})
	}
	return cells
}

// rectangleCells возвращает контур прямоугольника с углами a и b на уровне a.Y
func rectangleCells(a, b vec.Vec3) []vec.Vec3 {
	lo, hi := corners(a, b)
	var cells []vec.Vec3
	for x := lo.X; x <= hi.X; x++ {
		cells = append(cells, vec.Vec3{X: x, Y: a.Y, Z: lo.Z}, vec.Vec3{X: x, Y: a.Y, Z: hi.Z})
	}
	for z := lo.Z; z <= hi.Z; z++ {
		cells = append(cells, vec.Vec3{X: lo.X, Y: a.Y, Z: z}, vec.Vec3{X: hi.X, Y: a.Y, Z: z})
	}
	return cells
}

// ellipseCells растеризует эллипс, вписанный в прямоугольник с углами a и b,
// методом Зингла. Ячейки могут повторяться.
func ellipseCells(a, b vec.Vec3) []vec.Vec3 {
	lo, hi := corners(a, b)
	x0, x1 := lo.X, hi.X
	w, h := int64(hi.X-lo.X), int64(hi.Z-lo.Z)
	odd := h & 1

	dx := 4 * (1 - w) * h * h
	dz := 4 * (odd + 1) * w * w
	e := dx + dz + odd*w*w
	stepX, stepZ := 8*h*h, 8*w*w

	z0 := lo.Z + int((h+1)/2)
	z1 := z0 - int(odd)

	var cells []vec.Vec3
	put := func(x, z int) {
		cells = append(cells, vec.Vec3{X: x, Y: a.Y, Z: z})
	}

	for x0 <= x1 {
		put(x1, z0)
		put(x0, z0)
		put(x0, z1)
		put(x1, z1)

		e2 := 2 * e
		if e2 <= dz {
			z0++
			z1--
			dz += stepZ
			e += dz
		}
		if e2 >= dx || 2*e > dz {
			x0++
			x1--
			dx += stepX
			e += dx
		}
	}

	// Плоский эллипс заканчивается раньше времени: дорисовываем кончики
	for int64(z0-z1) < h {
		put(x0-1, z0)
		put(x1+1, z0)
		z0++
		put(x0-1, z1)
		put(x1+1, z1)
		z1--
	}
	return cells
}

// sphereCells возвращает оболочку шара, вписанного в куб со стороной max(|dx|, |dz|).
// Куб растёт от a в сторону b по горизонтали и вверх по Y.
// Ячейка входит в оболочку, если её центр отстоит от сферы меньше чем на половину ячейки.
func sphereCells(a, b vec.Vec3) []vec.Vec3 {
	size := abs(b.X - a.X)
	if dz := abs(b.Z - a.Z); dz > size {
		size = dz
	}
	radius := float64(size) / 2

	sx, sz := 1, 1
	if b.X < a.X {
		sx = -1
	}
	if b.Z < a.Z {
		sz = -1
	}
	center := cellCenter(a).Add(mgl64.Vec3{radius * float64(sx), radius, radius * float64(sz)})

	var cells []vec.Vec3
	for z := 0; z <= size; z++ {
		for y := 0; y <= size; y++ {
			for x := 0; x <= size; x++ {
				pos := vec.Vec3{X: a.X + x*sx, Y: a.Y + y, Z: a.Z + z*sz}
				if math.Abs(radius-cellCenter(pos).Sub(center).Len()) < 0.5 {
					cells = append(cells, pos)
				}
			}
		}
	}
	return cells
}

// treeCells возвращает ствол и крону дерева, растущего из base
func treeCells(base vec.Vec3) (trunk, leaves []vec.Vec3) {
	at := func(dx, dy, dz int) vec.Vec3 {
		return vec.Vec3{X: base.X + dx, Y: base.Y + dy, Z: base.Z + dz}
	}
	ring := func(y int, offsets ...[2]int) {
		for _, o := range offsets {
			leaves = append(leaves, at(o[0], y, o[1]))
		}
	}
	cross := [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

	for y := 0; y <= 4; y++ {
		trunk = append(trunk, at(0, y, 0))
	}
	ring(3, cross...)
	ring(4, cross...)
	ring(4, [2]int{1, 1}, [2]int{1, -1}, [2]int{-1, 1}, [2]int{-1, -1})
	ring(4, [2]int{2, 0}, [2]int{-2, 0}, [2]int{0, 2}, [2]int{0, -2})
	ring(5, [2]int{0, 0})
	ring(5, cross...)
	return trunk, leaves
}

func corners(a, b vec.Vec3) (lo, hi vec.Vec3) {
	lo = vec.Vec3{X: min(a.X, b.X), Y: a.Y, Z: min(a.Z, b.Z)}
	hi = vec.Vec3{X: max(a.X, b.X), Y: a.Y, Z: max(a.Z, b.Z)}
	return lo, hi
}

func cellCenter(p vec.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(p.X) + 0.5, float64(p.Y) + 0.5, float64(p.Z) + 0.5}
}
