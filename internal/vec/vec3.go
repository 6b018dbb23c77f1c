package vec

import "fmt"

// Vec3 представляет трехмерный вектор с целочисленными координатами.
// Используется как позиция блока в сетке диаграммы; сравнивается по значению
// и может служить ключом map.
type Vec3 struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	Z int `json:"z" yaml:"z"`
}

// String возвращает позицию в виде "(x, y, z)"
func (v Vec3) String() string {
	return fmt.Sprintf("(%d, %d, %d)", v.X, v.Y, v.Z)
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Sub вычитает вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// Neighbor возвращает соседнюю позицию через грань face
func (v Vec3) Neighbor(face Face) Vec3 {
	return v.Add(face.Offset())
}

// Neighbors возвращает все шесть соседних позиций в порядке граней
func (v Vec3) Neighbors() [FaceCount]Vec3 {
	var out [FaceCount]Vec3
	for _, f := range AllFaces {
		out[f] = v.Neighbor(f)
	}
	return out
}

// Less задаёт детерминированный порядок позиций: сначала Y (уровень), затем Z, затем X.
func (v Vec3) Less(other Vec3) bool {
	if v.Y != other.Y {
		return v.Y < other.Y
	}
	if v.Z != other.Z {
		return v.Z < other.Z
	}
	return v.X < other.X
}
