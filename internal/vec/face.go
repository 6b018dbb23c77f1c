package vec

import "fmt"

// Face определяет грань ячейки. Порядок совпадает с порядком граней
// прямоугольной призмы, который ожидает рендерер:
// передняя, задняя, нижняя, правая, верхняя, левая.
type Face uint8

const (
	FaceFront  Face = iota // +Z
	FaceBack               // -Z
	FaceBottom             // -Y
	FaceRight              // +X
	FaceTop                // +Y
	FaceLeft               // -X

	FaceCount = 6
)

// AllFaces перечисляет грани в каноническом порядке
var AllFaces = [FaceCount]Face{FaceFront, FaceBack, FaceBottom, FaceRight, FaceTop, FaceLeft}

var faceOffsets = [FaceCount]Vec3{
	FaceFront:  {X: 0, Y: 0, Z: 1},
	FaceBack:   {X: 0, Y: 0, Z: -1},
	FaceBottom: {X: 0, Y: -1, Z: 0},
	FaceRight:  {X: 1, Y: 0, Z: 0},
	FaceTop:    {X: 0, Y: 1, Z: 0},
	FaceLeft:   {X: -1, Y: 0, Z: 0},
}

var faceNames = [FaceCount]string{"front", "back", "bottom", "right", "top", "left"}

// Offset возвращает единичное смещение к соседу через эту грань
func (f Face) Offset() Vec3 {
	if f >= FaceCount {
		return Vec3{}
	}
	return faceOffsets[f]
}

// Opposite возвращает противоположную грань
func (f Face) Opposite() Face {
	switch f {
	case FaceFront:
		return FaceBack
	case FaceBack:
		return FaceFront
	case FaceBottom:
		return FaceTop
	case FaceTop:
		return FaceBottom
	case FaceRight:
		return FaceLeft
	case FaceLeft:
		return FaceRight
	}
	return f
}

// Horizontal возвращает true для боковых граней (не верх и не низ)
func (f Face) Horizontal() bool {
	return f != FaceTop && f != FaceBottom && f < FaceCount
}

// Bit возвращает бит грани в 6-битной маске соседей
func (f Face) Bit() uint8 {
	return 1 << f
}

// String возвращает имя грани
func (f Face) String() string {
	if f >= FaceCount {
		return "unknown"
	}
	return faceNames[f]
}

// ParseFace разбирает имя грани
func ParseFace(name string) (Face, bool) {
	for i, n := range faceNames {
		if n == name {
			return Face(i), true
		}
	}
	return 0, false
}

// MarshalText реализует encoding.TextMarshaler
func (f Face) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler
func (f *Face) UnmarshalText(text []byte) error {
	parsed, ok := ParseFace(string(text))
	if !ok {
		return fmt.Errorf("неизвестная грань %q", text)
	}
	*f = parsed
	return nil
}

// horizontalCycle задаёт порядок боковых граней при повороте на 90° вокруг Y
// (вид сверху): +Z переходит в +X, +X в -Z и так далее.
var horizontalCycle = [4]Face{FaceFront, FaceRight, FaceBack, FaceLeft}

// RotateY поворачивает грань на quarters четвертей оборота вокруг оси Y.
// Верхняя и нижняя грани не меняются.
func (f Face) RotateY(quarters int) Face {
	if !f.Horizontal() {
		return f
	}
	q := ((quarters % 4) + 4) % 4
	for i, h := range horizontalCycle {
		if h == f {
			return horizontalCycle[(i+q)%4]
		}
	}
	return f
}
