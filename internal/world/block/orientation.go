package block

import (
	"fmt"
	"strings"

	"github.com/annel0/blockmodeler/internal/vec"
)

// Facing - направление, в которую повернут блок
type Facing uint8

const (
	FacingNone Facing = iota
	FacingFront
	FacingBack
	FacingBottom
	FacingRight
	FacingTop
	FacingLeft
)

var facingNames = map[Facing]string{
	FacingNone:   "none",
	FacingFront:  "front",
	FacingBack:   "back",
	FacingBottom: "bottom",
	FacingRight:  "right",
	FacingTop:    "top",
	FacingLeft:   "left",
}

// Face возвращает грань ячейки, соответствующую направлению.
// Для FacingNone возвращается false.
func (f Facing) Face() (vec.Face, bool) {
	if f == FacingNone || f > FacingLeft {
		return 0, false
	}
	return vec.Face(f - 1), true
}

// FacingOf возвращает направление, совпадающее с гранью
func FacingOf(face vec.Face) Facing {
	return Facing(face + 1)
}

// Horizontal возвращает true для боковых направлений
func (f Facing) Horizontal() bool {
	face, ok := f.Face()
	return ok && face.Horizontal()
}

// Rotate поворачивает направление вокруг вертикальной оси
func (f Facing) Rotate(r Rotation) Facing {
	face, ok := f.Face()
	if !ok || !face.Horizontal() {
		return f
	}
	return FacingOf(face.RotateY(int(r)))
}

func (f Facing) String() string {
	if name, ok := facingNames[f]; ok {
		return name
	}
	return fmt.Sprintf("facing(%d)", uint8(f))
}

// Corner - уточнение ориентации одним из четырёх диагональных углов.
// Нужен асимметричной геометрии вроде угловых ступеней.
type Corner uint8

const (
	CornerNone Corner = iota
	CornerFrontLeft
	CornerFrontRight
	CornerBackRight
	CornerBackLeft
)

var cornerNames = map[Corner]string{
	CornerNone:       "",
	CornerFrontLeft:  "front-left",
	CornerFrontRight: "front-right",
	CornerBackRight:  "back-right",
	CornerBackLeft:   "back-left",
}

// Rotate поворачивает угол на r четвертей оборота в том же направлении, что и Facing.Rotate
func (c Corner) Rotate(r Rotation) Corner {
	if c == CornerNone || c > CornerBackLeft {
		return c
	}
	return Corner((int(c)-1+int(r))%4 + 1)
}

// Quarter возвращает число четвертей оборота от CornerFrontLeft
func (c Corner) Quarter() Rotation {
	if c == CornerNone || c > CornerBackLeft {
		return 0
	}
	return Rotation(c - 1)
}

func (c Corner) String() string {
	if name, ok := cornerNames[c]; ok {
		return name
	}
	return fmt.Sprintf("corner(%d)", uint8(c))
}

// Rotation - поворот на целое число четвертей оборота (90°) вокруг вертикальной оси
type Rotation uint8

const (
	Rotation0 Rotation = iota
	Rotation90
	Rotation180
	Rotation270
)

// Compose складывает два поворота
func (r Rotation) Compose(other Rotation) Rotation {
	return (r + other) % 4
}

// Degrees возвращает угол поворота в градусах
func (r Rotation) Degrees() float32 {
	return float32(r%4) * 90
}

// Orientation - ориентация размещённого блока: направление и необязательный угол.
// Сравнивается по значению.
type Orientation struct {
	Facing Facing
	Corner Corner
}

// NoOrientation - ориентация по умолчанию для симметричных блоков
var NoOrientation = Orientation{}

// Facings возвращает ориентацию без углового уточнения
func Facings(f Facing) Orientation {
	return Orientation{Facing: f}
}

// Rotate поворачивает ориентацию на r четвертей оборота.
// Четыре последовательных поворота на 90° возвращают исходную ориентацию.
func (o Orientation) Rotate(r Rotation) Orientation {
	return Orientation{
		Facing: o.Facing.Rotate(r),
		Corner: o.Corner.Rotate(r),
	}
}

// Quarter возвращает поворот, переводящий базовую ориентацию геометрии в эту.
// Базовой считается ориентация "front" (или угол "front-left").
func (o Orientation) Quarter() Rotation {
	if o.Corner != CornerNone {
		return o.Corner.Quarter()
	}
	face, ok := o.Facing.Face()
	if !ok || !face.Horizontal() {
		return Rotation0
	}
	for r := Rotation0; r <= Rotation270; r++ {
		if vec.FaceFront.RotateY(int(r)) == face {
			return r
		}
	}
	return Rotation0
}

// String возвращает имя ориентации: "front", "front/front-left" или "none"
func (o Orientation) String() string {
	if o.Corner == CornerNone {
		return o.Facing.String()
	}
	return o.Facing.String() + "/" + o.Corner.String()
}

// ParseOrientation разбирает имя ориентации, созданное String
func ParseOrientation(s string) (Orientation, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return NoOrientation, nil
	}

	facingPart, cornerPart, hasCorner := strings.Cut(s, "/")
	var o Orientation

	found := false
	for f, name := range facingNames {
		if name == facingPart {
			o.Facing = f
			found = true
			break
		}
	}
	if !found {
		return Orientation{}, fmt.Errorf("неизвестное направление %q", facingPart)
	}

	if hasCorner {
		found = false
		for c, name := range cornerNames {
			if c != CornerNone && name == cornerPart {
				o.Corner = c
				found = true
				break
			}
		}
		if !found {
			return Orientation{}, fmt.Errorf("неизвестный угол %q", cornerPart)
		}
	}
	return o, nil
}

// MarshalText реализует encoding.TextMarshaler (используется JSON и YAML)
func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler
func (o *Orientation) UnmarshalText(text []byte) error {
	parsed, err := ParseOrientation(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
