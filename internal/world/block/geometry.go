package block

import "fmt"

// Geometry - семейство геометрии, по которому синтезатор выбирает функцию построения граней
type Geometry uint8

const (
	GeometryCube Geometry = iota
	GeometrySlab
	GeometryStairs
	GeometryFence
	GeometryBed
	GeometryDoor
	GeometryLadder
	GeometrySkybox
	GeometrySnow
	GeometryChest
	GeometryPressurePlate
	GeometryLeaves
	GeometryCactus
	GeometryPane
	GeometryTorch
	GeometryTrack
	GeometryFlow

	geometryCount
)

var geometryNames = [geometryCount]string{
	GeometryCube:   "cube",
	GeometrySlab:   "slab",
	GeometryStairs: "stairs",
	GeometryFence:  "fence",
	GeometryBed:    "bed",
	GeometryDoor:   "door",
	GeometryLadder: "ladder",
	GeometrySkybox: "skybox",

	GeometrySnow:          "snow",
	GeometryChest:         "chest",
	GeometryPressurePlate: "pressure_plate",
	GeometryLeaves:        "leaves",
	GeometryCactus:        "cactus",
	GeometryPane:          "pane",
	GeometryTorch:         "torch",
	GeometryTrack:         "track",
	GeometryFlow:          "flow",
}

// Full возвращает true, если геометрия заполняет ячейку целиком
func (g Geometry) Full() bool {
	return g == GeometryCube
}

// Connects возвращает true для геометрии, которая тянется к соседям из маски
func (g Geometry) Connects() bool {
	return g == GeometryFence || g == GeometryPane
}

// Culls возвращает true, если семейство скрывает грани, закрытые соседями.
// Листва всегда выводит все грани.
func (g Geometry) Culls() bool {
	return g == GeometryCube
}

func (g Geometry) String() string {
	if g < geometryCount {
		return geometryNames[g]
	}
	return fmt.Sprintf("geometry(%d)", uint8(g))
}

// ParseGeometry разбирает имя семейства геометрии
func ParseGeometry(name string) (Geometry, error) {
	for i, n := range geometryNames {
		if n == name {
			return Geometry(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownGeometry, name)
}

// MarshalText реализует encoding.TextMarshaler
func (g Geometry) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler
func (g *Geometry) UnmarshalText(text []byte) error {
	parsed, err := ParseGeometry(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
