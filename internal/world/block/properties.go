package block

// BlockID представляет идентификатор типа блока
type BlockID uint16

// AirBlockID обозначает пустую ячейку. Не может быть зарегистрирован в каталоге.
const AirBlockID BlockID = 0

// Properties описывает тип блока: геометрию, допустимые ориентации и отображаемые данные
type Properties struct {
	ID           BlockID       `yaml:"id" json:"id"`
	Name         string        `yaml:"name" json:"name"`
	DisplayName  string        `yaml:"display_name" json:"display_name"`
	Category     string        `yaml:"category" json:"category"`
	Geometry     Geometry      `yaml:"geometry" json:"geometry"`
	Texture      string        `yaml:"texture" json:"texture,omitempty"`
	Transparent  bool          `yaml:"transparent" json:"transparent"`
	Occludes     bool          `yaml:"occludes" json:"occludes"` // перекрывает ли грань соседнего куба
	Orientations []Orientation `yaml:"orientations" json:"orientations"`
}

// IsAllowed проверяет, допустима ли ориентация для этого типа.
// Тип без списка ориентаций допускает только NoOrientation.
func (p *Properties) IsAllowed(o Orientation) bool {
	if len(p.Orientations) == 0 {
		return o == NoOrientation
	}
	for _, allowed := range p.Orientations {
		if allowed == o {
			return true
		}
	}
	return false
}

// DefaultOrientation возвращает первую допустимую ориентацию
func (p *Properties) DefaultOrientation() Orientation {
	if len(p.Orientations) == 0 {
		return NoOrientation
	}
	return p.Orientations[0]
}

// Level возвращает номер ориентации в списке типа и длину списка.
// Потоки кодируют ориентацией уровень жидкости: первая в списке - самый высокий.
func (p *Properties) Level(o Orientation) (index, count int) {
	for i, allowed := range p.Orientations {
		if allowed == o {
			return i, len(p.Orientations)
		}
	}
	return 0, len(p.Orientations)
}

// Label возвращает отображаемое имя, а при его отсутствии - системное
func (p *Properties) Label() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Name
}
