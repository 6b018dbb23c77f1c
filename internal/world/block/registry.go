package block

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed blocks.yaml
var defaultCatalogYAML []byte

var (
	ErrUnknownGeometry   = errors.New("неизвестная геометрия")
	ErrDuplicateBlock    = errors.New("тип блока уже зарегистрирован")
	ErrReservedBlockID   = errors.New("идентификатор зарезервирован для пустой ячейки")
	ErrInvalidProperties = errors.New("некорректные свойства блока")
)

// Catalog хранит свойства известных типов блоков.
// После загрузки используется только на чтение и безопасен для конкурентного доступа.
type Catalog struct {
	byID   map[BlockID]*Properties
	byName map[string]*Properties
}

// NewCatalog создаёт пустой каталог
func NewCatalog() *Catalog {
	return &Catalog{
		byID:   make(map[BlockID]*Properties),
		byName: make(map[string]*Properties),
	}
}

// Register добавляет тип блока в каталог
func (c *Catalog) Register(p Properties) error {
	if p.ID == AirBlockID {
		return fmt.Errorf("%w: %s", ErrReservedBlockID, p.Name)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: блок %d без имени", ErrInvalidProperties, p.ID)
	}
	if _, exists := c.byID[p.ID]; exists {
		return fmt.Errorf("%w: id %d", ErrDuplicateBlock, p.ID)
	}
	if _, exists := c.byName[p.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateBlock, p.Name)
	}
	// Только полный куб может закрывать грань соседа
	if p.Occludes && (!p.Geometry.Full() || p.Transparent) {
		return fmt.Errorf("%w: %s не может перекрывать соседей", ErrInvalidProperties, p.Name)
	}

	props := p
	props.Orientations = append([]Orientation(nil), p.Orientations...)
	c.byID[p.ID] = &props
	c.byName[p.Name] = &props
	return nil
}

// Get возвращает свойства для указанного ID
func (c *Catalog) Get(id BlockID) (*Properties, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Lookup возвращает свойства по системному имени
func (c *Catalog) Lookup(name string) (*Properties, bool) {
	p, ok := c.byName[name]
	return p, ok
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func (c *Catalog) IsValidBlockID(id BlockID) bool {
	_, exists := c.byID[id]
	return exists
}

// IsAllowed проверяет, допустима ли ориентация для типа блока
func (c *Catalog) IsAllowed(id BlockID, o Orientation) bool {
	p, ok := c.byID[id]
	if !ok {
		return false
	}
	return p.IsAllowed(o)
}

// Occludes возвращает флаг перекрытия для типа. Неизвестные типы не перекрывают.
func (c *Catalog) Occludes(id BlockID) bool {
	p, ok := c.byID[id]
	return ok && p.Occludes
}

// All возвращает все типы, отсортированные по ID
func (c *Catalog) All() []*Properties {
	out := make([]*Properties, 0, len(c.byID))
	for _, p := range c.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len возвращает количество зарегистрированных типов
func (c *Catalog) Len() int {
	return len(c.byID)
}

type catalogFile struct {
	Blocks []Properties `yaml:"blocks"`
}

// ParseCatalog разбирает каталог из YAML
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("ошибка разбора каталога блоков: %w", err)
	}

	c := NewCatalog()
	for _, p := range file.Blocks {
		if err := c.Register(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// LoadCatalog загружает каталог из файла. Пустой путь означает встроенный каталог.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalogYAML)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения каталога блоков: %w", err)
	}
	return ParseCatalog(data)
}

// DefaultCatalog возвращает встроенный каталог блоков
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("встроенный каталог блоков повреждён: %v", err))
	}
	return c
}
