package script

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/annel0/blockmodeler/internal/logging"
	"github.com/annel0/blockmodeler/internal/util"
	"github.com/annel0/blockmodeler/internal/vec"
	"github.com/annel0/blockmodeler/internal/world"
	"github.com/annel0/blockmodeler/internal/world/block"
)

var (
	ErrEmptyStep   = errors.New("шаг сценария не содержит действия")
	ErrAmbiguous   = errors.New("шаг сценария содержит несколько действий")
	ErrUnknownName = errors.New("неизвестный тип блока")
	ErrEmptyRegion = errors.New("пустая область рельефа")
)

// Script - сценарий правок диаграммы.
//
//	name: house
//	steps:
//	  - tx:
//	      ops:
//	        - place: {pos: {x: 1, y: 0, z: 0}, block: stone}
//	        - box: {min: {x: 0, y: 0, z: 0}, max: {x: 4, y: 1, z: 4}, block: planks}
//	        - erase: {x: 2, y: 0, z: 2}
//	  - undo: 1
//	  - fill: {pos: {x: 0, y: 1, z: 0}, block: dirt}
//	  - copy_level: {from: 0, to: 3}
//	  - terrain: {min: {x: 0, y: 0, z: 8}, max: {x: 16, y: 4, z: 16}, block: dirt, top: grass, seed: 7}
//	  - line: {from: {x: 0, y: 1, z: 0}, to: {x: 6, y: 1, z: 3}, block: fence}
//	  - circle: {from: {x: 0, y: 0, z: 0}, to: {x: 6, y: 0, z: 6}, block: stone}
//	  - tree: {pos: {x: 12, y: 0, z: 12}}
type Script struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step - один шаг сценария. Должно быть задано ровно одно действие.
type Step struct {
	Tx        *TxStep        `yaml:"tx,omitempty"`
	Undo      int            `yaml:"undo,omitempty"`
	Redo      int            `yaml:"redo,omitempty"`
	Fill      *Placement     `yaml:"fill,omitempty"`
	CopyLevel *CopyLevelStep `yaml:"copy_level,omitempty"`
	Terrain   *TerrainStep   `yaml:"terrain,omitempty"`
	Line      *ShapeStep     `yaml:"line,omitempty"`
	Rectangle *ShapeStep     `yaml:"rectangle,omitempty"`
	Circle    *ShapeStep     `yaml:"circle,omitempty"`
	Sphere    *ShapeStep     `yaml:"sphere,omitempty"`
	Tree      *TreeStep      `yaml:"tree,omitempty"`
}

// TxStep выполняется одной транзакцией. Abort откатывает её после всех операций.
type TxStep struct {
	Ops   []Op `yaml:"ops"`
	Abort bool `yaml:"abort,omitempty"`
}

// Op - операция внутри транзакции
type Op struct {
	Place *Placement `yaml:"place,omitempty"`
	Box   *BoxOp     `yaml:"box,omitempty"`
	Erase *vec.Vec3  `yaml:"erase,omitempty"`
}

// Placement - блок по имени в позиции. Пустая ориентация означает ориентацию по умолчанию.
type Placement struct {
	Pos         vec.Vec3 `yaml:"pos"`
	Block       string   `yaml:"block"`
	Orientation string   `yaml:"orientation,omitempty"`
}

// BoxOp заполняет полуоткрытый параллелепипед [Min, Max)
type BoxOp struct {
	Min         vec.Vec3 `yaml:"min"`
	Max         vec.Vec3 `yaml:"max"`
	Block       string   `yaml:"block"`
	Orientation string   `yaml:"orientation,omitempty"`
}

// TerrainStep строит рельеф из столбцов в [Min, Max) одной транзакцией.
// Высота столбца берётся из шума Перлина, верхняя ячейка получает блок Top.
type TerrainStep struct {
	Min   vec.Vec3 `yaml:"min"`
	Max   vec.Vec3 `yaml:"max"`
	Block string   `yaml:"block"`
	Top   string   `yaml:"top,omitempty"`
	Seed  int64    `yaml:"seed"`
	Scale float64  `yaml:"scale,omitempty"`
}

// ShapeStep рисует фигуру по двум точкам одного уровня
type ShapeStep struct {
	From        vec.Vec3 `yaml:"from"`
	To          vec.Vec3 `yaml:"to"`
	Block       string   `yaml:"block"`
	Orientation string   `yaml:"orientation,omitempty"`
}

// TreeStep сажает дерево. По умолчанию ствол - бревно, крона - листва.
type TreeStep struct {
	Pos         vec.Vec3 `yaml:"pos"`
	Trunk       string   `yaml:"trunk,omitempty"`
	Leaves      string   `yaml:"leaves,omitempty"`
	Orientation string   `yaml:"orientation,omitempty"`
}

type CopyLevelStep struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

// Result - итог выполнения сценария
type Result struct {
	Steps     int `json:"steps"`
	Committed int `json:"committed"`
	Aborted   int `json:"aborted"`
	Undone    int `json:"undone"`
	Redone    int `json:"redone"`
	Filled    int `json:"filled"`
	Copied    int `json:"copied"`
	Generated int `json:"generated"`
	Drawn     int `json:"drawn"`
}

// StepError сообщает номер шага, на котором сценарий остановился
type StepError struct {
	Index int
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("шаг %d: %v", e.Index+1, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Parse разбирает сценарий из YAML
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("ошибка разбора сценария: %w", err)
	}
	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			return nil, &StepError{Index: i, Err: err}
		}
	}
	return &s, nil
}

// LoadFile читает сценарий из файла
func LoadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения сценария %s: %w", path, err)
	}
	return Parse(data)
}

func (s Step) validate() error {
	n := 0
	if s.Tx != nil {
		n++
	}
	if s.Undo > 0 {
		n++
	}
	if s.Redo > 0 {
		n++
	}
	if s.Fill != nil {
		n++
	}
	if s.CopyLevel != nil {
		n++
	}
	if s.Terrain != nil {
		n++
	}
	for _, shape := range []*ShapeStep{s.Line, s.Rectangle, s.Circle, s.Sphere} {
		if shape != nil {
			n++
		}
	}
	if s.Tree != nil {
		n++
	}
	switch {
	case n == 0:
		return ErrEmptyStep
	case n > 1:
		return ErrAmbiguous
	}
	if s.Terrain != nil && vec.NewBounds(s.Terrain.Min, s.Terrain.Max).Empty() {
		return fmt.Errorf("%w: %s..%s", ErrEmptyRegion, s.Terrain.Min, s.Terrain.Max)
	}
	return nil
}

// Runner выполняет сценарии над диаграммой
type Runner struct {
	diagram *world.Diagram
	logger  *logging.Logger
}

// NewRunner создаёт исполнителя сценариев
func NewRunner(d *world.Diagram) *Runner {
	return &Runner{
		diagram: d,
		logger:  logging.GetScriptLogger(),
	}
}

// Run выполняет шаги по порядку и останавливается на первой ошибке.
// Транзакционный шаг с ошибкой откатывается целиком, предыдущие шаги остаются в силе.
func (r *Runner) Run(s *Script) (Result, error) {
	var res Result
	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			return res, &StepError{Index: i, Err: err}
		}
		if err := r.runStep(step, &res); err != nil {
			r.logger.Warn("Сценарий %q остановлен на шаге %d: %v", s.Name, i+1, err)
			return res, &StepError{Index: i, Err: err}
		}
		res.Steps++
	}
	r.logger.Info("Сценарий %q выполнен: %d шагов", s.Name, res.Steps)
	return res, nil
}

func (r *Runner) runStep(step Step, res *Result) error {
	switch {
	case step.Tx != nil:
		aborted := false
		err := r.diagram.WithTransaction(func(tx *world.Transaction) error {
			for _, op := range step.Tx.Ops {
				if err := r.apply(tx, op); err != nil {
					return err
				}
			}
			if step.Tx.Abort {
				tx.Abort()
				aborted = true
			}
			return nil
		})
		if err != nil {
			return err
		}
		if aborted {
			res.Aborted++
		} else {
			res.Committed++
		}

	case step.Undo > 0:
		for i := 0; i < step.Undo; i++ {
			if err := r.diagram.Undo(); err != nil {
				return err
			}
			res.Undone++
		}

	case step.Redo > 0:
		for i := 0; i < step.Redo; i++ {
			if err := r.diagram.Redo(); err != nil {
				return err
			}
			res.Redone++
		}

	case step.Fill != nil:
		id, o, err := r.resolve(step.Fill.Block, step.Fill.Orientation, true)
		if err != nil {
			return err
		}
		n, err := r.diagram.Fill(step.Fill.Pos, id, o)
		if err != nil {
			return err
		}
		res.Filled += n

	case step.CopyLevel != nil:
		n, err := r.diagram.CopyLevel(step.CopyLevel.From, step.CopyLevel.To)
		if err != nil {
			return err
		}
		res.Copied += n

	case step.Terrain != nil:
		n, err := r.terrain(step.Terrain)
		if err != nil {
			return err
		}
		res.Generated += n

	case step.Line != nil:
		return r.shape(step.Line, r.diagram.Line, res)
	case step.Rectangle != nil:
		return r.shape(step.Rectangle, r.diagram.Rectangle, res)
	case step.Circle != nil:
		return r.shape(step.Circle, r.diagram.Circle, res)
	case step.Sphere != nil:
		return r.shape(step.Sphere, r.diagram.Sphere, res)

	case step.Tree != nil:
		n, err := r.tree(step.Tree)
		if err != nil {
			return err
		}
		res.Drawn += n
	}
	return nil
}

type drawFunc func(a, b vec.Vec3, id block.BlockID, o block.Orientation) (int, error)

func (r *Runner) shape(s *ShapeStep, draw drawFunc, res *Result) error {
	id, o, err := r.resolve(s.Block, s.Orientation, false)
	if err != nil {
		return err
	}
	n, err := draw(s.From, s.To, id, o)
	if err != nil {
		return err
	}
	res.Drawn += n
	return nil
}

func (r *Runner) tree(t *TreeStep) (int, error) {
	trunk, leaves := t.Trunk, t.Leaves
	if trunk == "" {
		trunk = "log"
	}
	if leaves == "" {
		leaves = "leaves"
	}

	trunkID, o, err := r.resolve(trunk, t.Orientation, false)
	if err != nil {
		return 0, err
	}
	leavesID, _, err := r.resolve(leaves, "", false)
	if err != nil {
		return 0, err
	}
	return r.diagram.Tree(t.Pos, trunkID, leavesID, o)
}

func (r *Runner) terrain(t *TerrainStep) (int, error) {
	id, o, err := r.resolve(t.Block, "", false)
	if err != nil {
		return 0, err
	}
	topID, topO := id, o
	if t.Top != "" {
		if topID, topO, err = r.resolve(t.Top, "", false); err != nil {
			return 0, err
		}
	}

	field := util.NewHeightField(t.Seed, t.Scale)
	placed := 0
	err = r.diagram.WithTransaction(func(tx *world.Transaction) error {
		for z := t.Min.Z; z < t.Max.Z; z++ {
			for x := t.Min.X; x < t.Max.X; x++ {
				height := field.Height(x, z, t.Max.Y-t.Min.Y)
				for dy := 0; dy < height; dy++ {
					pos := vec.Vec3{X: x, Y: t.Min.Y + dy, Z: z}
					var err error
					if dy == height-1 {
						err = tx.Place(pos, topID, topO)
					} else {
						err = tx.Place(pos, id, o)
					}
					if err != nil {
						return err
					}
					placed++
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return placed, nil
}

func (r *Runner) apply(tx *world.Transaction, op Op) error {
	switch {
	case op.Place != nil:
		id, o, err := r.resolve(op.Place.Block, op.Place.Orientation, false)
		if err != nil {
			return err
		}
		return tx.Place(op.Place.Pos, id, o)

	case op.Box != nil:
		id, o, err := r.resolve(op.Box.Block, op.Box.Orientation, false)
		if err != nil {
			return err
		}
		for y := op.Box.Min.Y; y < op.Box.Max.Y; y++ {
			for z := op.Box.Min.Z; z < op.Box.Max.Z; z++ {
				for x := op.Box.Min.X; x < op.Box.Max.X; x++ {
					if err := tx.Place(vec.Vec3{X: x, Y: y, Z: z}, id, o); err != nil {
						return err
					}
				}
			}
		}
		return nil

	case op.Erase != nil:
		return tx.Erase(*op.Erase)
	}
	return ErrEmptyStep
}

// resolve находит тип блока по имени и разбирает ориентацию.
// Имя "air" допускается только там, где пустой блок означает стирание.
func (r *Runner) resolve(name, orientation string, allowAir bool) (block.BlockID, block.Orientation, error) {
	if allowAir && (name == "" || name == "air") {
		return block.AirBlockID, block.NoOrientation, nil
	}

	props, ok := r.diagram.Catalog().Lookup(name)
	if !ok {
		return 0, block.Orientation{}, fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	if orientation == "" {
		return props.ID, props.DefaultOrientation(), nil
	}
	o, err := block.ParseOrientation(orientation)
	if err != nil {
		return 0, block.Orientation{}, fmt.Errorf("блок %s: %w", name, err)
	}
	return props.ID, o, nil
}
