package world

import (
	"github.com/elliotchance/orderedmap/v2"
	"github.com/google/uuid"

	"github.com/annel0/blockmodeler/internal/vec"
	"github.com/annel0/blockmodeler/internal/world/block"
)

// TxState - состояние транзакции
type TxState uint8

const (
	TxOpen       TxState = iota // Правки принимаются
	TxCommitted                 // Правки применены к хранилищу
	TxRolledBack                // Правки отброшены
)

func (s TxState) String() string {
	switch s {
	case TxOpen:
		return "open"
	case TxCommitted:
		return "committed"
	case TxRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// Edit - одна правка: позиция, содержимое до и после
type Edit struct {
	Pos   vec.Vec3 `json:"pos"`
	Prior Block    `json:"prior"`
	New   Block    `json:"new"`
}

// Inverse возвращает обратную правку
func (e Edit) Inverse() Edit {
	return Edit{Pos: e.Pos, Prior: e.New, New: e.Prior}
}

// Noop возвращает true, если правка не меняет содержимое ячейки
func (e Edit) Noop() bool {
	return e.Prior.Same(e.New)
}

// Batch - упорядоченный набор правок одной транзакции
type Batch struct {
	TxID  uuid.UUID `json:"tx_id"`
	Edits []Edit    `json:"edits"`
}

// Inverse возвращает пакет, отменяющий этот: правки в обратном порядке, до и после поменяны местами
func (b Batch) Inverse() Batch {
	inv := Batch{TxID: b.TxID, Edits: make([]Edit, len(b.Edits))}
	for i, e := range b.Edits {
		inv.Edits[len(b.Edits)-1-i] = e.Inverse()
	}
	return inv
}

// Positions возвращает позиции правок в порядке применения
func (b Batch) Positions() []vec.Vec3 {
	out := make([]vec.Vec3, len(b.Edits))
	for i, e := range b.Edits {
		out[i] = e.Pos
	}
	return out
}

// Transaction накапливает правки до фиксации или отката.
// Принадлежит вызывающему и не предназначена для использования из нескольких горутин.
// Повторная правка той же позиции сохраняет исходное содержимое хранилища как Prior
// и заменяет только New.
type Transaction struct {
	id      uuid.UUID
	diagram *Diagram
	state   TxState
	edits   *orderedmap.OrderedMap[vec.Vec3, Edit]
	aborted bool
}

func newTransaction(d *Diagram) *Transaction {
	return &Transaction{
		id:      uuid.New(),
		diagram: d,
		state:   TxOpen,
		edits:   orderedmap.NewOrderedMap[vec.Vec3, Edit](),
	}
}

// ID возвращает идентификатор транзакции
func (tx *Transaction) ID() uuid.UUID {
	return tx.id
}

// State возвращает текущее состояние
func (tx *Transaction) State() TxState {
	return tx.state
}

// Len возвращает число затронутых позиций
func (tx *Transaction) Len() int {
	return tx.edits.Len()
}

// Place добавляет правку размещения блока. При ошибке транзакция не меняется.
func (tx *Transaction) Place(pos vec.Vec3, id block.BlockID, o block.Orientation) error {
	if tx.state != TxOpen {
		return ErrTransactionClosed
	}
	if err := tx.diagram.validatePlace(pos, id, o); err != nil {
		return err
	}
	tx.record(NewBlock(pos, id, o))
	return nil
}

// PlaceDefault размещает блок в ориентации по умолчанию для его типа
func (tx *Transaction) PlaceDefault(pos vec.Vec3, id block.BlockID) error {
	o := block.NoOrientation
	if props, ok := tx.diagram.catalog.Get(id); ok {
		o = props.DefaultOrientation()
	}
	return tx.Place(pos, id, o)
}

// Erase добавляет правку удаления блока
func (tx *Transaction) Erase(pos vec.Vec3) error {
	if tx.state != TxOpen {
		return ErrTransactionClosed
	}
	if err := tx.diagram.checkBounds(pos); err != nil {
		return err
	}
	tx.record(EmptyAt(pos))
	return nil
}

func (tx *Transaction) record(next Block) {
	if e, ok := tx.edits.Get(next.Pos); ok {
		e.New = next
		tx.edits.Set(next.Pos, e)
		return
	}
	prior := tx.diagram.BlockAt(next.Pos)
	tx.edits.Set(next.Pos, Edit{Pos: next.Pos, Prior: prior, New: next})
}

// Edits возвращает правки в порядке первого обращения к позиции
func (tx *Transaction) Edits() []Edit {
	out := make([]Edit, 0, tx.edits.Len())
	for el := tx.edits.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

// effective возвращает правки без пустых (содержимое не меняется)
func (tx *Transaction) effective() []Edit {
	out := make([]Edit, 0, tx.edits.Len())
	for el := tx.edits.Front(); el != nil; el = el.Next() {
		if !el.Value.Noop() {
			out = append(out, el.Value)
		}
	}
	return out
}

// Abort помечает транзакцию для отката при выходе из WithTransaction
func (tx *Transaction) Abort() {
	tx.aborted = true
}

// Aborted возвращает true, если был запрошен откат
func (tx *Transaction) Aborted() bool {
	return tx.aborted
}

// Commit применяет правки к хранилищу атомарно
func (tx *Transaction) Commit() error {
	return tx.diagram.commit(tx)
}

// Rollback отбрасывает правки, не трогая хранилище
func (tx *Transaction) Rollback() error {
	return tx.diagram.rollback(tx)
}
