package world

import (
	"github.com/google/uuid"

	"github.com/annel0/blockmodeler/internal/geometry"
	"github.com/annel0/blockmodeler/internal/vec"
)

// ChangeKind определяет тип изменения диаграммы
type ChangeKind uint8

const (
	ChangeCommit   ChangeKind = iota // Фиксация транзакции
	ChangeUndo                       // Отмена
	ChangeRedo                       // Повтор
	ChangeLoad                       // Массовая загрузка в обход истории
	ChangeRollback                   // Откат открытой транзакции, хранилище не менялось
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeCommit:
		return "commit"
	case ChangeUndo:
		return "undo"
	case ChangeRedo:
		return "redo"
	case ChangeLoad:
		return "load"
	case ChangeRollback:
		return "rollback"
	default:
		return "unknown"
	}
}

// ChangeSet описывает одно изменение диаграммы.
// Meshes построены по состоянию сразу после изменения, до снятия блокировки.
// Если Err не nil, операция не удалась и хранилище осталось прежним.
type ChangeSet struct {
	Kind   ChangeKind
	TxID   uuid.UUID
	Edits  []Edit
	Dirty  []vec.Vec3
	Meshes map[vec.Vec3]geometry.Mesh
	Err    error
}

// Failed возвращает true для неудачной операции
func (cs ChangeSet) Failed() bool {
	return cs.Err != nil
}

// Observer получает уведомления об изменениях после выхода из критической секции.
// Вызывается синхронно в горутине, выполнившей операцию.
type Observer interface {
	OnChange(cs ChangeSet)
}

// ObserverFunc позволяет использовать функцию как Observer
type ObserverFunc func(cs ChangeSet)

// OnChange вызывает f(cs)
func (f ObserverFunc) OnChange(cs ChangeSet) {
	f(cs)
}
