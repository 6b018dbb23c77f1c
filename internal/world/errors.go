package world

import (
	"errors"
	"fmt"

	"github.com/annel0/blockmodeler/internal/vec"
)

var (
	ErrOutOfBounds            = errors.New("позиция вне границ мира")
	ErrInvalidOrientation     = errors.New("ориентация недопустима для типа блока")
	ErrUnknownBlockType       = errors.New("неизвестный тип блока")
	ErrEmptyBlock             = errors.New("нельзя разместить пустой блок")
	ErrTransactionAlreadyOpen = errors.New("транзакция уже открыта")
	ErrNoOpenTransaction      = errors.New("нет открытой транзакции")
	ErrNothingToUndo          = errors.New("нечего отменять")
	ErrNothingToRedo          = errors.New("нечего повторять")
	ErrApplyAborted           = errors.New("применение правок прервано")
	ErrNotLevel               = errors.New("точки фигуры лежат на разных уровнях")
)

// ErrTransactionClosed возвращается при работе с уже завершённой транзакцией.
// Является частным случаем ErrNoOpenTransaction.
var ErrTransactionClosed = fmt.Errorf("%w: транзакция уже завершена", ErrNoOpenTransaction)

// OutOfBoundsError описывает позицию за пределами мира
type OutOfBoundsError struct {
	Pos    vec.Vec3
	Bounds vec.Bounds
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("позиция %s вне границ мира %s", e.Pos, e.Bounds)
}

// Is позволяет сравнивать ошибку с ErrOutOfBounds через errors.Is
func (e *OutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}
