package world

// History хранит стеки отмены и повтора.
// В стеке отмены лежат обратные пакеты, в стеке повтора - прямые.
type History struct {
	undo  []Batch
	redo  []Batch
	limit int
}

// NewHistory создаёт историю. limit <= 0 означает неограниченную глубину отмены.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Record кладёт обратный пакет новой фиксации и сбрасывает стек повтора
func (h *History) Record(inverse Batch) {
	h.pushUndo(inverse)
	h.redo = nil
}

func (h *History) pushUndo(b Batch) {
	h.undo = append(h.undo, b)
	if h.limit > 0 && len(h.undo) > h.limit {
		// Старейшие пакеты отбрасываются
		drop := len(h.undo) - h.limit
		h.undo = append([]Batch(nil), h.undo[drop:]...)
	}
}

// peek возвращает пакет, который применит следующая отмена или повтор
func (h *History) peek(kind ChangeKind) (Batch, bool) {
	stack := h.undo
	if kind == ChangeRedo {
		stack = h.redo
	}
	if len(stack) == 0 {
		return Batch{}, false
	}
	return stack[len(stack)-1], true
}

// advance переносит верхний пакет в противоположный стек после успешного применения
func (h *History) advance(kind ChangeKind) {
	if kind == ChangeRedo {
		b := h.redo[len(h.redo)-1]
		h.redo = h.redo[:len(h.redo)-1]
		h.pushUndo(b.Inverse())
		return
	}
	b := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, b.Inverse())
}

// CanUndo возвращает true, если стек отмены не пуст
func (h *History) CanUndo() bool {
	return len(h.undo) > 0
}

// CanRedo возвращает true, если стек повтора не пуст
func (h *History) CanRedo() bool {
	return len(h.redo) > 0
}

// Depth возвращает глубину стеков отмены и повтора
func (h *History) Depth() (undo, redo int) {
	return len(h.undo), len(h.redo)
}

// Clear очищает оба стека
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}
