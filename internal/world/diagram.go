package world

import (
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"

	"github.com/annel0/blockmodeler/internal/geometry"
	"github.com/annel0/blockmodeler/internal/logging"
	"github.com/annel0/blockmodeler/internal/vec"
	"github.com/annel0/blockmodeler/internal/world/block"
)

// Diagram - фасад диаграммы. Единственный владелец хранилища и истории.
// Допускает не более одной открытой транзакции; чтение безопасно из любых горутин,
// изменение хранилища выполняется под эксклюзивной блокировкой.
type Diagram struct {
	mu      sync.RWMutex // Защищает store, history и open
	catalog *block.Catalog
	bounds  vec.Bounds
	store   *Store
	history *History
	open    *Transaction

	obsMu     sync.RWMutex
	observers []Observer

	logger *logging.Logger

	// applyHook вызывается перед каждой правкой пакета; ошибка прерывает применение
	applyHook func(index int, e Edit) error
}

// Option настраивает Diagram при создании
type Option func(*Diagram)

// WithHistoryLimit ограничивает глубину отмены
func WithHistoryLimit(limit int) Option {
	return func(d *Diagram) {
		d.history = NewHistory(limit)
	}
}

// WithObserver подписывает наблюдателя на изменения
func WithObserver(o Observer) Option {
	return func(d *Diagram) {
		d.observers = append(d.observers, o)
	}
}

// WithLogger задаёт логгер диаграммы
func WithLogger(l *logging.Logger) Option {
	return func(d *Diagram) {
		d.logger = l
	}
}

// NewDiagram создаёт пустую диаграмму в границах bounds
func NewDiagram(catalog *block.Catalog, bounds vec.Bounds, opts ...Option) *Diagram {
	d := &Diagram{
		catalog: catalog,
		bounds:  bounds,
		store:   NewStore(catalog.Occludes),
		history: NewHistory(0),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logging.GetDiagramLogger()
	}
	return d
}

// AddObserver подписывает наблюдателя на изменения
func (d *Diagram) AddObserver(o Observer) {
	d.obsMu.Lock()
	defer d.obsMu.Unlock()
	d.observers = append(d.observers, o)
}

// Catalog возвращает каталог типов
func (d *Diagram) Catalog() *block.Catalog {
	return d.catalog
}

// Bounds возвращает границы мира
func (d *Diagram) Bounds() vec.Bounds {
	return d.bounds
}

func (d *Diagram) checkBounds(pos vec.Vec3) error {
	if !d.bounds.Contains(pos) {
		return &OutOfBoundsError{Pos: pos, Bounds: d.bounds}
	}
	return nil
}

func (d *Diagram) validatePlace(pos vec.Vec3, id block.BlockID, o block.Orientation) error {
	if err := d.checkBounds(pos); err != nil {
		return err
	}
	if id == block.AirBlockID {
		return fmt.Errorf("%w: %s", ErrEmptyBlock, pos)
	}
	props, ok := d.catalog.Get(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBlockType, id)
	}
	if !props.IsAllowed(o) {
		return fmt.Errorf("%w: %s для %s", ErrInvalidOrientation, o, props.Name)
	}
	return nil
}

// BlockAt возвращает блок в позиции или пустую ячейку
func (d *Diagram) BlockAt(pos vec.Vec3) Block {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.store.Get(pos)
}

// Exists проверяет, занята ли позиция
func (d *Diagram) Exists(pos vec.Vec3) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.store.Has(pos)
}

// NeighborMask возвращает маску перекрывающих соседей позиции
func (d *Diagram) NeighborMask(pos vec.Vec3) vec.NeighborMask {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.store.NeighborMask(pos)
}

// SynthesizeGeometry строит сетку позиции по текущему состоянию.
// Для пустой позиции возвращается пустая сетка.
func (d *Diagram) SynthesizeGeometry(pos vec.Vec3) geometry.Mesh {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.meshLocked(pos)
}

func (d *Diagram) meshLocked(pos vec.Vec3) geometry.Mesh {
	return d.store.mesh(d.catalog, pos)
}

// ForEach обходит блоки в порядке (Y, Z, X), пока fn возвращает true.
// fn вызывается под блокировкой чтения и не должен изменять диаграмму.
func (d *Diagram) ForEach(fn func(b Block) bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, b := range d.store.Sorted() {
		if !fn(b) {
			return
		}
	}
}

// Blocks возвращает копию всех блоков в порядке (Y, Z, X)
func (d *Diagram) Blocks() []Block {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.store.Sorted()
}

// BlockCount возвращает число занятых позиций
func (d *Diagram) BlockCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.store.Len()
}

// BlockCounts возвращает число блоков каждого типа
func (d *Diagram) BlockCounts() map[block.BlockID]int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.store.Counts()
}

// Level возвращает блоки уровня y в порядке (Z, X)
func (d *Diagram) Level(y int) []Block {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.store.Level(y)
}

// Snapshot снимает копию содержимого под одной блокировкой чтения.
// Последующие правки диаграммы на снимок не влияют.
func (d *Diagram) Snapshot() *Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return &Snapshot{
		catalog: d.catalog,
		bounds:  d.bounds,
		store:   d.store.Clone(),
	}
}

// Digest возвращает отпечаток содержимого хранилища
func (d *Diagram) Digest() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	h := xxh3.New()
	var buf [16]byte
	for _, b := range d.store.Sorted() {
		binary.LittleEndian.PutUint32(buf[0:], uint32(int32(b.Pos.X)))
		binary.LittleEndian.PutUint32(buf[4:], uint32(int32(b.Pos.Y)))
		binary.LittleEndian.PutUint32(buf[8:], uint32(int32(b.Pos.Z)))
		binary.LittleEndian.PutUint16(buf[12:], uint16(b.ID))
		buf[14] = byte(b.Orientation.Facing)
		buf[15] = byte(b.Orientation.Corner)
		h.Write(buf[:])
	}
	return h.Sum64()
}

// CanUndo возвращает true, если есть что отменять
func (d *Diagram) CanUndo() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.history.CanUndo()
}

// CanRedo возвращает true, если есть что повторять
func (d *Diagram) CanRedo() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.history.CanRedo()
}

// HistoryDepth возвращает глубину стеков отмены и повтора
func (d *Diagram) HistoryDepth() (undo, redo int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.history.Depth()
}

// InTransaction возвращает true, если открыта транзакция
func (d *Diagram) InTransaction() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.open != nil
}

// Begin открывает транзакцию. Вторая открытая транзакция не допускается.
func (d *Diagram) Begin() (*Transaction, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.open != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransactionAlreadyOpen, d.open.id)
	}
	tx := newTransaction(d)
	d.open = tx
	return tx, nil
}

// WithTransaction открывает транзакцию, выполняет fn и гарантирует её завершение.
// Транзакция откатывается, если fn вернула ошибку, вызвала tx.Abort() или запаниковала;
// иначе фиксируется. Если fn сама завершила транзакцию, повторно она не трогается.
func (d *Diagram) WithTransaction(fn func(tx *Transaction) error) error {
	tx, err := d.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if tx.State() == TxOpen {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if tx.State() != TxOpen {
		return nil
	}
	if tx.Aborted() {
		return tx.Rollback()
	}
	return tx.Commit()
}

func (d *Diagram) current() (*Transaction, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.open == nil {
		return nil, ErrNoOpenTransaction
	}
	return d.open, nil
}

// Place добавляет правку в открытую транзакцию
func (d *Diagram) Place(pos vec.Vec3, id block.BlockID, o block.Orientation) error {
	tx, err := d.current()
	if err != nil {
		return err
	}
	return tx.Place(pos, id, o)
}

// Erase добавляет удаление в открытую транзакцию
func (d *Diagram) Erase(pos vec.Vec3) error {
	tx, err := d.current()
	if err != nil {
		return err
	}
	return tx.Erase(pos)
}

// Commit фиксирует открытую транзакцию
func (d *Diagram) Commit() error {
	tx, err := d.current()
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Rollback откатывает открытую транзакцию
func (d *Diagram) Rollback() error {
	tx, err := d.current()
	if err != nil {
		return err
	}
	return tx.Rollback()
}

func (d *Diagram) commit(tx *Transaction) error {
	if tx.state != TxOpen {
		return ErrTransactionClosed
	}
	edits := tx.effective()

	d.mu.Lock()
	if d.open != tx {
		d.mu.Unlock()
		return ErrNoOpenTransaction
	}
	d.open = nil

	if err := d.applyLocked(edits); err != nil {
		tx.state = TxRolledBack
		d.mu.Unlock()

		d.logger.Warn("Фиксация транзакции %s не удалась: %v", tx.id, err)
		d.notify(ChangeSet{Kind: ChangeCommit, TxID: tx.id, Edits: edits, Err: err})
		return fmt.Errorf("фиксация транзакции %s: %w", tx.id, err)
	}
	tx.state = TxCommitted

	if len(edits) == 0 {
		d.mu.Unlock()
		return nil
	}

	batch := Batch{TxID: tx.id, Edits: edits}
	d.history.Record(batch.Inverse())
	cs := d.changeSetLocked(ChangeCommit, batch)
	d.mu.Unlock()

	d.logger.Debug("Транзакция %s зафиксирована: %d правок", tx.id, len(edits))
	d.notify(cs)
	return nil
}

func (d *Diagram) rollback(tx *Transaction) error {
	if tx.state != TxOpen {
		return ErrTransactionClosed
	}

	d.mu.Lock()
	if d.open == tx {
		d.open = nil
	}
	tx.state = TxRolledBack
	d.mu.Unlock()

	d.logger.Debug("Транзакция %s откатана: отброшено %d правок", tx.id, tx.Len())
	d.notify(ChangeSet{Kind: ChangeRollback, TxID: tx.id, Edits: tx.Edits()})
	return nil
}

// Undo отменяет последнюю зафиксированную транзакцию
func (d *Diagram) Undo() error {
	return d.travel(ChangeUndo)
}

// Redo повторяет последнюю отменённую транзакцию
func (d *Diagram) Redo() error {
	return d.travel(ChangeRedo)
}

func (d *Diagram) travel(kind ChangeKind) error {
	d.mu.Lock()
	if d.open != nil {
		d.mu.Unlock()
		return fmt.Errorf("%s: %w", kind, ErrTransactionAlreadyOpen)
	}

	batch, ok := d.history.peek(kind)
	if !ok {
		d.mu.Unlock()
		if kind == ChangeRedo {
			return ErrNothingToRedo
		}
		return ErrNothingToUndo
	}

	if err := d.applyLocked(batch.Edits); err != nil {
		d.mu.Unlock()

		d.logger.Warn("Операция %s для %s не удалась: %v", kind, batch.TxID, err)
		d.notify(ChangeSet{Kind: kind, TxID: batch.TxID, Edits: batch.Edits, Err: err})
		return fmt.Errorf("%s транзакции %s: %w", kind, batch.TxID, err)
	}

	d.history.advance(kind)
	cs := d.changeSetLocked(kind, batch)
	d.mu.Unlock()

	d.logger.Debug("Операция %s для %s: %d правок", kind, batch.TxID, len(batch.Edits))
	d.notify(cs)
	return nil
}

// applyLocked применяет правки по порядку. Если применение прервано,
// уже применённые правки откатываются в обратном порядке по значениям Prior.
func (d *Diagram) applyLocked(edits []Edit) (err error) {
	applied := 0
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrApplyAborted, r)
		}
		if err != nil {
			for i := applied - 1; i >= 0; i-- {
				d.store.Put(edits[i].Prior)
			}
		}
	}()

	for i, e := range edits {
		if d.applyHook != nil {
			if herr := d.applyHook(i, e); herr != nil {
				return fmt.Errorf("%w: правка %d %s: %w", ErrApplyAborted, i, e.Pos, herr)
			}
		}
		d.store.Put(e.New)
		applied++
	}
	return nil
}

// changeSetLocked собирает изменение по только что применённому пакету.
// Сетки строятся, только если есть наблюдатели.
func (d *Diagram) changeSetLocked(kind ChangeKind, batch Batch) ChangeSet {
	cs := ChangeSet{
		Kind:  kind,
		TxID:  batch.TxID,
		Edits: batch.Edits,
		Dirty: d.dirtyLocked(batch.Edits),
	}

	d.obsMu.RLock()
	hasObservers := len(d.observers) > 0
	d.obsMu.RUnlock()

	if hasObservers {
		cs.Meshes = make(map[vec.Vec3]geometry.Mesh, len(cs.Dirty))
		for _, pos := range cs.Dirty {
			cs.Meshes[pos] = d.meshLocked(pos)
		}
	}
	return cs
}

// dirtyLocked возвращает затронутые позиции и их соседей в пределах мира
func (d *Diagram) dirtyLocked(edits []Edit) []vec.Vec3 {
	seen := make(map[vec.Vec3]struct{}, len(edits)*(vec.FaceCount+1))
	var out []vec.Vec3
	add := func(p vec.Vec3) {
		if _, ok := seen[p]; ok || !d.bounds.Contains(p) {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, e := range edits {
		add(e.Pos)
		for _, n := range e.Pos.Neighbors() {
			add(n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func (d *Diagram) notify(cs ChangeSet) {
	d.obsMu.RLock()
	observers := append([]Observer(nil), d.observers...)
	d.obsMu.RUnlock()

	for _, o := range observers {
		o.OnChange(cs)
	}
}

// Load заменяет содержимое диаграммы блоками из blocks в обход истории.
// Все блоки проверяются заранее: при ошибке диаграмма не меняется.
// При повторе позиции побеждает последний блок. История очищается.
func (d *Diagram) Load(blocks []Block) error {
	for _, b := range blocks {
		if err := d.validatePlace(b.Pos, b.ID, b.Orientation); err != nil {
			return fmt.Errorf("загрузка блока %s: %w", b.Pos, err)
		}
	}

	d.mu.Lock()
	if d.open != nil {
		d.mu.Unlock()
		return fmt.Errorf("загрузка: %w", ErrTransactionAlreadyOpen)
	}
	d.store.Clear()
	for _, b := range blocks {
		d.store.Put(b)
	}
	d.history.Clear()
	count := d.store.Len()
	d.mu.Unlock()

	d.logger.Info("Диаграмма загружена: %d блоков", count)
	d.notify(ChangeSet{Kind: ChangeLoad, TxID: uuid.Nil})
	return nil
}
