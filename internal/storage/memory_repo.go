package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/annel0/blockmodeler/internal/world"
)

// MemoryDiagramRepo реализует DiagramRepo в памяти.
// Используется в тестах и когда постоянное хранилище не настроено.
// ВНИМАНИЕ: Данные теряются при перезапуске!
type MemoryDiagramRepo struct {
	mu   sync.RWMutex
	data map[string]DiagramData
}

// NewMemoryDiagramRepo создает новый репозиторий диаграмм в памяти.
func NewMemoryDiagramRepo() *MemoryDiagramRepo {
	return &MemoryDiagramRepo{
		data: make(map[string]DiagramData),
	}
}

// Save сохраняет диаграмму в памяти.
func (r *MemoryDiagramRepo) Save(ctx context.Context, name string, src world.Oracle) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := checkContext(ctx); err != nil {
		return err
	}

	data := Capture(name, src)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[name] = data
	return nil
}

// Load загружает диаграмму из памяти.
func (r *MemoryDiagramRepo) Load(ctx context.Context, name string) (*DiagramData, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	data, ok := r.data[name]
	if !ok {
		return nil, ErrDiagramNotFound
	}

	out := DiagramData{Meta: data.Meta, Blocks: append([]world.Block(nil), data.Blocks...)}
	return &out, nil
}

// Delete удаляет диаграмму из памяти.
func (r *MemoryDiagramRepo) Delete(ctx context.Context, name string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, name)
	return nil
}

// List возвращает имена диаграмм.
func (r *MemoryDiagramRepo) List(ctx context.Context) ([]string, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.data))
	for name := range r.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close ничего не делает для хранилища в памяти.
func (r *MemoryDiagramRepo) Close() error {
	return nil
}

// Count возвращает количество сохранённых диаграмм (для тестов и мониторинга).
func (r *MemoryDiagramRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}
