package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/annel0/blockmodeler/internal/vec"
	"github.com/annel0/blockmodeler/internal/world"
)

var (
	ErrDiagramNotFound = errors.New("диаграмма не найдена")
	ErrInvalidName     = errors.New("недопустимое имя диаграммы")
	ErrNotReady        = errors.New("хранилище не готово")
)

// DiagramRepo определяет интерфейс для сохранения и загрузки диаграмм по имени.
// Сохранение перечисляет блоки через Oracle, загрузка возвращает данные,
// которые вызывающий передаёт в Diagram.Load.
type DiagramRepo interface {
	// Save сохраняет все занятые позиции диаграммы под именем name, заменяя прежнюю версию.
	Save(ctx context.Context, name string, src world.Oracle) error

	// Load загружает диаграмму. Возвращает ErrDiagramNotFound, если её нет.
	Load(ctx context.Context, name string) (*DiagramData, error)

	// Delete удаляет диаграмму. Удаление отсутствующей диаграммы не является ошибкой.
	Delete(ctx context.Context, name string) error

	// List возвращает имена сохранённых диаграмм по алфавиту.
	List(ctx context.Context) ([]string, error)

	Close() error
}

// DiagramMeta - сведения о сохранённой диаграмме
type DiagramMeta struct {
	Name    string     `json:"name"`
	Bounds  vec.Bounds `json:"bounds"`
	Blocks  int        `json:"blocks"`
	SavedAt time.Time  `json:"saved_at"`
}

// DiagramData - сохранённая диаграмма целиком
type DiagramData struct {
	Meta   DiagramMeta   `json:"meta"`
	Blocks []world.Block `json:"blocks"`
}

// Capture снимает содержимое диаграммы через Oracle
func Capture(name string, src world.Oracle) DiagramData {
	blocks := src.Blocks()
	return DiagramData{
		Meta: DiagramMeta{
			Name:    name,
			Bounds:  src.Bounds(),
			Blocks:  len(blocks),
			SavedAt: time.Now().UTC(),
		},
		Blocks: blocks,
	}
}

// Restore загружает диаграмму name из repo в d в обход истории
func Restore(ctx context.Context, repo DiagramRepo, name string, d *world.Diagram) error {
	data, err := repo.Load(ctx, name)
	if err != nil {
		return err
	}
	if err := d.Load(data.Blocks); err != nil {
		return fmt.Errorf("ошибка применения диаграммы %s: %w", name, err)
	}
	return nil
}

// ValidateName проверяет имя диаграммы: непустое, без ':', '/' и пробельных символов
func ValidateName(name string) error {
	if name == "" || strings.ContainsAny(name, ": \t\n/") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
