package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v3"

	"github.com/annel0/blockmodeler/internal/world"
)

// DiagramStorage хранит диаграммы в BadgerDB.
// Каждый блок лежит под отдельным ключем "diagram:<имя>:block:x:y:z",
// сведения о диаграмме - под "diagram:<имя>:meta".
type DiagramStorage struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
}

var _ DiagramRepo = (*DiagramStorage)(nil)

// NewDiagramStorage создает новое хранилище диаграмм в каталоге dataPath
func NewDiagramStorage(dataPath string) (*DiagramStorage, error) {
	dbPath := filepath.Join(dataPath, "diagrams")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &DiagramStorage{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
	}, nil
}

// Close закрывает хранилище данных
func (ds *DiagramStorage) Close() error {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()

	if !ds.isReady {
		return nil
	}

	ds.isReady = false
	return ds.db.Close()
}

func diagramPrefix(name string) []byte {
	return []byte(fmt.Sprintf("diagram:%s:", name))
}

func metaKey(name string) []byte {
	return []byte(fmt.Sprintf("diagram:%s:meta", name))
}

func blockPrefix(name string) []byte {
	return []byte(fmt.Sprintf("diagram:%s:block:", name))
}

func blockKey(name string, b world.Block) []byte {
	return []byte(fmt.Sprintf("diagram:%s:block:%d:%d:%d", name, b.Pos.X, b.Pos.Y, b.Pos.Z))
}

// Save сохраняет диаграмму, заменяя прежнюю версию
func (ds *DiagramStorage) Save(ctx context.Context, name string, src world.Oracle) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	ds.mutex.RLock()
	defer ds.mutex.RUnlock()

	if !ds.isReady {
		return ErrNotReady
	}

	data := Capture(name, src)

	stale, err := ds.keys(diagramPrefix(name))
	if err != nil {
		return err
	}

	// Пакетная запись не ограничена размером одной транзакции BadgerDB
	wb := ds.db.NewWriteBatch()
	defer wb.Cancel()

	fresh := make(map[string]struct{}, len(data.Blocks)+1)
	for _, b := range data.Blocks {
		if err := checkContext(ctx); err != nil {
			return err
		}

		value, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("ошибка сериализации блока %s: %w", b.Pos, err)
		}
		key := blockKey(name, b)
		fresh[string(key)] = struct{}{}
		if err := wb.Set(key, value); err != nil {
			return fmt.Errorf("ошибка записи блока %s: %w", b.Pos, err)
		}
	}

	for _, key := range stale {
		if _, ok := fresh[string(key)]; ok || bytes.Equal(key, metaKey(name)) {
			continue
		}
		if err := wb.Delete(key); err != nil {
			return fmt.Errorf("ошибка удаления устаревшего блока: %w", err)
		}
	}

	meta, err := json.Marshal(data.Meta)
	if err != nil {
		return fmt.Errorf("ошибка сериализации сведений о диаграмме: %w", err)
	}
	if err := wb.Set(metaKey(name), meta); err != nil {
		return fmt.Errorf("ошибка записи сведений о диаграмме: %w", err)
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// Load загружает диаграмму
func (ds *DiagramStorage) Load(ctx context.Context, name string) (*DiagramData, error) {
	ds.mutex.RLock()
	defer ds.mutex.RUnlock()

	if !ds.isReady {
		return nil, ErrNotReady
	}

	var data DiagramData
	err := ds.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(name))
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &data.Meta)
		}); err != nil {
			return err
		}

		prefix := blockPrefix(name)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		data.Blocks = make([]world.Block, 0, data.Meta.Blocks)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := checkContext(ctx); err != nil {
				return err
			}

			var b world.Block
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &b)
			}); err != nil {
				return fmt.Errorf("ошибка десериализации блока %s: %w", it.Item().Key(), err)
			}
			data.Blocks = append(data.Blocks, b)
		}
		return nil
	})

	// Если диаграмма не найдена, сообщаем об этом отдельной ошибкой
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrDiagramNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	sort.Slice(data.Blocks, func(i, j int) bool { return data.Blocks[i].Pos.Less(data.Blocks[j].Pos) })
	return &data, nil
}

// Delete удаляет диаграмму
func (ds *DiagramStorage) Delete(ctx context.Context, name string) error {
	ds.mutex.RLock()
	defer ds.mutex.RUnlock()

	if !ds.isReady {
		return ErrNotReady
	}

	keys, err := ds.keys(diagramPrefix(name))
	if err != nil {
		return err
	}

	wb := ds.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return fmt.Errorf("ошибка удаления из BadgerDB: %w", err)
		}
	}
	return wb.Flush()
}

// List возвращает имена сохранённых диаграмм
func (ds *DiagramStorage) List(ctx context.Context) ([]string, error) {
	ds.mutex.RLock()
	defer ds.mutex.RUnlock()

	if !ds.isReady {
		return nil, ErrNotReady
	}

	keys, err := ds.keys([]byte("diagram:"))
	if err != nil {
		return nil, err
	}

	var names []string
	for _, key := range keys {
		k := string(key)
		if !bytes.HasSuffix(key, []byte(":meta")) {
			continue
		}
		names = append(names, k[len("diagram:"):len(k)-len(":meta")])
	}
	sort.Strings(names)
	return names, nil
}

// keys собирает ключи с префиксом без чтения значений
func (ds *DiagramStorage) keys(prefix []byte) ([][]byte, error) {
	var keys [][]byte
	err := ds.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ключей из BadgerDB: %w", err)
	}
	return keys, nil
}
