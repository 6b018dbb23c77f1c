package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/blockmodeler/internal/logging"
	"github.com/annel0/blockmodeler/internal/world"
)

// RedisDiagramRepo хранит диаграммы в Redis: блоки в хеше "<префикс><имя>:blocks"
// с полями "x:y:z", сведения - в "<префикс><имя>:meta", имена - в множестве "<префикс>index".
type RedisDiagramRepo struct {
	client    *redis.Client
	keyPrefix string
}

var _ DiagramRepo = (*RedisDiagramRepo)(nil)

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string `yaml:"addr"`       // Адрес Redis сервера
	Password  string `yaml:"password"`   // Пароль (пустой если не требуется)
	DB        int    `yaml:"db"`         // Номер базы данных
	KeyPrefix string `yaml:"key_prefix"` // Префикс для ключей
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		Password:  "",
		DB:        0,
		KeyPrefix: "modeler:diagram:",
	}
}

// NewRedisDiagramRepo создаёт новый Redis репозиторий диаграмм
func NewRedisDiagramRepo(ctx context.Context, config *RedisConfig) (*RedisDiagramRepo, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	// Создаём клиент Redis
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	// Проверяем подключение
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("не удалось подключиться к Redis: %w", err)
	}

	logging.GetStorageLogger().Info("Подключено к Redis %s", config.Addr)
	return &RedisDiagramRepo{
		client:    client,
		keyPrefix: config.KeyPrefix,
	}, nil
}

func (r *RedisDiagramRepo) blocksKey(name string) string {
	return r.keyPrefix + name + ":blocks"
}

func (r *RedisDiagramRepo) metaKey(name string) string {
	return r.keyPrefix + name + ":meta"
}

func (r *RedisDiagramRepo) indexKey() string {
	return r.keyPrefix + "index"
}

// Save сохраняет диаграмму одной транзакцией MULTI/EXEC
func (r *RedisDiagramRepo) Save(ctx context.Context, name string, src world.Oracle) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	data := Capture(name, src)

	fields := make(map[string]interface{}, len(data.Blocks))
	for _, b := range data.Blocks {
		value, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("ошибка сериализации блока %s: %w", b.Pos, err)
		}
		fields[fmt.Sprintf("%d:%d:%d", b.Pos.X, b.Pos.Y, b.Pos.Z)] = value
	}

	meta, err := json.Marshal(data.Meta)
	if err != nil {
		return fmt.Errorf("ошибка сериализации сведений о диаграмме: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.blocksKey(name))
		if len(fields) > 0 {
			pipe.HSet(ctx, r.blocksKey(name), fields)
		}
		pipe.Set(ctx, r.metaKey(name), meta, 0)
		pipe.SAdd(ctx, r.indexKey(), name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в Redis: %w", err)
	}
	return nil
}

// Load загружает диаграмму
func (r *RedisDiagramRepo) Load(ctx context.Context, name string) (*DiagramData, error) {
	raw, err := r.client.Get(ctx, r.metaKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrDiagramNotFound, name)
	} else if err != nil {
		return nil, fmt.Errorf("ошибка чтения из Redis: %w", err)
	}

	var data DiagramData
	if err := json.Unmarshal(raw, &data.Meta); err != nil {
		return nil, fmt.Errorf("ошибка десериализации сведений о диаграмме: %w", err)
	}

	fields, err := r.client.HGetAll(ctx, r.blocksKey(name)).Result()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения блоков из Redis: %w", err)
	}

	data.Blocks = make([]world.Block, 0, len(fields))
	for field, value := range fields {
		var b world.Block
		if err := json.Unmarshal([]byte(value), &b); err != nil {
			return nil, fmt.Errorf("ошибка десериализации блока %s: %w", field, err)
		}
		data.Blocks = append(data.Blocks, b)
	}
	sort.Slice(data.Blocks, func(i, j int) bool { return data.Blocks[i].Pos.Less(data.Blocks[j].Pos) })
	return &data, nil
}

// Delete удаляет диаграмму
func (r *RedisDiagramRepo) Delete(ctx context.Context, name string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.blocksKey(name), r.metaKey(name))
		pipe.SRem(ctx, r.indexKey(), name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления из Redis: %w", err)
	}
	return nil
}

// List возвращает имена сохранённых диаграмм
func (r *RedisDiagramRepo) List(ctx context.Context) ([]string, error) {
	names, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения индекса из Redis: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Close закрывает соединение с Redis
func (r *RedisDiagramRepo) Close() error {
	return r.client.Close()
}
