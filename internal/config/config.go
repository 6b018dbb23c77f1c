package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/annel0/blockmodeler/internal/vec"
)

// Config корневая структура конфигурации моделлера.
// Пустые поля заменяются значениями по умолчанию в Default/Load.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	History   HistoryConfig   `yaml:"history"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type WorldConfig struct {
	Min vec.Vec3 `yaml:"min"`
	Max vec.Vec3 `yaml:"max"`
}

// Bounds возвращает границы мира
func (w WorldConfig) Bounds() vec.Bounds {
	return vec.NewBounds(w.Min, w.Max)
}

type HistoryConfig struct {
	Limit int `yaml:"limit"` // 0 - без ограничения
}

type CatalogConfig struct {
	Path string `yaml:"path"` // пусто - встроенный каталог
}

type StorageConfig struct {
	Driver   string      `yaml:"driver"` // badger, memory, redis, mysql
	Dir      string      `yaml:"dir"`
	Snapshot string      `yaml:"snapshot"`
	Redis    RedisConfig `yaml:"redis"`
	MySQLDSN string      `yaml:"mysql_dsn"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "MODELER_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "MODELER_METRICS_PORT", 2112)
}

type EventBusConfig struct {
	URL       string `yaml:"url"` // пусто - шина в памяти
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"` // host:port OTLP HTTP, пусто - localhost:4318
}

type LoggingConfig struct {
	Dir        string            `yaml:"dir"` // пусто - только консоль
	Level      string            `yaml:"level"`
	Components map[string]string `yaml:"components"` // уровень по компонентам, например storage: debug
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.World.Max == (vec.Vec3{}) && c.World.Min == (vec.Vec3{}) {
		c.World.Max = vec.Vec3{X: 256, Y: 128, Z: 256}
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "badger"
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = "data"
	}
	if c.Storage.Redis.Addr == "" {
		c.Storage.Redis.Addr = "localhost:6379"
	}
	if c.Storage.Redis.KeyPrefix == "" {
		c.Storage.Redis.KeyPrefix = "modeler:diagram:"
	}
	if c.EventBus.Stream == "" {
		c.EventBus.Stream = "DIAGRAM"
	}
	if c.EventBus.Retention <= 0 {
		c.EventBus.Retention = 24
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "blockmodeler"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	if c.World.Bounds().Empty() {
		return fmt.Errorf("пустые границы мира %s", c.World.Bounds())
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("отрицательный лимит истории: %d", c.History.Limit)
	}
	switch c.Storage.Driver {
	case "badger", "memory", "redis":
	case "mysql":
		if c.Storage.MySQLDSN == "" {
			return fmt.Errorf("для драйвера mysql требуется storage.mysql_dsn")
		}
	default:
		return fmt.Errorf("неизвестный драйвер хранилища %q", c.Storage.Driver)
	}
	return nil
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV MODELER_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("MODELER_CONFIG")
		if path == "" {
			return Default(), nil // конфиг не задан - используем дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения конфигурации %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
