package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/blockmodeler/internal/config"
	"github.com/annel0/blockmodeler/internal/eventbus"
	"github.com/annel0/blockmodeler/internal/logging"
	"github.com/annel0/blockmodeler/internal/metrics"
	"github.com/annel0/blockmodeler/internal/observability"
	"github.com/annel0/blockmodeler/internal/storage"
	"github.com/annel0/blockmodeler/internal/world"
	"github.com/annel0/blockmodeler/internal/world/block"
)

// App связывает диаграмму с хранилищем, шиной событий и метриками.
// Создаётся один раз на процесс.
type App struct {
	Config   *config.Config
	Name     string
	Catalog  *block.Catalog
	Diagram  *world.Diagram
	Repo     storage.DiagramRepo
	Bus      eventbus.EventBus
	Registry *prometheus.Registry
	Exporter *eventbus.MetricsExporter

	shutdown observability.ShutdownFunc
	logger   *logging.Logger
}

// New собирает приложение для диаграммы name.
// Если диаграмма уже сохранена в хранилище, она загружается.
func New(ctx context.Context, cfg *config.Config, name string) (*App, error) {
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Name:     name,
		Registry: prometheus.NewRegistry(),
		shutdown: observability.Noop(),
		logger:   logging.GetComponentLogger(logging.ComponentApp),
	}

	catalog, err := block.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки каталога: %w", err)
	}
	a.Catalog = catalog

	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("ошибка инициализации телеметрии: %w", err)
		}
		a.shutdown = shutdown
	}

	repo, err := OpenRepo(ctx, cfg.Storage)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Repo = repo

	bus, err := OpenBus(cfg.EventBus)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Bus = bus
	a.Exporter = eventbus.NewMetricsExporter(bus, a.Registry)

	a.Diagram = world.NewDiagram(catalog, cfg.World.Bounds(),
		world.WithHistoryLimit(cfg.History.Limit),
		world.WithLogger(logging.GetDiagramLogger()),
	)

	if err := storage.Restore(ctx, repo, name, a.Diagram); err != nil && !errors.Is(err, storage.ErrDiagramNotFound) {
		a.Close()
		return nil, err
	}

	// Наблюдатели подключаются после загрузки: начальное состояние не публикуется
	a.Diagram.AddObserver(metrics.NewRecorder(a.Diagram, a.Registry))
	a.Diagram.AddObserver(eventbus.NewDiagramPublisher(bus, name))
	if cfg.Telemetry.Enabled {
		a.Diagram.AddObserver(observability.NewChangeTracer(nil))
	}

	a.logger.Info("Диаграмма %s открыта: %d блоков, хранилище %s", name, a.Diagram.BlockCount(), cfg.Storage.Driver)
	return a, nil
}

// OpenRepo создаёт хранилище по имени драйвера
func OpenRepo(ctx context.Context, cfg config.StorageConfig) (storage.DiagramRepo, error) {
	var (
		repo storage.DiagramRepo
		err  error
	)
	switch cfg.Driver {
	case "", "badger":
		repo, err = storage.NewDiagramStorage(cfg.Dir)
	case "memory":
		repo = storage.NewMemoryDiagramRepo()
	case "redis":
		repo, err = storage.NewRedisDiagramRepo(ctx, &storage.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
	case "mysql":
		repo, err = storage.NewMariaDiagramRepo(ctx, cfg.MySQLDSN)
	default:
		return nil, fmt.Errorf("неизвестный драйвер хранилища %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия хранилища %s: %w", cfg.Driver, err)
	}
	return repo, nil
}

// OpenBus создаёт шину событий: JetStream, если задан URL, иначе в памяти
func OpenBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	if cfg.URL == "" {
		return eventbus.NewMemoryBus(1024), nil
	}
	bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, time.Duration(cfg.Retention)*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к шине событий: %w", err)
	}
	return bus, nil
}

// Save сохраняет текущую диаграмму в хранилище
func (a *App) Save(ctx context.Context) error {
	if err := a.Repo.Save(ctx, a.Name, a.Diagram); err != nil {
		return fmt.Errorf("ошибка сохранения диаграммы %s: %w", a.Name, err)
	}
	a.logger.Info("Диаграмма %s сохранена: %d блоков", a.Name, a.Diagram.BlockCount())
	return nil
}

// Close освобождает ресурсы в обратном порядке
func (a *App) Close() error {
	var errs []error
	if a.Exporter != nil {
		a.Exporter.Stop()
	}
	if a.Bus != nil {
		errs = append(errs, a.Bus.Close())
	}
	if a.Repo != nil {
		errs = append(errs, a.Repo.Close())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errs = append(errs, a.shutdown(ctx))
	return errors.Join(errs...)
}
