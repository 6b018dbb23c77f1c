package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/blockmodeler/internal/api"
	"github.com/annel0/blockmodeler/internal/app"
	"github.com/annel0/blockmodeler/internal/config"
	"github.com/annel0/blockmodeler/internal/eventbus"
	"github.com/annel0/blockmodeler/internal/logging"
	"github.com/annel0/blockmodeler/internal/report"
	"github.com/annel0/blockmodeler/internal/script"
	"github.com/annel0/blockmodeler/internal/storage"
)

const usage = `Команды:
  apply   -script FILE      выполнить сценарий правок и сохранить диаграмму
  report                    спецификация материалов
  serve                     HTTP API только для чтения
  export  -file FILE        записать снимок диаграммы
  import  -file FILE        загрузить снимок и сохранить диаграмму
  list                      имена сохранённых диаграмм
  delete                    удалить диаграмму из хранилища
  tail                      печатать события изменений из шины`

func main() {
	var (
		configPath = flag.String("config", "", "Путь к YAML конфигурации (иначе MODELER_CONFIG)")
		command    = flag.String("cmd", "report", "Команда: apply, report, serve, export, import, list, delete, tail")
		name       = flag.String("diagram", "default", "Имя диаграммы в хранилище")
		scriptPath = flag.String("script", "", "Сценарий для apply")
		filePath   = flag.String("file", "", "Файл снимка для export/import (иначе storage.snapshot)")
		dryRun     = flag.Bool("dry-run", false, "apply без сохранения результата")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Использование: %s [флаги]\n\n%s\n\nФлаги:\n", os.Args[0], usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if err := logging.InitLogger(cfg.Logging.Dir, logging.ParseLevel(cfg.Logging.Level)); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseLogger()
	if err := logging.GetLoggerManager().Configure(cfg.Logging.Components); err != nil {
		log.Fatalf("❌ Ошибка настройки логирования: %v", err)
	}
	defer logging.GetLoggerManager().CloseAll()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *filePath == "" {
		*filePath = cfg.Storage.Snapshot
	}

	if err := run(ctx, cfg, *command, *name, *scriptPath, *filePath, *dryRun); err != nil {
		logging.Error("Команда %s завершилась ошибкой: %v", *command, err)
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, command, name, scriptPath, filePath string, dryRun bool) error {
	switch command {
	case "list":
		return listDiagrams(ctx, cfg)
	case "delete":
		return deleteDiagram(ctx, cfg, name)
	case "tail":
		return tail(ctx, cfg)
	}

	a, err := app.New(ctx, cfg, name)
	if err != nil {
		return err
	}
	defer a.Close()

	switch command {
	case "apply":
		return apply(ctx, a, scriptPath, dryRun)
	case "report":
		return report.Build(a.Diagram).Write(os.Stdout)
	case "serve":
		return serve(ctx, a)
	case "export":
		if filePath == "" {
			return errors.New("не задан файл снимка (-file или storage.snapshot)")
		}
		return storage.SaveSnapshotFile(filePath, name, a.Diagram)
	case "import":
		if filePath == "" {
			return errors.New("не задан файл снимка (-file или storage.snapshot)")
		}
		data, err := storage.LoadSnapshotFile(filePath)
		if err != nil {
			return err
		}
		if err := a.Diagram.Load(data.Blocks); err != nil {
			return err
		}
		return a.Save(ctx)
	}
	return fmt.Errorf("неизвестная команда %q\n%s", command, usage)
}

func apply(ctx context.Context, a *app.App, path string, dryRun bool) error {
	if path == "" {
		return errors.New("не задан сценарий (-script)")
	}
	s, err := script.LoadFile(path)
	if err != nil {
		return err
	}

	res, runErr := script.NewRunner(a.Diagram).Run(s)
	fmt.Printf("Шагов: %d, транзакций: %d, прервано: %d, отменено: %d, повторено: %d\n",
		res.Steps, res.Committed, res.Aborted, res.Undone, res.Redone)
	fmt.Printf("Залито: %d, скопировано: %d, рельеф: %d, нарисовано: %d\n",
		res.Filled, res.Copied, res.Generated, res.Drawn)

	// Выполненные шаги сохраняются даже при ошибке в следующем шаге
	if !dryRun && res.Steps > 0 {
		if err := a.Save(ctx); err != nil {
			return errors.Join(runErr, err)
		}
	}
	return runErr
}

func serve(ctx context.Context, a *app.App) error {
	port := a.Config.Server.GetRESTPort()
	rs := api.NewRestServer(api.Config{
		Port:        fmt.Sprintf(":%d", port),
		Oracle:      a.Diagram,
		ServiceName: a.Config.Telemetry.ServiceName,
		Registry:    a.Registry,
	})

	if metricsPort := a.Config.Server.GetMetricsPort(); metricsPort != port {
		a.Exporter.StartHTTP(fmt.Sprintf(":%d", metricsPort), a.Registry)
	} else {
		a.Exporter.Start()
	}

	if _, err := eventbus.StartLoggingListener(a.Bus, logging.GetEventBusLogger()); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- rs.Start() }()

	logging.Info("Сервер запущен: http://localhost:%d/api/v1/diagram", port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info("Получен сигнал завершения, остановка сервера...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return rs.Stop(shutdownCtx)
}

func listDiagrams(ctx context.Context, cfg *config.Config) error {
	repo, err := app.OpenRepo(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer repo.Close()

	names, err := repo.List(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func deleteDiagram(ctx context.Context, cfg *config.Config, name string) error {
	repo, err := app.OpenRepo(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer repo.Close()
	return repo.Delete(ctx, name)
}

// tail печатает события до сигнала завершения
func tail(ctx context.Context, cfg *config.Config) error {
	bus, err := app.OpenBus(cfg.EventBus)
	if err != nil {
		return err
	}
	defer bus.Close()

	sub, err := bus.Subscribe(ctx, eventbus.Filter{}, func(_ context.Context, ev *eventbus.Envelope) {
		var change eventbus.ChangeEvent
		if err := ev.Decode(&change); err != nil {
			fmt.Printf("%s %s %s\n", ev.Timestamp.Format(time.RFC3339), ev.Source, ev.EventType)
			return
		}
		fmt.Printf("%s %s %-8s tx=%s правок=%d полигонов=%d %s\n",
			ev.Timestamp.Format(time.RFC3339), ev.Source, ev.EventType, change.TxID,
			len(change.Edits), change.Polygons, change.Error)
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	return nil
}
