package logging

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
)

// Компоненты модельера. Уровень каждого можно переопределить в logging.components.
const (
	ComponentApp      = "app"
	ComponentDiagram  = "diagram"
	ComponentStorage  = "storage"
	ComponentAPI      = "api"
	ComponentEventBus = "eventbus"
	ComponentScript   = "script"
)

var knownComponents = []string{
	ComponentApp, ComponentDiagram, ComponentStorage,
	ComponentAPI, ComponentEventBus, ComponentScript,
}

// LoggerManager выдаёт по одному логгеру на компонент и хранит
// переопределения консольного уровня из конфигурации
type LoggerManager struct {
	mu      sync.Mutex
	loggers map[string]*Logger
	levels  map[string]LogLevel
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = newLoggerManager()
	})
	return globalManager
}

func newLoggerManager() *LoggerManager {
	return &LoggerManager{
		loggers: make(map[string]*Logger),
		levels:  make(map[string]LogLevel),
	}
}

// Configure задаёт консольные уровни компонентов, например {"storage": "debug"}.
// Неизвестный компонент или уровень - ошибка; при ошибке ничего не меняется.
// Уже выданные логгеры получают новый уровень сразу.
func (lm *LoggerManager) Configure(levels map[string]string) error {
	parsed := make(map[string]LogLevel, len(levels))
	for component, name := range levels {
		if !isKnownComponent(component) {
			return fmt.Errorf("неизвестный компонент логирования %q (допустимы: %s)",
				component, strings.Join(knownComponents, ", "))
		}
		level, err := LookupLevel(name)
		if err != nil {
			return fmt.Errorf("компонент %s: %w", component, err)
		}
		parsed[component] = level
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	for component, level := range parsed {
		lm.levels[component] = level
		if logger, ok := lm.loggers[component]; ok {
			logger.minConsoleLevel = level
		}
	}
	return nil
}

// Logger возвращает логгер компонента, создавая его при первом обращении.
// Если файл лога открыть не удалось, компонент пишет только в консоль.
func (lm *LoggerManager) Logger(component string) *Logger {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if logger, ok := lm.loggers[component]; ok {
		return logger
	}

	logger, err := NewLogger(component)
	if err != nil {
		log.Printf("⚠️ Логгер %s без файла: %v", component, err)
		logger = &Logger{
			component:       component,
			consoleLogger:   log.New(os.Stdout, "", log.LstdFlags),
			minConsoleLevel: INFO,
			minFileLevel:    ERROR,
		}
	}
	if level, ok := lm.levels[component]; ok {
		logger.minConsoleLevel = level
	}
	lm.loggers[component] = logger
	return logger
}

// Level возвращает консольный уровень компонента с учётом переопределений
func (lm *LoggerManager) Level(component string) LogLevel {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if logger, ok := lm.loggers[component]; ok {
		return logger.minConsoleLevel
	}
	if level, ok := lm.levels[component]; ok {
		return level
	}
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return consoleLevel
}

// Components возвращает отсортированный список компонентов с выданными логгерами
func (lm *LoggerManager) Components() []string {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	out := make([]string, 0, len(lm.loggers))
	for component := range lm.loggers {
		out = append(out, component)
	}
	sort.Strings(out)
	return out
}

// CloseAll закрывает файлы всех логгеров и забывает их
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var firstErr error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("ошибка закрытия логгера %s: %w", component, err)
		}
	}
	lm.loggers = make(map[string]*Logger)
	return firstErr
}

func isKnownComponent(component string) bool {
	for _, c := range knownComponents {
		if c == component {
			return true
		}
	}
	return false
}

func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().Logger(component)
}

func GetDiagramLogger() *Logger {
	return GetComponentLogger(ComponentDiagram)
}

func GetStorageLogger() *Logger {
	return GetComponentLogger(ComponentStorage)
}

func GetAPILogger() *Logger {
	return GetComponentLogger(ComponentAPI)
}

func GetEventBusLogger() *Logger {
	return GetComponentLogger(ComponentEventBus)
}

func GetScriptLogger() *Logger {
	return GetComponentLogger(ComponentScript)
}
