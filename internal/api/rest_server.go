package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/blockmodeler/internal/logging"
	"github.com/annel0/blockmodeler/internal/world"
)

// RestServer - HTTP-интерфейс только для чтения поверх Oracle.
// Правки диаграммы через него не выполняются.
type RestServer struct {
	router  *gin.Engine
	oracle  world.Oracle
	port    string
	metrics *ServerMetrics
	logger  *logging.Logger
	server  *http.Server
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port        string               // порт для запуска сервера
	Oracle      world.Oracle         // источник данных диаграммы
	ServiceName string               // имя сервиса для трассировки и метрик
	Registry    *prometheus.Registry // nil - глобальный регистр Prometheus
	Logger      *logging.Logger      // nil - логгер компонента api
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}
	if config.ServiceName == "" {
		config.ServiceName = "modeler_api"
	}
	if config.Logger == nil {
		config.Logger = logging.GetAPILogger()
	}

	var (
		reg    prometheus.Registerer = prometheus.DefaultRegisterer
		gather prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if config.Registry != nil {
		reg, gather = config.Registry, config.Registry
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	router.Use(otelgin.Middleware(config.ServiceName))
	router.Use(requestLogger(config.Logger))

	promMw := NewPrometheusMiddleware(config.ServiceName, reg)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, gather)

	server := &RestServer{
		router:  router,
		oracle:  config.Oracle,
		port:    config.Port,
		metrics: NewServerMetrics(),
		logger:  config.Logger,
	}

	server.setupRoutes()
	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS: рендерер может работать из браузера
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	v1 := rs.router.Group("/api/v1")
	{
		v1.GET("/diagram", rs.handleDiagram)
		v1.GET("/catalog", rs.handleCatalog)
		v1.GET("/materials", rs.handleMaterials)
		v1.GET("/server", rs.handleServerInfo)

		v1.GET("/blocks", rs.handleBlocks)
		blocks := v1.Group("/blocks/:x/:y/:z")
		{
			blocks.GET("", rs.handleBlock)
			blocks.GET("/exists", rs.handleExists)
			blocks.GET("/mask", rs.handleMask)
			blocks.GET("/geometry", rs.handleGeometry)
		}
	}

	rs.router.GET("/health", rs.handleHealth)
}

// Handler возвращает http.Handler сервера (используется в тестах)
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Start запускает REST сервер и блокируется до остановки
func (rs *RestServer) Start() error {
	rs.server = &http.Server{
		Addr:              rs.port,
		Handler:           rs.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	rs.logger.Info("REST API слушает %s", rs.port)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ошибка REST сервера: %w", err)
	}
	return nil
}

// Stop останавливает сервер, дожидаясь завершения текущих запросов
func (rs *RestServer) Stop(ctx context.Context) error {
	if rs.server == nil {
		return nil
	}
	return rs.server.Shutdown(ctx)
}
