package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/locvowork/employee_records/internal/config"
	"github.com/locvowork/employee_records/internal/database"
	"github.com/locvowork/employee_records/internal/domain"
	"github.com/locvowork/employee_records/internal/handler"
	"github.com/locvowork/employee_records/internal/logger"
	"github.com/locvowork/employee_records/internal/repository"
	"github.com/locvowork/employee_records/internal/repository/memory"
	"github.com/locvowork/employee_records/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Echo *echo.Echo
	DB   *sql.DB
	// Datastore is set when STORAGE_DRIVER=datastore.
	Datastore *datastore.Client
	Store     domain.Store
	// Index is set when ELASTIC_URL is configured.
	Index *database.ElasticSearchClient
}

func NewApp() *App {
	e := echo.New()
	e.HideBanner = true
	return &App{Echo: e}
}

func (a *App) Initialize(ctx context.Context) error {
	// Load environment configuration
	if err := config.LoadEnvConfig(); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}
	cfg := config.DefaultEnvConfig

	// Initialize logging
	logger.InitLogging(cfg.LOG_FILE_PATH, cfg.LOG_LEVEL)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	store, procStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	a.Store = store

	var opts []service.Option
	if cfg.ELASTIC_URL != "" {
		index, err := database.NewElasticSearchClient(cfg.ELASTIC_URL, cfg.ELASTIC_INDEX)
		if err != nil {
			return fmt.Errorf("failed to initialize search index: %w", err)
		}
		if err := index.EnsureIndex(ctx); err != nil {
			return fmt.Errorf("failed to prepare search index: %w", err)
		}
		a.Index = index
		opts = append(opts, service.WithSearchIndex(index))
		logger.InfoLog(ctx, "Employee search uses Elasticsearch index %q", cfg.ELASTIC_INDEX)
	}

	empSvc := service.NewEmployeeService(store, opts...)
	var procSvc *service.EmployeeService
	if procStore != nil {
		procSvc = service.NewEmployeeService(procStore, opts...)
	}

	a.Echo.Validator = handler.NewValidator(service.Today)

	// Register Middlewares
	a.RegisterMiddlewares()

	// Register Routes
	a.RegisterRoutes(
		handler.NewEmployeeHandler(empSvc, procSvc),
		handler.NewDepartmentHandler(service.NewDepartmentService(store)),
		handler.NewAssignmentHandler(service.NewAssignmentService(store)),
		handler.NewManagerHandler(service.NewManagementService(store)),
		handler.NewSalaryHandler(service.NewSalaryService(store)),
		handler.NewTitleHandler(service.NewTitleService(store)),
	)

	return nil
}

// openStore builds the backend named by STORAGE_DRIVER. The second store
// writes employees through stored procedures and is only set for postgres.
func (a *App) openStore(ctx context.Context) (domain.Store, domain.Store, error) {
	cfg := config.DefaultEnvConfig

	switch cfg.STORAGE_DRIVER {
	case config.StorageMemory:
		logger.WarnLog(ctx, "Using the in-memory store; data is lost on exit")
		return memory.NewStore(), nil, nil

	case config.StorageDatastore:
		client, err := database.NewDatastoreClient(ctx, cfg.DATASTORE_PROJECT_ID)
		if err != nil {
			return nil, nil, err
		}
		a.Datastore = client
		logger.InfoLog(ctx, "Datastore client created for project %q", cfg.DATASTORE_PROJECT_ID)
		return database.NewDatastoreStore(client), nil, nil

	case config.StoragePostgres:
		db, err := database.NewPostgresDB(ctx, DatabaseConfig())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.DB = db
		logger.InfoLog(ctx, "Database connection established successfully")

		if cfg.DB_AUTO_MIGRATE {
			if err := database.Migrate(ctx, db, "up"); err != nil {
				return nil, nil, err
			}
		}

		proc := repository.NewStore(db, repository.WithStoredProcedures())
		if cfg.EMPLOYEE_WRITE_MODE == config.WriteModeProcedure {
			return proc, proc, nil
		}
		return repository.NewStore(db), proc, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.STORAGE_DRIVER)
	}
}

// DatabaseConfig maps the environment onto the connection settings.
func DatabaseConfig() database.Config {
	cfg := config.DefaultEnvConfig
	return database.Config{
		Driver:          cfg.DB_DRIVER,
		Host:            cfg.DB_HOST,
		Port:            cfg.DB_PORT,
		User:            cfg.DB_USER,
		Password:        cfg.DB_PASSWORD,
		DBName:          cfg.DB_NAME,
		SSLMode:         cfg.DB_SSL_MODE,
		MaxOpenConns:    cfg.DB_MAX_OPEN_CONNS,
		MaxIdleConns:    cfg.DB_MAX_IDLE_CONNS,
		ConnMaxLifetime: cfg.DB_CONN_MAX_LIFETIME,
	}
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	a.Echo.Use(requestContextLogger)
	a.Echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logRequest(c.Request().Context(), v)
			return nil
		},
	}))
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
}

func logRequest(ctx context.Context, v middleware.RequestLoggerValues) {
	switch {
	case v.Error != nil:
		logger.ErrorLog(ctx, "%s %s -> %d (%v): %v", v.Method, v.URI, v.Status, v.Latency, v.Error)
	case v.Status >= http.StatusInternalServerError:
		logger.ErrorLog(ctx, "%s %s -> %d (%v)", v.Method, v.URI, v.Status, v.Latency)
	default:
		logger.InfoLog(ctx, "%s %s -> %d (%v)", v.Method, v.URI, v.Status, v.Latency)
	}
}

// requestContextLogger puts a logger carrying the request id into the
// request context.
func requestContextLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		ctx := logger.WithLogger(c.Request().Context(), map[string]interface{}{"request_id": id})
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

func (a *App) RegisterRoutes(
	empHandler *handler.EmployeeHandler,
	deptHandler *handler.DepartmentHandler,
	deptEmpHandler *handler.AssignmentHandler,
	deptManagerHandler *handler.AssignmentHandler,
	salaryHandler *handler.SalaryHandler,
	titleHandler *handler.TitleHandler,
) {
	a.Echo.GET("/healthz", a.healthHandler)
	a.Echo.GET(config.DefaultEnvConfig.METRICS_PATH, echo.WrapHandler(promhttp.Handler()))

	api := a.Echo.Group("/api")
	empHandler.Register(api.Group("/employees"))
	deptHandler.Register(api.Group("/departments"))
	deptEmpHandler.Register(api.Group("/dept-emp"))
	deptManagerHandler.Register(api.Group("/dept-manager"))
	salaryHandler.Register(api.Group("/salaries"))
	titleHandler.Register(api.Group("/titles"))
}

func (a *App) healthHandler(c echo.Context) error {
	if a.DB != nil {
		if err := a.DB.PingContext(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Run serves until ctx is cancelled and then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		addr := ":" + config.DefaultEnvConfig.APP_PORT
		logger.InfoLog(gctx, "HTTP server listening on %s", addr)
		if err := a.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.InfoLog(shutdownCtx, "Shutting down HTTP server")
		return a.Echo.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Datastore != nil {
		a.Datastore.Close()
	}
}
