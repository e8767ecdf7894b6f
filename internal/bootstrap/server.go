package bootstrap

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	app "github.com/acme-corp/customer-import/internal/application/importing"
	"github.com/acme-corp/customer-import/internal/config"
	"github.com/acme-corp/customer-import/internal/infrastructure/csv"
	"github.com/acme-corp/customer-import/internal/infrastructure/file"
	"github.com/acme-corp/customer-import/internal/infrastructure/repository"
	httpecho "github.com/acme-corp/customer-import/internal/interfaces/http/echo"
)

// Runtime bundles everything main needs to serve requests and run the
// boot-time resume check.
type Runtime struct {
	Server     *echo.Echo
	Supervisor *app.Supervisor
}

func NewRuntime(db *gorm.DB, pool *pgxpool.Pool, cfg config.Config) *Runtime {
	jobRepo := repository.NewImportJobRepository(db)
	customerRepo := repository.NewCustomerQueryRepository(db)
	batchWriter := repository.NewCustomerBatchRepository(pool)
	source := csv.NewSource(cfg.ImportHighWaterMark)
	resolver := file.NewPathResolver(cfg.CSVPath)

	broker := app.NewBroker(jobRepo, customerRepo)
	worker := app.NewWorker(jobRepo, source, batchWriter, broker)
	supervisor := app.NewSupervisor(jobRepo, resolver, worker, cfg.ImportBatchSize, cfg.ImportProgressEveryMs, cfg.ImportResumeOverlap)

	syncUseCase := app.NewSyncCustomers(supervisor)
	getCustomerUseCase := app.NewGetCustomerByIdentifier(customerRepo)

	syncHandler := httpecho.NewSyncHandler(syncUseCase)
	progressHandler := httpecho.NewProgressHandler(broker, cfg.ImportTotalRows, cfg.ImportRecentLimit, cfg.SSEHeartbeatMs)
	customerHandler := httpecho.NewCustomerHandler(getCustomerUseCase)

	server := echo.New()
	server.HideBanner = true
	server.Use(middleware.Recover())
	server.Use(middleware.RequestID())
	server.Use(middleware.BodyLimit("10M"))

	httpecho.RegisterRoutes(server, syncHandler, progressHandler, customerHandler)

	server.GET("/healthz", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	return &Runtime{Server: server, Supervisor: supervisor}
}

// BootResume triggers the Supervisor's crash-recovery check: if a RUNNING
// job was left behind by the previous process, resume it immediately.
func (r *Runtime) BootResume(ctx context.Context) error {
	return r.Supervisor.BootResume(ctx)
}
