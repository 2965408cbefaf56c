package container

import (
	"context"
	"fmt"
	"time"

	"churndash/adapters/auth"
	"churndash/adapters/datareadiness/coercer"
	"churndash/adapters/tabular"
	"churndash/app"
	"churndash/internal"
	"churndash/internal/analytics"
	"churndash/internal/config"
	"churndash/internal/dataset"
	"churndash/internal/eda"
	"churndash/internal/kpi"
	"churndash/internal/metrics"
	"churndash/internal/session"
	"churndash/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	Metrics *metrics.Recorder
	Source  ports.TableSource
	Loader  *dataset.Loader

	// View engines
	KPI       *kpi.Engine
	Analytics *analytics.Catalog
	EDA       *eda.Builder

	// Sessions and auth
	Sessions      *session.Manager
	Authenticator ports.Authenticator

	Dashboard *app.DashboardService

	cancel context.CancelFunc
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.NewRecorder(),
	}

	c.initData()
	c.initEngines()
	c.initSessions()

	c.Dashboard = app.NewDashboardService(cfg.Data.File, c.Loader, c.KPI, c.Analytics, c.EDA, logger, c.Metrics)

	logger.Debug("container initialized for %s", cfg.Data.File)
	return c, nil
}

// initData wires the table source and the memoizing loader
func (c *Container) initData() {
	c.Source = tabular.NewFileSource(c.Logger)
	c.Loader = dataset.NewLoader(c.Source, coercer.NewTypeCoercer(coercer.DefaultCoercionConfig()), c.Logger, c.Metrics)
}

// initEngines creates the three view engines
func (c *Container) initEngines() {
	bins := c.Config.Data.HistogramBins
	c.KPI = kpi.NewEngine(c.Logger, c.Metrics)
	c.Analytics = analytics.NewCatalog(bins, c.Logger, c.Metrics)
	c.EDA = eda.NewBuilder(bins, c.Logger, c.Metrics)
}

// initSessions creates the session manager and the authenticator
func (c *Container) initSessions() {
	c.Sessions = session.NewManager(c.Config.Auth.IdleTimeout, c.Logger, c.Metrics)
	c.Authenticator = auth.NewStaticAuthenticator(c.Config.Auth.Users, c.Logger)
}

// Start launches background work: the idle-session sweeper and, when
// warm is set, a dataset load so the first render does not pay for it
func (c *Container) Start(ctx context.Context, warm bool) {
	ctx, c.cancel = context.WithCancel(ctx)

	interval := c.Config.Auth.IdleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	c.Sessions.StartSweeper(ctx, interval)

	if warm {
		go func() {
			if result := c.Loader.Load(ctx, c.Config.Data.File); result.Err != nil {
				c.Logger.Warn("dataset warm-up failed: %v", result.Err)
			} else {
				c.Logger.Info("dataset %s loaded: %d rows in %s", result.Source, result.Table.Len(), result.Duration)
			}
		}()
	}
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}
	return c.Logger.Sync()
}
