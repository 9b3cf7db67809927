// Package restserver serves archived analysis runs over HTTP.
package restserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/tidalvariance/internal/log"
	"github.com/chrissnell/tidalvariance/internal/storage"
	"github.com/chrissnell/tidalvariance/pkg/config"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	healthInterval  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Controller represents the REST server controller
type Controller struct {
	ctx      context.Context
	wg       *sync.WaitGroup
	cfg      config.ServerData
	station  string
	Server   http.Server
	archive  storage.Archive
	health   *storage.HealthMonitor
	logger   *zap.SugaredLogger
	handlers *Handlers
}

// NewController creates a new REST server controller over archive. station
// is the default for /runs/latest when the request names none.
func NewController(ctx context.Context, wg *sync.WaitGroup, sc config.ServerData, station string, archive storage.Archive, logger *zap.SugaredLogger) (*Controller, error) {
	if archive == nil {
		return nil, errors.New("REST server requires an archive")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	if sc.ListenAddr == "" {
		logger.Info("server.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		sc.ListenAddr = "0.0.0.0"
	}
	if sc.Port == 0 {
		logger.Info("server.port not provided; defaulting to 8080")
		sc.Port = 8080
	}

	ctrl := &Controller{
		ctx:     ctx,
		wg:      wg,
		cfg:     sc,
		station: station,
		archive: archive,
		health:  storage.NewHealthMonitor(archive, 5*time.Second, logger),
		logger:  logger,
	}
	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", sc.ListenAddr, sc.Port)
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server and the archive health monitor.
// The server shuts down when the controller's context is cancelled.
func (c *Controller) StartController() error {
	c.logger.Infof("starting REST server on %s", c.Server.Addr)
	c.health.Start(c.ctx, healthInterval)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		var err error
		if c.cfg.Cert != "" && c.cfg.Key != "" {
			err = c.Server.ListenAndServeTLS(c.cfg.Cert, c.cfg.Key)
		} else {
			err = c.Server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		<-c.ctx.Done()
		c.logger.Info("shutting down the REST server...")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := c.Server.Shutdown(ctx); err != nil {
			c.logger.Errorf("REST server shutdown: %v", err)
		}
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(log.HTTPMiddleware(c.logger))

	router.HandleFunc("/healthz", c.handlers.GetHealth).Methods(http.MethodGet)
	router.HandleFunc("/runs/latest", c.handlers.GetLatestRun).Methods(http.MethodGet)
	router.HandleFunc("/runs/{id}", c.handlers.GetRun).Methods(http.MethodGet)
	router.HandleFunc("/runs/{id}/monthly", c.handlers.GetRunMonthly).Methods(http.MethodGet)

	return router
}
