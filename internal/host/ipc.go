package host

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	apihttp "github.com/GriffinCanCode/AgentOS/studio/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/studio/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/studio/internal/api/ws"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/tracing"
)

// ipcServer is the local bridge the renderer uses to reach capabilities
type ipcServer struct {
	server   *http.Server
	listener net.Listener
	logger   *logging.Logger
}

// Router builds the renderer bridge routes for an application
func Router(a *App) *gin.Engine {
	if !a.mode.IsDebug() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.Middleware(tracing.New(a.logger.Named("trace"))))
	router.Use(monitoring.Middleware(a.metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(a.cfg.IPC.AllowOrigins)))
	if a.cfg.RateLimit.Enabled {
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = a.cfg.RateLimit.RequestsPerSecond
		rl.Burst = a.cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := apihttp.NewHandlers(a.registry, a.windows, apihttp.Info{
		Identifier: a.cfg.App.Identifier,
		Version:    a.cfg.App.Version,
		Mode:       a.mode,
	}, a.logger.Named("ipc"))
	events := ws.NewHandler(a.bus, a.cfg.IPC.AllowOrigins, a.logger.Named("ws"))

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/capabilities", handlers.ListCapabilities)
	router.GET("/windows", handlers.ListWindows)
	router.POST("/invoke", handlers.Invoke)
	router.GET("/events", events.HandleConnection)
	router.GET("/metrics", gin.WrapH(a.metrics.Handler()))

	return router
}

func startIPC(a *App) (*ipcServer, error) {
	ln, err := net.Listen("tcp", a.cfg.IPC.Addr())
	if err != nil {
		return nil, err
	}
	if a.cfg.IPC.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, a.cfg.IPC.MaxConnections)
	}

	s := &ipcServer{
		server: &http.Server{
			Handler:           Router(a),
			ReadHeaderTimeout: 10 * time.Second,
		},
		listener: ln,
		logger:   a.logger.Named("ipc"),
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Renderer bridge stopped", zap.Error(err))
		}
	}()

	s.logger.Info("Renderer bridge listening", zap.String("addr", s.Addr()))
	return s, nil
}

// Addr returns the bound address
func (s *ipcServer) Addr() string {
	return s.listener.Addr().String()
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *ipcServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
