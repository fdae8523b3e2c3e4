package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kb6px/sdrpipe/internal/psd"
)

const readHeaderTimeout = 3 * time.Second

// PSDConfigUpdater applies a live override to the running PSD worker's
// configuration, per the "POST /psd/config" supplemented feature.
type PSDConfigUpdater interface {
	UpdatePSDConfig(cfg psd.Config) error
}

// Server is the diagnostic HTTP surface: Prometheus scrape endpoint,
// a liveness probe, and a live PSD config override, grounded on
// DMRHub's gin-based controller style and its CreateMetricsServer.
type Server struct {
	httpServer *http.Server
}

type psdConfigRequest struct {
	SampleRate float64 `json:"sample_rate_hz"`
	RBWHz      float64 `json:"rbw_hz"`
	Overlap    float64 `json:"overlap"`
	Window     string  `json:"window"`
	Scale      string  `json:"scale"`
	SpanHz     float64 `json:"span_hz"`
	CenterHz   float64 `json:"center_hz"`
}

// NewServer builds the gin engine and binds it to addr without
// starting to listen; call Run to start serving.
func NewServer(addr string, m *Metrics, updater PSDConfigUpdater) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.POST("/psd/config", func(c *gin.Context) {
		var req psdConfigRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cfg := psd.Config{
			SampleRate: req.SampleRate,
			RBWHz:      req.RBWHz,
			Overlap:    req.Overlap,
			Window:     psd.ParseWindow(req.Window),
			Scale:      psd.ParseScale(req.Scale),
			SpanHz:     req.SpanHz,
			CenterHz:   req.CenterHz,
		}
		if err := updater.UpdatePSDConfig(cfg); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "updated"})
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

// Run blocks serving until Shutdown is called. A normal shutdown
// returns nil; any other listen or serve failure is returned as an
// error.
func (s *Server) Run() error {
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics: listen %s: %w", s.httpServer.Addr, err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
