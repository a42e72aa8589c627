// Package web serves the browser front end: upload a table, pick a country
// and get its series as JSON or as an SVG chart. Every request carries its
// own table; the server keeps no dataset between requests.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/popgraph/internal/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Config controls the server.
type Config struct {
	Settings       session.Settings
	MaxUploadBytes int64
	ChartWidth     int
	ChartHeight    int
}

// Server wraps the gin engine and its dependencies.
type Server struct {
	cfg    Config
	log    *zap.Logger
	engine *gin.Engine

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewServer builds the engine and registers every route.
func NewServer(cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		cfg: cfg,
		log: logger,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxUploadBytes
	router.Use(requestID(), requestLogger(logger), gin.Recovery())
	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	router.GET("/", s.index)
	router.GET("/get_random_data", s.randomData)

	api := router.Group("/api")
	{
		api.POST("/upload", s.upload)
		api.POST("/series", s.seriesJSON)
		api.POST("/chart.svg", s.chartSVG)
	}
	s.engine = router
	return s
}

// Handler exposes the engine for tests and custom servers.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("web server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("web server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) randFloat() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}
