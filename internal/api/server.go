package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oremus-labs/wsconfig-core/internal/handlers"
)

// Options configures the HTTP server wiring.
type Options struct {
	APIToken string
}

// Server wraps the Gin engine and associated configuration.
type Server struct {
	engine *gin.Engine
}

// NewServer constructs a Server with all HTTP routes configured, exposing
// the recommendation pipeline as JSON over gin (the wizard UI and
// installer are the callers; no wire protocol is part of the core itself).
func NewServer(handler *handlers.Handler, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery(), requestIDMiddleware(), metricsMiddleware(), requestLogger())

	// Health + meta
	engine.GET("/healthz", handler.Health)
	engine.GET("/events", handler.StreamEvents)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Catalog queries
	engine.GET("/catalog", handler.ListCatalog)
	engine.GET("/catalog/:id", handler.GetCatalogEntry)

	// Hardware probe + recommendation pipeline
	protected := engine.Group("/")
	protected.Use(authMiddleware(opts.APIToken))

	protected.POST("/detect", handler.Detect)
	protected.POST("/recommend", handler.Recommend)
	protected.GET("/recommendations/:id", handler.GetRecommendation)
	protected.GET("/history", handler.History)

	return &Server{engine: engine}
}

// Engine exposes the underlying Gin engine for advanced use (testing, etc.).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start launches the HTTP server on the provided address.
func (s *Server) Start(addr string) *http.Server {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()
	return srv
}
