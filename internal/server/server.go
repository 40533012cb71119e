package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/voxlate/voxlate/internal/pipeline"
	"github.com/voxlate/voxlate/internal/translator/coordinator"
	"github.com/voxlate/voxlate/pkg/core/health"
	"github.com/voxlate/voxlate/pkg/core/logging"
)

// Server is the voxlate API server
type Server struct {
	httpServer  *http.Server
	handler     *Handler
	coordinator *coordinator.Coordinator
	pipeline    *pipeline.Engine
	transcribe  *pipeline.TranscribeStage
	synthesize  *pipeline.SynthesizeStage
	health      *health.Registry
	logger      *logging.Logger
	config      Config
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Version      string
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8090,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		Version:      "1.0.0",
	}
}

// New creates a new API server around an initialized coordinator
func New(cfg Config, c *coordinator.Coordinator) (*Server, error) {
	if c == nil {
		return nil, fmt.Errorf("coordinator is required")
	}

	logger := logging.New("api-server")

	registry := health.NewRegistry("voxlate", cfg.Version)
	registry.Register(health.AlwaysHealthy("http"))
	registry.RegisterFunc("providers", func(ctx context.Context) health.CheckResult {
		status := c.GetServiceStatus()
		available := 0
		for _, h := range status.Health {
			if h.Available {
				available++
			}
		}
		if len(status.Health) > 0 && available == 0 {
			return health.CheckResult{
				Name:    "providers",
				Status:  health.StatusUnhealthy,
				Message: "No translation providers available",
			}
		}
		if available < len(status.Health) {
			return health.CheckResult{
				Name:    "providers",
				Status:  health.StatusDegraded,
				Message: fmt.Sprintf("%d/%d providers available", available, len(status.Health)),
			}
		}
		return health.CheckResult{
			Name:    "providers",
			Status:  health.StatusHealthy,
			Message: fmt.Sprintf("%d providers registered", len(status.Providers)),
		}
	})

	// Speech backends start empty; SetTranscriber and SetSynthesizer
	// install them before the server starts. Text-only requests work
	// without either.
	transcribe := pipeline.NewTranscribeStage(nil)
	synthesize := pipeline.NewSynthesizeStage(nil)
	engine := pipeline.NewEngine()
	engine.AddStage(transcribe)
	engine.AddStage(pipeline.NewTranslateStage(c))
	engine.AddStage(synthesize)

	h := NewHandler(cfg.Version, c, engine, registry)
	wsHandler := NewWebSocketHandler(c)

	mux := http.NewServeMux()
	mux.Handle("/ws/translate", wsHandler)
	mux.Handle("/", h)
	mux.Handle("/api/", h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      loggingMiddleware(logger, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		httpServer:  httpServer,
		handler:     h,
		coordinator: c,
		pipeline:    engine,
		transcribe:  transcribe,
		synthesize:  synthesize,
		health:      registry,
		logger:      logger,
		config:      cfg,
	}, nil
}

// SetTranscriber installs the speech-to-text backend for the audio
// pipeline. Must be called before the server starts.
func (s *Server) SetTranscriber(t pipeline.Transcriber) {
	s.transcribe.SetTranscriber(t)
}

// SetSynthesizer installs the text-to-speech backend for the audio
// pipeline. Must be called before the server starts.
func (s *Server) SetSynthesizer(sy pipeline.Synthesizer) {
	s.synthesize.SetSynthesizer(sy)
}

// Pipeline returns the speech pipeline engine
func (s *Server) Pipeline() *pipeline.Engine {
	return s.pipeline
}

// loggingMiddleware adds request logging
func loggingMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration", time.Since(start),
		)
	})
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Start starts the server and blocks
func (s *Server) Start() error {
	s.logger.Info("Starting voxlate API server",
		"host", s.config.Host,
		"port", s.config.Port,
	)
	return s.httpServer.ListenAndServe()
}

// StartAsync starts the server in the background
func (s *Server) StartAsync() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()
}

// Stop gracefully stops the server and tears down the coordinator
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping voxlate API server")

	if err := s.coordinator.Destroy(); err != nil {
		s.logger.Warn("Coordinator teardown failed", "error", err)
	}
	return s.httpServer.Shutdown(ctx)
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// HealthRegistry returns the health check registry
func (s *Server) HealthRegistry() *health.Registry {
	return s.health
}
