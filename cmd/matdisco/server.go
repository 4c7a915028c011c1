package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/matdisco/matdisco/agent"
	"github.com/matdisco/matdisco/api/handlers"
	"github.com/matdisco/matdisco/config"
	"github.com/matdisco/matdisco/internal/cache"
	"github.com/matdisco/matdisco/internal/httpx"
	"github.com/matdisco/matdisco/internal/jobs"
	"github.com/matdisco/matdisco/internal/metrics"
	"github.com/matdisco/matdisco/internal/server"
	"github.com/matdisco/matdisco/internal/session"
	"github.com/matdisco/matdisco/internal/telemetry"
	"github.com/matdisco/matdisco/llm"
	"github.com/matdisco/matdisco/memory"
	"github.com/matdisco/matdisco/tools"
)

// Server wires every component and runs the HTTP listeners.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	httpManager    *server.Manager
	metricsManager *server.Manager

	telemetry *telemetry.Providers
	collector *metrics.Collector

	store     *cache.Store
	shortTerm *memory.ShortTermStore
	longTerm  *memory.LongTermStore
	sessions  *session.Registry
	runner    *agent.Runner

	cancelBackground context.CancelFunc
}

// NewServer creates an unstarted server.
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, logger: logger}
}

// Start builds the component graph and starts both listeners.
func (s *Server) Start() error {
	otelProviders, err := telemetry.Init(s.cfg.Telemetry, s.logger)
	if err != nil {
		s.logger.Warn("telemetry init failed, tracing disabled", zap.Error(err))
	}
	s.telemetry = otelProviders

	if err := s.initComponents(); err != nil {
		return err
	}

	backgroundCtx, cancel := context.WithCancel(context.Background())
	s.cancelBackground = cancel
	go s.sessions.Run(backgroundCtx)

	if err := s.startHTTPServer(backgroundCtx); err != nil {
		return err
	}
	if err := s.startMetricsServer(); err != nil {
		return err
	}

	s.logger.Info("all servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort))
	return nil
}

func (s *Server) initComponents() error {
	s.store = cache.New(cache.Config{MaxEntries: s.cfg.Cache.MaxEntries}, s.logger)

	s.shortTerm = memory.NewShortTermStore(memory.ShortTermConfig{
		TokenLimit: s.cfg.Memory.TokenLimit,
		Model:      s.cfg.Memory.TokenModel,
	}, s.logger)

	longTerm, err := memory.OpenLongTermStore(s.cfg.Memory.LongTermPath, s.logger)
	if err != nil {
		return fmt.Errorf("open long-term memory: %w", err)
	}
	s.longTerm = longTerm

	s.sessions = session.NewRegistry(s.shortTerm, session.Config{
		InactivityThreshold: s.cfg.Session.InactivityThreshold,
		OrphanThreshold:     s.cfg.Session.OrphanThreshold,
		SweepInterval:       s.cfg.Session.SweepInterval,
	}, s.logger)

	s.collector = metrics.NewCollector("matdisco", s.store.Len, s.sessions.Len, s.logger)

	registry, err := s.buildToolRegistry()
	if err != nil {
		return err
	}
	executor := tools.NewExecutor(registry, s.store, s.collector, s.logger)

	provider := llm.NewOpenAI(llm.OpenAIConfig{
		APIKey:  s.cfg.LLM.APIKey,
		BaseURL: s.cfg.LLM.BaseURL,
		Model:   s.cfg.LLM.Model,
		Timeout: s.cfg.LLM.Timeout,
	}, s.logger)

	s.runner = agent.NewRunner(agent.Config{
		Model:           s.cfg.LLM.Model,
		Temperature:     s.cfg.LLM.Temperature,
		MaxIterations:   s.cfg.Agent.MaxIterations,
		MaxHistoryTurns: s.cfg.Agent.MaxHistoryTurns,
		LongTermFacts:   s.cfg.Agent.LongTermFacts,
	}, provider, executor, registry, s.shortTerm, s.longTerm, s.collector, s.logger)

	return nil
}

// buildToolRegistry constructs every research tool with its cache policy.
func (s *Server) buildToolRegistry() (*tools.Registry, error) {
	httpClient := httpx.SecureClient(s.cfg.Tools.HTTPTimeout)
	ttl := s.cfg.Cache

	poller := jobs.NewPoller(jobs.Config{
		Interval:    s.cfg.Poller.PollInterval,
		MaxAttempts: s.cfg.Poller.MaxAttempts,
	}, s.logger)

	exa := tools.NewExaClient(s.cfg.Tools.Exa.BaseURL, s.cfg.Tools.Exa.APIKey, httpClient, s.logger)
	mp := tools.NewMPClient(s.cfg.Tools.MaterialsProject.BaseURL, s.cfg.Tools.MaterialsProject.APIKey, httpClient, s.logger)
	pubchem := tools.NewPubChemClient(s.cfg.Tools.PubChem.BaseURL, httpClient, s.logger)
	surechembl := tools.NewSureChEMBLClient(s.cfg.Tools.SureChEMBL.BaseURL, s.cfg.Tools.SureChEMBL.PageSize,
		poller, httpClient, s.collector, s.logger)

	registry := tools.NewRegistry()
	registry.MustRegister(
		tools.NewWebSearchTool(exa, s.cfg.Tools.Exa.DefaultResults, ttl.TTLSearchShort, ttl.TTLSearchLong),
		tools.NewMPSearchTool(mp, s.cfg.Tools.MaterialsProject.SearchLimit, ttl.TTLMPData),
		tools.NewFieldStatsTool(mp, s.cfg.Tools.MaterialsProject.StatsSample, ttl.TTLMPStats),
		tools.NewPubChemSearchTool(pubchem, 0),
		tools.NewPatentSearchTool(surechembl, ttl.TTLPatents),
		tools.NewSimilarStructuresTool(surechembl, ttl.TTLStructures),
		tools.NewChemicalFrequencyTool(surechembl, ttl.TTLPatents),
		tools.NewChemicalByNameTool(surechembl),
		tools.NewChemicalByIDTool(surechembl),
		tools.NewPatentContentTool(surechembl),
		tools.NewPatentFamilyTool(surechembl),
		tools.NewStructureImageTool(surechembl),
		tools.NewRememberFactTool(s.longTerm),
		tools.NewRecallFactsTool(s.longTerm, s.cfg.Agent.LongTermFacts),
	)

	s.logger.Info("tool registry built", zap.Int("tools", registry.Len()))
	return registry, nil
}

func (s *Server) startHTTPServer(backgroundCtx context.Context) error {
	chatHandler := handlers.NewChatHandler(s.runner, s.sessions, s.collector, s.logger)
	historyHandler := handlers.NewHistoryHandler(s.shortTerm, s.logger)
	maintenanceHandler := handlers.NewMaintenanceHandler(s.sessions, s.collector, s.logger)

	healthHandler := handlers.NewHealthHandler(s.logger)
	healthHandler.RegisterCheck(handlers.HealthCheckFunc{
		CheckName: "long_term_memory",
		Fn:        s.longTerm.Ping,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthHandler.HandleHealth)
	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("POST /api/chat", chatHandler.HandleChat)
	mux.HandleFunc("GET /api/chat/ws", chatHandler.HandleChatStream)
	mux.HandleFunc("GET /api/history/{session_id}", historyHandler.HandleHistory)
	mux.HandleFunc("POST /api/maintenance/sweep", maintenanceHandler.HandleSweep)

	skipAuthPaths := []string{"/", "/healthz"}
	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		OTelTracing(),
		MetricsMiddleware(s.collector),
		CORS(s.cfg.Server.CORSAllowedOrigins),
		RateLimiter(backgroundCtx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger),
		Auth(s.cfg.Auth, skipAuthPaths, s.logger),
	)

	s.httpManager = server.NewManager(handler, server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}, s.logger)

	return s.httpManager.Start()
}

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s.metricsManager = server.NewManager(mux, server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}, s.logger)

	return s.metricsManager.Start()
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Materials Discovery Agent API",
		"version": Version,
	})
}

// WaitForShutdown blocks until a shutdown signal, then stops everything.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown stops background loops and listeners in order.
func (s *Server) Shutdown() {
	s.logger.Info("starting graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if s.cancelBackground != nil {
		s.cancelBackground()
	}
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("metrics server shutdown error", zap.Error(err))
		}
	}
	if s.telemetry != nil {
		shutdownCtx, telemetryCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer telemetryCancel()
		if err := s.telemetry.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("telemetry shutdown error", zap.Error(err))
		}
	}
	s.logger.Info("shutdown complete")
}
