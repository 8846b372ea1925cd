package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"twikitmcp/internal/config"
	"twikitmcp/internal/constants"
	"twikitmcp/internal/logger"
	"twikitmcp/internal/platform"
	"twikitmcp/internal/security"
	"twikitmcp/internal/session"
	"twikitmcp/internal/tools"
)

type Server struct {
	Config         *config.Config
	MCP            *mcp.Server
	Store          session.Store
	Sessions       *session.Manager
	LoginGuard     *security.BruteForceProtector
	ConnLimiter    *security.ConnectionLimiter
	BruteProtector *security.BruteForceProtector
	AuditLogger    *security.AuditLogger
	CallLogger     *logger.Logger
	Tokens         *security.TokenVerifier
}

func NewServer(cfg *config.Config) (*Server, error) {
	store, err := session.NewStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	var auditLogger *security.AuditLogger
	if cfg.AuditEnabled {
		auditLogger, err = security.GetAuditLogger()
		if err != nil {
			log.Printf("Warning: Failed to initialize audit logger: %v", err)
		}
	}

	callLogger, err := logger.NewLogger("")
	if err != nil {
		log.Printf("Warning: Failed to initialize call log: %v", err)
	}

	guard := security.NewBruteForceProtector(constants.MaxLoginAttempts, constants.LoginBlockDuration)
	manager := session.NewManager(session.Options{
		Store:       store,
		Factory:     platform.GatewayFactory(cfg.GatewayURL, cfg.GatewayTimeout),
		Credentials: cfg.Credentials,
		Locale:      cfg.Locale,
		LockPath:    cfg.SessionPath + constants.SessionLockSuffix,
		Guard:       guard,
		Audit:       auditLogger,
	})

	svc := tools.NewService(manager, security.NewDefaultRateLimiter(), auditLogger, callLogger)
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: constants.ServerName, Version: constants.Version}, nil)
	svc.Register(mcpServer)

	return &Server{
		Config:         cfg,
		MCP:            mcpServer,
		Store:          store,
		Sessions:       manager,
		LoginGuard:     guard,
		ConnLimiter:    security.NewConnectionLimiter(constants.MaxConnectionsPerIP),
		BruteProtector: security.NewBruteForceProtector(constants.MaxAuthAttempts, constants.BlockDuration),
		AuditLogger:    auditLogger,
		CallLogger:     callLogger,
		Tokens:         security.NewTokenVerifier(cfg.HTTPToken),
	}, nil
}

// Run serves the configured transport until SIGINT or SIGTERM.
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer s.Cleanup()

	log.Printf("🚀 %s %s starting (%s transport, account %s)",
		constants.ServerName, constants.Version, s.Config.Transport, s.Sessions.Account())
	if path := s.CallLogger.GetLogPath(); path != "" {
		log.Printf("📝 Call log: %s (process %s)", path, s.CallLogger.GetSessionID())
	}

	if s.Config.Transport == constants.TransportHTTP {
		return s.serveHTTP(ctx)
	}
	if err := s.MCP.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Println("✅ Server stopped")
	return nil
}

// Handler is the HTTP surface: the streamable MCP endpoint behind the
// middleware chain.
func (s *Server) Handler() http.Handler {
	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.MCP }, nil)

	mux := http.NewServeMux()
	mux.Handle(constants.EndpointMCP, mcpHandler)

	var handler http.Handler = mux
	handler = s.AuthMiddleware(handler)
	handler = s.ConnLimitMiddleware(handler)
	handler = RecoveryMiddleware(handler)
	handler = s.CorsMiddleware(handler)
	return handler
}

func (s *Server) serveHTTP(ctx context.Context) error {
	if s.Tokens == nil {
		return fmt.Errorf("%s is required for %s transport", constants.EnvHTTPToken, constants.TransportHTTP)
	}
	if len(s.Config.AllowedOrigins) > 0 {
		log.Printf("🌍 Allowed origins: %s", strings.Join(s.Config.AllowedOrigins, ", "))
	}

	server := &http.Server{
		Addr:              s.Config.HTTPAddr,
		Handler:           h2c.NewHandler(s.Handler(), &http2.Server{}),
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🌐 HTTP mode (HTTP/2 enabled) on %s%s", s.Config.HTTPAddr, constants.EndpointMCP)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("🛑 Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("✅ Server stopped")
	return nil
}

func (s *Server) Cleanup() {
	if s.LoginGuard != nil {
		s.LoginGuard.Close()
	}
	if s.BruteProtector != nil {
		s.BruteProtector.Close()
	}
	if s.Store != nil {
		s.Store.Close()
	}
	s.CallLogger.Close()
	s.AuditLogger.Close()
}
