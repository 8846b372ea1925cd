package server

import (
	"log"
	"net/http"
	"runtime/debug"

	"twikitmcp/internal/constants"
	"twikitmcp/internal/security"
)

// CorsMiddleware answers browsers only for allowed origins. Requests carrying
// any other Origin are refused before they reach the MCP handler; requests
// without one (non-browser clients) pass through.
func (s *Server) CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if !security.OriginAllowed(origin, s.Config.AllowedOrigins) {
				ip := security.GetClientIP(r)
				s.AuditLogger.LogForbiddenOrigin(ip, origin)
				log.Printf("⛔ Rejected request from %s with origin %q", ip, origin)
				http.Error(w, constants.MsgForbiddenOrigin, http.StatusForbidden)
				return
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Mcp-Session-Id, Mcp-Protocol-Version")
			w.Header().Set("Access-Control-Expose-Headers", "Mcp-Session-Id")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("🔥 PANIC RECOVERED: %v\nStack Trace:\n%s", err, string(debug.Stack()))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ConnLimitMiddleware caps concurrent requests per client IP.
func (s *Server) ConnLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !s.ConnLimiter.TryConnect(ip) {
			s.AuditLogger.LogConnectionLimit(ip)
			log.Printf("⛔ Connection limit reached for %s", ip)
			http.Error(w, constants.MsgConnLimit, http.StatusTooManyRequests)
			return
		}
		defer s.ConnLimiter.Disconnect(ip)
		next.ServeHTTP(w, r)
	})
}

// AuthMiddleware requires the configured bearer token. Repeated failures
// from one IP block it for a while. Without a configured token every request
// passes.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Tokens == nil {
			next.ServeHTTP(w, r)
			return
		}

		ip := security.GetClientIP(r)
		if !s.BruteProtector.Check(ip) {
			http.Error(w, constants.MsgTooManyAttempts, http.StatusTooManyRequests)
			return
		}

		if !s.Tokens.Verify(security.BearerToken(r)) {
			attempts := s.BruteProtector.RecordFailure(ip)
			s.AuditLogger.LogAuthFailure(ip, "invalid bearer token")
			if attempts >= constants.MaxAuthAttempts {
				s.AuditLogger.LogBruteForce(ip, attempts)
				log.Printf("⛔ %s blocked after %d failed auth attempts", ip, attempts)
			}
			w.Header().Set("WWW-Authenticate", `Bearer realm="mcp"`)
			http.Error(w, constants.MsgUnauthorized, http.StatusUnauthorized)
			return
		}

		s.BruteProtector.RecordSuccess(ip)
		next.ServeHTTP(w, r)
	})
}
