package security

import (
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"twikitmcp/internal/constants"
)

// Category groups platform operations that share a quota.
type Category string

const (
	CategoryTweet Category = "tweet"
	CategoryDM    Category = "dm"
	CategoryRead  Category = "read"
)

// Unlimited marks a category with no quota.
const Unlimited = 0

// DefaultQuotas is the per-window quota table. Categories missing from the
// table, or mapped to Unlimited, are always allowed.
var DefaultQuotas = map[Category]int{
	CategoryTweet: constants.TweetQuota,
	CategoryDM:    constants.DMQuota,
}

// RateLimiter is a sliding-window counter per category. Allow and Record are
// separate so that only successful operations count against the quota.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	quotas  map[Category]int
	history map[Category][]time.Time
	now     func() time.Time
}

func NewRateLimiter(window time.Duration, quotas map[Category]int) *RateLimiter {
	q := make(map[Category]int, len(quotas))
	for c, n := range quotas {
		q[c] = n
	}
	return &RateLimiter{
		window:  window,
		quotas:  q,
		history: make(map[Category][]time.Time),
		now:     time.Now,
	}
}

// NewDefaultRateLimiter uses the 15 minute window and DefaultQuotas.
func NewDefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(constants.RateLimitWindow, DefaultQuotas)
}

// SetClock replaces the time source. Intended for tests.
func (rl *RateLimiter) SetClock(now func() time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.now = now
}

// Allow prunes timestamps that fell out of the window and reports whether
// another call fits in the category's quota.
// Concurrent callers that pass Allow before either calls Record can each
// proceed, overshooting the quota by the number in flight.
func (rl *RateLimiter) Allow(c Category) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	quota, limited := rl.quotas[c]
	if !limited || quota == Unlimited {
		return true
	}
	return len(rl.pruneLocked(c)) < quota
}

// Record counts one completed call at the current time. Calls in unlimited
// categories are not tracked.
func (rl *RateLimiter) Record(c Category) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if quota, limited := rl.quotas[c]; !limited || quota == Unlimited {
		return
	}
	rl.history[c] = append(rl.history[c], rl.now())
}

// RetryAfter returns how long until Allow(c) would succeed again; zero when it
// already does.
func (rl *RateLimiter) RetryAfter(c Category) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	quota, limited := rl.quotas[c]
	if !limited || quota == Unlimited {
		return 0
	}
	kept := rl.pruneLocked(c)
	if len(kept) < quota {
		return 0
	}
	// The entry at len-quota must leave the window before one slot frees up.
	return kept[len(kept)-quota].Add(rl.window).Sub(rl.now())
}

// Count returns the number of calls currently inside the window.
func (rl *RateLimiter) Count(c Category) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.pruneLocked(c))
}

func (rl *RateLimiter) pruneLocked(c Category) []time.Time {
	cutoff := rl.now().Add(-rl.window)
	stamps := rl.history[c]

	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		stamps = append(stamps[:0:0], stamps[i:]...)
		rl.history[c] = stamps
	}
	return stamps
}

type ConnectionLimiter struct {
	mu          sync.RWMutex
	connections map[string]int
	maxConn     int
}

func NewConnectionLimiter(maxConn int) *ConnectionLimiter {
	return &ConnectionLimiter{
		connections: make(map[string]int),
		maxConn:     maxConn,
	}
}

func (cl *ConnectionLimiter) TryConnect(ip string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.connections[ip] >= cl.maxConn {
		return false
	}
	cl.connections[ip]++
	return true
}

func (cl *ConnectionLimiter) Disconnect(ip string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.connections[ip] > 0 {
		cl.connections[ip]--
		if cl.connections[ip] == 0 {
			delete(cl.connections, ip)
		}
	}
}

var (
	trustedProxies []*net.IPNet
	proxyOnce      sync.Once
)

func initTrustedProxies() {
	proxyOnce.Do(func() {
		defaultCIDRs := []string{"127.0.0.0/8", "::1/128", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
		if env := os.Getenv("MCP_TRUSTED_PROXIES"); env != "" {
			defaultCIDRs = strings.Split(env, ",")
		}
		for _, cidr := range defaultCIDRs {
			cidr = strings.TrimSpace(cidr)
			_, network, err := net.ParseCIDR(cidr)
			if err == nil {
				trustedProxies = append(trustedProxies, network)
			}
		}
	})
}

func isTrustedProxy(ip string) bool {
	initTrustedProxies()
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, network := range trustedProxies {
		if network.Contains(parsed) {
			return true
		}
	}
	return false
}

// GetClientIP extracts client IP, only trusting proxy headers from trusted sources.
func GetClientIP(r *http.Request) string {
	directIP, _, _ := net.SplitHostPort(r.RemoteAddr)
	if directIP == "" {
		directIP = r.RemoteAddr
	}

	if isTrustedProxy(directIP) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			clientIP := strings.TrimSpace(strings.Split(xff, ",")[0])
			if net.ParseIP(clientIP) != nil {
				return clientIP
			}
		}
		if xri := r.Header.Get("X-Real-Ip"); xri != "" {
			xri = strings.TrimSpace(xri)
			if net.ParseIP(xri) != nil {
				return xri
			}
		}
	}

	return directIP
}

// BruteForceProtector blocks a key after maxAttempts consecutive failures.
// Keys are client IPs for the HTTP transport and account names for logins.
type BruteForceProtector struct {
	mu            sync.RWMutex
	attempts      map[string]*keyAttempts
	maxAttempts   int
	blockDuration time.Duration
	now           func() time.Time
	stop          chan struct{}
	stopOnce      sync.Once
}

type keyAttempts struct {
	count     int
	blockedAt *time.Time
}

func NewBruteForceProtector(maxAttempts int, blockDuration time.Duration) *BruteForceProtector {
	bf := &BruteForceProtector{
		attempts:      make(map[string]*keyAttempts),
		maxAttempts:   maxAttempts,
		blockDuration: blockDuration,
		now:           time.Now,
		stop:          make(chan struct{}),
	}
	go bf.cleanup()
	return bf
}

// SetClock replaces the time source. Intended for tests.
func (bf *BruteForceProtector) SetClock(now func() time.Time) {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	bf.now = now
}

func (bf *BruteForceProtector) Check(key string) bool {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	attempts, exists := bf.attempts[key]
	if !exists {
		return true
	}

	if attempts.blockedAt != nil {
		if bf.now().Sub(*attempts.blockedAt) < bf.blockDuration {
			return false
		}
		attempts.count = 0
		attempts.blockedAt = nil
	}

	return attempts.count < bf.maxAttempts
}

// RecordFailure returns the consecutive failure count for key.
func (bf *BruteForceProtector) RecordFailure(key string) int {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	attempts, exists := bf.attempts[key]
	if !exists {
		attempts = &keyAttempts{count: 0}
		bf.attempts[key] = attempts
	}

	attempts.count++
	if attempts.count >= bf.maxAttempts {
		now := bf.now()
		attempts.blockedAt = &now
	}
	return attempts.count
}

func (bf *BruteForceProtector) RecordSuccess(key string) {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	delete(bf.attempts, key)
}

// Close stops the background cleanup.
func (bf *BruteForceProtector) Close() {
	bf.stopOnce.Do(func() { close(bf.stop) })
}

func (bf *BruteForceProtector) cleanup() {
	ticker := time.NewTicker(constants.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-bf.stop:
			return
		case <-ticker.C:
		}

		bf.mu.Lock()
		for key, attempts := range bf.attempts {
			if attempts.blockedAt != nil && bf.now().Sub(*attempts.blockedAt) > bf.blockDuration {
				delete(bf.attempts, key)
			}
		}
		bf.mu.Unlock()
	}
}
