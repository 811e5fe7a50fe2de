package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxTrackedIPs caps the limiter map so a scan across many source
// addresses cannot grow it without bound.
const maxTrackedIPs = 10000

// IPRateLimiter keeps one token bucket per client IP. The auth and sync
// routes each get their own instance with limits sized for the route.
type IPRateLimiter struct {
	limiters       map[string]*limiterEntry
	mu             sync.RWMutex
	rate           rate.Limit
	burst          int
	cleanup        time.Duration
	trustedProxies []*net.IPNet
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewIPRateLimiter builds a limiter allowing r requests per second with the
// given burst. Stale per-IP entries are dropped on the cleanup interval.
// trustedProxies lists CIDR ranges (or single IPs) of reverse proxies whose
// forwarding headers are honored; with none configured every proxy is
// trusted, which config.Load warns about at startup.
func NewIPRateLimiter(r rate.Limit, b int, cleanup time.Duration, trustedProxies []string) *IPRateLimiter {
	limiter := &IPRateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     r,
		burst:    b,
		cleanup:  cleanup,
	}

	for _, cidr := range trustedProxies {
		_, ipnet, err := net.ParseCIDR(cidr)
		if err != nil {
			// Not a CIDR; accept a bare IP and widen it to a host range.
			ip := net.ParseIP(cidr)
			if ip == nil {
				continue
			}
			if ip.To4() != nil {
				_, ipnet, _ = net.ParseCIDR(cidr + "/32")
			} else {
				_, ipnet, _ = net.ParseCIDR(cidr + "/128")
			}
		}
		if ipnet != nil {
			limiter.trustedProxies = append(limiter.trustedProxies, ipnet)
		}
	}

	go limiter.cleanupStale()

	return limiter
}

func (l *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.limiters[ip]
	if !exists {
		if len(l.limiters) >= maxTrackedIPs {
			l.evictOldest()
		}
		entry = &limiterEntry{
			limiter:    rate.NewLimiter(l.rate, l.burst),
			lastAccess: time.Now(),
		}
		l.limiters[ip] = entry
	} else {
		entry.lastAccess = time.Now()
	}

	return entry.limiter
}

func (l *IPRateLimiter) evictOldest() {
	var oldestIP string
	var oldestTime time.Time

	for ip, entry := range l.limiters {
		if oldestIP == "" || entry.lastAccess.Before(oldestTime) {
			oldestIP = ip
			oldestTime = entry.lastAccess
		}
	}

	if oldestIP != "" {
		delete(l.limiters, oldestIP)
	}
}

func (l *IPRateLimiter) cleanupStale() {
	ticker := time.NewTicker(l.cleanup)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		// Entries idle for two cleanup intervals are forgotten.
		cutoff := time.Now().Add(-l.cleanup * 2)
		for ip, entry := range l.limiters {
			if entry.lastAccess.Before(cutoff) {
				delete(l.limiters, ip)
			}
		}
		l.mu.Unlock()
	}
}

// Middleware rejects requests over the per-IP limit with 429.
func (l *IPRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := l.getClientIP(r)
			limiter := l.getLimiter(ip)

			if !limiter.Allow() {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP resolves the address a request should be limited by. Forwarding
// headers are only believed when the direct peer is a trusted proxy;
// otherwise the socket address wins, so a client cannot spoof its way to a
// fresh bucket.
func (l *IPRateLimiter) getClientIP(r *http.Request) string {
	remoteIP := parseIP(r.RemoteAddr)

	if len(l.trustedProxies) > 0 {
		trusted := false
		for _, ipnet := range l.trustedProxies {
			if ipnet.Contains(remoteIP) {
				trusted = true
				break
			}
		}
		if !trusted {
			return remoteIP.String()
		}
	}

	// X-Forwarded-For lists "client, proxy1, proxy2"; the leftmost entry is
	// the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			clientIP := strings.TrimSpace(ips[0])
			if parsed := net.ParseIP(clientIP); parsed != nil {
				return parsed.String()
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if parsed := net.ParseIP(xri); parsed != nil {
			return parsed.String()
		}
	}

	return remoteIP.String()
}

func parseIP(addr string) net.IP {
	host, _, err := net.SplitHostPort(addr)
	if err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(addr)
}
