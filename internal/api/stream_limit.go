package api

import (
	"sync"
)

// StreamLimiter tracks concurrent streaming connections per IP and globally.
// One instance is shared by the SSE feed and the WebSocket endpoint so the
// per-client cap applies across both.
type StreamLimiter struct {
	mu          sync.Mutex
	connections map[string]int
	total       int
	maxPerIP    int
	maxTotal    int
}

// NewStreamLimiter creates a limiter allowing maxPerIP concurrent streams
// per client IP.
func NewStreamLimiter(maxPerIP int) *StreamLimiter {
	if maxPerIP < 1 {
		maxPerIP = 4
	}
	return &StreamLimiter{
		connections: make(map[string]int),
		maxPerIP:    maxPerIP,
		maxTotal:    1000, // Global cap.
	}
}

// acquire attempts to register a new connection for the given IP.
// Returns false if the IP or global limit has been reached.
func (l *StreamLimiter) acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.total >= l.maxTotal {
		return false
	}
	if l.connections[ip] >= l.maxPerIP {
		return false
	}

	l.connections[ip]++
	l.total++
	return true
}

// release decrements the connection count for the given IP.
func (l *StreamLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.connections[ip]--
	l.total--
	if l.connections[ip] <= 0 {
		delete(l.connections, ip)
	}
}

// count returns the number of active connections for the given IP.
func (l *StreamLimiter) count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connections[ip]
}
