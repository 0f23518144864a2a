package tcpserver

import (
	"net"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// maxTrackedIPs bounds the per-IP limiter table. The least recently
// seen host is evicted once the table is full; if it comes back it
// simply starts with a fresh bucket.
const maxTrackedIPs = 4096

// ipRateLimiter keeps one token bucket per client IP.
type ipRateLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

func newIPRateLimiter(commandsPerSecond int) *ipRateLimiter {
	cache, err := lru.New[string, *rate.Limiter](maxTrackedIPs)
	if err != nil {
		// Only reachable with a non-positive size.
		panic(err)
	}
	return &ipRateLimiter{
		limiters: cache,
		limit:    rate.Limit(commandsPerSecond),
		burst:    commandsPerSecond,
	}
}

// allow reports whether a command from the given remote address should
// be handled. The port is stripped so all connections from one host
// share a bucket.
func (rl *ipRateLimiter) allow(remoteAddr string) bool {
	ip := remoteAddr
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		ip = host
	}

	rl.mu.Lock()
	l, ok := rl.limiters.Get(ip)
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters.Add(ip, l)
	}
	rl.mu.Unlock()

	return l.Allow()
}

// tracked returns how many hosts currently have a bucket.
func (rl *ipRateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.limiters.Len()
}
