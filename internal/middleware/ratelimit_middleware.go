package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/GTDGit/catalog_import/internal/utils"
)

// ClientRateLimiter keeps one token bucket per client IP.
type ClientRateLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*clientBucket
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientRateLimiter allows perSecond requests per client with the given
// burst. Idle buckets are dropped until ctx is done.
func NewClientRateLimiter(ctx context.Context, perSecond float64, burst int) *ClientRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	rl := &ClientRateLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		clients: make(map[string]*clientBucket),
	}
	go rl.cleanup(ctx, 5*time.Minute)
	return rl
}

// Allow reports whether ip may make another request now.
func (r *ClientRateLimiter) Allow(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.clients[ip]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.clients[ip] = b
	}
	b.lastSeen = time.Now()
	return b.limiter.Allow()
}

// Handle returns a Gin middleware rejecting clients over their rate.
func (r *ClientRateLimiter) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.Allow(c.ClientIP()) {
			utils.Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (r *ClientRateLimiter) cleanup(ctx context.Context, idle time.Duration) {
	ticker := time.NewTicker(idle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.mu.Lock()
			for ip, b := range r.clients {
				if now.Sub(b.lastSeen) > idle {
					delete(r.clients, ip)
				}
			}
			r.mu.Unlock()
		}
	}
}
