package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/deepcheck/internal/common"
	"github.com/dmitrijs2005/deepcheck/internal/logging"
	"github.com/dmitrijs2005/deepcheck/internal/server/models"
	"github.com/dmitrijs2005/deepcheck/internal/shared"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	requestIDHeader = "X-Request-ID"
	contextUserKey  = "user"
)

// requestID tags the request context with an id taken from X-Request-ID or
// generated, and echoes it back.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = shared.NewRequestID()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// accessLog writes one entry per request once the handler chain is done.
func accessLog(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			log.Error(c.Request.Context(), "request", args...)
		case status >= http.StatusBadRequest:
			log.Warn(c.Request.Context(), "request", args...)
		default:
			log.Info(c.Request.Context(), "request", args...)
		}
	}
}

// recovery turns a handler panic into a 500 without leaking details.
func recovery(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error(c.Request.Context(), "panic recovered", "panic", fmt.Sprint(r), "path", c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Detail: "Internal server error"})
			}
		}()
		c.Next()
	}
}

type clientLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

// ipRateLimiter is a per-client-IP token bucket. Idle entries are swept at
// most once per idle period.
type ipRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	idle      time.Duration
	nextSweep time.Time
	now       func() time.Time
}

func newIPRateLimiter(perMinute int) *ipRateLimiter {
	return &ipRateLimiter{
		limiters: make(map[string]*clientLimiter),
		limit:    rate.Every(time.Minute / time.Duration(max(perMinute, 1))),
		burst:    max(perMinute/2, 1),
		idle:     5 * time.Minute,
		now:      time.Now,
	}
}

func (l *ipRateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !now.Before(l.nextSweep) {
		for k, cl := range l.limiters {
			if now.After(cl.expires) {
				delete(l.limiters, k)
			}
		}
		l.nextSweep = now.Add(l.idle)
	}

	cl, ok := l.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = cl
	}
	cl.expires = now.Add(l.idle)
	return cl.limiter.Allow()
}

func (l *ipRateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Detail: "Too many requests"})
			return
		}
		c.Next()
	}
}

// authRequired resolves the bearer token to a user and stores it in the
// gin context. Every failure is a 401 with WWW-Authenticate: Bearer.
func authRequired(users UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, common.BearerScheme) || token == "" {
			abortWithError(c, common.ErrorUnauthorized)
			return
		}

		user, err := users.Authenticate(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
