package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/vendpair/vendpair-go/internal/audit"
	apperrors "github.com/vendpair/vendpair-go/internal/errors"
)

const (
	loginLimitKeyPrefix = "loginlimit:"
	loginLimitWindow    = 60 * time.Second
	loginLimitAttempts  = 10
)

var loginLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

local windowStart = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', windowStart)

local count = redis.call('ZCARD', key)

if count >= limit then
    return 0
end

redis.call('ZADD', key, now, now .. '-' .. math.random())
redis.call('EXPIRE', key, window + 10)

return 1
`)

// LoginLimitMiddleware throttles credential endpoints per client IP using a
// sliding window in Redis. Redis failures allow the request through.
type LoginLimitMiddleware struct {
	client *redis.Client
}

func NewLoginLimitMiddleware(client *redis.Client) *LoginLimitMiddleware {
	return &LoginLimitMiddleware{client: client}
}

func (m *LoginLimitMiddleware) allow(ctx context.Context, ip string) bool {
	now := time.Now().Unix()
	key := loginLimitKeyPrefix + ip

	result, err := loginLimitScript.Run(ctx, m.client, []string{key},
		now, int64(loginLimitWindow.Seconds()), loginLimitAttempts).Int64()
	if err != nil {
		log.Warn().Err(err).Str("ip", ip).Msg("redis login limit check failed, allowing request")
		return true
	}

	return result == 1
}

func (m *LoginLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !m.allow(r.Context(), ip) {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventRateLimitExceed})
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Too many login attempts, try again later",
				"code":  string(apperrors.ErrCodeRateLimitExceeded),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
