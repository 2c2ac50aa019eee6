package middleware

import (
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/taskflow/taskflow-api/internal/request"
)

const defaultRatelimitRate = "5-S"

// RateLimit returns middleware backed by ulule/limiter with Redis, using
// a rate in limiter's formatted notation (e.g. "5-S"). The limit key is
// the client IP.
func RateLimit(redisClient *redis.Client, rateStr string) (func(http.Handler) http.Handler, error) {
	if rateStr == "" {
		rateStr = defaultRatelimitRate
	}
	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		return nil, err
	}
	store, err := redisstore.NewStore(redisClient)
	if err != nil {
		return nil, err
	}
	instance := limiter.New(store, rate)
	keyGetter := func(r *http.Request) string {
		return request.ClientIP(r)
	}
	mw := stdlibmw.NewMiddleware(instance, stdlibmw.WithKeyGetter(keyGetter))
	return mw.Handler, nil
}
