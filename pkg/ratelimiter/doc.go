// Package ratelimiter provides token bucket rate limiting with memory and
// Redis storage and an HTTP middleware.
//
// A Bucket allows bursts up to Config.Capacity and adds Config.RefillRate
// tokens every Config.RefillInterval. The memory store suits a single
// process; RedisStore runs the refill-and-consume step as a Lua script so
// concurrent instances share one bucket.
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//
//	bucket, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       10,
//		RefillRate:     10,
//		RefillInterval: 24 * time.Hour,
//	})
//
//	r.With(ratelimiter.Middleware(bucket, ratelimiter.ByClientIP("anon"))).Post(...)
//
// The middleware sets X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset on every response, plus Retry-After when it denies.
// Denials render the JSON error envelope; WithDeniedError changes the code.
package ratelimiter
