// Package cache provides a Redis-backed ETag cache for GitHub repository
// responses.
//
// GitHub answers a conditional request (If-None-Match) with 304 Not Modified
// when the resource is unchanged, and a 304 reply is not charged against the
// primary rate limit. Keeping the last body and its ETag therefore lets a
// repeated run revalidate star counts without spending quota.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient, cache.DefaultRetention)
//
//	key := cache.Key{
//		Endpoint:      "https://api.github.com/repos/acme/widget",
//		Authenticated: true,
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// Cache miss - plain request
//	}
//
// # Conditional Requests
//
//	if cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//		// GitHub returns 304 if the repository did not change
//	}
//
// Entries are never served without revalidation: the retention period only
// bounds how long Redis keeps a body around for the next 304.
//
// # Metrics
//
//   - repo_stars_cache_hits_total - Cache hits
//   - repo_stars_cache_misses_total - Cache misses
//   - repo_stars_cache_bytes_written_total - Bytes written to the cache, Touch included
//   - repo_stars_304_responses_total - Conditional request successes
//   - repo_stars_cache_errors_total{operation} - Cache operation errors
package cache
