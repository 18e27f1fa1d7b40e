package texture

// cacheConfig collects builder options applied during NewCache.
type cacheConfig struct {
	capacity int
}

// CacheBuilderOption is a functional option used to configure a Cache during construction.
type CacheBuilderOption func(*cacheConfig)

// WithCapacity sets the per-shard capacity of the cache. Values less than or
// equal to zero select the cache's default capacity.
//
// Parameters:
//   - capacity: the maximum number of decoded textures retained per shard
//
// Returns:
//   - CacheBuilderOption: a function that applies the capacity option to a cache
func WithCapacity(capacity int) CacheBuilderOption {
	return func(c *cacheConfig) {
		c.capacity = capacity
	}
}
