// Package texture provides a decoded-texture cache so that materials sharing
// the same source image decode it once and reuse the staged RGBA data for
// every GPU upload.
package texture

import (
	"fmt"
	"hash/fnv"

	"github.com/Carmen-Shannon/lux-go/common"
	"github.com/Carmen-Shannon/lux-go/engine/logger"
	"github.com/Carmen-Shannon/lux-go/internal/cache"
)

// textureCache is the implementation of the Cache interface.
type textureCache struct {
	entries *cache.ShardedCache[string, common.TextureStagingData]
}

// Cache defines the interface for the decoded-texture cache. Textures are
// keyed by their source identity (file path, or a content hash for embedded
// data), so repeated materials referencing the same image share one decode.
type Cache interface {
	// Staging returns the staged RGBA pixel data for the given imported texture,
	// decoding it on first use and serving the cached result afterwards.
	//
	// Parameters:
	//   - tex: the imported texture to decode
	//
	// Returns:
	//   - common.TextureStagingData: the decoded pixel data and dimensions
	//   - error: an error if the texture cannot be decoded
	Staging(tex *common.ImportedTexture) (common.TextureStagingData, error)

	// Len returns the number of decoded textures currently cached.
	//
	// Returns:
	//   - int: the entry count
	Len() int

	// Clear evicts all cached textures.
	Clear()
}

var _ Cache = &textureCache{}

// NewCache creates a new decoded-texture Cache.
//
// Parameters:
//   - options: variadic list of CacheBuilderOption functions to configure the cache
//
// Returns:
//   - Cache: a new Cache instance
func NewCache(options ...CacheBuilderOption) Cache {
	cfg := &cacheConfig{}
	for _, opt := range options {
		opt(cfg)
	}

	return &textureCache{
		entries: cache.NewSharded[string, common.TextureStagingData](cfg.capacity, cache.StringHasher),
	}
}

func (c *textureCache) Staging(tex *common.ImportedTexture) (common.TextureStagingData, error) {
	if tex == nil {
		return common.TextureStagingData{}, fmt.Errorf("texture is nil")
	}

	key := stagingKey(tex)
	if staged, ok := c.entries.Get(key); ok {
		return staged, nil
	}

	pixels, width, height, err := tex.Decode()
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("failed to stage texture %q: %w", tex.Name, err)
	}

	staged := common.TextureStagingData{
		Pixels: pixels,
		Width:  width,
		Height: height,
	}
	c.entries.Set(key, staged)

	logger.Sugar.Debugw("texture decoded",
		"name", tex.Name,
		"width", width,
		"height", height,
	)
	return staged, nil
}

func (c *textureCache) Len() int {
	return c.entries.Len()
}

func (c *textureCache) Clear() {
	c.entries.Clear()
}

// stagingKey derives the cache key for an imported texture. External textures
// key on their path; embedded textures key on a content hash so identical
// byte payloads collapse to one entry.
func stagingKey(tex *common.ImportedTexture) string {
	if tex.Path != "" {
		return "path:" + tex.Path
	}
	h := fnv.New64a()
	h.Write(tex.Data)
	return fmt.Sprintf("data:%016x", h.Sum64())
}

// White returns a 1x1 opaque white texture staging. It is the placeholder
// bound for sampled texture slots that a material variant enables without
// providing image data.
//
// Returns:
//   - common.TextureStagingData: a single white RGBA pixel
func White() common.TextureStagingData {
	return common.TextureStagingData{
		Pixels: []byte{0xFF, 0xFF, 0xFF, 0xFF},
		Width:  1,
		Height: 1,
	}
}
