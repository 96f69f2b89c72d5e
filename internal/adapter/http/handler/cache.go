package handler

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"wallet-registry/internal/adapter/http/dto"
	"wallet-registry/internal/adapter/http/middleware"
	"wallet-registry/internal/core/ports"
	"wallet-registry/pkg/apperror"
	"wallet-registry/pkg/metrics"
	"wallet-registry/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	nsWallets     = "wallets"
	nsWalletRoles = "wallet-roles"

	patternWallets     = nsWallets + ":*"
	patternWalletRoles = nsWalletRoles + ":*"
)

// cachedBody is what a GET response stores: the data payload and, for
// lists, the page metadata. Request id and timestamp are regenerated.
type cachedBody struct {
	Data json.RawMessage    `json:"data"`
	Meta *response.PageMeta `json:"meta,omitempty"`
}

// ResponseCacher wraps the response cache for handlers. A nil cache
// disables lookups and invalidation.
type ResponseCacher struct {
	cache ports.ResponseCache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewResponseCacher creates a ResponseCacher. cache may be nil.
func NewResponseCacher(cache ports.ResponseCache, ttl time.Duration, log zerolog.Logger) *ResponseCacher {
	return &ResponseCacher{cache: cache, ttl: ttl, log: log}
}

func (rc *ResponseCacher) enabled() bool {
	return rc != nil && rc.cache != nil && rc.ttl > 0
}

// genCtxKey is where serve leaves the namespace generation read on a miss.
func genCtxKey(namespace string) string { return "cache_gen:" + namespace }

// namespaceOf returns the part of a key or pattern before the first colon.
func namespaceOf(key string) string {
	ns, _, _ := strings.Cut(key, ":")
	return ns
}

// serve writes a cached response for key and reports whether it did. On a
// miss it records the namespace generation so store can drop the fill if a
// mutation lands in between.
func (rc *ResponseCacher) serve(c *gin.Context, namespace, key string) bool {
	if !rc.enabled() {
		return false
	}

	ctx := c.Request.Context()
	raw, err := rc.cache.Get(ctx, key)
	if err != nil {
		rc.log.Warn().Err(err).Str("key", key).Msg("cache lookup failed")
		return false
	}

	var body cachedBody
	if raw != nil {
		if err := json.Unmarshal(raw, &body); err != nil {
			rc.log.Warn().Err(err).Str("key", key).Msg("discarding unreadable cache entry")
			raw = nil
		}
	}
	if raw == nil {
		metrics.RecordCacheLookup(namespace, false)
		gen, err := rc.cache.Generation(ctx, namespace)
		if err != nil {
			rc.log.Warn().Err(err).Str("namespace", namespace).Msg("cache generation lookup failed")
			return false
		}
		c.Set(genCtxKey(namespace), gen)
		return false
	}

	metrics.RecordCacheLookup(namespace, true)
	c.Header("X-Cache", "HIT")
	if body.Meta != nil {
		response.Paginated(c, body.Data, body.Meta.Total, body.Meta.Page, body.Meta.Limit)
		return true
	}
	response.OK(c, body.Data)
	return true
}

// store saves data (and optional page metadata) under key. Nothing is
// stored unless serve recorded a generation for the key's namespace.
func (rc *ResponseCacher) store(c *gin.Context, key string, data interface{}, meta *response.PageMeta) {
	if !rc.enabled() {
		return
	}
	namespace := namespaceOf(key)
	gen, ok := c.Get(genCtxKey(namespace))
	if !ok {
		return
	}

	payload, err := json.Marshal(data)
	if err != nil {
		rc.log.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	raw, err := json.Marshal(cachedBody{Data: payload, Meta: meta})
	if err != nil {
		rc.log.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	stored, err := rc.cache.SetIfGeneration(c.Request.Context(), namespace, gen.(int64), key, raw, rc.ttl)
	if err != nil {
		rc.log.Warn().Err(err).Str("key", key).Msg("cache store failed")
		return
	}
	if !stored {
		rc.log.Debug().Str("key", key).Msg("cache fill dropped after invalidation")
	}
}

// invalidate bumps the namespace generation of each pattern, then drops
// every matching key. Failures are logged and never reach the caller.
func (rc *ResponseCacher) invalidate(ctx context.Context, patterns ...string) {
	if rc == nil || rc.cache == nil {
		return
	}
	for _, pattern := range patterns {
		if err := rc.cache.BumpGeneration(ctx, namespaceOf(pattern)); err != nil {
			rc.log.Warn().Err(err).Str("pattern", pattern).Msg("cache generation bump failed")
		}
		keys, err := rc.cache.Keys(ctx, pattern)
		if err != nil {
			rc.log.Warn().Err(err).Str("pattern", pattern).Msg("cache invalidation scan failed")
			continue
		}
		if err := rc.cache.DelDirect(ctx, keys...); err != nil {
			rc.log.Warn().Err(err).Str("pattern", pattern).Msg("cache invalidation failed")
			continue
		}
		metrics.RecordInvalidation(pattern, len(keys))
	}
}

// CacheHandler exposes manual cache maintenance.
type CacheHandler struct {
	cache ports.ResponseCache
	log   zerolog.Logger
}

// NewCacheHandler creates a new CacheHandler.
func NewCacheHandler(cache ports.ResponseCache, log zerolog.Logger) *CacheHandler {
	return &CacheHandler{cache: cache, log: log}
}

// Reset handles POST /api/v1/cache/reset?pattern=.
// Without a pattern every response cache key is removed.
func (h *CacheHandler) Reset(c *gin.Context) {
	pattern := strings.TrimSpace(c.DefaultQuery("pattern", "*"))
	if !allowedResetPattern(pattern) {
		response.Error(c, apperror.Validation("pattern must be * or start with wallets or wallet-roles"))
		return
	}

	if h.cache == nil {
		response.OK(c, dto.CacheResetResponse{Pattern: pattern})
		return
	}

	for _, ns := range resetNamespaces(pattern) {
		if err := h.cache.BumpGeneration(c.Request.Context(), ns); err != nil {
			h.log.Warn().Err(err).Str("namespace", ns).Msg("cache generation bump failed")
		}
	}

	removed, err := h.cache.Reset(c.Request.Context(), pattern)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	metrics.RecordInvalidation(pattern, int(removed))

	h.log.Info().
		Str("pattern", pattern).
		Int64("removed", removed).
		Str("admin", c.GetString(middleware.CtxUsername)).
		Msg("response cache reset")

	response.OK(c, dto.CacheResetResponse{Pattern: pattern, Removed: removed})
}

func allowedResetPattern(pattern string) bool {
	if pattern == "*" {
		return true
	}
	return strings.HasPrefix(pattern, nsWallets+":") || strings.HasPrefix(pattern, nsWalletRoles+":")
}

func resetNamespaces(pattern string) []string {
	if pattern == "*" {
		return []string{nsWallets, nsWalletRoles}
	}
	return []string{namespaceOf(pattern)}
}
