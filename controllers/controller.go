package controllers

import (
	"conecta/config"
	"conecta/connections"
	"conecta/workers"

	"github.com/gin-gonic/gin"
)

const (
	serviceKey = "connections_service"
	cacheKey   = "status_cache"
	configKey  = "configuration"
)

func RespondError(c *gin.Context, msg string, code int) {
	c.JSON(code, gin.H{"error": msg})
}

func RespondSuccess(c *gin.Context, payload any) {
	c.JSON(200, payload)
}

// SetDepsToContext injects the service, the live-status cache and the app
// configuration, no estilo do SetDBtoContext.
func SetDepsToContext(svc *connections.Service, cache *workers.StatusCache, cfg config.Configuration) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(serviceKey, svc)
		c.Set(cacheKey, cache)
		c.Set(configKey, cfg)
		c.Next()
	}
}

func ServiceInstance(c *gin.Context) *connections.Service {
	v, ok := c.Get(serviceKey)
	if !ok {
		return nil
	}
	svc, _ := v.(*connections.Service)
	return svc
}

func StatusCacheInstance(c *gin.Context) *workers.StatusCache {
	v, ok := c.Get(cacheKey)
	if !ok {
		return nil
	}
	cache, _ := v.(*workers.StatusCache)
	return cache
}

func ConfigInstance(c *gin.Context) config.Configuration {
	v, ok := c.Get(configKey)
	if !ok {
		return config.Configuration{}
	}
	cfg, _ := v.(config.Configuration)
	return cfg
}
