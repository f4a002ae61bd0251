package router

import (
	"log"
	"time"

	"conecta/controllers"

	"github.com/gin-gonic/gin"
)

// Logger logs method, path, caller org (when resolved), status and latency.
// Nunca loga corpo de request: credenciais passam por aqui.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		if orgID, ok := controllers.GetOrganizationLogged(c); ok {
			log.Printf("%s %s org=%s -> %d (%s)", c.Request.Method, c.Request.URL.Path, orgID, c.Writer.Status(), duration)
			return
		}
		log.Printf("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), duration)
	}
}
