package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// bareRouter monta as rotas de conexão com um tenant resolvido mas SEM o
// service no contexto (setup quebrado). Os handlers têm que responder 500,
// nunca derrubar o processo.
func bareRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ctxOrgKey, "org-a")
		c.Next()
	})
	r.POST("/api/connections", CreateOrUpdateConnection)
	r.GET("/api/connections", ListConnections)
	r.GET("/api/connections/:id/status", CheckConnectionStatus)
	r.GET("/api/connections/:id/qr", GetConnectionQr)
	r.POST("/api/connections/:id/primary", SetPrimaryConnection)
	r.POST("/api/connections/:id/messages", SendConnectionMessage)
	r.DELETE("/api/connections/:id", DeleteConnection)
	return r
}

func TestConnectionHandlers_MissingServiceInContext(t *testing.T) {
	r := bareRouter()

	cases := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/api/connections", `{"provider_key":"meta_whatsapp"}`},
		{http.MethodGet, "/api/connections", ""},
		{http.MethodGet, "/api/connections/c1/status", ""},
		{http.MethodGet, "/api/connections/c1/qr", ""},
		{http.MethodPost, "/api/connections/c1/primary", ""},
		{http.MethodPost, "/api/connections/c1/messages", `{"to":"5511999999999","text":"oi"}`},
		{http.MethodDelete, "/api/connections/c1", ""},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			var req *http.Request
			if tc.body != "" {
				req = httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tc.method, tc.path, nil)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusInternalServerError, w.Code)
		})
	}
}
