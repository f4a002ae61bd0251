package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// verifyMetaSignature validates the request body against Meta's signature
// header (X-Hub-Signature-256: sha256=<hex>). The secret is the App Secret,
// NOT the access token.
func verifyMetaSignature(c *gin.Context, rawBody []byte) (bool, string) {
	secret := strings.TrimSpace(os.Getenv("WEBHOOK_APP_SECRET"))
	if secret == "" {
		secret = strings.TrimSpace(os.Getenv("META_APP_SECRET"))
	}
	if secret == "" {
		// sem secret configurado, não dá pra validar: aceita em dev
		return true, ""
	}

	sig := strings.TrimSpace(c.GetHeader("X-Hub-Signature-256"))
	if sig == "" {
		return false, "missing X-Hub-Signature-256"
	}
	if !strings.HasPrefix(sig, "sha256=") {
		return false, "invalid X-Hub-Signature-256 format"
	}

	provided, err := hex.DecodeString(strings.TrimPrefix(sig, "sha256="))
	if err != nil {
		return false, "invalid signature hex"
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(rawBody)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return false, "signature mismatch"
	}
	return true, ""
}

// GET /api/webhook/:provider
// Meta-style challenge handshake: responde o hub.challenge quando o
// hub.verify_token bate com o token compartilhado.
func WebhookVerify(c *gin.Context) {
	cfg := ConfigInstance(c)
	verifyToken := cfg.Security.WebhookVerifyToken
	if verifyToken == "" {
		RespondError(c, "webhook verify token not set", http.StatusInternalServerError)
		return
	}

	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && subtle.ConstantTimeCompare([]byte(token), []byte(verifyToken)) == 1 {
		c.String(http.StatusOK, challenge)
		return
	}

	RespondError(c, "forbidden", http.StatusForbidden)
}

// POST /api/webhook/:provider
// Accepts inbound provider events after signature validation. Event handling
// itself belongs to downstream consumers; here we only acknowledge.
func WebhookUpdate(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		RespondError(c, "failed to read body", http.StatusBadRequest)
		return
	}

	provider := strings.TrimSpace(c.Param("provider"))
	if provider == "meta_whatsapp" {
		if ok, reason := verifyMetaSignature(c, rawBody); !ok {
			RespondError(c, reason, http.StatusUnauthorized)
			return
		}
	}

	log.Printf("webhook: event from %s (%d bytes)", provider, len(rawBody))
	c.String(http.StatusOK, "EVENT_RECEIVED")
}
