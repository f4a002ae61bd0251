package controllers

import (
	"errors"
	"net/http"
	"strings"

	"conecta/connections"
	"conecta/workers"

	"github.com/gin-gonic/gin"
)

// connectionView is a listing entry: the Connection (credentials are already
// json:"-") plus the last cached live status, when the refresher has one.
type connectionView struct {
	ID             string                `json:"id"`
	ProviderKey    string                `json:"provider_key"`
	ConnectionName string                `json:"connection_name"`
	Status         string                `json:"status"`
	Config         map[string]any        `json:"config"`
	Metadata       map[string]any        `json:"metadata"`
	IsPrimary      bool                  `json:"is_primary"`
	LastSyncedAt   any                   `json:"last_synced_at"`
	CreatedAt      any                   `json:"created_at"`
	LiveStatus     *workers.CachedStatus `json:"live_status,omitempty"`
}

func respondServiceError(c *gin.Context, err error) {
	var validationErr connections.ValidationError
	var verificationErr connections.VerificationError

	switch {
	case errors.Is(err, connections.ErrConnectionNotFound),
		errors.Is(err, connections.ErrProviderNotFound):
		RespondError(c, err.Error(), http.StatusNotFound)
	case errors.As(err, &validationErr):
		RespondError(c, err.Error(), http.StatusBadRequest)
	case errors.As(err, &verificationErr):
		RespondError(c, err.Error(), http.StatusBadRequest)
	case errors.Is(err, connections.ErrSendNotSupported),
		errors.Is(err, connections.ErrQrNotSupported):
		RespondError(c, err.Error(), http.StatusBadRequest)
	case errors.Is(err, connections.ErrCredentialsUnavailable):
		RespondError(c, err.Error(), http.StatusInternalServerError)
	default:
		RespondError(c, err.Error(), http.StatusInternalServerError)
	}
}

// POST /api/connections
// Installs a provider connection or rotates credentials of the existing one.
func CreateOrUpdateConnection(c *gin.Context) {
	org, ok := GetOrganizationLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	var in connections.ConnectInput
	if err := c.Bind(&in); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	in.ProviderKey = strings.TrimSpace(in.ProviderKey)
	if in.ProviderKey == "" {
		RespondError(c, "provider_key é obrigatório", http.StatusBadRequest)
		return
	}

	svc := ServiceInstance(c)
	if svc == nil {
		RespondError(c, "service não configurado no contexto", http.StatusInternalServerError)
		return
	}

	conn, err := svc.CreateOrUpdate(c.Request.Context(), org, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondSuccess(c, conn)
}

// GET /api/connections
// Lists the tenant's connections. Credentials never appear here; the cached
// live status does, when available.
func ListConnections(c *gin.Context) {
	org, ok := GetOrganizationLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	svc := ServiceInstance(c)
	cache := StatusCacheInstance(c)
	if svc == nil {
		RespondError(c, "service não configurado no contexto", http.StatusInternalServerError)
		return
	}

	conns, err := svc.List(org)
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]connectionView, 0, len(conns))
	for _, conn := range conns {
		view := connectionView{
			ID:             conn.ID,
			ProviderKey:    conn.ProviderKey,
			ConnectionName: conn.ConnectionName,
			Status:         conn.Status,
			Config:         conn.ConfigMap(),
			Metadata:       conn.MetadataMap(),
			IsPrimary:      conn.IsPrimary,
			LastSyncedAt:   conn.LastSyncedAt,
			CreatedAt:      conn.CreatedAt,
		}
		if cache != nil {
			if cached, found := cache.Get(conn.ID); found {
				view.LiveStatus = &cached
			}
		}
		out = append(out, view)
	}
	RespondSuccess(c, out)
}

// GET /api/connections/:id/status
// Fresh live probe: cheap, poll-friendly, never mutates the stored row.
func CheckConnectionStatus(c *gin.Context) {
	org, ok := GetOrganizationLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	svc := ServiceInstance(c)
	if svc == nil {
		RespondError(c, "service não configurado no contexto", http.StatusInternalServerError)
		return
	}
	result, err := svc.CheckLiveStatus(c.Request.Context(), org, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondSuccess(c, result)
}

// POST /api/connections/:id/primary
func SetPrimaryConnection(c *gin.Context) {
	org, ok := GetOrganizationLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	svc := ServiceInstance(c)
	if svc == nil {
		RespondError(c, "service não configurado no contexto", http.StatusInternalServerError)
		return
	}
	if err := svc.SetPrimary(org, c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	RespondSuccess(c, true)
}

type sendMessageReq struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// POST /api/connections/:id/messages
func SendConnectionMessage(c *gin.Context) {
	org, ok := GetOrganizationLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req sendMessageReq
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.To) == "" || strings.TrimSpace(req.Text) == "" {
		RespondError(c, "to e text são obrigatórios", http.StatusBadRequest)
		return
	}

	svc := ServiceInstance(c)
	if svc == nil {
		RespondError(c, "service não configurado no contexto", http.StatusInternalServerError)
		return
	}
	result, err := svc.SendText(c.Request.Context(), org, c.Param("id"), req.To, req.Text)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondSuccess(c, result)
}

// GET /api/connections/:id/qr
// "qr": null means already paired: not an error.
func GetConnectionQr(c *gin.Context) {
	org, ok := GetOrganizationLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	svc := ServiceInstance(c)
	if svc == nil {
		RespondError(c, "service não configurado no contexto", http.StatusInternalServerError)
		return
	}
	result, err := svc.GetQr(c.Request.Context(), org, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if result == nil {
		RespondSuccess(c, gin.H{"qr": nil})
		return
	}
	RespondSuccess(c, result)
}

// DELETE /api/connections/:id
// Soft delete por padrão; ?hard=true remove a linha de verdade.
func DeleteConnection(c *gin.Context) {
	org, ok := GetOrganizationLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	hard := strings.EqualFold(c.Query("hard"), "true")

	svc := ServiceInstance(c)
	if svc == nil {
		RespondError(c, "service não configurado no contexto", http.StatusInternalServerError)
		return
	}
	if err := svc.Delete(c.Request.Context(), org, c.Param("id"), hard); err != nil {
		respondServiceError(c, err)
		return
	}

	if cache := StatusCacheInstance(c); cache != nil {
		cache.Delete(c.Param("id"))
	}
	RespondSuccess(c, true)
}
