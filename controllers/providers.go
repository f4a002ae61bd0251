package controllers

import (
	"net/http"
	"strings"

	dbpkg "conecta/db"
	"conecta/models"
	"conecta/webhooks"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

// GET /api/providers
// Catalog listing: key, name, category, schema. Nada de credencial aqui.
func GetProviders(c *gin.Context) {
	svc := ServiceInstance(c)
	if svc == nil {
		RespondError(c, "service não configurado no contexto", http.StatusInternalServerError)
		return
	}

	providers, err := svc.ListProviders()
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, providers)
}

type upsertProviderReq struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	IsPremium    bool   `json:"is_premium"`
	ConfigSchema string `json:"config_schema"`
}

// POST /api/providers (admin)
// Creates or updates a catalog entry. Lets an operator stand up a provider
// definition before a real adapter exists (the generic adapter covers it).
func UpsertProvider(c *gin.Context) {
	var req upsertProviderReq
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	req.Key = strings.TrimSpace(req.Key)
	req.Name = strings.TrimSpace(req.Name)
	if req.Key == "" {
		RespondError(c, "key é obrigatório", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		RespondError(c, "name é obrigatório", http.StatusBadRequest)
		return
	}
	if req.Category == "" {
		req.Category = models.PROVIDER_CATEGORY_GENERIC
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	var existing models.Provider
	err := db.Where("key = ?", req.Key).First(&existing).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			p := models.Provider{
				Key:          req.Key,
				Name:         req.Name,
				Category:     req.Category,
				IsPremium:    req.IsPremium,
				ConfigSchema: req.ConfigSchema,
			}
			if err := db.Create(&p).Error; err != nil {
				RespondError(c, err.Error(), http.StatusBadRequest)
				return
			}
			RespondSuccess(c, p)
			return
		}
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	if err := db.Model(&models.Provider{}).
		Where("key = ?", req.Key).
		Updates(map[string]any{
			"name":          req.Name,
			"category":      req.Category,
			"is_premium":    req.IsPremium,
			"config_schema": req.ConfigSchema,
		}).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, true)
}

// GET /api/webhooks/:provider
// Returns the callback URL + verify token the tenant must configure on the
// provider's dashboard.
func GetWebhookDescriptor(c *gin.Context) {
	providerKey := strings.TrimSpace(c.Param("provider"))
	if providerKey == "" {
		RespondError(c, "provider é obrigatório", http.StatusBadRequest)
		return
	}

	cfg := ConfigInstance(c)
	descriptor := webhooks.Describe(providerKey, cfg.BaseURL, cfg.Security.WebhookVerifyToken)
	RespondSuccess(c, descriptor)
}
