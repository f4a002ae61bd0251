package models

import (
	"encoding/json"
	"time"
)

const (
	PROVIDER_META_WHATSAPP = "meta_whatsapp"
	PROVIDER_EVOLUTION_API = "evolution_api"
	PROVIDER_AWS_S3        = "aws_s3"
	PROVIDER_OPENAI        = "openai"
)

const (
	PROVIDER_CATEGORY_MESSAGING = "messaging"
	PROVIDER_CATEGORY_STORAGE   = "storage"
	PROVIDER_CATEGORY_AI        = "ai"
	PROVIDER_CATEGORY_GENERIC   = "generic"
)

// LegacyProviderAliases maps a canonical provider key to keys under which
// connections were historically stored. Install/update rewrites legacy rows
// to the canonical key (see connections.Repository).
var LegacyProviderAliases = map[string][]string{
	PROVIDER_EVOLUTION_API: {"evolution"},
	PROVIDER_META_WHATSAPP: {"whatsapp_cloud"},
}

// CanonicalProviderKey resolves a legacy alias to its canonical key. Unknown
// keys come back unchanged.
func CanonicalProviderKey(key string) string {
	for canonical, aliases := range LegacyProviderAliases {
		for _, alias := range aliases {
			if alias == key {
				return canonical
			}
		}
	}
	return key
}

// Provider is a catalog entry describing an installable integration.
type Provider struct {
	Key          string     `gorm:"primary_key" json:"key"`
	Name         string     `gorm:"not null" json:"name"`
	Category     string     `gorm:"not null" json:"category"`
	IsPremium    bool       `gorm:"column:is_premium;not null;default:false" json:"is_premium"`
	ConfigSchema string     `gorm:"column:config_schema;type:text" json:"config_schema"`
	CreatedAt    *time.Time `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

// RequiredFields returns configSchema.required, or nil when the schema is
// empty/unparseable (nada a validar).
func (p Provider) RequiredFields() []string {
	if p.ConfigSchema == "" {
		return nil
	}
	var schema struct {
		Required []string `json:"required"`
	}
	if err := json.Unmarshal([]byte(p.ConfigSchema), &schema); err != nil {
		return nil
	}
	return schema.Required
}

// DefaultProviders seeds the catalog on first boot.
func DefaultProviders() []Provider {
	return []Provider{
		{
			Key:      PROVIDER_META_WHATSAPP,
			Name:     "WhatsApp Cloud API",
			Category: PROVIDER_CATEGORY_MESSAGING,
			ConfigSchema: `{"required":["phone_number_id","access_token"],"properties":{` +
				`"phone_number_id":{"type":"string"},"access_token":{"type":"string"},` +
				`"waba_id":{"type":"string"},"api_version":{"type":"string"}}}`,
		},
		{
			Key:      PROVIDER_EVOLUTION_API,
			Name:     "Evolution API",
			Category: PROVIDER_CATEGORY_MESSAGING,
			ConfigSchema: `{"required":["base_url","api_key","instance"],"properties":{` +
				`"base_url":{"type":"string"},"api_key":{"type":"string"},"instance":{"type":"string"}}}`,
		},
		{
			Key:       PROVIDER_AWS_S3,
			Name:      "Amazon S3",
			Category:  PROVIDER_CATEGORY_STORAGE,
			IsPremium: true,
			ConfigSchema: `{"required":["access_key_id","secret_access_key","region","bucket"],"properties":{` +
				`"access_key_id":{"type":"string"},"secret_access_key":{"type":"string"},` +
				`"region":{"type":"string"},"bucket":{"type":"string"}}}`,
		},
		{
			Key:      PROVIDER_OPENAI,
			Name:     "OpenAI",
			Category: PROVIDER_CATEGORY_AI,
			ConfigSchema: `{"required":["api_key"],"properties":{` +
				`"api_key":{"type":"string"},"model":{"type":"string"}}}`,
		},
	}
}
