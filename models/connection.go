package models

import (
	"encoding/json"
	"time"
)

const (
	CONNECTION_STATUS_ACTIVE       = "active"
	CONNECTION_STATUS_DISCONNECTED = "disconnected"
	CONNECTION_STATUS_ERROR        = "error"
	CONNECTION_STATUS_EXPIRED      = "expired"
	CONNECTION_STATUS_CONNECTING   = "connecting"
	CONNECTION_STATUS_DELETED      = "deleted"
)

// Connection stores a tenant-configured integration with an external provider.
// Credentials are persisted as an encrypted envelope, never plaintext.
type Connection struct {
	ID             string     `gorm:"primary_key" json:"id"`
	OrganizationID string     `gorm:"column:organization_id;not null;index" json:"organization_id"`
	ProviderKey    string     `gorm:"column:provider_key;not null;index" json:"provider_key"`
	ConnectionName string     `gorm:"column:connection_name" json:"connection_name"`
	Status         string     `gorm:"not null;default:'connecting'" json:"status"`
	Credentials    string     `gorm:"column:credentials;type:text" json:"-"`
	Config         string     `gorm:"column:config;type:text" json:"config"`
	Metadata       string     `gorm:"column:metadata;type:text" json:"metadata"`
	IsPrimary      bool       `gorm:"column:is_primary;not null;default:false" json:"is_primary"`
	LastSyncedAt   *time.Time `gorm:"column:last_synced_at" json:"last_synced_at"`
	CreatedAt      *time.Time `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

// MetadataMap decodes the metadata JSON column. Empty column -> empty map.
func (c Connection) MetadataMap() map[string]any {
	return decodeJSONMap(c.Metadata)
}

// ConfigMap decodes the config JSON column. Empty column -> empty map.
func (c Connection) ConfigMap() map[string]any {
	return decodeJSONMap(c.Config)
}

// CredentialsMap decodes the stored credentials column (usually the
// encrypted envelope object, mas linhas antigas podem ser plaintext).
func (c Connection) CredentialsMap() map[string]any {
	return decodeJSONMap(c.Credentials)
}

func decodeJSONMap(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return map[string]any{}
	}
	return m
}

// EncodeJSONMap serializes a map for a text column. Nil -> "{}".
func EncodeJSONMap(m map[string]any) string {
	if m == nil {
		m = map[string]any{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}
