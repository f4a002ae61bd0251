package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalProviderKey(t *testing.T) {
	assert.Equal(t, "evolution_api", CanonicalProviderKey("evolution"))
	assert.Equal(t, "meta_whatsapp", CanonicalProviderKey("whatsapp_cloud"))
	// chave já canônica passa direto
	assert.Equal(t, "evolution_api", CanonicalProviderKey("evolution_api"))
	// chave desconhecida não é tocada
	assert.Equal(t, "custom_crm", CanonicalProviderKey("custom_crm"))
}

func TestProvider_RequiredFields(t *testing.T) {
	p := Provider{ConfigSchema: `{"required":["api_key","base_url"]}`}
	assert.Equal(t, []string{"api_key", "base_url"}, p.RequiredFields())

	assert.Empty(t, Provider{}.RequiredFields())
	assert.Empty(t, Provider{ConfigSchema: `not-json`}.RequiredFields())
	assert.Empty(t, Provider{ConfigSchema: `{"properties":{}}`}.RequiredFields())
}

func TestDefaultProviders_SchemasParse(t *testing.T) {
	for _, p := range DefaultProviders() {
		assert.NotEmpty(t, p.Key)
		assert.NotEmpty(t, p.RequiredFields(), "provider %s sem campos obrigatórios", p.Key)
	}
}
