package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Get(t *testing.T) {
	registry := NewRegistry(NewMetaWhatsApp(), NewEvolution())

	adapter, ok := registry.Get("meta_whatsapp")
	require.True(t, ok)
	assert.Equal(t, "meta_whatsapp", adapter.Key())

	_, ok = registry.Get("no_such_provider")
	assert.False(t, ok)
}

func TestRegistry_Keys(t *testing.T) {
	registry := NewRegistry(NewMetaWhatsApp(), NewEvolution(), NewOpenAI())

	keys := registry.Keys()
	assert.ElementsMatch(t, []string{"meta_whatsapp", "evolution_api", "openai"}, keys)
}

func TestRegistry_CapabilityAssertions(t *testing.T) {
	registry := Default()

	// evolution expõe QR, o cloud API não
	evo, ok := registry.Get("evolution_api")
	require.True(t, ok)
	_, hasQr := evo.(QrProvider)
	assert.True(t, hasQr)

	meta, ok := registry.Get("meta_whatsapp")
	require.True(t, ok)
	_, hasQr = meta.(QrProvider)
	assert.False(t, hasQr)
	_, hasSend := meta.(MessageSender)
	assert.True(t, hasSend)

	s3, ok := registry.Get("aws_s3")
	require.True(t, ok)
	_, hasSend = s3.(MessageSender)
	assert.False(t, hasSend)
	_, hasProbe := s3.(StatusProbe)
	assert.True(t, hasProbe)
}

func TestGeneric_ShapeCheck(t *testing.T) {
	adapter := NewGeneric("custom_crm")
	assert.Equal(t, "custom_crm", adapter.Key())

	result := adapter.VerifyCredentials(context.Background(), map[string]any{"api_key": "long-enough-key"})
	require.True(t, result.IsValid)
	assert.Equal(t, "shape_check_only", result.Metadata["verification"])

	result = adapter.VerifyCredentials(context.Background(), map[string]any{})
	assert.False(t, result.IsValid)

	result = adapter.VerifyCredentials(context.Background(), map[string]any{"api_key": "curto"})
	assert.False(t, result.IsValid)
}
