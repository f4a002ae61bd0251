package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"conecta/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func graphServer(t *testing.T, handler http.HandlerFunc) (*MetaWhatsApp, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &MetaWhatsApp{BaseURL: server.URL, Client: server.Client()}, server
}

func TestMetaWhatsApp_VerifyCredentials(t *testing.T) {
	adapter, _ := graphServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v24.0/123456", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"display_phone_number":"+15551234567","verified_name":"Loja","quality_rating":"GREEN","id":"123456"}`))
	})

	result := adapter.VerifyCredentials(context.Background(), map[string]any{
		"phone_number_id": "123456",
		"access_token":    "tok",
	})

	require.True(t, result.IsValid)
	assert.Equal(t, "+15551234567", result.Metadata["display_phone_number"])
	assert.Equal(t, "Loja", result.Metadata["verified_name"])
	assert.Equal(t, "GREEN", result.Metadata["quality_rating"])
}

func TestMetaWhatsApp_VerifyCredentials_BadToken(t *testing.T) {
	adapter, _ := graphServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid OAuth access token"}}`))
	})

	result := adapter.VerifyCredentials(context.Background(), map[string]any{
		"phone_number_id": "123456",
		"access_token":    "bad",
	})

	require.False(t, result.IsValid)
	// a mensagem do Graph chega inteira pro caller decidir o que mostrar
	assert.Contains(t, result.Error, "Invalid OAuth access token")
}

func TestMetaWhatsApp_VerifyCredentials_MissingFields(t *testing.T) {
	adapter := NewMetaWhatsApp()

	result := adapter.VerifyCredentials(context.Background(), map[string]any{
		"access_token": "tok",
	})

	// falha local, sem chamada de rede
	require.False(t, result.IsValid)
	assert.Contains(t, result.Error, "phone_number_id")
}

func TestMetaWhatsApp_CheckConnectionStatus_ExpiredToken(t *testing.T) {
	adapter, _ := graphServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":190}}`))
	})

	result := adapter.CheckConnectionStatus(context.Background(), map[string]any{
		"phone_number_id": "123456",
		"access_token":    "stale",
	})

	// 401 do Graph é token expirado, não erro transitório
	assert.Equal(t, models.CONNECTION_STATUS_EXPIRED, result.Status)
}

func TestMetaWhatsApp_CheckConnectionStatus_Active(t *testing.T) {
	adapter, _ := graphServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"123456"}`))
	})

	result := adapter.CheckConnectionStatus(context.Background(), map[string]any{
		"phone_number_id": "123456",
		"access_token":    "tok",
	})
	assert.Equal(t, models.CONNECTION_STATUS_ACTIVE, result.Status)
}

func TestMetaWhatsApp_SendMessage(t *testing.T) {
	adapter, _ := graphServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v24.0/123456/messages", r.URL.Path)
		w.Write([]byte(`{"messages":[{"id":"wamid.ABC"}]}`))
	})

	result, err := adapter.SendMessage(context.Background(), map[string]any{
		"phone_number_id": "123456",
		"access_token":    "tok",
	}, "5511999999999", "olá")

	require.NoError(t, err)
	assert.Equal(t, "wamid.ABC", result.MessageID)
}

func TestMetaWhatsApp_SendMessage_ProviderRejection(t *testing.T) {
	adapter, _ := graphServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"recipient not in allowed list"}}`))
	})

	_, err := adapter.SendMessage(context.Background(), map[string]any{
		"phone_number_id": "123456",
		"access_token":    "tok",
	}, "5511999999999", "olá")

	require.Error(t, err)
	apiErr, ok := err.(APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "recipient not in allowed list")
}

func TestMetaWhatsApp_ApiVersionOverride(t *testing.T) {
	adapter, _ := graphServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v21.0/123456", r.URL.Path)
		w.Write([]byte(`{"id":"123456"}`))
	})

	result := adapter.CheckConnectionStatus(context.Background(), map[string]any{
		"phone_number_id": "123456",
		"access_token":    "tok",
		"api_version":     "v21.0",
	})
	assert.Equal(t, models.CONNECTION_STATUS_ACTIVE, result.Status)
}
