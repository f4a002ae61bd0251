package adapters

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"conecta/models"
)

// OpenAI validates model-provider connections against the OpenAI API.
//
// Expected credentials: api_key, optionally model.
type OpenAI struct {
	BaseURL string // ex: https://api.openai.com
	Client  *http.Client
}

func NewOpenAI() *OpenAI {
	return &OpenAI{
		BaseURL: "https://api.openai.com",
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *OpenAI) Key() string { return models.PROVIDER_OPENAI }

func (a *OpenAI) listModels(ctx context.Context, creds map[string]any) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(a.BaseURL, "/")+"/v1/models", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+credString(creds, "api_key"))

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, APIError{Provider: "openai", StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// VerifyCredentials lists the account's models with the key. When a model was
// configured, checks it is actually available.
func (a *OpenAI) VerifyCredentials(ctx context.Context, creds map[string]any) *VerifyResult {
	if credString(creds, "api_key") == "" {
		return &VerifyResult{IsValid: false, Error: "api_key é obrigatório"}
	}

	ids, err := a.listModels(ctx, creds)
	if err != nil {
		return &VerifyResult{IsValid: false, Error: err.Error()}
	}

	metadata := map[string]any{"model_count": len(ids)}
	if model := credString(creds, "model"); model != "" {
		found := false
		for _, id := range ids {
			if id == model {
				found = true
				break
			}
		}
		if !found {
			return &VerifyResult{IsValid: false, Error: "model " + model + " is not available for this api key"}
		}
		metadata["model"] = model
	}

	return &VerifyResult{IsValid: true, Metadata: metadata}
}

// CheckConnectionStatus reuses the models listing as the liveness probe.
func (a *OpenAI) CheckConnectionStatus(ctx context.Context, creds map[string]any) *StatusResult {
	if _, err := a.listModels(ctx, creds); err != nil {
		if apiErr, ok := err.(APIError); ok && apiErr.StatusCode == http.StatusUnauthorized {
			return &StatusResult{Status: models.CONNECTION_STATUS_EXPIRED, Message: apiErr.Body}
		}
		return &StatusResult{Status: models.CONNECTION_STATUS_ERROR, Message: err.Error()}
	}
	return &StatusResult{Status: models.CONNECTION_STATUS_ACTIVE}
}
