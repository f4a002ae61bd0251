package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"conecta/models"
)

const defaultGraphApiVersion = "v24.0"

// MetaWhatsApp talks to the WhatsApp Cloud API (Meta Graph API).
//
// Expected credentials: phone_number_id, access_token and optionally waba_id
// (for webhook subscription) and api_version.
type MetaWhatsApp struct {
	BaseURL string // ex: https://graph.facebook.com
	Client  *http.Client
}

func NewMetaWhatsApp() *MetaWhatsApp {
	return &MetaWhatsApp{
		BaseURL: "https://graph.facebook.com",
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *MetaWhatsApp) Key() string { return models.PROVIDER_META_WHATSAPP }

func (a *MetaWhatsApp) url(creds map[string]any, path string) string {
	apiVersion := credString(creds, "api_version")
	if apiVersion == "" {
		apiVersion = defaultGraphApiVersion
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(a.BaseURL, "/"), apiVersion, strings.TrimPrefix(path, "/"))
}

func (a *MetaWhatsApp) do(ctx context.Context, creds map[string]any, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.url(creds, path), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+credString(creds, "access_token"))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, APIError{Provider: "whatsapp", StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

// VerifyCredentials fetches the business phone number to confirm the token
// works, and returns the verified display facts as metadata.
func (a *MetaWhatsApp) VerifyCredentials(ctx context.Context, creds map[string]any) *VerifyResult {
	phoneID := credString(creds, "phone_number_id")
	token := credString(creds, "access_token")
	if phoneID == "" || token == "" {
		return &VerifyResult{IsValid: false, Error: "phone_number_id e access_token são obrigatórios"}
	}

	path := phoneID + "?fields=display_phone_number,verified_name,quality_rating"
	raw, err := a.do(ctx, creds, http.MethodGet, path, nil)
	if err != nil {
		return &VerifyResult{IsValid: false, Error: err.Error()}
	}

	var parsed struct {
		DisplayPhoneNumber string `json:"display_phone_number"`
		VerifiedName       string `json:"verified_name"`
		QualityRating      string `json:"quality_rating"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &VerifyResult{IsValid: false, Error: "unexpected graph api response: " + err.Error()}
	}

	metadata := map[string]any{}
	if parsed.DisplayPhoneNumber != "" {
		metadata["display_phone_number"] = parsed.DisplayPhoneNumber
	}
	if parsed.VerifiedName != "" {
		metadata["verified_name"] = parsed.VerifiedName
	}
	if parsed.QualityRating != "" {
		metadata["quality_rating"] = parsed.QualityRating
	}

	return &VerifyResult{IsValid: true, Metadata: metadata}
}

// CheckConnectionStatus is the cheap probe: a minimal GET on the phone number.
// A 401 from Graph means the token expired, not a transient failure.
func (a *MetaWhatsApp) CheckConnectionStatus(ctx context.Context, creds map[string]any) *StatusResult {
	phoneID := credString(creds, "phone_number_id")
	if phoneID == "" {
		return &StatusResult{Status: models.CONNECTION_STATUS_ERROR, Message: "phone_number_id ausente"}
	}

	_, err := a.do(ctx, creds, http.MethodGet, phoneID+"?fields=id", nil)
	if err != nil {
		if apiErr, ok := err.(APIError); ok && apiErr.StatusCode == http.StatusUnauthorized {
			return &StatusResult{Status: models.CONNECTION_STATUS_EXPIRED, Message: apiErr.Body}
		}
		return &StatusResult{Status: models.CONNECTION_STATUS_ERROR, Message: err.Error()}
	}
	return &StatusResult{Status: models.CONNECTION_STATUS_ACTIVE}
}

// SendMessage sends a text message via /{phone_number_id}/messages.
func (a *MetaWhatsApp) SendMessage(ctx context.Context, creds map[string]any, to string, text string) (*SendResult, error) {
	phoneID := credString(creds, "phone_number_id")
	if phoneID == "" {
		return nil, fmt.Errorf("phone_number_id é obrigatório")
	}

	body := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text": map[string]any{
			"body": text,
		},
	}

	raw, err := a.do(ctx, creds, http.MethodPost, phoneID+"/messages", body)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil || len(parsed.Messages) == 0 {
		return &SendResult{}, nil
	}
	return &SendResult{MessageID: parsed.Messages[0].ID}, nil
}

// OnConnect subscribes the app to webhook updates for the tenant's WABA.
// Skipped silently when waba_id was not provided.
func (a *MetaWhatsApp) OnConnect(ctx context.Context, creds map[string]any, config map[string]any) error {
	wabaID := credString(creds, "waba_id")
	if wabaID == "" {
		return nil
	}
	_, err := a.do(ctx, creds, http.MethodPost, wabaID+"/subscribed_apps", nil)
	return err
}
