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

// Evolution talks to an Evolution API instance (gateway de WhatsApp via QR).
//
// Expected credentials: base_url, api_key, instance.
type Evolution struct {
	Client *http.Client
}

func NewEvolution() *Evolution {
	return &Evolution{Client: &http.Client{Timeout: 30 * time.Second}}
}

func (a *Evolution) Key() string { return models.PROVIDER_EVOLUTION_API }

func (a *Evolution) do(ctx context.Context, creds map[string]any, method, path string, body any) ([]byte, error) {
	baseURL := strings.TrimRight(credString(creds, "base_url"), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("base_url é obrigatório")
	}

	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+"/"+strings.TrimPrefix(path, "/"), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", credString(creds, "api_key"))
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
		return nil, APIError{Provider: "evolution", StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

// connectionState consulta /instance/connectionState/{instance}.
func (a *Evolution) connectionState(ctx context.Context, creds map[string]any) (string, error) {
	instance := credString(creds, "instance")
	if instance == "" {
		return "", fmt.Errorf("instance é obrigatório")
	}

	raw, err := a.do(ctx, creds, http.MethodGet, "instance/connectionState/"+instance, nil)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Instance struct {
			State string `json:"state"`
		} `json:"instance"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("unexpected evolution response: %w", err)
	}
	return strings.ToLower(strings.TrimSpace(parsed.Instance.State)), nil
}

// VerifyCredentials confirms the api key reaches the instance. The instance
// does not need to be paired yet: an unpaired instance is still a valid
// connection, it just reports "connecting" until the QR is scanned.
func (a *Evolution) VerifyCredentials(ctx context.Context, creds map[string]any) *VerifyResult {
	state, err := a.connectionState(ctx, creds)
	if err != nil {
		return &VerifyResult{IsValid: false, Error: err.Error()}
	}
	return &VerifyResult{IsValid: true, Metadata: map[string]any{"instance_state": state}}
}

// CheckConnectionStatus maps the instance state to a connection status.
func (a *Evolution) CheckConnectionStatus(ctx context.Context, creds map[string]any) *StatusResult {
	state, err := a.connectionState(ctx, creds)
	if err != nil {
		return &StatusResult{Status: models.CONNECTION_STATUS_ERROR, Message: err.Error()}
	}

	switch state {
	case "open":
		return &StatusResult{Status: models.CONNECTION_STATUS_ACTIVE}
	case "connecting":
		return &StatusResult{Status: models.CONNECTION_STATUS_CONNECTING}
	case "close", "closed":
		return &StatusResult{Status: models.CONNECTION_STATUS_DISCONNECTED}
	default:
		return &StatusResult{Status: StatusUnknown, Message: "state=" + state}
	}
}

// GetQrCode fetches the pairing code. Returns nil (not an error) when the
// instance is already paired.
func (a *Evolution) GetQrCode(ctx context.Context, creds map[string]any) (*QrResult, error) {
	instance := credString(creds, "instance")
	if instance == "" {
		return nil, fmt.Errorf("instance é obrigatório")
	}

	raw, err := a.do(ctx, creds, http.MethodGet, "instance/connect/"+instance, nil)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Base64   string `json:"base64"`
		Code     string `json:"code"`
		Instance struct {
			State string `json:"state"`
		} `json:"instance"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("unexpected evolution response: %w", err)
	}

	if parsed.Base64 != "" {
		return &QrResult{Qr: parsed.Base64}, nil
	}
	if parsed.Code != "" {
		return &QrResult{Qr: parsed.Code}, nil
	}
	// already paired ("state":"open") or nothing to show
	return nil, nil
}

// SendMessage sends a text via /message/sendText/{instance}.
func (a *Evolution) SendMessage(ctx context.Context, creds map[string]any, to string, text string) (*SendResult, error) {
	instance := credString(creds, "instance")
	if instance == "" {
		return nil, fmt.Errorf("instance é obrigatório")
	}

	body := map[string]any{
		"number": to,
		"text":   text,
	}

	raw, err := a.do(ctx, creds, http.MethodPost, "message/sendText/"+instance, body)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Key struct {
			ID string `json:"id"`
		} `json:"key"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &SendResult{}, nil
	}
	return &SendResult{MessageID: parsed.Key.ID}, nil
}
