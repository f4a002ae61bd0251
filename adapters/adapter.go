package adapters

import (
	"context"
	"fmt"
	"strings"
)

// StatusUnknown is reported when a provider has no cheap liveness probe.
const StatusUnknown = "unknown"

// VerifyResult is the outcome of a live credential verification.
// Expected failures (bad key, unreachable provider) come back as
// IsValid=false with the provider's message; adapters never panic for those.
type VerifyResult struct {
	IsValid  bool           `json:"is_valid"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// StatusResult is the outcome of the cheap liveness probe.
type StatusResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// QrResult carries a pairing code for QR-based providers.
type QrResult struct {
	Qr string `json:"qr"`
}

// SendResult is returned by a successful outbound message dispatch.
type SendResult struct {
	MessageID string         `json:"message_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Adapter normalizes one external provider behind the minimal contract every
// integration must satisfy. Optional operations live in the capability
// interfaces below; callers do an interface assertion instead of a method
// presence check.
type Adapter interface {
	Key() string
	VerifyCredentials(ctx context.Context, creds map[string]any) *VerifyResult
}

// StatusProbe is the cheap, poll-friendly liveness check. Distinct from
// verification: never mutates anything, safe to call every 30s.
type StatusProbe interface {
	CheckConnectionStatus(ctx context.Context, creds map[string]any) *StatusResult
}

// QrProvider fetches a pairing code. A nil result with nil error means the
// provider is already paired (non-error non-result).
type QrProvider interface {
	GetQrCode(ctx context.Context, creds map[string]any) (*QrResult, error)
}

// MessageSender dispatches an outbound text message. A provider-rejected send
// returns an error carrying the provider's own error text (see APIError).
type MessageSender interface {
	SendMessage(ctx context.Context, creds map[string]any, to string, text string) (*SendResult, error)
}

// ConnectHook runs after a connection is persisted (ex: webhook subscription).
// Best-effort: the caller logs failures and continues.
type ConnectHook interface {
	OnConnect(ctx context.Context, creds map[string]any, config map[string]any) error
}

// DisconnectHook runs before a connection is removed. Best-effort.
type DisconnectHook interface {
	OnDisconnect(ctx context.Context, creds map[string]any, config map[string]any) error
}

// APIError preserves the provider's HTTP status and raw body so operators can
// diagnose rejected calls.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s api error: status=%d body=%s", e.Provider, e.StatusCode, e.Body)
}

// credString extracts a trimmed string credential field.
func credString(creds map[string]any, key string) string {
	v, ok := creds[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
