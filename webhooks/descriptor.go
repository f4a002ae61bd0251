// Package webhooks derives the callback URL and shared verification token a
// tenant must configure on the provider's dashboard. Pure derivation: the UI
// and the inbound receiver both call this, so they always agree.
package webhooks

import (
	"net/url"
	"strings"
)

// Descriptor is what the tenant pastes into the provider's webhook settings.
type Descriptor struct {
	URL         string `json:"url"`
	VerifyToken string `json:"verify_token,omitempty"`
	Warning     string `json:"warning,omitempty"`
}

// providersWithVerifyToken need the shared token for their GET challenge
// handshake (Meta-style hub.verify_token).
var providersWithVerifyToken = map[string]bool{
	"meta_whatsapp": true,
}

// Describe builds the webhook descriptor for a provider. A base URL that
// external providers cannot reach produces a warning, not an error: dev
// setups still want to see the derived path.
func Describe(providerKey, baseURL, verifyToken string) Descriptor {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")

	d := Descriptor{
		URL: base + "/api/webhook/" + providerKey,
	}
	if providersWithVerifyToken[providerKey] {
		d.VerifyToken = verifyToken
	}
	if warn := localWarning(base); warn != "" {
		d.Warning = warn
	}
	return d
}

// localWarning flags base URLs unreachable from the public internet.
func localWarning(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return "base URL inválida ou não configurada; providers externos não vão conseguir entregar eventos"
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case host == "localhost" || host == "0.0.0.0" || strings.HasSuffix(host, ".local"):
		fallthrough
	case strings.HasPrefix(host, "127.") || strings.HasPrefix(host, "10.") || strings.HasPrefix(host, "192.168."):
		return "base URL aponta para um endereço local; providers externos não vão conseguir entregar eventos"
	}
	return ""
}
