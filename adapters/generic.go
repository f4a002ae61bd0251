package adapters

import "context"

const genericMinKeyLen = 8

// Generic is the fallback adapter for provider definitions that have no real
// adapter yet. It only checks the credential shape (api_key present, minimum
// length): ISSO NÃO É VERIFICAÇÃO DE VERDADE, é só pra deixar um provider
// novo instalável antes do adapter real existir.
type Generic struct {
	key string
}

func NewGeneric(key string) *Generic { return &Generic{key: key} }

func (a *Generic) Key() string { return a.key }

func (a *Generic) VerifyCredentials(ctx context.Context, creds map[string]any) *VerifyResult {
	apiKey := credString(creds, "api_key")
	if apiKey == "" {
		return &VerifyResult{IsValid: false, Error: "api_key é obrigatório"}
	}
	if len(apiKey) < genericMinKeyLen {
		return &VerifyResult{IsValid: false, Error: "api_key muito curto"}
	}
	return &VerifyResult{IsValid: true, Metadata: map[string]any{"verification": "shape_check_only"}}
}
