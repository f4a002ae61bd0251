package connections

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderNotFound: no adapter registered for the provider key. On the
	// write path (create/update/send/qr) this is a hard failure; the live
	// status path degrades to "unknown" instead.
	ErrProviderNotFound = errors.New("provider não encontrado")

	ErrConnectionNotFound = errors.New("conexão não encontrada")

	// ErrCredentialsUnavailable hides crypto-layer failures from callers.
	// The real cause is logged server-side.
	ErrCredentialsUnavailable = errors.New("credentials unavailable")

	ErrSendNotSupported = errors.New("provider não suporta envio de mensagens")
	ErrQrNotSupported   = errors.New("provider não suporta pareamento por QR code")
)

// ValidationError: a required config field is missing. Returned before any
// network call happens.
type ValidationError struct {
	Field string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("campo obrigatório: %s", e.Field)
}

// VerificationError carries the adapter's own message verbatim so the
// operator can tell "wrong credentials" from "provider unreachable".
type VerificationError struct {
	Message string
}

func (e VerificationError) Error() string {
	return "credential verification failed: " + e.Message
}
