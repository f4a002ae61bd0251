package connections

import (
	"context"
	"log"
	"time"

	"conecta/adapters"
	"conecta/cryptox"
	"conecta/models"
)

// Service orchestrates adapter calls around the repository: verification on
// the write path, the cheap liveness probe on the read path, outbound sends
// and QR pairing. Adapters never touch storage; only the repository writes.
type Service struct {
	repo     *Repository
	registry *adapters.Registry
	envelope *cryptox.Envelope
}

func NewService(repo *Repository, registry *adapters.Registry, envelope *cryptox.Envelope) *Service {
	return &Service{repo: repo, registry: registry, envelope: envelope}
}

// ConnectInput is the caller-facing payload for install/update. Credentials
// are write-only: they never come back on a read path.
type ConnectInput struct {
	ID             string         `json:"id"` // optional: update this exact connection
	ProviderKey    string         `json:"provider_key"`
	ConnectionName string         `json:"connection_name"`
	Credentials    map[string]any `json:"credentials"`
	Config         map[string]any `json:"config"`
	Metadata       map[string]any `json:"metadata"`
	IsPrimary      *bool          `json:"is_primary"` // nil = não mexe no primário existente
}

// CreateOrUpdate installs a provider connection or updates the existing one.
//
// Fixed order: validate required fields -> resolve adapter -> verify ->
// merge metadata -> (clear sibling primaries +) encrypt + write. A failed
// verification aborts before anything is written, so the caller never sees a
// half-written connection.
func (s *Service) CreateOrUpdate(ctx context.Context, orgID string, in ConnectInput) (*models.Connection, error) {
	// Installs under a legacy alias land on the canonical key.
	in.ProviderKey = models.CanonicalProviderKey(in.ProviderKey)

	if err := s.validateRequired(in); err != nil {
		return nil, err
	}

	adapter, ok := s.registry.Get(in.ProviderKey)
	if !ok {
		// Política: na escrita, provider sem adapter E sem entrada de
		// catálogo é falha dura. Um provider só de catálogo (criado pelo
		// admin antes do adapter real existir) cai no adapter genérico.
		provider, perr := s.repo.GetProvider(in.ProviderKey)
		if perr != nil {
			return nil, perr
		}
		if provider == nil {
			return nil, ErrProviderNotFound
		}
		adapter = adapters.NewGeneric(in.ProviderKey)
	}

	result := adapter.VerifyCredentials(ctx, in.Credentials)
	if result == nil || !result.IsValid {
		msg := "verification returned no result"
		if result != nil {
			msg = result.Error
		}
		return nil, VerificationError{Message: msg}
	}

	// Adapter metadata wins only for the keys it explicitly returned;
	// caller-supplied keys are preserved otherwise.
	metadata := map[string]any{}
	for k, v := range in.Metadata {
		metadata[k] = v
	}
	for k, v := range result.Metadata {
		metadata[k] = v
	}

	existing, err := s.findExisting(orgID, in)
	if err != nil {
		return nil, err
	}

	stored, err := s.envelope.EncryptObject(in.Credentials)
	if err != nil {
		log.Printf("connections: encrypt error for org=%s provider=%s: %v", orgID, in.ProviderKey, err)
		return nil, ErrCredentialsUnavailable
	}

	now := time.Now()

	if existing == nil {
		conn := &models.Connection{
			OrganizationID: orgID,
			ProviderKey:    in.ProviderKey,
			ConnectionName: in.ConnectionName,
			Status:         models.CONNECTION_STATUS_ACTIVE,
			Credentials:    models.EncodeJSONMap(stored),
			Config:         models.EncodeJSONMap(in.Config),
			Metadata:       models.EncodeJSONMap(metadata),
			IsPrimary:      in.IsPrimary != nil && *in.IsPrimary,
			LastSyncedAt:   &now,
		}
		if err := s.repo.Insert(conn); err != nil {
			return nil, err
		}
		s.runConnectHook(ctx, adapter, in.Credentials, in.Config)
		return conn, nil
	}

	// Linha achada sob a chave legada: migra pra canônica antes do update.
	if existing.ProviderKey != in.ProviderKey {
		if err := s.repo.MigrateProviderKey(orgID, existing.ID, in.ProviderKey); err != nil {
			return nil, err
		}
	}

	// Merge over whatever metadata the row already carries (virtual asset
	// markers etc. survive a credential rotation).
	merged := existing.MetadataMap()
	for k, v := range metadata {
		merged[k] = v
	}

	fields := map[string]any{
		"credentials":    models.EncodeJSONMap(stored),
		"metadata":       models.EncodeJSONMap(merged),
		"status":         models.CONNECTION_STATUS_ACTIVE,
		"last_synced_at": &now,
	}
	if in.IsPrimary != nil {
		fields["is_primary"] = *in.IsPrimary
	}
	if in.ConnectionName != "" {
		fields["connection_name"] = in.ConnectionName
	}
	if in.Config != nil {
		fields["config"] = models.EncodeJSONMap(in.Config)
	}

	if err := s.repo.Update(orgID, existing.ID, fields); err != nil {
		return nil, err
	}
	return s.repo.GetByID(orgID, existing.ID)
}

// validateRequired checks the catalog schema's required fields against the
// submitted credentials+config. Field-level error, no network call.
func (s *Service) validateRequired(in ConnectInput) error {
	provider, err := s.repo.GetProvider(in.ProviderKey)
	if err != nil {
		return err
	}
	if provider == nil {
		return nil
	}
	for _, field := range provider.RequiredFields() {
		if hasField(in.Credentials, field) || hasField(in.Config, field) {
			continue
		}
		return ValidationError{Field: field}
	}
	return nil
}

func hasField(m map[string]any, key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	return v != nil
}

// findExisting decides whether the install updates an existing row or
// creates a new one. Lookup covers the canonical key AND its legacy aliases,
// so an old install under "evolution" is found (and later migrated) when the
// caller installs "evolution_api". Tenants may hold several connections per
// provider; a new row is only created when nothing matches.
func (s *Service) findExisting(orgID string, in ConnectInput) (*models.Connection, error) {
	if in.ID != "" {
		return s.repo.GetByID(orgID, in.ID)
	}

	keys := append([]string{in.ProviderKey}, models.LegacyProviderAliases[in.ProviderKey]...)
	conns, err := s.repo.FindByOrgAndKeys(orgID, keys...)
	if err != nil {
		return nil, err
	}

	// A legacy-keyed row always wins: updating it (instead of creating a
	// sibling) is what keeps old and new keys from accumulating duplicates.
	for i := range conns {
		if conns[i].ProviderKey != in.ProviderKey {
			return &conns[i], nil
		}
	}

	if in.ConnectionName != "" {
		for i := range conns {
			if conns[i].ConnectionName == in.ConnectionName {
				return &conns[i], nil
			}
		}
		return nil, nil
	}

	// Unnamed single install works like a marketplace upsert.
	if len(conns) == 1 {
		return &conns[0], nil
	}
	return nil, nil
}

func (s *Service) runConnectHook(ctx context.Context, adapter adapters.Adapter, creds, config map[string]any) {
	hook, ok := adapter.(adapters.ConnectHook)
	if !ok {
		return
	}
	if err := hook.OnConnect(ctx, creds, config); err != nil {
		// best-effort: não bloqueia o install
		log.Printf("connections: onConnect hook for %s: %v", adapter.Key(), err)
	}
}

// List returns the tenant's connections, credentials column untouched by the
// caller (json:"-" keeps it out of responses anyway).
func (s *Service) List(orgID string) ([]models.Connection, error) {
	return s.repo.List(orgID)
}

// ListProviders exposes the catalog.
func (s *Service) ListProviders() ([]models.Provider, error) {
	return s.repo.ListProviders()
}

// CheckLiveStatus runs the cheap probe. It never mutates the stored row:
// persisted status only changes through verification and send failures, a
// transient blip here stays display-only.
func (s *Service) CheckLiveStatus(ctx context.Context, orgID, id string) (*adapters.StatusResult, error) {
	conn, err := s.repo.GetByID(orgID, id)
	if err != nil {
		return nil, err
	}

	adapter, ok := s.registry.Get(conn.ProviderKey)
	if !ok {
		return &adapters.StatusResult{Status: adapters.StatusUnknown, Message: "no adapter for " + conn.ProviderKey}, nil
	}
	probe, ok := adapter.(adapters.StatusProbe)
	if !ok {
		return &adapters.StatusResult{Status: adapters.StatusUnknown}, nil
	}

	creds, err := s.decryptCredentials(conn)
	if err != nil {
		return &adapters.StatusResult{Status: models.CONNECTION_STATUS_ERROR, Message: ErrCredentialsUnavailable.Error()}, nil
	}
	return probe.CheckConnectionStatus(ctx, creds), nil
}

// SendText dispatches an outbound text through the connection. A provider
// rejection flips the persisted status to error (active -> error).
func (s *Service) SendText(ctx context.Context, orgID, id, to, text string) (*adapters.SendResult, error) {
	conn, err := s.repo.GetByID(orgID, id)
	if err != nil {
		return nil, err
	}

	adapter, ok := s.registry.Get(conn.ProviderKey)
	if !ok {
		return nil, ErrProviderNotFound
	}
	sender, ok := adapter.(adapters.MessageSender)
	if !ok {
		return nil, ErrSendNotSupported
	}

	creds, err := s.decryptCredentials(conn)
	if err != nil {
		return nil, ErrCredentialsUnavailable
	}

	result, err := sender.SendMessage(ctx, creds, to, text)
	if err != nil {
		if updErr := s.repo.Update(orgID, id, map[string]any{
			"status": models.CONNECTION_STATUS_ERROR,
		}); updErr != nil {
			log.Printf("connections: mark error after failed send: %v", updErr)
		}
		return nil, err
	}
	return result, nil
}

// GetQr fetches a pairing code for QR-based providers. nil result means the
// provider is already paired.
func (s *Service) GetQr(ctx context.Context, orgID, id string) (*adapters.QrResult, error) {
	conn, err := s.repo.GetByID(orgID, id)
	if err != nil {
		return nil, err
	}

	adapter, ok := s.registry.Get(conn.ProviderKey)
	if !ok {
		return nil, ErrProviderNotFound
	}
	qr, ok := adapter.(adapters.QrProvider)
	if !ok {
		return nil, ErrQrNotSupported
	}

	creds, err := s.decryptCredentials(conn)
	if err != nil {
		return nil, ErrCredentialsUnavailable
	}
	return qr.GetQrCode(ctx, creds)
}

// SetPrimary toggles the tenant's primary connection for a provider key.
func (s *Service) SetPrimary(orgID, id string) error {
	return s.repo.SetPrimary(orgID, id)
}

// Delete uninstalls a connection. Soft delete keeps history (marketplace
// connections); hard delete is for simpler channel types. The adapter's
// disconnect hook runs first, best-effort.
func (s *Service) Delete(ctx context.Context, orgID, id string, hard bool) error {
	conn, err := s.repo.GetByID(orgID, id)
	if err != nil {
		return err
	}

	if adapter, ok := s.registry.Get(conn.ProviderKey); ok {
		if hook, ok := adapter.(adapters.DisconnectHook); ok {
			creds, cerr := s.decryptCredentials(conn)
			if cerr == nil {
				if herr := hook.OnDisconnect(ctx, creds, conn.ConfigMap()); herr != nil {
					log.Printf("connections: onDisconnect hook for %s: %v", conn.ProviderKey, herr)
				}
			}
		}
	}

	if hard {
		return s.repo.HardDelete(orgID, id)
	}
	return s.repo.SoftDelete(orgID, id)
}

// decryptCredentials opens the stored envelope. Crypto failures are logged
// here and surfaced generically: raw crypto errors never reach callers.
func (s *Service) decryptCredentials(conn *models.Connection) (map[string]any, error) {
	creds, err := s.envelope.DecryptObject(conn.CredentialsMap())
	if err != nil {
		log.Printf("connections: decrypt error for connection=%s provider=%s: %v", conn.ID, conn.ProviderKey, err)
		return nil, ErrCredentialsUnavailable
	}
	return creds, nil
}
