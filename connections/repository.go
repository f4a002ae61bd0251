package connections

import (
	"time"

	"conecta/models"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
)

// protectedFields never reach storage through Update. provider_key only
// changes through MigrateProviderKey.
var protectedFields = []string{"id", "organization_id", "created_at", "provider_key"}

// Repository is the only writer of connection rows. Every operation takes the
// organization id: that is the tenant isolation boundary, sem exceção.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns the tenant's connections, soft-deleted rows excluded.
func (r *Repository) List(orgID string) ([]models.Connection, error) {
	var conns []models.Connection
	err := r.db.
		Where("organization_id = ?", orgID).
		Where("status <> ?", models.CONNECTION_STATUS_DELETED).
		Order("created_at asc, id asc").
		Find(&conns).Error
	return conns, err
}

// GetByID fetches one connection scoped to the tenant.
func (r *Repository) GetByID(orgID, id string) (*models.Connection, error) {
	var conn models.Connection
	err := r.db.Where("organization_id = ? AND id = ?", orgID, id).First(&conn).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, ErrConnectionNotFound
		}
		return nil, err
	}
	return &conn, nil
}

// FindByOrgAndKeys returns the tenant's non-deleted connections stored under
// any of the given provider keys (canonical + legacy aliases).
func (r *Repository) FindByOrgAndKeys(orgID string, keys ...string) ([]models.Connection, error) {
	var conns []models.Connection
	err := r.db.
		Where("organization_id = ?", orgID).
		Where("provider_key IN (?)", keys).
		Where("status <> ?", models.CONNECTION_STATUS_DELETED).
		Order("created_at asc, id asc").
		Find(&conns).Error
	return conns, err
}

// GetProvider fetches a catalog entry by key. Missing entries are not an
// error: the catalog is optional for a provider that already has an adapter.
func (r *Repository) GetProvider(key string) (*models.Provider, error) {
	var p models.Provider
	err := r.db.Where("key = ?", key).First(&p).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ListProviders returns the full catalog.
func (r *Repository) ListProviders() ([]models.Provider, error) {
	var ps []models.Provider
	err := r.db.Order("key asc").Find(&ps).Error
	return ps, err
}

// Insert persists a new connection. When the row is primary, siblings under
// the same (organization, provider key) are cleared first, in one
// transaction, so no two primaries are ever visible.
func (r *Repository) Insert(conn *models.Connection) error {
	if conn.ID == "" {
		conn.ID = uuid.NewString()
	}
	now := time.Now()
	conn.CreatedAt = &now
	conn.UpdatedAt = &now

	tx := r.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if conn.IsPrimary {
		if err := clearPrimaries(tx, conn.OrganizationID, conn.ProviderKey, conn.ID); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Create(conn).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// Update applies a partial update, tenant-scoped. Immutable fields are
// stripped before the write. Setting is_primary=true clears siblings in the
// same transaction.
func (r *Repository) Update(orgID, id string, fields map[string]any) error {
	for _, f := range protectedFields {
		delete(fields, f)
	}
	if len(fields) == 0 {
		return nil
	}
	now := time.Now()
	fields["updated_at"] = &now

	tx := r.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	var conn models.Connection
	if err := tx.Where("organization_id = ? AND id = ?", orgID, id).First(&conn).Error; err != nil {
		tx.Rollback()
		if gorm.IsRecordNotFoundError(err) {
			return ErrConnectionNotFound
		}
		return err
	}

	if wantPrimary, ok := fields["is_primary"].(bool); ok && wantPrimary {
		if err := clearPrimaries(tx, orgID, conn.ProviderKey, id); err != nil {
			tx.Rollback()
			return err
		}
	}

	res := tx.Model(&models.Connection{}).
		Where("organization_id = ? AND id = ?", orgID, id).
		Updates(fields)
	if res.Error != nil {
		tx.Rollback()
		return res.Error
	}
	return tx.Commit().Error
}

// SetPrimary makes the connection the tenant's primary for its provider key.
// Clear-then-set runs inside one transaction (invariante: no máximo um
// primário por (organization, provider key)).
func (r *Repository) SetPrimary(orgID, id string) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	var conn models.Connection
	if err := tx.Where("organization_id = ? AND id = ?", orgID, id).First(&conn).Error; err != nil {
		tx.Rollback()
		if gorm.IsRecordNotFoundError(err) {
			return ErrConnectionNotFound
		}
		return err
	}

	if err := clearPrimaries(tx, orgID, conn.ProviderKey, id); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Model(&models.Connection{}).
		Where("organization_id = ? AND id = ?", orgID, id).
		Update("is_primary", true).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func clearPrimaries(tx *gorm.DB, orgID, providerKey, exceptID string) error {
	return tx.Model(&models.Connection{}).
		Where("organization_id = ? AND provider_key = ? AND id <> ?", orgID, providerKey, exceptID).
		Where("is_primary = ?", true).
		Update("is_primary", false).Error
}

// MigrateProviderKey rewrites a legacy provider key to its canonical form.
// This is the only path that may change provider_key after creation.
func (r *Repository) MigrateProviderKey(orgID, id, canonicalKey string) error {
	res := r.db.Model(&models.Connection{}).
		Where("organization_id = ? AND id = ?", orgID, id).
		Update("provider_key", canonicalKey)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConnectionNotFound
	}
	return nil
}

// SoftDelete marks the row deleted, preserving history. Primário deletado
// deixa de ser primário.
func (r *Repository) SoftDelete(orgID, id string) error {
	res := r.db.Model(&models.Connection{}).
		Where("organization_id = ? AND id = ?", orgID, id).
		Updates(map[string]any{
			"status":     models.CONNECTION_STATUS_DELETED,
			"is_primary": false,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConnectionNotFound
	}
	return nil
}

// HardDelete removes the row physically. Used by simpler channel types that
// keep no history.
func (r *Repository) HardDelete(orgID, id string) error {
	res := r.db.
		Where("organization_id = ? AND id = ?", orgID, id).
		Delete(&models.Connection{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConnectionNotFound
	}
	return nil
}
