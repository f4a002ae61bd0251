package connections

import (
	"path/filepath"
	"testing"

	"conecta/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.AutoMigrate(&models.Connection{}, &models.Provider{}).Error)
	return db
}

func newConn(org, provider, name string, primary bool) *models.Connection {
	return &models.Connection{
		OrganizationID: org,
		ProviderKey:    provider,
		ConnectionName: name,
		Status:         models.CONNECTION_STATUS_ACTIVE,
		Credentials:    `{"_encrypted":"a:b:c"}`,
		IsPrimary:      primary,
	}
}

func TestRepository_InsertAndGet(t *testing.T) {
	repo := NewRepository(setupDB(t))

	conn := newConn("org-a", "meta_whatsapp", "principal", false)
	require.NoError(t, repo.Insert(conn))
	assert.NotEmpty(t, conn.ID)
	assert.NotNil(t, conn.CreatedAt)

	got, err := repo.GetByID("org-a", conn.ID)
	require.NoError(t, err)
	assert.Equal(t, "meta_whatsapp", got.ProviderKey)
}

func TestRepository_TenantIsolation(t *testing.T) {
	repo := NewRepository(setupDB(t))

	a := newConn("org-a", "meta_whatsapp", "", false)
	b := newConn("org-b", "meta_whatsapp", "", false)
	require.NoError(t, repo.Insert(a))
	require.NoError(t, repo.Insert(b))

	// leitura não atravessa o tenant
	listA, err := repo.List("org-a")
	require.NoError(t, err)
	require.Len(t, listA, 1)
	assert.Equal(t, "org-a", listA[0].OrganizationID)

	_, err = repo.GetByID("org-a", b.ID)
	assert.ErrorIs(t, err, ErrConnectionNotFound)

	// escrita também não
	err = repo.Update("org-a", b.ID, map[string]any{"connection_name": "hijack"})
	assert.ErrorIs(t, err, ErrConnectionNotFound)

	err = repo.SoftDelete("org-a", b.ID)
	assert.ErrorIs(t, err, ErrConnectionNotFound)

	err = repo.HardDelete("org-a", b.ID)
	assert.ErrorIs(t, err, ErrConnectionNotFound)

	got, err := repo.GetByID("org-b", b.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.ConnectionName)
}

func countPrimaries(t *testing.T, repo *Repository, org, provider string) int {
	t.Helper()
	conns, err := repo.FindByOrgAndKeys(org, provider)
	require.NoError(t, err)
	n := 0
	for _, c := range conns {
		if c.IsPrimary {
			n++
		}
	}
	return n
}

func TestRepository_PrimaryExclusivity_Insert(t *testing.T) {
	repo := NewRepository(setupDB(t))

	first := newConn("org-a", "meta_whatsapp", "um", true)
	require.NoError(t, repo.Insert(first))

	second := newConn("org-a", "meta_whatsapp", "dois", true)
	require.NoError(t, repo.Insert(second))

	assert.Equal(t, 1, countPrimaries(t, repo, "org-a", "meta_whatsapp"))

	old, err := repo.GetByID("org-a", first.ID)
	require.NoError(t, err)
	assert.False(t, old.IsPrimary)

	current, err := repo.GetByID("org-a", second.ID)
	require.NoError(t, err)
	assert.True(t, current.IsPrimary)
}

func TestRepository_PrimaryExclusivity_SetPrimary(t *testing.T) {
	repo := NewRepository(setupDB(t))

	first := newConn("org-a", "evolution_api", "um", true)
	second := newConn("org-a", "evolution_api", "dois", false)
	// primário de outro provider não pode ser afetado
	other := newConn("org-a", "meta_whatsapp", "", true)
	require.NoError(t, repo.Insert(first))
	require.NoError(t, repo.Insert(second))
	require.NoError(t, repo.Insert(other))

	require.NoError(t, repo.SetPrimary("org-a", second.ID))

	assert.Equal(t, 1, countPrimaries(t, repo, "org-a", "evolution_api"))
	assert.Equal(t, 1, countPrimaries(t, repo, "org-a", "meta_whatsapp"))

	current, err := repo.GetByID("org-a", second.ID)
	require.NoError(t, err)
	assert.True(t, current.IsPrimary)
}

func TestRepository_PrimaryExclusivity_AcrossTenants(t *testing.T) {
	repo := NewRepository(setupDB(t))

	a := newConn("org-a", "meta_whatsapp", "", true)
	b := newConn("org-b", "meta_whatsapp", "", true)
	require.NoError(t, repo.Insert(a))
	require.NoError(t, repo.Insert(b))

	// cada tenant mantém o seu primário
	assert.Equal(t, 1, countPrimaries(t, repo, "org-a", "meta_whatsapp"))
	assert.Equal(t, 1, countPrimaries(t, repo, "org-b", "meta_whatsapp"))
}

func TestRepository_UpdateStripsProtectedFields(t *testing.T) {
	repo := NewRepository(setupDB(t))

	conn := newConn("org-a", "meta_whatsapp", "antes", false)
	require.NoError(t, repo.Insert(conn))

	err := repo.Update("org-a", conn.ID, map[string]any{
		"id":              "novo-id",
		"organization_id": "org-b",
		"provider_key":    "outra",
		"created_at":      nil,
		"connection_name": "depois",
	})
	require.NoError(t, err)

	got, err := repo.GetByID("org-a", conn.ID)
	require.NoError(t, err)
	assert.Equal(t, "depois", got.ConnectionName)
	assert.Equal(t, "org-a", got.OrganizationID)
	assert.Equal(t, "meta_whatsapp", got.ProviderKey)
}

func TestRepository_UpdateSetPrimaryClearsSiblings(t *testing.T) {
	repo := NewRepository(setupDB(t))

	first := newConn("org-a", "meta_whatsapp", "um", true)
	second := newConn("org-a", "meta_whatsapp", "dois", false)
	require.NoError(t, repo.Insert(first))
	require.NoError(t, repo.Insert(second))

	require.NoError(t, repo.Update("org-a", second.ID, map[string]any{"is_primary": true}))

	assert.Equal(t, 1, countPrimaries(t, repo, "org-a", "meta_whatsapp"))
	current, err := repo.GetByID("org-a", second.ID)
	require.NoError(t, err)
	assert.True(t, current.IsPrimary)
}

func TestRepository_MigrateProviderKey(t *testing.T) {
	repo := NewRepository(setupDB(t))

	conn := newConn("org-a", "evolution", "", false)
	require.NoError(t, repo.Insert(conn))

	require.NoError(t, repo.MigrateProviderKey("org-a", conn.ID, "evolution_api"))

	got, err := repo.GetByID("org-a", conn.ID)
	require.NoError(t, err)
	assert.Equal(t, "evolution_api", got.ProviderKey)
}

func TestRepository_SoftDelete(t *testing.T) {
	repo := NewRepository(setupDB(t))

	conn := newConn("org-a", "meta_whatsapp", "", true)
	require.NoError(t, repo.Insert(conn))
	require.NoError(t, repo.SoftDelete("org-a", conn.ID))

	// some da listagem, mas a linha continua lá pra auditoria
	list, err := repo.List("org-a")
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := repo.GetByID("org-a", conn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CONNECTION_STATUS_DELETED, got.Status)
	assert.False(t, got.IsPrimary)
}

func TestRepository_HardDelete(t *testing.T) {
	repo := NewRepository(setupDB(t))

	conn := newConn("org-a", "generic_sms", "", false)
	require.NoError(t, repo.Insert(conn))
	require.NoError(t, repo.HardDelete("org-a", conn.ID))

	_, err := repo.GetByID("org-a", conn.ID)
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestRepository_FindByOrgAndKeys(t *testing.T) {
	repo := NewRepository(setupDB(t))

	legacy := newConn("org-a", "evolution", "", false)
	canonical := newConn("org-a", "evolution_api", "", false)
	unrelated := newConn("org-a", "meta_whatsapp", "", false)
	require.NoError(t, repo.Insert(legacy))
	require.NoError(t, repo.Insert(canonical))
	require.NoError(t, repo.Insert(unrelated))

	conns, err := repo.FindByOrgAndKeys("org-a", "evolution_api", "evolution")
	require.NoError(t, err)
	assert.Len(t, conns, 2)
}
