package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/pharmacy/services/pharmacy/domain"
	"github.com/ghuser/pharmacy/services/pharmacy/domain/models"
	"github.com/ghuser/pharmacy/services/pharmacy/infrastructure/persistence/sqlite"
)

func openRepo(t *testing.T) *sqlite.PharmacyRepository {
	t.Helper()
	repo, err := sqlite.Open(filepath.Join(t.TempDir(), "nested", "pharmacy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func newCatalog(t *testing.T, name string, medicines ...string) *models.Pharmacy {
	t.Helper()
	seq := models.NewIDSequence()
	p, err := models.NewPharmacy(seq, name)
	require.NoError(t, err)
	for _, m := range medicines {
		med, err := models.NewMedicine(seq, m, 2.5, 10, "2026-01-31")
		require.NoError(t, err)
		_, err = p.AddMedicine(med)
		require.NoError(t, err)
	}
	return p
}

func TestPharmacyRepository_SaveLoad(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)

	require.NoError(t, repo.Save(ctx, newCatalog(t, "Main", "Aspirin", "Ibuprofen")))

	got, err := repo.Load(ctx, "main", models.NewIDSequence())
	require.NoError(t, err)
	assert.Equal(t, "Main", got.Name())
	require.Len(t, got.Medicines(), 2)
	assert.Equal(t, "Aspirin", got.Medicines()[0].Name())
	assert.Equal(t, 10, got.Medicines()[1].Quantity())
}

func TestPharmacyRepository_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)

	require.NoError(t, repo.Save(ctx, newCatalog(t, "Main", "Aspirin")))
	require.NoError(t, repo.Save(ctx, newCatalog(t, "MAIN", "Aspirin", "Codeine", "Ibuprofen")))

	names, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"MAIN"}, names)

	got, err := repo.Load(ctx, "Main", models.NewIDSequence())
	require.NoError(t, err)
	assert.Len(t, got.Medicines(), 3)
}

func TestPharmacyRepository_ExistsDeleteList(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)

	ok, err := repo.Exists(ctx, "Main")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Save(ctx, newCatalog(t, "Main")))
	require.NoError(t, repo.Save(ctx, newCatalog(t, "Branch")))

	ok, err = repo.Exists(ctx, "MAIN")
	require.NoError(t, err)
	assert.True(t, ok)

	names, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Branch", "Main"}, names)

	require.NoError(t, repo.Delete(ctx, "main"))
	err = repo.Delete(ctx, "main")
	assert.True(t, errors.Is(err, domain.ErrSnapshotNotFound))

	names, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Branch"}, names)
}

func TestPharmacyRepository_LoadMissing(t *testing.T) {
	repo := openRepo(t)
	_, err := repo.Load(context.Background(), "Nowhere", models.NewIDSequence())
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestPharmacyRepository_SchemaVersion(t *testing.T) {
	repo := openRepo(t)
	require.NoError(t, repo.Ping(context.Background()))
	v, err := repo.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestPharmacyRepository_SaveNil(t *testing.T) {
	repo := openRepo(t)
	assert.ErrorIs(t, repo.Save(context.Background(), nil), domain.ErrValidation)
}
