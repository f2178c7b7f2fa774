package snapshot_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ghuser/pharmacy/services/pharmacy/domain"
	"github.com/ghuser/pharmacy/services/pharmacy/domain/models"
	"github.com/ghuser/pharmacy/services/pharmacy/infrastructure/persistence/snapshot"
)

func buildCatalog(t *testing.T) *models.Pharmacy {
	t.Helper()
	seq := models.NewIDSequence()
	p, err := models.NewPharmacy(seq, "Main")
	require.NoError(t, err)

	aspirin, err := models.NewMedicine(seq, "Aspirin", 5.5, 50, "2025-12-31")
	require.NoError(t, err)
	_, err = p.AddMedicine(aspirin)
	require.NoError(t, err)
	_, err = aspirin.Sell(10)
	require.NoError(t, err)
	require.NoError(t, aspirin.Restock(20))

	acme, err := models.NewSupplier("Acme", "555-0100")
	require.NoError(t, err)
	_, err = acme.AddSuppliedMedicine("Ibuprofen")
	require.NoError(t, err)
	_, err = p.RegisterSupplier(acme)
	require.NoError(t, err)
	_, err = p.RestockFromSupplier(acme, "Ibuprofen", 12)
	require.NoError(t, err)

	return p
}

func Test_EncodeDecode_RoundTrip(t *testing.T) {
	original := buildCatalog(t)

	data, err := snapshot.Encode(original)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Magic, string(data[:4]))
	assert.Equal(t, snapshot.FormatVersion, data[4])

	restored, err := snapshot.Decode(data, models.NewIDSequenceFrom(50))
	require.NoError(t, err)

	assert.Equal(t, original.Name(), restored.Name())
	require.Len(t, restored.Medicines(), len(original.Medicines()))
	assert.Len(t, restored.Transactions(), len(original.Transactions()))
	for i, m := range restored.Medicines() {
		want := original.Medicines()[i]
		assert.Equal(t, want.ID(), m.ID())
		assert.Equal(t, want.Name(), m.Name())
		assert.Equal(t, want.Price(), m.Price())
		assert.Equal(t, want.Quantity(), m.Quantity())
		assert.Equal(t, want.ExpiryDate(), m.ExpiryDate())
		assert.Len(t, m.Transactions(), len(want.Transactions()))
	}

	ibuprofen, ok := restored.FindByName("Ibuprofen")
	require.True(t, ok)
	acme, ok := restored.Supplier("Acme")
	require.True(t, ok)
	assert.Same(t, acme, ibuprofen.Supplier())
}

func Test_Decode_Rejects(t *testing.T) {
	valid, err := snapshot.Encode(buildCatalog(t))
	require.NoError(t, err)

	badVersion := append([]byte(nil), valid...)
	badVersion[4] = 99

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, snapshot.ErrCorrupt},
		{"wrong magic", []byte("JSON{}"), snapshot.ErrCorrupt},
		{"truncated body", valid[:len(valid)/2], snapshot.ErrCorrupt},
		{"future version", badVersion, snapshot.ErrUnsupportedVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := snapshot.Decode(tt.data, models.NewIDSequence())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func Test_SaveLoadFile_EmptyCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.dat")
	p, err := models.NewPharmacy(models.NewIDSequence(), "Main")
	require.NoError(t, err)

	require.NoError(t, snapshot.SaveToFile(p, path))

	loaded, err := snapshot.LoadFromFile(path, models.NewIDSequence())
	require.NoError(t, err)
	assert.Equal(t, "Main", loaded.Name())
	assert.Empty(t, loaded.Medicines())
}

func Test_SaveToFile_WrongExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	p, err := models.NewPharmacy(models.NewIDSequence(), "Main")
	require.NoError(t, err)

	err = snapshot.SaveToFile(p, path)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.ErrorIs(t, err, domain.ErrPolicy)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "nothing may be written for a rejected path")

	_, err = snapshot.LoadFromFile(path, models.NewIDSequence())
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func Test_LoadFromFile_Missing(t *testing.T) {
	_, err := snapshot.LoadFromFile(filepath.Join(t.TempDir(), "missing.dat"), models.NewIDSequence())
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func Test_Files_CustomExtension(t *testing.T) {
	files := snapshot.NewFiles(".snap")
	dir := t.TempDir()
	p, err := models.NewPharmacy(models.NewIDSequence(), "Main")
	require.NoError(t, err)

	require.NoError(t, files.Save(p, filepath.Join(dir, "main.snap")))
	assert.ErrorIs(t, files.Save(p, filepath.Join(dir, "main.dat")), domain.ErrInvalidArgument)

	assert.Equal(t, snapshot.DefaultExtension, snapshot.NewFiles("").Extension)
}

func Test_RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seq := models.NewIDSequence()
		p, err := models.NewPharmacy(seq, rapid.StringMatching(`[A-Z][a-z]{2,12}`).Draw(t, "pharmacy"))
		if err != nil {
			t.Fatalf("NewPharmacy: %v", err)
		}

		n := rapid.IntRange(0, 8).Draw(t, "medicines")
		for i := 0; i < n; i++ {
			m, err := models.NewMedicine(seq,
				rapid.StringMatching(`[A-Z][a-z]{2,12}`).Draw(t, "name"),
				float64(rapid.IntRange(0, 100_000).Draw(t, "cents"))/100,
				rapid.IntRange(0, 1000).Draw(t, "quantity"),
				rapid.StringMatching(`20[0-9]{2}-(0[1-9]|1[0-2])-(0[1-9]|1[0-9]|2[0-8])`).Draw(t, "expiry"),
			)
			if err != nil {
				t.Fatalf("NewMedicine: %v", err)
			}
			if restock := rapid.IntRange(0, 50).Draw(t, "restock"); restock > 0 {
				if err := m.Restock(restock); err != nil {
					t.Fatalf("Restock: %v", err)
				}
			}
			if _, err := p.AddMedicine(m); err != nil {
				t.Fatalf("AddMedicine: %v", err)
			}
		}

		data, err := snapshot.Encode(p)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		restored, err := snapshot.Decode(data, models.NewIDSequence())
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}

		if restored.Name() != p.Name() || len(restored.Medicines()) != len(p.Medicines()) {
			t.Fatalf("catalog mismatch: %s vs %s", restored, p)
		}
		for i, m := range restored.Medicines() {
			want := p.Medicines()[i]
			if m.Name() != want.Name() || m.Price() != want.Price() || m.Quantity() != want.Quantity() ||
				m.ExpiryDate() != want.ExpiryDate() || len(m.Transactions()) != len(want.Transactions()) {
				t.Fatalf("medicine %d mismatch: %s vs %s", i, m, want)
			}
		}
	})
}
