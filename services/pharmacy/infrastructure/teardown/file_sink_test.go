package teardown_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/pharmacy/pkg/logger"
	"github.com/ghuser/pharmacy/services/pharmacy/domain/models"
	"github.com/ghuser/pharmacy/services/pharmacy/infrastructure/teardown"
)

func TestFileSink_AppendsOneLinePerEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medicine_deleted.log")
	sink := teardown.NewFileSink(path)
	assert.Equal(t, path, sink.Path())

	seq := models.NewIDSequence()
	m, err := models.NewMedicine(seq, "Aspirin", 5, 50, "2025-12-31")
	require.NoError(t, err)
	m.Close(sink)
	m.Close(sink)

	require.NoError(t, sink.Record("medicine deleted", "name", "Codeine", "id", 2))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `msg="medicine deleted"`)
	assert.Contains(t, lines[0], "name=Aspirin")
	assert.Contains(t, lines[0], "id=1")
	assert.Contains(t, lines[1], "name=Codeine")
}

func TestFileSink_UnwritablePath(t *testing.T) {
	sink := teardown.NewFileSink(filepath.Join(t.TempDir(), "missing", "x.log"))
	assert.Error(t, sink.Record("pharmacy deleted"))
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := teardown.NewLogSink(logger.NewWithWriter(&buf, "info"))
	require.NoError(t, sink.Record("pharmacy deleted", "name", "Main", "medicines", 3))
	assert.Contains(t, buf.String(), "pharmacy deleted")
	assert.Contains(t, buf.String(), `"medicines":3`)
}

func TestMulti_CallsEverySink(t *testing.T) {
	var calls []string
	failing := models.TeardownFunc(func(event string, _ ...any) error {
		calls = append(calls, "failing:"+event)
		return errors.New("disk full")
	})
	ok := models.TeardownFunc(func(event string, _ ...any) error {
		calls = append(calls, "ok:"+event)
		return nil
	})

	err := teardown.Multi{failing, nil, ok}.Record("medicine deleted")
	assert.EqualError(t, err, "disk full")
	assert.Equal(t, []string{"failing:medicine deleted", "ok:medicine deleted"}, calls)
}
