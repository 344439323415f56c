package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_Local(t *testing.T) {
	log, closer, err := Setup(EnvLocal, "")
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.NoError(t, closer.Close())
}

func TestSetup_ProdWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatgate.log")

	log, closer, err := Setup(EnvProd, path)
	require.NoError(t, err)

	log.Debug("hidden at info level")
	log.Info("ledger started", "port", 8080)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"ledger started"`)
	assert.NotContains(t, string(data), "hidden at info level")
}

func TestSetup_InvalidEnv(t *testing.T) {
	_, _, err := Setup("staging", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid environment")
}
