package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 45*time.Second, cfg.Budget.SoftWarning())
	assert.Equal(t, 55*time.Second, cfg.Budget.HardWarning())
	assert.Equal(t, 60*time.Second, cfg.Budget.HardStop())
	assert.True(t, cfg.InferFromSpeech)
	assert.True(t, cfg.LocalAudio)
}

func TestValidateMissingCredentials(t *testing.T) {
	cfg := Default()

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCredentials)

	cfg.APIKey = "key"
	assert.ErrorIs(t, cfg.Validate(), ErrMissingCredentials)

	cfg.ReplicaID = "r-1"
	assert.NoError(t, cfg.Validate())
}

func TestValidateBudgetOrdering(t *testing.T) {
	cfg := Default()
	cfg.APIKey = "key"
	cfg.ReplicaID = "r-1"

	cfg.Budget.SoftWarningSeconds = 90
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.APIKey = "key"
	cfg.ReplicaID = "r-1"
	cfg.Budget.HardStopSeconds = 0
	assert.Error(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shelftalk.yaml")
	content := `api_key: file-key
replica_id: r-file
local_video: false
budget:
  soft_warning_seconds: 30
  hard_warning_seconds: 40
  hard_stop_seconds: 45
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.APIKey)
	assert.Equal(t, "r-file", cfg.ReplicaID)
	assert.False(t, cfg.LocalVideo)
	assert.Equal(t, 45*time.Second, cfg.Budget.HardStop())
	// Untouched fields keep their defaults.
	assert.True(t, cfg.LocalAudio)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shelftalk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_key: file-key\n"), 0o600))

	t.Setenv("SHELFTALK_API_KEY", "env-key")
	t.Setenv("SHELFTALK_REPLICA_ID", "r-env")
	t.Setenv("SHELFTALK_HARD_STOP_SECONDS", "120")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "r-env", cfg.ReplicaID)
	assert.Equal(t, 120, cfg.Budget.HardStopSeconds)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
