package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initTestConfig(t *testing.T, contents string) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), ".zapctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	InitConfig(path)
	return path
}

func TestInitConfigDefaults(t *testing.T) {
	initTestConfig(t, "")

	assert.Equal(t, "http://localhost:7001", BaseURL())
	assert.Equal(t, "table", Output())
	assert.Empty(t, APIKey())
	assert.Empty(t, Token())
	assert.Empty(t, Session())
}

func TestInitConfigReadsFile(t *testing.T) {
	path := initTestConfig(t, "base_url: https://gw.example.com\napi_key: zk_live_a1b2c3d4e5f6g7h8\nsession: support\n")

	assert.Equal(t, "https://gw.example.com", BaseURL())
	assert.Equal(t, "zk_live_a1b2c3d4e5f6g7h8", APIKey())
	assert.Equal(t, "support", Session())
	assert.Equal(t, path, Path())
}

func TestInitConfigEnvOverride(t *testing.T) {
	t.Setenv("ZAPCTL_BASE_URL", "https://env.example.com")
	initTestConfig(t, "base_url: https://file.example.com\n")

	assert.Equal(t, "https://env.example.com", BaseURL(), "environment outranks the file")
}

func TestSetPersists(t *testing.T) {
	path := initTestConfig(t, "output: table\n")

	require.NoError(t, Set(KeySession, "support"))
	assert.Equal(t, "support", Get(KeySession))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "session: support")
}

func TestInitWritesOnceOnly(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), ".zapctl.yaml")
	InitConfig(path)

	got, created, err := Init()
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, path, got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "base_url:")
	assert.Contains(t, string(raw), "output: table")

	// The second call must refuse to clobber the file.
	_, created, err = Init()
	require.NoError(t, err)
	assert.False(t, created)
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Equal(t, []string{"api_key", "base_url", "output", "session", "token"}, keys, "sorted for stable help output")

	assert.True(t, IsKnownKey("api_key"))
	assert.True(t, IsKnownKey("base_url"))
	assert.False(t, IsKnownKey("apikey"))
	assert.False(t, IsKnownKey(""))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "zk_l...g7h8", Redact(KeyAPIKey, "zk_live_a1b2c3d4e5f6g7h8"))
	assert.Equal(t, "********", Redact(KeyToken, "12345678"), "short secrets fully masked")
	assert.Equal(t, "", Redact(KeyAPIKey, ""))
	assert.Equal(t, "https://gw.example.com", Redact(KeyBaseURL, "https://gw.example.com"), "non-secrets untouched")
	assert.Equal(t, "support", Redact(KeySession, "support"))
}
