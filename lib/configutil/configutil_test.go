package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl   string  `json:"base_url"`
	Threshold float64 `json:"threshold"`
	Retries   int     `json:"retries"`
}

func writeFile(t testing.TB, path, contents string) {
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "rapthor.json5"), `{
		// portal
		base_url: "https://portal.example",
		threshold: 850,
	}`)
	writeFile(t, filepath.Join(dir, "rapthor.local.json5"), `{ threshold: 900 }`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "rapthor.json5"))
	require.NoError(t, err)
	require.Equal(t, "https://portal.example", cfg.BaseUrl)
	require.Equal(t, 900.0, cfg.Threshold)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "rapthor.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestReadConfigWithDefaults(t *testing.T) {
	defaults := testConfig{BaseUrl: "https://default.example", Threshold: 850, Retries: 2}

	cfg, err := ReadConfigWithDefaults(filepath.Join(t.TempDir(), "missing.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, defaults, cfg)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "rapthor.json5"), `{ retries: 5 }`)
	cfg, err = ReadConfigWithDefaults(filepath.Join(dir, "rapthor.json5"), defaults)
	require.NoError(t, err)
	require.Equal(t, "https://default.example", cfg.BaseUrl)
	require.Equal(t, 5, cfg.Retries)
}

func TestGetenv(t *testing.T) {
	t.Setenv("RAPTHOR_TEST_VALUE", "set")
	require.Equal(t, "set", Getenv("RAPTHOR_TEST_VALUE", "fallback"))
	require.Equal(t, "fallback", Getenv("RAPTHOR_TEST_UNSET_VALUE", "fallback"))
}
