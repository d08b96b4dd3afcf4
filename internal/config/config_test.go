package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvCompanyDomain, "")

	c, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.Listen)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "mappings/mappings.json", c.MappingFile)
	assert.Equal(t, time.Duration(0), c.Timeout)
	assert.ErrorIs(t, c.Validate(), ErrMissingCredentials)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", `
api_key: from-file
company_domain: acme
mapping_file: m.yaml
timeout: 5s
rate_limit: 2
`)
	t.Setenv(EnvAPIKey, "from-env")
	t.Setenv(EnvCompanyDomain, "")

	c, err := Load(cfgPath, "")
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.APIKey)
	assert.Equal(t, "acme", c.CompanyDomain)
	assert.Equal(t, "m.yaml", c.MappingFile)
	assert.Equal(t, 5*time.Second, c.Timeout)
	assert.Equal(t, 2.0, c.RateLimit)
	assert.NoError(t, c.Validate())
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "PIPEDRIVE_API_KEY=dotenv-key\nPIPEDRIVE_COMPANY_DOMAIN=dotenv-co\n")
	// Registered with t.Setenv so the values godotenv sets are restored.
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvCompanyDomain, "")
	os.Unsetenv(EnvAPIKey)
	os.Unsetenv(EnvCompanyDomain)

	c, err := Load("", envPath)
	require.NoError(t, err)
	assert.Equal(t, "dotenv-key", c.APIKey)
	assert.Equal(t, "dotenv-co", c.CompanyDomain)
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), ".env"))
	assert.NoError(t, err)
}

func TestLoad_BadConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.Error(t, err)

	bad := writeFile(t, t.TempDir(), "bad.yaml", "api_key: [unterminated")
	_, err = Load(bad, "")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{"both set", &Config{APIKey: "k", CompanyDomain: "d"}, false},
		{"no key", &Config{CompanyDomain: "d"}, true},
		{"no domain", &Config{APIKey: "k"}, true},
		{"nil", nil, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrMissingCredentials)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAPIBaseURL(t *testing.T) {
	c := &Config{CompanyDomain: "acme"}
	assert.Equal(t, "https://acme.pipedrive.com/api/v1", c.APIBaseURL())

	c.BaseURL = "http://127.0.0.1:9000/api/v1/"
	assert.Equal(t, "http://127.0.0.1:9000/api/v1", c.APIBaseURL())
}
