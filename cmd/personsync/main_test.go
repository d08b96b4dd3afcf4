package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rflorenc/pipedrive-person-sync/internal/config"
)

// executeCommand runs rootCmd with args and returns everything written to
// the command output and the logger.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvCompanyDomain, "")

	opts = options{}
	buf := new(bytes.Buffer)
	log.SetOutput(buf)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		log.SetOutput(os.Stdout)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFixtures(t *testing.T, mappings, input string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	mp := filepath.Join(dir, "mappings.json")
	ip := filepath.Join(dir, "inputData.json")
	require.NoError(t, os.WriteFile(mp, []byte(mappings), 0o600))
	require.NoError(t, os.WriteFile(ip, []byte(input), 0o600))
	return mp, ip
}

const (
	adaMappings = `[{"inputKey":"contact.fullName","pipedriveKey":"name"},{"inputKey":"contact.email","pipedriveKey":"email"}]`
	adaInput    = `{"contact":{"fullName":"Ada Lovelace","email":"ada@example.com"}}`
)

func TestVersionCmd(t *testing.T) {
	original := version
	version = "test-version-1.0.0"
	defer func() { version = original }()

	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "personsync test-version-1.0.0")
}

func TestSyncCmd_DryRun(t *testing.T) {
	mp, ip := writeFixtures(t, adaMappings, adaInput)

	out, err := executeCommand(t, "sync", "--dry-run", "--mapping", mp, "--input", ip)
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Ada Lovelace"`)
	assert.Contains(t, out, `"email": "ada@example.com"`)
}

func TestSyncCmd_MissingCredentials(t *testing.T) {
	mp, ip := writeFixtures(t, adaMappings, adaInput)

	_, err := executeCommand(t, "sync", "--mapping", mp, "--input", ip)
	assert.ErrorIs(t, err, config.ErrMissingCredentials)
}

func TestSyncCmd_UpdatesExisting(t *testing.T) {
	var puts int32
	crm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"success":true,"data":{"items":[{"item":{"id":42}}]}}`))
		case http.MethodPut:
			atomic.AddInt32(&puts, 1)
			assert.Equal(t, "/api/v1/persons/42", r.URL.Path)
			var body map[string]interface{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]interface{}{"name": "Ada Lovelace", "email": "ada@example.com"}, body)
			w.Write([]byte(`{"success":true,"data":{"id":42,"name":"Ada Lovelace"}}`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer crm.Close()

	mp, ip := writeFixtures(t, adaMappings, adaInput)
	out, err := executeCommand(t,
		"--mapping", mp, "--input", ip,
		"--api-key", "k", "--company-domain", "acme", "--base-url", crm.URL+"/api/v1",
	)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&puts))
	assert.Contains(t, out, "Updated existing person.")
	assert.Contains(t, out, "person_id=42")
}

func TestSyncCmd_RemoteFailure(t *testing.T) {
	crm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"error":"unauthorized access"}`))
	}))
	defer crm.Close()

	mp, ip := writeFixtures(t, adaMappings, adaInput)
	_, err := executeCommand(t, "sync",
		"--mapping", mp, "--input", ip,
		"--api-key", "k", "--company-domain", "acme", "--base-url", crm.URL,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
}

func TestSyncCmd_MissingMappingFile(t *testing.T) {
	_, ip := writeFixtures(t, adaMappings, adaInput)

	_, err := executeCommand(t, "sync", "--dry-run", "--mapping", filepath.Join(t.TempDir(), "none.json"), "--input", ip)
	assert.Error(t, err)
}
