package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func bankBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/dev/balance":
			_, _ = w.Write([]byte(`{"balance":"1200"}`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func configDirFor(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bank.hcl"), []byte(`
target "bank" {
  baseURL = "`+baseURL+`"
  token   = "good"
}
`), 0o644))
	return dir
}

func TestCheckPrintsOneLinePerResource(t *testing.T) {
	backend := bankBackend(t)
	dir := configDirFor(t, backend.URL+"/dev/")

	out, err := run(t, "check", "bank", "--config-dir", dir)

	require.NoError(t, err)
	assert.Equal(t, "transactions: []\nbalance: {\"balance\":\"1200\"}\nrequests: []\n", out)
}

func TestCheckAnonymousWithExitStatus(t *testing.T) {
	backend := bankBackend(t)
	dir := configDirFor(t, backend.URL+"/dev/")

	out, err := run(t, "check", "--config-dir", dir, "--anonymous", "--exit-with-status")

	assert.ErrorIs(t, err, ErrProbeFailed)
	assert.Equal(t, "transactions: Error: 401\nbalance: Error: 401\nrequests: Error: 401\n", out)
}

func TestCheckFlagsOverrideConfig(t *testing.T) {
	backend := bankBackend(t)
	t.Setenv("AUTHPROBE_CMD_TEST_TOKEN", "good")

	out, err := run(t, "check",
		"--config-dir", filepath.Join(t.TempDir(), "missing"),
		"--base-url", backend.URL+"/dev/",
		"--resources", "balance",
		"--token", "ENV:AUTHPROBE_CMD_TEST_TOKEN",
		"--output", "json",
	)

	require.NoError(t, err)
	assert.JSONEq(t, `[{"resource": "balance", "kind": "success", "payload": {"balance": "1200"}}]`, out)
}

func TestCheckUnknownTarget(t *testing.T) {
	dir := configDirFor(t, "http://127.0.0.1:1/")

	_, err := run(t, "check", "nope", "--config-dir", dir)

	assert.ErrorContains(t, err, `target "nope" not found`)
}

func TestCheckRejectsUnknownOutputFormat(t *testing.T) {
	backend := bankBackend(t)
	dir := configDirFor(t, backend.URL+"/dev/")

	_, err := run(t, "check", "--config-dir", dir, "--output", "yaml")

	assert.ErrorContains(t, err, "unknown output format")
}

func TestDemoProbesWithAndWithoutToken(t *testing.T) {
	backend := bankBackend(t)
	dir := configDirFor(t, backend.URL+"/dev/")

	out, err := run(t, "demo", "--config-dir", dir, "--pause", "1ms")

	require.NoError(t, err)
	parts := strings.Split(out, demoSeparator)
	require.Len(t, parts, 2)
	assert.Equal(t, "transactions: []\nbalance: {\"balance\":\"1200\"}\nrequests: []\n\n\n", parts[0])
	assert.Equal(t, "\n\n\ntransactions: Error: 401\nbalance: Error: 401\nrequests: Error: 401\n", parts[1])
}

func TestTokenInspect(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "user@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("key"))
	require.NoError(t, err)

	out, err := run(t, "token", "inspect", "--token", raw)

	require.NoError(t, err)
	assert.Contains(t, out, "user@example.com")
	assert.Contains(t, out, "token valid until")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "authprobe, version"))
}
