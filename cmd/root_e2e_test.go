package cmd_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// testBinaryName is the name of the test binary for E2E tests.
	testBinaryName = "net-request-test"
)

// TestMain builds the binary before running E2E tests.
func TestMain(m *testing.M) {
	// Build the binary for testing.
	//nolint:noctx // TestMain doesn't have access to context, and build is needed before tests run.
	buildCmd := exec.Command("go", "build", "-o", testBinaryName, "../.")
	if err := buildCmd.Run(); err != nil {
		os.Exit(1)
	}

	// Run tests.
	code := m.Run()

	// Cleanup.
	_ = os.Remove(testBinaryName)

	os.Exit(code)
}

// writeTestConfig writes a config file whose data directory lives in a temporary folder.
func writeTestConfig(t *testing.T, extra string) string {
	t.Helper()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("log_level: error\ndata_dir: %q\ndefault_partition: \"persist:e2e\"\n%s",
		filepath.Join(dir, "data"), extra)

	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	return configPath
}

// run executes the test binary and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	//nolint:gosec,noctx // Test binary name is a constant, not user input. No context available in test.
	cmd := exec.Command("./"+testBinaryName, args...)
	cmd.Env = append(os.Environ(), "HTTP_PROXY=", "HTTPS_PROXY=", "http_proxy=", "https_proxy=")

	output, err := cmd.Output()

	return string(output), err
}

// TestE2E_Version tests the --version flag.
func TestE2E_Version(t *testing.T) {
	t.Parallel()

	output, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, output, "version:")
	assert.Contains(t, output, "commit:")
}

// TestE2E_FetchWithCookies tests that cookies stored with the cookies command are sent by a fetch.
func TestE2E_FetchWithCookies(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, "%s %s cookie=%s", r.Method, r.URL.Path, r.Header.Get("Cookie"))
	}))
	defer server.Close()

	configPath := writeTestConfig(t, "global_options:\n  proxy: direct\n")

	_, err := run(t, "--config", configPath, "cookies", "set", server.URL, "session=abc")
	require.NoError(t, err)

	listed, err := run(t, "--config", configPath, "cookies", "list", server.URL)
	require.NoError(t, err)
	assert.Equal(t, "session=abc\n", listed)

	output, err := run(t, "--config", configPath, "-X", "PUT", server.URL+"/items")
	require.NoError(t, err)
	assert.Equal(t, "PUT /items cookie=session=abc; ", output)
}

// TestE2E_Defaults tests editing default options through the CLI.
func TestE2E_Defaults(t *testing.T) {
	t.Parallel()

	configPath := writeTestConfig(t, "")

	_, err := run(t, "--config", configPath, "defaults", "set", "redirect", "manual")
	require.NoError(t, err)

	listed, err := run(t, "--config", configPath, "defaults", "list")
	require.NoError(t, err)
	assert.Equal(t, "redirect=manual\n", listed)

	_, err = run(t, "--config", configPath, "defaults", "set", "redirect", "sometimes")
	require.Error(t, err)
}

// TestE2E_InvalidValues tests that invalid flag values stop the program.
func TestE2E_InvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{name: "invalid log level", args: []string{"--log-level", "loud", "https://example.com"}},
		{name: "invalid header", args: []string{"-H", "broken", "https://example.com"}},
		{name: "unsupported url", args: []string{"ftp://example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			configPath := writeTestConfig(t, "")

			output, err := run(t, append([]string{"--config", configPath}, tt.args...)...)
			require.Error(t, err)
			assert.Empty(t, strings.TrimSpace(output))
		})
	}
}
