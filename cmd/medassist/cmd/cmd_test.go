package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jrsteele09/medassist-client/internal/backendfake"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const (
	testEmail    = "ann@example.com"
	testPassword = "Secret123"
)

type testFixture struct {
	backend *backendfake.Backend
	config  string
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	backend := backendfake.New()
	baseURL := backend.Start(t)
	_, err := backend.AddUser(testEmail, testPassword, map[string]any{"first_name": "Ann", "last_name": "Lee"})
	require.NoError(t, err)

	dir := t.TempDir()
	cfg := fmt.Sprintf(`env: TEST
log_level: error
api:
  base_url: %s
store:
  backend: sqlite
  sqlite_path: %s
`, baseURL, filepath.Join(dir, "credentials.db"))
	path := filepath.Join(dir, "medassist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return &testFixture{backend: backend, config: path}
}

// run executes the CLI with fresh flag state and returns stdout.
func (f *testFixture) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--config", f.config}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags() {
	cfgFile, outputFormat, traceSpans = "", formatJSON, false
	loginEmail, loginPassword, loginPasswordStdin = "", "", false
	registerEmail, registerPassword, registerFirstName, registerLastName, registerData = "", "", "", "", ""
	callParams, callFilters, callData = nil, nil, ""
}

func decodeJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestCLI_SessionLifecycle(t *testing.T) {
	f := setupTestFixture(t)

	out, err := f.run(t, "", "login", "--email", testEmail, "--password", testPassword)
	require.NoError(t, err)
	require.Equal(t, testEmail, decodeJSON(t, out)["email"])

	out, err = f.run(t, "", "whoami")
	require.NoError(t, err)
	require.Equal(t, "Ann", decodeJSON(t, out)["first_name"])

	out, err = f.run(t, "", "status")
	require.NoError(t, err)
	status := decodeJSON(t, out)
	access := status["access_token"].(map[string]any)
	require.Equal(t, true, access["present"])
	require.Equal(t, "1", access["subject"])
	require.Equal(t, false, access["expired"])
	require.Equal(t, "sqlite", status["store"])
	refresh := status["refresh_token"].(map[string]any)
	require.Equal(t, true, refresh["present"])
	require.NotContains(t, out, "access_token\": \"ey")

	out, err = f.run(t, "", "call", "dashboard.get")
	require.NoError(t, err)
	echo := decodeJSON(t, out)
	require.Equal(t, "GET", echo["method"])
	require.Equal(t, "/api/dashboard/", echo["path"])

	_, err = f.run(t, "", "logout")
	require.NoError(t, err)

	_, err = f.run(t, "", "whoami")
	require.EqualError(t, err, "not signed in")
}

func TestCLI_LoginPasswordFromStdin(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.run(t, testPassword+"\n", "login", "--email", testEmail, "--password-stdin")
	require.NoError(t, err)
}

func TestCLI_LoginRequiresPassword(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.run(t, "", "login", "--email", testEmail)
	require.EqualError(t, err, "--password or --password-stdin is required")
}

func TestCLI_LoginFailureShowsBackendMessage(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.run(t, "", "login", "--email", testEmail, "--password", "wrong")
	require.EqualError(t, err, "No active account found with the given credentials")
}

func TestCLI_CallWithParamsFiltersAndBody(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.run(t, "", "login", "--email", testEmail, "--password", testPassword)
	require.NoError(t, err)

	out, err := f.run(t, "", "call", "appointments.list", "--filter", "status=scheduled")
	require.NoError(t, err)
	require.Equal(t, "status=scheduled", decodeJSON(t, out)["query"])

	out, err = f.run(t, "", "call", "appointments.cancel", "--param", "id=12", "--data", `{"status":"cancelled"}`, "-o", "yaml")
	require.NoError(t, err)
	var echo map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &echo))
	require.Equal(t, "PATCH", echo["method"])
	require.Equal(t, "/api/appointments/12/", echo["path"])
	require.Equal(t, map[string]any{"status": "cancelled"}, echo["body"])
}

func TestCLI_CallRejectsBadInput(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.run(t, "", "call", "nope.nothing")
	require.Error(t, err)

	_, err = f.run(t, "", "call", "appointments.get")
	require.ErrorContains(t, err, "id")

	_, err = f.run(t, "", "call", "appointments.get", "--param", "id")
	require.ErrorContains(t, err, "expected key=value")

	_, err = f.run(t, "", "call", "dashboard.get", "--data", "{not json")
	require.ErrorContains(t, err, "--data must be valid JSON")

	// nothing reached the backend
	require.Zero(t, f.backend.Hits("GET", "/api/appointments/"))
}

func TestCLI_RegisterMergesData(t *testing.T) {
	f := setupTestFixture(t)

	out, err := f.run(t, "", "register",
		"--email", "bob@example.com", "--password", "Passw0rdX",
		"--first-name", "Bob", "--data", `{"user_type":"patient"}`)
	require.NoError(t, err)
	user := decodeJSON(t, out)
	require.Equal(t, "bob@example.com", user["email"])
	require.Equal(t, "patient", user["user_type"])

	out, err = f.run(t, "", "whoami")
	require.NoError(t, err)
	require.Equal(t, "Bob", decodeJSON(t, out)["first_name"])
}

func TestCLI_Endpoints(t *testing.T) {
	f := setupTestFixture(t)

	out, err := f.run(t, "", "endpoints", "dashboard")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[1], "dashboard.get")
	require.Contains(t, lines[1], "/dashboard/")
}

func TestPrintValue(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printValue(&buf, formatYAML, json.RawMessage(`{"a":[1,2]}`)))
	require.Equal(t, "a:\n  - 1\n  - 2\n", buf.String())

	buf.Reset()
	require.NoError(t, printValue(&buf, formatJSON, json.RawMessage(nil)))
	require.Empty(t, buf.String())

	require.Error(t, printValue(&buf, "xml", 1))
}

func TestAppNameFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medassist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app_name: CareDesk\n"), 0o600))
	require.Equal(t, "CareDesk", appName(path))

	require.Equal(t, defaultAppName, appName(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestCLI_StatusSignedOut(t *testing.T) {
	f := setupTestFixture(t)

	out, err := f.run(t, "", "status")
	require.NoError(t, err)
	status := decodeJSON(t, out)
	require.Equal(t, false, status["access_token"].(map[string]any)["present"])
	require.Equal(t, false, status["refresh_token"].(map[string]any)["present"])
}
