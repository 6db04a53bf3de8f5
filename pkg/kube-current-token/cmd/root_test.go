package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const adminConfig = `current-context: admin
users:
- name: viewer
  user:
    token: viewer-token
- name: admin
  user:
    token: admin-token
- name: admin
  user:
    token: shadowed-token
`

func newTestStreams() IOStreams {
	return IOStreams{
		In:     &bytes.Buffer{},
		Out:    &bytes.Buffer{},
		ErrOut: &bytes.Buffer{},
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	streams := newTestStreams()
	cmd := NewCurrentToken(streams)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return streams.Out.(*bytes.Buffer).String(), err
}

func TestPrintsToken(t *testing.T) {
	path := writeFile(t, "config", adminConfig)

	out, err := execute(t, "--kubeconfig", path)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "admin-token\n" {
		t.Errorf("Expected first matching token, got %q", out)
	}

	// Running again against the unchanged file yields the same output
	again, err := execute(t, "--kubeconfig", path)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if again != out {
		t.Errorf("Expected identical output on rerun, got %q then %q", out, again)
	}
}

func TestDefaultKubeconfigLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if err := os.MkdirAll(filepath.Join(home, ".kube"), 0700); err != nil {
		t.Fatalf("Failed to create .kube: %v", err)
	}
	if err := os.WriteFile(filepath.Join(home, ".kube", "config"), []byte(adminConfig), 0600); err != nil {
		t.Fatalf("Failed to write kubeconfig: %v", err)
	}

	out, err := execute(t)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "admin-token\n" {
		t.Errorf("Expected token from ~/.kube/config, got %q", out)
	}
}

func TestUserNotFound(t *testing.T) {
	path := writeFile(t, "config", "current-context: ghost\nusers:\n- name: admin\n  user:\n    token: x\n")

	out, err := execute(t, "--kubeconfig", path)
	if err != nil {
		t.Fatalf("Expected exit status 0 for lookup miss, got %v", err)
	}
	if out != "user not found\n" {
		t.Errorf("Expected 'user not found', got %q", out)
	}

	out, err = execute(t, "--kubeconfig", path, "--strict-exit-codes")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != ExitUserNotFound {
		t.Fatalf("Expected ExitError with code %d, got %v", ExitUserNotFound, err)
	}
	if out != "user not found\n" {
		t.Errorf("Expected 'user not found' in strict mode, got %q", out)
	}
}

func TestParseFailure(t *testing.T) {
	path := writeFile(t, "config", "current-context: admin\nusers: [")

	out, err := execute(t, "--kubeconfig", path)
	if err != nil {
		t.Fatalf("Expected exit status 0 for parse failure, got %v", err)
	}
	if !strings.Contains(out, "yaml") {
		t.Errorf("Expected parse error description, got %q", out)
	}

	_, err = execute(t, "--kubeconfig", path, "--strict-exit-codes")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != ExitParseError {
		t.Fatalf("Expected ExitError with code %d, got %v", ExitParseError, err)
	}
}

func TestEmptyToken(t *testing.T) {
	path := writeFile(t, "config", "current-context: a\nusers:\n- name: a\n  user:\n    token: \"\"\n")

	out, err := execute(t, "--kubeconfig", path)
	if err != nil {
		t.Fatalf("Expected exit status 0 for an empty token, got %v", err)
	}
	if out != "\n" {
		t.Errorf("Expected a single empty line, got %q", out)
	}
}

func TestMultipleDocuments(t *testing.T) {
	path := writeFile(t, "config", adminConfig+"---\ncurrent-context: viewer\n")

	out, err := execute(t, "--kubeconfig", path, "--strict-exit-codes")
	if ExitCode(err) != ExitParseError {
		t.Fatalf("Expected exit code %d for a multi-document file, got %d (%v)", ExitParseError, ExitCode(err), err)
	}
	if strings.Contains(out, "admin-token") {
		t.Errorf("Token should not be printed for a multi-document file, got %q", out)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect int
	}{
		{name: "success", err: nil, expect: ExitOK},
		{name: "lookup miss", err: &ExitError{Code: ExitUserNotFound, Err: errors.New("user not found")}, expect: ExitUserNotFound},
		{name: "parse failure", err: &ExitError{Code: ExitParseError, Err: errors.New("yaml")}, expect: ExitParseError},
		{name: "other failure", err: os.ErrNotExist, expect: ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.expect {
				t.Errorf("ExitCode() = %d, want %d", got, tt.expect)
			}
		})
	}
}

func TestMissingKubeconfig(t *testing.T) {
	out, err := execute(t, "--kubeconfig", filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("Expected error for missing kubeconfig")
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		t.Errorf("Missing kubeconfig should not be an ExitError, got code %d", exitErr.Code)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist in chain, got %v", err)
	}
	if out != "" {
		t.Errorf("Expected no output, got %q", out)
	}
	if ExitCode(err) != ExitFailure {
		t.Errorf("Expected exit code %d, got %d", ExitFailure, ExitCode(err))
	}
}

func TestExecCredentialOutput(t *testing.T) {
	path := writeFile(t, "config", adminConfig)

	out, err := execute(t, "--kubeconfig", path, "-o", "exec-credential")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, `"kind":"ExecCredential"`) || !strings.Contains(out, `"token":"admin-token"`) {
		t.Errorf("Unexpected exec credential output: %s", out)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	path := writeFile(t, "config", adminConfig)
	t.Setenv("KUBE_CURRENT_TOKEN_KUBECONFIG", path)
	t.Setenv("KUBE_CURRENT_TOKEN_OUTPUT", "json")

	out, err := execute(t)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, `"token": "admin-token"`) {
		t.Errorf("Expected JSON output selected by environment, got %s", out)
	}

	// Flags win over environment
	out, err = execute(t, "--output", "token")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "admin-token\n" {
		t.Errorf("Expected flag to override environment, got %q", out)
	}
}

func TestSettingsFile(t *testing.T) {
	kubeconfigPath := writeFile(t, "config", `current-context: dev
contexts:
- name: dev
  context:
    user: dev-user
users:
- name: dev-user
  user:
    token: dev-token
`)
	settings := writeFile(t, "settings.yaml", "kubeconfig: "+kubeconfigPath+"\nlookup: context\n")

	out, err := execute(t, "--config", settings)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "dev-token\n" {
		t.Errorf("Expected token resolved through context, got %q", out)
	}

	// A flag overrides the settings file
	out, err = execute(t, "--config", settings, "--lookup", "user-name")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "user not found\n" {
		t.Errorf("Expected user-name lookup to miss, got %q", out)
	}
}

func TestInvalidSettings(t *testing.T) {
	path := writeFile(t, "config", adminConfig)

	for _, args := range [][]string{
		{"--kubeconfig", path, "--output", "table"},
		{"--kubeconfig", path, "--lookup", "cluster"},
		{"--kubeconfig", path, "--log-level", "10"},
		{"--kubeconfig", path, "extra-arg"},
	} {
		out, err := execute(t, args...)
		if err == nil {
			t.Errorf("Expected error for args %v", args)
		}
		if out != "" {
			t.Errorf("Expected no output for args %v, got %q", args, out)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("Version command failed: %v", err)
	}

	if !strings.Contains(out, "kube-current-token") {
		t.Errorf("Version output should contain 'kube-current-token', got: %s", out)
	}

	if !strings.Contains(out, "Version:") {
		t.Errorf("Version output should contain 'Version:', got: %s", out)
	}
}

func TestHelpCommand(t *testing.T) {
	out, _ := execute(t, "--help")

	for _, flag := range []string{"--kubeconfig", "--strict-exit-codes", "--output", "--lookup", "--help"} {
		if !strings.Contains(out, flag) {
			t.Errorf("Help output should contain '%s' flag, got: %s", flag, out)
		}
	}
}
