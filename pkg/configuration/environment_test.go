package configuration

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnv_LoadsExistingFilesOnly(t *testing.T) {
	tmp := t.TempDir()

	requireWriteFile(t, filepath.Join(tmp, ".env.local"), "PORTAL_SDK_TEST_ENV_LOAD=ok\n")

	origWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	_ = os.Unsetenv("PORTAL_SDK_TEST_ENV_LOAD")

	n, err := LoadEnv([]string{".env", ".env.local"})
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 env file loaded, got %d", n)
	}
	if got := os.Getenv("PORTAL_SDK_TEST_ENV_LOAD"); got != "ok" {
		t.Fatalf("expected env var loaded, got %q", got)
	}
}

func TestValidate_RejectsBadBaseURL(t *testing.T) {
	c := &Configuration{
		API:         APIOptions{BaseURL: "localhost:5000"},
		PageSize:    25,
		MaxPageSize: 100,
	}
	if err := c.validate(); err == nil {
		t.Fatal("expected error for base URL without scheme")
	}
}

func TestValidate_TrimsTrailingSlash(t *testing.T) {
	c := &Configuration{
		API:         APIOptions{BaseURL: "https://portal.example.com/"},
		PageSize:    25,
		MaxPageSize: 100,
	}
	if err := c.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if c.API.BaseURL != "https://portal.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", c.API.BaseURL)
	}
}

func requireWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
