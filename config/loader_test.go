package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// TestLoad_Defaults verifies a minimal file gets every default applied.
func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "database:\n  dsn: \"host=localhost\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Env != "development" {
		t.Errorf("env = %q, want development", cfg.Env)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Tracking.BroadcastWindowMS != 250 {
		t.Errorf("broadcastWindowMS = %d, want 250", cfg.Tracking.BroadcastWindowMS)
	}
	if cfg.Tracking.RetentionDays != 30 {
		t.Errorf("retentionDays = %d, want 30", cfg.Tracking.RetentionDays)
	}
	if cfg.BroadcastWindow() != 250*time.Millisecond {
		t.Errorf("BroadcastWindow() = %v", cfg.BroadcastWindow())
	}
	if cfg.RetentionAge() != 30*24*time.Hour {
		t.Errorf("RetentionAge() = %v", cfg.RetentionAge())
	}
	if cfg.TokenTTL() != 168*time.Hour {
		t.Errorf("TokenTTL() = %v", cfg.TokenTTL())
	}
}

// TestLoad_MissingFile verifies a nonexistent path surfaces an error.
func TestLoad_MissingFile(t *testing.T) {
	orig, _ := os.Getwd()
	defer func() { _ = os.Chdir(orig) }()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	if _, err := Load("does-not-exist.yml"); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

// TestLoad_EnvOverrides verifies environment variables beat file values.
func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 5000
database:
  dsn: "host=localhost"
`)
	t.Setenv("PORT", "8080")
	t.Setenv("CLIENT_ORIGIN", "https://app.example.com, https://admin.example.com")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080 from PORT", cfg.Server.Port)
	}
	want := []string{"https://app.example.com", "https://admin.example.com"}
	if len(cfg.Server.ClientOrigins) != len(want) {
		t.Fatalf("origins = %v, want %v", cfg.Server.ClientOrigins, want)
	}
	for i := range want {
		if cfg.Server.ClientOrigins[i] != want[i] {
			t.Errorf("origin[%d] = %q, want %q", i, cfg.Server.ClientOrigins[i], want[i])
		}
	}
}

// TestLoad_ProductionRequiresSecret verifies the default secret is rejected
// when env is production.
func TestLoad_ProductionRequiresSecret(t *testing.T) {
	path := writeConfig(t, `
env: production
database:
  dsn: "host=localhost"
`)
	if _, err := Load(path); err == nil {
		t.Error("production with default jwtSecret should fail")
	}

	t.Setenv("JWT_SECRET", "an-actual-secret")
	if _, err := Load(path); err != nil {
		t.Errorf("production with JWT_SECRET set should load: %v", err)
	}
}

// TestLoad_InvalidTokenTTL verifies a malformed duration is rejected.
func TestLoad_InvalidTokenTTL(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: "host=localhost"
auth:
  tokenTTL: seven days
`)
	if _, err := Load(path); err == nil {
		t.Error("invalid tokenTTL should fail validation")
	}
}
