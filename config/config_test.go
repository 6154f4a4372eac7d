package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"ARENA_ADDR", "ARENA_ALLOWED_ORIGINS", "ARENA_RECONNECT_GRACE", "ARENA_READ_TIMEOUT", "ARENA_WRITE_TIMEOUT", "ARENA_MAX_ROOMS"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Addr != ":8080" || cfg.MaxRooms != 64 || cfg.ReconnectGrace != 10*time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ARENA_ADDR", ":9000")
	t.Setenv("ARENA_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("ARENA_RECONNECT_GRACE", "2s")
	t.Setenv("ARENA_READ_TIMEOUT", "nonsense")
	t.Setenv("ARENA_MAX_ROOMS", "-3")
	cfg := Load()
	if cfg.Addr != ":9000" || cfg.ReconnectGrace != 2*time.Second {
		t.Fatalf("environment not applied: %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.ReadTimeout != 15*time.Second || cfg.MaxRooms != 64 {
		t.Fatalf("bad values should fall back to defaults: %+v", cfg)
	}
}

func TestInitConfigReadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("ARENA_TEST_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ARENA_TEST_VALUE", "")
	os.Unsetenv("ARENA_TEST_VALUE")
	InitConfig(path)
	got, err := GetEnvVariable("ARENA_TEST_VALUE")
	if err != nil || got != "from-file" {
		t.Fatalf("GetEnvVariable = %q, %v", got, err)
	}

	// missing files are not fatal
	InitConfig(filepath.Join(t.TempDir(), "missing.env"))
}

func TestGetEnvVariableErrors(t *testing.T) {
	if _, err := GetEnvVariable(""); err == nil {
		t.Fatalf("expected error for empty name")
	}
	t.Setenv("ARENA_EMPTY", "")
	if _, err := GetEnvVariable("ARENA_EMPTY"); err == nil {
		t.Fatalf("expected error for unset variable")
	}
}
