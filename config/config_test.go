package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FARMDASH_ADDR", "")
	t.Setenv("FARM_API_URL", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != defaultAddr || cfg.Locale != "en" {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	if cfg.SessionIdle() != 30*time.Minute {
		t.Errorf("Expected 30m TTL, got %s", cfg.SessionIdle())
	}
	if cfg.UseRemoteAPI() {
		t.Error("Expected local storage by default")
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "farmdash.toml")
	data := `
addr = ":9000"
api_url = "https://farm.example/api"
locale = "vi"
session_ttl = "5m"
expert_id = "expert-7"
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FARMDASH_ADDR", ":9100")
	t.Setenv("FARM_API_URL", "")
	t.Setenv("FARMDASH_LOCALE", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name, got, want string
	}{
		{"env wins", cfg.Addr, ":9100"},
		{"file api", cfg.APIURL, "https://farm.example/api"},
		{"file locale", cfg.Locale, "vi"},
		{"expert", cfg.ExpertID, "expert-7"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.name, tt.want, tt.got)
		}
	}
	if cfg.SessionIdle() != 5*time.Minute {
		t.Errorf("Expected 5m, got %s", cfg.SessionIdle())
	}
}

func TestLoadRejectsBadTTL(t *testing.T) {
	t.Setenv("FARMDASH_SESSION_TTL", "soon")
	if _, err := Load(""); err == nil {
		t.Error("Expected invalid TTL to fail")
	}
}

func TestEmptyDBEnvMeansMemory(t *testing.T) {
	t.Setenv("FARMDASH_DB", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DBPath != "" {
		t.Errorf("Expected empty path, got %q", cfg.DBPath)
	}
}
