package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BITBUCKET_REPO_URL", "https://bitbucket.org/acme/core.git")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Backend != "ollama" {
		t.Errorf("expected default backend ollama, got %q", cfg.Backend)
	}
	if cfg.PerFileCap != 3000 {
		t.Errorf("expected default per-file cap 3000, got %d", cfg.PerFileCap)
	}
	if cfg.MaxWorkers != 10 {
		t.Errorf("expected default max workers 10, got %d", cfg.MaxWorkers)
	}
	if len(cfg.Extensions) != 3 {
		t.Errorf("expected 3 default extensions, got %v", cfg.Extensions)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
listen: "127.0.0.1:9999"
repo_url: "https://bitbucket.org/acme/core.git"
branch: "develop"
publish_branch: "generated"
per_file_cap: 512
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Listen != "127.0.0.1:9999" {
		t.Errorf("listen not loaded from file: %q", cfg.Listen)
	}
	if cfg.Branch != "develop" {
		t.Errorf("branch not loaded from file: %q", cfg.Branch)
	}
	if cfg.PublishBranch != "generated" {
		t.Errorf("publish_branch not loaded from file: %q", cfg.PublishBranch)
	}
	if cfg.PerFileCap != 512 {
		t.Errorf("per_file_cap not loaded from file: %d", cfg.PerFileCap)
	}
	// Unset fields keep their defaults.
	if cfg.OllamaURL != "http://localhost:11434" {
		t.Errorf("default ollama_url lost: %q", cfg.OllamaURL)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
repo_url: "https://bitbucket.org/acme/core.git"
branch: "master"
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("BITBUCKET_BRANCH", "release")
	t.Setenv("OLLAMA_MODEL", "codellama")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Branch != "release" {
		t.Errorf("env did not override file branch: %q", cfg.Branch)
	}
	if cfg.OllamaModel != "codellama" {
		t.Errorf("env did not override default model: %q", cfg.OllamaModel)
	}
}

func TestUseClaudeSwitchesBackend(t *testing.T) {
	t.Setenv("BITBUCKET_REPO_URL", "https://bitbucket.org/acme/core.git")
	t.Setenv("USE_CLAUDE", "true")
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != "anthropic" {
		t.Errorf("USE_CLAUDE=true should select anthropic, got %q", cfg.Backend)
	}

	t.Setenv("USE_CLAUDE", "false")
	cfg, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != "ollama" {
		t.Errorf("USE_CLAUDE=false should select ollama, got %q", cfg.Backend)
	}
}

func TestProjectFilterFromEnv(t *testing.T) {
	t.Setenv("BB_WORKSPACE", "acme")
	t.Setenv("BB_PROJECT_FILTER", "CORE, PLAT ,")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.ProjectFilter) != 2 || cfg.ProjectFilter[0] != "CORE" || cfg.ProjectFilter[1] != "PLAT" {
		t.Errorf("unexpected project filter: %v", cfg.ProjectFilter)
	}
	if !cfg.DiscoveryEnabled() {
		t.Error("workspace set, discovery should be enabled")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad backend", func(c *Config) { c.Backend = "gpt" }},
		{"zero cap", func(c *Config) { c.PerFileCap = 0 }},
		{"zero workers", func(c *Config) { c.MaxWorkers = 0 }},
		{"no repo source", func(c *Config) { c.RepoURL = ""; c.Workspace = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.RepoURL = "https://bitbucket.org/acme/core.git"
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
