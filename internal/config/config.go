// Package config loads mcpgen configuration from a YAML file, an
// optional .env file, and environment variables. Environment variables
// take precedence over the file so deployments can override individual
// settings without editing config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the full mcpgen configuration.
type Config struct {
	// Listen is the HTTP API listen address.
	Listen string `yaml:"listen"`
	// HistoryDB is the path to the SQLite generation history database.
	HistoryDB string `yaml:"history_db"`

	// Backend selects the generation backend: "ollama" or "anthropic".
	Backend string `yaml:"backend"`
	// OllamaURL is the base URL of the Ollama server.
	OllamaURL string `yaml:"ollama_url"`
	// OllamaModel is the model identifier validated at startup.
	OllamaModel string `yaml:"ollama_model"`
	// AnthropicAPIKey authenticates against the Anthropic API.
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	// AnthropicModel is the Claude model identifier.
	AnthropicModel string `yaml:"anthropic_model"`

	// RepoURL is the single configured repository. When Workspace is set
	// the discovery mode is used instead.
	RepoURL string `yaml:"repo_url"`
	// Branch is the branch checked out for context extraction.
	Branch string `yaml:"branch"`
	// PublishBranch, when non-empty, enables the publish pipeline.
	// When empty, generated text is stored as the task result instead.
	PublishBranch string `yaml:"publish_branch"`
	// CloneDir is where discovered repositories are cloned.
	CloneDir string `yaml:"clone_dir"`

	// Workspace is the hosting-API workspace to list repositories from.
	Workspace string `yaml:"workspace"`
	// ListingURL is the base URL of the hosting listing API.
	ListingURL string `yaml:"listing_url"`
	// APIUser and APIPassword are the hosting API basic-auth credentials.
	APIUser     string `yaml:"api_user"`
	APIPassword string `yaml:"api_password"`
	// ProjectFilter is an allow-list of project keys; empty means all.
	ProjectFilter []string `yaml:"project_filter"`

	// Extensions is the file extension allow-set for context extraction.
	Extensions []string `yaml:"extensions"`
	// PerFileCap is the maximum bytes read from any single context file.
	PerFileCap int `yaml:"per_file_cap"`

	// MaxWorkers caps concurrently running generation tasks.
	MaxWorkers int `yaml:"max_workers"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:         "127.0.0.1:7470",
		HistoryDB:      defaultHistoryDB(),
		Backend:        "ollama",
		OllamaURL:      "http://localhost:11434",
		OllamaModel:    "llama3",
		AnthropicModel: "claude-3-sonnet-20240229",
		Branch:         "master",
		CloneDir:       "cloned_repos",
		ListingURL:     "https://api.bitbucket.org/2.0/repositories",
		Extensions:     []string{".java", ".md", ".yml"},
		PerFileCap:     3000,
		MaxWorkers:     10,
	}
}

func defaultHistoryDB() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "mcpgen.db"
	}
	return filepath.Join(home, ".mcpgen", "mcpgen.db")
}

// Load builds the configuration: defaults, then the YAML file at path
// (missing file is fine), then .env, then environment variables.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	// .env in the working directory, if present. Only sets variables
	// that are not already in the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromHome loads configuration from ~/.mcpgen/config.yaml.
func LoadFromHome() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Load("")
	}
	return Load(filepath.Join(home, ".mcpgen", "config.yaml"))
}

func (c *Config) applyEnv() {
	setString(&c.Listen, "MCPGEN_LISTEN")
	setString(&c.HistoryDB, "MCPGEN_HISTORY_DB")
	setString(&c.OllamaURL, "OLLAMA_URL")
	setString(&c.OllamaModel, "OLLAMA_MODEL")
	setString(&c.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setString(&c.AnthropicModel, "CLAUDE_MODEL")
	setString(&c.RepoURL, "BITBUCKET_REPO_URL")
	setString(&c.Branch, "BITBUCKET_BRANCH")
	setString(&c.PublishBranch, "PUBLISH_BRANCH")
	setString(&c.CloneDir, "BB_LOCAL_CLONE_DIR")
	setString(&c.Workspace, "BB_WORKSPACE")
	setString(&c.APIUser, "BB_USER")
	setString(&c.APIPassword, "BB_APP_PASSWORD")
	setInt(&c.PerFileCap, "MCPGEN_PER_FILE_CAP")
	setInt(&c.MaxWorkers, "MCPGEN_MAX_WORKERS")

	if v, ok := os.LookupEnv("BB_PROJECT_FILTER"); ok {
		c.ProjectFilter = splitList(v)
	}
	if v, ok := os.LookupEnv("USE_CLAUDE"); ok {
		if strings.EqualFold(v, "true") {
			c.Backend = "anthropic"
		} else {
			c.Backend = "ollama"
		}
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Backend {
	case "ollama", "anthropic":
	default:
		return fmt.Errorf("invalid backend %q, must be: ollama or anthropic", c.Backend)
	}
	if c.PerFileCap < 1 {
		return fmt.Errorf("per_file_cap must be at least 1")
	}
	if c.MaxWorkers < 1 {
		return fmt.Errorf("max_workers must be at least 1")
	}
	if c.RepoURL == "" && c.Workspace == "" {
		return fmt.Errorf("either repo_url or workspace must be configured")
	}
	return nil
}

// DiscoveryEnabled reports whether hosted-listing discovery is configured.
func (c *Config) DiscoveryEnabled() bool {
	return c.Workspace != ""
}
