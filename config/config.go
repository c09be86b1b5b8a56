package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	DefaultRepoType string          `json:"defaultRepoType" yaml:"defaultRepoType"` // Default: "github"
	DefaultBranch   string          `json:"defaultBranch" yaml:"defaultBranch"`     // Default: "main"
	Clone           CloneConfig     `json:"clone" yaml:"clone"`
	Local           LocalConfig     `json:"local" yaml:"local"`
	GitHub          GitHubConfig    `json:"github" yaml:"github"`
	Bitbucket       BitbucketConfig `json:"bitbucket" yaml:"bitbucket"`
	HTTP            HTTPConfig      `json:"http" yaml:"http"`
	Server          ServerConfig    `json:"server" yaml:"server"`
	Filters         FilterConfig    `json:"filters" yaml:"filters"`
	Log             LogConfig       `json:"log" yaml:"log"`
}

// CloneConfig holds options for ephemeral clones.
type CloneConfig struct {
	TempDir string `json:"tempDir" yaml:"tempDir"` // Default: os.TempDir()
}

// LocalConfig holds local backend options.
type LocalConfig struct {
	StrictBranch bool `json:"strictBranch" yaml:"strictBranch"`
}

// GitHubConfig holds GitHub backend options.
type GitHubConfig struct {
	BaseURL string `json:"baseURL" yaml:"baseURL"`
	PerPage int    `json:"perPage" yaml:"perPage"` // 1..100
}

// BitbucketConfig holds Bitbucket backend options.
type BitbucketConfig struct {
	APIURL      string `json:"apiURL" yaml:"apiURL"`
	GitURL      string `json:"gitURL" yaml:"gitURL"`
	PageLimit   int    `json:"pageLimit" yaml:"pageLimit"`
	GitFastPath bool   `json:"gitFastPath" yaml:"gitFastPath"`
}

// HTTPConfig holds outbound HTTP client options.
type HTTPConfig struct {
	TimeoutSeconds int `json:"timeoutSeconds" yaml:"timeoutSeconds"`
}

// ServerConfig holds options for the serve command.
type ServerConfig struct {
	Addr                  string `json:"addr" yaml:"addr"`
	RequestTimeoutSeconds int    `json:"requestTimeoutSeconds" yaml:"requestTimeoutSeconds"`
}

// FilterConfig holds file path filtering options.
type FilterConfig struct {
	Include []string `json:"include" yaml:"include"`
	Exclude []string `json:"exclude" yaml:"exclude"`
}

// LogConfig holds logging options.
type LogConfig struct {
	Level string `json:"level" yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		DefaultRepoType: "github",
		DefaultBranch:   "main",
		GitHub: GitHubConfig{
			BaseURL: "https://api.github.com/",
			PerPage: 100,
		},
		Bitbucket: BitbucketConfig{
			APIURL:      "https://api.bitbucket.org/2.0",
			GitURL:      "https://bitbucket.org",
			PageLimit:   50,
			GitFastPath: true,
		},
		HTTP: HTTPConfig{
			TimeoutSeconds: 30,
		},
		Server: ServerConfig{
			Addr:                  ":8000",
			RequestTimeoutSeconds: 300,
		},
		Filters: FilterConfig{
			Include: []string{},
			Exclude: []string{},
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Validate checks value ranges. Every problem is reported.
func (c *Config) Validate() error {
	var errs []error
	if c.GitHub.PerPage < 1 || c.GitHub.PerPage > 100 {
		errs = append(errs, fmt.Errorf("github.perPage must be between 1 and 100, got %d", c.GitHub.PerPage))
	}
	if c.Bitbucket.PageLimit < 1 {
		errs = append(errs, fmt.Errorf("bitbucket.pageLimit must be positive, got %d", c.Bitbucket.PageLimit))
	}
	if c.HTTP.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("http.timeoutSeconds must not be negative, got %d", c.HTTP.TimeoutSeconds))
	}
	if c.Server.RequestTimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("server.requestTimeoutSeconds must not be negative, got %d", c.Server.RequestTimeoutSeconds))
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	return errors.Join(errs...)
}

// candidateNames are searched in the working directory, then in the home directory.
var candidateNames = []string{".gitcommits.json", ".gitcommits.yaml", ".gitcommits.yml"}

// LoadConfig loads configuration from a file, merging with defaults.
// JSON or YAML is chosen by file extension.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = findConfig()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if isYAML(path) {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML %s: %w", path, err)
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func findConfig() string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		dirs = append(dirs, home)
	} else if envHome := os.Getenv("HOME"); envHome != "" {
		dirs = append(dirs, envHome)
	}
	for _, dir := range dirs {
		for _, name := range candidateNames {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// SaveConfig saves configuration to a file, as YAML when the extension says so.
func SaveConfig(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
