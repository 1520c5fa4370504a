// Package config loads commitgpt settings from ~/.commitgpt/config.yaml and
// COMMITGPT_* environment variables.
package config

// Config is the resolved configuration for one run.
type Config struct {
	Provider   ProviderConfig   `mapstructure:"provider"`
	Credential CredentialConfig `mapstructure:"credential"`
	Commit     CommitConfig     `mapstructure:"commit"`
	Git        GitConfig        `mapstructure:"git"`
	UI         UIConfig         `mapstructure:"ui"`
	History    HistoryConfig    `mapstructure:"history"`
	Security   SecurityConfig   `mapstructure:"security"`
}

// ProviderConfig selects the completion service. A non-empty APIKey is used
// ahead of the credential file and is never copied into it.
type ProviderConfig struct {
	Name        string  `mapstructure:"name"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Endpoint    string  `mapstructure:"endpoint"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

type CredentialConfig struct {
	FilePath string `mapstructure:"file_path"`
}

// CommitConfig supplies values for --conventional and --style when the
// flags are not given.
type CommitConfig struct {
	Conventional bool   `mapstructure:"conventional"`
	Style        string `mapstructure:"style"`
}

// GitConfig lists glob patterns whose files are left out of the prompt diff.
type GitConfig struct {
	ExcludePatterns []string `mapstructure:"exclude_patterns"`
}

type UIConfig struct {
	ColorEnabled bool `mapstructure:"color_enabled"`
}

type HistoryConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	MaxEntries int    `mapstructure:"max_entries"`
	FilePath   string `mapstructure:"file_path"`
}

type SecurityConfig struct {
	// WarningAcknowledged is set once the first-use notice has been accepted.
	WarningAcknowledged bool `mapstructure:"warning_acknowledged"`
}

// Manager reads and writes the configuration file.
type Manager interface {
	Load() (*Config, error)
	Get(key string) (string, error)
	Set(key string, value string) error
	List() map[string]interface{}
	Init() error
	GetConfigPath() string
}
