package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ConfigLoadTimeout bounds LoadWithTimeout.
const ConfigLoadTimeout = 100 * time.Millisecond

const (
	// DefaultConfigDir sits under $HOME and holds config.yaml and history.json.
	DefaultConfigDir = ".commitgpt"
	// DefaultCredentialFileName sits directly under $HOME.
	DefaultCredentialFileName = ".commit-gpt.json"
	// EnvPrefix starts every environment override, e.g. COMMITGPT_PROVIDER_NAME.
	EnvPrefix = "COMMITGPT"

	fileType = "yaml"
	filePerm = 0o600
	dirPerm  = 0o755
)

// defaults returns every known key with its default value. Paths are
// resolved against home.
func defaults(home string) map[string]interface{} {
	return map[string]interface{}{
		"provider.name":     "openai",
		"provider.api_key":  "",
		"provider.model":    "", // the provider's own default
		"provider.endpoint": "",

		"provider.temperature": 0.7,
		"provider.max_tokens":  500,

		"credential.file_path": filepath.Join(home, DefaultCredentialFileName),

		"commit.conventional": false,
		"commit.style":        "",

		"git.exclude_patterns": []string{
			"*.lock", "go.sum", "package-lock.json", "yarn.lock", "pnpm-lock.yaml", "Cargo.lock",
		},

		"ui.color_enabled": true,

		"history.enabled":     true,
		"history.max_entries": 1000,
		"history.file_path":   filepath.Join(home, DefaultConfigDir, "history.json"),

		"security.warning_acknowledged": false,
	}
}

func applyDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()
	for key, value := range defaults(home) {
		v.SetDefault(key, value)
	}
}

// EnvVarName returns the environment variable that overrides key.
func EnvVarName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// ViperManager stores settings in a YAML file through viper. Environment
// variables and SetOverride values shadow the file but are never written.
type ViperManager struct {
	v          *viper.Viper
	configPath string
}

var _ Manager = (*ViperManager)(nil)

// NewManager returns a manager for configPath, or ~/.commitgpt/config.yaml
// when it is empty. The file need not exist.
func NewManager(configPath string) (*ViperManager, error) {
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, DefaultConfigDir, "config.yaml")
	}

	v := viper.New()
	v.SetConfigType(fileType)
	v.SetConfigFile(configPath)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Nested keys only reach Unmarshal from the environment when bound
	// explicitly, and binding needs the defaults in place.
	applyDefaults(v)
	for _, key := range v.AllKeys() {
		_ = v.BindEnv(key, EnvVarName(key))
	}

	return &ViperManager{v: v, configPath: configPath}, nil
}

// GetConfigPath returns the file the manager reads and writes.
func (m *ViperManager) GetConfigPath() string { return m.configPath }

// ConfigExists reports whether the file is present.
func (m *ViperManager) ConfigExists() bool {
	_, err := os.Stat(m.configPath)
	return err == nil
}

// Load resolves the configuration. Precedence is overrides, environment,
// file, then defaults.
func (m *ViperManager) Load() (*Config, error) {
	if err := m.read(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// LoadWithTimeout is Load bounded by ConfigLoadTimeout, so a config file on
// a hung network mount cannot stall the command.
func (m *ViperManager) LoadWithTimeout(ctx context.Context) (*Config, error) {
	ctx, cancel := context.WithTimeout(ctx, ConfigLoadTimeout)
	defer cancel()

	type loaded struct {
		cfg *Config
		err error
	}
	done := make(chan loaded, 1)
	go func() {
		cfg, err := m.Load()
		done <- loaded{cfg, err}
	}()

	select {
	case r := <-done:
		return r.cfg, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("config loading timed out after %v", ConfigLoadTimeout)
	}
}

// read loads the file into m.v. A missing file is not an error.
func (m *ViperManager) read() error {
	err := m.v.ReadInConfig()

	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil, errors.As(err, &notFound), errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("failed to read config file: %w", err)
	}
}

// Init writes a file holding only the defaults. It refuses to overwrite.
func (m *ViperManager) Init() error {
	if m.ConfigExists() {
		return fmt.Errorf("config file already exists at %s", m.configPath)
	}
	return m.write(applyDefaults)
}

// Set stores value under key, typed like the key's current value, and
// writes the file. Only what the file already held plus key is written.
func (m *ViperManager) Set(key string, value string) error {
	if err := m.read(); err != nil {
		return err
	}

	typed, err := convertValue(value, m.v.Get(key))
	if err != nil {
		return fmt.Errorf("failed to convert value for key %s: %w", key, err)
	}

	if err := m.write(func(file *viper.Viper) { file.Set(key, typed) }); err != nil {
		return err
	}
	m.v.Set(key, typed)
	return nil
}

// write rebuilds the file from its current contents with edit applied and
// leaves it readable by the owner only, since it may hold an API key.
func (m *ViperManager) write(edit func(file *viper.Viper)) error {
	file := viper.New()
	file.SetConfigType(fileType)
	file.SetConfigFile(m.configPath)
	if m.ConfigExists() {
		if err := file.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	edit(file)

	if err := os.MkdirAll(filepath.Dir(m.configPath), dirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := file.WriteConfigAs(m.configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Chmod(m.configPath, filePerm); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}
	return nil
}

// convertValue parses value as the type of current. Lists are comma separated.
func convertValue(value string, current interface{}) (interface{}, error) {
	switch current.(type) {
	case bool:
		return strconv.ParseBool(value)
	case int, int64:
		return strconv.ParseInt(value, 10, 64)
	case float32, float64:
		return strconv.ParseFloat(value, 64)
	case []interface{}, []string:
		return strings.Split(value, ","), nil
	default:
		return value, nil
	}
}

// Get returns the resolved value of key as text.
func (m *ViperManager) Get(key string) (string, error) {
	if err := m.read(); err != nil {
		return "", err
	}
	value := m.v.Get(key)
	if value == nil {
		return "", fmt.Errorf("key not found: %s", key)
	}
	return fmt.Sprint(value), nil
}

// List returns every resolved setting as nested maps.
func (m *ViperManager) List() map[string]interface{} {
	_ = m.read()
	return m.v.AllSettings()
}

// SetOverride shadows key for this process only; flags use it.
func (m *ViperManager) SetOverride(key string, value interface{}) {
	m.v.Set(key, value)
}

// AcknowledgeSecurityWarning records that the first-use notice was accepted.
func (m *ViperManager) AcknowledgeSecurityWarning() error {
	return m.Set("security.warning_acknowledged", "true")
}

// IsSecurityWarningAcknowledged reports whether the notice was accepted.
func (m *ViperManager) IsSecurityWarningAcknowledged() bool {
	_ = m.read()
	return m.v.GetBool("security.warning_acknowledged")
}
