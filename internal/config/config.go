// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	ConfigFileName = "config.yaml"
	ConfigDirName  = "s3client"
	EnvPrefix      = "S3CLIENT"
	// Overrides the config file location
	ConfigPathEnv = EnvPrefix + "_CONFIG"

	DefaultConcurrency = 4
	DefaultPresignTTL  = time.Hour
)

type AWSConfig struct {
	Region    string `mapstructure:"region"`
	Profile   string `mapstructure:"profile"`
	Endpoint  string `mapstructure:"endpoint" validate:"omitempty,url"`
	PathStyle bool   `mapstructure:"path_style"`
}

type MinIOConfig struct {
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Region   string `mapstructure:"region"`
	Secure   bool   `mapstructure:"secure"`
}

type GCPConfig struct {
	Project         string `mapstructure:"project"`
	CredentialsFile string `mapstructure:"credentials_file" validate:"omitempty,file"`
}

type TransferConfig struct {
	Concurrency int           `mapstructure:"concurrency" validate:"min=1,max=64"`
	PresignTTL  time.Duration `mapstructure:"presign_ttl" validate:"min=1s,max=168h"`
}

type Config struct {
	AWS      *AWSConfig     `mapstructure:"aws"`
	MinIO    *MinIOConfig   `mapstructure:"minio"`
	GCP      *GCPConfig     `mapstructure:"gcp"`
	Transfer TransferConfig `mapstructure:"transfer"`
}

type keyKind int

const (
	kindString keyKind = iota
	kindBool
	kindInt
	kindDuration
)

// Every key that may be set through the config file, the environment or 'config set'
var supportedKeys = map[string]keyKind{
	"aws.region":           kindString,
	"aws.profile":          kindString,
	"aws.endpoint":         kindString,
	"aws.path_style":       kindBool,
	"minio.endpoint":       kindString,
	"minio.region":         kindString,
	"minio.secure":         kindBool,
	"gcp.project":          kindString,
	"gcp.credentials_file": kindString,
	"transfer.concurrency": kindInt,
	"transfer.presign_ttl": kindDuration,
}

// Returns the sorted list of supported configuration keys
func SupportedKeys() []string {
	keys := make([]string, 0, len(supportedKeys))
	for k := range supportedKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ConfigManager separates the persisted values from the effective configuration,
// which additionally layers defaults and S3CLIENT_* environment variables.
type ConfigManager struct {
	path     string
	file     *viper.Viper
	validate *validator.Validate
}

// Creates a ConfigManager for the default config location
func NewConfigManager() (*ConfigManager, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return NewConfigManagerWithPath(path)
}

// Creates a ConfigManager backed by the given YAML file, which need not exist yet
func NewConfigManagerWithPath(path string) (*ConfigManager, error) {
	file := viper.New()
	file.SetConfigFile(path)
	file.SetConfigType("yaml")

	if err := file.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return &ConfigManager{
		path:     path,
		file:     file,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// Resolves the config file path from S3CLIENT_CONFIG or the user's config directory
func DefaultConfigPath() (string, error) {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", ConfigDirName, ConfigFileName), nil
}

func (m *ConfigManager) ConfigFilePath() string {
	return m.path
}

// Loads and validates the effective configuration
func (m *ConfigManager) LoadConfig() (*Config, error) {
	return m.decode(m.file.AllSettings())
}

// Validates and persists a single key. The file is left untouched if the result would be invalid.
func (m *ConfigManager) SetValue(key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	kind, ok := supportedKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key '%s'. Supported keys: %s", key, strings.Join(SupportedKeys(), ", "))
	}

	typed, err := parseValue(kind, value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	candidate := viper.New()
	if err := candidate.MergeConfigMap(m.file.AllSettings()); err != nil {
		return fmt.Errorf("error preparing config: %w", err)
	}
	candidate.Set(key, typed)
	if _, err := m.decode(candidate.AllSettings()); err != nil {
		return err
	}

	m.file.Set(key, typed)
	return m.write(m.file)
}

// Returns the effective value of a key, including defaults and environment overrides
func (m *ConfigManager) GetValue(key string) (string, bool) {
	v := m.effective(m.file.AllSettings())
	key = strings.ToLower(strings.TrimSpace(key))
	if !v.IsSet(key) {
		return "", false
	}
	return fmt.Sprint(v.Get(key)), true
}

// Removes a persisted key, reporting whether it was present
func (m *ConfigManager) DeleteValue(key string) (bool, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	settings := m.file.AllSettings()
	if !deleteNested(settings, strings.Split(key, ".")) {
		return false, nil
	}

	file := viper.New()
	file.SetConfigFile(m.path)
	file.SetConfigType("yaml")
	if err := file.MergeConfigMap(settings); err != nil {
		return false, fmt.Errorf("error rebuilding config: %w", err)
	}
	if err := m.write(file); err != nil {
		return false, err
	}
	m.file = file
	return true, nil
}

// Returns the effective settings as a nested map
func (m *ConfigManager) GetAllSettings() map[string]interface{} {
	return m.effective(m.file.AllSettings()).AllSettings()
}

func (m *ConfigManager) effective(settings map[string]any) *viper.Viper {
	v := viper.New()
	v.SetDefault("transfer.concurrency", DefaultConcurrency)
	v.SetDefault("transfer.presign_ttl", DefaultPresignTTL.String())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range SupportedKeys() {
		// BindEnv only fails when called without arguments
		_ = v.BindEnv(key)
	}

	// Merging a freshly read map cannot fail for maps produced by viper itself
	_ = v.MergeConfigMap(settings)
	return v
}

func (m *ConfigManager) decode(settings map[string]any) (*Config, error) {
	v := m.effective(settings)

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("error parsing configuration: %w", err)
	}

	if err := m.validate.Struct(&cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, fmt.Errorf("invalid configuration: %s fails '%s' (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (m *ConfigManager) write(v *viper.Viper) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	if err := v.WriteConfigAs(m.path); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

func parseValue(kind keyKind, value string) (any, error) {
	switch kind {
	case kindBool:
		return strconv.ParseBool(value)
	case kindInt:
		return strconv.Atoi(value)
	case kindDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return nil, err
		}
		return value, nil
	default:
		return value, nil
	}
}

func deleteNested(m map[string]any, path []string) bool {
	if len(path) == 1 {
		if _, ok := m[path[0]]; !ok {
			return false
		}
		delete(m, path[0])
		return true
	}
	child, ok := m[path[0]].(map[string]any)
	if !ok {
		return false
	}
	if !deleteNested(child, path[1:]) {
		return false
	}
	if len(child) == 0 {
		delete(m, path[0])
	}
	return true
}
