package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/agentx-labs/autoinstall/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Setting keys.
const (
	KeyManifestFile   = "manifest_file"
	KeyRuntimePrefix  = "runtime_prefix"
	KeyInstallCommand = "install.command"
	KeyInstallArgs    = "install.args"
	KeyDistDir        = "dist_dir"
	KeyNpmMinVersion  = "npm_min_version"
	KeyHookMode       = "hook_mode"
)

// Settings is the decoded configuration.
type Settings struct {
	ManifestFile  string          `mapstructure:"manifest_file"`
	RuntimePrefix string          `mapstructure:"runtime_prefix"`
	Install       InstallSettings `mapstructure:"install"`
	DistDir       string          `mapstructure:"dist_dir"`
	NpmMinVersion string          `mapstructure:"npm_min_version"`
	// HookMode is "function" (locate the manifest from the function root) or
	// "component" (install the owning component root) before packaging.
	HookMode      string          `mapstructure:"hook_mode"`
}

// InstallSettings select the command run in each manifest directory.
type InstallSettings struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// Keys returns every known setting key.
func Keys() []string {
	return []string{KeyManifestFile, KeyRuntimePrefix, KeyInstallCommand, KeyInstallArgs, KeyDistDir, KeyNpmMinVersion, KeyHookMode}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyManifestFile, "package.json")
	v.SetDefault(KeyRuntimePrefix, "nodejs")
	v.SetDefault(KeyInstallCommand, "npm")
	v.SetDefault(KeyInstallArgs, []string{"install"})
	v.SetDefault(KeyDistDir, filepath.Join(branding.HomeDir(), "dist"))
	v.SetDefault(KeyNpmMinVersion, ">= 3.0.0")
	v.SetDefault(KeyHookMode, "function")
}

// Dir returns the path to the user config directory (~/.autoinstall/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the user config file (~/.autoinstall/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// ProjectFilePath returns the per-project override file (<root>/.autoinstall.yaml).
func ProjectFilePath(root string) string {
	return filepath.Join(root, branding.HomeDir()+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper from defaults, the user config file, the project
// override file in projectRoot (if projectRoot is set), and the environment.
// Missing files are not an error.
func Load(projectRoot string) error {
	setDefaults(viper.GetViper())
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	if err := viper.ReadInConfig(); err != nil && !notExist(err) {
		return fmt.Errorf("reading %s: %w", FilePath(), err)
	}

	if projectRoot == "" {
		return nil
	}
	override := ProjectFilePath(projectRoot)
	if _, err := os.Stat(override); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("checking %s: %w", override, err)
	}
	viper.SetConfigFile(override)
	if err := viper.MergeInConfig(); err != nil {
		return fmt.Errorf("reading %s: %w", override, err)
	}
	return nil
}

func notExist(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, fs.ErrNotExist)
}

// Current decodes and validates the loaded settings.
func Current() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate reports settings the orchestrator cannot work with.
func (s *Settings) Validate() error {
	if s.ManifestFile == "" || strings.ContainsAny(s.ManifestFile, `/\`) {
		return fmt.Errorf("%s must be a file name, got %q", KeyManifestFile, s.ManifestFile)
	}
	if s.Install.Command == "" {
		return fmt.Errorf("%s must not be empty", KeyInstallCommand)
	}
	switch s.HookMode {
	case "", "function", "component":
	default:
		return fmt.Errorf("%s must be function or component, got %q", KeyHookMode, s.HookMode)
	}
	if s.NpmMinVersion != "" {
		if _, err := semver.NewConstraint(s.NpmMinVersion); err != nil {
			return fmt.Errorf("%s %q: %w", KeyNpmMinVersion, s.NpmMinVersion, err)
		}
	}
	return nil
}

// DistPath resolves DistDir against the project root.
func (s *Settings) DistPath(projectRoot string) string {
	if filepath.IsAbs(s.DistDir) {
		return filepath.Clean(s.DistDir)
	}
	return filepath.Join(projectRoot, s.DistDir)
}

// Get returns a config value by key. List values are joined with spaces.
// Returns empty string if not set.
func Get(key string) string {
	switch v := viper.Get(key).(type) {
	case []string:
		return strings.Join(v, " ")
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, " ")
	}
	return viper.GetString(key)
}

// Set writes a key-value pair to the user config file. install.args is split
// on whitespace. Project overrides are never written back.
func Set(key, value string) error {
	if !known(key) {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	var stored interface{} = value
	if key == KeyInstallArgs {
		stored = strings.Fields(value)
	}

	configFile := FilePath()
	user := viper.New()
	user.SetConfigFile(configFile)
	user.SetConfigType(fileType)
	if err := user.ReadInConfig(); err != nil && !notExist(err) {
		return fmt.Errorf("reading %s: %w", configFile, err)
	}
	user.Set(key, stored)

	if err := user.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	viper.Set(key, stored)
	return nil
}

func known(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}
