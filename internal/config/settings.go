package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tiktoksage/tiktok-sage/internal/logging"
	"github.com/tiktoksage/tiktok-sage/internal/model"
	"github.com/tiktoksage/tiktok-sage/internal/platform"
)

// SettingsFileName is the file created under the application-data directory
const SettingsFileName = "settings.yaml"

// Default values
const (
	DefaultLanguage = "en"
)

// Settings holds the recognized application options. Unknown keys present in
// the file are ignored on load and dropped on the next save.
type Settings struct {
	DownloadDirectory string `yaml:"download_directory"`
	Language          string `yaml:"language"`
	Proxy             string `yaml:"proxy,omitempty"`
	SaveDescription   bool   `yaml:"save_description"`
	AudioOnlyDefault  bool   `yaml:"audio_only_default"`
}

// DefaultSettings returns the settings used when no file exists yet
func DefaultSettings() *Settings {
	downloadDir, err := platform.GetHomeDownloadsDir()
	if err != nil {
		downloadDir = os.TempDir()
	}
	return &Settings{
		DownloadDirectory: downloadDir,
		Language:          DefaultLanguage,
	}
}

// Store persists Settings as a single YAML file, overwritten atomically on
// save. A Store with an empty directory runs in-memory only: Load returns
// defaults and Save is a no-op. That is the degraded mode used when the
// application-data directory cannot be created at startup.
type Store struct {
	path string
}

// NewStore creates a settings store rooted at the given application-data
// directory. Pass an empty dir for in-memory-only operation.
func NewStore(dir string) *Store {
	if dir == "" {
		return &Store{}
	}
	return &Store{path: filepath.Join(dir, SettingsFileName)}
}

// Load reads the settings file. A missing file seeds it with defaults. A
// corrupt file returns defaults together with a ConfigError; the settings
// value is always usable, so callers may log the error and continue.
func (s *Store) Load() (*Settings, error) {
	logger := logging.GetLogger("config")

	if s.path == "" {
		return DefaultSettings(), nil
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		logger.Info().Str("path", s.path).Msg("Settings file not found, creating with defaults")
		settings := DefaultSettings()
		if saveErr := s.Save(settings); saveErr != nil {
			logger.Warn().Err(saveErr).Msg("Failed to persist default settings")
		}
		return settings, nil
	}
	if err != nil {
		logger.Warn().Err(err).Str("path", s.path).Msg("Failed to read settings file, using defaults")
		return DefaultSettings(), &model.ConfigError{Path: s.path, Err: err}
	}

	// Start from defaults so options absent from the file keep their default
	// values.
	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, settings); err != nil {
		logger.Warn().Err(err).Str("path", s.path).Msg("Corrupt settings file, using defaults")
		return DefaultSettings(), &model.ConfigError{Path: s.path, Err: err}
	}

	logger.Debug().Str("path", s.path).Msg("Settings loaded")
	return settings, nil
}

// Save writes the settings file atomically (temp file then rename)
func (s *Store) Save(settings *Settings) error {
	if s.path == "" {
		return nil
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return &model.ConfigError{Path: s.path, Err: err}
	}
	if err := platform.WriteFileAtomic(s.path, data); err != nil {
		return &model.ConfigError{Path: s.path, Err: err}
	}

	logging.GetLogger("config").Debug().Str("path", s.path).Msg("Settings saved")
	return nil
}
