package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains input, output, and working directory configuration.
type Paths struct {
	InputVideo string `toml:"input_video"`
	OutputDir  string `toml:"output_dir"`
	MusicDir   string `toml:"music_dir"`
	LogDir     string `toml:"log_dir"`
	StateDir   string `toml:"state_dir"`
}

// Transcription contains configuration for the Google Cloud Speech-to-Text API.
type Transcription struct {
	// CredentialsFile is a service-account JSON key. Falls back to
	// GOOGLE_APPLICATION_CREDENTIALS.
	CredentialsFile string `toml:"credentials_file"`
	// APIKey is used when no credentials file is configured. Falls back to GOOGLE_API_KEY.
	APIKey               string `toml:"api_key"`
	BaseURL              string `toml:"base_url"`
	LanguageCode         string `toml:"language_code"`
	SampleRateHertz      int    `toml:"sample_rate_hertz"`
	TimeoutSeconds       int    `toml:"timeout_seconds"`
	AutomaticPunctuation bool   `toml:"automatic_punctuation"`
}

// Music contains configuration for background track selection.
type Music struct {
	TargetRate int `toml:"target_rate"`
}

// Render contains configuration for the final encode and caption styling.
type Render struct {
	VideoCodec        string  `toml:"video_codec"`
	AudioCodec        string  `toml:"audio_codec"`
	CRF               int     `toml:"crf"`
	Preset            string  `toml:"preset"`
	FontSize          int     `toml:"font_size"`
	FontColor         string  `toml:"font_color"`
	FontFile          string  `toml:"font_file"`
	BottomMargin      int     `toml:"bottom_margin"`
	WrapWidth         int     `toml:"wrap_width"`
	MusicVolume       float64 `toml:"music_volume"`
	KeepOriginalAudio bool    `toml:"keep_original_audio"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for automontage.
//
// Configuration sections by subsystem:
//   - Paths: input video, output/music directories, logs and run history
//   - Transcription: Google Speech-to-Text credentials and request settings
//   - Music: target rate used to pick the background track
//   - Render: codecs, quality and caption styling
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Transcription Transcription `toml:"transcription"`
	Music         Music         `toml:"music"`
	Render        Render        `toml:"render"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("automontage.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories automontage writes to. The music
// directory is only read, so it is never created.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for extraction and rendering.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// HistoryPath returns the SQLite database holding run history.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// HasCredentials reports whether any speech API credential is configured.
func (c *Config) HasCredentials() bool {
	return strings.TrimSpace(c.Transcription.CredentialsFile) != "" || strings.TrimSpace(c.Transcription.APIKey) != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
