package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTranscription(); err != nil {
		return err
	}
	c.normalizeRender()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InputVideo, err = expandPath(strings.TrimSpace(c.Paths.InputVideo)); err != nil {
		return fmt.Errorf("paths.input_video: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.MusicDir) == "" {
		c.Paths.MusicDir = defaultMusicDir
	}
	if c.Paths.MusicDir, err = expandPath(c.Paths.MusicDir); err != nil {
		return fmt.Errorf("paths.music_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranscription() error {
	t := &c.Transcription

	t.CredentialsFile = strings.TrimSpace(t.CredentialsFile)
	if t.CredentialsFile == "" {
		if value, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS"); ok {
			t.CredentialsFile = strings.TrimSpace(value)
		}
	}
	if t.CredentialsFile != "" {
		expanded, err := expandPath(t.CredentialsFile)
		if err != nil {
			return fmt.Errorf("transcription.credentials_file: %w", err)
		}
		t.CredentialsFile = expanded
	}

	t.APIKey = strings.TrimSpace(t.APIKey)
	if t.APIKey == "" {
		if value, ok := os.LookupEnv("GOOGLE_API_KEY"); ok {
			t.APIKey = strings.TrimSpace(value)
		}
	}

	t.BaseURL = strings.TrimRight(strings.TrimSpace(t.BaseURL), "/")
	if t.BaseURL == "" {
		t.BaseURL = defaultSpeechBaseURL
	}

	t.LanguageCode = strings.TrimSpace(t.LanguageCode)
	if t.LanguageCode == "" {
		t.LanguageCode = defaultLanguageCode
	}
	tag, err := language.Parse(t.LanguageCode)
	if err != nil {
		return fmt.Errorf("transcription.language_code: invalid BCP-47 tag %q: %w", t.LanguageCode, err)
	}
	t.LanguageCode = tag.String()

	if t.SampleRateHertz == 0 {
		t.SampleRateHertz = defaultSampleRateHertz
	}
	if t.TimeoutSeconds <= 0 {
		t.TimeoutSeconds = defaultSpeechTimeout
	}
	return nil
}

func (c *Config) normalizeRender() {
	r := &c.Render
	r.VideoCodec = strings.TrimSpace(r.VideoCodec)
	if r.VideoCodec == "" {
		r.VideoCodec = defaultVideoCodec
	}
	r.AudioCodec = strings.TrimSpace(r.AudioCodec)
	if r.AudioCodec == "" {
		r.AudioCodec = defaultAudioCodec
	}
	r.Preset = strings.ToLower(strings.TrimSpace(r.Preset))
	if r.Preset == "" {
		r.Preset = defaultPreset
	}
	r.FontColor = strings.TrimSpace(r.FontColor)
	if r.FontColor == "" {
		r.FontColor = defaultFontColor
	}
	r.FontFile = strings.TrimSpace(r.FontFile)
	if r.FontFile != "" {
		if expanded, err := expandPath(r.FontFile); err == nil {
			r.FontFile = expanded
		}
	}
	if r.WrapWidth == 0 {
		r.WrapWidth = defaultWrapWidth
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
