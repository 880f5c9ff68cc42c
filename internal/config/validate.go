package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Credentials are not required
// here so that offline commands (music list, history) work without them; the
// run command checks them through preflight.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.MusicDir == "" {
		return errors.New("paths.music_dir must be set")
	}
	if c.Paths.InputVideo != "" && c.Paths.InputVideo == c.Paths.OutputDir {
		return errors.New("paths.input_video must not be the output directory")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	rate := c.Transcription.SampleRateHertz
	if rate < 8000 || rate > 48000 {
		return fmt.Errorf("transcription.sample_rate_hertz must be between 8000 and 48000, got %d", rate)
	}
	return ensurePositiveMap(map[string]int{
		"transcription.timeout_seconds": c.Transcription.TimeoutSeconds,
	})
}

func (c *Config) validateRender() error {
	if c.Render.CRF < 0 || c.Render.CRF > 51 {
		return errors.New("render.crf must be between 0 and 51")
	}
	if c.Render.MusicVolume < 0 {
		return errors.New("render.music_volume must be >= 0")
	}
	if c.Render.BottomMargin < 0 {
		return errors.New("render.bottom_margin must be >= 0")
	}
	return ensurePositiveMap(map[string]int{
		"render.font_size":  c.Render.FontSize,
		"render.wrap_width": c.Render.WrapWidth,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
