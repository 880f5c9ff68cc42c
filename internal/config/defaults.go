package config

const (
	defaultConfigPath       = "~/.config/automontage/config.toml"
	defaultOutputDir        = "~/automontage/output"
	defaultMusicDir         = "~/automontage/music"
	defaultLogDir           = "~/.local/share/automontage/logs"
	defaultStateDir         = "~/.local/share/automontage"
	defaultSpeechBaseURL    = "https://speech.googleapis.com"
	defaultLanguageCode     = "en-US"
	defaultSampleRateHertz  = 16000
	defaultSpeechTimeout    = 120
	defaultTargetRate       = 150
	defaultVideoCodec       = "libx264"
	defaultAudioCodec       = "aac"
	defaultCRF              = 23
	defaultPreset           = "medium"
	defaultFontSize         = 24
	defaultFontColor        = "white"
	defaultBottomMargin     = 40
	defaultWrapWidth        = 42
	defaultMusicVolume      = 1.0
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			MusicDir:  defaultMusicDir,
			LogDir:    defaultLogDir,
			StateDir:  defaultStateDir,
		},
		Transcription: Transcription{
			BaseURL:              defaultSpeechBaseURL,
			LanguageCode:         defaultLanguageCode,
			SampleRateHertz:      defaultSampleRateHertz,
			TimeoutSeconds:       defaultSpeechTimeout,
			AutomaticPunctuation: true,
		},
		Music: Music{
			TargetRate: defaultTargetRate,
		},
		Render: Render{
			VideoCodec:   defaultVideoCodec,
			AudioCodec:   defaultAudioCodec,
			CRF:          defaultCRF,
			Preset:       defaultPreset,
			FontSize:     defaultFontSize,
			FontColor:    defaultFontColor,
			BottomMargin: defaultBottomMargin,
			WrapWidth:    defaultWrapWidth,
			MusicVolume:  defaultMusicVolume,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
