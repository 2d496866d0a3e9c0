package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/speechstream/internal/config"
)

type envConfig struct {
	Env                        string        `env:"ENV" envDefault:"production"`
	GoogleCloudCredentialsJSON string        `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleCloudSpeechEndpoint  string        `env:"GOOGLE_CLOUD_SPEECH_ENDPOINT"`
	MaxAlternatives            int           `env:"SPEECH_MAX_ALTERNATIVES" envDefault:"1"`
	InterimResults             bool          `env:"SPEECH_INTERIM_RESULTS" envDefault:"false"`
	MaxAudioMessageBytes       int           `env:"SPEECH_MAX_AUDIO_MESSAGE_BYTES" envDefault:"25600"`
	OpenTimeout                time.Duration `env:"SPEECH_OPEN_TIMEOUT" envDefault:"15s"`
	CloseTimeout               time.Duration `env:"SPEECH_CLOSE_TIMEOUT" envDefault:"5s"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechEndpoint:  raw.GoogleCloudSpeechEndpoint,
		MaxAlternatives:            raw.MaxAlternatives,
		InterimResults:             raw.InterimResults,
		MaxAudioMessageBytes:       raw.MaxAudioMessageBytes,
		OpenTimeout:                raw.OpenTimeout,
		CloseTimeout:               raw.CloseTimeout,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
