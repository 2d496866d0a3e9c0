package config

import (
	"fmt"
	"time"
)

const maxAlternativesLimit = 30

type Config struct {
	Env                        string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechEndpoint  string
	MaxAlternatives            int
	InterimResults             bool
	MaxAudioMessageBytes       int
	OpenTimeout                time.Duration
	CloseTimeout               time.Duration
}

func (c *Config) Validate() error {
	if c.MaxAlternatives < 0 || c.MaxAlternatives > maxAlternativesLimit {
		return fmt.Errorf("SPEECH_MAX_ALTERNATIVES must be between 0 and %d, got %d", maxAlternativesLimit, c.MaxAlternatives)
	}
	if c.MaxAudioMessageBytes <= 0 {
		return fmt.Errorf("SPEECH_MAX_AUDIO_MESSAGE_BYTES must be positive, got %d", c.MaxAudioMessageBytes)
	}
	if c.MaxAudioMessageBytes%2 != 0 {
		return fmt.Errorf("SPEECH_MAX_AUDIO_MESSAGE_BYTES must be a whole number of 16-bit samples, got %d", c.MaxAudioMessageBytes)
	}
	if c.OpenTimeout <= 0 {
		return fmt.Errorf("SPEECH_OPEN_TIMEOUT must be positive, got %s", c.OpenTimeout)
	}
	if c.CloseTimeout <= 0 {
		return fmt.Errorf("SPEECH_CLOSE_TIMEOUT must be positive, got %s", c.CloseTimeout)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
