package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	HTTP          HTTPConfig          `yaml:"http"`
	STT           STTConfig           `yaml:"stt"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig contains WebSocket stream server configuration
type ServerConfig struct {
	Port           int    `yaml:"port"`
	BindAddress    string `yaml:"bind_address"`
	StreamPath     string `yaml:"stream_path"`
	MaxMessageSize int64  `yaml:"max_message_size"`
}

// HTTPConfig contains the admin/monitoring HTTP server configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// STTConfig contains speech segmentation parameters
type STTConfig struct {
	Sensitivity       float32 `yaml:"sensitivity"`         // VAD speech probability threshold (0.0-1.0)
	SilenceDuration   float64 `yaml:"silence_duration"`    // seconds of trailing silence before a segment ends
	MinSpeechDuration float64 `yaml:"min_speech_duration"` // shortest speech span accepted as an utterance, seconds
	SampleRate        int     `yaml:"sample_rate"`         // Hz, PCM-16 mono
	Language          string  `yaml:"language"`            // language hint passed to the transcriber
}

// TranscriptionConfig contains transcription API configuration.
// An empty endpoint selects the placeholder transcriber.
type TranscriptionConfig struct {
	Endpoint      string `yaml:"endpoint"`
	APIKey        string `yaml:"api_key"`
	Model         string `yaml:"model"`
	Timeout       int    `yaml:"timeout"` // seconds
	MaxRetries    int    `yaml:"max_retries"`
	MaxConcurrent int    `yaml:"max_concurrent"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Default returns the built-in configuration, matching the documented
// defaults of the segmentation pipeline.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			BindAddress:    "0.0.0.0",
			StreamPath:     "/v1/stream",
			MaxMessageSize: 1 << 20,
		},
		HTTP: HTTPConfig{
			Port:    8081,
			Address: "0.0.0.0",
			Enabled: true,
		},
		STT: STTConfig{
			Sensitivity:       0.5,
			SilenceDuration:   0.5,
			MinSpeechDuration: 0.3,
			SampleRate:        16000,
			Language:          "en",
		},
		Transcription: TranscriptionConfig{
			Model:         "base",
			Timeout:       30,
			MaxRetries:    3,
			MaxConcurrent: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.STT.Validate(); err != nil {
		return fmt.Errorf("stt config: %w", err)
	}

	if err := c.Transcription.Validate(); err != nil {
		return fmt.Errorf("transcription config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates stream server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}

	if s.BindAddress == "" {
		return fmt.Errorf("bind_address cannot be empty")
	}

	if s.StreamPath == "" || s.StreamPath[0] != '/' {
		return fmt.Errorf("stream_path must start with '/', got '%s'", s.StreamPath)
	}

	if s.MaxMessageSize < 1024 {
		return fmt.Errorf("max_message_size must be at least 1024 bytes, got %d", s.MaxMessageSize)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates speech segmentation configuration
func (s *STTConfig) Validate() error {
	if s.Sensitivity < 0 || s.Sensitivity > 1 {
		return fmt.Errorf("sensitivity must be between 0 and 1, got %f", s.Sensitivity)
	}

	if s.SilenceDuration <= 0 {
		return fmt.Errorf("silence_duration must be positive, got %f", s.SilenceDuration)
	}

	if s.MinSpeechDuration <= 0 {
		return fmt.Errorf("min_speech_duration must be positive, got %f", s.MinSpeechDuration)
	}

	if s.SampleRate != 8000 && s.SampleRate != 16000 {
		return fmt.Errorf("sample_rate must be 8000 or 16000 Hz, got %d", s.SampleRate)
	}

	return nil
}

// Validate validates transcription configuration.
// An empty endpoint is allowed and selects the placeholder transcriber.
func (t *TranscriptionConfig) Validate() error {
	if t.Endpoint != "" && t.APIKey == "" {
		return fmt.Errorf("api_key cannot be empty when an endpoint is configured")
	}

	if t.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", t.Timeout)
	}

	if t.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", t.MaxRetries)
	}

	if t.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be at least 1, got %d", t.MaxConcurrent)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetSilenceDuration returns the silence debounce as a time.Duration
func (s *STTConfig) GetSilenceDuration() time.Duration {
	return time.Duration(s.SilenceDuration * float64(time.Second))
}

// GetMinSpeechDuration returns the minimum speech duration as a time.Duration
func (s *STTConfig) GetMinSpeechDuration() time.Duration {
	return time.Duration(s.MinSpeechDuration * float64(time.Second))
}

// GetTimeoutDuration returns the transcription timeout as a time.Duration
func (t *TranscriptionConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(t.Timeout) * time.Second
}
