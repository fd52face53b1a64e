// Package config loads the harness's runtime configuration: compiled-in
// defaults, optionally overridden by a YAML file, then by a small set
// of environment variables, then validated once.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the harness's complete runtime configuration. It never
// reaches the core engine directly; cmd/ translates it into an
// engine.Config and the per-runner options that need it.
type Config struct {
	Debug    bool   `yaml:"debug"`
	LogLevel string `yaml:"log_level"`

	Engine    EngineConfig    `yaml:"engine"`
	Audio     AudioConfig     `yaml:"audio"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
}

// EngineConfig fixes the spectral core's compile-time sizing and the
// default parameter block it starts with.
type EngineConfig struct {
	FFTSize       int    `yaml:"fft_size"`
	WavetableSize int    `yaml:"wavetable_size"`
	MaxVoices     int    `yaml:"max_voices"`
	Window        string `yaml:"window"`

	Waveform         string  `yaml:"waveform"`
	Gain             float32 `yaml:"gain"`
	Feedback         float32 `yaml:"feedback"`
	GlideSteps       uint16  `yaml:"glide_steps"`
	Voices           int     `yaml:"voices"`
	ContinuousTuning bool    `yaml:"continuous_tuning"`
	TuneIntervalMs   uint16  `yaml:"tune_interval_ms"`
	FFTThreshold     float32 `yaml:"fft_threshold"`
}

// AudioConfig holds settings for the live device runner.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`
	OutputDevice    int     `yaml:"output_device"`
	SampleRate      float64 `yaml:"sample_rate"`
	FramesPerBuffer int     `yaml:"frames_per_buffer"`
	LowLatency      bool    `yaml:"low_latency"`
}

// RecordingConfig holds recording settings. They are loaded with the
// rest of the configuration, but no runner reads them: the offline WAV
// runner writes at the input file's bit depth, and live recording
// writes 32-bit PCM to the path the record command is given.
type RecordingConfig struct {
	OutputDir string `yaml:"output_dir"`
	Format    string `yaml:"format"`
	BitDepth  int    `yaml:"bit_depth"`
}

// TransportConfig holds settings for the telemetry broadcaster.
type TransportConfig struct {
	Enabled      bool          `yaml:"enabled"`
	ListenAddr   string        `yaml:"listen_addr"`
	SendInterval time.Duration `yaml:"send_interval"`
}

func defaults() Config {
	return Config{
		Debug:    false,
		LogLevel: "info",
		Engine: EngineConfig{
			FFTSize:          1024,
			WavetableSize:    512,
			MaxVoices:        32,
			Window:           "hann",
			Waveform:         "sine",
			Gain:             1,
			Feedback:         0,
			GlideSteps:       100,
			Voices:           16,
			ContinuousTuning: true,
			TuneIntervalMs:   100,
			FFTThreshold:     0.01,
		},
		Audio: AudioConfig{
			InputDevice:     -1,
			OutputDevice:    -1,
			SampleRate:      44100,
			FramesPerBuffer: 1024,
			LowLatency:      false,
		},
		Recording: RecordingConfig{
			OutputDir: "./recordings",
			Format:    "wav",
			BitDepth:  16,
		},
		Transport: TransportConfig{
			Enabled:      false,
			ListenAddr:   "127.0.0.1:9090",
			SendInterval: 33 * time.Millisecond,
		},
	}
}

// Load builds a Config from compiled-in defaults, a YAML file at path
// (if path is non-empty, or "config.yaml" if found in the working
// directory), and environment variable overrides, in that order, then
// validates the result.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the few settings that the layered loader cannot
// enforce by construction (YAML can set anything to zero or negative).
func (c *Config) Validate() error {
	if c.Engine.FFTSize <= 0 {
		return fmt.Errorf("engine.fft_size must be positive, got %d", c.Engine.FFTSize)
	}
	if c.Engine.WavetableSize <= 0 {
		return fmt.Errorf("engine.wavetable_size must be positive, got %d", c.Engine.WavetableSize)
	}
	if c.Engine.MaxVoices <= 0 {
		return fmt.Errorf("engine.max_voices must be positive, got %d", c.Engine.MaxVoices)
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive, got %v", c.Audio.SampleRate)
	}
	if c.Transport.Enabled && c.Transport.ListenAddr == "" {
		return fmt.Errorf("transport.listen_addr must be set when transport.enabled is true")
	}
	return nil
}

// applyEnvOverrides lets a small set of SPECTRAL_-prefixed environment
// variables override whatever the file/defaults set, applied last so
// a deployment can pin a handful of settings without a config file.
func (c *Config) applyEnvOverrides() {
	if v, ok := os.LookupEnv("SPECTRAL_DEBUG"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
		}
	}
	if v, ok := os.LookupEnv("SPECTRAL_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv("SPECTRAL_TRANSPORT_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Transport.Enabled = b
		}
	}
	if v, ok := os.LookupEnv("SPECTRAL_TRANSPORT_LISTEN_ADDR"); ok {
		c.Transport.ListenAddr = v
	}
}
