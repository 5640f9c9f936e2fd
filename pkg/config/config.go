package config

import (
	// stdlib
	"errors"
	"fmt"
	"os"
	"strconv"

	// external
	"github.com/pelletier/go-toml/v2"
)

// Enum types

type LoggingLevel string

const (
	LoggingLevelDebug LoggingLevel = "debug"
	LoggingLevelInfo  LoggingLevel = "info"
	LoggingLevelWarn  LoggingLevel = "warn"
	LoggingLevelError LoggingLevel = "error"
)

var ERR_BAD_VALUE = errors.New("Can't accept config value")

func (l LoggingLevel) Validate() error {
	switch l {
	case LoggingLevelDebug, LoggingLevelInfo, LoggingLevelWarn, LoggingLevelError:
		return nil
	}
	return fmt.Errorf("Logging level %q: %w", l, ERR_BAD_VALUE)
}

// Config file structure

type ConfigFile struct {
	Webserver WebserverConfig
	Logging   LoggingConfig
	Detector  DetectorConfig
	Narrator  NarratorConfig
	Storage   StorageConfig
	Upstream  UpstreamConfig
	Reid      ReidConfig
	Ball      BallConfig
	Minimap   MinimapConfig
	Video     VideoConfig
	Mqtt      MqttConfig
	Scratch   ScratchConfig
}

type WebserverConfig struct {
	Port               uint
	ReadTimeoutSec     uint  `toml:"read_timeout_sec"`
	WriteTimeoutSec    uint  `toml:"write_timeout_sec"`
	ShutdownTimeoutSec uint  `toml:"shutdown_timeout_sec"`
	MaxUploadMB        int64 `toml:"max_upload_mb"`
}

type LoggingConfig struct {
	Level LoggingLevel
	// period of the frame time report during analysis
	StatPeriodSec uint `toml:"stat_period_sec"`
}

type DetectorConfig struct {
	BaseURL    string `toml:"base_url"`
	ApiKey     string `toml:"api_key"`
	Model      string
	Version    int
	Confidence int
	Overlap    int
	TimeoutSec uint `toml:"timeout_sec"`
	// every n-th frame of a video goes to the detector
	SampleStride int `toml:"sample_stride"`
}

type NarratorConfig struct {
	BaseURL    string `toml:"base_url"`
	ApiKey     string `toml:"api_key"`
	Model      string
	TimeoutSec uint `toml:"timeout_sec"`
}

type StorageConfig struct {
	URL    string `toml:"url"`
	Key    string
	Bucket string
}

type UpstreamConfig struct {
	ActivationThreshold float64 `toml:"activation_threshold"`
	LostTrackBuffer     int     `toml:"lost_track_buffer"`
	MatchingThreshold   float64 `toml:"matching_threshold"`
}

type ReidConfig struct {
	HistoryLength   int     `toml:"history_length"`
	FeatureBankSize int     `toml:"feature_bank_size"`
	InactiveTimeout int     `toml:"inactive_timeout"`
	PredictionCap   int     `toml:"prediction_cap"`
	MaxDistance     float64 `toml:"max_distance"`
	ClickThreshold  float64 `toml:"click_threshold"`
}

type BallConfig struct {
	TrailLength int `toml:"trail_length"`
}

type MinimapConfig struct {
	Enabled bool
	Width   int
	Height  int
	Margin  int
}

type VideoConfig struct {
	Codecs      []string
	LiveQuality int `toml:"live_quality"`
}

type MqttConfig struct {
	Enabled           bool
	Address           string
	ClientId          string `toml:"client_id"`
	Topic             string
	ConnectTimeoutSec uint `toml:"connect_timeout_sec"`
}

type ScratchConfig struct {
	Dir string
}

func Default() *ConfigFile {
	return &ConfigFile{
		Webserver: WebserverConfig{
			Port:               5001,
			ReadTimeoutSec:     60,
			WriteTimeoutSec:    600,
			ShutdownTimeoutSec: 10,
			MaxUploadMB:        500,
		},
		Logging: LoggingConfig{Level: LoggingLevelInfo, StatPeriodSec: 5},
		Detector: DetectorConfig{
			BaseURL:      "https://detect.roboflow.com",
			Model:        "football-players-detection-3zvbc-lkn9q",
			Version:      1,
			Confidence:   40,
			Overlap:      30,
			TimeoutSec:   30,
			SampleStride: 5,
		},
		Narrator: NarratorConfig{
			BaseURL:    "https://generativelanguage.googleapis.com/",
			Model:      "gemini-1.5-flash",
			TimeoutSec: 300,
		},
		Storage: StorageConfig{Bucket: "videos"},
		Upstream: UpstreamConfig{
			ActivationThreshold: 0.15,
			LostTrackBuffer:     300,
			MatchingThreshold:   0.6,
		},
		Reid: ReidConfig{
			HistoryLength:   30,
			FeatureBankSize: 100,
			InactiveTimeout: 300,
			PredictionCap:   10,
			MaxDistance:     200,
			ClickThreshold:  30,
		},
		Ball:    BallConfig{TrailLength: 50},
		Minimap: MinimapConfig{Enabled: true, Width: 300, Height: 200, Margin: 15},
		Video:   VideoConfig{Codecs: []string{"avc1", "mp4v"}, LiveQuality: 75},
		Mqtt: MqttConfig{
			Address:           "127.0.0.1:1883",
			ClientId:          "pitchtrack",
			Topic:             "pitchtrack/tracking",
			ConnectTimeoutSec: 5,
		},
		Scratch: ScratchConfig{Dir: "temp"},
	}
}

// Secrets and the port come from the environment when set
func (c *ConfigFile) overlayEnv() error {
	if port, ok := os.LookupEnv("PORT"); ok && port != "" {
		p, err := strconv.ParseUint(port, 10, 16)
		if err != nil {
			return fmt.Errorf("PORT=%q: %w: %w", port, ERR_BAD_VALUE, err)
		}
		c.Webserver.Port = uint(p)
	}
	for env, dst := range map[string]*string{
		"ROBOFLOW_API_KEY": &c.Detector.ApiKey,
		"GEMINI_API_KEY":   &c.Narrator.ApiKey,
		"SUPABASE_URL":     &c.Storage.URL,
		"SUPABASE_KEY":     &c.Storage.Key,
	} {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*dst = v
		}
	}
	return nil
}

func (c *ConfigFile) validate() error {
	if err := c.Logging.Level.Validate(); err != nil {
		return err
	}
	if len(c.Video.Codecs) == 0 {
		return fmt.Errorf("Video codecs list is empty: %w", ERR_BAD_VALUE)
	}
	for _, codec := range c.Video.Codecs {
		if len(codec) != 4 {
			return fmt.Errorf("Codec %q is not a fourcc: %w", codec, ERR_BAD_VALUE)
		}
	}
	if c.Video.LiveQuality < 0 || c.Video.LiveQuality > 100 {
		return fmt.Errorf("Live preview quality %d: %w", c.Video.LiveQuality, ERR_BAD_VALUE)
	}
	if c.Detector.SampleStride < 1 {
		return fmt.Errorf("Sample stride %d: %w", c.Detector.SampleStride, ERR_BAD_VALUE)
	}
	return nil
}

func Unmarshal(file_path string) (*ConfigFile, error) {
	config_file := Default()
	data, err := os.ReadFile(file_path)
	if err != nil {
		return nil,
			fmt.Errorf("Unable to read %s error: %w", file_path, err)
	}
	err = toml.Unmarshal(data, config_file)
	if err != nil {
		return nil,
			fmt.Errorf("Unable to unmarshal %s error: %w", file_path, err)
	}
	if err := config_file.overlayEnv(); err != nil {
		return nil, err
	}
	if err := config_file.validate(); err != nil {
		return nil, err
	}
	return config_file, nil
}

// Writes the defaults to file_path
func CreateDefault(file_path string) error {
	data, err := toml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("Can't marshal default config: %w", err)
	}
	if err := os.WriteFile(file_path, data, 0o644); err != nil {
		return fmt.Errorf("Can't write %s: %w", file_path, err)
	}
	return nil
}
