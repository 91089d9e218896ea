// Package config loads runtime settings from an optional file, environment
// variables prefixed MEMSCENE_, and built-in defaults, in that precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"memscene/features"

	"github.com/spf13/viper"
)

type Settings struct {
	Process     string `mapstructure:"process"`
	OffsetsFile string `mapstructure:"offsets_file"`

	UpdateInterval   time.Duration `mapstructure:"update_interval"`
	RescanInterval   time.Duration `mapstructure:"rescan_interval"`
	LivenessInterval time.Duration `mapstructure:"liveness_interval"`
	ShutdownGrace    time.Duration `mapstructure:"shutdown_grace"`

	FrameRate      int     `mapstructure:"frame_rate"`
	ViewportWidth  float32 `mapstructure:"viewport_width"`
	ViewportHeight float32 `mapstructure:"viewport_height"`
	Color          bool    `mapstructure:"color"`
	Clear          bool    `mapstructure:"clear"`

	HeadOffset       float32 `mapstructure:"head_offset"`
	PositionBound    float32 `mapstructure:"position_bound"`
	DefaultMaxHealth float32 `mapstructure:"default_max_health"`

	Features map[string]interface{} `mapstructure:"features"`
}

// DefaultFeatures are the toggles in effect before any configuration.
var DefaultFeatures = map[string]interface{}{
	string(features.ESPEnabled):       false,
	string(features.ESPBox):           true,
	string(features.ESPName):          true,
	string(features.ESPHealth):        true,
	string(features.ESPDistance):      true,
	string(features.ESPSnaplines):     false,
	string(features.ShowSpeed):        false,
	string(features.ShowPosition):     false,
	string(features.CrosshairEnabled): false,
	string(features.FOVCircle):        false,
	string(features.FOVCircleRadius):  100,
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("process", "RobloxPlayerBeta.exe")
	v.SetDefault("offsets_file", "")
	v.SetDefault("update_interval", 5*time.Millisecond)
	v.SetDefault("rescan_interval", time.Second)
	v.SetDefault("liveness_interval", time.Second)
	v.SetDefault("shutdown_grace", 2*time.Second)
	v.SetDefault("frame_rate", 60)
	v.SetDefault("viewport_width", 1920)
	v.SetDefault("viewport_height", 1080)
	v.SetDefault("color", true)
	v.SetDefault("clear", false)
	v.SetDefault("head_offset", 1.5)
	v.SetDefault("position_bound", 50000)
	v.SetDefault("default_max_health", 100)
	for k, val := range DefaultFeatures {
		v.SetDefault("features."+k, val)
	}
}

// Load reads path when it is non-empty. A missing file is an error only when
// a path was given explicitly.
func Load(path string) (Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("memscene")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) Validate() error {
	var errs []error
	if s.Process == "" {
		errs = append(errs, errors.New("process must not be empty"))
	}
	if s.UpdateInterval <= 0 {
		errs = append(errs, fmt.Errorf("update_interval must be positive, got %s", s.UpdateInterval))
	}
	if s.RescanInterval <= 0 {
		errs = append(errs, fmt.Errorf("rescan_interval must be positive, got %s", s.RescanInterval))
	}
	if s.LivenessInterval <= 0 {
		errs = append(errs, fmt.Errorf("liveness_interval must be positive, got %s", s.LivenessInterval))
	}
	if s.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("frame_rate must be positive, got %d", s.FrameRate))
	}
	if s.ViewportWidth <= 0 || s.ViewportHeight <= 0 {
		errs = append(errs, fmt.Errorf("viewport %gx%g is empty", s.ViewportWidth, s.ViewportHeight))
	}
	return errors.Join(errs...)
}
