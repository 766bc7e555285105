package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort                   = 16182
	DefaultSpeed                  = 1.0
	DefaultDelayOutlineColor      = "#ffffff"
	DefaultRequestIntervalSeconds = 3
	DefaultHoverRadiusIncrement   = 5
	DefaultLabelMinZoom           = 12
	DefaultTimeoutMS              = 10000
	DefaultViewWidth              = 800
	DefaultViewHeight             = 600
)

// DefaultFrameRateTable maps a zoom level to the redraw interval in
// milliseconds at real-time speed.
var DefaultFrameRateTable = []int{
	100000, 50000, 40000, 30000, 20000, 15000, 10000, 5000, 2000, 1000,
	400, 300, 250, 180, 90, 60, 50, 40, 30, 20, 20,
}

// Config is the global application configuration
var Config AppConfig

// LoadAppConfig loads and validates the application configuration. The first
// readable path wins; with no paths config.yml in the working directory is used.
func LoadAppConfig(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{"config.yml", "./config/config.yml"}
	}
	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return err
	}
	cfg, err := Parse(data)
	if err != nil {
		return err
	}
	Config = cfg
	return nil
}

// Parse decodes, validates and fills defaults for a YAML document.
func Parse(data []byte) (AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return AppConfig{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Default returns a configuration with every default applied.
func Default() AppConfig {
	var cfg AppConfig
	cfg.applyDefaults()
	return cfg
}

// Validate checks struct tags on every section.
func Validate(cfg AppConfig) error {
	v := validator.New()
	for _, section := range []any{cfg.Server, cfg.Tracker, cfg.Feed, cfg.View} {
		if err := v.Struct(section); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	return nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	t := &c.Tracker
	if t.Interpolate == nil {
		on := true
		t.Interpolate = &on
	}
	if t.Speed == nil {
		s := DefaultSpeed
		t.Speed = &s
	}
	if len(t.FrameRateTable) == 0 {
		t.FrameRateTable = append([]int(nil), DefaultFrameRateTable...)
	}
	if t.DelayOutlineColor == "" {
		t.DelayOutlineColor = DefaultDelayOutlineColor
	}
	if t.RequestIntervalSeconds == 0 {
		t.RequestIntervalSeconds = DefaultRequestIntervalSeconds
	}
	if t.HoverRadiusIncrement == 0 {
		t.HoverRadiusIncrement = DefaultHoverRadiusIncrement
	}
	if t.LabelMinZoom == 0 {
		t.LabelMinZoom = DefaultLabelMinZoom
	}
	if c.Feed.Format == "" {
		c.Feed.Format = "geojson"
	}
	if c.Feed.TimeoutMS == 0 {
		c.Feed.TimeoutMS = DefaultTimeoutMS
	}
	if c.View.Width == 0 {
		c.View.Width = DefaultViewWidth
	}
	if c.View.Height == 0 {
		c.View.Height = DefaultViewHeight
	}
}
