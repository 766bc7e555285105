package layer

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/theoremus-urban-solutions/trajectory-tracker/config"
)

// Options configures a Layer. Zero fields take the configuration defaults;
// Interpolate, Speed and ShowDelay are pointers so that false and 0 can be
// asked for explicitly.
type Options struct {
	// URL is passed to the fetcher on every refresh.
	URL                  string
	Interpolate          *bool
	Speed                *float64
	ShowDelay            *bool
	FrameRateTable       []int
	DelayOutlineColor    string
	RequestInterval      time.Duration
	HoverRadiusIncrement int
	LabelMinZoom         int
	// Clock drives the frame loop and refreshes. Nil means the real clock.
	Clock clockwork.Clock
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

// OptionsFromConfig builds layer options from the application config.
func OptionsFromConfig(cfg config.AppConfig) Options {
	interpolate := cfg.Tracker.InterpolateEnabled()
	speed := cfg.Tracker.InitialSpeed()
	showDelay := cfg.Tracker.DelayStyleEnabled()
	return Options{
		URL:                  cfg.Feed.URL,
		Interpolate:          &interpolate,
		Speed:                &speed,
		ShowDelay:            &showDelay,
		FrameRateTable:       cfg.Tracker.FrameRateTable,
		DelayOutlineColor:    cfg.Tracker.DelayOutlineColor,
		RequestInterval:      time.Duration(cfg.Tracker.RequestIntervalSeconds) * time.Second,
		HoverRadiusIncrement: cfg.Tracker.HoverRadiusIncrement,
		LabelMinZoom:         cfg.Tracker.LabelMinZoom,
	}
}

// WithSpeed sets the initial playback speed.
func (o Options) WithSpeed(speed float64) Options {
	o.Speed = &speed
	return o
}

func (o *Options) applyDefaults() {
	d := DefaultOptions()
	if o.Interpolate == nil {
		o.Interpolate = d.Interpolate
	}
	if o.Speed == nil {
		o.Speed = d.Speed
	}
	if o.ShowDelay == nil {
		o.ShowDelay = d.ShowDelay
	}
	if len(o.FrameRateTable) == 0 {
		o.FrameRateTable = d.FrameRateTable
	}
	if o.DelayOutlineColor == "" {
		o.DelayOutlineColor = d.DelayOutlineColor
	}
	if o.RequestInterval <= 0 {
		o.RequestInterval = d.RequestInterval
	}
	if o.HoverRadiusIncrement == 0 {
		o.HoverRadiusIncrement = d.HoverRadiusIncrement
	}
	if o.LabelMinZoom == 0 {
		o.LabelMinZoom = d.LabelMinZoom
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
}
