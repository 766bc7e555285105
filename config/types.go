package config

// ServerConfig contains server configuration
type ServerConfig struct {
	Port int `yaml:"port" validate:"gte=0,lte=65535"`
}

// TrackerConfig contains playback and styling options
type TrackerConfig struct {
	Interpolate            *bool    `yaml:"interpolate"`
	Speed                  *float64 `yaml:"speed" validate:"omitempty,gte=0"`
	FrameRateTable         []int    `yaml:"frameRateTable" validate:"omitempty,dive,gt=0"` // zoom level -> ms
	DelayOutlineColor      string   `yaml:"delayOutlineColor" validate:"omitempty,hexcolor"`
	ShowDelay              *bool    `yaml:"showDelay"` // delay halo and text
	RequestIntervalSeconds int      `yaml:"requestIntervalSeconds" validate:"gte=0"`
	HoverRadiusIncrement   int      `yaml:"hoverRadiusIncrement" validate:"gte=0"`
	LabelMinZoom           int      `yaml:"labelMinZoom" validate:"gte=0"`
}

// FeedConfig describes where trajectory updates come from
type FeedConfig struct {
	URL                 string         `yaml:"url"`
	Format              string         `yaml:"format" validate:"omitempty,oneof=geojson gtfsrt"`
	TimeoutMS           int            `yaml:"timeoutMS" validate:"gte=0"`
	VehiclePositionsURL string         `yaml:"vehiclePositionsURL"`
	TripUpdatesURL      string         `yaml:"tripUpdatesURL"`
	GTFSPath            string         `yaml:"gtfsPath"` // static GTFS zip for route labels
	HoldSeconds         int            `yaml:"holdSeconds" validate:"gte=0"`
	RouteTypes          map[string]int `yaml:"routeTypes" validate:"omitempty,dive,gte=0"` // route_id prefix -> category
}

// ViewConfig describes the headless viewport used by the CLI
type ViewConfig struct {
	CenterLon float64 `yaml:"centerLon" validate:"gte=-180,lte=180"`
	CenterLat float64 `yaml:"centerLat" validate:"gte=-85,lte=85"`
	Zoom      float64 `yaml:"zoom" validate:"gte=0,lte=28"`
	Width     int     `yaml:"width" validate:"gte=0"`
	Height    int     `yaml:"height" validate:"gte=0"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Tracker TrackerConfig `yaml:"tracker"`
	Feed    FeedConfig    `yaml:"feed"`
	View    ViewConfig    `yaml:"view"`
}

// InterpolateEnabled reports whether temporal-geometric interpolation is on.
func (t TrackerConfig) InterpolateEnabled() bool {
	return t.Interpolate == nil || *t.Interpolate
}

// DelayStyleEnabled reports whether markers show the delay halo and text.
func (t TrackerConfig) DelayStyleEnabled() bool {
	return t.ShowDelay == nil || *t.ShowDelay
}

// InitialSpeed returns the configured speed multiplier.
func (t TrackerConfig) InitialSpeed() float64 {
	if t.Speed == nil {
		return DefaultSpeed
	}
	return *t.Speed
}
